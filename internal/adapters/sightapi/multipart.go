package sightapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"conkiri_sight/internal/domain"
)

// Multipart field names expected by the review endpoints.
const (
	fieldReview = "reviewRequestDTO"
	fieldFile   = "file"
)

// Photo is the image attached to a review.
type Photo struct {
	Filename    string
	ContentType string // sniffed from Data when empty
	Data        []byte
}

// LoadPhoto reads a photo from disk.
func LoadPhoto(path string) (*Photo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	return &Photo{Filename: name, ContentType: mime.TypeByExtension(filepath.Ext(name)), Data: b}, nil
}

func checkReviewArgs(data *domain.SightReviewRequest, photo *Photo) error {
	if photo == nil || len(photo.Data) == 0 {
		return validationError(MsgPhotoRequired)
	}
	if data == nil {
		return validationError(MsgReviewDataRequired)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func formFileHeader(field, filename, contentType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)
	return h
}

// buildReviewForm encodes data as a JSON blob part and the photo as a file
// part. It returns the body and its Content-Type header value.
func buildReviewForm(data *domain.SightReviewRequest, photo *Photo) ([]byte, string, error) {
	js, err := json.Marshal(data)
	if err != nil {
		return nil, "", fmt.Errorf("encode review data: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	// browsers name Blob parts "blob"
	pw, err := mw.CreatePart(formFileHeader(fieldReview, "blob", "application/json"))
	if err != nil {
		return nil, "", err
	}
	if _, err := pw.Write(js); err != nil {
		return nil, "", err
	}

	name := photo.Filename
	if name == "" {
		name = "blob"
	}
	ct := photo.ContentType
	if ct == "" {
		ct = http.DetectContentType(photo.Data)
	}
	fw, err := mw.CreatePart(formFileHeader(fieldFile, name, ct))
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(photo.Data); err != nil {
		return nil, "", err
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
