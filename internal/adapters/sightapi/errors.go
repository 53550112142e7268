package sightapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"conkiri_sight/internal/domain"
)

// Messages shown to users. They match the wording of the web client.
const (
	MsgPhotoRequired      = "사진 파일은 필수입니다."
	MsgReviewDataRequired = "리뷰 데이터는 필수입니다."
	MsgTimeout            = "요청 시간이 초과되었습니다."
	MsgUnknown            = "알 수 없는 에러가 발생했습니다."
	msgServerFmt          = "서버 에러: %d"
)

// Kind classifies every failure a Client returns.
type Kind int

const (
	KindValidation Kind = iota + 1 // required argument missing, no request sent
	KindTimeout                    // deadline hit or caller cancelled
	KindServer                     // non-2xx response
	KindTransport                  // network, encode or decode failure
	KindUnknown                    // recovered panic
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTimeout:
		return "timeout"
	case KindServer:
		return "server"
	case KindTransport:
		return "transport"
	case KindUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the only error type returned by Client operations. Message is safe
// to show to end users; Err keeps the technical cause for logging.
// Status is 0 unless Kind is KindServer.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Is maps HTTP 404 to domain.ErrNotFound and 401/403 to domain.ErrForbidden.
func (e *Error) Is(target error) bool {
	if e.Kind != KindServer {
		return false
	}
	switch target {
	case domain.ErrNotFound:
		return e.Status == http.StatusNotFound
	case domain.ErrForbidden:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	}
	return false
}

// errorEnvelope is the failure body the API sends. Code and Details are read
// but not surfaced.
type errorEnvelope struct {
	Message string          `json:"message"`
	Code    string          `json:"code,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// serverError builds a KindServer error from a failed response body. A body
// that is empty or not JSON yields the generic status message.
func serverError(status int, body []byte) *Error {
	var env errorEnvelope
	_ = json.Unmarshal(body, &env)
	msg := env.Message
	if msg == "" {
		msg = fmt.Sprintf(msgServerFmt, status)
	}
	return &Error{Kind: KindServer, Status: status, Message: msg}
}

// normalize maps whatever an operation produced onto *Error. It is applied
// once, at the boundary of every exported method.
func normalize(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var pe panicError
	if errors.As(err, &pe) {
		return unknownError(pe.v)
	}
	if errors.Is(err, errTimedOut) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: MsgTimeout, Err: err}
	}
	return &Error{Kind: KindTransport, Message: err.Error(), Err: err}
}

// unknownError wraps a recovered panic value.
func unknownError(v any) *Error {
	return &Error{Kind: KindUnknown, Message: MsgUnknown, Err: fmt.Errorf("panic: %v", v)}
}

// KindOf reports the Kind of err, or 0 when err did not come from a Client.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Message returns the user-facing text for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return MsgUnknown
}
