package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"conkiri_sight/internal/app"
	"conkiri_sight/internal/domain"
)

const maxListLimit = 200

type Handlers struct{ Q *app.QueryService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type arenaReviews struct {
	ArenaID   int64                   `json:"arenaId"`
	StageType int                     `json:"stageType"`
	Section   int64                   `json:"section"`
	SeatID    *int64                  `json:"seatId,omitempty"`
	Reviews   []domain.ArchivedReview `json:"reviews"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/reviews/{id}", h.getReview)
	s.mux.Get("/v1/arenas/{id}/reviews", h.listArenaReviews)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeLookupError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", what+" not found")
		return
	}
	log.Error().Err(err).Str("what", what).Msg("archive lookup failed")
	writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handlers) getReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	rv, err := h.Q.GetReview(r.Context(), id)
	if err != nil {
		writeLookupError(w, err, "review")
		return
	}
	writeJSON(w, r, rv)
}

func (h *Handlers) listArenaReviews(w http.ResponseWriter, r *http.Request) {
	arenaID, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	q := r.URL.Query()

	stage, err := strconv.Atoi(q.Get("stageType"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid stageType", "stageType is required and must be an integer")
		return
	}
	section, err := strconv.ParseInt(q.Get("section"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid section", "section is required and must be an integer")
		return
	}

	f := domain.ArenaFilter{StageType: stage, Section: section, Limit: app.DefaultListLimit}
	if s := q.Get("seatId"); s != "" {
		seat, err := strconv.ParseInt(s, 10, 64)
		if err != nil || seat < 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid seatId", "seatId must be a non-negative integer")
			return
		}
		f.SeatID = &seat
	}
	if ls := q.Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > maxListLimit {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		f.Limit = l
	}

	rs, err := h.Q.ListArenaReviews(r.Context(), arenaID, f)
	if err != nil {
		writeLookupError(w, err, "reviews")
		return
	}
	if rs == nil {
		rs = []domain.ArchivedReview{}
	}
	writeJSON(w, r, arenaReviews{ArenaID: arenaID, StageType: stage, Section: section, SeatID: f.SeatID, Reviews: rs})
}
