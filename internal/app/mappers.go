package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"conkiri_sight/internal/domain"
)

// The API sends zone-less local date-times in Korea Standard Time.
var serverZone = time.FixedZone("KST", 9*60*60)

// layouts tried in order; fractional seconds are accepted by both
var serverTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseServerTime returns the instant in UTC, or nil for empty/unknown input.
func parseServerTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range serverTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, serverZone); err == nil {
			u := t.UTC()
			return &u
		}
	}
	log.Warn().Str("value", s).Msg("unparseable review timestamp")
	return nil
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func mapReviews(in []domain.ReviewDetail, t *domain.ArchiveTarget) []domain.ArchivedReview {
	out := make([]domain.ArchivedReview, 0, len(in))
	for _, r := range in {
		out = append(out, mapReview(r, t))
	}
	return out
}

// mapReview converts an API review. t is the listing the review came from, or
// nil when it is not known.
func mapReview(r domain.ReviewDetail, t *domain.ArchiveTarget) domain.ArchivedReview {
	ar := domain.ArchivedReview{
		ReviewID:    r.ReviewID,
		SeatID:      r.SeatID,
		RowLine:     r.RowLine,
		ColumnLine:  r.ColumnLine,
		ConcertID:   r.ConcertID,
		ConcertName: ptrStr(r.ConcertName),
		StageType:   ptrStr(r.StageType),
		Content:     ptrStr(r.Content),
		ViewScore:   r.ViewScore,
		Distance:    ptrStr(r.SeatDistance),
		Sound:       ptrStr(r.Sound),
		PhotoURL:    ptrStr(r.PhotoURL),
		UserID:      r.UserID,
		Nickname:    ptrStr(r.Nickname),
		WrittenAt:   parseServerTime(r.WriteTime),
		ModifiedAt:  parseServerTime(r.ModifyTime),
	}
	if t != nil {
		arena, stage, section := t.ArenaID, t.Query.StageType, t.Query.Section
		ar.ArenaID, ar.StageCode, ar.Section = &arena, &stage, &section
	}

	ar.RawJSON = r.Raw
	if len(ar.RawJSON) == 0 {
		raw, err := json.Marshal(r)
		if err != nil {
			log.Error().Err(err).
				Str("context", fmt.Sprintf("mapReview %d", r.ReviewID)).
				Msg("failed to marshal review to JSON")
		}
		ar.RawJSON = raw
	}
	return ar
}
