package sightapi

import (
	"fmt"
	"strconv"
	"strings"

	"conkiri_sight/internal/domain"
)

const DefaultPrefix = "/api/v1"

// Endpoints is the fixed path table of the sight-review API. Build it once and
// hand it to New; it has no setters.
type Endpoints struct {
	prefix string
}

func NewEndpoints(prefix string) Endpoints {
	return Endpoints{prefix: strings.TrimRight(prefix, "/")}
}

func DefaultEndpoints() Endpoints { return NewEndpoints(DefaultPrefix) }

func (e Endpoints) ArenaReviews(arenaID int64) string {
	return fmt.Sprintf("%s/view/arenas/%d/reviews", e.prefix, arenaID)
}

func (e Endpoints) Reviews() string { return e.prefix + "/view/reviews" }

func (e Endpoints) ReviewByID(reviewID int64) string {
	return fmt.Sprintf("%s/view/reviews/%d", e.prefix, reviewID)
}

func (e Endpoints) MyReviews() string { return e.prefix + "/mypage/reviews" }

// encodeArenaQuery keeps the stageType, section, seatId order the API
// documents; url.Values would sort the keys.
func encodeArenaQuery(q domain.ArenaReviewsQuery) string {
	var b strings.Builder
	b.WriteString("stageType=")
	b.WriteString(strconv.Itoa(q.StageType))
	b.WriteString("&section=")
	b.WriteString(strconv.FormatInt(q.Section, 10))
	if q.SeatID != nil {
		b.WriteString("&seatId=")
		b.WriteString(strconv.FormatInt(*q.SeatID, 10))
	}
	return b.String()
}
