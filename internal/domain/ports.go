package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden") // 401 or 403 from the remote API
)

// ReviewAPI is the read side of the remote sight-review API used by the
// archiver.
type ReviewAPI interface {
	GetArenaReviews(ctx context.Context, arenaID int64, q ArenaReviewsQuery) (*ReviewsResponse, error)
	GetMyReviews(ctx context.Context) (*ReviewsResponse, error)
}

type ReviewRepository interface {
	// Write paths
	UpsertReviews(ctx context.Context, rs []ArchivedReview) error
	LogMiss(ctx context.Context, source string, status int, reason string) error

	// Read paths
	GetReview(ctx context.Context, reviewID int64) (ArchivedReview, error)
	ListArenaReviews(ctx context.Context, arenaID int64, f ArenaFilter) ([]ArchivedReview, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	// DelPrefix removes every key starting with prefix and reports how many
	// were removed.
	DelPrefix(ctx context.Context, prefix string) (int, error)
}

// ArenaReviewsQuery selects the reviews of one arena section. SeatID is sent
// only when non-nil; seat 0 is a valid seat.
type ArenaReviewsQuery struct {
	StageType int
	Section   int64
	SeatID    *int64
}

// ArenaFilter narrows archive reads. Limit is clamped by callers.
type ArenaFilter struct {
	StageType int
	Section   int64
	SeatID    *int64
	Limit     int
}

// ArchiveTarget is one arena section the archiver pulls.
type ArchiveTarget struct {
	ArenaID int64
	Query   ArenaReviewsQuery
}
