package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"conkiri_sight/internal/domain"
)

type QueryService struct {
	repo     domain.ReviewRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.ReviewRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func reviewKey(id int64) string { return fmt.Sprintf("review:%d", id) }

const allArenasPrefix = "arena:"

// arenaPrefix ends in a colon so arena 3 does not match arena 30.
func arenaPrefix(arenaID int64) string { return fmt.Sprintf("%s%d:", allArenasPrefix, arenaID) }

func arenaKey(arenaID int64, f domain.ArenaFilter) string {
	seat := "*"
	if f.SeatID != nil {
		seat = fmt.Sprint(*f.SeatID)
	}
	return fmt.Sprintf("%s%d:%d:%s:%d", arenaPrefix(arenaID), f.StageType, f.Section, seat, f.Limit)
}

func (s *QueryService) GetReview(ctx context.Context, id int64) (domain.ArchivedReview, error) {
	key := reviewKey(id)
	var r domain.ArchivedReview
	if ok, _ := s.cache.Get(ctx, key, &r); ok {
		return r, nil
	}
	r, err := s.repo.GetReview(ctx, id)
	if err != nil {
		return domain.ArchivedReview{}, err
	}
	_ = s.cache.Set(ctx, key, r, int(s.cacheTTL.Seconds()))
	return r, nil
}

func (s *QueryService) ListArenaReviews(ctx context.Context, arenaID int64, f domain.ArenaFilter) ([]domain.ArchivedReview, error) {
	key := arenaKey(arenaID, f)
	var out []domain.ArchivedReview
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	rs, err := s.repo.ListArenaReviews(ctx, arenaID, f)
	if err != nil {
		return nil, err
	}

	// copy slice to avoid aliasing the repo's backing array
	cp := make([]domain.ArchivedReview, len(rs))
	copy(cp, rs)

	// optional size guard
	if b, _ := json.Marshal(cp); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	}
	return cp, nil
}
