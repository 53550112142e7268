package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"conkiri_sight/internal/adapters/observability"
	"conkiri_sight/internal/domain"
)

// DefaultListLimit is the page size the archive API serves when none is asked
// for.
const DefaultListLimit = 50

type ArchiveService struct {
	api   domain.ReviewAPI
	repo  domain.ReviewRepository
	cache domain.Cache
}

func NewArchiveService(api domain.ReviewAPI, r domain.ReviewRepository, cache domain.Cache) *ArchiveService {
	return &ArchiveService{api: api, repo: r, cache: cache}
}

// ArchiveArena pulls one arena section and stores every review it lists.
// A 404/401/403 from the API is recorded as a miss and is not an error.
func (s *ArchiveService) ArchiveArena(ctx context.Context, t domain.ArchiveTarget) (int, error) {
	source := fmt.Sprintf("arena:%d", t.ArenaID)
	resp, err := s.api.GetArenaReviews(ctx, t.ArenaID, t.Query)
	if err != nil {
		return 0, s.miss(ctx, source, err)
	}

	rs := mapReviews(resp.Reviews, &t)
	if err := s.store(ctx, source, rs); err != nil {
		return 0, err
	}
	s.invalidateListings(ctx, arenaPrefix(t.ArenaID))
	return len(rs), nil
}

// ArchiveMine stores the reviews of the authenticated user. Arena and section
// are unknown for these and stay NULL.
func (s *ArchiveService) ArchiveMine(ctx context.Context) (int, error) {
	const source = "mine"
	resp, err := s.api.GetMyReviews(ctx)
	if err != nil {
		return 0, s.miss(ctx, source, err)
	}
	rs := mapReviews(resp.Reviews, nil)
	if err := s.store(ctx, source, rs); err != nil {
		return 0, err
	}
	// stored rows keep whatever arena they were first listed under, which is
	// not known here
	if len(rs) > 0 {
		s.invalidateListings(ctx, allArenasPrefix)
	}
	return len(rs), nil
}

func (s *ArchiveService) store(ctx context.Context, source string, rs []domain.ArchivedReview) error {
	if len(rs) > 0 {
		if err := s.repo.UpsertReviews(ctx, rs); err != nil {
			observability.ObserveArchive(source, "error", len(rs))
			// do not swallow: a failed upsert means the archive is stale
			return fmt.Errorf("upsert reviews for %s: %w", source, err)
		}
	}
	observability.ObserveArchive(source, "stored", len(rs))

	// even reviews that did not change may have been cached with older data
	if s.cache != nil {
		for _, r := range rs {
			_ = s.cache.Del(ctx, reviewKey(r.ReviewID))
		}
	}
	return nil
}

// miss records known "nothing to fetch" answers and returns nil for them;
// anything else is returned unchanged.
func (s *ArchiveService) miss(ctx context.Context, source string, err error) error {
	var status int
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	default:
		return err
	}
	observability.ObserveArchive(source, "miss", 1)
	if lerr := s.repo.LogMiss(ctx, source, status, err.Error()); lerr != nil {
		log.Warn().Err(lerr).Str("source", source).Msg("log miss failed")
	}
	return nil
}

// invalidateListings drops every cached arena listing under prefix, whatever
// its filter or limit.
func (s *ArchiveService) invalidateListings(ctx context.Context, prefix string) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.DelPrefix(ctx, prefix); err != nil {
		log.Warn().Err(err).Str("prefix", prefix).Msg("listing invalidation failed")
	}
}
