package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"conkiri_sight/internal/app"
	"conkiri_sight/internal/domain"
)

type fakeAPI struct {
	arena    *domain.ReviewsResponse
	mine     *domain.ReviewsResponse
	err      error
	gotID    int64
	gotQuery domain.ArenaReviewsQuery
}

func (f *fakeAPI) GetArenaReviews(ctx context.Context, arenaID int64, q domain.ArenaReviewsQuery) (*domain.ReviewsResponse, error) {
	f.gotID, f.gotQuery = arenaID, q
	return f.arena, f.err
}
func (f *fakeAPI) GetMyReviews(ctx context.Context) (*domain.ReviewsResponse, error) {
	return f.mine, f.err
}

// statusErr stands in for the API client's error type.
type statusErr struct{ target error }

func (e statusErr) Error() string        { return "remote said no" }
func (e statusErr) Is(target error) bool { return target == e.target }

func TestArchiveArena_StoresAndInvalidates(t *testing.T) {
	api := &fakeAPI{arena: &domain.ReviewsResponse{Reviews: []domain.ReviewDetail{
		{ReviewID: 10, SeatID: 5, Content: "a", WriteTime: "2025-03-01T19:30:00"},
		{ReviewID: 11, SeatID: 6, Content: "b"},
	}}}
	repo := &fakeRepo{}
	cache := &fakeCache{store: map[string]any{"review:10": domain.ArchivedReview{}}}
	svc := app.NewArchiveService(api, repo, cache)

	seat := int64(5)
	target := domain.ArchiveTarget{ArenaID: 3, Query: domain.ArenaReviewsQuery{StageType: 1, Section: 2, SeatID: &seat}}
	n, err := svc.ArchiveArena(context.Background(), target)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if n != 2 || len(repo.stored) != 2 {
		t.Fatalf("stored %d/%d, want 2", n, len(repo.stored))
	}
	if api.gotID != 3 || api.gotQuery.SeatID == nil || *api.gotQuery.SeatID != 5 {
		t.Fatalf("query not forwarded: %d %+v", api.gotID, api.gotQuery)
	}
	first := repo.stored[0]
	if first.ArenaID == nil || *first.ArenaID != 3 || first.Section == nil || *first.Section != 2 {
		t.Fatalf("arena context not mapped: %+v", first)
	}
	if first.WrittenAt == nil || first.WrittenAt.Hour() != 10 { // 19:30 KST
		t.Fatalf("write time not converted to UTC: %v", first.WrittenAt)
	}
	if _, ok := cache.store["review:10"]; ok {
		t.Fatal("review cache entry must be evicted")
	}
	if len(cache.prefixes) != 1 || cache.prefixes[0] != "arena:3:" {
		t.Fatalf("listing invalidation = %v, want [arena:3:]", cache.prefixes)
	}
}

func TestArchiveArena_InvalidatesEveryCachedListing(t *testing.T) {
	repo := &fakeRepo{list: []domain.ArchivedReview{{ReviewID: 1, Content: ptr("old")}}}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, cache, time.Minute)
	ctx := context.Background()

	seat := int64(0)
	filters := []domain.ArenaFilter{
		{StageType: 1, Section: 2, Limit: app.DefaultListLimit},
		{StageType: 1, Section: 2, Limit: 10},
		{StageType: 1, Section: 2, SeatID: &seat, Limit: 200},
	}
	for _, f := range filters {
		if _, err := q.ListArenaReviews(ctx, 3, f); err != nil {
			t.Fatalf("warm %+v: %v", f, err)
		}
	}
	if _, err := q.ListArenaReviews(ctx, 30, filters[1]); err != nil {
		t.Fatal(err)
	}

	api := &fakeAPI{arena: &domain.ReviewsResponse{Reviews: []domain.ReviewDetail{{ReviewID: 1, Content: "new"}}}}
	svc := app.NewArchiveService(api, repo, cache)
	if _, err := svc.ArchiveArena(ctx, domain.ArchiveTarget{ArenaID: 3, Query: domain.ArenaReviewsQuery{StageType: 1, Section: 2}}); err != nil {
		t.Fatalf("archive: %v", err)
	}

	repo.list[0].Content = ptr("new")
	for _, f := range filters {
		out, err := q.ListArenaReviews(ctx, 3, f)
		if err != nil {
			t.Fatal(err)
		}
		if deref(out[0].Content) != "new" {
			t.Errorf("limit %d seat %v still served from cache", f.Limit, f.SeatID)
		}
	}
	// another arena's listing is untouched
	out, _ := q.ListArenaReviews(ctx, 30, filters[1])
	if deref(out[0].Content) != "old" {
		t.Errorf("arena 30 listing was evicted")
	}
}

func TestArchiveArena_MissesAreRecorded(t *testing.T) {
	for _, target := range []error{domain.ErrNotFound, domain.ErrForbidden} {
		t.Run(target.Error(), func(t *testing.T) {
			repo := &fakeRepo{}
			svc := app.NewArchiveService(&fakeAPI{err: statusErr{target}}, repo, nil)

			n, err := svc.ArchiveArena(context.Background(), domain.ArchiveTarget{ArenaID: 8})
			if err != nil || n != 0 {
				t.Fatalf("got (%d, %v), want (0, nil)", n, err)
			}
			if len(repo.misses) != 1 || repo.misses[0] != "arena:8" {
				t.Fatalf("misses = %v", repo.misses)
			}
		})
	}
}

func TestArchiveArena_OtherErrorsBubbleUp(t *testing.T) {
	boom := errors.New("요청 시간이 초과되었습니다.")
	repo := &fakeRepo{}
	svc := app.NewArchiveService(&fakeAPI{err: boom}, repo, nil)

	if _, err := svc.ArchiveArena(context.Background(), domain.ArchiveTarget{ArenaID: 1}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if len(repo.misses) != 0 {
		t.Fatalf("unexpected misses: %v", repo.misses)
	}
}

func TestArchiveMine_UpsertFailure(t *testing.T) {
	api := &fakeAPI{mine: &domain.ReviewsResponse{Reviews: []domain.ReviewDetail{{ReviewID: 1}}}}
	repo := &fakeRepo{failErr: fmt.Errorf("deadlock")}
	svc := app.NewArchiveService(api, repo, &fakeCache{})

	if _, err := svc.ArchiveMine(context.Background()); err == nil {
		t.Fatal("expected upsert error")
	}
}

func TestArchiveMine_NoArenaContext(t *testing.T) {
	api := &fakeAPI{mine: &domain.ReviewsResponse{Reviews: []domain.ReviewDetail{{ReviewID: 1, Raw: []byte(`{"reviewId":1}`)}}}}
	repo := &fakeRepo{}
	svc := app.NewArchiveService(api, repo, &fakeCache{})

	n, err := svc.ArchiveMine(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("got (%d, %v)", n, err)
	}
	if repo.stored[0].ArenaID != nil || string(repo.stored[0].RawJSON) != `{"reviewId":1}` {
		t.Fatalf("unexpected stored review: %+v", repo.stored[0])
	}
}

func TestArchiveMine_InvalidatesArenaListings(t *testing.T) {
	cache := &fakeCache{store: map[string]any{
		"arena:3:1:2:*:10": []domain.ArchivedReview{},
		"arena:9:0:1:4:50": []domain.ArchivedReview{},
		"review:77":        domain.ArchivedReview{},
	}}
	api := &fakeAPI{mine: &domain.ReviewsResponse{Reviews: []domain.ReviewDetail{{ReviewID: 1}}}}
	svc := app.NewArchiveService(api, &fakeRepo{}, cache)

	if _, err := svc.ArchiveMine(context.Background()); err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(cache.store) != 1 {
		t.Fatalf("remaining keys = %v, want only review:77", cache.store)
	}
	if _, ok := cache.store["review:77"]; !ok {
		t.Fatal("unrelated review entry evicted")
	}
}
