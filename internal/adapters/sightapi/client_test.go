package sightapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conkiri_sight/internal/adapters/sightapi"
	"conkiri_sight/internal/domain"
)

// ---- helpers ----

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

func newClient(t *testing.T, h http.HandlerFunc, opts ...sightapi.Option) *sightapi.Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	cl, err := sightapi.New(ts.URL, opts...)
	require.NoError(t, err)
	return cl
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func requireKind(t *testing.T, err error, kind sightapi.Kind) *sightapi.Error {
	t.Helper()
	require.Error(t, err)
	var e *sightapi.Error
	require.True(t, errors.As(err, &e), "want *sightapi.Error, got %T", err)
	require.Equal(t, kind, e.Kind, "message: %s", e.Message)
	return e
}

func samplePayload() *domain.SightReviewRequest {
	return &domain.SightReviewRequest{
		ConcertID:     12,
		StageType:     1,
		SectionNumber: 7,
		RowLine:       3,
		ColumnLine:    15,
		Content:       "무대가 정면으로 잘 보여요",
		ViewScore:     5,
		SeatDistance:  "CLOSE",
		Sound:         "CLEAR",
	}
}

func samplePhoto() *sightapi.Photo {
	return &sightapi.Photo{Filename: "seat-view.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff, 0xe0, 1, 2, 3}}
}

const reviewJSON = `{"reviewId":42,"seatId":9,"rowLine":3,"columnLine":15,"concertId":12,` +
	`"content":"good","viewScore":5,"seatDistance":"CLOSE","sound":"CLEAR",` +
	`"photoUrl":"https://cdn.example/p.jpg","writeTime":"2025-03-01T19:30:00",` +
	`"stageType":"STANDARD","level":"1","nickname":"kiri","concertName":"Tour","userId":77}`

// ---- validation ----

func TestReviewForm_ValidationBeforeNetwork(t *testing.T) {
	var calls int32
	spy := doerFunc(func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("must not be called")
	})
	cl, err := sightapi.New("http://api.test", sightapi.WithHTTPClient(spy))
	require.NoError(t, err)

	tests := []struct {
		name  string
		data  *domain.SightReviewRequest
		photo *sightapi.Photo
		want  string
	}{
		{"no photo", samplePayload(), nil, sightapi.MsgPhotoRequired},
		{"empty photo", samplePayload(), &sightapi.Photo{Filename: "x.jpg"}, sightapi.MsgPhotoRequired},
		{"no data", nil, samplePhoto(), sightapi.MsgReviewDataRequired},
		{"neither", nil, nil, sightapi.MsgPhotoRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cl.SubmitReview(context.Background(), tt.data, tt.photo)
			e := requireKind(t, err, sightapi.KindValidation)
			assert.Equal(t, tt.want, e.Message)

			err = cl.UpdateReview(context.Background(), 1, tt.data, tt.photo)
			e = requireKind(t, err, sightapi.KindValidation)
			assert.Equal(t, tt.want, e.Message)
		})
	}
	assert.Zero(t, atomic.LoadInt32(&calls))
}

// ---- multipart ----

func TestSubmitReview_MultipartRoundTrip(t *testing.T) {
	want := samplePayload()
	photo := samplePhoto()

	var (
		gotData     domain.SightReviewRequest
		gotName     string
		gotJSONType string
		gotFile     []byte
	)
	cl := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/view/reviews", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		parts := r.MultipartForm.File["reviewRequestDTO"]
		if !assert.Len(t, parts, 1) {
			return
		}
		gotJSONType = parts[0].Header.Get("Content-Type")
		f, err := parts[0].Open()
		if !assert.NoError(t, err) {
			return
		}
		assert.NoError(t, json.NewDecoder(f).Decode(&gotData))
		f.Close()

		file, fh, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		gotName = fh.Filename
		gotFile, _ = io.ReadAll(file)
		file.Close()

		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, cl.SubmitReview(context.Background(), want, photo))
	assert.Equal(t, *want, gotData)
	assert.Equal(t, "application/json", gotJSONType)
	assert.Equal(t, photo.Filename, gotName)
	assert.Equal(t, photo.Data, gotFile)
}

func TestUpdateReview_PutsToReviewByID(t *testing.T) {
	var method, path, fileName string
	cl := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		if _, fh, err := r.FormFile("file"); err == nil {
			fileName = fh.Filename
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, cl.UpdateReview(context.Background(), 42, samplePayload(), samplePhoto()))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/api/v1/view/reviews/42", path)
	assert.Equal(t, "seat-view.jpg", fileName)
}

// ---- reads ----

func TestGetReview_ReturnsDecodedBody(t *testing.T) {
	cl := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/view/reviews/42", r.URL.Path)
		writeJSON(w, http.StatusOK, reviewJSON)
	})

	got, err := cl.GetReview(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ReviewID)
	assert.Equal(t, "kiri", got.Nickname)
	assert.Equal(t, "2025-03-01T19:30:00", got.WriteTime)
	assert.JSONEq(t, reviewJSON, string(got.Raw))
}

func TestGetArenaReviews_Query(t *testing.T) {
	seat := func(v int64) *int64 { return &v }
	tests := []struct {
		name string
		q    domain.ArenaReviewsQuery
		want string
	}{
		{"without seat", domain.ArenaReviewsQuery{StageType: 1, Section: 2}, "stageType=1&section=2"},
		{"with seat", domain.ArenaReviewsQuery{StageType: 1, Section: 2, SeatID: seat(3)}, "stageType=1&section=2&seatId=3"},
		{"seat zero is sent", domain.ArenaReviewsQuery{StageType: 1, Section: 2, SeatID: seat(0)}, "stageType=1&section=2&seatId=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rawQuery, path string
			cl := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				rawQuery, path = r.URL.RawQuery, r.URL.Path
				writeJSON(w, http.StatusOK, `{"reviews":[`+reviewJSON+`]}`)
			})

			got, err := cl.GetArenaReviews(context.Background(), 5, tt.q)
			require.NoError(t, err)
			assert.Equal(t, "/api/v1/view/arenas/5/reviews", path)
			assert.Equal(t, tt.want, rawQuery)
			require.Len(t, got.Reviews, 1)
			assert.Equal(t, int64(42), got.Reviews[0].ReviewID)
		})
	}
}

func TestGetMyReviews(t *testing.T) {
	cl := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/mypage/reviews", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"reviews":[]}`)
	})

	got, err := cl.GetMyReviews(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Reviews)
}

func TestDeleteReview(t *testing.T) {
	var method string
	cl := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		assert.Equal(t, "/api/v1/view/reviews/9", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, cl.DeleteReview(context.Background(), 9))
	assert.Equal(t, http.MethodDelete, method)
}

// ---- failures ----

func TestServerError_UsesEnvelopeMessage(t *testing.T) {
	cl := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"message":"X","code":"VIEW_001","details":{"field":"content"}}`)
	})

	err := cl.DeleteReview(context.Background(), 1)
	e := requireKind(t, err, sightapi.KindServer)
	assert.Equal(t, "X", e.Error())
	assert.Equal(t, http.StatusBadRequest, e.Status)
}

func TestServerError_UnparsableBody(t *testing.T) {
	for _, status := range []int{http.StatusInternalServerError, http.StatusBadGateway} {
		cl := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, "<html>upstream down</html>")
		})

		_, err := cl.GetReview(context.Background(), 1)
		e := requireKind(t, err, sightapi.KindServer)
		assert.Equal(t, "서버 에러: "+strconv.Itoa(status), e.Message)
	}
}

func TestServerError_NotFoundMatchesDomain(t *testing.T) {
	cl := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"message":"리뷰를 찾을 수 없습니다."}`)
	})

	_, err := cl.GetReview(context.Background(), 404)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "리뷰를 찾을 수 없습니다.", sightapi.Message(err))
}

func TestTimeout_CancelsUnderlyingRequest(t *testing.T) {
	cancelled := make(chan struct{})
	blocking := doerFunc(func(r *http.Request) (*http.Response, error) {
		<-r.Context().Done()
		close(cancelled)
		return nil, r.Context().Err()
	})
	cl, err := sightapi.New("http://api.test",
		sightapi.WithHTTPClient(blocking),
		sightapi.WithTimeout(30*time.Millisecond),
	)
	require.NoError(t, err)

	_, err = cl.GetMyReviews(context.Background())
	e := requireKind(t, err, sightapi.KindTimeout)
	assert.Equal(t, sightapi.MsgTimeout, e.Message)

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("underlying request was not cancelled")
	}
}

func TestCallerCancel_IsTimeoutKind(t *testing.T) {
	blocking := doerFunc(func(r *http.Request) (*http.Response, error) {
		<-r.Context().Done()
		return nil, r.Context().Err()
	})
	cl, err := sightapi.New("http://api.test", sightapi.WithHTTPClient(blocking))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	err = cl.DeleteReview(ctx, 1)
	requireKind(t, err, sightapi.KindTimeout)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransportError_KeepsOriginalMessage(t *testing.T) {
	failing := doerFunc(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp 10.0.0.1:443: connect: connection refused")
	})
	cl, err := sightapi.New("http://api.test", sightapi.WithHTTPClient(failing))
	require.NoError(t, err)

	_, err = cl.GetReview(context.Background(), 1)
	e := requireKind(t, err, sightapi.KindTransport)
	assert.Equal(t, "dial tcp 10.0.0.1:443: connect: connection refused", e.Message)
}

func TestDecodeError_IsTransport(t *testing.T) {
	cl := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"reviewId":`)
	})

	_, err := cl.GetReview(context.Background(), 1)
	requireKind(t, err, sightapi.KindTransport)
}

func TestPanic_IsUnknown(t *testing.T) {
	panicky := doerFunc(func(r *http.Request) (*http.Response, error) {
		panic("transport exploded")
	})
	cl, err := sightapi.New("http://api.test", sightapi.WithHTTPClient(panicky))
	require.NoError(t, err)

	err = cl.DeleteReview(context.Background(), 1)
	e := requireKind(t, err, sightapi.KindUnknown)
	assert.Equal(t, sightapi.MsgUnknown, e.Message)
}

// ---- wiring ----

func TestRequestHeaders(t *testing.T) {
	var h http.Header
	cl := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		h = r.Header.Clone()
		writeJSON(w, http.StatusOK, `{"reviews":[]}`)
	}, sightapi.WithHeader("Authorization", "Bearer t0k"))

	_, err := cl.GetMyReviews(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "application/json", h.Get("Accept"))
	assert.Equal(t, "Bearer t0k", h.Get("Authorization"))
	_, perr := uuid.Parse(h.Get("X-Request-ID"))
	assert.NoError(t, perr)
}

func TestCustomEndpoints(t *testing.T) {
	var path string
	cl := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}, sightapi.WithEndpoints(sightapi.NewEndpoints("/proxy/api/v2/")))

	require.NoError(t, cl.DeleteReview(context.Background(), -1))
	assert.Equal(t, "/proxy/api/v2/view/reviews/-1", path)
}

func TestNew_RejectsRelativeBase(t *testing.T) {
	for _, base := range []string{"", "/api/v1", "ftp://x", "localhost:8080"} {
		_, err := sightapi.New(base)
		assert.Error(t, err, base)
	}
}

func TestRateLimit_StillServes(t *testing.T) {
	var hits int32
	cl := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}, sightapi.WithRateLimit(100))

	for i := 0; i < 3; i++ {
		require.NoError(t, cl.DeleteReview(context.Background(), int64(i)))
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestRateLimit_WaitPastCallerDeadlineIsTimeout(t *testing.T) {
	var hits atomic.Int32
	cl := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}, sightapi.WithRateLimit(1))

	// uses up the burst; the next token is a second away
	require.NoError(t, cl.DeleteReview(context.Background(), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	e := requireKind(t, cl.DeleteReview(ctx, 2), sightapi.KindTimeout)
	assert.Equal(t, sightapi.MsgTimeout, e.Message)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, int32(1), hits.Load())
}

func TestRateLimit_WaitCountsAgainstClientTimeout(t *testing.T) {
	var hits atomic.Int32
	cl := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}, sightapi.WithRateLimit(1), sightapi.WithTimeout(50*time.Millisecond))

	require.NoError(t, cl.DeleteReview(context.Background(), 1))

	start := time.Now()
	e := requireKind(t, cl.DeleteReview(context.Background(), 2), sightapi.KindTimeout)
	assert.Equal(t, sightapi.MsgTimeout, e.Message)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, int32(1), hits.Load())
}
