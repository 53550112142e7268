package sightapi

import (
	"context"
	"net/http"

	"conkiri_sight/internal/domain"
)

// ---- Public API ----

// SubmitReview creates a review. data and a non-empty photo are required.
func (c *Client) SubmitReview(ctx context.Context, data *domain.SightReviewRequest, photo *Photo) error {
	return c.call("submit_review", func() error {
		return c.sendReviewForm(ctx, "submit_review", http.MethodPost, c.ep.Reviews(), data, photo)
	})
}

// UpdateReview replaces a review, photo included.
func (c *Client) UpdateReview(ctx context.Context, reviewID int64, data *domain.SightReviewRequest, photo *Photo) error {
	return c.call("update_review", func() error {
		return c.sendReviewForm(ctx, "update_review", http.MethodPut, c.ep.ReviewByID(reviewID), data, photo)
	})
}

// GetArenaReviews lists the reviews of one arena section, optionally narrowed
// to a seat.
func (c *Client) GetArenaReviews(ctx context.Context, arenaID int64, q domain.ArenaReviewsQuery) (*domain.ReviewsResponse, error) {
	var out domain.ReviewsResponse
	err := c.call("get_arena_reviews", func() error {
		res, err := c.send(ctx, request{
			op:     "get_arena_reviews",
			method: http.MethodGet,
			path:   c.ep.ArenaReviews(arenaID) + "?" + encodeArenaQuery(q),
		})
		if err != nil {
			return err
		}
		return decodeJSON(res.body, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteReview(ctx context.Context, reviewID int64) error {
	return c.call("delete_review", func() error {
		_, err := c.send(ctx, request{
			op:     "delete_review",
			method: http.MethodDelete,
			path:   c.ep.ReviewByID(reviewID),
		})
		return err
	})
}

func (c *Client) GetReview(ctx context.Context, reviewID int64) (*domain.ReviewDetail, error) {
	var out domain.ReviewDetail
	err := c.call("get_review", func() error {
		res, err := c.send(ctx, request{
			op:     "get_review",
			method: http.MethodGet,
			path:   c.ep.ReviewByID(reviewID),
		})
		if err != nil {
			return err
		}
		return decodeJSON(res.body, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMyReviews lists the reviews written by the authenticated user.
func (c *Client) GetMyReviews(ctx context.Context) (*domain.ReviewsResponse, error) {
	var out domain.ReviewsResponse
	err := c.call("get_my_reviews", func() error {
		res, err := c.send(ctx, request{
			op:     "get_my_reviews",
			method: http.MethodGet,
			path:   c.ep.MyReviews(),
		})
		if err != nil {
			return err
		}
		return decodeJSON(res.body, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ---- Internals ----

func (c *Client) sendReviewForm(ctx context.Context, op, method, path string, data *domain.SightReviewRequest, photo *Photo) error {
	if err := checkReviewArgs(data, photo); err != nil {
		return err
	}
	body, ct, err := buildReviewForm(data, photo)
	if err != nil {
		return err
	}
	_, err = c.send(ctx, request{op: op, method: method, path: path, body: body, contentType: ct})
	return err
}
