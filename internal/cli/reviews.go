package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"conkiri_sight/internal/adapters/sightapi"
	"conkiri_sight/internal/domain"
)

type reviewFlags struct {
	data  string
	photo string
}

func (f *reviewFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.data, "data", "", "Review JSON file (reviewRequestDTO)")
	cmd.Flags().StringVar(&f.photo, "photo", "", "Photo file")
}

// load reads whatever was given. Missing inputs stay nil and are reported by
// the client.
func (f *reviewFlags) load() (*domain.SightReviewRequest, *sightapi.Photo, error) {
	var (
		data  *domain.SightReviewRequest
		photo *sightapi.Photo
	)
	if f.photo != "" {
		p, err := sightapi.LoadPhoto(f.photo)
		if err != nil {
			return nil, nil, fmt.Errorf("read photo: %w", err)
		}
		photo = p
	}
	if f.data != "" {
		b, err := os.ReadFile(f.data)
		if err != nil {
			return nil, nil, fmt.Errorf("read data: %w", err)
		}
		data = &domain.SightReviewRequest{}
		if err := json.Unmarshal(b, data); err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", f.data, err)
		}
	}
	return data, photo, nil
}

func parseID(name, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, s)
	}
	return id, nil
}

type ack struct {
	OK       bool   `json:"ok"`
	ReviewID *int64 `json:"reviewId,omitempty"`
}

func (s *session) submitCmd() *cobra.Command {
	var f reviewFlags
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new review with a photo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, photo, err := f.load()
			if err != nil {
				return s.fail(err)
			}
			c, err := s.client()
			if err != nil {
				return s.fail(err)
			}
			if err := c.SubmitReview(cmd.Context(), data, photo); err != nil {
				return s.fail(err)
			}
			return s.print(ack{OK: true})
		},
	}
	f.bind(cmd)
	return cmd
}

func (s *session) updateCmd() *cobra.Command {
	var f reviewFlags
	cmd := &cobra.Command{
		Use:   "update <reviewId>",
		Short: "Replace a review and its photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("reviewId", args[0])
			if err != nil {
				return s.fail(err)
			}
			data, photo, err := f.load()
			if err != nil {
				return s.fail(err)
			}
			c, err := s.client()
			if err != nil {
				return s.fail(err)
			}
			if err := c.UpdateReview(cmd.Context(), id, data, photo); err != nil {
				return s.fail(err)
			}
			return s.print(ack{OK: true, ReviewID: &id})
		},
	}
	f.bind(cmd)
	return cmd
}

func (s *session) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <reviewId>",
		Short: "Delete a review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("reviewId", args[0])
			if err != nil {
				return s.fail(err)
			}
			c, err := s.client()
			if err != nil {
				return s.fail(err)
			}
			if err := c.DeleteReview(cmd.Context(), id); err != nil {
				return s.fail(err)
			}
			return s.print(ack{OK: true, ReviewID: &id})
		},
	}
}

func (s *session) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <reviewId>",
		Short: "Show one review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("reviewId", args[0])
			if err != nil {
				return s.fail(err)
			}
			c, err := s.client()
			if err != nil {
				return s.fail(err)
			}
			r, err := c.GetReview(cmd.Context(), id)
			if err != nil {
				return s.fail(err)
			}
			return s.printRaw(r.Raw, r)
		},
	}
}

func (s *session) arenaCmd() *cobra.Command {
	var (
		stageType int
		section   int64
		seat      int64
	)
	cmd := &cobra.Command{
		Use:   "arena <arenaId>",
		Short: "List reviews for an arena section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("arenaId", args[0])
			if err != nil {
				return s.fail(err)
			}
			q := domain.ArenaReviewsQuery{StageType: stageType, Section: section}
			if cmd.Flags().Changed("seat") {
				q.SeatID = &seat
			}
			c, err := s.client()
			if err != nil {
				return s.fail(err)
			}
			resp, err := c.GetArenaReviews(cmd.Context(), id, q)
			if err != nil {
				return s.fail(err)
			}
			return s.print(resp)
		},
	}
	cmd.Flags().IntVar(&stageType, "stage-type", 0, "Stage type code")
	cmd.Flags().Int64Var(&section, "section", 0, "Section number")
	cmd.Flags().Int64Var(&seat, "seat", 0, "Seat id (optional; 0 is a valid seat)")
	_ = cmd.MarkFlagRequired("stage-type")
	_ = cmd.MarkFlagRequired("section")
	return cmd
}

func (s *session) mineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your own reviews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := s.client()
			if err != nil {
				return s.fail(err)
			}
			resp, err := c.GetMyReviews(cmd.Context())
			if err != nil {
				return s.fail(err)
			}
			return s.print(resp)
		},
	}
}
