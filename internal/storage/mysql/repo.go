package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"conkiri_sight/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}
func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.ArchivedReview) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*20)
	for _, rv := range rs {
		values = append(values, reviewRowPlaceholders)
		args = append(args,
			rv.ReviewID,
			valInt64(rv.ArenaID),
			valInt(rv.StageCode),
			valInt64(rv.Section),
			rv.SeatID,
			rv.RowLine,
			rv.ColumnLine,
			rv.ConcertID,
			valStr(rv.ConcertName),
			valStr(rv.StageType),
			valStr(rv.Content),
			rv.ViewScore,
			valStr(rv.Distance),
			valStr(rv.Sound),
			valStr(rv.PhotoURL),
			rv.UserID,
			valStr(rv.Nickname),
			valTime(rv.WrittenAt),
			valTime(rv.ModifiedAt),
			valJSON(rv.RawJSON),
		)
	}
	sqlStr := insertReviewsPrefix + strings.Join(values, ",") + insertReviewsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// archive_misses.reason is VARCHAR(512), counted in characters.
const maxReasonRunes = 512

func (r *Repo) LogMiss(ctx context.Context, source string, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, source, status, truncateRunes(reason, maxReasonRunes))
	return err
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func (r *Repo) GetReview(ctx context.Context, id int64) (domain.ArchivedReview, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, getReviewSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ArchivedReview{}, domain.ErrNotFound
	}
	return rv, err
}

func (r *Repo) ListArenaReviews(ctx context.Context, arenaID int64, f domain.ArenaFilter) ([]domain.ArchivedReview, error) {
	q := listArenaReviewsSQL
	args := []any{arenaID, f.StageType, f.Section}
	if f.SeatID != nil {
		q += " AND seat_id = ?"
		args = append(args, *f.SeatID)
	}
	q += listArenaOrder
	args = append(args, f.Limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list arena %d reviews: %w", arenaID, err)
	}
	defer rows.Close()

	var out []domain.ArchivedReview
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReview(s scanner) (domain.ArchivedReview, error) {
	var rv domain.ArchivedReview
	var (
		arenaID, section                    sql.NullInt64
		stageCode                           sql.NullInt32
		concertName, stageType, content     sql.NullString
		distance, sound, photoURL, nickname sql.NullString
		writtenAt, modifiedAt               sql.NullTime
		raw                                 []byte
	)
	if err := s.Scan(
		&rv.ReviewID,
		&arenaID,
		&stageCode,
		&section,
		&rv.SeatID,
		&rv.RowLine,
		&rv.ColumnLine,
		&rv.ConcertID,
		&concertName,
		&stageType,
		&content,
		&rv.ViewScore,
		&distance,
		&sound,
		&photoURL,
		&rv.UserID,
		&nickname,
		&writtenAt,
		&modifiedAt,
		&raw,
	); err != nil {
		return domain.ArchivedReview{}, err
	}

	if arenaID.Valid {
		v := arenaID.Int64
		rv.ArenaID = &v
	}
	if stageCode.Valid {
		v := int(stageCode.Int32)
		rv.StageCode = &v
	}
	if section.Valid {
		v := section.Int64
		rv.Section = &v
	}
	rv.ConcertName = nullStr(concertName)
	rv.StageType = nullStr(stageType)
	rv.Content = nullStr(content)
	rv.Distance = nullStr(distance)
	rv.Sound = nullStr(sound)
	rv.PhotoURL = nullStr(photoURL)
	rv.Nickname = nullStr(nickname)
	if writtenAt.Valid {
		t := writtenAt.Time.UTC()
		rv.WrittenAt = &t
	}
	if modifiedAt.Valid {
		t := modifiedAt.Time.UTC()
		rv.ModifiedAt = &t
	}
	if len(raw) > 0 {
		rv.RawJSON = append([]byte(nil), raw...)
	}
	return rv, nil
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
