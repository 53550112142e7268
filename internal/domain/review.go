package domain

import (
	"encoding/json"
	"time"
)

// SightReviewRequest is the structured part of a create/update call. It is
// sent as the reviewRequestDTO multipart field.
type SightReviewRequest struct {
	ConcertID     int64  `json:"concertId"`
	StageType     int    `json:"stageType"`
	SectionNumber int64  `json:"sectionNumber"`
	RowLine       int64  `json:"rowLine"`
	ColumnLine    int64  `json:"columnLine"`
	Content       string `json:"content"`
	ViewScore     int    `json:"viewScore"`
	SeatDistance  string `json:"seatDistance"`
	Sound         string `json:"sound"`
}

// ReviewDetail mirrors the server's review detail payload. Timestamps are kept
// as the server sends them (zone-less local date-times).
type ReviewDetail struct {
	ReviewID     int64  `json:"reviewId"`
	SeatID       int64  `json:"seatId"`
	RowLine      int64  `json:"rowLine"`
	ColumnLine   int64  `json:"columnLine"`
	ConcertID    int64  `json:"concertId"`
	Content      string `json:"content"`
	ViewScore    int    `json:"viewScore"`
	SeatDistance string `json:"seatDistance"`
	Sound        string `json:"sound"`
	PhotoURL     string `json:"photoUrl"`
	WriteTime    string `json:"writeTime,omitempty"`
	ModifyTime   string `json:"modifyTime,omitempty"`
	StageType    string `json:"stageType"`
	Level        string `json:"level"`
	Nickname     string `json:"nickname"`
	ConcertName  string `json:"concertName"`
	UserID       int64  `json:"userId"`

	Raw json.RawMessage `json:"-"` // payload as received
}

// UnmarshalJSON decodes the review and keeps a copy of the raw payload.
func (r *ReviewDetail) UnmarshalJSON(b []byte) error {
	type plain ReviewDetail
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = ReviewDetail(p)
	r.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// ReviewsResponse is the listing payload shared by the arena and mypage
// endpoints.
type ReviewsResponse struct {
	Reviews []ReviewDetail `json:"reviews"`
}

// ArchivedReview is a review as stored in the local archive. ArenaID, Section
// and StageCode come from the listing that produced it and are nil for reviews
// pulled through the mypage endpoint.
type ArchivedReview struct {
	ReviewID    int64      `json:"reviewId"`
	ArenaID     *int64     `json:"arenaId,omitempty"`
	StageCode   *int       `json:"stageCode,omitempty"`
	Section     *int64     `json:"section,omitempty"`
	SeatID      int64      `json:"seatId"`
	RowLine     int64      `json:"rowLine"`
	ColumnLine  int64      `json:"columnLine"`
	ConcertID   int64      `json:"concertId"`
	ConcertName *string    `json:"concertName,omitempty"`
	StageType   *string    `json:"stageType,omitempty"`
	Content     *string    `json:"content,omitempty"`
	ViewScore   int        `json:"viewScore"`
	Distance    *string    `json:"seatDistance,omitempty"`
	Sound       *string    `json:"sound,omitempty"`
	PhotoURL    *string    `json:"photoUrl,omitempty"`
	UserID      int64      `json:"userId"`
	Nickname    *string    `json:"nickname,omitempty"`
	WrittenAt   *time.Time `json:"writtenAt,omitempty"`
	ModifiedAt  *time.Time `json:"modifiedAt,omitempty"`
	RawJSON     []byte     `json:"-"`
}
