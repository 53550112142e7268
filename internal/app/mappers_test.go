package app

import (
	"testing"
	"time"

	"conkiri_sight/internal/domain"
)

func TestParseServerTime(t *testing.T) {
	tests := []struct {
		in    string
		want  time.Time
		isNil bool
	}{
		{in: "2025-03-01T19:30:00", want: time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)},
		{in: "2025-03-01T19:30:00.123", want: time.Date(2025, 3, 1, 10, 30, 0, 123000000, time.UTC)},
		{in: "2025-03-01 00:10:00", want: time.Date(2025, 2, 28, 15, 10, 0, 0, time.UTC)},
		{in: "2025-03-01T19:30:00Z", want: time.Date(2025, 3, 1, 19, 30, 0, 0, time.UTC)},
		{in: "", isNil: true},
		{in: "yesterday", isNil: true},
	}
	for _, tt := range tests {
		got := parseServerTime(tt.in)
		if tt.isNil {
			if got != nil {
				t.Errorf("parseServerTime(%q) = %v, want nil", tt.in, got)
			}
			continue
		}
		if got == nil || !got.Equal(tt.want) {
			t.Errorf("parseServerTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMapReview_EmptyStringsBecomeNil(t *testing.T) {
	ar := mapReview(domain.ReviewDetail{ReviewID: 3, Content: "", Sound: "LOUD"}, nil)
	if ar.Content != nil || ar.Sound == nil || *ar.Sound != "LOUD" {
		t.Fatalf("unexpected mapping: %+v", ar)
	}
	if len(ar.RawJSON) == 0 {
		t.Fatal("raw JSON must be synthesized when the payload had none")
	}
}
