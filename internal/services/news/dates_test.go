package news

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/models"
)

func TestParseArticleDate(t *testing.T) {
	now := time.Date(2025, 3, 11, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-03-10T14:00:00Z", time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC), true},
		{"03/09/2025, 02:00 PM, +0000 UTC", time.Date(2025, 3, 9, 14, 0, 0, 0, time.UTC), true},
		{"2025-03-01", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"Mar 5, 2025", time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"3 hours ago", now.Add(-3 * time.Hour), true},
		{"2 days ago", now.AddDate(0, 0, -2), true},
		{"1 week ago", now.AddDate(0, 0, -7), true},
		{"Yesterday", now.AddDate(0, 0, -1), true},
		{"", time.Time{}, false},
		{"sometime last spring", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseArticleDate(tt.in, now)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
			}
		})
	}
}

func TestRecency(t *testing.T) {
	loc := newYork()
	now := time.Date(2025, 3, 11, 10, 0, 0, 0, loc)

	assert.Equal(t, "today", recency("1 hour ago", now, loc))
	assert.Equal(t, "1 day ago", recency("yesterday", now, loc))
	assert.Equal(t, "5 days ago", recency("2025-03-06", now, loc))
	assert.Equal(t, "date unknown", recency("n/a", now, loc))
}

func TestDedupe(t *testing.T) {
	got := dedupe([]models.NewsArticle{
		{Title: "A", Link: "https://x/1"},
		{Title: "B", Link: "https://x/1"},
		{Title: "C"},
		{Title: "c "},
	})
	assert.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, "C", got[1].Title)
}

func TestFilterRecent_KeepsUnparsable(t *testing.T) {
	s := &Service{
		config:   common.NewDefaultConfig().News,
		location: time.UTC,
		now:      func() time.Time { return time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC) },
	}

	got := s.filterRecent([]models.NewsArticle{
		{Title: "fresh", Date: "2025-03-01"},
		{Title: "edge", Date: "2025-02-09"},
		{Title: "stale", Date: "2025-02-08"},
		{Title: "unknown", Date: "last quarter"},
	})

	var titles []string
	for _, a := range got {
		titles = append(titles, a.Title)
	}
	assert.Equal(t, []string{"fresh", "edge", "unknown"}, titles)
}
