package news

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layouts seen from the news providers, most common first
var articleLayouts = []string{
	time.RFC3339,
	"01/02/2006, 03:04 PM, -0700 MST", // SerpAPI google_news
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	time.RFC1123Z,
	time.RFC1123,
}

var relativeDate = regexp.MustCompile(`^(\d+)\s+(second|sec|minute|min|hour|day|week|month|year)s?\s+ago$`)

// parseArticleDate understands absolute layouts and relative phrases such
// as "3 days ago" or "yesterday". Values without a zone are read in now's
// location. ok is false when the value is unusable.
func parseArticleDate(value string, now time.Time) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range articleLayouts {
		if t, err := time.ParseInLocation(layout, value, now.Location()); err == nil {
			return t, true
		}
	}

	lower := strings.ToLower(value)
	switch lower {
	case "today", "just now":
		return now, true
	case "yesterday":
		return now.AddDate(0, 0, -1), true
	}

	m := relativeDate.FindStringSubmatch(lower)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	switch m[2] {
	case "second", "sec":
		return now.Add(-time.Duration(n) * time.Second), true
	case "minute", "min":
		return now.Add(-time.Duration(n) * time.Minute), true
	case "hour":
		return now.Add(-time.Duration(n) * time.Hour), true
	case "day":
		return now.AddDate(0, 0, -n), true
	case "week":
		return now.AddDate(0, 0, -7*n), true
	case "month":
		return now.AddDate(0, -n, 0), true
	default:
		return now.AddDate(-n, 0, 0), true
	}
}

// daysAgo counts calendar days between t and now in loc
func daysAgo(t, now time.Time, loc *time.Location) int {
	day := func(ts time.Time) time.Time {
		y, m, d := ts.In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return int(day(now).Sub(day(t)).Hours() / 24)
}

// recency annotates a headline for the prompt
func recency(value string, now time.Time, loc *time.Location) string {
	t, ok := parseArticleDate(value, now.In(loc))
	if !ok {
		return "date unknown"
	}
	switch n := daysAgo(t, now, loc); {
	case n <= 0:
		return "today"
	case n == 1:
		return "1 day ago"
	default:
		return fmt.Sprintf("%d days ago", n)
	}
}
