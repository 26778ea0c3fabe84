package eodhd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	now := func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	return NewClient("test-key", WithBaseURL(server.URL), WithRateLimit(100), WithClock(now))
}

func TestQualifySymbol(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"AAPL", "AAPL.US"},
		{" msft ", "MSFT.US"},
		{"GSPC.INDX", "GSPC.INDX"},
		{"bhp.au", "BHP.AU"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, QualifySymbol(tt.in))
		})
	}
}

func TestGetQuote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/real-time/AAPL.US", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_token"))
		assert.Equal(t, "json", r.URL.Query().Get("fmt"))
		w.Write([]byte(`{"code":"AAPL.US","close":189.5,"change":"NA","change_p":1.2}`))
	})

	quote, err := client.GetQuote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, 189.5, quote["close"])
	assert.Equal(t, "NA", quote["change"])
}

func TestGetHistory(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eod/GSPC.INDX", r.URL.Path)
		assert.Equal(t, "2025-02-08", r.URL.Query().Get("from"))
		assert.Equal(t, "2025-03-10", r.URL.Query().Get("to"))
		w.Write([]byte(`[
			{"date":"2025-03-06","close":5700,"adjusted_close":5700,"volume":10},
			{"date":"2025-03-07","close":0,"adjusted_close":0,"volume":0},
			{"date":"2025-03-08","close":5750,"adjusted_close":0,"volume":12}
		]`))
	})

	points, err := client.GetHistory(context.Background(), "GSPC.INDX", 30)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "2025-03-06", points[0].Date)
	assert.Equal(t, 5750.0, points[1].Close)
	assert.Equal(t, int64(12), points[1].Volume)
}

func TestGetSymbolNews(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/news", r.URL.Path)
		assert.Equal(t, "TSLA.US", r.URL.Query().Get("s"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write([]byte(`[
			{"date":"2025-03-09T14:00:00+00:00","title":"Tesla ships","content":"<p>Record <b>deliveries</b></p>","link":"https://example.com/a"},
			{"date":"2025-03-09T15:00:00+00:00","title":"  ","content":"empty title","link":"https://example.com/b"}
		]`))
	})

	articles, err := client.GetSymbolNews(context.Background(), "TSLA", 5)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Tesla ships", articles[0].Title)
	assert.Equal(t, "Record deliveries", articles[0].Snippet)
	assert.Equal(t, "2025-03-09T14:00:00Z", articles[0].Date)
	assert.Equal(t, ProviderName, articles[0].Source)
}

func TestGetErrors(t *testing.T) {
	t.Run("rate limited", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
		})
		_, err := client.GetQuote(context.Background(), "AAPL")
		var rle *RateLimitError
		require.ErrorAs(t, err, &rle)
		assert.Equal(t, 30*time.Second, rle.RetryAfter)
	})

	t.Run("api error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("Ticker Not Found."))
		})
		_, err := client.GetQuote(context.Background(), "ZZZZ")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		assert.Contains(t, apiErr.Message, "Ticker Not Found")
	})

	t.Run("missing key", func(t *testing.T) {
		client := NewClient("")
		_, err := client.GetQuote(context.Background(), "AAPL")
		assert.Error(t, err)
	})
}

func TestParseNewsDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-09T14:00:00+00:00", time.Date(2025, 3, 9, 14, 0, 0, 0, time.UTC)},
		{"2025-03-09 14:00:00", time.Date(2025, 3, 9, 14, 0, 0, 0, time.UTC)},
		{"2025-03-09", time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"yesterday", time.Time{}},
	}
	for _, tt := range tests {
		assert.True(t, tt.want.Equal(parseNewsDate(tt.in)), tt.in)
	}
}

func TestSnippetTruncatesOnWord(t *testing.T) {
	got := snippet("alpha beta gamma delta", 12)
	assert.Equal(t, "alpha beta...", got)
}

func TestSnippetKeepsRunesWhole(t *testing.T) {
	// "日本語" is 9 bytes; a byte cut at 4 would split the second rune
	got := snippet("日本語テキスト", 4)
	assert.True(t, utf8.ValidString(got), got)
	assert.Equal(t, "日...", got)
}
