package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONGetter_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "v", r.URL.Query().Get("k"))
			w.Write([]byte(`{"value": 1.5}`))
		case "/bad":
			w.Write([]byte(`not json`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`missing`))
		}
	}))
	defer server.Close()

	g := &JSONGetter{Provider: "test", HTTPClient: NewDefaultHTTPClient(time.Second), Limiter: NewLimiter(100)}

	var out map[string]any
	require.NoError(t, g.Get(context.Background(), server.URL, "/ok", url.Values{"k": {"v"}}, &out))
	assert.Equal(t, 1.5, out["value"])

	assert.Error(t, g.Get(context.Background(), server.URL, "/bad", nil, &out))

	err := g.Get(context.Background(), server.URL, "/nope", nil, &out)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "/nope", apiErr.Endpoint)
}
