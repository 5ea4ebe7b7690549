package naver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sleepRecorder replaces real sleeping in tests.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits = append(s.waits, d)
	return nil
}

func (s *sleepRecorder) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

func newTestClient(t *testing.T, h http.Handler) (*Client, *sleepRecorder) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	rec := &sleepRecorder{}
	c := NewClient(Options{
		Endpoints: Endpoints{Mobile: srv.URL, Complex: srv.URL, Finance: srv.URL},
		Sleep:     rec.Sleep,
	})
	return c, rec
}

func TestGetSendsDefaultAndProviderHeaders(t *testing.T) {
	headers := make(chan http.Header, 1)
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		w.Write([]byte(`{}`))
	}))

	_, ok := c.FetchArticleKey(context.Background(), "1")
	require.True(t, ok)
	got := <-headers
	assert.Contains(t, got.Get("User-Agent"), "Mozilla/5.0")
	assert.Equal(t, defaultAccept, got.Get("Accept"))
	assert.Equal(t, defaultAcceptLanguage, got.Get("Accept-Language"))
	assert.Equal(t, c.Endpoints().Finance, got.Get("Origin"))
	assert.Equal(t, c.Endpoints().Finance+"/", got.Get("Referer"))
	assert.Equal(t, "cors", got.Get("Sec-Fetch-Mode"))
}

func TestGetClassifiesOutcomes(t *testing.T) {
	var mu sync.Mutex
	status, body := http.StatusOK, `{"ok":true}`
	respond := func(code int, b string) {
		mu.Lock()
		defer mu.Unlock()
		status, body = code, b
	}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		code, b := status, body
		mu.Unlock()
		w.WriteHeader(code)
		w.Write([]byte(b))
	}))
	ctx := context.Background()

	res := c.get(ctx, c.ArticleKeyURL("1"), nil, time.Second)
	assert.True(t, res.Succeeded)
	assert.Equal(t, KindNone, res.Kind)

	respond(http.StatusTooManyRequests, "")
	res = c.get(ctx, c.ArticleKeyURL("1"), nil, time.Second)
	assert.False(t, res.Succeeded)
	assert.Equal(t, KindRateLimited, res.Kind)
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)

	respond(http.StatusForbidden, "")
	res = c.get(ctx, c.ArticleKeyURL("1"), nil, time.Second)
	assert.Equal(t, KindUpstream, res.Kind)
	var se *StatusError
	assert.ErrorAs(t, res.Err, &se)

	respond(http.StatusOK, `<html>blocked</html>`)
	res = c.get(ctx, c.ArticleKeyURL("1"), nil, time.Second)
	assert.Equal(t, KindUpstream, res.Kind)
	assert.ErrorIs(t, res.Err, ErrMalformedBody)
}

func TestGetTransportFailure(t *testing.T) {
	c := NewClient(Options{Endpoints: Endpoints{Mobile: "http://127.0.0.1:1", Complex: "http://127.0.0.1:1", Finance: "http://127.0.0.1:1"}})
	res := c.get(context.Background(), c.ArticleKeyURL("1"), nil, time.Second)
	assert.False(t, res.Succeeded)
	assert.Equal(t, KindUpstream, res.Kind)
	assert.Zero(t, res.StatusCode)
	assert.Error(t, res.Err)
}
