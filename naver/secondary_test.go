package naver

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelayForAttempt(t *testing.T) {
	assert.Equal(t, 3*time.Second, DelayForAttempt(0))
	assert.Equal(t, 6*time.Second, DelayForAttempt(1))
	assert.Equal(t, 12*time.Second, DelayForAttempt(2))
	assert.Equal(t, 3*time.Second, DelayForAttempt(-1))
}

func statusSequence(calls *int32, codes ...int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(calls, 1)) - 1
		code := codes[len(codes)-1]
		if n < len(codes) {
			code = codes[n]
		}
		w.WriteHeader(code)
		if code == http.StatusOK {
			w.Write([]byte(`{"result":{"complexNumber":"777","tradeTypeName":"매매"}}`))
		}
	}
}

func TestFetchSecondaryBacksOffOnRateLimit(t *testing.T) {
	var calls int32
	c, rec := newTestClient(t, statusSequence(&calls, 429, 429, 200))

	body, ok := c.FetchArticleKey(context.Background(), "123")
	require.True(t, ok)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{3 * time.Second, 6 * time.Second}, rec.Waits())
	assert.Equal(t, "777", KeyListing(body).ComplexID)
}

func TestFetchSecondaryGivesUpAfterLastAttempt(t *testing.T) {
	var calls int32
	c, rec := newTestClient(t, statusSequence(&calls, 429))

	_, ok := c.FetchSecondary(context.Background(), c.ArticleBasicURL("1"), "BASIC", 3)
	assert.False(t, ok)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{3 * time.Second, 6 * time.Second}, rec.Waits())
}

func TestFetchSecondaryDoesNotRetryOtherFailures(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusInternalServerError} {
		var calls int32
		c, rec := newTestClient(t, statusSequence(&calls, code, 200))

		_, ok := c.FetchArticleBasic(context.Background(), "1")
		assert.False(t, ok, "status %d", code)
		assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "status %d", code)
		assert.Empty(t, rec.Waits())
	}
}
