package refresh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueDeduplicatesInFlightListing(t *testing.T) {
	release := make(chan struct{})
	done := make(chan Job, 4)
	r := New(4, 1, time.Second, func(_ context.Context, j Job) {
		<-release
		done <- j
	})

	require.True(t, r.Enqueue(Job{ListingID: "1", URL: "a"}))
	assert.False(t, r.Enqueue(Job{ListingID: "1", URL: "b"}))
	close(release)

	select {
	case j := <-done:
		assert.Equal(t, "a", j.URL)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}

	// once finished the listing may be queued again
	assert.Eventually(t, func() bool { return r.Enqueue(Job{ListingID: "1"}) }, time.Second, 10*time.Millisecond)
}

func TestEnqueueDropsWhenSaturated(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	started := make(chan struct{}, 1)
	r := New(1, 1, time.Second, func(context.Context, Job) {
		started <- struct{}{}
		<-block
	})

	require.True(t, r.Enqueue(Job{ListingID: "1"}))
	<-started
	require.True(t, r.Enqueue(Job{ListingID: "2"}))
	assert.False(t, r.Enqueue(Job{ListingID: "3"}))
}
