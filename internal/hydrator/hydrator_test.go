package hydrator

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HAAN6892/real-estate-monitor/internal/resolver"
	"github.com/HAAN6892/real-estate-monitor/internal/wishlist"
	"github.com/HAAN6892/real-estate-monitor/naver"
)

type scriptedResolver struct {
	mu    sync.Mutex
	names map[string]string
	calls []string
}

func (s *scriptedResolver) ResolveReference(_ context.Context, ref naver.ListingReference) resolver.Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, ref.ListingID)
	return resolver.Property{ListingID: ref.ListingID, SourceURL: ref.SourceURL, Name: s.names[ref.ListingID]}
}

func (s *scriptedResolver) setName(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[id] = name
}

func seedPending(t *testing.T, ids ...string) (*wishlist.Registrar, *scriptedResolver) {
	t.Helper()
	res := &scriptedResolver{names: map[string]string{}}
	reg := wishlist.NewRegistrar(wishlist.NewMemoryStore(), res, nil, nil)
	for _, id := range ids {
		out, err := reg.Register(context.Background(), "https://fin.land.naver.com/articles/"+id, "")
		require.NoError(t, err)
		require.Equal(t, wishlist.StatusPending, out.Item.Status)
	}
	return reg, res
}

func TestRunOnceResolvesPendingItems(t *testing.T) {
	reg, res := seedPending(t, "1", "2", "3")
	res.setName("1", "자이")
	res.setName("3", "래미안")

	job := &RehydrateJob{Wishlist: reg, Config: RehydrateConfig{BatchSize: 2}}
	n, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending, err := reg.Pending(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "2", pending[0].ListingID)
}

func TestRunOnceStopsOnCanceledContext(t *testing.T) {
	reg, res := seedPending(t, "1", "2")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := &RehydrateJob{Wishlist: reg}
	_, err := job.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, res.calls, 2) // registration only
}

type failingWishlist struct{}

func (failingWishlist) Pending(context.Context, int) ([]wishlist.Item, error) {
	return nil, eris.New("db down")
}

func (failingWishlist) Rehydrate(_ context.Context, it wishlist.Item) (wishlist.Item, bool, error) {
	return it, false, nil
}

func TestRunOnceReportsLoadError(t *testing.T) {
	job := &RehydrateJob{Wishlist: failingWishlist{}}
	_, err := job.RunOnce(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestHydratorWriteAppliesOnlyToPendingItems(t *testing.T) {
	reg, _ := seedPending(t, "1")
	h := &Hydrator{Registrar: reg}
	ctx := context.Background()

	became, err := h.Write(ctx, resolver.Property{ListingID: "1"})
	require.NoError(t, err)
	assert.False(t, became, "degraded record is ignored")

	became, err = h.Write(ctx, resolver.Property{ListingID: "1", Name: "자이", Provenance: map[string]resolver.Source{"name": resolver.SourceListingList}})
	require.NoError(t, err)
	assert.True(t, became)

	became, err = h.Write(ctx, resolver.Property{ListingID: "1", Name: "다른 이름"})
	require.NoError(t, err)
	assert.False(t, became)

	it, err := reg.Store().FindByListingID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "자이", it.Name)
	assert.Equal(t, resolver.SourceListingList, it.Provenance["name"])

	became, err = h.Write(ctx, resolver.Property{ListingID: "404", Name: "x"})
	require.NoError(t, err)
	assert.False(t, became)
}
