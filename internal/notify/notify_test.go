package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HAAN6892/real-estate-monitor/internal/events"
	"github.com/HAAN6892/real-estate-monitor/internal/resolver"
	"github.com/HAAN6892/real-estate-monitor/internal/wishlist"
)

func TestNotifierRendersCardForEvent(t *testing.T) {
	store := wishlist.NewMemoryStore()
	it := wishlist.Item{
		Property: resolver.Property{ListingID: "7", SourceURL: "https://fin.land.naver.com/articles/7", Name: "자이"},
		Status:   wishlist.StatusResolved,
	}
	require.NoError(t, store.Insert(context.Background(), &it))

	pub := events.NewInMemory(4)
	cards := make(chan string, 1)
	n := &Notifier{Pub: pub, Store: store, Log: zap.NewNop(), Sent: func(c string) { cards <- c }}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	pub.PublishWishlistItemAdded(ctx, events.WishlistItemAdded{ItemID: 999})
	pub.PublishWishlistItemAdded(ctx, events.WishlistItemAdded{ItemID: it.ID, ListingID: "7", Resolved: true})

	select {
	case card := <-cards:
		assert.Contains(t, card, "🏠 자이")
		assert.Contains(t, card, "현재 관심 매물: 1건")
	case <-time.After(2 * time.Second):
		t.Fatal("no card rendered")
	}
}

func TestDrainRendersBufferedEvents(t *testing.T) {
	store := wishlist.NewMemoryStore()
	ctx := context.Background()
	a := wishlist.Item{Property: resolver.Property{ListingID: "1", SourceURL: "https://fin.land.naver.com/articles/1", Name: "자이"}, Status: wishlist.StatusResolved}
	b := wishlist.Item{Property: resolver.Property{ListingID: "2", SourceURL: "https://fin.land.naver.com/articles/2", Name: "래미안"}, Status: wishlist.StatusResolved}
	require.NoError(t, store.Insert(ctx, &a))
	require.NoError(t, store.Insert(ctx, &b))

	pub := events.NewInMemory(4)
	pub.PublishWishlistItemAdded(ctx, events.WishlistItemAdded{ItemID: a.ID, ListingID: "1", Resolved: true})
	pub.PublishWishlistItemAdded(ctx, events.WishlistItemAdded{ItemID: b.ID, ListingID: "2", Resolved: true})

	var cards []string
	n := &Notifier{Pub: pub, Store: store, Log: zap.NewNop(), Sent: func(c string) { cards = append(cards, c) }}

	assert.Equal(t, 2, n.Drain(ctx))
	require.Len(t, cards, 2)
	assert.Contains(t, cards[0], "🏠 자이")
	assert.Contains(t, cards[1], "🏠 래미안")
	assert.Equal(t, 0, n.Drain(ctx))
}
