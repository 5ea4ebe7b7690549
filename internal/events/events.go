package events

import (
	"context"
)

// WishlistItemAdded fires when a listing is registered or a pending item
// finishes resolving.
type WishlistItemAdded struct {
	ItemID    int64
	ListingID string
	Resolved  bool
	Refreshed bool
}

type Publisher interface {
	PublishWishlistItemAdded(ctx context.Context, evt WishlistItemAdded)
	SubscribeWishlistItemAdded() <-chan WishlistItemAdded
}

type inMemory struct{ ch chan WishlistItemAdded }

func NewInMemory(buffer int) Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &inMemory{ch: make(chan WishlistItemAdded, buffer)}
}

// PublishWishlistItemAdded drops the event when no subscriber keeps up.
func (m *inMemory) PublishWishlistItemAdded(_ context.Context, evt WishlistItemAdded) {
	select {
	case m.ch <- evt:
	default:
	}
}

func (m *inMemory) SubscribeWishlistItemAdded() <-chan WishlistItemAdded { return m.ch }
