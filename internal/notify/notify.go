// Package notify renders registration cards for WishlistItemAdded events.
// Delivery to chat is left to whoever reads the log.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/HAAN6892/real-estate-monitor/internal/events"
	"github.com/HAAN6892/real-estate-monitor/internal/wishlist"
)

type Notifier struct {
	Pub   events.Publisher
	Store wishlist.Store
	Log   *zap.Logger
	// Sent receives each rendered card; nil means log only.
	Sent func(card string)
}

func (n *Notifier) Run(ctx context.Context) {
	sub := n.Pub.SubscribeWishlistItemAdded()
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-sub:
			n.handle(ctx, evt)
		}
	}
}

// Drain renders every event already buffered on the subscription and returns
// once it is empty. Call it after Run has stopped.
func (n *Notifier) Drain(ctx context.Context) int {
	sub := n.Pub.SubscribeWishlistItemAdded()
	handled := 0
	for {
		select {
		case evt := <-sub:
			n.handle(ctx, evt)
			handled++
		default:
			return handled
		}
	}
}

func (n *Notifier) handle(ctx context.Context, evt events.WishlistItemAdded) {
	log := n.Log.With(zap.Int64("item_id", evt.ItemID), zap.String("listing_id", evt.ListingID))
	it, err := n.Store.Get(ctx, evt.ItemID)
	if err != nil {
		log.Warn("notify: load item failed", zap.Error(err))
		return
	}
	if it == nil {
		log.Debug("notify: item gone before card was rendered")
		return
	}
	total, err := n.Store.Count(ctx)
	if err != nil {
		log.Warn("notify: count failed", zap.Error(err))
	}
	card := wishlist.FormatCard(wishlist.Result{Item: *it, Total: total})
	log.Info("wishlist.item_added",
		zap.Bool("resolved", evt.Resolved),
		zap.Bool("refreshed", evt.Refreshed),
		zap.String("card", card))
	if n.Sent != nil {
		n.Sent(card)
	}
}
