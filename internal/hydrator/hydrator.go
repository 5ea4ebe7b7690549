// Package hydrator feeds fresh resolutions back into the wishlist: as a
// write-behind step of the resolve endpoint and as a periodic job that
// retries degraded items.
package hydrator

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/HAAN6892/real-estate-monitor/internal/resolver"
	"github.com/HAAN6892/real-estate-monitor/internal/wishlist"
)

type Hydrator struct {
	Registrar *wishlist.Registrar
}

func (h *Hydrator) Enabled() bool { return h != nil && h.Registrar != nil }

// Write applies a fresh resolution to the wishlist item for the same listing,
// when one is stored and still pending. It reports whether the item became
// resolved.
func (h *Hydrator) Write(ctx context.Context, fresh resolver.Property) (bool, error) {
	if !h.Enabled() || fresh.ListingID == "" || !fresh.Resolved() {
		return false, nil
	}
	it, err := h.Registrar.Store().FindByListingID(ctx, fresh.ListingID)
	if err != nil {
		return false, eris.Wrapf(err, "find listing %s", fresh.ListingID)
	}
	if it == nil || it.Status != wishlist.StatusPending {
		return false, nil
	}
	_, became, err := h.Registrar.Apply(ctx, *it, fresh)
	return became, err
}
