// Package wishlist keeps the listings users paste into the bot: registration
// with duplicate checks, the stored item model and the summary cards.
package wishlist

import (
	"time"

	"github.com/HAAN6892/real-estate-monitor/internal/resolver"
)

type Status string

const (
	// StatusResolved items carry at least a name.
	StatusResolved Status = "resolved"
	// StatusPending items have a listing id but resolution came back degraded.
	StatusPending Status = "pending"
	// StatusURLOnly items are links no known URL shape matched.
	StatusURLOnly Status = "url_only"
)

// PlaceholderName stands in for the name of items that were never parsed.
const PlaceholderName = "(파싱 전)"

// Item is one wishlist entry. The embedded Property holds whatever the
// resolver found; ID, AddedAt and AddedBy never change after registration.
type Item struct {
	ID int64 `json:"id"`
	resolver.Property
	Status    Status    `json:"status"`
	AddedAt   time.Time `json:"added_at"`
	AddedBy   string    `json:"added_by"`
	Memo      string    `json:"memo,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (it Item) DisplayName() string {
	if it.Name != "" {
		return it.Name
	}
	return PlaceholderName
}

func statusOf(p resolver.Property) Status {
	switch {
	case p.ListingID == "":
		return StatusURLOnly
	case p.Resolved():
		return StatusResolved
	default:
		return StatusPending
	}
}
