package wishlist

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/HAAN6892/real-estate-monitor/internal/canon"
	"github.com/HAAN6892/real-estate-monitor/internal/events"
	"github.com/HAAN6892/real-estate-monitor/internal/resolver"
	"github.com/HAAN6892/real-estate-monitor/naver"
)

var ErrEmptyURL = eris.New("empty url")

const unknownUser = "Unknown"

// Resolver turns a listing reference into a (possibly partial) record.
type Resolver interface {
	ResolveReference(ctx context.Context, ref naver.ListingReference) resolver.Property
}

// Result is the outcome of one registration. Duplicate results carry the
// item that was already stored.
type Result struct {
	Item      Item `json:"item"`
	Duplicate bool `json:"duplicate"`
	Total     int  `json:"total"`
}

type Registrar struct {
	store Store
	res   Resolver
	pub   events.Publisher
	log   *zap.Logger
	now   func() time.Time
}

func NewRegistrar(store Store, res Resolver, pub events.Publisher, log *zap.Logger) *Registrar {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registrar{store: store, res: res, pub: pub, log: log, now: time.Now}
}

func (r *Registrar) Store() Store { return r.store }

// Register stores rawURL on the wishlist. A URL already stored, or a listing
// already stored under another URL, yields a duplicate result and no write.
// Links without a listing id are kept as url_only items; listings whose
// resolution comes back without a name are kept as pending items.
func (r *Registrar) Register(ctx context.Context, rawURL, addedBy string) (Result, error) {
	u := canon.URL(rawURL)
	if u == "" {
		return Result{}, ErrEmptyURL
	}
	if addedBy == "" {
		addedBy = unknownUser
	}
	log := r.log.With(zap.String("url", u))

	existing, err := r.store.FindByURL(ctx, u)
	if err != nil {
		return Result{}, eris.Wrap(err, "lookup by url")
	}
	if existing != nil {
		log.Info("url already on wishlist", zap.Int64("item_id", existing.ID))
		return r.duplicate(ctx, *existing)
	}

	now := r.now()
	item := Item{
		Property: resolver.Property{SourceURL: u},
		AddedAt:  now,
		AddedBy:  addedBy,
	}
	ref, ok := naver.ParseReference(u)
	if ok {
		existing, err := r.store.FindByListingID(ctx, ref.ListingID)
		if err != nil {
			return Result{}, eris.Wrap(err, "lookup by listing id")
		}
		if existing != nil {
			log.Info("listing already on wishlist", zap.String("listing_id", ref.ListingID), zap.Int64("item_id", existing.ID))
			return r.duplicate(ctx, *existing)
		}
		item.Property = r.res.ResolveReference(ctx, ref)
	} else {
		log.Info("no listing id in url; storing link only")
	}
	item.Status = statusOf(item.Property)
	item.UpdatedAt = now

	if err := r.store.Insert(ctx, &item); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// a concurrent registration of the same link won the insert
			return r.storedDuplicate(ctx, item)
		}
		return Result{}, eris.Wrap(err, "insert wishlist item")
	}
	log.Info("wishlist item registered",
		zap.Int64("item_id", item.ID),
		zap.String("listing_id", item.ListingID),
		zap.String("status", string(item.Status)))
	r.publish(ctx, item, false)

	total, err := r.store.Count(ctx)
	if err != nil {
		return Result{}, eris.Wrap(err, "count wishlist")
	}
	return Result{Item: item, Total: total}, nil
}

func (r *Registrar) storedDuplicate(ctx context.Context, item Item) (Result, error) {
	existing, err := r.store.FindByURL(ctx, item.SourceURL)
	if err == nil && existing == nil {
		existing, err = r.store.FindByListingID(ctx, item.ListingID)
	}
	if err != nil {
		return Result{}, eris.Wrap(err, "reload duplicate")
	}
	if existing == nil {
		return Result{}, eris.Wrapf(ErrDuplicate, "insert %s", item.SourceURL)
	}
	r.log.Info("lost insert race; item already on wishlist",
		zap.String("url", item.SourceURL), zap.Int64("item_id", existing.ID))
	return r.duplicate(ctx, *existing)
}

func (r *Registrar) duplicate(ctx context.Context, it Item) (Result, error) {
	total, err := r.store.Count(ctx)
	if err != nil {
		return Result{}, eris.Wrap(err, "count wishlist")
	}
	return Result{Item: it, Duplicate: true, Total: total}, nil
}

// List returns every item, highest price first; items without a price sort last.
func (r *Registrar) List(ctx context.Context) ([]Item, error) {
	items, err := r.store.List(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "list wishlist")
	}
	sort.SliceStable(items, func(i, j int) bool {
		return priceOf(items[i]) > priceOf(items[j])
	})
	return items, nil
}

func priceOf(it Item) int {
	if it.Price == nil {
		return 0
	}
	return *it.Price
}

func (r *Registrar) Delete(ctx context.Context, id int64) (Item, error) {
	it, err := r.store.Delete(ctx, id)
	if err != nil {
		return Item{}, err
	}
	r.log.Info("wishlist item deleted", zap.Int64("item_id", id))
	return it, nil
}

func (r *Registrar) Clear(ctx context.Context) (int, error) {
	n, err := r.store.Clear(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "clear wishlist")
	}
	r.log.Info("wishlist cleared", zap.Int("removed", n))
	return n, nil
}

// Pending returns up to limit items whose resolution is still degraded.
func (r *Registrar) Pending(ctx context.Context, limit int) ([]Item, error) {
	items, err := r.store.ListByStatus(ctx, StatusPending, limit)
	if err != nil {
		return nil, eris.Wrap(err, "list pending items")
	}
	return items, nil
}

// Rehydrate resolves a stored item again and applies the result. The
// returned flag reports whether the item became resolved.
func (r *Registrar) Rehydrate(ctx context.Context, it Item) (Item, bool, error) {
	ref := naver.ListingReference{ListingID: it.ListingID, ComplexID: it.ComplexID, SourceURL: it.SourceURL}
	if ref.ListingID == "" {
		parsed, ok := naver.ParseReference(it.SourceURL)
		if !ok {
			return it, false, nil
		}
		ref = parsed
	}
	return r.Apply(ctx, it, r.res.ResolveReference(ctx, ref))
}

// Apply fills the fields of it that are still empty from fresh and saves the
// item. Fields already stored keep their value and provenance.
func (r *Registrar) Apply(ctx context.Context, it Item, fresh resolver.Property) (Item, bool, error) {
	wasResolved := it.Resolved()
	if it.ListingID == "" {
		it.ListingID = fresh.ListingID
	}
	it.Property.Fill(fresh)
	it.Status = statusOf(it.Property)
	it.UpdatedAt = r.now()
	if err := r.store.Update(ctx, it); err != nil {
		return it, false, eris.Wrapf(err, "update item %d", it.ID)
	}
	became := !wasResolved && it.Resolved()
	if became {
		r.log.Info("wishlist item resolved", zap.Int64("item_id", it.ID), zap.String("listing_id", it.ListingID))
		r.publish(ctx, it, true)
	}
	return it, became, nil
}

func (r *Registrar) publish(ctx context.Context, it Item, refreshed bool) {
	if r.pub == nil {
		return
	}
	r.pub.PublishWishlistItemAdded(ctx, events.WishlistItemAdded{
		ItemID:    it.ID,
		ListingID: it.ListingID,
		Resolved:  it.Resolved(),
		Refreshed: refreshed,
	})
}
