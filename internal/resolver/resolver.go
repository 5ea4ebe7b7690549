// Package resolver turns a pasted listing URL into a normalized Property by
// walking a fixed cascade of upstream sources. It never fails: when every
// source is down the caller still gets the listing id and URL back.
package resolver

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HAAN6892/real-estate-monitor/naver"
)

// Provider is the upstream surface the cascade needs. *naver.Client
// implements it.
type Provider interface {
	FetchListings(ctx context.Context, complexID, targetID string, maxPages int) ([]naver.Article, *naver.Article)
	FetchComplexInfo(ctx context.Context, complexID string) (map[string]any, naver.ComplexSource, bool)
	FetchArticleKey(ctx context.Context, listingID string) (map[string]any, bool)
	FetchArticleBasic(ctx context.Context, listingID string) (map[string]any, bool)
}

type Options struct {
	MaxPages int
	// Pause follows every upstream call of the cascade.
	Pause  time.Duration
	Sleep  naver.SleepFunc
	Logger *zap.Logger
}

type Resolver struct {
	provider Provider
	maxPages int
	pause    time.Duration
	sleep    naver.SleepFunc
	log      *zap.Logger
}

func New(p Provider, opts Options) *Resolver {
	r := &Resolver{
		provider: p,
		maxPages: opts.MaxPages,
		pause:    opts.Pause,
		sleep:    opts.Sleep,
		log:      opts.Logger,
	}
	if r.maxPages <= 0 {
		r.maxPages = naver.DefaultMaxPages
	}
	if r.pause < 0 {
		r.pause = 0
	}
	if r.sleep == nil {
		r.sleep = naver.ContextSleep
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	return r
}

// run is the state of one resolution.
type run struct {
	ref       naver.ListingReference
	prop      Property
	complexID string // best complex id known so far
	log       *zap.Logger
}

type stage struct {
	name string
	fn   func(ctx context.Context, st *run)
}

// plan lists the cascade in execution order. Because merging is
// first-writer-wins, this order is also the source priority.
func (r *Resolver) plan() []stage {
	return []stage{
		{"primary_by_complex", r.primaryByComplex},
		{"secondary_key_lookup", r.secondaryKeyLookup},
		{"secondary_detail_lookup", r.secondaryDetailLookup},
		{"secondary_complex_fill", r.secondaryComplexFill},
		{"complex_retry", r.complexRetry},
		{"url_coordinates", r.urlCoordinates},
	}
}

// Resolve extracts the listing reference from rawURL and resolves it.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) Property {
	ref, _ := naver.ParseReference(rawURL)
	return r.ResolveReference(ctx, ref)
}

func (r *Resolver) ResolveReference(ctx context.Context, ref naver.ListingReference) Property {
	st := &run{
		ref: ref,
		prop: Property{
			ListingID:  ref.ListingID,
			SourceURL:  ref.SourceURL,
			Provenance: map[string]Source{},
		},
		complexID: ref.ComplexID,
		log: r.log.With(
			zap.String("trace_id", uuid.NewString()),
			zap.String("listing_id", ref.ListingID),
		),
	}
	if ref.ComplexID != "" {
		st.prop.ComplexID = ref.ComplexID
		st.prop.Provenance["complex_id"] = SourceReference
	}

	if ref.ListingID == "" {
		st.log.Info("no listing id in url; only url fallbacks apply", zap.String("url", ref.SourceURL))
		r.urlCoordinates(ctx, st)
		return st.prop
	}
	for _, s := range r.plan() {
		st.log.Debug("resolver stage", zap.String("stage", s.name), zap.String("complex_id", st.complexID))
		s.fn(ctx, st)
	}
	st.log.Info("listing resolved",
		zap.Bool("resolved", st.prop.Resolved()),
		zap.String("complex_id", st.prop.ComplexID),
		zap.Int("fields", len(st.prop.Provenance)))
	return st.prop
}

func (r *Resolver) courtesy(ctx context.Context) {
	if r.pause > 0 {
		_ = r.sleep(ctx, r.pause)
	}
}

// mergeListingList looks the listing up in a complex's listing list. When the
// listing is not there, another listing of the same complex still provides a
// name and a reference price (priceOnly limits that to the price).
func (r *Resolver) mergeListingList(ctx context.Context, st *run, complexID string, priceOnly bool) {
	articles, matched := r.provider.FetchListings(ctx, complexID, st.ref.ListingID, r.maxPages)
	r.courtesy(ctx)
	switch {
	case matched != nil:
		st.log.Info("listing found in complex list", zap.String("name", matched.Name), zap.String("price", matched.PriceText))
		st.prop.Merge(matched.Listing(), SourceListingList)
	case len(articles) > 0:
		st.log.Info("listing not in complex list; using sibling price", zap.String("complex_id", complexID))
		sib := articles[0].SiblingListing()
		if priceOnly {
			sib = naver.Listing{Price: sib.Price}
		}
		st.prop.Merge(sib, SourceSiblingListing)
	}
}

func (r *Resolver) mergeComplexInfo(ctx context.Context, st *run, complexID string) {
	body, src, ok := r.provider.FetchComplexInfo(ctx, complexID)
	r.courtesy(ctx)
	if !ok {
		st.log.Info("complex metadata unknown", zap.String("complex_id", complexID))
		return
	}
	st.prop.Merge(naver.ComplexListing(body), Source(src))
}

func (r *Resolver) primaryByComplex(ctx context.Context, st *run) {
	if st.ref.ComplexID == "" {
		return
	}
	r.mergeListingList(ctx, st, st.ref.ComplexID, false)
	r.mergeComplexInfo(ctx, st, st.ref.ComplexID)
}

func (r *Resolver) secondaryKeyLookup(ctx context.Context, st *run) {
	if st.complexID != "" {
		return
	}
	body, ok := r.provider.FetchArticleKey(ctx, st.ref.ListingID)
	r.courtesy(ctx)
	if !ok {
		return
	}
	key := naver.KeyListing(body)
	if key.ComplexID != "" {
		st.complexID = key.ComplexID
	}
	st.prop.Merge(key, SourceArticleKey)
}

func (r *Resolver) secondaryDetailLookup(ctx context.Context, st *run) {
	body, ok := r.provider.FetchArticleBasic(ctx, st.ref.ListingID)
	r.courtesy(ctx)
	if !ok {
		return
	}
	st.prop.Merge(naver.BasicListing(body), SourceArticleBasic)
}

func (r *Resolver) secondaryComplexFill(ctx context.Context, st *run) {
	if st.complexID == "" || (st.prop.Lat != nil && st.prop.BuiltYear != nil) {
		return
	}
	r.mergeComplexInfo(ctx, st, st.complexID)
}

// complexRetry revisits the primary listing list once when the secondary
// provider revealed a complex id the first stage never had.
func (r *Resolver) complexRetry(ctx context.Context, st *run) {
	if st.complexID == "" || st.complexID == st.ref.ComplexID || st.prop.Price != nil {
		return
	}
	st.log.Info("retrying listing list with discovered complex", zap.String("complex_id", st.complexID))
	r.mergeListingList(ctx, st, st.complexID, true)
	if st.prop.Lat == nil {
		r.mergeComplexInfo(ctx, st, st.complexID)
	}
}

func (r *Resolver) urlCoordinates(_ context.Context, st *run) {
	if st.prop.Lat != nil || st.prop.Lng != nil || st.ref.SourceURL == "" {
		return
	}
	lat, lng, ok := naver.CoordinatesFromURL(st.ref.SourceURL)
	if !ok {
		return
	}
	st.log.Info("coordinates taken from url", zap.Float64("lat", lat), zap.Float64("lng", lng))
	st.prop.Merge(naver.Listing{Lat: &lat, Lng: &lng}, SourceURL)
}
