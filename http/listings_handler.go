package httpapi

import (
	"context"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/HAAN6892/real-estate-monitor/internal/price"
	"github.com/HAAN6892/real-estate-monitor/internal/resolver"
	"github.com/HAAN6892/real-estate-monitor/naver"
)

// ComplexProvider is the part of naver.Client the complex endpoints use.
type ComplexProvider interface {
	FetchListings(ctx context.Context, complexID, targetID string, maxPages int) ([]naver.Article, *naver.Article)
	FetchComplexInfo(ctx context.Context, complexID string) (map[string]any, naver.ComplexSource, bool)
}

type ListingsDeps struct {
	Provider ComplexProvider
	MaxPages int
	Logger   *zap.Logger
}

type listingView struct {
	resolver.Property
	PriceText string `json:"price_text"`
}

var reNumericID = regexp.MustCompile(`^\d+$`)

func RegisterListings(r chi.Router, d ListingsDeps) {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r.Route("/complexes/{complexID}", func(r chi.Router) {
		// GET /complexes/{id}/listings?article=&max_pages=
		r.Get("/listings", func(w http.ResponseWriter, req *http.Request) {
			complexID := chi.URLParam(req, "complexID")
			if !reNumericID.MatchString(complexID) {
				writeError(w, req, http.StatusBadRequest, "complex_id_required", "complex id must be numeric")
				return
			}
			q := req.URL.Query()
			maxPages := d.MaxPages
			if v := q.Get("max_pages"); v != "" {
				if i, err := strconv.Atoi(v); err == nil && i > 0 && (maxPages <= 0 || i < maxPages) {
					maxPages = i
				}
			}
			articles, matched := d.Provider.FetchListings(req.Context(), complexID, q.Get("article"), maxPages)
			views := make([]listingView, 0, len(articles))
			for _, a := range articles {
				views = append(views, articleView(complexID, a))
			}
			out := map[string]any{"ok": true, "complex_id": complexID, "count": len(views), "listings": views}
			if matched != nil {
				out["matched"] = articleView(complexID, *matched)
			}
			log.Info("served complex listings", zap.String("complex_id", complexID), zap.Int("count", len(views)))
			render.JSON(w, req, out)
		})

		// GET /complexes/{id}
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			complexID := chi.URLParam(req, "complexID")
			if !reNumericID.MatchString(complexID) {
				writeError(w, req, http.StatusBadRequest, "complex_id_required", "complex id must be numeric")
				return
			}
			body, src, ok := d.Provider.FetchComplexInfo(req.Context(), complexID)
			if !ok {
				writeError(w, req, http.StatusBadGateway, "upstream_unavailable", "complex metadata not available")
				return
			}
			p := resolver.Property{ComplexID: complexID}
			p.Merge(naver.ComplexListing(body), resolver.Source(src))
			render.JSON(w, req, map[string]any{"ok": true, "source": src, "complex": p})
		})
	})
}

func articleView(complexID string, a naver.Article) listingView {
	p := resolver.Property{ListingID: string(a.ID), ComplexID: complexID}
	p.Merge(a.Listing(), resolver.SourceListingList)
	v := listingView{Property: p, PriceText: price.Unknown}
	if p.Price != nil {
		v.PriceText = price.Format(*p.Price)
	}
	return v
}
