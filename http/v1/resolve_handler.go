package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/HAAN6892/real-estate-monitor/internal/canon"
	"github.com/HAAN6892/real-estate-monitor/internal/hydrator"
	"github.com/HAAN6892/real-estate-monitor/internal/resolver"
	"github.com/HAAN6892/real-estate-monitor/naver"
)

// Cache is the subset of redisx.Client the endpoint uses. Get returns ""
// for a missing key.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, val string, ttl time.Duration) error
	SetNX(ctx context.Context, key string, val string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

type ListingResolver interface {
	ResolveReference(ctx context.Context, ref naver.ListingReference) resolver.Property
}

type ResolveDeps struct {
	Cache    Cache
	Resolver ListingResolver
	// Refetch schedules a background refresh of a stale entry.
	Refetch  func(ref naver.ListingReference)
	Hydrator *hydrator.Hydrator
	Logger   *zap.Logger
	// TTL and staleness tuning
	CacheTTL    time.Duration
	StaleAfter  time.Duration
	DegradedTTL time.Duration
	LockTTL     time.Duration
}

type ResolveRequest struct {
	URL string `json:"url"`
}

type cachedEnvelope struct {
	Data resolver.Property `json:"data"`
	Meta struct {
		LastFetch  time.Time `json:"last_fetch_at"`
		StaleAfter time.Time `json:"stale_after"`
		TTLSeconds int       `json:"ttl_seconds"`
		Degraded   bool      `json:"degraded"`
	} `json:"meta"`
}

func cacheKey(listingID string) string { return "listing:resolved:" + listingID }
func lockKey(listingID string) string  { return "listing:lock:" + listingID }

func RegisterResolve(r chi.Router, d ResolveDeps) {
	r.Route("/v1/listings", func(r chi.Router) {
		r.Post("/resolve", func(w http.ResponseWriter, req *http.Request) {
			var body ResolveRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, req, http.StatusBadRequest, map[string]any{"error": "invalid_json", "detail": err.Error()})
				return
			}
			resolve(w, req, d, body)
		})
		r.Get("/resolve", func(w http.ResponseWriter, req *http.Request) {
			resolve(w, req, d, ResolveRequest{URL: req.URL.Query().Get("url")})
		})
	})
}

func resolve(w http.ResponseWriter, req *http.Request, d ResolveDeps, body ResolveRequest) {
	u := canon.URL(body.URL)
	if u == "" {
		writeError(w, req, http.StatusBadRequest, map[string]any{"error": "url_required"})
		return
	}
	ref, ok := naver.ParseReference(u)
	if !ok {
		writeError(w, req, http.StatusBadRequest, map[string]any{"error": "unparseable_url", "url": u})
		return
	}
	ctx := req.Context()
	log := logger(d).With(zap.String("listing_id", ref.ListingID))

	if d.Cache != nil {
		if val, err := d.Cache.Get(ctx, cacheKey(ref.ListingID)); err != nil {
			log.Warn("cache read failed", zap.Error(err))
		} else if val != "" {
			var env cachedEnvelope
			if err := json.Unmarshal([]byte(val), &env); err == nil {
				stale := time.Now().After(env.Meta.StaleAfter)
				if stale && d.Refetch != nil {
					d.Refetch(ref)
				}
				render.JSON(w, req, map[string]any{
					"ok":         true,
					"source":     "cache",
					"stale":      stale,
					"degraded":   env.Meta.Degraded,
					"listing_id": ref.ListingID,
					"data":       env.Data,
				})
				return
			}
		}

		// Cache miss: a short lock keeps concurrent callers from running the
		// cascade twice against the same upstream quota.
		if ok, err := d.Cache.SetNX(ctx, lockKey(ref.ListingID), "1", lockTTL(d)); err == nil && !ok {
			render.Status(req, http.StatusAccepted)
			render.JSON(w, req, map[string]any{"ok": false, "in_progress": true, "listing_id": ref.ListingID})
			return
		}
	}

	prop := Refresh(ctx, d, ref)
	if d.Cache != nil {
		if err := d.Cache.Del(context.WithoutCancel(ctx), lockKey(ref.ListingID)); err != nil {
			log.Warn("lock release failed", zap.Error(err))
		}
	}
	render.JSON(w, req, map[string]any{
		"ok":         true,
		"source":     "fresh",
		"stale":      false,
		"degraded":   !prop.Resolved(),
		"listing_id": ref.ListingID,
		"data":       prop,
	})
}

// Refresh runs the resolution cascade for ref, caches the record and writes
// it behind into the wishlist. Degraded records are cached with the shorter
// degraded TTL so they are retried sooner.
func Refresh(ctx context.Context, d ResolveDeps, ref naver.ListingReference) resolver.Property {
	// A caller that hangs up must not turn a healthy cascade into a cached
	// degraded record.
	ctx = context.WithoutCancel(ctx)
	log := logger(d).With(zap.String("listing_id", ref.ListingID))
	prop := d.Resolver.ResolveReference(ctx, ref)

	if d.Cache != nil {
		degraded := !prop.Resolved()
		ttl := orDefault(d.CacheTTL, 6*time.Hour)
		if degraded {
			ttl = orDefault(d.DegradedTTL, 10*time.Minute)
		}
		env := cachedEnvelope{Data: prop}
		env.Meta.LastFetch = time.Now()
		env.Meta.StaleAfter = env.Meta.LastFetch.Add(minDur(orDefault(d.StaleAfter, time.Hour), ttl))
		env.Meta.TTLSeconds = int(ttl.Seconds())
		env.Meta.Degraded = degraded
		b, _ := json.Marshal(env)
		if err := d.Cache.Set(ctx, cacheKey(ref.ListingID), string(b), ttl); err != nil {
			log.Warn("cache write failed", zap.Error(err))
		}
	}

	if d.Hydrator.Enabled() {
		if became, err := d.Hydrator.Write(ctx, prop); err != nil {
			log.Warn("wishlist write-behind failed", zap.Error(err))
		} else if became {
			log.Info("pending wishlist item resolved by lookup")
		}
	}
	return prop
}

func writeError(w http.ResponseWriter, req *http.Request, status int, body map[string]any) {
	render.Status(req, status)
	render.JSON(w, req, body)
}

func logger(d ResolveDeps) *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

func lockTTL(d ResolveDeps) time.Duration { return orDefault(d.LockTTL, 2*time.Minute) }

func orDefault(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
