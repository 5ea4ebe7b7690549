package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	httpapi "github.com/HAAN6892/real-estate-monitor/http"
	httpv1 "github.com/HAAN6892/real-estate-monitor/http/v1"
	"github.com/HAAN6892/real-estate-monitor/internal/logger"
)

type RouterDeps struct {
	Wishlist      httpapi.WishlistDeps
	Listings      httpapi.ListingsDeps
	Resolve       httpv1.ResolveDeps
	Logger        *zap.Logger
	RatePerMinute int
}

func BuildRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logger.Middleware(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(httprate.LimitByIP(d.RatePerMinute, 1*time.Minute)) // protect upstream quota
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { render.JSON(w, r, map[string]any{"ok": true}) })

	httpapi.RegisterWishlist(r, d.Wishlist)
	httpapi.RegisterListings(r, d.Listings)
	httpv1.RegisterResolve(r, d.Resolve)

	return r
}
