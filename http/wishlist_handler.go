package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/HAAN6892/real-estate-monitor/internal/canon"
	"github.com/HAAN6892/real-estate-monitor/internal/wishlist"
)

type WishlistDeps struct {
	Registrar *wishlist.Registrar
	Logger    *zap.Logger
}

// WishlistRequest carries either one URL or a chat message that may contain
// several links.
type WishlistRequest struct {
	URL     string `json:"url,omitempty"`
	Text    string `json:"text,omitempty"`
	AddedBy string `json:"added_by,omitempty"`
}

type registration struct {
	wishlist.Result
	Card  string `json:"card"`
	Error string `json:"error,omitempty"`
}

func RegisterWishlist(r chi.Router, d WishlistDeps) {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r.Route("/wishlist", func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			var body WishlistRequest
			if err := render.DecodeJSON(req.Body, &body); err != nil {
				writeError(w, req, http.StatusBadRequest, "invalid_json", err.Error())
				return
			}
			urls := canon.ExtractURLs(body.Text)
			if body.URL != "" {
				urls = []string{body.URL}
			}
			if len(urls) == 0 {
				writeError(w, req, http.StatusBadRequest, "url_required", "no link found in url or text")
				return
			}

			out := make([]registration, 0, len(urls))
			created := false
			for _, u := range urls {
				res, err := d.Registrar.Register(req.Context(), u, body.AddedBy)
				if err != nil {
					log.Error("wishlist register failed", zap.String("url", u), zap.Error(err))
					out = append(out, registration{Error: err.Error()})
					continue
				}
				created = created || !res.Duplicate
				out = append(out, registration{Result: res, Card: wishlist.FormatCard(res)})
			}
			if created {
				render.Status(req, http.StatusCreated)
			}
			render.JSON(w, req, map[string]any{"ok": true, "results": out})
		})

		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			items, err := d.Registrar.List(req.Context())
			if err != nil {
				log.Error("wishlist list failed", zap.Error(err))
				writeError(w, req, http.StatusInternalServerError, "list_failed", "")
				return
			}
			if items == nil {
				items = []wishlist.Item{}
			}
			render.JSON(w, req, map[string]any{
				"ok":    true,
				"count": len(items),
				"items": items,
				"text":  wishlist.FormatList(items),
			})
		})

		r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
			id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
			if err != nil || id <= 0 {
				writeError(w, req, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
				return
			}
			it, err := d.Registrar.Delete(req.Context(), id)
			if errors.Is(err, wishlist.ErrNotFound) {
				writeError(w, req, http.StatusNotFound, "not_found", "")
				return
			}
			if err != nil {
				log.Error("wishlist delete failed", zap.Int64("item_id", id), zap.Error(err))
				writeError(w, req, http.StatusInternalServerError, "delete_failed", "")
				return
			}
			render.JSON(w, req, map[string]any{"ok": true, "deleted": it})
		})

		r.Delete("/", func(w http.ResponseWriter, req *http.Request) {
			n, err := d.Registrar.Clear(req.Context())
			if err != nil {
				log.Error("wishlist clear failed", zap.Error(err))
				writeError(w, req, http.StatusInternalServerError, "clear_failed", "")
				return
			}
			render.JSON(w, req, map[string]any{"ok": true, "removed": n})
		})
	})
}

func writeError(w http.ResponseWriter, req *http.Request, status int, code, detail string) {
	body := map[string]any{"error": code}
	if detail != "" {
		body["detail"] = detail
	}
	render.Status(req, status)
	render.JSON(w, req, body)
}
