package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HAAN6892/real-estate-monitor/internal/resolver"
	"github.com/HAAN6892/real-estate-monitor/internal/wishlist"
	"github.com/HAAN6892/real-estate-monitor/naver"
)

type namedResolver map[string]string

func (n namedResolver) ResolveReference(_ context.Context, ref naver.ListingReference) resolver.Property {
	return resolver.Property{ListingID: ref.ListingID, SourceURL: ref.SourceURL, Name: n[ref.ListingID]}
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := wishlist.NewRegistrar(wishlist.NewMemoryStore(), namedResolver{"1": "자이", "2": "래미안"}, nil, nil)
	r := chi.NewRouter()
	RegisterWishlist(r, WishlistDeps{Registrar: reg})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestWishlistRegisterFromText(t *testing.T) {
	srv := newServer(t)

	code, out := do(t, http.MethodPost, srv.URL+"/wishlist",
		`{"text":"이거 봐 https://fin.land.naver.com/articles/1 그리고 https://m.land.naver.com/article/info?articleNo=2","added_by":"민지"}`)
	require.Equal(t, http.StatusCreated, code)
	results := out["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	assert.Equal(t, false, first["duplicate"])
	assert.Contains(t, first["card"], "🏠 자이")
	second := results[1].(map[string]any)
	assert.Contains(t, second["card"], "현재 관심 매물: 2건")

	code, out = do(t, http.MethodPost, srv.URL+"/wishlist", `{"url":"https://fin.land.naver.com/articles/1"}`)
	assert.Equal(t, http.StatusOK, code)
	dup := out["results"].([]any)[0].(map[string]any)
	assert.Equal(t, true, dup["duplicate"])
	assert.Equal(t, "⚠️ 이미 등록된 매물입니다: 자이", dup["card"])
}

func TestWishlistRegisterRequiresLink(t *testing.T) {
	srv := newServer(t)

	code, out := do(t, http.MethodPost, srv.URL+"/wishlist", `{"text":"링크 없음"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "url_required", out["error"])

	code, out = do(t, http.MethodPost, srv.URL+"/wishlist", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_json", out["error"])
}

func TestWishlistListDeleteClear(t *testing.T) {
	srv := newServer(t)
	for _, id := range []string{"1", "2"} {
		code, _ := do(t, http.MethodPost, srv.URL+"/wishlist", `{"url":"https://fin.land.naver.com/articles/`+id+`"}`)
		require.Equal(t, http.StatusCreated, code)
	}

	code, out := do(t, http.MethodGet, srv.URL+"/wishlist", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, out["count"])
	assert.Contains(t, out["text"], "#2 래미안")

	code, _ = do(t, http.MethodDelete, srv.URL+"/wishlist/1", "")
	assert.Equal(t, http.StatusOK, code)
	code, out = do(t, http.MethodDelete, srv.URL+"/wishlist/1", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", out["error"])
	code, _ = do(t, http.MethodDelete, srv.URL+"/wishlist/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, out = do(t, http.MethodDelete, srv.URL+"/wishlist", "")
	assert.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, out["removed"])

	_, out = do(t, http.MethodGet, srv.URL+"/wishlist", "")
	assert.EqualValues(t, 0, out["count"])
}
