package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultMaxPages = 5
	// PagePause separates consecutive listing-list pages; the mobile
	// front-end throttles clients that page faster.
	PagePause = 500 * time.Millisecond
)

// ArticleListURL builds the mobile listing-list URL for one page.
func (c *Client) ArticleListURL(complexID string, page int) string {
	q := url.Values{}
	q.Set("hscpNo", complexID)
	q.Set("tradTpCd", "")
	q.Set("order", "prc")
	q.Set("showR0", "Y")
	q.Set("page", strconv.Itoa(page))
	return fmt.Sprintf("%s/complex/getComplexArticleList?%s", c.ep.Mobile, q.Encode())
}

// FetchListings pages through a complex's active listings. When targetID is
// set, paging stops at the page that contains it and the article is returned
// as matched. Failures end paging early; whatever was collected is returned.
func (c *Client) FetchListings(ctx context.Context, complexID, targetID string, maxPages int) ([]Article, *Article) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	log := c.log.With(zap.String("complex_id", complexID), zap.String("listing_id", targetID))
	header := http.Header{"Referer": []string{c.ep.Mobile + "/"}}

	var all []Article
	var matched *Article
	for page := 1; page <= maxPages; page++ {
		log.Debug("fetching listing list page", zap.Int("page", page))
		res := c.get(ctx, c.ArticleListURL(complexID, page), header, c.listTimeout)
		if !res.Succeeded {
			log.Warn("listing list fetch failed",
				zap.Int("page", page), zap.Int("status", res.StatusCode),
				zap.Stringer("kind", res.Kind), zap.Error(res.Err))
			break
		}
		var payload articleListResponse
		if err := json.Unmarshal(res.Body, &payload); err != nil {
			log.Warn("listing list decode failed", zap.Int("page", page), zap.Error(err))
			break
		}
		batch := payload.Result.List
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)

		if targetID != "" {
			for i := range batch {
				if string(batch[i].ID) == targetID {
					found := batch[i]
					matched = &found
					break
				}
			}
			if matched != nil {
				break
			}
		}

		total, _ := strconv.Atoi(string(payload.Result.Total))
		if len(all) >= total {
			break
		}
		if page < maxPages {
			if err := c.sleep(ctx, PagePause); err != nil {
				break
			}
		}
	}
	log.Info("listing list fetched", zap.Int("articles", len(all)), zap.Bool("matched", matched != nil))
	return all, matched
}
