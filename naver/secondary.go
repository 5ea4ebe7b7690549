package naver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultSecondaryAttempts = 3
	backoffBase              = 3 * time.Second
)

// DelayForAttempt is the wait after the n-th (0-based) rate-limited attempt:
// 3s, 6s, 12s, ...
func DelayForAttempt(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	return backoffBase << uint(n)
}

func (c *Client) financeHeader() http.Header {
	return http.Header{
		"Referer":        []string{c.ep.Finance + "/"},
		"Origin":         []string{c.ep.Finance},
		"Sec-Fetch-Dest": []string{"empty"},
		"Sec-Fetch-Mode": []string{"cors"},
		"Sec-Fetch-Site": []string{"same-origin"},
	}
}

// FetchSecondary calls a fin.land front-api endpoint. Only HTTP 429 is retried,
// with DelayForAttempt backoff; any other failure returns immediately.
func (c *Client) FetchSecondary(ctx context.Context, endpoint, label string, attempts int) (map[string]any, bool) {
	if attempts <= 0 {
		attempts = DefaultSecondaryAttempts
	}
	log := c.log.With(zap.String("endpoint", label))
	for attempt := 0; attempt < attempts; attempt++ {
		res := c.get(ctx, endpoint, c.financeHeader(), c.detailTimeout)
		if res.Succeeded {
			body, err := decodeObject(res.Body)
			if err != nil {
				log.Warn("secondary decode failed", zap.Error(err))
				return nil, false
			}
			return body, true
		}
		if res.Kind == KindRateLimited && attempt < attempts-1 {
			wait := DelayForAttempt(attempt)
			log.Info("secondary rate limited, backing off",
				zap.Duration("wait", wait), zap.Int("attempt", attempt+1), zap.Int("attempts", attempts))
			if err := c.sleep(ctx, wait); err != nil {
				return nil, false
			}
			continue
		}
		log.Info("secondary fetch gave up",
			zap.Int("status", res.StatusCode), zap.Stringer("kind", res.Kind), zap.Error(res.Err))
		return nil, false
	}
	return nil, false
}

func (c *Client) ArticleKeyURL(listingID string) string {
	return fmt.Sprintf("%s/front-api/v1/article/key?articleId=%s", c.ep.Finance, url.QueryEscape(listingID))
}

func (c *Client) ArticleBasicURL(listingID string) string {
	return fmt.Sprintf("%s/front-api/v1/article/basicInfo?articleId=%s", c.ep.Finance, url.QueryEscape(listingID))
}

func (c *Client) FinanceComplexURL(complexID string) string {
	return fmt.Sprintf("%s/front-api/v1/complex?complexNumber=%s", c.ep.Finance, url.QueryEscape(complexID))
}

// FetchArticleKey resolves the complex number and deal type of a listing.
func (c *Client) FetchArticleKey(ctx context.Context, listingID string) (map[string]any, bool) {
	return c.FetchSecondary(ctx, c.ArticleKeyURL(listingID), "KEY", c.attempts)
}

// FetchArticleBasic fetches listing detail fields.
func (c *Client) FetchArticleBasic(ctx context.Context, listingID string) (map[string]any, bool) {
	return c.FetchSecondary(ctx, c.ArticleBasicURL(listingID), "BASIC", c.attempts)
}

func (c *Client) FetchFinanceComplex(ctx context.Context, complexID string) (map[string]any, bool) {
	return c.FetchSecondary(ctx, c.FinanceComplexURL(complexID), "COMPLEX", c.attempts)
}
