package naver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// ComplexCooldown is the single wait before retrying a rate-limited
// complex-info request.
const ComplexCooldown = 5 * time.Second

// ComplexSource names the tier that answered FetchComplexInfo.
type ComplexSource string

const (
	ComplexFromPrimary   ComplexSource = "complex.primary"
	ComplexFromSecondary ComplexSource = "complex.secondary"
)

func (c *Client) ComplexInfoURL(complexID string) string {
	return fmt.Sprintf("%s/api/complexes/%s?sameAddressGroup=false", c.ep.Complex, url.PathEscape(complexID))
}

// FetchComplexInfo returns aggregate complex attributes, trying the primary
// endpoint (one retry after a 429) and then the secondary complex endpoint.
// ok is false when neither tier answered.
func (c *Client) FetchComplexInfo(ctx context.Context, complexID string) (map[string]any, ComplexSource, bool) {
	log := c.log.With(zap.String("complex_id", complexID))
	header := http.Header{"Referer": []string{fmt.Sprintf("%s/complexes/%s", c.ep.Complex, complexID)}}

	for attempt := 0; attempt < 2; attempt++ {
		res := c.get(ctx, c.ComplexInfoURL(complexID), header, c.detailTimeout)
		if res.Succeeded {
			body, err := decodeObject(res.Body)
			if err == nil {
				return body, ComplexFromPrimary, true
			}
			log.Warn("complex info decode failed", zap.Error(err))
			break
		}
		if res.Kind == KindRateLimited && attempt == 0 {
			log.Info("complex info rate limited, cooling down", zap.Duration("wait", ComplexCooldown))
			if err := c.sleep(ctx, ComplexCooldown); err != nil {
				break
			}
			continue
		}
		log.Info("complex info unavailable",
			zap.Int("status", res.StatusCode), zap.Stringer("kind", res.Kind), zap.Error(res.Err))
		break
	}

	if body, ok := c.FetchFinanceComplex(ctx, complexID); ok {
		return body, ComplexFromSecondary, true
	}
	return nil, "", false
}
