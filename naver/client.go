package naver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	defaultAccept         = "application/json, text/plain, */*"
	defaultAcceptLanguage = "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"
)

// Endpoints are the base URLs of the three land.naver.com front-ends.
type Endpoints struct {
	Mobile  string `yaml:"mobile"`  // m.land: complex listing lists
	Complex string `yaml:"complex"` // new.land: complex info
	Finance string `yaml:"finance"` // fin.land: key/basic/complex front-api
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Mobile:  "https://m.land.naver.com",
		Complex: "https://new.land.naver.com",
		Finance: "https://fin.land.naver.com",
	}
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep is the production SleepFunc.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Options struct {
	Endpoints         Endpoints
	UserAgent         string
	RequestsPerSecond float64 // <= 0 disables pacing
	Burst             int
	ListTimeout       time.Duration
	DetailTimeout     time.Duration
	SecondaryAttempts int
	Sleep             SleepFunc
	Logger            *zap.Logger
	HTTPClient        *http.Client
}

// Client is the shared transport for every provider call. It carries default
// headers and pacing but never retries on its own.
type Client struct {
	http          *retryablehttp.Client
	limiter       *rate.Limiter
	ep            Endpoints
	userAgent     string
	listTimeout   time.Duration
	detailTimeout time.Duration
	attempts      int
	sleep         SleepFunc
	log           *zap.Logger
}

func NewClient(opts Options) *Client {
	rc := retryablehttp.NewClient()
	if opts.HTTPClient != nil {
		rc.HTTPClient = opts.HTTPClient
	}
	rc.RetryMax = 0
	rc.CheckRetry = noRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = nil

	c := &Client{
		http:          rc,
		limiter:       rate.NewLimiter(rate.Inf, 1),
		ep:            opts.Endpoints,
		userAgent:     opts.UserAgent,
		listTimeout:   opts.ListTimeout,
		detailTimeout: opts.DetailTimeout,
		attempts:      opts.SecondaryAttempts,
		sleep:         opts.Sleep,
		log:           opts.Logger,
	}
	if c.ep == (Endpoints{}) {
		c.ep = DefaultEndpoints()
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	if c.listTimeout <= 0 {
		c.listTimeout = 15 * time.Second
	}
	if c.detailTimeout <= 0 {
		c.detailTimeout = 10 * time.Second
	}
	if c.attempts <= 0 {
		c.attempts = DefaultSecondaryAttempts
	}
	if c.sleep == nil {
		c.sleep = ContextSleep
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

// SetLeveledLogger routes retryablehttp's request logging through l.
func (c *Client) SetLeveledLogger(l retryablehttp.LeveledLogger) { c.http.Logger = l }

// Endpoints returns the base URLs the client talks to.
func (c *Client) Endpoints() Endpoints { return c.ep }

func noRetry(ctx context.Context, _ *http.Response, _ error) (bool, error) {
	return false, ctx.Err()
}

// get performs one GET and classifies the outcome. It never returns an error;
// failures are reported through FetchResult.Kind.
func (c *Client) get(ctx context.Context, rawURL string, header http.Header, timeout time.Duration) FetchResult {
	if err := c.limiter.Wait(ctx); err != nil {
		return FetchResult{Kind: KindUpstream, Err: err}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return FetchResult{Kind: KindUpstream, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", defaultAccept)
	req.Header.Set("Accept-Language", defaultAcceptLanguage)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return FetchResult{Kind: KindUpstream, Err: err}
	}
	defer resp.Body.Close()

	res := FetchResult{StatusCode: resp.StatusCode}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		res.Kind = KindRateLimited
		res.Err = ErrRateLimited
		return res
	case resp.StatusCode != http.StatusOK:
		res.Kind = KindUpstream
		res.Err = &StatusError{Code: resp.StatusCode}
		return res
	}
	body, err := ioReadAllLimit(resp.Body, 4<<20) // 4MB guard
	if err != nil {
		res.Kind = KindUpstream
		res.Err = err
		return res
	}
	if !json.Valid(body) {
		res.Kind = KindUpstream
		res.Err = ErrMalformedBody
		return res
	}
	res.Succeeded = true
	res.Body = body
	return res
}

func ioReadAllLimit(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, errors.New("payload too large")
	}
	return b, nil
}

// decodeObject decodes a JSON object keeping numbers as json.Number.
func decodeObject(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrMalformedBody
	}
	return out, nil
}
