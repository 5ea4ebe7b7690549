package naver

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch outcome. Only KindRateLimited is treated as transient.
type Kind int

const (
	KindNone Kind = iota
	KindRateLimited
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRateLimited:
		return "rate_limited"
	case KindUpstream:
		return "upstream_unavailable"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	ErrRateLimited   = errors.New("naver: rate limited")
	ErrMalformedBody = errors.New("naver: malformed json body")
)

type StatusError struct{ Code int }

func (e *StatusError) Error() string { return fmt.Sprintf("naver: unexpected status %d", e.Code) }

// FetchResult is the outcome of a single upstream call.
type FetchResult struct {
	Succeeded  bool
	StatusCode int // 0 when no response was received
	Body       []byte
	Kind       Kind
	Err        error
}
