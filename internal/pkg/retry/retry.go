// Package retry provides a shared retry policy for all outbound I/O
// (database, upstream HTTP archives, LLM calls): bounded attempts,
// exponential backoff with jitter, and pluggable transient classification.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"strings"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 100 * time.Millisecond
	defaultMaxBackoff  = 2 * time.Second
)

// Policy controls retry behavior for one class of calls.
type Policy struct {
	MaxAttempts int
	BackoffBase time.Duration
	MaxBackoff  time.Duration
	Jitter      bool
	// IsTransient decides whether an error is worth retrying. Nil means
	// TransientNetwork.
	IsTransient func(error) bool
}

// Default returns the policy used when callers pass a zero value.
func Default() Policy {
	return Policy{
		MaxAttempts: defaultMaxAttempts,
		BackoffBase: defaultBackoffBase,
		MaxBackoff:  defaultMaxBackoff,
		Jitter:      true,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.BackoffBase <= 0 {
		p.BackoffBase = defaultBackoffBase
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = defaultMaxBackoff
	}
	if p.IsTransient == nil {
		p.IsTransient = TransientNetwork
	}
	return p
}

// backoff returns the delay for attempt (0-based); exponential with cap.
func (p Policy) backoff(attempt int) time.Duration {
	d := p.BackoffBase
	for i := 0; i < attempt && d < p.MaxBackoff; i++ {
		d *= 2
		if d > p.MaxBackoff {
			d = p.MaxBackoff
		}
	}
	if p.Jitter {
		d += time.Duration(rand.Int63n(int64(d)/2 + 1))
	}
	return d
}

// Do runs fn up to MaxAttempts times; non-transient errors return immediately.
func Do(ctx context.Context, p Policy, fn func() error) error {
	_, err := DoValue(ctx, p, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoValue runs fn up to MaxAttempts times and returns its value.
func DoValue[T any](ctx context.Context, p Policy, fn func() (T, error)) (T, error) {
	p = p.normalized()
	var zero T
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		val, err := fn()
		if err == nil {
			return val, nil
		}
		lastErr = err
		if attempt == p.MaxAttempts-1 || !p.IsTransient(err) {
			return zero, err
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(p.backoff(attempt)):
			// continue
		}
	}
	return zero, lastErr
}

// Substrings lib/pq and net report for connections dropped mid-flight.
var transientFragments = []string{
	"connection reset",
	"connection refused",
	"broken pipe",
	"ssl connection has been closed",
	"ssl is not enabled",
	"server closed the connection",
	"unexpected eof",
	"i/o timeout",
	"no such host",
	"eof",
}

// TransientNetwork reports whether err looks like a recoverable
// connection-level failure (reset, refused, SSL terminated, timeouts).
func TransientNetwork(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, frag := range transientFragments {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}
