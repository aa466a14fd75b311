// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across fetchers.
package httputil

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// Policy bounds how a transient failure is retried.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy allows five attempts with waits of 2s, 4s, 8s and 16s
// between them.
var DefaultPolicy = Policy{
	MaxAttempts: 5,
	BaseDelay:   2 * time.Second,
	MaxDelay:    60 * time.Second,
}

// sleep waits for d or until ctx is done. Tests override it to avoid real
// sleeps.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Delay returns the wait before retry number attempt (1-based): BaseDelay
// doubled attempt-1 times, capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultPolicy.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultPolicy.MaxDelay
	}
	return p
}

// Retry runs op until it succeeds, returns a non-transient error, or the
// policy's attempts are used up. The last error is returned unchanged. If
// ctx is cancelled during a wait, ctx.Err() is returned.
func Retry(ctx context.Context, policy Policy, log logrus.FieldLogger, op func(ctx context.Context) error) error {
	policy = policy.withDefaults()

	var err error
	for attempt := 1; ; attempt++ {
		err = op(ctx)
		if err == nil || ctx.Err() != nil || !IsTransient(err) || attempt >= policy.MaxAttempts {
			return err
		}

		wait := policy.Delay(attempt)
		if log != nil {
			log.WithFields(logrus.Fields{
				"attempt": attempt,
				"max":     policy.MaxAttempts,
				"wait":    wait,
			}).WithError(err).Warn("transient failure, retrying")
		}
		if serr := sleep(ctx, wait); serr != nil {
			return serr
		}
	}
}

// IsTransient reports whether err is a network failure worth retrying:
// timeouts, refused or reset connections, and truncated responses.
// Cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var te interface{ Transient() bool }
	if errors.As(err, &te) {
		return te.Transient()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF):
		return true
	}
	return false
}

// DoWithRetry executes req with client, retrying transport failures under
// policy. HTTP status codes are not inspected; any response, including
// 4xx and 5xx, is returned to the caller for classification.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, policy Policy, log logrus.FieldLogger) (*http.Response, error) {
	var resp *http.Response
	err := Retry(ctx, policy, log, func(ctx context.Context) error {
		clone := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return err
			}
			clone.Body = body
		}

		r, err := client.Do(clone)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
