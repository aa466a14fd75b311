// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search fetches organic results for a query from a web search
// backend. Two backends are provided: the SerpHouse live SERP API and a
// Google Discovery Engine data store. SerpHouse retries its own HTTP
// transport failures; other fetchers can be wrapped with Retrying. Any
// fetcher can be paced with RateLimited.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/pdiddy/serp-evals/internal/httputil"
	"github.com/pdiddy/serp-evals/internal/secrets"
	"github.com/pdiddy/serp-evals/pkg/types"
)

// Fetcher returns the organic results for one query.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, query string) ([]types.Hit, error)
}

var (
	// ErrTransient marks a network failure that survived every retry.
	ErrTransient = errors.New("transient search failure")

	// ErrUpstream marks a response the backend rejected or could not serve.
	ErrUpstream = errors.New("search backend error")

	// ErrConfig marks missing credentials or settings.
	ErrConfig = errors.New("search configuration error")
)

// Backend names accepted by New.
const (
	BackendSerpHouse = "serphouse"
	BackendDiscovery = "discovery"
)

// New builds the fetcher selected by cfg.Backend with the retry policy and
// rate limit from cfg.
func New(ctx context.Context, cfg types.SearchConfig, keys map[string]string, log logrus.FieldLogger) (Fetcher, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	policy := httputil.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	}

	var f Fetcher
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendSerpHouse, "":
		serp := cfg.SerpHouse
		if serp.APIKey == "" {
			serp.APIKey, _ = secrets.Lookup(keys, secrets.SerpHouseKey)
		}
		sh, err := NewSerpHouse(client, serp, cfg.UserAgent)
		if err != nil {
			return nil, err
		}
		f = sh.WithRetry(policy, log)
	case BackendDiscovery:
		token, _ := secrets.Lookup(keys, secrets.GCPAccessToken)
		d, err := NewDiscovery(ctx, cfg.Discovery, token, nil)
		if err != nil {
			return nil, err
		}
		f = Retrying(d, policy, log)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrConfig, cfg.Backend)
	}

	if cfg.RatePerSecond > 0 {
		f = RateLimited(f, rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1))
	}
	return f, nil
}

// upstreamError is a non-2xx response or an API-level failure.
type upstreamError struct {
	backend string
	status  int
	body    string
}

func (e *upstreamError) Error() string {
	msg := fmt.Sprintf("%s returned HTTP %d", e.backend, e.status)
	if e.body != "" {
		msg += ": " + e.body
	}
	return msg
}

func (e *upstreamError) Is(target error) bool { return target == ErrUpstream }

// Transient reports false so httputil.Retry never retries a rejected request.
func (e *upstreamError) Transient() bool { return false }

// StatusCode returns the HTTP status of the failed response.
func (e *upstreamError) StatusCode() int { return e.status }

type retrying struct {
	next   Fetcher
	policy httputil.Policy
	log    logrus.FieldLogger
}

// Retrying wraps f so transient network failures are retried under policy.
// A failure that outlives every attempt is returned wrapped in ErrTransient.
func Retrying(f Fetcher, policy httputil.Policy, log logrus.FieldLogger) Fetcher {
	return &retrying{next: f, policy: policy, log: log}
}

func (r *retrying) Name() string { return r.next.Name() }

func (r *retrying) Fetch(ctx context.Context, query string) ([]types.Hit, error) {
	var hits []types.Hit
	log := r.log
	if log != nil {
		log = log.WithFields(logrus.Fields{"backend": r.next.Name(), "query": query})
	}

	err := httputil.Retry(ctx, r.policy, log, func(ctx context.Context) error {
		var err error
		hits, err = r.next.Fetch(ctx, query)
		return err
	})
	if err != nil {
		if httputil.IsTransient(err) && !errors.Is(err, ErrTransient) {
			return nil, fmt.Errorf("%w: %w", ErrTransient, err)
		}
		return nil, err
	}
	return hits, nil
}

type rateLimited struct {
	next    Fetcher
	limiter *rate.Limiter
}

// RateLimited wraps f so calls wait on limiter before reaching the backend.
func RateLimited(f Fetcher, limiter *rate.Limiter) Fetcher {
	return &rateLimited{next: f, limiter: limiter}
}

func (r *rateLimited) Name() string { return r.next.Name() }

func (r *rateLimited) Fetch(ctx context.Context, query string) ([]types.Hit, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Fetch(ctx, query)
}

// defaultTimeout applies when the configured HTTP timeout is zero.
const defaultTimeout = 30 * time.Second
