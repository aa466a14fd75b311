// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/serp-evals/internal/httputil"
	"github.com/pdiddy/serp-evals/pkg/types"
)

// serphouseEndpoint is the SerpHouse live SERP endpoint. Declared as a var
// so tests can substitute an httptest server.
var serphouseEndpoint = "https://api.serphouse.com/serp/live"

// DefaultSerpHouse holds the request parameters used when the
// configuration leaves them empty.
var DefaultSerpHouse = types.SerpHouseConfig{
	Domain:    "google.com",
	Lang:      "en",
	Device:    "desktop",
	SerpType:  "web",
	Location:  "United States",
	NumResult: 10,
}

// SerpHouse fetches Google organic results through the SerpHouse API.
// Transport failures are retried under its policy; HTTP and API errors are
// returned on the first attempt.
type SerpHouse struct {
	client    *http.Client
	cfg       types.SerpHouseConfig
	userAgent string
	policy    httputil.Policy
	log       logrus.FieldLogger
}

// NewSerpHouse returns a SerpHouse fetcher. The API key is required.
func NewSerpHouse(client *http.Client, cfg types.SerpHouseConfig, userAgent string) (*SerpHouse, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: serphouse API key not set (serphouse-api-key secret or serphouse.key in the keys file)", ErrConfig)
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	def := DefaultSerpHouse
	if cfg.Endpoint == "" {
		cfg.Endpoint = serphouseEndpoint
	}
	if cfg.Domain == "" {
		cfg.Domain = def.Domain
	}
	if cfg.Lang == "" {
		cfg.Lang = def.Lang
	}
	if cfg.Device == "" {
		cfg.Device = def.Device
	}
	if cfg.SerpType == "" {
		cfg.SerpType = def.SerpType
	}
	if cfg.Location == "" {
		cfg.Location = def.Location
	}
	if cfg.NumResult <= 0 {
		cfg.NumResult = def.NumResult
	}

	return &SerpHouse{client: client, cfg: cfg, userAgent: userAgent, policy: httputil.DefaultPolicy}, nil
}

// WithRetry replaces the retry policy and sets the logger that reports
// each retried attempt.
func (s *SerpHouse) WithRetry(policy httputil.Policy, log logrus.FieldLogger) *SerpHouse {
	s.policy = policy
	s.log = log
	return s
}

// Name returns the backend identifier.
func (s *SerpHouse) Name() string { return BackendSerpHouse }

type serphouseRequest struct {
	Data serphouseParams `json:"data"`
}

type serphouseParams struct {
	Q         string `json:"q"`
	Domain    string `json:"domain"`
	Lang      string `json:"lang"`
	Device    string `json:"device"`
	SerpType  string `json:"serp_type"`
	Loc       string `json:"loc"`
	Verbatim  string `json:"verbatim"`
	GFilter   string `json:"gfilter"`
	Page      string `json:"page"`
	NumResult string `json:"num_result"`
}

type serphouseResponse struct {
	Status  string `json:"status"`
	Message string `json:"msg"`
	Results struct {
		Results struct {
			Organic []serphouseOrganic `json:"organic"`
		} `json:"results"`
	} `json:"results"`
}

type serphouseOrganic struct {
	Position json.Number `json:"position"`
	Title    string      `json:"title"`
	Link     string      `json:"link"`
	Snippet  string      `json:"snippet"`
}

// Fetch runs query against the live SERP endpoint and returns the organic
// results in position order.
func (s *SerpHouse) Fetch(ctx context.Context, query string) ([]types.Hit, error) {
	payload, err := json.Marshal(serphouseRequest{Data: serphouseParams{
		Q:         query,
		Domain:    s.cfg.Domain,
		Lang:      s.cfg.Lang,
		Device:    s.cfg.Device,
		SerpType:  s.cfg.SerpType,
		Loc:       s.cfg.Location,
		Verbatim:  "0",
		GFilter:   "0",
		Page:      "1",
		NumResult: strconv.Itoa(s.cfg.NumResult),
	}})
	if err != nil {
		return nil, fmt.Errorf("encoding serphouse request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	var log logrus.FieldLogger
	if s.log != nil {
		log = s.log.WithFields(logrus.Fields{"backend": BackendSerpHouse, "query": query})
	}
	resp, err := httputil.DoWithRetry(ctx, s.client, req, s.policy, log)
	if err != nil {
		if ctx.Err() == nil && httputil.IsTransient(err) {
			return nil, fmt.Errorf("%w: serphouse request: %w", ErrTransient, err)
		}
		return nil, fmt.Errorf("serphouse request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading serphouse response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &upstreamError{backend: BackendSerpHouse, status: resp.StatusCode, body: abbreviate(string(body), 200)}
	}

	var sr serphouseResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("%w: decoding serphouse response: %v", ErrUpstream, err)
	}
	if sr.Status != "" && sr.Status != "success" {
		return nil, fmt.Errorf("%w: serphouse status %q: %s", ErrUpstream, sr.Status, sr.Message)
	}

	hits := make([]types.Hit, 0, len(sr.Results.Results.Organic))
	for i, o := range sr.Results.Results.Organic {
		pos, err := o.Position.Int64()
		if err != nil || pos <= 0 {
			pos = int64(i + 1)
		}
		hits = append(hits, types.Hit{
			Title:    CleanText(o.Title),
			Link:     strings.TrimSpace(o.Link),
			Snippet:  CleanText(o.Snippet),
			Position: int(pos),
		})
	}
	return hits, nil
}

func abbreviate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
