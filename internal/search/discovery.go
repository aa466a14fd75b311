// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	discoveryengine "google.golang.org/api/discoveryengine/v1beta"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/pdiddy/serp-evals/pkg/types"
)

const (
	defaultDiscoveryLocation = "global"
	defaultServingConfig     = "default_config"
	defaultDiscoveryPageSize = 10
)

// Discovery searches a Google Discovery Engine (Vertex AI Search) data
// store.
type Discovery struct {
	svc           *discoveryengine.Service
	servingConfig string
	pageSize      int64
}

// NewDiscovery returns a Discovery fetcher for the data store in cfg.
// When token is non-empty it is sent as a static bearer token; otherwise
// Application Default Credentials are used. Extra client options are
// appended last, so tests can point the client at a local server.
func NewDiscovery(ctx context.Context, cfg types.DiscoveryConfig, token string, extra []option.ClientOption) (*Discovery, error) {
	if cfg.ProjectID == "" || cfg.DataStoreID == "" {
		return nil, fmt.Errorf("%w: discovery project_id and data_store_id are required", ErrConfig)
	}
	if cfg.Location == "" {
		cfg.Location = defaultDiscoveryLocation
	}
	if cfg.ServingConfig == "" {
		cfg.ServingConfig = defaultServingConfig
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultDiscoveryPageSize
	}

	var opts []option.ClientOption
	if ep := discoveryEndpoint(cfg); ep != "" {
		opts = append(opts, option.WithEndpoint(ep))
	}
	if token != "" {
		opts = append(opts, option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		})))
	}
	opts = append(opts, extra...)

	svc, err := discoveryengine.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: creating discovery engine client: %v", ErrConfig, err)
	}

	return &Discovery{
		svc:           svc,
		servingConfig: ServingConfigPath(cfg),
		pageSize:      int64(cfg.PageSize),
	}, nil
}

// ServingConfigPath returns the resource name of the serving config
// queried for cfg.
func ServingConfigPath(cfg types.DiscoveryConfig) string {
	loc := cfg.Location
	if loc == "" {
		loc = defaultDiscoveryLocation
	}
	sc := cfg.ServingConfig
	if sc == "" {
		sc = defaultServingConfig
	}
	return fmt.Sprintf("projects/%s/locations/%s/dataStores/%s/servingConfigs/%s",
		cfg.ProjectID, loc, cfg.DataStoreID, sc)
}

// discoveryEndpoint returns the regional endpoint for non-global
// locations, or "" to keep the client default.
func discoveryEndpoint(cfg types.DiscoveryConfig) string {
	if cfg.Endpoint != "" {
		return cfg.Endpoint
	}
	if cfg.Location == "" || cfg.Location == defaultDiscoveryLocation {
		return ""
	}
	return fmt.Sprintf("https://%s-discoveryengine.googleapis.com/", cfg.Location)
}

// Name returns the backend identifier.
func (d *Discovery) Name() string { return BackendDiscovery }

// Fetch runs query against the serving config with snippets, automatic
// query expansion, and automatic spell correction enabled.
func (d *Discovery) Fetch(ctx context.Context, query string) ([]types.Hit, error) {
	req := &discoveryengine.GoogleCloudDiscoveryengineV1betaSearchRequest{
		Query:    query,
		PageSize: d.pageSize,
		ContentSearchSpec: &discoveryengine.GoogleCloudDiscoveryengineV1betaSearchRequestContentSearchSpec{
			SnippetSpec: &discoveryengine.GoogleCloudDiscoveryengineV1betaSearchRequestContentSearchSpecSnippetSpec{
				ReturnSnippet: true,
			},
		},
		QueryExpansionSpec: &discoveryengine.GoogleCloudDiscoveryengineV1betaSearchRequestQueryExpansionSpec{
			Condition: "AUTO",
		},
		SpellCorrectionSpec: &discoveryengine.GoogleCloudDiscoveryengineV1betaSearchRequestSpellCorrectionSpec{
			Mode: "AUTO",
		},
	}

	resp, err := d.svc.Projects.Locations.DataStores.ServingConfigs.Search(d.servingConfig, req).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return nil, &upstreamError{backend: BackendDiscovery, status: gerr.Code, body: abbreviate(gerr.Message, 200)}
		}
		return nil, fmt.Errorf("discovery search: %w", err)
	}

	hits := make([]types.Hit, 0, len(resp.Results))
	for i, r := range resp.Results {
		if r.Document == nil {
			continue
		}
		hit, err := hitFromDerived(r.Document.DerivedStructData)
		if err != nil {
			return nil, fmt.Errorf("%w: decoding result %d: %v", ErrUpstream, i, err)
		}
		hit.Position = i + 1
		hits = append(hits, hit)
	}
	return hits, nil
}

// derivedData is the subset of a document's derivedStructData read by
// Fetch. PDF metadata surfaces under pagemap.metatags.
type derivedData struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippets []struct {
		Snippet string `json:"snippet"`
	} `json:"snippets"`
	Pagemap struct {
		Metatags []map[string]any `json:"metatags"`
	} `json:"pagemap"`
}

func hitFromDerived(raw googleapi.RawMessage) (types.Hit, error) {
	var hit types.Hit
	if len(raw) == 0 {
		return hit, nil
	}

	var d derivedData
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return hit, err
	}

	hit.Title = CleanText(d.Title)
	hit.Link = strings.TrimSpace(d.Link)
	if len(d.Snippets) > 0 {
		hit.Snippet = CleanText(d.Snippets[0].Snippet)
	}
	if len(d.Pagemap.Metatags) > 0 {
		tags := d.Pagemap.Metatags[0]
		hit.RawCreationDate = metaString(tags, "creationdate")
		hit.RawModifiedDate = metaString(tags, "moddate")
	}
	return hit, nil
}

func metaString(tags map[string]any, key string) string {
	v, ok := tags[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
