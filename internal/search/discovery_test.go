// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/pdiddy/serp-evals/pkg/types"
)

const discoveryFixture = `{
  "results": [
    {
      "id": "doc-1",
      "document": {
        "name": "doc-1",
        "derivedStructData": {
          "title": "Acme 2023 Sustainability Report",
          "link": "https://acme.com/esg.pdf",
          "snippets": [{"snippet": "Our <b>sustainability</b> goals&nbsp;for 2023"}, {"snippet": "second"}],
          "pagemap": {"metatags": [{"creationdate": "D:20230415083000+05'00'", "moddate": "D:20230501120000Z"}]}
        }
      }
    },
    {
      "id": "doc-2",
      "document": {
        "name": "doc-2",
        "derivedStructData": {"title": "Plain", "link": "https://acme.com/plain.pdf"}
      }
    }
  ],
  "totalSize": 2
}`

var discoveryCfg = types.DiscoveryConfig{ProjectID: "proj", DataStoreID: "store-1"}

func discoveryServer(t *testing.T, handler http.HandlerFunc) []option.ClientOption {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return []option.ClientOption{
		option.WithEndpoint(ts.URL + "/"),
		option.WithoutAuthentication(),
	}
}

func TestServingConfigPath(t *testing.T) {
	assert.Equal(t,
		"projects/proj/locations/global/dataStores/store-1/servingConfigs/default_config",
		ServingConfigPath(discoveryCfg))

	assert.Equal(t,
		"projects/p/locations/eu/dataStores/d/servingConfigs/custom",
		ServingConfigPath(types.DiscoveryConfig{ProjectID: "p", Location: "eu", DataStoreID: "d", ServingConfig: "custom"}))
}

func TestDiscoveryEndpoint(t *testing.T) {
	assert.Empty(t, discoveryEndpoint(types.DiscoveryConfig{}))
	assert.Empty(t, discoveryEndpoint(types.DiscoveryConfig{Location: "global"}))
	assert.Equal(t, "https://eu-discoveryengine.googleapis.com/", discoveryEndpoint(types.DiscoveryConfig{Location: "eu"}))
	assert.Equal(t, "http://localhost:9/", discoveryEndpoint(types.DiscoveryConfig{Location: "eu", Endpoint: "http://localhost:9/"}))
}

func TestNewDiscoveryRequiresIDs(t *testing.T) {
	_, err := NewDiscovery(context.Background(), types.DiscoveryConfig{ProjectID: "p"}, "", nil)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestDiscoveryFetch(t *testing.T) {
	var gotPath string
	var gotReq map[string]any
	opts := discoveryServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(discoveryFixture))
	})

	f, err := NewDiscovery(context.Background(), discoveryCfg, "", opts)
	require.NoError(t, err)
	assert.Equal(t, "discovery", f.Name())

	hits, err := f.Fetch(context.Background(), "Acme Sustainability Report 2023")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(gotPath,
		"projects/proj/locations/global/dataStores/store-1/servingConfigs/default_config:search"), gotPath)
	assert.Equal(t, "Acme Sustainability Report 2023", gotReq["query"])
	assert.Equal(t, "10", fmt.Sprint(gotReq["pageSize"]))
	assert.Equal(t, map[string]any{"condition": "AUTO"}, gotReq["queryExpansionSpec"])
	assert.Equal(t, map[string]any{"mode": "AUTO"}, gotReq["spellCorrectionSpec"])
	assert.Equal(t, map[string]any{"snippetSpec": map[string]any{"returnSnippet": true}}, gotReq["contentSearchSpec"])

	require.Len(t, hits, 2)
	assert.Equal(t, types.Hit{
		Title:           "Acme 2023 Sustainability Report",
		Link:            "https://acme.com/esg.pdf",
		Snippet:         "Our sustainability goals for 2023",
		Position:        1,
		RawCreationDate: "D:20230415083000+05'00'",
		RawModifiedDate: "D:20230501120000Z",
	}, hits[0])
	assert.Equal(t, types.Hit{
		Title:    "Plain",
		Link:     "https://acme.com/plain.pdf",
		Position: 2,
	}, hits[1])
}

func TestDiscoveryAPIError(t *testing.T) {
	opts := discoveryServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"permission denied on data store","status":"PERMISSION_DENIED"}}`))
	})

	f, err := NewDiscovery(context.Background(), discoveryCfg, "", opts)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "HTTP 403")
}

func TestHitFromDerivedIgnoresNonStringDates(t *testing.T) {
	hit, err := hitFromDerived([]byte(`{"title":"t","pagemap":{"metatags":[{"creationdate":20230101}]}}`))
	require.NoError(t, err)
	assert.Empty(t, hit.RawCreationDate)
	assert.Equal(t, "t", hit.Title)
}
