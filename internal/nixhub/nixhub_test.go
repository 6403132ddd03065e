package nixhub

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpecWithVersion(t *testing.T) {
	spec := ParseSpec("nodejs@20.1.0")
	assert.Equal(t, "nodejs", spec.Name)
	assert.Equal(t, "20.1.0", spec.Version)
	assert.True(t, spec.HasVersion)
}

func TestParseSpecSemverRange(t *testing.T) {
	spec := ParseSpec("python@3.11")
	assert.Equal(t, "python", spec.Name)
	assert.Equal(t, "3.11", spec.Version)
}

func TestParseSpecWithoutVersion(t *testing.T) {
	spec := ParseSpec("ripgrep")
	assert.Equal(t, "ripgrep", spec.Name)
	assert.Empty(t, spec.Version)
	assert.False(t, spec.HasVersion)
}

func TestParseSpecEmptyVersion(t *testing.T) {
	spec := ParseSpec("pkg@")
	assert.Equal(t, "pkg", spec.Name)
	assert.Empty(t, spec.Version)
	assert.True(t, spec.HasVersion)
}

func TestParseSpecMultipleAtSigns(t *testing.T) {
	spec := ParseSpec("pkg@1.0@extra")
	assert.Equal(t, "pkg", spec.Name)
	assert.Equal(t, "1.0@extra", spec.Version)
}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient()
	c.Host = srv.URL
	return c
}

func TestSearch(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/search", r.URL.Path)
		assert.Equal(t, "ripgrep", r.URL.Query().Get("q"))
		w.Write([]byte(`{
			"query": "ripgrep",
			"total_results": 2,
			"results": [
				{"name": "ripgrep", "summary": "Line-oriented search tool", "last_updated": "2024-01-01"},
				{"name": "ripgrep-all", "summary": "Search in PDFs and more", "last_updated": "2024-01-02"}
			]
		}`))
	})

	resp, err := c.Search("ripgrep")
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalResults)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "ripgrep", resp.Results[0].Name)
	assert.Equal(t, "Line-oriented search tool", resp.Results[0].Summary)
}

func TestSearchNullResults(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query": "nothing", "total_results": 0, "results": null}`))
	})

	resp, err := c.Search("nothing")
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSearchEmptyQuery(t *testing.T) {
	c := NewClient()
	_, err := c.Search("")
	assert.Error(t, err)
}

func TestSearchNotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.Search("gone")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "gone", notFound.Name)
}

func TestPackage(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/pkg", r.URL.Path)
		assert.Equal(t, "nodejs", r.URL.Query().Get("name"))
		w.Write([]byte(`{
			"name": "nodejs",
			"summary": "Event-driven I/O framework",
			"releases": [
				{"version": "21.1.0"},
				{"version": "20.11.0"}
			]
		}`))
	})

	pkg, err := c.Package("nodejs")
	require.NoError(t, err)
	assert.Equal(t, "nodejs", pkg.Name)
	require.Len(t, pkg.Releases, 2)
	assert.Equal(t, "21.1.0", pkg.Releases[0].Version)
}

func TestResolve(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/resolve", r.URL.Path)
		assert.Equal(t, "nodejs", r.URL.Query().Get("name"))
		assert.Equal(t, "20", r.URL.Query().Get("version"))
		w.Write([]byte(`{
			"name": "nodejs",
			"version": "20.11.0",
			"systems": {
				"x86_64-linux": {
					"flake_installable": {
						"ref": {"type": "github", "owner": "NixOS", "repo": "nixpkgs", "rev": "abc123def456"},
						"attr_path": "nodejs_20"
					},
					"last_updated": "2024-01-01"
				}
			}
		}`))
	})

	resp, err := c.Resolve("nodejs", "20")
	require.NoError(t, err)
	assert.Equal(t, "20.11.0", resp.Version)
	require.Contains(t, resp.Systems, "x86_64-linux")
	assert.Equal(t, "nodejs_20", resp.Systems["x86_64-linux"].FlakeInstallable.AttrPath)
}

func TestResolveForSystem(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"name": "nodejs",
			"version": "20.11.0",
			"systems": {
				"x86_64-linux": {
					"flake_installable": {
						"ref": {"type": "github", "owner": "NixOS", "repo": "nixpkgs", "rev": "abc123def456"},
						"attr_path": "nodejs_20"
					},
					"last_updated": "2024-01-01"
				}
			}
		}`))
	})

	pkg, err := c.ResolveForSystem("nodejs", "20", "x86_64-linux")
	require.NoError(t, err)
	assert.Equal(t, "nodejs", pkg.Name)
	assert.Equal(t, "20.11.0", pkg.Version)
	assert.Equal(t, "nodejs_20", pkg.AttributePath)
	assert.Equal(t, "abc123def456", pkg.CommitHash)
}

func TestResolveForSystemUnavailable(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name": "nodejs", "version": "20.11.0", "systems": {}}`))
	})

	_, err := c.ResolveForSystem("nodejs", "20", "aarch64-darwin")
	assert.ErrorContains(t, err, "aarch64-darwin")
}

func TestResolveNotFoundIncludesVersion(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.Resolve("nodejs", "99")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nodejs", notFound.Name)
	assert.Equal(t, "99", notFound.Version)
}

func TestUnreachable(t *testing.T) {
	c := NewClient()
	c.Host = "http://127.0.0.1:1"

	_, err := c.Search("anything")
	assert.ErrorIs(t, err, ErrUnreachable)
}
