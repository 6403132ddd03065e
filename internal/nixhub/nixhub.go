// Package nixhub is a client for the Nixhub/Devbox Search API, used to
// resolve package versions to specific nixpkgs commits and attribute paths.
//
// API documentation: https://www.jetify.com/docs/nixhub
package nixhub

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nixydotdev/nixy/internal/logging"
)

const defaultHost = "https://search.devbox.sh"

// ErrUnreachable means the Nixhub API could not be contacted at all.
var ErrUnreachable = errors.New("could not reach the Nixhub API. Check your network connection")

// NotFoundError is returned for a 404 from any Nixhub endpoint.
type NotFoundError struct {
	Name    string
	Version string
}

func (e *NotFoundError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("version '%s' of package '%s' not found on Nixhub", e.Version, e.Name)
	}
	return fmt.Sprintf("package '%s' not found on Nixhub", e.Name)
}

// Client calls the Nixhub search API.
type Client struct {
	Host string
	HTTP *http.Client
}

func NewClient() *Client {
	// The API occasionally resets HTTP/2 streams behind its load balancer,
	// so stick to HTTP/1.1.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ForceAttemptHTTP2 = false
	transport.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}

	return &Client{
		Host: defaultHost,
		HTTP: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}
}

// PackageSpec is a parsed "name@version" argument.
type PackageSpec struct {
	Name string
	// Version is the requested version or range; empty when the spec had
	// no "@". HasVersion distinguishes "pkg@" from "pkg".
	Version    string
	HasVersion bool
}

// ParseSpec splits an install argument on the first '@'.
func ParseSpec(spec string) PackageSpec {
	name, version, found := strings.Cut(spec, "@")
	return PackageSpec{Name: name, Version: version, HasVersion: found}
}

type SearchResponse struct {
	Query        string         `json:"query"`
	TotalResults int            `json:"total_results"`
	Results      []SearchResult `json:"results"`
}

type SearchResult struct {
	Name        string `json:"name"`
	Summary     string `json:"summary"`
	LastUpdated string `json:"last_updated"`
}

type PackageDetails struct {
	Name        string    `json:"name"`
	Summary     string    `json:"summary"`
	HomepageURL string    `json:"homepage_url"`
	License     string    `json:"license"`
	Releases    []Release `json:"releases"`
}

type Release struct {
	Version          string `json:"version"`
	LastUpdated      string `json:"last_updated"`
	PlatformsSummary string `json:"platforms_summary"`
	OutputsSummary   string `json:"outputs_summary"`
}

type ResolveResponse struct {
	Name    string                `json:"name"`
	Version string                `json:"version"`
	Summary string                `json:"summary"`
	Systems map[string]SystemInfo `json:"systems"`
}

type SystemInfo struct {
	FlakeInstallable FlakeInstallable `json:"flake_installable"`
	LastUpdated      string           `json:"last_updated"`
}

type FlakeInstallable struct {
	Ref      FlakeRef `json:"ref"`
	AttrPath string   `json:"attr_path"`
}

type FlakeRef struct {
	Type  string `json:"type"`
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Rev   string `json:"rev"`
}

// ResolvedPackage is the per-system result of a resolve call.
type ResolvedPackage struct {
	Name          string
	Version       string
	AttributePath string
	CommitHash    string
}

func (c *Client) get(path string, query url.Values, notFound error, into any) error {
	u := c.Host + path + "?" + query.Encode()
	logging.GetLogger("nixhub").Debug().Str("url", u).Msg("nixhub request")

	resp, err := c.HTTP.Get(u)
	if err != nil {
		return ErrUnreachable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return notFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("nixhub API returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("failed to parse nixhub response: %w", err)
	}
	return nil
}

// Search queries Nixhub for packages matching query.
func (c *Client) Search(query string) (*SearchResponse, error) {
	if query == "" {
		return nil, errors.New("search query cannot be empty")
	}
	var resp SearchResponse
	err := c.get("/v2/search", url.Values{"q": {query}}, &NotFoundError{Name: query}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Package fetches a package's details, including its known releases.
func (c *Client) Package(name string) (*PackageDetails, error) {
	var resp PackageDetails
	err := c.get("/v2/pkg", url.Values{"name": {name}}, &NotFoundError{Name: name}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Resolve maps a package name and version to per-system nixpkgs pins.
// version may be empty to resolve the latest release.
func (c *Client) Resolve(name, version string) (*ResolveResponse, error) {
	var resp ResolveResponse
	notFound := &NotFoundError{Name: name, Version: version}
	err := c.get("/v2/resolve", url.Values{"name": {name}, "version": {version}}, notFound, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResolveForSystem resolves a package and picks out the pin for one system.
func (c *Client) ResolveForSystem(name, version, system string) (*ResolvedPackage, error) {
	resp, err := c.Resolve(name, version)
	if err != nil {
		return nil, err
	}

	info, ok := resp.Systems[system]
	if !ok {
		return nil, fmt.Errorf("failed to resolve %s@%s: package not available for system '%s'",
			name, version, system)
	}

	return &ResolvedPackage{
		Name:          resp.Name,
		Version:       resp.Version,
		AttributePath: info.FlakeInstallable.AttrPath,
		CommitHash:    info.FlakeInstallable.Ref.Rev,
	}, nil
}
