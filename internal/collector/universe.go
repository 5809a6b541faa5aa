package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/watarai0202-netizen/snipe-stock/internal/model"
)

// HTTPUniverseSource fetches the master ticker list from a REST endpoint.
type HTTPUniverseSource struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewHTTPUniverseSource creates a universe source with optional proxy support.
func NewHTTPUniverseSource(baseURL, apiKey, proxyURL string) *HTTPUniverseSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &HTTPUniverseSource{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (s *HTTPUniverseSource) Name() string { return "http-universe" }

// universeRow is the expected JSON shape from the master list API.
type universeRow struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Tier string `json:"tier"`
}

// FetchUniverse returns all rows of the master ticker list.
func (s *HTTPUniverseSource) FetchUniverse() ([]model.UniverseEntry, error) {
	endpoint := fmt.Sprintf("%s/api/v1/universe", s.BaseURL)
	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch universe: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch universe: status %d, body: %s", resp.StatusCode, string(body))
	}

	var rows []universeRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode universe: %w", err)
	}
	entries := make([]model.UniverseEntry, len(rows))
	for i, r := range rows {
		entries[i] = model.UniverseEntry{Code: r.Code, Name: r.Name, Tier: r.Tier}
	}
	return entries, nil
}
