// Package search talks to the external duplicate-content search provider
// and verifies returned sightings against their origins.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/veridict/veridict/internal/model"
)

// Searcher is the duplicate-content search capability. Implementations
// may return zero results; callers must tolerate an empty slice.
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.SourceSighting, error)
}

// HTTPSearcher queries a JSON search endpoint
type HTTPSearcher struct {
	endpoint   string
	apiKey     string
	maxResults int
	httpClient *http.Client
	userAgent  string
}

// NewHTTPSearcher creates a searcher against the configured endpoint
func NewHTTPSearcher(cfg model.SearchConfig) *HTTPSearcher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 25
	}

	return &HTTPSearcher{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		maxResults: maxResults,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type searchResponse struct {
	Results []struct {
		Origin          string    `json:"origin"`
		Platform        string    `json:"platform"`
		Title           string    `json:"title"`
		FirstSeen       time.Time `json:"first_seen"`
		MatchConfidence float64   `json:"match_confidence"`
	} `json:"results"`
}

// Search queries the endpoint for sightings of near-duplicate content
func (s *HTTPSearcher) Search(ctx context.Context, query string) ([]model.SourceSighting, error) {
	if s.endpoint == "" {
		return nil, fmt.Errorf("search endpoint not configured")
	}

	u, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("limit", fmt.Sprintf("%d", s.maxResults))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search status %d: %s", resp.StatusCode, string(data))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	sightings := make([]model.SourceSighting, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.Origin == "" {
			continue
		}
		sightings = append(sightings, model.SourceSighting{
			Origin:          r.Origin,
			Platform:        r.Platform,
			Title:           r.Title,
			FirstSeen:       r.FirstSeen,
			MatchConfidence: r.MatchConfidence,
		})
	}
	return sightings, nil
}

// Dedupe collapses repeated origins, keeping the earliest sighting and
// the highest match confidence seen for each
func Dedupe(sightings []model.SourceSighting) []model.SourceSighting {
	byOrigin := make(map[string]int)
	out := make([]model.SourceSighting, 0, len(sightings))

	for _, s := range sightings {
		idx, seen := byOrigin[s.Origin]
		if !seen {
			byOrigin[s.Origin] = len(out)
			out = append(out, s)
			continue
		}
		if s.FirstSeen.Before(out[idx].FirstSeen) {
			out[idx].FirstSeen = s.FirstSeen
		}
		if s.MatchConfidence > out[idx].MatchConfidence {
			out[idx].MatchConfidence = s.MatchConfidence
		}
	}
	return out
}
