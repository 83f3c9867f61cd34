package search

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/veridict/veridict/internal/model"
	"github.com/veridict/veridict/internal/worker"
)

// maxVerifyBody caps how much of an origin page the verifier reads
const maxVerifyBody = 256 * 1024

// Verifier probes sighting origins to confirm they still resolve and to
// recover a page title where the search result lacked one. Origins that
// are not URLs (platform handles, bare domains) pass through unverified.
type Verifier struct {
	httpClient *http.Client
	robots     *robotsChecker
	limiter    *worker.PerHostLimiter
	userAgent  string
	maxWorkers int
}

// NewVerifier creates a sighting verifier. limiter may be nil to probe
// unthrottled.
func NewVerifier(cfg model.SearchConfig, limiter *worker.PerHostLimiter) *Verifier {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Verifier{
		httpClient: &http.Client{Timeout: timeout},
		robots:     newRobotsChecker(cfg.UserAgent, timeout),
		limiter:    limiter,
		userAgent:  cfg.UserAgent,
		maxWorkers: 5,
	}
}

// Verify probes each sighting's origin concurrently and returns the
// enriched copies in the original order. Probes never fail the call:
// an unreachable origin just stays unverified.
func (v *Verifier) Verify(ctx context.Context, sightings []model.SourceSighting) []model.SourceSighting {
	out := make([]model.SourceSighting, len(sightings))
	copy(out, sightings)

	semaphore := make(chan struct{}, v.maxWorkers)
	var wg sync.WaitGroup

	for i := range out {
		if !strings.HasPrefix(out[i].Origin, "http://") && !strings.HasPrefix(out[i].Origin, "https://") {
			continue
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			v.probe(ctx, &out[idx])
		}(i)
	}

	wg.Wait()
	return out
}

func (v *Verifier) probe(ctx context.Context, s *model.SourceSighting) {
	if v.limiter != nil {
		if err := v.limiter.Wait(ctx, s.Origin); err != nil {
			return
		}
	}
	if !v.robots.allowed(ctx, s.Origin) {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Origin, nil)
	if err != nil {
		return
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return
	}
	s.Verified = true

	if s.Title == "" && strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		if title := extractTitle(io.LimitReader(resp.Body, maxVerifyBody)); title != "" {
			s.Title = title
		}
	}
}

// extractTitle pulls the <title> text from an HTML document
func extractTitle(r io.Reader) string {
	doc, err := html.Parse(r)
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}
