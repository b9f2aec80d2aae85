package score

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/vantix/leads-engine/internal/cache"
	"github.com/vantix/leads-engine/internal/util"
	"github.com/vantix/leads-engine/internal/worker"
)

// ProbeOutcome classifies what the website probe found. Probe failures
// are an outcome, not an error: scoring must never abort because a
// lead's site misbehaved.
type ProbeOutcome string

const (
	SiteMissing     ProbeOutcome = "missing"      // no website on record
	SiteReachable   ProbeOutcome = "reachable"    // got a 200
	SiteUnreachable ProbeOutcome = "unreachable"  // non-200 status
	ProbeFailed     ProbeOutcome = "probe_failed" // timeout, DNS failure, anything else
)

// ProbeResult is the scored-against summary of a website check
type ProbeResult struct {
	Outcome     ProbeOutcome  `json:"outcome"`
	LoadTime    time.Duration `json:"load_time"`
	HasViewport bool          `json:"has_viewport"`
}

// Exists reports whether the probe found a live site.
func (p ProbeResult) Exists() bool {
	return p.Outcome == SiteReachable
}

const probeBodyLimit = 64 * 1024 // enough of the page to find the viewport meta

// WebsiteProbe performs the one side-reaching check the scorer makes:
// a single polite GET against the lead's own website. Results are
// cached so a lead sourced twice in a run is probed once.
type WebsiteProbe struct {
	httpClient *http.Client
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	cache      cache.Cache
	userAgent  string
}

// NewWebsiteProbe creates a website probe
func NewWebsiteProbe(timeout time.Duration, userAgent string, limiter *worker.Limiter, c cache.Cache) *WebsiteProbe {
	return &WebsiteProbe{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		robots:    util.NewRobotsChecker(userAgent, timeout),
		limiter:   limiter,
		cache:     c,
		userAgent: userAgent,
	}
}

// Probe checks the lead's website. An empty URL is SiteMissing; any
// transport error is ProbeFailed.
func (p *WebsiteProbe) Probe(ctx context.Context, rawURL string) ProbeResult {
	if rawURL == "" {
		return ProbeResult{Outcome: SiteMissing}
	}
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "https://" + rawURL
	}

	if p.cache != nil {
		if raw, ok := p.cache.Get(cache.ProbeKey(rawURL)); ok {
			var cached ProbeResult
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached
			}
		}
	}

	result := p.fetch(ctx, rawURL)

	if p.cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			_ = p.cache.Set(cache.ProbeKey(rawURL), raw, 30*time.Minute)
		}
	}
	return result
}

func (p *WebsiteProbe) fetch(ctx context.Context, rawURL string) ProbeResult {
	// A site that forbids crawling still exists: record it reachable
	// with no quality findings rather than fetching anyway.
	if !p.robots.IsAllowed(ctx, rawURL) {
		return ProbeResult{Outcome: SiteReachable, HasViewport: true}
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, rawURL); err != nil {
			return ProbeResult{Outcome: ProbeFailed}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ProbeResult{Outcome: ProbeFailed}
	}
	req.Header.Set("User-Agent", p.userAgent)

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return ProbeResult{Outcome: ProbeFailed}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, probeBodyLimit))
	loadTime := time.Since(start)
	if err != nil {
		return ProbeResult{Outcome: ProbeFailed}
	}

	if resp.StatusCode != http.StatusOK {
		return ProbeResult{Outcome: SiteUnreachable, LoadTime: loadTime}
	}

	return ProbeResult{
		Outcome:     SiteReachable,
		LoadTime:    loadTime,
		HasViewport: hasViewportMeta(string(body)),
	}
}

// hasViewportMeta reports whether the page declares a mobile viewport
func hasViewportMeta(page string) bool {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		// Fall back to a substring check on unparseable markup
		return strings.Contains(strings.ToLower(page), "viewport")
	}

	var found bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" {
			for _, attr := range n.Attr {
				if attr.Key == "name" && strings.EqualFold(attr.Val, "viewport") {
					found = true
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}
