// Package source finds prospective business leads through a web
// search API and enriches them with contact details. Queries target
// businesses whose only web presence is a social page: those are the
// strongest candidates for the offer.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vantix/leads-engine/internal/model"
	"github.com/vantix/leads-engine/internal/worker"
)

// Searcher sources leads from the search provider. Every request
// waits on the limiter first: the provider allows roughly one request
// per second.
type Searcher struct {
	httpClient *http.Client
	cfg        model.SearchConfig
	limiter    *worker.Limiter
	log        *logrus.Entry
	shuffle    func(n int, swap func(i, j int))
}

// NewSearcher creates a lead searcher
func NewSearcher(cfg model.SearchConfig, httpCfg model.HTTPConfig, limiter *worker.Limiter, log *logrus.Logger) *Searcher {
	return &Searcher{
		httpClient: &http.Client{Timeout: httpCfg.Timeout},
		cfg:        cfg,
		limiter:    limiter,
		log:        log.WithField("component", "source"),
		shuffle:    rand.Shuffle,
	}
}

type searchResponse struct {
	Web struct {
		Results []searchResult `json:"results"`
	} `json:"web"`
}

type searchResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// SearchLeads finds businesses matching the target profile. With an
// explicit city and niche it runs a single query; otherwise it rotates
// through the configured city/niche lists. Partial provider failures
// skip the query and continue.
func (s *Searcher) SearchLeads(ctx context.Context, city, niche string, perPage int) ([]model.Lead, error) {
	if perPage <= 0 {
		perPage = s.cfg.LeadsPerRun
	}

	queries := s.buildQueries(city, niche)
	var leads []model.Lead

	for _, query := range queries {
		if len(leads) >= perPage {
			break
		}

		results, err := s.search(ctx, query, 10)
		if err != nil {
			if ctx.Err() != nil {
				return leads, ctx.Err()
			}
			s.log.Warnf("Search error for %q: %v", query, err)
			continue
		}

		for _, item := range results {
			lead := parseResult(item, query)
			if lead == nil || isDuplicate(*lead, leads) {
				continue
			}
			leads = append(leads, *lead)
		}
	}

	if len(leads) > perPage {
		leads = leads[:perPage]
	}
	s.log.Infof("Found %d leads from search", len(leads))
	return leads, nil
}

// buildQueries produces the search queries for a run
func (s *Searcher) buildQueries(city, niche string) []string {
	if city != "" && niche != "" {
		return []string{searchQuery(niche, city)}
	}

	cities := sample(s.cfg.Cities, 5, s.shuffle)
	niches := sample(s.cfg.Niches, 2, s.shuffle)

	var queries []string
	for _, c := range cities {
		for _, n := range niches {
			queries = append(queries, searchQuery(n, c))
		}
	}
	return queries
}

func searchQuery(niche, city string) string {
	return fmt.Sprintf(`site:facebook.com "%s" "%s" -site:yelp.com`, niche, city)
}

// search runs one provider query
func (s *Searcher) search(ctx context.Context, query string, count int) ([]searchResult, error) {
	if err := s.limiter.Wait(ctx, s.cfg.BaseURL); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Subscription-Token", s.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return decoded.Web.Results, nil
}

var (
	phonePattern  = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	quotedPattern = regexp.MustCompile(`"([^"]+)"`)
)

// parseResult converts one search result into a candidate lead, or nil
// when the result is not a business page.
func parseResult(item searchResult, query string) *model.Lead {
	lowered := strings.ToLower(item.URL)
	if !strings.Contains(lowered, "facebook.com") && !strings.Contains(lowered, "fb.com") {
		return nil
	}

	name := item.Title
	if idx := strings.Index(name, " - "); idx >= 0 {
		name = name[:idx]
	}
	if idx := strings.Index(name, " | "); idx >= 0 {
		name = name[:idx]
	}
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		return nil
	}

	phone := phonePattern.FindString(item.Description)

	// The niche and city ride along as the quoted parts of the query
	var niche, cityState string
	if matches := quotedPattern.FindAllStringSubmatch(query, -1); len(matches) > 0 {
		niche = matches[0][1]
		if len(matches) > 1 {
			cityState = matches[1][1]
		}
	}

	city, state := splitCityState(cityState)

	return &model.Lead{
		CompanyName: name,
		Phone:       phone,
		Website:     item.URL,
		Industry:    niche,
		City:        city,
		State:       state,
		Source:      "search",
		Stage:       model.StageNew,
	}
}

// splitCityState splits "Tampa FL" into ("Tampa", "FL")
func splitCityState(cityState string) (string, string) {
	parts := strings.Fields(cityState)
	if len(parts) < 2 {
		return cityState, ""
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}

func isDuplicate(lead model.Lead, existing []model.Lead) bool {
	name := strings.ToLower(lead.CompanyName)
	for _, l := range existing {
		if strings.ToLower(l.CompanyName) == name {
			return true
		}
	}
	return false
}

// sample returns up to n elements of src in shuffled order
func sample(src []string, n int, shuffle func(int, func(int, int))) []string {
	out := make([]string, len(src))
	copy(out, src)
	shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
