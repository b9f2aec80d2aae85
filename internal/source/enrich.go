package source

import (
	"context"
	"regexp"
	"strings"

	"github.com/vantix/leads-engine/internal/model"
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// socialHosts never count as a business's own website
var socialHosts = []string{
	"facebook.com", "fb.com", "instagram.com", "twitter.com", "x.com",
	"linkedin.com", "yelp.com", "youtube.com", "tiktok.com",
}

// Enrich looks up a public email address and a standalone website for
// the lead via a second search pass. The lead is updated in place;
// missing details are left empty, never an error.
func (s *Searcher) Enrich(ctx context.Context, lead *model.Lead) error {
	query := `"` + lead.CompanyName + `" "` + lead.City + `" email contact`

	results, err := s.search(ctx, query, 5)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Warnf("Enrichment search failed for %s: %v", lead.CompanyName, err)
		return nil
	}

	for _, item := range results {
		if lead.Email == "" {
			if email := findContactEmail(item.Description); email != "" {
				lead.Email = email
				lead.EmailStatus = "unverified"
			}
		}
		if isSocialURL(lead.Website) {
			if site := item.URL; site != "" && !isSocialURL(site) {
				lead.Website = site
			}
		}
		if lead.Email != "" && !isSocialURL(lead.Website) {
			break
		}
	}
	return nil
}

// findContactEmail extracts the first plausible contact address,
// skipping image filenames that match the pattern.
func findContactEmail(text string) string {
	for _, candidate := range emailPattern.FindAllString(text, -1) {
		lowered := strings.ToLower(candidate)
		if strings.HasSuffix(lowered, ".png") || strings.HasSuffix(lowered, ".jpg") ||
			strings.HasSuffix(lowered, ".gif") || strings.HasSuffix(lowered, ".webp") {
			continue
		}
		return candidate
	}
	return ""
}

func isSocialURL(rawURL string) bool {
	lowered := strings.ToLower(rawURL)
	for _, host := range socialHosts {
		if strings.Contains(lowered, host) {
			return true
		}
	}
	return rawURL == ""
}
