package score

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vantix/leads-engine/internal/model"
)

// Scorer rates leads 1-10 against the ideal customer profile and
// generates the insight used to frame outreach.
type Scorer struct {
	weights model.ScoringConfig
	icp     model.ICPConfig
	probe   *WebsiteProbe
	log     *logrus.Entry
}

// NewScorer creates a new scorer. probe may be nil, in which case any
// recorded website is treated as existing and healthy.
func NewScorer(weights model.ScoringConfig, icp model.ICPConfig, probe *WebsiteProbe, log *logrus.Logger) *Scorer {
	return &Scorer{
		weights: weights,
		icp:     icp,
		probe:   probe,
		log:     log.WithField("component", "scorer"),
	}
}

// ScoreLead populates Score, Insight and ScoreReasons on the lead.
// Pure with respect to its inputs except for the single website probe.
func (s *Scorer) ScoreLead(ctx context.Context, lead *model.Lead) {
	score := s.weights.Base
	var reasons []string

	// 1. Website existence and quality
	site := s.checkWebsite(ctx, lead.Website)
	delta, reason := s.scoreWebsite(lead.Website, site)
	score += delta
	reasons = append(reasons, reason)

	// 2. Employee sweet spot
	if lead.EmployeeCount >= s.icp.EmployeeMin && lead.EmployeeCount <= s.icp.EmployeeMax {
		score += s.weights.SweetSpot
		reasons = append(reasons, fmt.Sprintf("Sweet spot size (%d employees)", lead.EmployeeCount))
	}

	// 3. Contact title: owner tier checked first, tiers mutually exclusive
	title := strings.ToLower(lead.Title)
	if containsAny(title, s.icp.OwnerTitles) {
		score += s.weights.TitleOwner
		reasons = append(reasons, "Decision maker (C-level/Owner)")
	} else if containsAny(title, s.icp.DirectorTitles) {
		score += s.weights.TitleDirector
		reasons = append(reasons, "Decision maker (Director)")
	}

	// 4. Verified email
	if lead.EmailStatus == "verified" || lead.EmailStatus == "valid" {
		score += s.weights.EmailVerified
		reasons = append(reasons, "Email verified")
	}

	// 5. Industry fit
	industry := strings.ToLower(lead.Industry)
	if containsAny(industry, s.icp.TargetIndustries) {
		score += s.weights.IndustryFit
		reasons = append(reasons, fmt.Sprintf("Target industry (%s)", lead.Industry))
	}

	lead.Score = clamp(score, 1, 10)
	lead.Insight = s.insight(lead.CompanyName, lead.Website, site)
	lead.ScoreReasons = reasons

	s.log.Infof("Scored %s: %d/10 — %s", lead.CompanyName, lead.Score, strings.Join(reasons, ", "))
}

// ScoreLeads scores a batch of leads in place
func (s *Scorer) ScoreLeads(ctx context.Context, leads []model.Lead) []model.Lead {
	s.log.Infof("Scoring %d leads...", len(leads))
	for i := range leads {
		s.ScoreLead(ctx, &leads[i])
	}
	return leads
}

func (s *Scorer) checkWebsite(ctx context.Context, website string) ProbeResult {
	if website == "" {
		return ProbeResult{Outcome: SiteMissing}
	}
	if s.probe == nil {
		return ProbeResult{Outcome: SiteReachable, HasViewport: true}
	}
	return s.probe.Probe(ctx, website)
}

// scoreWebsite converts the probe outcome into a score delta and a
// reason string. A missing or dead site lowers the number but is the
// strongest sales signal, so the reason is framed positively.
func (s *Scorer) scoreWebsite(website string, site ProbeResult) (int, string) {
	switch {
	case website == "":
		return s.weights.NoWebsite, "No website detected — strong need for digital presence"
	case !site.Exists():
		return s.weights.NoWebsite, "Website unreachable — may need rebuild"
	case !site.HasViewport:
		return s.weights.SlowSiteBonus, "Website not mobile-optimized"
	case site.LoadTime.Seconds() > s.weights.SlowLoadSecs:
		return s.weights.SlowSiteBonus, fmt.Sprintf("Slow website (%.1fs load)", site.LoadTime.Seconds())
	default:
		return 0, "Website appears functional"
	}
}

// insight selects the outreach framing by website quality
func (s *Scorer) insight(companyName, website string, site ProbeResult) string {
	company := companyName
	if company == "" {
		company = "the company"
	}

	switch {
	case website == "" || !site.Exists():
		return fmt.Sprintf(
			"%s currently lacks a strong online presence, making them an ideal candidate "+
				"for an AI-powered digital transformation. A modern website with automation "+
				"could significantly boost their customer acquisition.", company)
	case site.LoadTime.Seconds() > s.weights.SlowLoadSecs || !site.HasViewport:
		return fmt.Sprintf(
			"%s's current website has room for improvement in speed and mobile experience. "+
				"Modernizing their digital presence and automating customer workflows would "+
				"be a natural next step.", company)
	default:
		return fmt.Sprintf(
			"%s has an existing digital presence but could benefit from AI-powered automation. "+
				"Smart tools could help them scale operations and improve customer engagement.", company)
	}
}

// containsAny reports whether s contains any of the needles
func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
