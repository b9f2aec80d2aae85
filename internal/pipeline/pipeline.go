// Package pipeline orchestrates a hunt: source candidate businesses,
// enrich them with contact details, score them against the ideal
// customer profile, and sync the results to the lead store.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vantix/leads-engine/internal/llm"
	"github.com/vantix/leads-engine/internal/model"
	"github.com/vantix/leads-engine/internal/outreach"
)

// LeadSource finds and enriches candidate leads
type LeadSource interface {
	SearchLeads(ctx context.Context, city, niche string, perPage int) ([]model.Lead, error)
	Enrich(ctx context.Context, lead *model.Lead) error
}

// LeadScorer rates a batch of leads in place
type LeadScorer interface {
	ScoreLeads(ctx context.Context, leads []model.Lead) []model.Lead
}

// LeadStore persists the scored batch
type LeadStore interface {
	SyncLeads(ctx context.Context, leads []model.Lead) (created, updated int)
}

// Pipeline wires the hunt stages together
type Pipeline struct {
	source    LeadSource
	scorer    LeadScorer
	store     LeadStore
	refiner   llm.Provider
	templates *outreach.Templates
	log       *logrus.Entry
	now       func() time.Time
}

// New creates a hunt pipeline. refiner may be nil to skip insight
// refinement; templates may be nil to skip opener drafts.
func New(source LeadSource, scorer LeadScorer, store LeadStore, refiner llm.Provider, templates *outreach.Templates, log *logrus.Logger) *Pipeline {
	return &Pipeline{
		source:    source,
		scorer:    scorer,
		store:     store,
		refiner:   refiner,
		templates: templates,
		log:       log.WithField("component", "pipeline"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// HuntOptions narrows a hunt to one market segment. Empty fields fall
// back to the configured rotation.
type HuntOptions struct {
	City    string
	Niche   string
	PerPage int
}

// HuntSummary reports what one hunt produced
type HuntSummary struct {
	RunID     string       `json:"run_id"`
	StartedAt time.Time    `json:"started_at"`
	Duration  string       `json:"duration"`
	Sourced   int          `json:"sourced"`
	WithEmail int          `json:"with_email"`
	Created   int          `json:"created"`
	Updated   int          `json:"updated"`
	Top       []model.Lead `json:"top_leads"`
	Drafts    []Draft      `json:"drafts,omitempty"`
}

// Draft is the opener email as it would go out to one of the top
// leads, included so the operator can review copy before a live run.
type Draft struct {
	Email   string `json:"email"`
	Company string `json:"company"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Hunt runs the full sourcing pass. Enrichment and sync failures for
// individual leads are logged and skipped; only sourcing itself is
// fatal.
func (p *Pipeline) Hunt(ctx context.Context, opts HuntOptions) (*HuntSummary, error) {
	started := p.now()
	summary := &HuntSummary{
		RunID:     uuid.NewString()[:8],
		StartedAt: started,
	}
	p.log.Infof("=== HUNT %s ===", summary.RunID)

	leads, err := p.source.SearchLeads(ctx, opts.City, opts.Niche, opts.PerPage)
	if err != nil {
		return nil, fmt.Errorf("source leads: %w", err)
	}
	summary.Sourced = len(leads)
	if len(leads) == 0 {
		p.log.Warn("No leads found. Try a different city/niche combination.")
		summary.Duration = p.now().Sub(started).Round(time.Second).String()
		return summary, nil
	}

	p.log.Infof("Enriching %d leads...", len(leads))
	for i := range leads {
		if err := p.source.Enrich(ctx, &leads[i]); err != nil {
			return summary, fmt.Errorf("enrich leads: %w", err)
		}
	}

	// Only leads with an email address can enter the sequence
	reachable := leads[:0]
	for _, lead := range leads {
		if lead.Email != "" {
			reachable = append(reachable, lead)
		}
	}
	leads = reachable
	summary.WithEmail = len(leads)
	p.log.Infof("%d/%d leads have an email address", summary.WithEmail, summary.Sourced)

	leads = p.scorer.ScoreLeads(ctx, leads)
	p.refine(ctx, leads)

	summary.Created, summary.Updated = p.store.SyncLeads(ctx, leads)
	summary.Top = topLeads(leads, 10)
	summary.Drafts = p.draftOpeners(summary.Top, 3)
	summary.Duration = p.now().Sub(started).Round(time.Second).String()
	return summary, nil
}

// draftOpeners renders the first sequence email for the n best leads
func (p *Pipeline) draftOpeners(top []model.Lead, n int) []Draft {
	if p.templates == nil {
		return nil
	}
	if len(top) > n {
		top = top[:n]
	}
	drafts := make([]Draft, 0, len(top))
	for i := range top {
		msg := p.templates.Render(&top[i], 1)
		drafts = append(drafts, Draft{
			Email:   top[i].Email,
			Company: top[i].CompanyName,
			Subject: msg.Subject,
			Body:    msg.Body,
		})
	}
	return drafts
}

// refine rewrites insights through the configured provider. Failures
// keep the templated insight; the score is never touched.
func (p *Pipeline) refine(ctx context.Context, leads []model.Lead) {
	if p.refiner == nil {
		return
	}
	for i := range leads {
		refined, err := p.refiner.Refine(ctx, leads[i])
		if err != nil {
			p.log.Warnf("Insight refinement failed for %s: %v", leads[i].CompanyName, err)
			continue
		}
		leads[i].Insight = refined
	}
}

// topLeads returns the n highest-scored leads, best first
func topLeads(leads []model.Lead, n int) []model.Lead {
	sorted := make([]model.Lead, len(leads))
	copy(sorted, leads)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
