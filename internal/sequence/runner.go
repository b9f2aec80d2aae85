package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vantix/leads-engine/internal/model"
	"github.com/vantix/leads-engine/internal/outreach"
)

// LeadStore is the slice of the store the runner needs
type LeadStore interface {
	LeadsByStage(ctx context.Context, stage model.Stage) ([]model.Lead, error)
	UpdateLead(ctx context.Context, leadID string, updates map[string]any) error
	AppendHistory(ctx context.Context, lead *model.Lead, existing []model.HistoryEntry, entry model.HistoryEntry) error
	AppendActivity(ctx context.Context, lead *model.Lead, existing []model.ActivityEntry, event string) error
}

// EmailSender sends one sequence email and reports the attempt
type EmailSender interface {
	SendSequenceEmail(ctx context.Context, templates *outreach.Templates, lead *model.Lead, emailNumber int, dryRun bool) model.HistoryEntry
}

// Runner executes one sequence invocation: it reads all leads in
// active stages and sends whichever emails the scheduler says are due,
// up to the daily cap.
type Runner struct {
	scheduler *Scheduler
	store     LeadStore
	sender    EmailSender
	templates *outreach.Templates
	cfg       model.SequenceConfig
	log       *logrus.Entry
	now       func() time.Time
	sleep     func(time.Duration)
}

// NewRunner creates a sequence runner
func NewRunner(cfg model.SequenceConfig, store LeadStore, sender EmailSender, templates *outreach.Templates, log *logrus.Logger) *Runner {
	return &Runner{
		scheduler: NewScheduler(cfg),
		store:     store,
		sender:    sender,
		templates: templates,
		cfg:       cfg,
		log:       log.WithField("component", "sequence"),
		now:       func() time.Time { return time.Now().UTC() },
		sleep:     time.Sleep,
	}
}

// RunSummary reports what one sequence invocation did
type RunSummary struct {
	RunID     string
	DryRun    bool
	Processed int
	Sent      int
	Failed    int
	Waiting   int
	Skipped   int
	CapHit    bool
}

// Run checks contacted and new leads and sends the next email for each
// lead whose sequence position is due. Overlapping invocations are not
// coordinated; external scheduling is expected to serialize runs.
func (r *Runner) Run(ctx context.Context, dryRun bool) (*RunSummary, error) {
	summary := &RunSummary{RunID: uuid.NewString()[:8], DryRun: dryRun}

	mode := "LIVE"
	if dryRun {
		mode = "DRY RUN"
	}
	r.log.Infof("=== SEQUENCE RUN %s (%s) ===", summary.RunID, mode)

	contacted, err := r.store.LeadsByStage(ctx, model.StageContacted)
	if err != nil {
		return nil, fmt.Errorf("fetch contacted leads: %w", err)
	}
	newLeads, err := r.store.LeadsByStage(ctx, model.StageNew)
	if err != nil {
		return nil, fmt.Errorf("fetch new leads: %w", err)
	}
	leads := append(contacted, newLeads...)

	if len(leads) == 0 {
		r.log.Info("No leads in contacted/new stage.")
		return summary, nil
	}

	now := r.now()
	for i := range leads {
		lead := &leads[i]

		if summary.Sent+summary.Failed >= r.cfg.MaxPerDay {
			r.log.Warnf("Daily send limit reached (%d)", r.cfg.MaxPerDay)
			summary.CapHit = true
			break
		}

		action := r.scheduler.NextAction(lead, now)
		switch action.Type {
		case ActionSkip:
			summary.Skipped++
			continue
		case ActionWait:
			summary.Waiting++
			continue
		case ActionSend:
		}

		if err := r.sendTo(ctx, lead, action.EmailNumber, dryRun, summary); err != nil {
			// History append failures abort: continuing could double-send
			// the same number on the next invocation without any record.
			return summary, err
		}
		summary.Processed++

		if !dryRun && summary.Sent+summary.Failed < r.cfg.MaxPerDay {
			r.sleep(r.cfg.DelayBetween)
		}
	}

	r.log.Infof("Sequence run %s done: %d processed, %d sent, %d failed, %d waiting, %d skipped",
		summary.RunID, summary.Processed, summary.Sent, summary.Failed, summary.Waiting, summary.Skipped)
	return summary, nil
}

func (r *Runner) sendTo(ctx context.Context, lead *model.Lead, emailNumber int, dryRun bool, summary *RunSummary) error {
	r.log.Infof("Sending email #%d to %s", emailNumber, lead.Email)

	// Read both timelines before any write so the appends reserialize
	// exactly the state this decision was based on.
	history := lead.History()
	activity := lead.ActivityLog()

	entry := r.sender.SendSequenceEmail(ctx, r.templates, lead, emailNumber, dryRun)

	if err := r.store.AppendHistory(ctx, lead, history, entry); err != nil {
		return fmt.Errorf("record history for %s: %w", lead.Email, err)
	}

	var event string
	switch entry.Status {
	case model.StatusSent:
		summary.Sent++
		event = fmt.Sprintf("Email #%d sent", emailNumber)
	case model.StatusDryRun:
		summary.Sent++
		event = fmt.Sprintf("Email #%d drafted (dry run)", emailNumber)
	default:
		summary.Failed++
		event = fmt.Sprintf("Email #%d send failed", emailNumber)
	}
	if err := r.store.AppendActivity(ctx, lead, activity, event); err != nil {
		return fmt.Errorf("record activity for %s: %w", lead.Email, err)
	}

	// Stage only ever moves forward through this path
	if lead.Stage == model.StageNew && entry.Status.Counts() {
		if err := r.store.UpdateLead(ctx, lead.ID, map[string]any{"stage": string(model.StageContacted)}); err != nil {
			return fmt.Errorf("advance stage for %s: %w", lead.Email, err)
		}
		lead.Stage = model.StageContacted
	}

	return nil
}
