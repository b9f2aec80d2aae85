// Package sequence decides and drives the timed 3-step outreach
// cascade. The scheduler is a pure state machine over a lead's
// persisted email history; the runner applies its decisions against
// the lead store and the email provider.
package sequence

import (
	"fmt"
	"time"

	"github.com/vantix/leads-engine/internal/model"
)

// ActionType is the scheduler's verdict for one lead
type ActionType string

const (
	ActionSend ActionType = "send" // the next sequence email is due now
	ActionWait ActionType = "wait" // too soon since the last send
	ActionSkip ActionType = "skip" // terminal stage or sequence exhausted
)

// Action is the scheduler's decision for a lead at a point in time
type Action struct {
	Type        ActionType
	EmailNumber int // set when Type == ActionSend
	Reason      string
}

// Scheduler decides, from a lead's persisted history, whether and
// which outreach email is due next.
type Scheduler struct {
	cfg model.SequenceConfig
}

// NewScheduler creates a scheduler with the given sequence thresholds
func NewScheduler(cfg model.SequenceConfig) *Scheduler {
	return &Scheduler{cfg: cfg}
}

// NextAction returns the next action for the lead as of now.
//
// The send/dry-run distinction is deliberately collapsed: a dry run
// advances the sequence exactly like a real send, so repeated dry runs
// walk the cascade instead of re-drafting email 1 forever. Thresholds
// are measured against the most recent history entry of any status.
func (s *Scheduler) NextAction(lead *model.Lead, now time.Time) Action {
	if lead.Stage.Halts() {
		return Action{Type: ActionSkip, Reason: fmt.Sprintf("stage %s halts outreach", lead.Stage)}
	}

	history := lead.History()

	last := 0
	for _, h := range history {
		if h.Status.Counts() && h.EmailNumber > last {
			last = h.EmailNumber
		}
	}

	if last == 0 {
		return Action{Type: ActionSend, EmailNumber: 1, Reason: "no emails sent yet"}
	}
	if last >= s.cfg.MaxEmails {
		return Action{Type: ActionSkip, Reason: "sequence complete"}
	}

	next := last + 1
	lastAt := model.LastSendAt(history)
	required := s.cfg.RequiredWait(next)
	elapsed := now.Sub(lastAt)

	if elapsed < required {
		return Action{
			Type: ActionWait,
			Reason: fmt.Sprintf("email %d due %s after last send, %s elapsed",
				next, required, elapsed.Truncate(time.Minute)),
		}
	}

	return Action{Type: ActionSend, EmailNumber: next, Reason: fmt.Sprintf("email %d due", next)}
}
