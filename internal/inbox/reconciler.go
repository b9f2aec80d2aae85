package inbox

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vantix/leads-engine/internal/model"
)

// LeadStore is the slice of the store the reconciler needs
type LeadStore interface {
	GetLeadByEmail(ctx context.Context, email string) (*model.Lead, error)
	UpdateLead(ctx context.Context, leadID string, updates map[string]any) error
	AppendActivity(ctx context.Context, lead *model.Lead, existing []model.ActivityEntry, event string) error
}

// Reconciler matches unread inbox messages to known leads and advances
// their stage. A reply pre-empts the scheduler: a replied lead never
// receives further automated sends.
type Reconciler struct {
	store   LeadStore
	mailbox Mailbox
	log     *logrus.Entry
	now     func() time.Time
}

// NewReconciler creates a reply reconciler
func NewReconciler(store LeadStore, mailbox Mailbox, log *logrus.Logger) *Reconciler {
	return &Reconciler{
		store:   store,
		mailbox: mailbox,
		log:     log.WithField("component", "inbox"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Report summarizes one reconciliation run
type Report struct {
	RunID     string
	Date      string
	Checked   int
	Matched   int
	Unmatched int
	Lines     []string
}

// Render formats the report for the operator
func (r *Report) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- Inbox Monitor Report (%s, run %s) ---\n", r.Date, r.RunID)
	fmt.Fprintf(&b, "Found %d new unseen messages.\n\n", r.Checked)
	if r.Checked == 0 {
		b.WriteString("No new lead replies found.\n")
		return b.String()
	}
	for _, line := range r.Lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nMatched: %d, unmatched: %d\n", r.Matched, r.Unmatched)
	return b.String()
}

// Reconcile processes every unread message. Matched messages update
// the lead and are marked read; unmatched messages are left unread so
// nothing is silently consumed.
func (r *Reconciler) Reconcile(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID: uuid.NewString()[:8],
		Date:  r.now().Format("2006-01-02"),
	}

	messages, err := r.mailbox.Unread()
	if err != nil {
		return nil, fmt.Errorf("fetch unread messages: %w", err)
	}
	report.Checked = len(messages)
	r.log.Infof("Inbox run %s: %d unseen messages", report.RunID, len(messages))

	for _, msg := range messages {
		line, matched, err := r.processMessage(ctx, msg)
		if err != nil {
			// Transient per-message failure: log, keep the message
			// unread, continue the run.
			r.log.Errorf("Process message from %q: %v", msg.From, err)
			report.Lines = append(report.Lines, fmt.Sprintf("ERROR processing %q: %v", msg.From, err))
			continue
		}
		report.Lines = append(report.Lines, line)
		if matched {
			report.Matched++
		} else {
			report.Unmatched++
		}
	}

	return report, nil
}

func (r *Reconciler) processMessage(ctx context.Context, msg Message) (string, bool, error) {
	sender := ExtractSender(msg.From)
	if sender == "" {
		r.log.Warnf("Could not extract sender from %q", msg.From)
		return fmt.Sprintf("Could not extract sender address from %q", msg.From), false, nil
	}

	// Exact-match lookup: the store's equality filter is case
	// sensitive, so alias and case variants will not match.
	lead, err := r.store.GetLeadByEmail(ctx, sender)
	if err != nil {
		return "", false, fmt.Errorf("lookup %s: %w", sender, err)
	}
	if lead == nil {
		r.log.Infof("No matching lead for %s", sender)
		return fmt.Sprintf("No matching lead for %s — left unread", sender), false, nil
	}

	if err := r.store.UpdateLead(ctx, lead.ID, map[string]any{"stage": string(model.StageReplied)}); err != nil {
		return "", false, fmt.Errorf("advance stage for %s: %w", sender, err)
	}

	event := fmt.Sprintf("Received reply from lead: %q", msg.Subject)
	if err := r.store.AppendActivity(ctx, lead, lead.ActivityLog(), event); err != nil {
		return "", false, fmt.Errorf("record activity for %s: %w", sender, err)
	}

	if err := r.mailbox.MarkSeen(msg.SeqNum); err != nil {
		return "", false, fmt.Errorf("mark seen for %s: %w", sender, err)
	}

	r.log.Infof("Reply from %s (%s) — stage set to replied", lead.CompanyName, sender)
	return fmt.Sprintf("Reply from %s (%s) — subject %q — stage set to replied", lead.CompanyName, sender, msg.Subject), true, nil
}

var angleAddr = regexp.MustCompile(`<(.*?)>`)

// ExtractSender pulls the address out of a From header: the part
// inside angle brackets when present, otherwise the raw header.
func ExtractSender(fromHeader string) string {
	if m := angleAddr.FindStringSubmatch(fromHeader); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(fromHeader)
}
