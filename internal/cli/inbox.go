package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vantix/leads-engine/internal/inbox"
	"github.com/vantix/leads-engine/internal/store"
)

var (
	inboxReportDir string
	inboxTimeout   time.Duration
)

// inboxCmd represents the inbox command
var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Match replies to leads and stop their sequence",
	Long: `Inbox reads unseen messages from the configured mailbox and matches
each sender against the lead store. Matched leads move to the replied
stage and receive no further automated emails; their message is marked
read. Unmatched messages are left unread.

Example:
  leads-engine inbox
  leads-engine inbox --report-dir ./reports`,
	RunE: runInbox,
}

func init() {
	rootCmd.AddCommand(inboxCmd)

	inboxCmd.Flags().StringVar(&inboxReportDir, "report-dir", ".", "directory for the dated report file")
	inboxCmd.Flags().DurationVar(&inboxTimeout, "timeout", 5*time.Minute, "overall run timeout")
}

func runInbox(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Inbox.Address == "" || cfg.Inbox.Password == "" {
		return fmt.Errorf("IMAP_ADDRESS and IMAP_PASSWORD environment variables not set")
	}

	log := newLogger(cfg.Output)
	ctx, cancel := context.WithTimeout(context.Background(), inboxTimeout)
	defer cancel()

	mailbox, err := inbox.DialIMAP(cfg.Inbox)
	if err != nil {
		return fmt.Errorf("connect to mailbox: %w", err)
	}
	defer func() { _ = mailbox.Close() }()

	leadStore := store.NewClient(cfg.Store, nil, log)
	reconciler := inbox.NewReconciler(leadStore, mailbox, log)

	report, err := reconciler.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("inbox check failed: %w", err)
	}

	rendered := report.Render()
	fmt.Println(rendered)

	path := fmt.Sprintf("%s/inbox-%s.txt", inboxReportDir, report.Date)
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Report written to %s\n", path)
	return nil
}
