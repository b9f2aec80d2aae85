package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vantix/leads-engine/internal/outreach"
	"github.com/vantix/leads-engine/internal/sequence"
	"github.com/vantix/leads-engine/internal/store"
)

var (
	seqLive    bool
	seqMax     int
	seqTimeout time.Duration
)

// sequenceCmd represents the sequence command
var sequenceCmd = &cobra.Command{
	Use:   "sequence",
	Short: "Send whichever follow-up emails are due",
	Long: `Sequence checks every lead in the new and contacted stages and sends
the next email in their three-step cadence if enough time has passed
since the last one. Leads that replied are never emailed again.

By default this is a dry run: emails are drafted and the sequence
advances, but nothing is delivered. Pass --live to actually send.

Run this once or twice a day; overlapping runs are not coordinated.

Example:
  leads-engine sequence
  leads-engine sequence --live --max 10`,
	RunE: runSequence,
}

func init() {
	rootCmd.AddCommand(sequenceCmd)

	sequenceCmd.Flags().BoolVar(&seqLive, "live", false, "actually deliver email (default drafts without sending)")
	sequenceCmd.Flags().IntVar(&seqMax, "max", 0, "max sends this run (default from config)")
	sequenceCmd.Flags().DurationVar(&seqTimeout, "timeout", 2*time.Hour, "overall run timeout (covers inter-send delays)")
}

func runSequence(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if seqLive && cfg.Email.APIKey == "" {
		return fmt.Errorf("RESEND_API_KEY environment variable not set")
	}
	if seqMax > 0 {
		cfg.Sequence.MaxPerDay = seqMax
	}

	log := newLogger(cfg.Output)
	ctx, cancel := context.WithTimeout(context.Background(), seqTimeout)
	defer cancel()

	leadStore := store.NewClient(cfg.Store, nil, log)
	sender := outreach.NewSender(cfg.Email, cfg.HTTP.Timeout, log)
	templates := outreach.NewTemplates(cfg.Email)

	runner := sequence.NewRunner(cfg.Sequence, leadStore, sender, templates, log)
	summary, err := runner.Run(ctx, !seqLive)
	if err != nil {
		return fmt.Errorf("sequence run failed: %w", err)
	}

	mode := "live"
	if summary.DryRun {
		mode = "dry run"
	}
	fmt.Printf("--- Sequence run %s (%s) ---\n", summary.RunID, mode)
	fmt.Printf("Sent:    %d\n", summary.Sent)
	fmt.Printf("Failed:  %d\n", summary.Failed)
	fmt.Printf("Waiting: %d\n", summary.Waiting)
	fmt.Printf("Skipped: %d\n", summary.Skipped)
	if summary.CapHit {
		fmt.Printf("Daily cap of %d reached; remaining leads deferred to the next run.\n", cfg.Sequence.MaxPerDay)
	}
	return nil
}
