package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vantix/leads-engine/internal/cache"
	"github.com/vantix/leads-engine/internal/llm"
	"github.com/vantix/leads-engine/internal/model"
	"github.com/vantix/leads-engine/internal/outreach"
	"github.com/vantix/leads-engine/internal/pipeline"
	"github.com/vantix/leads-engine/internal/score"
	"github.com/vantix/leads-engine/internal/source"
	"github.com/vantix/leads-engine/internal/store"
	"github.com/vantix/leads-engine/internal/worker"
)

var (
	huntCity    string
	huntNiche   string
	huntCount   int
	huntReport  string
	huntTimeout time.Duration
	llmEnabled  bool
	llmModel    string
)

// huntCmd represents the hunt command
var huntCmd = &cobra.Command{
	Use:   "hunt",
	Short: "Source, score, and store new leads",
	Long: `Hunt searches for small businesses whose only web presence is a
social page, enriches them with contact details, scores them 1-10
against the ideal customer profile, and syncs them to the lead store.

Example:
  leads-engine hunt
  leads-engine hunt --city "Tampa FL" --niche restaurant --count 25
  leads-engine hunt --llm --report hunt.json`,
	RunE: runHunt,
}

func init() {
	rootCmd.AddCommand(huntCmd)

	huntCmd.Flags().StringVar(&huntCity, "city", "", "limit the hunt to one city (e.g. \"Tampa FL\")")
	huntCmd.Flags().StringVar(&huntNiche, "niche", "", "limit the hunt to one niche (e.g. \"dental office\")")
	huntCmd.Flags().IntVar(&huntCount, "count", 0, "max leads to source (default from config)")
	huntCmd.Flags().StringVar(&huntReport, "report", "", "write a JSON report to this path")
	huntCmd.Flags().DurationVar(&huntTimeout, "timeout", 10*time.Minute, "overall hunt timeout")

	huntCmd.Flags().BoolVar(&llmEnabled, "llm", false, "refine lead insights with a language model")
	huntCmd.Flags().StringVar(&llmModel, "llm-model", "", "language model name (default from config)")
}

func runHunt(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Search.APIKey == "" {
		return fmt.Errorf("BRAVE_API_KEY environment variable not set")
	}

	refiner, err := buildRefiner(cfg)
	if err != nil {
		return err
	}

	log := newLogger(cfg.Output)
	ctx, cancel := context.WithTimeout(context.Background(), huntTimeout)
	defer cancel()

	// One in-memory cache serves both probe results and store lookups
	// for the duration of the run.
	runCache := cache.NewMemoryCache(10*time.Minute, 5*time.Minute)
	limiter := worker.NewLimiter(cfg.Search.RequestsPerSecond, 1)

	searcher := source.NewSearcher(cfg.Search, cfg.HTTP, limiter, log)
	probe := score.NewWebsiteProbe(cfg.Scoring.ProbeTimeout, cfg.HTTP.UserAgent, limiter, runCache)
	scorer := score.NewScorer(cfg.Scoring, cfg.ICP, probe, log)
	leadStore := store.NewClient(cfg.Store, runCache, log)
	templates := outreach.NewTemplates(cfg.Email)

	p := pipeline.New(searcher, scorer, leadStore, refiner, templates, log)
	summary, err := p.Hunt(ctx, pipeline.HuntOptions{
		City:    huntCity,
		Niche:   huntNiche,
		PerPage: huntCount,
	})
	if err != nil {
		return fmt.Errorf("hunt failed: %w", err)
	}

	fmt.Println(pipeline.RenderHunt(summary))

	if huntReport != "" {
		if err := pipeline.WriteJSONReport(huntReport, summary); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", huntReport)
	}
	return nil
}

func buildRefiner(cfg *model.Config) (llm.Provider, error) {
	if !llmEnabled {
		return nil, nil
	}

	cfg.LLM.Provider = "openai"
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	return llm.NewProvider(cfg.LLM)
}
