package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vantix/leads-engine/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "leads-engine",
	Short: "Leads Engine - small business lead generation and outreach",
	Long: `Leads Engine finds small businesses with weak digital presence,
scores them against an ideal customer profile, and works them through
a timed cold outreach sequence.

The pipeline has three entry points:
  hunt      source, score, and store new leads
  sequence  send whichever follow-up emails are due
  inbox     match replies to leads and stop their sequence`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("leads-engine v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.leads-engine/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.leads-engine")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match VANTIX_*
	viper.SetEnvPrefix("VANTIX")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig builds the effective configuration: defaults, overlaid by
// the config file, overlaid by credential environment variables.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if viper.ConfigFileUsed() != "" {
		if err := viper.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose

	// Credentials come from the environment, never the config file
	if v := os.Getenv("BRAVE_API_KEY"); v != "" {
		cfg.Search.APIKey = v
	}
	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		cfg.Email.APIKey = v
	}
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		cfg.Store.BaseURL = v
	}
	if v := os.Getenv("SUPABASE_KEY"); v != "" {
		cfg.Store.APIKey = v
	}
	if v := os.Getenv("IMAP_ADDRESS"); v != "" {
		cfg.Inbox.Address = v
	}
	if v := os.Getenv("IMAP_PASSWORD"); v != "" {
		cfg.Inbox.Password = v
	}

	return cfg, nil
}

// newLogger builds the run logger: stderr always, plus the log file
// when one is configured.
func newLogger(out model.OutputConfig) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if out.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if out.LogFile != "" {
		f, err := os.OpenFile(out.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Warnf("Could not open log file %s: %v", out.LogFile, err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stderr, f))
		}
	}
	return log
}
