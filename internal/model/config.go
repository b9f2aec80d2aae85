package model

import "time"

// Config holds all leads-engine configuration. Components receive the
// sections they need at construction; nothing reads ambient globals.
type Config struct {
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	ICP      ICPConfig      `yaml:"icp" mapstructure:"icp"`
	Scoring  ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
	Sequence SequenceConfig `yaml:"sequence" mapstructure:"sequence"`
	Email    EmailConfig    `yaml:"email" mapstructure:"email"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Inbox    InboxConfig    `yaml:"inbox" mapstructure:"inbox"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// SearchConfig configures the web search provider used for sourcing
type SearchConfig struct {
	BaseURL           string   `yaml:"base_url" mapstructure:"base_url"`
	APIKey            string   `yaml:"api_key" mapstructure:"api_key"`
	RequestsPerSecond float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	LeadsPerRun       int      `yaml:"leads_per_run" mapstructure:"leads_per_run"`
	Cities            []string `yaml:"cities" mapstructure:"cities"`
	Niches            []string `yaml:"niches" mapstructure:"niches"`
}

// ICPConfig describes the ideal customer profile
type ICPConfig struct {
	TargetIndustries []string `yaml:"target_industries" mapstructure:"target_industries"`
	OwnerTitles      []string `yaml:"owner_titles" mapstructure:"owner_titles"`
	DirectorTitles   []string `yaml:"director_titles" mapstructure:"director_titles"`
	EmployeeMin      int      `yaml:"employee_min" mapstructure:"employee_min"`
	EmployeeMax      int      `yaml:"employee_max" mapstructure:"employee_max"`
}

// ScoringConfig holds the additive scoring weights. Score starts at
// Base and is clamped to [1,10] after all adjustments.
type ScoringConfig struct {
	Base          int           `yaml:"base" mapstructure:"base"`
	NoWebsite     int           `yaml:"no_website" mapstructure:"no_website"` // negative: a missing site is an easy sell
	SweetSpot     int           `yaml:"sweet_spot" mapstructure:"sweet_spot"`
	TitleOwner    int           `yaml:"title_owner" mapstructure:"title_owner"`
	TitleDirector int           `yaml:"title_director" mapstructure:"title_director"`
	EmailVerified int           `yaml:"email_verified" mapstructure:"email_verified"`
	IndustryFit   int           `yaml:"industry_fit" mapstructure:"industry_fit"`
	SlowSiteBonus int           `yaml:"slow_site_bonus" mapstructure:"slow_site_bonus"`
	SlowLoadSecs  float64       `yaml:"slow_load_secs" mapstructure:"slow_load_secs"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`
}

// SequenceConfig configures the timed outreach cascade
type SequenceConfig struct {
	MaxEmails       int           `yaml:"max_emails" mapstructure:"max_emails"`
	MaxPerDay       int           `yaml:"max_per_day" mapstructure:"max_per_day"`
	DelayBetween    time.Duration `yaml:"delay_between" mapstructure:"delay_between"`
	DaysAfterPrior  map[int]int   `yaml:"days_after_prior" mapstructure:"days_after_prior"`
	DefaultWaitDays int           `yaml:"default_wait_days" mapstructure:"default_wait_days"`
}

// RequiredWait returns the minimum elapsed time before the given
// email number can follow the most recent prior send.
func (c SequenceConfig) RequiredWait(emailNumber int) time.Duration {
	days, ok := c.DaysAfterPrior[emailNumber]
	if !ok {
		days = c.DefaultWaitDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// EmailConfig configures the transactional email provider
type EmailConfig struct {
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	APIKey       string `yaml:"api_key" mapstructure:"api_key"`
	From         string `yaml:"from" mapstructure:"from"`
	FromFallback string `yaml:"from_fallback" mapstructure:"from_fallback"`
	SenderName   string `yaml:"sender_name" mapstructure:"sender_name"`
	SenderFirst  string `yaml:"sender_first" mapstructure:"sender_first"`
	SenderPhone  string `yaml:"sender_phone" mapstructure:"sender_phone"`
	CompanyName  string `yaml:"company_name" mapstructure:"company_name"`
	CompanySite  string `yaml:"company_site" mapstructure:"company_site"`
	BookingURL   string `yaml:"booking_url" mapstructure:"booking_url"`
}

// StoreConfig configures the remote lead store (PostgREST row API)
type StoreConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey  string        `yaml:"api_key" mapstructure:"api_key"`
	Table   string        `yaml:"table" mapstructure:"table"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// InboxConfig configures IMAP access for reply detection
type InboxConfig struct {
	Server   string `yaml:"server" mapstructure:"server"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Address  string `yaml:"address" mapstructure:"address"`
	Password string `yaml:"password" mapstructure:"password"`
	Folder   string `yaml:"folder" mapstructure:"folder"`
}

// HTTPConfig holds shared HTTP client settings
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent string        `yaml:"user_agent" mapstructure:"user_agent"`
}

// LLMConfig configures optional insight refinement. Disabled unless a
// provider is set; never affects the numeric score.
type LLMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
	Model    string `yaml:"model" mapstructure:"model"`
	APIKey   string `yaml:"-" mapstructure:"-"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
}

// OutputConfig holds output and logging settings
type OutputConfig struct {
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
	LogFile string `yaml:"log_file" mapstructure:"log_file"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			BaseURL:           "https://api.search.brave.com/res/v1/web/search",
			RequestsPerSecond: 0.9, // free tier allows ~1 req/s; stay just under
			LeadsPerRun:       50,
			Cities: []string{
				"Tampa FL", "Orlando FL", "Miami FL", "Jacksonville FL",
				"Newark NJ", "Jersey City NJ", "Trenton NJ", "Edison NJ",
				"Austin TX", "Dallas TX", "Houston TX", "San Antonio TX",
				"Charlotte NC", "Raleigh NC", "Nashville TN", "Atlanta GA",
				"Phoenix AZ", "Denver CO", "Portland OR", "Seattle WA",
				"Chicago IL", "Detroit MI", "Columbus OH", "Indianapolis IN",
				"Los Angeles CA", "San Diego CA", "Sacramento CA",
				"Boston MA", "Philadelphia PA", "Pittsburgh PA",
				"Las Vegas NV", "Salt Lake City UT", "Minneapolis MN",
			},
			Niches: []string{
				"restaurant", "dental office", "law firm", "auto repair",
				"fitness gym", "real estate agency", "landscaping company",
				"construction company", "medical practice", "retail store",
				"barbershop", "salon", "plumber", "electrician",
				"cleaning service", "roofing company", "accounting firm",
				"pet grooming", "daycare", "chiropractor",
			},
		},
		ICP: ICPConfig{
			TargetIndustries: []string{
				"restaurants", "retail", "real estate", "medical", "dental",
				"law firms", "fitness", "e-commerce", "agencies", "construction",
				"auto dealers",
			},
			OwnerTitles:    []string{"owner", "ceo", "founder", "president", "co-founder", "co-owner"},
			DirectorTitles: []string{"director", "general manager", "director of operations", "vp", "vice president"},
			EmployeeMin:    5,
			EmployeeMax:    50,
		},
		Scoring: ScoringConfig{
			Base:          5,
			NoWebsite:     -3,
			SweetSpot:     2,
			TitleOwner:    2,
			TitleDirector: 1,
			EmailVerified: 1,
			IndustryFit:   1,
			SlowSiteBonus: 1,
			SlowLoadSecs:  3.0,
			ProbeTimeout:  8 * time.Second,
		},
		Sequence: SequenceConfig{
			MaxEmails:       3,
			MaxPerDay:       30,
			DelayBetween:    60 * time.Second,
			DaysAfterPrior:  map[int]int{1: 0, 2: 3, 3: 7},
			DefaultWaitDays: 3,
		},
		Email: EmailConfig{
			BaseURL:      "https://api.resend.com",
			From:         "Aidan from Vantix <hello@usevantix.com>",
			FromFallback: "onboarding@resend.dev",
			SenderName:   "Aidan Fromm",
			SenderFirst:  "Aidan",
			SenderPhone:  "914-555-0140",
			CompanyName:  "Vantix",
			CompanySite:  "usevantix.com",
			BookingURL:   "https://cal.com/vantix/ai-consultation",
		},
		Store: StoreConfig{
			Table:   "leads",
			Timeout: 15 * time.Second,
		},
		Inbox: InboxConfig{
			Server: "imap.gmail.com",
			Port:   993,
			Folder: "INBOX",
		},
		HTTP: HTTPConfig{
			Timeout:   15 * time.Second,
			UserAgent: "Mozilla/5.0 (compatible; leads-engine/0.1)",
		},
		LLM: LLMConfig{
			Model: "gpt-4o-mini",
		},
		Output: OutputConfig{
			LogFile: "leads-engine.log",
		},
	}
}
