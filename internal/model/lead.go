package model

import (
	"encoding/json"
	"time"
)

// Lead represents a prospective business contact tracked through
// sourcing, scoring, and outreach. Email is the unique key; ID is
// assigned by the lead store.
type Lead struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email"`

	CompanyName   string `json:"company_name"`
	ContactName   string `json:"contact_name,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Website       string `json:"website,omitempty"`
	Industry      string `json:"industry,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	EmployeeCount int    `json:"employee_count,omitempty"`
	Title         string `json:"title,omitempty"`
	EmailStatus   string `json:"email_status,omitempty"` // provider-reported: "verified", "valid", ...
	Source        string `json:"source,omitempty"`

	Score        int      `json:"score"`
	Insight      string   `json:"ai_audit,omitempty"` // column name kept from the store schema
	ScoreReasons []string `json:"score_reasons,omitempty"`

	Stage Stage `json:"stage"`

	// EmailHistory and Activity are stored as serialized JSON arrays
	// inside the lead table. Both are append-only and order-preserving.
	EmailHistory string `json:"email_history,omitempty"`
	Activity     string `json:"activity,omitempty"`

	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
	LastContacted string `json:"last_contacted,omitempty"`
}

// Stage is a lead's outreach lifecycle phase
type Stage string

const (
	StageNew       Stage = "new"
	StageContacted Stage = "contacted"
	StageReplied   Stage = "replied" // set by the reply reconciler, pre-empts the scheduler
	StageQualified Stage = "qualified"
	StageLost      Stage = "lost"
)

// Halts reports whether a stage stops all further automated sends.
func (s Stage) Halts() bool {
	switch s {
	case StageReplied, StageQualified, StageLost:
		return true
	case StageNew, StageContacted:
		return false
	}
	// Unknown stages halt: never send to a lead we don't understand.
	return true
}

// Valid reports whether the stage is one of the known values.
func (s Stage) Valid() bool {
	switch s {
	case StageNew, StageContacted, StageReplied, StageQualified, StageLost:
		return true
	}
	return false
}

// SendStatus classifies a send attempt in the email history
type SendStatus string

const (
	StatusPending SendStatus = "pending"
	StatusSent    SendStatus = "sent"
	StatusDryRun  SendStatus = "dry_run"
	StatusFailed  SendStatus = "failed"
)

// Counts reports whether the status advances the sequence. A dry run
// counts the same as a real send so repeated dry runs don't loop on
// email 1.
func (s SendStatus) Counts() bool {
	switch s {
	case StatusSent, StatusDryRun:
		return true
	case StatusPending, StatusFailed:
		return false
	}
	return false
}

// HistoryEntry is one send attempt in a lead's email history
type HistoryEntry struct {
	EmailNumber int        `json:"email_number"`
	Subject     string     `json:"subject"`
	SentAt      time.Time  `json:"sent_at"`
	Status      SendStatus `json:"status"`
	DeliveryID  string     `json:"delivery_id,omitempty"`
}

// ActivityEntry is one timestamped event note on a lead's timeline
type ActivityEntry struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source,omitempty"`
}

// ParseHistory decodes the serialized email history. Malformed or
// empty input is treated as no history rather than an error.
func ParseHistory(raw string) []HistoryEntry {
	if raw == "" {
		return nil
	}
	var entries []HistoryEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}
	return entries
}

// ParseActivity decodes the serialized activity timeline with the
// same leniency as ParseHistory.
func ParseActivity(raw string) []ActivityEntry {
	if raw == "" {
		return nil
	}
	var entries []ActivityEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}
	return entries
}

// History is a convenience wrapper over ParseHistory.
func (l *Lead) History() []HistoryEntry {
	return ParseHistory(l.EmailHistory)
}

// ActivityLog is a convenience wrapper over ParseActivity.
func (l *Lead) ActivityLog() []ActivityEntry {
	return ParseActivity(l.Activity)
}

// LastSendAt returns the timestamp of the most recent history entry,
// regardless of status. The zero time means no history.
func LastSendAt(history []HistoryEntry) time.Time {
	var last time.Time
	for _, h := range history {
		if h.SentAt.After(last) {
			last = h.SentAt
		}
	}
	return last
}
