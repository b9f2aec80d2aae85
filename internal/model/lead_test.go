package model

import (
	"testing"
	"time"
)

func TestStageHalts(t *testing.T) {
	cases := []struct {
		stage Stage
		halts bool
	}{
		{StageNew, false},
		{StageContacted, false},
		{StageReplied, true},
		{StageQualified, true},
		{StageLost, true},
		{Stage("archived"), true}, // unknown stages never get sends
	}
	for _, tc := range cases {
		if got := tc.stage.Halts(); got != tc.halts {
			t.Errorf("Stage(%q).Halts() = %v, want %v", tc.stage, got, tc.halts)
		}
	}
}

func TestSendStatusCounts(t *testing.T) {
	if !StatusSent.Counts() || !StatusDryRun.Counts() {
		t.Error("sent and dry_run must advance the sequence")
	}
	if StatusFailed.Counts() || StatusPending.Counts() {
		t.Error("failed and pending must not advance the sequence")
	}
}

func TestParseHistory_MalformedIsEmpty(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"email_number":1}`, `[{"email_number":`} {
		if got := ParseHistory(raw); got != nil {
			t.Errorf("ParseHistory(%q) = %v, want nil", raw, got)
		}
	}
}

func TestParseHistory_PreservesOrder(t *testing.T) {
	raw := `[{"email_number":1,"status":"sent","sent_at":"2026-08-01T10:00:00Z"},` +
		`{"email_number":2,"status":"failed","sent_at":"2026-08-04T10:00:00Z"}]`
	entries := ParseHistory(raw)
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].EmailNumber != 1 || entries[1].EmailNumber != 2 {
		t.Errorf("order not preserved: %+v", entries)
	}
	if entries[1].Status != StatusFailed {
		t.Errorf("status = %q", entries[1].Status)
	}
}

func TestLastSendAt(t *testing.T) {
	if !LastSendAt(nil).IsZero() {
		t.Error("no history should give the zero time")
	}

	older := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 4, 10, 0, 0, 0, time.UTC)
	history := []HistoryEntry{
		{EmailNumber: 2, SentAt: newer, Status: StatusFailed},
		{EmailNumber: 1, SentAt: older, Status: StatusSent},
	}
	if got := LastSendAt(history); !got.Equal(newer) {
		t.Errorf("LastSendAt = %v, want %v (failed attempts count for pacing)", got, newer)
	}
}

func TestSequenceConfigRequiredWait(t *testing.T) {
	cfg := SequenceConfig{
		DaysAfterPrior:  map[int]int{1: 0, 2: 3, 3: 7},
		DefaultWaitDays: 3,
	}
	if got := cfg.RequiredWait(2); got != 3*24*time.Hour {
		t.Errorf("RequiredWait(2) = %v", got)
	}
	if got := cfg.RequiredWait(9); got != 3*24*time.Hour {
		t.Errorf("unknown email number should use the default wait, got %v", got)
	}
}
