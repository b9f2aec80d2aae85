package cli

import "testing"

// A bare `leads-engine sequence` must never deliver email: live mode
// is strictly opt-in.
func TestSequenceDefaultsToDryRun(t *testing.T) {
	flag := sequenceCmd.Flags().Lookup("live")
	if flag == nil {
		t.Fatal("sequence command must expose a --live flag")
	}
	if flag.DefValue != "false" {
		t.Errorf("--live default = %q, want false", flag.DefValue)
	}
	if dryRun := !seqLive; !dryRun {
		t.Error("default run mode must be a dry run")
	}
}

func TestHuntCountFlag(t *testing.T) {
	flag := huntCmd.Flags().Lookup("count")
	if flag == nil {
		t.Fatal("hunt command must expose a --count flag")
	}
	if flag.DefValue != "0" {
		t.Errorf("--count default = %q, want 0 (leads per run from config)", flag.DefValue)
	}
}
