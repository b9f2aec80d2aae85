package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// RenderHunt formats a hunt summary for the console
func RenderHunt(s *HuntSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "--- Hunt %s complete (%s) ---\n", s.RunID, s.Duration)
	fmt.Fprintf(&b, "Sourced:    %d\n", s.Sourced)
	fmt.Fprintf(&b, "With email: %d\n", s.WithEmail)
	fmt.Fprintf(&b, "Created:    %d\n", s.Created)
	fmt.Fprintf(&b, "Updated:    %d\n", s.Updated)

	if len(s.Top) == 0 {
		return b.String()
	}

	b.WriteString("\nTop leads:\n")
	for i, lead := range s.Top {
		location := lead.City
		if lead.State != "" {
			location += ", " + lead.State
		}
		fmt.Fprintf(&b, "%2d. [%2d/10] %-30s %-20s %s\n",
			i+1, lead.Score, clip(lead.CompanyName, 30), clip(location, 20), lead.Email)
	}

	for _, draft := range s.Drafts {
		fmt.Fprintf(&b, "\nDraft opener for %s <%s>\nSubject: %s\n\n%s\n", draft.Company, draft.Email, draft.Subject, draft.Body)
	}
	return b.String()
}

// WriteJSONReport writes the summary as an indented JSON file
func WriteJSONReport(path string, s *HuntSummary) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
