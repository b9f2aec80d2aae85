package outreach

import (
	"strings"
	"testing"

	"github.com/vantix/leads-engine/internal/model"
)

func testTemplates() *Templates {
	return NewTemplates(model.DefaultConfig().Email)
}

func sampleLead() *model.Lead {
	return &model.Lead{
		CompanyName: "Pete's Lawn Service",
		ContactName: "Pete Miller",
		Email:       "pete@example.com",
		City:        "Toms River",
		State:       "NJ",
		Industry:    "landscaping",
	}
}

func TestRender_SequencePositions(t *testing.T) {
	tpl := testTemplates()
	lead := sampleLead()

	one := tpl.Render(lead, 1)
	two := tpl.Render(lead, 2)
	three := tpl.Render(lead, 3)

	if !strings.Contains(one.Subject, "Pete's Lawn Service") {
		t.Errorf("Email 1 subject should name the company: %s", one.Subject)
	}
	if !strings.HasPrefix(two.Subject, "re: ") {
		t.Errorf("Email 2 subject should read as a reply: %s", two.Subject)
	}
	if three.Subject != "closing the loop" {
		t.Errorf("Unexpected email 3 subject: %s", three.Subject)
	}

	// Urgency escalates, verbosity decreases
	if len(two.Body) >= len(one.Body) {
		t.Errorf("Email 2 (%d chars) should be shorter than email 1 (%d chars)", len(two.Body), len(one.Body))
	}
	if len(three.Body) >= len(two.Body) {
		t.Errorf("Email 3 (%d chars) should be shorter than email 2 (%d chars)", len(three.Body), len(two.Body))
	}
}

func TestRender_UnknownNumberFallsBackToOpener(t *testing.T) {
	tpl := testTemplates()
	lead := sampleLead()

	expected := tpl.Render(lead, 1)
	for _, n := range []int{0, -1, 99} {
		got := tpl.Render(lead, n)
		if got.Subject != expected.Subject || got.Body != expected.Body {
			t.Errorf("Email number %d should fall back to template 1", n)
		}
	}
}

func TestRender_Deterministic(t *testing.T) {
	tpl := testTemplates()
	lead := sampleLead()

	a := tpl.Render(lead, 1)
	b := tpl.Render(lead, 1)
	if a != b {
		t.Error("Render must be deterministic for identical inputs")
	}
}

func TestRender_InsightOpenerFirstSentenceOnly(t *testing.T) {
	tpl := testTemplates()
	lead := sampleLead()
	lead.Insight = "Pete's Lawn Service currently lacks a strong online presence. A modern website could change that."

	msg := tpl.Render(lead, 1)
	if !strings.Contains(msg.Body, "currently lacks a strong online presence.") {
		t.Errorf("Expected insight opener in email 1 body")
	}
	if strings.Contains(msg.Body, "A modern website could change that") {
		t.Error("Opener must be truncated to the first sentence")
	}

	// Later emails ignore the insight
	msg2 := tpl.Render(lead, 2)
	if strings.Contains(msg2.Body, "lacks a strong online presence") {
		t.Error("Insight opener belongs to email 1 only")
	}
}

func TestFirstName_PlaceholderNormalization(t *testing.T) {
	cases := map[string]string{
		"Pete Miller":   "Pete",
		"Owner":         "there",
		"manager smith": "there",
		"Unknown":       "there",
		"":              "there",
	}
	for in, want := range cases {
		if got := firstName(in); got != want {
			t.Errorf("firstName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLocationPhrase(t *testing.T) {
	lead := &model.Lead{City: "Tampa", State: "FL"}
	if got := locationPhrase(lead); got != "Tampa, FL" {
		t.Errorf("Expected 'Tampa, FL', got %q", got)
	}
	if got := locationPhrase(&model.Lead{City: "Tampa"}); got != "Tampa" {
		t.Errorf("Expected 'Tampa', got %q", got)
	}
	if got := locationPhrase(&model.Lead{}); got != "" {
		t.Errorf("Expected empty phrase, got %q", got)
	}
}

func TestToHTML_ParagraphsOnly(t *testing.T) {
	html := ToHTML("Hi there,\n\nShort note.\n")
	if !strings.Contains(html, "<p style=") || !strings.Contains(html, "<br>") {
		t.Errorf("Unexpected HTML: %s", html)
	}
	for _, forbidden := range []string{"<a ", "<strong>", "<ul>", "<img"} {
		if strings.Contains(html, forbidden) {
			t.Errorf("Body must stay plain; found %s", forbidden)
		}
	}
}
