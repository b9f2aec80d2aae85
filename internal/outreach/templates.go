// Package outreach renders the 3-step cold email sequence and sends it
// through the transactional email provider.
//
// The copy follows cold-email practice: plain text, under 125 words,
// one call to action, sent from a named person. Each email in the
// sequence is shorter and more direct than the one before it.
package outreach

import (
	"fmt"
	"strings"

	"github.com/vantix/leads-engine/internal/model"
)

// Message is a rendered outreach email
type Message struct {
	Subject string
	Body    string
}

// Templates renders sequence emails personalized per lead
type Templates struct {
	email model.EmailConfig
}

// NewTemplates creates a template selector with the given sender identity
func NewTemplates(email model.EmailConfig) *Templates {
	return &Templates{email: email}
}

// Render returns the subject and plain-text body for the given
// position in the sequence. Deterministic given its inputs; an unknown
// email number falls back to template 1.
func (t *Templates) Render(lead *model.Lead, emailNumber int) Message {
	switch emailNumber {
	case 2:
		return t.valueAdd(lead)
	case 3:
		return t.breakup(lead)
	default:
		return t.opener(lead)
	}
}

// opener is email 1, sent day 0. Problem-agitate-solve shape with a
// personalized first line.
func (t *Templates) opener(lead *model.Lead) Message {
	name := firstName(lead.ContactName)
	company := companyOr(lead, "your business")
	industry := industryOr(lead, "business")
	location := locationPhrase(lead)

	opener := openerLine(lead, company, industry)

	area := location
	if area == "" {
		area = "your area"
	}

	body := fmt.Sprintf(`Hi %s,

%s

Right now, when someone in %s searches Google for a %s near them, they're finding your competitors instead of you. That's real money walking out the door every week.

We just built a full online system for a retail store in Tampa — took 3 weeks, and they're already picking up customers they were invisible to before.

Would it make sense to do a quick 10-minute call so I can show you what we'd do for %s? No pitch, just an honest look at what you're missing.

%s
%s | %s | %s`,
		name, opener, area, industry, company,
		t.email.SenderName, t.email.CompanyName, t.email.SenderPhone, t.email.CompanySite)

	return Message{
		Subject: fmt.Sprintf("%s — quick thought", company),
		Body:    body,
	}
}

// valueAdd is email 2, sent after 3 days. Shorter; references email 1.
func (t *Templates) valueAdd(lead *model.Lead) Message {
	name := firstName(lead.ContactName)
	company := companyOr(lead, "your business")

	body := fmt.Sprintf(`Hi %s,

Wanted to follow up on my last email — I know you're busy running %s, so I'll keep this short.

I ran a quick check on how %s shows up online right now:

- No website means Google can't send you customers
- Your competitors with websites are ranking above you in local search
- You're relying 100%% on word of mouth, which caps your growth

We fix this in about 3 weeks — website, online booking, Google visibility, the works. Our clients see results in the first month.

Worth a 10-minute conversation?

%s
%s | %s`,
		name, company, company,
		t.email.SenderFirst, t.email.SenderPhone, t.email.CompanySite)

	return Message{
		Subject: fmt.Sprintf("re: %s — quick thought", company),
		Body:    body,
	}
}

// breakup is email 3, sent after 7 days. Shortest; closes the loop.
func (t *Templates) breakup(lead *model.Lead) Message {
	name := firstName(lead.ContactName)
	company := companyOr(lead, "your business")

	body := fmt.Sprintf(`Hi %s,

I've reached out a couple times about helping %s get found online — I don't want to be a pest, so this will be my last email.

If getting more customers through Google and having a professional online presence is something you'd want to explore, I'm here. Just reply to this email or call me at %s.

Either way, wishing you the best with %s.

%s
%s | %s`,
		name, company, t.email.SenderPhone, company,
		t.email.SenderFirst, t.email.SenderPhone, t.email.CompanySite)

	return Message{
		Subject: "closing the loop",
		Body:    body,
	}
}

// openerLine picks the most personal first line available: the scoring
// insight's first sentence, then the location, then a generic fallback.
func openerLine(lead *model.Lead, company, industry string) string {
	if lead.Insight != "" {
		return firstSentence(lead.Insight)
	}
	if lead.City != "" {
		return fmt.Sprintf("I was looking at %s businesses in %s and came across %s.", industry, lead.City, company)
	}
	return fmt.Sprintf("I came across %s and had a quick thought.", company)
}

// firstName extracts a usable first name. Placeholder-like names
// ("owner", "manager", "unknown") collapse to a generic greeting.
func firstName(contactName string) string {
	fields := strings.Fields(contactName)
	if len(fields) == 0 {
		return "there"
	}
	first := fields[0]
	switch strings.ToLower(first) {
	case "owner", "manager", "unknown", "":
		return "there"
	}
	return first
}

// locationPhrase composes "City, ST" from whatever parts exist
func locationPhrase(lead *model.Lead) string {
	switch {
	case lead.City != "" && lead.State != "":
		return lead.City + ", " + lead.State
	case lead.City != "":
		return lead.City
	default:
		return lead.State
	}
}

// firstSentence truncates text to its first sentence
func firstSentence(text string) string {
	if idx := strings.Index(text, "."); idx >= 0 {
		return text[:idx+1]
	}
	return text
}

func companyOr(lead *model.Lead, fallback string) string {
	if lead.CompanyName != "" {
		return lead.CompanyName
	}
	return fallback
}

func industryOr(lead *model.Lead, fallback string) string {
	if lead.Industry != "" {
		return lead.Industry
	}
	return fallback
}

// ToHTML converts a plain-text body to minimal HTML. Just paragraph
// tags and line breaks, so it reads like an email a person typed.
func ToHTML(body string) string {
	lines := strings.Split(strings.TrimSpace(body), "\n")
	out := make([]string, 0, len(lines)+1)
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			out = append(out, "<br>")
			continue
		}
		out = append(out, fmt.Sprintf("<p style='margin:0 0 2px 0;color:#1a1a1a;font-family:Arial,sans-serif;font-size:14px;line-height:1.5;'>%s</p>", line))
	}
	return "<div style='max-width:600px;'>" + strings.Join(out, "\n") + "</div>"
}
