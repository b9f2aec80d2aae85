package outreach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vantix/leads-engine/internal/model"
)

// Sender delivers email through a Resend-style transactional API
type Sender struct {
	httpClient *http.Client
	cfg        model.EmailConfig
	log        *logrus.Entry
	now        func() time.Time
}

// NewSender creates an email sender
func NewSender(cfg model.EmailConfig, timeout time.Duration, log *logrus.Logger) *Sender {
	return &Sender{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		log:        log.WithField("component", "emailer"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type sendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Send delivers one email and returns the provider delivery id. When
// the provider rejects the configured sender domain it retries once
// from the fallback sender.
func (s *Sender) Send(ctx context.Context, to, subject, html string) (string, error) {
	id, status, body, err := s.post(ctx, s.cfg.From, to, subject, html)
	if err != nil {
		return "", err
	}

	if status == http.StatusForbidden && strings.Contains(strings.ToLower(body), "domain") {
		s.log.Warnf("Domain not verified, falling back to %s", s.cfg.FromFallback)
		id, status, body, err = s.post(ctx, s.cfg.FromFallback, to, subject, html)
		if err != nil {
			return "", err
		}
	}

	if status < 200 || status >= 300 {
		return "", fmt.Errorf("email provider returned %d: %s", status, body)
	}

	s.log.Infof("Email sent to %s: %s", to, id)
	return id, nil
}

func (s *Sender) post(ctx context.Context, from, to, subject, html string) (id string, status int, body string, err error) {
	raw, err := json.Marshal(sendPayload{
		From:    from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return "", 0, "", fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/emails", bytes.NewReader(raw))
	if err != nil {
		return "", 0, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", 0, "", fmt.Errorf("send email: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", resp.StatusCode, "", fmt.Errorf("read response: %w", err)
	}

	var decoded sendResponse
	_ = json.Unmarshal(respBody, &decoded)
	return decoded.ID, resp.StatusCode, string(respBody), nil
}

// SendSequenceEmail renders and sends the given sequence email for a
// lead, returning the history entry to append. A failed delivery
// produces an entry with status failed rather than an error: the
// scheduler re-offers the number on the next run.
func (s *Sender) SendSequenceEmail(ctx context.Context, templates *Templates, lead *model.Lead, emailNumber int, dryRun bool) model.HistoryEntry {
	msg := templates.Render(lead, emailNumber)

	entry := model.HistoryEntry{
		EmailNumber: emailNumber,
		Subject:     msg.Subject,
		SentAt:      s.now(),
	}

	if dryRun {
		s.log.Infof("[DRY RUN] Would send to %s: %s", lead.Email, msg.Subject)
		entry.Status = model.StatusDryRun
		entry.DeliveryID = "dry_run"
		return entry
	}

	id, err := s.Send(ctx, lead.Email, msg.Subject, ToHTML(msg.Body))
	if err != nil {
		s.log.Errorf("Failed to send email to %s: %v", lead.Email, err)
		entry.Status = model.StatusFailed
		return entry
	}

	entry.Status = model.StatusSent
	entry.DeliveryID = id
	return entry
}
