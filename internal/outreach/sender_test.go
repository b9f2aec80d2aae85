package outreach

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vantix/leads-engine/internal/model"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestSender(serverURL string) *Sender {
	cfg := model.DefaultConfig().Email
	cfg.BaseURL = serverURL
	cfg.APIKey = "test-key"
	cfg.From = "Aidan from Vantix <hello@usevantix.com>"
	cfg.FromFallback = "onboarding@resend.dev"
	return NewSender(cfg, 5*time.Second, testLogger())
}

func TestSend_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("Expected bearer auth")
		}
		var payload map[string]any
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		if payload["from"] != "Aidan from Vantix <hello@usevantix.com>" {
			t.Errorf("Unexpected from: %v", payload["from"])
		}
		_, _ = fmt.Fprint(w, `{"id":"msg_123"}`)
	}))
	defer server.Close()

	sender := newTestSender(server.URL)
	id, err := sender.Send(context.Background(), "to@example.com", "subject", "<p>hi</p>")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if id != "msg_123" {
		t.Errorf("Expected delivery id msg_123, got %s", id)
	}
}

func TestSend_UnverifiedDomainFallsBack(t *testing.T) {
	var froms []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		from, _ := payload["from"].(string)
		froms = append(froms, from)

		if len(froms) == 1 {
			w.WriteHeader(http.StatusForbidden)
			_, _ = fmt.Fprint(w, `{"message":"domain is not verified"}`)
			return
		}
		_, _ = fmt.Fprint(w, `{"id":"msg_456"}`)
	}))
	defer server.Close()

	sender := newTestSender(server.URL)
	id, err := sender.Send(context.Background(), "to@example.com", "subject", "<p>hi</p>")
	if err != nil {
		t.Fatalf("Expected fallback to succeed, got %v", err)
	}
	if id != "msg_456" {
		t.Errorf("Expected fallback delivery id, got %s", id)
	}
	if len(froms) != 2 || froms[1] != "onboarding@resend.dev" {
		t.Errorf("Expected one retry from the fallback sender, got %v", froms)
	}
}

func TestSendSequenceEmail_DryRun(t *testing.T) {
	// No server: a dry run must not touch the network
	sender := newTestSender("http://127.0.0.1:1")
	tpl := testTemplates()
	lead := sampleLead()

	entry := sender.SendSequenceEmail(context.Background(), tpl, lead, 1, true)
	if entry.Status != model.StatusDryRun {
		t.Errorf("Expected dry_run status, got %s", entry.Status)
	}
	if entry.DeliveryID != "dry_run" {
		t.Errorf("Expected dry_run marker id, got %s", entry.DeliveryID)
	}
	if entry.EmailNumber != 1 || entry.Subject == "" {
		t.Errorf("Unexpected entry: %+v", entry)
	}
}

func TestSendSequenceEmail_FailureRecorded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	sender := newTestSender(server.URL)
	entry := sender.SendSequenceEmail(context.Background(), testTemplates(), sampleLead(), 2, false)

	if entry.Status != model.StatusFailed {
		t.Errorf("Expected failed status, got %s", entry.Status)
	}
	if entry.DeliveryID != "" {
		t.Errorf("Expected empty delivery id on failure, got %s", entry.DeliveryID)
	}
}
