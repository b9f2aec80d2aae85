package store

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

	"github.com/vantix/leads-engine/internal/cache"
	"github.com/vantix/leads-engine/internal/model"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestClient(serverURL string, c cache.Cache) *Client {
	cfg := model.StoreConfig{
		BaseURL: serverURL,
		APIKey:  "test-key",
		Table:   "leads",
		Timeout: 5 * time.Second,
	}
	return NewClient(cfg, c, testLogger())
}

func TestGetLeadByEmail_Found(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("email") != "eq.jane@acme.com" {
			t.Errorf("Unexpected email filter: %s", r.URL.Query().Get("email"))
		}
		if r.Header.Get("apikey") != "test-key" {
			t.Error("Expected apikey header")
		}
		_, _ = fmt.Fprint(w, `[{"id":"42","email":"jane@acme.com","company_name":"Acme","stage":"contacted"}]`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	lead, err := client.GetLeadByEmail(context.Background(), "jane@acme.com")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if lead == nil || lead.ID != "42" || lead.Stage != model.StageContacted {
		t.Errorf("Unexpected lead: %+v", lead)
	}
}

func TestGetLeadByEmail_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	lead, err := client.GetLeadByEmail(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if lead != nil {
		t.Errorf("Expected nil for no match, got %+v", lead)
	}
}

func TestGetLeadByEmail_Cached(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = fmt.Fprint(w, `[{"id":"1","email":"jane@acme.com"}]`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, cache.NewMemoryCache(time.Minute, time.Minute))
	_, _ = client.GetLeadByEmail(context.Background(), "jane@acme.com")
	_, _ = client.GetLeadByEmail(context.Background(), "jane@acme.com")

	if hits != 1 {
		t.Errorf("Expected one store read for repeated lookups, got %d", hits)
	}
}

func TestUpsertLead_InsertSetsStageAndActivity(t *testing.T) {
	var inserted map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = fmt.Fprint(w, `[]`)
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &inserted)
			w.WriteHeader(http.StatusCreated)
			_, _ = fmt.Fprint(w, `[{"id":"7","email":"new@acme.com","stage":"new"}]`)
		default:
			t.Errorf("Unexpected method %s", r.Method)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	stored, isNew, err := client.UpsertLead(context.Background(), &model.Lead{
		Email:       "new@acme.com",
		CompanyName: "Acme",
		Score:       7,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !isNew {
		t.Error("Expected lead to be created")
	}
	if stored.ID != "7" {
		t.Errorf("Expected stored row back, got %+v", stored)
	}
	if inserted["stage"] != "new" {
		t.Errorf("Expected stage new on insert, got %v", inserted["stage"])
	}
	activity, _ := inserted["activity"].(string)
	entries := model.ParseActivity(activity)
	if len(entries) != 1 || entries[0].Event != "Lead created" {
		t.Errorf("Expected initial activity entry, got %q", activity)
	}
	if inserted["created_at"] == nil {
		t.Error("Expected created_at on insert")
	}
}

func TestUpsertLead_UpdateDoesNotTouchStage(t *testing.T) {
	var patched map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = fmt.Fprint(w, `[{"id":"9","email":"jane@acme.com","stage":"contacted"}]`)
		case http.MethodPatch:
			if r.URL.Query().Get("id") != "eq.9" {
				t.Errorf("Unexpected id filter: %s", r.URL.Query().Get("id"))
			}
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &patched)
			_, _ = fmt.Fprint(w, `[{"id":"9","email":"jane@acme.com","stage":"contacted"}]`)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	_, isNew, err := client.UpsertLead(context.Background(), &model.Lead{
		Email:       "jane@acme.com",
		CompanyName: "Acme Updated",
		Score:       9,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if isNew {
		t.Error("Expected update, not insert")
	}
	if _, ok := patched["stage"]; ok {
		t.Error("Update must not rewrite stage")
	}
	if patched["company_name"] != "Acme Updated" {
		t.Errorf("Expected profile refresh, got %v", patched["company_name"])
	}
}

func TestAppendHistory_PreservesOrder(t *testing.T) {
	var patched map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &patched)
		}
		_, _ = fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	lead := &model.Lead{ID: "3", Email: "x@acme.com"}
	existing := []model.HistoryEntry{
		{EmailNumber: 1, Status: model.StatusSent, SentAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
	}
	entry := model.HistoryEntry{EmailNumber: 2, Status: model.StatusSent, SentAt: time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)}

	if err := client.AppendHistory(context.Background(), lead, existing, entry); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	raw, _ := patched["email_history"].(string)
	entries := model.ParseHistory(raw)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(entries))
	}
	if entries[0].EmailNumber != 1 || entries[1].EmailNumber != 2 {
		t.Errorf("History order not preserved: %+v", entries)
	}
	if patched["last_contacted"] == nil {
		t.Error("Expected last_contacted to be stamped")
	}
}
