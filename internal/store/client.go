// Package store talks to the remote lead table through its REST row
// API. Reads filter by field equality; writes are inserts or partial
// updates keyed by lead id. History and activity columns hold
// serialized JSON arrays and are rewritten whole against the
// previously read state, keeping appends all-or-nothing.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vantix/leads-engine/internal/cache"
	"github.com/vantix/leads-engine/internal/model"
)

// Client is a REST client for the lead store
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cache      cache.Cache
	log        *logrus.Entry
	now        func() time.Time
}

// NewClient creates a lead store client. c may be nil to disable
// lookup caching.
func NewClient(cfg model.StoreConfig, c cache.Cache, log *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL + "/rest/v1/" + cfg.Table,
		apiKey:     cfg.APIKey,
		cache:      c,
		log:        log.WithField("component", "store"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// GetLeadByEmail fetches a lead by its unique email. Returns nil when
// no lead matches.
func (c *Client) GetLeadByEmail(ctx context.Context, email string) (*model.Lead, error) {
	if c.cache != nil {
		if raw, ok := c.cache.Get(cache.LeadKey(email)); ok {
			var lead model.Lead
			if err := json.Unmarshal(raw, &lead); err == nil {
				return &lead, nil
			}
		}
	}

	query := fmt.Sprintf("?email=eq.%s&limit=1", url.QueryEscape(email))
	var leads []model.Lead
	if err := c.get(ctx, query, &leads); err != nil {
		return nil, err
	}
	if len(leads) == 0 {
		return nil, nil
	}

	if c.cache != nil {
		if raw, err := json.Marshal(leads[0]); err == nil {
			_ = c.cache.Set(cache.LeadKey(email), raw, 5*time.Minute)
		}
	}
	return &leads[0], nil
}

// LeadsByStage fetches all leads in the given stage, most recently
// updated first (the order the scheduler processes them in).
func (c *Client) LeadsByStage(ctx context.Context, stage model.Stage) ([]model.Lead, error) {
	query := fmt.Sprintf("?stage=eq.%s&order=updated_at.desc", url.QueryEscape(string(stage)))
	var leads []model.Lead
	if err := c.get(ctx, query, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

// UpsertLead inserts the lead or updates the existing row with the
// same email. Profile and score fields are refreshed on update; stage
// is only set on insert so re-sourcing never regresses a contacted
// lead. Returns the stored row and whether it was newly created.
func (c *Client) UpsertLead(ctx context.Context, lead *model.Lead) (*model.Lead, bool, error) {
	if lead.Email == "" {
		return nil, false, fmt.Errorf("upsert lead: missing email")
	}

	existing, err := c.GetLeadByEmail(ctx, lead.Email)
	if err != nil {
		return nil, false, fmt.Errorf("upsert lead %s: %w", lead.Email, err)
	}

	now := c.now().Format(time.RFC3339)
	row := map[string]any{
		"company_name":   lead.CompanyName,
		"contact_name":   lead.ContactName,
		"email":          lead.Email,
		"phone":          lead.Phone,
		"website":        lead.Website,
		"score":          lead.Score,
		"source":         nonEmpty(lead.Source, "cold_outreach"),
		"ai_audit":       lead.Insight,
		"industry":       lead.Industry,
		"city":           lead.City,
		"state":          lead.State,
		"employee_count": lead.EmployeeCount,
		"updated_at":     now,
	}

	var stored model.Lead
	if existing != nil {
		query := fmt.Sprintf("?id=eq.%s", url.QueryEscape(existing.ID))
		if err := c.write(ctx, http.MethodPatch, query, row, &stored); err != nil {
			return nil, false, fmt.Errorf("update lead %s: %w", lead.Email, err)
		}
		c.invalidate(lead.Email)
		c.log.Infof("Updated lead: %s", lead.Email)
		return &stored, false, nil
	}

	stage := lead.Stage
	if stage == "" {
		stage = model.StageNew
	}
	row["stage"] = string(stage)
	row["created_at"] = now
	row["activity"] = mustJSON([]model.ActivityEntry{{
		Event:     "Lead created",
		Timestamp: c.now(),
		Source:    nonEmpty(lead.Source, "search"),
	}})

	if err := c.write(ctx, http.MethodPost, "", row, &stored); err != nil {
		return nil, false, fmt.Errorf("insert lead %s: %w", lead.Email, err)
	}
	c.invalidate(lead.Email)
	c.log.Infof("Created lead: %s", lead.Email)
	return &stored, true, nil
}

// UpdateLead patches specific fields on a lead by id
func (c *Client) UpdateLead(ctx context.Context, leadID string, updates map[string]any) error {
	updates["updated_at"] = c.now().Format(time.RFC3339)

	query := fmt.Sprintf("?id=eq.%s", url.QueryEscape(leadID))
	if err := c.write(ctx, http.MethodPatch, query, updates, nil); err != nil {
		return fmt.Errorf("update lead %s: %w", leadID, err)
	}
	if email, ok := updates["email"].(string); ok {
		c.invalidate(email)
	}
	return nil
}

// AppendActivity appends one event to a lead's timeline. existing must
// be the timeline read with the lead; the whole list is reserialized
// so order is preserved.
func (c *Client) AppendActivity(ctx context.Context, lead *model.Lead, existing []model.ActivityEntry, event string) error {
	entries := append(existing, model.ActivityEntry{Event: event, Timestamp: c.now()})
	err := c.UpdateLead(ctx, lead.ID, map[string]any{"activity": mustJSON(entries)})
	if err == nil {
		c.invalidate(lead.Email)
	}
	return err
}

// AppendHistory appends one send attempt to a lead's email history and
// stamps last_contacted.
func (c *Client) AppendHistory(ctx context.Context, lead *model.Lead, existing []model.HistoryEntry, entry model.HistoryEntry) error {
	entries := append(existing, entry)
	err := c.UpdateLead(ctx, lead.ID, map[string]any{
		"email_history":  mustJSON(entries),
		"last_contacted": c.now().Format(time.RFC3339),
	})
	if err == nil {
		c.invalidate(lead.Email)
	}
	return err
}

// SyncLeads upserts a batch and reports created/updated counts.
// Individual failures are logged and skipped; the batch continues.
func (c *Client) SyncLeads(ctx context.Context, leads []model.Lead) (created, updated int) {
	for i := range leads {
		_, isNew, err := c.UpsertLead(ctx, &leads[i])
		if err != nil {
			c.log.Errorf("Sync failed for %s: %v", leads[i].Email, err)
			continue
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}
	c.log.Infof("Sync complete: %d created, %d updated", created, updated)
	return created, updated
}

func (c *Client) get(ctx context.Context, query string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+query, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("store request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("store returned %d: %s", resp.StatusCode, truncate(body, 300))
	}
	return json.Unmarshal(body, out)
}

func (c *Client) write(ctx context.Context, method, query string, payload any, out *model.Lead) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+query, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("store request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
	default:
		return fmt.Errorf("store returned %d: %s", resp.StatusCode, truncate(body, 300))
	}

	if out == nil || len(body) == 0 {
		return nil
	}

	// The store returns the affected rows as an array
	var rows []model.Lead
	if err := json.Unmarshal(body, &rows); err != nil {
		var single model.Lead
		if err2 := json.Unmarshal(body, &single); err2 != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		*out = single
		return nil
	}
	if len(rows) > 0 {
		*out = rows[0]
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")
}

func (c *Client) invalidate(email string) {
	if c.cache != nil && email != "" {
		_ = c.cache.Delete(cache.LeadKey(email))
	}
}

func mustJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
