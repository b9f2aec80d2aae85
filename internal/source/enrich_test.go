package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vantix/leads-engine/internal/model"
)

func TestEnrich_FindsEmailAndWebsite(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, braveResponse(
			`{"title":"Rosa's Cantina","description":"Contact rosa@rosascantina.com for catering","url":"https://rosascantina.com/contact"}`,
		))
	}))
	defer server.Close()

	s := newTestSearcher(server.URL)
	lead := model.Lead{
		CompanyName: "Rosa's Cantina",
		City:        "Tampa",
		Website:     "https://facebook.com/rosascantina",
	}
	if err := s.Enrich(context.Background(), &lead); err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if lead.Email != "rosa@rosascantina.com" {
		t.Errorf("email = %q", lead.Email)
	}
	if lead.EmailStatus != "unverified" {
		t.Errorf("email status = %q", lead.EmailStatus)
	}
	if lead.Website != "https://rosascantina.com/contact" {
		t.Errorf("expected social page replaced with own site, got %q", lead.Website)
	}
}

func TestEnrich_KeepsExistingDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, braveResponse(
			`{"title":"Ace Plumbing","description":"Email other@aceplumbing.com","url":"https://aceplumbing.com"}`,
		))
	}))
	defer server.Close()

	s := newTestSearcher(server.URL)
	lead := model.Lead{
		CompanyName: "Ace Plumbing",
		City:        "Austin",
		Email:       "ace@aceplumbing.com",
		Website:     "https://aceplumbing.com",
	}
	if err := s.Enrich(context.Background(), &lead); err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if lead.Email != "ace@aceplumbing.com" {
		t.Errorf("existing email overwritten: %q", lead.Email)
	}
}

func TestEnrich_SearchFailureLeavesLeadUntouched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := newTestSearcher(server.URL)
	lead := model.Lead{CompanyName: "Quiet Corp", City: "Denver"}
	if err := s.Enrich(context.Background(), &lead); err != nil {
		t.Fatalf("expected enrichment failure to be non-fatal, got %v", err)
	}
	if lead.Email != "" {
		t.Errorf("email = %q", lead.Email)
	}
}

func TestFindContactEmail_SkipsImageFilenames(t *testing.T) {
	text := "logo@2x.png is our logo, write to info@acme.com today"
	if got := findContactEmail(text); got != "info@acme.com" {
		t.Errorf("findContactEmail = %q", got)
	}
}
