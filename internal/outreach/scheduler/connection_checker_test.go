package scheduler

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"outreach_backend/internal/leads"
	"outreach_backend/internal/provider"
	"outreach_backend/platform/logger"
)

type fakeRelationLister struct {
	pages []provider.RelationsPage
	calls int
}

func (f *fakeRelationLister) ListRelations(_ context.Context, _, cursor string) (provider.RelationsPage, error) {
	idx := f.calls
	f.calls++
	if idx >= len(f.pages) {
		return provider.RelationsPage{}, nil
	}
	return f.pages[idx], nil
}

func (f *fakeRelationLister) ListSentInvitations(_ context.Context, _ string) ([]provider.Invitation, error) {
	return nil, nil
}

func testChecker(api relationLister) *ConnectionChecker {
	return NewConnectionChecker(nil, nil, nil, api, logger.New("development"))
}

func TestFetchRelationsPaginates(t *testing.T) {
	api := &fakeRelationLister{pages: []provider.RelationsPage{
		{Items: []provider.Relation{{ProviderID: "a"}}, Cursor: "next"},
		{Items: []provider.Relation{{ProviderID: "b"}}, Cursor: ""},
	}}

	relations, err := testChecker(api).fetchRelations(context.Background(), "acc_1")
	if err != nil {
		t.Fatalf("fetchRelations: %v", err)
	}
	if len(relations) != 2 {
		t.Fatalf("expected 2 relations across pages, got %d", len(relations))
	}
	if api.calls != 2 {
		t.Fatalf("expected 2 page fetches, got %d", api.calls)
	}
}

func TestFetchRelationsStopsAtPageCap(t *testing.T) {
	pages := make([]provider.RelationsPage, maxRelationPages+5)
	for i := range pages {
		pages[i] = provider.RelationsPage{Cursor: "more"}
	}
	api := &fakeRelationLister{pages: pages}

	if _, err := testChecker(api).fetchRelations(context.Background(), "acc_1"); err != nil {
		t.Fatalf("fetchRelations: %v", err)
	}
	if api.calls != maxRelationPages {
		t.Fatalf("expected fetch to stop at %d pages, got %d", maxRelationPages, api.calls)
	}
}

func TestInvitationStatusLookup(t *testing.T) {
	invites := map[string]string{"prov_1": "pending", "jane-doe": "accepted"}

	prov := "prov_1"
	if got := invitationStatus(invites, leads.Lead{ProviderID: &prov}); got != "pending" {
		t.Fatalf("expected pending by provider id, got %q", got)
	}
	if got := invitationStatus(invites, leads.Lead{PublicIdentifier: "jane-doe"}); got != "accepted" {
		t.Fatalf("expected accepted by public identifier, got %q", got)
	}
	if got := invitationStatus(invites, leads.Lead{PublicIdentifier: "nobody"}); got != "" {
		t.Fatalf("expected no status for unknown lead, got %q", got)
	}
}

func TestMatchRelation(t *testing.T) {
	checker := testChecker(nil)
	relations := []provider.Relation{
		{ProviderID: "prov_1", PublicIdentifier: "jane-doe", FirstName: "Jane", LastName: "Doe"},
		{ProviderID: "prov_2", PublicIdentifier: "john-smith", FirstName: "John", LastName: "Smith"},
	}

	prov := "prov_1"
	byProvider := leads.Lead{ID: uuid.New(), ProviderID: &prov}
	if !checker.matchRelation(relations, byProvider) {
		t.Fatal("expected match by provider id")
	}

	byIdentifier := leads.Lead{ID: uuid.New(), PublicIdentifier: "john-smith"}
	if !checker.matchRelation(relations, byIdentifier) {
		t.Fatal("expected match by public identifier")
	}

	byName := leads.Lead{ID: uuid.New(), FirstName: "jane", LastName: "DOE", PublicIdentifier: "other"}
	if !checker.matchRelation(relations, byName) {
		t.Fatal("expected case-insensitive name match")
	}

	noMatch := leads.Lead{ID: uuid.New(), FirstName: "Alice", LastName: "Brown", PublicIdentifier: "alice-b"}
	if checker.matchRelation(relations, noMatch) {
		t.Fatal("unrelated lead must not match")
	}
}

func TestMatchRelationAmbiguousNameRejected(t *testing.T) {
	checker := testChecker(nil)
	relations := []provider.Relation{
		{ProviderID: "p1", FirstName: "Jane", LastName: "Doe"},
		{ProviderID: "p2", FirstName: "Jane", LastName: "Doe"},
	}

	lead := leads.Lead{ID: uuid.New(), FirstName: "Jane", LastName: "Doe", PublicIdentifier: "x"}
	if checker.matchRelation(relations, lead) {
		t.Fatal("two relations with the same name must not match")
	}
}
