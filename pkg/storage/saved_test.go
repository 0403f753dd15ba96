package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/calltime/slate/pkg/saved"
)

func sampleSavedSearch(id, name string) *saved.SavedSearch {
	now := time.Now().UTC().Truncate(time.Second)
	return &saved.SavedSearch{
		ID:           id,
		Name:         name,
		Query:        "interview",
		FiltersJSON:  `{"resolutions":["4K"]}`,
		Scope:        saved.ScopeOrganization,
		Visibility:   saved.VisibilityOrganization,
		CreatedBy:    "jane",
		Organization: "acme",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestSavedSearchRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	in := sampleSavedSearch("s1", "4K interviews")
	in.IsPinned = true
	if err := store.CreateSavedSearch(ctx, in); err != nil {
		t.Fatalf("CreateSavedSearch: %v", err)
	}

	out, err := store.GetSavedSearch(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSavedSearch: %v", err)
	}
	if out.Name != in.Name || out.Query != in.Query || out.FiltersJSON != in.FiltersJSON {
		t.Errorf("round trip mismatch: %+v", out)
	}
	if out.Visibility != saved.VisibilityOrganization || out.Scope != saved.ScopeOrganization {
		t.Errorf("scope/visibility mismatch: %+v", out)
	}
	if !out.IsPinned {
		t.Error("pinned flag lost")
	}
	if out.LastUsedAt != nil {
		t.Error("expected no last-used timestamp on a fresh search")
	}
}

func TestGetSavedSearchNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetSavedSearch(context.Background(), "missing")
	if !errors.Is(err, saved.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordSavedSearchUse(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.CreateSavedSearch(ctx, sampleSavedSearch("s1", "dailies")); err != nil {
		t.Fatalf("CreateSavedSearch: %v", err)
	}

	at := time.Now().UTC().Truncate(time.Second)
	if err := store.RecordSavedSearchUse(ctx, "s1", at); err != nil {
		t.Fatalf("RecordSavedSearchUse: %v", err)
	}
	if err := store.RecordSavedSearchUse(ctx, "s1", at.Add(time.Minute)); err != nil {
		t.Fatalf("RecordSavedSearchUse: %v", err)
	}

	out, err := store.GetSavedSearch(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSavedSearch: %v", err)
	}
	if out.UsageCount != 2 {
		t.Errorf("expected usage count 2, got %d", out.UsageCount)
	}
	if out.LastUsedAt == nil {
		t.Fatal("expected last-used timestamp")
	}

	if err := store.RecordSavedSearchUse(ctx, "missing", at); !errors.Is(err, saved.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing search, got %v", err)
	}
}

func TestListSavedSearchesPinnedFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	old := sampleSavedSearch("s1", "old pinned")
	old.IsPinned = true
	old.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	recent := sampleSavedSearch("s2", "recent unpinned")

	for _, s := range []*saved.SavedSearch{old, recent} {
		if err := store.CreateSavedSearch(ctx, s); err != nil {
			t.Fatalf("CreateSavedSearch: %v", err)
		}
	}

	list, err := store.ListSavedSearches(ctx)
	if err != nil {
		t.Fatalf("ListSavedSearches: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 saved searches, got %d", len(list))
	}
	if list[0].ID != "s1" {
		t.Errorf("pinned search must sort first, got %s", list[0].ID)
	}
}

func TestDeleteSavedSearch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.CreateSavedSearch(ctx, sampleSavedSearch("s1", "doomed")); err != nil {
		t.Fatalf("CreateSavedSearch: %v", err)
	}
	if err := store.DeleteSavedSearch(ctx, "s1"); err != nil {
		t.Fatalf("DeleteSavedSearch: %v", err)
	}
	if _, err := store.GetSavedSearch(ctx, "s1"); !errors.Is(err, saved.ErrNotFound) {
		t.Fatal("search still present after delete")
	}
	if err := store.DeleteSavedSearch(ctx, "s1"); !errors.Is(err, saved.ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestManagerOnSQLiteStore(t *testing.T) {
	store := openTestStore(t)
	m := saved.NewManager(store)
	ctx := context.Background()

	s := &saved.SavedSearch{
		Name:        "transcribed 4K",
		Query:       "interview",
		FiltersJSON: `{"resolutions":["4K"],"has_transcript":true}`,
		CreatedBy:   "jane",
	}
	if err := m.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := m.Load(ctx, s.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Query != "interview" {
		t.Errorf("query not restored: %q", loaded.Query)
	}
	if got := loaded.Filters.ActiveCount(); got != 2 {
		t.Errorf("expected 2 active filter categories, got %d", got)
	}

	// Drain the async usage bump before the store closes.
	m.Wait()
	bumped, err := store.GetSavedSearch(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSavedSearch: %v", err)
	}
	if bumped.UsageCount != 1 {
		t.Errorf("expected usage count 1 after load, got %d", bumped.UsageCount)
	}
}
