package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/calltime/slate/pkg/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "slate.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})
	return store
}

func boolPtr(b bool) *bool { return &b }

func seedRecords(t *testing.T, store *Store) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	records := []core.Result{
		{
			Kind:        core.KindAsset,
			ID:          "a1",
			Title:       "Interview with Sarah.mp4",
			Description: "Raw interview footage",
			ProjectID:   "p1",
			ProjectName: "Q4 Launch",
			CreatedAt:   now.Add(-1 * time.Hour),
			Attrs: core.AssetAttrs{
				AssetType:       "video",
				Resolution:      "4K",
				FrameRate:       "24",
				Codec:           "prores",
				DurationSeconds: 1840,
				FileSizeBytes:   12_000_000_000,
				HasTranscript:   boolPtr(true),
				Labels:          []string{"interview", "closeup"},
			},
		},
		{
			Kind:        core.KindProject,
			ID:          "p1",
			Title:       "Q4 Launch",
			Description: "Product launch campaign with Sarah",
			CreatedAt:   now.Add(-48 * time.Hour),
		},
		{
			Kind:      core.KindComment,
			ID:        "c1",
			Title:     "Color note",
			CreatedAt: now,
		},
	}
	if err := store.StoreRecords(context.Background(), records); err != nil {
		t.Fatalf("StoreRecords: %v", err)
	}
}

func TestSearchRecordsMatchesAndScores(t *testing.T) {
	store := openTestStore(t)
	seedRecords(t, store)

	results, err := store.SearchRecords(context.Background(), "sarah", 30)
	if err != nil {
		t.Fatalf("SearchRecords: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 matches for %q, got %d", "sarah", len(results))
	}
	for _, r := range results {
		if r.Relevance <= 0 || r.Relevance >= 1 {
			t.Errorf("result %s: relevance %f outside (0, 1)", r.ID, r.Relevance)
		}
		if len(r.Highlights) == 0 {
			t.Errorf("result %s: expected a highlight snippet", r.ID)
		}
	}
}

func TestSearchRecordsRestoresAttrs(t *testing.T) {
	store := openTestStore(t)
	seedRecords(t, store)

	results, err := store.SearchRecords(context.Background(), "interview", 30)
	if err != nil {
		t.Fatalf("SearchRecords: %v", err)
	}

	var asset *core.Result
	for i := range results {
		if results[i].ID == "a1" {
			asset = &results[i]
		}
	}
	if asset == nil {
		t.Fatal("asset a1 not found")
	}
	if asset.Kind != core.KindAsset {
		t.Errorf("expected asset kind, got %q", asset.Kind)
	}
	if asset.Attrs.Resolution != "4K" || asset.Attrs.Codec != "prores" {
		t.Errorf("attrs not restored: %+v", asset.Attrs)
	}
	if asset.Attrs.HasTranscript == nil || !*asset.Attrs.HasTranscript {
		t.Error("transcript flag not restored")
	}
	if len(asset.Attrs.Labels) != 2 {
		t.Errorf("labels not restored: %v", asset.Attrs.Labels)
	}
}

func TestSearchRecordsMatchesLabels(t *testing.T) {
	store := openTestStore(t)
	seedRecords(t, store)

	results, err := store.SearchRecords(context.Background(), "closeup", 30)
	if err != nil {
		t.Fatalf("SearchRecords: %v", err)
	}
	if len(results) != 1 || results[0].ID != "a1" {
		t.Fatalf("expected label match on a1, got %+v", results)
	}
}

func TestSearchRecordsEmptyQueryReturnsRecent(t *testing.T) {
	store := openTestStore(t)
	seedRecords(t, store)

	results, err := store.SearchRecords(context.Background(), "", 2)
	if err != nil {
		t.Fatalf("SearchRecords: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected limit of 2 recent records, got %d", len(results))
	}
	if results[0].ID != "c1" {
		t.Errorf("expected newest record first, got %s", results[0].ID)
	}
	for _, r := range results {
		if r.Relevance != 0 {
			t.Errorf("empty query must not score: %s has %f", r.ID, r.Relevance)
		}
	}
}

func TestStoreRecordsUpsert(t *testing.T) {
	store := openTestStore(t)
	seedRecords(t, store)

	updated := []core.Result{{
		Kind:      core.KindComment,
		ID:        "c1",
		Title:     "Revised color note",
		CreatedAt: time.Now().UTC(),
	}}
	if err := store.StoreRecords(context.Background(), updated); err != nil {
		t.Fatalf("StoreRecords: %v", err)
	}

	results, err := store.SearchRecords(context.Background(), "revised", 30)
	if err != nil {
		t.Fatalf("SearchRecords: %v", err)
	}
	if len(results) != 1 || results[0].ID != "c1" {
		t.Fatalf("expected updated c1, got %+v", results)
	}
	if !strings.Contains(results[0].Title, "Revised") {
		t.Errorf("title not updated: %q", results[0].Title)
	}

	stats, err := store.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalRecords != 3 {
		t.Errorf("upsert must not duplicate: expected 3 records, got %d", stats.TotalRecords)
	}
}

func TestStoreRecordsUpsertKeepsIndexClean(t *testing.T) {
	store := openTestStore(t)
	seedRecords(t, store)

	// Re-import the same record a few times; each REPLACE assigns a new
	// rowid, and the old FTS entry must go with it.
	for i := 0; i < 3; i++ {
		update := []core.Result{{
			Kind:      core.KindComment,
			ID:        "c1",
			Title:     "Color note",
			CreatedAt: time.Now().UTC(),
		}}
		if err := store.StoreRecords(context.Background(), update); err != nil {
			t.Fatalf("StoreRecords round %d: %v", i, err)
		}
	}

	var indexed, stored int
	if err := store.DB().QueryRow("SELECT COUNT(*) FROM records_fts").Scan(&indexed); err != nil {
		t.Fatalf("counting FTS rows: %v", err)
	}
	if err := store.DB().QueryRow("SELECT COUNT(*) FROM records").Scan(&stored); err != nil {
		t.Fatalf("counting records: %v", err)
	}
	if indexed != stored {
		t.Fatalf("FTS index out of sync after upserts: %d indexed vs %d stored", indexed, stored)
	}

	results, err := store.SearchRecords(context.Background(), "color", 30)
	if err != nil {
		t.Fatalf("SearchRecords: %v", err)
	}
	if len(results) != 1 || results[0].ID != "c1" {
		t.Fatalf("expected a single c1 match, got %+v", results)
	}
}

func TestGetStats(t *testing.T) {
	store := openTestStore(t)
	seedRecords(t, store)

	stats, err := store.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalRecords != 3 {
		t.Errorf("expected 3 records, got %d", stats.TotalRecords)
	}
	if stats.ByKind[core.KindAsset] != 1 || stats.ByKind[core.KindProject] != 1 {
		t.Errorf("unexpected kind counts: %v", stats.ByKind)
	}
	if stats.OldestRecord == nil || stats.NewestRecord == nil {
		t.Error("expected record date range")
	}
}

func TestDeleteRecord(t *testing.T) {
	store := openTestStore(t)
	seedRecords(t, store)

	if err := store.DeleteRecord(context.Background(), "a1"); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}

	results, err := store.SearchRecords(context.Background(), "interview", 30)
	if err != nil {
		t.Fatalf("SearchRecords: %v", err)
	}
	for _, r := range results {
		if r.ID == "a1" {
			t.Fatal("deleted record still matches")
		}
	}
}
