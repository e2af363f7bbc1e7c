package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/osumedals/crawler/internal/badge"
	"github.com/osumedals/crawler/internal/models"
)

func newTestStore() (*Store, *fakeDB) {
	db := newFakeDB()
	return New(db, zap.NewNop()), db
}

func TestStoreMedalsUpsertsAndCommits(t *testing.T) {
	s, db := newTestStore()

	medals := []models.Medal{
		{ID: 1, Name: "500 Combo"},
		{ID: 2, Name: "Rising Star"},
	}

	if err := s.StoreMedals(context.Background(), medals); err != nil {
		t.Fatalf("StoreMedals failed: %v", err)
	}

	if len(db.Execs) != 2 {
		t.Fatalf("got %d statements, want 2", len(db.Execs))
	}
	if !strings.Contains(db.Execs[0].SQL, "INSERT INTO medals") ||
		!strings.Contains(db.Execs[0].SQL, "ON CONFLICT (medal_id)") {
		t.Errorf("unexpected medal SQL: %s", db.Execs[0].SQL)
	}
	if db.Commits != 1 {
		t.Errorf("Commits = %d, want 1", db.Commits)
	}
}

func TestStoreMedalsRollsBackOnError(t *testing.T) {
	s, db := newTestStore()
	db.FailOn = "INSERT INTO medals"

	err := s.StoreMedals(context.Background(), []models.Medal{{ID: 1}})
	if err == nil {
		t.Fatal("StoreMedals should fail")
	}
	if db.Commits != 0 || db.Rollbacks != 1 {
		t.Errorf("commits=%d rollbacks=%d, want 0/1", db.Commits, db.Rollbacks)
	}
}

func TestStoreBadgesReplacesCatalog(t *testing.T) {
	s, db := newTestStore()

	catalog := badge.NewCatalog(zap.NewNop().Sugar())
	catalog.Push(7, models.BadgeObservation{
		Description: "Contest winner",
		ImageURL:    "https://a/badges/contest-winner.png",
		AwardedAt:   time.Date(2023, 2, 3, 0, 0, 0, 0, time.UTC),
	})

	if err := s.StoreBadges(context.Background(), catalog); err != nil {
		t.Fatalf("StoreBadges failed: %v", err)
	}

	// Deletes must run before any insert.
	var sawInsert bool
	var deletesBeforeInserts = true
	for _, call := range db.Execs {
		if strings.HasPrefix(strings.TrimSpace(call.SQL), "INSERT") {
			sawInsert = true
		}
		if strings.HasPrefix(strings.TrimSpace(call.SQL), "DELETE") && sawInsert {
			deletesBeforeInserts = false
		}
	}
	if !sawInsert || !deletesBeforeInserts {
		t.Errorf("badge replace order wrong: %+v", db.Execs)
	}
	if db.Commits != 1 {
		t.Errorf("Commits = %d, want 1", db.Commits)
	}
}

func TestBadgeCatalogRebuild(t *testing.T) {
	s, db := newTestStore()

	awarded := time.Date(2022, 8, 1, 0, 0, 0, 0, time.UTC)
	db.Results["FROM badge_images"] = &fakeRows{rows: [][]any{
		{"contest winner", "https://a/badges/contest-winner.png"},
	}}
	db.Results["FROM badge_owners"] = &fakeRows{rows: [][]any{
		{"Contest winner", "contest winner", uint32(7), awarded},
		{"Contest winner", "contest winner", uint32(8), awarded},
	}}

	catalog, err := s.BadgeCatalog(context.Background())
	if err != nil {
		t.Fatalf("BadgeCatalog failed: %v", err)
	}

	if got := catalog.Len(); got != 2 {
		t.Errorf("rebuilt Len() = %d, want 2", got)
	}
	if url, ok := catalog.ImageURL("contest winner"); !ok || url != "https://a/badges/contest-winner.png" {
		t.Errorf("image mapping not rebuilt: %q %v", url, ok)
	}
}

func TestRarityTableRead(t *testing.T) {
	s, db := newTestStore()

	db.Results["FROM medal_rarities"] = &fakeRows{rows: [][]any{
		{uint16(7), uint32(12), 3.5},
	}}

	table, err := s.RarityTable(context.Background())
	if err != nil {
		t.Fatalf("RarityTable failed: %v", err)
	}

	if entry := table[7]; entry.Count != 12 || entry.Frequency != 3.5 {
		t.Errorf("unexpected entry: %+v", entry)
	}
}

func TestNullableRank(t *testing.T) {
	if nullableRank(0) != nil {
		t.Error("rank 0 must map to NULL")
	}
	if r := nullableRank(1234); r == nil || *r != 1234 {
		t.Error("nonzero rank must pass through")
	}
}
