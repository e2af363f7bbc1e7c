package logic

import (
	"testing"
	"time"

	"github.com/osumedals/crawler/internal/models"
)

func userWithMedals(id uint32, medalIDs ...uint16) *models.Available {
	medals := make([]models.OwnedMedal, len(medalIDs))
	for i, medalID := range medalIDs {
		medals[i] = models.OwnedMedal{
			MedalID:    medalID,
			AchievedAt: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		}
	}
	return &models.Available{ID: id, Medals: medals}
}

func catalogMedals(ids ...uint16) []models.Medal {
	medals := make([]models.Medal, len(ids))
	for i, id := range ids {
		medals[i] = models.Medal{ID: id}
	}
	return medals
}

func TestCalculateRaritiesCounts(t *testing.T) {
	users := []models.User{
		userWithMedals(1, 7),
		userWithMedals(2),
		userWithMedals(3),
		userWithMedals(4),
	}

	table := CalculateRarities(users, catalogMedals(7))

	entry, ok := table[7]
	if !ok {
		t.Fatal("medal 7 missing from table")
	}
	if entry.Count != 1 {
		t.Errorf("count = %d, want 1", entry.Count)
	}
	if entry.Frequency != 25.0 {
		t.Errorf("frequency = %v, want 25.0", entry.Frequency)
	}
}

func TestCalculateRaritiesCompleteness(t *testing.T) {
	users := []models.User{
		userWithMedals(1, 1, 2),
		userWithMedals(2, 2),
	}

	table := CalculateRarities(users, catalogMedals(1, 2, 3, 99))

	for _, id := range []uint16{1, 2, 3, 99} {
		entry, ok := table[id]
		if !ok {
			t.Fatalf("catalog medal %d has no entry", id)
		}
		if int(entry.Count) > len(users) {
			t.Errorf("medal %d count %d exceeds user count", id, entry.Count)
		}
	}

	if table[3].Count != 0 || table[99].Count != 0 {
		t.Error("unowned catalog medals must have zero count")
	}
}

func TestCalculateRaritiesRestrictedDenominator(t *testing.T) {
	users := []models.User{
		userWithMedals(1, 5),
		models.Restricted{ID: 2},
		models.Restricted{ID: 3},
		userWithMedals(4, 5),
	}

	table := CalculateRarities(users, catalogMedals(5))

	// Restricted users never contribute owned medals but still widen
	// the denominator.
	if got := table[5].Count; got != 2 {
		t.Errorf("count = %d, want 2", got)
	}
	if got := table[5].Frequency; got != 50.0 {
		t.Errorf("frequency = %v, want 50.0", got)
	}
}

func TestCalculateRaritiesEmptyInput(t *testing.T) {
	table := CalculateRarities(nil, catalogMedals(1))

	if entry := table[1]; entry.Count != 0 || entry.Frequency != 0 {
		t.Errorf("empty user list should yield zero entries, got %+v", entry)
	}
}
