// Package logic holds the pure aggregation steps of a crawl cycle: medal
// rarity counting and the per-user ranking record builder. Nothing here
// does I/O, so every function is safe to re-run.
package logic

import "github.com/osumedals/crawler/internal/models"

// CalculateRarities counts, per medal, how many non-restricted users own
// it, and emits a zero entry for every catalog medal nobody owns yet.
// The frequency denominator is the full user list, restricted users
// included: they count as tracked users even though their medals are
// invisible.
func CalculateRarities(users []models.User, medals []models.Medal) models.RarityTable {
	counts := make(map[uint16]uint32, 300)

	for _, user := range users {
		switch u := user.(type) {
		case *models.Available:
			for _, medal := range u.Medals {
				counts[medal.MedalID]++
			}
		case models.Restricted:
			// Contributes to the denominator only.
		}
	}

	for _, medal := range medals {
		if _, ok := counts[medal.ID]; !ok {
			counts[medal.ID] = 0
		}
	}

	table := make(models.RarityTable, len(counts))
	total := float64(len(users))

	for id, count := range counts {
		var frequency float64
		if total > 0 {
			frequency = float64(count) * 100 / total
		}
		table[id] = models.RarityEntry{Count: count, Frequency: frequency}
	}

	return table
}
