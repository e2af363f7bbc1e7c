package logic

import (
	"math"
	"time"

	"github.com/osumedals/crawler/internal/models"
)

// minActivePlaycount is the floor below which an account's accuracy is
// treated as statistical noise rather than a ranking signal.
const minActivePlaycount = 500

// NewRankingRecord flattens one fetched user into a ranking row.
// Restricted users keep their id and flag but expose no stats.
func NewRankingRecord(user models.User, rarities models.RarityTable) models.RankingRecord {
	switch u := user.(type) {
	case *models.Available:
		return fromAvailable(u, rarities)
	case models.Restricted:
		return models.RankingRecord{ID: u.ID, Restricted: true}
	default:
		// Unknown variants carry no data; treat like restricted.
		return models.RankingRecord{ID: user.UserID(), Restricted: true}
	}
}

func fromAvailable(u *models.Available, rarities models.RarityTable) models.RankingRecord {
	var (
		accs, levels, pps [4]float64
		maxGlobalRank     uint32
		maxPlaycount      uint32
	)

	for i, mode := range u.Modes {
		accs[i] = mode.Accuracy
		levels[i] = mode.Level
		pps[i] = mode.PP

		if mode.GlobalRank > maxGlobalRank {
			maxGlobalRank = mode.GlobalRank
		}
		if mode.Playcount > maxPlaycount {
			maxPlaycount = mode.Playcount
		}
	}

	// An account that is unranked everywhere, or barely played, has
	// meaningless accuracy values; publish zeros instead.
	suppressAcc := maxGlobalRank == 0 || maxPlaycount < minActivePlaycount
	if suppressAcc {
		accs = [4]float64{}
	}

	var totalPP float64
	for _, pp := range pps {
		totalPP += pp
	}

	record := models.RankingRecord{
		ID:      u.ID,
		Name:    u.Name,
		Country: u.Country,

		Standard: modeRanking(u.Modes[0], accs[0]),
		Taiko:    modeRanking(u.Modes[1], accs[1]),
		Catch:    modeRanking(u.Modes[2], accs[2]),
		Mania:    modeRanking(u.Modes[3], accs[3]),

		TotalPP:    totalPP,
		StdevPP:    robustAggregate(pps),
		StdevLevel: robustAggregate(levels),

		MedalCount:     uint16(len(u.Medals)),
		BadgeCount:     uint16(len(u.Badges)),
		RankedMaps:     u.RankedMaps,
		LovedMaps:      u.LovedMaps,
		Followers:      u.Followers,
		Subscribers:    u.Subscribers,
		ReplaysWatched: u.ReplaysWatched,
		Kudosu:         u.Kudosu,
		AvatarURL:      u.AvatarURL,
	}

	if !suppressAcc {
		record.StdevAcc = robustAggregate(accs)
	}

	record.RarestMedalID, record.RarestMedalAt = rarestMedal(u.Medals, rarities)

	return record
}

func modeRanking(stats models.ModeStats, accuracy float64) models.ModeRanking {
	return models.ModeRanking{
		Accuracy:   accuracy,
		Level:      stats.Level,
		PP:         stats.PP,
		GlobalRank: stats.GlobalRank,
	}
}

// robustAggregate condenses four per-mode values into one figure that a
// single outlier mode cannot dominate: sum minus twice the sample standard
// deviation, floored at zero.
func robustAggregate(values [4]float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}

	mean := sum / 4

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}

	stdev := math.Sqrt(variance / 3)

	if aggregate := sum - 2*stdev; aggregate > 0 {
		return aggregate
	}
	return 0
}

// rarestMedal picks the owned medal with the lowest owner count in the
// rarity table. Ties break towards the lowest medal id so the result is
// deterministic. Without any known medal the sentinel (0, Unix epoch) is
// returned.
func rarestMedal(medals []models.OwnedMedal, rarities models.RarityTable) (uint16, time.Time) {
	var (
		found      bool
		rarestID   uint16
		rarestAt   time.Time
		lowestSeen uint32
	)

	for _, medal := range medals {
		entry, ok := rarities[medal.MedalID]
		if !ok {
			continue
		}

		better := entry.Count < lowestSeen || (entry.Count == lowestSeen && medal.MedalID < rarestID)
		if !found || better {
			found = true
			rarestID = medal.MedalID
			rarestAt = medal.AchievedAt
			lowestSeen = entry.Count
		}
	}

	if !found {
		return 0, time.Unix(0, 0).UTC()
	}

	return rarestID, rarestAt
}
