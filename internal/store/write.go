package store

import (
	"context"
	"fmt"

	"github.com/osumedals/crawler/internal/badge"
	"github.com/osumedals/crawler/internal/models"
)

// StoreMedals upserts the medal catalog in one transaction. The orchestrator
// awaits this before dispatching rarity writes: rarity rows reference medal
// ids and the store checks that relation.
func (s *Store) StoreMedals(ctx context.Context, medals []models.Medal) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin medals tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, medal := range medals {
		_, err := tx.Exec(ctx, `
			INSERT INTO medals (
				medal_id, name, icon_url, description,
				mode, grouping, instructions, ordering
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (medal_id) DO UPDATE SET
				name = EXCLUDED.name,
				icon_url = EXCLUDED.icon_url,
				description = EXCLUDED.description,
				mode = EXCLUDED.mode,
				grouping = EXCLUDED.grouping,
				instructions = EXCLUDED.instructions,
				ordering = EXCLUDED.ordering`,
			medal.ID, medal.Name, medal.IconURL, medal.Description,
			medal.Mode, medal.Grouping, medal.Instructions, medal.Ordering,
		)
		if err != nil {
			return fmt.Errorf("upsert medal %d: %w", medal.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit medals tx: %w", err)
	}

	return nil
}

// StoreRarities upserts the rarity table.
func (s *Store) StoreRarities(ctx context.Context, table models.RarityTable) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rarities tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for id, entry := range table {
		_, err := tx.Exec(ctx, `
			INSERT INTO medal_rarities (medal_id, count, frequency)
			VALUES ($1, $2, $3)
			ON CONFLICT (medal_id) DO UPDATE SET
				count = EXCLUDED.count,
				frequency = EXCLUDED.frequency`,
			id, entry.Count, entry.Frequency,
		)
		if err != nil {
			return fmt.Errorf("upsert rarity for medal %d: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rarities tx: %w", err)
	}

	return nil
}

// StoreBadges replaces the persisted badge catalog with the merged one.
// Replace rather than upsert: owner sets can only be expressed as full
// rows and stale edges have to go.
func (s *Store) StoreBadges(ctx context.Context, catalog *badge.Catalog) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin badges tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM badge_owners`); err != nil {
		return fmt.Errorf("clear badge owners: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM badge_images`); err != nil {
		return fmt.Errorf("clear badge images: %w", err)
	}

	var insertErr error
	seen := make(map[string]struct{})

	catalog.Each(func(description, name, imageURL string, owners []badge.Owner) {
		if insertErr != nil {
			return
		}

		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			if _, err := tx.Exec(ctx, `
				INSERT INTO badge_images (name, image_url)
				VALUES ($1, $2)`,
				name, imageURL,
			); err != nil {
				insertErr = fmt.Errorf("insert badge image %q: %w", name, err)
				return
			}
		}

		for _, owner := range owners {
			if _, err := tx.Exec(ctx, `
				INSERT INTO badge_owners (description, name, user_id, awarded_at)
				VALUES ($1, $2, $3, $4)`,
				description, name, owner.UserID, owner.AwardedAt,
			); err != nil {
				insertErr = fmt.Errorf("insert badge owner %d for %q: %w", owner.UserID, name, err)
				return
			}
		}
	})

	if insertErr != nil {
		return insertErr
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit badges tx: %w", err)
	}

	return nil
}

// StoreRankings upserts all ranking rows in one transaction so readers
// never observe a half-written cycle.
func (s *Store) StoreRankings(ctx context.Context, records []models.RankingRecord) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rankings tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		_, err := tx.Exec(ctx, `
			INSERT INTO rankings (
				id, name, country_code, restricted,
				total_pp, stdev_pp, stdev_acc, stdev_level,
				standard_pp, taiko_pp, ctb_pp, mania_pp,
				standard_acc, taiko_acc, ctb_acc, mania_acc,
				standard_level, taiko_level, ctb_level, mania_level,
				standard_global, taiko_global, ctb_global, mania_global,
				medal_count, rarest_medal, rarest_medal_achieved,
				badge_count, ranked_maps, loved_maps,
				followers, subscribers, replays_watched, kudosu, avatar_url
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
				$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
				$21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
				$31, $32, $33, $34, $35
			)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				country_code = EXCLUDED.country_code,
				restricted = EXCLUDED.restricted,
				total_pp = EXCLUDED.total_pp,
				stdev_pp = EXCLUDED.stdev_pp,
				stdev_acc = EXCLUDED.stdev_acc,
				stdev_level = EXCLUDED.stdev_level,
				standard_pp = EXCLUDED.standard_pp,
				taiko_pp = EXCLUDED.taiko_pp,
				ctb_pp = EXCLUDED.ctb_pp,
				mania_pp = EXCLUDED.mania_pp,
				standard_acc = EXCLUDED.standard_acc,
				taiko_acc = EXCLUDED.taiko_acc,
				ctb_acc = EXCLUDED.ctb_acc,
				mania_acc = EXCLUDED.mania_acc,
				standard_level = EXCLUDED.standard_level,
				taiko_level = EXCLUDED.taiko_level,
				ctb_level = EXCLUDED.ctb_level,
				mania_level = EXCLUDED.mania_level,
				standard_global = EXCLUDED.standard_global,
				taiko_global = EXCLUDED.taiko_global,
				ctb_global = EXCLUDED.ctb_global,
				mania_global = EXCLUDED.mania_global,
				medal_count = EXCLUDED.medal_count,
				rarest_medal = EXCLUDED.rarest_medal,
				rarest_medal_achieved = EXCLUDED.rarest_medal_achieved,
				badge_count = EXCLUDED.badge_count,
				ranked_maps = EXCLUDED.ranked_maps,
				loved_maps = EXCLUDED.loved_maps,
				followers = EXCLUDED.followers,
				subscribers = EXCLUDED.subscribers,
				replays_watched = EXCLUDED.replays_watched,
				kudosu = EXCLUDED.kudosu,
				avatar_url = EXCLUDED.avatar_url`,
			r.ID, r.Name, r.Country, r.Restricted,
			r.TotalPP, r.StdevPP, r.StdevAcc, r.StdevLevel,
			r.Standard.PP, r.Taiko.PP, r.Catch.PP, r.Mania.PP,
			r.Standard.Accuracy, r.Taiko.Accuracy, r.Catch.Accuracy, r.Mania.Accuracy,
			r.Standard.Level, r.Taiko.Level, r.Catch.Level, r.Mania.Level,
			nullableRank(r.Standard.GlobalRank), nullableRank(r.Taiko.GlobalRank),
			nullableRank(r.Catch.GlobalRank), nullableRank(r.Mania.GlobalRank),
			r.MedalCount, r.RarestMedalID, r.RarestMedalAt,
			r.BadgeCount, r.RankedMaps, r.LovedMaps,
			r.Followers, r.Subscribers, r.ReplaysWatched, r.Kudosu, r.AvatarURL,
		)
		if err != nil {
			return fmt.Errorf("upsert ranking for user %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rankings tx: %w", err)
	}

	return nil
}

// StoreProgress upserts the cycle's progress snapshot keyed by cycle id.
func (s *Store) StoreProgress(ctx context.Context, progress models.Progress) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO crawl_progress (
			cycle_id, task, count_current, count_total, eta_seconds, updated_at
		) VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (cycle_id) DO UPDATE SET
			count_current = EXCLUDED.count_current,
			count_total = EXCLUDED.count_total,
			eta_seconds = EXCLUDED.eta_seconds,
			updated_at = NOW()`,
		progress.CycleID, progress.Task, progress.Current, progress.Total, progress.ETASeconds,
	)
	if err != nil {
		return fmt.Errorf("upsert crawl progress: %w", err)
	}

	return nil
}

// StoreFinish appends the completion record of one cycle.
func (s *Store) StoreFinish(ctx context.Context, finish models.Finish) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO crawl_history (cycle_id, task, requested_users, finished_at)
		VALUES ($1, $2, $3, NOW())`,
		finish.CycleID, finish.Task, finish.RequestedUsers,
	)
	if err != nil {
		return fmt.Errorf("insert crawl history: %w", err)
	}

	return nil
}

// nullableRank maps the 0 "unranked" sentinel to SQL NULL.
func nullableRank(rank uint32) *uint32 {
	if rank == 0 {
		return nil
	}
	return &rank
}
