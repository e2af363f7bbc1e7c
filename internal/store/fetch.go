package store

import (
	"context"
	"fmt"
	"time"

	"github.com/osumedals/crawler/internal/badge"
	"github.com/osumedals/crawler/internal/models"
)

// RankingIDs returns the user ids already present in the ranking table,
// the base working set of a ranking refresh.
func (s *Store) RankingIDs(ctx context.Context) ([]uint32, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM rankings`)
	if err != nil {
		return nil, fmt.Errorf("fetch ranking ids: %w", err)
	}
	defer rows.Close()

	var ids []uint32
	for rows.Next() {
		var id uint32
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan ranking id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch ranking ids: %w", err)
	}

	return ids, nil
}

// SystemUserIDs returns every registered participant id, used for full
// coverage runs.
func (s *Store) SystemUserIDs(ctx context.Context) ([]uint32, error) {
	rows, err := s.db.Query(ctx, `SELECT user_id FROM system_users`)
	if err != nil {
		return nil, fmt.Errorf("fetch system user ids: %w", err)
	}
	defer rows.Close()

	var ids []uint32
	for rows.Next() {
		var id uint32
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan system user id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch system user ids: %w", err)
	}

	return ids, nil
}

// BadgeCatalog rebuilds the stored badge catalog so a fresh crawl can be
// merged into it before persisting.
func (s *Store) BadgeCatalog(ctx context.Context) (*badge.Catalog, error) {
	catalog := badge.NewCatalog(s.logger)

	images := make(map[string]string)

	rows, err := s.db.Query(ctx, `SELECT name, image_url FROM badge_images`)
	if err != nil {
		return nil, fmt.Errorf("fetch badge images: %w", err)
	}
	for rows.Next() {
		var name, imageURL string
		if err := rows.Scan(&name, &imageURL); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan badge image: %w", err)
		}
		images[name] = imageURL
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch badge images: %w", err)
	}

	rows, err = s.db.Query(ctx,
		`SELECT description, name, user_id, awarded_at FROM badge_owners`)
	if err != nil {
		return nil, fmt.Errorf("fetch badge owners: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			description, name string
			userID            uint32
			awardedAt         time.Time
		)
		if err := rows.Scan(&description, &name, &userID, &awardedAt); err != nil {
			return nil, fmt.Errorf("scan badge owner: %w", err)
		}
		catalog.Insert(description, name, images[name], userID, awardedAt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch badge owners: %w", err)
	}

	return catalog, nil
}

// RarityTable reads the rarity figures of the previous cycle.
func (s *Store) RarityTable(ctx context.Context) (models.RarityTable, error) {
	rows, err := s.db.Query(ctx,
		`SELECT medal_id, count, frequency FROM medal_rarities`)
	if err != nil {
		return nil, fmt.Errorf("fetch medal rarities: %w", err)
	}
	defer rows.Close()

	table := make(models.RarityTable, 300)
	for rows.Next() {
		var (
			id        uint16
			count     uint32
			frequency float64
		)
		if err := rows.Scan(&id, &count, &frequency); err != nil {
			return nil, fmt.Errorf("scan medal rarity: %w", err)
		}
		table[id] = models.RarityEntry{Count: count, Frequency: frequency}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch medal rarities: %w", err)
	}

	return table, nil
}

// MedalIDs returns the set of medal ids already stored, used to detect
// newly introduced medals.
func (s *Store) MedalIDs(ctx context.Context) (map[uint16]struct{}, error) {
	rows, err := s.db.Query(ctx, `SELECT medal_id FROM medals`)
	if err != nil {
		return nil, fmt.Errorf("fetch medal ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[uint16]struct{}, 300)
	for rows.Next() {
		var id uint16
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan medal id: %w", err)
		}
		ids[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch medal ids: %w", err)
	}

	return ids, nil
}
