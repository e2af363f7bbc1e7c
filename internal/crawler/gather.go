package crawler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/osumedals/crawler/internal/models"
	"github.com/osumedals/crawler/internal/task"
)

// Leaderboard scan depth. Each page carries 50 users per mode. Rarity
// needs the deep scan so frequencies are computed over the whole tracked
// population; a ranking-only run gets by with the top slice.
const (
	fullScanPages    = 200
	shallowScanPages = 40
)

// gatherUserIDs assembles the target user set for one cycle. With the
// leaderboard task active the set is rebuilt from the live performance
// rankings plus the manually tracked users; otherwise the previous
// cycle's population is reused from the store.
func (c *Crawler) gatherUserIDs(ctx context.Context, t task.Task) ([]uint32, error) {
	var (
		ids  []uint32
		seen = make(map[uint32]struct{})
	)

	add := func(list []uint32) {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	addKnown := func() error {
		known, err := c.store.RankingIDs(ctx)
		if err != nil {
			return fmt.Errorf("load known users: %w", err)
		}
		add(known)
		return nil
	}

	if t.Ranking() {
		if err := addKnown(); err != nil {
			return nil, err
		}
	}

	if t.Leaderboard() {
		scanned, err := c.scanLeaderboards(ctx, t)
		if err != nil {
			return nil, err
		}
		add(scanned)

		tracked, err := c.store.SystemUserIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("load tracked users: %w", err)
		}
		add(tracked)
	}

	// A badge or rarity run without the ranking or leaderboard stages
	// still needs targets; reuse the previous population.
	if len(ids) == 0 && !t.Ranking() {
		if err := addKnown(); err != nil {
			return nil, err
		}
	}

	// Operator extras join the set regardless of the task mix.
	add(c.ExtraIDs)

	if c.Debug && len(ids) > debugUserLimit {
		ids = ids[:debugUserLimit]
	}
	if c.Debug && len(ids) == 0 {
		// keep debug runs usable against an empty database
		ids = []uint32{2}
	}

	c.logger.Infow("Assembled target set", "users", len(ids))

	return ids, nil
}

// scanLeaderboards walks the performance rankings page by page, fetching
// the four modes of each page concurrently. A failed page is logged and
// skipped; one transient error must not cost the rest of the scan.
func (c *Crawler) scanLeaderboards(ctx context.Context, t task.Task) ([]uint32, error) {
	pages := shallowScanPages
	if t.Rarity() {
		pages = fullScanPages
	}

	var ids []uint32

	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var results [4][]uint32

		var g errgroup.Group
		for _, mode := range models.AllModes {
			mode := mode
			g.Go(func() error {
				pageIDs, err := c.api.LeaderboardPage(ctx, mode, page)
				if err != nil {
					c.logger.Warnw("Skipping leaderboard page",
						"mode", mode.String(), "page", page, "error", err)
					return nil
				}
				results[mode] = pageIDs
				return nil
			})
		}
		_ = g.Wait()

		for _, pageIDs := range results {
			ids = append(ids, pageIDs...)
		}
	}

	return ids, nil
}
