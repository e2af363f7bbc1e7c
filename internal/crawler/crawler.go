// Package crawler runs the crawl cycle: it gathers the target user set,
// fetches every user across all four modes, and feeds the results to the
// rarity, ranking, and badge pipelines. Persistence of the pipeline
// outputs runs in the background while the fetch loop is the critical
// path; the one ordering rule is that the medal catalog write completes
// before any rarity write is issued.
package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/osumedals/crawler/internal/badge"
	"github.com/osumedals/crawler/internal/eta"
	"github.com/osumedals/crawler/internal/logic"
	"github.com/osumedals/crawler/internal/models"
	"github.com/osumedals/crawler/internal/osuapi"
	"github.com/osumedals/crawler/internal/task"
)

// progressEvery is the fetch-loop interval between progress reports.
const progressEvery = 100

// debugUserLimit caps the target set in debug mode.
const debugUserLimit = 5

// API is the slice of the osu!api client the crawler consumes.
type API interface {
	Medals(ctx context.Context) ([]models.Medal, error)
	User(ctx context.Context, userID uint32, mode models.Mode) (*osuapi.UserData, error)
	LeaderboardPage(ctx context.Context, mode models.Mode, page int) ([]uint32, error)
}

// Persistence is the store surface the crawler reads targets from and
// writes pipeline outputs to.
type Persistence interface {
	RankingIDs(ctx context.Context) ([]uint32, error)
	SystemUserIDs(ctx context.Context) ([]uint32, error)
	BadgeCatalog(ctx context.Context) (*badge.Catalog, error)
	RarityTable(ctx context.Context) (models.RarityTable, error)
	MedalIDs(ctx context.Context) (map[uint16]struct{}, error)
	StoreMedals(ctx context.Context, medals []models.Medal) error
	StoreRarities(ctx context.Context, table models.RarityTable) error
	StoreBadges(ctx context.Context, catalog *badge.Catalog) error
	StoreRankings(ctx context.Context, records []models.RankingRecord) error
	StoreProgress(ctx context.Context, progress models.Progress) error
	StoreFinish(ctx context.Context, finish models.Finish) error
}

// Announcer receives progress and completion events.
type Announcer interface {
	Progress(ctx context.Context, p models.Progress)
	Finish(ctx context.Context, f models.Finish)
}

// Archiver snapshots ranking output for historical queries. May be nil.
type Archiver interface {
	SnapshotRankings(ctx context.Context, cycleID uuid.UUID, records []models.RankingRecord) error
}

type Crawler struct {
	api     API
	store   Persistence
	notify  Announcer
	archive Archiver
	logger  *zap.SugaredLogger

	// ExtraIDs are appended to the target set when the extra-badges
	// task is active.
	ExtraIDs []uint32

	// Debug truncates the target set to a handful of users.
	Debug bool
}

func New(api API, store Persistence, notify Announcer, archive Archiver, logger *zap.Logger) *Crawler {
	return &Crawler{
		api:     api,
		store:   store,
		notify:  notify,
		archive: archive,
		logger:  logger.Sugar(),
	}
}

// RunCycle executes one crawl cycle for the given task set.
func (c *Crawler) RunCycle(ctx context.Context, t task.Task) error {
	cycleID := uuid.New()
	started := time.Now()

	cyclesStarted.Inc()
	c.logger.Infow("Starting crawl cycle", "cycle", cycleID, "task", t.String())

	err := c.runCycle(ctx, cycleID, t)
	if err != nil {
		cyclesFailed.Inc()
		return err
	}

	cycleDuration.Observe(time.Since(started).Seconds())
	c.logger.Infow("Crawl cycle finished", "cycle", cycleID, "task", t.String(), "took", time.Since(started).Round(time.Second))

	return nil
}

func (c *Crawler) runCycle(ctx context.Context, cycleID uuid.UUID, t task.Task) error {
	medals, err := c.syncMedals(ctx, t)
	if err != nil {
		// The badge stage and the finish notification do not depend on
		// the medal catalog, so the cycle degrades instead of aborting.
		c.logger.Errorw("Medal stage failed, skipping medal, rarity and ranking stages",
			"cycle", cycleID, "error", err)
		t &^= task.Medals | task.Rarity | task.Ranking
		medals = nil
	}

	if !needsUsers(t) {
		c.finish(ctx, models.Finish{CycleID: cycleID, Task: t.String()})
		return nil
	}

	ids, err := c.gatherUserIDs(ctx, t)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		c.logger.Warnw("Empty target set, nothing to crawl", "cycle", cycleID)
		c.finish(ctx, models.Finish{CycleID: cycleID, Task: t.String()})
		return nil
	}

	catalog := badge.NewCatalog(c.logger)

	users, err := c.fetchAll(ctx, cycleID, t, ids, catalog)
	if err != nil {
		return err
	}

	// The badge write is delete-then-insert, so the fresh catalog must
	// absorb the stored one or edges of users outside this target set
	// would be lost.
	if t.Badges() || t.ExtraBadges() {
		stored, err := c.store.BadgeCatalog(ctx)
		if err != nil {
			return fmt.Errorf("load badge catalog: %w", err)
		}
		catalog.Merge(stored)
	}

	var handles []<-chan error

	// An all-failures fetch loop yields no users; overwriting the rarity
	// table with zero counts from that would destroy the previous
	// cycle's figures.
	if t.Rarity() && len(users) > 0 {
		table := logic.CalculateRarities(users, medals)
		// StoreMedals already completed in syncMedals, so the rarity
		// rows always reference a present medal catalog.
		handles = append(handles, c.spawn("store rarities", func() error {
			return c.store.StoreRarities(ctx, table)
		}))

		if t.Ranking() {
			handles = append(handles, c.storeRankings(ctx, cycleID, users, table)...)
		}
	} else if t.Ranking() && len(users) > 0 {
		table, err := c.store.RarityTable(ctx)
		if err != nil {
			return fmt.Errorf("load rarity table: %w", err)
		}
		handles = append(handles, c.storeRankings(ctx, cycleID, users, table)...)
	}

	if t.Badges() || t.ExtraBadges() {
		handles = append(handles, c.spawn("store badges", func() error {
			return c.store.StoreBadges(ctx, catalog)
		}))
	}

	for _, h := range handles {
		if err := <-h; err != nil {
			c.logger.Errorw("Background store failed", "cycle", cycleID, "error", err)
		}
	}

	c.finish(ctx, models.Finish{
		CycleID:        cycleID,
		Task:           t.String(),
		RequestedUsers: uint32(len(ids)),
	})

	return nil
}

// syncMedals refreshes the medal catalog when the medals task is active,
// or loads the stored catalog ids when only rarity needs them. The write
// is synchronous: rarity rows must never reference a medal that is not
// yet in the store.
func (c *Crawler) syncMedals(ctx context.Context, t task.Task) ([]models.Medal, error) {
	switch {
	case t.Medals():
		medals, err := c.api.Medals(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch medals: %w", err)
		}

		c.logger.Infow("Fetched medal catalog", "medals", len(medals))

		if err := c.store.StoreMedals(ctx, medals); err != nil {
			return nil, fmt.Errorf("store medals: %w", err)
		}

		return medals, nil

	case t.Rarity():
		ids, err := c.store.MedalIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("load medal ids: %w", err)
		}

		medals := make([]models.Medal, 0, len(ids))
		for id := range ids {
			medals = append(medals, models.Medal{ID: id})
		}

		return medals, nil
	}

	return nil, nil
}

// fetchAll runs the fetch loop over the target set. A user whose fetch
// fails is logged and skipped; the cycle keeps going.
func (c *Crawler) fetchAll(ctx context.Context, cycleID uuid.UUID, t task.Task, ids []uint32, catalog *badge.Catalog) ([]models.User, error) {
	window := eta.NewWindow()
	users := make([]models.User, 0, len(ids))
	collectBadges := t.Badges() || t.ExtraBadges()

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		user, err := c.fetchUser(ctx, id)
		if err != nil {
			fetchFailures.Inc()
			c.logger.Warnw("Skipping user after failed fetch", "user", id, "error", err)
			continue
		}

		usersFetched.Inc()

		switch u := user.(type) {
		case *models.Available:
			if collectBadges {
				for _, obs := range u.Badges {
					catalog.Push(u.ID, obs)
				}
			}
		case models.Restricted:
			usersRestricted.Inc()
		}

		users = append(users, user)
		window.Tick()

		if (i+1)%progressEvery == 0 || i+1 == len(ids) {
			c.reportProgress(ctx, models.Progress{
				CycleID:    cycleID,
				Task:       t.String(),
				Current:    i + 1,
				Total:      len(ids),
				ETASeconds: secondsPtr(window.Estimate(len(ids) - i - 1)),
			})
		}
	}

	return users, nil
}

// storeRankings dispatches the ranking write and, when an archive is
// configured, the snapshot write. Both handles are joined before the
// finish event like every other background store.
func (c *Crawler) storeRankings(ctx context.Context, cycleID uuid.UUID, users []models.User, table models.RarityTable) []<-chan error {
	records := make([]models.RankingRecord, 0, len(users))
	for _, user := range users {
		records = append(records, logic.NewRankingRecord(user, table))
	}

	var handles []<-chan error

	if c.archive != nil {
		handles = append(handles, c.spawn("archive rankings", func() error {
			return c.archive.SnapshotRankings(ctx, cycleID, records)
		}))
	}

	return append(handles, c.spawn("store rankings", func() error {
		return c.store.StoreRankings(ctx, records)
	}))
}

func (c *Crawler) reportProgress(ctx context.Context, p models.Progress) {
	if err := c.store.StoreProgress(ctx, p); err != nil {
		c.logger.Warnw("Failed to persist progress", "error", err)
	}

	c.notify.Progress(ctx, p)
}

func (c *Crawler) finish(ctx context.Context, f models.Finish) {
	if err := c.store.StoreFinish(ctx, f); err != nil {
		c.logger.Warnw("Failed to persist finish record", "error", err)
	}

	c.notify.Finish(ctx, f)
}

// spawn runs fn in the background and returns a handle carrying its
// result.
func (c *Crawler) spawn(name string, fn func() error) <-chan error {
	done := make(chan error, 1)

	go func() {
		c.logger.Debugw("Background task started", "name", name)
		done <- fn()
	}()

	return done
}

func needsUsers(t task.Task) bool {
	return t.Leaderboard() || t.Badges() || t.Rarity() || t.Ranking() || t.ExtraBadges()
}

func secondsPtr(e eta.Estimate) *uint64 {
	if s, ok := e.Seconds(); ok {
		return &s
	}

	return nil
}
