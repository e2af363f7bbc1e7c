package crawler

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/osumedals/crawler/internal/badge"
	"github.com/osumedals/crawler/internal/models"
	"github.com/osumedals/crawler/internal/osuapi"
)

// fakeAPI serves canned users and leaderboard pages. Errors can be
// injected per (user, mode) and are consumed in FIFO order so a retry
// can be made to succeed.
type fakeAPI struct {
	mu sync.Mutex

	medals      []models.Medal
	medalsErr   error
	users       map[uint32]*osuapi.UserData
	notFound    map[uint32]bool
	modeErrors  map[string][]error
	leaderboard map[models.Mode][][]uint32
	pageErrors  map[string]error

	userCalls int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		users:       make(map[uint32]*osuapi.UserData),
		notFound:    make(map[uint32]bool),
		modeErrors:  make(map[string][]error),
		leaderboard: make(map[models.Mode][][]uint32),
		pageErrors:  make(map[string]error),
	}
}

func (f *fakeAPI) addUser(id uint32, pp float64) {
	rank := uint32(1000)
	f.users[id] = &osuapi.UserData{
		ID:       id,
		Username: fmt.Sprintf("player%d", id),
		Statistics: &osuapi.Statistics{
			PP:         pp,
			Playcount:  10000,
			GlobalRank: &rank,
		},
	}
}

func (f *fakeAPI) failOnce(id uint32, mode models.Mode, err error) {
	key := fmt.Sprintf("%d/%s", id, mode)
	f.modeErrors[key] = append(f.modeErrors[key], err)
}

func (f *fakeAPI) Medals(ctx context.Context) ([]models.Medal, error) {
	if f.medalsErr != nil {
		return nil, f.medalsErr
	}
	return f.medals, nil
}

func (f *fakeAPI) User(ctx context.Context, userID uint32, mode models.Mode) (*osuapi.UserData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.userCalls++

	key := fmt.Sprintf("%d/%s", userID, mode)
	if queued := f.modeErrors[key]; len(queued) > 0 {
		err := queued[0]
		f.modeErrors[key] = queued[1:]
		return nil, err
	}

	if f.notFound[userID] {
		return nil, osuapi.ErrNotFound
	}

	data, ok := f.users[userID]
	if !ok {
		return nil, osuapi.ErrNotFound
	}

	return data, nil
}

func (f *fakeAPI) LeaderboardPage(ctx context.Context, mode models.Mode, page int) ([]uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.pageErrors[fmt.Sprintf("%s/%d", mode, page)]; err != nil {
		return nil, err
	}

	pages := f.leaderboard[mode]
	if page > len(pages) {
		return nil, nil
	}

	return pages[page-1], nil
}

// fakeStore records every call in arrival order so tests can assert
// sequencing across goroutines.
type fakeStore struct {
	mu    sync.Mutex
	calls []string

	rankingIDs   []uint32
	systemIDs    []uint32
	rarities     models.RarityTable
	medalIDs     map[uint16]struct{}
	storedBadges *badge.Catalog

	storedMedals   []models.Medal
	storedRarities models.RarityTable
	storedRankings []models.RankingRecord
	storedCatalog  *badge.Catalog
	progress       []models.Progress
	finishes       []models.Finish
}

func (f *fakeStore) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeStore) callIndex(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.calls {
		if c == call {
			return i
		}
	}
	return -1
}

func (f *fakeStore) RankingIDs(ctx context.Context) ([]uint32, error) {
	f.record("RankingIDs")
	return f.rankingIDs, nil
}

func (f *fakeStore) SystemUserIDs(ctx context.Context) ([]uint32, error) {
	f.record("SystemUserIDs")
	return f.systemIDs, nil
}

func (f *fakeStore) BadgeCatalog(ctx context.Context) (*badge.Catalog, error) {
	f.record("BadgeCatalog")
	if f.storedBadges != nil {
		return f.storedBadges, nil
	}
	return badge.NewCatalog(nopLogger()), nil
}

func (f *fakeStore) RarityTable(ctx context.Context) (models.RarityTable, error) {
	f.record("RarityTable")
	return f.rarities, nil
}

func (f *fakeStore) MedalIDs(ctx context.Context) (map[uint16]struct{}, error) {
	f.record("MedalIDs")
	return f.medalIDs, nil
}

func (f *fakeStore) StoreMedals(ctx context.Context, medals []models.Medal) error {
	f.record("StoreMedals")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storedMedals = medals
	return nil
}

func (f *fakeStore) StoreRarities(ctx context.Context, table models.RarityTable) error {
	f.record("StoreRarities")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storedRarities = table
	return nil
}

func (f *fakeStore) StoreBadges(ctx context.Context, catalog *badge.Catalog) error {
	f.record("StoreBadges")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storedCatalog = catalog
	return nil
}

func (f *fakeStore) StoreRankings(ctx context.Context, records []models.RankingRecord) error {
	f.record("StoreRankings")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storedRankings = records
	return nil
}

func (f *fakeStore) StoreProgress(ctx context.Context, progress models.Progress) error {
	f.record("StoreProgress")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, progress)
	return nil
}

func (f *fakeStore) StoreFinish(ctx context.Context, finish models.Finish) error {
	f.record("StoreFinish")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishes = append(f.finishes, finish)
	return nil
}

type fakeNotify struct {
	mu       sync.Mutex
	progress []models.Progress
	finishes []models.Finish
}

func (f *fakeNotify) Progress(ctx context.Context, p models.Progress) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, p)
}

func (f *fakeNotify) Finish(ctx context.Context, fin models.Finish) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishes = append(f.finishes, fin)
}

type fakeArchive struct {
	mu      sync.Mutex
	cycles  []uuid.UUID
	records [][]models.RankingRecord
}

func (f *fakeArchive) SnapshotRankings(ctx context.Context, cycleID uuid.UUID, records []models.RankingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cycles = append(f.cycles, cycleID)
	f.records = append(f.records, records)
	return nil
}
