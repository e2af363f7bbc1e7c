// Package archive writes per-cycle ranking snapshots to ClickHouse so
// historical trends survive the upserts in the relational store. The
// archive is optional; a nil *Archive silently does nothing.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/osumedals/crawler/internal/models"
)

type Archive struct {
	conn   driver.Conn
	logger *zap.SugaredLogger
}

func New(conn driver.Conn, logger *zap.Logger) *Archive {
	return &Archive{conn: conn, logger: logger.Sugar()}
}

// Open connects to ClickHouse and pings it.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Archive, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return New(conn, logger), nil
}

// SnapshotRankings batch-inserts the cycle's ranking rows keyed by cycle
// id and timestamp.
func (a *Archive) SnapshotRankings(ctx context.Context, cycleID uuid.UUID, records []models.RankingRecord) error {
	if a == nil || len(records) == 0 {
		return nil
	}

	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO crawler.ranking_snapshots (
			cycle_id, snapshot_at, user_id, name, country_code, restricted,
			total_pp, stdev_pp, stdev_acc, stdev_level,
			standard_pp, taiko_pp, ctb_pp, mania_pp,
			medal_count, badge_count
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare snapshot batch: %w", err)
	}

	now := time.Now()

	for _, r := range records {
		err := batch.Append(
			cycleID.String(),
			now,
			r.ID,
			r.Name,
			r.Country,
			r.Restricted,
			r.TotalPP,
			r.StdevPP,
			r.StdevAcc,
			r.StdevLevel,
			r.Standard.PP,
			r.Taiko.PP,
			r.Catch.PP,
			r.Mania.PP,
			r.MedalCount,
			r.BadgeCount,
		)
		if err != nil {
			a.logger.Warnw("Failed to append snapshot row", "user", r.ID, "error", err)
			continue
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send snapshot batch: %w", err)
	}

	a.logger.Infow("Archived ranking snapshot", "cycle", cycleID, "rows", len(records))

	return nil
}
