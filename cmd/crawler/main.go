package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/osumedals/crawler/internal/archive"
	"github.com/osumedals/crawler/internal/config"
	"github.com/osumedals/crawler/internal/crawler"
	"github.com/osumedals/crawler/internal/notify"
	"github.com/osumedals/crawler/internal/osuapi"
	"github.com/osumedals/crawler/internal/server"
	"github.com/osumedals/crawler/internal/store"
	"github.com/osumedals/crawler/internal/task"
)

type idList []uint32

func (l *idList) String() string {
	parts := make([]string, len(*l))
	for i, id := range *l {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ",")
}

func (l *idList) Set(value string) error {
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid user id %q", value)
	}
	*l = append(*l, uint32(id))
	return nil
}

func main() {
	var (
		taskFlag     = flag.String("task", "", "run a single task set once and exit (e.g. \"default\", \"full\", \"medals,badges\")")
		scheduleFlag = flag.String("schedule", "", "comma-separated task sets to run in rotation")
		interval     = flag.Int("interval", 12, "hours between scheduled runs")
		initialDelay = flag.Int("initial-delay", 0, "minutes to wait before the first run")
		debug        = flag.Bool("debug", false, "crawl only a handful of users")
		quiet        = flag.Bool("quiet", false, "log warnings and errors only")
		extra        idList
	)
	flag.Var(&extra, "extra", "extra user id for the badge crawl, repeatable")
	flag.Parse()

	// .env is optional, real deployments use the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := buildLogger(*quiet)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	schedule, runOnce, err := resolveSchedule(*taskFlag, *scheduleFlag)
	if err != nil {
		logger.Sugar().Fatalw("Bad task flags", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, schedule, runOnce, runOptions{
		interval:     time.Duration(*interval) * time.Hour,
		initialDelay: time.Duration(*initialDelay) * time.Minute,
		debug:        *debug,
		extraIDs:     extra,
	}); err != nil {
		logger.Sugar().Fatalw("Crawler exited", "error", err)
	}
}

type runOptions struct {
	interval     time.Duration
	initialDelay time.Duration
	debug        bool
	extraIDs     []uint32
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, schedule task.Schedule, runOnce bool, opts runOptions) error {
	sugar := logger.Sugar()

	st, pool, err := store.Connect(ctx, cfg.PostgresURL, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	clientID, err := strconv.Atoi(cfg.ClientID)
	if err != nil {
		return fmt.Errorf("invalid OSU_CLIENT_ID: %w", err)
	}

	api := osuapi.NewClient(osuapi.ClientConfig{
		ClientID:          clientID,
		ClientSecret:      cfg.ClientSecret,
		RequestsPerSecond: float64(cfg.RequestsPerSecond),
		Burst:             cfg.RequestBurst,
		Timeout:           cfg.RequestTimeout,
		Logger:            logger,
	})

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		rdb = redis.NewClient(redisOpts)
		defer rdb.Close()
	}

	notifier := notify.New(cfg.WebhookURL, rdb, logger)

	var snapshots crawler.Archiver
	if cfg.ClickHouseURL != "" {
		arch, err := archive.Open(ctx, cfg.ClickHouseURL, logger)
		if err != nil {
			// history is a nice-to-have, the crawl itself is not
			sugar.Warnw("ClickHouse unavailable, snapshots disabled", "error", err)
		} else {
			snapshots = arch
		}
	}

	c := crawler.New(api, st, notifier, snapshots, logger)
	c.Debug = opts.debug
	c.ExtraIDs = opts.extraIDs

	admin := server.New(pool, notifier, logger)
	go func() {
		if err := admin.ListenAndServe(ctx, cfg.AdminAddr); err != nil {
			sugar.Errorw("Admin server failed", "error", err)
		}
	}()

	if opts.initialDelay > 0 {
		sugar.Infow("Waiting before first run", "delay", opts.initialDelay)
		select {
		case <-time.After(opts.initialDelay):
		case <-ctx.Done():
			return nil
		}
	}

	if runOnce {
		return c.RunCycle(ctx, schedule[0])
	}

	sugar.Infow("Starting schedule loop", "schedule", schedule.String(), "interval", opts.interval)

	for i := 0; ; i++ {
		t := schedule[i%len(schedule)]

		if err := c.RunCycle(ctx, t); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			sugar.Errorw("Crawl cycle failed", "task", t.String(), "error", err)
		}

		select {
		case <-time.After(opts.interval):
		case <-ctx.Done():
			return nil
		}
	}
}

// resolveSchedule turns the -task / -schedule flags into the run plan.
// With neither flag set the crawler loops over the default task set.
func resolveSchedule(taskFlag, scheduleFlag string) (task.Schedule, bool, error) {
	switch {
	case taskFlag != "" && scheduleFlag != "":
		return nil, false, fmt.Errorf("-task and -schedule are mutually exclusive")

	case taskFlag != "":
		t, err := task.Parse(taskFlag)
		if err != nil {
			return nil, false, err
		}
		return task.Schedule{t}, true, nil

	case scheduleFlag != "":
		s, err := task.ParseSchedule(scheduleFlag)
		if err != nil {
			return nil, false, err
		}
		if len(s) == 0 {
			return nil, false, fmt.Errorf("empty schedule")
		}
		return s, false, nil
	}

	return task.Schedule{task.Default}, false, nil
}

func buildLogger(quiet bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if quiet {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}
