package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/flyerdrop/tournees-api/internal/api"
	"github.com/flyerdrop/tournees-api/internal/batch"
	"github.com/flyerdrop/tournees-api/internal/config"
	"github.com/flyerdrop/tournees-api/internal/dataset"
	"github.com/flyerdrop/tournees-api/internal/db"
	"github.com/flyerdrop/tournees-api/internal/geo"
	"github.com/flyerdrop/tournees-api/internal/logger"
	"github.com/flyerdrop/tournees-api/internal/repository"
	"github.com/flyerdrop/tournees-api/internal/repository/dao"
	"github.com/flyerdrop/tournees-api/internal/tourstatus"
)

const defaultConfigPath = "./cmd/app/config.yml"

var ErrBatchFailures = errors.New("status batch finished with failures")

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	return defaultConfigPath
}

// setup loads the configuration, installs the global logger and opens the
// database. Both entry points share it.
func setup() (*config.AppConfig, *gorm.DB, error) {
	conf, err := config.Load(configPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger -> %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database -> %w", err)
	}

	return conf, postgresDB, nil
}

func openRedis(conf *config.RedisConfig) (*redis.Client, error) {
	if url := os.Getenv("REDIS_URL"); url != "" {
		return db.OpenRedisWithURL(url)
	}

	return db.OpenRedis(conf)
}

func newEngine(conf *config.AppConfig) (*tourstatus.Engine, error) {
	loc, err := conf.API.Location()
	if err != nil {
		return nil, fmt.Errorf("conf.API.Location -> %w", err)
	}

	return tourstatus.NewEngine(loc), nil
}

func newStatusJob(postgresDB *gorm.DB, engine *tourstatus.Engine) *batch.StatusJob {
	repo := repository.NewParticipationRepository(dao.NewParticipationDAO(postgresDB))

	return batch.NewStatusJob(repo, engine, nil)
}

// newGeoFetcher returns nil when no geo API is configured. The returned
// closer releases the bbolt cache.
func newGeoFetcher(conf *config.AppConfig) (geo.Fetcher, func(), error) {
	if conf.Geo.BaseURL == "" {
		return nil, func() {}, nil
	}

	client := geo.NewClient(conf.Geo, zap.L())
	if conf.Cache.BoltPath == "" {
		return client, func() {}, nil
	}

	cached, err := geo.NewCachedClient(client, conf.Cache.BoltPath, conf.Cache.TTL)
	if err != nil {
		return nil, nil, fmt.Errorf("geo.NewCachedClient -> %w", err)
	}

	return cached, func() {
		if err := cached.Close(); err != nil {
			zap.L().Warn("failed to close geo cache", zap.Error(err))
		}
	}, nil
}

func Start() error {
	conf, postgresDB, err := setup()
	if err != nil {
		return err
	}

	redisClient, err := openRedis(conf.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize redis -> %w", err)
	}
	defer redisClient.Close()

	ds, err := dataset.Load(conf.Dataset.Path)
	if err != nil {
		return fmt.Errorf("failed to load dataset -> %w", err)
	}

	fetcher, closeGeo, err := newGeoFetcher(conf)
	if err != nil {
		return fmt.Errorf("failed to initialize geo client -> %w", err)
	}
	defer closeGeo()

	engine, err := newEngine(conf)
	if err != nil {
		return err
	}
	anchor, err := conf.Tours.AnchorDate()
	if err != nil {
		return fmt.Errorf("conf.Tours.AnchorDate -> %w", err)
	}
	schedule := tourstatus.NewSchedule(tourstatus.ScheduleConfig{
		Anchor:       anchor,
		IntervalDays: conf.Tours.IntervalDays,
		DurationDays: conf.Tours.DurationDays,
		WindowMonths: conf.Tours.WindowMonths,
	}, engine)

	job := newStatusJob(postgresDB, engine)
	scheduler, err := batch.NewScheduler(*conf.Scheduler, job, engine.Location())
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler -> %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	err = config.Watch(configPath(), func(updated *config.AppConfig) {
		if err := scheduler.Reload(*updated.Scheduler); err != nil {
			zap.L().Error("failed to reload scheduler", zap.Error(err))
		}
	}, func(err error) {
		zap.L().Warn("ignoring invalid config change", zap.Error(err))
	})
	if err != nil {
		zap.L().Warn("config hot reload disabled", zap.Error(err))
	}

	s := api.NewServer(conf, api.Dependencies{
		DB:       postgresDB,
		Redis:    redisClient,
		Geo:      fetcher,
		Dataset:  ds,
		Engine:   engine,
		Schedule: schedule,
		Batch:    job,
	})

	addr := ":" + s.Config.API.Port
	zap.L().Info(fmt.Sprintf("starting server at %v", addr))
	if err = s.Router.Run(addr); err != nil {
		return fmt.Errorf("failed to start the server -> %w", err)
	}

	return nil
}

// RunBatch runs the status job once. It returns ErrBatchFailures when at
// least one tour could not be updated.
func RunBatch(timeout time.Duration) error {
	conf, postgresDB, err := setup()
	if err != nil {
		return err
	}

	engine, err := newEngine(conf)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	summary, err := newStatusJob(postgresDB, engine).Run(ctx)
	if err != nil {
		return fmt.Errorf("status batch aborted -> %w", err)
	}
	if summary.HasFailures() {
		return fmt.Errorf("%w: %d of %d tours", ErrBatchFailures, summary.ToursFailed, summary.ToursScanned)
	}

	return nil
}
