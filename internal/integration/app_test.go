package integration_test

import (
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-reservation/internal/app"
	"github.com/metinatakli/seat-reservation/internal/clock"
	"github.com/metinatakli/seat-reservation/internal/notifier"
	"github.com/metinatakli/seat-reservation/internal/repository"
	"github.com/metinatakli/seat-reservation/internal/seating"
	appvalidator "github.com/metinatakli/seat-reservation/internal/validator"
	"github.com/redis/go-redis/v9"
)

type TestApp struct {
	App     *app.Application
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Repo    *repository.PostgresSeatMapRepository
	Service *seating.Service
	Logger  *slog.Logger
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	clk := clock.NewSystem()
	repo := repository.NewPostgresSeatMapRepository(db)

	service := seating.NewService(
		repo,
		seating.WithPublisher(notifier.NewRedisNotifier(redisClient, clk)),
		seating.WithClock(clk),
		seating.WithLogger(logger),
		seating.WithMaxAttempts(cfg.MaxAttempts),
	)

	application := app.NewApp(
		cfg,
		logger,
		appvalidator.NewValidator(),
		service,
		seating.NewQueryService(repo),
	)

	return &TestApp{
		App:     application,
		DB:      db,
		Redis:   redisClient,
		Repo:    repo,
		Service: service,
		Logger:  logger,
	}, nil
}

func (a *TestApp) Close() {
	a.Redis.Close()
	a.DB.Close()
}
