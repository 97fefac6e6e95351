package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/go-playground/validator/v10"
	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxstd "github.com/jackc/pgx/v5/stdlib"
	"github.com/metinatakli/seat-reservation/internal/clock"
	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/metinatakli/seat-reservation/internal/notifier"
	"github.com/metinatakli/seat-reservation/internal/queue"
	"github.com/metinatakli/seat-reservation/internal/repository"
	"github.com/metinatakli/seat-reservation/internal/seating"
	"github.com/metinatakli/seat-reservation/internal/sweeper"
	appvalidator "github.com/metinatakli/seat-reservation/internal/validator"
	"github.com/metinatakli/seat-reservation/internal/vcs"
	"github.com/metinatakli/seat-reservation/migrations"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

var (
	version = vcs.Version()
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Application struct {
	config    Config
	logger    *slog.Logger
	validator *validator.Validate

	seating *seating.Service
	queries *seating.QueryService
}

type Config struct {
	Port             int
	Env              string
	Storage          string
	OtelCollectorUrl string
	MaxAttempts      int
	DB               DBConfig
	Redis            RedisConfig
	AMQP             AMQPConfig
	Sweeper          SweeperConfig
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleTime  time.Duration
}

type RedisConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

type AMQPConfig struct {
	URL             string
	EventsExchange  string
	ExpirationQueue string
	Prefetch        int
}

type SweeperConfig struct {
	Enabled   bool
	HoldTTL   time.Duration
	Interval  time.Duration
	BatchSize int
}

func Run() error {
	var cfg Config

	flag.IntVar(&cfg.Port, "port", 3000, "server port")
	flag.StringVar(&cfg.Env, "env", "dev", "Environment (dev|staging|prod)")
	flag.StringVar(&cfg.Storage, "storage", StoragePostgres, "Seat map storage (postgres|memory)")
	flag.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", "", "OpenTelemetry collector gRPC endpoint")
	flag.IntVar(&cfg.MaxAttempts, "max-attempts", 3, "Attempts per seat map command before an edit conflict is returned")

	flag.StringVar(&cfg.DB.DSN, "db-dsn", "", "PostgreSQL DSN")
	flag.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")

	flag.StringVar(&cfg.Redis.URL, "redis-url", "", "Redis address for live seat map notifications")
	flag.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	flag.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	flag.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")

	flag.StringVar(&cfg.AMQP.URL, "amqp-url", "", "RabbitMQ URL")
	flag.StringVar(&cfg.AMQP.EventsExchange, "amqp-events-exchange", queue.DefaultEventsExchange, "Exchange seat map events are published to")
	flag.StringVar(&cfg.AMQP.ExpirationQueue, "amqp-expiration-queue", queue.DefaultExpirationQueue, "Queue reservation expiry notices are consumed from")
	flag.IntVar(&cfg.AMQP.Prefetch, "amqp-prefetch", 50, "RabbitMQ consumer prefetch count")

	flag.BoolVar(&cfg.Sweeper.Enabled, "sweeper", true, "Release expired holds in process")
	flag.DurationVar(&cfg.Sweeper.HoldTTL, "hold-ttl", 15*time.Minute, "How long a seat hold lasts before it expires")
	flag.DurationVar(&cfg.Sweeper.Interval, "sweep-interval", 30*time.Second, "Time between expiry sweeps")
	flag.IntVar(&cfg.Sweeper.BatchSize, "sweep-batch-size", 100, "Maximum holds released per sweep")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	shutdownTelemetry, err := InitTelemetry(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	logger = NewLogger(cfg)

	clk := clock.NewSystem()

	var (
		repo   domain.SeatMapRepository
		finder domain.StaleHoldFinder
	)

	switch cfg.Storage {
	case StoragePostgres:
		db, err := NewDatabasePool(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		err = RunMigrations(cfg.DB.DSN)
		if err != nil {
			return err
		}

		pgRepo := repository.NewPostgresSeatMapRepository(db)
		repo, finder = pgRepo, pgRepo
	case StorageMemory:
		memRepo := repository.NewMemorySeatMapRepository()
		repo, finder = memRepo, memRepo
	default:
		return fmt.Errorf("unknown storage %q", cfg.Storage)
	}

	var publishers notifier.Fanout

	if cfg.Redis.URL != "" {
		redisClient, err := NewRedisClient(cfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		publishers = append(publishers, notifier.NewRedisNotifier(redisClient, clk))
	}

	if cfg.AMQP.URL != "" {
		amqpPublisher, err := queue.NewPublisher(cfg.AMQP.URL, cfg.AMQP.EventsExchange, clk)
		if err != nil {
			return err
		}
		defer amqpPublisher.Close()

		publishers = append(publishers, amqpPublisher)
	}

	service := seating.NewService(
		repo,
		seating.WithPublisher(publishers),
		seating.WithClock(clk),
		seating.WithLogger(logger),
		seating.WithMaxAttempts(cfg.MaxAttempts),
	)

	app := NewApp(cfg, logger, appvalidator.NewValidator(), service, seating.NewQueryService(repo))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Sweeper.Enabled {
		s := sweeper.New(finder, service, clk, logger,
			sweeper.WithHoldTTL(cfg.Sweeper.HoldTTL),
			sweeper.WithInterval(cfg.Sweeper.Interval),
			sweeper.WithBatchSize(cfg.Sweeper.BatchSize),
		)
		g.Go(func() error { return s.Run(ctx) })
	}

	if cfg.AMQP.URL != "" {
		consumer := queue.NewConsumer(queue.ConsumerConfig{
			URL:      cfg.AMQP.URL,
			Queue:    cfg.AMQP.ExpirationQueue,
			Prefetch: cfg.AMQP.Prefetch,
		}, service, logger)

		g.Go(func() error {
			err := consumer.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error { return app.serve(ctx) })

	return g.Wait()
}

func NewApp(
	cfg Config,
	logger *slog.Logger,
	validator *validator.Validate,
	service *seating.Service,
	queries *seating.QueryService) *Application {

	return &Application{
		config:    cfg,
		logger:    logger,
		validator: validator,
		seating:   service,
		queries:   queries,
	}
}

func NewRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	if err := redisotel.InstrumentTracing(rdb); err != nil {
		rdb.Close()
		return nil, err
	}

	if err := redisotel.InstrumentMetrics(rdb); err != nil {
		rdb.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := rdb.Ping(ctx).Err()
	if err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

func NewDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// RunMigrations brings the schema up to date from the embedded migration files.
func RunMigrations(dsn string) error {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	db := pgxstd.OpenDB(*config.ConnConfig)
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("pgx migration driver error: %w", err)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migration source error: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx", driver)
	if err != nil {
		return fmt.Errorf("migrate.New error: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

func (app *Application) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	shutdownError := make(chan error)

	go func() {
		<-ctx.Done()

		app.logger.Info("shutting down server", "reason", context.Cause(ctx))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		shutdownError <- srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env, "storage", app.config.Storage)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}
