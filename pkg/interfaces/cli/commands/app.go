package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/6thd/wardah-process-costing-sub007/pkg/application/services/bom"
	"github.com/6thd/wardah-process-costing-sub007/pkg/application/services/costing"
	"github.com/6thd/wardah-process-costing-sub007/pkg/application/services/inventory"
	"github.com/6thd/wardah-process-costing-sub007/pkg/application/services/manufacturing"
	"github.com/6thd/wardah-process-costing-sub007/pkg/application/services/stagecost"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
	"github.com/6thd/wardah-process-costing-sub007/pkg/infrastructure/cache"
	"github.com/6thd/wardah-process-costing-sub007/pkg/infrastructure/config"
	"github.com/6thd/wardah-process-costing-sub007/pkg/infrastructure/events"
	"github.com/6thd/wardah-process-costing-sub007/pkg/infrastructure/logging"
	"github.com/6thd/wardah-process-costing-sub007/pkg/infrastructure/repositories/csv"
	"github.com/6thd/wardah-process-costing-sub007/pkg/infrastructure/repositories/memory"
	"github.com/6thd/wardah-process-costing-sub007/pkg/infrastructure/repositories/sqlstore"
	"github.com/6thd/wardah-process-costing-sub007/pkg/interfaces/cli/output"
)

// ErrNoDataSource is returned when a command has neither a scenario nor a
// database to read from
var ErrNoDataSource = errors.New("no data source: pass --scenario or configure a database driver")

// Options are the persistent flags shared by every command
type Options struct {
	ConfigPath string
	Scenario   string
	Tenant     string
	Format     string
	LogLevel   string
	Version    string
}

// storageMode says where a command may read its data from
type storageMode int

const (
	// scenarioOrDatabase reads a CSV scenario when one is given, else the configured database
	scenarioOrDatabase storageMode = iota
	// databaseOnly always uses the configured database
	databaseOnly
)

// store is every repository contract; the memory and SQL stores both satisfy it
type store interface {
	repositories.ItemRepository
	repositories.BOMRepository
	repositories.InventoryRepository
	repositories.OrderRepository
	repositories.StageCostRepository
	repositories.RoutingRepository
}

// App wires configuration, storage and services for one command run
type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	Tenant   entities.TenantID
	Renderer *output.Renderer

	BOMs         *bom.BOMService
	Explosion    *bom.ExplosionService
	Trees        *bom.TreeService
	Costs        *costing.CostRollupService
	Reservations *inventory.ReservationService
	Orders       *manufacturing.OrderService
	Stages       *stagecost.Aggregator

	store  store
	sql    *sqlstore.Store
	redis  *redis.Client
	events *events.InMemoryEventStore
}

// newApp loads configuration, opens storage and builds the services
func newApp(ctx context.Context, opts Options, mode storageMode, stdout, stderr io.Writer) (*App, error) {
	cfg, _, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = config.LogLevel(opts.LogLevel)
	}

	log := logging.New(logging.Config{
		Level:   string(cfg.Logging.Level),
		Format:  string(cfg.Logging.Format),
		Service: "bomengine",
		Version: opts.Version,
		Output:  stderr,
	})

	format, err := output.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	tenant := entities.TenantID(cfg.Tenant.Default)
	if opts.Tenant != "" {
		tenant = entities.TenantID(opts.Tenant)
	}

	app := &App{
		Config:   cfg,
		Log:      log,
		Tenant:   tenant,
		Renderer: output.NewRenderer(stdout, output.Config{Format: format, Precision: cfg.Costing.Precision}),
	}

	if err := app.openStorage(ctx, opts, mode); err != nil {
		app.Close()
		return nil, err
	}
	app.buildServices(ctx)
	return app, nil
}

func (a *App) openStorage(ctx context.Context, opts Options, mode storageMode) error {
	if mode == scenarioOrDatabase && opts.Scenario != "" {
		scenario, err := csv.NewLoader().LoadScenario(opts.Scenario)
		if err != nil {
			return err
		}
		mem := memory.NewStore()
		if err := scenario.Seed(ctx, a.Tenant, mem); err != nil {
			return err
		}
		a.store = mem
		a.Log.Debug().
			Str("scenario", opts.Scenario).
			Int("items", len(scenario.Items)).
			Int("boms", len(scenario.Headers)).
			Msg("Scenario loaded")
		return nil
	}

	if a.Config.Storage.Driver == config.DriverMemory {
		return ErrNoDataSource
	}
	db, err := sqlstore.Open(ctx, a.Config.Storage, a.Log)
	if err != nil {
		return err
	}
	a.sql = db
	a.store = db
	return nil
}

func (a *App) buildServices(ctx context.Context) {
	a.events = events.NewInMemoryEventStore(a.Log)

	retry := inventory.RetryPolicy{
		MaxRetries: a.Config.Reservation.MaxRetries,
		Backoff:    a.Config.Reservation.RetryBackoff,
	}

	a.Explosion = bom.NewExplosionService(a.store, a.store, a.Log)
	a.Trees = bom.NewTreeService(a.store, a.store, a.treeCache(ctx), a.Log)
	a.BOMs = bom.NewBOMService(a.store, a.store, a.events, a.Log)
	a.Reservations = inventory.NewReservationService(a.store, a.store, a.events, retry, a.Log)
	a.Orders = manufacturing.NewOrderService(a.store, a.store, a.Explosion, a.Reservations, a.events, a.Log)
	a.Stages = stagecost.NewAggregator(a.store, a.store, a.Log)
	a.Costs = costing.NewCostRollupService(
		a.Explosion,
		costing.NewRoutingCostCalculator(a.store),
		stagecost.NewActualCostAdapter(a.store, a.Stages),
		a.Log,
	)

	if err := a.events.Subscribe(events.BOMEditEvents, events.NewTreeInvalidationHandler(a.Trees)); err != nil {
		a.Log.Warn().Err(err).Msg("Tree invalidation not subscribed")
	}
}

// treeCache returns the Redis tree cache when enabled and reachable, else
// a process-local one
func (a *App) treeCache(ctx context.Context) bom.TreeCache {
	rc := a.Config.Redis
	if !rc.Enabled {
		return bom.NewMemoryTreeCache(0)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		a.Log.Warn().Err(err).Str("addr", rc.Addr).Msg("Redis unavailable, using in-process tree cache")
		client.Close()
		return bom.NewMemoryTreeCache(0)
	}
	a.redis = client
	return cache.NewRedisTreeCache(client, rc.TTL, a.Log)
}

// SQLStore returns the database store, failing when none is configured
func (a *App) SQLStore() (*sqlstore.Store, error) {
	if a.sql == nil {
		return nil, ErrNoDataSource
	}
	return a.sql, nil
}

// Close releases the database and Redis connections
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.sql != nil {
		errs = append(errs, a.sql.Close())
	}
	return errors.Join(errs...)
}
