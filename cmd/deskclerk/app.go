package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	// Database drivers selected by config.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/deskclerk/deskclerk/internal/assistant"
	"github.com/deskclerk/deskclerk/internal/config"
	"github.com/deskclerk/deskclerk/internal/demo"
	"github.com/deskclerk/deskclerk/internal/schema"
	"github.com/deskclerk/deskclerk/internal/store"
	"github.com/deskclerk/deskclerk/internal/tools"
	"github.com/deskclerk/deskclerk/internal/view"
)

// app is the wired-together application every command starts from
type app struct {
	config     *config.Config
	logger     *zap.Logger
	catalog    *schema.Catalog
	store      *store.Store
	tracker    *view.Tracker
	hub        *view.Hub
	dispatcher *tools.Dispatcher
}

// newApp loads configuration and wires the sample universe, the store, the
// view hub, and the dispatcher. withHub controls whether a WebSocket hub is
// started; the stdio transport and one-shot commands have no UI to talk to.
func newApp(withHub bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return nil, err
	}

	catalog := schema.NewCatalog(demo.Universe())

	st, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &app{
		config:  cfg,
		logger:  logger,
		catalog: catalog,
		store:   st,
		tracker: view.NewTracker(),
	}

	opts := []tools.DispatcherOption{
		tools.WithLogger(logger),
		tools.WithViewSource(a.tracker),
	}
	if withHub {
		a.hub = view.NewHub(a.tracker, logger)
		opts = append(opts, tools.WithNotifier(a.hub))
	}

	a.dispatcher = tools.NewDispatcher(catalog, st, opts...)
	return a, nil
}

func (a *app) close() {
	if a.hub != nil {
		a.hub.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	_ = a.logger.Sync()
}

// history builds the conversation history store the config asks for
func (a *app) history() assistant.HistoryStore {
	if a.config.History.Backend == "redis" {
		hc := assistant.DefaultRedisHistoryConfig(a.config.History.RedisAddr)
		hc.MaxTurns = a.config.Assistant.HistoryTurns
		if a.config.History.TTLMinutes > 0 {
			hc.TTL = time.Duration(a.config.History.TTLMinutes) * time.Minute
		}
		return assistant.NewRedisHistory(hc)
	}
	return assistant.NewMemoryHistory(a.config.Assistant.HistoryTurns)
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}

	var zc zap.Config
	if cfg.Log.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	// stdout belongs to the MCP stdio framing; everything else goes to
	// stderr.
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}

func openStore(cfg *config.Config, logger *zap.Logger) (*store.Store, error) {
	driver := "sqlite3"
	if cfg.Database.Driver == "postgres" {
		driver = "pgx"
	}

	// store.Open derives the dialect from the driver name.
	st, err := store.Open(driver, cfg.DatabaseURL(), store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return st, nil
}
