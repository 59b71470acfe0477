package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/adlnet/edlm-portal-backend/internal/data/db"
	httpserver "github.com/adlnet/edlm-portal-backend/internal/http"
	"github.com/adlnet/edlm-portal-backend/internal/observability"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/envutil"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *httpserver.Server
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics

	dbService    *db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"), envutil.String("LOG_LEVEL", "debug"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig()
	if err != nil {
		log.Sync()
		return nil, err
	}
	if mode := strings.ToLower(envutil.String("LOG_MODE", "")); mode == "prod" || mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	otelShutdown := observability.InitOTel(context.Background(), log, cfg.Otel)

	dbService, err := db.New(log, cfg.DB)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	theDB := dbService.DB()
	if err := db.AutoMigrateAll(theDB); err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	clients, err := wireClients(log, cfg, nil)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	a := build(log, theDB, cfg, clients, observability.Init())
	a.dbService = dbService
	a.otelShutdown = otelShutdown
	return a, nil
}

// build wires everything above the database and the upstream clients.
func build(log *logger.Logger, theDB *gorm.DB, cfg Config, clients Clients, metrics *observability.Metrics) *App {
	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients)
	handlerset := wireHandlers(theDB, log, serviceset)
	middleware := wireMiddleware(log, serviceset)
	server := httpserver.NewServer(":"+cfg.Port, routerConfig(log, cfg, metrics, handlerset, middleware))

	return &App{
		Log:      log,
		DB:       theDB,
		Server:   server,
		Cfg:      cfg,
		Repos:    reposet,
		Clients:  clients,
		Services: serviceset,
		Metrics:  metrics,
	}
}

// Handler exposes the router, mostly for tests.
func (a *App) Handler() http.Handler {
	return a.Server.Engine
}

// Start launches background collectors. Calling it twice is a no-op.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.Metrics.StartCollectors(ctx, a.Log, a.DB, a.Clients.Redis)
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Server listening", "port", a.Cfg.Port)
	return a.Server.Run()
}

// Shutdown drains in-flight requests, then releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil {
		return nil
	}
	err := a.Server.Shutdown(ctx)
	a.Close()
	if a.otelShutdown != nil {
		if serr := a.otelShutdown(ctx); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.dbService != nil {
		_ = a.dbService.Close()
		a.dbService = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
