package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"chainsched/app/handler"
	"chainsched/app/router"
	"chainsched/internal/model"
	"chainsched/internal/scheduler"
	"chainsched/internal/service"
	"chainsched/pkg/config"
	"chainsched/pkg/logger"
	redisstore "chainsched/pkg/store/redis"

	"github.com/gin-gonic/gin"
)

// Application manages the lifecycle of the entire application
type Application struct {
	// Infrastructure components
	config      *config.Config
	redisClient *redisstore.RedisClient
	fleetRepo   *redisstore.FleetRepository

	// Core scheduling
	registry *scheduler.Registry

	// Service layer
	scheduleService *service.ScheduleService
	ledgerService   *service.LedgerService

	// Handler layer
	scheduleHandler *handler.ScheduleHandler
	fleetHandler    *handler.FleetHandler
	ledgerHandler   *handler.LedgerHandler

	// HTTP server
	httpServer *http.Server
	ginEngine  *gin.Engine

	// Context management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewApplication creates a new Application instance
func NewApplication() *Application {
	ctx, cancel := context.WithCancel(context.Background())
	return &Application{ctx: ctx, cancel: cancel}
}

// Initialize initializes all application components
func (app *Application) Initialize() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"Configuration", app.initConfig},
		{"Logging", app.initLogger},
		{"Redis", app.initRedis},
		{"Scheduler Registry", app.initRegistry},
		{"Service Layer", app.initServices},
		{"Handler Layer", app.initHandlers},
		{"HTTP Server", app.initHTTPServer},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
		logger.Infof("%s initialized", step.name)
	}
	return nil
}

func (app *Application) initConfig() error {
	if err := config.Init(); err != nil {
		return err
	}
	app.config = config.GlobalConfig
	return nil
}

func (app *Application) initLogger() error {
	return logger.Init()
}

// initRedis connects the fleet store. An empty addr leaves it disabled;
// schedule requests must then supply their own candidate snapshots.
func (app *Application) initRedis() error {
	if app.config.Redis.Addr == "" {
		logger.Warnf("redis addr not configured, fleet store disabled")
		return nil
	}
	client, err := redisstore.NewRedisClient(app.config)
	if err != nil {
		return err
	}
	app.redisClient = client
	app.fleetRepo = redisstore.NewFleetRepository(client)
	return nil
}

func (app *Application) initRegistry() error {
	schedCfg := app.config.Scheduler
	app.registry = scheduler.NewRegistry(scheduler.Options{
		Alpha:         schedCfg.Alpha,
		Beta:          schedCfg.Beta,
		HistoryWindow: schedCfg.HistoryWindow,
		BlockSize:     schedCfg.BlockSize,
	})
	return nil
}

func (app *Application) initServices() error {
	var fleet service.FleetStore
	if app.fleetRepo != nil {
		fleet = app.fleetRepo
	}
	app.scheduleService = service.NewScheduleService(app.registry, fleet)
	app.ledgerService = service.NewLedgerService(app.registry)
	return nil
}

func (app *Application) initHandlers() error {
	capacity := app.defaultCapacity()
	app.scheduleHandler = handler.NewScheduleHandler(app.scheduleService, capacity)
	if app.fleetRepo != nil {
		app.fleetHandler = handler.NewFleetHandler(app.scheduleService, capacity)
	}
	app.ledgerHandler = handler.NewLedgerHandler(app.ledgerService)
	return nil
}

func (app *Application) initHTTPServer() error {
	if app.config.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	app.ginEngine = gin.New()

	r := router.NewRouter(app.scheduleHandler, app.fleetHandler, app.ledgerHandler)
	r.Setup(app.ginEngine)

	app.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.ginEngine,
	}
	return nil
}

func (app *Application) defaultCapacity() model.Resources {
	capCfg := app.config.Scheduler.VMCapacity
	return model.Resources{CPU: capCfg.CPU, Mem: capCfg.Mem, IO: capCfg.IO, BW: capCfg.BW}
}

// Start starts the HTTP server
func (app *Application) Start() error {
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		logger.Infof("HTTP server listening on %s", app.httpServer.Addr)
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown(timeout time.Duration) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	app.cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server shutdown error: %v", err)
	}

	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warnf("shutdown timeout, some tasks may not have completed")
	}

	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			logger.Errorf("redis close error: %v", err)
		}
	}

	logger.Sync()
	return nil
}
