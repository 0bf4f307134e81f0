package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"casetrack/cmd/internal/config"
	"casetrack/cmd/internal/domain/policy"
	"casetrack/cmd/internal/domain/sqlite"
	"casetrack/cmd/internal/domain/sqlite/repository"
	"casetrack/cmd/internal/domain/workflow"
	"casetrack/cmd/internal/http/handler"
	appmiddleware "casetrack/cmd/internal/http/middleware"
	"casetrack/cmd/internal/infrastructure/aws/storage"
	"casetrack/cmd/internal/infrastructure/aws/websocket"
	"casetrack/cmd/internal/metrics"
	"casetrack/cmd/internal/migration"
	"casetrack/cmd/internal/service"
	"casetrack/cmd/internal/service/jobs"
	"casetrack/cmd/internal/utils"
	"casetrack/cmd/internal/utils/uid"
	"casetrack/cmd/internal/utils/validators"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("unable to load config: %v", err)
	}
	log.SetLevel(cfg.LogLevel)

	uid.Init(cfg.MachineID)
	validate := validators.New()
	m := metrics.New(prometheus.DefaultRegisterer)

	// Init SQLite
	db, err := sqlite.Init(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("unable to open database: %v", err)
	}

	// Getting repos
	userRepo := repository.NewUserRepository(db)
	connRepo := repository.NewConnectionRepository(db)
	caseStatusRepo := repository.NewCaseStatusRepository(db)
	historyRepo := repository.NewStatusHistoryRepository(db)
	processRepo := repository.NewIndividualProcessRepository(db)
	personRepo := repository.NewPersonRepository(db)
	collectiveRepo := repository.NewCollectiveProcessRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	statusTx := newStatusTx(db)

	pusher := newPusher(ctx, cfg)
	archive := newArchive(ctx, cfg)

	// Getting services
	workflowPolicy := policy.NewWorkflowPolicy()
	machine := workflow.NewHolder(nil)

	wsService := service.NewWebSocketService(connRepo, pusher)
	activityService := service.NewActivityService(activityRepo, workflowPolicy, m, cfg.ActivityBuffer)
	changer := service.NewStatusChanger(statusTx, caseStatusRepo, machine, activityService, wsService, m)
	catalogService := service.NewCaseStatusService(caseStatusRepo, machine, activityService, wsService, workflowPolicy, validate)
	historyService := service.NewStatusHistoryService(historyRepo, processRepo, userRepo, changer, workflowPolicy, validate)
	caseService := service.NewCaseService(personRepo, processRepo, collectiveRepo, changer, workflowPolicy, validate)
	bulkService := service.NewBulkService(processRepo, caseService, changer, workflowPolicy, m, validate)
	userService := service.NewUserService(userRepo, workflowPolicy)

	runner := migration.NewRunner(db, m, migration.Default(archive)...)
	migrationService := service.NewMigrationService(runner, catalogService, workflowPolicy)

	if cfg.RunMigrations {
		report, err := runner.Run()
		if err != nil {
			log.Fatalf("unable to run migrations: %v", err)
		}
		log.Infof("migrations: %d applied, %d already done", len(report.Applied), len(report.Skipped))
	}

	if err := catalogService.ReloadMachine(); err != nil {
		log.Fatalf("unable to build workflow from catalog: %v", err)
	}

	if err := utils.InitJWKS(cfg.JWKSURL); err != nil {
		log.Fatalf("unable to init JWKS: %v", err)
	}

	// Getting handlers
	r := &routes{
		catalog: handler.NewCaseStatusDefault(catalogService),
		history: handler.NewHistoryDefault(historyService),
		cases:   handler.NewCaseDefault(caseService),
		bulk:    handler.NewBulkDefault(bulkService),
		admin:   handler.NewAdminDefault(activityService, migrationService),
		users:   handler.NewUserDefault(userService),
		ws:      handler.NewWSDefault(wsService),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("2M"))

	auth := appmiddleware.NewAuthMiddleware(&appmiddleware.AuthMiddlewareConfig{UserRepo: userRepo})
	registerRoutes(e, auth, r)

	// Background jobs
	activityWorker := jobs.NewActivityWorker(activityService)
	connCleaner := jobs.NewConnectionCleaner(wsService)
	auditor := jobs.NewActiveStatusAuditor(historyRepo, statusTx, activityService, m, cfg.IntegritySchedule)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		activityWorker.Start(gctx)
		return nil
	})
	g.Go(func() error {
		connCleaner.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return auditor.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Errorf("server stopped: %v", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func newPusher(ctx context.Context, cfg *config.Config) websocket.Pusher {
	if cfg.WSGatewayEndpoint == "" {
		log.Warn("WS_GATEWAY_ENDPOINT not set, realtime events are disabled")
		return websocket.DiscardPusher{}
	}

	pusher, err := websocket.NewAWSPusher(ctx, cfg.WSGatewayEndpoint, cfg.AWSRegion)
	if err != nil {
		log.Fatalf("unable to init websocket pusher: %v", err)
	}
	return pusher
}

// newArchive returns nil when no bucket is configured; archived data then
// only lands in the activity log.
func newArchive(ctx context.Context, cfg *config.Config) migration.ArchiveSink {
	if cfg.ArchiveBucket == "" {
		return nil
	}

	client, err := storage.NewArchiveStore(ctx, cfg.AWSRegion, cfg.ArchiveBucket)
	if err != nil {
		log.Fatalf("unable to init archive client: %v", err)
	}
	return client
}
