package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medprep_backend/internal/config"
	"medprep_backend/internal/controller"
	"medprep_backend/internal/repository"
	"medprep_backend/internal/service"
	"medprep_backend/internal/util"
	"medprep_backend/pkg/configwatcher"
	"medprep_backend/pkg/database"
	"medprep_backend/pkg/logger"
	"medprep_backend/pkg/monitoring"
	"medprep_backend/pkg/security"
	"medprep_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
	tracer   *sdktrace.TracerProvider
}

type repositories struct {
	user        *repository.UserRepository
	question    *repository.QuestionRepository
	test        *repository.TestRepository
	attempt     *repository.AttemptRepository
	bookmark    *repository.BookmarkRepository
	patientCase *repository.CaseRepository
	analytics   *repository.AnalyticsRepository
	snapshot    *repository.SnapshotRepository
	leaderboard *repository.LeaderboardRepository
}

type services struct {
	auth      *service.AuthService
	user      *service.UserService
	question  *service.QuestionService
	test      *service.TestService
	attempt   *service.AttemptService
	bookmark  *service.BookmarkService
	analytics *service.AnalyticsService
	dashboard *service.DashboardService
	cases     *service.CaseService
	storage   *service.StorageService

	monitorHub *service.MonitorHub
	attemptHub *service.AttemptHub
	worker     *service.PersistWorker
}

type controllers struct {
	auth      *controller.AuthController
	health    *controller.HealthController
	question  *controller.QuestionController
	test      *controller.TestController
	attempt   *controller.AttemptController
	bookmark  *controller.BookmarkController
	analytics *controller.AnalyticsController
	dashboard *controller.DashboardController
	cases     *controller.CaseController
	monitor   *controller.MonitorController
	upload    *controller.UploadController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		question:    repository.NewQuestionRepository(db),
		test:        repository.NewTestRepository(db),
		attempt:     repository.NewAttemptRepository(db),
		bookmark:    repository.NewBookmarkRepository(db),
		patientCase: repository.NewCaseRepository(db),
		analytics:   repository.NewAnalyticsRepository(db),
		snapshot:    repository.NewSnapshotRepository(rdb, a.Config.Exam.SnapshotTTL),
		leaderboard: repository.NewLeaderboardRepository(rdb),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.question = service.NewQuestionService(repos.question)
	s.test = service.NewTestService(repos.test, repos.question, cfg)
	s.bookmark = service.NewBookmarkService(repos.bookmark, repos.question)
	s.analytics = service.NewAnalyticsService(repos.analytics)
	s.dashboard = service.NewDashboardService(repos.attempt, repos.test, repos.user, repos.bookmark, s.analytics)
	s.cases = service.NewCaseService(repos.patientCase, cfg.Exam.AutosaveWindow)

	s.monitorHub = service.NewMonitorHub()
	s.attemptHub = service.NewAttemptHub(repos.snapshot, s.monitorHub)
	s.worker = service.NewPersistWorker(repos.attempt, repos.leaderboard, cfg.Exam.PersistQueueSize, 4)

	s.attempt = service.NewAttemptService(
		repos.attempt,
		repos.test,
		repos.question,
		repos.analytics,
		repos.leaderboard,
		repos.snapshot,
		s.attemptHub,
		s.worker,
		cfg,
	)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth, s.user),
		health:    controller.NewHealthController(db, rdb),
		question:  controller.NewQuestionController(s.question),
		test:      controller.NewTestController(s.test),
		attempt:   controller.NewAttemptController(s.attempt),
		bookmark:  controller.NewBookmarkController(s.bookmark),
		analytics: controller.NewAnalyticsController(s.analytics),
		dashboard: controller.NewDashboardController(s.dashboard),
		cases:     controller.NewCaseController(s.cases),
		monitor:   controller.NewMonitorController(s.monitorHub),
		upload:    controller.NewUploadController(s.storage),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100000
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services) {
	// scheduled test publishing
	go func() {
		ticker := time.NewTicker(time.Minute)
		for range ticker.C {
			s.test.PublishDue()
		}
	}()

	// config hot reload: swapping through the shared pointer lets running
	// middleware and services pick up tunables without a restart
	go configwatcher.WatchConfig("configs/config.yaml", a.Config, func(cfg interface{}) {
		if newCfg, ok := cfg.(*config.Config); ok {
			*a.Config = *newCfg
			logger.Log.Info("Configuration reloaded")
		}
	})
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("medprep-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// shutdown order matters: stop accepting monitor clients, snapshot the
	// live attempts, flush pending case autosaves, then drain the persist
	// queue so every buffered write reaches MySQL before the process exits
	if a.services != nil {
		if a.services.monitorHub != nil {
			a.services.monitorHub.Stop()
		}
		if a.services.attemptHub != nil {
			a.services.attemptHub.Stop()
		}
		if a.services.cases != nil {
			a.services.cases.Stop()
		}
		if a.services.worker != nil {
			a.services.worker.Stop()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	log.Println("Server exiting")
}
