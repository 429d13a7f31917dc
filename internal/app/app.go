package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizgate_backend/internal/config"
	"quizgate_backend/internal/controller"
	"quizgate_backend/internal/repository"
	"quizgate_backend/internal/service"
	"quizgate_backend/pkg/database"
	"quizgate_backend/pkg/logger"
	"quizgate_backend/pkg/monitoring"
	"quizgate_backend/pkg/security"
	"quizgate_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	cron     *cron.Cron
	services *services
}

type repositories struct {
	user         *repository.UserRepository
	class        *repository.ClassRepository
	question     *repository.QuestionRepository
	quiz         *repository.QuizRepository
	attempt      *repository.AttemptRepository
	notification *repository.NotificationRepository
}

type services struct {
	auth         *service.AuthService
	class        *service.ClassService
	question     *service.QuestionService
	quiz         *service.QuizService
	attempt      *service.AttemptService
	violation    *service.ViolationService
	grading      *service.GradingService
	reset        *service.AttemptResetService
	notification *service.NotificationService
	storage      *service.StorageService
}

type controllers struct {
	auth         *controller.AuthController
	class        *controller.ClassController
	question     *controller.QuestionController
	quiz         *controller.QuizController
	attempt      *controller.AttemptController
	grading      *controller.GradingController
	reset        *controller.ResetController
	notification *controller.NotificationController
	health       *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		class:        repository.NewClassRepository(db),
		question:     repository.NewQuestionRepository(db),
		quiz:         repository.NewQuizRepository(db),
		attempt:      repository.NewAttemptRepository(db),
		notification: repository.NewNotificationRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.notification = service.NewNotificationService(repos.notification, rdb)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.class = service.NewClassService(repos.class, repos.user)
	s.question = service.NewQuestionService(repos.question)
	s.quiz = service.NewQuizService(repos.quiz, repos.question, s.notification)

	s.reset = service.NewAttemptResetService(repos.attempt, repos.quiz, s.notification)
	s.attempt = service.NewAttemptService(repos.attempt, repos.quiz, s.reset, s.notification)
	s.violation = service.NewViolationService(repos.attempt, repos.quiz, s.notification, cfg.Attempt.ViolationThreshold)
	s.grading = service.NewGradingService(repos.attempt, repos.quiz, s.notification)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		class:        controller.NewClassController(s.class),
		question:     controller.NewQuestionController(s.question, s.storage),
		quiz:         controller.NewQuizController(s.quiz),
		attempt:      controller.NewAttemptController(s.attempt, s.violation),
		grading:      controller.NewGradingController(s.grading),
		reset:        controller.NewResetController(s.reset),
		notification: controller.NewNotificationController(s.notification),
		health:       controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	if cfg.RateLimit.MaxRequests > 0 {
		router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))
	}

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks schedules the expiry sweep and notification retention
// cleanup on the shared cron runner.
func (a *App) startBackgroundTasks(s *services, cfg *config.Config) {
	a.cron = cron.New()

	if _, err := a.cron.AddFunc(cfg.Attempt.ExpirySweepSpec, func() {
		n, err := s.attempt.AutoSubmitExpired()
		if err != nil {
			logger.Log.Error("expiry sweep failed", zap.Error(err))
			return
		}
		if n > 0 {
			logger.Log.Info("expiry sweep auto-submitted attempts", zap.Int("count", n))
		}
	}); err != nil {
		logger.Log.Fatal("invalid expiry sweep spec", zap.Error(err))
	}

	if _, err := a.cron.AddFunc("@daily", func() {
		s.notification.CleanupExpired(cfg.Attempt.NotificationRetentionDays)
	}); err != nil {
		logger.Log.Fatal("invalid cleanup spec", zap.Error(err))
	}

	a.cron.Start()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, notification publish disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	if cfg.MigrateOnly {
		return app
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("quizgate", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services, cfg)

	return app
}

// ApplyConfig applies the hot-reloadable subset of a freshly loaded config.
// Everything else needs a restart.
func (a *App) ApplyConfig(cfg *config.Config) {
	if a.services != nil && a.services.violation != nil {
		a.services.violation.SetThreshold(cfg.Attempt.ViolationThreshold)
	}
	logger.Log.Info("config reloaded",
		zap.Int("violationThreshold", cfg.Attempt.ViolationThreshold))
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

	if a.cron != nil {
		<-a.cron.Stop().Done()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
