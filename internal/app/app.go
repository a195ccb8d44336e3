package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"formflow_backend/internal/config"
	"formflow_backend/internal/controller"
	"formflow_backend/internal/repository"
	"formflow_backend/internal/service"
	"formflow_backend/internal/util"
	"formflow_backend/pkg/database"
	"formflow_backend/pkg/logger"
	"formflow_backend/pkg/monitoring"
	"formflow_backend/pkg/security"
	"formflow_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user         *repository.UserRepository
	form         *repository.FormRepository
	submission   *repository.SubmissionRepository
	validation   *repository.ValidationRepository
	target       *repository.TargetRepository
	ticket       *repository.TicketRepository
	issue        *repository.IssueRepository
	notification *repository.NotificationRepository
}

type services struct {
	auth       *service.AuthService
	user       *service.UserService
	form       *service.FormService
	storage    *service.StorageService
	notifier   *service.NotificationService
	approval   *service.ApprovalService
	target     *service.TargetService
	issue      *service.IssueService
	aggregator *service.AggregatorService
	submission *service.SubmissionService
}

type controllers struct {
	auth       *controller.AuthController
	user       *controller.UserController
	form       *controller.FormController
	submission *controller.SubmissionController
	ticket     *controller.TicketController
	issue      *controller.IssueController
	attachment *controller.AttachmentController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ReloadConfig 配置文件热更新入口，由 configwatcher 触发
func (a *App) ReloadConfig(cfg *config.Config) {
	a.Config = cfg
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
	logger.Log.Info("Config reloaded")
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		form:         repository.NewFormRepository(db),
		submission:   repository.NewSubmissionRepository(db),
		validation:   repository.NewValidationRepository(db),
		target:       repository.NewTargetRepository(db),
		ticket:       repository.NewTicketRepository(db),
		issue:        repository.NewIssueRepository(db),
		notification: repository.NewNotificationRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.form = service.NewFormService(repos.form)
	s.notifier = service.NewNotificationService(repos.notification, rdb, logger.Log)
	s.approval = service.NewApprovalService(repos.validation, repos.user)
	s.target = service.NewTargetService(repos.target, repos.ticket, s.notifier, logger.Log)
	s.issue = service.NewIssueService(repos.issue, repos.ticket)
	s.aggregator = service.NewAggregatorService(repos.ticket, repos.target, repos.submission, repos.issue, logger.Log)
	s.submission = service.NewSubmissionService(
		repos.form,
		repos.submission,
		repos.validation,
		repos.user,
		s.approval,
		s.target,
		s.issue,
		s.aggregator,
		s.notifier,
		logger.Log,
	)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		user:       controller.NewUserController(s.user),
		form:       controller.NewFormController(s.form),
		submission: controller.NewSubmissionController(s.submission, s.approval, s.notifier),
		ticket:     controller.NewTicketController(repository.NewTicketRepository(db), repository.NewTargetRepository(db), s.aggregator),
		issue:      controller.NewIssueController(s.issue),
		attachment: controller.NewAttachmentController(s.storage),
		health:     controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(func(c *gin.Context) {
		c.Set("config", a.Config)
		c.Next()
	})

	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("formflow", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		// 进程退出前由 Run 负责关闭，保证运行期间 span 正常上报
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, repos)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	log.Println("Server exiting")
}
