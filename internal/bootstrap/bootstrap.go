package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appAuth "github.com/ojtetr/tracker/internal/app/auth"
	appControllers "github.com/ojtetr/tracker/internal/app/controllers"
	appMigrations "github.com/ojtetr/tracker/internal/app/migrations"
	appRepos "github.com/ojtetr/tracker/internal/app/repositories"
	appRoutes "github.com/ojtetr/tracker/internal/app/routes"
	appServices "github.com/ojtetr/tracker/internal/app/services"
	"github.com/ojtetr/tracker/internal/config"
	"github.com/ojtetr/tracker/internal/db"
	appMiddleware "github.com/ojtetr/tracker/internal/middleware"
	pkgAuth "github.com/ojtetr/tracker/internal/pkg/auth"
	"github.com/ojtetr/tracker/internal/pkg/email"
	"github.com/ojtetr/tracker/internal/pkg/events"
	"github.com/ojtetr/tracker/internal/pkg/filestorage"
	"github.com/ojtetr/tracker/internal/pkg/helpers"
	"github.com/ojtetr/tracker/internal/pkg/logger"
	"github.com/ojtetr/tracker/internal/pkg/ratelimit"
	"github.com/ojtetr/tracker/internal/pkg/templates"
	"github.com/ojtetr/tracker/internal/pkg/websocket"
	"github.com/ojtetr/tracker/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos          *appRepos.Repositories
	JWTService     *pkgAuth.JWTService
	Gate           *appAuth.Gate
	Storage        filestorage.BlobStore
	Templates      *templates.Catalog
	Hub            *websocket.Hub
	Publisher      events.Publisher
	Limiter        ratelimit.Limiter
	Services       appServices.Services
	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	Logger         zerolog.Logger

	redis  *redis.Client
	mailer *email.QueuedSender
}

// Side effects run off the request goroutine through bounded queues
const (
	eventQueueSize   = 512
	eventSendTimeout = 5 * time.Second
	mailQueueSize    = 128
)

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.Config{
		Level:  cfg.Logging.Level,
		Pretty: strings.EqualFold(cfg.Logging.Format, "text"),
	})
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase connects, applies pending migrations and ensures the seeded staff accounts.
// The connection is retried per the configured policy, so a database that starts later is waited for.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	policy := db.RetryPolicy{MaxAttempts: cfg.Database.Retry.MaxAttempts, Interval: cfg.Database.Retry.Interval}
	database, err := db.NewPostgresDB(ctx, cfg, policy)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}
	if err := appMigrations.NewMigrator(database.Pool).MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	users := appRepos.NewUserRepository(database.Pool)
	if _, err := seed.EnsureStaff(ctx, users, seed.StaffFromConfig(cfg), lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create staff accounts, proceeding anyway...")
	}

	return database, nil
}

// NewBlobStore builds the configured file store
func NewBlobStore(ctx context.Context, cfg *config.Config) (filestorage.BlobStore, error) {
	if strings.EqualFold(cfg.Storage.Driver, "minio") {
		m := cfg.Storage.MinIO
		store, err := filestorage.NewMinioStorage(ctx, filestorage.MinioConfig{
			Endpoint:   m.Endpoint,
			AccessKey:  m.AccessKey,
			SecretKey:  m.SecretKey,
			BucketName: m.BucketName,
			UseSSL:     m.UseSSL,
		}, filestorage.PublicPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	store, err := filestorage.NewLocalStorage(cfg.Storage.LocalPath, filestorage.PublicPath)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// BuildDependencies initializes repositories, infrastructure clients, services and controllers.
// Background workers (feed hub, template watcher) stop when ctx is cancelled.
func BuildDependencies(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}
	deps.Repos = appRepos.NewRepositories(database.Pool)

	var err error
	deps.Storage, err = NewBlobStore(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.Templates, err = templates.NewCatalog(cfg.Templates.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	if err := deps.Templates.Watch(ctx); err != nil {
		// Templates still work, they just need a restart to pick up changes
		lgr.Warn().Err(err).Str("dir", cfg.Templates.Dir).Msg("Template directory is not being watched")
	}

	if cfg.Redis.Addr != "" {
		deps.redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		deps.Limiter = ratelimit.NewRedisLimiter(deps.redis)
		lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Login throttling backed by Redis")
	} else {
		deps.Limiter = ratelimit.NewMemoryLimiter()
	}

	var publisher events.Publisher = events.LogPublisher{}
	if brokers := cfg.KafkaBrokers(); len(brokers) > 0 {
		publisher = events.NewKafkaPublisher(brokers, cfg.Kafka.Topic)
		lgr.Info().Strs("brokers", brokers).Str("topic", cfg.Kafka.Topic).Msg("Workflow events go to Kafka")
	}
	deps.Publisher = events.NewAsyncPublisher(publisher, eventQueueSize, eventSendTimeout, logger.Component("events"))

	deps.Hub = websocket.NewHub(logger.Component("feed"))
	go deps.Hub.Run(ctx)

	smtpMailer := email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
		BaseURL:   cfg.PublicBaseURL(),
	}, logger.Component("email"))
	deps.mailer = email.NewQueuedSender(smtpMailer, mailQueueSize, logger.Component("email"))

	tokenTTL := helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 24*time.Hour)
	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: tokenTTL,
		TokenIssuer:    cfg.JWT.Issuer,
	})
	deps.Gate = appAuth.NewGate(deps.JWTService, deps.Repos.UserRepository, deps.Repos.ProfileRepository)

	limits := appServices.UploadLimits{
		MaxDocumentSize: cfg.Uploads.MaxDocumentSize,
		MaxAvatarSize:   cfg.Uploads.MaxAvatarSize,
		AvatarDimension: cfg.Uploads.AvatarDimension,
	}
	users, profiles := deps.Repos.UserRepository, deps.Repos.ProfileRepository

	deps.Services = appServices.Services{
		AuthService:    appServices.NewAuthService(users, profiles, deps.JWTService, logger.Component("auth")),
		StudentService: appServices.NewStudentService(users, profiles, deps.Storage, deps.Templates, deps.Publisher, limits, logger.Component("student")),
		ReviewService:  appServices.NewReviewService(users, profiles, deps.mailer, deps.Publisher, logger.Component("review")),
		AnnouncementService: appServices.NewAnnouncementService(deps.Repos.AnnouncementRepository, users, profiles,
			deps.Hub, deps.Publisher, logger.Component("announcements")),
		DocumentService: appServices.NewDocumentService(users, profiles, deps.Templates, logger.Component("documents")),
		UserService:     appServices.NewUserService(users, deps.Storage, limits, logger.Component("users")),
	}

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.Gate, logger.Component("gate"))

	deps.Controllers = appRoutes.Controllers{
		Auth:         appControllers.NewAuthController(deps.Services.AuthService, tokenTTL, cfg.JWT.CookieSecure, lgr),
		Student:      appControllers.NewStudentController(deps.Services.StudentService, lgr),
		Review:       appControllers.NewReviewController(deps.Services.ReviewService, lgr),
		Document:     appControllers.NewDocumentController(deps.Services.DocumentService, lgr),
		Announcement: appControllers.NewAnnouncementController(deps.Services.AnnouncementService, deps.Hub, lgr),
		User:         appControllers.NewUserController(deps.Services.UserService, lgr),
		File:         appControllers.NewFileController(deps.Storage, lgr),
	}

	return deps, nil
}

// Close drains the background queues and releases the clients BuildDependencies opened
func (d *Dependencies) Close() {
	if d.mailer != nil {
		d.mailer.Close()
	}
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("Failed to close event publisher")
		}
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("Failed to close Redis client")
		}
	}
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := appMiddleware.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(logger.Component("http")))
	router.MaxMultipartMemory = cfg.Uploads.MaxAvatarSize

	if !cfg.IsProduction() {
		appRoutes.SetupSwagger(router)
	}

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, appRoutes.LoginThrottle{
		Limiter:  deps.Limiter,
		Attempts: cfg.Redis.LoginAttempts,
		Window:   cfg.Redis.LoginWindow,
	}, appRoutes.UploadCaps{
		Document: cfg.Uploads.MaxDocumentSize,
		Avatar:   cfg.Uploads.MaxAvatarSize,
	})

	return router, nil
}
