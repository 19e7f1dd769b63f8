package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/yigit/examconduct/internal/app/controllers"
	appMigrations "github.com/yigit/examconduct/internal/app/migrations"
	appRepos "github.com/yigit/examconduct/internal/app/repositories"
	appRoutes "github.com/yigit/examconduct/internal/app/routes"
	appServices "github.com/yigit/examconduct/internal/app/services"
	"github.com/yigit/examconduct/internal/config"
	"github.com/yigit/examconduct/internal/db"
	appMiddleware "github.com/yigit/examconduct/internal/middleware"
	pkgAuth "github.com/yigit/examconduct/internal/pkg/auth"
	"github.com/yigit/examconduct/internal/pkg/logger"
	"github.com/yigit/examconduct/internal/pkg/messaging"
	"github.com/yigit/examconduct/internal/pkg/redis"
	"github.com/yigit/examconduct/internal/pkg/statuscache"
	"github.com/yigit/examconduct/internal/pkg/websocket"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos                    *appRepos.Repositories
	Redis                    *redis.Client // nil when Redis is not configured
	Hub                      *websocket.Hub
	JWTService               *pkgAuth.JWTService
	AuthMiddleware           *appMiddleware.AuthMiddleware
	ParticipationService     *appServices.ParticipationService
	RepositoryAccessService  *appServices.RepositoryAccessService
	ExerciseStarter          *appServices.ExerciseParticipationStarter
	ExerciseStartCoordinator *appServices.ExerciseStartCoordinator
	SubmissionService        *appServices.StudentExamSubmissionService
	StudentExamService       *appServices.StudentExamService
	AccessGuard              *appServices.StudentExamAccessGuard
	StudentExamController    *appControllers.StudentExamController
	Logger                   zerolog.Logger

	stopHub context.CancelFunc
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool, lgr)
	if err := migrator.Migrate(ctx, appMigrations.Files, "sql"); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		dbPool.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return dbPool, nil
}

// SetupRedis connects to Redis. An empty address disables it and nil is returned.
func SetupRedis(cfg *config.Config, lgr zerolog.Logger) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		lgr.Warn().Msg("Redis address not configured, start status stays in memory and repository commands are only logged")
		return nil, nil
	}
	return redis.NewClient(redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, lgr)
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, redisClient *redis.Client, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr, Redis: redisClient}

	deps.Repos = appRepos.NewRepositories(dbPool)

	// Status cache and command channel fall back to process local implementations without Redis
	var cache statuscache.Cache = statuscache.NewMemoryCache(cfg.StatusTTL())
	var publisher appServices.CommandPublisher = messaging.NewLogPublisher(lgr)
	if redisClient != nil {
		cache = statuscache.NewRedisCache(redisClient, cfg.StatusTTL())
		publisher = messaging.NewRedisPublisher(redisClient, cfg.Exam.RepositoryAccess.Channel, lgr)
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	deps.stopHub = stopHub
	deps.Hub = websocket.NewHub(lgr)
	go deps.Hub.Run(hubCtx)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: cfg.AccessTokenExpiration(),
		TokenIssuer:    cfg.JWT.Issuer,
	})
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.ParticipationService = appServices.NewParticipationService(deps.Repos.ParticipationRepository, lgr)
	deps.RepositoryAccessService = appServices.NewRepositoryAccessService(
		publisher,
		deps.Repos.StudentExamRepository,
		appServices.RepositoryAccessConfig{
			InitialInterval: cfg.RepositoryAccessInitialWait(),
			MaxElapsed:      cfg.RepositoryAccessMaxElapsed(),
		},
		lgr,
	)
	deps.ExerciseStarter = appServices.NewExerciseParticipationStarter(
		deps.ParticipationService,
		deps.RepositoryAccessService,
		cfg.UnlockLead(),
		lgr,
	)
	deps.ExerciseStartCoordinator = appServices.NewExerciseStartCoordinator(
		deps.Repos.ExamRepository,
		deps.Repos.StudentExamRepository,
		deps.ExerciseStarter,
		cache,
		deps.Hub,
		appServices.ExerciseStartConfig{
			Workers:       cfg.Exam.StartWorkers,
			QueueCapacity: cfg.Exam.StartQueueCapacity,
		},
		lgr,
	)

	quizEvaluation := appServices.NewQuizEvaluationService(
		deps.ParticipationService,
		deps.Repos.SubmissionRepository,
		deps.Repos.QuizStatisticsRepository,
		lgr,
	)
	deps.SubmissionService = appServices.NewStudentExamSubmissionService(
		deps.Repos.StudentExamRepository,
		deps.ParticipationService,
		deps.Repos.SubmissionRepository,
		quizEvaluation,
		deps.RepositoryAccessService,
		lgr,
	)
	deps.StudentExamService = appServices.NewStudentExamService(
		deps.Repos.ExamRepository,
		deps.Repos.StudentExamRepository,
		deps.ExerciseStarter,
		deps.ExerciseStartCoordinator,
		lgr,
	)
	deps.AccessGuard = appServices.NewStudentExamAccessGuard(
		deps.Repos.CourseRepository,
		deps.Repos.ExamRepository,
		deps.Repos.StudentExamRepository,
	)

	deps.StudentExamController = appControllers.NewStudentExamController(
		deps.AccessGuard,
		deps.ExerciseStartCoordinator,
		deps.SubmissionService,
		deps.StudentExamService,
		websocket.NewHandler(deps.Hub, lgr),
		lgr,
	)

	return deps, nil
}

// Close waits for background work, bounded by ctx, and releases the non database resources.
func (d *Dependencies) Close(ctx context.Context) error {
	var firstErr error
	if err := d.ExerciseStartCoordinator.Shutdown(ctx); err != nil {
		d.Logger.Error().Err(err).Msg("Exercise starts did not finish in time")
		firstErr = err
	}
	if err := d.RepositoryAccessService.Shutdown(ctx); err != nil {
		d.Logger.Error().Err(err).Msg("Repository access commands did not finish in time")
		if firstErr == nil {
			firstErr = err
		}
	}
	d.stopHub()
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("Failed to close Redis client")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	httpMetrics := appMiddleware.NewHTTPMetrics(prometheus.DefaultRegisterer)
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(lgr), httpMetrics.Handler())

	appRoutes.SetupRouter(router,
		deps.StudentExamController,
		deps.AuthMiddleware,
	)

	// Test endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	appRoutes.SetupSwagger(router)

	return router
}
