package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/roster/internal/app/controllers"
	appMigrations "github.com/yigit/roster/internal/app/migrations"
	appRepos "github.com/yigit/roster/internal/app/repositories"
	appRoutes "github.com/yigit/roster/internal/app/routes"
	appServices "github.com/yigit/roster/internal/app/services"
	"github.com/yigit/roster/internal/config"
	"github.com/yigit/roster/internal/db"
	appMiddleware "github.com/yigit/roster/internal/middleware"
	"github.com/yigit/roster/internal/pkg/filestorage"
	"github.com/yigit/roster/internal/pkg/logger"
	"github.com/yigit/roster/internal/seed"
)

// uploadsURLPath is where the local storage driver's files are served.
const uploadsURLPath = "/uploads"

// Dependencies holds all the application dependencies
type Dependencies struct {
	StudentService    appServices.StudentService // Interface type
	CourseService     appServices.CourseService  // Interface type
	StudentController *appControllers.StudentController
	CourseController  *appControllers.CourseController
	Repos             *appRepos.Repositories
	Storage           filestorage.ObjectStore
	Logger            zerolog.Logger

	// localUploadsDir is set when uploads are served by this process.
	localUploadsDir string
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := ConfigureLogger(cfg)
	return cfg, lgr, nil
}

// ConfigureLogger applies the logging section of cfg to the global logger.
func ConfigureLogger(cfg *config.Config) zerolog.Logger {
	logLevel := logger.ParseLevel(cfg.Logging.Level)
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return lgr
}

// SetupDatabase establishes the database connection, runs migrations and, when
// enabled, seeds the default courses.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	if cfg.Database.MigrateOnStart {
		if err := RunMigrations(ctx, database.Pool, lgr); err != nil {
			database.Close()
			return nil, err
		}
	}

	if cfg.Database.SeedOnStart {
		if _, err := seed.CreateDefaultData(ctx, appRepos.NewCourseRepository(database.Pool), lgr); err != nil {
			// Log the error but don't fail the startup
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	return database, nil
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, conn db.TxBeginner, lgr zerolog.Logger) error {
	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(conn, appMigrations.Embedded())
	if err := migrator.Migrate(ctx); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")
	return nil
}

// SetupStorage opens the object store selected by storage.driver.
func SetupStorage(cfg *config.Config, lgr zerolog.Logger) (filestorage.ObjectStore, string, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverOSS:
		store, err := filestorage.NewOSSStorage(filestorage.OSSConfig{
			Endpoint:      cfg.Storage.OSS.Endpoint,
			AccessKey:     cfg.Storage.OSS.AccessKey,
			SecretKey:     cfg.Storage.OSS.SecretKey,
			SecurityToken: cfg.Storage.OSS.SecurityToken,
			Bucket:        cfg.Storage.Bucket,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to initialize OSS storage")
			return nil, "", fmt.Errorf("failed to initialize oss storage: %w", err)
		}
		lgr.Info().Str("bucket", cfg.Storage.Bucket).Msg("Using OSS object storage")
		return store, "", nil

	default:
		baseURL := cfg.Storage.PublicBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:" + cfg.Server.Port + uploadsURLPath
		}
		store, err := filestorage.NewLocalStorage(cfg.Storage.LocalPath, baseURL)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to initialize file storage")
			return nil, "", fmt.Errorf("failed to initialize file storage: %w", err)
		}
		lgr.Info().Str("path", cfg.Storage.LocalPath).Str("baseURL", baseURL).Msg("Using local file storage")
		return store, store.BasePath(), nil
	}
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, conn db.TxBeginner, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	store, localDir, err := SetupStorage(cfg, lgr)
	if err != nil {
		return nil, err
	}
	deps.Storage = store
	deps.localUploadsDir = localDir

	deps.Repos = appRepos.NewRepositories(conn)

	services := appServices.NewServices(deps.Repos, deps.Storage, cfg.Server.MaxUploadSize)
	deps.StudentService = services.StudentService
	deps.CourseService = services.CourseService

	deps.StudentController = appControllers.NewStudentController(deps.StudentService, cfg.Server.MaxUploadSize)
	deps.CourseController = appControllers.NewCourseController(deps.CourseService)

	return deps, nil
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
	router.MaxMultipartMemory = cfg.Server.MaxUploadSize + (1 << 20)
	router.Use(
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(),
		appMiddleware.Recovery(),
		appMiddleware.CORS(cfg.Server.CORSAllowedOrigins),
		appMiddleware.RequestTimeout(config.Duration(cfg.Server.RequestTimeout, 15*time.Second)),
	)
	router.NoRoute(appMiddleware.NoRoute)

	appRoutes.SetupRouter(router, deps.StudentController, deps.CourseController)

	if deps.localUploadsDir != "" {
		appRoutes.SetupStaticFiles(router, uploadsURLPath, deps.localUploadsDir)
		lgr.Info().Str("path", deps.localUploadsDir).Msg("Static file serving configured for uploads directory")
	}

	return router
}
