package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"abfit/coach-api/internal/api"
	"abfit/coach-api/internal/config"
	"abfit/coach-api/internal/logging"
	"abfit/coach-api/internal/metrics"
	"abfit/coach-api/internal/repository"
	"abfit/coach-api/internal/repository/memory"
	"abfit/coach-api/internal/repository/mongo"
	"abfit/coach-api/internal/running"
	"abfit/coach-api/internal/service"
	"abfit/coach-api/internal/storage"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"
)

type repositories struct {
	users     repository.UserRepository
	students  repository.StudentRepository
	exercises repository.ExerciseRepository
	schedules repository.ScheduleRepository
	// close releases the backing store, nil for the in-memory driver.
	close func() error
}

// @title ABFit Coach API
// @version 1.0
// @description API for trainers and their students: roster, assessments, workouts and the adaptive running plan.
// @contact.name API Support
// @contact.email support@example.com
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	configPath := flag.String("config", ".", "directory holding config.yaml")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("could not load config: %s", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.Log.File,
		LogToStdout:      cfg.Log.Stdout,
		LogLevel:         cfg.Log.Level,
		LogFormatJSON:    cfg.Log.JSON,
		Environment:      cfg.Log.Environment,
		SentryEnabled:    cfg.Log.SentryDSN != "",
		SentryDSN:        cfg.Log.SentryDSN,
		SentryServerName: "coach-api",
	})
	defer sentry.Flush(2 * time.Second)

	log.Infof("starting coach api, database driver [%s]", cfg.Database.Driver)

	repos, err := openRepositories(cfg.Database)
	if err != nil {
		log.Fatalf("could not open repositories: %s", err)
	}

	ctx := context.Background()
	fileStorage := storage.Disabled()
	if cfg.S3.BucketName != "" {
		fileStorage, err = storage.NewS3Storage(ctx, cfg.S3)
		if err != nil {
			log.Fatalf("failed to initialize s3 storage: %s", err)
		}
		log.Infof("photo storage using bucket [%s]", cfg.S3.BucketName)
	} else {
		log.Warnln("s3 bucket not set, student photos are disabled")
	}

	metricsManager := metrics.NewManager("coach", "api", prometheus.DefaultRegisterer)

	runningService := service.NewRunningService(
		repos.schedules,
		running.SystemClock{},
		running.UUIDGenerator{},
		cfg.Running.DefaultWeeks,
		metricsManager,
	)
	authService := service.NewAuthService(repos.users, repos.students, cfg.JWT.Secret, cfg.JWT.Expiration)
	trainerService := service.NewTrainerService(repos.students, runningService, fileStorage, metricsManager)
	studentService := service.NewStudentService(repos.students)
	exerciseService := service.NewExerciseService(repos.exercises)

	router := api.NewRouter(cfg.Server.GinMode, metricsManager)
	api.SetupRoutes(
		router,
		cfg.JWT.Secret,
		prometheus.DefaultGatherer,
		authService,
		trainerService,
		studentService,
		runningService,
		exerciseService,
	)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      otelhttp.NewHandler(router, "coach-api"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Infof("server listening on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen and serve: %s", err)
		}
	}()

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)
	sig := <-chOsInterrupt
	log.Warnf("signal [%s] received, shutting down", sig)

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	shutdownErr := server.Shutdown(shutdownCtx)
	if repos.close != nil {
		shutdownErr = multierr.Append(shutdownErr, repos.close())
	}
	if shutdownErr != nil {
		log.Errorf("shutdown: %s", shutdownErr)
		return
	}
	log.Infoln("server exited")
}

func openRepositories(cfg config.DatabaseConfig) (repositories, error) {
	if cfg.Driver == config.DriverMemory {
		log.Warnln("using in-memory repositories, data is lost on restart")
		return repositories{
			users:     memory.NewUserRepo(),
			students:  memory.NewStudentRepo(),
			exercises: memory.NewExerciseRepo(),
			schedules: memory.NewScheduleRepo(),
		}, nil
	}

	client, err := mongo.ConnectDB(cfg.URI)
	if err != nil {
		return repositories{}, err
	}
	db := client.Database(cfg.Name)
	log.Infof("connected to mongo database [%s]", cfg.Name)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		mongo.EnsureIndexes(ctx, db)
	}()

	return repositories{
		users:     mongo.NewMongoUserRepository(db),
		students:  mongo.NewMongoStudentRepository(db),
		exercises: mongo.NewMongoExerciseRepository(db),
		schedules: mongo.NewMongoScheduleRepository(db),
		close: func() error {
			return mongo.DisconnectDB(client)
		},
	}, nil
}
