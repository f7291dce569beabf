package main

import (
	"context"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/gofiber/fiber/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/wichananm65/user-admin/internal/config"
	"github.com/wichananm65/user-admin/internal/events"
	"github.com/wichananm65/user-admin/internal/formfield"
	"github.com/wichananm65/user-admin/internal/logging"
	"github.com/wichananm65/user-admin/internal/metrics"
	"github.com/wichananm65/user-admin/internal/middleware"
	"github.com/wichananm65/user-admin/internal/tracing"
	"github.com/wichananm65/user-admin/internal/upload"
	"github.com/wichananm65/user-admin/internal/user"
	_ "github.com/wichananm65/user-admin/migrations"
)

const serviceName = "user-admin"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logging.Setup(serviceName, cfg.LogLevel, cfg.LogFormat)

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		command := "up"
		if len(os.Args) > 2 {
			command = os.Args[2]
		}
		runMigrations(cfg.DatabaseURL, command)
		return
	}

	shutdownTracer, err := tracing.InitTracerProvider(serviceName, cfg.OtelEndpoint)
	if err != nil {
		logrus.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logrus.WithError(err).Error("shutdown tracer provider")
		}
	}()

	repo, closeRepo := mustOpenRepository(cfg.DatabaseURL)
	defer closeRepo()

	store := mustUploadStore(cfg)

	publisher, closePublisher := mustPublisher(cfg.NatsURL)
	defer closePublisher()

	app := fiber.New(fiber.Config{
		AppName:   serviceName,
		BodyLimit: cfg.MaxUploadMB * 1024 * 1024,
	})
	app.Use(middleware.CORS(cfg.CORSAllowOrigins))
	app.Use(middleware.RequestLogger())
	app.Use(metrics.Middleware())
	app.Use(middleware.WriteLimiter(cfg.RateLimitMax, cfg.RateLimitExpiration))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": serviceName})
	})
	app.Get("/metrics", metrics.Handler())

	// make uploaded files public
	switch s := store.(type) {
	case *upload.LocalStore:
		app.Static("/"+cfg.UploadDir, path.Join(cfg.PublicDir, cfg.UploadDir))
	case *upload.S3Store:
		if s.URL("/") == "" {
			logrus.Warn("S3_PUBLIC_URL not set, uploaded pictures are not served")
			break
		}
		app.Get("/"+cfg.UploadDir+"/*", func(c *fiber.Ctx) error {
			return c.Redirect(s.URL(c.Path()), fiber.StatusFound)
		})
	}

	formfield.NewHandler(formfield.Catalog()).RegisterPublicRoutes(app)
	user.NewHandler(user.NewService(repo, store, publisher)).RegisterRoutes(app)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logrus.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			logrus.WithError(err).Error("shutdown http server")
		}
	}()

	logrus.WithField("addr", cfg.Addr).Infof("Listening %s", serviceName)
	if err := app.Listen(cfg.Addr); err != nil {
		logrus.WithError(err).Error("http server stopped")
	}
}

// mustOpenRepository returns the postgres repository, or the in-memory one
// when DATABASE_URL is "memory".
func mustOpenRepository(dbURL string) (user.Repository, func()) {
	if dbURL == "memory" {
		logrus.Warn("DATABASE_URL=memory, records are not persisted")
		return user.NewInMemoryRepository(nil), func() {}
	}

	db, err := sqlx.Connect("pgx", dbURL)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	logrus.Info("Successfully connected to the database.")

	return user.NewPostgresRepository(db), func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Error("close database")
		}
	}
}

func mustUploadStore(cfg config.Config) upload.Store {
	if cfg.UploadBackend != config.UploadBackendS3 {
		return upload.NewLocalStore(cfg.PublicDir, cfg.UploadDir)
	}

	store, err := upload.NewS3StoreFromOptions(context.Background(), upload.S3Options{
		Endpoint:     cfg.S3.Endpoint,
		Region:       cfg.S3.Region,
		Bucket:       cfg.S3.Bucket,
		AccessKey:    cfg.S3.AccessKey,
		SecretKey:    cfg.S3.SecretKey,
		UsePathStyle: cfg.S3.UsePathStyle,
		PublicURL:    cfg.S3.PublicURL,
		UploadDir:    cfg.UploadDir,
	})
	if err != nil {
		logrus.Fatalf("Failed to configure S3 uploads: %v", err)
	}
	return store
}

func mustPublisher(natsURL string) (events.Publisher, func()) {
	if natsURL == "" {
		logrus.Info("NATS_URL not set, user events are not published")
		return events.NopPublisher{}, func() {}
	}

	publisher, err := events.NewNatsPublisher(natsURL)
	if err != nil {
		logrus.Fatalf("Failed to connect to NATS: %v", err)
	}
	logrus.Info("Successfully connected to NATS.")
	return publisher, publisher.Close
}

func runMigrations(dbURL, command string) {
	db, err := sqlx.Connect("pgx", dbURL)
	if err != nil {
		logrus.Fatalf("failed to connect to database for migration: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		logrus.Fatalf("failed to set goose dialect: %v", err)
	}

	if err := goose.RunContext(context.Background(), command, db.DB, "migrations"); err != nil {
		logrus.Fatalf("goose %s: %v", command, err)
	}
	logrus.Infof("goose %s done", command)
}
