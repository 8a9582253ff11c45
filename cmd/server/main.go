package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/ai"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/api"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/blob"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/events"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/mail"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/repository"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/service"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/tracing"
	_ "github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/migrations"
)

func main() {
	if err := godotenv.Load(".env.dev"); err != nil {
		fmt.Println("No .env.dev file found, reading from environment variables")
	}

	api.SetupGlobalLogger("briefing-service")

	shutdownTracer, err := tracing.InitTracerProvider(context.Background(), "briefing-service")
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}()

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		handleMigrations()
		return
	}

	db := connectDB()
	defer db.Close()

	eventPublisher, err := events.NewPublisher(os.Getenv("NATS_URL"))
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}

	storage, err := blob.NewFromEnv(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize blob storage: %v", err)
	}

	var aiClient *ai.Client
	if client, err := ai.NewClientFromEnv(); err != nil {
		slog.Warn("AI assistance disabled", "reason", err)
	} else {
		aiClient = client
	}

	userRepo := repository.NewUserRepository(db)
	entryRepo := repository.NewEntryRepository(db)
	imageRepo := repository.NewImageRepository(db)
	whitelistRepo := repository.NewWhitelistRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)

	mailer := mail.NewSMTPMailer()

	authService := service.NewAuthService(userRepo, whitelistRepo, resetRepo, mailer, eventPublisher)
	entryService := service.NewEntryService(entryRepo, imageRepo, storage, eventPublisher)

	authHandler := api.NewAuthHandler(authService)
	userHandler := api.NewUserHandler(authService)
	entryHandler := api.NewEntryHandler(entryService)
	imageHandler := api.NewImageHandler(imageRepo, storage)
	aiHandler := api.NewAIHandler(aiClient)

	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024, // base64 image payloads
	})
	app.Use(otelfiber.Middleware())
	app.Use(api.PrometheusMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "briefing-service"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/v1")

	authRoutes := v1.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Get("/verify-email", authHandler.VerifyEmail)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/refresh", authHandler.Refresh)
	authRoutes.Post("/logout", authHandler.Logout)
	authRoutes.Post("/forgot-password", authHandler.ForgotPassword)
	authRoutes.Get("/reset-password", authHandler.ValidateResetToken)
	authRoutes.Post("/reset-password", authHandler.ResetPassword)

	userRoutes := v1.Group("/users")
	userRoutes.Use(api.AuthMiddleware())
	userRoutes.Get("/me", userHandler.Me)
	userRoutes.Put("/me/name", userHandler.UpdateName)

	whitelistRoutes := v1.Group("/whitelist")
	whitelistRoutes.Use(api.AuthMiddleware())
	whitelistRoutes.Get("/", userHandler.ListWhitelist)
	whitelistRoutes.Post("/", userHandler.AddToWhitelist)
	whitelistRoutes.Delete("/", userHandler.RemoveFromWhitelist)

	entryRoutes := v1.Group("/entries")
	entryRoutes.Use(api.AuthMiddleware())
	entryRoutes.Get("/", entryHandler.List)
	entryRoutes.Post("/", entryHandler.Create)
	entryRoutes.Get("/countries", entryHandler.Countries)
	entryRoutes.Get("/source-names", entryHandler.SourceNames)
	entryRoutes.Get("/:id", entryHandler.Get)
	entryRoutes.Put("/:id", entryHandler.Update)
	entryRoutes.Delete("/:id", entryHandler.Delete)
	entryRoutes.Patch("/:id", entryHandler.Patch)
	entryRoutes.Put("/:id/comment", entryHandler.UpdateComment)

	imageRoutes := v1.Group("/images")
	imageRoutes.Use(api.AuthMiddleware())
	imageRoutes.Post("/", imageHandler.Upload)
	imageRoutes.Get("/", imageHandler.Redirect)
	imageRoutes.Get("/:id", imageHandler.Serve)

	app.Get("/uploads/:filename", api.AuthMiddleware(), imageHandler.ServeUpload)

	aiRoutes := v1.Group("/ai")
	aiRoutes.Use(api.AuthMiddleware())
	aiRoutes.Post("/auto-fill", aiHandler.AutoFill)
	aiRoutes.Post("/reformulate", aiHandler.Reformulate)
	aiRoutes.Post("/summarize", aiHandler.Summarize)

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8001"
	}

	log.Printf("Listening briefing-service on port %s", port)
	log.Fatal(app.Listen(":" + port))
}

func connectDB() *sqlx.DB {
	db, err := sqlx.Connect("pgx", databaseURL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Successfully connected to the database.")
	return db
}

func databaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_NAME"),
	)
}

func handleMigrations() {
	fmt.Println("Running database migrations...")

	db, err := sql.Open("pgx", databaseURL())
	if err != nil {
		log.Fatalf("failed to connect to database for migration: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("failed to set goose dialect: %v", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		log.Fatalf("goose: failed to run migrations: %v", err)
	}

	fmt.Println("Migrations applied successfully!")
}
