package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calgary-pulse/pulseqa/internal/api/handlers"
	"github.com/calgary-pulse/pulseqa/internal/config"
	"github.com/calgary-pulse/pulseqa/internal/jobs"
	"github.com/calgary-pulse/pulseqa/internal/openai"
	"github.com/calgary-pulse/pulseqa/internal/repository"
	"github.com/calgary-pulse/pulseqa/internal/server"
	"github.com/calgary-pulse/pulseqa/internal/service"
	"github.com/calgary-pulse/pulseqa/internal/storage"
	"github.com/calgary-pulse/pulseqa/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the pulseqa API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	chunkRepo := repository.NewChunkRepository(pool)
	communityRepo := repository.NewCommunityRepository(pool)
	indexJobRepo := repository.NewIndexJobRepository(pool)
	questionLogRepo := repository.NewQuestionLogRepository(pool)

	if !cfg.HasOpenAI() {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	openaiClient := openai.NewClientWithConfig(openai.Config{
		APIKey:    cfg.OpenAIAPIKey,
		ChatModel: cfg.GenerationModel,
	})

	var profileSource service.ProfileSource
	if cfg.HasS3() {
		s3Source, err := storage.NewS3ProfileSource(ctx, storage.S3SourceConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 profile source: %w", err)
		}
		log.Printf("reading profiles from S3 bucket '%s'", cfg.S3Bucket)
		profileSource = s3Source
	} else {
		log.Printf("reading profiles from local directory '%s'", cfg.ProfileDir)
		profileSource = storage.NewLocalProfileSource(cfg.ProfileDir)
	}

	chunker := service.NewChunker(service.ChunkerConfig{
		MaxChars: cfg.ChunkMaxChars,
		BaseURL:  cfg.PulseBaseURL,
	})
	chunkStore := service.NewChunkStoreAdapter(openaiClient, chunkRepo)
	indexerSvc := service.NewIndexerService(profileSource, chunkStore, chunker, communityRepo, indexJobRepo)

	retriever := service.NewRetriever(chunkStore, communityRepo, service.RetrieverConfig{
		TopK:         cfg.TopK,
		MinScore:     cfg.MinScore,
		SectionBoost: cfg.SectionBoost,
	})
	assembler := service.NewAssembler(service.AssemblerConfig{BudgetChars: cfg.ContextBudget})
	answerSvc := service.NewAnswerService(retriever, assembler, openaiClient, service.AnswerConfig{
		GenerationRetries: cfg.GenerationRetries,
	}).WithQuestionLog(questionLogRepo)

	indexProcessor := jobs.NewIndexWorker(indexJobRepo, indexerSvc)
	indexWorker := jobs.NewWorker(indexProcessor, 10*time.Second)
	go indexWorker.Start(ctx)
	log.Println("index worker started")

	routerCfg := server.RouterConfig{
		AskHandler:       handlers.NewAskHandler(answerSvc),
		IndexHandler:     handlers.NewIndexHandler(indexerSvc),
		CommunityHandler: handlers.NewCommunityHandler(communityRepo),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	indexWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
