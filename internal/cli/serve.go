// Package cli implements the ekamd server commands.
package cli

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

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/ekamlabs/ekamquery/internal/api/handlers"
	"github.com/ekamlabs/ekamquery/internal/cache"
	"github.com/ekamlabs/ekamquery/internal/catalog"
	"github.com/ekamlabs/ekamquery/internal/classifier"
	"github.com/ekamlabs/ekamquery/internal/config"
	"github.com/ekamlabs/ekamquery/internal/database"
	"github.com/ekamlabs/ekamquery/internal/engine"
	"github.com/ekamlabs/ekamquery/internal/extract"
	"github.com/ekamlabs/ekamquery/internal/inference"
	"github.com/ekamlabs/ekamquery/internal/ingest"
	"github.com/ekamlabs/ekamquery/internal/jobs"
	"github.com/ekamlabs/ekamquery/internal/ollama"
	"github.com/ekamlabs/ekamquery/internal/openai"
	"github.com/ekamlabs/ekamquery/internal/repository"
	"github.com/ekamlabs/ekamquery/internal/retriever"
	"github.com/ekamlabs/ekamquery/internal/server"
	"github.com/ekamlabs/ekamquery/internal/sqlgen"
	"github.com/ekamlabs/ekamquery/internal/storage"
	"github.com/ekamlabs/ekamquery/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the ekamquery API server on the specified port",
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

		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
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

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	caps, err := buildCapabilities(cfg)
	if err != nil {
		return err
	}
	caps = inference.Bound(caps, cfg.InferenceTimeout)

	catalogSvc := catalog.NewService(catalog.NewPgIntrospector(pool))
	chunkRepo := repository.NewChunkRepository(pool)
	queryLogRepo := repository.NewQueryLogRepository(pool)

	var archiver ingest.Archiver
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		archiver = s3Client
	}

	ingestSvc := ingest.NewService(extract.NewExtractor(), caps.Embedder, chunkRepo, archiver, ingest.ChunkConfig{
		MaxChars: cfg.ChunkMaxChars,
		MinChars: cfg.ChunkMaxChars / 3,
		Overlap:  cfg.ChunkOverlap,
	})

	var store cache.Store
	var reaperWorker *jobs.Worker
	if cfg.HasRedis() {
		redisStore, err := cache.NewRedisStore(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisStore.Close()
		store = redisStore
		log.Println("using redis result cache")
	} else {
		memStore := cache.NewMemoryStore(cfg.CacheTTL, cfg.CacheMaxSize)
		store = memStore
		reaperWorker = jobs.NewWorker(jobs.NewCacheReaper(memStore), time.Minute)
		go reaperWorker.Start(ctx)
	}

	queryEngine := engine.New(
		classifier.New(caps.Classifier, catalogSvc),
		sqlgen.NewService(caps.Generator, catalogSvc, sqlgen.NewPgExecutor(pool, cfg.SQLTimeout, cfg.SQLMaxRows)),
		retriever.NewService(caps.Embedder, chunkRepo, caps.Extractor, cfg.RetrievalTopK, cfg.SimilarityFloor),
		store,
		queryLogRepo,
		chunkRepo,
	)

	router := server.NewRouter(server.RouterConfig{
		QueryHandler:     handlers.NewQueryHandler(queryEngine),
		IngestionHandler: handlers.NewIngestionHandler(ingestSvc),
		SchemaHandler:    handlers.NewSchemaHandler(catalogSvc),
	})

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

	if reaperWorker != nil {
		reaperWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func buildCapabilities(cfg *config.Config) (inference.Capabilities, error) {
	switch cfg.InferenceProvider {
	case "ollama":
		client, err := ollama.NewClient(ollama.Config{
			Host:       cfg.OllamaHost,
			ChatModel:  cfg.OllamaChatModel,
			EmbedModel: cfg.OllamaEmbedModel,
		})
		if err != nil {
			return inference.Capabilities{}, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return inference.Capabilities{
			Embedder:   client,
			Generator:  client,
			Classifier: client,
			Extractor:  client,
		}, nil
	case "openai":
		if !cfg.HasOpenAI() {
			return inference.Capabilities{}, fmt.Errorf("EKAM_OPENAI_API_KEY required for the openai provider")
		}
		client := openai.NewClientWithConfig(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			ChatModel:           cfg.OpenAIChatModel,
			EmbeddingDimensions: cfg.EmbeddingDimensions,
		})
		return inference.Capabilities{
			Embedder:   client,
			Generator:  client,
			Classifier: client,
			Extractor:  client,
		}, nil
	default:
		return inference.Capabilities{}, fmt.Errorf("unknown inference provider %q", cfg.InferenceProvider)
	}
}

func runMigrations(databaseURL string) error {
	// golang-migrate needs a database/sql connection
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

	switch {
	case err == migrate.ErrNilVersion:
		log.Println("migrations: no migrations applied")
	case dirty:
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	default:
		log.Printf("migrations: database at version %d", version)
	}

	return nil
}
