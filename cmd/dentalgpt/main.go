package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/kbhavake/dentalgpt/internal/ai"
	"github.com/kbhavake/dentalgpt/internal/config"
	"github.com/kbhavake/dentalgpt/internal/db"
	"github.com/kbhavake/dentalgpt/internal/embedcache"
	"github.com/kbhavake/dentalgpt/internal/filestore"
	"github.com/kbhavake/dentalgpt/internal/googleauth"
	"github.com/kbhavake/dentalgpt/internal/handler"
	"github.com/kbhavake/dentalgpt/internal/ingest"
	"github.com/kbhavake/dentalgpt/internal/job"
	"github.com/kbhavake/dentalgpt/internal/middleware"
	"github.com/kbhavake/dentalgpt/internal/repo"
	"github.com/kbhavake/dentalgpt/internal/schedule"
	"github.com/kbhavake/dentalgpt/internal/service"
	"github.com/kbhavake/dentalgpt/internal/vector"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "dentalgpt",
		Short: "dentalgpt backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run dentalgpt server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			database, err := db.Open(cfg.DB)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func buildProvider(cfg *config.Config, name string) (ai.IProvider, error) {
	args := cfg.AI.Providers[name]
	if args == nil {
		args = map[string]interface{}{}
	}
	return ai.NewProvider(name, args)
}

// buildGenerator wires the generation chain. With glm as primary, ollama
// rides along as the quota fallback.
func buildGenerator(cfg *config.Config) (ai.IGenerator, error) {
	primary, err := buildProvider(cfg, cfg.AI.Provider)
	if err != nil {
		return nil, fmt.Errorf("init generation provider: %w", err)
	}
	entries := []ai.GeneratorEntry{
		{Name: cfg.AI.Provider, Generator: ai.NewGenerator(primary, cfg.AI.LLMModel, cfg.AI.VisionModel)},
	}
	if cfg.AI.Provider == "glm" {
		fallback, err := buildProvider(cfg, "ollama")
		if err != nil {
			return nil, fmt.Errorf("init ollama fallback: %w", err)
		}
		entries = append(entries, ai.GeneratorEntry{
			Name:      "ollama",
			Generator: ai.NewGenerator(fallback, cfg.AI.FallbackModel, ""),
		})
	}
	return ai.NewFallbackGenerator(entries), nil
}

// buildEmbedder wires the embedding chain, substituting ollama when glm is
// selected since glm carries no embedding endpoint, then stacks the LRU and
// database caches in front.
func buildEmbedder(cfg *config.Config, cacheRepo *repo.EmbeddingCacheRepo) (ai.IEmbedder, error) {
	name := cfg.AI.EmbedProvider
	if name == "glm" {
		logutil.GetLogger(context.Background()).Info("glm has no embedding endpoint, substituting ollama")
		name = "ollama"
	}
	provider, err := buildProvider(cfg, name)
	if err != nil {
		return nil, fmt.Errorf("init embedding provider: %w", err)
	}
	embedder := ai.NewEmbedder(provider, cfg.AI.EmbedModel)
	embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	if cfg.AI.Cache.LRUSize > 0 && cfg.AI.Cache.LRUTTLMinutes > 0 {
		embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.AI.Cache.LRUSize, time.Duration(cfg.AI.Cache.LRUTTLMinutes)*time.Minute)
	}
	return embedder, nil
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("file_store", cfg.FileStore.Type),
	)

	userRepo := repo.NewUserRepo(database)
	patientRepo := repo.NewPatientRepo(database)
	chatRepo := repo.NewChatRepo(database)
	messageRepo := repo.NewMessageRepo(database)
	queryLogRepo := repo.NewQueryLogRepo(database)
	cacheRepo := repo.NewEmbeddingCacheRepo(database)

	generator, err := buildGenerator(cfg)
	if err != nil {
		return err
	}
	embedder, err := buildEmbedder(cfg, cacheRepo)
	if err != nil {
		return err
	}
	index := vector.NewPGIndex(database, cfg.AI.Dimension)

	var store filestore.Store
	if cfg.FileStore.Type != "" {
		store, err = filestore.New(cfg.FileStore)
		if err != nil {
			return fmt.Errorf("init file store: %w", err)
		}
	}

	verifier := googleauth.NewVerifier(cfg.Google.ClientID)
	jwtSecret := []byte(cfg.JWTSecret)
	ttl := time.Duration(cfg.JWTTTLHours) * time.Hour

	authService := service.NewAuthService(verifier, userRepo, jwtSecret, ttl)
	patientService := service.NewPatientService(patientRepo)
	chatService := service.NewChatService(chatRepo, messageRepo, patientRepo)
	queryService := service.NewQueryService(chatRepo, messageRepo, patientRepo, queryLogRepo, index, embedder, generator)
	ingestService := service.NewIngestService(ingest.NewChunker(0, 0), embedder, index, store)

	var voiceService *service.VoiceService
	if cfg.Voice.APIKey != "" {
		voiceService, err = service.NewVoiceService(cfg.Voice)
		if err != nil {
			return fmt.Errorf("init voice service: %w", err)
		}
	}

	deps := handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService),
		Chats:     handler.NewChatHandler(chatService, queryService),
		Patients:  handler.NewPatientHandler(patientService, queryService),
		Ingest:    handler.NewIngestHandler(ingestService),
		Voice:     handler.NewVoiceHandler(voiceService),
		Files:     handler.NewFileHandler(store),
		Debug:     handler.NewDebugHandler(cfg, database, index),
		JWTSecret: jwtSecret,
	}

	engine, err := webapi.NewEngine(
		"/api",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.AI.Cache.MaxAgeDays), cfg.Jobs.EmbedCacheCleanupSpec); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewQueryLogCleanupJob(queryLogRepo, cfg.Jobs.QueryLogKeepDays), cfg.Jobs.QueryLogCleanupSpec); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
