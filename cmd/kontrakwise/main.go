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

	"github.com/kontrakwise/backend/internal/ai"
	"github.com/kontrakwise/backend/internal/config"
	"github.com/kontrakwise/backend/internal/db"
	"github.com/kontrakwise/backend/internal/filestore"
	"github.com/kontrakwise/backend/internal/handler"
	"github.com/kontrakwise/backend/internal/ingest"
	"github.com/kontrakwise/backend/internal/job"
	"github.com/kontrakwise/backend/internal/middleware"
	"github.com/kontrakwise/backend/internal/repo"
	"github.com/kontrakwise/backend/internal/schedule"
	"github.com/kontrakwise/backend/internal/service"
)

const embedCacheCapacity = 4096

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "kontrakwise",
		Short: "kontrakwise backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run kontrakwise server",
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

			database, err := db.Open(cfg.Database)
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

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	userRepo := repo.NewUserRepo(database)
	docRepo := repo.NewDocumentRepo(database)
	docTypeRepo := repo.NewDocumentTypeRepo(database)
	vectorRepo := repo.NewVectorRepo(database)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	providerArgs := cfg.AI.Data
	if providerArgs == nil {
		providerArgs = cfg.AI
	}
	aiProvider, err := ai.NewProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	aiClient := ai.NewClient(aiProvider, ai.ClientConfig{
		GenerateModel: cfg.AI.GenerateModel,
		Timeout:       cfg.AI.Timeout,
	})
	embedder := ai.NewCachingEmbedder(
		ai.NewEmbedder(aiProvider, cfg.AI.EmbedModel),
		embedCacheCapacity,
		time.Hour,
	)

	analysisService := service.NewAnalysisService(docRepo, docTypeRepo, aiClient)
	pipeline := ingest.NewPipeline(
		ingest.NewExtractor(aiClient),
		ingest.NewChunker(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap),
		embedder,
		vectorRepo,
		docRepo,
		analysisService,
		cfg.RAG.UpsertBatchSize,
	)

	jwtSecret := []byte(cfg.JWTSecret)
	jwtTTL := time.Hour * time.Duration(cfg.JWTTTLHours)
	authService := service.NewAuthService(userRepo, jwtSecret, jwtTTL)
	documentService := service.NewDocumentService(docRepo, docTypeRepo, vectorRepo, store, pipeline)
	docTypeService := service.NewDocumentTypeService(docTypeRepo)
	chatService := service.NewChatService(docRepo, embedder, vectorRepo, aiClient, cfg.RAG.TopK)

	deps := handler.RouterDeps{
		Auth:          handler.NewAuthHandler(authService),
		Documents:     handler.NewDocumentHandler(documentService),
		DocumentTypes: handler.NewDocumentTypeHandler(docTypeService),
		Chat:          handler.NewChatHandler(chatService),
		JWTSecret:     jwtSecret,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
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
	if cfg.Jobs.IngestRetrySpec != "" {
		retryAfter := time.Duration(cfg.Jobs.RetryAfterMinutes) * time.Minute
		retryJob := job.NewIngestRetryJob(docRepo, documentService, retryAfter)
		if err := scheduler.AddJob(retryJob, cfg.Jobs.IngestRetrySpec); err != nil {
			return fmt.Errorf("schedule ingest retry: %w", err)
		}
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
