package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/chengAMS/hyperdoc/internal/ai"
	"github.com/chengAMS/hyperdoc/internal/chunker"
	"github.com/chengAMS/hyperdoc/internal/config"
	"github.com/chengAMS/hyperdoc/internal/embedcache"
	"github.com/chengAMS/hyperdoc/internal/filestore"
	"github.com/chengAMS/hyperdoc/internal/handler"
	"github.com/chengAMS/hyperdoc/internal/job"
	"github.com/chengAMS/hyperdoc/internal/manifold"
	"github.com/chengAMS/hyperdoc/internal/middleware"
	"github.com/chengAMS/hyperdoc/internal/repo"
	"github.com/chengAMS/hyperdoc/internal/schedule"
	"github.com/chengAMS/hyperdoc/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "hyperdoc",
		Short: "hyperdoc document retrieval server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run hyperdoc server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			_ = godotenv.Load()
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
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("store", cfg.Store.Type),
		zap.String("provider", cfg.AI.Provider),
		zap.Int("dim", cfg.AI.Dim),
	)

	store, err := repo.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("init chunk store: %w", err)
	}
	defer store.Close()

	provider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init embedding provider: %w", err)
	}
	embedder := ai.NewEmbedder(provider, cfg.AI.Model, cfg.AI.Dim)
	if cfg.AI.CacheSize > 0 {
		ttl := time.Duration(cfg.AI.CacheTTLMinutes) * time.Minute
		embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.AI.CacheSize, ttl)
	}

	lorentz, err := manifold.NewLorentz(cfg.AI.Dim)
	if err != nil {
		return fmt.Errorf("init manifold: %w", err)
	}
	splitter, err := chunker.NewSplitter(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("init splitter: %w", err)
	}

	retrieval, err := service.NewRetrievalService(service.Deps{
		Splitter:    splitter,
		Embedder:    embedder,
		Manifold:    lorentz,
		Store:       store,
		DefaultTopK: cfg.Retrieval.DefaultTopK,
		MaxTopK:     cfg.Retrieval.MaxTopK,
	})
	if err != nil {
		return fmt.Errorf("init retrieval service: %w", err)
	}

	var archive filestore.Store
	if cfg.Archive.Enable {
		archive, err = filestore.New(cfg.Archive)
		if err != nil {
			return fmt.Errorf("init archive store: %w", err)
		}
	}

	deps := handler.RouterDeps{
		Documents: handler.NewDocumentHandler(retrieval, archive, cfg.Upload.MaxFileSize),
		Search:    handler.NewSearchHandler(retrieval),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
			group.GET("/metrics", gin.WrapH(promhttp.Handler()))
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewDriftAuditJob(store, lorentz), cfg.Jobs.DriftAuditSpec); err != nil {
		return fmt.Errorf("schedule drift audit: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
