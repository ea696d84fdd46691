package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"symptomcheck/config"
	"symptomcheck/db"
	shttp "symptomcheck/http"
	"symptomcheck/logging"
	"symptomcheck/ml"
	"symptomcheck/monitoring"
)

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", "config.yaml"), "path to the YAML config file")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("failed to load config", zap.Error(err))
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("failed to build logger", zap.Error(err))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Load artifacts; the service never starts without them
	paths := artifactPaths(cfg.Artifacts)
	artifacts, err := ml.LoadArtifacts(ctx, paths)
	if err != nil {
		logger.Error("failed to load model artifacts", zap.Strings("files", paths.Files()), zap.Error(err))
		os.Exit(1)
	}
	logger.Info("model artifacts loaded",
		zap.String("dir", cfg.Artifacts.Dir),
		zap.String("model_type", paths.ModelType),
		zap.Int("features", artifacts.Schema.Len()),
		zap.Int("classes", artifacts.Encoder.Len()),
	)

	policy, err := ml.ParseMissingPolicy(cfg.Predict.MissingPolicy)
	if err != nil {
		logger.Fatal("invalid missing policy", zap.Error(err))
	}

	base := ml.NewPredictor(artifacts, policy)
	var predictor shttp.PredictService = base
	if cfg.Predict.CacheSize > 0 {
		cached, err := ml.NewCachedPredictor(base, cfg.Predict.CacheSize)
		if err != nil {
			logger.Fatal("failed to create prediction cache", zap.Error(err))
		}
		predictor = cached
	}

	opts := shttp.Options{
		Predictor: predictor,
		Metrics:   monitoring.NewMetricsCollector(),
		Logger:    logger,
	}

	if cfg.HTTP.Stream {
		hub := monitoring.NewHub(cfg.HTTP.AllowedOrigins, logger)
		go hub.Run(ctx)
		opts.Stream = hub
	}

	// 3. Optional artifact watcher and history store
	if cfg.Artifacts.Watch {
		watcher, err := ml.NewWatcher(paths.Files(), logger)
		if err != nil {
			logger.Warn("artifact watcher disabled", zap.Error(err))
		} else {
			defer watcher.Close()
			go watcher.Run(ctx)
			opts.Watcher = watcher
		}
	}

	if cfg.History.Path != "" {
		history, err := db.OpenHistory(cfg.History.Path)
		if err != nil {
			logger.Fatal("failed to open prediction history", zap.String("path", cfg.History.Path), zap.Error(err))
		}
		defer history.Close()
		opts.History = history
		logger.Info("prediction history enabled", zap.String("path", cfg.History.Path))
	}

	// 4. Start HTTP server
	server := shttp.NewServer(shttp.ServerConfig{
		Port:           cfg.HTTP.Port,
		Timeout:        cfg.HTTP.Timeout,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, shttp.NewHandler(opts), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 5. Handle graceful shutdown
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
			os.Exit(1)
		}
	}

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("exiting")
}

func artifactPaths(cfg config.ArtifactsConfig) ml.ArtifactPaths {
	paths := ml.DefaultArtifactPaths(cfg.Dir)
	paths.Schema = cfg.ArtifactFile(cfg.Features, "features.json")
	paths.Scaler = cfg.ArtifactFile(cfg.Scaler, "scaler.json")
	paths.LabelEncoder = cfg.ArtifactFile(cfg.LabelEncoder, "label_encoder.json")
	paths.Model = cfg.ArtifactFile(cfg.Model, "model.json")
	if cfg.ModelType != "" {
		paths.ModelType = cfg.ModelType
	}
	return paths
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
