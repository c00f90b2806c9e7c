package main

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AIchemizt/dance-analysis-server/internal/analyzer"
	"github.com/AIchemizt/dance-analysis-server/internal/config"
	"github.com/AIchemizt/dance-analysis-server/internal/database"
	"github.com/AIchemizt/dance-analysis-server/internal/handlers"
	logger "github.com/AIchemizt/dance-analysis-server/internal/logging"
	"github.com/AIchemizt/dance-analysis-server/internal/models"
	"github.com/AIchemizt/dance-analysis-server/internal/repository"
	"github.com/AIchemizt/dance-analysis-server/internal/router"
)

func main() {
	// Local development convenience; absence of a .env file is fine.
	godotenv.Load()

	// The full logger needs the rotation settings from the configuration,
	// so configuration loads first against a console-only logger.
	bootstrapLog := logger.Bootstrap()
	if err := config.Init(".", bootstrapLog); err != nil {
		bootstrapLog.Fatal("Failed to load configuration", zap.Error(err))
	}

	logConf := config.Conf.Logging
	log, err := logger.Init(".", logger.Settings{
		Directory:  logConf.Directory,
		MaxSizeMB:  logConf.MaxSize,
		MaxBackups: logConf.MaxBackups,
		MaxAgeDays: logConf.MaxAge,
		Compress:   logConf.Compress,
	})
	if err != nil {
		bootstrapLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer log.Sync()

	// Load pose definitions at startup. A malformed library is the one
	// condition that aborts: fail fast rather than silently skip poses.
	lib, err := models.LoadPoseLibrary(config.Conf.Analysis.PoseLibrary)
	if err != nil {
		log.Fatal("Failed to load pose library", zap.Error(err))
	}

	analysisConf := config.Conf.Analysis
	a, err := analyzer.New(lib, analyzer.Config{
		MinConsecutiveFrames: analysisConf.MinConsecutiveFrames,
		VisibilityThreshold:  analysisConf.VisibilityThreshold,
		PeakStdMultiplier:    analysisConf.PeakStdMultiplier,
		AssumedFPS:           analysisConf.AssumedFPS,
	})
	if err != nil {
		log.Fatal("Invalid analysis configuration", zap.Error(err))
	}
	log.Info("Pose library loaded", zap.Int("poses", len(lib.Poses)))

	// Optional persistence of analysis runs
	persist := config.Conf.Database.Enabled
	var runsHandler *handlers.RunsHandler
	if persist {
		if err := database.Init(log); err != nil {
			log.Fatal("Failed to initialize database", zap.Error(err))
		}
		runsHandler = handlers.NewRunsHandler(log)

		if config.Conf.Redis.Enabled {
			client := redis.NewClient(&redis.Options{
				Addr: config.Conf.Redis.Addr,
				DB:   config.Conf.Redis.DB,
			})
			ttl := time.Duration(config.Conf.Redis.TTLMinutes) * time.Minute
			repository.Cache = repository.NewReportCache(client, ttl)
			log.Info("Report cache enabled", zap.String("addr", config.Conf.Redis.Addr))
		}
	}

	analyzeHandler := handlers.NewAnalyzeHandler(log, a, persist)
	r := router.Setup(log, analyzeHandler, runsHandler)

	// Start the Gin server
	port := ":" + config.Conf.Server.Port
	log.Info("Server listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run Gin server", zap.Error(err))
	}
}
