package main

import (
	"context"
	"os"

	"github.com/robfig/cron/v3"

	"corven-stock-tracker/config"
	"corven-stock-tracker/scraper/corven"
	"corven-stock-tracker/services"
	"corven-stock-tracker/storage"
	"corven-stock-tracker/utils"
)

func main() {
	cfg := config.Load()
	logger := buildLogger(cfg)
	defer logger.Close()

	logger.Info("=== Scheduler started — cron spec %q ===", cfg.CronSpec)

	c := cron.New()
	if _, err := c.AddFunc(cfg.CronSpec, func() { runScrape(cfg, logger) }); err != nil {
		logger.Error("Invalid cron spec %q: %v", cfg.CronSpec, err)
		os.Exit(1)
	}
	c.Start()

	select {}
}

// runScrape executes one complete pipeline run with fresh dependencies.
// A failed run only logs; the next trigger gets a clean slate.
func runScrape(cfg *config.Config, logger *utils.Logger) {
	logger.Info("[scheduler] === scheduled scrape firing ===")

	ctx := context.Background()

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("[scheduler] csv snapshot writer: %v", err)
		return
	}
	defer csvWriter.Close()

	store, err := storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.ProductsCollection, logger)
	if err != nil {
		logger.Error("[scheduler] mongo connect: %v", err)
		return
	}

	session := corven.NewSession(cfg, logger)
	crawler := corven.NewCrawler(cfg, logger, services.NewExtractor(logger, cfg.ProductsURL))
	runner := corven.NewRunner(cfg, logger, session, crawler, store, csvWriter,
		services.NewReportService(logger))

	if _, err := runner.Run(ctx); err != nil {
		logger.Error("[scheduler] scheduled run failed: %v", err)
		return
	}

	logger.Info("[scheduler] === scheduled scrape completed ===")
}

func buildLogger(cfg *config.Config) *utils.Logger {
	logger := utils.NewLogger()
	if cfg.LogFile == "" {
		return logger
	}
	fileLogger, err := utils.NewFileLogger(cfg.LogFile)
	if err != nil {
		logger.Warn("Could not open log file %s: %v", cfg.LogFile, err)
		return logger
	}
	return fileLogger
}
