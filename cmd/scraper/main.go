package main

import (
	"context"
	"fmt"
	"os"

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

	logger.Info("=== Corven Stock Scraper starting ===")
	logger.Info("Config — pages: %d | page delay: %dms | settle: %dms | login timeout: %ds",
		cfg.MaxPages, cfg.PageDelayMs, cfg.SettleMs, cfg.LoginTimeoutS)

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV snapshot writer: %v", err)
		os.Exit(1)
	}
	defer csvWriter.Close()

	ctx := context.Background()

	store, err := storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.ProductsCollection, logger)
	if err != nil {
		logger.Error("Failed to connect to MongoDB: %v", err)
		os.Exit(1)
	}

	session := corven.NewSession(cfg, logger)
	crawler := corven.NewCrawler(cfg, logger, services.NewExtractor(logger, cfg.ProductsURL))
	runner := corven.NewRunner(cfg, logger, session, crawler, store, csvWriter,
		services.NewReportService(logger))

	if _, err := runner.Run(ctx); err != nil {
		logger.Error("Scrape run failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("  Done. Raw snapshot → %s | Records → MongoDB (%s.%s)\n\n",
		cfg.CSVOutputPath, cfg.MongoDatabase, cfg.ProductsCollection)
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
