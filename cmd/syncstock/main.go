package main

import (
	"context"
	"os"

	"corven-stock-tracker/config"
	"corven-stock-tracker/services"
	"corven-stock-tracker/storage"
	"corven-stock-tracker/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger()

	ctx := context.Background()

	store, err := storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.ProductsCollection, logger)
	if err != nil {
		logger.Error("Failed to connect to MongoDB: %v", err)
		os.Exit(1)
	}
	defer store.Close(ctx)

	catalog := store.Catalog(cfg.CatalogCollection)
	syncer := services.NewStockSyncer(store, catalog, cfg.SkipSuppliers, logger)

	report, err := syncer.Sync(ctx)
	if err != nil {
		logger.Error("Stock sync failed: %v", err)
		os.Exit(1)
	}

	logger.Info("Sync done — processed %d catalog products", report.Processed)
}
