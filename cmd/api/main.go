package main

import (
	"context"
	"os"

	"corven-stock-tracker/api"
	"corven-stock-tracker/config"
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

	router := api.NewRouter(api.NewHandler(store, logger))

	logger.Info("[api] Corven stock API listening on :%s", cfg.APIPort)
	if err := router.Run(":" + cfg.APIPort); err != nil {
		logger.Error("[api] server stopped: %v", err)
		os.Exit(1)
	}
}
