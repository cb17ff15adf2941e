package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"corven-stock-tracker/models"
	"corven-stock-tracker/utils"
)

// MongoStore persists scraped product records in a document collection,
// one document per product code, and serves the read API's queries.
type MongoStore struct {
	client   *mongo.Client
	products *mongo.Collection
	logger   *utils.Logger
}

// NewMongoStore connects to MongoDB and verifies the connection with a
// bounded ping-retry, mirroring a store that may still be starting up.
func NewMongoStore(ctx context.Context, uri, dbName, collName string, logger *utils.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	backoff := &utils.Backoff{Attempts: 5, BaseDelay: 2 * time.Second, Logger: logger}
	if err := backoff.Do("mongo-ping", func() error {
		return client.Ping(ctx, nil)
	}); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	return &MongoStore{
		client:   client,
		products: client.Database(dbName).Collection(collName),
		logger:   logger,
	}, nil
}

// Catalog returns a catalog-collection handle sharing this store's client.
func (s *MongoStore) Catalog(collName string) *MongoCatalog {
	return &MongoCatalog{
		coll:   s.products.Database().Collection(collName),
		logger: s.logger,
	}
}

// EnsureIndexes creates the unique index on code. Safe to call every run.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.products.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo: ensure code index: %w", err)
	}
	return nil
}

// UpsertAll writes each record by code in input order, replacing the full
// document so no field from a prior run survives. Individual failures are
// logged and skipped; there is no batch transaction and no retry.
func (s *MongoStore) UpsertAll(ctx context.Context, records []*models.ProductRecord) error {
	opts := options.Replace().SetUpsert(true)

	var written, failed int
	for _, r := range records {
		_, err := s.products.ReplaceOne(ctx, bson.M{"code": r.Code}, r, opts)
		if err != nil {
			failed++
			s.logger.Error("[mongo] upsert %s failed: %v", r.Code, err)
			continue
		}
		written++
	}

	s.logger.Info("[mongo] upserted %d products (%d failed)", written, failed)
	return nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping reports storage reachability.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Count returns the total number of stored products.
func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	return s.products.CountDocuments(ctx, bson.M{})
}

// List returns one page of products matching the filter, newest scrape first,
// along with the total match count.
func (s *MongoStore) List(ctx context.Context, f ListFilter) ([]*models.ProductRecord, int64, error) {
	filter := bson.M{}
	if f.Search != "" {
		filter["$or"] = bson.A{
			bson.M{"code": bson.M{"$regex": f.Search, "$options": "i"}},
			bson.M{"name": bson.M{"$regex": f.Search, "$options": "i"}},
		}
	}
	if f.StockLevel != "" {
		filter["stock_level"] = f.StockLevel
	}
	if f.Brand != "" {
		filter["brand"] = f.Brand
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "scraped_at", Value: -1}}).
		SetSkip((f.Page - 1) * f.PerPage).
		SetLimit(f.PerPage)

	cur, err := s.products.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("mongo: list: %w", err)
	}
	// Non-nil so an empty page serializes as [] rather than null.
	records := make([]*models.ProductRecord, 0, f.PerPage)
	if err := cur.All(ctx, &records); err != nil {
		return nil, 0, fmt.Errorf("mongo: list decode: %w", err)
	}

	total, err := s.products.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("mongo: list count: %w", err)
	}

	return records, total, nil
}

// GetByCode fetches the single record under the given code.
func (s *MongoStore) GetByCode(ctx context.Context, code string) (*models.ProductRecord, error) {
	var rec models.ProductRecord
	err := s.products.FindOne(ctx, bson.M{"code": code}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: get %q: %w", code, err)
	}
	return &rec, nil
}

// Search does a case-insensitive substring search over code and name.
func (s *MongoStore) Search(ctx context.Context, query string, limit int64) ([]*models.ProductRecord, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"code": bson.M{"$regex": query, "$options": "i"}},
		bson.M{"name": bson.M{"$regex": query, "$options": "i"}},
	}}

	opts := options.Find().
		SetSort(bson.D{{Key: "scraped_at", Value: -1}}).
		SetLimit(limit)

	cur, err := s.products.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: search: %w", err)
	}
	records := make([]*models.ProductRecord, 0, limit)
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("mongo: search decode: %w", err)
	}
	return records, nil
}

// DistinctBrands returns the sorted set of non-empty brands.
func (s *MongoStore) DistinctBrands(ctx context.Context) ([]string, error) {
	raw, err := s.products.Distinct(ctx, "brand", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("mongo: distinct brands: %w", err)
	}

	brands := make([]string, 0, len(raw))
	for _, v := range raw {
		if b, ok := v.(string); ok && b != "" {
			brands = append(brands, b)
		}
	}
	sort.Strings(brands)
	return brands, nil
}

// DistinctLevels returns the stock levels present in storage, in the fixed
// logical order out_of_stock, low, medium, available, unknown.
func (s *MongoStore) DistinctLevels(ctx context.Context) ([]models.StockLevel, error) {
	raw, err := s.products.Distinct(ctx, "stock_level", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("mongo: distinct levels: %w", err)
	}

	present := make(map[models.StockLevel]bool, len(raw))
	for _, v := range raw {
		if l, ok := v.(string); ok {
			present[models.StockLevel(l)] = true
		}
	}

	levels := make([]models.StockLevel, 0, len(present))
	for _, l := range models.LevelOrder {
		if present[l] {
			levels = append(levels, l)
		}
	}
	return levels, nil
}

// Report builds the full aggregate stock report.
func (s *MongoStore) Report(ctx context.Context) (*models.StockReport, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("mongo: report count: %w", err)
	}

	distribution, err := s.levelDistribution(ctx)
	if err != nil {
		return nil, err
	}

	topBrands, err := s.topBrands(ctx, 10)
	if err != nil {
		return nil, err
	}

	lowSamples, err := s.levelSamples(ctx, models.LevelLow, 20)
	if err != nil {
		return nil, err
	}
	outSamples, err := s.levelSamples(ctx, models.LevelOutOfStock, 20)
	if err != nil {
		return nil, err
	}

	lastUpdate, err := s.lastScrapedAt(ctx)
	if err != nil {
		return nil, err
	}

	return &models.StockReport{
		Summary: models.ReportSummary{
			TotalProducts: total,
			LastUpdate:    lastUpdate,
			GeneratedAt:   time.Now(),
		},
		Distribution: distribution,
		TopBrands:    topBrands,
		Samples: models.ReportSamples{
			LowStock:   lowSamples,
			OutOfStock: outSamples,
		},
	}, nil
}

// Stats builds the lightweight summary.
func (s *MongoStore) Stats(ctx context.Context) (*models.Stats, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("mongo: stats count: %w", err)
	}

	counts := make(map[models.StockLevel]int64, 3)
	for _, level := range []models.StockLevel{models.LevelLow, models.LevelOutOfStock, models.LevelAvailable} {
		n, err := s.products.CountDocuments(ctx, bson.M{"stock_level": level})
		if err != nil {
			return nil, fmt.Errorf("mongo: stats count %s: %w", level, err)
		}
		counts[level] = n
	}

	brands, err := s.DistinctBrands(ctx)
	if err != nil {
		return nil, err
	}

	lastUpdate, err := s.lastScrapedAt(ctx)
	if err != nil {
		return nil, err
	}

	return &models.Stats{
		TotalProducts:   total,
		LowStockCount:   counts[models.LevelLow],
		OutOfStockCount: counts[models.LevelOutOfStock],
		AvailableCount:  counts[models.LevelAvailable],
		BrandsCount:     len(brands),
		LastUpdate:      lastUpdate,
	}, nil
}

// StockStatusByCode loads the full code → raw stock status mapping, the
// input to the catalog sync job.
func (s *MongoStore) StockStatusByCode(ctx context.Context) (map[string]string, error) {
	opts := options.Find().SetProjection(bson.M{"code": 1, "stock_status": 1})
	cur, err := s.products.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: stock by code: %w", err)
	}
	defer cur.Close(ctx)

	stock := make(map[string]string)
	for cur.Next(ctx) {
		var doc struct {
			Code        string `bson:"code"`
			StockStatus string `bson:"stock_status"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: stock by code decode: %w", err)
		}
		stock[doc.Code] = doc.StockStatus
	}
	return stock, cur.Err()
}

func (s *MongoStore) levelDistribution(ctx context.Context) (map[string]int, error) {
	cur, err := s.products.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$stock_level"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("mongo: level distribution: %w", err)
	}

	var rows []struct {
		Level string `bson:"_id"`
		Count int    `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("mongo: level distribution decode: %w", err)
	}

	dist := make(map[string]int, len(rows))
	for _, row := range rows {
		dist[row.Level] = row.Count
	}
	return dist, nil
}

func (s *MongoStore) topBrands(ctx context.Context, limit int) ([]models.BrandCount, error) {
	cur, err := s.products.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$brand"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
		bson.D{{Key: "$limit", Value: limit}},
	})
	if err != nil {
		return nil, fmt.Errorf("mongo: top brands: %w", err)
	}

	brands := make([]models.BrandCount, 0, limit)
	if err := cur.All(ctx, &brands); err != nil {
		return nil, fmt.Errorf("mongo: top brands decode: %w", err)
	}
	return brands, nil
}

func (s *MongoStore) levelSamples(ctx context.Context, level models.StockLevel, limit int64) ([]*models.ProductRecord, error) {
	opts := options.Find().
		SetProjection(bson.M{"code": 1, "name": 1, "brand": 1, "stock_status": 1, "stock_level": 1}).
		SetLimit(limit)

	cur, err := s.products.Find(ctx, bson.M{"stock_level": level}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: %s samples: %w", level, err)
	}
	records := make([]*models.ProductRecord, 0, limit)
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("mongo: %s samples decode: %w", level, err)
	}
	return records, nil
}

func (s *MongoStore) lastScrapedAt(ctx context.Context) (*time.Time, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "scraped_at", Value: -1}})

	var rec models.ProductRecord
	err := s.products.FindOne(ctx, bson.M{}, opts).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: last update: %w", err)
	}
	return &rec.ScrapedAt, nil
}

// MongoCatalog exposes the catalog collection to the sync job.
type MongoCatalog struct {
	coll   *mongo.Collection
	logger *utils.Logger
}

// Items loads the code/supplier slice of every catalog document.
func (c *MongoCatalog) Items(ctx context.Context) ([]models.CatalogItem, error) {
	opts := options.Find().SetProjection(bson.M{"codigo": 1, "proveedor": 1})
	cur, err := c.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: catalog items: %w", err)
	}
	var items []models.CatalogItem
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("mongo: catalog items decode: %w", err)
	}
	return items, nil
}

// SetStockStatus updates one catalog document's stock fields in place.
func (c *MongoCatalog) SetStockStatus(ctx context.Context, codigo, status string, at time.Time) error {
	_, err := c.coll.UpdateOne(ctx,
		bson.M{"codigo": codigo},
		bson.M{"$set": bson.M{"stock_status": status, "stock_updated_at": at}},
	)
	if err != nil {
		return fmt.Errorf("mongo: set stock for %q: %w", codigo, err)
	}
	return nil
}

// StockSamples returns a few catalog documents that already carry a stock
// status, for post-sync verification logging.
func (c *MongoCatalog) StockSamples(ctx context.Context, limit int) ([]models.CatalogItem, error) {
	opts := options.Find().
		SetProjection(bson.M{"codigo": 1, "nombre": 1, "stock_status": 1, "proveedor": 1}).
		SetLimit(int64(limit))

	cur, err := c.coll.Find(ctx, bson.M{"stock_status": bson.M{"$exists": true}}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: stock samples: %w", err)
	}
	var items []models.CatalogItem
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("mongo: stock samples decode: %w", err)
	}
	return items, nil
}
