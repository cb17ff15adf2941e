package models

import "time"

// StockLevel is the normalized classification of a product's availability,
// derived from the raw stock text shown on the storefront.
type StockLevel string

const (
	LevelLow        StockLevel = "low"
	LevelMedium     StockLevel = "medium"
	LevelAvailable  StockLevel = "available"
	LevelOutOfStock StockLevel = "out_of_stock"
	LevelUnknown    StockLevel = "unknown"
)

// LevelOrder is the logical presentation order used by the API.
var LevelOrder = []StockLevel{LevelOutOfStock, LevelLow, LevelMedium, LevelAvailable, LevelUnknown}

// NoStockInfo is the stock_status placeholder when a card has no stock element.
const NoStockInfo = "Sin información"

// ProductRecord is the unit persisted per product, keyed by Code.
// Each scrape run fully overwrites the stored record for the same code.
type ProductRecord struct {
	Code        string     `bson:"code" json:"code"`
	Name        string     `bson:"name" json:"name"`
	Brand       string     `bson:"brand" json:"brand"`
	StockStatus string     `bson:"stock_status" json:"stock_status"`
	StockLevel  StockLevel `bson:"stock_level" json:"stock_level"`
	ScrapedAt   time.Time  `bson:"scraped_at" json:"scraped_at"`
	SourceURL   string     `bson:"source_url" json:"source_url"`
}

// RunReport summarizes one completed scrape run.
type RunReport struct {
	TotalProducts int                `json:"total_products"`
	Distribution  map[StockLevel]int `json:"stock_distribution"`
	GeneratedAt   time.Time          `json:"generated_at"`
}

// BrandCount is one row of the top-brands aggregation.
type BrandCount struct {
	Brand string `bson:"_id" json:"brand"`
	Count int    `bson:"count" json:"count"`
}

// ReportSummary heads the full stock report served by the API.
type ReportSummary struct {
	TotalProducts int64      `json:"total_products"`
	LastUpdate    *time.Time `json:"last_update"`
	GeneratedAt   time.Time  `json:"generated_at"`
}

// ReportSamples carries example records for the levels that need attention.
type ReportSamples struct {
	LowStock   []*ProductRecord `json:"low_stock"`
	OutOfStock []*ProductRecord `json:"out_of_stock"`
}

// StockReport is the aggregate report served at /api/stock/report.
type StockReport struct {
	Summary      ReportSummary  `json:"summary"`
	Distribution map[string]int `json:"stock_distribution"`
	TopBrands    []BrandCount   `json:"top_brands"`
	Samples      ReportSamples  `json:"samples"`
}

// Stats is the lightweight summary served at /api/stats.
type Stats struct {
	TotalProducts   int64      `json:"total_products"`
	LowStockCount   int64      `json:"low_stock_count"`
	OutOfStockCount int64      `json:"out_of_stock_count"`
	AvailableCount  int64      `json:"available_count"`
	BrandsCount     int        `json:"brands_count"`
	LastUpdate      *time.Time `json:"last_update"`
}

// CatalogItem is the slice of a catalog document the sync job works with.
// Field names follow the catalog collection, which predates this system.
type CatalogItem struct {
	Codigo      string `bson:"codigo" json:"codigo"`
	Nombre      string `bson:"nombre,omitempty" json:"nombre,omitempty"`
	Proveedor   string `bson:"proveedor,omitempty" json:"proveedor,omitempty"`
	StockStatus string `bson:"stock_status,omitempty" json:"stock_status,omitempty"`
}

// SyncReport holds the counters produced by one catalog reconciliation pass.
type SyncReport struct {
	Updated           int            `json:"updated"`
	MarkedNoStock     int            `json:"marked_no_stock"`
	SkippedBySupplier map[string]int `json:"skipped_by_supplier"`
	Processed         int            `json:"processed"`
	GeneratedAt       time.Time      `json:"generated_at"`
}
