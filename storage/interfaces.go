package storage

import (
	"context"
	"errors"

	"corven-stock-tracker/models"
)

// ErrNotFound is returned when a lookup by code matches no stored record.
var ErrNotFound = errors.New("storage: product not found")

// ListFilter narrows a product listing query.
type ListFilter struct {
	Search     string // case-insensitive substring over code/name
	StockLevel string // exact match
	Brand      string // exact match
	Page       int64  // 1-based
	PerPage    int64
}

// ProductWriter is what the scrape pipeline needs from the durable store.
type ProductWriter interface {
	EnsureIndexes(ctx context.Context) error
	UpsertAll(ctx context.Context, records []*models.ProductRecord) error
	Close(ctx context.Context) error
}

// ProductReader is the query surface consumed by the read API.
type ProductReader interface {
	List(ctx context.Context, f ListFilter) ([]*models.ProductRecord, int64, error)
	GetByCode(ctx context.Context, code string) (*models.ProductRecord, error)
	Search(ctx context.Context, query string, limit int64) ([]*models.ProductRecord, error)
	DistinctBrands(ctx context.Context) ([]string, error)
	DistinctLevels(ctx context.Context) ([]models.StockLevel, error)
	Report(ctx context.Context) (*models.StockReport, error)
	Stats(ctx context.Context) (*models.Stats, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// SnapshotWriter persists the raw per-run aggregate for diagnosis.
type SnapshotWriter interface {
	WriteSnapshot(records []*models.ProductRecord) error
	Close() error
}
