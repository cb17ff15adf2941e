package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"corven-stock-tracker/models"
	"corven-stock-tracker/utils"
)

// NoStockStatus is written to catalog products whose code did not appear in
// the latest scrape and whose supplier is not in the exclusion set.
const NoStockStatus = "Sin stock"

// StockSource provides the scraped code → raw stock status mapping.
type StockSource interface {
	StockStatusByCode(ctx context.Context) (map[string]string, error)
}

// Catalog is the system-of-record product listing the sync job writes into.
type Catalog interface {
	Items(ctx context.Context) ([]models.CatalogItem, error)
	SetStockStatus(ctx context.Context, codigo, status string, at time.Time) error
	StockSamples(ctx context.Context, limit int) ([]models.CatalogItem, error)
}

// StockSyncer reconciles scraped stock statuses into the catalog collection.
//
// Matching is by exact product code. Codes missing from the scrape are marked
// NoStockStatus, except for suppliers in the skip set — those are not stocked
// through this storefront, so an absent code says nothing about their stock.
type StockSyncer struct {
	source StockSource
	cat    Catalog
	skip   map[string]struct{}
	logger *utils.Logger
}

func NewStockSyncer(source StockSource, cat Catalog, skipSuppliers []string, logger *utils.Logger) *StockSyncer {
	skip := make(map[string]struct{}, len(skipSuppliers))
	for _, s := range skipSuppliers {
		skip[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	return &StockSyncer{source: source, cat: cat, skip: skip, logger: logger}
}

// Sync runs one full reconciliation pass and returns its counters.
func (s *StockSyncer) Sync(ctx context.Context) (*models.SyncReport, error) {
	s.logger.Info("[sync] === stock sync starting ===")

	stock, err := s.source.StockStatusByCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync: load scraped stock: %w", err)
	}
	s.logger.Info("[sync] scraped stock entries: %d", len(stock))

	items, err := s.cat.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync: load catalog: %w", err)
	}
	s.logger.Info("[sync] catalog products: %d", len(items))

	report := &models.SyncReport{
		SkippedBySupplier: make(map[string]int),
		GeneratedAt:       time.Now(),
	}
	now := time.Now()

	for _, item := range items {
		report.Processed++
		supplier := strings.ToLower(strings.TrimSpace(item.Proveedor))

		if status, ok := stock[item.Codigo]; ok {
			if err := s.cat.SetStockStatus(ctx, item.Codigo, status, now); err != nil {
				s.logger.Error("[sync] update %s failed: %v", item.Codigo, err)
				continue
			}
			report.Updated++
			if report.Updated%100 == 0 {
				s.logger.Info("[sync] updated %d products...", report.Updated)
			}
			continue
		}

		if _, skipped := s.skip[supplier]; skipped {
			report.SkippedBySupplier[supplier]++
			s.logger.Debug("[sync] skipping %s product: %s", supplier, item.Codigo)
			continue
		}

		if err := s.cat.SetStockStatus(ctx, item.Codigo, NoStockStatus, now); err != nil {
			s.logger.Error("[sync] mark %s failed: %v", item.Codigo, err)
			continue
		}
		report.MarkedNoStock++
	}

	s.logger.Info("[sync] === stock sync complete ===")
	s.logger.Info("[sync] updated: %d | marked %q: %d", report.Updated, NoStockStatus, report.MarkedNoStock)
	for supplier, n := range report.SkippedBySupplier {
		s.logger.Info("[sync] skipped %s products: %d", supplier, n)
	}

	s.logSamples(ctx)
	return report, nil
}

func (s *StockSyncer) logSamples(ctx context.Context) {
	samples, err := s.cat.StockSamples(ctx, 5)
	if err != nil {
		s.logger.Warn("[sync] could not load verification samples: %v", err)
		return
	}
	for _, sample := range samples {
		s.logger.Info("[sync] sample %s (%s): %s", sample.Codigo, sample.Proveedor, sample.StockStatus)
	}
}
