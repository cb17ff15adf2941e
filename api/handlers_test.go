package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corven-stock-tracker/models"
	"corven-stock-tracker/storage"
	"corven-stock-tracker/utils"
)

// memStore is an in-memory ProductReader for handler tests.
type memStore struct {
	records []*models.ProductRecord
	pingErr error
}

func (m *memStore) matches(r *models.ProductRecord, f storage.ListFilter) bool {
	if f.StockLevel != "" && string(r.StockLevel) != f.StockLevel {
		return false
	}
	if f.Brand != "" && r.Brand != f.Brand {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.Code), q) && !strings.Contains(strings.ToLower(r.Name), q) {
			return false
		}
	}
	return true
}

func (m *memStore) List(ctx context.Context, f storage.ListFilter) ([]*models.ProductRecord, int64, error) {
	var matched []*models.ProductRecord
	for _, r := range m.records {
		if m.matches(r, f) {
			matched = append(matched, r)
		}
	}

	start := (f.Page - 1) * f.PerPage
	end := start + f.PerPage
	total := int64(len(matched))
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *memStore) GetByCode(ctx context.Context, code string) (*models.ProductRecord, error) {
	for _, r := range m.records {
		if r.Code == code {
			return r, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) Search(ctx context.Context, query string, limit int64) ([]*models.ProductRecord, error) {
	out, _, err := m.List(ctx, storage.ListFilter{Search: query, Page: 1, PerPage: limit})
	return out, err
}

func (m *memStore) DistinctBrands(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var brands []string
	for _, r := range m.records {
		if r.Brand != "" && !seen[r.Brand] {
			seen[r.Brand] = true
			brands = append(brands, r.Brand)
		}
	}
	return brands, nil
}

func (m *memStore) DistinctLevels(ctx context.Context) ([]models.StockLevel, error) {
	present := map[models.StockLevel]bool{}
	for _, r := range m.records {
		present[r.StockLevel] = true
	}
	var levels []models.StockLevel
	for _, l := range models.LevelOrder {
		if present[l] {
			levels = append(levels, l)
		}
	}
	return levels, nil
}

func (m *memStore) Report(ctx context.Context) (*models.StockReport, error) {
	return &models.StockReport{
		Summary:      models.ReportSummary{TotalProducts: int64(len(m.records)), GeneratedAt: time.Now()},
		Distribution: map[string]int{},
	}, nil
}

func (m *memStore) Stats(ctx context.Context) (*models.Stats, error) {
	return &models.Stats{TotalProducts: int64(len(m.records))}, nil
}

func (m *memStore) Count(ctx context.Context) (int64, error) {
	return int64(len(m.records)), nil
}

func (m *memStore) Ping(ctx context.Context) error { return m.pingErr }

func serveJSON(t *testing.T, store *memStore, url string) (int, map[string]any) {
	t.Helper()
	router := NewRouter(NewHandler(store, utils.NewLogger()))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	router.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func twoLowStore() *memStore {
	return &memStore{records: []*models.ProductRecord{
		{Code: "HQJ100", Name: "Amortiguador", Brand: "CORVEN", StockLevel: models.LevelLow},
		{Code: "HQJ200", Name: "Pastilla", Brand: "BENDIX", StockLevel: models.LevelLow},
		{Code: "XYZ300", Name: "Disco", Brand: "BENDIX", StockLevel: models.LevelAvailable},
	}}
}

func TestListProductsPagination(t *testing.T) {
	code, body := serveJSON(t, twoLowStore(), "/api/products?stock_level=low&page=1&per_page=1")

	assert.Equal(t, http.StatusOK, code)

	products := body["products"].([]any)
	assert.Len(t, products, 1)

	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, float64(2), pagination["total"])
	assert.Equal(t, float64(2), pagination["pages"])
	assert.Equal(t, float64(1), pagination["page"])

	filters := body["filters_applied"].(map[string]any)
	assert.Equal(t, "low", filters["stock_level"])
	assert.Nil(t, filters["search"])
}

func TestEmptyResultsSerializeAsArrays(t *testing.T) {
	code, body := serveJSON(t, twoLowStore(), "/api/products?search=nomatch")

	assert.Equal(t, http.StatusOK, code)

	products, ok := body["products"].([]any)
	require.True(t, ok, "products must be a JSON array, got %T", body["products"])
	assert.Empty(t, products)

	code, body = serveJSON(t, twoLowStore(), "/api/search?q=nomatch")

	assert.Equal(t, http.StatusOK, code)
	results, ok := body["results"].([]any)
	require.True(t, ok, "results must be a JSON array, got %T", body["results"])
	assert.Empty(t, results)

	code, body = serveJSON(t, &memStore{}, "/api/brands")

	assert.Equal(t, http.StatusOK, code)
	brands, ok := body["brands"].([]any)
	require.True(t, ok, "brands must be a JSON array, got %T", body["brands"])
	assert.Empty(t, brands)
}

func TestListProductsCapsPerPage(t *testing.T) {
	code, body := serveJSON(t, twoLowStore(), "/api/products?per_page=500")

	assert.Equal(t, http.StatusOK, code)
	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, float64(200), pagination["per_page"])
}

func TestGetProductByCode(t *testing.T) {
	code, body := serveJSON(t, twoLowStore(), "/api/products/HQJ100")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "HQJ100", body["code"])
}

func TestGetProductNotFound(t *testing.T) {
	code, body := serveJSON(t, twoLowStore(), "/api/products/NOPE")

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Producto no encontrado", body["error"])
}

func TestSearchRequiresQuery(t *testing.T) {
	code, body := serveJSON(t, twoLowStore(), "/api/search")

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "q requerido")
}

func TestSearchReturnsMatches(t *testing.T) {
	code, body := serveJSON(t, twoLowStore(), "/api/search?q=hqj")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, "hqj", body["query"])
}

func TestStockLevelsLogicalOrder(t *testing.T) {
	store := &memStore{records: []*models.ProductRecord{
		{Code: "A", StockLevel: models.LevelAvailable},
		{Code: "B", StockLevel: models.LevelOutOfStock},
		{Code: "C", StockLevel: models.LevelLow},
	}}

	code, body := serveJSON(t, store, "/api/stock/levels")

	assert.Equal(t, http.StatusOK, code)
	levels := body["levels"].([]any)
	require.Len(t, levels, 3)
	assert.Equal(t, "out_of_stock", levels[0])
	assert.Equal(t, "low", levels[1])
	assert.Equal(t, "available", levels[2])
}

func TestHealth(t *testing.T) {
	code, body := serveJSON(t, twoLowStore(), "/api/health")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "connected", body["database"])
	assert.Equal(t, float64(3), body["total_products"])
}
