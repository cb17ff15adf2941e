package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"corven-stock-tracker/models"
	"corven-stock-tracker/storage"
	"corven-stock-tracker/utils"
)

const (
	defaultPerPage = 50
	maxPerPage     = 200
	defaultSearch  = 20
	maxSearch      = 50
)

// Handler holds dependencies for the read-only query API.
type Handler struct {
	store  storage.ProductReader
	logger *utils.Logger
}

// NewHandler creates an API handler backed by the given store.
func NewHandler(store storage.ProductReader, logger *utils.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Index lists the available endpoints.
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Corven stock API",
		"version": "1.0.0",
		"endpoints": gin.H{
			"health":          "/api/health",
			"products":        "/api/products?page=1&per_page=50&search=codigo&stock_level=low&brand=BENDIX",
			"product_by_code": "/api/products/{code}",
			"search":          "/api/search?q=HQJ",
			"stock_report":    "/api/stock/report",
			"brands":          "/api/brands",
			"stock_levels":    "/api/stock/levels",
			"stats":           "/api/stats",
		},
		"timestamp": time.Now(),
	})
}

// Health reports storage reachability and the current product count.
func (h *Handler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus := "connected"
	if err := h.store.Ping(ctx); err != nil {
		dbStatus = "disconnected"
	}

	total, err := h.store.Count(ctx)
	if err != nil {
		total = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"timestamp":      time.Now(),
		"database":       dbStatus,
		"total_products": total,
	})
}

// ListProducts serves the paginated, filtered product listing.
func (h *Handler) ListProducts(c *gin.Context) {
	page := queryInt64(c, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := queryInt64(c, "per_page", defaultPerPage)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	filter := storage.ListFilter{
		Search:     c.Query("search"),
		StockLevel: c.Query("stock_level"),
		Brand:      c.Query("brand"),
		Page:       page,
		PerPage:    perPage,
	}

	products, total, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		h.serverError(c, "list products", err)
		return
	}
	if products == nil {
		products = []*models.ProductRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
			"total":    total,
			"pages":    (total + perPage - 1) / perPage,
		},
		"filters_applied": gin.H{
			"search":      orNil(filter.Search),
			"stock_level": orNil(filter.StockLevel),
			"brand":       orNil(filter.Brand),
		},
	})
}

// GetProduct serves a single product by its exact code.
func (h *Handler) GetProduct(c *gin.Context) {
	code := c.Param("code")

	product, err := h.store.GetByCode(c.Request.Context(), code)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Producto no encontrado"})
		return
	}
	if err != nil {
		h.serverError(c, "get product", err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// SearchProducts serves a capped free-text search over code and name.
func (h *Handler) SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parámetro q requerido"})
		return
	}

	limit := queryInt64(c, "limit", defaultSearch)
	if limit < 1 {
		limit = defaultSearch
	}
	if limit > maxSearch {
		limit = maxSearch
	}

	results, err := h.store.Search(c.Request.Context(), query, limit)
	if err != nil {
		h.serverError(c, "search", err)
		return
	}
	if results == nil {
		results = []*models.ProductRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}

// StockReport serves the full aggregate stock report.
func (h *Handler) StockReport(c *gin.Context) {
	report, err := h.store.Report(c.Request.Context())
	if err != nil {
		h.serverError(c, "stock report", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Brands serves the sorted distinct brand list.
func (h *Handler) Brands(c *gin.Context) {
	brands, err := h.store.DistinctBrands(c.Request.Context())
	if err != nil {
		h.serverError(c, "brands", err)
		return
	}
	if brands == nil {
		brands = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"brands": brands, "count": len(brands)})
}

// StockLevels serves the stock levels present in storage, in logical order.
func (h *Handler) StockLevels(c *gin.Context) {
	levels, err := h.store.DistinctLevels(c.Request.Context())
	if err != nil {
		h.serverError(c, "stock levels", err)
		return
	}
	if levels == nil {
		levels = []models.StockLevel{}
	}
	c.JSON(http.StatusOK, gin.H{"levels": levels, "count": len(levels)})
}

// Stats serves the lightweight stats summary.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.serverError(c, "stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) serverError(c *gin.Context, op string, err error) {
	h.logger.Error("[api] %s: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func queryInt64(c *gin.Context, key string, fallback int64) int64 {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

// orNil mirrors the convention of echoing applied filters as null when unset.
func orNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
