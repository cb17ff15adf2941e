package services

import (
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"corven-stock-tracker/models"
	"corven-stock-tracker/utils"
)

// Selectors for the storefront's card markup. The site renders a fixed
// class-based structure; these must track any upstream redesign.
const (
	cardSelector  = "div.product"
	codeSelector  = "div.info--view-list"
	stockSelector = "div.product-card__stock"
	nameSelector  = "div.product-card__name a span"
	brandSelector = "div.brand--view-list"
)

type stockRule struct {
	substr string
	level  models.StockLevel
}

// stockRules maps raw stock text to a stock level by ordered substring match.
// The wording is the storefront's own and is brittle against copy changes;
// anything unmatched falls through to LevelUnknown and is logged so taxonomy
// drift shows up in the run output.
var stockRules = []stockRule{
	{"Stock bajo", models.LevelLow},
	{"Sin stock", models.LevelOutOfStock},
	{"Agotado", models.LevelOutOfStock},
	{"Stock disponible", models.LevelAvailable},
	{"Stock alto", models.LevelAvailable},
	{"Stock medio", models.LevelMedium},
}

// ClassifyStock maps raw stock text into the stock-level taxonomy.
func ClassifyStock(text string) models.StockLevel {
	for _, r := range stockRules {
		if strings.Contains(text, r.substr) {
			return r.level
		}
	}
	return models.LevelUnknown
}

// Extractor parses one page of rendered listing HTML into product records.
type Extractor struct {
	logger    *utils.Logger
	sourceURL string
}

// NewExtractor creates an Extractor stamping records with the given listing URL.
func NewExtractor(logger *utils.Logger, sourceURL string) *Extractor {
	return &Extractor{logger: logger, sourceURL: sourceURL}
}

// Extract returns every identifiable product on the page. A card without a
// code element cannot be keyed and is skipped; name, brand and stock text are
// each optional. A bad card never aborts the rest of the page.
func (e *Extractor) Extract(html string) []*models.ProductRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.logger.Warn("[extract] unparseable page markup: %v", err)
		return nil
	}

	records := make([]*models.ProductRecord, 0)

	doc.Find(cardSelector).Each(func(i int, card *goquery.Selection) {
		rec := e.extractCard(card)
		if rec == nil {
			return
		}
		records = append(records, rec)
	})

	return records
}

func (e *Extractor) extractCard(card *goquery.Selection) *models.ProductRecord {
	codeEl := card.Find(codeSelector).First()
	if codeEl.Length() == 0 {
		return nil
	}
	code := normaliseText(codeEl.Text())
	if code == "" {
		return nil
	}

	status := models.NoStockInfo
	level := models.LevelUnknown

	if stockEl := card.Find(stockSelector).First(); stockEl.Length() > 0 {
		status = normaliseText(stockEl.Text())
		level = ClassifyStock(status)
		if level == models.LevelUnknown {
			e.logger.Warn("[extract] unrecognised stock text for %s: %q", code, status)
		}
	}

	return &models.ProductRecord{
		Code:        code,
		Name:        normaliseText(card.Find(nameSelector).First().Text()),
		Brand:       normaliseText(card.Find(brandSelector).First().Text()),
		StockStatus: status,
		StockLevel:  level,
		ScrapedAt:   time.Now(),
		SourceURL:   e.sourceURL,
	}
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
