package corven

import (
	"context"

	"golang.org/x/time/rate"

	"corven-stock-tracker/config"
	"corven-stock-tracker/models"
	"corven-stock-tracker/services"
	"corven-stock-tracker/utils"
)

// PageFetcher retrieves the rendered markup for one 1-based listing page.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) (string, error)
}

// Crawler drives pagination over the full listing. The page range is fixed:
// it always visits 1..MaxPages, does not stop early on empty tails, and a
// failed page degrades to an empty result instead of aborting the crawl.
type Crawler struct {
	cfg       *config.Config
	logger    *utils.Logger
	extractor *services.Extractor
	limiter   *rate.Limiter
}

// NewCrawler creates a Crawler pacing fetches at the configured page delay.
func NewCrawler(cfg *config.Config, logger *utils.Logger, extractor *services.Extractor) *Crawler {
	return &Crawler{
		cfg:       cfg,
		logger:    logger,
		extractor: extractor,
		limiter:   rate.NewLimiter(rate.Every(cfg.PageDelay()), 1),
	}
}

// CrawlAll fetches and extracts every page in the fixed range sequentially —
// the browser session is a single stateful resource and cannot serve
// concurrent navigations. Returns the full aggregate, possibly empty.
func (c *Crawler) CrawlAll(ctx context.Context, fetcher PageFetcher) []*models.ProductRecord {
	c.logger.Info("[corven] Starting crawl — %d pages", c.cfg.MaxPages)

	all := make([]*models.ProductRecord, 0)

	for page := 1; page <= c.cfg.MaxPages; page++ {
		if page > 1 {
			if err := c.limiter.Wait(ctx); err != nil {
				c.logger.Warn("[corven] pacing wait interrupted: %v", err)
			}
		}

		html, err := fetcher.FetchPage(ctx, page)
		if err != nil {
			c.logger.Error("[corven] page %d failed, continuing with empty result: %v", page, err)
		} else {
			records := c.extractor.Extract(html)
			c.logger.Debug("[corven] page %d — extracted %d products", page, len(records))
			all = append(all, records...)
		}

		if c.cfg.ProgressEvery > 0 && page%c.cfg.ProgressEvery == 0 {
			c.logger.Info("[corven] progress: %d/%d pages — %d products so far",
				page, c.cfg.MaxPages, len(all))
		}
	}

	c.logger.Info("[corven] Crawl complete — total products: %d", len(all))
	return all
}
