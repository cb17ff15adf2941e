package corven

import (
	"context"

	"corven-stock-tracker/config"
	"corven-stock-tracker/models"
	"corven-stock-tracker/services"
	"corven-stock-tracker/storage"
	"corven-stock-tracker/utils"
)

// BrowserSession is what the run controller needs from the rendering session.
type BrowserSession interface {
	Login(ctx context.Context) error
	FetchPage(ctx context.Context, page int) (string, error)
	Close()
}

// RunStore is what the run controller needs from the durable store.
type RunStore interface {
	EnsureIndexes(ctx context.Context) error
	UpsertAll(ctx context.Context, records []*models.ProductRecord) error
	Close(ctx context.Context) error
}

// Runner sequences one complete run: login → crawl → snapshot → upsert →
// summary. The session and the store are owned exclusively by the run and
// released on every exit path.
type Runner struct {
	cfg      *config.Config
	logger   *utils.Logger
	session  BrowserSession
	crawler  *Crawler
	store    RunStore
	snapshot storage.SnapshotWriter
	reports  *services.ReportService
}

// NewRunner wires a run controller. snapshot may be nil to skip the CSV stage.
func NewRunner(
	cfg *config.Config,
	logger *utils.Logger,
	session BrowserSession,
	crawler *Crawler,
	store RunStore,
	snapshot storage.SnapshotWriter,
	reports *services.ReportService,
) *Runner {
	return &Runner{
		cfg:      cfg,
		logger:   logger,
		session:  session,
		crawler:  crawler,
		store:    store,
		snapshot: snapshot,
		reports:  reports,
	}
}

// Run executes the pipeline once. A login failure or an empty aggregate is
// fatal to the run; page, card and record failures have already been absorbed
// at their own scope by the time control returns here.
func (r *Runner) Run(ctx context.Context) (*models.RunReport, error) {
	r.logger.Info("[corven] === daily scrape starting ===")

	defer func() {
		r.session.Close()
		if err := r.store.Close(ctx); err != nil {
			r.logger.Warn("[corven] store close: %v", err)
		}
	}()

	if err := r.session.Login(ctx); err != nil {
		r.logger.Error("[corven] login failed, aborting run: %v", err)
		return nil, err
	}

	records := r.crawler.CrawlAll(ctx, r.session)

	if len(records) == 0 {
		// A full crawl with zero products means a broken selector set or a
		// lost session, not an empty catalog.
		r.logger.Error("[corven] no products extracted after full crawl")
		return nil, ErrNoProducts
	}

	if r.snapshot != nil {
		if err := r.snapshot.WriteSnapshot(records); err != nil {
			r.logger.Warn("[corven] snapshot write failed: %v", err)
		}
	}

	if err := r.store.EnsureIndexes(ctx); err != nil {
		r.logger.Error("[corven] ensure indexes: %v", err)
	}
	if err := r.store.UpsertAll(ctx, records); err != nil {
		r.logger.Error("[corven] upsert: %v", err)
	}

	report := r.reports.Generate(records)
	r.reports.Print(report)

	r.logger.Info("[corven] === daily scrape complete ===")
	return report, nil
}
