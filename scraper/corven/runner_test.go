package corven

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"corven-stock-tracker/config"
	"corven-stock-tracker/models"
	"corven-stock-tracker/services"
	"corven-stock-tracker/utils"
)

type fakeSession struct {
	loginErr error
	html     string
	pages    map[int]string
	fetchErr error
	closed   bool
}

func (f *fakeSession) Login(ctx context.Context) error { return f.loginErr }

func (f *fakeSession) FetchPage(ctx context.Context, page int) (string, error) {
	if html, ok := f.pages[page]; ok {
		return html, f.fetchErr
	}
	return f.html, f.fetchErr
}

func (f *fakeSession) Close() { f.closed = true }

// fakeStore mirrors the replace-by-code contract of the real store: a second
// write with the same code overwrites the first instead of adding a document.
type fakeStore struct {
	byCode  map[string]*models.ProductRecord
	writes  int
	indexed bool
	closed  bool
}

func (f *fakeStore) EnsureIndexes(ctx context.Context) error { f.indexed = true; return nil }

func (f *fakeStore) UpsertAll(ctx context.Context, records []*models.ProductRecord) error {
	if f.byCode == nil {
		f.byCode = make(map[string]*models.ProductRecord)
	}
	for _, r := range records {
		f.byCode[r.Code] = r
		f.writes++
	}
	return nil
}

func (f *fakeStore) Close(ctx context.Context) error { f.closed = true; return nil }

func newTestRunner(session *fakeSession, store *fakeStore, maxPages int) *Runner {
	logger := utils.NewLogger()
	cfg := &config.Config{MaxPages: maxPages, PageDelayMs: 0, ProgressEvery: 10}
	crawler := NewCrawler(cfg, logger, services.NewExtractor(logger, "https://example.test/products"))
	return NewRunner(cfg, logger, session, crawler, store, nil, services.NewReportService(logger))
}

func namedCardHTML(code, name string) string {
	return fmt.Sprintf(`
<html><body>
  <div class="product">
    <div class="info--view-list">%s</div>
    <div class="product-card__name"><a href="#"><span>%s</span></a></div>
    <div class="product-card__stock">Stock bajo</div>
  </div>
</body></html>`, code, name)
}

func TestRunFailsWhenLoginFails(t *testing.T) {
	session := &fakeSession{loginErr: ErrLoginFailed}
	store := &fakeStore{}

	_, err := newTestRunner(session, store, 3).Run(context.Background())

	if !errors.Is(err, ErrLoginFailed) {
		t.Errorf("expected ErrLoginFailed, got %v", err)
	}
	if !session.closed || !store.closed {
		t.Error("cleanup must run on login failure")
	}
	if store.writes != 0 {
		t.Error("nothing should be upserted on login failure")
	}
}

func TestRunFailsOnEmptyCrawl(t *testing.T) {
	session := &fakeSession{fetchErr: errors.New("timeout")}
	store := &fakeStore{}

	_, err := newTestRunner(session, store, 3).Run(context.Background())

	if !errors.Is(err, ErrNoProducts) {
		t.Errorf("expected ErrNoProducts, got %v", err)
	}
	if !session.closed || !store.closed {
		t.Error("cleanup must run on empty-crawl failure")
	}
	if store.writes != 0 {
		t.Error("nothing should be upserted on an empty crawl")
	}
}

func TestRunSuccess(t *testing.T) {
	session := &fakeSession{html: cardHTML}
	store := &fakeStore{}

	report, err := newTestRunner(session, store, 2).Run(context.Background())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalProducts != 2 {
		t.Errorf("TotalProducts: got %d, want 2", report.TotalProducts)
	}
	if report.Distribution[models.LevelLow] != 2 {
		t.Errorf("low count: got %d, want 2", report.Distribution[models.LevelLow])
	}
	if !store.indexed {
		t.Error("unique index must be ensured before writes")
	}
	if store.writes != 2 {
		t.Errorf("writes: got %d, want 2", store.writes)
	}
	if !session.closed || !store.closed {
		t.Error("cleanup must run on success too")
	}
}

func TestRunSameCodeKeepsLastWrite(t *testing.T) {
	session := &fakeSession{pages: map[int]string{
		1: namedCardHTML("HQJ100", "Amortiguador viejo"),
		2: namedCardHTML("HQJ100", "Amortiguador nuevo"),
	}}
	store := &fakeStore{}

	_, err := newTestRunner(session, store, 2).Run(context.Background())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.writes != 2 {
		t.Errorf("writes: got %d, want 2", store.writes)
	}
	if len(store.byCode) != 1 {
		t.Fatalf("stored records: got %d, want exactly 1 per code", len(store.byCode))
	}
	if got := store.byCode["HQJ100"].Name; got != "Amortiguador nuevo" {
		t.Errorf("name: got %q, want the later write to win", got)
	}
}
