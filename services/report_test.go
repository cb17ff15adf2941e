package services

import (
	"testing"

	"corven-stock-tracker/models"
	"corven-stock-tracker/utils"
)

func sampleRecords() []*models.ProductRecord {
	return []*models.ProductRecord{
		{Code: "A1", StockLevel: models.LevelLow},
		{Code: "A2", StockLevel: models.LevelLow},
		{Code: "A3", StockLevel: models.LevelOutOfStock},
		{Code: "A4", StockLevel: models.LevelAvailable},
		{Code: "A5", StockLevel: models.LevelUnknown},
	}
}

func TestReportCounts(t *testing.T) {
	svc := NewReportService(utils.NewLogger())
	r := svc.Generate(sampleRecords())

	if r.TotalProducts != 5 {
		t.Errorf("TotalProducts: got %d, want 5", r.TotalProducts)
	}
	if r.Distribution[models.LevelLow] != 2 {
		t.Errorf("low count: got %d, want 2", r.Distribution[models.LevelLow])
	}
	if r.Distribution[models.LevelOutOfStock] != 1 {
		t.Errorf("out_of_stock count: got %d, want 1", r.Distribution[models.LevelOutOfStock])
	}
	if r.Distribution[models.LevelMedium] != 0 {
		t.Errorf("medium count: got %d, want 0", r.Distribution[models.LevelMedium])
	}
	if r.GeneratedAt.IsZero() {
		t.Error("GeneratedAt should be stamped")
	}
}

func TestReportEmptyInput(t *testing.T) {
	svc := NewReportService(utils.NewLogger())
	r := svc.Generate(nil)
	if r.TotalProducts != 0 {
		t.Errorf("expected 0 total products for empty input")
	}
}
