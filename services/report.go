package services

import (
	"fmt"
	"strings"
	"time"

	"corven-stock-tracker/models"
	"corven-stock-tracker/utils"
)

// ReportService computes the end-of-run summary over the scraped aggregate.
type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

// Generate builds the run summary: total count plus per-level distribution.
func (s *ReportService) Generate(records []*models.ProductRecord) *models.RunReport {
	report := &models.RunReport{
		Distribution: make(map[models.StockLevel]int),
		GeneratedAt:  time.Now(),
	}

	report.TotalProducts = len(records)
	for _, r := range records {
		report.Distribution[r.StockLevel]++
	}

	return report
}

// Print renders the run summary to stdout.
func (s *ReportService) Print(r *models.RunReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  CORVEN STOCK RUN SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("  Total products scraped : \033[1m%d\033[0m\n", r.TotalProducts)
	fmt.Printf("  Generated at           : %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Println()

	fmt.Printf("\033[1;33m  Stock distribution\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, level := range models.LevelOrder {
		count, ok := r.Distribution[level]
		if !ok {
			continue
		}
		bar := strings.Repeat("█", barWidth(count, r.TotalProducts))
		fmt.Printf("  %-14s %6d  %s\n", level, count, bar)
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

// barWidth scales a count into a 0–40 char bar.
func barWidth(count, total int) int {
	if total == 0 {
		return 0
	}
	w := count * 40 / total
	if w == 0 && count > 0 {
		w = 1
	}
	return w
}
