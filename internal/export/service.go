// Package export renders verification runs as XLSX workbooks.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jchiu-fusion/mpn-matcher-web/internal/pipeline"
)

// Service produces XLSX bytes for a verification report.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

const (
	linesSheet   = "Invoice Lines"
	resultsSheet = "Match Results"
)

// ReportXLSX returns a workbook with one sheet of parsed invoice lines and
// one sheet of per-photo match results.
func (s *Service) ReportXLSX(rep pipeline.Report) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	if err := ensureSheet(f, linesSheet); err != nil {
		return nil, err
	}
	if err := ensureSheet(f, resultsSheet); err != nil {
		return nil, err
	}
	// Drop excelize's default sheet so the workbook opens on invoice lines.
	_ = f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(linesSheet); err == nil {
		f.SetActiveSheet(idx)
	}

	if err := s.writeLines(f, rep); err != nil {
		return nil, err
	}
	if err := s.writeResults(f, rep); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"target", rep.Target,
		"lines", len(rep.Lines),
		"results", len(rep.Results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func ensureSheet(f *excelize.File, name string) error {
	if idx, _ := f.GetSheetIndex(name); idx == -1 {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) writeLines(f *excelize.File, rep pipeline.Report) error {
	headers := []string{
		"Ref Number",
		"Manuf. Part#",
		"Manufacturer",
		"Quantity",
		"SO Number",
		"PO Number",
		"Ship To",
		"Cust. Part#",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(linesSheet, cell, h)
	}

	row := 2
	for _, r := range rep.Lines {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(linesSheet, cell, v)
		}
		write(1, r.RefNumber)
		write(2, r.MPN)
		write(3, r.Manufacturer)
		write(4, r.Quantity)
		write(5, r.SONumber)
		write(6, r.PONumber)
		write(7, r.ShipTo)
		write(8, r.CustPartNumber)
		row++
	}

	_ = f.SetColWidth(linesSheet, "A", "A", 14)
	_ = f.SetColWidth(linesSheet, "B", "C", 22)
	_ = f.SetColWidth(linesSheet, "D", "F", 12)
	_ = f.SetColWidth(linesSheet, "G", "G", 40)
	_ = f.SetColWidth(linesSheet, "H", "H", 16)
	return nil
}

func (s *Service) writeResults(f *excelize.File, rep pipeline.Report) error {
	headers := []string{"Photo", "Target", "Best Score", "Tier", "Candidates", "Error"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(resultsSheet, cell, h)
	}

	row := 2
	for _, r := range rep.Results {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(resultsSheet, cell, v)
		}
		write(1, r.ImageID)
		write(2, rep.Target)
		write(3, fmt.Sprintf("%.1f", r.BestScore))
		write(4, string(r.Tier))
		write(5, len(r.Candidates))
		write(6, r.Err)
		row++
	}

	_ = f.SetColWidth(resultsSheet, "A", "A", 32)
	_ = f.SetColWidth(resultsSheet, "B", "B", 22)
	_ = f.SetColWidth(resultsSheet, "C", "E", 12)
	_ = f.SetColWidth(resultsSheet, "F", "F", 48)
	return nil
}
