// Package report writes the XLSX summary of a batch run.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/cv-parser/internal/extract"
	"github.com/joseph-ayodele/cv-parser/internal/pipeline"
)

const (
	documentsSheet = "Documents"
	summarySheet   = "Summary"
)

// Row is one processed document.
type Row struct {
	Path         string
	HashHex      string
	Deduplicated bool
	Result       pipeline.Result
	Err          error
	Missing      []string // failed core checks
	Elapsed      time.Duration
}

// Status is "ok", "duplicate", or the extraction failure kind.
func (r Row) Status() string {
	switch {
	case r.Deduplicated:
		return "duplicate"
	case r.Err == nil:
		return "ok"
	case extract.KindOf(r.Err) != "":
		return string(extract.KindOf(r.Err))
	default:
		return "error"
	}
}

// Service produces XLSX bytes for batch reports.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportXLSX returns a workbook with one row per document plus a summary sheet.
func (s *Service) ExportXLSX(ctx context.Context, rows []Row) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("report.xlsx.close_error", "error", err)
		}
	}()
	if err := f.SetSheetName("Sheet1", documentsSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	f.SetActiveSheet(0)

	headers := []string{
		"File",
		"SHA-256",
		"Status",
		"Strategy",
		"Pages",
		"Core %",
		"Global %",
		"Missing Core Fields",
		"First Name",
		"Last Name",
		"Email",
		"Phone",
		"Country",
		"Experience",
		"Education",
		"Languages",
		"Notes",
		"Elapsed (ms)",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(documentsSheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(documentsSheet, "A1", last, style)
	}

	var ok, failed, dup, coreSum, globalSum int
	for i, r := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(documentsSheet, cell, v)
		}

		write(1, r.Path)
		write(2, r.HashHex)
		write(3, r.Status())
		write(18, r.Elapsed.Milliseconds())

		switch {
		case r.Deduplicated:
			dup++
			continue
		case r.Err != nil:
			failed++
			write(17, truncate(r.Err.Error(), 300))
			continue
		}
		ok++

		res := r.Result
		rec := res.Record
		coreSum += res.Scores.CorePercentage
		globalSum += res.Scores.GlobalPercentage

		phone := rec.Contacts.Phone
		if phone == "" {
			phone = rec.Contacts.Mobile
		}
		write(4, string(res.Meta.Strategy))
		write(5, res.Meta.Pages)
		write(6, res.Scores.CorePercentage)
		write(7, res.Scores.GlobalPercentage)
		write(8, strings.Join(r.Missing, ", "))
		write(9, rec.Identity.FirstName)
		write(10, rec.Identity.LastName)
		write(11, rec.Contacts.Email)
		write(12, phone)
		write(13, rec.Contacts.Address.Country)
		write(14, len(rec.Experience))
		write(15, len(rec.Education))
		write(16, len(rec.Languages))
		write(17, truncate(strings.Join(res.Meta.Warnings, "; "), 300))
	}

	_ = f.SetColWidth(documentsSheet, "A", "A", 48) // path
	_ = f.SetColWidth(documentsSheet, "B", "B", 20) // hash
	_ = f.SetColWidth(documentsSheet, "C", "D", 16)
	_ = f.SetColWidth(documentsSheet, "H", "H", 40) // missing
	_ = f.SetColWidth(documentsSheet, "I", "M", 20)
	_ = f.SetColWidth(documentsSheet, "Q", "Q", 60) // notes
	_ = f.SetPanes(documentsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	avg := func(sum int) float64 {
		if ok == 0 {
			return 0
		}
		return float64(sum) / float64(ok)
	}
	summary := [][]any{
		{"Documents", len(rows)},
		{"Processed", ok},
		{"Failed", failed},
		{"Duplicates", dup},
		{"Average Core %", avg(coreSum)},
		{"Average Global %", avg(globalSum)},
		{"Generated At", time.Now().UTC().Format(time.RFC3339)},
	}
	for i, kv := range summary {
		_ = f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &kv)
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("report.xlsx.ok",
		"rows", len(rows),
		"processed", ok,
		"failed", failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
