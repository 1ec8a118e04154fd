package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"tailor-billing-api/internal/adapters/storage"
	"tailor-billing-api/internal/billing"
	"tailor-billing-api/internal/models"
	"tailor-billing-api/internal/repositories"
)

const (
	billReportSheet = "Bills"
	archivePrefix   = "reports/"
)

var billReportHeader = []interface{}{
	"Bill No", "Order Date", "Customer", "Phone", "Delivery", "Status",
	"Total", "Discount", "Tax", "Grand Total", "Paid", "Due", "Receipts",
}

// reportService implements the ReportService interface
type reportService struct {
	store       repositories.Store
	concurrency int
	archive     storage.FileStorage
	logger      *logrus.Logger
}

// NewReportService creates a new report service instance
func NewReportService(store repositories.Store, concurrency int, archive storage.FileStorage, logger *logrus.Logger) ReportService {
	if logger == nil {
		logger = logrus.New()
	}
	if concurrency < 1 {
		concurrency = DefaultAggregationConcurrency
	}
	return &reportService{store: store, concurrency: concurrency, archive: archive, logger: logger}
}

// BillReport aggregates every bill ordered inside the window, oldest first
func (s *reportService) BillReport(ctx context.Context, window models.DateRange) (*BillReport, error) {
	bills, err := s.store.Bills().List(ctx, models.BillFilter{DateRange: window}, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	for i, j := 0, len(bills)-1; i < j; i, j = i+1, j-1 {
		bills[i], bills[j] = bills[j], bills[i]
	}

	summaries, err := aggregateBills(ctx, s.store.Receipts(), bills, s.concurrency)
	if err != nil {
		return nil, err
	}

	report := &BillReport{Window: window, Rows: make([]BillReportRow, len(bills))}
	for i, bill := range bills {
		sum := summaries[i]
		report.Rows[i] = BillReportRow{Bill: bill, Summary: sum}

		report.Totals.TotalAmount += sum.TotalAmount
		report.Totals.TotalDiscount += sum.TotalDiscount
		report.Totals.TotalTaxAmount += sum.TotalTaxAmount
		report.Totals.TotalPaid += sum.TotalPaid
		report.Totals.GrandTotal += sum.GrandTotal
		report.Totals.DueAmount += sum.DueAmount
		report.Totals.ReceiptCount += sum.ReceiptCount
	}
	report.Totals.PaymentStatus = billing.BillStatusFor(report.Totals.TotalPaid, report.Totals.GrandTotal)
	return report, nil
}

// ExportBillsXLSX writes the bill report as a workbook with one row per bill
// and a totals row
func (s *reportService) ExportBillsXLSX(ctx context.Context, window models.DateRange, w io.Writer) error {
	report, err := s.BillReport(ctx, window)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", billReportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(billReportSheet, "A1", &billReportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range report.Rows {
		values := []interface{}{
			row.Bill.BillNumber,
			row.Bill.OrderDate.Format(models.DateLayout),
			row.Bill.CustomerName,
			row.Bill.CustomerPhone,
			string(row.Bill.DeliveryStatus),
			string(row.Summary.PaymentStatus),
		}
		values = append(values, moneyCells(row.Summary)...)
		values = append(values, row.Summary.ReceiptCount)

		if err := f.SetSheetRow(billReportSheet, cellName(1, i+2), &values); err != nil {
			return fmt.Errorf("failed to write bill %d: %w", row.Bill.BillNumber, err)
		}
	}

	totalsRow := len(report.Rows) + 2
	totals := []interface{}{"Total", "", "", "", "", string(report.Totals.PaymentStatus)}
	totals = append(totals, moneyCells(report.Totals)...)
	totals = append(totals, report.Totals.ReceiptCount)
	if err := f.SetSheetRow(billReportSheet, cellName(1, totalsRow), &totals); err != nil {
		return fmt.Errorf("failed to write totals: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("failed to create money style: %w", err)
	}
	if err := f.SetCellStyle(billReportSheet, cellName(7, 2), cellName(12, totalsRow), style); err != nil {
		return fmt.Errorf("failed to style money cells: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(billReportSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.WithField("bills", len(report.Rows)).Info("Bill report exported")
	return nil
}

// ArchiveBillsXLSX exports the window and stores the workbook under a
// timestamped name
func (s *reportService) ArchiveBillsXLSX(ctx context.Context, window models.DateRange) (*ArchivedReport, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}

	var buf bytes.Buffer
	if err := s.ExportBillsXLSX(ctx, window, &buf); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	name := fmt.Sprintf("bills-%s.xlsx", now.Format("20060102-150405.000"))
	if err := s.archive.Store(ctx, archivePrefix+name, buf.Bytes(), nil); err != nil {
		return nil, fmt.Errorf("failed to archive report: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"report": name,
		"size":   buf.Len(),
	}).Info("Bill report archived")
	return &ArchivedReport{Name: name, Size: int64(buf.Len()), CreatedAt: now}, nil
}

// ListArchivedReports returns the archived workbooks, newest first
func (s *reportService) ListArchivedReports(ctx context.Context) ([]ArchivedReport, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}

	files, err := s.archive.List(ctx, archivePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list archived reports: %w", err)
	}

	reports := make([]ArchivedReport, 0, len(files))
	for _, f := range files {
		reports = append(reports, ArchivedReport{
			Name:      strings.TrimPrefix(f.Key, archivePrefix),
			Size:      f.Size,
			CreatedAt: f.LastModified,
		})
	}
	return reports, nil
}

// GetArchivedReport returns the workbook stored under name
func (s *reportService) GetArchivedReport(ctx context.Context, name string) ([]byte, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	if name == "" || path.Base(name) != name || !strings.HasSuffix(name, ".xlsx") {
		return nil, invalidRequest("invalid report name %q", name)
	}

	data, err := s.archive.Retrieve(ctx, archivePrefix+name)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, repositories.NotFoundError("report", name)
		}
		return nil, fmt.Errorf("failed to read archived report: %w", err)
	}
	return data, nil
}

func moneyCells(s billing.Summary) []interface{} {
	return []interface{}{
		s.TotalAmount.Float64(),
		s.TotalDiscount.Float64(),
		s.TotalTaxAmount.Float64(),
		s.GrandTotal.Float64(),
		s.TotalPaid.Float64(),
		s.DueAmount.Float64(),
	}
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
