package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"helpkart/internal/models"
	"helpkart/internal/repositories"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Snapshot formats
const (
	ExportFormatJSON = "json"
	ExportFormatXLSX = "xlsx"
	ExportFormatPDF  = "pdf"
)

const (
	contentTypeJSON = "application/json"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
	timeLayout      = "2006-01-02 15:04:05"
)

// ExportService produces point-in-time snapshots of the whole store
type ExportService interface {
	BuildSnapshot(ctx context.Context) (*models.Snapshot, error)
	WriteJSON(w io.Writer, snapshot *models.Snapshot) error
	WriteXLSX(w io.Writer, snapshot *models.Snapshot) error
	WritePDF(w io.Writer, snapshot *models.Snapshot) error
	// Export writes a snapshot file into dir and, when a snapshot store is
	// configured, uploads it and prunes old uploads.
	Export(ctx context.Context, dir, format string) (*ExportResult, error)
}

// ExportResult reports where a snapshot went. Stored is nil when uploads are
// disabled.
type ExportResult struct {
	Path    string                 `json:"path"`
	Format  string                 `json:"format"`
	Summary models.SnapshotSummary `json:"summary"`
	Stored  *StoredSnapshot        `json:"stored,omitempty"`
	Pruned  []string               `json:"pruned,omitempty"`
}

type exportService struct {
	centerRepo  repositories.CenterRepository
	itemRepo    repositories.InventoryItemRepository
	requestRepo repositories.RequestRepository
	txnRepo     repositories.TransactionRepository
	store       SnapshotStore // nil when uploads are disabled
	retain      int
	logger      *zap.Logger
}

// NewExportService builds the exporter. retain is the number of uploaded
// snapshots to keep; zero keeps all of them.
func NewExportService(
	centerRepo repositories.CenterRepository,
	itemRepo repositories.InventoryItemRepository,
	requestRepo repositories.RequestRepository,
	txnRepo repositories.TransactionRepository,
	store SnapshotStore,
	retain int,
	logger *zap.Logger,
) ExportService {
	return &exportService{
		centerRepo:  centerRepo,
		itemRepo:    itemRepo,
		requestRepo: requestRepo,
		txnRepo:     txnRepo,
		store:       store,
		retain:      retain,
		logger:      logger,
	}
}

func (s *exportService) BuildSnapshot(ctx context.Context) (*models.Snapshot, error) {
	centers, err := s.centerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list centers: %w", err)
	}
	items, err := s.itemRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	requests, err := s.requestRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	txns, err := s.txnRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	openRequests := 0
	for _, r := range requests {
		if !r.Fulfilled {
			openRequests++
		}
	}

	return &models.Snapshot{
		GeneratedAt: time.Now().UTC(),
		Summary: models.SnapshotSummary{
			TotalCenters: len(centers),
			TotalItems:   len(items),
			OpenRequests: openRequests,
			Transactions: len(txns),
		},
		Data: models.SnapshotData{
			Centers:      centers,
			Inventory:    items,
			Requests:     requests,
			Transactions: txns,
		},
	}, nil
}

func (s *exportService) WriteJSON(w io.Writer, snapshot *models.Snapshot) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(snapshot)
}

type snapshotTable struct {
	name string
	rows [][]interface{} // first row is the header
}

func summaryRows(snapshot *models.Snapshot) [][]interface{} {
	return [][]interface{}{
		{"Generated At", snapshot.GeneratedAt.Format(timeLayout)},
		{"Total Centers", snapshot.Summary.TotalCenters},
		{"Total Items", snapshot.Summary.TotalItems},
		{"Open Requests", snapshot.Summary.OpenRequests},
		{"Transactions", snapshot.Summary.Transactions},
	}
}

// collectionTables lays out one table per collection. Centers never carry
// their password hash.
func collectionTables(snapshot *models.Snapshot) []snapshotTable {
	centers := [][]interface{}{{"ID", "Name", "Email", "Phone", "Address", "Latitude", "Longitude", "Status", "Created At"}}
	for _, c := range snapshot.Data.Centers {
		centers = append(centers, []interface{}{
			c.ID.String(), c.Name, c.Email, c.Phone, c.Address, c.Latitude, c.Longitude, c.Status, c.CreatedAt.Format(timeLayout),
		})
	}

	inventory := [][]interface{}{{"ID", "Center ID", "Name", "Category", "Quantity", "Reserved", "Unit", "Classification", "Expiry Date", "Created At"}}
	for _, i := range snapshot.Data.Inventory {
		expiry := ""
		if i.ExpiryDate != nil {
			expiry = i.ExpiryDate.Format("2006-01-02")
		}
		inventory = append(inventory, []interface{}{
			i.ID.String(), i.CenterID.String(), i.Name, i.Category, i.Quantity, i.ReservedQuantity, i.Unit, i.Classification, expiry, i.CreatedAt.Format(timeLayout),
		})
	}

	requests := [][]interface{}{{"ID", "Center ID", "Item Name", "Needed", "Fulfilled Qty", "Unit", "Urgency", "Status", "Requested On"}}
	for _, r := range snapshot.Data.Requests {
		requests = append(requests, []interface{}{
			r.ID.String(), r.CenterID.String(), r.ItemName, r.QuantityNeeded, r.QuantityFulfilled, r.Unit, r.Urgency, r.Status, r.RequestedOn.Format(timeLayout),
		})
	}

	txns := [][]interface{}{{"ID", "From Center", "To Center", "Kind", "Item Name", "Quantity", "Unit", "Status", "Date"}}
	for _, t := range snapshot.Data.Transactions {
		txns = append(txns, []interface{}{
			t.ID.String(), t.FromCenterID.String(), t.ToCenterID.String(), t.Kind, t.ItemName, t.Quantity, t.Unit, t.Status, t.TransactionDate.Format(timeLayout),
		})
	}

	return []snapshotTable{
		{"Centers", centers},
		{"Inventory", inventory},
		{"Requests", requests},
		{"Transactions", txns},
	}
}

func (s *exportService) WriteXLSX(w io.Writer, snapshot *models.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeRows(f, "Summary", summaryRows(snapshot)); err != nil {
		return err
	}

	for _, table := range collectionTables(snapshot) {
		if _, err := f.NewSheet(table.name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", table.name, err)
		}
		if err := writeRows(f, table.name, table.rows); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// WritePDF renders a landscape report: the summary followed by one table per
// collection. Cells too wide for their column are cut with an ellipsis.
func (s *exportService) WritePDF(w io.Writer, snapshot *models.Snapshot) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("HelpKart snapshot", true)
	pdf.SetCreator("helpkart", true)
	pdf.SetCreationDate(snapshot.GeneratedAt)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "HelpKart snapshot", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	summary := append([][]interface{}{{"Metric", "Value"}}, summaryRows(snapshot)...)
	writePDFTable(pdf, tr, "Summary", summary)
	for _, table := range collectionTables(snapshot) {
		writePDFTable(pdf, tr, table.name, table.rows)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func writePDFTable(pdf *gofpdf.Fpdf, tr func(string) string, title string, rows [][]interface{}) {
	left, _, right, _ := pdf.GetMargins()
	pageWidth, _ := pdf.GetPageSize()
	colWidth := (pageWidth - left - right) / float64(len(rows[0]))

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFillColor(240, 240, 240)
	for i, row := range rows {
		header := i == 0
		if header {
			pdf.SetFont("Helvetica", "B", 8)
		} else {
			pdf.SetFont("Helvetica", "", 8)
		}
		for _, cell := range row {
			text := fitText(pdf, tr(fmt.Sprint(cell)), colWidth-2)
			pdf.CellFormat(colWidth, 6, text, "1", 0, "L", header, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

// fitText shortens text, already in the PDF code page, to width.
func fitText(pdf *gofpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	for len(text) > 0 && pdf.GetStringWidth(text+"...") > width {
		text = text[:len(text)-1]
	}
	return text + "..."
}

func (s *exportService) Export(ctx context.Context, dir, format string) (*ExportResult, error) {
	var write func(io.Writer, *models.Snapshot) error
	var contentType string
	switch format {
	case ExportFormatJSON:
		write, contentType = s.WriteJSON, contentTypeJSON
	case ExportFormatXLSX:
		write, contentType = s.WriteXLSX, contentTypeXLSX
	case ExportFormatPDF:
		write, contentType = s.WritePDF, contentTypePDF
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	snapshot, err := s.BuildSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := write(&buf, snapshot); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	name := fmt.Sprintf("%s%s.%s", snapshotPrefix, snapshot.GeneratedAt.Format("20060102_150405"), format)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}

	s.logger.Info("snapshot exported",
		zap.String("path", path),
		zap.Int("centers", snapshot.Summary.TotalCenters),
		zap.Int("items", snapshot.Summary.TotalItems),
		zap.Int("transactions", snapshot.Summary.Transactions),
	)
	result := &ExportResult{Path: path, Format: format, Summary: snapshot.Summary}
	if s.store == nil {
		return result, nil
	}

	stored, err := s.store.Save(ctx, name, buf.Bytes(), contentType)
	if err != nil {
		return result, fmt.Errorf("failed to upload snapshot: %w", err)
	}
	result.Stored = stored
	s.logger.Info("snapshot uploaded",
		zap.String("bucket", stored.Bucket),
		zap.String("object", stored.Object),
		zap.Time("link_expires_at", stored.ExpiresAt),
	)

	// A failed prune leaves extra snapshots behind; the upload still counts.
	pruned, err := s.store.Prune(ctx, s.retain)
	if err != nil {
		s.logger.Warn("failed to prune old snapshots", zap.Error(err))
	}
	result.Pruned = pruned
	if len(pruned) > 0 {
		s.logger.Info("old snapshots pruned", zap.Strings("objects", pruned))
	}
	return result, nil
}
