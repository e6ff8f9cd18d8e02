package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/careconnect/careconnect-api/internal/dto"
	appErrors "github.com/careconnect/careconnect-api/pkg/errors"
	"github.com/careconnect/careconnect-api/pkg/export"
)

type inventoryDetailer interface {
	InventoryDetail(ctx context.Context, location string) ([]dto.ItemInventory, error)
}

// ExportService renders a club's inventory detail as CSV or PDF for managers.
type ExportService struct {
	inventory inventoryDetailer
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
}

// ExportFile is a rendered download.
type ExportFile struct {
	Content     []byte
	ContentType string
	Filename    string
}

// NewExportService constructs the service.
func NewExportService(inventory inventoryDetailer) *ExportService {
	return &ExportService{
		inventory: inventory,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
	}
}

// InventoryExport renders one club's inventory in the requested format.
func (s *ExportService) InventoryExport(ctx context.Context, location, format string) (*ExportFile, error) {
	items, err := s.inventory.InventoryDetail(ctx, location)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Headers: []string{"Item", "Requested", "Donated", "Fulfillment %"},
		Rows:    make([]map[string]string, 0, len(items)),
	}
	for _, item := range items {
		data.Rows = append(data.Rows, map[string]string{
			"Item":          item.ItemName,
			"Requested":     strconv.Itoa(item.TotalRequested),
			"Donated":       strconv.Itoa(item.TotalDonated),
			"Fulfillment %": fmt.Sprintf("%.1f", item.FulfillmentPct),
		})
	}

	switch format {
	case "csv":
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("inventory-%s.csv", location),
		}, nil
	case "pdf":
		content, err := s.pdf.Render(data, fmt.Sprintf("Inventory - %s", location))
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("inventory-%s.pdf", location),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
