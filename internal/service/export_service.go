package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/admin-console/pkg/errors"
	"github.com/noah-isme/admin-console/pkg/export"
)

// ExportFormat enumerates supported download formats.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders the displayed rows of a screen.
type ExportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Render encodes dataset in format. Empty datasets still produce a header row.
func (s *ExportService) Render(format ExportFormat, screen, title string, dataset export.Dataset) (*ExportFile, error) {
	var (
		body        []byte
		contentType string
		err         error
	)
	switch format {
	case ExportCSV, "":
		format = ExportCSV
		body, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportPDF:
		body, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		s.logger.Error("render export", zap.String("screen", screen), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.From(appErrors.ErrInternal, err, "failed to render export")
	}

	return &ExportFile{
		Filename:    buildFilename(screen, format, s.now()),
		ContentType: contentType,
		Body:        body,
	}, nil
}

func buildFilename(screen string, format ExportFormat, at time.Time) string {
	return fmt.Sprintf("%s_%s.%s", sanitizeFilename(screen), at.UTC().Format("20060102_150405"), format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
