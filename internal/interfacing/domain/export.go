package interfacing

import (
	"errors"
	"fmt"
	"strings"

	"franchise-interfacing/internal/calendar"
)

// ErrUnsupportedFormat is returned for an unknown export format.
var ErrUnsupportedFormat = errors.New("interfacing: unsupported export format")

// ExportFormat is a rendering target.
type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatPDF  ExportFormat = "pdf"
	FormatHTML ExportFormat = "html"
	FormatZIP  ExportFormat = "zip"
)

// BulkName stands for all countries in export file names.
const BulkName = "Bulk"

// ParseExportFormat validates a document format.
func ParseExportFormat(value string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(value)); f {
	case FormatXLSX, FormatPDF, FormatHTML:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, value)
}

// ContentType returns the MIME type of the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatZIP:
		return "application/zip"
	}
	return "application/octet-stream"
}

// ExportFilename builds Interfacing_<countryOrBulk>_<period>.<ext>.
func ExportFilename(countryOrBulk string, period calendar.Period, format ExportFormat) string {
	return fmt.Sprintf("Interfacing_%s_%s.%s", countryOrBulk, period.String(), format)
}
