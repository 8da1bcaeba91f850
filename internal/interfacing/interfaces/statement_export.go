package interfaces

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	interfacing "franchise-interfacing/internal/interfacing/domain"
)

const statementSheet = "Statement"

// Renderer paints statement layouts into documents.
type Renderer struct{}

// NewRenderer constructs a renderer.
func NewRenderer() *Renderer { return &Renderer{} }

// Render lays out the statement and writes it in the requested format.
func (r *Renderer) Render(stmt interfacing.CountryStatement, format interfacing.ExportFormat) ([]byte, error) {
	layout := BuildStatementLayout(stmt)
	switch format {
	case interfacing.FormatXLSX:
		return BuildStatementXLSX(layout)
	case interfacing.FormatPDF:
		return BuildStatementPDF(layout)
	case interfacing.FormatHTML:
		return BuildStatementHTML(layout)
	}
	return nil, fmt.Errorf("%w: %q", interfacing.ErrUnsupportedFormat, format)
}

// BuildStatementXLSX paints the layout into a single-sheet workbook.
func BuildStatementXLSX(layout Layout) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", statementSheet)

	styles := newXLSXStyles(f, layout.Currency)
	widths := []float64{28, 40, 20, 14, 18}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(statementSheet, col, col, width)
	}

	rowNum := 1
	for _, section := range layout.Sections {
		if section.Title != "" {
			first, _ := excelize.CoordinatesToCellName(1, rowNum)
			last, _ := excelize.CoordinatesToCellName(LayoutColumns, rowNum)
			_ = f.SetCellValue(statementSheet, first, section.Title)
			_ = f.MergeCell(statementSheet, first, last)
			_ = f.SetCellStyle(statementSheet, first, last, styles.band(section))
			rowNum++
		}
		for _, row := range section.Rows {
			for col, cell := range row.Cells {
				name, _ := excelize.CoordinatesToCellName(col+1, rowNum)
				if cell.Amount != nil {
					_ = f.SetCellValue(statementSheet, name, cell.Amount.InexactFloat64())
					_ = f.SetCellStyle(statementSheet, name, name, styles.amount(section, row))
					continue
				}
				if cell.Text != "" {
					_ = f.SetCellValue(statementSheet, name, cell.Text)
				}
				if style := styles.text(section, row); style != 0 {
					_ = f.SetCellStyle(statementSheet, name, name, style)
				}
			}
			rowNum++
		}
		rowNum++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type xlsxStyles struct {
	f         *excelize.File
	numFmt    string
	bands     map[string]int
	amounts   map[string]int
	emphasis  map[string]int
	plainAmts int
}

func newXLSXStyles(f *excelize.File, currency string) *xlsxStyles {
	grapheme := NewAmountFormatter(currency).symbol()
	return &xlsxStyles{
		f:        f,
		numFmt:   fmt.Sprintf(`#,##0.00 "%s";-#,##0.00 "%s"`, grapheme, grapheme),
		bands:    map[string]int{},
		amounts:  map[string]int{},
		emphasis: map[string]int{},
	}
}

func (s *xlsxStyles) band(section Section) int {
	if id, ok := s.bands[section.Color]; ok {
		return id
	}
	font := &excelize.Font{Bold: true}
	if section.Kind == SectionTitle {
		font = &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 14}
	}
	id, _ := s.f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{section.Color}, Pattern: 1},
		Font: font,
	})
	s.bands[section.Color] = id
	return id
}

func (s *xlsxStyles) text(section Section, row Row) int {
	if !emphasised(row) || section.Color == "" {
		return 0
	}
	if id, ok := s.emphasis[section.Color]; ok {
		return id
	}
	id, _ := s.f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{section.Color}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	s.emphasis[section.Color] = id
	return id
}

func (s *xlsxStyles) amount(section Section, row Row) int {
	numFmt := s.numFmt
	if !emphasised(row) || section.Color == "" {
		if s.plainAmts == 0 {
			s.plainAmts, _ = s.f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
		}
		return s.plainAmts
	}
	if id, ok := s.amounts[section.Color]; ok {
		return id
	}
	id, _ := s.f.NewStyle(&excelize.Style{
		Fill:         excelize.Fill{Type: "pattern", Color: []string{section.Color}, Pattern: 1},
		Font:         &excelize.Font{Bold: true},
		CustomNumFmt: &numFmt,
	})
	s.amounts[section.Color] = id
	return id
}

func emphasised(row Row) bool {
	return row.Kind == RowHeader || row.Kind == RowSubtotal || row.Kind == RowBand
}

var pdfColumnWidths = [LayoutColumns]float64{40, 55, 35, 25, 35}

// BuildStatementPDF paints the layout onto A4 pages.
func BuildStatementPDF(layout Layout) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 9)
	pdf.AddPage()

	for _, section := range layout.Sections {
		r, g, b := hexRGB(section.Color)
		if section.Title != "" {
			pdf.SetFillColor(r, g, b)
			if section.Kind == SectionTitle {
				pdf.SetTextColor(255, 255, 255)
				pdf.SetFont("Arial", "B", 13)
			} else {
				pdf.SetFont("Arial", "B", 10)
			}
			pdf.CellFormat(0, 8, tr(section.Title), "", 1, "L", true, 0, "")
			pdf.SetTextColor(0, 0, 0)
		}
		for _, row := range section.Rows {
			fill := emphasised(row) && section.Color != ""
			if fill {
				pdf.SetFillColor(r, g, b)
				pdf.SetFont("Arial", "B", 9)
			} else if row.Kind == RowPlaceholder {
				pdf.SetFont("Arial", "I", 9)
			} else {
				pdf.SetFont("Arial", "", 9)
			}
			for col, cell := range row.Cells {
				align := "L"
				if cell.Amount != nil {
					align = "R"
				}
				pdf.CellFormat(pdfColumnWidths[col], 6, tr(cell.Text), "1", 0, align, fill, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func hexRGB(color string) (int, int, int) {
	value, err := strconv.ParseUint(strings.TrimPrefix(color, "#"), 16, 32)
	if err != nil || len(strings.TrimPrefix(color, "#")) != 6 {
		return 255, 255, 255
	}
	return int(value >> 16 & 0xFF), int(value >> 8 & 0xFF), int(value & 0xFF)
}

var statementHTMLTemplate = template.Must(template.New("statement").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; font-size: 12px; }
table { border-collapse: collapse; width: 100%; margin-bottom: 12px; }
td { border: 1px solid #BFBFBF; padding: 3px 6px; }
td.amount { text-align: right; white-space: nowrap; }
tr.header td, tr.subtotal td, tr.band td { font-weight: bold; }
tr.placeholder td { font-style: italic; }
th { text-align: left; padding: 6px; }
th.title { color: #FFFFFF; font-size: 16px; }
</style>
</head>
<body>
{{range .Sections}}<table class="{{.Kind}}">
{{if .Title}}<tr><th colspan="{{$.Columns}}" class="{{.TitleClass}}" style="background-color: {{.Color}}">{{.Title}}</th></tr>
{{end}}{{range .Rows}}<tr class="{{.Kind}}"{{if .Fill}} style="background-color: {{.Color}}"{{end}}>{{range .Cells}}<td{{if .Amount}} class="amount"{{end}}>{{.Text}}</td>{{end}}</tr>
{{end}}</table>
{{end}}</body>
</html>
`))

type htmlStatement struct {
	Title    string
	Columns  int
	Sections []htmlSection
}

type htmlSection struct {
	Kind       SectionKind
	Title      string
	TitleClass string
	Color      template.CSS
	Rows       []htmlRow
}

type htmlRow struct {
	Kind  RowKind
	Fill  bool
	Color template.CSS
	Cells []htmlCell
}

type htmlCell struct {
	Text   string
	Amount bool
}

// BuildStatementHTML paints the layout as a standalone HTML page.
func BuildStatementHTML(layout Layout) ([]byte, error) {
	view := htmlStatement{Columns: LayoutColumns}
	for _, section := range layout.Sections {
		color := template.CSS(section.Color)
		hs := htmlSection{Kind: section.Kind, Title: section.Title, Color: color}
		if section.Kind == SectionTitle {
			view.Title = section.Title
			hs.TitleClass = "title"
		}
		for _, row := range section.Rows {
			hr := htmlRow{Kind: row.Kind, Fill: emphasised(row) && section.Color != "", Color: color}
			for _, cell := range row.Cells {
				hr.Cells = append(hr.Cells, htmlCell{Text: cell.Text, Amount: cell.Amount != nil})
			}
			hs.Rows = append(hs.Rows, hr)
		}
		view.Sections = append(view.Sections, hs)
	}

	var buf bytes.Buffer
	if err := statementHTMLTemplate.Execute(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
