package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"strategyWorkbench/domain"

	"github.com/go-pdf/fpdf"
)

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
)

// Report collects one full frame and lays it out as a single-page PDF: chart
// image, summary block and bin table.
type Report struct {
	generated time.Time
	chart     *ChartRenderer
	frame     domain.BarSet
	handles   []domain.Handle
	summary   domain.BinSummary
	rows      []domain.BinTableRow
}

func NewReport(generated time.Time) *Report {
	return &Report{
		generated: generated,
		chart:     NewChartRenderer(FormatPNG),
	}
}

func (r *Report) DrawBars(frame domain.BarSet) error {
	r.frame = frame
	return r.chart.DrawBars(frame)
}

func (r *Report) PlaceHandles(handles []domain.Handle) error {
	r.handles = handles
	return nil
}

func (r *Report) UpdateStats(summary domain.BinSummary) error {
	r.summary = summary
	return nil
}

func (r *Report) UpdateTable(rows []domain.BinTableRow) error {
	r.rows = rows
	return nil
}

// Bytes writes the PDF.
func (r *Report) Bytes() ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.SetCreationDate(r.generated)
	pdf.AddPage()

	r.addHeader(pdf)
	r.addChart(pdf)
	r.addSummary(pdf)
	r.addTable(pdf)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	return buf.Bytes(), nil
}

func (r *Report) addHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Arial", "B", 18)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(contentWidth, 10, fmt.Sprintf("Binning report: %s", r.frame.Title), "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "I", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Generated: %s", r.generated.Format("2 January 2006 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func (r *Report) addChart(pdf *fpdf.Fpdf) {
	img := r.chart.Bytes()
	if len(img) == 0 {
		return
	}

	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("bad-rate-chart", opts, bytes.NewReader(img))

	height := contentWidth / 2
	if g := r.frame.Geometry; g.Width > 0 {
		height = contentWidth * g.Height / g.Width
	}
	pdf.ImageOptions("bad-rate-chart", marginLeft, pdf.GetY(), contentWidth, height, true, opts, 0, "")
	pdf.Ln(4)
}

func (r *Report) addSummary(pdf *fpdf.Fpdf) {
	pdf.SetFillColor(245, 247, 250)
	pdf.SetDrawColor(200, 200, 200)

	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(contentWidth, 8, "Summary", "1", 1, "C", true, 0, "")

	monotonic := "no"
	if r.summary.Monotonic {
		monotonic = "yes"
	}
	lines := []string{
		fmt.Sprintf("Total IV: %.4f (%s)", r.summary.TotalIV, r.summary.Strength),
		fmt.Sprintf("Average bad rate: %.2f%%", r.summary.WeightedBadRate*100),
		fmt.Sprintf("Bins: %d   Monotonic: %s", r.summary.BinCount, monotonic),
	}
	if len(r.handles) > 0 {
		cuts := make([]string, 0, len(r.handles))
		for _, h := range r.handles {
			cuts = append(cuts, strconv.FormatFloat(h.Value, 'f', -1, 64))
		}
		lines = append(lines, "Interior cut points: "+strings.Join(cuts, ", "))
	}

	pdf.SetFont("Arial", "", 11)
	pdf.SetTextColor(50, 50, 50)
	for i, line := range lines {
		border := "LR"
		if i == len(lines)-1 {
			border = "LRB"
		}
		pdf.CellFormat(contentWidth, 7, line, border, 1, "L", true, 0, "")
	}
	pdf.Ln(6)
}

func (r *Report) addTable(pdf *fpdf.Fpdf) {
	headers := []string{"Range", "Share", "Bad rate", "WOE", "IV"}
	widths := []float64{50, 30, 30, 35, 35}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(0, 51, 102)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(50, 50, 50)
	for i, row := range r.rows {
		fill := i%2 == 1
		pdf.SetFillColor(245, 247, 250)

		cells := []string{
			row.Range,
			fmt.Sprintf("%.1f%%", row.SampleShare*100),
			fmt.Sprintf("%.1f%%", row.BadRate*100),
			fmt.Sprintf("%s %.4f", row.WOESign, row.WOE),
			fmt.Sprintf("%.4f", row.IVContribution),
		}
		for j, c := range cells {
			align := "R"
			if j == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[j], 6, c, "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}
}
