package pipeline

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/marketmood/internal/classifier"
	"github.com/ternarybob/marketmood/internal/models"
)

const (
	pdfFont       = "Arial"
	pdfLineHeight = 6.0
	pdfLabelWidth = 70.0
	pdfValueWidth = 60.0
)

// RenderPDF lays out the same content as RenderReport on an A4 page. model may be nil.
func RenderPDF(summary *models.RunSummary, model *classifier.Model) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.SetTitle("Run "+summary.ID, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(pdfFont, "B", 14)
	pdf.CellFormat(0, 10, tr("Run "+summary.ID), "", 1, "L", false, 0, "")

	pdf.SetFont(pdfFont, "", 9)
	pdf.CellFormat(0, pdfLineHeight, tr(fmt.Sprintf("%s run started %s, took %s",
		summary.Kind, summary.StartedAt.Format("2006-01-02 15:04:05"), summary.Duration.Round(time.Millisecond))), "", 1, "L", false, 0, "")
	if summary.Source != "" {
		pdf.CellFormat(0, pdfLineHeight, tr("Source: "+summary.Source), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	rows := [][2]string{{"Records", fmt.Sprint(summary.Records)}}
	if summary.Kind == models.RunKindPosts {
		rows = append(rows,
			[2]string{"Stated sentiment", fmt.Sprint(summary.Stated)},
			[2]string{"Imputed sentiment", fmt.Sprint(summary.Imputed)},
			[2]string{"Unlabeled", fmt.Sprint(summary.Unlabeled)},
		)
	}
	rows = append(rows,
		[2]string{"Unresolved timestamps", fmt.Sprint(summary.UnresolvedTimestamps)},
		[2]string{"Missing bodies", fmt.Sprint(summary.MissingBodies)},
	)
	pdfTable(pdf, tr, [2]string{"Metric", "Count"}, rows)

	if model != nil {
		pdf.SetFont(pdfFont, "B", 11)
		pdf.CellFormat(0, 8, "Classifier", "", 1, "L", false, 0, "")
		pdf.SetFont(pdfFont, "", 9)
		pdf.CellFormat(0, pdfLineHeight, fmt.Sprintf("Held-out accuracy %.4f over %d rows from a fit on %d rows; final fit on %d rows.",
			model.Score(), model.ScoredRows(), model.TrainedRows(), model.FittedRows()), "", 1, "L", false, 0, "")
		pdf.Ln(2)

		coefficients := model.Coefficients()
		names := make([]string, 0, len(coefficients))
		for name := range coefficients {
			names = append(names, name)
		}
		sort.Strings(names)

		rows := make([][2]string, 0, len(names))
		for _, name := range names {
			rows = append(rows, [2]string{name, fmt.Sprintf("%.4f", coefficients[name])})
		}
		pdfTable(pdf, tr, [2]string{"Feature", "Coefficient"}, rows)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}
	return buf.Bytes(), nil
}

func pdfTable(pdf *fpdf.Fpdf, tr func(string) string, header [2]string, rows [][2]string) {
	pdf.SetFont(pdfFont, "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(pdfLabelWidth, pdfLineHeight, tr(header[0]), "1", 0, "L", true, 0, "")
	pdf.CellFormat(pdfValueWidth, pdfLineHeight, tr(header[1]), "1", 1, "R", true, 0, "")

	pdf.SetFont(pdfFont, "", 9)
	for _, row := range rows {
		pdf.CellFormat(pdfLabelWidth, pdfLineHeight, tr(row[0]), "1", 0, "L", false, 0, "")
		pdf.CellFormat(pdfValueWidth, pdfLineHeight, tr(row[1]), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}
