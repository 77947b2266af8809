package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/marketmood/internal/classifier"
	"github.com/ternarybob/marketmood/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// RenderReport builds the markdown summary of a run. model may be nil.
func RenderReport(summary *models.RunSummary, model *classifier.Model) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Run %s\n\n", summary.ID)
	fmt.Fprintf(&b, "- **Kind:** %s\n", summary.Kind)
	if summary.Source != "" {
		fmt.Fprintf(&b, "- **Source:** %s\n", summary.Source)
	}
	fmt.Fprintf(&b, "- **Started:** %s\n", summary.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- **Duration:** %s\n\n", summary.Duration.Round(time.Millisecond))

	b.WriteString("## Records\n\n")
	b.WriteString("| Metric | Count |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Records | %d |\n", summary.Records)
	if summary.Kind == models.RunKindPosts {
		fmt.Fprintf(&b, "| Stated sentiment | %d |\n", summary.Stated)
		fmt.Fprintf(&b, "| Imputed sentiment | %d |\n", summary.Imputed)
		fmt.Fprintf(&b, "| Unlabeled | %d |\n", summary.Unlabeled)
	}
	fmt.Fprintf(&b, "| Unresolved timestamps | %d |\n", summary.UnresolvedTimestamps)
	fmt.Fprintf(&b, "| Missing bodies | %d |\n\n", summary.MissingBodies)

	if model != nil {
		b.WriteString("## Classifier\n\n")
		fmt.Fprintf(&b, "Held-out accuracy **%.4f** over %d rows from a fit on %d rows; final fit on %d rows.\n\n",
			model.Score(), model.ScoredRows(), model.TrainedRows(), model.FittedRows())

		coefficients := model.Coefficients()
		names := make([]string, 0, len(coefficients))
		for name := range coefficients {
			names = append(names, name)
		}
		sort.Strings(names)

		b.WriteString("| Feature | Coefficient |\n|---|---:|\n")
		for _, name := range names {
			fmt.Fprintf(&b, "| %s | %.4f |\n", name, coefficients[name])
		}
		b.WriteString("\n")
	}

	if len(summary.OutputPaths) > 0 {
		b.WriteString("## Outputs\n\n")
		for _, path := range summary.OutputPaths {
			fmt.Fprintf(&b, "- `%s`\n", path)
		}
	}

	return b.String()
}

// MarkdownToHTML renders markdown with GitHub flavored extensions
func MarkdownToHTML(markdown string) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

// ReportFormats selects the renderings written beside the markdown report
type ReportFormats struct {
	HTML bool
	PDF  bool
}

// WriteReport writes report_<run id>.md into dir, plus .html and .pdf as selected
func WriteReport(dir string, summary *models.RunSummary, model *classifier.Model, formats ReportFormats) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	markdown := RenderReport(summary, model)
	base := filepath.Join(dir, "report_"+summary.ID)

	paths := []string{base + ".md"}
	if err := os.WriteFile(paths[0], []byte(markdown), 0644); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	if formats.HTML {
		body, err := MarkdownToHTML(markdown)
		if err != nil {
			return paths, err
		}
		page := "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>" + summary.ID + "</title></head><body>\n" + body + "</body></html>\n"
		if err := os.WriteFile(base+".html", []byte(page), 0644); err != nil {
			return paths, fmt.Errorf("failed to write report: %w", err)
		}
		paths = append(paths, base+".html")
	}

	if formats.PDF {
		data, err := RenderPDF(summary, model)
		if err != nil {
			return paths, err
		}
		if err := os.WriteFile(base+".pdf", data, 0644); err != nil {
			return paths, fmt.Errorf("failed to write report: %w", err)
		}
		paths = append(paths, base+".pdf")
	}
	return paths, nil
}
