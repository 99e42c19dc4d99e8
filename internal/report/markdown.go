package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/clamscan/internal/model"
)

// MarkdownWriter outputs GitHub-flavored Markdown, for pull request
// comments and CI summaries.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs a summary, an alert and a results table.
func (w *MarkdownWriter) Write(records []model.FileScanRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)
	summary := model.Summarize(records)

	w.writeHeader(md, summary)
	w.writeAlert(md, summary)
	if summary.Total > 0 {
		w.writePieChart(md, summary)
	}
	w.writeResults(md, records)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s model.Summary) {
	md.H1("clamscan Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", w.now().Format("2006-01-02 15:04:05 MST")},
			{"Files Scanned", strconv.Itoa(s.Total)},
			{"Clean", strconv.Itoa(s.Clean)},
			{"Infected", strconv.Itoa(s.Infected)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s model.Summary) {
	switch {
	case s.HasInfected():
		md.Cautionf("%d infected file(s) detected.", s.Infected)
	case s.Total == 0:
		md.Note("No files were scanned.")
	default:
		md.Tip("No threats detected.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Scan Results"),
		piechart.WithShowData(true),
	)
	if s.Clean > 0 {
		chart.LabelAndIntValue("Clean", uint64(s.Clean))
	}
	if s.Infected > 0 {
		chart.LabelAndIntValue("Infected", uint64(s.Infected))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeResults(md *markdown.Markdown, records []model.FileScanRecord) {
	md.H2("Results")
	md.PlainText("")

	if len(records) == 0 {
		md.PlainText("No results.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		signature := r.SignatureName
		if signature == "" {
			signature = "-"
		}
		rows[i] = []string{
			"`" + r.FileName + "`",
			w.verdictText(r),
			signature,
			"`" + displayHash(r) + "`",
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"File", "Result", "Signature", "Hash"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) verdictText(r model.FileScanRecord) string {
	if r.Infected {
		return "🔴 " + model.VerdictInfected
	}
	return "✅ " + model.VerdictClean
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [clamscan](https://github.com/nao1215/clamscan)*")
}
