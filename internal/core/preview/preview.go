// Package preview builds the fast, partial representation of an upload that
// is returned before full processing completes. Extraction is best-effort:
// a failure or timeout yields a placeholder preview, never an error, so the
// upload path can always proceed.
package preview

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SomaanRauniyar/datainsight-pro/internal/core/fileparse"
)

const (
	// sampleRows is the number of rows returned in a tabular preview.
	sampleRows = 10
	// summaryLimit / contentLimit bound the document text excerpt.
	summaryLimit = 1500
	contentLimit = 500
)

// Table is one embedded table found in a document.
type Table struct {
	Columns []string         `json:"columns"`
	Data    []map[string]any `json:"data"`
}

// Preview is the quick-upload response payload described by the API
// contract: a column/row sample for tabular files, embedded tables or a
// text excerpt for documents.
type Preview struct {
	Type         string           `json:"type"` // table | text | document
	Columns      []string         `json:"columns,omitempty"`
	Data         []map[string]any `json:"data,omitempty"`
	Tables       []Table          `json:"tables,omitempty"`
	TotalRows    int              `json:"total_rows"`
	TotalColumns int              `json:"total_columns,omitempty"`
	PreviewRows  int              `json:"preview_rows,omitempty"`
	PageCount    int              `json:"page_count,omitempty"`
	Summary      string           `json:"summary,omitempty"`
	Content      string           `json:"content,omitempty"`
	DocumentType string           `json:"document_type,omitempty"`
	IsPreview    bool             `json:"is_preview"`
}

// Extractor produces previews under a fixed time budget.
type Extractor struct {
	timeout time.Duration
	log     *logrus.Entry
}

func NewExtractor(timeout time.Duration, log *logrus.Entry) *Extractor {
	return &Extractor{timeout: timeout, log: log}
}

// Extract builds a preview for the upload. It never fails: extraction
// errors and budget overruns degrade to Placeholder, and the condition is
// logged.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) *Preview {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		p   *Preview
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		p, err := build(filename, data)
		done <- outcome{p: p, err: err}
	}()

	select {
	case <-ctx.Done():
		e.log.WithField("filename", filename).Warn("preview extraction timed out")
		return Placeholder(filename)
	case out := <-done:
		if out.err != nil {
			e.log.WithField("filename", filename).WithError(out.err).Warn("preview extraction failed")
			return Placeholder(filename)
		}
		return out.p
	}
}

// Placeholder is the degraded preview used when extraction fails; the type
// still reflects the file kind so clients can render something sensible.
func Placeholder(filename string) *Preview {
	p := &Preview{Type: "document", Tables: []Table{}, IsPreview: true}
	if fileparse.DetectKind(filename) == fileparse.KindTabular {
		p.Type = "table"
		p.Tables = nil
	}
	return p
}

func build(filename string, data []byte) (*Preview, error) {
	switch fileparse.DetectKind(filename) {
	case fileparse.KindTabular:
		return buildTabular(filename, data)
	default:
		return buildDocument(filename, data)
	}
}

func buildTabular(filename string, data []byte) (*Preview, error) {
	t, err := fileparse.ParseTabular(filename, data, sampleRows)
	if err != nil {
		return nil, err
	}
	return &Preview{
		Type:         "table",
		Columns:      t.Columns,
		Data:         t.Rows,
		TotalRows:    t.TotalRows,
		TotalColumns: len(t.Columns),
		PreviewRows:  len(t.Rows),
		IsPreview:    true,
	}, nil
}

func buildDocument(filename string, data []byte) (*Preview, error) {
	p := &Preview{Type: "document", Tables: []Table{}, IsPreview: true}

	if fileparse.Ext(filename) == "pdf" {
		pages, err := fileparse.PDFPageCount(data)
		if err != nil {
			// Corrupted PDF: keep the document preview usable with a
			// fallback content string instead of failing the upload.
			p.Content = "Unable to read document contents"
			return p, nil
		}
		p.PageCount = pages
	}

	text, err := fileparse.ExtractText(filename, data)
	if err != nil || strings.TrimSpace(text) == "" {
		p.Content = "Unable to read document contents"
		return p, nil
	}

	if tab := detectEmbeddedTable(text); tab != nil {
		p.Tables = []Table{*tab}
		p.TotalRows = len(tab.Data)
		p.DocumentType = "document_with_tables"
		return p, nil
	}

	lines := nonEmptyLines(text)
	p.TotalRows = len(lines)
	p.DocumentType = "text_document"
	joined := strings.Join(lines, "\n")
	p.Summary = truncate(joined, summaryLimit)
	p.Content = truncate(joined, contentLimit)
	return p, nil
}

// detectEmbeddedTable looks for tab-separated rows in extracted document
// text (how docconv renders word-processor tables). It requires a header
// plus at least two consistent data rows to call it a table.
func detectEmbeddedTable(text string) *Table {
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		if strings.Count(line, "\t") >= 1 && strings.TrimSpace(line) != "" {
			rows = append(rows, strings.Split(line, "\t"))
		}
	}
	if len(rows) < 3 {
		return nil
	}
	width := len(rows[0])
	for _, r := range rows {
		if len(r) != width {
			return nil
		}
	}

	columns := make([]string, width)
	for i, c := range rows[0] {
		columns[i] = strings.TrimSpace(c)
	}
	tab := &Table{Columns: columns}
	for _, r := range rows[1:] {
		if len(tab.Data) >= sampleRows {
			break
		}
		row := make(map[string]any, width)
		for i, col := range columns {
			row[col] = strings.TrimSpace(r[i])
		}
		tab.Data = append(tab.Data, row)
	}
	return tab
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
