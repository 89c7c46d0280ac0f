package preview

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func buildCSV(rows int) []byte {
	var b strings.Builder
	b.WriteString("region,product,revenue\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "east,gadget-%d,%d\n", i, i*10)
	}
	return []byte(b.String())
}

func TestExtractTabular(t *testing.T) {
	e := NewExtractor(5*time.Second, testLog())

	p := e.Extract(context.Background(), "sales.csv", buildCSV(1000))

	assert.Equal(t, "table", p.Type)
	assert.Equal(t, []string{"region", "product", "revenue"}, p.Columns)
	assert.Len(t, p.Data, 10)
	assert.Equal(t, 10, p.PreviewRows)
	assert.Equal(t, 1000, p.TotalRows)
	assert.Equal(t, 3, p.TotalColumns)
	assert.True(t, p.IsPreview)
}

func TestExtractSmallTable(t *testing.T) {
	e := NewExtractor(5*time.Second, testLog())

	p := e.Extract(context.Background(), "sales.csv", buildCSV(3))

	assert.Len(t, p.Data, 3)
	assert.Equal(t, 3, p.TotalRows)
}

func TestExtractCorruptedPDF(t *testing.T) {
	e := NewExtractor(5*time.Second, testLog())

	p := e.Extract(context.Background(), "broken.pdf", []byte("this is not a pdf"))

	assert.Equal(t, "document", p.Type)
	assert.Empty(t, p.Tables)
	assert.NotNil(t, p.Tables)
	assert.Equal(t, "Unable to read document contents", p.Content)
	assert.True(t, p.IsPreview)
}

func TestExtractBadCSVFallsBackToPlaceholder(t *testing.T) {
	e := NewExtractor(5*time.Second, testLog())

	// A bare quote makes the csv reader fail mid-file.
	p := e.Extract(context.Background(), "bad.csv", []byte("a,b\n\"unterminated\n"))

	assert.Equal(t, "table", p.Type)
	assert.Empty(t, p.Data)
	assert.True(t, p.IsPreview)
}

func TestExtractTimeoutReturnsPlaceholder(t *testing.T) {
	e := NewExtractor(time.Nanosecond, testLog())

	p := e.Extract(context.Background(), "huge.csv", buildCSV(200000))

	assert.Equal(t, "table", p.Type)
	assert.Empty(t, p.Data)
	assert.Zero(t, p.TotalRows)
	assert.True(t, p.IsPreview)
}

func TestPlaceholderShapes(t *testing.T) {
	tab := Placeholder("x.csv")
	assert.Equal(t, "table", tab.Type)
	assert.Nil(t, tab.Tables)

	doc := Placeholder("x.pdf")
	assert.Equal(t, "document", doc.Type)
	require.NotNil(t, doc.Tables)
	assert.Empty(t, doc.Tables)
}

func TestDetectEmbeddedTable(t *testing.T) {
	text := strings.Join([]string{
		"Quarterly figures below.",
		"quarter\trevenue\tcost",
		"Q1\t100\t40",
		"Q2\t120\t45",
		"Q3\t130\t50",
	}, "\n")

	tab := detectEmbeddedTable(text)
	require.NotNil(t, tab)
	assert.Equal(t, []string{"quarter", "revenue", "cost"}, tab.Columns)
	assert.Len(t, tab.Data, 3)
	assert.Equal(t, "Q2", tab.Data[1]["quarter"])
}

func TestDetectEmbeddedTableRejectsInconsistentRows(t *testing.T) {
	text := "a\tb\n1\t2\n3\t4\t5\n"
	assert.Nil(t, detectEmbeddedTable(text))
}

func TestDetectEmbeddedTableNeedsEnoughRows(t *testing.T) {
	text := "a\tb\n1\t2\n"
	assert.Nil(t, detectEmbeddedTable(text))
}
