package fileparse

import (
	"bytes"
	"fmt"

	"code.sajari.com/docconv"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ExtractText extracts plain text from a document using docconv. The mime
// type is derived from the filename.
func ExtractText(filename string, data []byte) (string, error) {
	mime := docconv.MimeTypeByExtension(filename)
	res, err := docconv.Convert(bytes.NewReader(data), mime, false)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filename, err)
	}
	if res == nil || res.Body == "" {
		return "", fmt.Errorf("extract %s: no text content", filename)
	}
	return res.Body, nil
}

// PDFPageCount validates the PDF structure and returns its page count.
// A corrupted file surfaces here as an error before any text extraction is
// attempted.
func PDFPageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("pdf page count: %w", err)
	}
	return n, nil
}
