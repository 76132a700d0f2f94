// Package pdfx extracts plain text from PDF files for the audio-summary
// pipeline.
package pdfx

import (
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"askgemini/internal/apperr"
)

// ExtractText concatenates the text of all pages, one page per line group.
// A PDF with no extractable text (image-only scans) returns "" without
// error; the caller decides how to proceed.
func ExtractText(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", apperr.Newf(apperr.KindUsage, "PDF file not found: %s", path)
		}
		return "", apperr.New(apperr.KindUsage, "cannot access PDF file", err)
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", apperr.New(apperr.KindCorrupt,
			"could not read PDF; it may be corrupted, encrypted, or not a valid PDF", err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page does not void the rest.
			continue
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			pages = append(pages, trimmed)
		}
	}

	return strings.Join(pages, "\n"), nil
}
