// Package extract turns uploaded files into plain text ready for
// chunking.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedType rejects uploads the pipeline cannot read.
var ErrUnsupportedType = errors.New("unsupported file type")

// ErrEmptyDocument indicates a file that yielded no extractable text.
var ErrEmptyDocument = errors.New("no extractable text")

// Kind classifies an upload.
type Kind string

const (
	KindText  Kind = "text"
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
)

var imageMIMEs = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// DetectKind classifies a file by extension first, content sniffing
// second. Returns the kind and the resolved MIME type.
func DetectKind(filename string, data []byte) (Kind, string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md":
		return KindText, "text/plain", nil
	case ".pdf":
		return KindPDF, "application/pdf", nil
	case ".png":
		return KindImage, "image/png", nil
	case ".jpg", ".jpeg":
		return KindImage, "image/jpeg", nil
	case ".webp":
		return KindImage, "image/webp", nil
	}

	mime := http.DetectContentType(data)
	mime, _, _ = strings.Cut(mime, ";")
	switch {
	case strings.HasPrefix(mime, "text/"):
		return KindText, "text/plain", nil
	case mime == "application/pdf":
		return KindPDF, mime, nil
	case imageMIMEs[mime]:
		return KindImage, mime, nil
	}
	return "", "", fmt.Errorf("%w: %s", ErrUnsupportedType, mime)
}

// Page is one PDF page's extracted text.
type Page struct {
	Number int
	Text   string
}

// PDFPages extracts text per page. Pages that cannot be decoded are
// skipped; a document with no readable text at all is an error.
func PDFPages(data []byte) ([]Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	var pages []Page
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}

	if len(pages) == 0 {
		return nil, ErrEmptyDocument
	}
	return pages, nil
}
