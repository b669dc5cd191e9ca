package extract

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"code.sajari.com/docconv"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyContent    = errors.New("no readable text found in document")
)

// Anything shorter is noise, not a document.
const minDocumentLength = 10

// SupportedMimeTypes lists the upload types the extractor accepts.
var SupportedMimeTypes = []string{
	"application/pdf",
	"text/plain",
	"text/markdown",
}

// Extractor pulls plain text out of uploaded files. PDFs go through
// docconv; plain text and markdown are read as-is.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Supports(mimeType string) bool {
	for _, m := range SupportedMimeTypes {
		if m == mimeType {
			return true
		}
	}
	return false
}

func (e *Extractor) Extract(path, mimeType string) (string, error) {
	switch mimeType {
	case "application/pdf":
		return e.extractPDF(path)
	case "text/plain", "text/markdown":
		return e.extractPlain(path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
}

func (e *Extractor) extractPDF(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- path is a server-generated upload location
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	res, err := docconv.Convert(f, "application/pdf", true)
	if err != nil {
		return "", fmt.Errorf("convert pdf: %w", err)
	}
	return validate(res.Body)
}

func (e *Extractor) extractPlain(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is a server-generated upload location
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	return validate(string(data))
}

func validate(text string) (string, error) {
	text = strings.TrimSpace(text)
	if len(text) < minDocumentLength {
		return "", ErrEmptyContent
	}
	return text, nil
}
