package library

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/inbucket/html2text"
	"github.com/ledongthuc/pdf"
)

type DocType string

const (
	TypePDF      DocType = "pdf"
	TypeHTML     DocType = "html"
	TypeMarkdown DocType = "markdown"
	TypeText     DocType = "text"
)

var extensions = map[string]DocType{
	".pdf":      TypePDF,
	".html":     TypeHTML,
	".htm":      TypeHTML,
	".md":       TypeMarkdown,
	".markdown": TypeMarkdown,
	".txt":      TypeText,
}

// SupportedExtensions lists accepted file extensions, for help texts.
func SupportedExtensions() []string {
	return []string{".pdf", ".html", ".htm", ".md", ".markdown", ".txt"}
}

func DetectType(name string) (DocType, error) {
	ext := strings.ToLower(filepath.Ext(name))
	kind, ok := extensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFile, name)
	}
	return kind, nil
}

type Extracted struct {
	Text  string
	Pages int
}

func Extract(kind DocType, data []byte) (Extracted, error) {
	switch kind {
	case TypePDF:
		return extractPDF(data)
	case TypeHTML:
		text, err := html2text.FromReader(bytes.NewReader(data), html2text.Options{
			OmitLinks:    true,
			PrettyTables: true,
		})
		if err != nil {
			return Extracted{}, fmt.Errorf("failed to convert html: %w", err)
		}
		return Extracted{Text: text}, nil
	case TypeMarkdown, TypeText:
		if !utf8.Valid(data) {
			return Extracted{}, fmt.Errorf("%w: not valid utf-8", ErrUnsupportedFile)
		}
		return Extracted{Text: string(data)}, nil
	default:
		return Extracted{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, kind)
	}
}

// extractPDF concatenates the plain text of every page, each preceded by a
// "--- Page N ---" marker.
func extractPDF(data []byte) (out Extracted, err error) {
	// the parser panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Extracted{}, fmt.Errorf("failed to open pdf: %w", err)
	}

	var sb strings.Builder
	hasText := false
	pages := reader.NumPage()
	for n := 1; n <= pages; n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return Extracted{}, fmt.Errorf("failed to read page %d: %w", n, err)
		}
		if strings.TrimSpace(text) != "" {
			hasText = true
		}
		fmt.Fprintf(&sb, "\n--- Page %d ---\n", n)
		sb.WriteString(text)
	}

	if !hasText {
		return Extracted{Pages: pages}, nil
	}
	return Extracted{Text: sb.String(), Pages: pages}, nil
}
