package ingest

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLParser handles saved chat pages (.html, .htm).
type HTMLParser struct{}

// htmlBlocks are the elements whose text becomes one line each.
const htmlBlocks = "p, li, h1, h2, h3, h4, h5, h6, blockquote, pre, td, dd, dt"

func (p *HTMLParser) CanHandle(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm"
}

func (p *HTMLParser) Parse(ctx context.Context, path string) (*Document, error) {
	absPath, data, err := readSource(path)
	if err != nil {
		return nil, err
	}
	lines, err := htmlLines(data)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML %s: %w", absPath, err)
	}
	return &Document{Source: absPath, Lines: lines}, nil
}

func htmlLines(data []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript").Remove()

	var lines []string
	doc.Find(htmlBlocks).Each(func(_ int, s *goquery.Selection) {
		// Nested blocks (li > p) would be emitted twice.
		if s.Find(htmlBlocks).Length() > 0 {
			return
		}
		lines = append(lines, splitLines(collapseSpace(s.Text()))...)
	})
	if len(lines) == 0 {
		lines = splitLines(doc.Text())
	}
	return lines, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
