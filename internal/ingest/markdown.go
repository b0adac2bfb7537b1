package ingest

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
)

// MarkdownParser handles .md and .markdown files. Formatting is stripped so
// "**Alex:** hello" segments the same as "Alex: hello".
type MarkdownParser struct{}

var (
	mdHeadingRe = regexp.MustCompile(`^#{1,6}\s+`)
	mdBulletRe  = regexp.MustCompile(`^(?:[-*+]|\d+\.)\s+`)
	mdQuoteRe   = regexp.MustCompile(`^>+\s*`)
	mdFenceRe   = regexp.MustCompile("^(```|~~~)")
)

func (p *MarkdownParser) CanHandle(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

func (p *MarkdownParser) Parse(ctx context.Context, path string) (*Document, error) {
	absPath, data, err := readSource(path)
	if err != nil {
		return nil, err
	}
	return &Document{Source: absPath, Lines: stripMarkdown(splitLines(string(data)))}, nil
}

func stripMarkdown(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if mdFenceRe.MatchString(line) {
			continue
		}
		line = mdHeadingRe.ReplaceAllString(line, "")
		line = mdQuoteRe.ReplaceAllString(line, "")
		line = mdBulletRe.ReplaceAllString(line, "")
		line = strings.ReplaceAll(line, "**", "")
		line = strings.ReplaceAll(line, "__", "")
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
