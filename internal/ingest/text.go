package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// PlainTextParser handles .txt, .log, .vtt and any unrecognized text format.
type PlainTextParser struct{}

// CanHandle returns true for plain text extensions. Also acts as fallback.
func (p *PlainTextParser) CanHandle(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".txt" || ext == ".log" || ext == ".vtt" || ext == ""
}

// Parse reads the file and splits it into trimmed, non-empty lines.
func (p *PlainTextParser) Parse(ctx context.Context, path string) (*Document, error) {
	absPath, data, err := readSource(path)
	if err != nil {
		return nil, err
	}
	return &Document{Source: absPath, Lines: splitLines(string(data))}, nil
}

// splitLines normalizes line endings and drops blank lines.
func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func readSource(path string) (string, []byte, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, err
	}
	if info.Size() > DefaultMaxFileSize {
		return "", nil, &FileTooLargeError{Path: absPath, Size: info.Size()}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return absPath, data, nil
}
