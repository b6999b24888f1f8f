package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/becomeliminal/recall-go-sdk/core"
)

// ReadDocument loads an upload for the save path. The ingestion boundary
// accepts raw text only; other formats are rejected with
// core.ErrUnsupportedFormat instead of being silently mis-parsed.
func ReadDocument(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text", ".md":
	default:
		return "", fmt.Errorf("%s: %w", path, core.ErrUnsupportedFormat)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", path, core.ErrUnsupportedFormat)
	}
	return string(data), nil
}
