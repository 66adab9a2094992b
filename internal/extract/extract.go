// Package extract turns roster documents into the plain multi-line text the
// timesheet parser reads.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// ErrUnsupported is returned for file types without an extractor.
var ErrUnsupported = errors.New("unsupported document type")

// Extractor produces raw text from document bytes.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// ForFile picks an extractor by file extension.
func ForFile(name string, logger *zap.Logger) (Extractor, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return &PDF{Logger: logger}, nil
	case ".txt", ".text":
		return PlainText{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(name))
}

// File reads path and extracts its text.
func File(ctx context.Context, path string, logger *zap.Logger) (string, error) {
	ex, err := ForFile(path, logger)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return ex.Extract(ctx, data)
}

// PlainText passes text files through. Input that is not valid UTF-8 is
// read as Windows-1252, the usual encoding of older roster exports.
type PlainText struct{}

// Extract implements Extractor.
func (PlainText) Extract(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decoding text: %w", err)
		}
		data = decoded
	}
	return Normalize(string(data)), nil
}

// Normalize composes text to NFC and cleans up line endings and odd
// whitespace left by PDF producers.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	return strings.NewReplacer(
		"\r\n", "\n",
		"\r", "\n",
		"\u00a0", " ",
		"\x00", "",
	).Replace(s)
}
