package extract

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	apperrors "github.com/chengAMS/hyperdoc/internal/pkg/errors"
)

// Parser extracts plain text from one uploaded file format.
type Parser interface {
	Supports(filename string) bool
	Parse(r io.Reader, filename string) (string, error)
}

var parsers = []Parser{
	&PDFParser{},
	&MarkdownParser{},
	&TextParser{},
}

// Supported reports whether filename has a known extension.
func Supported(filename string) bool {
	for _, p := range parsers {
		if p.Supports(filename) {
			return true
		}
	}
	return false
}

// Text extracts the plain text of the uploaded file, dispatching on
// the file extension.
func Text(r io.Reader, filename string) (string, error) {
	for _, p := range parsers {
		if p.Supports(filename) {
			text, err := p.Parse(r, filename)
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(text), nil
		}
	}
	return "", fmt.Errorf("%w: unsupported file format %q", apperrors.ErrInvalid, filepath.Ext(strings.ToLower(filename)))
}

type TextParser struct{}

func (p *TextParser) Supports(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".txt"
}

func (p *TextParser) Parse(r io.Reader, filename string) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	return string(content), nil
}
