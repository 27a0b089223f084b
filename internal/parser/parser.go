package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/wordspira/internal/document"
)

// ErrEmptyDocument is returned when a selection has no lines.
var ErrEmptyDocument = errors.New("empty document")

// Extractor turns raw document bytes into the line segments, tables and
// images of the selected range.
type Extractor interface {
	Extract(r io.Reader, filename string, rng document.Range) (*document.Selection, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".docx":     true,
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// block is one top-level body item after extraction. A paragraph yields one
// line, a table yields one line per cell plus a grid.
type block struct {
	lines  []document.LineSegment
	counts []int // inline images per line
	grid   document.TableGrid
	images []document.ImageRef
}

// assemble keeps the blocks inside rng and flattens them into a selection.
func assemble(blocks []block, rng document.Range) (*document.Selection, error) {
	sel := &document.Selection{}
	var counts []int
	var images []document.ImageRef
	for i, b := range blocks {
		if !rng.Contains(i) {
			continue
		}
		if b.grid != nil {
			for j := range b.lines {
				if b.lines[j].InTable {
					b.lines[j].Table = len(sel.Tables)
				}
			}
			sel.Tables = append(sel.Tables, b.grid)
		}
		sel.Lines = append(sel.Lines, b.lines...)
		counts = append(counts, b.counts...)
		images = append(images, b.images...)
	}
	if len(sel.Lines) == 0 {
		return nil, ErrEmptyDocument
	}
	sel.Images = AssignImages(counts, images)
	for _, img := range sel.Images {
		if img.LineIndex >= 0 && img.LineIndex < len(sel.Lines) {
			sel.Lines[img.LineIndex].Images = append(sel.Lines[img.LineIndex].Images, img)
		}
	}
	return sel, nil
}

// UsedStyles returns the distinct resolved styles of lines, excluding Normal.
func UsedStyles(lines []document.LineSegment) []string {
	var out []string
	seen := make(map[string]bool)
	for _, l := range lines {
		if l.InTable || l.Style == "" || l.Style == document.StyleNormal || seen[l.Style] {
			continue
		}
		seen[l.Style] = true
		out = append(out, l.Style)
	}
	return out
}
