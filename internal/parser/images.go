package parser

import (
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	"github.com/h2non/filetype"

	"github.com/dgallion1/wordspira/internal/document"
)

// newImageRef encodes an inline image. LineIndex is assigned later by
// AssignImages.
func newImageRef(data []byte, seq int) document.ImageRef {
	ext := "jpg"
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown && filetype.IsImage(data) {
		ext = kind.Extension
	}
	return document.ImageRef{
		Base64:    base64.StdEncoding.EncodeToString(data),
		Filename:  fmt.Sprintf("inline%d.%s", seq, ext),
		LineIndex: -1,
	}
}

// AssignImages is a best-effort positional pass: counts holds the number of
// inline images found on each line, and images are handed out to those
// lines in encounter order. Images beyond the counted slots keep
// LineIndex -1.
func AssignImages(counts []int, images []document.ImageRef) []document.ImageRef {
	var slots []int
	for line, n := range counts {
		for j := 0; j < n; j++ {
			slots = append(slots, line)
		}
	}
	out := make([]document.ImageRef, len(images))
	for i, img := range images {
		img.LineIndex = -1
		if i < len(slots) {
			img.LineIndex = slots[i]
		}
		img.Filename = renumber(img.Filename, i)
		out[i] = img
	}
	return out
}

// renumber keeps filenames sequential across the whole selection.
func renumber(name string, seq int) string {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("inline%d.%s", seq, ext)
}
