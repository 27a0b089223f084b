package artifact

import (
	"fmt"
	"strings"

	"github.com/dgallion1/wordspira/internal/document"
	"github.com/dgallion1/wordspira/internal/stylemap"
)

// reqState is the carried state of the single forward pass.
type reqState struct {
	lines   []document.LineSegment
	out     []Requirement
	pending *Requirement
	desc    *document.Span // open description span
}

// AssembleRequirements classifies lines through m and returns requirements
// in document order. A line whose style maps to role i starts a requirement
// at indent level i; every other line joins the description of the
// requirement before it.
func AssembleRequirements(lines []document.LineSegment, m stylemap.Map) ([]Requirement, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("requirement style map: %w", err)
	}

	st := &reqState{lines: lines}
	for i, line := range lines {
		level, heading := m.Role(line)
		if heading && !line.InTable {
			st.closeDescription(i)
			st.flush()
			st.pending = &Requirement{
				Name:        strings.TrimSpace(line.Text),
				IndentLevel: level,
				Lines:       document.Span{Start: i, End: i + 1},
			}
			continue
		}
		if st.desc == nil {
			st.desc = &document.Span{Start: i, End: i + 1}
		}
	}
	st.closeDescription(len(lines))
	st.flush()

	if len(st.out) == 0 {
		return nil, ErrEmptyInput
	}
	return st.out, nil
}

// closeDescription seals the open span at end and assigns it to the pending
// requirement. Content before the first heading has no owner and is dropped.
func (st *reqState) closeDescription(end int) {
	if st.desc == nil {
		return
	}
	st.desc.End = end
	if st.pending != nil {
		st.pending.Description = RenderDescription(st.lines[st.desc.Start:end])
		st.pending.Lines.End = end
	}
	st.desc = nil
}

// flush emits the pending requirement. Headings with blank text are stray
// style applications and are discarded.
func (st *reqState) flush() {
	if st.pending == nil {
		return
	}
	if st.pending.Name != "" {
		st.out = append(st.out, *st.pending)
	}
	st.pending = nil
}

// AttachImages assigns each image to the requirement whose source lines
// cover its line index. Placement is best effort; unplaced images are
// returned.
func AttachImages(reqs []Requirement, images []document.ImageRef) []document.ImageRef {
	var unplaced []document.ImageRef
	for _, img := range images {
		placed := false
		for i := range reqs {
			if reqs[i].Lines.Covers(img.LineIndex) {
				reqs[i].Images = append(reqs[i].Images, img)
				placed = true
				break
			}
		}
		if !placed {
			unplaced = append(unplaced, img)
		}
	}
	return unplaced
}
