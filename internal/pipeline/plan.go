package pipeline

import (
	"bytes"
	"fmt"

	"github.com/dgallion1/wordspira/internal/artifact"
	"github.com/dgallion1/wordspira/internal/document"
	"github.com/dgallion1/wordspira/internal/parser"
	"github.com/dgallion1/wordspira/internal/settings"
	"github.com/dgallion1/wordspira/internal/stylemap"
)

// Plan is everything derived from a document before the first tracker call.
type Plan struct {
	Kind      stylemap.Kind
	Map       stylemap.Map
	Selection *document.Selection

	Requirements []artifact.Requirement
	Suite        *artifact.TestSuite
	// Unplaced holds images no requirement span covers.
	Unplaced []document.ImageRef
}

// Total is the number of top-level artifacts the plan pushes.
func (p *Plan) Total() int {
	if p.Kind == stylemap.Requirements {
		return len(p.Requirements)
	}
	if p.Suite == nil {
		return 0
	}
	return len(p.Suite.TestCases)
}

// Prepare extracts the selected range of a document, resolves the style map
// for kind (persisting defaults) and assembles the artifacts. Requirement
// plans are checked for hierarchy jumps.
func Prepare(data []byte, filename string, rng document.Range, kind stylemap.Kind, store settings.Store, opts artifact.TestCaseOptions) (*Plan, error) {
	ext, err := parser.ForFile(filename)
	if err != nil {
		return nil, err
	}
	sel, err := ext.Extract(bytes.NewReader(data), filename, rng)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filename, err)
	}

	m := stylemap.Resolve(store, kind)
	if err := store.Save(); err != nil {
		return nil, fmt.Errorf("save style map: %w", err)
	}

	plan := &Plan{Kind: kind, Map: m, Selection: sel}
	switch kind {
	case stylemap.Requirements:
		reqs, err := artifact.AssembleRequirements(sel.Lines, m)
		if err != nil {
			return nil, err
		}
		if err := artifact.CheckHierarchy(reqs); err != nil {
			return nil, err
		}
		plan.Unplaced = artifact.AttachImages(reqs, sel.Images)
		plan.Requirements = reqs
	case stylemap.TestCases:
		suite, err := artifact.AssembleTestCases(sel.Lines, sel.Tables, m, opts)
		if err != nil {
			return nil, err
		}
		plan.Suite = suite
	default:
		return nil, fmt.Errorf("%w: %q", stylemap.ErrUnknownKind, kind)
	}
	return plan, nil
}
