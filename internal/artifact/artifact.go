// Package artifact assembles requirements and test cases from extracted
// line segments.
package artifact

import (
	"errors"

	"github.com/dgallion1/wordspira/internal/document"
)

var (
	// ErrEmptyInput means the selection held nothing the style map classifies.
	ErrEmptyInput = errors.New("no classifiable content in selection")
	// ErrHierarchyInvalid means an indent level skips a level.
	ErrHierarchyInvalid = errors.New("requirement hierarchy is invalid")
	// ErrColumnMapping means a test step role is not a columnN role.
	ErrColumnMapping = errors.New("test step role is not a table column")
)

// Requirement is one node of the requirement forest.
type Requirement struct {
	Name        string
	IndentLevel int
	Description string
	Lines       document.Span // Source lines, heading included
	Images      []document.ImageRef
}

// TestStep is one row of a test case's step table.
type TestStep struct {
	Description    string
	SampleData     string
	ExpectedResult string
}

// TestCase groups ordered steps under a named folder.
type TestCase struct {
	Name        string
	Description string
	FolderName  string
	Steps       []TestStep
}

// Folder is a named container for test cases.
type Folder struct {
	Name        string
	Description string
}

// Issue is a non-fatal validation finding reported alongside assembled
// test cases.
type Issue struct {
	TestCase string
	Reason   string
}

// TestSuite is the result of test case assembly.
type TestSuite struct {
	Folders   []Folder
	TestCases []TestCase
	Issues    []Issue
}
