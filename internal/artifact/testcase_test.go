package artifact

import (
	"errors"
	"testing"

	"github.com/dgallion1/wordspira/internal/document"
	"github.com/dgallion1/wordspira/internal/stylemap"
)

func testMap() stylemap.Map {
	return stylemap.Map{
		Kind:  stylemap.TestCases,
		Roles: [stylemap.RoleCount]string{"heading1", "heading2", "column1", "column2", "column3"},
	}
}

func cellLines(grid document.TableGrid, table int) []document.LineSegment {
	var out []document.LineSegment
	for _, row := range grid {
		for _, c := range row {
			out = append(out, document.LineSegment{Text: c + "\t", Style: "Normal", BuiltInStyle: "Normal", InTable: true, Table: table})
		}
	}
	return out
}

func stepGrid() document.TableGrid {
	return document.TableGrid{
		{"Step", "Expected", "Data"},
		{"Open page", "Page shown", "url"},
		{"Submit", "Logged in", ""},
	}
}

func TestAssembleTestCases_FolderCaseSteps(t *testing.T) {
	grid := stepGrid()
	lines := []document.LineSegment{
		line("heading1", "Login"),
		line("Normal", "Login tests"),
		line("heading2", "Valid login"),
		line("Normal", "User logs in"),
	}
	lines = append(lines, cellLines(grid, 0)...)

	suite, err := AssembleTestCases(lines, []document.TableGrid{grid}, testMap(), TestCaseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(suite.Folders) != 1 || suite.Folders[0].Name != "Login" {
		t.Fatalf("expected folder Login, got %+v", suite.Folders)
	}
	if suite.Folders[0].Description != "Login tests" {
		t.Errorf("expected folder description %q, got %q", "Login tests", suite.Folders[0].Description)
	}
	if len(suite.TestCases) != 1 {
		t.Fatalf("expected 1 test case, got %d", len(suite.TestCases))
	}
	tc := suite.TestCases[0]
	if tc.Name != "Valid login" || tc.FolderName != "Login" || tc.Description != "User logs in" {
		t.Errorf("unexpected test case %+v", tc)
	}
	if len(tc.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(tc.Steps))
	}
	want := TestStep{Description: "Open page", ExpectedResult: "Page shown", SampleData: "url"}
	if tc.Steps[0] != want {
		t.Errorf("expected %+v, got %+v", want, tc.Steps[0])
	}
	if tc.Steps[1].SampleData != "" {
		t.Errorf("expected empty sample data, got %q", tc.Steps[1].SampleData)
	}
	if len(suite.Issues) != 0 {
		t.Errorf("expected no issues, got %+v", suite.Issues)
	}
}

func TestAssembleTestCases_ColumnOrder(t *testing.T) {
	grid := document.TableGrid{
		{"Data", "Step", "Expected"},
		{"url", "Open page", "Page shown"},
	}
	m := testMap()
	m.Roles = [stylemap.RoleCount]string{"heading1", "heading2", "column2", "column3", "column1"}
	lines := append([]document.LineSegment{line("heading2", "Case")}, cellLines(grid, 0)...)

	suite, err := AssembleTestCases(lines, []document.TableGrid{grid}, m, TestCaseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := TestStep{Description: "Open page", ExpectedResult: "Page shown", SampleData: "url"}
	if len(suite.TestCases[0].Steps) != 1 || suite.TestCases[0].Steps[0] != want {
		t.Errorf("expected %+v, got %+v", want, suite.TestCases[0].Steps)
	}
}

func TestAssembleTestCases_HeaderMismatchIsIssue(t *testing.T) {
	grid := stepGrid()
	lines := append([]document.LineSegment{line("heading2", "Case")}, cellLines(grid, 0)...)
	lines[1].Text = "Renamed\t"

	suite, err := AssembleTestCases(lines, []document.TableGrid{grid}, testMap(), TestCaseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(suite.TestCases[0].Steps) != 0 {
		t.Errorf("expected no steps, got %+v", suite.TestCases[0].Steps)
	}
	if len(suite.Issues) != 1 || suite.Issues[0].TestCase != "Case" {
		t.Errorf("expected one issue for Case, got %+v", suite.Issues)
	}
}

func TestAssembleTestCases_HeaderRows(t *testing.T) {
	grid := document.TableGrid{
		{"Step", "Expected", "Data"},
		{"sub", "header", "row"},
		{"Open page", "Page shown", "url"},
	}
	lines := append([]document.LineSegment{line("heading2", "Case")}, cellLines(grid, 0)...)
	suite, err := AssembleTestCases(lines, []document.TableGrid{grid}, testMap(), TestCaseOptions{HeaderRows: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(suite.TestCases[0].Steps) != 1 || suite.TestCases[0].Steps[0].Description != "Open page" {
		t.Errorf("expected only the body row, got %+v", suite.TestCases[0].Steps)
	}
}

func TestAssembleTestCases_FirstTableOnly(t *testing.T) {
	g1, g2 := stepGrid(), stepGrid()
	lines := []document.LineSegment{line("heading2", "First")}
	lines = append(lines, cellLines(g1, 0)...)
	lines = append(lines, line("heading2", "Second"))
	lines = append(lines, cellLines(g2, 1)...)

	suite, err := AssembleTestCases(lines, []document.TableGrid{g1, g2}, testMap(), TestCaseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(suite.TestCases[0].Steps) != 2 {
		t.Errorf("expected first case to have 2 steps, got %d", len(suite.TestCases[0].Steps))
	}
	if len(suite.TestCases[1].Steps) != 0 {
		t.Errorf("expected second case to have no steps, got %d", len(suite.TestCases[1].Steps))
	}
	if len(suite.Issues) != 1 {
		t.Errorf("expected one ignored-table issue, got %+v", suite.Issues)
	}

	suite, err = AssembleTestCases(lines, []document.TableGrid{g1, g2}, testMap(), TestCaseOptions{MultiTable: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(suite.TestCases[1].Steps) != 2 {
		t.Errorf("expected multi-table mode to fill second case, got %d steps", len(suite.TestCases[1].Steps))
	}
}

func TestAssembleTestCases_TableWithoutCase(t *testing.T) {
	grid := stepGrid()
	lines := append([]document.LineSegment{line("heading1", "Folder")}, cellLines(grid, 0)...)
	lines = append(lines, line("heading2", "Case"))
	suite, err := AssembleTestCases(lines, []document.TableGrid{grid}, testMap(), TestCaseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(suite.Issues) != 1 {
		t.Errorf("expected an issue for the orphan table, got %+v", suite.Issues)
	}
	if suite.TestCases[0].FolderName != "Folder" {
		t.Errorf("expected folder %q, got %q", "Folder", suite.TestCases[0].FolderName)
	}
}

func TestAssembleTestCases_Errors(t *testing.T) {
	_, err := AssembleTestCases([]document.LineSegment{line("heading1", "Only folder")}, nil, testMap(), TestCaseOptions{})
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}

	m := testMap()
	m.Roles[2] = "heading3"
	_, err = AssembleTestCases([]document.LineSegment{line("heading2", "Case")}, nil, m, TestCaseOptions{})
	if !errors.Is(err, ErrColumnMapping) {
		t.Errorf("expected ErrColumnMapping, got %v", err)
	}

	m = testMap()
	m.Roles[1] = "Heading 1"
	_, err = AssembleTestCases([]document.LineSegment{line("heading2", "Case")}, nil, m, TestCaseOptions{})
	if !errors.Is(err, stylemap.ErrDuplicateStyleMapping) {
		t.Errorf("expected ErrDuplicateStyleMapping, got %v", err)
	}
}

func TestAssembleTestCases_CasesWithoutFolder(t *testing.T) {
	lines := []document.LineSegment{
		line("heading2", "A"),
		line("heading2", "  "),
		line("Normal", "orphan text"),
		line("heading2", "B"),
	}
	suite, err := AssembleTestCases(lines, nil, testMap(), TestCaseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(suite.TestCases) != 2 || suite.TestCases[0].FolderName != "" {
		t.Errorf("unexpected test cases %+v", suite.TestCases)
	}
	if suite.TestCases[0].Description != "" {
		t.Errorf("expected blank heading to end A's description, got %q", suite.TestCases[0].Description)
	}
}

func TestAssembleTestCases_MultiTableByIndex(t *testing.T) {
	a := document.TableGrid{{"Step", "Expected", "Data"}, {"a1", "a2", "x"}}
	b := document.TableGrid{{"Step", "Expected", "Data"}, {"b1", "b2", "y"}}
	c := document.TableGrid{{"Step", "Expected", "Data"}, {"c1", "c2", "z"}}
	lines := []document.LineSegment{line("heading2", "TC1")}
	lines = append(lines, cellLines(a, 0)...)
	lines = append(lines, cellLines(b, 1)...)
	lines = append(lines, line("heading2", "TC2"))
	lines = append(lines, cellLines(c, 2)...)

	suite, err := AssembleTestCases(lines, []document.TableGrid{a, b, c}, testMap(), TestCaseOptions{MultiTable: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tests := []struct {
		tc   int
		want string
	}{
		{0, "a1"},
		{1, "c1"},
	}
	for _, tt := range tests {
		steps := suite.TestCases[tt.tc].Steps
		if len(steps) != 1 || steps[0].Description != tt.want {
			t.Errorf("expected %s to have step %q, got %+v", suite.TestCases[tt.tc].Name, tt.want, steps)
		}
	}
	if len(suite.Issues) != 1 || suite.Issues[0].TestCase != "TC1" {
		t.Errorf("expected one issue for the second table under TC1, got %+v", suite.Issues)
	}
}

func TestAssembleTestCases_EmptyTableKeepsLaterGrids(t *testing.T) {
	empty := document.TableGrid{}
	grid := document.TableGrid{{"Step", "Expected", "Data"}, {"Open page", "Page shown", ""}}
	lines := []document.LineSegment{line("heading2", "First"), line("heading2", "Second")}
	lines = append(lines, cellLines(grid, 1)...)

	suite, err := AssembleTestCases(lines, []document.TableGrid{empty, grid}, testMap(), TestCaseOptions{MultiTable: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(suite.TestCases[1].Steps) != 1 || suite.TestCases[1].Steps[0].Description != "Open page" {
		t.Errorf("expected Second to get the step, got %+v", suite.TestCases[1].Steps)
	}
	if len(suite.TestCases[0].Steps) != 0 {
		t.Errorf("expected First to have no steps, got %+v", suite.TestCases[0].Steps)
	}
}

func TestAssembleTestCases_HeaderCheckedInDescriptionColumn(t *testing.T) {
	grid := stepGrid()
	lines := append([]document.LineSegment{line("heading2", "Case")}, cellLines(grid, 0)...)
	// header text present in the row, but not in the description column
	lines[1].Text, lines[2].Text = "Expected\t", "Step\t"

	suite, err := AssembleTestCases(lines, []document.TableGrid{grid}, testMap(), TestCaseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(suite.TestCases[0].Steps) != 0 {
		t.Errorf("expected no steps, got %+v", suite.TestCases[0].Steps)
	}
	if len(suite.Issues) != 1 {
		t.Errorf("expected one header issue, got %+v", suite.Issues)
	}
}

func TestAssembleTestCases_EmptyRowIsStep(t *testing.T) {
	grid := document.TableGrid{
		{"Step", "Expected", "Data"},
		{"Open page", "Page shown", "url"},
		{"", "", ""},
	}
	lines := append([]document.LineSegment{line("heading2", "Case")}, cellLines(grid, 0)...)
	suite, err := AssembleTestCases(lines, []document.TableGrid{grid}, testMap(), TestCaseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	steps := suite.TestCases[0].Steps
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if steps[1] != (TestStep{}) {
		t.Errorf("expected empty step, got %+v", steps[1])
	}
}
