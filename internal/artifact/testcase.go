package artifact

import (
	"fmt"
	"strings"

	"github.com/dgallion1/wordspira/internal/document"
	"github.com/dgallion1/wordspira/internal/stylemap"
)

// Role indexes of the test case style map.
const (
	roleFolder = iota
	roleTestCase
	roleDescription
	roleExpected
	roleSample
)

// TestCaseOptions tune table handling.
type TestCaseOptions struct {
	HeaderRows int  // Rows skipped at the top of each step table; 0 means 1
	MultiTable bool // Give each test case heading the first table that follows it
}

type columns struct {
	description, expected, sample int
}

func stepColumns(m stylemap.Map) (columns, error) {
	var c columns
	for _, r := range []struct {
		role int
		dst  *int
	}{
		{roleDescription, &c.description},
		{roleExpected, &c.expected},
		{roleSample, &c.sample},
	} {
		idx, ok := stylemap.ColumnIndex(m.Roles[r.role])
		if !ok {
			return columns{}, fmt.Errorf("%w: role %d is %q", ErrColumnMapping, r.role+1, m.Roles[r.role])
		}
		*r.dst = idx
	}
	return c, nil
}

// tcState is the carried state of test case assembly.
type tcState struct {
	lines    []document.LineSegment
	suite    TestSuite
	folder   int // index into suite.Folders, -1 when none
	current  int // index into suite.TestCases, -1 when none
	hasTable map[int]bool
	desc     *document.Span
}

// AssembleTestCases classifies lines through m into folders and test cases
// and derives steps from the tables in the selection. Folder headings use
// role 1, test case headings role 2; unmapped lines describe the heading
// before them. Table mismatches are reported as issues, not errors.
func AssembleTestCases(lines []document.LineSegment, tables []document.TableGrid, m stylemap.Map, opts TestCaseOptions) (*TestSuite, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("test case style map: %w", err)
	}
	cols, err := stepColumns(m)
	if err != nil {
		return nil, err
	}
	headerRows := opts.HeaderRows
	if headerRows <= 0 {
		headerRows = 1
	}

	st := &tcState{lines: lines, folder: -1, current: -1, hasTable: make(map[int]bool)}
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if line.InTable {
			st.closeDescription(i)
			end := i
			for end < len(lines) && lines[end].InTable && lines[end].Table == line.Table {
				end++
			}
			if line.Table < 0 || line.Table >= len(tables) {
				st.issue("", fmt.Sprintf("table %d ignored: no cell grid", line.Table+1))
			} else {
				st.table(lines[i:end], tables[line.Table], line.Table, cols, headerRows, opts.MultiTable)
			}
			i = end - 1
			continue
		}

		role, ok := m.Role(line)
		if ok && (role == roleFolder || role == roleTestCase) {
			st.closeDescription(i)
			name := strings.TrimSpace(line.Text)
			if role == roleFolder {
				st.startFolder(name)
			} else {
				st.startTestCase(name)
			}
			continue
		}
		if st.desc == nil {
			st.desc = &document.Span{Start: i}
		}
	}
	st.closeDescription(len(lines))

	if len(st.suite.TestCases) == 0 {
		return nil, ErrEmptyInput
	}
	return &st.suite, nil
}

func (st *tcState) startFolder(name string) {
	st.current = -1
	if name == "" {
		st.folder = -1
		return
	}
	st.suite.Folders = append(st.suite.Folders, Folder{Name: name})
	st.folder = len(st.suite.Folders) - 1
}

func (st *tcState) startTestCase(name string) {
	if name == "" {
		st.current = -1
		return
	}
	tc := TestCase{Name: name}
	if st.folder >= 0 {
		tc.FolderName = st.suite.Folders[st.folder].Name
	}
	st.suite.TestCases = append(st.suite.TestCases, tc)
	st.current = len(st.suite.TestCases) - 1
}

// closeDescription assigns the open span to the current test case, or to
// the current folder when no test case follows it yet.
func (st *tcState) closeDescription(end int) {
	if st.desc == nil {
		return
	}
	desc := RenderDescription(st.lines[st.desc.Start:end])
	st.desc = nil
	switch {
	case st.current >= 0:
		st.suite.TestCases[st.current].Description = desc
	case st.folder >= 0:
		st.suite.Folders[st.folder].Description = desc
	}
}

// table associates grid with the current test case when its first row has
// the description column header followed by a tab in the description column.
func (st *tcState) table(cells []document.LineSegment, grid document.TableGrid, n int, cols columns, headerRows int, multi bool) {
	if n > 0 && !multi {
		st.issue("", fmt.Sprintf("table %d ignored: only the first table is read", n+1))
		return
	}
	if st.current < 0 {
		st.issue("", fmt.Sprintf("table %d has no test case heading before it", n+1))
		return
	}
	tc := &st.suite.TestCases[st.current]
	if st.hasTable[st.current] {
		st.issue(tc.Name, fmt.Sprintf("table %d ignored: test case already has steps", n+1))
		return
	}

	header := grid.Cell(0, cols.description)
	width := 0
	if len(grid) > 0 {
		width = len(grid[0])
	}
	matched := cols.description < width && cols.description < len(cells) &&
		cells[cols.description].Text == header+"\t"
	if header == "" || !matched {
		st.issue(tc.Name, fmt.Sprintf("table %d does not match description column header %q", n+1, header))
		return
	}

	st.hasTable[st.current] = true
	for r := headerRows; r < len(grid); r++ {
		tc.Steps = append(tc.Steps, TestStep{
			Description:    grid.Cell(r, cols.description),
			ExpectedResult: grid.Cell(r, cols.expected),
			SampleData:     grid.Cell(r, cols.sample),
		})
	}
}

func (st *tcState) issue(tc, reason string) {
	st.suite.Issues = append(st.suite.Issues, Issue{TestCase: tc, Reason: reason})
}
