package document

// Sentinel built-in style name Word reports for user-defined styles.
const StyleOther = "Other"

// StyleNormal is the default paragraph style.
const StyleNormal = "Normal"

// Selection is the extracted content of a document range.
type Selection struct {
	Lines  []LineSegment // Paragraph-like segments in document order
	Tables []TableGrid   // One grid per table touched by the range
	Images []ImageRef    // Inline images in encounter order
}

// LineSegment is one paragraph-mark delimited piece of the selection.
type LineSegment struct {
	Text          string
	Style         string // Resolved style: CustomStyle when BuiltInStyle is "Other"
	BuiltInStyle  string
	CustomStyle   string
	IsCustomStyle bool
	HTML          string    // Inline HTML of the line, empty when only text is known
	List          *ListInfo // Non-nil when the paragraph is a list item
	InTable       bool      // Segment comes from a table cell
	Table         int       // Index into Selection.Tables when InTable
	Images        []ImageRef
}

// ListInfo describes list membership of a paragraph.
type ListInfo struct {
	Ordered bool
	Level   int
}

// ImageRef is an inline image and the line it was assigned to.
type ImageRef struct {
	Base64    string
	Filename  string
	LineIndex int
}

// TableGrid holds the cell text of a table, row-major, header rows included.
type TableGrid [][]string

// Cell returns the text at row, col or "" when out of range.
func (g TableGrid) Cell(row, col int) string {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return ""
	}
	return g[row][col]
}

// Range selects top-level body blocks [From, To). An empty range means the whole body.
type Range struct {
	From int
	To   int
}

// IsEmpty reports whether the range is collapsed.
func (r Range) IsEmpty() bool {
	return r.To <= r.From
}

// Contains reports whether block index i falls inside the range.
// A collapsed range contains every block.
func (r Range) Contains(i int) bool {
	if r.IsEmpty() {
		return true
	}
	return i >= r.From && i < r.To
}

// Span is a half-open interval of line indexes.
type Span struct {
	Start int
	End   int
}

// Covers reports whether line index i is inside the span.
func (s Span) Covers(i int) bool {
	return i >= s.Start && i < s.End
}

// ResolveStyle applies the custom-style rule: the custom name wins only when
// the built-in name is the "Other" sentinel.
func ResolveStyle(builtIn, custom string) (style string, isCustom bool) {
	if builtIn == StyleOther {
		return custom, true
	}
	return builtIn, false
}
