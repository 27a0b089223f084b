package stylemap

import (
	"strconv"
	"strings"
)

// builtInStyles mirrors the Word built-in paragraph style names offered in
// the style selectors.
var builtInStyles = []string{
	"Normal",
	"Heading1", "Heading2", "Heading3", "Heading4", "Heading5",
	"Heading6", "Heading7", "Heading8", "Heading9",
	"Toc1", "Toc2", "Toc3", "Toc4", "Toc5", "Toc6", "Toc7", "Toc8", "Toc9",
	"FootnoteText", "Header", "Footer", "Caption",
	"TableOfFigures", "Title", "Subtitle", "Quote", "IntenseQuote",
	"BookTitle", "ListParagraph", "NoSpacing", "TocHeading",
	"TableGrid", "GridTable1Light", "PlainTable1",
	"Other",
}

// excludedFragments filters selector noise out of the built-in list.
var excludedFragments = []string{"Toc", "Table", "Other", "Normal"}

// ColumnRoles lists the options of the table-column selectors.
func ColumnRoles() []string {
	out := make([]string, 0, RoleCount)
	for i := 1; i <= RoleCount; i++ {
		out = append(out, "column"+strconv.Itoa(i))
	}
	return out
}

// Candidates returns the selector options for every role of kind. used is
// the styles found in the selection and comes first.
func Candidates(kind Kind, used []string) [RoleCount][]string {
	styles := trimStyles(builtInStyles, used)
	var out [RoleCount][]string
	for i := range out {
		if kind == TestCases && i >= 2 {
			out[i] = ColumnRoles()
			continue
		}
		out[i] = append([]string(nil), styles...)
	}
	return out
}

func trimStyles(styles, prev []string) []string {
	out := append([]string(nil), prev...)
	seen := make(map[string]bool, len(out))
	for _, s := range out {
		seen[s] = true
	}
	for _, s := range styles {
		if excluded(s) || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func excluded(style string) bool {
	for _, frag := range excludedFragments {
		if strings.Contains(style, frag) {
			return true
		}
	}
	return false
}
