package artifact

import "fmt"

// ValidateHierarchy reports whether no requirement is indented more than one
// level deeper than the requirement before it.
func ValidateHierarchy(reqs []Requirement) bool {
	return hierarchyBreak(reqs) < 0
}

// CheckHierarchy is ValidateHierarchy as an error naming the first offender.
func CheckHierarchy(reqs []Requirement) error {
	i := hierarchyBreak(reqs)
	if i < 0 {
		return nil
	}
	return fmt.Errorf("%w: %q at level %d follows level %d",
		ErrHierarchyInvalid, reqs[i].Name, reqs[i].IndentLevel, reqs[i-1].IndentLevel)
}

func hierarchyBreak(reqs []Requirement) int {
	for i := 1; i < len(reqs); i++ {
		if reqs[i].IndentLevel > reqs[i-1].IndentLevel+1 {
			return i
		}
	}
	return -1
}
