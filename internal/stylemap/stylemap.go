package stylemap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/dgallion1/wordspira/internal/document"
	"github.com/dgallion1/wordspira/internal/settings"
)

// Kind is the settings key prefix of an artifact kind.
type Kind string

const (
	Requirements Kind = "req-"
	TestCases    Kind = "test-"
)

// RoleCount is the number of configurable roles per kind.
const RoleCount = 5

var (
	ErrDuplicateStyleMapping = errors.New("duplicate style mapping")
	ErrEmptyStyleMapping     = errors.New("empty style mapping")
	ErrUnknownKind           = errors.New("unknown artifact kind")
)

// ParseKind accepts the key prefix or a friendly name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "req-", "req", "requirement", "requirements":
		return Requirements, nil
	case "test-", "test", "testcase", "testcases", "test-case", "test-cases":
		return TestCases, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Name returns a human-readable name for the kind.
func (k Kind) Name() string {
	if k == TestCases {
		return "test cases"
	}
	return "requirements"
}

// Map is the resolved role -> style assignment for one kind.
type Map struct {
	Kind  Kind
	Roles [RoleCount]string
}

// Key is the settings key of role index i (1-based).
func Key(kind Kind, i int) string {
	return string(kind) + "style" + strconv.Itoa(i)
}

// DefaultRole returns the built-in default for role index i (1-based).
func DefaultRole(kind Kind, i int) string {
	if kind == TestCases && i >= 3 {
		return "column" + strconv.Itoa(i-2)
	}
	return "heading" + strconv.Itoa(i)
}

// Resolve reads the style mapping for kind. Absent roles get their default,
// which is written back to the store so later lookups see the same value.
// Persisting the buffered defaults is left to the caller's Save.
func Resolve(store settings.Store, kind Kind) Map {
	m := Map{Kind: kind}
	for i := 1; i <= RoleCount; i++ {
		key := Key(kind, i)
		v, ok := store.Get(key)
		if !ok || v == "" {
			v = DefaultRole(kind, i)
			store.Set(key, v)
		}
		m.Roles[i-1] = v
	}
	return m
}

// Confirm validates roles and saves them as the mapping of kind.
func Confirm(store settings.Store, kind Kind, roles []string) (Map, error) {
	if len(roles) != RoleCount {
		return Map{}, fmt.Errorf("%w: expected %d roles, got %d", ErrEmptyStyleMapping, RoleCount, len(roles))
	}
	m := Map{Kind: kind}
	for i, r := range roles {
		m.Roles[i] = strings.TrimSpace(r)
	}
	if err := m.Validate(); err != nil {
		return Map{}, err
	}
	for i, r := range m.Roles {
		store.Set(Key(kind, i+1), r)
	}
	if err := store.Save(); err != nil {
		return Map{}, fmt.Errorf("save style mapping: %w", err)
	}
	return m, nil
}

// Validate rejects blank roles and two roles sharing one style.
func (m Map) Validate() error {
	seen := make(map[string]int, RoleCount)
	for i, r := range m.Roles {
		if strings.TrimSpace(r) == "" {
			return fmt.Errorf("%w: role %d", ErrEmptyStyleMapping, i+1)
		}
		n := Normalize(r)
		if prev, ok := seen[n]; ok {
			return fmt.Errorf("%w: %q used by roles %d and %d", ErrDuplicateStyleMapping, r, prev+1, i+1)
		}
		seen[n] = i
	}
	return nil
}

// Index returns the role index of style. Index 0 is a valid role.
func (m Map) Index(style string) (int, bool) {
	if style == "" {
		return 0, false
	}
	n := Normalize(style)
	for i, r := range m.Roles {
		if Normalize(r) == n {
			return i, true
		}
	}
	return 0, false
}

// Role looks up the segment's resolved style first and falls back to its
// built-in style name.
func (m Map) Role(seg document.LineSegment) (int, bool) {
	if i, ok := m.Index(seg.Style); ok {
		return i, true
	}
	return m.Index(seg.BuiltInStyle)
}

// Normalize folds case and drops whitespace so "Heading 1" matches "heading1".
func Normalize(style string) string {
	var sb strings.Builder
	for _, r := range style {
		if unicode.IsSpace(r) {
			continue
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}

// ColumnIndex maps a column role ("column3") to a zero-based column index.
func ColumnIndex(role string) (int, bool) {
	n := Normalize(role)
	if !strings.HasPrefix(n, "column") {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimPrefix(n, "column"))
	if err != nil || v < 1 {
		return 0, false
	}
	return v - 1, true
}
