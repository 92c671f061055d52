package gen

import (
	"fmt"
	"strings"
)

// indentUnit is one level of indentation in the emitted program.
const indentUnit = "    "

// Fragment is a self-contained block of target code produced by one
// generator: an ordered list of lines plus the set of shared helpers
// the block calls into. Fragments never contain helper definitions;
// the assembler emits each required helper exactly once.
type Fragment struct {
	indent  int
	lines   []string
	helpers []Helper
	seen    map[Helper]bool
}

// NewFragment creates a fragment whose lines render at the given base
// indentation level.
func NewFragment(indent int) *Fragment {
	return &Fragment{indent: indent, seen: make(map[Helper]bool)}
}

// At appends a line at the given depth relative to the fragment base.
func (f *Fragment) At(depth int, line string) {
	if line == "" {
		f.lines = append(f.lines, "")
		return
	}
	f.lines = append(f.lines, strings.Repeat(indentUnit, f.indent+depth)+line)
}

// Atf appends a formatted line at the given relative depth.
func (f *Fragment) Atf(depth int, format string, args ...any) {
	f.At(depth, fmt.Sprintf(format, args...))
}

// Blank appends an empty line.
func (f *Fragment) Blank() {
	f.lines = append(f.lines, "")
}

// Require declares a dependency on a shared helper. Duplicate
// requirements are collapsed while the first-seen order is kept.
func (f *Fragment) Require(helpers ...Helper) {
	for _, h := range helpers {
		if !f.seen[h] {
			f.seen[h] = true
			f.helpers = append(f.helpers, h)
		}
	}
}

// Merge appends another fragment's lines and helper requirements.
// The merged fragment's own indentation is already baked into its
// lines; callers compose fragments built at compatible levels.
func (f *Fragment) Merge(other *Fragment) {
	if other == nil {
		return
	}
	f.lines = append(f.lines, other.lines...)
	f.Require(other.helpers...)
}

// Lines returns the rendered lines.
func (f *Fragment) Lines() []string {
	return f.lines
}

// Helpers returns the required helpers in first-seen order.
func (f *Fragment) Helpers() []Helper {
	return f.helpers
}

// Empty reports whether the fragment has no lines.
func (f *Fragment) Empty() bool {
	return len(f.lines) == 0
}

// String renders the fragment as newline-joined text.
func (f *Fragment) String() string {
	return strings.Join(f.lines, "\n")
}
