// Package cascade propagates a checkbox change from one checklist line to its
// structurally related lines. There is no tree: hierarchy is inferred from
// each line's leading indentation.
package cascade

import (
	"strings"

	"github.com/bryan-cox/oqsync/internal/taskline"
)

// Lines is the part of a document buffer the cascades read and rewrite.
type Lines interface {
	Line(i int) string
	SetLine(i int, text string)
	LineCount() int
}

// Indenter measures line depth. Each leading tab is one level. When
// SpacesPerLevel is positive, each full run of that many spaces is one level
// too; leftover spaces do not count.
type Indenter struct {
	SpacesPerLevel int
}

// Depth returns the indentation depth of line.
func (in Indenter) Depth(line string) int {
	depth, spaces := 0, 0
	for _, r := range line {
		switch {
		case r == '\t':
			depth++
			spaces = 0
		case r == ' ' && in.SpacesPerLevel > 0:
			spaces++
			if spaces == in.SpacesPerLevel {
				depth++
				spaces = 0
			}
		default:
			return depth
		}
	}
	return depth
}

// Depth counts leading tabs.
func Depth(line string) int {
	return Indenter{}.Depth(line)
}

// Scan calls visit for start, start+step, ... while the index stays within
// [0, end) and visit returns true.
func Scan(start, end, step int, visit func(i int) bool) {
	for i := start; i >= 0 && i < end; i += step {
		if !visit(i) {
			return
		}
	}
}

// CloseSubtasks checks every task line in the subtree below target: the lines
// after it that are indented deeper. It stops at the first line at or above
// the target's depth. It returns how many lines changed.
func (in Indenter) CloseSubtasks(lines Lines, target int) int {
	base := in.Depth(lines.Line(target))
	closed := 0
	Scan(target+1, lines.LineCount(), 1, func(i int) bool {
		line := lines.Line(i)
		if in.Depth(line) <= base {
			return false
		}
		if next, changed := taskline.SetChecked(line, true); changed {
			lines.SetLine(i, next)
			closed++
		}
		return true
	})
	return closed
}

// ReopenParents unchecks the lines above target that are indented less than
// it, walking back towards the top of the document. Lines at or below the
// target's depth are passed over. The walk ends at the first top-level line
// reached after something was unchecked; a top-level line seen before any
// change does not end it. It returns how many lines changed.
func (in Indenter) ReopenParents(lines Lines, target int) int {
	base := in.Depth(lines.Line(target))
	opened := 0
	Scan(target-1, lines.LineCount(), -1, func(i int) bool {
		line := lines.Line(i)
		depth := in.Depth(line)
		if depth < base {
			if next, changed := taskline.SetChecked(line, false); changed {
				lines.SetLine(i, next)
				opened++
			}
		}
		// found the topmost task
		return !(depth == 0 && opened > 0)
	})
	return opened
}

// Parent returns the index of the task line target is nested under: the
// nearest non-blank line above it with a smaller depth, when that line is a
// task. Blank lines are passed over.
func (in Indenter) Parent(lines Lines, target int) (int, bool) {
	depth := in.Depth(lines.Line(target))
	parent, found := -1, false
	Scan(target-1, lines.LineCount(), -1, func(i int) bool {
		line := lines.Line(i)
		if strings.TrimSpace(line) == "" || in.Depth(line) >= depth {
			return true
		}
		if taskline.IsTaskLine(line) {
			parent, found = i, true
		}
		return false
	})
	return parent, found
}

// CloseSubtasks runs Indenter.CloseSubtasks with tab-only indentation.
func CloseSubtasks(lines Lines, target int) int {
	return Indenter{}.CloseSubtasks(lines, target)
}

// ReopenParents runs Indenter.ReopenParents with tab-only indentation.
func ReopenParents(lines Lines, target int) int {
	return Indenter{}.ReopenParents(lines, target)
}
