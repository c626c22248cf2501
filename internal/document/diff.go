package document

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff returns a line-oriented diff of two document texts: changed lines are
// prefixed with "-" and "+" and tagged with their line number in the old
// text. Unchanged lines are omitted. It returns "" when the texts are equal.
func Diff(before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var out strings.Builder
	oldLine, insertAt := 1, 1
	for _, diff := range diffs {
		lines := strings.Split(strings.TrimSuffix(diff.Text, "\n"), "\n")
		switch diff.Type {
		case diffmatchpatch.DiffEqual:
			oldLine += len(lines)
			insertAt = oldLine
		case diffmatchpatch.DiffDelete:
			insertAt = oldLine
			for _, line := range lines {
				fmt.Fprintf(&out, "%4d - %s\n", oldLine, line)
				oldLine++
			}
		case diffmatchpatch.DiffInsert:
			for _, line := range lines {
				fmt.Fprintf(&out, "%4d + %s\n", insertAt, line)
			}
		}
	}
	return out.String()
}
