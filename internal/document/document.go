// Package document holds the markdown line buffer that the codec and the
// cascades operate on.
package document

import (
	"fmt"
	"os"
	"strings"
)

// Buffer is an ordered, mutable sequence of lines with a cursor.
type Buffer interface {
	Line(i int) string
	SetLine(i int, text string)
	LineCount() int
	Cursor() int
}

// Document is a Buffer loaded from, and saved back to, a markdown file.
type Document struct {
	Path string

	lines           []string
	cursor          int
	trailingNewline bool
}

// Parse splits text into a Document with no backing file.
func Parse(text string) *Document {
	d := &Document{}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.HasSuffix(text, "\n") {
		d.trailingNewline = true
		text = strings.TrimSuffix(text, "\n")
	}
	d.lines = strings.Split(text, "\n")
	return d
}

// Load reads the markdown file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read document '%s': %w", path, err)
	}
	d := Parse(string(data))
	d.Path = path
	return d, nil
}

// Save writes the document back to its file.
func (d *Document) Save() error {
	if d.Path == "" {
		return fmt.Errorf("document has no path")
	}
	if err := os.WriteFile(d.Path, []byte(d.String()), 0o644); err != nil {
		return fmt.Errorf("could not write document '%s': %w", d.Path, err)
	}
	return nil
}

// String joins the lines back into document text.
func (d *Document) String() string {
	text := strings.Join(d.lines, "\n")
	if d.trailingNewline {
		text += "\n"
	}
	return text
}

// Line returns line i, or "" when i is out of range.
func (d *Document) Line(i int) string {
	if i < 0 || i >= len(d.lines) {
		return ""
	}
	return d.lines[i]
}

// SetLine replaces line i. Out of range indexes are ignored.
func (d *Document) SetLine(i int, text string) {
	if i < 0 || i >= len(d.lines) {
		return
	}
	d.lines[i] = text
}

// LineCount returns the number of lines.
func (d *Document) LineCount() int {
	return len(d.lines)
}

// Cursor returns the current line index.
func (d *Document) Cursor() int {
	return d.cursor
}

// SetCursor moves the cursor to line i.
func (d *Document) SetCursor(i int) error {
	if i < 0 || i >= len(d.lines) {
		return fmt.Errorf("line %d is outside the document (1-%d)", i+1, len(d.lines))
	}
	d.cursor = i
	return nil
}
