// Package taskline converts a single markdown checklist line to and from a
// model.Task. Metadata is carried inline as emoji-tagged tokens:
//
//	- [x] Buy milk @QuireId:abc123 ⏫ ➕ 2024-01-01 📅 2024-01-05 ✅ 2024-01-04 🔁 every week #errand
//
// All decoding functions are total: malformed or missing tokens decode to an
// absent or default value and never produce an error.
package taskline

import (
	"regexp"
	"strings"
)

// RemoteIDMarker prefixes the remote id token. The id runs to the next whitespace.
const RemoteIDMarker = "@QuireId:"

// Checkbox markers.
const (
	MarkerToDo      = ' '
	MarkerDoing     = '\\'
	MarkerCompleted = 'x'
)

// Date marker glyphs.
const (
	CreatedMarker   = "➕"
	StartMarker     = "🛫"
	ScheduledMarker = "⏳"
	DueMarker       = "📅"
	DoneMarker      = "✅"
)

// RecurrenceMarker introduces a recurrence phrase.
const RecurrenceMarker = "🔁"

// Priority glyphs. Five glyphs decode onto the four remote priority levels:
// GlyphMedium and GlyphLowMedium both decode as medium.
const (
	GlyphUrgent    = "🔺"
	GlyphHigh      = "⏫"
	GlyphMedium    = "🔼"
	GlyphLowMedium = "🔽"
	GlyphLow       = "⏬"
)

const dateLayout = "2006-01-02"

// Kind classifies a line for the orchestrator.
type Kind int

const (
	// NotTask is any line that is not shaped like a checklist item.
	NotTask Kind = iota
	// Unlinked is a checklist item without a remote id token.
	Unlinked
	// Linked is a checklist item carrying a remote id token.
	Linked
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Unlinked:
		return "unlinked"
	case Linked:
		return "linked"
	default:
		return "not-task"
	}
}

var (
	// The line must start with only whitespace, then have a dash. The box may
	// hold any single character, matching the editor's own toggle command.
	checkboxRegex = regexp.MustCompile(`^(\s*)- \[(.)\]`)

	remoteIDRegex   = regexp.MustCompile(regexp.QuoteMeta(RemoteIDMarker) + `(\S+)`)
	priorityRegex   = regexp.MustCompile(strings.Join([]string{GlyphUrgent, GlyphHigh, GlyphMedium, GlyphLowMedium, GlyphLow}, "|"))
	tagRegex        = regexp.MustCompile(`(?:^|\s)#([A-Za-z0-9_]+)`)
	recurrenceRegex = regexp.MustCompile(`(?i)` + RecurrenceMarker + `\x{FE0F}?\s*(?:every\s+)?(?:\d+\s+)?(day|week|month|year)?s?(?:\s+on\s+([a-z]+))?`)

	// nameStopRegex finds the first token that ends the free-text name.
	nameStopRegex = regexp.MustCompile(strings.Join([]string{
		regexp.QuoteMeta(RemoteIDMarker),
		GlyphUrgent, GlyphHigh, GlyphMedium, GlyphLowMedium, GlyphLow,
		CreatedMarker, StartMarker, ScheduledMarker, DueMarker, DoneMarker,
		RecurrenceMarker,
		`(?:^|\s)#[A-Za-z0-9_]`,
	}, "|"))

	dateRegexes = map[string]*regexp.Regexp{
		CreatedMarker:   dateRegexFor(CreatedMarker),
		StartMarker:     dateRegexFor(StartMarker),
		ScheduledMarker: dateRegexFor(ScheduledMarker),
		DueMarker:       dateRegexFor(DueMarker),
		DoneMarker:      dateRegexFor(DoneMarker),
	}

	tagSanitizer = regexp.MustCompile(`[^A-Za-z0-9_]+`)
)

func dateRegexFor(marker string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(marker) + `\x{FE0F}?\s*(\d{4}-\d{2}-\d{2})`)
}
