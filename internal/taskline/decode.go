package taskline

import (
	"strings"
	"time"

	"github.com/bryan-cox/oqsync/internal/model"
)

// IsTaskLine reports whether line is shaped like a checklist item.
func IsTaskLine(line string) bool {
	return checkboxRegex.MatchString(line)
}

// Classify reports whether line is a checklist item and whether it is linked
// to a remote record.
func Classify(line string) Kind {
	if !IsTaskLine(line) {
		return NotTask
	}
	if _, ok := ExtractRemoteID(line); ok {
		return Linked
	}
	return Unlinked
}

// ExtractRemoteID returns the id carried by the remote id token, if any.
// Lines that are not checklist items report no id; use Classify to tell the
// two cases apart.
func ExtractRemoteID(line string) (string, bool) {
	rest, ok := body(line)
	if !ok {
		return "", false
	}
	matches := remoteIDRegex.FindStringSubmatch(rest)
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], true
}

// Indent returns the leading whitespace of line.
func Indent(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// body returns the text after the checkbox, or false for non-task lines.
func body(line string) (string, bool) {
	loc := checkboxRegex.FindStringIndex(line)
	if loc == nil {
		return "", false
	}
	return line[loc[1]:], true
}

// ExtractName returns the free text after the checkbox up to the first
// metadata token, trimmed.
func ExtractName(line string) string {
	rest, ok := body(line)
	if !ok {
		return ""
	}
	if loc := nameStopRegex.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}
	return strings.TrimSpace(rest)
}

// ExtractStatus maps the checkbox marker to a status. Unknown markers are to do.
func ExtractStatus(line string) model.Status {
	matches := checkboxRegex.FindStringSubmatch(line)
	if len(matches) < 3 {
		return model.StatusToDo
	}
	switch matches[2] {
	case "x", "X":
		return model.StatusCompleted
	case string(MarkerDoing):
		return model.StatusDoing
	default:
		return model.StatusToDo
	}
}

// ExtractPriority returns the priority of the first priority glyph on the line.
// A line without a glyph is medium, the same as an explicit medium glyph.
func ExtractPriority(line string) model.Priority {
	switch priorityRegex.FindString(line) {
	case GlyphUrgent:
		return model.PriorityUrgent
	case GlyphHigh:
		return model.PriorityHigh
	case GlyphLow:
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}

// ExtractDate returns the YYYY-MM-DD date following marker, or nil when the
// marker is missing or the date is not a valid calendar date.
func ExtractDate(line, marker string) *time.Time {
	re, ok := dateRegexes[marker]
	if !ok {
		re = dateRegexFor(marker)
	}
	matches := re.FindStringSubmatch(line)
	if len(matches) < 2 {
		return nil
	}
	d, err := time.Parse(dateLayout, matches[1])
	if err != nil {
		return nil
	}
	return &d
}

// ExtractRecurrence parses a recurrence phrase such as "🔁 every week on monday".
// The rate is always 1: "every 2 weeks" decodes as weekly. A weekday after
// "on" is recognised but not stored in Weekdays.
func ExtractRecurrence(line string) *model.Recurrence {
	matches := recurrenceRegex.FindStringSubmatch(line)
	if matches == nil {
		return nil
	}
	rec := &model.Recurrence{Kind: model.RecurrenceDaily, Rate: 1}
	switch strings.ToLower(matches[1]) {
	case "week":
		rec.Kind = model.RecurrenceWeekly
	case "month":
		rec.Kind = model.RecurrenceMonthly
	case "year":
		rec.Kind = model.RecurrenceYearly
	}
	return rec
}

// ExtractTags collects #word tokens from the line followed by carryForward,
// the tags already present on the remote record. Duplicates are dropped
// case-insensitively with the first casing kept. It returns nil when there
// are no tags at all.
func ExtractTags(line string, carryForward []string) []string {
	var lineTags []string
	for _, m := range tagRegex.FindAllStringSubmatch(line, -1) {
		lineTags = append(lineTags, m[1])
	}
	return model.MergeTags(lineTags, carryForward)
}

// Decode parses a checklist line into a task. It returns false when line is
// not a checklist item.
func Decode(line string, carryForward []string) (model.Task, bool) {
	if !IsTaskLine(line) {
		return model.Task{}, false
	}
	id, _ := ExtractRemoteID(line)
	return model.Task{
		RemoteID:    id,
		Name:        ExtractName(line),
		Status:      ExtractStatus(line),
		Priority:    ExtractPriority(line),
		Created:     ExtractDate(line, CreatedMarker),
		Start:       ExtractDate(line, StartMarker),
		Scheduled:   ExtractDate(line, ScheduledMarker),
		Due:         ExtractDate(line, DueMarker),
		CompletedAt: ExtractDate(line, DoneMarker),
		Recurrence:  ExtractRecurrence(line),
		Tags:        ExtractTags(line, carryForward),
	}, true
}

// Patch builds the create/update payload for a decoded task.
func Patch(t model.Task) model.TaskPatch {
	name := t.Name
	status := t.Status
	priority := t.Priority
	// A done date on an open line is stale.
	completedAt := t.CompletedAt
	if !t.Status.IsCompleted() {
		completedAt = nil
	}
	return model.TaskPatch{
		Name:        &name,
		Status:      &status,
		Priority:    &priority,
		Created:     t.Created,
		Start:       t.Start,
		Scheduled:   t.Scheduled,
		Due:         t.Due,
		CompletedAt: completedAt,
		Recurrence:  t.Recurrence,
		Tags:        t.Tags,
	}
}
