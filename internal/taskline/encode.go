package taskline

import (
	"fmt"
	"strings"
	"time"

	"github.com/bryan-cox/oqsync/internal/model"
)

// Encode renders a task as a checklist line without indentation. Tokens are
// written in the order the decoder recognises them, so decoding the result
// yields the same task.
func Encode(t model.Task) string {
	parts := []string{fmt.Sprintf("- [%c]", marker(t.Status)), t.Name}
	if t.RemoteID != "" {
		parts = append(parts, RemoteIDMarker+t.RemoteID)
	}
	parts = append(parts, priorityGlyph(t.Priority))
	parts = append(parts,
		dateToken(CreatedMarker, t.Created),
		dateToken(StartMarker, t.Start),
		dateToken(ScheduledMarker, t.Scheduled),
		dateToken(DueMarker, t.Due),
	)
	if t.Status.IsCompleted() {
		parts = append(parts, dateToken(DoneMarker, t.CompletedAt))
	}
	parts = append(parts, recurrencePhrase(t.Recurrence))
	for _, tag := range t.Tags {
		if tag = tagSanitizer.ReplaceAllString(tag, "_"); tag != "" {
			parts = append(parts, "#"+tag)
		}
	}

	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}

// Render encodes t behind the given indentation.
func Render(indent string, t model.Task) string {
	return indent + Encode(t)
}

// SetChecked rewrites the checkbox marker of line. Checking turns any
// not-done marker into x; unchecking turns x or X into a blank box. It
// reports whether the line changed. Non-task lines are returned unchanged.
func SetChecked(line string, checked bool) (string, bool) {
	loc := checkboxRegex.FindStringSubmatchIndex(line)
	if loc == nil {
		return line, false
	}
	start, end := loc[4], loc[5]
	current := line[start:end]
	done := current == "x" || current == "X"

	var next string
	switch {
	case checked && !done:
		next = string(MarkerCompleted)
	case !checked && done:
		next = string(MarkerToDo)
	default:
		return line, false
	}
	return line[:start] + next + line[end:], true
}

func marker(s model.Status) rune {
	switch {
	case s.IsCompleted():
		return MarkerCompleted
	case s > model.StatusToDo:
		return MarkerDoing
	default:
		return MarkerToDo
	}
}

// priorityGlyph is empty for medium, the unmarked default.
func priorityGlyph(p model.Priority) string {
	switch p {
	case model.PriorityUrgent:
		return GlyphUrgent
	case model.PriorityHigh:
		return GlyphHigh
	case model.PriorityLow:
		return GlyphLow
	default:
		return ""
	}
}

func dateToken(marker string, d *time.Time) string {
	if d == nil {
		return ""
	}
	return marker + " " + d.Format(dateLayout)
}

func recurrencePhrase(r *model.Recurrence) string {
	if r == nil {
		return ""
	}
	unit := "day"
	switch r.Kind {
	case model.RecurrenceWeekly:
		unit = "week"
	case model.RecurrenceMonthly:
		unit = "month"
	case model.RecurrenceYearly:
		unit = "year"
	}

	phrase := RecurrenceMarker + " every " + unit
	if r.Rate > 1 {
		phrase = fmt.Sprintf("%s every %d %ss", RecurrenceMarker, r.Rate, unit)
	}
	if days := r.Weekdays.Days(); len(days) > 0 {
		names := make([]string, len(days))
		for i, d := range days {
			names[i] = d.String()
		}
		phrase += " on " + strings.Join(names, ", ")
	}
	return phrase
}
