package taskline

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/bryan-cox/oqsync/internal/model"
)

func drawDate(rt *rapid.T, label string) *time.Time {
	if !rapid.Bool().Draw(rt, label+"_set") {
		return nil
	}
	days := rapid.IntRange(0, 365*30).Draw(rt, label)
	d := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
	return &d
}

func drawTask(rt *rapid.T) model.Task {
	t := model.Task{
		Name:     rapid.StringMatching(`[A-Za-z][A-Za-z0-9,.'() -]{0,30}[A-Za-z0-9]`).Draw(rt, "name"),
		Status:   rapid.SampledFrom([]model.Status{model.StatusToDo, model.StatusDoing, model.StatusCompleted}).Draw(rt, "status"),
		Priority: rapid.SampledFrom([]model.Priority{model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityUrgent}).Draw(rt, "priority"),
		Created:   drawDate(rt, "created"),
		Start:     drawDate(rt, "start"),
		Scheduled: drawDate(rt, "scheduled"),
		Due:       drawDate(rt, "due"),
	}
	if rapid.Bool().Draw(rt, "linked") {
		t.RemoteID = rapid.StringMatching(`[A-Za-z0-9_-]{1,24}`).Draw(rt, "id")
	}
	if t.Status == model.StatusCompleted {
		t.CompletedAt = drawDate(rt, "completed")
	}
	if rapid.Bool().Draw(rt, "recurring") {
		t.Recurrence = &model.Recurrence{
			Kind: rapid.SampledFrom([]model.RecurrenceKind{
				model.RecurrenceDaily, model.RecurrenceWeekly, model.RecurrenceMonthly, model.RecurrenceYearly,
			}).Draw(rt, "kind"),
			Rate: 1,
		}
	}
	tags := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z][a-z0-9_]{0,10}`), 0, 4, func(s string) string { return s }).Draw(rt, "tags")
	if len(tags) > 0 {
		t.Tags = tags
	}
	return t
}

// Decoding an encoded task reproduces it.
func TestProperty_DecodeEncodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		want := drawTask(rt)
		line := Encode(want)

		got, ok := Decode(line, nil)
		if !ok {
			rt.Fatalf("encoded line %q is not a task line", line)
		}
		if got.Name != want.Name {
			rt.Fatalf("name: got %q, want %q (line %q)", got.Name, want.Name, line)
		}
		if got.RemoteID != want.RemoteID {
			rt.Fatalf("remote id: got %q, want %q", got.RemoteID, want.RemoteID)
		}
		if got.Status != want.Status {
			rt.Fatalf("status: got %v, want %v", got.Status, want.Status)
		}
		if got.Priority != want.Priority {
			rt.Fatalf("priority: got %v, want %v", got.Priority, want.Priority)
		}
		for _, pair := range []struct {
			label     string
			got, want *time.Time
		}{
			{"created", got.Created, want.Created},
			{"start", got.Start, want.Start},
			{"scheduled", got.Scheduled, want.Scheduled},
			{"due", got.Due, want.Due},
			{"completed", got.CompletedAt, want.CompletedAt},
		} {
			if (pair.got == nil) != (pair.want == nil) || (pair.got != nil && !pair.got.Equal(*pair.want)) {
				rt.Fatalf("%s date: got %v, want %v (line %q)", pair.label, pair.got, pair.want, line)
			}
		}
		if (got.Recurrence == nil) != (want.Recurrence == nil) ||
			(got.Recurrence != nil && *got.Recurrence != *want.Recurrence) {
			rt.Fatalf("recurrence: got %+v, want %+v", got.Recurrence, want.Recurrence)
		}
		if len(got.Tags) != len(want.Tags) {
			rt.Fatalf("tags: got %v, want %v", got.Tags, want.Tags)
		}
		for i := range want.Tags {
			if got.Tags[i] != want.Tags[i] {
				rt.Fatalf("tags: got %v, want %v", got.Tags, want.Tags)
			}
		}
	})
}

// Encoding is stable once a line has been through the codec.
func TestProperty_EncodeIsIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		first := Encode(drawTask(rt))
		decoded, _ := Decode(first, nil)
		if second := Encode(decoded); second != first {
			rt.Fatalf("re-encoding changed the line:\n%q\n%q", first, second)
		}
	})
}

// Decoding never panics on arbitrary text.
func TestProperty_DecodeIsTotal(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		line := rapid.String().Draw(rt, "line")
		Classify(line)
		ExtractName(line)
		ExtractPriority(line)
		ExtractRecurrence(line)
		ExtractTags(line, nil)
		ExtractDate(line, DueMarker)
		if _, ok := Decode(line, nil); ok != IsTaskLine(line) {
			rt.Fatalf("Decode and IsTaskLine disagree on %q", line)
		}
	})
}
