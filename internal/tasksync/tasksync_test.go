package tasksync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryan-cox/oqsync/internal/cascade"
	"github.com/bryan-cox/oqsync/internal/document"
	"github.com/bryan-cox/oqsync/internal/metrics"
	"github.com/bryan-cox/oqsync/internal/model"
	"github.com/bryan-cox/oqsync/internal/taskline"
)

// fakeStore is an in-memory Store with predictable ids.
type fakeStore struct {
	project string
	tasks   map[string]model.Task
	tags    []model.Tag
	nextID  int

	created []string // parent ids passed to CreateTask
	failOn  string
}

func newFakeStore() *fakeStore {
	return &fakeStore{project: "proj", tasks: map[string]model.Task{}}
}

var errBoom = errors.New("boom")

func (f *fakeStore) id() string {
	f.nextID++
	return fmt.Sprintf("T%d", f.nextID)
}

func (f *fakeStore) GetTask(_ context.Context, id string) (model.Task, error) {
	if f.failOn == "get" {
		return model.Task{}, errBoom
	}
	task, ok := f.tasks[id]
	if !ok {
		return model.Task{}, fmt.Errorf("task %q: %w", id, model.ErrNotFound)
	}
	return task, nil
}

func (f *fakeStore) CreateTask(_ context.Context, parentID string, patch model.TaskPatch) (model.Task, error) {
	if f.failOn == "create" {
		return model.Task{}, errBoom
	}
	f.created = append(f.created, parentID)
	task := model.Task{RemoteID: f.id()}
	if parentID != f.project {
		task.ParentID = parentID
	}
	applyPatch(&task, patch)
	f.tasks[task.RemoteID] = task
	return task, nil
}

func (f *fakeStore) UpdateTask(_ context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	task, ok := f.tasks[id]
	if !ok {
		return model.Task{}, fmt.Errorf("task %q: %w", id, model.ErrNotFound)
	}
	applyPatch(&task, patch)
	f.tasks[id] = task
	return task, nil
}

func (f *fakeStore) CloseTask(_ context.Context, id string) (model.Task, error) {
	if f.failOn == "close" {
		return model.Task{}, errBoom
	}
	task := f.tasks[id]
	task.Status = model.StatusCompleted
	f.tasks[id] = task
	return task, nil
}

func (f *fakeStore) ReopenTask(_ context.Context, id string) (model.Task, error) {
	task := f.tasks[id]
	task.Status = model.StatusToDo
	task.CompletedAt = nil
	f.tasks[id] = task
	return task, nil
}

func (f *fakeStore) ListTags(_ context.Context, projectID string) ([]model.Tag, error) {
	if projectID != f.project {
		return nil, model.ErrNotFound
	}
	return f.tags, nil
}

func (f *fakeStore) CreateTag(_ context.Context, _ string, name string) (model.Tag, error) {
	tag := model.Tag{ID: f.id(), Name: name}
	f.tags = append(f.tags, tag)
	return tag, nil
}

func applyPatch(task *model.Task, patch model.TaskPatch) {
	if patch.Name != nil {
		task.Name = *patch.Name
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Due != nil {
		task.Due = patch.Due
	}
	if patch.CompletedAt != nil {
		task.CompletedAt = patch.CompletedAt
	}
	if patch.Recurrence != nil {
		rec := *patch.Recurrence
		task.Recurrence = &rec
	}
	if patch.Tags != nil {
		task.Tags = patch.Tags
	}
}

func tagNames(tags []model.Tag) []string {
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	return names
}

func TestSyncLine(t *testing.T) {
	ctx := context.Background()

	t.Run("plain text is skipped", func(t *testing.T) {
		store := newFakeStore()
		doc := document.Parse("Some notes\n")
		result, err := New(store, "proj").SyncLine(ctx, doc, 0)
		require.NoError(t, err)
		assert.Equal(t, ActionSkipped, result.Action)
		assert.Equal(t, "Some notes", doc.Line(0))
		assert.Empty(t, store.created)
	})

	t.Run("unlinked line is created under the project", func(t *testing.T) {
		store := newFakeStore()
		doc := document.Parse("- [ ] Buy milk ⏫ 📅 2024-01-05")
		result, err := New(store, "proj").SyncLine(ctx, doc, 0)
		require.NoError(t, err)
		assert.Equal(t, ActionCreated, result.Action)
		assert.Equal(t, []string{"proj"}, store.created)
		assert.Equal(t, "- [ ] Buy milk @QuireId:T1 ⏫ 📅 2024-01-05", doc.Line(0))
	})

	t.Run("empty name is skipped", func(t *testing.T) {
		store := newFakeStore()
		doc := document.Parse("- [ ] 📅 2024-01-05")
		result, err := New(store, "proj").SyncLine(ctx, doc, 0)
		require.NoError(t, err)
		assert.Equal(t, ActionSkipped, result.Action)
		assert.Empty(t, store.created)
	})

	t.Run("subtask is created under its linked parent", func(t *testing.T) {
		store := newFakeStore()
		store.tasks["P1"] = model.Task{RemoteID: "P1", Name: "Trip"}
		doc := document.Parse("- [ ] Trip @QuireId:P1\n\t- [ ] Pack bags")
		result, err := New(store, "proj").SyncLine(ctx, doc, 1)
		require.NoError(t, err)
		assert.Equal(t, "P1", result.Task.ParentID)
		assert.Equal(t, []string{"P1"}, store.created)
		assert.Equal(t, "\t- [ ] Pack bags @QuireId:T1", doc.Line(1))
	})

	t.Run("subtask of an unlinked parent goes under the project", func(t *testing.T) {
		store := newFakeStore()
		doc := document.Parse("- [ ] Trip\n\t- [ ] Pack bags")
		_, err := New(store, "proj").SyncLine(ctx, doc, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"proj"}, store.created)
	})

	t.Run("linked line is updated and keeps remote tags", func(t *testing.T) {
		store := newFakeStore()
		store.tasks["A1"] = model.Task{RemoteID: "A1", Name: "Old", Tags: []string{"work"}}
		store.tags = []model.Tag{{ID: "g1", Name: "work"}}
		doc := document.Parse("  - [x] New name @QuireId:A1 #urgent")
		result, err := New(store, "proj").SyncLine(ctx, doc, 0)
		require.NoError(t, err)
		assert.Equal(t, ActionUpdated, result.Action)
		assert.Equal(t, "New name", store.tasks["A1"].Name)
		assert.Equal(t, model.StatusCompleted, store.tasks["A1"].Status)
		assert.ElementsMatch(t, []string{"work", "urgent"}, store.tasks["A1"].Tags)
		assert.Equal(t, []string{"work", "urgent"}, tagNames(store.tags))
		assert.Contains(t, doc.Line(0), "  - [x] New name @QuireId:A1")
	})

	t.Run("new tags are created once, case-insensitively", func(t *testing.T) {
		store := newFakeStore()
		store.tags = []model.Tag{{ID: "g1", Name: "Home"}}
		doc := document.Parse("- [ ] Water plants #home #garden")
		_, err := New(store, "proj").SyncLine(ctx, doc, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"Home", "garden"}, tagNames(store.tags))
	})

	t.Run("missing remote task wraps ErrNotFound", func(t *testing.T) {
		store := newFakeStore()
		m := metrics.New()
		s := New(store, "proj")
		s.Metrics = m
		doc := document.Parse("- [ ] Ghost @QuireId:nope")
		_, err := s.SyncLine(ctx, doc, 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
		assert.Equal(t, "- [ ] Ghost @QuireId:nope", doc.Line(0), "line untouched on failure")
	})

	t.Run("store failure leaves the line untouched", func(t *testing.T) {
		store := newFakeStore()
		store.failOn = "create"
		doc := document.Parse("- [ ] Buy milk")
		_, err := New(store, "proj").SyncLine(ctx, doc, 0)
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, "- [ ] Buy milk", doc.Line(0))
	})
}

func TestSyncLine_Recurrence(t *testing.T) {
	ctx := context.Background()
	biweekly := &model.Recurrence{
		Kind:     model.RecurrenceWeekly,
		Rate:     2,
		Weekdays: model.WeekdaySet(0).With(time.Monday).With(time.Wednesday),
	}

	t.Run("rate and weekdays survive a round trip through the line", func(t *testing.T) {
		store := newFakeStore()
		store.tasks["R1"] = model.Task{RemoteID: "R1", Name: "Water plants", Recurrence: biweekly}
		doc := document.Parse(taskline.Render("", store.tasks["R1"]))
		require.Equal(t, "- [ ] Water plants @QuireId:R1 🔁 every 2 weeks on Monday, Wednesday", doc.Line(0))

		_, err := New(store, "proj").SyncLine(ctx, doc, 0)
		require.NoError(t, err)
		assert.Equal(t, biweekly, store.tasks["R1"].Recurrence)
		assert.Equal(t, "- [ ] Water plants @QuireId:R1 🔁 every 2 weeks on Monday, Wednesday", doc.Line(0))
	})

	t.Run("a changed unit replaces the remote rule", func(t *testing.T) {
		store := newFakeStore()
		store.tasks["R1"] = model.Task{RemoteID: "R1", Name: "Water plants", Recurrence: biweekly}
		doc := document.Parse("- [ ] Water plants @QuireId:R1 🔁 every month")

		_, err := New(store, "proj").SyncLine(ctx, doc, 0)
		require.NoError(t, err)
		assert.Equal(t, &model.Recurrence{Kind: model.RecurrenceMonthly, Rate: 1}, store.tasks["R1"].Recurrence)
	})
}

func TestSyncDocument(t *testing.T) {
	store := newFakeStore()
	doc := document.Parse("# Trip\n- [ ] Plan\n\t- [ ] Book flights\n\t\t- [ ] Compare prices\nnotes\n")

	summary, err := New(store, "proj").SyncDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, Summary{Created: 3, Skipped: 2}, summary)
	assert.Equal(t, []string{"proj", "T1", "T2"}, store.created, "parents are linked before children")
	assert.Equal(t, "# Trip\n- [ ] Plan @QuireId:T1\n\t- [ ] Book flights @QuireId:T2\n\t\t- [ ] Compare prices @QuireId:T3\nnotes\n", doc.String())

	summary, err = New(store, "proj").SyncDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, Summary{Updated: 3, Skipped: 2}, summary)
}

func TestSyncDocument_ReportsLine(t *testing.T) {
	store := newFakeStore()
	doc := document.Parse("- [ ] Fine\n- [ ] Broken @QuireId:missing")

	summary, err := New(store, "proj").SyncDocument(context.Background(), doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2:")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, 1, summary.Created)
}

func TestToggle(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		lines     string
		open      []string
		done      []string
		target    int
		want      string
		direction Direction
		cascaded  int
		message   string
	}{
		{
			name:      "close with subtasks",
			lines:     "- [ ] Trip @QuireId:A\n\t- [ ] Book\n\t\t- [ ] Compare\n\t- [x] Pack\n- [ ] Other",
			open:      []string{"A"},
			target:    0,
			want:      "- [x] Trip @QuireId:A\n\t- [x] Book\n\t\t- [x] Compare\n\t- [x] Pack\n- [ ] Other",
			direction: DirectionClose,
			cascaded:  2,
			message:   "Marked as done on Quire and 2 subtasks.",
		},
		{
			name:      "close single subtask",
			lines:     "- [ ] Trip @QuireId:A\n\t- [ ] Book",
			open:      []string{"A"},
			want:      "- [x] Trip @QuireId:A\n\t- [x] Book",
			direction: DirectionClose,
			cascaded:  1,
			message:   "Marked as done on Quire and 1 subtask.",
		},
		{
			name:      "close leaf",
			lines:     "- [ ] Trip @QuireId:A\n- [ ] Next",
			open:      []string{"A"},
			want:      "- [x] Trip @QuireId:A\n- [ ] Next",
			direction: DirectionClose,
			message:   "Marked as done on Quire",
		},
		{
			name:      "reopen with parents",
			lines:     "- [x] Trip\n\t- [x] Book\n\t\t- [x] Compare @QuireId:C",
			done:      []string{"C"},
			target:    2,
			want:      "- [ ] Trip\n\t- [ ] Book\n\t\t- [ ] Compare @QuireId:C",
			direction: DirectionReopen,
			cascaded:  2,
			message:   "Re-opened on Quire and its parent tasks.",
		},
		{
			name:      "reopen top level",
			lines:     "- [x] Trip @QuireId:A",
			done:      []string{"A"},
			want:      "- [ ] Trip @QuireId:A",
			direction: DirectionReopen,
			message:   "Re-opened on Quire",
		},
		{
			name:      "unlinked line is a no-op",
			lines:     "- [ ] Trip",
			want:      "- [ ] Trip",
			direction: DirectionNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			for _, id := range tt.open {
				store.tasks[id] = model.Task{RemoteID: id, Status: model.StatusToDo}
			}
			for _, id := range tt.done {
				store.tasks[id] = model.Task{RemoteID: id, Status: model.StatusCompleted}
			}

			doc := document.Parse(tt.lines)
			require.NoError(t, doc.SetCursor(tt.target))
			m := metrics.New()
			s := New(store, "proj")
			s.Metrics = m

			result, err := s.ToggleAtCursor(ctx, doc)
			require.NoError(t, err)
			assert.Equal(t, tt.direction, result.Direction)
			assert.Equal(t, tt.cascaded, result.Cascaded)
			assert.Equal(t, tt.message, result.Message)
			assert.Equal(t, tt.want, doc.String())
		})
	}
}

func TestToggle_SpacesIndent(t *testing.T) {
	store := newFakeStore()
	store.tasks["A"] = model.Task{RemoteID: "A"}
	doc := document.Parse("- [ ] Trip @QuireId:A\n  - [ ] Book\n- [ ] Next")

	s := New(store, "proj")
	s.Indenter = cascade.Indenter{SpacesPerLevel: 2}
	result, err := s.Toggle(context.Background(), doc, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Cascaded)
	assert.Equal(t, "- [x] Trip @QuireId:A\n  - [x] Book\n- [ ] Next", doc.String())
	assert.Equal(t, model.StatusCompleted, store.tasks["A"].Status)
}

func TestToggle_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.tasks["A"] = model.Task{RemoteID: "A"}
	store.failOn = "close"
	doc := document.Parse("- [ ] Trip @QuireId:A\n\t- [ ] Book")

	result, err := New(store, "proj").Toggle(context.Background(), doc, 0)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, DirectionNone, result.Direction)
	assert.Equal(t, "- [ ] Trip @QuireId:A\n\t- [ ] Book", doc.String(), "document untouched when the store fails")
}
