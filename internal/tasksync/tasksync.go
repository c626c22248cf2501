// Package tasksync keeps checklist lines in a document in step with their
// records in a task store. It decides per line whether to create, update or
// skip, and on a status toggle cascades the change through the document.
package tasksync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bryan-cox/oqsync/internal/cascade"
	"github.com/bryan-cox/oqsync/internal/metrics"
	"github.com/bryan-cox/oqsync/internal/model"
	"github.com/bryan-cox/oqsync/internal/taskline"
)

// ServiceName is how the remote service is named in user messages.
const ServiceName = "Quire"

// Store is the remote task store. Ids are opaque; parentID in CreateTask is
// either a project id or a task id. Missing records are reported with an
// error wrapping model.ErrNotFound.
type Store interface {
	GetTask(ctx context.Context, id string) (model.Task, error)
	CreateTask(ctx context.Context, parentID string, patch model.TaskPatch) (model.Task, error)
	UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error)
	CloseTask(ctx context.Context, id string) (model.Task, error)
	ReopenTask(ctx context.Context, id string) (model.Task, error)
	ListTags(ctx context.Context, projectID string) ([]model.Tag, error)
	CreateTag(ctx context.Context, projectID, name string) (model.Tag, error)
}

// Action is what SyncLine did with a line.
type Action string

// Sync actions.
const (
	ActionSkipped Action = "skipped"
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// LineResult describes one synced line.
type LineResult struct {
	Line   int
	Action Action
	Task   model.Task
}

// Summary counts the actions taken by SyncDocument.
type Summary struct {
	Created int
	Updated int
	Skipped int
}

// Syncer runs sync and toggle requests against a Store.
type Syncer struct {
	Store     Store
	ProjectID string
	Indenter  cascade.Indenter
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// New returns a Syncer for project using tab indentation and the default logger.
func New(store Store, projectID string) *Syncer {
	return &Syncer{Store: store, ProjectID: projectID}
}

func (s *Syncer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// SyncLine pushes line i to the store and writes the store's answer back.
// Lines that are not checklist items are skipped silently. An unlinked item
// is created under the nearest linked parent line, or under the project; a
// linked item is updated with the remote tags carried forward.
func (s *Syncer) SyncLine(ctx context.Context, buf cascade.Lines, i int) (LineResult, error) {
	line := buf.Line(i)
	result := LineResult{Line: i, Action: ActionSkipped}

	var err error
	switch taskline.Classify(line) {
	case taskline.Unlinked:
		result, err = s.create(ctx, buf, i)
	case taskline.Linked:
		result, err = s.update(ctx, buf, i)
	}
	if err != nil {
		return result, err
	}

	s.Metrics.RecordLine(string(result.Action))
	s.logger().Debug("synced line", "line", i+1, "action", result.Action, "id", result.Task.RemoteID)
	return result, nil
}

// SyncDocument syncs every line in order, so parents are linked before their
// subtasks. It stops at the first error and returns the counts so far.
func (s *Syncer) SyncDocument(ctx context.Context, buf cascade.Lines) (Summary, error) {
	var summary Summary
	for i := 0; i < buf.LineCount(); i++ {
		result, err := s.SyncLine(ctx, buf, i)
		if err != nil {
			return summary, fmt.Errorf("line %d: %w", i+1, err)
		}
		switch result.Action {
		case ActionCreated:
			summary.Created++
		case ActionUpdated:
			summary.Updated++
		default:
			summary.Skipped++
		}
	}
	return summary, nil
}

func (s *Syncer) create(ctx context.Context, buf cascade.Lines, i int) (LineResult, error) {
	line := buf.Line(i)
	task, _ := taskline.Decode(line, nil)
	if task.Name == "" {
		s.logger().Warn("skipping task line without a name", "line", i+1)
		return LineResult{Line: i, Action: ActionSkipped}, nil
	}
	if err := s.ensureTags(ctx, task.Tags); err != nil {
		return LineResult{Line: i, Action: ActionSkipped}, err
	}

	parentID := s.ProjectID
	if p, ok := s.Indenter.Parent(buf, i); ok {
		if id, linked := taskline.ExtractRemoteID(buf.Line(p)); linked {
			parentID = id
		}
	}

	created, err := s.Store.CreateTask(ctx, parentID, taskline.Patch(task))
	if err != nil {
		s.Metrics.RecordStoreError("create")
		return LineResult{Line: i, Action: ActionSkipped}, fmt.Errorf("creating task %q: %w", task.Name, err)
	}
	buf.SetLine(i, taskline.Render(taskline.Indent(line), created))
	return LineResult{Line: i, Action: ActionCreated, Task: created}, nil
}

func (s *Syncer) update(ctx context.Context, buf cascade.Lines, i int) (LineResult, error) {
	line := buf.Line(i)
	id, _ := taskline.ExtractRemoteID(line)

	remote, err := s.Store.GetTask(ctx, id)
	if err != nil {
		s.Metrics.RecordStoreError("get")
		return LineResult{Line: i, Action: ActionSkipped}, fmt.Errorf("fetching task %s: %w", id, err)
	}

	task, _ := taskline.Decode(line, remote.Tags)
	// The line cannot carry a rate or weekdays, so keep the remote rule
	// unless the unit changed.
	if remote.Recurrence != nil && task.Recurrence != nil && task.Recurrence.Kind == remote.Recurrence.Kind {
		task.Recurrence = remote.Recurrence
	}
	if err := s.ensureTags(ctx, task.Tags); err != nil {
		return LineResult{Line: i, Action: ActionSkipped}, err
	}

	updated, err := s.Store.UpdateTask(ctx, id, taskline.Patch(task))
	if err != nil {
		s.Metrics.RecordStoreError("update")
		return LineResult{Line: i, Action: ActionSkipped}, fmt.Errorf("updating task %s: %w", id, err)
	}
	buf.SetLine(i, taskline.Render(taskline.Indent(line), updated))
	return LineResult{Line: i, Action: ActionUpdated, Task: updated}, nil
}

// ensureTags creates the named tags that the project does not have yet.
// Names are matched case-insensitively.
func (s *Syncer) ensureTags(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	existing, err := s.Store.ListTags(ctx, s.ProjectID)
	if err != nil {
		s.Metrics.RecordStoreError("list_tags")
		return fmt.Errorf("listing tags: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, tag := range existing {
		known[model.TagKey(tag.Name)] = true
	}
	for _, name := range names {
		if known[model.TagKey(name)] {
			continue
		}
		if _, err := s.Store.CreateTag(ctx, s.ProjectID, name); err != nil {
			s.Metrics.RecordStoreError("create_tag")
			return fmt.Errorf("creating tag %q: %w", name, err)
		}
		known[model.TagKey(name)] = true
		s.logger().Info("created tag", "tag", name, "project", s.ProjectID)
	}
	return nil
}
