// Package ledger is a task store kept in a local YAML file. It stands in for
// the remote project-management service: it hands out task and tag ids and
// applies create, update, close and reopen requests the way the service does.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/bryan-cox/oqsync/internal/model"
)

// ErrNameRequired is returned when a task is created without a name.
var ErrNameRequired = errors.New("task name is required")

// ledgerFile is the on-disk layout.
type ledgerFile struct {
	Project string                `yaml:"project"`
	Tasks   map[string]model.Task `yaml:"tasks"`
	Tags    []model.Tag           `yaml:"tags"`
}

// Ledger is a YAML-file task store. It is safe for concurrent use.
type Ledger struct {
	path string

	mu   sync.Mutex
	data ledgerFile

	newID   func() string
	now     func() time.Time
	discard bool
}

// Open loads the ledger at path. A missing file yields an empty ledger for
// project, written on the first change.
func Open(path, project string) (*Ledger, error) {
	l := &Ledger{
		path:  path,
		data:  ledgerFile{Project: project},
		newID: uuid.NewString,
		now:   time.Now,
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not read ledger '%s': %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &l.data); err != nil {
			safeData, _ := json.Marshal(string(data))
			return nil, fmt.Errorf("could not parse YAML from '%s': %w. Content: %s", path, err, safeData)
		}
	}
	if l.data.Project == "" {
		l.data.Project = project
	}
	if project != "" && l.data.Project != project {
		return nil, fmt.Errorf("ledger '%s' belongs to project %q, not %q", path, l.data.Project, project)
	}
	if l.data.Tasks == nil {
		l.data.Tasks = make(map[string]model.Task)
	}
	return l, nil
}

// DiscardChanges keeps further changes in memory only. A dry run uses it to
// see what a sync would do without touching the file.
func (l *Ledger) DiscardChanges() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.discard = true
}

// Project returns the id of the project the ledger holds.
func (l *Ledger) Project() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data.Project
}

// GetTask returns the task with the given id.
func (l *Ledger) GetTask(ctx context.Context, id string) (model.Task, error) {
	if err := ctx.Err(); err != nil {
		return model.Task{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.get(id)
}

// CreateTask adds a task under parentID, which is either the project id or
// the id of another task.
func (l *Ledger) CreateTask(ctx context.Context, parentID string, patch model.TaskPatch) (model.Task, error) {
	if err := ctx.Err(); err != nil {
		return model.Task{}, err
	}
	if patch.Name == nil || *patch.Name == "" {
		return model.Task{}, ErrNameRequired
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	task := model.Task{RemoteID: l.newID()}
	if parentID != l.data.Project {
		if _, ok := l.data.Tasks[parentID]; !ok {
			return model.Task{}, fmt.Errorf("parent %q: %w", parentID, model.ErrNotFound)
		}
		task.ParentID = parentID
	}
	if patch.Created == nil {
		today := l.today()
		task.Created = &today
	}
	apply(&task, patch)

	l.data.Tasks[task.RemoteID] = task
	if err := l.save(); err != nil {
		return model.Task{}, err
	}
	return l.get(task.RemoteID)
}

// UpdateTask applies the non-nil fields of patch to the task.
func (l *Ledger) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	return l.mutate(ctx, id, func(task *model.Task) {
		apply(task, patch)
	})
}

// CloseTask marks the task completed.
func (l *Ledger) CloseTask(ctx context.Context, id string) (model.Task, error) {
	return l.mutate(ctx, id, func(task *model.Task) {
		task.Status = model.StatusCompleted
		today := l.today()
		task.CompletedAt = &today
	})
}

// ReopenTask marks the task as not started.
func (l *Ledger) ReopenTask(ctx context.Context, id string) (model.Task, error) {
	return l.mutate(ctx, id, func(task *model.Task) {
		task.Status = model.StatusToDo
		task.CompletedAt = nil
	})
}

// ListTags returns the project's tags sorted by name.
func (l *Ledger) ListTags(ctx context.Context, projectID string) ([]model.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if projectID != l.data.Project {
		return nil, fmt.Errorf("project %q: %w", projectID, model.ErrNotFound)
	}
	tags := append([]model.Tag(nil), l.data.Tags...)
	sort.Slice(tags, func(i, j int) bool {
		return model.TagKey(tags[i].Name) < model.TagKey(tags[j].Name)
	})
	return tags, nil
}

// CreateTag adds a tag to the project. Tag names are case-insensitive, so an
// existing tag with the same name is returned instead of a duplicate.
func (l *Ledger) CreateTag(ctx context.Context, projectID, name string) (model.Tag, error) {
	if err := ctx.Err(); err != nil {
		return model.Tag{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if projectID != l.data.Project {
		return model.Tag{}, fmt.Errorf("project %q: %w", projectID, model.ErrNotFound)
	}
	for _, tag := range l.data.Tags {
		if model.TagKey(tag.Name) == model.TagKey(name) {
			return tag, nil
		}
	}
	tag := model.Tag{ID: l.newID(), Name: name}
	l.data.Tags = append(l.data.Tags, tag)
	if err := l.save(); err != nil {
		return model.Tag{}, err
	}
	return tag, nil
}

func (l *Ledger) mutate(ctx context.Context, id string, change func(*model.Task)) (model.Task, error) {
	if err := ctx.Err(); err != nil {
		return model.Task{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	task, ok := l.data.Tasks[id]
	if !ok {
		return model.Task{}, fmt.Errorf("task %q: %w", id, model.ErrNotFound)
	}
	change(&task)
	l.data.Tasks[id] = task
	if err := l.save(); err != nil {
		return model.Task{}, err
	}
	return l.get(id)
}

// get returns a copy of the task so callers cannot alias ledger state.
func (l *Ledger) get(id string) (model.Task, error) {
	task, ok := l.data.Tasks[id]
	if !ok {
		return model.Task{}, fmt.Errorf("task %q: %w", id, model.ErrNotFound)
	}
	task.RemoteID = id
	task.Tags = append([]string(nil), task.Tags...)
	if task.Recurrence != nil {
		rec := *task.Recurrence
		task.Recurrence = &rec
	}
	return task, nil
}

func (l *Ledger) today() time.Time {
	y, m, d := l.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (l *Ledger) save() error {
	if l.discard {
		return nil
	}
	data, err := yaml.Marshal(l.data)
	if err != nil {
		return fmt.Errorf("could not encode ledger: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("could not write ledger '%s': %w", l.path, err)
	}
	return nil
}

func apply(task *model.Task, patch model.TaskPatch) {
	if patch.Name != nil {
		task.Name = *patch.Name
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Created != nil {
		task.Created = patch.Created
	}
	if patch.Start != nil {
		task.Start = patch.Start
	}
	if patch.Scheduled != nil {
		task.Scheduled = patch.Scheduled
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
		task.Tags = append([]string(nil), patch.Tags...)
	}
}
