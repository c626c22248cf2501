// Package report summarises the checklist items of a document by status.
package report

import (
	"sort"

	"github.com/bryan-cox/oqsync/internal/model"
	"github.com/bryan-cox/oqsync/internal/taskline"
)

// Lines is the read side of a document buffer.
type Lines interface {
	Line(i int) string
	LineCount() int
}

// Categories groups tasks by status.
type Categories struct {
	Completed []model.Task
	Doing     []model.Task
	ToDo      []model.Task
}

// Tasks decodes every checklist line in lines, in document order.
func Tasks(lines Lines) []model.Task {
	var tasks []model.Task
	for i := 0; i < lines.LineCount(); i++ {
		if task, ok := taskline.Decode(lines.Line(i), nil); ok && task.Name != "" {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

// Categorize groups tasks into completed, in progress and not started. The
// to-do group is ordered by due date with undated tasks last; the other groups
// keep document order.
func Categorize(tasks []model.Task) Categories {
	var cats Categories
	for _, task := range tasks {
		switch {
		case task.Status.IsCompleted():
			cats.Completed = append(cats.Completed, task)
		case task.Status > model.StatusToDo:
			cats.Doing = append(cats.Doing, task)
		default:
			cats.ToDo = append(cats.ToDo, task)
		}
	}

	sort.SliceStable(cats.ToDo, func(i, j int) bool {
		a, b := cats.ToDo[i].Due, cats.ToDo[j].Due
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return cats
}
