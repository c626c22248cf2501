package tasksync

import (
	"context"
	"fmt"

	"github.com/bryan-cox/oqsync/internal/cascade"
	"github.com/bryan-cox/oqsync/internal/document"
	"github.com/bryan-cox/oqsync/internal/taskline"
)

// Direction is which way a toggle moved a task.
type Direction string

// Toggle directions.
const (
	DirectionNone   Direction = "none"
	DirectionClose  Direction = "close"
	DirectionReopen Direction = "reopen"
)

// ToggleResult describes a toggle and the cascade it caused.
type ToggleResult struct {
	Direction Direction
	// Cascaded counts the subtasks checked or the parents unchecked.
	Cascaded int
	Message  string
}

// Toggle flips the remote status of the task on line i. An open task is
// closed and its subtasks are checked; a completed task is reopened and its
// parents are unchecked. Lines without a remote id are left alone.
func (s *Syncer) Toggle(ctx context.Context, buf cascade.Lines, i int) (ToggleResult, error) {
	line := buf.Line(i)
	id, ok := taskline.ExtractRemoteID(line)
	if !ok {
		return ToggleResult{Direction: DirectionNone}, nil
	}

	remote, err := s.Store.GetTask(ctx, id)
	if err != nil {
		s.Metrics.RecordStoreError("get")
		return ToggleResult{Direction: DirectionNone}, fmt.Errorf("fetching task %s: %w", id, err)
	}

	if !remote.Status.IsCompleted() {
		if _, err := s.Store.CloseTask(ctx, id); err != nil {
			s.Metrics.RecordStoreError("close")
			return ToggleResult{Direction: DirectionNone}, fmt.Errorf("closing task %s: %w", id, err)
		}
		if next, changed := taskline.SetChecked(line, true); changed {
			buf.SetLine(i, next)
		}
		closed := s.Indenter.CloseSubtasks(buf, i)
		s.Metrics.RecordCascade(string(DirectionClose), closed)
		s.logger().Info("closed task", "id", id, "subtasks", closed)
		return ToggleResult{Direction: DirectionClose, Cascaded: closed, Message: closedMessage(closed)}, nil
	}

	if _, err := s.Store.ReopenTask(ctx, id); err != nil {
		s.Metrics.RecordStoreError("reopen")
		return ToggleResult{Direction: DirectionNone}, fmt.Errorf("reopening task %s: %w", id, err)
	}
	if next, changed := taskline.SetChecked(line, false); changed {
		buf.SetLine(i, next)
	}
	opened := s.Indenter.ReopenParents(buf, i)
	s.Metrics.RecordCascade(string(DirectionReopen), opened)
	s.logger().Info("reopened task", "id", id, "parents", opened)
	return ToggleResult{Direction: DirectionReopen, Cascaded: opened, Message: reopenedMessage(opened)}, nil
}

// ToggleAtCursor toggles the task on the buffer's current line.
func (s *Syncer) ToggleAtCursor(ctx context.Context, buf document.Buffer) (ToggleResult, error) {
	return s.Toggle(ctx, buf, buf.Cursor())
}

func closedMessage(subtasks int) string {
	msg := "Marked as done on " + ServiceName
	if subtasks > 0 {
		plural := "s"
		if subtasks == 1 {
			plural = ""
		}
		msg += fmt.Sprintf(" and %d subtask%s.", subtasks, plural)
	}
	return msg
}

func reopenedMessage(parents int) string {
	msg := "Re-opened on " + ServiceName
	if parents > 0 {
		plural := "s"
		if parents == 1 {
			plural = ""
		}
		msg += fmt.Sprintf(" and its parent task%s.", plural)
	}
	return msg
}
