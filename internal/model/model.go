// Package model defines the core data structures for oqsync.
package model

import (
	"errors"
	"strings"
	"time"
)

// Status is the remote completion value of a task, between 0 and 100.
type Status int

// Task status constants. Only these three are produced from document text.
const (
	StatusToDo      Status = 0
	StatusDoing     Status = 50
	StatusCompleted Status = 100
)

// IsCompleted reports whether the status counts as done.
func (s Status) IsCompleted() bool {
	return s >= StatusCompleted
}

// String returns a human-readable status name.
func (s Status) String() string {
	switch {
	case s.IsCompleted():
		return "completed"
	case s > StatusToDo:
		return "doing"
	default:
		return "to do"
	}
}

// Priority is the remote priority of a task. Its value must be between -1 (lowest) and 2 (highest).
type Priority int

// Priority levels representable by the remote service.
const (
	PriorityLow    Priority = -1
	PriorityMedium Priority = 0
	PriorityHigh   Priority = 1
	PriorityUrgent Priority = 2
)

// String returns the priority name.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return "medium"
	}
}

// RecurrenceKind is the unit a recurring task repeats on.
type RecurrenceKind string

// Recurrence kinds.
const (
	RecurrenceDaily   RecurrenceKind = "daily"
	RecurrenceWeekly  RecurrenceKind = "weekly"
	RecurrenceMonthly RecurrenceKind = "monthly"
	RecurrenceYearly  RecurrenceKind = "yearly"
)

// WeekdaySet is a bitmask of weekdays, bit n set for time.Weekday(n).
type WeekdaySet uint8

// Has reports whether d is in the set.
func (w WeekdaySet) Has(d time.Weekday) bool {
	return w&(1<<uint(d)) != 0
}

// With returns the set with d added.
func (w WeekdaySet) With(d time.Weekday) WeekdaySet {
	return w | 1<<uint(d)
}

// Days returns the weekdays in the set, Sunday first.
func (w WeekdaySet) Days() []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if w.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

// Recurrence describes how a task repeats.
type Recurrence struct {
	Kind     RecurrenceKind `yaml:"kind"`
	Rate     int            `yaml:"rate"`
	Weekdays WeekdaySet     `yaml:"weekdays,omitempty"`
}

// Tag is a remote tag.
type Tag struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Task represents a single checklist item and its remote record.
// Optional fields are nil when absent.
type Task struct {
	RemoteID    string      `yaml:"-"`
	ParentID    string      `yaml:"parent,omitempty"`
	Name        string      `yaml:"name"`
	Status      Status      `yaml:"status"`
	Priority    Priority    `yaml:"priority"`
	Created     *time.Time  `yaml:"created,omitempty"`
	Start       *time.Time  `yaml:"start,omitempty"`
	Scheduled   *time.Time  `yaml:"scheduled,omitempty"`
	Due         *time.Time  `yaml:"due,omitempty"`
	CompletedAt *time.Time  `yaml:"completed_at,omitempty"`
	Recurrence  *Recurrence `yaml:"recurrence,omitempty"`
	Tags        []string    `yaml:"tags,omitempty"`
}

// TaskPatch represents a partial create or update.
// nil pointer => "no change"
// nil Tags => leave tags alone; an empty non-nil slice clears them.
type TaskPatch struct {
	Name        *string
	Status      *Status
	Priority    *Priority
	Created     *time.Time
	Start       *time.Time
	Scheduled   *time.Time
	Due         *time.Time
	CompletedAt *time.Time
	Recurrence  *Recurrence
	Tags        []string
}

// TagKey returns the case-insensitive comparison key for a tag name.
func TagKey(name string) string {
	return strings.ToLower(name)
}

// MergeTags appends each group of names in order, dropping case-insensitive
// duplicates. The first casing seen wins. It returns nil when no names remain.
func MergeTags(groups ...[]string) []string {
	var merged []string
	seen := make(map[string]bool)
	for _, group := range groups {
		for _, name := range group {
			if name == "" || seen[TagKey(name)] {
				continue
			}
			seen[TagKey(name)] = true
			merged = append(merged, name)
		}
	}
	return merged
}

// ErrNotFound is returned by task stores when a task, tag or project does not exist.
var ErrNotFound = errors.New("not found")
