package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/bryan-cox/oqsync/internal/model"
)

// Section headers for text output.
const (
	TextHeaderCompleted = "\n✅ Done"
	TextHeaderDoing     = "\n🚧 In progress"
	TextHeaderToDo      = "\n📋 To do"
)

const dateLayout = "2006-01-02"

// PrintReport writes every non-empty section to out.
func PrintReport(out io.Writer, cats Categories) {
	printSection(out, TextHeaderCompleted, cats.Completed)
	printSection(out, TextHeaderDoing, cats.Doing)
	printSection(out, TextHeaderToDo, cats.ToDo)
}

// Text renders the report as a string.
func Text(cats Categories) string {
	var b strings.Builder
	PrintReport(&b, cats)
	return b.String()
}

func printSection(out io.Writer, header string, tasks []model.Task) {
	if len(tasks) == 0 {
		return
	}
	fmt.Fprintln(out, header)
	for _, task := range tasks {
		fmt.Fprintf(out, "    • %s\n", task.Name)
		if details := taskDetails(task); len(details) > 0 {
			fmt.Fprintf(out, "        ◦ %s\n", strings.Join(details, "; "))
		}
	}
}

func taskDetails(task model.Task) []string {
	var details []string
	if task.Priority != model.PriorityMedium {
		details = append(details, "priority: "+task.Priority.String())
	}
	if task.Due != nil && !task.Status.IsCompleted() {
		details = append(details, "due: "+task.Due.Format(dateLayout))
	}
	if task.CompletedAt != nil && task.Status.IsCompleted() {
		details = append(details, "done: "+task.CompletedAt.Format(dateLayout))
	}
	if len(task.Tags) > 0 {
		tags := make([]string, len(task.Tags))
		for i, tag := range task.Tags {
			tags[i] = "#" + tag
		}
		details = append(details, strings.Join(tags, " "))
	}
	return details
}
