// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"taskman/internal/service"
)

// FormatTask formats a task line.
// Format: "{ID:>4}  [ ] {TITLE}" with "[x]" for completed tasks.
func FormatTask(w io.Writer, task service.Task) {
	box := "[ ]"
	if task.IsCompleted {
		box = "[x]"
	}
	fmt.Fprintf(w, "%4d  %s %s\n", task.ID, box, normalizeTitle(task.Title))
}

// FormatTaskDetail formats the full view of a task for the show command.
func FormatTaskDetail(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "id:          %d\n", task.ID)
	fmt.Fprintf(w, "title:       %s\n", normalizeTitle(task.Title))
	if task.Description != nil && strings.TrimSpace(*task.Description) != "" {
		fmt.Fprintf(w, "description: %s\n", normalizeTitle(*task.Description))
	}
	status := "open"
	if task.IsCompleted {
		status = "completed"
	}
	fmt.Fprintf(w, "status:      %s\n", status)
	fmt.Fprintf(w, "created:     %s\n", task.CreatedAt.Format("2006-01-02 15:04"))
	if task.UpdatedAt != nil {
		fmt.Fprintf(w, "updated:     %s\n", task.UpdatedAt.Format("2006-01-02 15:04"))
	}
}

// FormatProfile formats the whoami output.
func FormatProfile(w io.Writer, p service.Profile) {
	fmt.Fprintf(w, "%s <%s>\n", p.Username, p.Email)
}

// normalizeTitle normalizes text for single-line display.
// - Empty or whitespace-only text becomes "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
