// Package taskview projects pins into the task shape consumed by the
// blueprint viewer's task panel. The projection is read-only and never
// mutates the underlying pin.
package taskview

import (
	"time"

	"github.com/TChrisVivek/S-R-Associates-sub000/internal/models"
)

// Display labels for the task panel.
const (
	LabelPending    = "PENDING"
	LabelInProgress = "IN PROGRESS"
	LabelDone       = "DONE"
)

// Colors used by the task panel and overlay markers.
const (
	ColorPending    = "#f59e0b"
	ColorInProgress = "#6366f1"
	ColorDone       = "#10b981"
)

// DefaultAssignee is emitted for every task; no assignee model exists on Pin.
const DefaultAssignee = "Unassigned"

// Task is the UI-facing projection of a pin.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Color     string    `json:"color"`
	Assignee  string    `json:"assignee"`
	XCord     float64   `json:"x_cord"`
	YCord     float64   `json:"y_cord"`
	CreatedAt time.Time `json:"created_at"`
}

// BlueprintRef is the sheet reference returned alongside a task list.
type BlueprintRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

// TasksResponse is the response body for the blueprint-tasks read. Blueprint
// is null when the project has no sheets.
type TasksResponse struct {
	Blueprint *BlueprintRef `json:"blueprint"`
	Tasks     []Task        `json:"tasks"`
}

// TaskResponse wraps a single task in the API response.
type TaskResponse struct {
	Data Task `json:"data"`
}

// Label maps a pin status to its display label and color. Anything outside
// the mapped set, including Ready for Inspection and unset values, falls back
// to PENDING.
func Label(s models.PinStatus) (label, color string) {
	switch s {
	case models.StatusInProgress:
		return LabelInProgress, ColorInProgress
	case models.StatusClosed:
		return LabelDone, ColorDone
	default:
		return LabelPending, ColorPending
	}
}

// StatusForLabel is the inverse mapping used by the task-create path.
// Unknown labels map to Open.
func StatusForLabel(label string) models.PinStatus {
	switch label {
	case LabelInProgress:
		return models.StatusInProgress
	case LabelDone:
		return models.StatusClosed
	default:
		return models.StatusOpen
	}
}

// FromPin projects a single pin into its task shape.
func FromPin(p models.Pin) Task {
	label, color := Label(p.Status)
	return Task{
		ID:        p.ID,
		Title:     p.Title,
		Status:    label,
		Color:     color,
		Assignee:  DefaultAssignee,
		XCord:     p.XCord,
		YCord:     p.YCord,
		CreatedAt: p.CreatedAt,
	}
}

// FromPins projects a creation-ordered pin list into tasks, most recently
// created first. The reversal is a display convention, not a storage one.
func FromPins(pins []models.Pin) []Task {
	tasks := make([]Task, 0, len(pins))
	for i := len(pins) - 1; i >= 0; i-- {
		tasks = append(tasks, FromPin(pins[i]))
	}
	return tasks
}
