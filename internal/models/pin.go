// Package models contains the data models for the application.
package models

import (
	"time"
)

// PinStatus is the lifecycle status of a pin. Transitions between any two
// legal values are permitted; the UI relies on Closed pins being reopenable.
type PinStatus string

const (
	StatusOpen               PinStatus = "Open"
	StatusInProgress         PinStatus = "In Progress"
	StatusReadyForInspection PinStatus = "Ready for Inspection"
	StatusClosed             PinStatus = "Closed"
)

// Valid reports whether s is one of the four legal status values.
func (s PinStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusReadyForInspection, StatusClosed:
		return true
	}
	return false
}

// History field names.
const (
	HistoryFieldCreation = "creation"
	HistoryFieldStatus   = "status"

	// HistoryCreatedValue is the new_value recorded on the creation entry.
	HistoryCreatedValue = "Pin Created"
)

// Comment is a single entry in a pin's append-only comment thread.
type Comment struct {
	Author    string    `json:"author,omitempty"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Photo is an attachment reference on a pin. Modeled for storage
// compatibility; no write path exists for photos yet.
type Photo struct {
	URL        string    `json:"url"`
	Caption    string    `json:"caption,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// HistoryEntry is an append-only audit record of one field change on a pin.
type HistoryEntry struct {
	ChangedBy string    `json:"changed_by,omitempty"`
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value,omitempty"`
	NewValue  string    `json:"new_value"`
	Timestamp time.Time `json:"timestamp"`
}

// Pin represents a point annotation placed on a blueprint sheet.
// Coordinates are percentages in [0, 100] relative to the rendered image box,
// which keeps pins resolution-independent across zoom levels and render sizes.
type Pin struct {
	ID          string         `json:"id"`
	ProjectID   string         `json:"project_id"`
	BlueprintID string         `json:"blueprint_id"`
	Title       string         `json:"title"`
	Status      PinStatus      `json:"status"`
	XCord       float64        `json:"x_cord"`
	YCord       float64        `json:"y_cord"`
	Comments    []Comment      `json:"comments"`
	Photos      []Photo        `json:"photos"`
	History     []HistoryEntry `json:"history"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CreatePinRequest represents the request body for creating a pin.
// Coordinates are pointers so a legal 0.0 passes required-field binding.
type CreatePinRequest struct {
	ProjectID   string   `json:"project_id" binding:"required"`
	BlueprintID string   `json:"blueprint_id" binding:"required"`
	Title       string   `json:"title" binding:"required,max=256"`
	XCord       *float64 `json:"x_cord" binding:"required"`
	YCord       *float64 `json:"y_cord" binding:"required"`
}

// AddCommentRequest represents the request body for commenting on a pin.
type AddCommentRequest struct {
	Text   string `json:"text" binding:"required"`
	UserID string `json:"user_id"`
}

// UpdateStatusRequest represents the request body for a status change.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PinResponse wraps a single pin in the API response.
type PinResponse struct {
	Data Pin `json:"data"`
}

// PinsResponse wraps multiple pins in the API response.
type PinsResponse struct {
	Data []Pin `json:"data"`
}

// ErrorResponse represents an error response from the API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
