package models

import (
	"time"
)

// Project is the owning record for blueprint sheets and their pins.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Blueprint is one uploaded sheet of a project's plan. ImageURL points at the
// displayable rendering served by the file-storage service.
type Blueprint struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateProjectRequest represents the request body for creating a project.
type CreateProjectRequest struct {
	Name string `json:"name" binding:"required,max=256"`
}

// CreateBlueprintRequest represents the request body for registering a
// blueprint sheet on a project.
type CreateBlueprintRequest struct {
	Name     string `json:"name" binding:"required,max=256"`
	ImageURL string `json:"image_url"`
}

// CreateTaskRequest represents the request body for the task-flavored pin
// create path. Status carries a display label (PENDING, IN PROGRESS, DONE),
// not a PinStatus. BlueprintID is optional; the project's first sheet is used
// when it is empty.
type CreateTaskRequest struct {
	Title       string   `json:"title" binding:"required,max=256"`
	XCord       *float64 `json:"x" binding:"required"`
	YCord       *float64 `json:"y" binding:"required"`
	Status      string   `json:"status"`
	BlueprintID string   `json:"blueprint_id"`
}

// ProjectResponse wraps a single project in the API response.
type ProjectResponse struct {
	Data Project `json:"data"`
}

// BlueprintResponse wraps a single blueprint in the API response.
type BlueprintResponse struct {
	Data Blueprint `json:"data"`
}

// BlueprintsResponse wraps multiple blueprints in the API response.
type BlueprintsResponse struct {
	Data []Blueprint `json:"data"`
}
