// Package handler provides the business logic handlers for pin and
// blueprint-task operations.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TChrisVivek/S-R-Associates-sub000/internal/cache"
	"github.com/TChrisVivek/S-R-Associates-sub000/internal/database"
	"github.com/TChrisVivek/S-R-Associates-sub000/internal/models"
	"github.com/TChrisVivek/S-R-Associates-sub000/internal/taskview"
)

// Handler provides HTTP handlers for pin and project operations. It is the
// validation boundary: coordinate ranges and status enum membership are
// enforced here, not in the repository.
type Handler struct {
	repo   database.Repository
	cache  cache.Cache
	logger *zap.Logger
}

// NewHandler creates a new handler.
func NewHandler(repo database.Repository, cache cache.Cache, logger *zap.Logger) *Handler {
	return &Handler{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// RegisterRoutes registers the handler routes on the given router group.
// The pin list read keys on blueprint id; gin requires one wildcard name per
// segment position, so :id doubles as blueprint id there and pin id below.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/pins", h.CreatePin)
	rg.GET("/pins/:id", h.ListByBlueprint)
	rg.POST("/pins/:id/comments", h.AddComment)
	rg.PATCH("/pins/:id/status", h.UpdateStatus)

	rg.POST("/projects", h.CreateProject)
	rg.GET("/projects/:id", h.GetProject)
	rg.POST("/projects/:id/blueprints", h.CreateBlueprint)
	rg.GET("/projects/:id/blueprints", h.ListBlueprints)
	rg.GET("/projects/:id/blueprint-tasks", h.GetBlueprintTasks)
	rg.POST("/projects/:id/blueprint-tasks", h.AddBlueprintTask)
}

// validCoordinate reports whether v is a percentage inside the rendered
// image box.
func validCoordinate(v float64) bool {
	return v >= 0 && v <= 100
}

// CreatePin handles the creation of a new pin.
// @Summary Create pin
// @Description Place a new annotation pin on a blueprint sheet
// @Tags pins
// @Accept json
// @Produce json
// @Param pin body models.CreatePinRequest true "Pin data"
// @Success 201 {object} models.PinResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/pins [post]
func (h *Handler) CreatePin(c *gin.Context) {
	var req models.CreatePinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid create request", zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	if !validCoordinate(*req.XCord) || !validCoordinate(*req.YCord) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "coordinates must be percentages in the range [0, 100]",
		})
		return
	}

	ctx := c.Request.Context()
	pin, err := h.repo.CreatePin(ctx, &req)
	if err != nil {
		h.logger.Error("Failed to create pin", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "failed to create pin",
		})
		return
	}

	// The sheet's cached list no longer reflects storage
	_ = h.cache.InvalidateBlueprint(ctx, pin.BlueprintID)

	c.JSON(http.StatusCreated, models.PinResponse{Data: *pin})
}

// ListByBlueprint handles retrieving all pins on one blueprint sheet.
// @Summary List pins by blueprint
// @Description Retrieve all pins placed on a blueprint sheet, in creation order
// @Tags pins
// @Produce json
// @Param id path string true "Blueprint ID"
// @Success 200 {object} models.PinsResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/pins/{id} [get]
func (h *Handler) ListByBlueprint(c *gin.Context) {
	blueprintID := c.Param("id")
	ctx := c.Request.Context()

	// Try cache first
	pins, found, err := h.cache.GetByBlueprint(ctx, blueprintID)
	if err == nil && found {
		h.logger.Debug("Returning cached pins", zap.String("blueprint_id", blueprintID))
		c.JSON(http.StatusOK, models.PinsResponse{Data: pins})
		return
	}

	// Cache miss, get from database
	pins, err = h.repo.ListByBlueprint(ctx, blueprintID)
	if err != nil {
		h.logger.Error("Failed to get pins", zap.String("blueprint_id", blueprintID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "failed to retrieve pins",
		})
		return
	}

	// Update cache
	_ = h.cache.SetByBlueprint(ctx, blueprintID, pins)

	c.JSON(http.StatusOK, models.PinsResponse{Data: pins})
}

// AddComment handles appending a comment to a pin's thread.
// @Summary Add comment
// @Description Append a comment to a pin's thread
// @Tags pins
// @Accept json
// @Produce json
// @Param id path string true "Pin ID"
// @Param comment body models.AddCommentRequest true "Comment data"
// @Success 200 {object} models.PinResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/pins/{id}/comments [post]
func (h *Handler) AddComment(c *gin.Context) {
	id := c.Param("id")

	var req models.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid comment request", zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	pin, err := h.repo.AddComment(ctx, id, req.Text, req.UserID)
	if err != nil {
		h.logger.Error("Failed to add comment", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "failed to add comment",
		})
		return
	}

	if pin == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "pin not found",
		})
		return
	}

	_ = h.cache.InvalidateBlueprint(ctx, pin.BlueprintID)

	c.JSON(http.StatusOK, models.PinResponse{Data: *pin})
}

// UpdateStatus handles a pin status change.
// @Summary Update pin status
// @Description Assign a new status to a pin and record the change in its history
// @Tags pins
// @Accept json
// @Produce json
// @Param id path string true "Pin ID"
// @Param status body models.UpdateStatusRequest true "New status"
// @Success 200 {object} models.PinResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/pins/{id}/status [patch]
func (h *Handler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")

	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid status request", zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	status := models.PinStatus(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "status must be one of: Open, In Progress, Ready for Inspection, Closed",
		})
		return
	}

	ctx := c.Request.Context()
	pin, err := h.repo.UpdateStatus(ctx, id, status, "")
	if err != nil {
		h.logger.Error("Failed to update status", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "failed to update status",
		})
		return
	}

	if pin == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "pin not found",
		})
		return
	}

	_ = h.cache.InvalidateBlueprint(ctx, pin.BlueprintID)

	c.JSON(http.StatusOK, models.PinResponse{Data: *pin})
}

// CreateProject handles creating a project.
// @Summary Create project
// @Tags projects
// @Accept json
// @Produce json
// @Param project body models.CreateProjectRequest true "Project data"
// @Success 201 {object} models.ProjectResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/projects [post]
func (h *Handler) CreateProject(c *gin.Context) {
	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid project request", zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	project, err := h.repo.CreateProject(c.Request.Context(), req.Name)
	if err != nil {
		h.logger.Error("Failed to create project", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "failed to create project",
		})
		return
	}

	c.JSON(http.StatusCreated, models.ProjectResponse{Data: *project})
}

// GetProject handles retrieving a project by ID.
// @Summary Get project
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} models.ProjectResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/projects/{id} [get]
func (h *Handler) GetProject(c *gin.Context) {
	id := c.Param("id")

	project, err := h.repo.GetProject(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get project", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "failed to retrieve project",
		})
		return
	}

	if project == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "project not found",
		})
		return
	}

	c.JSON(http.StatusOK, models.ProjectResponse{Data: *project})
}

// CreateBlueprint handles registering a blueprint sheet on a project.
// @Summary Register blueprint sheet
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param blueprint body models.CreateBlueprintRequest true "Blueprint data"
// @Success 201 {object} models.BlueprintResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/projects/{id}/blueprints [post]
func (h *Handler) CreateBlueprint(c *gin.Context) {
	projectID := c.Param("id")

	var req models.CreateBlueprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid blueprint request", zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	blueprint, err := h.repo.CreateBlueprint(c.Request.Context(), projectID, req.Name, req.ImageURL)
	if err != nil {
		h.logger.Error("Failed to create blueprint", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "failed to create blueprint",
		})
		return
	}

	c.JSON(http.StatusCreated, models.BlueprintResponse{Data: *blueprint})
}

// ListBlueprints handles retrieving a project's blueprint sheets.
// @Summary List blueprint sheets
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} models.BlueprintsResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/projects/{id}/blueprints [get]
func (h *Handler) ListBlueprints(c *gin.Context) {
	projectID := c.Param("id")

	blueprints, err := h.repo.ListBlueprints(c.Request.Context(), projectID)
	if err != nil {
		h.logger.Error("Failed to get blueprints", zap.String("project_id", projectID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "failed to retrieve blueprints",
		})
		return
	}

	c.JSON(http.StatusOK, models.BlueprintsResponse{Data: blueprints})
}

// GetBlueprintTasks handles the task-panel read: the project's current sheet
// plus its pins projected into task shape, most recently created first.
// @Summary Get blueprint tasks
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} taskview.TasksResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/projects/{id}/blueprint-tasks [get]
func (h *Handler) GetBlueprintTasks(c *gin.Context) {
	projectID := c.Param("id")
	ctx := c.Request.Context()

	blueprints, err := h.repo.ListBlueprints(ctx, projectID)
	if err != nil {
		h.logger.Error("Failed to get blueprints", zap.String("project_id", projectID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "failed to retrieve blueprints",
		})
		return
	}

	if len(blueprints) == 0 {
		c.JSON(http.StatusOK, taskview.TasksResponse{
			Blueprint: nil,
			Tasks:     []taskview.Task{},
		})
		return
	}

	current := blueprints[0]

	pins, found, err := h.cache.GetByBlueprint(ctx, current.ID)
	if err != nil || !found {
		pins, err = h.repo.ListByBlueprint(ctx, current.ID)
		if err != nil {
			h.logger.Error("Failed to get pins", zap.String("blueprint_id", current.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "internal_error",
				Message: "failed to retrieve pins",
			})
			return
		}
		_ = h.cache.SetByBlueprint(ctx, current.ID, pins)
	}

	c.JSON(http.StatusOK, taskview.TasksResponse{
		Blueprint: &taskview.BlueprintRef{
			ID:       current.ID,
			Name:     current.Name,
			ImageURL: current.ImageURL,
		},
		Tasks: taskview.FromPins(pins),
	})
}

// AddBlueprintTask handles the task-flavored pin create: the display label is
// inverse-mapped to a pin status and the project's first sheet is used when
// no blueprint is named. A project with no sheets is rejected rather than
// given a fabricated sheet reference.
// @Summary Add blueprint task
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param task body models.CreateTaskRequest true "Task data"
// @Success 201 {object} taskview.TaskResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/projects/{id}/blueprint-tasks [post]
func (h *Handler) AddBlueprintTask(c *gin.Context) {
	projectID := c.Param("id")

	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid task request", zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	if !validCoordinate(*req.XCord) || !validCoordinate(*req.YCord) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "coordinates must be percentages in the range [0, 100]",
		})
		return
	}

	ctx := c.Request.Context()

	blueprintID := req.BlueprintID
	if blueprintID == "" {
		blueprints, err := h.repo.ListBlueprints(ctx, projectID)
		if err != nil {
			h.logger.Error("Failed to get blueprints", zap.String("project_id", projectID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "internal_error",
				Message: "failed to retrieve blueprints",
			})
			return
		}
		if len(blueprints) == 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid_request",
				Message: "no active blueprint",
			})
			return
		}
		blueprintID = blueprints[0].ID
	}

	pin, err := h.repo.CreatePin(ctx, &models.CreatePinRequest{
		ProjectID:   projectID,
		BlueprintID: blueprintID,
		Title:       req.Title,
		XCord:       req.XCord,
		YCord:       req.YCord,
	})
	if err != nil {
		h.logger.Error("Failed to create pin", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "failed to create task",
		})
		return
	}

	// A non-default label means the pin starts life in that status; the move
	// off Open is recorded in history like any other status change.
	if status := taskview.StatusForLabel(req.Status); status != models.StatusOpen {
		pin, err = h.repo.UpdateStatus(ctx, pin.ID, status, "")
		if err != nil {
			h.logger.Error("Failed to set task status", zap.Error(err))
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "internal_error",
				Message: "failed to create task",
			})
			return
		}
		if pin == nil {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "pin not found",
			})
			return
		}
	}

	_ = h.cache.InvalidateBlueprint(ctx, pin.BlueprintID)

	c.JSON(http.StatusCreated, taskview.TaskResponse{Data: taskview.FromPin(*pin)})
}
