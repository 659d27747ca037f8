// Package database provides PostgreSQL storage for pins, blueprints and
// projects.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/TChrisVivek/S-R-Associates-sub000/internal/config"
	"github.com/TChrisVivek/S-R-Associates-sub000/internal/models"
)

// Repository defines the interface for pin and project data operations.
// Lookups against a missing identity return (nil, nil); callers map that to
// a not-found response at the boundary.
type Repository interface {
	// CreatePin creates a new pin with status Open and its creation history
	// entry. Project and blueprint references are stored as given, without an
	// existence check.
	CreatePin(ctx context.Context, req *models.CreatePinRequest) (*models.Pin, error)

	// GetPin retrieves a pin by its ID.
	GetPin(ctx context.Context, id string) (*models.Pin, error)

	// ListByBlueprint retrieves all pins on one sheet, in creation order.
	ListByBlueprint(ctx context.Context, blueprintID string) ([]models.Pin, error)

	// AddComment appends one comment to a pin's thread. History is untouched.
	AddComment(ctx context.Context, pinID, text, author string) (*models.Pin, error)

	// UpdateStatus assigns a new status and appends one history entry
	// recording the old and new values.
	UpdateStatus(ctx context.Context, pinID string, status models.PinStatus, changedBy string) (*models.Pin, error)

	// CreateProject creates a new project.
	CreateProject(ctx context.Context, name string) (*models.Project, error)

	// GetProject retrieves a project by its ID.
	GetProject(ctx context.Context, id string) (*models.Project, error)

	// CreateBlueprint registers a blueprint sheet on a project.
	CreateBlueprint(ctx context.Context, projectID, name, imageURL string) (*models.Blueprint, error)

	// ListBlueprints retrieves a project's sheets in creation order. The
	// first element is the project's current sheet for the task views.
	ListBlueprints(ctx context.Context, projectID string) ([]models.Blueprint, error)

	// Close closes the database connection.
	Close()
}

// PostgresRepository implements Repository using PostgreSQL. The comment,
// photo and history threads live in JSONB columns on the pin row, so every
// mutation is a single-row write.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresRepository creates a new PostgreSQL repository.
func NewPostgresRepository(cfg *config.Config, logger *zap.Logger) (Repository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &PostgresRepository{
		pool:   pool,
		logger: logger,
	}

	if err := repo.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Connected to PostgreSQL database")
	return repo, nil
}

// migrate creates the necessary database tables if they don't exist.
func (r *PostgresRepository) migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS projects (
			id UUID PRIMARY KEY,
			name VARCHAR(256) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS blueprints (
			id UUID PRIMARY KEY,
			project_id TEXT NOT NULL,
			name VARCHAR(256) NOT NULL,
			image_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_blueprints_project_id ON blueprints(project_id);

		CREATE TABLE IF NOT EXISTS pins (
			id UUID PRIMARY KEY,
			project_id TEXT NOT NULL,
			blueprint_id TEXT NOT NULL,
			title VARCHAR(256) NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'Open',
			x_cord DOUBLE PRECISION NOT NULL,
			y_cord DOUBLE PRECISION NOT NULL,
			comments JSONB NOT NULL DEFAULT '[]',
			photos JSONB NOT NULL DEFAULT '[]',
			history JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_pins_blueprint_id ON pins(blueprint_id);
		CREATE INDEX IF NOT EXISTS idx_pins_project_status ON pins(project_id, status);
	`

	_, err := r.pool.Exec(ctx, query)
	return err
}

// CreatePin creates a new pin.
func (r *PostgresRepository) CreatePin(ctx context.Context, req *models.CreatePinRequest) (*models.Pin, error) {
	now := time.Now().UTC()
	pin := &models.Pin{
		ID:          uuid.New().String(),
		ProjectID:   req.ProjectID,
		BlueprintID: req.BlueprintID,
		Title:       req.Title,
		Status:      models.StatusOpen,
		XCord:       *req.XCord,
		YCord:       *req.YCord,
		Comments:    []models.Comment{},
		Photos:      []models.Photo{},
		History: []models.HistoryEntry{
			{
				Field:     models.HistoryFieldCreation,
				NewValue:  models.HistoryCreatedValue,
				Timestamp: now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO pins (id, project_id, blueprint_id, title, status, x_cord, y_cord, comments, photos, history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		pin.ID,
		pin.ProjectID,
		pin.BlueprintID,
		pin.Title,
		string(pin.Status),
		pin.XCord,
		pin.YCord,
		pin.Comments,
		pin.Photos,
		pin.History,
		pin.CreatedAt,
		pin.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create pin", zap.Error(err))
		return nil, fmt.Errorf("failed to create pin: %w", err)
	}

	r.logger.Info("Created pin",
		zap.String("id", pin.ID),
		zap.String("blueprint_id", pin.BlueprintID),
	)
	return pin, nil
}

// GetPin retrieves a pin by its ID.
func (r *PostgresRepository) GetPin(ctx context.Context, id string) (*models.Pin, error) {
	query := `
		SELECT id, project_id, blueprint_id, title, status, x_cord, y_cord, comments, photos, history, created_at, updated_at
		FROM pins
		WHERE id = $1
	`

	var pin models.Pin
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&pin.ID,
		&pin.ProjectID,
		&pin.BlueprintID,
		&pin.Title,
		&pin.Status,
		&pin.XCord,
		&pin.YCord,
		&pin.Comments,
		&pin.Photos,
		&pin.History,
		&pin.CreatedAt,
		&pin.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get pin", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get pin: %w", err)
	}

	return &pin, nil
}

// ListByBlueprint retrieves all pins on one sheet, oldest first. Display
// ordering is the consumer's concern; the task panel reverses this list.
func (r *PostgresRepository) ListByBlueprint(ctx context.Context, blueprintID string) ([]models.Pin, error) {
	query := `
		SELECT id, project_id, blueprint_id, title, status, x_cord, y_cord, comments, photos, history, created_at, updated_at
		FROM pins
		WHERE blueprint_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, blueprintID)
	if err != nil {
		r.logger.Error("Failed to get pins", zap.String("blueprint_id", blueprintID), zap.Error(err))
		return nil, fmt.Errorf("failed to get pins: %w", err)
	}
	defer rows.Close()

	var pins []models.Pin
	for rows.Next() {
		var pin models.Pin
		err := rows.Scan(
			&pin.ID,
			&pin.ProjectID,
			&pin.BlueprintID,
			&pin.Title,
			&pin.Status,
			&pin.XCord,
			&pin.YCord,
			&pin.Comments,
			&pin.Photos,
			&pin.History,
			&pin.CreatedAt,
			&pin.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan pin row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan pin: %w", err)
		}
		pins = append(pins, pin)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Failed to read pin rows", zap.String("blueprint_id", blueprintID), zap.Error(err))
		return nil, fmt.Errorf("failed to read pins: %w", err)
	}

	if pins == nil {
		pins = []models.Pin{}
	}

	return pins, nil
}

// AddComment appends one comment to a pin's thread.
func (r *PostgresRepository) AddComment(ctx context.Context, pinID, text, author string) (*models.Pin, error) {
	pin, err := r.GetPin(ctx, pinID)
	if err != nil {
		return nil, err
	}
	if pin == nil {
		return nil, nil
	}

	comment := models.Comment{
		Author:    author,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}

	// Append inside the statement so concurrent writers never overwrite each
	// other's entries.
	query := `
		UPDATE pins
		SET comments = comments || $2::jsonb, updated_at = $3
		WHERE id = $1
		RETURNING id, project_id, blueprint_id, title, status, x_cord, y_cord, comments, photos, history, created_at, updated_at
	`

	var updated models.Pin
	err = r.pool.QueryRow(ctx, query, pin.ID, comment, comment.Timestamp).Scan(
		&updated.ID,
		&updated.ProjectID,
		&updated.BlueprintID,
		&updated.Title,
		&updated.Status,
		&updated.XCord,
		&updated.YCord,
		&updated.Comments,
		&updated.Photos,
		&updated.History,
		&updated.CreatedAt,
		&updated.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to add comment", zap.String("id", pinID), zap.Error(err))
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	r.logger.Info("Added comment", zap.String("id", pinID))
	return &updated, nil
}

// UpdateStatus assigns a new status and appends one history entry. Any legal
// status may follow any other; enum membership is checked at the handler.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, pinID string, status models.PinStatus, changedBy string) (*models.Pin, error) {
	pin, err := r.GetPin(ctx, pinID)
	if err != nil {
		return nil, err
	}
	if pin == nil {
		return nil, nil
	}

	oldStatus := pin.Status
	entry := models.HistoryEntry{
		ChangedBy: changedBy,
		Field:     models.HistoryFieldStatus,
		OldValue:  string(oldStatus),
		NewValue:  string(status),
		Timestamp: time.Now().UTC(),
	}

	// The history append happens inside the statement; a racing update may
	// still land first, but neither entry is lost.
	query := `
		UPDATE pins
		SET status = $2, history = history || $3::jsonb, updated_at = $4
		WHERE id = $1
		RETURNING id, project_id, blueprint_id, title, status, x_cord, y_cord, comments, photos, history, created_at, updated_at
	`

	var updated models.Pin
	err = r.pool.QueryRow(ctx, query, pin.ID, string(status), entry, entry.Timestamp).Scan(
		&updated.ID,
		&updated.ProjectID,
		&updated.BlueprintID,
		&updated.Title,
		&updated.Status,
		&updated.XCord,
		&updated.YCord,
		&updated.Comments,
		&updated.Photos,
		&updated.History,
		&updated.CreatedAt,
		&updated.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to update status", zap.String("id", pinID), zap.Error(err))
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	r.logger.Info("Updated pin status",
		zap.String("id", pinID),
		zap.String("old", string(oldStatus)),
		zap.String("new", string(status)),
	)
	return &updated, nil
}

// CreateProject creates a new project.
func (r *PostgresRepository) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	project := &models.Project{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	query := `INSERT INTO projects (id, name, created_at) VALUES ($1, $2, $3)`

	_, err := r.pool.Exec(ctx, query, project.ID, project.Name, project.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create project", zap.Error(err))
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	r.logger.Info("Created project", zap.String("id", project.ID))
	return project, nil
}

// GetProject retrieves a project by its ID.
func (r *PostgresRepository) GetProject(ctx context.Context, id string) (*models.Project, error) {
	query := `SELECT id, name, created_at FROM projects WHERE id = $1`

	var project models.Project
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&project.ID,
		&project.Name,
		&project.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get project", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &project, nil
}

// CreateBlueprint registers a blueprint sheet on a project.
func (r *PostgresRepository) CreateBlueprint(ctx context.Context, projectID, name, imageURL string) (*models.Blueprint, error) {
	blueprint := &models.Blueprint{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      name,
		ImageURL:  imageURL,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO blueprints (id, project_id, name, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		blueprint.ID,
		blueprint.ProjectID,
		blueprint.Name,
		blueprint.ImageURL,
		blueprint.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create blueprint", zap.Error(err))
		return nil, fmt.Errorf("failed to create blueprint: %w", err)
	}

	r.logger.Info("Created blueprint",
		zap.String("id", blueprint.ID),
		zap.String("project_id", projectID),
	)
	return blueprint, nil
}

// ListBlueprints retrieves a project's sheets in creation order.
func (r *PostgresRepository) ListBlueprints(ctx context.Context, projectID string) ([]models.Blueprint, error) {
	query := `
		SELECT id, project_id, name, image_url, created_at
		FROM blueprints
		WHERE project_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to get blueprints", zap.String("project_id", projectID), zap.Error(err))
		return nil, fmt.Errorf("failed to get blueprints: %w", err)
	}
	defer rows.Close()

	var blueprints []models.Blueprint
	for rows.Next() {
		var blueprint models.Blueprint
		err := rows.Scan(
			&blueprint.ID,
			&blueprint.ProjectID,
			&blueprint.Name,
			&blueprint.ImageURL,
			&blueprint.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan blueprint row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan blueprint: %w", err)
		}
		blueprints = append(blueprints, blueprint)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Failed to read blueprint rows", zap.String("project_id", projectID), zap.Error(err))
		return nil, fmt.Errorf("failed to read blueprints: %w", err)
	}

	if blueprints == nil {
		blueprints = []models.Blueprint{}
	}

	return blueprints, nil
}

// Close closes the database connection pool.
func (r *PostgresRepository) Close() {
	r.pool.Close()
	r.logger.Info("Closed database connection")
}
