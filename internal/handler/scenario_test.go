package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/TChrisVivek/S-R-Associates-sub000/internal/models"
	"github.com/TChrisVivek/S-R-Associates-sub000/internal/taskview"
)

// memRepo is a map-backed repository for exercising full request sequences.
type memRepo struct {
	mu         sync.Mutex
	pins       map[string]*models.Pin
	pinOrder   []string
	projects   map[string]*models.Project
	blueprints map[string][]models.Blueprint
}

func newMemRepo() *memRepo {
	return &memRepo{
		pins:       make(map[string]*models.Pin),
		projects:   make(map[string]*models.Project),
		blueprints: make(map[string][]models.Blueprint),
	}
}

func (r *memRepo) CreatePin(ctx context.Context, req *models.CreatePinRequest) (*models.Pin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

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
			{Field: models.HistoryFieldCreation, NewValue: models.HistoryCreatedValue, Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.pins[pin.ID] = pin
	r.pinOrder = append(r.pinOrder, pin.ID)
	out := *pin
	return &out, nil
}

func (r *memRepo) GetPin(ctx context.Context, id string) (*models.Pin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pin, ok := r.pins[id]
	if !ok {
		return nil, nil
	}
	out := *pin
	return &out, nil
}

func (r *memRepo) ListByBlueprint(ctx context.Context, blueprintID string) ([]models.Pin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pins := []models.Pin{}
	for _, id := range r.pinOrder {
		if r.pins[id].BlueprintID == blueprintID {
			pins = append(pins, *r.pins[id])
		}
	}
	return pins, nil
}

func (r *memRepo) AddComment(ctx context.Context, pinID, text, author string) (*models.Pin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pin, ok := r.pins[pinID]
	if !ok {
		return nil, nil
	}
	pin.Comments = append(pin.Comments, models.Comment{
		Author: author, Text: text, Timestamp: time.Now().UTC(),
	})
	out := *pin
	return &out, nil
}

func (r *memRepo) UpdateStatus(ctx context.Context, pinID string, status models.PinStatus, changedBy string) (*models.Pin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pin, ok := r.pins[pinID]
	if !ok {
		return nil, nil
	}
	old := pin.Status
	pin.Status = status
	pin.History = append(pin.History, models.HistoryEntry{
		ChangedBy: changedBy,
		Field:     models.HistoryFieldStatus,
		OldValue:  string(old),
		NewValue:  string(status),
		Timestamp: time.Now().UTC(),
	})
	out := *pin
	return &out, nil
}

func (r *memRepo) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	project := &models.Project{ID: uuid.New().String(), Name: name, CreatedAt: time.Now().UTC()}
	r.projects[project.ID] = project
	return project, nil
}

func (r *memRepo) GetProject(ctx context.Context, id string) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.projects[id], nil
}

func (r *memRepo) CreateBlueprint(ctx context.Context, projectID, name, imageURL string) (*models.Blueprint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	blueprint := models.Blueprint{
		ID: uuid.New().String(), ProjectID: projectID, Name: name, ImageURL: imageURL,
		CreatedAt: time.Now().UTC(),
	}
	r.blueprints[projectID] = append(r.blueprints[projectID], blueprint)
	return &blueprint, nil
}

func (r *memRepo) ListBlueprints(ctx context.Context, projectID string) ([]models.Blueprint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	blueprints := r.blueprints[projectID]
	if blueprints == nil {
		blueprints = []models.Blueprint{}
	}
	return blueprints, nil
}

func (r *memRepo) Close() {}

// nopCache always misses so every read goes to the repository.
type nopCache struct{}

func (nopCache) GetByBlueprint(ctx context.Context, blueprintID string) ([]models.Pin, bool, error) {
	return nil, false, nil
}
func (nopCache) SetByBlueprint(ctx context.Context, blueprintID string, pins []models.Pin) error {
	return nil
}
func (nopCache) InvalidateBlueprint(ctx context.Context, blueprintID string) error { return nil }
func (nopCache) Close() error                                                      { return nil }

func setupScenarioEngine() (*memRepo, *gin.Engine) {
	gin.SetMode(gin.TestMode)

	repo := newMemRepo()
	logger, _ := zap.NewDevelopment()

	engine := gin.New()
	rg := engine.Group("/api/v1")
	NewHandler(repo, nopCache{}, logger).RegisterRoutes(rg)

	return repo, engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestScenario_PinLifecycle(t *testing.T) {
	repo, engine := setupScenarioEngine()

	// Seed a project with one blueprint sheet
	ctx := context.Background()
	project, err := repo.CreateProject(ctx, "Riverside Tower")
	assert.NoError(t, err)
	blueprint, err := repo.CreateBlueprint(ctx, project.ID, "Ground Floor", "https://cdn.example.com/sheet.png")
	assert.NoError(t, err)

	// Create a pin
	createBody := `{"project_id": "` + project.ID + `", "blueprint_id": "` + blueprint.ID + `", "title": "Crack in wall", "x_cord": 20.0, "y_cord": 35.0}`
	w := doJSON(t, engine, http.MethodPost, "/api/v1/pins", createBody)
	assert.Equal(t, http.StatusCreated, w.Code)

	var created models.PinResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.StatusOpen, created.Data.Status)
	assert.Len(t, created.Data.History, 1)

	pinID := created.Data.ID

	// Comment twice; comments arrive in submission order and history is untouched
	w = doJSON(t, engine, http.MethodPost, "/api/v1/pins/"+pinID+"/comments", `{"text": "first"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, engine, http.MethodPost, "/api/v1/pins/"+pinID+"/comments", `{"text": "second", "user_id": "u2"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var commented models.PinResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &commented))
	assert.Len(t, commented.Data.Comments, 2)
	assert.Equal(t, "first", commented.Data.Comments[0].Text)
	assert.Equal(t, "second", commented.Data.Comments[1].Text)
	assert.Len(t, commented.Data.History, 1)

	// Close the pin
	w = doJSON(t, engine, http.MethodPatch, "/api/v1/pins/"+pinID+"/status", `{"status": "Closed"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var closed models.PinResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &closed))
	assert.Equal(t, models.StatusClosed, closed.Data.Status)
	assert.Len(t, closed.Data.History, 2)
	assert.Equal(t, models.HistoryFieldStatus, closed.Data.History[1].Field)
	assert.Equal(t, "Open", closed.Data.History[1].OldValue)
	assert.Equal(t, "Closed", closed.Data.History[1].NewValue)

	// The sheet read returns the pin with its exact coordinates
	w = doJSON(t, engine, http.MethodGet, "/api/v1/pins/"+blueprint.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var listed models.PinsResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed.Data, 1)
	assert.Equal(t, pinID, listed.Data[0].ID)
	assert.Equal(t, models.StatusClosed, listed.Data[0].Status)
	assert.Equal(t, 20.0, listed.Data[0].XCord)
	assert.Equal(t, 35.0, listed.Data[0].YCord)

	// The task projection shows the closed pin as DONE
	w = doJSON(t, engine, http.MethodGet, "/api/v1/projects/"+project.ID+"/blueprint-tasks", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var tasks taskview.TasksResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	assert.NotNil(t, tasks.Blueprint)
	assert.Equal(t, blueprint.ID, tasks.Blueprint.ID)
	assert.Len(t, tasks.Tasks, 1)
	assert.Equal(t, "DONE", tasks.Tasks[0].Status)
	assert.Equal(t, "#10b981", tasks.Tasks[0].Color)
}

func TestScenario_HistoryMonotonicity(t *testing.T) {
	repo, engine := setupScenarioEngine()

	ctx := context.Background()
	x, y := 10.0, 10.0
	pin, err := repo.CreatePin(ctx, &models.CreatePinRequest{
		ProjectID: "P1", BlueprintID: "B1", Title: "Loose railing", XCord: &x, YCord: &y,
	})
	assert.NoError(t, err)

	statuses := []string{"In Progress", "Ready for Inspection", "Closed", "Open", "Closed"}
	for i, status := range statuses {
		w := doJSON(t, engine, http.MethodPatch, "/api/v1/pins/"+pin.ID+"/status", `{"status": "`+status+`"}`)
		assert.Equal(t, http.StatusOK, w.Code)

		var response models.PinResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Data.History, i+2)
	}

	// Earlier entries are never altered
	final := repo.pins[pin.ID]
	assert.Equal(t, models.HistoryFieldCreation, final.History[0].Field)
	assert.Equal(t, "Open", final.History[1].OldValue)
	assert.Equal(t, "In Progress", final.History[1].NewValue)
}

func TestScenario_TaskProjectionOrdering(t *testing.T) {
	repo, engine := setupScenarioEngine()

	ctx := context.Background()
	project, _ := repo.CreateProject(ctx, "Riverside Tower")
	blueprint, _ := repo.CreateBlueprint(ctx, project.ID, "Ground Floor", "")

	for _, title := range []string{"first", "second", "third"} {
		body := `{"title": "` + title + `", "x": 5.0, "y": 5.0, "status": "PENDING"}`
		w := doJSON(t, engine, http.MethodPost, "/api/v1/projects/"+project.ID+"/blueprint-tasks", body)
		assert.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, engine, http.MethodGet, "/api/v1/projects/"+project.ID+"/blueprint-tasks", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var tasks taskview.TasksResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	assert.Equal(t, blueprint.ID, tasks.Blueprint.ID)
	assert.Len(t, tasks.Tasks, 3)
	assert.Equal(t, "third", tasks.Tasks[0].Title)
	assert.Equal(t, "second", tasks.Tasks[1].Title)
	assert.Equal(t, "first", tasks.Tasks[2].Title)
}

func TestScenario_ConcurrentStatusUpdates(t *testing.T) {
	repo, engine := setupScenarioEngine()

	ctx := context.Background()
	x, y := 40.0, 60.0
	pin, err := repo.CreatePin(ctx, &models.CreatePinRequest{
		ProjectID: "P1", BlueprintID: "B1", Title: "Exposed rebar", XCord: &x, YCord: &y,
	})
	assert.NoError(t, err)

	// Two writers race on the same pin; whichever lands second must not
	// overwrite the other's history entry.
	var wg sync.WaitGroup
	for _, status := range []string{"In Progress", "Closed"} {
		wg.Add(1)
		go func(status string) {
			defer wg.Done()
			w := doJSON(t, engine, http.MethodPatch, "/api/v1/pins/"+pin.ID+"/status", `{"status": "`+status+`"}`)
			assert.Equal(t, http.StatusOK, w.Code)
		}(status)
	}
	wg.Wait()

	final, err := repo.GetPin(ctx, pin.ID)
	assert.NoError(t, err)
	assert.Len(t, final.History, 3)

	newValues := []string{final.History[1].NewValue, final.History[2].NewValue}
	assert.Contains(t, newValues, "In Progress")
	assert.Contains(t, newValues, "Closed")
}

func TestScenario_ConcurrentComments(t *testing.T) {
	repo, engine := setupScenarioEngine()

	ctx := context.Background()
	x, y := 40.0, 60.0
	pin, err := repo.CreatePin(ctx, &models.CreatePinRequest{
		ProjectID: "P1", BlueprintID: "B1", Title: "Exposed rebar", XCord: &x, YCord: &y,
	})
	assert.NoError(t, err)

	var wg sync.WaitGroup
	for _, text := range []string{"needs shoring", "engineer notified"} {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			w := doJSON(t, engine, http.MethodPost, "/api/v1/pins/"+pin.ID+"/comments", `{"text": "`+text+`"}`)
			assert.Equal(t, http.StatusOK, w.Code)
		}(text)
	}
	wg.Wait()

	final, err := repo.GetPin(ctx, pin.ID)
	assert.NoError(t, err)
	assert.Len(t, final.Comments, 2)

	texts := []string{final.Comments[0].Text, final.Comments[1].Text}
	assert.Contains(t, texts, "needs shoring")
	assert.Contains(t, texts, "engineer notified")
}
