package server

import (
	"fmt"
	"net/http"
	"testing"

	storage "taskadmin/repository/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newInMemoryAPI(t *testing.T) http.Handler {
	t.Helper()
	store := storage.NewStorage()
	api := NewTaskAPI(store, store, store, DefaultConfig(), zap.NewNop())
	require.NotNil(t, api)
	return api.Handler()
}

func TestAssignerTaskLifecycle(t *testing.T) {
	h := newInMemoryAPI(t)

	w := doRequest(h, http.MethodPost, "/assigners", `{"name":"Ann","email":"a@x.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	annID := int64(decodeBody(t, w)["assigner_id"].(float64))

	w = doRequest(h, http.MethodPost, "/assigners", `{"name":"Ann 2","email":"a@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already in use", decodeBody(t, w)["message"])

	w = doRequest(h, http.MethodPost, "/tasks",
		fmt.Sprintf(`{"title":"T1","status":"pending","due_date":"2025-01-01","assigner_id":%d}`, annID))
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody(t, w)
	taskID := int64(created["id"].(float64))
	assert.Equal(t, map[string]any{"name": "Ann", "email": "a@x.com"}, created["assigner"])

	w = doRequest(h, http.MethodGet, "/tasks?status=pending", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "T1", data[0].(map[string]any)["title"])

	w = doRequest(h, http.MethodDelete, fmt.Sprintf("/assigners/%d", annID), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cannot delete assigner. They still have 1 incomplete task(s).", decodeBody(t, w)["message"])

	w = doRequest(h, http.MethodPatch, fmt.Sprintf("/tasks/%d/status", taskID), `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", decodeBody(t, w)["status"])

	w = doRequest(h, http.MethodDelete, fmt.Sprintf("/assigners/%d", annID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Assigner and their completed tasks deleted successfully", decodeBody(t, w)["message"])

	w = doRequest(h, http.MethodGet, fmt.Sprintf("/tasks/%d", taskID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(h, http.MethodGet, fmt.Sprintf("/assigners/%d", annID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvalidInputsAgainstStore(t *testing.T) {
	h := newInMemoryAPI(t)

	w := doRequest(h, http.MethodGet, "/assigners/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid assigner ID", decodeBody(t, w)["message"])

	w = doRequest(h, http.MethodPost, "/tasks", `{"title":"T","status":"pending","due_date":"2025-01-01","assigner_id":404}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Assigner not found", decodeBody(t, w)["message"])

	w = doRequest(h, http.MethodPost, "/assigners", `{"name":"Ann","email":"a@x.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(h, http.MethodPost, "/tasks", `{"title":"T","status":"done","due_date":"2025-01-01","assigner_id":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid status. Must be one of: pending, in_progress, completed", decodeBody(t, w)["message"])

	w = doRequest(h, http.MethodGet, "/tasks", "")
	assert.Equal(t, http.StatusNotFound, w.Code, "rejected tasks must not be stored")
}

func TestEmptyStats(t *testing.T) {
	h := newInMemoryAPI(t)

	w := doRequest(h, http.MethodGet, "/stats/tasks_by_status", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No statistics available", decodeBody(t, w)["message"])

	w = doRequest(h, http.MethodGet, "/stats/tasks_by_assigner", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatsInvariants(t *testing.T) {
	h := newInMemoryAPI(t)

	for i, name := range []string{"Ann", "Bob"} {
		w := doRequest(h, http.MethodPost, "/api/v1/assigners", fmt.Sprintf(`{"name":%q,"email":"%d@x.com"}`, name, i))
		require.Equal(t, http.StatusCreated, w.Code)
	}
	tasks := []struct {
		assigner int
		status   string
	}{
		{1, "pending"}, {1, "in_progress"}, {1, "completed"}, {2, "completed"}, {2, "pending"},
	}
	for i, task := range tasks {
		body := fmt.Sprintf(`{"title":"T%d","status":%q,"due_date":"2025-01-0%d","assigner_id":"%d"}`, i, task.status, i+1, task.assigner)
		w := doRequest(h, http.MethodPost, "/api/v1/tasks", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := doRequest(h, http.MethodGet, "/api/v1/stats/tasks_by_status", "")
	require.Equal(t, http.StatusOK, w.Code)
	byStatus := decodeBody(t, w)["stats"].(map[string]any)
	assert.Equal(t, float64(2), byStatus["pending"])
	assert.Equal(t, float64(1), byStatus["in_progress"])
	assert.Equal(t, float64(2), byStatus["completed"])
	assert.Equal(t, byStatus["total_tasks"], byStatus["pending"].(float64)+byStatus["in_progress"].(float64)+byStatus["completed"].(float64))

	w = doRequest(h, http.MethodGet, "/api/v1/stats/tasks_by_assigner", "")
	require.Equal(t, http.StatusOK, w.Code)
	var sum float64
	for _, row := range decodeBody(t, w)["stats"].([]any) {
		r := row.(map[string]any)
		assert.Equal(t, r["total_tasks"], r["completed_tasks"].(float64)+r["pending_tasks"].(float64))
		sum += r["total_tasks"].(float64)
	}
	assert.Equal(t, byStatus["total_tasks"], sum)
}
