package server

import (
	"net/http"
	"strconv"
	"strings"

	"taskadmin/internal/domain/errors"
	"taskadmin/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// taskFilterFromQuery reads assigner_id, status and due_before. Empty
// parameters are ignored.
func taskFilterFromQuery(ctx *gin.Context) (models.TaskFilter, error) {
	var f models.TaskFilter

	if raw := strings.TrimSpace(ctx.Query("assigner_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, errors.ErrInvalidAssignerID
		}
		f.AssignerID = &id
	}
	if status := strings.TrimSpace(ctx.Query("status")); status != "" {
		if !models.IsValidStatus(status) {
			return f, errors.ErrInvalidStatus
		}
		f.Status = &status
	}
	if raw := strings.TrimSpace(ctx.Query("due_before")); raw != "" {
		due, err := models.ParseDate(raw)
		if err != nil {
			return f, err
		}
		f.DueBefore = &due
	}
	return f, nil
}

func (api *TaskAPI) listTasks(ctx *gin.Context) {
	filter, err := taskFilterFromQuery(ctx)
	if err != nil {
		respondError(ctx, http.StatusBadRequest, err.Error())
		return
	}

	tasks, err := api.tasks.ListTasks(ctx.Request.Context(), filter)
	if err != nil {
		api.respondInternal(ctx, err, "Failed to fetch tasks")
		return
	}
	if len(tasks) == 0 {
		respondError(ctx, http.StatusNotFound, errors.ErrNoTasks.Error())
		return
	}
	respondList(ctx, tasks)
}

func (api *TaskAPI) getTask(ctx *gin.Context) {
	id, ok := pathID(ctx, "taskID", errors.ErrInvalidTaskID)
	if !ok {
		return
	}

	task, err := api.tasks.GetTaskByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errors.ErrTaskNotFound) {
			respondError(ctx, http.StatusNotFound, err.Error())
			return
		}
		api.respondInternal(ctx, err, "Failed to fetch task")
		return
	}
	ctx.JSON(http.StatusOK, task)
}

func (api *TaskAPI) createTask(ctx *gin.Context) {
	var req models.CreateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, errors.ErrInvalidAssignerID) {
			respondError(ctx, http.StatusBadRequest, err.Error())
			return
		}
		respondError(ctx, http.StatusBadRequest, errors.ErrBadRequest.Error())
		return
	}
	if err := api.validate.Struct(req); err != nil {
		respondError(ctx, http.StatusBadRequest, validationErrorToErrorResponse(err, errors.ErrTaskFieldsRequired).Error())
		return
	}
	if !models.IsValidStatus(req.Status) {
		respondError(ctx, http.StatusBadRequest, errors.ErrInvalidStatus.Error())
		return
	}
	due, err := models.ParseDate(req.DueDate)
	if err != nil {
		respondError(ctx, http.StatusBadRequest, err.Error())
		return
	}

	assignerID := int64(req.AssignerID)
	if _, err := api.assigners.GetAssignerByID(ctx.Request.Context(), assignerID); err != nil {
		if errors.Is(err, errors.ErrAssignerNotFound) {
			respondError(ctx, http.StatusBadRequest, err.Error())
			return
		}
		api.respondInternal(ctx, err, "Failed to create task")
		return
	}

	task := models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		DueDate:     due,
		AssignerID:  assignerID,
	}
	if err := api.tasks.CreateTask(ctx.Request.Context(), &task); err != nil {
		if errors.Is(err, errors.ErrAssignerNotFound) {
			respondError(ctx, http.StatusBadRequest, err.Error())
			return
		}
		api.respondInternal(ctx, err, "Failed to create task")
		return
	}

	ctx.JSON(http.StatusCreated, taskWithMessage(task, "Task created successfully"))
}

func (api *TaskAPI) updateTask(ctx *gin.Context) {
	id, ok := pathID(ctx, "taskID", errors.ErrInvalidTaskID)
	if !ok {
		return
	}
	var req models.UpdateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, http.StatusBadRequest, errors.ErrBadRequest.Error())
		return
	}

	task, err := api.tasks.GetTaskByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errors.ErrTaskNotFound) {
			respondError(ctx, http.StatusNotFound, err.Error())
			return
		}
		api.respondInternal(ctx, err, "Failed to update task")
		return
	}

	if err := api.validate.Struct(req); err != nil {
		respondError(ctx, http.StatusBadRequest, validationErrorToErrorResponse(err, errors.ErrValidationFailed).Error())
		return
	}
	if req.Status != "" && !models.IsValidStatus(req.Status) {
		respondError(ctx, http.StatusBadRequest, errors.ErrInvalidStatus.Error())
		return
	}

	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Description != "" {
		task.Description = req.Description
	}
	if req.Status != "" {
		task.Status = req.Status
	}
	if req.DueDate != "" {
		due, err := models.ParseDate(req.DueDate)
		if err != nil {
			respondError(ctx, http.StatusBadRequest, err.Error())
			return
		}
		task.DueDate = due
	}

	if err := api.tasks.UpdateTask(ctx.Request.Context(), id, task); err != nil {
		if errors.Is(err, errors.ErrTaskNotFound) {
			respondError(ctx, http.StatusNotFound, err.Error())
			return
		}
		api.respondInternal(ctx, err, "Failed to update task")
		return
	}
	ctx.JSON(http.StatusOK, taskWithMessage(*task, "Task updated successfully"))
}

func (api *TaskAPI) updateTaskStatus(ctx *gin.Context) {
	id, ok := pathID(ctx, "taskID", errors.ErrInvalidTaskID)
	if !ok {
		return
	}
	var req models.UpdateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, http.StatusBadRequest, errors.ErrBadRequest.Error())
		return
	}
	if err := api.validate.Struct(req); err != nil {
		respondError(ctx, http.StatusBadRequest, errors.ErrStatusRequired.Error())
		return
	}
	if !models.IsValidStatus(req.Status) {
		respondError(ctx, http.StatusBadRequest, errors.ErrInvalidStatus.Error())
		return
	}

	task, err := api.tasks.UpdateTaskStatus(ctx.Request.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, errors.ErrTaskNotFound) {
			respondError(ctx, http.StatusNotFound, err.Error())
			return
		}
		api.respondInternal(ctx, err, "Failed to update task status")
		return
	}
	ctx.JSON(http.StatusOK, taskWithMessage(*task, "Task status updated successfully"))
}

func (api *TaskAPI) deleteTask(ctx *gin.Context) {
	id, ok := pathID(ctx, "taskID", errors.ErrInvalidTaskID)
	if !ok {
		return
	}

	if err := api.tasks.DeleteTask(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, errors.ErrTaskNotFound) {
			respondError(ctx, http.StatusNotFound, err.Error())
			return
		}
		api.respondInternal(ctx, err, "Failed to delete task")
		return
	}
	ctx.Status(http.StatusNoContent)
}

// taskResponse flattens a task and a message into one JSON object.
type taskResponse struct {
	models.Task
	Message string `json:"message"`
}

func taskWithMessage(t models.Task, msg string) taskResponse {
	return taskResponse{Task: t, Message: msg}
}
