package server

import (
	"net/http"

	"taskadmin/internal/domain/errors"
	"taskadmin/internal/domain/models"
	"taskadmin/internal/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (api *TaskAPI) listAssigners(ctx *gin.Context) {
	assigners, err := api.assigners.ListAssigners(ctx.Request.Context())
	if err != nil {
		api.respondInternal(ctx, err, errors.ErrInternalServer.Error())
		return
	}
	if len(assigners) == 0 {
		respondError(ctx, http.StatusNotFound, errors.ErrNoAssigners.Error())
		return
	}
	respondList(ctx, assigners)
}

func (api *TaskAPI) getAssigner(ctx *gin.Context) {
	id, ok := pathID(ctx, "assignerID", errors.ErrInvalidAssignerID)
	if !ok {
		return
	}

	assigner, err := api.assigners.GetAssignerByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errors.ErrAssignerNotFound) {
			respondError(ctx, http.StatusNotFound, err.Error())
			return
		}
		api.respondInternal(ctx, err, "Failed to fetch assigner")
		return
	}
	ctx.JSON(http.StatusOK, assigner)
}

// bindAssigner decodes and validates an assigner body, answering 400 itself on failure.
func (api *TaskAPI) bindAssigner(ctx *gin.Context) (*models.AssignerRequest, bool) {
	var req models.AssignerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, http.StatusBadRequest, errors.ErrBadRequest.Error())
		return nil, false
	}
	if err := api.validate.Struct(req); err != nil {
		respondError(ctx, http.StatusBadRequest, validationErrorToErrorResponse(err, errors.ErrAssignerFieldsRequired).Error())
		return nil, false
	}
	return &req, true
}

// emailTaken reports whether email belongs to an assigner other than selfID.
func (api *TaskAPI) emailTaken(ctx *gin.Context, email string, selfID int64) (bool, error) {
	owner, err := api.assigners.GetAssignerByEmail(ctx.Request.Context(), email)
	if err != nil {
		if errors.Is(err, errors.ErrAssignerNotFound) {
			return false, nil
		}
		return false, err
	}
	return owner.ID != selfID, nil
}

func (api *TaskAPI) createAssigner(ctx *gin.Context) {
	req, ok := api.bindAssigner(ctx)
	if !ok {
		return
	}

	taken, err := api.emailTaken(ctx, req.Email, 0)
	if err != nil {
		api.respondInternal(ctx, err, "Failed to create assigner")
		return
	}
	if taken {
		respondError(ctx, http.StatusBadRequest, errors.ErrEmailInUse.Error())
		return
	}

	assigner := models.Assigner{Name: req.Name, Email: req.Email}
	if err := api.assigners.CreateAssigner(ctx.Request.Context(), &assigner); err != nil {
		if errors.Is(err, errors.ErrEmailInUse) {
			respondError(ctx, http.StatusBadRequest, err.Error())
			return
		}
		api.respondInternal(ctx, err, "Failed to create assigner")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"assigner_id": assigner.ID,
		"name":        assigner.Name,
		"email":       assigner.Email,
		"message":     "Assigner created successfully",
	})
}

func (api *TaskAPI) updateAssigner(ctx *gin.Context) {
	id, ok := pathID(ctx, "assignerID", errors.ErrInvalidAssignerID)
	if !ok {
		return
	}
	req, ok := api.bindAssigner(ctx)
	if !ok {
		return
	}

	existing, err := api.assigners.GetAssignerByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errors.ErrAssignerNotFound) {
			respondError(ctx, http.StatusNotFound, err.Error())
			return
		}
		api.respondInternal(ctx, err, "Failed to update assigner")
		return
	}

	if req.Email != existing.Email {
		taken, err := api.emailTaken(ctx, req.Email, id)
		if err != nil {
			api.respondInternal(ctx, err, "Failed to update assigner")
			return
		}
		if taken {
			respondError(ctx, http.StatusBadRequest, errors.ErrEmailInUse.Error())
			return
		}
	}

	assigner := models.Assigner{Name: req.Name, Email: req.Email}
	if err := api.assigners.UpdateAssigner(ctx.Request.Context(), id, &assigner); err != nil {
		switch {
		case errors.Is(err, errors.ErrAssignerNotFound):
			respondError(ctx, http.StatusNotFound, err.Error())
		case errors.Is(err, errors.ErrEmailInUse):
			respondError(ctx, http.StatusBadRequest, err.Error())
		default:
			api.respondInternal(ctx, err, "Failed to update assigner")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":         assigner.ID,
		"name":       assigner.Name,
		"email":      assigner.Email,
		"updated_at": assigner.UpdatedAt,
		"message":    "Assigner updated successfully",
	})
}

// deleteAssigner refuses while the assigner owns any task that is not
// completed; otherwise the assigner and its completed tasks go together.
func (api *TaskAPI) deleteAssigner(ctx *gin.Context) {
	id, ok := pathID(ctx, "assignerID", errors.ErrInvalidAssignerID)
	if !ok {
		return
	}

	refs, err := api.assigners.GetAssignerTaskRefs(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errors.ErrAssignerNotFound) {
			respondError(ctx, http.StatusNotFound, err.Error())
			return
		}
		metrics.IncAssignerDeletion("failed")
		api.respondInternal(ctx, err, "Failed to delete assigner. Please try again.")
		return
	}

	if n := models.CountIncomplete(refs); n > 0 {
		metrics.IncAssignerDeletion("blocked")
		respondError(ctx, http.StatusBadRequest, (&errors.IncompleteTasksError{Count: n}).Error())
		return
	}

	removed, err := api.assigners.DeleteAssigner(ctx.Request.Context(), id)
	if err != nil {
		var incomplete *errors.IncompleteTasksError
		switch {
		case errors.As(err, &incomplete):
			metrics.IncAssignerDeletion("blocked")
			respondError(ctx, http.StatusBadRequest, incomplete.Error())
		case errors.Is(err, errors.ErrIncompleteTasks):
			metrics.IncAssignerDeletion("blocked")
			respondError(ctx, http.StatusBadRequest, "Cannot delete assigner. They still have incomplete task(s).")
		case errors.Is(err, errors.ErrAssignerNotFound):
			respondError(ctx, http.StatusNotFound, errors.ErrAssignerNotFound.Error())
		default:
			metrics.IncAssignerDeletion("failed")
			api.respondInternal(ctx, err, "Failed to delete assigner. Please try again.")
		}
		return
	}

	metrics.IncAssignerDeletion("deleted")
	api.log.Info("Assigner removed with completed tasks",
		zap.Int64("assigner_id", id),
		zap.Int64("tasks_removed", removed),
	)
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Assigner and their completed tasks deleted successfully",
	})
}
