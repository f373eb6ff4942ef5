package server

import (
	"net/http"

	"taskadmin/internal/domain/errors"
	"taskadmin/internal/domain/models"

	"github.com/gin-gonic/gin"
)

func (api *TaskAPI) tasksByStatus(ctx *gin.Context) {
	counts, err := api.stats.TaskCountsByStatus(ctx.Request.Context())
	if err != nil {
		api.respondInternal(ctx, err, "Failed to fetch statistics")
		return
	}

	stats := models.NewStatusStats(counts)
	if stats.TotalTasks == 0 {
		respondError(ctx, http.StatusNotFound, errors.ErrNoStatistics.Error())
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (api *TaskAPI) tasksByAssigner(ctx *gin.Context) {
	counts, err := api.stats.TaskCountsByAssigner(ctx.Request.Context())
	if err != nil {
		api.respondInternal(ctx, err, "Failed to fetch statistics")
		return
	}
	if len(counts) == 0 {
		respondError(ctx, http.StatusNotFound, errors.ErrNoStatistics.Error())
		return
	}

	stats := make([]models.AssignerStats, 0, len(counts))
	for _, c := range counts {
		stats = append(stats, models.NewAssignerStats(c))
	}
	ctx.JSON(http.StatusOK, gin.H{"stats": stats})
}
