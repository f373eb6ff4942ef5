package server

import (
	"context"
	"net/http"
	"time"

	"taskadmin/internal/domain/errors"
	"taskadmin/internal/domain/models"
	"taskadmin/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
	"go.uber.org/zap"
)

type AssignerRepository interface {
	ListAssigners(ctx context.Context) ([]models.AssignerSummary, error)
	GetAssignerByID(ctx context.Context, id int64) (*models.Assigner, error)
	GetAssignerByEmail(ctx context.Context, email string) (*models.Assigner, error)
	CreateAssigner(ctx context.Context, a *models.Assigner) error
	UpdateAssigner(ctx context.Context, id int64, a *models.Assigner) error
	GetAssignerTaskRefs(ctx context.Context, id int64) ([]models.TaskRef, error)
	DeleteAssigner(ctx context.Context, id int64) (int64, error)
}

type TaskRepository interface {
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	GetTaskByID(ctx context.Context, id int64) (*models.Task, error)
	CreateTask(ctx context.Context, t *models.Task) error
	UpdateTask(ctx context.Context, id int64, t *models.Task) error
	UpdateTaskStatus(ctx context.Context, id int64, status string) (*models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

type StatsRepository interface {
	TaskCountsByStatus(ctx context.Context) (map[string]int64, error)
	TaskCountsByAssigner(ctx context.Context) ([]models.AssignerTaskCount, error)
}

type TaskAPI struct {
	httpSrv   *http.Server
	assigners AssignerRepository
	tasks     TaskRepository
	stats     StatsRepository
	validate  *validator.Validate
	log       *zap.Logger
}

func NewTaskAPI(assigners AssignerRepository, tasks TaskRepository, stats StatsRepository, cfg *Config, log *zap.Logger) *TaskAPI {
	if assigners == nil || tasks == nil || stats == nil {
		return nil
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}

	api := &TaskAPI{
		httpSrv: &http.Server{
			Addr:              cfg.ListenAddr(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		assigners: assigners,
		tasks:     tasks,
		stats:     stats,
		validate:  validator.New(),
		log:       log,
	}
	api.configRoutes()
	return api
}

func (api *TaskAPI) Start() error {
	if api.httpSrv == nil {
		return errors.ErrInternalServer
	}
	api.log.Info("HTTP server listening", zap.String("addr", api.httpSrv.Addr))
	if err := api.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (api *TaskAPI) Shutdown(ctx context.Context) error {
	return api.httpSrv.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (api *TaskAPI) Handler() http.Handler {
	return api.httpSrv.Handler
}

func (api *TaskAPI) configRoutes() {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(
		RequestID(),
		RequestLogger(api.log),
		RequestMetrics(),
		gin.CustomRecovery(api.recoverPanic),
		GzipRequestDecompress(),
	)

	router.NoMethod(func(ctx *gin.Context) {
		respondError(ctx, http.StatusMethodNotAllowed, "HTTP method not allowed on this resource")
	})
	router.NoRoute(func(ctx *gin.Context) {
		respondError(ctx, http.StatusNotFound, "Route not found")
	})

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api.mountResources(&router.RouterGroup)
	api.mountResources(router.Group("/api/v1"))

	api.httpSrv.Handler = router
}

func (api *TaskAPI) mountResources(g *gin.RouterGroup) {
	assigners := g.Group("/assigners")
	{
		assigners.GET("", api.listAssigners)
		assigners.POST("", api.createAssigner)
		assigners.GET("/:assignerID", api.getAssigner)
		assigners.PUT("/:assignerID", api.updateAssigner)
		assigners.DELETE("/:assignerID", api.deleteAssigner)
	}

	tasks := g.Group("/tasks")
	{
		tasks.GET("", api.listTasks)
		tasks.POST("", api.createTask)
		tasks.GET("/:taskID", api.getTask)
		tasks.PUT("/:taskID", api.updateTask)
		tasks.PATCH("/:taskID/status", api.updateTaskStatus)
		tasks.DELETE("/:taskID", api.deleteTask)
	}

	stats := g.Group("/stats")
	{
		stats.GET("/tasks_by_status", api.tasksByStatus)
		stats.GET("/tasks_by_assigner", api.tasksByAssigner)
	}
}

func (api *TaskAPI) recoverPanic(ctx *gin.Context, recovered any) {
	api.log.Error("Panic while handling request",
		zap.Any("panic", recovered),
		zap.String("path", ctx.Request.URL.Path),
	)
	respondError(ctx, http.StatusInternalServerError, errors.ErrInternalServer.Error())
	ctx.Abort()
}
