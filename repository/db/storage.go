package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskadmin/internal/domain/errors"
	"taskadmin/internal/domain/models"
	"taskadmin/internal/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	defaultQueryTimeout = 15 * time.Second

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const (
	qListAssigners      = `SELECT id, name, email FROM assigners ORDER BY id`
	qGetAssignerByID    = `SELECT id, name, email, created_at, updated_at FROM assigners WHERE id = $1`
	qGetAssignerByEmail = `SELECT id, name, email, created_at, updated_at FROM assigners WHERE email = $1`
	qCreateAssigner     = `INSERT INTO assigners (name, email) VALUES ($1, $2) RETURNING id, created_at, updated_at`
	qUpdateAssigner     = `UPDATE assigners SET name = $1, email = $2, updated_at = now() WHERE id = $3
		RETURNING id, name, email, created_at, updated_at`
	qAssignerTaskRefs = `SELECT a.id, t.id, t.status FROM assigners a
		LEFT JOIN tasks t ON t.assigner_id = a.id WHERE a.id = $1`

	qLockAssigner        = `SELECT id FROM assigners WHERE id = $1 FOR UPDATE`
	qCountIncomplete     = `SELECT count(*) FROM tasks WHERE assigner_id = $1 AND status <> 'completed'`
	qDeleteCompletedTask = `DELETE FROM tasks WHERE assigner_id = $1 AND status = 'completed'`
	qDeleteAssigner      = `DELETE FROM assigners WHERE id = $1`

	taskColumns = `t.id, t.title, t.description, t.status, t.due_date, t.assigner_id,
		a.name, a.email, t.created_at, t.updated_at`
	qSelectTasks = `SELECT ` + taskColumns + ` FROM tasks t JOIN assigners a ON a.id = t.assigner_id`
	qCreateTask  = `WITH t AS (
		INSERT INTO tasks (title, description, status, due_date, assigner_id)
		VALUES ($1, $2, $3, $4, $5) RETURNING *)
		SELECT ` + taskColumns + ` FROM t JOIN assigners a ON a.id = t.assigner_id`
	qUpdateTask = `WITH t AS (
		UPDATE tasks SET title = $1, description = $2, status = $3, due_date = $4, updated_at = now()
		WHERE id = $5 RETURNING *)
		SELECT ` + taskColumns + ` FROM t JOIN assigners a ON a.id = t.assigner_id`
	qUpdateTaskStatus = `WITH t AS (
		UPDATE tasks SET status = $1, updated_at = now() WHERE id = $2 RETURNING *)
		SELECT ` + taskColumns + ` FROM t JOIN assigners a ON a.id = t.assigner_id`
	qDeleteTask = `DELETE FROM tasks WHERE id = $1`

	qCountByStatus   = `SELECT status, count(*) FROM tasks GROUP BY status`
	qCountByAssigner = `SELECT a.id, a.name,
		count(t.id) FILTER (WHERE t.status IN ('pending', 'in_progress', 'completed')),
		count(t.id) FILTER (WHERE t.status = 'completed')
		FROM assigners a LEFT JOIN tasks t ON t.assigner_id = a.id
		GROUP BY a.id, a.name ORDER BY a.id`
)

type Options struct {
	MaxConns     int32
	QueryTimeout time.Duration
}

// Storage is the PostgreSQL implementation of the assigner, task and stats
// repositories. The pool is owned by the Storage and released by Close.
type Storage struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
	log          *zap.Logger
}

func NewStorage(connStr string, opts Options, log *zap.Logger) (*Storage, error) {
	if log == nil {
		log = zap.NewNop()
	}
	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		log.Error("Failed to parse db config", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", errors.ErrDatabaseConnection, err)
	}
	if opts.MaxConns > 0 {
		poolCfg.MaxConns = opts.MaxConns
	}
	poolCfg.MaxConnIdleTime = time.Minute
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = defaultQueryTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("PostgreSQL connection failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", errors.ErrDatabaseConnection, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		log.Error("PostgreSQL ping failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", errors.ErrDatabaseConnection, err)
	}

	log.Info("PostgreSQL connection established",
		zap.Int32("max_conns", poolCfg.MaxConns),
		zap.Duration("query_timeout", opts.QueryTimeout),
	)
	return &Storage{pool: pool, queryTimeout: opts.QueryTimeout, log: log}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
}

func (s *Storage) begin(ctx context.Context, op string) (context.Context, func()) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	start := time.Now()
	return ctx, func() {
		cancel()
		metrics.RecordDBQueryDuration(op, time.Since(start))
	}
}

func (s *Storage) ListAssigners(ctx context.Context) ([]models.AssignerSummary, error) {
	ctx, done := s.begin(ctx, "list_assigners")
	defer done()

	rows, err := s.pool.Query(ctx, qListAssigners)
	if err != nil {
		s.log.Error("Failed to query assigners", zap.Error(err))
		return nil, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.AssignerSummary, error) {
		var a models.AssignerSummary
		err := row.Scan(&a.ID, &a.Name, &a.Email)
		return a, err
	})
	if err != nil {
		s.log.Error("Failed to scan assigners", zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (s *Storage) GetAssignerByID(ctx context.Context, id int64) (*models.Assigner, error) {
	ctx, done := s.begin(ctx, "get_assigner")
	defer done()
	return s.getAssigner(ctx, qGetAssignerByID, id)
}

func (s *Storage) GetAssignerByEmail(ctx context.Context, email string) (*models.Assigner, error) {
	ctx, done := s.begin(ctx, "get_assigner_by_email")
	defer done()
	return s.getAssigner(ctx, qGetAssignerByEmail, email)
}

func (s *Storage) getAssigner(ctx context.Context, query string, arg any) (*models.Assigner, error) {
	a := &models.Assigner{}
	err := s.pool.QueryRow(ctx, query, arg).Scan(&a.ID, &a.Name, &a.Email, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrAssignerNotFound
		}
		s.log.Error("Failed to get assigner", zap.Any("key", arg), zap.Error(err))
		return nil, err
	}
	return a, nil
}

func (s *Storage) CreateAssigner(ctx context.Context, a *models.Assigner) error {
	ctx, done := s.begin(ctx, "create_assigner")
	defer done()

	err := s.pool.QueryRow(ctx, qCreateAssigner, a.Name, a.Email).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if pgErrCode(err) == pgUniqueViolation {
			return errors.ErrEmailInUse
		}
		s.log.Error("Failed to create assigner", zap.String("email", a.Email), zap.Error(err))
		return err
	}
	s.log.Info("Assigner created", zap.Int64("assigner_id", a.ID))
	return nil
}

func (s *Storage) UpdateAssigner(ctx context.Context, id int64, a *models.Assigner) error {
	ctx, done := s.begin(ctx, "update_assigner")
	defer done()

	err := s.pool.QueryRow(ctx, qUpdateAssigner, a.Name, a.Email, id).
		Scan(&a.ID, &a.Name, &a.Email, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return errors.ErrAssignerNotFound
		case pgErrCode(err) == pgUniqueViolation:
			return errors.ErrEmailInUse
		}
		s.log.Error("Failed to update assigner", zap.Int64("assigner_id", id), zap.Error(err))
		return err
	}
	s.log.Info("Assigner updated", zap.Int64("assigner_id", id))
	return nil
}

func (s *Storage) GetAssignerTaskRefs(ctx context.Context, id int64) ([]models.TaskRef, error) {
	ctx, done := s.begin(ctx, "assigner_task_refs")
	defer done()

	rows, err := s.pool.Query(ctx, qAssignerTaskRefs, id)
	if err != nil {
		s.log.Error("Failed to load assigner tasks", zap.Int64("assigner_id", id), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	found := false
	refs := []models.TaskRef{}
	for rows.Next() {
		var (
			assignerID int64
			taskID     *int64
			status     *string
		)
		if err := rows.Scan(&assignerID, &taskID, &status); err != nil {
			s.log.Error("Failed to scan assigner task", zap.Int64("assigner_id", id), zap.Error(err))
			return nil, err
		}
		found = true
		if taskID != nil && status != nil {
			refs = append(refs, models.TaskRef{ID: *taskID, Status: *status})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.ErrAssignerNotFound
	}
	return refs, nil
}

// DeleteAssigner removes the assigner and its completed tasks in one
// transaction. The assigner row is locked first so no task can be attached
// to it while the incomplete count is taken.
func (s *Storage) DeleteAssigner(ctx context.Context, id int64) (int64, error) {
	ctx, done := s.begin(ctx, "delete_assigner")
	defer done()

	var removedTasks int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var locked int64
		if err := tx.QueryRow(ctx, qLockAssigner, id).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errors.ErrAssignerNotFound
			}
			return err
		}

		var incomplete int
		if err := tx.QueryRow(ctx, qCountIncomplete, id).Scan(&incomplete); err != nil {
			return err
		}
		if incomplete > 0 {
			return &errors.IncompleteTasksError{Count: incomplete}
		}

		ct, err := tx.Exec(ctx, qDeleteCompletedTask, id)
		if err != nil {
			return err
		}
		removedTasks = ct.RowsAffected()

		if _, err := tx.Exec(ctx, qDeleteAssigner, id); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, errors.ErrAssignerNotFound), errors.Is(err, errors.ErrIncompleteTasks):
			return 0, err
		case pgErrCode(err) == pgForeignKeyViolation:
			return 0, fmt.Errorf("delete assigner %d: %w", id, errors.ErrIncompleteTasks)
		}
		s.log.Error("Delete assigner transaction rolled back", zap.Int64("assigner_id", id), zap.Error(err))
		return 0, err
	}

	s.log.Info("Assigner deleted",
		zap.Int64("assigner_id", id),
		zap.Int64("completed_tasks_removed", removedTasks),
	)
	return removedTasks, nil
}

func (s *Storage) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	ctx, done := s.begin(ctx, "list_tasks")
	defer done()

	var (
		conds []string
		args  []any
	)
	if filter.AssignerID != nil {
		args = append(args, *filter.AssignerID)
		conds = append(conds, fmt.Sprintf("t.assigner_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if filter.DueBefore != nil {
		args = append(args, filter.DueBefore.Time)
		conds = append(conds, fmt.Sprintf("t.due_date <= $%d", len(args)))
	}

	query := qSelectTasks
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY t.due_date ASC, t.id ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		s.log.Error("Failed to query tasks", zap.Error(err))
		return nil, err
	}
	tasks, err := pgx.CollectRows(rows, scanTask)
	if err != nil {
		s.log.Error("Failed to scan tasks", zap.Error(err))
		return nil, err
	}
	s.log.Debug("Tasks listed", zap.Int("count", len(tasks)))
	return tasks, nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	ctx, done := s.begin(ctx, "get_task")
	defer done()

	rows, err := s.pool.Query(ctx, qSelectTasks+" WHERE t.id = $1", id)
	if err != nil {
		s.log.Error("Failed to get task", zap.Int64("task_id", id), zap.Error(err))
		return nil, err
	}
	return s.collectOneTask(rows, id)
}

func (s *Storage) CreateTask(ctx context.Context, t *models.Task) error {
	ctx, done := s.begin(ctx, "create_task")
	defer done()

	rows, err := s.pool.Query(ctx, qCreateTask, t.Title, t.Description, t.Status, t.DueDate.Time, t.AssignerID)
	var created models.Task
	if err == nil {
		created, err = pgx.CollectExactlyOneRow(rows, scanTask)
	}
	if err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return errors.ErrAssignerNotFound
		}
		s.log.Error("Failed to create task", zap.Int64("assigner_id", t.AssignerID), zap.Error(err))
		return err
	}
	*t = created
	s.log.Info("Task created", zap.Int64("task_id", t.ID), zap.Int64("assigner_id", t.AssignerID))
	return nil
}

func (s *Storage) UpdateTask(ctx context.Context, id int64, t *models.Task) error {
	ctx, done := s.begin(ctx, "update_task")
	defer done()

	rows, err := s.pool.Query(ctx, qUpdateTask, t.Title, t.Description, t.Status, t.DueDate.Time, id)
	if err != nil {
		s.log.Error("Failed to update task", zap.Int64("task_id", id), zap.Error(err))
		return err
	}
	updated, err := s.collectOneTask(rows, id)
	if err != nil {
		return err
	}
	*t = *updated
	s.log.Info("Task updated", zap.Int64("task_id", id))
	return nil
}

func (s *Storage) UpdateTaskStatus(ctx context.Context, id int64, status string) (*models.Task, error) {
	ctx, done := s.begin(ctx, "update_task_status")
	defer done()

	rows, err := s.pool.Query(ctx, qUpdateTaskStatus, status, id)
	if err != nil {
		s.log.Error("Failed to update task status", zap.Int64("task_id", id), zap.Error(err))
		return nil, err
	}
	t, err := s.collectOneTask(rows, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("Task status updated", zap.Int64("task_id", id), zap.String("status", status))
	return t, nil
}

func (s *Storage) DeleteTask(ctx context.Context, id int64) error {
	ctx, done := s.begin(ctx, "delete_task")
	defer done()

	ct, err := s.pool.Exec(ctx, qDeleteTask, id)
	if err != nil {
		s.log.Error("Failed to delete task", zap.Int64("task_id", id), zap.Error(err))
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrTaskNotFound
	}
	s.log.Info("Task deleted", zap.Int64("task_id", id))
	return nil
}

func (s *Storage) TaskCountsByStatus(ctx context.Context) (map[string]int64, error) {
	ctx, done := s.begin(ctx, "count_by_status")
	defer done()

	rows, err := s.pool.Query(ctx, qCountByStatus)
	if err != nil {
		s.log.Error("Failed to count tasks by status", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (s *Storage) TaskCountsByAssigner(ctx context.Context) ([]models.AssignerTaskCount, error) {
	ctx, done := s.begin(ctx, "count_by_assigner")
	defer done()

	rows, err := s.pool.Query(ctx, qCountByAssigner)
	if err != nil {
		s.log.Error("Failed to count tasks by assigner", zap.Error(err))
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.AssignerTaskCount, error) {
		var c models.AssignerTaskCount
		err := row.Scan(&c.AssignerID, &c.AssignerName, &c.TotalTasks, &c.CompletedTasks)
		return c, err
	})
}

func (s *Storage) collectOneTask(rows pgx.Rows, id int64) (*models.Task, error) {
	t, err := pgx.CollectExactlyOneRow(rows, scanTask)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrTaskNotFound
		}
		s.log.Error("Failed to read task", zap.Int64("task_id", id), zap.Error(err))
		return nil, err
	}
	return &t, nil
}

func scanTask(row pgx.CollectableRow) (models.Task, error) {
	var (
		t   models.Task
		due time.Time
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &due, &t.AssignerID,
		&t.Assigner.Name, &t.Assigner.Email, &t.CreatedAt, &t.UpdatedAt)
	t.DueDate = models.NewDate(due)
	return t, err
}

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
