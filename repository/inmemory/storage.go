package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"taskadmin/internal/domain/errors"
	"taskadmin/internal/domain/models"
)

// Storage keeps assigners and tasks in maps guarded by one mutex. It is used
// when PostgreSQL is unreachable and in tests.
type Storage struct {
	mu        sync.RWMutex
	assigners map[int64]models.Assigner
	tasks     map[int64]models.Task
	nextAsgID int64
	nextTskID int64
	now       func() time.Time
}

func NewStorage() *Storage {
	return &Storage{
		assigners: make(map[int64]models.Assigner),
		tasks:     make(map[int64]models.Task),
		now:       time.Now,
	}
}

func (s *Storage) ListAssigners(_ context.Context) ([]models.AssignerSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AssignerSummary, 0, len(s.assigners))
	for _, a := range s.assigners {
		out = append(out, models.AssignerSummary{ID: a.ID, Name: a.Name, Email: a.Email})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Storage) GetAssignerByID(_ context.Context, id int64) (*models.Assigner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assigners[id]
	if !ok {
		return nil, errors.ErrAssignerNotFound
	}
	return &a, nil
}

func (s *Storage) GetAssignerByEmail(_ context.Context, email string) (*models.Assigner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.assignerByEmail(email); ok {
		return &a, nil
	}
	return nil, errors.ErrAssignerNotFound
}

func (s *Storage) CreateAssigner(_ context.Context, a *models.Assigner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.assignerByEmail(a.Email); taken {
		return errors.ErrEmailInUse
	}
	s.nextAsgID++
	now := s.now().UTC()
	a.ID = s.nextAsgID
	a.CreatedAt = now
	a.UpdatedAt = now
	s.assigners[a.ID] = *a
	return nil
}

func (s *Storage) UpdateAssigner(_ context.Context, id int64, a *models.Assigner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.assigners[id]
	if !ok {
		return errors.ErrAssignerNotFound
	}
	if other, taken := s.assignerByEmail(a.Email); taken && other.ID != id {
		return errors.ErrEmailInUse
	}
	existing.Name = a.Name
	existing.Email = a.Email
	existing.UpdatedAt = s.now().UTC()
	s.assigners[id] = existing
	*a = existing
	s.refreshContacts(existing)
	return nil
}

func (s *Storage) GetAssignerTaskRefs(_ context.Context, id int64) ([]models.TaskRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.assigners[id]; !ok {
		return nil, errors.ErrAssignerNotFound
	}
	return s.taskRefs(id), nil
}

// DeleteAssigner removes the assigner and its completed tasks under a single
// lock, refusing while any of its tasks is not completed.
func (s *Storage) DeleteAssigner(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assigners[id]; !ok {
		return 0, errors.ErrAssignerNotFound
	}
	refs := s.taskRefs(id)
	if n := models.CountIncomplete(refs); n > 0 {
		return 0, &errors.IncompleteTasksError{Count: n}
	}
	for _, r := range refs {
		delete(s.tasks, r.ID)
	}
	delete(s.assigners, id)
	return int64(len(refs)), nil
}

func (s *Storage) ListTasks(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Task{}
	for _, t := range s.tasks {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate.Time) {
			return out[i].DueDate.Before(out[j].DueDate.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Storage) GetTaskByID(_ context.Context, id int64) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, errors.ErrTaskNotFound
	}
	return &t, nil
}

func (s *Storage) CreateTask(_ context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assigners[t.AssignerID]
	if !ok {
		return errors.ErrAssignerNotFound
	}
	s.nextTskID++
	now := s.now().UTC()
	t.ID = s.nextTskID
	t.Assigner = models.AssignerContact{Name: a.Name, Email: a.Email}
	t.CreatedAt = now
	t.UpdatedAt = now
	s.tasks[t.ID] = *t
	return nil
}

func (s *Storage) UpdateTask(_ context.Context, id int64, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tasks[id]
	if !ok {
		return errors.ErrTaskNotFound
	}
	existing.Title = t.Title
	existing.Description = t.Description
	existing.Status = t.Status
	existing.DueDate = t.DueDate
	existing.UpdatedAt = s.now().UTC()
	s.tasks[id] = existing
	*t = existing
	return nil
}

func (s *Storage) UpdateTaskStatus(_ context.Context, id int64, status string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tasks[id]
	if !ok {
		return nil, errors.ErrTaskNotFound
	}
	existing.Status = status
	existing.UpdatedAt = s.now().UTC()
	s.tasks[id] = existing
	return &existing, nil
}

func (s *Storage) DeleteTask(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return errors.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *Storage) TaskCountsByStatus(_ context.Context) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, t := range s.tasks {
		counts[t.Status]++
	}
	return counts, nil
}

func (s *Storage) TaskCountsByAssigner(_ context.Context) ([]models.AssignerTaskCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[int64]*models.AssignerTaskCount, len(s.assigners))
	for id, a := range s.assigners {
		byID[id] = &models.AssignerTaskCount{AssignerID: id, AssignerName: a.Name}
	}
	for _, t := range s.tasks {
		c, ok := byID[t.AssignerID]
		if !ok || !models.IsValidStatus(t.Status) {
			continue
		}
		c.TotalTasks++
		if t.Status == models.StatusCompleted {
			c.CompletedTasks++
		}
	}

	out := make([]models.AssignerTaskCount, 0, len(byID))
	for _, c := range byID {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignerID < out[j].AssignerID })
	return out, nil
}

func (s *Storage) assignerByEmail(email string) (models.Assigner, bool) {
	for _, a := range s.assigners {
		if a.Email == email {
			return a, true
		}
	}
	return models.Assigner{}, false
}

func (s *Storage) taskRefs(assignerID int64) []models.TaskRef {
	var refs []models.TaskRef
	for _, t := range s.tasks {
		if t.AssignerID == assignerID {
			refs = append(refs, models.TaskRef{ID: t.ID, Status: t.Status})
		}
	}
	return refs
}

// refreshContacts keeps the denormalised assigner contact on tasks in step
// with the assigner row, as a join would.
func (s *Storage) refreshContacts(a models.Assigner) {
	for id, t := range s.tasks {
		if t.AssignerID == a.ID {
			t.Assigner = models.AssignerContact{Name: a.Name, Email: a.Email}
			s.tasks[id] = t
		}
	}
}
