package models

import "math"

// StatusStats is the task count per status plus their sum.
type StatusStats struct {
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Completed  int64 `json:"completed"`
	TotalTasks int64 `json:"total_tasks"`
}

// NewStatusStats folds grouped counts into the three buckets. Unknown keys
// are ignored; missing buckets stay zero.
func NewStatusStats(counts map[string]int64) StatusStats {
	s := StatusStats{
		Pending:    counts[StatusPending],
		InProgress: counts[StatusInProgress],
		Completed:  counts[StatusCompleted],
	}
	s.TotalTasks = s.Pending + s.InProgress + s.Completed
	return s
}

// AssignerTaskCount is the raw per-assigner aggregate read from storage.
type AssignerTaskCount struct {
	AssignerID     int64
	AssignerName   string
	TotalTasks     int64
	CompletedTasks int64
}

type AssignerStats struct {
	AssignerID     int64  `json:"assigner_id"`
	AssignerName   string `json:"assigner_name"`
	TotalTasks     int64  `json:"total_tasks"`
	CompletedTasks int64  `json:"completed_tasks"`
	// PendingTasks is everything not completed, in_progress included.
	PendingTasks   int64 `json:"pending_tasks"`
	CompletionRate int64 `json:"completion_rate"`
}

func NewAssignerStats(c AssignerTaskCount) AssignerStats {
	return AssignerStats{
		AssignerID:     c.AssignerID,
		AssignerName:   c.AssignerName,
		TotalTasks:     c.TotalTasks,
		CompletedTasks: c.CompletedTasks,
		PendingTasks:   c.TotalTasks - c.CompletedTasks,
		CompletionRate: CompletionRate(c.CompletedTasks, c.TotalTasks),
	}
}

// CompletionRate returns completed/total as a rounded percentage, 0 when total is 0.
func CompletionRate(completed, total int64) int64 {
	if total <= 0 {
		return 0
	}
	return int64(math.Round(float64(completed) / float64(total) * 100))
}

// CountIncomplete returns how many refs are not in the completed state.
func CountIncomplete(refs []TaskRef) int {
	n := 0
	for _, r := range refs {
		if r.Status != StatusCompleted {
			n++
		}
	}
	return n
}
