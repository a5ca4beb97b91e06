package planner

import (
	"sort"
	"time"

	"github.com/campusclock/timeblock/pkg/metrics"
	"github.com/campusclock/timeblock/pkg/quality"
	"github.com/campusclock/timeblock/pkg/schedule"
	"github.com/campusclock/timeblock/pkg/solver"
)

// Status is the overall outcome of a scheduling run
type Status string

const (
	// StatusOptimal means at least 90% of tasks were placed
	StatusOptimal Status = "optimal"
	// StatusFeasible means at least 80% of tasks were placed
	StatusFeasible Status = "feasible"
	// StatusImpossible means the solver found no acceptable placement.
	// It is a normal terminal status, not an error.
	StatusImpossible Status = "impossible"
	// StatusError means the run ended without a meaningful attempt
	StatusError Status = "error"
)

// Success-rate thresholds for status classification
const (
	optimalRate  = 0.9
	feasibleRate = 0.8
)

// Result is the outcome of one scheduling run returned to the caller
type Result struct {
	Status             Status                   `json:"status"`
	SuccessRate        float64                  `json:"success_rate"`
	Tasks              []schedule.ScheduledTask `json:"tasks"`
	UnscheduledTaskIDs []string                 `json:"unscheduled_task_ids,omitempty"`
	AttemptCount       int                      `json:"attempt_count"`
	HorizonDays        int                      `json:"horizon_days"`
	ObjectiveValue     *int                     `json:"objective_value,omitempty"`
	SolverWallTime     float64                  `json:"solver_wall_time,omitempty"`
	Quality            *quality.Report          `json:"quality,omitempty"`
	Metrics            *metrics.RunMetrics      `json:"-"`
}

// ParseSolution maps a solver response back to concrete scheduled tasks and
// classifies the overall status.
func ParseSolution(req *schedule.ValidatedRequest, model *Model, resp *solver.Response) *Result {
	result := &Result{HorizonDays: model.HorizonDays}

	if !resp.Status.Succeeded() {
		result.Status = StatusImpossible
		result.UnscheduledTaskIDs = allTaskIDs(req)
		return result
	}

	intervals := resp.IntervalsByID()
	scheduled := make(map[string]bool, len(model.TaskVars))

	for taskID, vars := range model.TaskVars {
		iv, ok := intervals[vars.IntervalID]
		if !ok || !iv.Presence {
			continue
		}
		scheduled[taskID] = true
		result.Tasks = append(result.Tasks, schedule.ScheduledTask{
			ID:    taskID,
			Start: req.BaseDate.Add(time.Duration(iv.Start) * time.Minute),
			End:   req.BaseDate.Add(time.Duration(iv.End) * time.Minute),
		})
	}

	// Map iteration order is random; sort for deterministic output
	sort.Slice(result.Tasks, func(i, j int) bool {
		if !result.Tasks[i].Start.Equal(result.Tasks[j].Start) {
			return result.Tasks[i].Start.Before(result.Tasks[j].Start)
		}
		return result.Tasks[i].ID < result.Tasks[j].ID
	})

	for _, task := range req.Tasks {
		if !scheduled[task.ID] {
			result.UnscheduledTaskIDs = append(result.UnscheduledTaskIDs, task.ID)
		}
	}

	result.SuccessRate = successRate(len(result.Tasks), len(req.Tasks))
	result.Status = classify(result.SuccessRate)
	result.ObjectiveValue = resp.ObjectiveValue
	result.SolverWallTime = resp.WallTime
	return result
}

func successRate(scheduled, total int) float64 {
	if total == 0 {
		return 1
	}
	return float64(scheduled) / float64(total)
}

func classify(rate float64) Status {
	switch {
	case rate >= optimalRate:
		return StatusOptimal
	case rate >= feasibleRate:
		return StatusFeasible
	default:
		return StatusImpossible
	}
}

func allTaskIDs(req *schedule.ValidatedRequest) []string {
	ids := make([]string, len(req.Tasks))
	for i, task := range req.Tasks {
		ids[i] = task.ID
	}
	return ids
}
