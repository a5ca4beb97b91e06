package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusclock/timeblock/pkg/solver"
)

func TestParseSolution_MapsPresenceToTimes(t *testing.T) {
	// Given two tasks the solver placed on Monday
	req := validatedRequest(1, simpleTask("a", 60), simpleTask("b", 30))
	model := BuildModel(req, 1)
	objective := 210
	resp := &solver.Response{
		Status:         solver.StatusOptimal,
		ObjectiveValue: &objective,
		WallTime:       0.05,
		Intervals: []solver.IntervalValue{
			{ID: "task_b", Start: 600, End: 630, Presence: true},
			{ID: "task_a", Start: 540, End: 600, Presence: true},
		},
	}

	// When parsing the solution
	result := ParseSolution(req, model, resp)

	// Then every task carries concrete times anchored at the base date
	require.Len(t, result.Tasks, 2)
	assert.Equal(t, "a", result.Tasks[0].ID)
	assert.Equal(t, baseMonday.Add(9*time.Hour), result.Tasks[0].Start)
	assert.Equal(t, baseMonday.Add(10*time.Hour), result.Tasks[0].End)
	assert.Equal(t, "b", result.Tasks[1].ID)

	assert.Equal(t, StatusOptimal, result.Status)
	assert.Equal(t, 1.0, result.SuccessRate)
	assert.Empty(t, result.UnscheduledTaskIDs)
	require.NotNil(t, result.ObjectiveValue)
	assert.Equal(t, 210, *result.ObjectiveValue)
	assert.Equal(t, 0.05, result.SolverWallTime)
}

func TestParseSolution_PartialPlacement(t *testing.T) {
	// Given the solver dropped one of two optional tasks
	req := validatedRequest(1, simpleTask("a", 60), simpleTask("b", 30))
	model := BuildModel(req, 1)
	resp := &solver.Response{
		Status: solver.StatusFeasible,
		Intervals: []solver.IntervalValue{
			{ID: "task_a", Start: 540, End: 600, Presence: true},
			{ID: "task_b", Presence: false},
		},
	}

	// When parsing the solution
	result := ParseSolution(req, model, resp)

	// Then the dropped task is reported unscheduled and the rate reflects it
	assert.Equal(t, 0.5, result.SuccessRate)
	assert.Equal(t, StatusImpossible, result.Status)
	assert.Equal(t, []string{"b"}, result.UnscheduledTaskIDs)
}

func TestParseSolution_SolverFailure(t *testing.T) {
	// Given an infeasible solver outcome
	req := validatedRequest(1, simpleTask("a", 60), simpleTask("b", 30))
	model := BuildModel(req, 1)
	resp := &solver.Response{Status: solver.StatusInfeasible}

	// When parsing the solution
	result := ParseSolution(req, model, resp)

	// Then the run is impossible with every task unscheduled
	assert.Equal(t, StatusImpossible, result.Status)
	assert.Empty(t, result.Tasks)
	assert.Equal(t, []string{"a", "b"}, result.UnscheduledTaskIDs)
	assert.Zero(t, result.SuccessRate)
}

func TestParseSolution_ExcludedTaskStaysUnscheduled(t *testing.T) {
	// Given one task too large for the horizon
	req := validatedRequest(1, simpleTask("huge", 2000), simpleTask("a", 60))
	model := BuildModel(req, 1)
	resp := &solver.Response{
		Status: solver.StatusOptimal,
		Intervals: []solver.IntervalValue{
			{ID: "task_a", Start: 540, End: 600, Presence: true},
		},
	}

	// When parsing the solution
	result := ParseSolution(req, model, resp)

	// Then the excluded task counts against the success rate
	assert.Equal(t, 0.5, result.SuccessRate)
	assert.Equal(t, []string{"huge"}, result.UnscheduledTaskIDs)
}

func TestParseSolution_SortsByStartThenID(t *testing.T) {
	// Given two tasks placed at the same instant
	req := validatedRequest(1, simpleTask("b", 30), simpleTask("a", 60))
	model := BuildModel(req, 1)
	resp := &solver.Response{
		Status: solver.StatusOptimal,
		Intervals: []solver.IntervalValue{
			{ID: "task_b", Start: 540, End: 570, Presence: true},
			{ID: "task_a", Start: 540, End: 600, Presence: true},
		},
	}

	// When parsing the solution
	result := ParseSolution(req, model, resp)

	// Then ties break on id for stable output
	require.Len(t, result.Tasks, 2)
	assert.Equal(t, "a", result.Tasks[0].ID)
	assert.Equal(t, "b", result.Tasks[1].ID)
}

func TestClassify_Thresholds(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want Status
	}{
		{"full placement is optimal", 1.0, StatusOptimal},
		{"nine of ten is optimal", 0.9, StatusOptimal},
		{"eight of ten is feasible", 0.8, StatusFeasible},
		{"seven of ten is impossible", 0.7, StatusImpossible},
		{"nothing placed is impossible", 0, StatusImpossible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.rate))
		})
	}
}

func TestSuccessRate_EmptyRequest(t *testing.T) {
	// Given nothing to schedule
	// Then the rate is trivially perfect
	assert.Equal(t, 1.0, successRate(0, 0))
	assert.Equal(t, 0.25, successRate(1, 4))
}
