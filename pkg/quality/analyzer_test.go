package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusclock/timeblock/pkg/schedule"
)

var monday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func analyzerRequest(tasks ...schedule.Task) *schedule.ValidatedRequest {
	req := &schedule.ValidatedRequest{
		TimeHorizonDays: 5,
		Tasks:           tasks,
		BaseDate:        monday,
		CurrentTime:     monday.Add(8 * time.Hour),
	}
	// High energy in the morning, fading through the day
	for hour := 0; hour < schedule.HoursPerDay; hour++ {
		switch {
		case hour >= 9 && hour < 12:
			req.EnergyProfile[hour] = 0.9
		case hour >= 12 && hour < 15:
			req.EnergyProfile[hour] = 0.7
		default:
			req.EnergyProfile[hour] = 0.3
		}
	}
	return req
}

func placed(id string, dayOffset, hour, durationMinutes int) schedule.ScheduledTask {
	start := monday.AddDate(0, 0, dayOffset).Add(time.Duration(hour) * time.Hour)
	return schedule.ScheduledTask{
		ID:    id,
		Start: start,
		End:   start.Add(time.Duration(durationMinutes) * time.Minute),
	}
}

func TestAnalyzeEnergy_ClassifiesStartHours(t *testing.T) {
	// Given complex tasks at high, medium, and low energy hours plus one
	// routine task
	req := analyzerRequest(
		schedule.Task{ID: "deep", Complexity: 0.9, Location: "Office"},
		schedule.Task{ID: "medium", Complexity: 0.6, Location: "Office"},
		schedule.Task{ID: "tired", Complexity: 0.8, Location: "Office"},
		schedule.Task{ID: "routine", Complexity: 0.2, Location: "Office"},
	)
	tasks := []schedule.ScheduledTask{
		placed("deep", 0, 9, 60),
		placed("medium", 0, 13, 60),
		placed("tired", 0, 17, 60),
		placed("routine", 0, 18, 60),
	}

	// When analyzing
	report := Analyze(req, tasks)

	// Then only complex tasks are counted and rated by their start hour
	assert.Equal(t, 3, report.EnergyMatch.TotalComplex)
	assert.Equal(t, 1, report.EnergyMatch.PerfectMatches)
	assert.Equal(t, 1, report.EnergyMatch.GoodMatches)
	assert.Equal(t, 1, report.EnergyMatch.PoorMatches)
	assert.InDelta(t, 1.0/3.0, report.EnergyMatch.MatchRate, 1e-9)
}

func TestAnalyzeEnergy_NoComplexTasks(t *testing.T) {
	// Given only routine tasks
	req := analyzerRequest(schedule.Task{ID: "routine", Complexity: 0.1, Location: "Office"})

	// When analyzing
	report := Analyze(req, []schedule.ScheduledTask{placed("routine", 0, 9, 30)})

	// Then the match rate stays zero instead of dividing by zero
	assert.Zero(t, report.EnergyMatch.TotalComplex)
	assert.Zero(t, report.EnergyMatch.MatchRate)
}

func TestAnalyzeLocations_Clustering(t *testing.T) {
	// Given three Office tasks on one day and two Lab tasks spread over
	// two days
	req := analyzerRequest(
		schedule.Task{ID: "o1", Complexity: 0.5, Location: "Office"},
		schedule.Task{ID: "o2", Complexity: 0.5, Location: "Office"},
		schedule.Task{ID: "o3", Complexity: 0.5, Location: "Office"},
		schedule.Task{ID: "l1", Complexity: 0.5, Location: "Lab"},
		schedule.Task{ID: "l2", Complexity: 0.5, Location: "Lab"},
	)
	tasks := []schedule.ScheduledTask{
		placed("o1", 0, 9, 60),
		placed("o2", 0, 10, 60),
		placed("o3", 0, 11, 60),
		placed("l1", 1, 9, 60),
		placed("l2", 2, 9, 60),
	}

	// When analyzing
	report := Analyze(req, tasks)

	// Then clusters are sorted by location with per-location efficiency
	clusters := report.LocationClustering.Clusters
	require.Len(t, clusters, 2)

	assert.Equal(t, "Lab", clusters[0].Location)
	assert.Equal(t, 2, clusters[0].TaskCount)
	assert.Equal(t, 2, clusters[0].DaysUsed)
	assert.Equal(t, 0.5, clusters[0].Efficiency)
	assert.False(t, clusters[0].Clustered)

	assert.Equal(t, "Office", clusters[1].Location)
	assert.Equal(t, 3, clusters[1].TaskCount)
	assert.Equal(t, 1, clusters[1].DaysUsed)
	assert.Equal(t, 1.0, clusters[1].Efficiency)
	assert.True(t, clusters[1].Clustered)

	assert.Equal(t, 0.75, report.LocationClustering.Efficiency)
}

func TestAnalyzeBalance_EvenSpread(t *testing.T) {
	// Given identical workloads on two days
	req := analyzerRequest(
		schedule.Task{ID: "a", Complexity: 0.5, Location: "Office"},
		schedule.Task{ID: "b", Complexity: 0.5, Location: "Office"},
	)
	tasks := []schedule.ScheduledTask{
		placed("a", 0, 9, 120),
		placed("b", 1, 9, 120),
	}

	// When analyzing
	report := Analyze(req, tasks)

	// Then the spread is perfectly balanced
	balance := report.WorkloadBalance
	assert.Equal(t, 120, balance.DailyMinutes["2025-06-02"])
	assert.Equal(t, 120, balance.DailyMinutes["2025-06-03"])
	assert.Equal(t, 120.0, balance.AverageDailyWorkload)
	assert.Zero(t, balance.BalanceScore)
}

func TestAnalyzeBalance_UnevenSpread(t *testing.T) {
	// Given 240 minutes on one day and 40 on another
	req := analyzerRequest(
		schedule.Task{ID: "a", Complexity: 0.5, Location: "Office"},
		schedule.Task{ID: "b", Complexity: 0.5, Location: "Office"},
	)
	tasks := []schedule.ScheduledTask{
		placed("a", 0, 9, 240),
		placed("b", 1, 9, 40),
	}

	// When analyzing
	report := Analyze(req, tasks)

	// Then the balance score is the population standard deviation
	assert.Equal(t, 140.0, report.WorkloadBalance.AverageDailyWorkload)
	assert.Equal(t, 100.0, report.WorkloadBalance.BalanceScore)
}

func TestOverallScore_PerfectSchedule(t *testing.T) {
	// Given one complex task on the best hour, fully clustered, one day
	req := analyzerRequest(
		schedule.Task{ID: "a", Complexity: 0.9, Location: "Office"},
		schedule.Task{ID: "b", Complexity: 0.9, Location: "Office"},
	)
	tasks := []schedule.ScheduledTask{
		placed("a", 0, 9, 60),
		placed("b", 0, 10, 60),
	}

	// When analyzing
	report := Analyze(req, tasks)

	// Then energy (4) plus clustering (3) plus balance (3) reach the cap
	assert.Equal(t, 10.0, report.OverallScore)
}

func TestAnalyze_EmptySchedule(t *testing.T) {
	// Given no scheduled tasks
	req := analyzerRequest(schedule.Task{ID: "a", Complexity: 0.9, Location: "Office"})

	// When analyzing
	report := Analyze(req, nil)

	// Then all scores degrade gracefully
	assert.Zero(t, report.EnergyMatch.TotalComplex)
	assert.Empty(t, report.LocationClustering.Clusters)
	assert.Zero(t, report.WorkloadBalance.BalanceScore)
	assert.Equal(t, 3.0, report.OverallScore)
}
