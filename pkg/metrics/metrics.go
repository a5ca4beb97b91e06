// Package metrics records telemetry about scheduling runs: how many horizon
// attempts were made, how long each took, and how the run ended.
package metrics

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AttemptMetric represents one horizon attempt within a scheduling run
type AttemptMetric struct {
	HorizonDays    int           `json:"horizon_days"`
	Status         string        `json:"status"`
	SuccessRate    float64       `json:"success_rate"`
	SolverWallTime float64       `json:"solver_wall_time"`
	Duration       time.Duration `json:"-"`
}

// DurationSeconds returns the attempt duration in seconds as a float64
func (a *AttemptMetric) DurationSeconds() float64 {
	return float64(a.Duration) / float64(time.Second)
}

// MarshalJSON implements custom JSON marshaling for AttemptMetric
func (a *AttemptMetric) MarshalJSON() ([]byte, error) {
	type Alias AttemptMetric
	return json.Marshal(&struct {
		DurationSeconds float64 `json:"duration_seconds"`
		*Alias
	}{
		DurationSeconds: a.DurationSeconds(),
		Alias:           (*Alias)(a),
	})
}

// RunMetrics represents metrics for a complete scheduling run
type RunMetrics struct {
	RunID                string          `json:"run_id"`
	TaskCount            int             `json:"task_count"`
	ScheduledCount       int             `json:"scheduled_count"`
	FinalStatus          string          `json:"final_status"`
	SuccessRate          float64         `json:"success_rate"`
	TotalDurationSeconds float64         `json:"total_duration_seconds"`
	TotalAttempts        int             `json:"total_attempts"`
	Attempts             []AttemptMetric `json:"attempts"`
	Timestamp            int64           `json:"timestamp"`
}

// NewRunMetrics creates a new RunMetrics instance with a fresh run id
func NewRunMetrics(taskCount, scheduledCount int, finalStatus string, successRate float64, totalDuration time.Duration, attempts []AttemptMetric) *RunMetrics {
	return &RunMetrics{
		RunID:                uuid.NewString(),
		TaskCount:            taskCount,
		ScheduledCount:       scheduledCount,
		FinalStatus:          finalStatus,
		SuccessRate:          successRate,
		TotalDurationSeconds: float64(totalDuration) / float64(time.Second),
		TotalAttempts:        len(attempts),
		Attempts:             attempts,
		Timestamp:            time.Now().Unix(),
	}
}
