// Package quality scores how well a parsed schedule satisfies soft
// preferences: energy/complexity matching, location clustering, and daily
// workload balance. None of these are feasibility requirements.
package quality

import (
	"math"
	"sort"
	"time"

	"github.com/campusclock/timeblock/pkg/schedule"
)

// Energy-profile thresholds for classifying a complex task's start hour
const (
	perfectEnergy = 0.8
	goodEnergy    = 0.6
	// complexityCutoff separates mentally demanding tasks from routine ones
	complexityCutoff = 0.5
)

// EnergyMatch reports how well complex tasks landed on high-energy hours
type EnergyMatch struct {
	PerfectMatches int     `json:"perfect_matches"`
	GoodMatches    int     `json:"good_matches"`
	PoorMatches    int     `json:"poor_matches"`
	TotalComplex   int     `json:"total_complex"`
	MatchRate      float64 `json:"match_rate"`
}

// LocationCluster reports scheduling density for one location
type LocationCluster struct {
	Location   string  `json:"location"`
	TaskCount  int     `json:"task_count"`
	DaysUsed   int     `json:"days_used"`
	Efficiency float64 `json:"efficiency"`
	Clustered  bool    `json:"clustered"`
}

// LocationClustering reports how compressed same-location tasks are
type LocationClustering struct {
	Clusters   []LocationCluster `json:"clusters"`
	Efficiency float64           `json:"efficiency"`
}

// WorkloadBalance reports how evenly scheduled minutes spread across days
type WorkloadBalance struct {
	DailyMinutes         map[string]int `json:"daily_minutes"`
	AverageDailyWorkload float64        `json:"average_daily_workload"`
	BalanceScore         float64        `json:"balance_score"`
}

// Report aggregates every soft-constraint score for one schedule
type Report struct {
	EnergyMatch        EnergyMatch        `json:"energy_match"`
	LocationClustering LocationClustering `json:"location_clustering"`
	WorkloadBalance    WorkloadBalance    `json:"workload_balance"`
	OverallScore       float64            `json:"overall_score"`
}

// Analyze computes soft-constraint scores over the scheduled tasks. Tasks
// that were not placed do not participate.
func Analyze(req *schedule.ValidatedRequest, tasks []schedule.ScheduledTask) *Report {
	report := &Report{
		EnergyMatch:        analyzeEnergy(req, tasks),
		LocationClustering: analyzeLocations(req, tasks),
		WorkloadBalance:    analyzeBalance(tasks),
	}
	report.OverallScore = overallScore(report)
	return report
}

func analyzeEnergy(req *schedule.ValidatedRequest, tasks []schedule.ScheduledTask) EnergyMatch {
	var match EnergyMatch
	for _, placed := range tasks {
		task := req.TaskByID(placed.ID)
		if task == nil || task.Complexity < complexityCutoff {
			continue
		}
		match.TotalComplex++

		energy := req.EnergyProfile[placed.Start.Hour()]
		switch {
		case energy >= perfectEnergy:
			match.PerfectMatches++
		case energy >= goodEnergy:
			match.GoodMatches++
		default:
			match.PoorMatches++
		}
	}
	if match.TotalComplex > 0 {
		match.MatchRate = float64(match.PerfectMatches) / float64(match.TotalComplex)
	}
	return match
}

func analyzeLocations(req *schedule.ValidatedRequest, tasks []schedule.ScheduledTask) LocationClustering {
	type locationDays struct {
		count int
		days  map[string]bool
	}
	byLocation := make(map[string]*locationDays)

	for _, placed := range tasks {
		task := req.TaskByID(placed.ID)
		if task == nil {
			continue
		}
		entry := byLocation[task.Location]
		if entry == nil {
			entry = &locationDays{days: make(map[string]bool)}
			byLocation[task.Location] = entry
		}
		entry.count++
		entry.days[dayKey(placed.Start)] = true
	}

	var clustering LocationClustering
	totalEfficiency := 0.0
	for location, entry := range byLocation {
		daysUsed := len(entry.days)
		efficiency := 1.0 / float64(daysUsed)
		totalEfficiency += efficiency
		clustering.Clusters = append(clustering.Clusters, LocationCluster{
			Location:   location,
			TaskCount:  entry.count,
			DaysUsed:   daysUsed,
			Efficiency: efficiency,
			Clustered:  entry.count > 1 && float64(daysUsed) <= float64(entry.count)/2,
		})
	}
	sort.Slice(clustering.Clusters, func(i, j int) bool {
		return clustering.Clusters[i].Location < clustering.Clusters[j].Location
	})
	if len(byLocation) > 0 {
		clustering.Efficiency = totalEfficiency / float64(len(byLocation))
	}
	return clustering
}

func analyzeBalance(tasks []schedule.ScheduledTask) WorkloadBalance {
	balance := WorkloadBalance{DailyMinutes: make(map[string]int)}
	for _, placed := range tasks {
		balance.DailyMinutes[dayKey(placed.Start)] += int(placed.End.Sub(placed.Start) / time.Minute)
	}
	if len(balance.DailyMinutes) == 0 {
		return balance
	}

	total := 0
	for _, minutes := range balance.DailyMinutes {
		total += minutes
	}
	mean := float64(total) / float64(len(balance.DailyMinutes))

	variance := 0.0
	for _, minutes := range balance.DailyMinutes {
		diff := float64(minutes) - mean
		variance += diff * diff
	}
	variance /= float64(len(balance.DailyMinutes))

	balance.AverageDailyWorkload = mean
	// Population standard deviation; lower means a more even spread
	balance.BalanceScore = math.Sqrt(variance)
	return balance
}

// overallScore combines the three soft scores into a 0-10 rating
func overallScore(r *Report) float64 {
	score := r.EnergyMatch.MatchRate * 4
	score += math.Min(r.LocationClustering.Efficiency*3, 3)
	score += math.Max(0, 3-r.WorkloadBalance.BalanceScore/100)
	return math.Min(10, score)
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
