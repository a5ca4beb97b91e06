package schedule

import (
	"time"
)

// Scheduling time granularity constants
const (
	// MinTaskDurationMinutes is the floor applied to every task duration
	MinTaskDurationMinutes = 15
	// MinutesPerDay is the length of one horizon day in minutes
	MinutesPerDay = 24 * 60
	// HoursPerDay is the length of the energy profile
	HoursPerDay = 24
	// WeekdayCount is the required number of working-hour entries (index 0 = Monday)
	WeekdayCount = 7
)

// Defaults applied during validation
const (
	DefaultLocation   = "Office"
	DefaultComplexity = 0.5
)

// TaskInput is a raw work item as supplied by the caller, before validation.
// Optional fields are pointers so that "absent" is distinguishable from zero.
type TaskInput struct {
	ID              string     `json:"id"`
	Priority        float64    `json:"priority"`
	DurationMinutes float64    `json:"duration_minutes"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	Complexity      *float64   `json:"complexity,omitempty"`
	Location        string     `json:"location,omitempty"`
}

// Task is a validated, normalized work item. Priority and Complexity are
// clamped to [0,1], DurationMinutes is an integer of at least
// MinTaskDurationMinutes, and Location is never empty.
type Task struct {
	ID              string     `json:"id"`
	Priority        float64    `json:"priority"`
	DurationMinutes int        `json:"duration_minutes"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	Complexity      float64    `json:"complexity"`
	Location        string     `json:"location"`
}

// BusySlot is an immovable occupied time interval. Scheduled tasks must not
// overlap any busy slot.
type BusySlot struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Source string    `json:"source,omitempty"`
}

// WorkingWindow is the schedulable portion of one weekday, expressed in
// minutes of day. A zero-length window (StartMinute == EndMinute) denotes a
// non-working day.
type WorkingWindow struct {
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

// IsDayOff reports whether the window denotes a non-working day.
func (w WorkingWindow) IsDayOff() bool {
	return w.StartMinute == w.EndMinute
}

// Request is a raw scheduling request as received from the orchestrating
// collaborator. It must be validated before model building.
type Request struct {
	TimeHorizonDays int             `json:"time_horizon_days"`
	Tasks           []TaskInput     `json:"tasks"`
	BusySlots       []BusySlot      `json:"busy_slots,omitempty"`
	WorkingHours    []WorkingWindow `json:"working_hours"`
	EnergyProfile   []float64       `json:"energy_profile"`
	BaseDate        *time.Time      `json:"base_date,omitempty"`
	CurrentTime     *time.Time      `json:"current_time,omitempty"`
}

// ValidatedRequest is the canonical form of a scheduling request. All
// invariants hold: exactly 7 working windows, a 24-entry energy profile with
// values in [0,1], normalized tasks, and BaseDate at start of day.
type ValidatedRequest struct {
	TimeHorizonDays int
	Tasks           []Task
	BusySlots       []BusySlot
	WorkingHours    [WeekdayCount]WorkingWindow
	EnergyProfile   [HoursPerDay]float64
	BaseDate        time.Time
	CurrentTime     time.Time
}

// HorizonMinutes returns the total length of the given horizon in minutes.
func HorizonMinutes(horizonDays int) int {
	return horizonDays * MinutesPerDay
}

// WindowForDay returns the working window of the day at the given offset from
// BaseDate. Day 0 is BaseDate itself; weekday indexing is Monday-based.
func (r *ValidatedRequest) WindowForDay(dayOffset int) WorkingWindow {
	weekday := mondayIndex(r.BaseDate.AddDate(0, 0, dayOffset).Weekday())
	return r.WorkingHours[weekday]
}

// mondayIndex converts time.Weekday (Sunday == 0) to the Monday-based index
// used by the working-hours table.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// ScheduledTask is a task placed on a concrete time interval.
type ScheduledTask struct {
	ID    string    `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// TaskByID returns the validated task with the given id, or nil.
func (r *ValidatedRequest) TaskByID(id string) *Task {
	for i := range r.Tasks {
		if r.Tasks[i].ID == id {
			return &r.Tasks[i]
		}
	}
	return nil
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
