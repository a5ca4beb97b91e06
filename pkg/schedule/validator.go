package schedule

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ValidationError represents a single request validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s value '%v': %s", e.Field, e.Value, e.Message)
}

// ValidationErrors aggregates every validation failure found in one request
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	messages := make([]string, len(e))
	for i, err := range e {
		messages[i] = err.Error()
	}
	return fmt.Sprintf("request validation failed:\n  - %s", strings.Join(messages, "\n  - "))
}

// Validator normalizes raw scheduling requests into their canonical form.
// The zero clock defaults to time.Now; tests may inject a fixed clock.
type Validator struct {
	Now func() time.Time
}

// NewValidator creates a validator using the real clock
func NewValidator() *Validator {
	return &Validator{Now: time.Now}
}

// Validate checks a raw request and returns its canonical form. All failures
// are collected into a single ValidationErrors result; no network call is
// ever attempted here.
func (v *Validator) Validate(req *Request) (*ValidatedRequest, error) {
	var errs ValidationErrors

	if req == nil {
		return nil, ValidationErrors{{Field: "request", Value: nil, Message: "must not be nil"}}
	}

	if req.TimeHorizonDays <= 0 {
		errs = append(errs, ValidationError{
			Field:   "time_horizon_days",
			Value:   req.TimeHorizonDays,
			Message: "must be greater than 0",
		})
	}

	if len(req.Tasks) == 0 {
		errs = append(errs, ValidationError{
			Field:   "tasks",
			Value:   len(req.Tasks),
			Message: "must contain at least one task",
		})
	}

	if len(req.WorkingHours) != WeekdayCount {
		errs = append(errs, ValidationError{
			Field:   "working_hours",
			Value:   len(req.WorkingHours),
			Message: fmt.Sprintf("must contain exactly %d entries", WeekdayCount),
		})
	}

	if len(req.EnergyProfile) == 0 {
		errs = append(errs, ValidationError{
			Field:   "energy_profile",
			Value:   len(req.EnergyProfile),
			Message: "must not be empty",
		})
	}

	now := v.Now()

	validated := &ValidatedRequest{
		TimeHorizonDays: req.TimeHorizonDays,
		CurrentTime:     now,
		BaseDate:        StartOfDay(now),
	}
	if req.CurrentTime != nil {
		validated.CurrentTime = *req.CurrentTime
	}
	if req.BaseDate != nil {
		validated.BaseDate = StartOfDay(*req.BaseDate)
	}

	seen := make(map[string]bool, len(req.Tasks))
	for i, raw := range req.Tasks {
		task, taskErrs := normalizeTask(i, raw)
		if seen[task.ID] {
			taskErrs = append(taskErrs, ValidationError{
				Field:   fmt.Sprintf("tasks[%d].id", i),
				Value:   task.ID,
				Message: "duplicate task id",
			})
		}
		seen[task.ID] = true
		if len(taskErrs) > 0 {
			errs = append(errs, taskErrs...)
			continue
		}
		validated.Tasks = append(validated.Tasks, task)
	}

	for i, slot := range req.BusySlots {
		if !slot.End.After(slot.Start) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("busy_slots[%d]", i),
				Value:   slot.End,
				Message: "end must be after start",
			})
			continue
		}
		validated.BusySlots = append(validated.BusySlots, slot)
	}

	if len(req.WorkingHours) == WeekdayCount {
		for i, window := range req.WorkingHours {
			if err := checkWindow(i, window); err != nil {
				errs = append(errs, *err)
				continue
			}
			validated.WorkingHours[i] = window
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	validated.EnergyProfile = normalizeEnergyProfile(req.EnergyProfile)
	return validated, nil
}

// normalizeTask clamps and defaults a single raw task
func normalizeTask(index int, raw TaskInput) (Task, ValidationErrors) {
	var errs ValidationErrors

	if raw.ID == "" {
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("tasks[%d].id", index),
			Value:   raw.ID,
			Message: "must not be empty",
		})
	}
	if raw.DurationMinutes <= 0 {
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("tasks[%d].duration_minutes", index),
			Value:   raw.DurationMinutes,
			Message: "must be greater than 0",
		})
	}

	task := Task{
		ID:              raw.ID,
		Priority:        clamp01(raw.Priority),
		DurationMinutes: normalizeDuration(raw.DurationMinutes),
		Deadline:        raw.Deadline,
		Complexity:      DefaultComplexity,
		Location:        raw.Location,
	}
	if raw.Complexity != nil {
		task.Complexity = clamp01(*raw.Complexity)
	}
	if task.Location == "" {
		task.Location = DefaultLocation
	}
	return task, errs
}

// normalizeDuration rounds to a whole minute and applies the 15-minute floor
func normalizeDuration(minutes float64) int {
	rounded := int(math.Round(minutes))
	if rounded < MinTaskDurationMinutes {
		return MinTaskDurationMinutes
	}
	return rounded
}

// checkWindow verifies one working-hours entry. A zero-length window is a
// valid day off; anything else requires start < end within a single day.
func checkWindow(index int, w WorkingWindow) *ValidationError {
	if w.StartMinute < 0 || w.EndMinute > MinutesPerDay {
		return &ValidationError{
			Field:   fmt.Sprintf("working_hours[%d]", index),
			Value:   fmt.Sprintf("%d-%d", w.StartMinute, w.EndMinute),
			Message: fmt.Sprintf("minutes must be within [0, %d]", MinutesPerDay),
		}
	}
	if w.IsDayOff() {
		return nil
	}
	if w.StartMinute > w.EndMinute {
		return &ValidationError{
			Field:   fmt.Sprintf("working_hours[%d]", index),
			Value:   fmt.Sprintf("%d-%d", w.StartMinute, w.EndMinute),
			Message: "start must be before end",
		}
	}
	return nil
}

// normalizeEnergyProfile coerces an arbitrary-length alertness array to
// exactly 24 hourly values in [0,1]. Longer arrays are averaged into hourly
// buckets; shorter arrays are padded with a neutral 0.5.
func normalizeEnergyProfile(raw []float64) [HoursPerDay]float64 {
	var profile [HoursPerDay]float64

	switch {
	case len(raw) == HoursPerDay:
		for i, v := range raw {
			profile[i] = clamp01(v)
		}
	case len(raw) > HoursPerDay:
		// Average the samples that fall into each hourly bucket
		for hour := 0; hour < HoursPerDay; hour++ {
			lo := hour * len(raw) / HoursPerDay
			hi := (hour + 1) * len(raw) / HoursPerDay
			sum := 0.0
			for _, v := range raw[lo:hi] {
				sum += clamp01(v)
			}
			profile[hour] = sum / float64(hi-lo)
		}
	default:
		for i := 0; i < HoursPerDay; i++ {
			if i < len(raw) {
				profile[i] = clamp01(raw[i])
			} else {
				profile[i] = 0.5
			}
		}
	}
	return profile
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
