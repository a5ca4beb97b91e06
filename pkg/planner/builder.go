package planner

import (
	"fmt"
	"math"
	"time"

	"github.com/campusclock/timeblock/pkg/schedule"
	"github.com/campusclock/timeblock/pkg/solver"
)

// TaskVars links one task to its solver variables
type TaskVars struct {
	StartVar    string
	EndVar      string
	IntervalID  string
	PresenceVar string
}

// Model is one fully built horizon attempt: the solver problem plus the
// metadata needed to map the solution back to tasks. Tasks that cannot be
// placed at all within this horizon are absent from TaskVars.
type Model struct {
	Problem     *solver.Problem
	TaskVars    map[string]TaskVars
	HorizonDays int
}

// Objective weights: priority dominates, urgency breaks ties, complexity
// nudges the solver toward scheduling demanding tasks when not everything fits
const (
	priorityWeight   = 100
	urgencyWeight    = 50
	complexityWeight = 5
)

// problemBuilder accumulates a solver problem one declaration at a time
type problemBuilder struct {
	problem solver.Problem
}

func (b *problemBuilder) variable(id string, min, max int) string {
	b.problem.Variables = append(b.problem.Variables, solver.Variable{ID: id, Min: min, Max: max})
	return id
}

func (b *problemBuilder) boolVariable(id string) string {
	b.problem.BoolVariables = append(b.problem.BoolVariables, solver.BoolVariable{ID: id})
	return id
}

func (b *problemBuilder) interval(iv solver.Interval) string {
	b.problem.Intervals = append(b.problem.Intervals, iv)
	return iv.ID
}

func (b *problemBuilder) constraint(c solver.Constraint) {
	b.problem.Constraints = append(b.problem.Constraints, c)
}

func (b *problemBuilder) maximize(terms []solver.Term) {
	b.problem.Objective = &solver.Objective{Type: solver.Maximize, Terms: terms}
}

// BuildModel translates a validated request into a constraint problem for
// the given horizon. The translation is pure and deterministic: identical
// inputs always produce an identical problem.
func BuildModel(req *schedule.ValidatedRequest, horizonDays int) *Model {
	horizonMinutes := schedule.HorizonMinutes(horizonDays)

	b := &problemBuilder{}
	taskVars := make(map[string]TaskVars)

	var allIntervals []string
	var objectiveTerms []solver.Term

	for i := range req.Tasks {
		task := &req.Tasks[i]
		vars, buildable := buildTask(b, req, task, horizonDays, horizonMinutes)
		if !buildable {
			continue
		}
		taskVars[task.ID] = vars
		allIntervals = append(allIntervals, vars.IntervalID)
		objectiveTerms = append(objectiveTerms, solver.Term{
			Var:         vars.PresenceVar,
			Coefficient: taskScore(task, req.CurrentTime),
		})
	}

	allIntervals = append(allIntervals, buildBusySlots(b, req, horizonMinutes)...)

	if len(allIntervals) > 0 {
		b.constraint(solver.NoOverlap{Intervals: allIntervals})
	}
	if len(objectiveTerms) > 0 {
		b.maximize(objectiveTerms)
	}

	return &Model{
		Problem:     &b.problem,
		TaskVars:    taskVars,
		HorizonDays: horizonDays,
	}
}

// buildTask declares the variables and constraints for one task. It returns
// buildable == false when the task cannot be placed anywhere within this
// horizon, in which case the task does not participate in the attempt.
func buildTask(b *problemBuilder, req *schedule.ValidatedRequest, task *schedule.Task, horizonDays, horizonMinutes int) (TaskVars, bool) {
	if task.DurationMinutes > horizonMinutes {
		// The start variable would have an empty domain
		return TaskVars{}, false
	}

	intervalID := fmt.Sprintf("task_%s", task.ID)
	startVar := b.variable(intervalID+"_start", 0, horizonMinutes-task.DurationMinutes)
	endVar := b.variable(intervalID+"_end", task.DurationMinutes, horizonMinutes)
	presenceVar := b.boolVariable(intervalID + "_presence")

	b.interval(solver.Interval{
		ID:          intervalID,
		StartVar:    startVar,
		Duration:    task.DurationMinutes,
		EndVar:      endVar,
		Optional:    true,
		PresenceVar: presenceVar,
	})

	var dayTerms []solver.Term
	for day := 0; day < horizonDays; day++ {
		window := req.WindowForDay(day)
		if window.IsDayOff() {
			continue
		}

		dayVar := b.boolVariable(fmt.Sprintf("%s_day_%d", intervalID, day))
		dayStart := day*schedule.MinutesPerDay + window.StartMinute
		dayEnd := day*schedule.MinutesPerDay + window.EndMinute

		selected := solver.Pos(dayVar)
		b.constraint(solver.GreaterEqual{Left: startVar, Right: solver.IntOperand(dayStart), Condition: &selected})
		b.constraint(solver.LessEqual{Left: endVar, Right: solver.IntOperand(dayEnd), Condition: &selected})
		b.constraint(solver.BoolOr{Literals: []solver.Literal{solver.Not(dayVar), solver.Pos(presenceVar)}})

		dayTerms = append(dayTerms, solver.Term{Var: dayVar, Coefficient: 1})
	}

	if len(dayTerms) == 0 {
		// No working day in the entire horizon: the task can never be placed
		// this attempt, so pin its presence off and leave it out of the
		// metadata.
		b.constraint(solver.BoolOr{Literals: []solver.Literal{solver.Not(presenceVar)}})
		return TaskVars{}, false
	}

	// Exactly one day is selected iff the task is scheduled
	dayTerms = append(dayTerms, solver.Term{Var: presenceVar, Coefficient: -1})
	b.constraint(solver.SumEqual{Terms: dayTerms, Equals: 0})

	if task.Deadline != nil {
		deadlineMinutes := minutesFromBase(req.BaseDate, *task.Deadline)
		if deadlineMinutes > 0 && deadlineMinutes <= horizonMinutes {
			b.constraint(solver.LessEqual{Left: endVar, Right: solver.IntOperand(deadlineMinutes)})
		}
	}

	return TaskVars{
		StartVar:    startVar,
		EndVar:      endVar,
		IntervalID:  intervalID,
		PresenceVar: presenceVar,
	}, true
}

// buildBusySlots declares mandatory fixed-position intervals for every busy
// slot that overlaps the horizon. Slots entirely outside the horizon, or
// reduced to zero length by clamping, are dropped.
func buildBusySlots(b *problemBuilder, req *schedule.ValidatedRequest, horizonMinutes int) []string {
	var ids []string
	for i, slot := range req.BusySlots {
		start := clampMinutes(minutesFromBase(req.BaseDate, slot.Start), horizonMinutes)
		end := clampMinutes(minutesFromBase(req.BaseDate, slot.End), horizonMinutes)
		if end <= start {
			continue
		}

		id := fmt.Sprintf("busy_%d", i)
		startVar := b.variable(id+"_start", start, start)
		endVar := b.variable(id+"_end", end, end)
		ids = append(ids, b.interval(solver.Interval{
			ID:       id,
			StartVar: startVar,
			Duration: end - start,
			EndVar:   endVar,
		}))
	}
	return ids
}

// taskScore is the objective coefficient for scheduling one task
func taskScore(task *schedule.Task, now time.Time) int {
	score := task.Priority*priorityWeight + urgency(task.Deadline, now)*urgencyWeight + task.Complexity*complexityWeight
	return int(math.Round(score))
}

// urgency maps a deadline to [0,1]. A missed deadline is maximally urgent;
// otherwise urgency decays exponentially with a 24-hour half-scale, floored
// at 0.1 so any deadline at all outranks none.
func urgency(deadline *time.Time, now time.Time) float64 {
	if deadline == nil {
		return 0
	}
	if deadline.Before(now) {
		return 1
	}
	hours := deadline.Sub(now).Hours()
	return clamp01(0.1 + 0.9*math.Exp(-hours/24))
}

func minutesFromBase(base, t time.Time) int {
	return int(t.Sub(base) / time.Minute)
}

func clampMinutes(m, max int) int {
	if m < 0 {
		return 0
	}
	if m > max {
		return max
	}
	return m
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
