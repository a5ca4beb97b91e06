// Package solver defines the wire model of the external CP-SAT solver
// microservice and an HTTP client for its /solve endpoint.
package solver

import (
	"encoding/json"
)

// Status is the solver's terminal status for one solve call
type Status string

const (
	StatusOptimal    Status = "OPTIMAL"
	StatusFeasible   Status = "FEASIBLE"
	StatusInfeasible Status = "INFEASIBLE"
	StatusUnknown    Status = "UNKNOWN"
)

// Succeeded reports whether the solver produced a usable assignment
func (s Status) Succeeded() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Variable is a bounded integer decision variable
type Variable struct {
	ID  string `json:"id"`
	Min int    `json:"min"`
	Max int    `json:"max"`
}

// BoolVariable is a boolean decision variable
type BoolVariable struct {
	ID string `json:"id"`
}

// Interval is a fixed-duration interval variable. Optional intervals may be
// absent from the solution; their presence variable signals whether they were
// placed.
type Interval struct {
	ID          string `json:"id"`
	StartVar    string `json:"start_var"`
	Duration    int    `json:"duration"`
	EndVar      string `json:"end_var,omitempty"`
	Optional    bool   `json:"optional,omitempty"`
	PresenceVar string `json:"presence_var,omitempty"`
}

// Term is one weighted variable in a linear expression
type Term struct {
	Var         string `json:"var"`
	Coefficient int    `json:"coefficient"`
}

// Literal references a boolean variable, possibly negated. It serializes to
// the solver's string form, where negation is a leading "!".
type Literal struct {
	Var     string
	Negated bool
}

// Pos returns a positive literal for the given boolean variable
func Pos(v string) Literal {
	return Literal{Var: v}
}

// Not returns a negated literal for the given boolean variable
func Not(v string) Literal {
	return Literal{Var: v, Negated: true}
}

const negationPrefix = "!"

func (l Literal) String() string {
	if l.Negated {
		return negationPrefix + l.Var
	}
	return l.Var
}

// MarshalJSON encodes the literal in the solver's prefixed-string form
func (l Literal) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// Operand is the right-hand side of a comparison constraint: either a
// constant or a variable reference.
type Operand interface {
	operand() interface{}
}

// IntOperand is a constant operand
type IntOperand int

func (o IntOperand) operand() interface{} { return int(o) }

// VarOperand references an integer or boolean variable by id
type VarOperand string

func (o VarOperand) operand() interface{} { return string(o) }

// Constraint is a typed constraint over the problem's variables and
// intervals. Each kind carries exactly the fields it needs and marshals to
// the solver's flat record form.
type Constraint interface {
	json.Marshaler
	kind() string
}

// wireConstraint is the flat record the solver service accepts
type wireConstraint struct {
	Type      string      `json:"type"`
	Left      string      `json:"left,omitempty"`
	Right     interface{} `json:"right,omitempty"`
	Equals    *int        `json:"equals,omitempty"`
	Intervals []string    `json:"intervals,omitempty"`
	Terms     []Term      `json:"terms,omitempty"`
	Literals  []string    `json:"literals,omitempty"`
	Condition string      `json:"condition,omitempty"`
}

func conditionString(c *Literal) string {
	if c == nil {
		return ""
	}
	return c.String()
}

// NoOverlap forbids any pairwise overlap among the referenced intervals
type NoOverlap struct {
	Intervals []string
}

func (c NoOverlap) kind() string { return "no_overlap" }

func (c NoOverlap) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireConstraint{Type: c.kind(), Intervals: c.Intervals})
}

// LessEqual enforces Left <= Right, optionally only when Condition holds
type LessEqual struct {
	Left      string
	Right     Operand
	Condition *Literal
}

func (c LessEqual) kind() string { return "less_equal" }

func (c LessEqual) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireConstraint{
		Type:      c.kind(),
		Left:      c.Left,
		Right:     c.Right.operand(),
		Condition: conditionString(c.Condition),
	})
}

// GreaterEqual enforces Left >= Right, optionally only when Condition holds
type GreaterEqual struct {
	Left      string
	Right     Operand
	Condition *Literal
}

func (c GreaterEqual) kind() string { return "greater_equal" }

func (c GreaterEqual) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireConstraint{
		Type:      c.kind(),
		Left:      c.Left,
		Right:     c.Right.operand(),
		Condition: conditionString(c.Condition),
	})
}

// Equal enforces Left == Right, optionally only when Condition holds
type Equal struct {
	Left      string
	Right     Operand
	Condition *Literal
}

func (c Equal) kind() string { return "equal" }

func (c Equal) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireConstraint{
		Type:      c.kind(),
		Left:      c.Left,
		Right:     c.Right.operand(),
		Condition: conditionString(c.Condition),
	})
}

// SumEqual enforces sum(Terms) == Equals, optionally only when Condition holds
type SumEqual struct {
	Terms     []Term
	Equals    int
	Condition *Literal
}

func (c SumEqual) kind() string { return "sum_equal" }

func (c SumEqual) MarshalJSON() ([]byte, error) {
	equals := c.Equals
	return json.Marshal(wireConstraint{
		Type:      c.kind(),
		Terms:     c.Terms,
		Equals:    &equals,
		Condition: conditionString(c.Condition),
	})
}

// BoolOr enforces that at least one literal holds, optionally only when
// Condition holds
type BoolOr struct {
	Literals  []Literal
	Condition *Literal
}

func (c BoolOr) kind() string { return "bool_or" }

func (c BoolOr) MarshalJSON() ([]byte, error) {
	literals := make([]string, len(c.Literals))
	for i, l := range c.Literals {
		literals[i] = l.String()
	}
	return json.Marshal(wireConstraint{
		Type:      c.kind(),
		Literals:  literals,
		Condition: conditionString(c.Condition),
	})
}

// Objective directions
const (
	Maximize = "maximize"
	Minimize = "minimize"
)

// Objective is a weighted linear objective
type Objective struct {
	Type  string `json:"type"`
	Terms []Term `json:"terms"`
}

// Problem is the full constraint-satisfaction payload sent to /solve
type Problem struct {
	Variables     []Variable     `json:"variables"`
	BoolVariables []BoolVariable `json:"bool_variables"`
	Intervals     []Interval     `json:"intervals"`
	Constraints   []Constraint   `json:"constraints"`
	Objective     *Objective     `json:"objective,omitempty"`
}

// VariableValue is a solved integer variable assignment
type VariableValue struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
}

// BoolValue is a solved boolean variable assignment
type BoolValue struct {
	ID    string `json:"id"`
	Value bool   `json:"value"`
}

// IntervalValue is a solved interval placement. Start and end are zero when
// the interval was not placed (Presence == false).
type IntervalValue struct {
	ID       string `json:"id"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Presence bool   `json:"presence"`
}

// Response is the solver's answer to one /solve call
type Response struct {
	Status         Status          `json:"status"`
	ObjectiveValue *int            `json:"objective_value,omitempty"`
	WallTime       float64         `json:"wall_time"`
	Variables      []VariableValue `json:"variables"`
	BoolVariables  []BoolValue     `json:"bool_variables"`
	Intervals      []IntervalValue `json:"intervals"`
}

// IntervalsByID indexes the returned interval placements by id
func (r *Response) IntervalsByID() map[string]IntervalValue {
	byID := make(map[string]IntervalValue, len(r.Intervals))
	for _, iv := range r.Intervals {
		byID[iv.ID] = iv
	}
	return byID
}
