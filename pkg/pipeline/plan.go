// Package pipeline sequences extraction, classification and fact table
// replacement for one on-demand run.
package pipeline

import "strings"

// Step is one unit of work in a run.
type Step string

const (
	StepExpenses  Step = "expenses"
	StepSales     Step = "sales"
	StepCalendar  Step = "calendar"
	StepUnitCosts Step = "unit_costs"
)

// Plan selects which source-derived table groups a run rebuilds.
type Plan struct {
	Expenses  bool
	Sales     bool
	UnitCosts bool
}

// FullPlan rebuilds every table group.
func FullPlan() Plan {
	return Plan{Expenses: true, Sales: true, UnitCosts: true}
}

// NewPlan builds a plan from the three selection flags. Selecting nothing
// means rebuilding everything.
func NewPlan(expenses, sales, unitCosts bool) Plan {
	p := Plan{Expenses: expenses, Sales: sales, UnitCosts: unitCosts}
	if p.Empty() {
		return FullPlan()
	}
	return p
}

// Empty reports whether no group is selected.
func (p Plan) Empty() bool {
	return !p.Expenses && !p.Sales && !p.UnitCosts
}

// Steps returns the steps of the plan in dependency order:
//
//   - expenses, when selected
//   - sales, when selected; it produces the section dimension
//   - calendar, whenever expenses or sales are rebuilt
//   - unit costs, when selected; it needs the section dimension, fresh or stored
func (p Plan) Steps() []Step {
	var steps []Step
	if p.Expenses {
		steps = append(steps, StepExpenses)
	}
	if p.Sales {
		steps = append(steps, StepSales)
	}
	if p.Expenses || p.Sales {
		steps = append(steps, StepCalendar)
	}
	if p.UnitCosts {
		steps = append(steps, StepUnitCosts)
	}
	return steps
}

func (p Plan) String() string {
	var parts []string
	for _, s := range p.Steps() {
		parts = append(parts, string(s))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}
