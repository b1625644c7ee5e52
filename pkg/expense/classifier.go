// Package expense cleans expense ledger rows and classifies them into cost
// groups and financial classifications.
package expense

import (
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/model"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/rules"
)

// Rule is one step of the classification chain.
type Rule struct {
	Name  string
	Match func(model.Expense) bool
	Tag   model.Classification
}

// Classifier assigns group and classification labels to expenses.
type Classifier struct {
	rules *rules.Rules
	chain []Rule
}

// NewClassifier builds the classification chain from a rule set. The chain
// is evaluated top to bottom and the first matching rule wins:
//
//  1. comment names a CAPEX vendor -> CAPEX
//  2. dated before the operation start -> PRE_OPERATION
//  3. type is a variable-cost type -> OPEX_VARIABLE
//  4. anything else -> OPEX_FIXED
func NewClassifier(r *rules.Rules) *Classifier {
	if r == nil {
		r = rules.Default()
	}
	start := r.OperationStart()

	return &Classifier{
		rules: r,
		chain: []Rule{
			{
				Name:  "capex-vendor",
				Match: func(e model.Expense) bool { return r.IsCapexVendor(e.Comment) },
				Tag:   model.Capex,
			},
			{
				Name:  "pre-operation",
				Match: func(e model.Expense) bool { return e.Date.Before(start) },
				Tag:   model.PreOperation,
			},
			{
				Name:  "variable-type",
				Match: func(e model.Expense) bool { return r.IsVariable(e.Type) },
				Tag:   model.OpexVariable,
			},
			{
				Name:  "fixed",
				Match: func(model.Expense) bool { return true },
				Tag:   model.OpexFixed,
			},
		},
	}
}

// Rules returns a copy of the classification chain in evaluation order.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.chain...)
}

// Classify returns the tag of the first rule matching e.
func (c *Classifier) Classify(e model.Expense) model.Classification {
	for _, rule := range c.chain {
		if rule.Match(e) {
			return rule.Tag
		}
	}
	return model.OpexFixed
}

// Group1 returns the top-level cost group of an expense type. Overhead types
// collapse into a single group; every other type is its own group.
func (c *Classifier) Group1(expenseType string) string {
	if c.rules.IsOverhead(expenseType) {
		return c.rules.ExpenseOtherGroup()
	}
	return expenseType
}

// Group2 returns the refined cost group of an expense type.
func (c *Classifier) Group2(expenseType string) string {
	if g, ok := c.rules.Group2Override(expenseType); ok {
		return g
	}
	return expenseType
}

// Apply corrects the type label and fills in the group and classification
// fields of e.
func (c *Classifier) Apply(e model.Expense) model.Expense {
	e.Type = c.rules.CanonicalType(e.Type)
	e.Group1 = c.Group1(e.Type)
	e.Group2 = c.Group2(e.Type)
	e.Classification = c.Classify(e)
	return e
}
