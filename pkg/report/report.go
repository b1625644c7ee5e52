// Package report computes the predefined financial aggregations over the
// fact tables: KPI summary, monthly P&L, investment recovery and category
// margin.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/cafe-finance/pkg/db"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/model"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/normalize"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/rules"
)

// Period bounds the operating figures. A zero bound is open.
type Period struct {
	From time.Time
	To   time.Time
}

// Contains reports whether d falls inside the period, both ends inclusive.
func (p Period) Contains(d time.Time) bool {
	d = normalize.Day(d)
	if !p.From.IsZero() && d.Before(normalize.Day(p.From)) {
		return false
	}
	if !p.To.IsZero() && d.After(normalize.Day(p.To)) {
		return false
	}
	return true
}

// Summary holds the headline KPIs.
type Summary struct {
	Sales        decimal.Decimal
	VariableCost decimal.Decimal
	FixedCost    decimal.Decimal

	// Investment figures are historical and ignore the period.
	Capex           decimal.Decimal
	PreOperation    decimal.Decimal
	InvestedCapital decimal.Decimal

	GrossMargin  decimal.Decimal
	EBIT         decimal.Decimal
	CorporateTax decimal.Decimal
	NetResult    decimal.Decimal

	ContributionMargin decimal.Decimal
	// BreakEven is zero and HasBreakEven false when the contribution margin
	// is not positive.
	BreakEven      decimal.Decimal
	HasBreakEven   bool
	BreakEvenDelta decimal.Decimal
}

// Month is one row of the monthly P&L.
type Month struct {
	Year         int
	Month        time.Month
	Sales        decimal.Decimal
	VariableCost decimal.Decimal
	FixedCost    decimal.Decimal
	Operating    decimal.Decimal
	// Cumulative is the running operating flow up to this month.
	Cumulative decimal.Decimal
	// Recovery is Cumulative minus the invested capital.
	Recovery decimal.Decimal
}

// Category is the operating result of one section group_1.
type Category struct {
	Group        string
	Sales        decimal.Decimal
	Share        decimal.Decimal
	VariableCost decimal.Decimal
	FixedCost    decimal.Decimal
	Result       decimal.Decimal
}

// Report is the full set of aggregations for a period.
type Report struct {
	Period     Period
	Summary    Summary
	Months     []Month
	Categories []Category
}

// Facts are the stored tables a report is computed from.
type Facts struct {
	Expenses     []model.Expense
	Transactions []model.Transaction
	Items        []model.Item
	Sections     []model.Section
}

// Load reads the fact tables from the store and builds the report.
// Missing tables count as empty.
func Load(ctx context.Context, conn *db.Connection, r *rules.Rules, period Period) (*Report, error) {
	var facts Facts

	table, err := readTable(ctx, conn, model.ExpenseSchema)
	if err != nil {
		return nil, err
	}
	if facts.Expenses, err = model.ExpensesFromTable(table); err != nil {
		return nil, err
	}

	if table, err = readTable(ctx, conn, model.TransactionSchema); err != nil {
		return nil, err
	}
	if facts.Transactions, err = model.TransactionsFromTable(table); err != nil {
		return nil, err
	}

	if table, err = readTable(ctx, conn, model.ItemSchema); err != nil {
		return nil, err
	}
	if facts.Items, err = model.ItemsFromTable(table); err != nil {
		return nil, err
	}

	if table, err = readTable(ctx, conn, model.SectionSchema); err != nil {
		return nil, err
	}
	facts.Sections = model.SectionsFromTable(table)

	return Build(facts, r, period), nil
}

func readTable(ctx context.Context, conn *db.Connection, s model.Schema) (*model.Table, error) {
	table, err := conn.ReadTable(ctx, s)
	if errors.Is(err, db.ErrTableNotFound) {
		return &model.Table{Schema: s}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Name, err)
	}
	return table, nil
}

// Build computes the report from in-memory facts. A nil r uses the default
// rules.
func Build(facts Facts, r *rules.Rules, period Period) *Report {
	if r == nil {
		r = rules.Default()
	}

	rep := &Report{Period: period}
	rep.Summary = summarize(facts, r, period)
	rep.Months = monthly(facts, period, rep.Summary.InvestedCapital)
	rep.Categories = categories(facts, r, period, rep.Summary)
	return rep
}

func summarize(facts Facts, r *rules.Rules, period Period) Summary {
	var s Summary

	for _, tx := range facts.Transactions {
		if period.Contains(tx.Date) {
			s.Sales = s.Sales.Add(decimal.NewFromFloat(tx.Total))
		}
	}

	for _, e := range facts.Expenses {
		amount := decimal.NewFromFloat(e.Amount)
		switch e.Classification {
		case model.Capex:
			s.Capex = s.Capex.Add(amount)
		case model.PreOperation:
			s.PreOperation = s.PreOperation.Add(amount)
		case model.OpexVariable:
			if period.Contains(e.Date) {
				s.VariableCost = s.VariableCost.Add(amount)
			}
		case model.OpexFixed:
			if period.Contains(e.Date) {
				s.FixedCost = s.FixedCost.Add(amount)
			}
		}
	}
	s.InvestedCapital = s.Capex.Add(s.PreOperation)

	s.GrossMargin = s.Sales.Sub(s.VariableCost)
	s.EBIT = s.GrossMargin.Sub(s.FixedCost)
	if s.EBIT.IsPositive() {
		s.CorporateTax = s.EBIT.Mul(decimal.NewFromFloat(r.CorporateTaxRate()))
	}
	s.NetResult = s.EBIT.Sub(s.CorporateTax)

	if !s.Sales.IsZero() && !s.VariableCost.IsZero() {
		s.ContributionMargin = decimal.NewFromInt(1).Sub(s.VariableCost.Div(s.Sales))
	}
	if s.ContributionMargin.IsPositive() {
		s.BreakEven = s.FixedCost.Div(s.ContributionMargin)
		s.HasBreakEven = true
	}
	s.BreakEvenDelta = s.Sales.Sub(s.BreakEven)

	return s
}

type monthKey struct {
	year  int
	month time.Month
}

// monthly aggregates operating figures per calendar month. Investment
// classifications are excluded.
func monthly(facts Facts, period Period, invested decimal.Decimal) []Month {
	rows := make(map[monthKey]*Month)
	row := func(d time.Time) *Month {
		k := monthKey{d.Year(), d.Month()}
		m, ok := rows[k]
		if !ok {
			m = &Month{Year: k.year, Month: k.month}
			rows[k] = m
		}
		return m
	}

	for _, tx := range facts.Transactions {
		if period.Contains(tx.Date) {
			m := row(tx.Date)
			m.Sales = m.Sales.Add(decimal.NewFromFloat(tx.Total))
		}
	}
	for _, e := range facts.Expenses {
		if !e.Classification.Operating() || !period.Contains(e.Date) {
			continue
		}
		m := row(e.Date)
		amount := decimal.NewFromFloat(e.Amount)
		if e.Classification == model.OpexVariable {
			m.VariableCost = m.VariableCost.Add(amount)
		} else {
			m.FixedCost = m.FixedCost.Add(amount)
		}
	}

	months := make([]Month, 0, len(rows))
	for _, m := range rows {
		months = append(months, *m)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].Year != months[j].Year {
			return months[i].Year < months[j].Year
		}
		return months[i].Month < months[j].Month
	})

	var cumulative decimal.Decimal
	for i := range months {
		m := &months[i]
		m.Operating = m.Sales.Sub(m.VariableCost).Sub(m.FixedCost)
		cumulative = cumulative.Add(m.Operating)
		m.Cumulative = cumulative
		m.Recovery = cumulative.Sub(invested)
	}
	return months
}

// categories splits item sales by section group_1 and allocates operating
// costs in proportion to each group's share.
func categories(facts Facts, r *rules.Rules, period Period, s Summary) []Category {
	groupOf := make(map[string]string, len(facts.Sections))
	for _, sec := range facts.Sections {
		groupOf[sec.Name] = sec.Group1
	}

	sales := make(map[string]decimal.Decimal)
	var total decimal.Decimal
	for _, it := range facts.Items {
		if !period.Contains(it.Date) {
			continue
		}
		group, ok := groupOf[it.Section]
		if !ok {
			group, _ = r.SectionGroups(it.Section)
		}
		price := decimal.NewFromFloat(it.Price)
		sales[group] = sales[group].Add(price)
		total = total.Add(price)
	}

	cats := make([]Category, 0, len(sales))
	for group, amount := range sales {
		c := Category{Group: group, Sales: amount}
		if !total.IsZero() {
			c.Share = amount.Div(total)
		}
		c.VariableCost = s.VariableCost.Mul(c.Share)
		c.FixedCost = s.FixedCost.Mul(c.Share)
		c.Result = c.Sales.Sub(c.VariableCost).Sub(c.FixedCost)
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if cmp := cats[i].Sales.Cmp(cats[j].Sales); cmp != 0 {
			return cmp > 0
		}
		return cats[i].Group < cats[j].Group
	})
	return cats
}
