// Package calendar builds the daily calendar dimension.
package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/shunichi-ikebuchi/cafe-finance/pkg/model"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/normalize"
)

// ErrNoDates is returned when an input has no valid date to anchor the range.
var ErrNoDates = errors.New("no valid dates")

// Build returns one row per day from the earliest to the latest date found in
// either input, inclusive. Both inputs must contain at least one non-zero date.
func Build(salesDates, expenseDates []time.Time) ([]model.CalendarDay, error) {
	salesMin, salesMax, ok := bounds(salesDates)
	if !ok {
		return nil, fmt.Errorf("cannot build calendar: sales: %w", ErrNoDates)
	}
	expMin, expMax, ok := bounds(expenseDates)
	if !ok {
		return nil, fmt.Errorf("cannot build calendar: expenses: %w", ErrNoDates)
	}

	start := salesMin
	if expMin.Before(start) {
		start = expMin
	}
	end := salesMax
	if expMax.After(end) {
		end = expMax
	}

	return Range(start, end), nil
}

// Range returns one row per day in [start, end]. It returns nil when end is
// before start.
func Range(start, end time.Time) []model.CalendarDay {
	start, end = normalize.Day(start), normalize.Day(end)
	if end.Before(start) {
		return nil
	}

	days := make([]model.CalendarDay, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, Day(d))
	}
	return days
}

// Day derives the calendar attributes of d.
func Day(d time.Time) model.CalendarDay {
	d = normalize.Day(d)
	_, week := d.ISOWeek()
	return model.CalendarDay{
		Date:      d,
		Year:      d.Year(),
		Month:     int(d.Month()),
		MonthName: d.Month().String(),
		ISOWeek:   week,
		Quarter:   (int(d.Month())-1)/3 + 1,
		Day:       d.Day(),
	}
}

func bounds(dates []time.Time) (lo, hi time.Time, ok bool) {
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		d = normalize.Day(d)
		if !ok || d.Before(lo) {
			lo = d
		}
		if !ok || d.After(hi) {
			hi = d
		}
		ok = true
	}
	return lo, hi, ok
}
