package expense

import (
	"testing"
	"time"

	"github.com/shunichi-ikebuchi/cafe-finance/pkg/model"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/rules"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/workbook"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/workbook/workbooktest"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestApply(t *testing.T) {
	c := NewClassifier(rules.Default())

	tests := []struct {
		name           string
		input          model.Expense
		classification model.Classification
		group1         string
		group2         string
	}{
		{
			name:           "capex vendor beats pre-operation and variable type",
			input:          model.Expense{Date: day(2025, 9, 15), Type: "INSUMO", Amount: 1000, Comment: "CHILENA DE CAFES SpA"},
			classification: model.Capex,
			group1:         "OTHER",
			group2:         "OTHER_SUPPLIES",
		},
		{
			name:           "rent before opening",
			input:          model.Expense{Date: day(2025, 9, 15), Type: "ARRIENDO", Amount: 500000, Comment: "Landlord"},
			classification: model.PreOperation,
			group1:         "OTHER",
			group2:         "ARRIENDO",
		},
		{
			name:           "pre-operation beats variable type",
			input:          model.Expense{Date: day(2025, 9, 30), Type: "CAFÉ", Amount: 3000},
			classification: model.PreOperation,
			group1:         "CAFÉ",
			group2:         "CAFÉ",
		},
		{
			name:           "pizza after opening",
			input:          model.Expense{Date: day(2025, 11, 1), Type: "PIZZA", Amount: 20000},
			classification: model.OpexVariable,
			group1:         "PIZZA",
			group2:         "PIZZA",
		},
		{
			name:           "electricity after opening",
			input:          model.Expense{Date: day(2025, 11, 1), Type: "LUZ", Amount: 80000},
			classification: model.OpexFixed,
			group1:         "OTHER",
			group2:         "LUZ",
		},
		{
			name:           "typo corrected before classification",
			input:          model.Expense{Date: day(2025, 11, 1), Type: "PÏZZA", Amount: 15000},
			classification: model.OpexVariable,
			group1:         "PIZZA",
			group2:         "PIZZA",
		},
		{
			name:           "opening day is operating",
			input:          model.Expense{Date: day(2025, 10, 1), Type: "SOFTWARE", Amount: 9900},
			classification: model.OpexFixed,
			group1:         "OTHER",
			group2:         "ADMINISTRATIVE",
		},
		{
			name:           "commission is variable and administrative",
			input:          model.Expense{Date: day(2025, 12, 5), Type: "COMISIONES VENTAS", Amount: 4500},
			classification: model.OpexVariable,
			group1:         "OTHER",
			group2:         "ADMINISTRATIVE",
		},
		{
			name:           "vendor match is exact",
			input:          model.Expense{Date: day(2025, 12, 5), Type: "MOBILIARIO", Amount: 4500, Comment: "bozzo s.a."},
			classification: model.OpexFixed,
			group1:         "MOBILIARIO",
			group2:         "MOBILIARIO",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Apply(tt.input)
			if result.Classification != tt.classification {
				t.Errorf("Apply().Classification = %q, expected %q", result.Classification, tt.classification)
			}
			if result.Group1 != tt.group1 {
				t.Errorf("Apply().Group1 = %q, expected %q", result.Group1, tt.group1)
			}
			if result.Group2 != tt.group2 {
				t.Errorf("Apply().Group2 = %q, expected %q", result.Group2, tt.group2)
			}
		})
	}
}

func TestCapexDominatesPreOperation(t *testing.T) {
	c := NewClassifier(rules.Default())
	vendors := rules.DefaultConfig().Expenses.CapexVendors
	types := []string{"INSUMO", "ARRIENDO", "PIZZA", "LUZ", ""}
	dates := []time.Time{day(2024, 1, 1), day(2025, 9, 30), day(2025, 10, 1), day(2026, 3, 1)}

	for _, vendor := range vendors {
		for _, typ := range types {
			for _, d := range dates {
				got := c.Classify(model.Expense{Date: d, Type: typ, Comment: vendor})
				if got != model.Capex {
					t.Errorf("Classify(%s, %q, %q) = %q, expected CAPEX", d.Format("2006-01-02"), typ, vendor, got)
				}
			}
		}
	}
}

func TestClassifyAlwaysValid(t *testing.T) {
	c := NewClassifier(rules.Default())
	types := []string{"INSUMO", "ARRIENDO", "PIZZA", "TÉ", "PASTELERÍA", "AGUA", "OTRO", ""}
	comments := []string{"", "Landlord", "BOZZO S.A."}

	for d := day(2025, 9, 25); d.Before(day(2025, 10, 6)); d = d.AddDate(0, 0, 1) {
		for _, typ := range types {
			for _, comment := range comments {
				got := c.Classify(model.Expense{Date: d, Type: typ, Comment: comment})
				if !got.Valid() {
					t.Errorf("Classify() = %q, not a valid classification", got)
				}
			}
		}
	}
}

func TestRulesOrder(t *testing.T) {
	c := NewClassifier(nil)
	expected := []model.Classification{model.Capex, model.PreOperation, model.OpexVariable, model.OpexFixed}

	chain := c.Rules()
	if len(chain) != len(expected) {
		t.Fatalf("Rules() returned %d rules, expected %d", len(chain), len(expected))
	}
	for i, rule := range chain {
		if rule.Tag != expected[i] {
			t.Errorf("Rules()[%d].Tag = %q, expected %q", i, rule.Tag, expected[i])
		}
	}
}

func TestExtract(t *testing.T) {
	table := workbook.NewTable(
		[]string{"Fecha", "Tipo", "Total", "Comentario"},
		[][]string{
			{"15/09/2025", "INSUMO", "1000", "CHILENA DE CAFES SpA"},
			{"", "LUZ", "80000", ""},
			{"01/11/2025", "PIZZA", "abc", ""},
			{"Pagado 01/11/2025", "PÏZZA", "20000", ""},
			{"02/11/2025", " LUZ ", " 80000 ", " Enel "},
		},
	)

	expenses, err := Extract(table, NewClassifier(rules.Default()), nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(expenses) != 3 {
		t.Fatalf("Extract() returned %d rows, expected 3", len(expenses))
	}

	if expenses[0].Classification != model.Capex {
		t.Errorf("expenses[0].Classification = %q, expected CAPEX", expenses[0].Classification)
	}
	if expenses[1].Type != "PIZZA" || expenses[1].Classification != model.OpexVariable {
		t.Errorf("expenses[1] = %+v, expected corrected PIZZA / OPEX_VARIABLE", expenses[1])
	}
	if expenses[2].Type != "LUZ" || expenses[2].Comment != "Enel" || expenses[2].Amount != 80000 {
		t.Errorf("expenses[2] = %+v, expected trimmed values", expenses[2])
	}
}

func TestExtractMissingColumns(t *testing.T) {
	table := workbook.NewTable([]string{"Fecha", "Total"}, nil)
	if _, err := Extract(table, NewClassifier(nil), nil); err == nil {
		t.Errorf("Extract() expected error for missing columns")
	}
}

func TestLoad(t *testing.T) {
	path := workbooktest.WriteXLSX(t, t.TempDir(), "gastos.xlsx",
		workbooktest.Sheet{Name: SheetName, Rows: [][]any{
			{"Libro de gastos"},
			{"Fecha", "Tipo", "Total", "Comentario"},
			{"15/09/2025", "ARRIENDO", 500000, "Landlord"},
			{"01/11/2025", "LUZ", 80000, "Enel"},
		}},
	)

	expenses, err := Load(path, NewClassifier(nil), nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(expenses) != 2 {
		t.Fatalf("Load() returned %d rows, expected 2", len(expenses))
	}
	if expenses[0].Classification != model.PreOperation || expenses[1].Classification != model.OpexFixed {
		t.Errorf("Load() classifications = %q, %q", expenses[0].Classification, expenses[1].Classification)
	}
}
