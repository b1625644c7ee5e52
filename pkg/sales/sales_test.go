package sales

import (
	"errors"
	"testing"

	"github.com/shunichi-ikebuchi/cafe-finance/pkg/rules"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/workbook"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/workbook/workbooktest"
)

func TestSplitTax(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		tax   float64
		net   float64
	}{
		{"round number", 1190, 226, 964},
		{"round down", 1000, 190, 810},
		{"half to even up", 1250, 238, 1012},
		{"half to even up to even", 50, 10, 40},
		{"half to even down", 150, 28, 122},
		{"zero", 0, 0, 0},
		{"fractional total", 1000.5, 190, 810.5},
		{"refund", -1190, -226, -964},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tax, net := SplitTax(tt.total, 0.19)
			if tax != tt.tax || net != tt.net {
				t.Errorf("SplitTax(%v) = %v, %v, expected %v, %v", tt.total, tax, net, tt.tax, tt.net)
			}
		})
	}
}

func TestSplitTaxSumsToTotal(t *testing.T) {
	for cents := 0; cents < 200000; cents += 7 {
		total := float64(cents) / 100
		tax, net := SplitTax(total, 0.19)
		if tax+net != total {
			t.Fatalf("SplitTax(%v): tax %v + net %v != total", total, tax, net)
		}
	}

	for total := 0.0; total <= 50000; total += 37 {
		tax, net := SplitTax(total, 0.19)
		if tax+net != total {
			t.Fatalf("SplitTax(%v): tax %v + net %v != total", total, tax, net)
		}
		if tax != float64(int64(tax)) {
			t.Fatalf("SplitTax(%v): tax %v is not a whole unit", total, tax)
		}
	}
}

func TestExtractTransactions(t *testing.T) {
	table := workbook.NewTable(
		[]string{"Fecha Completado", "Total", "Medio de pago"},
		[][]string{
			{"15/09/2025", "1190", "Tarjeta"},
			{"", "5000", "Efectivo"},
			{"16/09/2025", "n/a", "Efectivo"},
			{"Completado 16/09/2025", "2380", "Efectivo"},
		},
	)

	txns, err := ExtractTransactions(table, 0.19, nil)
	if err != nil {
		t.Fatalf("ExtractTransactions() error = %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("ExtractTransactions() returned %d rows, expected 2", len(txns))
	}
	if txns[0].Tax != 226 || txns[0].Net != 964 {
		t.Errorf("txns[0] = %+v, expected tax 226 net 964", txns[0])
	}
	if txns[1].Date.Day() != 16 || txns[1].Total != 2380 {
		t.Errorf("txns[1] = %+v", txns[1])
	}
}

func TestExtractTransactionsMissingColumn(t *testing.T) {
	table := workbook.NewTable([]string{"Fecha Completado"}, nil)
	if _, err := ExtractTransactions(table, 0.19, nil); err == nil {
		t.Errorf("ExtractTransactions() expected error for missing total")
	}
}

func TestExtractItems(t *testing.T) {
	table := workbook.NewTable(
		[]string{"Fecha Completado", "Sección", "Producto", "Precio"},
		[][]string{
			{"15/09/2025", "Café", "Latte", "3200"},
			{"15/09/2025", "Waffles", "Waffle", ""},
			{"bad", "Café", "Latte", "3200"},
			{"16/09/2025", " Pastelería ", "Kuchen", "2500"},
		},
	)

	items, err := ExtractItems(table, nil)
	if err != nil {
		t.Fatalf("ExtractItems() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("ExtractItems() returned %d rows, expected 2", len(items))
	}
	if items[1].Section != "Pastelería" || items[1].Price != 2500 {
		t.Errorf("items[1] = %+v", items[1])
	}
}

func TestExtractSections(t *testing.T) {
	table := workbook.NewTable(
		[]string{"Sección", "Total"},
		[][]string{
			{"Waffles", "120000"},
			{"Unknown Thing", "5000"},
			{"Café", "abc"},
			{"", "100"},
			{"Waffles", "1"},
			{"Pizza de la casa", "80000"},
		},
	)

	sections, err := ExtractSections(table, rules.Default(), nil)
	if err != nil {
		t.Fatalf("ExtractSections() error = %v", err)
	}

	tests := []struct {
		name   string
		total  float64
		group1 string
		group2 string
	}{
		{"Waffles", 120000, "PASTRY", "PASTRY"},
		{"Unknown Thing", 5000, "OTHER", "TEA"},
		{"Pizza de la casa", 80000, "PIZZA", "PIZZA"},
	}

	if len(sections) != len(tests) {
		t.Fatalf("ExtractSections() returned %d rows, expected %d", len(sections), len(tests))
	}
	for i, tt := range tests {
		s := sections[i]
		if s.Name != tt.name || s.Total != tt.total || s.Group1 != tt.group1 || s.Group2 != tt.group2 {
			t.Errorf("sections[%d] = %+v, expected %+v", i, s, tt)
		}
	}
}

func TestLoad(t *testing.T) {
	path := workbooktest.WriteXLSX(t, t.TempDir(), "ventas.xlsx",
		workbooktest.Sheet{Name: SheetTransactions, Rows: [][]any{
			{"Transacciones"},
			{"Fecha Completado", "Total"},
			{"15/09/2025", 1190},
		}},
		workbooktest.Sheet{Name: SheetItems, Rows: [][]any{
			{"Items"},
			{"Fecha Completado", "Sección", "Precio"},
			{"15/09/2025", "Café", 1190},
		}},
		workbooktest.Sheet{Name: SheetSections, Rows: [][]any{
			{"Secciones"},
			{"Sección", "Total"},
			{"Café", 1190},
		}},
	)

	result, err := Load(path, nil, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(result.Transactions) != 1 || len(result.Items) != 1 || len(result.Sections) != 1 {
		t.Errorf("Load() = %d/%d/%d rows, expected 1/1/1", len(result.Transactions), len(result.Items), len(result.Sections))
	}
	if result.Sections[0].Group1 != "COFFEE" {
		t.Errorf("Load() section group_1 = %q, expected COFFEE", result.Sections[0].Group1)
	}
}

func TestLoadMissingSheet(t *testing.T) {
	path := workbooktest.WriteXLSX(t, t.TempDir(), "ventas.xlsx",
		workbooktest.Sheet{Name: SheetTransactions, Rows: [][]any{
			{"Transacciones"},
			{"Fecha Completado", "Total"},
		}},
	)

	_, err := Load(path, nil, nil)
	if !errors.Is(err, workbook.ErrSheetNotFound) {
		t.Errorf("Load() error = %v, expected ErrSheetNotFound", err)
	}
}
