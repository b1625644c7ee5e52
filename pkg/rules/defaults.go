package rules

// Classification labels written to the fact tables.
const (
	GroupOther          = "OTHER"
	GroupAdministrative = "ADMINISTRATIVE"
	GroupOtherSupplies  = "OTHER_SUPPLIES"

	GroupSandwich   = "SANDWICH"
	GroupCoffee     = "COFFEE"
	GroupPastry     = "PASTRY"
	GroupTea        = "TEA"
	GroupPizza      = "PIZZA"
	GroupColdDrinks = "COLD_DRINKS"
	GroupIceCream   = "ICE_CREAM"
	GroupPromotions = "PROMOTIONS"
)

// DefaultConfig returns the built-in lookup tables.
func DefaultConfig() Config {
	return Config{
		OperationStart:   "2025-10-01",
		SalesTaxRate:     0.19,
		CorporateTaxRate: 0.27,
		Expenses: ExpenseConfig{
			CapexVendors: []string{
				"CHILENA DE CAFES SpA",
				"CONSTRUCTORA CELSA SPA",
				"FABRICA DE MUEBLES INTERKITT LIMITADA",
				"BOZZO S.A.",
			},
			TypoCorrections: map[string]string{
				"PÏZZA": "PIZZA",
			},
			OverheadTypes: []string{
				"COMISIONES VENTAS",
				"INSUMO",
				"IMPLEMENTACIÓN",
				"SERVICIOS",
				"SOFTWARE",
				"REMUNERACIONES",
				"ARRIENDO",
				"LUZ",
				"AGUA",
				"GASTOS COMUNES",
			},
			Group2: []TypeMapping{
				{Type: "COMISIONES VENTAS", Group: GroupAdministrative},
				{Type: "INSUMO", Group: GroupOtherSupplies},
				{Type: "SERVICIOS", Group: GroupAdministrative},
				{Type: "SOFTWARE", Group: GroupAdministrative},
				{Type: "REMUNERACIONES", Group: GroupAdministrative},
			},
			VariableTypes: []string{
				"COMISIONES VENTAS",
				"PIZZA",
				"INSUMO",
				"CAFÉ",
				"TÉ",
				"PASTELERÍA",
			},
			OtherGroup: GroupOther,
		},
		Sections: SectionConfig{
			Groups: []SectionMapping{
				{Section: "Sándwiches", Group: GroupSandwich},
				{Section: "🌟 Diferenciadores (Experiencia Café Kairós)", Group: GroupCoffee},
				{Section: "Café", Group: GroupCoffee},
				{Section: "Croissant Salados", Group: GroupPastry},
				{Section: "Pastelería", Group: GroupPastry},
				{Section: "Waffles", Group: GroupPastry},
				{Section: "Jugos naturales", Group: GroupColdDrinks},
				{Section: "Bollería", Group: GroupPastry},
				{Section: "Batidos", Group: GroupColdDrinks},
				{Section: "Bebidas frías y otras opciones", Group: GroupColdDrinks},
				{Section: "Brunch", Group: GroupOther},
				{Section: "Pizza de la casa", Group: GroupPizza},
				{Section: "Helados", Group: GroupIceCream},
				{Section: "Productos Blackdrop Coffee", Group: GroupCoffee},
				{Section: "Promociones día del profesor/a", Group: GroupPromotions},
				{Section: `Promoción Lunes "Café + Torta del día"`, Group: GroupPromotions},
				{Section: "🌟 Diferenciadores (Bebidas Frías)", Group: GroupCoffee},
				{Section: "Cajas dulce Kairós", Group: GroupPastry},
				{Section: "🌟 Latte Blackdrop (producto vegano)", Group: GroupCoffee},
				{Section: "Momento Kairós - Fotografía", Group: GroupOther},
				{Section: "Promociones Kairós", Group: GroupPromotions},
			},
			Fallback:   GroupTea,
			CoreGroups: []string{GroupCoffee, GroupPastry, GroupTea, GroupPizza},
			OtherGroup: GroupOther,
		},
	}
}
