// Package rules holds the literal lookup tables that drive expense and section
// classification. Defaults are compiled in; a YAML file may override them.
package rules

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the layout of dates in rule files.
const DateLayout = "2006-01-02"

// TypeMapping maps an expense type label to a group label.
type TypeMapping struct {
	Type  string `yaml:"type"`
	Group string `yaml:"group"`
}

// SectionMapping maps a menu section name to its group_2 label.
type SectionMapping struct {
	Section string `yaml:"section"`
	Group   string `yaml:"group"`
}

// ExpenseConfig configures the expense classifier.
type ExpenseConfig struct {
	CapexVendors    []string          `yaml:"capex_vendors"`
	TypoCorrections map[string]string `yaml:"typo_corrections"`
	OverheadTypes   []string          `yaml:"overhead_types"`
	Group2          []TypeMapping     `yaml:"group_2"`
	VariableTypes   []string          `yaml:"variable_types"`
	OtherGroup      string            `yaml:"other_group"`
}

// SectionConfig configures the section dimension.
type SectionConfig struct {
	Groups     []SectionMapping `yaml:"groups"`
	Fallback   string           `yaml:"fallback"`
	CoreGroups []string         `yaml:"core_groups"`
	OtherGroup string           `yaml:"other_group"`
}

// Config is the serializable form of a rule set.
type Config struct {
	OperationStart   string        `yaml:"operation_start"`
	SalesTaxRate     float64       `yaml:"sales_tax_rate"`
	CorporateTaxRate float64       `yaml:"corporate_tax_rate"`
	Expenses         ExpenseConfig `yaml:"expenses"`
	Sections         SectionConfig `yaml:"sections"`
}

// Rules is a compiled, read-only rule set.
type Rules struct {
	config         Config
	operationStart time.Time
	capexVendors   map[string]bool
	overhead       map[string]bool
	variable       map[string]bool
	group2         map[string]string
	sections       map[string]string
	coreGroups     map[string]bool
}

// Default returns the built-in rule set.
func Default() *Rules {
	r, err := New(DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("invalid default rules: %v", err))
	}
	return r
}

// Load reads a YAML rule file on top of the defaults. Keys absent from the
// file keep their default values; lists present in the file replace the
// default list.
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return New(cfg)
}

// New validates cfg and builds the lookup maps.
func New(cfg Config) (*Rules, error) {
	start, err := time.Parse(DateLayout, cfg.OperationStart)
	if err != nil {
		return nil, fmt.Errorf("invalid operation_start %q: %w", cfg.OperationStart, err)
	}
	if cfg.SalesTaxRate < 0 || cfg.SalesTaxRate >= 1 {
		return nil, fmt.Errorf("sales_tax_rate must be in [0, 1), got %v", cfg.SalesTaxRate)
	}
	if cfg.CorporateTaxRate < 0 || cfg.CorporateTaxRate >= 1 {
		return nil, fmt.Errorf("corporate_tax_rate must be in [0, 1), got %v", cfg.CorporateTaxRate)
	}
	if cfg.Sections.Fallback == "" || cfg.Sections.OtherGroup == "" || cfg.Expenses.OtherGroup == "" {
		return nil, fmt.Errorf("fallback group labels must not be empty")
	}

	cfg = cfg.clone()
	r := &Rules{
		config:         cfg,
		operationStart: start,
		capexVendors:   toSet(cfg.Expenses.CapexVendors),
		overhead:       toSet(cfg.Expenses.OverheadTypes),
		variable:       toSet(cfg.Expenses.VariableTypes),
		group2:         make(map[string]string, len(cfg.Expenses.Group2)),
		sections:       make(map[string]string, len(cfg.Sections.Groups)),
		coreGroups:     toSet(cfg.Sections.CoreGroups),
	}

	for _, m := range cfg.Expenses.Group2 {
		r.group2[m.Type] = m.Group
	}
	for _, m := range cfg.Sections.Groups {
		if _, dup := r.sections[m.Section]; dup {
			return nil, fmt.Errorf("duplicate section mapping for %q", m.Section)
		}
		r.sections[m.Section] = m.Group
	}

	return r, nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// OperationStart returns the first day of regular operation.
func (r *Rules) OperationStart() time.Time {
	return r.operationStart
}

// SalesTaxRate returns the VAT rate included in sales totals.
func (r *Rules) SalesTaxRate() float64 {
	return r.config.SalesTaxRate
}

// CorporateTaxRate returns the income tax rate applied to positive EBIT.
func (r *Rules) CorporateTaxRate() float64 {
	return r.config.CorporateTaxRate
}

// IsCapexVendor reports whether a comment names a capital-expenditure vendor.
// The match is exact.
func (r *Rules) IsCapexVendor(comment string) bool {
	return r.capexVendors[comment]
}

// CanonicalType corrects known misspellings of an expense type.
func (r *Rules) CanonicalType(expenseType string) string {
	if fixed, ok := r.config.Expenses.TypoCorrections[expenseType]; ok {
		return fixed
	}
	return expenseType
}

// IsOverhead reports whether an expense type belongs to the overhead set.
func (r *Rules) IsOverhead(expenseType string) bool {
	return r.overhead[expenseType]
}

// IsVariable reports whether an expense type scales with sales.
func (r *Rules) IsVariable(expenseType string) bool {
	return r.variable[expenseType]
}

// Group2Override returns the refined group_2 label for an expense type.
func (r *Rules) Group2Override(expenseType string) (string, bool) {
	g, ok := r.group2[expenseType]
	return g, ok
}

// ExpenseOtherGroup returns the group_1 label for overhead expense types.
func (r *Rules) ExpenseOtherGroup() string {
	return r.config.Expenses.OtherGroup
}

// SectionGroup returns the group_2 label for a menu section, or the fallback
// label when the section is not mapped.
func (r *Rules) SectionGroup(section string) string {
	if g, ok := r.sections[section]; ok {
		return g
	}
	return r.config.Sections.Fallback
}

// SectionGroups returns the group_1 and group_2 labels of a menu section.
// An unmapped section is (OtherGroup, Fallback): the fallback group_2 never
// promotes the section to a core category.
func (r *Rules) SectionGroups(section string) (group1, group2 string) {
	g, ok := r.sections[section]
	if !ok {
		return r.config.Sections.OtherGroup, r.config.Sections.Fallback
	}
	return r.SectionGroup1(g), g
}

// SectionGroup1 derives group_1 from a mapped section's group_2.
func (r *Rules) SectionGroup1(group2 string) string {
	if r.coreGroups[group2] {
		return group2
	}
	return r.config.Sections.OtherGroup
}

// Config returns a copy of the underlying configuration.
func (r *Rules) Config() Config {
	return r.config.clone()
}

func (c Config) clone() Config {
	c.Expenses.CapexVendors = append([]string(nil), c.Expenses.CapexVendors...)
	c.Expenses.OverheadTypes = append([]string(nil), c.Expenses.OverheadTypes...)
	c.Expenses.VariableTypes = append([]string(nil), c.Expenses.VariableTypes...)
	c.Expenses.Group2 = append([]TypeMapping(nil), c.Expenses.Group2...)
	c.Sections.Groups = append([]SectionMapping(nil), c.Sections.Groups...)
	c.Sections.CoreGroups = append([]string(nil), c.Sections.CoreGroups...)
	typos := make(map[string]string, len(c.Expenses.TypoCorrections))
	for k, v := range c.Expenses.TypoCorrections {
		typos[k] = v
	}
	c.Expenses.TypoCorrections = typos
	return c
}
