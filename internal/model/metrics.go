package model

import "github.com/rotisserie/eris"

// FinancialMetrics is the extraction result for one filing. Pointer fields
// distinguish "not extracted" (nil, serialized as null) from a real zero.
type FinancialMetrics struct {
	Ticker                   string   `json:"company_ticker"`
	FiscalYear               *int     `json:"fiscal_year"`
	CIK                      *string  `json:"cik"`
	NorthAmericaRevenue      *float64 `json:"north_america_revenue"`
	DepreciationAmortization *float64 `json:"depreciation_amortization"`
	LeaseLiabilities         *float64 `json:"lease_liabilities"`
	TotalRevenue             *float64 `json:"total_revenue"`
	NetIncome                *float64 `json:"net_income"`
}

// FieldKind distinguishes numeric metrics from identifier fields, which are
// compared by exact equality rather than relative error.
type FieldKind string

const (
	FieldNumber     FieldKind = "number"
	FieldIdentifier FieldKind = "identifier"
)

// FieldSpec describes one schema field and how to prompt for it.
type FieldSpec struct {
	Name        string
	Kind        FieldKind
	Description string
}

// Schema is a named set of fields requested in a single run.
type Schema struct {
	Name   string
	Fields []FieldSpec
}

// TenK targets segment-level metrics buried in the notes of a 10-K.
var TenK = Schema{
	Name: "tenk",
	Fields: []FieldSpec{
		{Name: "north_america_revenue", Kind: FieldNumber, Description: "total revenue attributable to North America operations, in USD"},
		{Name: "depreciation_amortization", Kind: FieldNumber, Description: "depreciation and amortization expense for the fiscal year, in USD"},
		{Name: "lease_liabilities", Kind: FieldNumber, Description: "total lease liabilities (current plus non-current), in USD"},
	},
}

// Fundamentals targets headline figures plus the SEC registrant identifier.
var Fundamentals = Schema{
	Name: "fundamentals",
	Fields: []FieldSpec{
		{Name: "cik", Kind: FieldIdentifier, Description: "SEC Central Index Key of the registrant"},
		{Name: "total_revenue", Kind: FieldNumber, Description: "total revenue for the fiscal year, in USD"},
		{Name: "net_income", Kind: FieldNumber, Description: "net income for the fiscal year, in USD"},
	},
}

// SchemaByName resolves a schema profile by its CLI name.
func SchemaByName(name string) (Schema, error) {
	switch name {
	case TenK.Name:
		return TenK, nil
	case Fundamentals.Name:
		return Fundamentals, nil
	}
	return Schema{}, eris.Errorf("model: unknown schema %q", name)
}

// Number returns the named numeric field, nil for unknown names.
func (m *FinancialMetrics) Number(field string) *float64 {
	switch field {
	case "north_america_revenue":
		return m.NorthAmericaRevenue
	case "depreciation_amortization":
		return m.DepreciationAmortization
	case "lease_liabilities":
		return m.LeaseLiabilities
	case "total_revenue":
		return m.TotalRevenue
	case "net_income":
		return m.NetIncome
	}
	return nil
}

// SetNumber assigns the named numeric field; unknown names are ignored.
func (m *FinancialMetrics) SetNumber(field string, v *float64) {
	switch field {
	case "north_america_revenue":
		m.NorthAmericaRevenue = v
	case "depreciation_amortization":
		m.DepreciationAmortization = v
	case "lease_liabilities":
		m.LeaseLiabilities = v
	case "total_revenue":
		m.TotalRevenue = v
	case "net_income":
		m.NetIncome = v
	}
}

// Identifier returns the named identifier field, nil for unknown names.
func (m *FinancialMetrics) Identifier(field string) *string {
	if field == "cik" {
		return m.CIK
	}
	return nil
}

// SetIdentifier assigns the named identifier field; unknown names are ignored.
func (m *FinancialMetrics) SetIdentifier(field string, v *string) {
	if field == "cik" {
		m.CIK = v
	}
}

// FromRaw builds metrics from a decoded LLM response. Each schema field is
// normalized; anything unreadable stays nil. The ticker always comes from the
// caller, never from the model output.
func FromRaw(raw map[string]any, schema Schema, ticker string) FinancialMetrics {
	m := FinancialMetrics{Ticker: ticker}

	for _, f := range schema.Fields {
		switch f.Kind {
		case FieldIdentifier:
			if s, ok := raw[f.Name].(string); ok && s != "" {
				cik := NormalizeCIK(s)
				m.SetIdentifier(f.Name, &cik)
			} else if n := NormalizeNumber(raw[f.Name]); n != nil {
				cik := NormalizeCIK(formatIdentifier(*n))
				m.SetIdentifier(f.Name, &cik)
			}
		default:
			m.SetNumber(f.Name, NormalizeNumber(raw[f.Name]))
		}
	}

	if fy := NormalizeNumber(raw["fiscal_year"]); fy != nil {
		year := int(*fy)
		m.FiscalYear = &year
	}

	return m
}
