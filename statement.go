package dart

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MissingPlaceholder fills merged cells for items a company did not report.
const MissingPlaceholder = "-"

// Korean display units.
const (
	unitJo  = 1e12 // 조
	unitEok = 1e8  // 억
	unitMan = 1e4  // 만
)

var printer = message.NewPrinter(language.Korean)

// Row is one statement line with its raw value and display string.
type Row struct {
	Item    StandardItem `json:"item"`
	Label   string       `json:"label"`
	Value   float64      `json:"value"`
	Display string       `json:"display"`
}

// Ratio is a percentage of revenue.
type Ratio struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Display string  `json:"display"`
}

// Statement is the normalised income statement of one company.
type Statement struct {
	Company string  `json:"company"`
	Rows    []Row   `json:"rows"`
	Ratios  []Ratio `json:"ratios,omitempty"`
}

// ratioDefinitions are appended in this order; the denominator is always revenue.
var ratioDefinitions = []struct {
	key       string
	label     string
	numerator StandardItem
}{
	{"operating_margin", "영업이익률", OperatingIncome},
	{"gross_margin", "매출총이익률", GrossProfit},
	{"net_margin", "순이익률", NetIncome},
	{"cost_ratio", "매출원가율", CostOfSales},
	{"sga_ratio", "판관비율", SGA},
}

// BuildStatement lays mapped items out in display order. Unmapped items are
// omitted. Ratio rows are added only when revenue is present and nonzero, and
// only for numerators that are present.
func BuildStatement(company string, items Items) Statement {
	stmt := Statement{Company: company}

	for _, item := range StandardItems {
		v, ok := items[item]
		if !ok {
			continue
		}
		stmt.Rows = append(stmt.Rows, Row{
			Item:    item,
			Label:   item.Label(),
			Value:   v,
			Display: FormatAmount(v),
		})
	}

	revenue, ok := items[Revenue]
	if !ok || revenue == 0 {
		return stmt
	}
	for _, def := range ratioDefinitions {
		v, ok := items[def.numerator]
		if !ok {
			continue
		}
		pct := v / revenue * 100
		stmt.Ratios = append(stmt.Ratios, Ratio{
			Key:     def.key,
			Label:   def.label,
			Value:   pct,
			Display: FormatRatio(pct),
		})
	}
	return stmt
}

// Value returns the raw value of an item and whether the statement has it.
func (s Statement) Value(item StandardItem) (float64, bool) {
	for _, r := range s.Rows {
		if r.Item == item {
			return r.Value, true
		}
	}
	return 0, false
}

// FormatAmount renders a won amount in the largest fitting Korean unit:
// 조 with one decimal, then 억 and 만 rounded to whole units, then plain 원.
// Negative amounts carry a "▼" prefix and zero is rendered as "0".
func FormatAmount(v float64) string {
	if v == 0 {
		return "0"
	}

	sign := ""
	if v < 0 {
		sign = "▼"
	}
	a := math.Abs(v)

	switch {
	case a >= unitJo:
		return sign + printer.Sprintf("%.1f조원", math.Round(a/unitJo*10)/10)
	case a >= unitEok:
		return sign + printer.Sprintf("%d억원", int64(math.Round(a/unitEok)))
	case a >= unitMan:
		return sign + printer.Sprintf("%d만원", int64(math.Round(a/unitMan)))
	default:
		return sign + printer.Sprintf("%d원", int64(math.Round(a)))
	}
}

// FormatRatio renders a percentage with two decimals.
func FormatRatio(pct float64) string {
	return fmt.Sprintf("%.2f%%", pct)
}

// MergedRow is one line of a multi-company comparison.
type MergedRow struct {
	Key     string     `json:"key"`
	Label   string     `json:"label"`
	Display []string   `json:"display"` // one per company, MissingPlaceholder when absent
	Values  []*float64 `json:"values"`  // nil when absent
}

// MergedTable is an outer join of statements on item (and ratio) key.
type MergedTable struct {
	Companies []string    `json:"companies"`
	Rows      []MergedRow `json:"rows"`
}

// MergeStatements outer-joins statements on standard item name. Items keep
// display order, followed by ratio rows in definition order. A row appears if
// any statement has it; cells of statements lacking it hold the placeholder.
func MergeStatements(stmts ...Statement) MergedTable {
	table := MergedTable{}
	for _, s := range stmts {
		table.Companies = append(table.Companies, s.Company)
	}

	for _, item := range StandardItems {
		row := MergedRow{Key: string(item), Label: item.Label()}
		present := false
		for _, s := range stmts {
			if v, ok := s.Value(item); ok {
				present = true
				value := v
				row.Display = append(row.Display, FormatAmount(v))
				row.Values = append(row.Values, &value)
			} else {
				row.Display = append(row.Display, MissingPlaceholder)
				row.Values = append(row.Values, nil)
			}
		}
		if present {
			table.Rows = append(table.Rows, row)
		}
	}

	for _, def := range ratioDefinitions {
		row := MergedRow{Key: def.key, Label: def.label}
		present := false
		for _, s := range stmts {
			if r, ok := s.ratio(def.key); ok {
				present = true
				value := r.Value
				row.Display = append(row.Display, r.Display)
				row.Values = append(row.Values, &value)
			} else {
				row.Display = append(row.Display, MissingPlaceholder)
				row.Values = append(row.Values, nil)
			}
		}
		if present {
			table.Rows = append(table.Rows, row)
		}
	}

	return table
}

func (s Statement) ratio(key string) (Ratio, bool) {
	for _, r := range s.Ratios {
		if r.Key == key {
			return r, true
		}
	}
	return Ratio{}, false
}
