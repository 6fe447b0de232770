package dart

import (
	"math"

	"github.com/shopspring/decimal"
)

// AnnualLabel labels the full-year row of a quarterly table.
const AnnualLabel = "FY"

// QuarterAmounts is what one periodic filing contributed.
type QuarterAmounts struct {
	Current    Items // the filing's own three months
	Cumulative Items // year to date; Current when the source lacks a cumulative column
}

// cumulative returns the year-to-date figures, defaulting to current.
func (q QuarterAmounts) cumulative() Items {
	if len(q.Cumulative) > 0 {
		return q.Cumulative
	}
	return q.Current
}

// QuarterlyRecord is one row of a quarterly table. Raw values are in won;
// Eok and Jo hold the same figures in 억원 (whole) and 조원 (two decimals).
type QuarterlyRecord struct {
	Company string                   `json:"company"`
	Year    int                      `json:"year"`
	Quarter string                   `json:"quarter"` // "1Q".."4Q" or "FY"
	Raw     map[StandardItem]float64 `json:"raw"`
	Eok     map[StandardItem]float64 `json:"eok"`
	Jo      map[StandardItem]float64 `json:"jo"`
	Ratios  map[string]float64       `json:"ratios,omitempty"`
}

// AggregateQuarters builds the quarterly table for one company and year.
//
// Q1 to Q3 rows carry the filed current-period amounts unchanged. The Q4 row
// is the annual cumulative amount minus the sum of the Q1 to Q3 current
// amounts, per metric over the union of their keys with absent keys as zero.
// The FY row is the annual cumulative amount itself. Quarters whose filing is
// missing are omitted, and Q4 is omitted unless Q1 to Q3 are all present. An
// annual filing with an incomplete Q1 to Q3 set therefore yields an FY row and
// no 4Q row.
func AggregateQuarters(company string, year int, filings map[ReportType]QuarterAmounts) []QuarterlyRecord {
	var records []QuarterlyRecord

	for _, r := range []ReportType{Q1, Q2, Q3} {
		q, ok := filings[r]
		if !ok {
			continue
		}
		records = append(records, newQuarterlyRecord(company, year, r.Label(), q.Current))
	}

	annual, ok := filings[Q4]
	if !ok {
		return records
	}

	if q4, ok := deriveFourthQuarter(annual.cumulative(), filings); ok {
		records = append(records, newQuarterlyRecord(company, year, Q4.Label(), q4))
	}
	records = append(records, newQuarterlyRecord(company, year, AnnualLabel, annual.cumulative()))

	return records
}

// deriveFourthQuarter returns annual − (Q1+Q2+Q3) current amounts, or false
// if any of the first three filings is missing.
func deriveFourthQuarter(annual Items, filings map[ReportType]QuarterAmounts) (Items, bool) {
	parts := make([]Items, 0, 3)
	for _, r := range []ReportType{Q1, Q2, Q3} {
		q, ok := filings[r]
		if !ok {
			return nil, false
		}
		parts = append(parts, q.Current)
	}

	keys := make(map[StandardItem]struct{})
	for k := range annual {
		keys[k] = struct{}{}
	}
	for _, p := range parts {
		for k := range p {
			keys[k] = struct{}{}
		}
	}

	q4 := make(Items, len(keys))
	for k := range keys {
		v := decimal.NewFromFloat(annual[k])
		for _, p := range parts {
			v = v.Sub(decimal.NewFromFloat(p[k]))
		}
		q4[k] = v.InexactFloat64()
	}
	return q4, true
}

func newQuarterlyRecord(company string, year int, label string, values Items) QuarterlyRecord {
	rec := QuarterlyRecord{
		Company: company,
		Year:    year,
		Quarter: label,
		Raw:     make(map[StandardItem]float64, len(values)),
		Eok:     make(map[StandardItem]float64, len(values)),
		Jo:      make(map[StandardItem]float64, len(values)),
	}
	for k, v := range values {
		rec.Raw[k] = v
		rec.Eok[k] = math.Round(v / unitEok)
		rec.Jo[k] = math.Round(v/unitJo*100) / 100
	}

	if revenue, ok := values[Revenue]; ok && revenue != 0 {
		rec.Ratios = make(map[string]float64)
		for _, def := range ratioDefinitions {
			if v, ok := values[def.numerator]; ok {
				rec.Ratios[def.key] = math.Round(v/revenue*100*100) / 100
			}
		}
	}
	return rec
}
