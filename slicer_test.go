package dart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func durationFact(local string, value float64, ctxID, start, end string, scope Scope) Fact {
	s := date(start)
	return Fact{
		Concept:    "ifrs-full:" + local,
		LocalName:  local,
		Value:      value,
		Unit:       "KRW",
		UnitRef:    "KRW",
		ContextRef: ctxID,
		Context: &Context{
			ID:         ctxID,
			PeriodType: PeriodDuration,
			Start:      &s,
			End:        date(end),
			Scope:      scope,
		},
	}
}

func valuesByName(t FactTable) map[string]float64 {
	out := make(map[string]float64)
	for _, f := range t {
		out[f.LocalName] = f.Value
	}
	return out
}

func TestSliceQuarterExactWindow(t *testing.T) {
	facts := FactTable{
		durationFact("Revenue", 400, "Q2", "2024-04-01", "2024-06-30", ScopeConsolidated),
		durationFact("Revenue", 900, "H1", "2024-01-01", "2024-06-30", ScopeConsolidated),
		durationFact("Revenue", 350, "Q2prior", "2023-04-01", "2023-06-30", ScopeConsolidated),
	}

	got, method := SliceQuarter(facts, Q2, SliceOptions{})
	assert.Equal(t, SliceExact, method)
	require.Len(t, got, 1)
	assert.Equal(t, "Q2", got[0].ContextRef)
	assert.Equal(t, 400.0, got[0].Value)
}

func TestSliceQuarterDifferenceLaw(t *testing.T) {
	tests := []struct {
		report     ReportType
		ytdEnd     string
		priorEnd   string
		ytd, prior float64
		want       float64
	}{
		{Q2, "2024-06-30", "2024-03-31", 600, 250, 350},
		{Q3, "2024-09-30", "2024-06-30", 900, 600, 300},
		{Q4, "2024-12-31", "2024-09-30", 1300, 900, 400},
	}

	for _, tt := range tests {
		t.Run(tt.report.String(), func(t *testing.T) {
			facts := FactTable{
				durationFact("Revenue", tt.ytd, "YTD", "2024-01-01", tt.ytdEnd, ScopeConsolidated),
				durationFact("Revenue", tt.prior, "PRIOR", "2024-01-01", tt.priorEnd, ScopeConsolidated),
			}

			got, method := SliceQuarter(facts, tt.report, SliceOptions{})
			assert.Equal(t, SliceDerived, method)
			require.Len(t, got, 1)
			assert.InDelta(t, tt.want, got[0].Value, 1e-9)
			assert.Equal(t, "YTD"+DerivedContextSuffix, got[0].ContextRef)
			assert.True(t, got[0].Context.Derived)

			sm, em, ok := got[0].Context.Window()
			require.True(t, ok)
			wantSM, wantEM := tt.report.Window()
			assert.Equal(t, wantSM, sm)
			assert.Equal(t, wantEM, em)
		})
	}
}

func TestSliceQuarterMissingPriorCountsAsZero(t *testing.T) {
	facts := FactTable{
		durationFact("Revenue", 900, "YTD", "2024-01-01", "2024-09-30", ScopeUnknown),
		durationFact("ProfitLoss", 120, "YTD", "2024-01-01", "2024-09-30", ScopeUnknown),
		durationFact("Revenue", 600, "PRIOR", "2024-01-01", "2024-06-30", ScopeUnknown),
	}

	got, method := SliceQuarter(facts, Q3, SliceOptions{})
	assert.Equal(t, SliceDerived, method)
	values := valuesByName(got)
	assert.InDelta(t, 300, values["Revenue"], 1e-9)
	assert.InDelta(t, 120, values["ProfitLoss"], 1e-9)
}

func TestSliceQuarterQ1NeverDerived(t *testing.T) {
	facts := FactTable{
		durationFact("Revenue", 900, "YTD", "2024-01-01", "2024-06-30", ScopeUnknown),
	}

	got, method := SliceQuarter(facts, Q1, SliceOptions{})
	assert.Equal(t, SliceNone, method)
	assert.Empty(t, got)
}

func TestSliceQuarterLatestYear(t *testing.T) {
	facts := FactTable{
		durationFact("Revenue", 100, "CY", "2024-01-01", "2024-03-31", ScopeUnknown),
		durationFact("Revenue", 80, "PY", "2023-01-01", "2023-03-31", ScopeUnknown),
	}

	got, _ := SliceQuarter(facts, Q1, SliceOptions{})
	require.Len(t, got, 1)
	assert.Equal(t, "CY", got[0].ContextRef)
}

func TestSliceQuarterCurrencyFilter(t *testing.T) {
	eps := durationFact("BasicEarningsLossPerShare", 5000, "Q1", "2024-01-01", "2024-03-31", ScopeUnknown)
	eps.Unit = "KRW/shares"
	facts := FactTable{
		durationFact("Revenue", 100, "Q1", "2024-01-01", "2024-03-31", ScopeUnknown),
		eps,
	}

	got, method := SliceQuarter(facts, Q1, SliceOptions{})
	assert.Equal(t, SliceExact, method)
	require.Len(t, got, 1)
	assert.Equal(t, "Revenue", got[0].LocalName)
}

func TestSliceQuarterWidensWhenNoCurrency(t *testing.T) {
	f := durationFact("Revenue", 100, "Q1", "2024-01-01", "2024-03-31", ScopeUnknown)
	f.Unit = "pure"

	got, method := SliceQuarter(FactTable{f}, Q1, SliceOptions{})
	assert.Equal(t, SliceExact, method)
	assert.Len(t, got, 1)
}

func TestSliceQuarterScopePolicies(t *testing.T) {
	mixed := FactTable{
		durationFact("Revenue", 100, "SEP", "2024-01-01", "2024-03-31", ScopeSeparate),
		durationFact("Revenue", 150, "UNK", "2024-01-01", "2024-03-31", ScopeUnknown),
	}
	withConsolidated := append(FactTable{
		durationFact("Revenue", 200, "CON", "2024-01-01", "2024-03-31", ScopeConsolidated),
	}, mixed...)
	onlySeparate := FactTable{
		durationFact("Revenue", 100, "SEP", "2024-01-01", "2024-03-31", ScopeSeparate),
	}

	tests := []struct {
		name   string
		facts  FactTable
		policy ScopePolicy
		want   []string
	}{
		{"consolidated present, prefer", withConsolidated, PreferConsolidated, []string{"CON"}},
		{"consolidated present, exclude", withConsolidated, ExcludeSeparate, []string{"CON"}},
		{"separate and unknown, prefer keeps both", mixed, PreferConsolidated, []string{"SEP", "UNK"}},
		{"separate and unknown, exclude drops separate", mixed, ExcludeSeparate, []string{"UNK"}},
		{"only separate, exclude keeps it", onlySeparate, ExcludeSeparate, []string{"SEP"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := SliceQuarter(tt.facts, Q1, SliceOptions{Policy: tt.policy})
			var ids []string
			for _, f := range got {
				ids = append(ids, f.ContextRef)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestSliceQuarterContextPatternFallback(t *testing.T) {
	// Contexts that never resolved carry no period; only the identifier is left
	facts := FactTable{
		{LocalName: "Revenue", Value: 500, Unit: "KRW", ContextRef: "D20240401-20240630_Consolidated"},
		{LocalName: "Revenue", Value: 450, Unit: "KRW", ContextRef: "D20230401-20230630_Consolidated"},
		{LocalName: "Revenue", Value: 900, Unit: "KRW", ContextRef: "D20240101-20240630_Consolidated"},
	}

	got, method := SliceQuarter(facts, Q2, SliceOptions{
		Now: func() time.Time { return date("2024-08-14") },
	})
	assert.Equal(t, SliceContextPattern, method)
	require.Len(t, got, 1)
	assert.Equal(t, 500.0, got[0].Value)
}

func TestSliceQuarterEmpty(t *testing.T) {
	got, method := SliceQuarter(nil, Q3, SliceOptions{})
	assert.Equal(t, SliceNone, method)
	assert.Empty(t, got)
}

func TestMonthDayPatterns(t *testing.T) {
	tests := []struct {
		report ReportType
		id     string
		want   bool
	}{
		{Q1, "CFY2024_0101_0331", true},
		{Q1, "D2024-01-01_2024-03-31", true},
		{Q2, "PeriodFrom20240401To20240630", true},
		{Q2, "D20240401-20240630", true},
		{Q3, "2024-07-01_2024-09-30_Consolidated", true},
		{Q3, "D20240101-20240930", false},
		{Q4, "FY20241001-20241231", true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, quarterContextPatterns[tt.report].MatchString(tt.id))
		})
	}
}

func TestReportTypes(t *testing.T) {
	codes := map[ReportType]string{Q1: "11013", Q2: "11012", Q3: "11014", Q4: "11011"}
	for r, code := range codes {
		assert.Equal(t, code, r.Code())
		parsed, err := ParseReportType(code)
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}

	r, err := ParseReportType("3q")
	require.NoError(t, err)
	assert.Equal(t, Q3, r)
	assert.Equal(t, "3Q", r.Label())

	_, err = ParseReportType("Q5")
	assert.Error(t, err)
}
