package dart

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quarterLabels(records []QuarterlyRecord) []string {
	var labels []string
	for _, r := range records {
		labels = append(labels, r.Quarter)
	}
	return labels
}

func TestAggregateQuartersFourthQuarter(t *testing.T) {
	filings := map[ReportType]QuarterAmounts{
		Q1: {Current: Items{Revenue: 100}},
		Q2: {Current: Items{Revenue: 120}, Cumulative: Items{Revenue: 220}},
		Q3: {Current: Items{Revenue: 130}, Cumulative: Items{Revenue: 350}},
		Q4: {Current: Items{Revenue: 500}, Cumulative: Items{Revenue: 500}},
	}

	records := AggregateQuarters("A", 2024, filings)
	assert.Equal(t, []string{"1Q", "2Q", "3Q", "4Q", AnnualLabel}, quarterLabels(records))

	assert.Equal(t, 100.0, records[0].Raw[Revenue])
	assert.Equal(t, 120.0, records[1].Raw[Revenue])
	assert.Equal(t, 130.0, records[2].Raw[Revenue])
	assert.Equal(t, 150.0, records[3].Raw[Revenue])
	assert.Equal(t, 500.0, records[4].Raw[Revenue])

	for _, r := range records {
		assert.Equal(t, "A", r.Company)
		assert.Equal(t, 2024, r.Year)
	}
}

func TestAggregateQuartersKeyUnion(t *testing.T) {
	filings := map[ReportType]QuarterAmounts{
		Q1: {Current: Items{Revenue: 100, NetIncome: 10}},
		Q2: {Current: Items{Revenue: 100, SGA: 5}},
		Q3: {Current: Items{Revenue: 100}},
		Q4: {Current: Items{Revenue: 90}, Cumulative: Items{Revenue: 390, NetIncome: 40}},
	}

	records := AggregateQuarters("A", 2024, filings)
	require.Len(t, records, 5)

	want := map[StandardItem]float64{Revenue: 90, NetIncome: 30, SGA: -5}
	if diff := cmp.Diff(want, records[3].Raw); diff != "" {
		t.Errorf("Q4 mismatch (-want +got):\n%s", diff)
	}

	want = map[StandardItem]float64{Revenue: 390, NetIncome: 40}
	if diff := cmp.Diff(want, records[4].Raw); diff != "" {
		t.Errorf("annual row mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateQuartersCumulativeDefaultsToCurrent(t *testing.T) {
	filings := map[ReportType]QuarterAmounts{
		Q1: {Current: Items{Revenue: 100}},
		Q2: {Current: Items{Revenue: 100}},
		Q3: {Current: Items{Revenue: 100}},
		Q4: {Current: Items{Revenue: 420}},
	}

	records := AggregateQuarters("A", 2024, filings)
	require.Len(t, records, 5)
	assert.Equal(t, 120.0, records[3].Raw[Revenue])
	assert.Equal(t, 420.0, records[4].Raw[Revenue])
}

func TestAggregateQuartersMissingFilings(t *testing.T) {
	tests := []struct {
		name    string
		filings map[ReportType]QuarterAmounts
		want    []string
	}{
		{
			name: "missing Q2 drops Q4 but keeps the annual row",
			filings: map[ReportType]QuarterAmounts{
				Q1: {Current: Items{Revenue: 100}},
				Q3: {Current: Items{Revenue: 100}},
				Q4: {Cumulative: Items{Revenue: 400}},
			},
			want: []string{"1Q", "3Q", AnnualLabel},
		},
		{
			name: "no annual filing",
			filings: map[ReportType]QuarterAmounts{
				Q1: {Current: Items{Revenue: 100}},
				Q2: {Current: Items{Revenue: 100}},
			},
			want: []string{"1Q", "2Q"},
		},
		{
			name:    "nothing",
			filings: nil,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, quarterLabels(AggregateQuarters("A", 2024, tt.filings)))
		})
	}
}

func TestAggregateQuartersAnnualWithoutFourthQuarter(t *testing.T) {
	records := AggregateQuarters("A", 2024, map[ReportType]QuarterAmounts{
		Q1: {Current: Items{Revenue: 100}},
		Q3: {Current: Items{Revenue: 120}},
		Q4: {Current: Items{Revenue: 180}, Cumulative: Items{Revenue: 400, OperatingIncome: 40}},
	})
	require.Equal(t, []string{"1Q", "3Q", AnnualLabel}, quarterLabels(records))

	fy := records[2]
	assert.Equal(t, AnnualLabel, fy.Quarter)
	assert.Equal(t, 400.0, fy.Raw[Revenue])
	assert.Equal(t, 40.0, fy.Raw[OperatingIncome])
	for _, r := range records {
		assert.NotEqual(t, "4Q", r.Quarter)
	}
}

func TestQuarterlyRecordDisplayUnits(t *testing.T) {
	records := AggregateQuarters("A", 2024, map[ReportType]QuarterAmounts{
		Q1: {Current: Items{Revenue: 71_915_600_000_000, OperatingIncome: 6_606_000_000_000}},
	})
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, 719_156.0, r.Eok[Revenue])
	assert.Equal(t, 71.92, r.Jo[Revenue])
	assert.Equal(t, 9.19, r.Ratios["operating_margin"])
	_, ok := r.Ratios["net_margin"]
	assert.False(t, ok)
}

func TestQuarterlyRecordZeroRevenueHasNoRatios(t *testing.T) {
	records := AggregateQuarters("A", 2024, map[ReportType]QuarterAmounts{
		Q1: {Current: Items{Revenue: 0, NetIncome: 5}},
	})
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Ratios)
}
