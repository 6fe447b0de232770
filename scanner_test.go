package dart

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scanFixture = `<statement>
  <line name="Revenue">5,000,000,000</line>
  <line name="Revenue">4,000,000,000</line>
  <line name="Revenue">999</line>
  <line name="CostOfSales">3,000,000,000</line>
  <line name="SellingGeneralAndAdministrativeExpense">1,200,000,000</line>
  <line name="NonOperatingIncome">900,000,000</line>
  <line name="ProfitLoss">600,000,000</line>
  <line name="ProfitLossBeforeTax">750,000,000</line>
  <page>12</page>
</statement>`

func TestScanDocument(t *testing.T) {
	root, _, err := ParseDocument(scanFixture)
	require.NoError(t, err)

	items, ok := ScanDocument(root, DefaultMaterialityFloor)
	require.True(t, ok)

	want := Items{
		Revenue:         5e9,
		CostOfSales:     3e9,
		GrossProfit:     2e9,
		SGA:             1.2e9,
		OperatingIncome: 8e8,
		NetIncome:       6e8,
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("ScanDocument mismatch (-want +got):\n%s", diff)
	}
}

func TestScanDocumentFloor(t *testing.T) {
	root, _, err := ParseDocument(`<statement><line name="Revenue">999</line></statement>`)
	require.NoError(t, err)

	_, ok := ScanDocument(root, DefaultMaterialityFloor)
	assert.False(t, ok)

	items, ok := ScanDocument(root, 100)
	require.True(t, ok)
	assert.Equal(t, 999.0, items[Revenue])
}

func TestNodeSignature(t *testing.T) {
	root, _, err := ParseDocument(`<body><td class="cost_of-sales">1</td></body>`)
	require.NoError(t, err)

	td := root.Find("td")
	require.NotNil(t, td)
	assert.Equal(t, "tdcostofsalesbody", nodeSignature(td))
}

func TestScanDocumentNil(t *testing.T) {
	_, ok := ScanDocument(nil, 0)
	assert.False(t, ok)
}
