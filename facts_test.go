package dart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inlineReport = `<html xmlns="http://www.w3.org/1999/xhtml" xmlns:ix="http://www.xbrl.org/2013/inlineXBRL"
      xmlns:xbrli="http://www.xbrl.org/2003/instance" xmlns:iso4217="http://www.xbrl.org/2003/iso4217">
<body>
  <ix:header><ix:resources>
    <xbrli:context id="C1"><xbrli:period><xbrli:startDate>2024-01-01</xbrli:startDate><xbrli:endDate>2024-03-31</xbrli:endDate></xbrli:period></xbrli:context>
    <xbrli:unit id="KRW"><xbrli:measure>iso4217:KRW</xbrli:measure></xbrli:unit>
  </ix:resources></ix:header>
  <table>
    <tr><td>매출액</td><td><ix:nonFraction name="ifrs-full:Revenue" contextRef="C1" unitRef="KRW" scale="6" decimals="-6">1,234</ix:nonFraction></td></tr>
    <tr><td>금융원가</td><td><ix:nonFraction name="ifrs-full:FinanceCosts" contextRef="C1" unitRef="KRW" sign="-">500</ix:nonFraction></td></tr>
    <tr><td><ix:nonNumeric name="dart:EntityRegistrantName" contextRef="C1">12</ix:nonNumeric></td></tr>
    <tr><td><ix:nonFraction contextRef="C1" unitRef="KRW">99</ix:nonFraction></td></tr>
  </table>
</body>
</html>`

func TestExtractFactsInline(t *testing.T) {
	root, mode, err := ParseDocument(inlineReport)
	require.NoError(t, err)
	require.Equal(t, ModeStrictXML, mode)

	facts := ExtractFacts(root, "A")
	require.Len(t, facts, 2, "text facts and nameless facts are dropped")

	rev := facts[0]
	assert.Equal(t, "ifrs-full:Revenue", rev.Concept)
	assert.Equal(t, "Revenue", rev.LocalName)
	assert.Equal(t, 1_234_000_000.0, rev.Value)
	assert.Equal(t, "KRW", rev.Unit)
	assert.Equal(t, "A", rev.Company)
	require.NotNil(t, rev.Context)
	assert.True(t, rev.IsDuration())
	assert.Equal(t, "2024-01-01 to 2024-03-31", rev.PeriodLabel())

	assert.Equal(t, -500.0, facts[1].Value)
}

func TestExtractFactsStandalone(t *testing.T) {
	root, _, err := ParseDocument(`<xbrli:xbrl xmlns:xbrli="http://www.xbrl.org/2003/instance" xmlns:ifrs-full="http://xbrl.ifrs.org/taxonomy/2021-03-24/ifrs-full">
  <xbrli:context id="I"><xbrli:period><xbrli:instant>2024-12-31</xbrli:instant></xbrli:period></xbrli:context>
  <xbrli:unit id="EPS"><xbrli:divide>
    <xbrli:unitNumerator><xbrli:measure>iso4217:KRW</xbrli:measure></xbrli:unitNumerator>
    <xbrli:unitDenominator><xbrli:measure>xbrli:shares</xbrli:measure></xbrli:unitDenominator>
  </xbrli:divide></xbrli:unit>
  <ifrs-full:BasicEarningsLossPerShare contextRef="I" unitRef="EPS">(1,200)</ifrs-full:BasicEarningsLossPerShare>
  <ifrs-full:Assets contextRef="Missing" unitRef="USD">10</ifrs-full:Assets>
  <ifrs-full:Description contextRef="I">n/a</ifrs-full:Description>
</xbrli:xbrl>`)
	require.NoError(t, err)

	facts := ExtractFacts(root, "A")
	require.Len(t, facts, 2)

	eps := facts[0]
	assert.Equal(t, "KRW/shares", eps.Unit)
	assert.Equal(t, "EPS", eps.UnitRef)
	assert.Equal(t, -1200.0, eps.Value)
	assert.False(t, eps.IsDuration())
	assert.Equal(t, 2024, eps.EndYear())
	assert.Equal(t, "2024-12-31", eps.PeriodLabel())

	assets := facts[1]
	assert.Nil(t, assets.Context, "unresolved context reference")
	assert.Equal(t, "USD", assets.Unit, "undeclared unit falls back to its reference")
	assert.Equal(t, 0, assets.EndYear())
	assert.Equal(t, "Unknown", assets.PeriodLabel())
}

func TestExtractFactsNilRoot(t *testing.T) {
	assert.Nil(t, ExtractFacts(nil, "A"))
}

func TestApplyInlineScale(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		scale string
		sign  string
		want  float64
	}{
		{"none", 5, "", "", 5},
		{"millions", 5, "6", "", 5_000_000},
		{"negative sign", 5, "3", "-", -5_000},
		{"bad scale ignored", 5, "x", "", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, applyInlineScale(tt.value, tt.scale, tt.sign))
		})
	}
}

func TestLocalName(t *testing.T) {
	assert.Equal(t, "Revenue", localName("ifrs-full:Revenue"))
	assert.Equal(t, "Revenue", localName("Revenue"))
	assert.Equal(t, "KRW", localName("iso4217:KRW"))
}
