package dart

import "strings"

// AccountLine is one reported account with a single amount, the shape the
// API path maps from.
type AccountLine struct {
	Name   string
	Amount float64
}

// accountRule assigns an item to any account name containing one of its
// roots. A rule with an empty item marks lines that must not map at all.
type accountRule struct {
	item  StandardItem
	roots []string
}

// accountRules are evaluated together: the longest matching root wins and
// equal lengths go to the earlier rule. The ignore rule comes first so that
// "계속영업이익" (profit from continuing operations) does not read as
// operating income.
var accountRules = []accountRule{
	{"", []string{"법인세비용차감전", "법인세차감전", "계속영업", "중단영업", "주당", "포괄", "beforetax", "pershare", "comprehensive"}},
	{Revenue, []string{"매출액", "매출", "영업수익", "revenue", "sales"}},
	{CostOfSales, []string{"매출원가", "원가", "costofsales", "costofrevenue", "costofgoodssold"}},
	{GrossProfit, []string{"매출총이익", "매출총손익", "grossprofit"}},
	{SGA, []string{"판매비와관리비", "판매비및관리비", "판관비", "sellinggeneralandadministrative", "sellingandadministrative"}},
	{OperatingIncome, []string{"영업이익", "영업손익", "operatingincome", "operatingprofit"}},
	{NonOperatingIncome, []string{"영업외수익", "기타수익", "금융수익", "nonoperatingincome", "otherincome", "financeincome"}},
	{NonOperatingExpense, []string{"영업외비용", "기타비용", "금융비용", "금융원가", "nonoperatingexpense", "otherexpense", "financecost"}},
	{NetIncome, []string{"당기순이익", "당기순손익", "순이익", "netincome", "netprofit"}},
}

// ClassifyAccount returns the item an account name reports, or false when no
// root matches or an ignore root wins.
func ClassifyAccount(name string) (StandardItem, bool) {
	normalized := normalizeAccountName(name)
	if normalized == "" {
		return "", false
	}

	var best StandardItem
	bestLen := 0
	matched := false
	for _, rule := range accountRules {
		for _, root := range rule.roots {
			n := len([]rune(root))
			if n > bestLen && strings.Contains(normalized, root) {
				best, bestLen, matched = rule.item, n, true
			}
		}
	}

	if !matched || best == "" {
		return "", false
	}
	return best, true
}

// MapAccounts maps reported account lines onto standard items. When several
// lines land on the same item the larger magnitude is kept. Gross profit and
// operating income are derived when missing.
func MapAccounts(lines []AccountLine) (Items, bool) {
	items := make(Items)
	for _, line := range lines {
		item, ok := ClassifyAccount(line.Name)
		if !ok {
			continue
		}
		items.keepLarger(item, line.Amount)
	}

	if len(items) == 0 {
		return nil, false
	}
	items.Derive()
	return items, true
}
