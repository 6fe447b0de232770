package dart

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// DefaultMaterialityFloor is the smallest magnitude the document scanner
// considers; smaller numbers are footnote references, page numbers and ratios.
const DefaultMaterialityFloor = 1_000_000

// scanRule matches a node signature to a standard item.
type scanRule struct {
	item    StandardItem
	match   *regexp.Regexp
	exclude *regexp.Regexp
}

// scanRules are tried in order and the first hit claims the node. Cost of
// sales precedes revenue because its tags also contain "sales".
var scanRules = []scanRule{
	{CostOfSales, regexp.MustCompile(`costofsales|costofrevenue|costofgoods|매출원가`), nil},
	{GrossProfit, regexp.MustCompile(`grossprofit|매출총이익`), nil},
	{SGA, regexp.MustCompile(`sellinggeneral|sellingandadministrative|판매비와관리비|판관비`), nil},
	{OperatingIncome, regexp.MustCompile(`operatingincome|operatingprofit|영업이익`), regexp.MustCompile(`nonoperating|영업외|계속영업`)},
	{NetIncome, regexp.MustCompile(`profitloss|netincome|당기순이익`), regexp.MustCompile(`beforetax|pershare|comprehensive|차감전|주당|포괄`)},
	{Revenue, regexp.MustCompile(`revenue|sales|매출액`), nil},
}

var signatureNoise = regexp.MustCompile(`[\s_\-:.]+`)

// ScanDocument is the last-resort mapping over the whole document: every
// node with its own numeric text above floor is described by a signature of
// its tag, its attribute values and its parent's tag, and the signature is
// tested against the scan rules. Conflicts keep the larger magnitude.
// Gross profit and operating income are derived when missing.
func ScanDocument(root *Node, floor float64) (Items, bool) {
	if root == nil {
		return nil, false
	}

	items := make(Items)
	root.Walk(func(n *Node) bool {
		text := strings.TrimSpace(n.Text)
		if text == "" {
			return true
		}
		value, ok := coerceNumeric(text)
		if !ok || abs(value) <= floor {
			return true
		}

		signature := nodeSignature(n)
		for _, rule := range scanRules {
			if !rule.match.MatchString(signature) {
				continue
			}
			if rule.exclude != nil && rule.exclude.MatchString(signature) {
				continue
			}
			items.keepLarger(rule.item, value)
			break
		}
		return true
	})

	if len(items) == 0 {
		zap.L().Debug("document scan mapped nothing", zap.Float64("floor", floor))
		return nil, false
	}
	items.Derive()
	return items, true
}

// nodeSignature flattens tag, attribute values and parent tag into one
// lowercase string with separators removed, so "ifrs-full:CostOfSales" and
// "cost_of_sales" both read as "costofsales".
func nodeSignature(n *Node) string {
	parts := []string{n.QualifiedName()}
	for _, a := range n.Attrs {
		parts = append(parts, a.Value)
	}
	if n.Parent != nil {
		parts = append(parts, n.Parent.QualifiedName())
	}
	return signatureNoise.ReplaceAllString(strings.ToLower(strings.Join(parts, " ")), "")
}
