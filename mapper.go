package dart

import (
	"go.uber.org/zap"
)

// MapFacts resolves quarter-scoped facts onto standard items. For each item
// the concepts listed in concept_mappings.json are tried by local name; when
// none is present the item's pattern is matched against local names instead.
// Among the matching facts the largest magnitude wins, which collapses
// duplicate dimensional tags of the same concept. Gross profit and operating
// income are derived when missing.
//
// Returns false when no item could be mapped.
func MapFacts(facts FactTable) (Items, bool) {
	items := make(Items)

	for _, item := range StandardItems {
		def := globalMapper.mappings[item]

		candidates := facts.Query().ByLocalName(def.Concepts...).Get()
		if len(candidates) == 0 {
			if re, ok := globalMapper.patterns[item]; ok {
				for _, f := range facts {
					if re.MatchString(f.LocalName) {
						candidates = append(candidates, f)
					}
				}
			}
		}

		if best, ok := candidates.Largest(); ok {
			items[item] = best.Value
			zap.L().Debug("mapped concept",
				zap.String("item", string(item)),
				zap.String("concept", best.Concept),
				zap.Float64("value", best.Value))
		}
	}

	if len(items) == 0 {
		return nil, false
	}
	items.Derive()
	return items, true
}

// MapDocument is the full document-path mapping: concept and pattern lookup on
// the sliced facts, then the keyword scan over the whole tree when that maps
// nothing. floor is the scanner's materiality threshold. scanned reports
// whether the returned items came from the scan.
func MapDocument(sliced FactTable, root *Node, floor float64) (items Items, scanned, ok bool) {
	if items, ok := MapFacts(sliced); ok {
		return items, false, true
	}
	zap.L().Debug("concept mapping found nothing, scanning document", zap.Float64("floor", floor))
	items, ok = ScanDocument(root, floor)
	return items, ok, ok
}
