package dart

import (
	_ "embed"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

//go:embed concept_mappings.json
var conceptMappingsJSON []byte

// StandardItem is one canonical income-statement line.
type StandardItem string

// Standard items.
const (
	Revenue             StandardItem = "revenue"
	CostOfSales         StandardItem = "cost_of_sales"
	GrossProfit         StandardItem = "gross_profit"
	SGA                 StandardItem = "sga"
	OperatingIncome     StandardItem = "operating_income"
	NonOperatingIncome  StandardItem = "non_operating_income"
	NonOperatingExpense StandardItem = "non_operating_expense"
	NetIncome           StandardItem = "net_income"
)

// StandardItems lists every item in statement display order.
var StandardItems = []StandardItem{
	Revenue,
	CostOfSales,
	GrossProfit,
	SGA,
	OperatingIncome,
	NonOperatingIncome,
	NonOperatingExpense,
	NetIncome,
}

// Label returns the Korean display label of the item.
func (s StandardItem) Label() string {
	if def, ok := globalMapper.mappings[s]; ok && def.Label != "" {
		return def.Label
	}
	return string(s)
}

// Items holds at most one value per standard item.
type Items map[StandardItem]float64

// Derive fills gross profit and operating income when they are missing and
// both of their inputs are present.
func (it Items) Derive() {
	rev, hasRev := it[Revenue]
	cost, hasCost := it[CostOfSales]
	if _, ok := it[GrossProfit]; !ok && hasRev && hasCost {
		it[GrossProfit] = rev - cost
	}

	gross, hasGross := it[GrossProfit]
	sga, hasSGA := it[SGA]
	if _, ok := it[OperatingIncome]; !ok && hasGross && hasSGA {
		it[OperatingIncome] = gross - sga
	}
}

// keepLarger stores value under item unless a larger magnitude is already there.
func (it Items) keepLarger(item StandardItem, value float64) {
	if existing, ok := it[item]; ok && abs(existing) >= abs(value) {
		return
	}
	it[item] = value
}

// ConceptMapping represents the structure of concept_mappings.json
type ConceptMapping struct {
	Schema      string                             `json:"$schema"`
	Description string                             `json:"description"`
	Version     string                             `json:"version"`
	Mappings    map[StandardItem]ConceptDefinition `json:"mappings"`
}

// ConceptDefinition lists the taxonomy local names reporting one item
type ConceptDefinition struct {
	Label    string   `json:"label"`
	Concepts []string `json:"concepts"`
	Pattern  string   `json:"pattern"`
	Notes    string   `json:"notes"`
}

// conceptMapper provides lookup capabilities for XBRL concepts
type conceptMapper struct {
	mappings      map[StandardItem]ConceptDefinition
	patterns      map[StandardItem]*regexp.Regexp
	reverseLookup map[string]StandardItem // lowercase local name -> item
}

var globalMapper *conceptMapper

func init() {
	var err error
	globalMapper, err = loadConceptMappings()
	if err != nil {
		panic(eris.Wrap(err, "dart: load concept mappings"))
	}
}

// loadConceptMappings parses the embedded JSON and builds lookup tables
func loadConceptMappings() (*conceptMapper, error) {
	var mapping ConceptMapping
	if err := json.Unmarshal(conceptMappingsJSON, &mapping); err != nil {
		return nil, eris.Wrap(err, "dart: parse concept_mappings.json")
	}

	mapper := &conceptMapper{
		mappings:      mapping.Mappings,
		patterns:      make(map[StandardItem]*regexp.Regexp),
		reverseLookup: make(map[string]StandardItem),
	}

	for _, item := range StandardItems {
		def, ok := mapping.Mappings[item]
		if !ok {
			return nil, eris.Errorf("dart: concept_mappings.json: missing item %s", item)
		}
		for _, concept := range def.Concepts {
			mapper.reverseLookup[strings.ToLower(concept)] = item
		}
		if def.Pattern != "" {
			re, err := regexp.Compile(def.Pattern)
			if err != nil {
				return nil, eris.Wrapf(err, "dart: concept_mappings.json: pattern for %s", item)
			}
			mapper.patterns[item] = re
		}
	}

	return mapper, nil
}

// GetStandardItem returns the item an XBRL concept reports, by exact local name.
// The namespace prefix is ignored. Returns "" if no mapping exists.
func GetStandardItem(xbrlConcept string) StandardItem {
	return globalMapper.reverseLookup[strings.ToLower(localName(xbrlConcept))]
}

// GetConceptsForItem returns the local names that map to a standard item
func GetConceptsForItem(item StandardItem) ([]string, error) {
	def, ok := globalMapper.mappings[item]
	if !ok {
		return nil, eris.Errorf("dart: unknown standard item: %s", item)
	}
	return def.Concepts, nil
}
