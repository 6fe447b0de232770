package dart

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Fact is one numeric observation extracted from a report or API payload.
type Fact struct {
	Concept    string   `json:"concept"`   // namespace-qualified ("ifrs-full:Revenue")
	LocalName  string   `json:"localName"` // "Revenue"
	Value      float64  `json:"value"`     // signed, scale applied
	Unit       string   `json:"unit"`      // resolved measure ("KRW", "KRW/shares")
	UnitRef    string   `json:"unitRef,omitempty"`
	ContextRef string   `json:"contextRef"`
	Company    string   `json:"company"`
	Context    *Context `json:"context,omitempty"` // nil when the reference does not resolve
}

// FactTable is the flat table of facts joined with their contexts.
type FactTable []Fact

// IsDuration returns true if this fact is for a time period (income statement)
func (f *Fact) IsDuration() bool {
	return f.Context.IsDuration()
}

// EndYear returns the year the fact's period ends in, or 0 without a context.
func (f *Fact) EndYear() int {
	if f.Context == nil || f.Context.End.IsZero() {
		return 0
	}
	return f.Context.End.Year()
}

// PeriodLabel returns a human-readable period label
func (f *Fact) PeriodLabel() string {
	if f.Context == nil || f.Context.End.IsZero() {
		return "Unknown"
	}
	if f.Context.IsDuration() {
		return fmt.Sprintf("%s to %s", f.Context.Start.Format("2006-01-02"), f.Context.End.Format("2006-01-02"))
	}
	return f.Context.End.Format("2006-01-02")
}

// ExtractFacts walks the document tree and returns every node that carries a
// context reference and numeric text as a Fact. Nodes whose text cannot be
// coerced to a number are dropped.
func ExtractFacts(root *Node, company string) FactTable {
	if root == nil {
		return nil
	}

	contexts := ParseContexts(root)
	units := parseUnits(root)

	var facts FactTable
	root.Walk(func(n *Node) bool {
		if n.Is("context") || n.Is("unit") {
			return false
		}

		contextRef := n.Attr("contextRef")
		if contextRef == "" {
			return true
		}
		// Inline text facts never hold amounts
		if n.Is("nonNumeric") {
			return false
		}

		text := strings.TrimSpace(n.TextContent())
		if text == "" {
			return false
		}
		value, ok := coerceNumeric(text)
		if !ok {
			return false
		}

		concept := n.QualifiedName()
		if n.Is("nonFraction") {
			// Inline XBRL: the concept sits in the name attribute and the
			// displayed number may be scaled and sign-flipped
			concept = n.Attr("name")
			if concept == "" {
				return false
			}
			value = applyInlineScale(value, n.Attr("scale"), n.Attr("sign"))
		}

		unitRef := n.Attr("unitRef")
		fact := Fact{
			Concept:    concept,
			LocalName:  localName(concept),
			Value:      value,
			Unit:       units[unitRef],
			UnitRef:    unitRef,
			ContextRef: contextRef,
			Company:    company,
		}
		if fact.Unit == "" {
			fact.Unit = unitRef
		}

		facts = append(facts, fact)
		return false
	})

	resolveFacts(facts, contexts)
	return facts
}

// resolveFacts joins each fact with its context
func resolveFacts(facts FactTable, contexts map[string]Context) {
	for i := range facts {
		if ctx, ok := contexts[facts[i].ContextRef]; ok {
			c := ctx
			facts[i].Context = &c
		}
	}
}

// parseUnits builds the unit-id → measure table. Ratio units render as
// "numerator/denominator"; ISO 4217 prefixes are dropped.
func parseUnits(root *Node) map[string]string {
	units := make(map[string]string)
	for _, u := range root.FindAll("unit") {
		id := u.Attr("id")
		if id == "" {
			continue
		}

		if div := u.Find("divide"); div != nil {
			num, den := "", ""
			if n := div.Find("unitNumerator"); n != nil {
				num = measureText(n.Find("measure"))
			}
			if d := div.Find("unitDenominator"); d != nil {
				den = measureText(d.Find("measure"))
			}
			units[id] = num + "/" + den
			continue
		}

		units[id] = measureText(u.Find("measure"))
	}
	return units
}

func measureText(n *Node) string {
	if n == nil {
		return ""
	}
	return localName(strings.TrimSpace(n.TextContent()))
}

func applyInlineScale(value float64, scale, sign string) float64 {
	if scale != "" {
		if s, err := strconv.Atoi(scale); err == nil && s != 0 {
			value *= math.Pow10(s)
		}
	}
	if sign == "-" {
		value = -value
	}
	return value
}

// localName strips the namespace prefix from a qualified name
func localName(qualified string) string {
	if i := strings.LastIndexByte(qualified, ':'); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

// getNamespacePrefix guesses a namespace prefix from a namespace URI
// Example: "http://xbrl.ifrs.org/taxonomy/2021-03-24/ifrs-full" -> "ifrs-full"
func getNamespacePrefix(namespace string) string {
	switch {
	case strings.Contains(namespace, "ifrs-full"):
		return "ifrs-full"
	case strings.Contains(namespace, "dart.fss.or.kr") || strings.Contains(namespace, "/dart"):
		return "dart"
	case strings.Contains(namespace, "us-gaap"):
		return "us-gaap"
	case strings.Contains(namespace, "xbrl.org/2003/instance"):
		return "xbrli"
	case strings.Contains(namespace, "xbrldi"):
		return "xbrldi"
	case strings.Contains(namespace, "inlineXBRL"):
		return "ix"
	}

	parts := strings.Split(strings.TrimRight(namespace, "/"), "/")
	if len(parts) > 0 && parts[len(parts)-1] != "" {
		return parts[len(parts)-1]
	}

	return "unknown"
}
