package dart

import (
	"regexp"
	"strings"
)

// FactQuery provides a fluent interface for filtering a FactTable
type FactQuery struct {
	facts        FactTable
	localNames   []string
	unitPattern  *regexp.Regexp
	ctxPattern   *regexp.Regexp
	scopes       []Scope
	year         int
	window       [2]int
	durationOnly bool
}

// Query returns a new FactQuery over the table
func (t FactTable) Query() *FactQuery {
	return &FactQuery{facts: t}
}

// ByLocalName keeps facts whose local concept name equals one of names (case-insensitive)
func (q *FactQuery) ByLocalName(names ...string) *FactQuery {
	q.localNames = names
	return q
}

// ByUnit keeps facts whose unit matches the pattern
func (q *FactQuery) ByUnit(pattern *regexp.Regexp) *FactQuery {
	q.unitPattern = pattern
	return q
}

// ByContextID keeps facts whose context identifier matches the pattern
func (q *FactQuery) ByContextID(pattern *regexp.Regexp) *FactQuery {
	q.ctxPattern = pattern
	return q
}

// InScope keeps facts whose context has one of the given scopes
func (q *FactQuery) InScope(scopes ...Scope) *FactQuery {
	q.scopes = scopes
	return q
}

// EndingIn keeps facts whose period ends in the given year
func (q *FactQuery) EndingIn(year int) *FactQuery {
	q.year = year
	return q
}

// Window keeps duration facts whose period starts in startMonth and ends in endMonth
func (q *FactQuery) Window(startMonth, endMonth int) *FactQuery {
	q.window = [2]int{startMonth, endMonth}
	q.durationOnly = true
	return q
}

// DurationOnly returns only duration facts (income statement items)
func (q *FactQuery) DurationOnly() *FactQuery {
	q.durationOnly = true
	return q
}

// Get returns all matching facts
func (q *FactQuery) Get() FactTable {
	var results FactTable

	for _, fact := range q.facts {
		if len(q.localNames) > 0 && !matchesAnyName(fact.LocalName, q.localNames) {
			continue
		}

		if q.unitPattern != nil && !q.unitPattern.MatchString(fact.Unit) {
			continue
		}

		if q.ctxPattern != nil && !q.ctxPattern.MatchString(fact.ContextRef) {
			continue
		}

		if len(q.scopes) > 0 {
			if fact.Context == nil || !containsScope(q.scopes, fact.Context.Scope) {
				continue
			}
		}

		if q.year != 0 && fact.EndYear() != q.year {
			continue
		}

		if q.durationOnly && !fact.IsDuration() {
			continue
		}

		if q.window != [2]int{} {
			sm, em, ok := fact.Context.Window()
			if !ok || sm != q.window[0] || em != q.window[1] {
				continue
			}
			// A window is a span inside one fiscal year
			if fact.Context.Start.Year() != fact.Context.End.Year() {
				continue
			}
		}

		results = append(results, fact)
	}

	return results
}

// Largest returns the matching fact with the greatest absolute value
func (q *FactQuery) Largest() (Fact, bool) {
	return q.Get().Largest()
}

// Largest returns the fact with the greatest absolute value. Earlier facts
// win ties so the result does not depend on anything but document order.
func (t FactTable) Largest() (Fact, bool) {
	if len(t) == 0 {
		return Fact{}, false
	}
	best := t[0]
	for _, f := range t[1:] {
		if abs(f.Value) > abs(best.Value) {
			best = f
		}
	}
	return best, true
}

// LatestYear returns the maximum period end year among duration facts.
func (t FactTable) LatestYear() (int, bool) {
	latest := 0
	for _, f := range t {
		if !f.IsDuration() {
			continue
		}
		if y := f.EndYear(); y > latest {
			latest = y
		}
	}
	return latest, latest != 0
}

func matchesAnyName(name string, names []string) bool {
	for _, n := range names {
		if strings.EqualFold(name, n) {
			return true
		}
	}
	return false
}

func containsScope(scopes []Scope, s Scope) bool {
	for _, candidate := range scopes {
		if candidate == s {
			return true
		}
	}
	return false
}
