package dart

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DerivedContextSuffix tags the context identifier of a differenced QTD fact.
const DerivedContextSuffix = "_QTD_DERIVED"

// ScopePolicy decides which consolidation scopes survive slicing.
type ScopePolicy int

// Scope policies.
//
// PreferConsolidated keeps only consolidated facts when at least one exists,
// and everything otherwise. ExcludeSeparate additionally handles filings with
// no consolidated flag at all: undetermined contexts are read as the default
// (consolidated) scope and separate ones are dropped, unless that would leave
// nothing.
const (
	PreferConsolidated ScopePolicy = iota
	ExcludeSeparate
)

func (p ScopePolicy) String() string {
	if p == ExcludeSeparate {
		return "exclude-separate"
	}
	return "prefer-consolidated"
}

// ParseScopePolicy maps a configuration name to a policy.
func ParseScopePolicy(name string) (ScopePolicy, error) {
	switch name {
	case "", "prefer-consolidated":
		return PreferConsolidated, nil
	case "exclude-separate":
		return ExcludeSeparate, nil
	}
	return 0, eris.Errorf("dart: unknown scope policy %q", name)
}

// SliceMethod records how a quarter slice was obtained.
type SliceMethod string

// Slice methods, in the order they are attempted.
const (
	SliceExact          SliceMethod = "exact-window"
	SliceDerived        SliceMethod = "ytd-difference"
	SliceContextPattern SliceMethod = "context-pattern"
	SliceNone           SliceMethod = "none"
)

// SliceOptions tunes SliceQuarter.
type SliceOptions struct {
	Policy ScopePolicy
	Now    func() time.Time // fallback fiscal year source; defaults to time.Now
}

func (o SliceOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

var currencyUnit = regexp.MustCompile(`(?i)(krw|usd|eur|jpy|cny|gbp|won|원)`)

func isCurrencyUnit(unit string) bool {
	if strings.Contains(unit, "/") || strings.Contains(strings.ToLower(unit), "share") {
		return false
	}
	return currencyUnit.MatchString(unit)
}

// quarterContextPatterns match month-day spans embedded in context identifiers,
// with an optional year between the two ends ("D20240401-20240630").
var quarterContextPatterns = map[ReportType]*regexp.Regexp{
	Q1: monthDayPattern(1, 1, 3, 31),
	Q2: monthDayPattern(4, 1, 6, 30),
	Q3: monthDayPattern(7, 1, 9, 30),
	Q4: monthDayPattern(10, 1, 12, 31),
}

func monthDayPattern(sm, sd, em, ed int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`%02d[-_.]?%02d\D{0,4}(\d{4}[-_.]?)?%02d[-_.]?%02d`, sm, sd, em, ed))
}

// SliceQuarter selects the quarter-to-date facts for the report type.
//
// The latest fiscal year among duration facts is used (the current calendar
// year when there are none). Currency facts are preferred, scoped by the
// policy; when that leaves nothing for the year the unfiltered table is used.
// An exact (start, end) month window wins; otherwise Q2-Q4 are derived as
// year-to-date minus the preceding cumulative window, per concept. As a last
// resort, context identifiers are matched against month-day patterns.
func SliceQuarter(facts FactTable, report ReportType, opts SliceOptions) (FactTable, SliceMethod) {
	log := zap.L().With(zap.String("report", report.String()))

	year, ok := facts.LatestYear()
	if !ok {
		year = opts.now().Year()
		log.Debug("no duration facts, falling back to calendar year", zap.Int("year", year))
	}

	var currency FactTable
	for _, f := range facts {
		if isCurrencyUnit(f.Unit) {
			currency = append(currency, f)
		}
	}
	filtered := applyScopePolicy(currency, opts.Policy)

	scoped := filtered.Query().EndingIn(year).Get()
	if len(scoped) == 0 {
		scoped = facts.Query().EndingIn(year).Get()
		log.Debug("currency/scope filter left nothing, widened to all facts", zap.Int("facts", len(scoped)))
	}

	sm, em := report.Window()

	if exact := scoped.Query().Window(sm, em).Get(); len(exact) > 0 {
		log.Debug("exact quarter window", zap.Int("facts", len(exact)))
		return exact, SliceExact
	}

	if report != Q1 {
		if derived := deriveQTD(scoped, sm, em); len(derived) > 0 {
			log.Debug("derived quarter from cumulative windows", zap.Int("facts", len(derived)))
			return derived, SliceDerived
		}
	}

	base := filtered
	if len(base) == 0 {
		base = facts
	}
	if matched := scanContextIDs(base, report, year); len(matched) > 0 {
		log.Debug("matched quarter by context identifier", zap.Int("facts", len(matched)))
		return matched, SliceContextPattern
	}

	log.Debug("no quarter facts found", zap.Int("year", year))
	return nil, SliceNone
}

// applyScopePolicy narrows facts by consolidation scope.
func applyScopePolicy(facts FactTable, policy ScopePolicy) FactTable {
	if consolidated := facts.Query().InScope(ScopeConsolidated).Get(); len(consolidated) > 0 {
		return consolidated
	}

	if policy == ExcludeSeparate {
		if separate := facts.Query().InScope(ScopeSeparate).Get(); len(separate) > 0 {
			var rest FactTable
			for _, f := range facts {
				if f.Context == nil || f.Context.Scope != ScopeSeparate {
					rest = append(rest, f)
				}
			}
			if len(rest) > 0 {
				return rest
			}
		}
	}

	return facts
}

// deriveQTD subtracts the cumulative window (1, sm-1) from the year-to-date
// window (1, em) per concept local name. A concept missing from the prior
// window counts as zero. When a concept appears several times in the prior
// window, the largest magnitude is used.
func deriveQTD(facts FactTable, sm, em int) FactTable {
	ytd := facts.Query().Window(1, em).Get()
	if len(ytd) == 0 {
		return nil
	}

	prior := make(map[string]FactTable)
	for _, f := range facts.Query().Window(1, sm-1).Get() {
		key := strings.ToLower(f.LocalName)
		prior[key] = append(prior[key], f)
	}

	derived := make(FactTable, 0, len(ytd))
	for _, f := range ytd {
		priorValue := decimal.Zero
		if p, ok := prior[strings.ToLower(f.LocalName)].Largest(); ok {
			priorValue = decimal.NewFromFloat(p.Value)
		}
		value := decimal.NewFromFloat(f.Value).Sub(priorValue)

		ctx := *f.Context
		start := time.Date(ctx.End.Year(), time.Month(sm), 1, 0, 0, 0, 0, time.UTC)
		ctx.Start = &start
		ctx.ID = f.ContextRef + DerivedContextSuffix
		ctx.Derived = true

		f.Value = value.InexactFloat64()
		f.ContextRef = ctx.ID
		f.Context = &ctx
		derived = append(derived, f)
	}
	return derived
}

// scanContextIDs is the fallback when periods did not resolve: the report's
// month-day pattern is matched against context identifiers, keeping facts of
// the latest fiscal year (by period or by the year embedded in the identifier).
func scanContextIDs(facts FactTable, report ReportType, year int) FactTable {
	pattern, ok := quarterContextPatterns[report]
	if !ok {
		return nil
	}
	yearText := strconv.Itoa(year)

	var matched FactTable
	for _, f := range facts.Query().ByContextID(pattern).Get() {
		if f.EndYear() == year || strings.Contains(f.ContextRef, yearText) {
			matched = append(matched, f)
		}
	}
	return matched
}
