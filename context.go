package dart

import (
	"encoding/json"
	"strings"
	"time"
)

// PeriodType distinguishes point-in-time from span-of-time contexts.
type PeriodType string

// Period types.
const (
	PeriodInstant  PeriodType = "instant"
	PeriodDuration PeriodType = "duration"
)

// Scope is the consolidation scope of a context: consolidated, separate
// (parent entity only), or undetermined.
type Scope int

// Scopes. ScopeUnknown is a normal outcome, not an error.
const (
	ScopeUnknown Scope = iota
	ScopeConsolidated
	ScopeSeparate
)

func (s Scope) String() string {
	switch s {
	case ScopeConsolidated:
		return "consolidated"
	case ScopeSeparate:
		return "separate"
	default:
		return "unknown"
	}
}

// Flag returns the scope as a tri-state flag: true, false or nil.
func (s Scope) Flag() *bool {
	switch s {
	case ScopeConsolidated:
		t := true
		return &t
	case ScopeSeparate:
		f := false
		return &f
	default:
		return nil
	}
}

// MarshalJSON renders the scope as true, false or null.
func (s Scope) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Flag())
}

// Context defines the accounting period and consolidation scope shared by facts.
type Context struct {
	ID         string     `json:"id"`
	PeriodType PeriodType `json:"periodType"`
	Start      *time.Time `json:"start,omitempty"`
	End        time.Time  `json:"end"`
	Scope      Scope      `json:"consolidated"`
	Derived    bool       `json:"derived,omitempty"` // synthesised by quarter differencing
}

// IsDuration returns true if the context spans a period (income statement).
func (c *Context) IsDuration() bool {
	return c != nil && c.PeriodType == PeriodDuration && c.Start != nil && !c.End.IsZero()
}

// Window returns the (start month, end month) pair of a duration context.
func (c *Context) Window() (int, int, bool) {
	if !c.IsDuration() {
		return 0, 0, false
	}
	return int(c.Start.Month()), int(c.End.Month()), true
}

// Ordered keyword rules for consolidation scope. Separate is tested first
// because every non-consolidated spelling contains a consolidated keyword.
var scopeRules = []struct {
	keywords []string
	scope    Scope
}{
	{[]string{
		"separatemember", "nonconsolidated", "non-consolidated", "non consolidated", "unconsolidated",
		"separate", "비연결", "별도", "개별",
	}, ScopeSeparate},
	{[]string{"consolidatedmember", "consolidated", "연결"}, ScopeConsolidated},
}

// ClassifyContext reads one context node into a Context record.
func ClassifyContext(n *Node) Context {
	ctx := Context{ID: n.Attr("id"), PeriodType: PeriodInstant}

	if period := n.Find("period"); period != nil {
		start, hasStart := childDate(period, "startDate")
		end, hasEnd := childDate(period, "endDate")

		switch {
		case hasStart && hasEnd:
			ctx.PeriodType = PeriodDuration
			ctx.Start = &start
			ctx.End = end
		default:
			// Instant date (or whichever single date exists) serves as both ends
			proxy, ok := childDate(period, "instant")
			if !ok && hasEnd {
				proxy, ok = end, true
			}
			if !ok && hasStart {
				proxy, ok = start, true
			}
			if ok {
				s := proxy
				ctx.Start = &s
				ctx.End = proxy
			}
		}
	}

	ctx.Scope = classifyScope(n)
	return ctx
}

// classifyScope looks for a segment or scenario marker and reads its member
// text. Dimension attributes are ignored: the axis name itself mentions both
// "Consolidated" and "Separate".
func classifyScope(n *Node) Scope {
	var markers []*Node
	markers = append(markers, n.FindAll("segment")...)
	markers = append(markers, n.FindAll("scenario")...)
	if len(markers) == 0 {
		return ScopeUnknown
	}

	var text strings.Builder
	for _, m := range markers {
		text.WriteString(strings.ToLower(m.TextContent()))
		text.WriteString(" ")
	}
	content := text.String()

	for _, rule := range scopeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(content, kw) {
				return rule.scope
			}
		}
	}
	return ScopeUnknown
}

func childDate(period *Node, local string) (time.Time, bool) {
	child := period.Find(local)
	if child == nil {
		return time.Time{}, false
	}
	return parseDate(child.TextContent())
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) > 10 {
		s = s[:10]
	}
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", "20060102", "2006.01.02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseContexts classifies every context declaration under root, keyed by ID.
func ParseContexts(root *Node) map[string]Context {
	contexts := make(map[string]Context)
	for _, n := range root.FindAll("context") {
		ctx := ClassifyContext(n)
		if ctx.ID == "" {
			continue
		}
		contexts[ctx.ID] = ctx
	}
	return contexts
}
