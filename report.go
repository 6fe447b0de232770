package dart

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ReportType identifies the periodic filing a figure comes from.
type ReportType int

// Report types. Q4 is the annual business report.
const (
	Q1 ReportType = iota + 1
	Q2
	Q3
	Q4
)

// ReportTypes lists every report type in fiscal order.
var ReportTypes = []ReportType{Q1, Q2, Q3, Q4}

func (r ReportType) String() string {
	switch r {
	case Q1:
		return "Q1"
	case Q2:
		return "Q2"
	case Q3:
		return "Q3"
	case Q4:
		return "Q4"
	default:
		return "unknown"
	}
}

// Label returns the quarter label used in quarterly tables ("1Q".."4Q").
func (r ReportType) Label() string {
	if r < Q1 || r > Q4 {
		return ""
	}
	return string(rune('0'+int(r))) + "Q"
}

// Code returns the OpenDART reprt_code for the report type.
func (r ReportType) Code() string {
	switch r {
	case Q1:
		return "11013"
	case Q2:
		return "11012"
	case Q3:
		return "11014"
	case Q4:
		return "11011"
	default:
		return ""
	}
}

// Window returns the (start month, end month) of the quarter-to-date period.
func (r ReportType) Window() (int, int) {
	switch r {
	case Q1:
		return 1, 3
	case Q2:
		return 4, 6
	case Q3:
		return 7, 9
	case Q4:
		return 10, 12
	default:
		return 0, 0
	}
}

// ParseReportType accepts "Q1", "1Q", "1" or an OpenDART reprt_code.
func ParseReportType(s string) (ReportType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "Q1", "1Q", "1", "11013":
		return Q1, nil
	case "Q2", "2Q", "2", "H1", "11012":
		return Q2, nil
	case "Q3", "3Q", "3", "11014":
		return Q3, nil
	case "Q4", "4Q", "4", "FY", "ANNUAL", "11011":
		return Q4, nil
	}
	return 0, eris.Errorf("dart: unknown report type %q", s)
}
