package dart

import (
	"time"

	"github.com/google/uuid"
)

// Source names where a statement's figures came from.
type Source string

// Sources.
const (
	SourceDocument Source = "document"      // a supplied XBRL or inline XBRL file
	SourceArchive  Source = "opendart-xbrl" // an XBRL archive fetched from OpenDART
	SourceAccounts Source = "opendart-api"  // fnlttSinglAcntAll account rows
)

// Provenance records which filing produced a statement and how.
type Provenance struct {
	RunID      string      `json:"runId"`
	Company    string      `json:"company"`
	Source     Source      `json:"source"`
	Reference  string      `json:"reference"` // file path or receipt number
	Report     string      `json:"report,omitempty"`
	Year       int         `json:"year,omitempty"`
	Encoding   Encoding    `json:"encoding,omitempty"`
	ParseMode  ParseMode   `json:"parseMode,omitempty"`
	Slice      SliceMethod `json:"slice,omitempty"`
	Scanned    bool        `json:"scanned,omitempty"` // mapped by the document scanner
	RecordedAt time.Time   `json:"recordedAt"`
}

// ProvenanceLog collects provenance for one collection run. It is owned by
// the caller and is not safe for concurrent appends.
type ProvenanceLog struct {
	RunID   string       `json:"runId"`
	Entries []Provenance `json:"entries"`
}

// NewProvenanceLog starts a log with a fresh run identifier.
func NewProvenanceLog() *ProvenanceLog {
	return &ProvenanceLog{RunID: uuid.NewString()}
}

// Append stamps p with the run identifier (and time, if unset) and records it.
func (l *ProvenanceLog) Append(p Provenance) Provenance {
	p.RunID = l.RunID
	if p.RecordedAt.IsZero() {
		p.RecordedAt = time.Now().UTC()
	}
	l.Entries = append(l.Entries, p)
	return p
}

// ForCompany returns the entries recorded for a company, oldest first.
func (l *ProvenanceLog) ForCompany(company string) []Provenance {
	var out []Provenance
	for _, p := range l.Entries {
		if p.Company == company {
			out = append(out, p)
		}
	}
	return out
}
