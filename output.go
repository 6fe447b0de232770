package dart

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// StatementOutput is the JSON shape of one normalised statement.
type StatementOutput struct {
	Metadata  Provenance `json:"metadata"`
	Statement Statement  `json:"statement"`
}

// QuarterlyOutput is the JSON shape of a quarterly table.
type QuarterlyOutput struct {
	RunID      string            `json:"runId,omitempty"`
	Company    string            `json:"company"`
	Year       int               `json:"year"`
	Quarters   []QuarterlyRecord `json:"quarters"`
	Provenance []Provenance      `json:"provenance"`
}

// CompareOutput is the JSON shape of merged statements.
type CompareOutput struct {
	Table      MergedTable  `json:"table"`
	Provenance []Provenance `json:"provenance"`
}

// FormatJSON returns pretty-printed JSON for a statement
func FormatJSON(stmt Statement, prov Provenance) ([]byte, error) {
	return json.MarshalIndent(StatementOutput{Metadata: prov, Statement: stmt}, "", "  ")
}

// FormatJSONQuarterly returns pretty-printed JSON for a quarterly table
func FormatJSONQuarterly(out QuarterlyOutput) ([]byte, error) {
	return json.MarshalIndent(out, "", "  ")
}

// FormatJSONCompare returns pretty-printed JSON for merged statements
func FormatJSONCompare(table MergedTable, provs []Provenance) ([]byte, error) {
	return json.MarshalIndent(CompareOutput{Table: table, Provenance: provs}, "", "  ")
}

var unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// GenerateFilename creates a filename from provenance
// Format: {company}_{year}_{report}_income.{ext}
// Falls back to income.{ext} if no company is known
func GenerateFilename(prov Provenance, ext string) string {
	company := strings.Trim(unsafeFilenameChars.ReplaceAllString(prov.Company, "_"), "_")
	if company == "" {
		return fmt.Sprintf("income.%s", ext)
	}

	parts := []string{company}
	if prov.Year > 0 {
		parts = append(parts, fmt.Sprint(prov.Year))
	}
	if prov.Report != "" {
		parts = append(parts, prov.Report)
	}
	return fmt.Sprintf("%s_income.%s", strings.Join(parts, "_"), ext)
}

// SaveOptions configures how files should be saved
type SaveOptions struct {
	SaveOriginal bool
	OriginalPath string // If empty, uses smart naming
	OutputPath   string // If empty, nothing is written
	OutputDir    string // Directory for output files (default: current dir)
}

// SaveResult contains paths to saved files
type SaveResult struct {
	OriginalPath string
	OutputPath   string
}

// SaveFiles saves the source document and/or the JSON output based on options
func SaveFiles(original, output []byte, prov Provenance, opts SaveOptions) (*SaveResult, error) {
	result := &SaveResult{}

	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
			return nil, eris.Wrap(err, "dart: create output directory")
		}
	}

	if opts.SaveOriginal && len(original) > 0 {
		originalPath := opts.OriginalPath
		if originalPath == "" {
			originalPath = GenerateFilename(prov, "xml")
		}
		if opts.OutputDir != "" && !filepath.IsAbs(originalPath) {
			originalPath = filepath.Join(opts.OutputDir, originalPath)
		}

		if err := os.WriteFile(originalPath, original, 0644); err != nil {
			return nil, eris.Wrap(err, "dart: save original document")
		}
		result.OriginalPath = originalPath
	}

	if opts.OutputPath != "" {
		outputPath := opts.OutputPath
		if opts.OutputDir != "" && !filepath.IsAbs(outputPath) {
			outputPath = filepath.Join(opts.OutputDir, outputPath)
		}

		if err := os.WriteFile(outputPath, output, 0644); err != nil {
			return nil, eris.Wrap(err, "dart: save output")
		}
		result.OutputPath = outputPath
	}

	return result, nil
}
