package dart

import (
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNoFacts is returned when a document parses but carries no numeric facts.
var ErrNoFacts = eris.New("dart: no facts extracted")

// ErrNoMappedItems is returned when no standard item could be resolved.
var ErrNoMappedItems = eris.New("dart: no standard items mapped")

// ParsedReport is a decoded, parsed financial report and its facts.
type ParsedReport struct {
	Company  string
	Encoding Encoding
	Mode     ParseMode
	Format   Format
	Root     *Node
	Facts    FactTable
}

// ParseReport decodes raw document bytes, normalises the text, builds the
// node tree and extracts every fact. maxBytes <= 0 means DefaultMaxDocumentBytes.
func ParseReport(data []byte, company string, maxBytes int64) (*ParsedReport, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDocumentBytes
	}

	text, enc, err := DecodeDocument(data, maxBytes)
	if err != nil {
		return nil, err
	}
	text = NormalizeMarkup(text)

	root, mode, err := ParseDocument(text)
	if err != nil {
		return nil, err
	}

	facts := ExtractFacts(root, company)
	zap.L().Debug("parsed report",
		zap.String("company", company),
		zap.String("encoding", string(enc)),
		zap.String("mode", string(mode)),
		zap.Int("facts", len(facts)))

	if len(facts) == 0 {
		return nil, ErrNoFacts
	}

	return &ParsedReport{
		Company:  company,
		Encoding: enc,
		Mode:     mode,
		Format:   DetectFormat(text),
		Root:     root,
		Facts:    facts,
	}, nil
}

// ReadReport is ParseReport over a reader. At most maxBytes+1 bytes are read
// so oversized input is rejected without buffering all of it.
func ReadReport(r io.Reader, company string, maxBytes int64) (*ParsedReport, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDocumentBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, eris.Wrap(err, "dart: read input")
	}
	return ParseReport(data, company, maxBytes)
}
