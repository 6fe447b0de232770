package dart

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// BatchOptions configures a multi-company collection
type BatchOptions struct {
	Year   int        // Required: business year
	Report ReportType // Required: periodic report to read
	Source Source     // SourceAccounts (default) or SourceArchive
}

// BatchResult contains the results of a batch operation
type BatchResult struct {
	Statements []Statement
	Provenance []Provenance
	TotalFound int     // Companies requested
	Fetched    int     // Companies that produced a statement
	Errors     []error // Per-company failures; the batch carries on past them
}

// CollectBatch builds one statement per company. Companies that fail are
// recorded in Errors and skipped; only invalid options or a cancelled
// context stop the batch.
func (c *Collector) CollectBatch(ctx context.Context, corps []Corp, opts BatchOptions) (*BatchResult, error) {
	if opts.Year == 0 {
		return nil, eris.New("dart: batch year is required")
	}
	if opts.Report.Code() == "" {
		return nil, eris.New("dart: batch report is required")
	}

	collect := c.StatementFromAPI
	switch opts.Source {
	case "", SourceAccounts:
	case SourceArchive:
		collect = c.StatementFromArchive
	default:
		return nil, eris.Errorf("dart: batch source %q not supported", opts.Source)
	}

	result := &BatchResult{TotalFound: len(corps)}
	for i, corp := range corps {
		if err := ctx.Err(); err != nil {
			return result, eris.Wrap(err, "dart: batch cancelled")
		}

		if (i+1)%10 == 0 || i == 0 {
			zap.L().Info("batch progress", zap.Int("done", i), zap.Int("total", len(corps)))
		}

		stmt, prov, err := collect(ctx, corp, opts.Year, opts.Report)
		if err != nil {
			result.Errors = append(result.Errors, eris.Wrapf(err, "dart: %s (%s)", corp.Name, corp.Code))
			continue
		}

		result.Statements = append(result.Statements, stmt)
		result.Provenance = append(result.Provenance, prov)
		result.Fetched++
	}

	if len(result.Errors) > 0 {
		zap.L().Warn("batch finished with errors",
			zap.Int("fetched", result.Fetched),
			zap.Int("total", result.TotalFound),
			zap.Int("errors", len(result.Errors)),
		)
	}
	return result, nil
}
