package dart

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CollectOptions tunes the document path.
type CollectOptions struct {
	Slice            SliceOptions
	MaterialityFloor float64 // scanner threshold; DefaultMaterialityFloor when zero
	MaxDocumentBytes int64   // DefaultMaxDocumentBytes when zero
}

func (o CollectOptions) floor() float64 {
	if o.MaterialityFloor > 0 {
		return o.MaterialityFloor
	}
	return DefaultMaterialityFloor
}

// StatementFromDocument runs the full document path on raw bytes: decode,
// parse, extract, slice the report's quarter, map and build the statement.
// reference names the input (a path or receipt number) for provenance.
func StatementFromDocument(data []byte, reference, company string, report ReportType, opts CollectOptions) (Statement, Provenance, error) {
	prov := Provenance{
		Company:   company,
		Source:    SourceDocument,
		Reference: reference,
		Report:    report.String(),
	}

	parsed, err := ParseReport(data, company, opts.MaxDocumentBytes)
	if err != nil {
		return Statement{}, prov, err
	}
	prov.Encoding = parsed.Encoding
	prov.ParseMode = parsed.Mode

	sliced, method := SliceQuarter(parsed.Facts, report, opts.Slice)
	prov.Slice = method
	if year, ok := sliced.LatestYear(); ok {
		prov.Year = year
	}

	items, scanned, ok := MapDocument(sliced, parsed.Root, opts.floor())
	prov.Scanned = scanned
	if !ok {
		return Statement{}, prov, ErrNoMappedItems
	}

	return BuildStatement(company, items), prov, nil
}

// Collector drives the OpenDART-backed paths. It holds no per-run state:
// provenance is returned to the caller with every result.
type Collector struct {
	client *Client
	opts   CollectOptions
}

// NewCollector creates a Collector over an OpenDART client.
func NewCollector(client *Client, opts CollectOptions) *Collector {
	return &Collector{client: client, opts: opts}
}

// StatementFromAPI builds a statement from fnlttSinglAcntAll rows using the
// report's current-period amounts.
func (c *Collector) StatementFromAPI(ctx context.Context, corp Corp, year int, report ReportType) (Statement, Provenance, error) {
	prov := Provenance{
		Company: corp.Name,
		Source:  SourceAccounts,
		Report:  report.String(),
		Year:    year,
	}

	rows, err := c.client.FetchAccounts(ctx, corp.Code, year, report)
	if err != nil {
		return Statement{}, prov, err
	}
	rows = IncomeRows(rows)
	prov.Reference = receiptNo(rows)

	items, ok := MapAccounts(currentLines(rows))
	if !ok {
		return Statement{}, prov, ErrNoMappedItems
	}
	return BuildStatement(corp.Name, items), prov, nil
}

// StatementFromArchive locates the report's receipt number through the
// account API, downloads the filing's XBRL archive and runs the document path
// on its instance.
func (c *Collector) StatementFromArchive(ctx context.Context, corp Corp, year int, report ReportType) (Statement, Provenance, error) {
	prov := Provenance{
		Company: corp.Name,
		Source:  SourceArchive,
		Report:  report.String(),
		Year:    year,
	}

	rows, err := c.client.FetchAccounts(ctx, corp.Code, year, report)
	if err != nil {
		return Statement{}, prov, err
	}
	rcept := receiptNo(rows)
	if rcept == "" {
		return Statement{}, prov, eris.Wrap(ErrNoData, "dart: no receipt number")
	}
	prov.Reference = rcept

	data, _, err := c.client.FetchDocument(ctx, rcept, report)
	if err != nil {
		return Statement{}, prov, err
	}

	stmt, docProv, err := StatementFromDocument(data, rcept, corp.Name, report, c.opts)
	docProv.Source = SourceArchive
	if docProv.Year == 0 {
		docProv.Year = year
	}
	return stmt, docProv, err
}

// CollectQuarterly fetches the four periodic reports of a year concurrently
// and aggregates them into the quarterly table. Reports OpenDART has no data
// for are skipped; any other failure aborts the collection. One provenance
// entry is returned per report that contributed.
func (c *Collector) CollectQuarterly(ctx context.Context, corp Corp, year int) ([]QuarterlyRecord, []Provenance, error) {
	fetched := make([][]AccountRow, len(ReportTypes))

	g, gctx := errgroup.WithContext(ctx)
	for i, report := range ReportTypes {
		g.Go(func() error {
			rows, err := c.client.FetchAccounts(gctx, corp.Code, year, report)
			if eris.Is(err, ErrNoData) {
				zap.L().Warn("report unavailable",
					zap.String("corp", corp.Code),
					zap.Int("year", year),
					zap.String("report", report.String()),
				)
				return nil
			}
			if err != nil {
				return eris.Wrapf(err, "dart: fetch %s %d %s", corp.Code, year, report)
			}
			fetched[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	filings := make(map[ReportType]QuarterAmounts)
	var provs []Provenance
	for i, report := range ReportTypes {
		rows := IncomeRows(fetched[i])
		if len(rows) == 0 {
			continue
		}

		current, ok := MapAccounts(currentLines(rows))
		if !ok {
			continue
		}
		cumulative, _ := MapAccounts(cumulativeLines(rows))
		filings[report] = QuarterAmounts{Current: current, Cumulative: cumulative}

		provs = append(provs, Provenance{
			Company:   corp.Name,
			Source:    SourceAccounts,
			Reference: receiptNo(rows),
			Report:    report.String(),
			Year:      year,
		})
	}

	return AggregateQuarters(corp.Name, year, filings), provs, nil
}

func currentLines(rows []AccountRow) []AccountLine {
	lines := make([]AccountLine, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, r.Current())
	}
	return lines
}

func cumulativeLines(rows []AccountRow) []AccountLine {
	lines := make([]AccountLine, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, r.Cumulative())
	}
	return lines
}

func receiptNo(rows []AccountRow) string {
	for _, r := range rows {
		if r.ReceiptNo != "" {
			return r.ReceiptNo
		}
	}
	return ""
}
