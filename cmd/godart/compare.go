package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	dart "github.com/RxDataLab/go-dart"
)

var (
	cmpReport string
	cmpJSON   bool
	cmpCorps  []string
	cmpYear   int
	cmpSource string
)

var compareCmd = &cobra.Command{
	Use:   "compare [file]...",
	Short: "Compare income statements of several filings side by side",
	Long: `Builds a statement from each file, or from OpenDART for each --corp, and
outer-joins them on the standard items. A file's company is named after the
file, without the extension.`,
	Example: `  godart compare samsung.xbrl hynix.xbrl --report Q3
  godart compare --corp 삼성전자 --corp SK하이닉스 --year 2024 --report Q4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := dart.ParseReportType(cmpReport)
		if err != nil {
			return err
		}

		var (
			stmts []dart.Statement
			provs []dart.Provenance
		)
		switch {
		case len(args) > 0 && len(cmpCorps) > 0:
			return eris.New("compare: give files or --corp, not both")
		case len(args) > 0:
			stmts, provs, err = compareFiles(args, report)
		case len(cmpCorps) > 0:
			stmts, provs, err = compareCorps(cmd, report)
		default:
			return eris.New("compare: at least one file or --corp is required")
		}
		if err != nil {
			return err
		}

		log := dart.NewProvenanceLog()
		for _, p := range provs {
			log.Append(p)
		}

		table := dart.MergeStatements(stmts...)
		if !cmpJSON {
			printMerged(cmd.OutOrStdout(), table)
			return nil
		}

		data, err := dart.FormatJSONCompare(table, log.Entries)
		if err != nil {
			return eris.Wrap(err, "compare: marshal json")
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

func compareFiles(paths []string, report dart.ReportType) ([]dart.Statement, []dart.Provenance, error) {
	opts, err := collectOptions(cfg)
	if err != nil {
		return nil, nil, err
	}

	stmts := make([]dart.Statement, 0, len(paths))
	provs := make([]dart.Provenance, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "compare: read %s", path)
		}
		company := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		stmt, prov, err := dart.StatementFromDocument(data, path, company, report, opts)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "compare: %s", path)
		}
		stmts = append(stmts, stmt)
		provs = append(provs, prov)
	}
	return stmts, provs, nil
}

func compareCorps(cmd *cobra.Command, report dart.ReportType) ([]dart.Statement, []dart.Provenance, error) {
	if cmpYear == 0 {
		return nil, nil, eris.New("compare: --year is required with --corp")
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector, client, err := newCollector(cfg)
	if err != nil {
		return nil, nil, err
	}
	reg, err := client.FetchCorpCodes(ctx)
	if err != nil {
		return nil, nil, eris.Wrap(err, "compare: fetch registry")
	}

	corps := make([]dart.Corp, 0, len(cmpCorps))
	for _, q := range cmpCorps {
		corp, ok := reg.Lookup(q)
		if !ok {
			return nil, nil, eris.Errorf("compare: no company matches %q", q)
		}
		corps = append(corps, corp)
	}

	source := dart.SourceAccounts
	if cmpSource == "xbrl" {
		source = dart.SourceArchive
	}
	result, err := collector.CollectBatch(ctx, corps, dart.BatchOptions{Year: cmpYear, Report: report, Source: source})
	if err != nil {
		return nil, nil, err
	}
	for _, e := range result.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", e)
	}
	if result.Fetched == 0 {
		return nil, nil, eris.New("compare: no company produced a statement")
	}
	return result.Statements, result.Provenance, nil
}

func init() {
	f := compareCmd.Flags()
	f.StringVarP(&cmpReport, "report", "r", "Q4", "report period: Q1, Q2, Q3 or Q4 (annual)")
	f.BoolVar(&cmpJSON, "json", false, "print JSON instead of a table")
	f.StringArrayVar(&cmpCorps, "corp", nil, "corp code, stock code or company name (repeatable)")
	f.IntVar(&cmpYear, "year", 0, "business year for --corp")
	f.StringVar(&cmpSource, "source", "api", "OpenDART source for --corp: api or xbrl")
}
