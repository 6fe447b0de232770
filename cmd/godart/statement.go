package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	dart "github.com/RxDataLab/go-dart"
)

var (
	stmtCompany      string
	stmtReport       string
	stmtCorp         string
	stmtYear         int
	stmtSource       string
	stmtJSON         bool
	stmtOutput       string
	stmtSaveOriginal bool
)

var statementCmd = &cobra.Command{
	Use:   "statement [file]",
	Short: "Build the income statement of one filing",
	Long: `Builds a standard income statement from an XBRL or inline XBRL file, or,
with --corp and --year, from OpenDART (account rows by default, the filing's
XBRL archive with --source xbrl).`,
	Example: `  godart statement ./entity00126380_2024-09-30.xbrl --company 삼성전자 --report Q3
  godart statement --corp 삼성전자 --year 2024 --report Q3
  godart statement --corp 005930 --year 2024 --report Q4 --source xbrl --json -o out.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := dart.ParseReportType(stmtReport)
		if err != nil {
			return err
		}

		var (
			stmt     dart.Statement
			prov     dart.Provenance
			original []byte
		)
		switch {
		case len(args) == 1:
			opts, err := collectOptions(cfg)
			if err != nil {
				return err
			}
			original, err = os.ReadFile(args[0])
			if err != nil {
				return eris.Wrap(err, "statement: read file")
			}
			company := stmtCompany
			if company == "" {
				company = args[0]
			}
			stmt, prov, err = dart.StatementFromDocument(original, args[0], company, report, opts)
			if err != nil {
				return eris.Wrapf(err, "statement: %s", args[0])
			}

		case stmtCorp != "":
			if stmtYear == 0 {
				return eris.New("statement: --year is required with --corp")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			collector, client, err := newCollector(cfg)
			if err != nil {
				return err
			}
			corp, err := resolveCorp(ctx, client, stmtCorp)
			if err != nil {
				return err
			}
			switch stmtSource {
			case "api":
				stmt, prov, err = collector.StatementFromAPI(ctx, corp, stmtYear, report)
			case "xbrl":
				stmt, prov, err = collector.StatementFromArchive(ctx, corp, stmtYear, report)
			default:
				return eris.Errorf("statement: unknown --source %q (api or xbrl)", stmtSource)
			}
			if err != nil {
				return eris.Wrapf(err, "statement: %s %d %s", corp.Name, stmtYear, report)
			}

		default:
			return eris.New("statement: a file or --corp is required")
		}

		prov = dart.NewProvenanceLog().Append(prov)
		out := cmd.OutOrStdout()

		if !stmtJSON && stmtOutput == "" {
			printStatement(out, stmt, prov)
			return nil
		}

		data, err := dart.FormatJSON(stmt, prov)
		if err != nil {
			return eris.Wrap(err, "statement: marshal json")
		}
		if stmtOutput == "" && !stmtSaveOriginal {
			_, err = fmt.Fprintln(out, string(data))
			return err
		}

		result, err := dart.SaveFiles(original, data, prov, dart.SaveOptions{
			SaveOriginal: stmtSaveOriginal,
			OutputPath:   stmtOutput,
		})
		if err != nil {
			return err
		}
		if result.OriginalPath != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved original: %s\n", result.OriginalPath)
		}
		if result.OutputPath != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved output: %s\n", result.OutputPath)
		} else {
			_, err = fmt.Fprintln(out, string(data))
		}
		return err
	},
}

func init() {
	f := statementCmd.Flags()
	f.StringVar(&stmtCompany, "company", "", "company name for a file (default: the file path)")
	f.StringVarP(&stmtReport, "report", "r", "Q4", "report period: Q1, Q2, Q3 or Q4 (annual)")
	f.StringVar(&stmtCorp, "corp", "", "corp code, stock code or company name to fetch from OpenDART")
	f.IntVar(&stmtYear, "year", 0, "business year for --corp")
	f.StringVar(&stmtSource, "source", "api", "OpenDART source for --corp: api or xbrl")
	f.BoolVar(&stmtJSON, "json", false, "print JSON instead of a table")
	f.StringVarP(&stmtOutput, "output", "o", "", "write JSON to this path")
	f.BoolVarP(&stmtSaveOriginal, "save-original", "s", false, "save the source document next to the output")
}
