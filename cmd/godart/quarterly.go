package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	dart "github.com/RxDataLab/go-dart"
)

var (
	qtrCorp string
	qtrYear int
	qtrJSON bool
)

var quarterlyCmd = &cobra.Command{
	Use:     "quarterly",
	Short:   "Build a company's quarterly table for one year",
	Long:    "Fetches the four periodic reports of a year from OpenDART and derives the fourth quarter from the annual report.",
	Example: "  godart quarterly --corp 삼성전자 --year 2024",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if qtrCorp == "" || qtrYear == 0 {
			return eris.New("quarterly: --corp and --year are required")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		collector, client, err := newCollector(cfg)
		if err != nil {
			return err
		}
		corp, err := resolveCorp(ctx, client, qtrCorp)
		if err != nil {
			return err
		}

		records, provs, err := collector.CollectQuarterly(ctx, corp, qtrYear)
		if err != nil {
			return eris.Wrapf(err, "quarterly: %s %d", corp.Name, qtrYear)
		}
		if len(records) == 0 {
			return eris.Wrapf(dart.ErrNoData, "quarterly: %s %d", corp.Name, qtrYear)
		}

		log := dart.NewProvenanceLog()
		for _, p := range provs {
			log.Append(p)
		}

		if !qtrJSON {
			printQuarterly(cmd.OutOrStdout(), corp.Name, qtrYear, records)
			return nil
		}

		data, err := dart.FormatJSONQuarterly(dart.QuarterlyOutput{
			RunID:      log.RunID,
			Company:    corp.Name,
			Year:       qtrYear,
			Quarters:   records,
			Provenance: log.Entries,
		})
		if err != nil {
			return eris.Wrap(err, "quarterly: marshal json")
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

func init() {
	f := quarterlyCmd.Flags()
	f.StringVar(&qtrCorp, "corp", "", "corp code, stock code or company name")
	f.IntVar(&qtrYear, "year", 0, "business year")
	f.BoolVar(&qtrJSON, "json", false, "print JSON instead of a table")
}
