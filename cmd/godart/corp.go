package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	dart "github.com/RxDataLab/go-dart"
)

var corpLimit int

var corpCmd = &cobra.Command{
	Use:     "corp <name>",
	Short:   "Find a company's DART corp code",
	Example: "  godart corp 삼성",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		_, client, err := newCollector(cfg)
		if err != nil {
			return err
		}
		reg, err := client.FetchCorpCodes(ctx)
		if err != nil {
			return eris.Wrap(err, "corp: fetch registry")
		}

		matches := reg.Search(args[0])
		if len(matches) == 0 {
			return eris.Errorf("corp: no company matches %q", args[0])
		}
		if corpLimit > 0 && len(matches) > corpLimit {
			matches = matches[:corpLimit]
		}
		printCorps(cmd.OutOrStdout(), matches)
		return nil
	},
}

func init() {
	corpCmd.Flags().IntVarP(&corpLimit, "limit", "n", 20, "maximum number of matches to list (0 for all)")
}

// resolveCorp turns a corp code, stock code or company name into a Corp.
func resolveCorp(ctx context.Context, client *dart.Client, query string) (dart.Corp, error) {
	reg, err := client.FetchCorpCodes(ctx)
	if err != nil {
		return dart.Corp{}, eris.Wrap(err, "resolve corp: fetch registry")
	}
	corp, ok := reg.Lookup(query)
	if !ok {
		return dart.Corp{}, eris.Errorf("resolve corp: no company matches %q (try godart corp)", query)
	}
	return corp, nil
}
