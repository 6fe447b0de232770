package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	dart "github.com/RxDataLab/go-dart"
	"github.com/RxDataLab/go-dart/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:     "godart",
	Short:   "Normalise Korean disclosures into income statements",
	Long:    "Reads OpenDART account data, OpenDART XBRL archives and XBRL or inline XBRL files, and lays them out as a standard income statement.",
	Version: dart.VERSION,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(statementCmd, quarterlyCmd, compareCmd, corpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// collectOptions maps configuration onto the document path settings.
func collectOptions(c *config.Config) (dart.CollectOptions, error) {
	policy, err := dart.ParseScopePolicy(c.Extract.ScopePolicy)
	if err != nil {
		return dart.CollectOptions{}, err
	}
	return dart.CollectOptions{
		Slice:            dart.SliceOptions{Policy: policy},
		MaterialityFloor: c.Extract.MaterialityFloor,
		MaxDocumentBytes: c.Document.MaxBytes,
	}, nil
}

// newCollector builds an OpenDART-backed collector. The API key is required.
func newCollector(c *config.Config) (*dart.Collector, *dart.Client, error) {
	if err := c.ValidateAPI(); err != nil {
		return nil, nil, err
	}
	opts, err := collectOptions(c)
	if err != nil {
		return nil, nil, err
	}
	client := dart.NewClient(dart.ClientOptions{
		APIKey:            c.DART.APIKey,
		BaseURL:           c.DART.BaseURL,
		Timeout:           c.DART.Timeout(),
		MaxRetries:        c.DART.MaxRetries,
		RequestsPerSecond: c.DART.RequestsPerSecond,
		FSDiv:             c.DART.FSDiv,
		MaxDocumentBytes:  c.Document.MaxBytes,
	})
	return dart.NewCollector(client, opts), client, nil
}
