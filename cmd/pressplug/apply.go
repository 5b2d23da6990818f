package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ferro-labs/pressplug"
	"github.com/ferro-labs/pressplug/internal/ledger"
)

type ledgerFlags struct {
	driver string
	dsn    string
}

func (f *ledgerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.driver, "ledger-driver", "", "Ledger backend (sqlite, postgres); overrides the config")
	cmd.Flags().StringVar(&f.dsn, "ledger-dsn", "", "Ledger data source name; overrides the config")
}

// open returns the ledger selected by flags or, failing that, by cfg. It
// returns nil when no ledger is configured.
func (f *ledgerFlags) open(cfg *pressplug.Config) (*ledger.SQLWriter, error) {
	driver, dsn := f.driver, f.dsn
	if cfg.Ledger != nil {
		if driver == "" {
			driver = string(cfg.Ledger.Driver)
		}
		if dsn == "" {
			dsn = cfg.Ledger.DSN
		}
	}
	if driver == "" && dsn == "" {
		return nil, nil
	}
	w, err := ledger.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	return w, nil
}

func newApplyCmd() *cobra.Command {
	var (
		lf      ledgerFlags
		asJSON  bool
		surface bool
	)
	cmd := &cobra.Command{
		Use:   "apply <config-file>",
		Short: "Run one plugin registration pass and print the outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args[0])
			if err != nil {
				return err
			}

			var opts []pressplug.SiteOption
			store, err := lf.open(cfg)
			if err != nil {
				return err
			}
			if store != nil {
				defer func() { _ = store.Close() }()
				opts = append(opts, pressplug.WithLedger(store))
			}

			site, err := pressplug.New(*cfg, opts...)
			if err != nil {
				return err
			}
			report, regErr := site.LoadPlugins(cmd.Context())

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else if report != nil {
				if err := printReport(out, report); err != nil {
					return err
				}
			}
			if regErr != nil {
				return regErr
			}
			if surface && !asJSON {
				fmt.Fprintln(out)
				return printSurface(out, site.Registry())
			}
			return nil
		},
	}
	lf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&surface, "surface", true, "Print hook and option contributors")
	return cmd
}
