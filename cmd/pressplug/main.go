// Package main provides the pressplug command-line tool: validate a site
// configuration, run a plugin registration pass, and serve the inspect API.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ferro-labs/pressplug"
	"github.com/ferro-labs/pressplug/internal/logging"
	"github.com/ferro-labs/pressplug/internal/version"
	"github.com/ferro-labs/pressplug/plugin"

	// Register built-in plugins so they can be referenced from config.
	_ "github.com/ferro-labs/pressplug/internal/plugins/activeheaderlinks"
	_ "github.com/ferro-labs/pressplug/internal/plugins/backtotop"
	_ "github.com/ferro-labs/pressplug/internal/plugins/lastupdated"
	_ "github.com/ferro-labs/pressplug/internal/plugins/sitemap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel, logFormat string

	root := &cobra.Command{
		Use:   "pressplug",
		Short: "Plugin registration for static-site builds",
		Long: `pressplug resolves the plugins listed in a site configuration, runs their
factories, and assembles the lifecycle hooks and options they contribute.

Commands:
  validate   check a configuration file
  plugins    list built-in plugins
  apply      run one registration pass and print the outcome
  serve      register, then serve the inspect API and re-register on change`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if cmd.Flags().Changed("log-level") || cmd.Flags().Changed("log-format") {
				logging.Setup(logLevel, logFormat)
			}
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", os.Getenv("LOG_LEVEL"), "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", os.Getenv("LOG_FORMAT"), "Log format (json, text)")

	root.AddCommand(
		newValidateCmd(),
		newPluginsCmd(),
		newApplyCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a site configuration file (JSON/YAML)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Config is valid\n")
			fmt.Fprintf(out, "  Source:  %s\n", cfg.SourceDir)
			if cfg.Base != "" {
				fmt.Fprintf(out, "  Base:    %s\n", cfg.Base)
			}
			if len(cfg.Plugins) > 0 {
				names := make([]string, 0, len(cfg.Plugins))
				for _, entry := range cfg.Plugins {
					names = append(names, entryName(entry))
				}
				fmt.Fprintf(out, "  Plugins: %s\n", strings.Join(names, ", "))
			}
			if cfg.Ledger != nil {
				fmt.Fprintf(out, "  Ledger:  %s\n", cfg.Ledger.Driver)
			}
			return nil
		},
	}
}

func newPluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List built-in plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			ids := plugin.RegisteredPlugins()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No plugins registered.")
				return nil
			}
			fmt.Fprintln(out, "Registered plugins:")
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, id := range ids {
				kind := "descriptor"
				if _, ok := plugin.GetFactory(id); ok {
					kind = "factory"
				}
				fmt.Fprintf(tw, "  %s\tname=%s\ttype=%s\n", id, plugin.InferName(id, nil), kind)
			}
			return tw.Flush()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pressplug %s\n", version.String())
		},
	}
}

func loadConfig(path string) (*pressplug.Config, error) {
	cfg, err := pressplug.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := pressplug.ValidateConfig(*cfg); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return cfg, nil
}

// entryName is the display name of a plugin list entry before resolution.
func entryName(entry interface{}) string {
	if pair, ok := entry.([]interface{}); ok && len(pair) > 0 {
		entry = pair[0]
	}
	if rec, ok := entry.(map[string]interface{}); ok {
		return plugin.InferName(entry, plugin.DescriptorFromRecord(rec))
	}
	return plugin.InferName(entry, nil)
}

func printReport(out io.Writer, report *plugin.Report) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPLUGIN\tSTATUS\tCONTRIBUTIONS\tDIAGNOSTICS")
	for _, o := range report.Outcomes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", o.Index, o.Plugin, o.Status, o.Contributions, len(o.Diagnostics))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, d := range report.Diagnostics() {
		fmt.Fprintf(out, "  ! %s: %s %s: %s\n", d.Plugin, d.Kind, d.Target, d.Message)
	}
	return nil
}

func printSurface(out io.Writer, r *plugin.Registry) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HOOK/OPTION\tCONTRIBUTORS")
	for _, name := range plugin.HookNames {
		fmt.Fprintf(tw, "%s\t%s\n", name, strings.Join(r.Hook(name).Contributors(), ", "))
	}
	for _, name := range plugin.OptionNames {
		entries := r.Option(name).Entries()
		contributors := make([]string, len(entries))
		for i, e := range entries {
			contributors[i] = e.Contributor
		}
		fmt.Fprintf(tw, "%s\t%s\n", name, strings.Join(contributors, ", "))
	}
	return tw.Flush()
}
