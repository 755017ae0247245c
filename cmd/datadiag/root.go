package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datadiag/datadiag/internal/catalog"
	"github.com/datadiag/datadiag/internal/diag"
	"github.com/datadiag/datadiag/internal/payload"
	"github.com/datadiag/datadiag/internal/runner"
	"github.com/datadiag/datadiag/internal/systems"
)

var statusTags = map[diag.Status]string{
	diag.StatusPass:    "PASS",
	diag.StatusFail:    "FAIL",
	diag.StatusWarning: "WARN",
	diag.StatusError:   "ERR ",
}

func newRootCmd() *cobra.Command {
	cat := catalog.New(nil)
	systems.RegisterAll(cat, nil)
	run := runner.New(cat, nil)

	root := &cobra.Command{
		Use:           "datadiag",
		Short:         "Run data diagnostics from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSystemsCommand(cat))
	root.AddCommand(newRunCommand(run))
	root.AddCommand(newReportCommand(run))
	root.AddCommand(newPlotCommand(run))
	return root
}

func newSystemsCommand(cat *catalog.Catalog) *cobra.Command {
	return &cobra.Command{
		Use:   "systems",
		Short: "List registered systems and their entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := cat.Systems()
			for _, name := range cat.SystemNames() {
				info := infos[name]
				fmt.Fprintf(cmd.OutOrStdout(), "%s (v%s): %s\n", info.Name, info.Version, info.Description)
				fmt.Fprintf(cmd.OutOrStdout(), "  %d test(s), %d plot(s), %d report(s)\n",
					len(cat.Tests(name)), len(cat.Plots(name)), len(cat.Reports(name)))
			}
			return nil
		},
	}
}

func newRunCommand(run *runner.Runner) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run <system> <datafile>",
		Short: "Run all diagnostics of a system against a data file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := payload.Load(args[1])
			if err != nil {
				return err
			}
			summary := run.RunDiagnostics(cmd.Context(), args[0], data)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(summary); err != nil {
					return err
				}
			} else {
				printSummary(cmd, summary)
			}

			if summary.UnhealthyCount() > 0 {
				// Unhealthy runs exit non-zero for scripting.
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw summary as JSON")
	return cmd
}

func printSummary(cmd *cobra.Command, summary diag.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "System %s: %d test(s)\n\n", summary.SystemName, len(summary.Results))
	for _, r := range summary.Results {
		fmt.Fprintf(out, "[%s] %-28s %s\n", statusTags[r.Status], r.TestName, r.Message)
	}
	fmt.Fprintf(out, "\npass=%d fail=%d warning=%d error=%d\n",
		summary.PassCount(), summary.FailCount(), summary.WarningCount(), summary.ErrorCount())
}

func newReportCommand(run *runner.Runner) *cobra.Command {
	return &cobra.Command{
		Use:   "report <system> <name> <datafile>",
		Short: "Generate a named report for a system",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := payload.Load(args[2])
			if err != nil {
				return err
			}
			text, err := run.GenerateReport(cmd.Context(), args[0], args[1], data)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func newPlotCommand(run *runner.Runner) *cobra.Command {
	return &cobra.Command{
		Use:   "plot <system> <name> <datafile>",
		Short: "Generate a named plot for a system, printed as figure JSON",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := payload.Load(args[2])
			if err != nil {
				return err
			}
			fig, err := run.GeneratePlot(cmd.Context(), args[0], args[1], data)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(fig)
		},
	}
}
