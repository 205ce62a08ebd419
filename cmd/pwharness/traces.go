package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gotrs-io/pwharness/internal/traces"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var tracesCmd = &cobra.Command{
	Use:   "traces",
	Short: "Inspect and clean up saved trace archives",
	Long: `Saved traces live under TRACE_DIR as <package>/<class>/<method>[-<session>].zip.
Open one with: npx playwright show-trace <path>`,
}

var tracesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved traces, newest first",
	RunE:  runTracesList,
}

var tracesWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print traces as the test run saves them",
	RunE:  runTracesWatch,
}

var tracesPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete traces older than --older-than",
	RunE:  runTracesPrune,
}

var (
	tracesDirFlag    string
	tracesFormatFlag string
	olderThanFlag    time.Duration
	dryRunFlag       bool
)

func init() {
	tracesCmd.PersistentFlags().StringVar(&tracesDirFlag, "dir", "", "Trace root (defaults to TRACE_DIR)")
	tracesListCmd.Flags().StringVar(&tracesFormatFlag, "format", "table", "Output format: table, yaml, markdown or html")
	tracesPruneCmd.Flags().DurationVar(&olderThanFlag, "older-than", 7*24*time.Hour, "Delete traces last written before this long ago")
	tracesPruneCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Only print what would be deleted")

	tracesCmd.AddCommand(tracesListCmd)
	tracesCmd.AddCommand(tracesPruneCmd)
	tracesCmd.AddCommand(tracesWatchCmd)
}

func traceRoot() (string, *zap.Logger, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return "", nil, err
	}
	if tracesDirFlag != "" {
		return tracesDirFlag, log, nil
	}
	return cfg.TraceDir, log, nil
}

func runTracesList(cmd *cobra.Command, args []string) error {
	root, _, err := traceRoot()
	if err != nil {
		return err
	}
	all, err := traces.List(root)
	if err != nil {
		return fmt.Errorf("failed to list traces in %s: %w", root, err)
	}

	out := cmd.OutOrStdout()
	now := time.Now()
	switch tracesFormatFlag {
	case "yaml":
		return yaml.NewEncoder(out).Encode(all)
	case "markdown":
		_, err := fmt.Fprint(out, traces.Markdown(all, now))
		return err
	case "html":
		html, err := traces.HTML(all, now)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, html)
		return err
	case "table":
		if len(all) == 0 {
			fmt.Fprintf(out, "No traces in %s\n", root)
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MODIFIED\tPACKAGE\tCLASS\tMETHOD\tSIZE\tPATH")
		for _, t := range all {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				traces.Age(t, now), t.Package, t.Class, t.Method, t.Size, t.Path)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown format %q", tracesFormatFlag)
	}
}

func runTracesPrune(cmd *cobra.Command, args []string) error {
	root, log, err := traceRoot()
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-olderThanFlag)
	out := cmd.OutOrStdout()

	if dryRunFlag {
		all, err := traces.List(root)
		if err != nil {
			return err
		}
		for _, t := range all {
			if t.ModTime.Before(cutoff) {
				fmt.Fprintf(out, "would delete %s\n", t.Path)
			}
		}
		return nil
	}

	removed, err := traces.Prune(root, cutoff)
	for _, t := range removed {
		fmt.Fprintf(out, "deleted %s\n", t.Path)
	}
	log.Info("pruned traces", zap.String("root", root), zap.Int("deleted", len(removed)), zap.Error(err))
	fmt.Fprintf(out, "🧹 Deleted %d trace(s) older than %s\n", len(removed), olderThanFlag)
	return err
}

func runTracesWatch(cmd *cobra.Command, args []string) error {
	root, log, err := traceRoot()
	if err != nil {
		return err
	}
	w, err := traces.NewWatcher(root, traces.DefaultQuiet, log)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "👀 Watching %s for traces\n", root)
	return w.Run(ctx, func(t traces.Trace) {
		fmt.Fprintf(out, "%s/%s/%s  npx playwright show-trace %s\n", t.Package, t.Class, t.Method, t.Path)
	})
}
