package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zen-systems/checkgate/pkg/config"
	"github.com/zen-systems/checkgate/pkg/evidence"
	"github.com/zen-systems/checkgate/pkg/exitcode"
	"github.com/zen-systems/checkgate/pkg/logging"
	"github.com/zen-systems/checkgate/pkg/metrics"
	"github.com/zen-systems/checkgate/pkg/pipeline"
	"github.com/zen-systems/checkgate/pkg/trace"
)

type options struct {
	configFile      string
	evidenceDir     string
	metricsTextfile string
	color           string
	verbose         bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()

	if err != nil && !exitcode.Silent(err) {
		fmt.Fprintf(os.Stderr, "checkgate: %v\n", err)
	}
	os.Exit(exitcode.FromError(err))
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "checkgate",
		Short: "Run the quality gate: import order, format, lint, type check, tests",
		Long: `Checkgate runs a fixed sequence of external checks against the source tree
and stops at the first one that fails. The exit status is the failing
check's own exit status, or 0 when every check passes. Configuration
errors exit with 125.

Each command is echoed to stderr before it runs. Tool output is not
captured; it goes straight to the terminal.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGate(cmd.Context(), opts, stdout, stderr)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML manifest replacing the built-in stage table")
	rootCmd.Flags().StringVar(&opts.evidenceDir, "evidence", "", "write a run record under this directory")
	rootCmd.Flags().StringVar(&opts.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics for the run to this file")
	rootCmd.Flags().StringVar(&opts.color, "color", "auto", "color trace lines: auto, always or never")
	rootCmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log stage timing as JSON to stderr")

	rootCmd.AddCommand(listCmd(opts))
	rootCmd.AddCommand(validateCmd())

	return rootCmd
}

func runGate(ctx context.Context, opts *options, stdout, stderr io.Writer) error {
	mode, err := trace.ParseMode(opts.color)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}
	if opts.evidenceDir != "" {
		cfg.EvidenceDir = opts.evidenceDir
	}
	if opts.metricsTextfile != "" {
		cfg.MetricsTextfile = opts.metricsTextfile
	}

	logger := logging.NewJSONLogger(stderr, opts.verbose)

	outcome, err := pipeline.Run(ctx, cfg.Pipeline, pipeline.RunOptions{
		Stdout: stdout,
		Stderr: stderr,
		Tracer: trace.New(stderr, mode),
		Logger: logger,
	})
	if outcome == nil {
		return err
	}

	// Outputs are best effort: they must never mask the stage's exit status.
	if cfg.EvidenceDir != "" {
		runDir, recErr := evidence.Record(cfg.EvidenceDir, cfg.Path, cfg.Pipeline, outcome)
		if recErr != nil {
			logger.Warn("evidence not written", map[string]any{"error": recErr.Error()})
		} else {
			logger.Debug("evidence written", map[string]any{"dir": runDir})
		}
	}
	if cfg.MetricsTextfile != "" {
		collector := metrics.NewCollector()
		collector.Observe(outcome)
		if mErr := collector.WriteTextfile(cfg.MetricsTextfile); mErr != nil {
			logger.Warn("metrics not written", map[string]any{"error": mErr.Error()})
		}
	}

	if err != nil {
		return err
	}
	return outcome.Err()
}

func listCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the stage table in execution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}
			return printStages(cmd.OutOrStdout(), cfg.Pipeline)
		},
	}
}

func printStages(out io.Writer, p *pipeline.Pipeline) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSTAGE\tCOMMAND")
	for i, stage := range p.Stages {
		argv := append([]string{stage.Command}, stage.Args...)
		argv = append(argv, stage.Targets...)
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, stage.Name, trace.Format(argv))
	}
	return w.Flush()
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [checkgate.yaml]",
		Short: "Validate a stage manifest",
		Long:  "Checks a manifest against the schema and stage rules without running anything.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Manifest is valid: %d stages.\n", len(cfg.Pipeline.Stages))
			return nil
		},
	}
}
