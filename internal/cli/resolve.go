package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/engine"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	App        string // application to resolve
	Workers    int    // concurrent targets
	MaxTargets int    // abort above this many targets; 0 means no limit
	NoQualify  bool   // skip the fast-reject check
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <specs-dir> <graph>",
		Short: "Bind an application to every target in a graph",
		Long: `Resolve an application against a graph.

Every entity some implementation applies to is a target. A target is
bound when each parameter's question has an applicable implementation;
the first one in declared order wins. Targets that cannot be bound are
reported as dropped with the reason.

--app may be omitted when the catalog defines a single application.

Exit codes:
  0 - Resolved (including an empty or rejected result)
  2 - Command error (invalid paths, bad specs, target limit, etc.)

Examples:
  seeq resolve ./specs building.yaml --app supply_fan_check
  seeq resolve ./specs building.db --app vav_supply --workers 4
  seeq resolve ./specs building.yaml --app supply_fan_check --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.App, "app", "", "application to resolve")
	cmd.Flags().IntVar(&opts.Workers, "workers", 1, "targets resolved concurrently")
	cmd.Flags().IntVar(&opts.MaxTargets, "max-targets", 0, "fail when a run has more targets (0 = no limit)")
	cmd.Flags().BoolVar(&opts.NoQualify, "no-qualify", false, "skip the fast-reject qualification check")

	return cmd
}

func runResolve(opts *ResolveOptions, specsDir, graphPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	logger := opts.Logger()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Workers < 1 {
		return commandError(formatter, fmt.Errorf("--workers must be at least 1, got %d", opts.Workers))
	}

	cat, err := LoadCatalog(specsDir)
	if err != nil {
		return commandError(formatter, err)
	}
	comp, err := LookupApplication(cat, opts.App)
	if err != nil {
		return commandError(formatter, err)
	}

	st, err := OpenGraph(ctx, graphPath)
	if err != nil {
		return commandError(formatter, err)
	}
	defer st.Close()

	resolverOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithWorkers(opts.Workers),
		engine.WithMaxTargets(opts.MaxTargets),
	}
	if opts.NoQualify {
		resolverOpts = append(resolverOpts, engine.WithoutQualify())
	}

	res, err := engine.New(st, resolverOpts...).Resolve(ctx, comp)
	if err != nil {
		return commandError(formatter, &LoadError{Code: ErrCodeResolve, Message: err.Error()})
	}

	return formatter.Success(res, func(w io.Writer) {
		writeResolveText(w, res)
	})
}

func writeResolveText(w io.Writer, res *engine.Result) {
	mark := "✓"
	if res.Outcome != engine.OutcomeResolved {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s: %s, %d invocation(s), %d dropped\n",
		mark, res.Computation, res.Outcome, len(res.Invocations), len(res.Dropped))
	fmt.Fprintf(w, "  run %s\n", res.RunID)

	for _, inv := range res.Invocations {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s\n", inv.Target)
		choices := make(map[string]engine.Choice, len(inv.Choices))
		for _, c := range inv.Choices {
			choices[c.Param] = c
		}
		params := make([]string, 0, len(inv.Values))
		for p := range inv.Values {
			params = append(params, p)
		}
		slices.Sort(params)
		for _, p := range params {
			c := choices[p]
			fmt.Fprintf(w, "  %s = %s  [%d: %s]\n", p, inv.Values[p], c.Index, c.Implementation)
		}
	}

	if len(res.Dropped) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Dropped:")
		for _, d := range res.Dropped {
			fmt.Fprintf(w, "  %s: %s (%s)\n", d.Target, d.Code, d.Question)
		}
	}
}
