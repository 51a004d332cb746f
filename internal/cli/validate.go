package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/compiler"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/engine"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/question"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/store"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	App string // only check this application
}

// QuestionReport describes which targets a question can answer for.
// Any is set when some implementation answers for every target.
type QuestionReport struct {
	Label      string   `json:"label"`
	ID         string   `json:"id"`
	Any        bool     `json:"any"`
	Candidates []string `json:"candidates"`
}

// ApplicationReport describes whether an application can run on a graph.
type ApplicationReport struct {
	Name       string   `json:"name"`
	Qualified  bool     `json:"qualified"`
	Applicable bool     `json:"applicable"`
	Targets    []string `json:"targets"`
}

// ValidationResult holds every question and application report.
type ValidationResult struct {
	Questions    []QuestionReport    `json:"questions"`
	Applications []ApplicationReport `json:"applications"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <specs-dir> <graph>",
		Short: "Check which applications a graph supports",
		Long: `Check questions and applications against a graph.

An application is qualified when some graph implementation it uses
matches at least one entity, and applicable when at least one target
can answer every parameter. The graph is a YAML fixture or a SQLite
store.

Exit codes:
  0 - Checked (with --app: the application is applicable)
  1 - With --app: the application is not applicable
  2 - Command error (invalid paths, bad specs, etc.)

Examples:
  seeq validate ./specs building.yaml
  seeq validate ./specs building.db --app supply_fan_check`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.App, "app", "", "only check this application")

	return cmd
}

func runValidate(opts *ValidateOptions, specsDir, graphPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cat, err := LoadCatalog(specsDir)
	if err != nil {
		return commandError(formatter, err)
	}
	comps := cat.Registry.Computations()
	if opts.App != "" {
		comp, err := LookupApplication(cat, opts.App)
		if err != nil {
			return commandError(formatter, err)
		}
		comps = []*question.Computation{comp}
	}

	st, err := OpenGraph(ctx, graphPath)
	if err != nil {
		return commandError(formatter, err)
	}
	defer st.Close()

	result, err := validateCatalog(ctx, st, cat, comps)
	if err != nil {
		return commandError(formatter, &LoadError{Code: ErrCodeGraph, Message: err.Error()})
	}
	opts.Logger().Debug("validated", "questions", len(result.Questions), "applications", len(result.Applications))

	text := func(w io.Writer) { writeValidateText(w, result) }
	if opts.App != "" && !result.Applications[0].Applicable {
		msg := fmt.Sprintf("application %s is not applicable", opts.App)
		if err := formatter.Failure(ErrCodeResolve, msg, result, text); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return formatter.Success(result, text)
}

// validateCatalog reports every question used by comps, and every one of
// comps. The reported questions are all catalog questions when comps is
// the full application list.
func validateCatalog(ctx context.Context, st *store.Store, cat *compiler.Catalog, comps []*question.Computation) (*ValidationResult, error) {
	ranker := engine.NewRanker(st, compiler.NewCache())
	result := &ValidationResult{
		Questions:    make([]QuestionReport, 0),
		Applications: make([]ApplicationReport, 0, len(comps)),
	}

	used := make(map[*question.Question]bool)
	for _, comp := range comps {
		for _, q := range question.Closure(comp.Questions()...) {
			used[q] = true
		}
	}
	all := len(comps) == len(cat.Registry.Computations())
	for _, label := range cat.Labels {
		q, _ := cat.Registry.Question(label)
		if !all && !used[q] {
			continue
		}
		set, err := ranker.QuestionCandidates(ctx, q)
		if err != nil {
			return nil, err
		}
		result.Questions = append(result.Questions, QuestionReport{
			Label:      label,
			ID:         q.ID,
			Any:        set.IsWildcard(),
			Candidates: orEmpty(set.Targets()),
		})
	}

	for _, comp := range comps {
		report := ApplicationReport{Name: comp.Name, Targets: []string{}}
		qualified, err := qualifies(ctx, st, comp)
		if err != nil {
			return nil, err
		}
		report.Qualified = qualified
		if qualified {
			targets := engine.Wildcard()
			for _, p := range comp.Params {
				set, err := ranker.QuestionCandidates(ctx, p.Question)
				if err != nil {
					return nil, err
				}
				targets = targets.Intersect(set)
			}
			report.Targets = orEmpty(targets.Targets())
			report.Applicable = len(report.Targets) > 0
		}
		result.Applications = append(result.Applications, report)
	}
	return result, nil
}

// qualifies mirrors the resolver's fast-reject check.
func qualifies(ctx context.Context, st *store.Store, comp *question.Computation) (bool, error) {
	graphs := question.GraphImplementations(question.Closure(comp.Questions()...)...)
	if len(graphs) == 0 {
		return true, nil
	}
	for _, g := range graphs {
		ok, err := st.Qualify(ctx, g.Shape)
		if err != nil {
			return false, fmt.Errorf("qualify %s: %w", g, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeValidateText(w io.Writer, result *ValidationResult) {
	fmt.Fprintln(w, "Questions:")
	for _, q := range result.Questions {
		switch {
		case q.Any:
			fmt.Fprintf(w, "  ✓ %s: any target\n", q.Label)
		case len(q.Candidates) > 0:
			fmt.Fprintf(w, "  ✓ %s: %d candidate(s)\n", q.Label, len(q.Candidates))
		default:
			fmt.Fprintf(w, "  ✗ %s: no candidates\n", q.Label)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Applications:")
	for _, a := range result.Applications {
		switch {
		case !a.Qualified:
			fmt.Fprintf(w, "  ✗ %s: no graph implementation matches\n", a.Name)
		case !a.Applicable:
			fmt.Fprintf(w, "  ✗ %s: no target answers every parameter\n", a.Name)
		default:
			fmt.Fprintf(w, "  ✓ %s: %d target(s)\n", a.Name, len(a.Targets))
			for _, t := range a.Targets {
				fmt.Fprintf(w, "      %s\n", t)
			}
		}
	}
}
