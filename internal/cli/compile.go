package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/compiler"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/question"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/querysparql"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/shape"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output   string // output file path
	Question string // only this question label
}

// CompiledImplementation describes one implementation of a question.
// Graph implementations carry their shape identity and SPARQL.
type CompiledImplementation struct {
	Index   int    `json:"index"`
	Kind    string `json:"kind"`
	Summary string `json:"summary"`
	ShapeID string `json:"shape_id,omitempty"`
	SPARQL  string `json:"sparql,omitempty"`
}

// CompiledQuestion describes one question of the catalog.
type CompiledQuestion struct {
	Label           string                   `json:"label"`
	ID              string                   `json:"id"`
	Unit            string                   `json:"unit,omitempty"`
	Implementations []CompiledImplementation `json:"implementations"`
}

// CompilationResult holds the compiled questions and application names.
type CompilationResult struct {
	Questions    []CompiledQuestion `json:"questions"`
	Applications []string           `json:"applications"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <specs-dir>",
		Short: "Compile CUE questions and show their queries",
		Long: `Compile the CUE question catalog and print every implementation.

Graph implementations are compiled to the query IR and rendered as
SPARQL, so the matching logic of every shape can be read or run against
an external endpoint.

Examples:
  seeq compile ./specs
  seeq compile ./specs --question AHU_Tsa
  seeq compile ./specs --format json -o catalog.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write JSON result to file")
	cmd.Flags().StringVarP(&opts.Question, "question", "q", "", "only compile this question label")

	return cmd
}

func runCompile(opts *CompileOptions, specsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	logger := opts.Logger()

	cat, err := LoadCatalog(specsDir)
	if err != nil {
		return commandError(formatter, err)
	}
	logger.Debug("catalog loaded", "dir", specsDir, "questions", len(cat.Labels))

	labels := cat.Labels
	if opts.Question != "" {
		if _, ok := cat.Registry.Question(opts.Question); !ok {
			return commandError(formatter, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("unknown question %q", opts.Question)})
		}
		labels = []string{opts.Question}
	}

	result, err := compileCatalog(cat, labels)
	if err != nil {
		return commandError(formatter, err)
	}

	if opts.Output != "" {
		if err := writeJSONFile(opts.Output, result); err != nil {
			return commandError(formatter, &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing output file: %v", err)})
		}
		logger.Debug("wrote compilation result", "path", opts.Output)
	}

	return formatter.Success(result, func(w io.Writer) {
		writeCompileText(w, result)
	})
}

// compileCatalog compiles every graph implementation of the named
// questions through one cache, so shared shapes compile once.
func compileCatalog(cat *compiler.Catalog, labels []string) (*CompilationResult, error) {
	cache := compiler.NewCache()
	result := &CompilationResult{
		Questions:    make([]CompiledQuestion, 0, len(labels)),
		Applications: make([]string, 0),
	}

	for _, label := range labels {
		q, _ := cat.Registry.Question(label)
		cq := CompiledQuestion{
			Label:           label,
			ID:              q.ID,
			Unit:            q.Unit,
			Implementations: make([]CompiledImplementation, len(q.Implementations)),
		}
		for i, impl := range q.Implementations {
			ci, err := describeImplementation(cache, cat, impl)
			if err != nil {
				return nil, &LoadError{Code: ErrCodeQuestion, Message: fmt.Sprintf("%s implementation %d: %v", label, i, err)}
			}
			ci.Index = i
			cq.Implementations[i] = ci
		}
		result.Questions = append(result.Questions, cq)
	}

	for _, comp := range cat.Registry.Computations() {
		result.Applications = append(result.Applications, comp.Name)
	}
	return result, nil
}

func describeImplementation(cache *compiler.Cache, cat *compiler.Catalog, impl question.Implementation) (CompiledImplementation, error) {
	ci := CompiledImplementation{Summary: impl.String()}
	switch v := impl.(type) {
	case *question.GraphImplementation:
		ci.Kind = "graph"
		id, err := shape.ID(v.Shape)
		if err != nil {
			return ci, err
		}
		q, _, err := cache.Compile(v.Shape)
		if err != nil {
			return ci, err
		}
		sparql, err := querysparql.Render(q, cat.Prefixes)
		if err != nil {
			return ci, err
		}
		ci.ShapeID = id
		ci.SPARQL = sparql
	case *question.DefaultImplementation:
		ci.Kind = "default"
	case *question.WrappedImplementation:
		ci.Kind = "value"
	case *question.CompositeImplementation:
		ci.Kind = "composite"
	default:
		ci.Kind = fmt.Sprintf("%T", impl)
	}
	return ci, nil
}

func writeCompileText(w io.Writer, result *CompilationResult) {
	fmt.Fprintf(w, "✓ Compiled %d question(s), %d application(s)\n", len(result.Questions), len(result.Applications))
	for _, q := range result.Questions {
		fmt.Fprintln(w)
		if q.Unit != "" {
			fmt.Fprintf(w, "%s (%s) [%s]\n", q.Label, q.ID, q.Unit)
		} else {
			fmt.Fprintf(w, "%s (%s)\n", q.Label, q.ID)
		}
		for _, impl := range q.Implementations {
			fmt.Fprintf(w, "  %d. %s\n", impl.Index, impl.Summary)
			if impl.SPARQL == "" {
				continue
			}
			for _, line := range strings.Split(strings.TrimSuffix(impl.SPARQL, "\n"), "\n") {
				fmt.Fprintf(w, "     %s\n", line)
			}
		}
	}
	if len(result.Applications) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Applications:")
		for _, name := range result.Applications {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
}

// writeJSONFile writes v as indented JSON.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
