package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/compiler"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/question"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/store"
)

// LoadError represents an error that occurred while loading specs or a
// graph, with a CLI error code.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	return e.Code + ": " + e.located()
}

// located returns the message prefixed with its CUE position, if any.
func (e *LoadError) located() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// LoadCatalog compiles the CUE question catalog in dir.
func LoadCatalog(dir string) (*compiler.Catalog, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	cat, err := compiler.LoadDir(dir)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return cat, nil
}

// OpenGraph opens the graph at path. A .yaml or .yml file is loaded into
// a fresh in-memory store; anything else is opened as a SQLite store.
func OpenGraph(ctx context.Context, path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("graph not found: %s", path)}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		st, err := store.OpenMemory()
		if err != nil {
			return nil, &LoadError{Code: ErrCodeGraph, Message: err.Error()}
		}
		if _, err := st.LoadFile(ctx, path); err != nil {
			st.Close()
			return nil, &LoadError{Code: ErrCodeGraph, Message: err.Error()}
		}
		return st, nil
	default:
		st, err := store.Open(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeGraph, Message: err.Error()}
		}
		return st, nil
	}
}

// LookupApplication returns the named application, or the only one when
// name is empty and the catalog defines exactly one.
func LookupApplication(cat *compiler.Catalog, name string) (*question.Computation, error) {
	if name == "" {
		all := cat.Registry.Computations()
		if len(all) == 1 {
			return all[0], nil
		}
		names := make([]string, len(all))
		for i, c := range all {
			names[i] = c.Name
		}
		return nil, &LoadError{Code: ErrCodeUnknownApplication, Message: fmt.Sprintf("--app is required; applications: %s", strings.Join(names, ", "))}
	}
	comp, ok := cat.Registry.Computation(name)
	if !ok {
		return nil, &LoadError{Code: ErrCodeUnknownApplication, Message: fmt.Sprintf("unknown application %q", name)}
	}
	return comp, nil
}

// convertCompileError converts a compiler.CompileError to a LoadError.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
}

// Error codes for CLI output.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error

	// Catalog errors
	ErrCodeQuestion           = "E101" // Invalid question
	ErrCodeCycle              = "E102" // Questions reference each other
	ErrCodeApplication        = "E103" // Invalid application
	ErrCodePrefix             = "E104" // Invalid prefix
	ErrCodeUnknownApplication = "E105" // Application not found

	// Graph and resolution errors
	ErrCodeGraph   = "E201" // Graph could not be opened or loaded
	ErrCodeResolve = "E202" // Resolution failed
)

// MapFieldToErrorCode maps a CompileError field path to a CLI error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "question":
		return ErrCodeCycle
	case strings.HasPrefix(field, "question."):
		return ErrCodeQuestion
	case strings.HasPrefix(field, "application"):
		return ErrCodeApplication
	case strings.HasPrefix(field, "prefix"):
		return ErrCodePrefix
	case field == "cue":
		return ErrCodeLoadFailed
	default:
		return ErrCodeGeneric
	}
}
