package harness

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
)

// GoldenPath returns the golden file of the scenario file at path:
// golden/{name}.golden in the scenario's directory.
func GoldenPath(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(path), "golden", name+".golden")
}

// SnapshotBytes returns the canonical JSON snapshot of a scenario result,
// the exact content of its golden file.
func SnapshotBytes(name string, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(Snapshot(name, result.Resolution))
}

// RunWithGolden executes a scenario and compares its snapshot against
// {goldenDir}/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check assertions. Test failure
// (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, goldenDir string, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, Options{})
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, goldenDir, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, goldenDir, name string, result *Result) error {
	t.Helper()

	data, err := SnapshotBytes(name, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir(goldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
