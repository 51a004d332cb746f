package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/testutil"
)

func scenariosDir(t *testing.T) string {
	return filepath.Join(testutil.RepoRoot(t), "testdata", "scenarios")
}

// scenarioYAML is a scenario against the sample catalog with an
// inline graph. SPECS and COUNT are filled in by writeScenario.
const scenarioYAML = `name: lookup
description: One supply air sensor
specs: SPECS
application: sensor_lookup
fixture:
  prefixes:
    brick: https://brickschema.org/schema/Brick#
    ex: "urn:ex#"
  triples:
    - [ex:ahu1, rdf:type, brick:AHU]
    - [ex:ahu1, brick:hasPoint, ex:sensor1]
    - [ex:sensor1, rdf:type, brick:Supply_Air_Temperature_Sensor]
assertions:
  - type: invocation_count
    count: COUNT
`

func writeScenario(t *testing.T, dir, name, count string) string {
	t.Helper()
	content := scenarioYAML
	content = strings.ReplaceAll(content, "SPECS", specsDir(t))
	content = strings.ReplaceAll(content, "COUNT", count)
	return writeFile(t, dir, name+".yaml", content)
}

func TestTest_Scenarios(t *testing.T) {
	out, _, err := execute(t, "test", scenariosDir(t))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ no_match\n")
	assert.Contains(t, out, "✓ sensor_lookup\n")
	assert.Contains(t, out, "✓ supply_fan_check\n")
	assert.Contains(t, out, "✓ vav_supply\n")
	assert.Contains(t, out, "Test Summary: 4 passed, 0 failed, 4 total\n")
	assert.Contains(t, out, "✓ All scenarios passed\n")
}

func TestTest_JSONReportsGoldenMatch(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "test", scenariosDir(t))
	require.NoError(t, err)

	status, result, _ := decodeResponse[TestResult](t, out)
	assert.Equal(t, "ok", status)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 4, result.Passed)
	for _, sr := range result.Scenarios {
		assert.True(t, sr.Pass, sr.Name)
		assert.Equal(t, "match", sr.Golden, sr.Name)
	}
}

func TestTest_Filter(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "test", scenariosDir(t), "--filter", "vav_*")
	require.NoError(t, err)

	_, result, _ := decodeResponse[TestResult](t, out)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "vav_supply", result.Scenarios[0].Name)
}

func TestTest_InvalidFilter(t *testing.T) {
	_, _, err := execute(t, "test", scenariosDir(t), "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_UpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "lookup", "1")

	out, _, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ lookup\n")

	out, _, err = execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ lookup (golden updated)\n")

	golden := filepath.Join(dir, "golden", "lookup.golden")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario":"lookup"`)
	assert.Contains(t, string(data), `"run_id":"run-0001"`)

	_, _, err = execute(t, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte("{}"), 0o644))
	out, _, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ lookup\n  result does not match golden file")
}

func TestTest_FailingAssertion(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "lookup", "5")

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ lookup\n")
	assert.Contains(t, out, "Test Summary: 0 passed, 1 failed, 1 total\n")

	out, _, err = execute(t, "--format", "json", "test", dir)
	require.Error(t, err)
	status, result, cliErr := decodeResponse[TestResult](t, out)
	assert.Equal(t, "error", status)
	require.NotNil(t, cliErr)
	assert.Equal(t, "E_TEST_FAILED", cliErr.Code)
	assert.Equal(t, 1, result.Failed)
	assert.NotEmpty(t, result.Scenarios[0].Errors)
}

func TestTest_LoadError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", "name: broken\nunknown_field: 1\n")

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken\n  failed to load scenario")
}

func TestTest_NoScenarios(t *testing.T) {
	out, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestTest_MissingDirectory(t *testing.T) {
	out, _, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "scenarios directory not found")
}
