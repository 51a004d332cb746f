package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/testutil"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// decodeResponse decodes a JSON envelope whose data has type T.
func decodeResponse[T any](t *testing.T, out string) (string, T, *CLIError) {
	t.Helper()
	var resp struct {
		Status string    `json:"status"`
		Data   T         `json:"data"`
		Error  *CLIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp.Status, resp.Data, resp.Error
}

// writeFile writes content to name inside dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// vavOnlyGraph is a building with a VAV and no air-handling unit.
const vavOnlyGraph = `prefixes:
  brick: https://brickschema.org/schema/Brick#
  ex: "urn:ex#"
triples:
  - [ex:vav1, rdf:type, brick:VAV]
  - [ex:vav1, brick:hasPoint, ex:vav1_sat]
  - [ex:vav1_sat, rdf:type, brick:Supply_Air_Temperature_Sensor]
`

func specsDir(t *testing.T) string { return testutil.BrickSpecsDir(t) }

func graphFile(t *testing.T) string { return testutil.BrickGraphFile(t) }
