// Package testutil provides fixtures shared by package tests: the Brick
// sample building, its question catalog, and deterministic run IDs.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/compiler"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/store"
)

// Namespaces of the sample building.
const (
	Brick    = "https://brickschema.org/schema/Brick#"
	Building = "urn:building#"
)

// RepoRoot returns the directory holding go.mod, searching upwards from
// the test's working directory.
func RepoRoot(t testing.TB) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, dir, parent, "go.mod not found above working directory")
		dir = parent
	}
}

// BrickSpecsDir is the directory of the sample question catalog.
func BrickSpecsDir(t testing.TB) string {
	return filepath.Join(RepoRoot(t), "testdata", "brick", "specs")
}

// BrickGraphFile is the sample building fixture.
func BrickGraphFile(t testing.TB) string {
	return filepath.Join(RepoRoot(t), "testdata", "brick", "building.yaml")
}

// BrickStore opens an in-memory store loaded with the sample building.
// The store is closed when the test ends.
func BrickStore(t testing.TB) *store.Store {
	t.Helper()
	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	_, err = st.LoadFile(context.Background(), BrickGraphFile(t))
	require.NoError(t, err)
	return st
}

// BrickCatalog compiles the sample question catalog.
func BrickCatalog(t testing.TB) *compiler.Catalog {
	t.Helper()
	cat, err := compiler.LoadDir(BrickSpecsDir(t))
	require.NoError(t, err)
	return cat
}
