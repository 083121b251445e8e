// Package testutils holds fixtures shared by the railchat test suites.
package testutils

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"

	loamhelp "github.com/aretw0/railchat/pkg/adapters/loam"
)

// Wednesday is the fixed "now" of the dialog and extractor tests.
var Wednesday = time.Date(2021, 9, 1, 10, 0, 0, 0, time.UTC)

// Clock returns a clock stopped at t.
func Clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// SetupTestRepo creates a temporary directory and initializes a Loam repository in it.
// It fails the test immediately on error.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// SeedHelpRepo writes answers as help topics to a fresh unversioned repository and
// returns its directory.
func SeedHelpRepo(t *testing.T, answers map[string]string) string {
	t.Helper()
	dir, repo := SetupTestRepo(t, loam.WithVersioning(false))
	require.NoError(t, loamhelp.Seed(context.Background(), repo, answers))
	return dir
}
