// Package tests holds reusable contract suites for the collaborator ports.
package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/railchat/pkg/domain"
	"github.com/aretw0/railchat/pkg/ports"
)

// StationDirectoryContractTest verifies a StationDirectory seeded with at least
// Norwich (NRW) and London Liverpool Street (LST).
func StationDirectoryContractTest(t *testing.T, dir ports.StationDirectory) {
	t.Helper()
	ctx := context.Background()

	t.Run("Lookup_ExactName", func(t *testing.T) {
		st, err := dir.Lookup(ctx, "Norwich")
		require.NoError(t, err)
		assert.Equal(t, "NRW", st.Code)
		assert.Equal(t, "Norwich", st.Name)
	})

	t.Run("Lookup_IgnoresCase", func(t *testing.T) {
		st, err := dir.Lookup(ctx, "london liverpool street")
		require.NoError(t, err)
		assert.Equal(t, "LST", st.Code)
	})

	t.Run("Lookup_NotFound", func(t *testing.T) {
		_, err := dir.Lookup(ctx, "Atlantis Central")
		assert.ErrorIs(t, err, domain.ErrStationNotFound)
	})

	t.Run("Search_Substring", func(t *testing.T) {
		got, err := dir.Search(ctx, "liverpool st", 5)
		require.NoError(t, err)
		codes := make([]string, 0, len(got))
		for _, st := range got {
			codes = append(codes, st.Code)
		}
		assert.Contains(t, codes, "LST")
	})

	t.Run("Search_Limit", func(t *testing.T) {
		got, err := dir.Search(ctx, "", 1)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(got), 1)
	})
}

// StationCoderContractTest verifies a StationCoder seeded like the directory contract.
func StationCoderContractTest(t *testing.T, coder ports.StationCoder) {
	t.Helper()
	ctx := context.Background()

	t.Run("LookupCode_IgnoresCase", func(t *testing.T) {
		st, err := coder.LookupCode(ctx, "lst")
		require.NoError(t, err)
		assert.Equal(t, "London Liverpool Street", st.Name)
		assert.Equal(t, "LST", st.Code)
	})

	t.Run("LookupCode_NotFound", func(t *testing.T) {
		_, err := coder.LookupCode(ctx, "ZZZ")
		assert.ErrorIs(t, err, domain.ErrStationNotFound)
	})
}
