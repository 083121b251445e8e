package sqlite_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/railchat/pkg/adapters/sqlite"
	"github.com/aretw0/railchat/pkg/domain"
	contract "github.com/aretw0/railchat/pkg/ports/tests"
)

const stationsCSV = `name,crs,county
Norwich,NRW,Norfolk
London Liverpool Street,lst,Greater London
Liverpool Lime Street,LIV,Merseyside
Diss,DIS,Norfolk
Norwich Thorpe Goods,none,Norfolk
100%_Halt,PCT
`

func open(t *testing.T) *sqlite.Directory {
	t.Helper()
	dir, err := sqlite.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = dir.Close() })

	n, err := dir.Import(context.Background(), strings.NewReader(stationsCSV))
	require.NoError(t, err)
	require.Equal(t, 6, n)
	return dir
}

func TestDirectory_Contract(t *testing.T) {
	dir := open(t)
	contract.StationDirectoryContractTest(t, dir)
	contract.StationCoderContractTest(t, dir)
}

func TestDirectory_LookupCodeHidesNone(t *testing.T) {
	_, err := open(t).LookupCode(context.Background(), "none")
	assert.ErrorIs(t, err, domain.ErrStationNotFound)
}

func TestDirectory_HidesStationsWithoutCode(t *testing.T) {
	dir := open(t)
	ctx := context.Background()

	_, err := dir.Lookup(ctx, "Norwich Thorpe Goods")
	assert.ErrorIs(t, err, domain.ErrStationNotFound)

	got, err := dir.Search(ctx, "norwich", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "NRW", got[0].Code)
}

func TestDirectory_SearchEscapesWildcards(t *testing.T) {
	dir := open(t)
	got, err := dir.Search(context.Background(), "0%_h", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "PCT", got[0].Code)

	got, err = dir.Search(context.Background(), "_", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1, "underscore is literal")
}

func TestDirectory_ImportUpserts(t *testing.T) {
	dir := open(t)
	ctx := context.Background()

	_, err := dir.Import(ctx, strings.NewReader("norwich,NRW,Norfolk (East)\n"))
	require.NoError(t, err)

	st, err := dir.Lookup(ctx, "Norwich")
	require.NoError(t, err)
	assert.Equal(t, "Norfolk (East)", st.County)

	all, err := dir.Stations(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestDirectory_ImportRejectsShortRecords(t *testing.T) {
	dir, err := sqlite.OpenMemory()
	require.NoError(t, err)
	defer dir.Close()

	_, err = dir.Import(context.Background(), strings.NewReader("Norwich,NRW\nDiss\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	all, err := dir.Stations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all, "a failed import is rolled back")
}

func TestDirectory_OpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "stations.db")
	dir, err := sqlite.Open(path)
	require.NoError(t, err)
	_, err = dir.Import(context.Background(), strings.NewReader("Diss,DIS\n"))
	require.NoError(t, err)
	require.NoError(t, dir.Close())

	dir, err = sqlite.Open(path)
	require.NoError(t, err)
	defer dir.Close()
	st, err := dir.Lookup(context.Background(), "diss")
	require.NoError(t, err)
	assert.Equal(t, "DIS", st.Code)
}
