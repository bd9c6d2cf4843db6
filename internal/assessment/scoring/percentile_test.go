package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentileLookup(t *testing.T) {
	table := PercentileTable{40: 30, 60: 55, 80: 90}

	assert.Equal(t, DefaultPercentile, table.Lookup(10))
	assert.Equal(t, 30, table.Lookup(40))
	assert.Equal(t, 30, table.Lookup(59))
	assert.Equal(t, 55, table.Lookup(60))
	assert.Equal(t, 90, table.Lookup(100))
}

func TestDefaultPercentileTableIsValid(t *testing.T) {
	require.NoError(t, DefaultPercentileTable().Validate())
	assert.Equal(t, 99, DefaultPercentileTable().Lookup(100))
}

func TestValidateRejectsNonMonotonic(t *testing.T) {
	assert.Error(t, PercentileTable{10: 50, 20: 40}.Validate())
	assert.Error(t, PercentileTable{10: 150}.Validate())
}

func TestLoadPercentileTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "percentiles.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"0": 1, "50": 50, "90": 97}`), 0o644))

	table, err := LoadPercentileTable(path)
	require.NoError(t, err)
	assert.Equal(t, PercentileTable{0: 1, 50: 50, 90: 97}, table)

	require.NoError(t, os.WriteFile(path, []byte(`{"abc": 1}`), 0o644))
	_, err = LoadPercentileTable(path)
	assert.Error(t, err)

	_, err = LoadPercentileTable(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
