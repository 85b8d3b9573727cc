package swiftdsv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "format.yaml")

	f := Format{
		Delim:    '|',
		Quote:    '"',
		Header:   2,
		ColNames: []string{"id", "name"},
		Strict:   true,
		Subset:   []int{1, 0},
	}

	require.NoError(t, SaveFormat(path, f))
	loaded, err := LoadFormat(path)
	require.NoError(t, err)

	assert.Equal(t, f.Delim, loaded.Delim)
	assert.Equal(t, f.Quote, loaded.Quote)
	assert.Equal(t, f.Header, loaded.Header)
	assert.Equal(t, f.ColNames, loaded.ColNames)
	assert.Equal(t, f.Strict, loaded.Strict)
	assert.Equal(t, f.Subset, loaded.Subset)
}

func TestLoadFormatSubstitutesEnvVars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "format.yaml")

	require.NoError(t, os.WriteFile(path, []byte("delim: \"${TEST_DELIM}\"\nheader: 0\n"), 0o644))
	require.NoError(t, os.Setenv("TEST_DELIM", ";"))
	defer os.Unsetenv("TEST_DELIM")

	f, err := LoadFormat(path)
	require.NoError(t, err)
	assert.Equal(t, byte(';'), f.Delim)
}

func TestLoadFormatMissingFile(t *testing.T) {
	_, err := LoadFormat(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	var dsvErr *Error
	require.ErrorAs(t, err, &dsvErr)
	assert.Equal(t, KindOpenFailed, dsvErr.Kind)
}
