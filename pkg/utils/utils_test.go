package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AZAPOD_TEST_KEY=from-file\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("AZAPOD_TEST_KEY") })

	LoadConfig(dir)

	assert.Equal(t, "from-file", os.Getenv("AZAPOD_TEST_KEY"))
	assert.Equal(t, "from-file", viper.GetString("azapod_test_key"))
}

func TestLoadConfig_MissingFileIsFine(t *testing.T) {
	assert.NotPanics(t, func() { LoadConfig(t.TempDir()) })
}

func TestCreateFolder(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, CreateFolder(filepath.Join(base, "a", "b"), "", filepath.Join(base, "c")))
	assert.DirExists(t, filepath.Join(base, "a", "b"))
	assert.DirExists(t, filepath.Join(base, "c"))
}

func TestGetPersistentServerID(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "fixed", GetPersistentServerID("fixed", dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".server_id"), []byte(" saved-id \n"), 0644))
	assert.Equal(t, "saved-id", GetPersistentServerID("", dir))
}

func TestPanicIfNeeded(t *testing.T) {
	assert.NotPanics(t, func() { PanicIfNeeded(nil) })
	assert.Panics(t, func() { PanicIfNeeded(assert.AnError) })
}
