package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("CAPSULIFY_TEST_KEY", "value")
	assert.Equal(t, "value", GetEnv("CAPSULIFY_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("CAPSULIFY_MISSING_KEY", "fallback"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("CAPSULIFY_PAGE", "24")
	t.Setenv("CAPSULIFY_BAD", "many")
	assert.Equal(t, 24, GetEnvInt("CAPSULIFY_PAGE", 12))
	assert.Equal(t, 12, GetEnvInt("CAPSULIFY_BAD", 12))
	assert.Equal(t, 12, GetEnvInt("CAPSULIFY_MISSING_KEY", 12))
}

func TestOutfitSeed(t *testing.T) {
	t.Setenv("OUTFIT_SEED", "")
	assert.Equal(t, uint32(1), OutfitSeed())
	t.Setenv("OUTFIT_SEED", "42")
	assert.Equal(t, uint32(42), OutfitSeed())
}

func TestLoadEnvKeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CAPSULIFY_FROM_FILE=file\nCAPSULIFY_PRESET=file\n"), 0o600))
	t.Setenv("CAPSULIFY_PRESET", "process")
	t.Setenv("CAPSULIFY_FROM_FILE", "")
	os.Unsetenv("CAPSULIFY_FROM_FILE")

	LoadEnv(path)
	defer os.Unsetenv("CAPSULIFY_FROM_FILE")

	assert.Equal(t, "file", GetEnv("CAPSULIFY_FROM_FILE", ""))
	assert.Equal(t, "process", GetEnv("CAPSULIFY_PRESET", ""))
}

func TestSetupLogger(t *testing.T) {
	logger, err := SetupLogger("debug", "console")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = SetupLogger("loud", "json")
	assert.Error(t, err)
}
