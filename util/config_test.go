package util

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImportConfigOverridesDefaults(t *testing.T) {
	file := filepath.Join(t.TempDir(), "import.yaml")
	content := "site-id: 4\nhero-name: bigslick\ncommit-each-hand: false\ncommit-batch-size: 100\n"
	require.NoError(t, ioutil.WriteFile(file, []byte(content), 0644))

	config, err := ParseImportConfig(file)
	require.NoError(t, err)
	assert.Equal(t, 4, config.SiteID)
	assert.Equal(t, "bigslick", config.HeroName)
	assert.False(t, config.CommitEachHand)
	assert.Equal(t, 100, config.CommitBatchSize)

	// Untouched fields keep their defaults.
	assert.Equal(t, "Everleaf", config.SiteName)
	assert.Equal(t, 50, config.QueueSize)
	assert.Equal(t, 30, config.HudDays)
}

func TestParseImportConfigMissingFile(t *testing.T) {
	_, err := ParseImportConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefaultImportConfig(t *testing.T) {
	config := DefaultImportConfig()
	assert.True(t, config.CommitEachHand)
	assert.True(t, config.UseDateInHudCache)
	assert.Equal(t, 90, config.HeroHudDays)
}
