package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "commands.yaml", cfg.Catalogue.Path)
	assert.False(t, cfg.Catalogue.Watch)
	assert.Equal(t, 10, cfg.Gateway.QueryTimeoutSeconds)
	assert.Equal(t, 0.0, cfg.Gateway.ToolCallsPerSecond)
	assert.Equal(t, 20, cfg.Gateway.RecentReceipts)
	assert.Equal(t, "cnv@local", cfg.Ledger.AgentID)
	assert.Equal(t, 100.0, cfg.Query.HashJoinThreshold)
	assert.False(t, cfg.Log.JSON)
}

func TestLoadCaches(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cnv.toml")
	content := `
[catalogue]
path = "/etc/cnv/commands.yaml"
watch = true

[gateway]
query_timeout_seconds = 30
tool_calls_per_second = 5.0

[query]
hash_join_threshold = 250.0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/etc/cnv/commands.yaml", cfg.Catalogue.Path)
	assert.True(t, cfg.Catalogue.Watch)
	assert.Equal(t, 30, cfg.Gateway.QueryTimeoutSeconds)
	assert.Equal(t, 5.0, cfg.Gateway.ToolCallsPerSecond)
	assert.Equal(t, 250.0, cfg.Query.HashJoinThreshold)

	// Options the file did not set keep their defaults.
	assert.Equal(t, 20, cfg.Gateway.RecentReceipts)
	assert.Equal(t, "cnv@local", cfg.Ledger.AgentID)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	t.Setenv("CNV_LEDGER_AGENT_ID", "cnv@ci")
	t.Setenv("CNV_GATEWAY_RECENT_RECEIPTS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "cnv@ci", cfg.Ledger.AgentID)
	assert.Equal(t, 5, cfg.Gateway.RecentReceipts)
}
