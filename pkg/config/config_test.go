package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithNoPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Transport.StandardStreamEnabled)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "INFO", cfg.Logging.Level)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ontologyd.yaml")
	yamlDoc := `
graph:
  source_path: /data/ontology.json
server:
  address: 127.0.0.1
  port: 9090
transport:
  standard_stream_enabled: true
  named_pipe_enabled: false
logging:
  level: DEBUG
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/ontology.json", cfg.Graph.SourcePath)
	assert.Equal(t, "127.0.0.1", cfg.Server.Address)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}

func TestLoadAppliesEnvOverride(t *testing.T) {
	t.Setenv("ONTOLOGYD_SERVER_PORT", "1234")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg.Server.Port)
}

func TestValidateRejectsNoTransportsEnabled(t *testing.T) {
	cfg := Default()
	cfg.Transport.StandardStreamEnabled = false
	cfg.Transport.NamedPipeEnabled = false
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "VERBOSE"
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresNamedPipePaths(t *testing.T) {
	cfg := Default()
	cfg.Transport.NamedPipeEnabled = true
	cfg.Transport.NamedPipeInPath = ""
	assert.Error(t, cfg.Validate())
}
