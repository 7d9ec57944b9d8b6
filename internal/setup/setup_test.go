package setup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBinary(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, BinaryName)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	return path
}

func TestLoadClientConfig_Missing(t *testing.T) {
	cfg, err := LoadClientConfig(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.NotNil(t, cfg.MCPServers)
	assert.Empty(t, cfg.MCPServers)
}

func TestLoadClientConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadClientConfig(path)
	assert.Error(t, err)
}

func TestRegister_PreservesOtherEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "client.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{
  "theme": "dark",
  "mcpServers": {"other": {"command": "/usr/bin/other"}}
}`), 0o644))

	binary := writeBinary(t, dir)
	entry, err := Register(Options{ConfigPath: path, BinaryPath: binary, DataDir: filepath.Join(dir, "data"), Transport: "stdio"})
	require.NoError(t, err)
	assert.Equal(t, binary, entry.Command)
	assert.NotContains(t, entry.Env, "ONCO_TRANSPORT")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.JSONEq(t, `"dark"`, string(doc["theme"]))

	cfg, err := LoadClientConfig(path)
	require.NoError(t, err)
	assert.Contains(t, cfg.MCPServers, "other")
	require.Contains(t, cfg.MCPServers, ServerKey)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.MCPServers[ServerKey].Env[DataDirEnv])
}

func TestGetStatus(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client.json")

	status, err := GetStatus(path)
	require.NoError(t, err)
	assert.False(t, status.Registered)
	assert.NotEmpty(t, status.Issues)

	_, err = Register(Options{ConfigPath: path, BinaryPath: writeBinary(t, dir), DataDir: dir})
	require.NoError(t, err)

	status, err = GetStatus(path)
	require.NoError(t, err)
	assert.True(t, status.Registered)
	assert.Empty(t, status.Issues)

	_, err = Register(Options{ConfigPath: path, BinaryPath: filepath.Join(dir, "missing"), Transport: "http"})
	require.NoError(t, err)
	status, err = GetStatus(path)
	require.NoError(t, err)
	assert.Equal(t, "http", status.Entry.Env["ONCO_TRANSPORT"])
	require.Len(t, status.Issues, 1)
	assert.Contains(t, status.Issues[0], "binary not found")
}

func TestUnregister(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client.json")

	removed, err := Unregister(path)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = Register(Options{ConfigPath: path, BinaryPath: writeBinary(t, dir)})
	require.NoError(t, err)

	removed, err = Unregister(path)
	require.NoError(t, err)
	assert.True(t, removed)

	cfg, err := LoadClientConfig(path)
	require.NoError(t, err)
	assert.NotContains(t, cfg.MCPServers, ServerKey)
}
