package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"unitymcp/internal/domain"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unitymcp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o644))
	return path
}

func TestLoader_Build_Defaults(t *testing.T) {
	portFile := filepath.Join(t.TempDir(), domain.PortFileName)
	loader := NewLoader(zap.NewNop(), portFile)

	cfg, source := loader.Build()
	require.Equal(t, domain.PortSourceDefault, source)

	expect := domain.DefaultServerConfig()
	if diff := cmp.Diff(expect, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_Build_PortOverride(t *testing.T) {
	portFile := writePortFile(t, "7777")
	loader := NewLoader(zap.NewNop(), portFile)

	cfg, source := loader.Build()
	require.Equal(t, domain.PortSourceOverrideFile, source)
	require.Equal(t, 7777, cfg.UnityPort)

	// Every other field keeps its fixed default.
	expect := domain.DefaultServerConfig()
	expect.UnityPort = 7777
	if diff := cmp.Diff(expect, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_Load_EmptyPathBehavesLikeBuild(t *testing.T) {
	portFile := writePortFile(t, "6502")
	loader := NewLoader(zap.NewNop(), portFile)

	cfg, source, err := loader.Load(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, domain.PortSourceOverrideFile, source)
	require.Equal(t, 6502, cfg.UnityPort)
}

func TestLoader_Load_ExplicitPortWins(t *testing.T) {
	portFile := writePortFile(t, "7777")
	file := writeTempConfig(t, `
unityPort: 9100
logLevel: debug
`)

	loader := NewLoader(zap.NewNop(), portFile)
	cfg, source, err := loader.Load(context.Background(), file)
	require.NoError(t, err)
	require.Equal(t, domain.PortSourceConfigFile, source)
	require.Equal(t, 9100, cfg.UnityPort)
	require.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestLoader_Load_PortFileStillResolvedWithConfig(t *testing.T) {
	portFile := writePortFile(t, "6401")
	file := writeTempConfig(t, `
logLevel: warning
`)

	loader := NewLoader(zap.NewNop(), portFile)
	cfg, source, err := loader.Load(context.Background(), file)
	require.NoError(t, err)
	require.Equal(t, domain.PortSourceOverrideFile, source)
	require.Equal(t, 6401, cfg.UnityPort)
	require.Equal(t, "WARNING", cfg.LogLevel)
}

func TestLoader_Load_EnvExpansion(t *testing.T) {
	t.Setenv("UNITY_MCP_HOST", "editor.local")
	t.Setenv("UNITY_MCP_PORT", "9200")
	file := writeTempConfig(t, `
unityHost: ${UNITY_MCP_HOST}
unityPort: ${UNITY_MCP_PORT}
`)

	loader := NewLoader(zap.NewNop(), filepath.Join(t.TempDir(), domain.PortFileName))
	cfg, _, err := loader.Load(context.Background(), file)
	require.NoError(t, err)
	require.Equal(t, "editor.local", cfg.UnityHost)
	require.Equal(t, 9200, cfg.UnityPort)
}

func TestLoader_Load_UnknownKeyRejected(t *testing.T) {
	file := writeTempConfig(t, `
unityPrt: 9100
`)

	loader := NewLoader(zap.NewNop(), filepath.Join(t.TempDir(), domain.PortFileName))
	_, _, err := loader.Load(context.Background(), file)
	require.Error(t, err)
	require.Contains(t, err.Error(), "schema")
}

func TestLoader_Load_ValidationErrors(t *testing.T) {
	file := writeTempConfig(t, `
unityPort: 70000
bufferSize: 0
logLevel: verbose
`)

	loader := NewLoader(zap.NewNop(), filepath.Join(t.TempDir(), domain.PortFileName))
	_, _, err := loader.Load(context.Background(), file)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unityPort must be between 1 and 65535")
	require.Contains(t, err.Error(), "bufferSize must be > 0")
	require.Contains(t, err.Error(), "logLevel must be one of")
}

func TestLoader_Load_MissingFile(t *testing.T) {
	loader := NewLoader(zap.NewNop(), filepath.Join(t.TempDir(), domain.PortFileName))
	_, _, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "read config")
}

func TestLoader_Load_KeepsUnrelatedDefaults(t *testing.T) {
	file := writeTempConfig(t, `
mcpPort: 6600
`)

	loader := NewLoader(zap.NewNop(), filepath.Join(t.TempDir(), domain.PortFileName))
	cfg, _, err := loader.Load(context.Background(), file)
	require.NoError(t, err)

	expect := domain.DefaultServerConfig()
	expect.MCPPort = 6600
	if diff := cmp.Diff(expect, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}
