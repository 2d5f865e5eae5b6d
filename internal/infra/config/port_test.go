package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"unitymcp/internal/domain"
)

func writePortFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), domain.PortFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolveUnityPort_Override(t *testing.T) {
	path := writePortFile(t, "7777")
	port, source := ResolveUnityPort(path, zap.NewNop())
	require.Equal(t, 7777, port)
	require.Equal(t, domain.PortSourceOverrideFile, source)
}

func TestResolveUnityPort_TrimsWhitespace(t *testing.T) {
	path := writePortFile(t, "  7777\n")
	port, source := ResolveUnityPort(path, zap.NewNop())
	require.Equal(t, 7777, port)
	require.Equal(t, domain.PortSourceOverrideFile, source)
}

func TestResolveUnityPort_NonDigit(t *testing.T) {
	path := writePortFile(t, "abc")
	port, source := ResolveUnityPort(path, zap.NewNop())
	require.Equal(t, domain.DefaultUnityPort, port)
	require.Equal(t, domain.PortSourceDefault, source)
}

func TestResolveUnityPort_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), domain.PortFileName)
	port, source := ResolveUnityPort(path, zap.NewNop())
	require.Equal(t, domain.DefaultUnityPort, port)
	require.Equal(t, domain.PortSourceDefault, source)
}

func TestResolveUnityPort_NegativeNumber(t *testing.T) {
	// The sign character is not a digit, so this is rejected.
	path := writePortFile(t, "-1")
	port, source := ResolveUnityPort(path, zap.NewNop())
	require.Equal(t, domain.DefaultUnityPort, port)
	require.Equal(t, domain.PortSourceDefault, source)
}

func TestResolveUnityPort_EmptyFile(t *testing.T) {
	path := writePortFile(t, "")
	port, source := ResolveUnityPort(path, zap.NewNop())
	require.Equal(t, domain.DefaultUnityPort, port)
	require.Equal(t, domain.PortSourceDefault, source)
}

func TestResolveUnityPort_WhitespaceOnly(t *testing.T) {
	path := writePortFile(t, "   \n\t")
	port, source := ResolveUnityPort(path, zap.NewNop())
	require.Equal(t, domain.DefaultUnityPort, port)
	require.Equal(t, domain.PortSourceDefault, source)
}

func TestResolveUnityPort_TrailingContent(t *testing.T) {
	path := writePortFile(t, "6401 # from editor")
	port, source := ResolveUnityPort(path, zap.NewNop())
	require.Equal(t, domain.DefaultUnityPort, port)
	require.Equal(t, domain.PortSourceDefault, source)
}

func TestResolveUnityPort_DigitsReturnedVerbatim(t *testing.T) {
	// Any digit string is honored, including values that are not usable
	// TCP ports.
	for content, want := range map[string]int{"0": 0, "70000": 70000, "6400": 6400} {
		path := writePortFile(t, content)
		port, source := ResolveUnityPort(path, zap.NewNop())
		require.Equal(t, want, port, "content %q", content)
		require.Equal(t, domain.PortSourceOverrideFile, source, "content %q", content)
	}
}

func TestResolveUnityPort_OverflowingDigits(t *testing.T) {
	path := writePortFile(t, "99999999999999999999")
	port, source := ResolveUnityPort(path, zap.NewNop())
	require.Equal(t, domain.DefaultUnityPort, port)
	require.Equal(t, domain.PortSourceDefault, source)
}

func TestResolveUnityPort_Unreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	path := writePortFile(t, "7777")
	require.NoError(t, os.Chmod(path, 0o000))
	port, source := ResolveUnityPort(path, zap.NewNop())
	require.Equal(t, domain.DefaultUnityPort, port)
	require.Equal(t, domain.PortSourceDefault, source)
}

func TestResolveUnityPort_Idempotent(t *testing.T) {
	path := writePortFile(t, "6502")
	first, _ := ResolveUnityPort(path, zap.NewNop())
	second, _ := ResolveUnityPort(path, zap.NewNop())
	require.Equal(t, first, second)
}

func TestIsAllDigits(t *testing.T) {
	require.True(t, isAllDigits("6400"))
	require.False(t, isAllDigits(""))
	require.False(t, isAllDigits("-6400"))
	require.False(t, isAllDigits("6_400"))
	require.False(t, isAllDigits("64.00"))
	require.False(t, isAllDigits("٦٤٠٠")) // non-ASCII digits rejected
}
