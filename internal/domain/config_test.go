package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()

	require.Equal(t, "localhost", cfg.UnityHost)
	require.Equal(t, 6400, cfg.UnityPort)
	require.Equal(t, 6500, cfg.MCPPort)
	require.Equal(t, 86400.0, cfg.ConnectionTimeout)
	require.Equal(t, 16*1024*1024, cfg.BufferSize)
	require.Equal(t, "INFO", cfg.LogLevel)
	require.Equal(t, "%(asctime)s - %(name)s - %(levelname)s - %(message)s", cfg.LogFormat)
	require.Equal(t, 3, cfg.MaxRetries)
	require.Equal(t, 1.0, cfg.RetryDelay)
}

func TestServerConfig_DurationHelpers(t *testing.T) {
	cfg := DefaultServerConfig()
	require.Equal(t, 24*time.Hour, cfg.ConnectionTimeoutDuration())
	require.Equal(t, time.Second, cfg.RetryDelayDuration())

	cfg.ConnectionTimeout = 0.5
	require.Equal(t, 500*time.Millisecond, cfg.ConnectionTimeoutDuration())

	cfg.ConnectionTimeout = -1
	require.Equal(t, 24*time.Hour, cfg.ConnectionTimeoutDuration())

	cfg.RetryDelay = 0
	require.Equal(t, time.Duration(0), cfg.RetryDelayDuration())
}

func TestNewConfigState_Defaults(t *testing.T) {
	state := NewConfigState(DefaultServerConfig(), "", 1, time.Time{})
	require.Equal(t, PortSourceDefault, state.PortSource)
	require.False(t, state.LoadedAt.IsZero())
	require.Equal(t, uint64(1), state.Revision)
}
