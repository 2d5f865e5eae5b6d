package domain

import "time"

// ServerConfig is the process-wide configuration record. It is built once
// by the loader and never mutated afterwards; collaborators receive it by
// value.
type ServerConfig struct {
	// Network settings.
	UnityHost string
	UnityPort int
	MCPPort   int

	// Connection settings. ConnectionTimeout and RetryDelay are carried in
	// seconds to match the knobs consumed by the connection collaborator.
	ConnectionTimeout float64
	BufferSize        int

	// Logging settings. LogFormat is an opaque template handed to the
	// logging collaborator; it is stored, not interpreted.
	LogLevel  string
	LogFormat string

	// Retry budget for the connection collaborator, not enforced here.
	MaxRetries int
	RetryDelay float64

	// Address for the /metrics and /healthz listener.
	ObservabilityListenAddress string
}

// DefaultServerConfig returns a config with every field at its fixed
// default. The Unity port still holds the fallback value; callers that want
// the override file honored go through the loader.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		UnityHost:                  DefaultUnityHost,
		UnityPort:                  DefaultUnityPort,
		MCPPort:                    DefaultMCPPort,
		ConnectionTimeout:          DefaultConnectionTimeoutSeconds,
		BufferSize:                 DefaultBufferSize,
		LogLevel:                   DefaultLogLevel,
		LogFormat:                  DefaultLogFormat,
		MaxRetries:                 DefaultMaxRetries,
		RetryDelay:                 DefaultRetryDelaySeconds,
		ObservabilityListenAddress: DefaultObservabilityListenAddress,
	}
}

// ConnectionTimeoutDuration converts the timeout knob to a time.Duration.
func (c ServerConfig) ConnectionTimeoutDuration() time.Duration {
	seconds := c.ConnectionTimeout
	if seconds <= 0 {
		seconds = DefaultConnectionTimeoutSeconds
	}
	return time.Duration(seconds * float64(time.Second))
}

// RetryDelayDuration converts the retry delay knob to a time.Duration.
func (c ServerConfig) RetryDelayDuration() time.Duration {
	seconds := c.RetryDelay
	if seconds < 0 {
		seconds = DefaultRetryDelaySeconds
	}
	return time.Duration(seconds * float64(time.Second))
}

// PortSource records where the Unity port value came from.
type PortSource string

const (
	// PortSourceOverrideFile means unity-port.txt supplied the port.
	PortSourceOverrideFile PortSource = "override-file"
	// PortSourceDefault means the fallback port was used.
	PortSourceDefault PortSource = "default"
	// PortSourceConfigFile means the YAML override file pinned the port.
	PortSourceConfigFile PortSource = "config-file"
)

// ConfigUpdateSource identifies what triggered a reload.
type ConfigUpdateSource string

const (
	ConfigUpdateSourceWatch  ConfigUpdateSource = "watch"
	ConfigUpdateSourceManual ConfigUpdateSource = "manual"
)

// ConfigState captures the current configuration snapshot and metadata.
type ConfigState struct {
	Config     ServerConfig
	PortSource PortSource
	Revision   uint64
	LoadedAt   time.Time
}

// NewConfigState builds a configuration state snapshot.
func NewConfigState(cfg ServerConfig, source PortSource, revision uint64, loadedAt time.Time) ConfigState {
	if loadedAt.IsZero() {
		loadedAt = time.Now()
	}
	if source == "" {
		source = PortSourceDefault
	}
	return ConfigState{
		Config:     cfg,
		PortSource: source,
		Revision:   revision,
		LoadedAt:   loadedAt,
	}
}

// ConfigUpdate is delivered to subscribers when the effective configuration
// changes.
type ConfigUpdate struct {
	Snapshot ConfigState
	Diff     ConfigDiff
	Source   ConfigUpdateSource
}
