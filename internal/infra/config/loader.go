package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"unitymcp/internal/domain"
)

// Loader resolves the effective server configuration from fixed defaults,
// the unity-port.txt override file, and an optional YAML override file.
type Loader struct {
	logger   *zap.Logger
	portFile string
}

// NewLoader builds a loader. portFile may be empty, in which case the
// conventional location next to the binary's parent directory is used.
func NewLoader(logger *zap.Logger, portFile string) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if portFile == "" {
		portFile = DefaultPortFilePath()
	}
	return &Loader{
		logger:   logger.Named("config"),
		portFile: portFile,
	}
}

// PortFilePath returns the override file location this loader reads.
func (l *Loader) PortFilePath() string {
	return l.portFile
}

func newConfigViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setConfigDefaults(v)
	return v
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("unityHost", domain.DefaultUnityHost)
	v.SetDefault("mcpPort", domain.DefaultMCPPort)
	v.SetDefault("connectionTimeout", domain.DefaultConnectionTimeoutSeconds)
	v.SetDefault("bufferSize", domain.DefaultBufferSize)
	v.SetDefault("logLevel", domain.DefaultLogLevel)
	v.SetDefault("logFormat", domain.DefaultLogFormat)
	v.SetDefault("maxRetries", domain.DefaultMaxRetries)
	v.SetDefault("retryDelay", domain.DefaultRetryDelaySeconds)
	v.SetDefault("observability.listenAddress", domain.DefaultObservabilityListenAddress)
}

type rawConfig struct {
	UnityHost string `mapstructure:"unityHost"`
	// UnityPort is a pointer so an absent key can be told apart from an
	// explicit value: absent means the port file decides.
	UnityPort         *int                   `mapstructure:"unityPort"`
	MCPPort           int                    `mapstructure:"mcpPort"`
	ConnectionTimeout float64                `mapstructure:"connectionTimeout"`
	BufferSize        int                    `mapstructure:"bufferSize"`
	LogLevel          string                 `mapstructure:"logLevel"`
	LogFormat         string                 `mapstructure:"logFormat"`
	MaxRetries        int                    `mapstructure:"maxRetries"`
	RetryDelay        float64                `mapstructure:"retryDelay"`
	Observability     rawObservabilityConfig `mapstructure:"observability"`
}

type rawObservabilityConfig struct {
	ListenAddress string `mapstructure:"listenAddress"`
}

// Build constructs the configuration from defaults alone, resolving the
// Unity port from the override file exactly once. Construction cannot fail.
func (l *Loader) Build() (domain.ServerConfig, domain.PortSource) {
	cfg := domain.DefaultServerConfig()
	port, source := ResolveUnityPort(l.portFile, l.logger)
	cfg.UnityPort = port
	return cfg, source
}

// Load merges an optional YAML override file over the defaults. An empty
// path behaves like Build. A present-but-invalid override file is an error;
// the port file keeps its absorb-everything contract either way.
func (l *Loader) Load(ctx context.Context, path string) (domain.ServerConfig, domain.PortSource, error) {
	if path == "" {
		cfg, source := l.Build()
		return cfg, source, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ServerConfig{}, "", fmt.Errorf("read config: %w", err)
	}

	expanded, missing, err := expandEnv(data)
	if err != nil {
		return domain.ServerConfig{}, "", err
	}
	if len(missing) > 0 {
		l.logger.Warn("missing environment variables in config",
			zap.String("path", path),
			zap.Strings("missing", missing),
		)
	}

	if err := validateConfigSchema(expanded); err != nil {
		return domain.ServerConfig{}, "", err
	}

	v := newConfigViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return domain.ServerConfig{}, "", fmt.Errorf("parse config: %w", err)
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return domain.ServerConfig{}, "", fmt.Errorf("decode config: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return domain.ServerConfig{}, "", err
	}

	cfg, errs := normalizeConfig(raw)
	if len(errs) > 0 {
		return domain.ServerConfig{}, "", errors.New(strings.Join(errs, "; "))
	}

	source := domain.PortSourceConfigFile
	if raw.UnityPort == nil {
		cfg.UnityPort, source = ResolveUnityPort(l.portFile, l.logger)
	}

	return cfg, source, nil
}

func normalizeConfig(raw rawConfig) (domain.ServerConfig, []string) {
	var errs []string

	host := strings.TrimSpace(raw.UnityHost)
	if host == "" {
		errs = append(errs, "unityHost must not be empty")
	}

	if raw.UnityPort != nil && (*raw.UnityPort < 1 || *raw.UnityPort > 65535) {
		errs = append(errs, "unityPort must be between 1 and 65535")
	}
	if raw.MCPPort < 1 || raw.MCPPort > 65535 {
		errs = append(errs, "mcpPort must be between 1 and 65535")
	}
	if raw.ConnectionTimeout <= 0 {
		errs = append(errs, "connectionTimeout must be > 0")
	}
	if raw.BufferSize <= 0 {
		errs = append(errs, "bufferSize must be > 0")
	}
	if raw.MaxRetries < 0 {
		errs = append(errs, "maxRetries must be >= 0")
	}
	if raw.RetryDelay < 0 {
		errs = append(errs, "retryDelay must be >= 0")
	}

	level := strings.ToUpper(strings.TrimSpace(raw.LogLevel))
	switch level {
	case "DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL":
	default:
		errs = append(errs, "logLevel must be one of: DEBUG, INFO, WARNING, ERROR, CRITICAL")
	}

	listenAddr := strings.TrimSpace(raw.Observability.ListenAddress)
	if listenAddr == "" {
		listenAddr = domain.DefaultObservabilityListenAddress
	}

	cfg := domain.ServerConfig{
		UnityHost:                  host,
		MCPPort:                    raw.MCPPort,
		ConnectionTimeout:          raw.ConnectionTimeout,
		BufferSize:                 raw.BufferSize,
		LogLevel:                   level,
		LogFormat:                  raw.LogFormat,
		MaxRetries:                 raw.MaxRetries,
		RetryDelay:                 raw.RetryDelay,
		ObservabilityListenAddress: listenAddr,
	}
	if raw.UnityPort != nil {
		cfg.UnityPort = *raw.UnityPort
	}
	return cfg, errs
}
