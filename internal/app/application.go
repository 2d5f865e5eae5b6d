package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"unitymcp/internal/domain"
	infraConfig "unitymcp/internal/infra/config"
	"unitymcp/internal/infra/mcpserver"
	"unitymcp/internal/infra/probe"
	"unitymcp/internal/infra/telemetry"
)

// App wires the configuration provider, telemetry, and the MCP surface.
type App struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{logger: logger}
}

// ServeConfig carries the serve command's inputs.
type ServeConfig struct {
	ConfigPath string
	PortFile   string
	Stdio      bool
}

// ValidateConfig carries the validate/config/probe commands' inputs.
type ValidateConfig struct {
	ConfigPath string
	PortFile   string
}

// Serve runs the configuration service until ctx is cancelled.
func (a *App) Serve(ctx context.Context, cfg ServeConfig) error {
	logger, err := runtimeLogger(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	loader := infraConfig.NewLoader(logger, cfg.PortFile)
	metrics := telemetry.NewPrometheusMetrics(nil)

	provider, err := NewDynamicConfigProvider(ctx, cfg.ConfigPath, loader, metrics, logger)
	if err != nil {
		return err
	}

	state, err := provider.Snapshot(ctx)
	if err != nil {
		return err
	}

	logger.Info("configuration loaded",
		zap.String("unityHost", state.Config.UnityHost),
		zap.Int("unityPort", state.Config.UnityPort),
		zap.Int("mcpPort", state.Config.MCPPort),
		zap.String("portSource", string(state.PortSource)),
	)

	health := telemetry.NewHealthTracker()
	health.SetReady("config", true)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates, err := provider.Watch(runCtx)
	if err != nil {
		return err
	}

	errChan := make(chan error, 2)
	go func() {
		errChan <- telemetry.StartHTTPServer(runCtx, telemetry.HTTPServerOptions{
			Addr:   state.Config.ObservabilityListenAddress,
			Health: health,
		}, logger)
	}()

	server := mcpserver.New(provider, logger)
	health.SetReady("mcp", true)
	go func() {
		if cfg.Stdio {
			errChan <- server.RunStdio(runCtx)
		} else {
			errChan <- server.RunHTTP(runCtx, fmt.Sprintf("0.0.0.0:%d", state.Config.MCPPort))
		}
	}()

	var firstErr error
	remaining := 2
	for remaining > 0 {
		select {
		case err := <-errChan:
			remaining--
			if err != nil && firstErr == nil {
				firstErr = err
			}
			cancel()
		case update := <-updates:
			a.logUpdate(logger, update)
		}
	}
	return firstErr
}

// runtimeLogger resolves the configuration once with a quiet loader to pick
// up the configured level, so the provider and both listeners log at the
// level the operator asked for from the start.
func runtimeLogger(ctx context.Context, cfg ServeConfig) (*zap.Logger, error) {
	loader := infraConfig.NewLoader(zap.NewNop(), cfg.PortFile)
	resolved, _, err := loader.Load(ctx, cfg.ConfigPath)
	if err != nil {
		return nil, err
	}

	logger, err := telemetry.BuildLogger(resolved.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// logUpdate reports what changed on a reload. Listener addresses are bound
// at startup, so changes to them only take effect on restart.
func (a *App) logUpdate(logger *zap.Logger, update domain.ConfigUpdate) {
	logger.Info("configuration reloaded",
		zap.Uint64("revision", update.Snapshot.Revision),
		zap.Strings("changed", update.Diff.ChangedFields),
		zap.String("source", string(update.Source)),
	)
	for _, field := range update.Diff.ChangedFields {
		if field == "mcpPort" || field == "observability.listenAddress" {
			logger.Warn("listener change requires restart", zap.String("field", field))
		}
	}
}

// ValidateConfig resolves the configuration and reports the outcome without
// starting any listeners.
func (a *App) ValidateConfig(ctx context.Context, cfg ValidateConfig) error {
	loader := infraConfig.NewLoader(a.logger, cfg.PortFile)
	resolved, source, err := loader.Load(ctx, cfg.ConfigPath)
	if err != nil {
		return err
	}
	a.logger.Info("configuration valid",
		zap.Int("unityPort", resolved.UnityPort),
		zap.String("portSource", string(source)),
	)
	return nil
}

// ShowConfig writes the effective configuration as JSON.
func (a *App) ShowConfig(ctx context.Context, cfg ValidateConfig, w io.Writer) error {
	loader := infraConfig.NewLoader(a.logger, cfg.PortFile)
	resolved, source, err := loader.Load(ctx, cfg.ConfigPath)
	if err != nil {
		return err
	}

	payload := struct {
		UnityHost                  string  `json:"unityHost"`
		UnityPort                  int     `json:"unityPort"`
		MCPPort                    int     `json:"mcpPort"`
		ConnectionTimeout          float64 `json:"connectionTimeout"`
		BufferSize                 int     `json:"bufferSize"`
		LogLevel                   string  `json:"logLevel"`
		LogFormat                  string  `json:"logFormat"`
		MaxRetries                 int     `json:"maxRetries"`
		RetryDelay                 float64 `json:"retryDelay"`
		ObservabilityListenAddress string  `json:"observabilityListenAddress"`
		PortSource                 string  `json:"portSource"`
		PortFile                   string  `json:"portFile"`
	}{
		UnityHost:                  resolved.UnityHost,
		UnityPort:                  resolved.UnityPort,
		MCPPort:                    resolved.MCPPort,
		ConnectionTimeout:          resolved.ConnectionTimeout,
		BufferSize:                 resolved.BufferSize,
		LogLevel:                   resolved.LogLevel,
		LogFormat:                  resolved.LogFormat,
		MaxRetries:                 resolved.MaxRetries,
		RetryDelay:                 resolved.RetryDelay,
		ObservabilityListenAddress: resolved.ObservabilityListenAddress,
		PortSource:                 string(source),
		PortFile:                   loader.PortFilePath(),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

// ProbeUnity checks that the resolved Unity endpoint accepts a TCP
// connection. The configured connection timeout is an idle-wait bound, not
// a dial budget, so the dial is capped separately.
func (a *App) ProbeUnity(ctx context.Context, cfg ValidateConfig) error {
	loader := infraConfig.NewLoader(a.logger, cfg.PortFile)
	resolved, _, err := loader.Load(ctx, cfg.ConfigPath)
	if err != nil {
		return err
	}

	timeout := resolved.ConnectionTimeoutDuration()
	if timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	return probe.Check(ctx, resolved.UnityHost, resolved.UnityPort, timeout, a.logger)
}
