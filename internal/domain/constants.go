package domain

const (
	DefaultUnityHost                  = "localhost"
	DefaultUnityPort                  = 6400
	DefaultMCPPort                    = 6500
	DefaultConnectionTimeoutSeconds   = 86400.0
	DefaultBufferSize                 = 16 * 1024 * 1024
	DefaultLogLevel                   = "INFO"
	DefaultLogFormat                  = "%(asctime)s - %(name)s - %(levelname)s - %(message)s"
	DefaultMaxRetries                 = 3
	DefaultRetryDelaySeconds          = 1.0
	DefaultObservabilityListenAddress = "0.0.0.0:9090"
)

// PortFileName is the well-known override file written by the Unity editor.
const PortFileName = "unity-port.txt"
