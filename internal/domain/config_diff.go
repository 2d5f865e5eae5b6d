package domain

// ConfigDiff lists the fields that changed between two snapshots.
type ConfigDiff struct {
	ChangedFields     []string
	PortSourceChanged bool
}

// IsEmpty reports whether the diff contains any changes.
func (d ConfigDiff) IsEmpty() bool {
	return len(d.ChangedFields) == 0 && !d.PortSourceChanged
}

// DiffConfigStates compares two snapshots field by field.
func DiffConfigStates(prev, next ConfigState) ConfigDiff {
	diff := ConfigDiff{}

	if prev.Config.UnityHost != next.Config.UnityHost {
		diff.ChangedFields = append(diff.ChangedFields, "unityHost")
	}
	if prev.Config.UnityPort != next.Config.UnityPort {
		diff.ChangedFields = append(diff.ChangedFields, "unityPort")
	}
	if prev.Config.MCPPort != next.Config.MCPPort {
		diff.ChangedFields = append(diff.ChangedFields, "mcpPort")
	}
	if prev.Config.ConnectionTimeout != next.Config.ConnectionTimeout {
		diff.ChangedFields = append(diff.ChangedFields, "connectionTimeout")
	}
	if prev.Config.BufferSize != next.Config.BufferSize {
		diff.ChangedFields = append(diff.ChangedFields, "bufferSize")
	}
	if prev.Config.LogLevel != next.Config.LogLevel {
		diff.ChangedFields = append(diff.ChangedFields, "logLevel")
	}
	if prev.Config.LogFormat != next.Config.LogFormat {
		diff.ChangedFields = append(diff.ChangedFields, "logFormat")
	}
	if prev.Config.MaxRetries != next.Config.MaxRetries {
		diff.ChangedFields = append(diff.ChangedFields, "maxRetries")
	}
	if prev.Config.RetryDelay != next.Config.RetryDelay {
		diff.ChangedFields = append(diff.ChangedFields, "retryDelay")
	}
	if prev.Config.ObservabilityListenAddress != next.Config.ObservabilityListenAddress {
		diff.ChangedFields = append(diff.ChangedFields, "observability.listenAddress")
	}
	if prev.PortSource != next.PortSource {
		diff.PortSourceChanged = true
	}

	return diff
}
