package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"unitymcp/internal/domain"
)

// ResolveUnityPort reads the Unity port from the override file at path.
// The file contract is deliberately forgiving: a missing file, an unreadable
// file, or content that is not purely decimal digits after trimming all fall
// back to the default port. The caller never sees an error.
func ResolveUnityPort(path string, logger *zap.Logger) (int, domain.PortSource) {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("using default unity port",
				zap.Int("port", domain.DefaultUnityPort),
				zap.String("portFile", path),
			)
		} else {
			logger.Info("using default unity port",
				zap.Int("port", domain.DefaultUnityPort),
				zap.String("portFile", path),
				zap.Error(err),
			)
		}
		return domain.DefaultUnityPort, domain.PortSourceDefault
	}

	trimmed := strings.TrimSpace(string(data))
	if !isAllDigits(trimmed) {
		logger.Info("using default unity port",
			zap.Int("port", domain.DefaultUnityPort),
			zap.String("portFile", path),
		)
		return domain.DefaultUnityPort, domain.PortSourceDefault
	}

	// A digit string is returned verbatim, even when the value is not a
	// usable TCP port. Only digit runs too large for int fall back.
	port, err := strconv.Atoi(trimmed)
	if err != nil {
		logger.Info("using default unity port",
			zap.Int("port", domain.DefaultUnityPort),
			zap.String("portFile", path),
		)
		return domain.DefaultUnityPort, domain.PortSourceDefault
	}

	logger.Info("read unity port from override file",
		zap.Int("port", port),
		zap.String("portFile", path),
	)
	return port, domain.PortSourceOverrideFile
}

// isAllDigits reports whether s is a non-empty run of ASCII decimal digits.
// A sign character or separator disqualifies the content.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// DefaultPortFilePath returns the conventional override file location: one
// directory above the server binary. The Unity editor writes the file next
// to the project it manages, with the server installed in a subdirectory.
func DefaultPortFilePath() string {
	exe, err := os.Executable()
	if err != nil {
		return domain.PortFileName
	}
	return filepath.Join(filepath.Dir(exe), "..", domain.PortFileName)
}
