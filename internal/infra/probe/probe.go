package probe

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Check performs a single TCP dial against the Unity endpoint and closes
// the connection immediately. One attempt only; the retry knobs belong to
// the connection collaborator, not the probe.
func Check(ctx context.Context, host string, port int, timeout time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	dialer := net.Dialer{Timeout: timeout}

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("unity endpoint %s unreachable: %w", addr, err)
	}
	defer conn.Close()

	logger.Info("unity endpoint reachable",
		zap.String("addr", addr),
		zap.Duration("latency", time.Since(start)),
	)
	return nil
}
