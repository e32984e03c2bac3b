//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package probe

import (
	"context"
	"time"
)

// SocketStrategy is the raw non-blocking connect fallback. It is not
// available on this platform and always reports ErrUnavailable.
type SocketStrategy struct{}

// NewSocketStrategy creates a SocketStrategy.
func NewSocketStrategy() *SocketStrategy {
	return &SocketStrategy{}
}

// Name implements Strategy.
func (s *SocketStrategy) Name() string { return "socket" }

// Probe implements Strategy.
func (s *SocketStrategy) Probe(ctx context.Context, host string, port int, timeout time.Duration) (Result, error) {
	return Result{}, ErrUnavailable
}
