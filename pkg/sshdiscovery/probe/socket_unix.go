//go:build linux || darwin || freebsd || netbsd || openbsd

package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// pollSlice bounds a single poll wait so cancellation is noticed promptly.
const pollSlice = 50 * time.Millisecond

// SocketStrategy is the fallback strategy: a raw non-blocking connect on an
// IPv4 stream socket, waited on with poll for at most the probe timeout. The
// socket is closed as soon as the outcome is known; no data is exchanged.
type SocketStrategy struct {
	// Resolver resolves hostnames; nil uses net.DefaultResolver.
	Resolver *net.Resolver
}

// NewSocketStrategy creates a SocketStrategy.
func NewSocketStrategy() *SocketStrategy {
	return &SocketStrategy{}
}

// Name implements Strategy.
func (s *SocketStrategy) Name() string { return "socket" }

// Probe implements Strategy.
func (s *SocketStrategy) Probe(ctx context.Context, host string, port int, timeout time.Duration) (Result, error) {
	res := Result{Host: host, Port: port}
	start := time.Now()
	done := func(m Method, r Reason, err error) (Result, error) {
		res.Method = m
		res.Reason = r
		res.Open = m == MethodFallbackOK
		res.RTT = time.Since(start)
		if err != nil {
			res.Error = err.Error()
		}
		res.Timestamp = time.Now()
		debugLog("%s %s (%s)", joinHostPort(host, port), r, m)
		return res, nil
	}

	ip4, err := resolveIPv4(ctx, s.Resolver, host)
	if err != nil {
		return done(MethodFallbackError, ReasonUnreachable, err)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return done(MethodInitError, ReasonError, fmt.Errorf("socket: %w", err))
	}
	defer unix.Close(fd)

	if err := unix.SetNonblock(fd, true); err != nil {
		return done(MethodInitError, ReasonError, fmt.Errorf("set nonblock: %w", err))
	}
	unix.CloseOnExec(fd)

	sa := &unix.SockaddrInet4{Port: port}
	copy(sa.Addr[:], ip4)

	err = unix.Connect(fd, sa)
	switch {
	case err == nil:
		return done(MethodFallbackOK, ReasonOpen, nil)
	case errors.Is(err, unix.EINPROGRESS), errors.Is(err, unix.EINTR), errors.Is(err, unix.EAGAIN):
	default:
		return done(MethodFallbackError, reasonForErrno(err), err)
	}

	deadline := start.Add(timeout)
	for {
		if ctx.Err() != nil {
			return done(MethodFallbackError, ReasonCanceled, ctx.Err())
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return done(MethodFallbackTimeout, ReasonTimeout, errors.New("connect timed out"))
		}
		if remaining > pollSlice {
			remaining = pollSlice
		}
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
		n, err := unix.Poll(fds, int(remaining.Milliseconds())+1)
		if errors.Is(err, unix.EINTR) || (err == nil && n == 0) {
			continue
		}
		if err != nil {
			return done(MethodFallbackError, ReasonError, fmt.Errorf("poll: %w", err))
		}
		break
	}

	soErr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return done(MethodFallbackError, ReasonError, fmt.Errorf("getsockopt: %w", err))
	}
	if soErr != 0 {
		errno := unix.Errno(soErr)
		return done(MethodFallbackError, reasonForErrno(errno), errno)
	}
	return done(MethodFallbackOK, ReasonOpen, nil)
}

func reasonForErrno(err error) Reason {
	switch {
	case errors.Is(err, unix.ECONNREFUSED), errors.Is(err, unix.ECONNRESET):
		return ReasonRefused
	case errors.Is(err, unix.ETIMEDOUT):
		return ReasonTimeout
	case errors.Is(err, unix.EHOSTUNREACH), errors.Is(err, unix.ENETUNREACH):
		return ReasonUnreachable
	}
	return ReasonError
}

// resolveIPv4 returns the first IPv4 address of host.
func resolveIPv4(ctx context.Context, r *net.Resolver, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4, nil
		}
		return nil, fmt.Errorf("%s is not an IPv4 address", host)
	}
	if r == nil {
		r = net.DefaultResolver
	}
	ips, err := r.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, err
	}
	for _, ip := range ips {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4, nil
		}
	}
	return nil, fmt.Errorf("no IPv4 address for %s", host)
}
