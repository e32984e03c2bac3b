//go:build linux || darwin || freebsd || netbsd || openbsd

package probe

import (
	"context"
	"testing"
	"time"
)

func TestSocketStrategy_Open(t *testing.T) {
	port, stop := listen(t)
	defer stop()

	res, err := NewSocketStrategy().Probe(context.Background(), "127.0.0.1", port, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Open || res.Method != MethodFallbackOK {
		t.Fatalf("expected FALLBACK_OK open, got %+v", res)
	}
}

func TestSocketStrategy_Refused(t *testing.T) {
	port := closedPort(t)
	timeout := 50 * time.Millisecond

	start := time.Now()
	res, err := NewSocketStrategy().Probe(context.Background(), "127.0.0.1", port, timeout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Open {
		t.Fatalf("expected closed, got %+v", res)
	}
	if res.Method != MethodFallbackError && res.Method != MethodFallbackTimeout {
		t.Errorf("method = %s, want FALLBACK_ERROR or FALLBACK_TIMEOUT", res.Method)
	}
	if elapsed := time.Since(start); elapsed > timeout+500*time.Millisecond {
		t.Errorf("probe took %v", elapsed)
	}
}

func TestSocketStrategy_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// 192.0.2.0/24 is TEST-NET-1; the connect either stays pending or fails fast.
	res, err := NewSocketStrategy().Probe(ctx, "192.0.2.1", 22, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Open {
		t.Fatalf("expected closed, got %+v", res)
	}
	if res.Method != MethodFallbackError {
		t.Errorf("method = %s, want FALLBACK_ERROR", res.Method)
	}
}

func TestSocketStrategy_RejectsIPv6Literal(t *testing.T) {
	res, err := NewSocketStrategy().Probe(context.Background(), "::1", 22, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Open || res.Method != MethodFallbackError {
		t.Errorf("expected FALLBACK_ERROR for IPv6, got %+v", res)
	}
}

func TestSocketStrategy_Timeout(t *testing.T) {
	timeout := 50 * time.Millisecond

	start := time.Now()
	// TEST-NET-1 is never routed; the SYN goes unanswered when a default route exists.
	res, err := NewSocketStrategy().Probe(context.Background(), "192.0.2.1", 22, timeout)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Method == MethodFallbackError && elapsed < timeout {
		t.Skipf("TEST-NET-1 fails fast on this host (%s): %+v", res.Reason, res)
	}
	if res.Open {
		t.Fatalf("expected closed, got %+v", res)
	}
	if res.Method != MethodFallbackTimeout || res.Reason != ReasonTimeout {
		t.Fatalf("expected FALLBACK_TIMEOUT, got %+v", res)
	}
	if elapsed < timeout {
		t.Errorf("gave up after %v, before the %v timeout", elapsed, timeout)
	}
	if elapsed > timeout+250*time.Millisecond {
		t.Errorf("probe took %v, want about %v", elapsed, timeout)
	}
}
