package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/probe"
)

func TestWrite_OnlySuccessRows(t *testing.T) {
	ts := time.Date(2026, 10, 17, 9, 30, 0, 123000000, time.UTC)
	results := []probe.Result{
		{Host: "192.168.1.5", Port: 22, Open: true, Timestamp: ts, Method: probe.MethodPrimary},
		{Host: "192.168.1.6", Port: 22, Open: false, Timestamp: ts, Method: probe.MethodFallbackTimeout},
		{Host: "nas.local", Port: 22, Open: true, Timestamp: ts, Method: probe.MethodFallbackOK},
	}
	var buf bytes.Buffer
	if err := Write(&buf, results); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	want := "Host,Port,Open,Timestamp,Method\n" +
		"192.168.1.5,22,true,2026-10-17T09:30:00.123Z,PRIMARY\n" +
		"nas.local,22,true,2026-10-17T09:30:00.123Z,FALLBACK_OK\n"
	if buf.String() != want {
		t.Errorf("report mismatch:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWrite_PlaceholderWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + placeholder, got %q", buf.String())
	}
	if lines[1] != ",,,," {
		t.Errorf("placeholder row = %q", lines[1])
	}

	rows, err := Read(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected placeholder to be dropped, got %v", rows)
	}
}

func TestReadBack(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 6000000, time.UTC)
	var buf bytes.Buffer
	err := Write(&buf, []probe.Result{{Host: "10.0.0.1", Port: 2222, Open: true, Timestamp: ts, Method: probe.MethodPrimary}})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	rows, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if r.Host != "10.0.0.1" || r.Port != 2222 || !r.Open || !r.Timestamp.Equal(ts) || r.Method != probe.MethodPrimary {
		t.Errorf("unexpected row %+v", r)
	}
}

func TestRead_BadInput(t *testing.T) {
	if _, err := Read(strings.NewReader("A,B,C,D,E\n")); !errors.Is(err, ErrBadHeader) {
		t.Errorf("expected ErrBadHeader, got %v", err)
	}
	bad := "Host,Port,Open,Timestamp,Method\n10.0.0.1,x,true,2026-01-02T03:04:05.000Z,PRIMARY\n"
	if _, err := Read(strings.NewReader(bad)); err == nil {
		t.Error("expected error for bad port")
	}
}

func TestWriteFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	if err := WriteFile(path, nil); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	rows, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %v", rows)
	}
}

func TestWriteAtomic_OverwriteAndPreserve(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "out.txt")

	if err := os.WriteFile(final, []byte("original"), 0o644); err != nil {
		t.Fatalf("setup write original: %v", err)
	}
	if err := WriteAtomic(final, []byte("newcontent")); err != nil {
		t.Fatalf("WriteAtomic failed: %v", err)
	}
	got, err := os.ReadFile(final)
	if err != nil {
		t.Fatalf("read final: %v", err)
	}
	if string(got) != "newcontent" {
		t.Fatalf("content mismatch: %q", string(got))
	}
}

func TestWriteAtomic_FailPreserveOriginal(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}
	dir := t.TempDir()
	final := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(final, []byte("original"), 0o644); err != nil {
		t.Fatalf("setup write original: %v", err)
	}
	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chmod(dir, 0o755)
	})

	if err := WriteAtomic(final, []byte("should-not-write")); err == nil {
		t.Fatalf("expected WriteAtomic to fail on unwritable dir")
	}
	got, rerr := os.ReadFile(final)
	if rerr != nil {
		t.Fatalf("read final: %v", rerr)
	}
	if string(got) != "original" {
		t.Fatalf("original file was modified: %q", string(got))
	}
}
