// Package report writes and reads the CSV scan report.
//
// The report has the columns Host, Port, Open, Timestamp, Method and holds
// only successful probes. A report with no successes still carries exactly one
// placeholder row of empty fields after the header; Read drops it.
package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/probe"
)

// DefaultPath is the report file written when no path is given.
const DefaultPath = "ssh_scan_results.csv"

// TimestampLayout is sortable as text and keeps millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Header is the first row of every report.
var Header = []string{"Host", "Port", "Open", "Timestamp", "Method"}

// ErrBadHeader is returned by Read when the first row is not Header.
var ErrBadHeader = errors.New("unexpected report header")

// Row is one parsed report line.
type Row struct {
	Host      string
	Port      int
	Open      bool
	Timestamp time.Time
	Method    probe.Method
}

// Write renders the open results as CSV. Closed results are skipped.
func Write(w io.Writer, results []probe.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rows := 0
	for _, r := range results {
		if !r.Open {
			continue
		}
		rec := []string{
			r.Host,
			strconv.Itoa(r.Port),
			strconv.FormatBool(r.Open),
			r.Timestamp.Format(TimestampLayout),
			string(r.Method),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
		rows++
	}
	if rows == 0 {
		if err := cw.Write(make([]string, len(Header))); err != nil {
			return fmt.Errorf("write placeholder: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile renders the report and atomically replaces path with it.
func WriteFile(path string, results []probe.Result) error {
	var buf bytes.Buffer
	if err := Write(&buf, results); err != nil {
		return err
	}
	return WriteAtomic(path, buf.Bytes())
}

// Read parses a report, dropping the placeholder row.
func Read(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range Header {
		if strings.TrimPrefix(header[i], "\ufeff") != Header[i] {
			return nil, fmt.Errorf("%w: %v", ErrBadHeader, header)
		}
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if isPlaceholder(rec) {
			continue
		}
		row, err := parseRow(rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadFile parses the report at path.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func isPlaceholder(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseRow(rec []string) (Row, error) {
	port, err := strconv.Atoi(rec[1])
	if err != nil {
		return Row{}, fmt.Errorf("row %v: bad port: %w", rec, err)
	}
	open, err := strconv.ParseBool(rec[2])
	if err != nil {
		return Row{}, fmt.Errorf("row %v: bad open flag: %w", rec, err)
	}
	ts, err := time.Parse(TimestampLayout, rec[3])
	if err != nil {
		return Row{}, fmt.Errorf("row %v: bad timestamp: %w", rec, err)
	}
	return Row{Host: rec[0], Port: port, Open: open, Timestamp: ts, Method: probe.Method(rec[4])}, nil
}

// WriteAtomic writes data to path atomically:
//   - create temp file in same directory
//   - write bytes, fsync, close
//   - rename to final path (overwrite)
//
// On failure the temp file is removed and an error returned.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	tmpF, err := os.CreateTemp(dir, ".sshdiscovery-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpF.Name()

	cleanup := func() {
		_ = tmpF.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmpF.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpF.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpF.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp -> final: %w", err)
	}
	return nil
}
