// Package oui maps MAC addresses to vendor names using the IEEE OUI database.
package oui

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/oui"
)

// ErrInvalidMAC is returned for text that is not a 48-bit MAC address.
var ErrInvalidMAC = errors.New("invalid MAC address format")

// ErrNoDatabase is returned by NewRegistry when no database file is named.
var ErrNoDatabase = errors.New("no OUI database file given")

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from OUI operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// Vendor describes the owner of a MAC prefix.
type Vendor struct {
	Manufacturer string
	Address      []string
	Country      string
	Prefix       string
}

// Registry resolves vendors from one IEEE oui.txt file. It loads lazily on
// first use and is safe for concurrent use.
type Registry struct {
	path string

	once sync.Once
	db   oui.OuiDB
	err  error
}

// NewRegistry returns a Registry backed by the database file at path.
// The library ships no database, so path is required.
func NewRegistry(path string) (*Registry, error) {
	if path == "" {
		return nil, ErrNoDatabase
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("OUI database file not found: %w", err)
	}
	return &Registry{path: path}, nil
}

// Path returns the database file.
func (r *Registry) Path() string { return r.path }

func (r *Registry) load() error {
	r.once.Do(func() {
		debugLog("Loading OUI database from: %s", r.path)
		db, err := oui.OpenStaticFile(r.path)
		if err != nil {
			r.err = fmt.Errorf("failed to open OUI database: %w", err)
			return
		}
		r.db = db
	})
	return r.err
}

// Loaded reports whether the database has been opened successfully.
func (r *Registry) Loaded() bool {
	return r.load() == nil && r.db != nil
}

// Lookup returns the vendor for mac. An unknown prefix yields (nil, nil).
func (r *Registry) Lookup(mac string) (*Vendor, error) {
	norm := NormalizeMAC(mac)
	if norm == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMAC, mac)
	}
	hw, err := net.ParseMAC(norm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMAC, err)
	}
	if err := r.load(); err != nil {
		return nil, err
	}

	entry, err := r.db.Query(hw.String())
	if err != nil {
		if errors.Is(err, oui.ErrNotFound) {
			debugLog("%s: vendor not found in database", norm)
			return nil, nil
		}
		return nil, fmt.Errorf("OUI lookup failed: %w", err)
	}

	v := &Vendor{
		Manufacturer: entry.Manufacturer,
		Prefix:       entry.Prefix.String(),
		Country:      entry.Country,
	}
	if len(entry.Address) > 0 {
		v.Address = entry.Address
	}
	debugLog("%s -> %s", norm, v.Manufacturer)
	return v, nil
}

// Name returns just the manufacturer, or "" when unknown or on error.
func (r *Registry) Name(mac string) string {
	v, err := r.Lookup(mac)
	if err != nil || v == nil {
		return ""
	}
	return v.Manufacturer
}

// NormalizeMAC rewrites "00-11-22-33-44-55", "001122334455" and similar
// forms to "00:11:22:33:44:55". It returns "" for invalid input.
func NormalizeMAC(mac string) string {
	mac = strings.ToLower(mac)
	mac = strings.NewReplacer("-", "", ":", "", ".", "").Replace(mac)
	if len(mac) != 12 {
		return ""
	}
	for _, c := range mac {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return ""
		}
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s:%s",
		mac[0:2], mac[2:4], mac[4:6], mac[6:8], mac[8:10], mac[10:12])
}
