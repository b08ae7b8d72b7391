// Package directory holds the operator-curated token metadata directory:
// mint address -> display metadata. It is loaded once at startup and never
// mutated afterwards, so lookups need no locking.
package directory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/hunterwarburton/walletproxy/internal/core"
	"github.com/hunterwarburton/walletproxy/internal/logger"
)

// Entry is the metadata stored for one mint.
type Entry = core.TokenMetadata

// Directory is an immutable mint -> Entry lookup table.
type Directory struct {
	entries map[string]Entry
}

// New builds a Directory from entries. The map is copied.
func New(entries map[string]Entry) *Directory {
	d := &Directory{entries: make(map[string]Entry, len(entries))}
	for mint, e := range entries {
		d.entries[mint] = e
	}
	return d
}

// Load reads a directory file: a JSON object keyed by mint address.
// An empty path yields an empty directory, so nothing is ever verified.
func Load(path string) (*Directory, error) {
	if path == "" {
		logger.Info("No token list configured, token metadata directory is empty")
		return New(nil), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token list %s: %w", path, err)
	}
	defer f.Close()

	d, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load token list %s: %w", path, err)
	}
	logger.Info("Loaded %d token metadata entries from %s", d.Len(), path)
	return d, nil
}

// Read decodes a directory from r.
func Read(r io.Reader) (*Directory, error) {
	var entries map[string]Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode token list: %w", err)
	}
	return &Directory{entries: entries}, nil
}

// Lookup returns the entry for mint and whether it exists.
func (d *Directory) Lookup(mint string) (Entry, bool) {
	e, ok := d.entries[mint]
	return e, ok
}

// Len returns the number of mints in the directory.
func (d *Directory) Len() int {
	return len(d.entries)
}

// Mints returns the mint addresses in the directory, sorted.
func (d *Directory) Mints() []string {
	mints := make([]string, 0, len(d.entries))
	for mint := range d.entries {
		mints = append(mints, mint)
	}
	sort.Strings(mints)
	return mints
}

// Write encodes entries as an indented directory file. encoding/json sorts
// map keys, so the output is stable across runs.
func Write(w io.Writer, entries map[string]Entry) error {
	if entries == nil {
		entries = map[string]Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("failed to encode token list: %w", err)
	}
	return nil
}
