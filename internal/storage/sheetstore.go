// Package storage provides file-based persistence for the portfolio tables.
//
// Each table is a single JSON array file under the data directory, mirroring
// the three-sheet layout the data model is built around: portfolio.json for
// acquisition transactions, market.json for month-end market data, and
// performance.json for computed performance records. Writes are atomic
// (temp file + rename) so a crash never leaves a half-written table.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mhayashi/kabuto/internal/common"
)

// Table file names under the data directory.
const (
	ledgerFile      = "portfolio.json"
	marketFile      = "market.json"
	performanceFile = "performance.json"
	dividendFile    = "dividend.json"
)

// subdirectories defines the directory layout under basePath.
var subdirectories = []string{"charts", "reports"}

// SheetStore is the shared file backend for all three tables.
type SheetStore struct {
	basePath string
	logger   *common.Logger

	// Serializes read-modify-write cycles across tables. Tables are small
	// (one row per month per instrument) so a single lock is enough.
	mu sync.Mutex
}

// NewSheetStore creates a SheetStore rooted at basePath and ensures the
// directory layout exists.
func NewSheetStore(logger *common.Logger, basePath string) (*SheetStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("storage path is empty")
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", basePath, err)
	}
	for _, sub := range subdirectories {
		dir := filepath.Join(basePath, sub)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	logger.Debug().Str("path", basePath).Msg("SheetStore opened")
	return &SheetStore{basePath: basePath, logger: logger}, nil
}

// sanitizeKey makes a key safe for use as a filename.
// Replaces /, \, : with _ and collapses ".." to "_" to prevent path traversal.
// Preserves single dots (safe in filenames, common in tickers like 7974.TSE).
func (ss *SheetStore) sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

// readTable reads and unmarshals a table file. A missing file is an empty
// table, not an error.
func (ss *SheetStore) readTable(name string, dest interface{}) error {
	path := filepath.Join(ss.basePath, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeTable marshals data to indented JSON and writes it atomically.
func (ss *SheetStore) writeTable(name string, data interface{}) error {
	target := filepath.Join(ss.basePath, name)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	return ss.writeAtomic(ss.basePath, target, jsonData)
}

// WriteRaw writes arbitrary binary data atomically to a subdirectory.
// The key is sanitized for safe filenames (e.g. "growth.png").
func (ss *SheetStore) WriteRaw(subdir, key string, data []byte) error {
	dir := filepath.Join(ss.basePath, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	target := filepath.Join(dir, ss.sanitizeKey(key))
	return ss.writeAtomic(dir, target, data)
}

// writeAtomic writes data to a temp file in dir, then renames it over target.
func (ss *SheetStore) writeAtomic(dir, target string, data []byte) error {
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
