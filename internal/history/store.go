// Package history persists the per-directory exchange log backing the
// conversational memory window. The file is a JSON array of records in
// append order; updates go through a temp file and rename so a half-written
// update is never visible.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"askgemini/internal/apperr"
	"askgemini/internal/config"
)

// Record is one stored exchange. Records are never mutated after append.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Model     string    `json:"model"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
}

// NewRecord stamps an exchange with the current UTC time.
func NewRecord(model, prompt, response string) Record {
	return Record{
		Timestamp: time.Now().UTC(),
		Model:     model,
		Prompt:    prompt,
		Response:  response,
	}
}

// Store reads and appends the history file of a single directory.
type Store struct {
	path   string
	logger *zap.Logger
}

// NewStore scopes a store to dir. The logger may be nil.
func NewStore(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		path:   filepath.Join(dir, config.HistoryFileName),
		logger: logger,
	}
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// load reads the whole file. Absent file means empty history.
func (s *Store) load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperr.New(apperr.KindCorrupt, "failed to read history file", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, apperr.New(apperr.KindCorrupt,
			fmt.Sprintf("history file %s is not valid JSON", s.path), err)
	}
	return records, nil
}

// LoadRecent returns the last n records, oldest to newest. Fewer than n
// stored means all of them; no file means none.
func (s *Store) LoadRecent(n int) ([]Record, error) {
	records, err := s.load()
	if err != nil {
		return nil, err
	}
	if n <= 0 || len(records) == 0 {
		return nil, nil
	}
	if len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}

// Append adds one record. The full sequence is rewritten to a temp file in
// the same directory and renamed over the target, so concurrent readers see
// either the old or the new file, never a partial one.
func (s *Store) Append(rec Record) error {
	records, err := s.load()
	if err != nil {
		return err
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, config.HistoryFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp history file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace history file: %w", err)
	}

	s.logger.Debug("history appended",
		zap.String("path", s.path),
		zap.Int("records", len(records)))
	return nil
}

// Clear deletes the history file. Subsequent reads return an empty sequence.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove history file: %w", err)
	}
	return nil
}
