package dedup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"policylens/internal/model"
)

// DiskStore is the cumulative insight store. State is read once at
// construction, mutated in memory during the run, and rewritten
// atomically (write temp file, then rename) by Flush, so an interrupted
// run leaves the previously flushed state intact.
type DiskStore struct {
	path    string
	records map[string]model.InsightRecord
}

// OpenDiskStore loads the store file at path, starting empty when the
// file does not exist yet
func OpenDiskStore(path string) (*DiskStore, error) {
	store := &DiskStore{
		path:    path,
		records: make(map[string]model.InsightRecord),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read insight store: %w", err)
	}
	if err := json.Unmarshal(data, &store.records); err != nil {
		return nil, fmt.Errorf("parse insight store %s: %w", path, err)
	}
	return store, nil
}

// Get looks up a record by signature
func (s *DiskStore) Get(signature string) (model.InsightRecord, bool) {
	rec, ok := s.records[signature]
	return rec, ok
}

// Put inserts or replaces a record
func (s *DiskStore) Put(rec model.InsightRecord) {
	s.records[rec.Signature] = rec
}

// Signatures returns all stored signatures in sorted order
func (s *DiskStore) Signatures() []string {
	sigs := make([]string, 0, len(s.records))
	for sig := range s.records {
		sigs = append(sigs, sig)
	}
	sort.Strings(sigs)
	return sigs
}

// All returns every record, sorted by signature
func (s *DiskStore) All() []model.InsightRecord {
	sigs := s.Signatures()
	recs := make([]model.InsightRecord, 0, len(sigs))
	for _, sig := range sigs {
		recs = append(recs, s.records[sig])
	}
	return recs
}

// Flush atomically rewrites the store file: all-or-nothing, never an
// in-place mutation
func (s *DiskStore) Flush() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal insight store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".insights-*.json")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace insight store: %w", err)
	}
	return nil
}

// Clear removes the persisted store file
func (s *DiskStore) Clear() error {
	s.records = make(map[string]model.InsightRecord)
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
