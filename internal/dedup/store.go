// Package dedup merges each run's findings against a cross-run insight
// store, marking every finding "new" or "recurring".
//
// The store is an explicitly constructed, injected dependency, never an
// ambient singleton. New findings are appended during a run and flushed
// once at run end; nothing else mutates the store.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"policylens/internal/model"
)

// Store is the persistence interface of the insight deduplicator
type Store interface {
	// Get looks up a record by signature
	Get(signature string) (model.InsightRecord, bool)

	// Put inserts or replaces a record
	Put(rec model.InsightRecord)

	// Signatures returns all stored signatures in sorted order
	Signatures() []string

	// All returns every record, sorted by signature
	All() []model.InsightRecord

	// Flush persists the store atomically. Ephemeral stores no-op.
	Flush() error
}

var (
	pageMarker  = regexp.MustCompile(`\(p\.\d+\)`)
	nonSigChars = regexp.MustCompile(`[^a-z0-9 ]+`)
)

// Signature derives the canonical cross-run signature for a finding
// kind and description. Page markers are dropped so a finding that
// merely shifts pages between document revisions keeps its identity.
func Signature(kind, description string) string {
	s := strings.ToLower(description)
	s = pageMarker.ReplaceAllString(s, "")
	s = nonSigChars.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")

	hash := sha256.Sum256([]byte(s))
	return kind + ":" + hex.EncodeToString(hash[:8])
}

// normalizedDescription is the gate-comparable form of a description
func normalizedDescription(description string) string {
	s := strings.ToLower(description)
	s = pageMarker.ReplaceAllString(s, "")
	s = nonSigChars.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
