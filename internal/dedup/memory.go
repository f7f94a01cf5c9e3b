package dedup

import (
	"sort"

	gocache "github.com/patrickmn/go-cache"

	"policylens/internal/model"
)

// MemoryStore is the ephemeral ("submission") insight store: scoped to
// the current invocation and discarded at run end
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates an empty ephemeral store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get looks up a record by signature
func (s *MemoryStore) Get(signature string) (model.InsightRecord, bool) {
	if v, found := s.cache.Get(signature); found {
		return v.(model.InsightRecord), true
	}
	return model.InsightRecord{}, false
}

// Put inserts or replaces a record
func (s *MemoryStore) Put(rec model.InsightRecord) {
	s.cache.Set(rec.Signature, rec, gocache.NoExpiration)
}

// Signatures returns all stored signatures in sorted order
func (s *MemoryStore) Signatures() []string {
	items := s.cache.Items()
	sigs := make([]string, 0, len(items))
	for sig := range items {
		sigs = append(sigs, sig)
	}
	sort.Strings(sigs)
	return sigs
}

// All returns every record, sorted by signature
func (s *MemoryStore) All() []model.InsightRecord {
	sigs := s.Signatures()
	recs := make([]model.InsightRecord, 0, len(sigs))
	for _, sig := range sigs {
		if rec, ok := s.Get(sig); ok {
			recs = append(recs, rec)
		}
	}
	return recs
}

// Flush is a no-op: the ephemeral store is discarded at run end
func (s *MemoryStore) Flush() error {
	return nil
}
