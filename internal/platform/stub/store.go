package stub

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ehr/praxis/internal/listedit"
)

// ErrNotFound is returned for an unknown id.
var ErrNotFound = errors.New("record not found")

// Store keeps every collection in memory. Records handed out are copies.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]listedit.Record
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{collections: map[string][]listedit.Record{}}
}

// Seed appends records to a collection, assigning ids where missing.
func (s *Store) Seed(path, idField string, recs []listedit.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		rec := listedit.CloneRecord(r)
		assignID(rec, idField)
		s.collections[path] = append(s.collections[path], rec)
	}
}

// List returns the records whose fields equal every filter value. Matching
// is case-insensitive. Newest records come first.
func (s *Store) List(path string, filters map[string]string) []listedit.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.collections[path]
	out := make([]listedit.Record, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if matches(all[i], filters) {
			out = append(out, listedit.CloneRecord(all[i]))
		}
	}
	return out
}

// Get returns a copy of one record.
func (s *Store) Get(path, idField, id string) (listedit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(path, idField, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	return listedit.CloneRecord(s.collections[path][i]), nil
}

// Create stores rec, assigning an id when it has none, and returns a copy.
func (s *Store) Create(path, idField string, rec listedit.Record) listedit.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := listedit.CloneRecord(rec)
	assignID(stored, idField)
	s.collections[path] = append(s.collections[path], stored)
	return listedit.CloneRecord(stored)
}

// Update merges patch into the stored record. The id never changes.
func (s *Store) Update(path, idField, id string, patch listedit.Record) (listedit.Record, error) {
	return s.Mutate(path, idField, id, func(rec listedit.Record) {
		for k, v := range patch {
			if k == idField {
				continue
			}
			rec[k] = v
		}
	})
}

// Mutate applies fn to the stored record under the write lock.
func (s *Store) Mutate(path, idField, id string, fn func(listedit.Record)) (listedit.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(path, idField, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	rec := s.collections[path][i]
	fn(rec)
	rec[idField] = id
	return listedit.CloneRecord(rec), nil
}

// Delete removes one record.
func (s *Store) Delete(path, idField, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(path, idField, id)
	if i < 0 {
		return ErrNotFound
	}
	coll := s.collections[path]
	s.collections[path] = append(coll[:i:i], coll[i+1:]...)
	return nil
}

// Count returns the number of records per collection.
func (s *Store) Count() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.collections))
	for p, coll := range s.collections {
		out[p] = len(coll)
	}
	return out
}

// index must be called with the lock held.
func (s *Store) index(path, idField, id string) int {
	for i, rec := range s.collections[path] {
		if listedit.StringValue(rec[idField]) == id {
			return i
		}
	}
	return -1
}

func assignID(rec listedit.Record, idField string) {
	if listedit.StringValue(rec[idField]) == "" {
		rec[idField] = uuid.New().String()
	}
}

func matches(rec listedit.Record, filters map[string]string) bool {
	for k, want := range filters {
		if !strings.EqualFold(listedit.StringValue(rec[k]), want) {
			return false
		}
	}
	return true
}
