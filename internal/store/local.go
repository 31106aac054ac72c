package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/avelar/sitegauge/internal/types"
)

// MaxFallbackResults bounds the local list: insertion happens at the
// head, older entries past the cap are silently discarded.
const MaxFallbackResults = 10

var (
	fallbackBucket = []byte("sitegauge")
	fallbackKey    = []byte("recent_results")
)

// Fallback is the bounded local result list, newest first, held as a
// single JSON array under one key in a bbolt file. Each operation is
// one bolt transaction, so the read-modify-write of the list is atomic.
type Fallback struct {
	db *bolt.DB
}

// OpenFallback opens (or creates) the fallback database at path.
func OpenFallback(path string) (*Fallback, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open fallback store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(fallbackBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create fallback bucket: %w", err)
	}
	return &Fallback{db: db}, nil
}

// Close releases the underlying file.
func (f *Fallback) Close() error {
	return f.db.Close()
}

func readList(tx *bolt.Tx) ([]types.RunResult, error) {
	data := tx.Bucket(fallbackBucket).Get(fallbackKey)
	if data == nil {
		return nil, nil
	}
	var list []types.RunResult
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode fallback list: %w", err)
	}
	return list, nil
}

func writeList(tx *bolt.Tx, list []types.RunResult) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode fallback list: %w", err)
	}
	return tx.Bucket(fallbackBucket).Put(fallbackKey, data)
}

// Insert prepends a result and truncates the list to the cap. A result
// arriving without an id gets a locally-generated one.
func (f *Fallback) Insert(res *types.RunResult) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	return f.db.Update(func(tx *bolt.Tx) error {
		list, err := readList(tx)
		if err != nil {
			return err
		}
		// Re-inserting an id replaces the old entry instead of duplicating it.
		kept := list[:0]
		for _, r := range list {
			if r.ID != res.ID {
				kept = append(kept, r)
			}
		}
		list = append([]types.RunResult{*res}, kept...)
		if len(list) > MaxFallbackResults {
			list = list[:MaxFallbackResults]
		}
		return writeList(tx, list)
	})
}

// All returns the whole list, newest first.
func (f *Fallback) All() ([]types.RunResult, error) {
	var list []types.RunResult
	err := f.db.View(func(tx *bolt.Tx) error {
		var err error
		list, err = readList(tx)
		return err
	})
	return list, err
}

// List returns stored results, optionally filtered by exact domain.
func (f *Fallback) List(domain string) ([]types.RunResult, error) {
	list, err := f.All()
	if err != nil || domain == "" {
		return list, err
	}
	filtered := make([]types.RunResult, 0, len(list))
	for _, r := range list {
		if r.Domain == domain {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// Domains returns the distinct domains in the list, newest first. The
// domain is re-derived from each record's URL rather than read from the
// cached field.
func (f *Fallback) Domains() ([]string, error) {
	list, err := f.All()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var domains []string
	for _, r := range list {
		d := types.DomainFromURL(r.URL)
		if !seen[d] {
			seen[d] = true
			domains = append(domains, d)
		}
	}
	return domains, nil
}

// GetByID scans the list for an id. Returns (nil, nil) on miss.
func (f *Fallback) GetByID(id string) (*types.RunResult, error) {
	list, err := f.All()
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, nil
}

// Remove deletes the given ids from the list, keeping everything else.
func (f *Fallback) Remove(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	return f.db.Update(func(tx *bolt.Tx) error {
		list, err := readList(tx)
		if err != nil {
			return err
		}
		kept := list[:0]
		for _, r := range list {
			if !drop[r.ID] {
				kept = append(kept, r)
			}
		}
		return writeList(tx, kept)
	})
}

// Clear empties the list.
func (f *Fallback) Clear() error {
	return f.db.Update(func(tx *bolt.Tx) error {
		return writeList(tx, nil)
	})
}

// Len reports the number of stored results.
func (f *Fallback) Len() (int, error) {
	list, err := f.All()
	return len(list), err
}
