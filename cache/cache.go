// Package cache implements the resolved-candidate cache: a small
// persistent memo the CLI layer wraps around a resolver.PackageSource
// so repeated resolutions against the same package-source revision
// skip the network.
//
// This sits behind the resolver.PackageSource implementation the CLI
// wires up (e.g. a registry-backed source), never inside the resolver
// itself — resolver.Resolver's view of Candidates stays synchronous
// and deterministic, consuming whatever the wrapped source returns
// whether that came from cache or network.
//
// No repo in the retrieval pack exercises go.etcd.io/bbolt directly
// (it appears only as a transitive dependency elsewhere), so this
// package follows bbolt's own standard single-writer/many-reader
// bucket API directly; the Cache's Open/Close shape mirrors db.Store's
// (Component G) for consistency within this module rather than any one
// pack example. Unlike db.Store, Cache holds no mutex of its own and
// relies on bbolt's transactions.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/crucible-build/crucible/model"
	"github.com/crucible-build/crucible/resolver"
	"github.com/crucible-build/crucible/semver"
)

var candidatesBucket = []byte("candidates")

// wireDependency and wireCandidate are the JSON-serializable shadows
// of resolver.Dependency/Candidate. Both types carry unexported fields
// inside semver.IntervalSet, so round-tripping through encoding/json
// directly would silently lose every interval — each range is instead
// stamped through semver.Range's grammar-string form (the same text a
// manifest author would write) and reparsed on load.
type wireDependency struct {
	Range string   `json:"range"`
	All   bool     `json:"uses_all"`
	Names []string `json:"uses_names,omitempty"`
}

type wireCandidate struct {
	ID           string           `json:"id"`
	Dependencies []wireDependency `json:"dependencies"`
}

// entry is the on-disk record for one cached Candidates(name) answer.
type entry struct {
	Revision   string          `json:"revision"`
	Candidates []wireCandidate `json:"candidates"`
	CachedAt   time.Time       `json:"cached_at"`
}

func toWire(cs []resolver.Candidate) ([]wireCandidate, error) {
	out := make([]wireCandidate, len(cs))
	for i, c := range cs {
		deps := make([]wireDependency, len(c.Dependencies))
		for j, d := range c.Dependencies {
			deps[j] = wireDependency{
				Range: (semver.Range{Name: d.Name, Versions: d.Versions}).String(),
				All:   d.Uses.All,
				Names: d.Uses.Names,
			}
		}
		out[i] = wireCandidate{ID: c.ID.String(), Dependencies: deps}
	}
	return out, nil
}

func fromWire(ws []wireCandidate) ([]resolver.Candidate, error) {
	out := make([]resolver.Candidate, len(ws))
	for i, w := range ws {
		id, err := model.ParsePackageID(w.ID)
		if err != nil {
			return nil, fmt.Errorf("cache: parsing cached candidate id %q: %w", w.ID, err)
		}
		deps := make([]resolver.Dependency, len(w.Dependencies))
		for j, wd := range w.Dependencies {
			r, err := semver.ParseRange(wd.Range)
			if err != nil {
				return nil, fmt.Errorf("cache: parsing cached range %q: %w", wd.Range, err)
			}
			uses := resolver.Uses{All: wd.All, Names: wd.Names}
			deps[j] = resolver.Dependency{Name: r.Name, Versions: r.Versions, Uses: uses}
		}
		out[i] = resolver.Candidate{ID: id, Dependencies: deps}
	}
	return out, nil
}

// Cache is a bbolt-backed memo of resolver.PackageSource.Candidates
// results, keyed by package name and the upstream revision string the
// wrapped source reports for that name.
type Cache struct {
	db *bbolt.DB
}

// Open realizes a Cache at path, creating the database file and bucket
// if they do not already exist.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cache: creating directory %s: %w", dir, err)
		}
	}

	db, err := bbolt.Open(path, 0o644, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("cache: opening %s: %w", path, err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(candidatesBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: creating bucket: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close releases the underlying database file.
func (c *Cache) Close() error { return c.db.Close() }

// Lookup returns the cached candidate list for name if one is stored
// under the given revision. A revision mismatch (the upstream source
// has moved on) or a missing entry both report ok=false, so the caller
// falls through to the network.
func (c *Cache) Lookup(name, revision string) (candidates []resolver.Candidate, ok bool, err error) {
	var wire []wireCandidate
	err = c.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(candidatesBucket).Get(key(name))
		if raw == nil {
			return nil
		}
		var e entry
		if unmarshalErr := json.Unmarshal(raw, &e); unmarshalErr != nil {
			return unmarshalErr
		}
		if e.Revision != revision {
			return nil
		}
		wire, ok = e.Candidates, true
		return nil
	})
	if err != nil || !ok {
		return nil, ok, err
	}
	candidates, err = fromWire(wire)
	return candidates, ok, err
}

// Store records candidates for name under revision, overwriting
// whatever was previously cached for that name.
func (c *Cache) Store(name, revision string, candidates []resolver.Candidate) error {
	wire, err := toWire(candidates)
	if err != nil {
		return err
	}
	e := entry{Revision: revision, Candidates: wire, CachedAt: time.Now()}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(candidatesBucket).Put(key(name), raw)
	})
}

func key(name string) []byte { return []byte(name) }

// Source wraps an upstream resolver.PackageSource with this Cache,
// implementing resolver.PackageSource itself so it can be handed
// straight to resolver.New. RevisionOf reports the upstream source's
// current revision for name; an empty string disables caching for
// that name (always falls through to Upstream).
type Source struct {
	Upstream   resolver.PackageSource
	Cache      *Cache
	RevisionOf func(name string) (string, error)
}

// Candidates implements resolver.PackageSource: a cache hit against
// the upstream's current revision short-circuits the network call;
// a miss or revision change fetches from Upstream and backfills Cache.
func (s *Source) Candidates(name string) ([]resolver.Candidate, error) {
	revision, err := s.RevisionOf(name)
	if err != nil {
		return nil, err
	}

	if revision != "" {
		if cached, ok, err := s.Cache.Lookup(name, revision); err != nil {
			return nil, err
		} else if ok {
			return cached, nil
		}
	}

	candidates, err := s.Upstream.Candidates(name)
	if err != nil {
		return nil, err
	}

	if revision != "" {
		if err := s.Cache.Store(name, revision, candidates); err != nil {
			return nil, err
		}
	}

	return candidates, nil
}
