// Package snapshot persists the last-known-good payload per feed domain
// and serves it back when every live transport path has failed.
//
// There is exactly one snapshot document per domain and one validity
// policy; staleness is derived and informational — a stale snapshot is
// still handed out when it is the only data there is.
package snapshot

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/econoscale/econoscale/internal/config"
	"github.com/econoscale/econoscale/pkg/models"
)

// Store owns the on-disk snapshot state. Writes for the same domain are
// serialized so concurrent refresh cycles cannot interleave a write.
type Store struct {
	fs  afero.Fs
	dir string

	maxAge map[models.Domain]time.Duration

	mu    sync.Mutex
	locks map[models.Domain]*sync.Mutex
}

// New creates a store over the operating system filesystem.
func New(cfg *config.SnapshotConfig) *Store {
	return NewWithFs(afero.NewOsFs(), cfg)
}

// NewWithFs creates a store over an arbitrary filesystem (tests use an
// in-memory one).
func NewWithFs(fs afero.Fs, cfg *config.SnapshotConfig) *Store {
	return &Store{
		fs:  fs,
		dir: cfg.Dir,
		maxAge: map[models.Domain]time.Duration{
			models.DomainPrice: cfg.PriceMaxAge(),
			models.DomainGdp:   cfg.GdpMaxAge(),
		},
		locks: map[models.Domain]*sync.Mutex{
			models.DomainPrice: {},
			models.DomainGdp:   {},
		},
	}
}

// Write persists payload as the domain's snapshot, replacing any prior
// one. The document is written to a temp file and renamed into place, so
// a crash mid-write leaves the previous snapshot intact.
func (s *Store) Write(domain models.Domain, period string, payload any) error {
	if !domain.Valid() {
		return fmt.Errorf("snapshot: unknown domain %q", domain)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("snapshot: marshal %s payload: %w", domain, err)
	}
	doc, err := json.Marshal(models.Snapshot{
		Timestamp: time.Now().UnixMilli(),
		Period:    period,
		Domain:    domain,
		Data:      raw,
	})
	if err != nil {
		return fmt.Errorf("snapshot: marshal %s document: %w", domain, err)
	}

	lock := s.locks[domain]
	lock.Lock()
	defer lock.Unlock()

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: mkdir %s: %w", s.dir, err)
	}

	final := s.path(domain)
	tmp := final + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, doc, 0o644); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, final); err != nil {
		return fmt.Errorf("snapshot: rename %s: %w", tmp, err)
	}
	return nil
}

// Read returns the domain's snapshot, or false if none exists or the
// persisted document does not parse. Absence and corruption collapse to
// the same signal; neither is an error.
func (s *Store) Read(domain models.Domain) (*models.Snapshot, bool) {
	raw, err := afero.ReadFile(s.fs, s.path(domain))
	if err != nil {
		return nil, false
	}
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, false
	}
	if snap.Timestamp <= 0 || len(snap.Data) == 0 {
		return nil, false
	}
	return &snap, true
}

// Stale reports whether the snapshot is older than the domain's
// configured threshold. Informational only: callers still use a stale
// snapshot when live fetches fail.
func (s *Store) Stale(snap *models.Snapshot, now time.Time) bool {
	threshold, ok := s.maxAge[snap.Domain]
	if !ok || threshold <= 0 {
		return false
	}
	return snap.Age(now) > threshold
}

func (s *Store) path(domain models.Domain) string {
	return filepath.Join(s.dir, string(domain)+".json")
}
