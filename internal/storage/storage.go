package storage

import (
	"fmt"
	"strings"

	"github.com/seongsu-hq/popup-harvester/internal/domain"
)

// Package storage provides the durable dedup state abstraction.

// ReserveOutcome is the result of claiming a fingerprint.
type ReserveOutcome int

const (
	// Reserved means the caller won the claim and must commit exactly once.
	Reserved ReserveOutcome = iota
	// DuplicatePending means another worker holds the claim right now.
	DuplicatePending
	// DuplicatePublished means the event was already published earlier.
	DuplicatePublished
	// Exhausted means the fingerprint failed past the retry ceiling and is
	// left for manual inspection.
	Exhausted
)

func (o ReserveOutcome) String() string {
	switch o {
	case Reserved:
		return "reserved"
	case DuplicatePending:
		return "duplicate-pending"
	case DuplicatePublished:
		return "duplicate-published"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Outcome is what a worker reports back after a publish attempt.
type Outcome struct {
	Published bool
	RemoteID  int64
}

// Store is the durable fingerprint → publish-state mapping. Reserve is the
// single serialization point per fingerprint; every Reserve that returns
// Reserved must be followed by exactly one Commit.
type Store interface {
	Close() error
	Lookup(fingerprint string) (domain.DedupRecord, bool, error)
	Reserve(fingerprint string) (ReserveOutcome, error)
	Commit(fingerprint string, outcome Outcome) error
	// RecoverStale demotes records left pending by a crashed run to failed
	// so a later Reserve can re-admit or permanently skip them. Returns the
	// number of records touched.
	RecoverStale() (int, error)
}

// Options controls retry admission for concrete store implementations.
type Options struct {
	// RetryCeiling is the max publish attempts per fingerprint before
	// Reserve reports Exhausted.
	RetryCeiling int
}

const defaultRetryCeiling = 3

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.RetryCeiling <= 0 {
		opts.RetryCeiling = defaultRetryCeiling
	}
	return opts
}

// noopStore reserves everything and remembers nothing. Dry runs only.
type noopStore struct{}

func (noopStore) Close() error { return nil }
func (noopStore) Lookup(string) (domain.DedupRecord, bool, error) {
	return domain.DedupRecord{}, false, nil
}
func (noopStore) Reserve(string) (ReserveOutcome, error) { return Reserved, nil }
func (noopStore) Commit(string, Outcome) error           { return nil }
func (noopStore) RecoverStale() (int, error)             { return 0, nil }
