package app

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	DefaultRegistrySize = 1024
	DefaultRegistryTTL  = time.Hour
)

// Registry owns the live matches of the process. Entries expire after ttl without
// access, when the registry is over capacity, or on Remove.
type Registry struct {
	logger  runtime.Logger
	matches *expirable.LRU[string, *Match]
	codes   sync.Map // join code -> match id
}

// NewRegistry creates a registry holding up to size matches.
func NewRegistry(logger runtime.Logger, size int, ttl time.Duration) *Registry {
	if size <= 0 {
		size = DefaultRegistrySize
	}
	if ttl <= 0 {
		ttl = DefaultRegistryTTL
	}
	r := &Registry{logger: logger}
	r.matches = expirable.NewLRU[string, *Match](size, r.onEvict, ttl)
	return r
}

func (r *Registry) onEvict(id string, m *Match) {
	r.codes.Range(func(code, matchID any) bool {
		if matchID == id {
			r.codes.Delete(code)
		}
		return true
	})
	r.logger.Debug("Registry: match %s evicted (over=%v)", id, m.IsOver())
}

// Create builds a match under a fresh id and registers it.
func (r *Registry) Create(roster []*Player, opts Options) (*Match, error) {
	m, err := NewMatch(uuid.NewString(), roster, opts)
	if err != nil {
		return nil, err
	}
	r.Add(m)
	return m, nil
}

// Add registers an existing match under its own id, replacing any previous entry.
func (r *Registry) Add(m *Match) {
	r.matches.Add(m.ID(), m)
	if code := m.JoinCode(); code != "" {
		r.codes.Store(code, m.ID())
	}
	r.logger.Info("Registry: match %s registered (capacity=%d, code=%q)", m.ID(), m.Capacity(), m.JoinCode())
}

// Get returns the match and refreshes its expiry.
func (r *Registry) Get(id string) (*Match, error) {
	m, ok := r.matches.Get(id)
	if !ok {
		return nil, ErrUnknownMatch
	}
	r.matches.Add(id, m)
	return m, nil
}

// ByJoinCode resolves an open room by its code. Codes are matched case-insensitively
// and stop resolving once the room has filled.
func (r *Registry) ByJoinCode(code string) (*Match, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	v, ok := r.codes.Load(code)
	if !ok {
		return nil, ErrUnknownMatch
	}
	m, err := r.Get(v.(string))
	if err != nil {
		r.codes.Delete(code)
		return nil, err
	}
	if m.JoinCode() != code {
		r.codes.Delete(code)
		return nil, ErrUnknownMatch
	}
	return m, nil
}

// Remove drops the match. Unknown ids are ignored.
func (r *Registry) Remove(id string) {
	r.matches.Remove(id)
}

// Len returns the number of live matches.
func (r *Registry) Len() int { return r.matches.Len() }
