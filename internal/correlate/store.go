// Package correlate passes transient data across asynchronous navigation
// boundaries using opaque correlation tokens.
//
// A screen that presents another screen registers its argument list here
// and embeds the returned token in the navigation payload; the presented
// screen redeems the token on the far side. Results flow back the same
// way. Tokens are time-ordered and unique within the process.
//
// Argument retention is session-scoped rather than ambient: every argument
// entry is tagged with the generation current at registration, and
// reclamation is an explicit, testable operation (ReclaimThrough). A
// redeemed token whose entry was reclaimed resolves to absent, never an
// error.
package correlate

import (
	"sync"
	"time"

	"github.com/dshills/screenloop/internal/logging"
)

// Token is an opaque, time-ordered correlation key. The high bits carry
// the registration wall-clock in milliseconds, the low bits a monotonic
// sequence, so tokens sort by registration time and never collide within
// the counter's period.
type Token uint64

// seqBits is the width of the per-token sequence field.
const seqBits = 20

// None is the zero token; it never corresponds to a registration.
const None Token = 0

// Time returns the wall-clock recorded in the token.
func (t Token) Time() time.Time {
	return time.UnixMilli(int64(t >> seqBits))
}

// StarterFunc is a pending handler awaiting an external callback. It is
// invoked exactly once with the callback's payload.
type StarterFunc func(payload any)

type argEntry struct {
	gen    uint64
	values []any
}

// Store holds the process-wide correlation tables. Each table is guarded
// by its own mutex: the primary logic runs on the dispatch goroutine, but
// callbacks can arrive from incidental goroutines in the host runtime.
type Store struct {
	logger *logging.Logger

	seq   uint64
	seqMu sync.Mutex

	argsMu sync.Mutex
	gen    uint64
	args   map[Token]argEntry

	resultsMu sync.Mutex
	results   map[Token]any

	startersMu sync.Mutex
	starters   map[Token]StarterFunc
}

// NewStore creates an empty correlation store.
func NewStore() *Store {
	return &Store{
		logger:   logging.Default().WithComponent("correlate"),
		args:     make(map[Token]argEntry),
		results:  make(map[Token]any),
		starters: make(map[Token]StarterFunc),
	}
}

var (
	defaultStore     *Store
	defaultStoreOnce sync.Once
)

// Default returns the process-wide store.
func Default() *Store {
	defaultStoreOnce.Do(func() {
		defaultStore = NewStore()
	})
	return defaultStore
}

// newToken mints a fresh time-ordered token.
func (s *Store) newToken() Token {
	s.seqMu.Lock()
	s.seq++
	n := s.seq
	s.seqMu.Unlock()

	ms := uint64(time.Now().UnixMilli())
	return Token(ms<<seqBits | n&(1<<seqBits-1))
}

// RegisterArguments stores an argument list under a fresh token, tagged
// with the current generation. The token is intended to be embedded in a
// navigation request payload.
func (s *Store) RegisterArguments(args ...any) Token {
	token := s.newToken()

	s.argsMu.Lock()
	s.args[token] = argEntry{gen: s.gen, values: args}
	s.argsMu.Unlock()

	return token
}

// TakeArguments looks up an argument list without removing it; arguments
// may be read again across the target screen's lifecycle, e.g. after
// state restoration. A missing or reclaimed entry is absent, not an error.
func (s *Store) TakeArguments(token Token) ([]any, bool) {
	s.argsMu.Lock()
	defer s.argsMu.Unlock()

	e, ok := s.args[token]
	if !ok {
		return nil, false
	}
	return e.values, true
}

// Generation returns the current argument generation.
func (s *Store) Generation() uint64 {
	s.argsMu.Lock()
	defer s.argsMu.Unlock()
	return s.gen
}

// BeginSession advances to a fresh argument generation and returns it.
// Arguments registered afterward belong to the new generation until the
// next BeginSession.
func (s *Store) BeginSession() uint64 {
	s.argsMu.Lock()
	defer s.argsMu.Unlock()
	s.gen++
	return s.gen
}

// ReclaimSession drops every argument entry registered in exactly the
// given generation. Tokens for reclaimed entries resolve to absent
// afterward.
func (s *Store) ReclaimSession(gen uint64) int {
	return s.reclaim(func(g uint64) bool { return g == gen })
}

// ReclaimThrough drops every argument entry registered in generation gen
// or earlier. Used for bulk cleanup, e.g. after state restoration.
func (s *Store) ReclaimThrough(gen uint64) int {
	return s.reclaim(func(g uint64) bool { return g <= gen })
}

func (s *Store) reclaim(match func(gen uint64) bool) int {
	s.argsMu.Lock()
	defer s.argsMu.Unlock()

	n := 0
	for token, e := range s.args {
		if match(e.gen) {
			delete(s.args, token)
			n++
		}
	}
	if n > 0 {
		s.logger.Debug("reclaimed %d argument entries", n)
	}
	return n
}

// RegisterResult stores a result value under a fresh token. Results are
// retained until consumed.
func (s *Store) RegisterResult(value any) Token {
	token := s.newToken()

	s.resultsMu.Lock()
	s.results[token] = value
	s.resultsMu.Unlock()

	return token
}

// TakeResult removes and returns the result registered under token.
// Exactly one take observes the value; any later take is absent.
func (s *Store) TakeResult(token Token) (any, bool) {
	s.resultsMu.Lock()
	defer s.resultsMu.Unlock()

	v, ok := s.results[token]
	if ok {
		delete(s.results, token)
	}
	return v, ok
}

// RegisterStarter stores a pending handler awaiting an external callback.
func (s *Store) RegisterStarter(fn StarterFunc) Token {
	token := s.newToken()

	s.startersMu.Lock()
	s.starters[token] = fn
	s.startersMu.Unlock()

	return token
}

// TakeAndDispatch removes the pending handler registered under token and
// invokes it with the callback payload. The handler runs at most once; a
// missing token is reported as false and nothing runs.
func (s *Store) TakeAndDispatch(token Token, payload any) bool {
	s.startersMu.Lock()
	fn, ok := s.starters[token]
	if ok {
		delete(s.starters, token)
	}
	s.startersMu.Unlock()

	if !ok {
		return false
	}
	fn(payload)
	return true
}
