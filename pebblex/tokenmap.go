package pebblex

import (
	"math"
	"math/rand/v2"

	"github.com/puzpuzpuz/xsync/v3"
)

const maxTokenSamples = 1024

// TokenMap tracks the requests which are waiting for a response, keyed by
// the 16 bit token carried on the wire.  Tokens are random, never zero and
// never shared by two pending requests.  Every entry is resolved exactly
// once: whichever of Invoke, Cancel or CancelAll removes it first calls the
// handler, everybody else observes that it is gone.
type TokenMap struct {
	entries   *xsync.MapOf[uint16, *tokenMapEntry]
	nextToken func() uint16
}

type tokenMapEntry struct {
	handler DispatchCallback
}

func NewTokenMap() *TokenMap {
	return &TokenMap{
		entries:   xsync.NewMapOf[uint16, *tokenMapEntry](),
		nextToken: randomToken,
	}
}

func randomToken() uint16 {
	return uint16(rand.N(math.MaxUint16)) + 1
}

// Register assigns a token to handler.
func (m *TokenMap) Register(handler DispatchCallback) (uint16, error) {
	// this function causes the handler to escape the local context and thus
	// triggers a heap allocation, we do it before touching the map.
	entry := &tokenMapEntry{
		handler: handler,
	}

	if m.entries.Size() >= math.MaxUint16 {
		return 0, ErrNoTokensAvailable
	}

	for i := 0; i < maxTokenSamples; i++ {
		token := m.nextToken()
		if token == 0 {
			continue
		}

		if _, loaded := m.entries.LoadOrStore(token, entry); !loaded {
			return token, nil
		}
	}

	return 0, ErrNoTokensAvailable
}

// Invoke resolves the entry for token with pak.  It returns false when no
// request is waiting on the token.
func (m *TokenMap) Invoke(token uint16, pak *Packet) bool {
	entry, ok := m.entries.LoadAndDelete(token)
	if !ok {
		return false
	}

	entry.handler(pak, nil)
	return true
}

// Cancel resolves the entry for token with err.
func (m *TokenMap) Cancel(token uint16, err error) bool {
	entry, ok := m.entries.LoadAndDelete(token)
	if !ok {
		return false
	}

	entry.handler(nil, err)
	return true
}

// Remove drops the entry for token without invoking its handler.
func (m *TokenMap) Remove(token uint16) bool {
	_, ok := m.entries.LoadAndDelete(token)
	return ok
}

// CancelAll resolves every pending entry with err and returns how many
// entries were cancelled.
func (m *TokenMap) CancelAll(err error) int {
	var tokens []uint16
	m.entries.Range(func(token uint16, _ *tokenMapEntry) bool {
		tokens = append(tokens, token)
		return true
	})

	cancelled := 0
	for _, token := range tokens {
		if m.Cancel(token, err) {
			cancelled++
		}
	}

	return cancelled
}

func (m *TokenMap) Has(token uint16) bool {
	_, ok := m.entries.Load(token)
	return ok
}

func (m *TokenMap) Len() int {
	return m.entries.Size()
}
