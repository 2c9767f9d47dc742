package bot

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// pendingKind distinguishes what a confirmation will do.
type pendingKind string

const (
	pendingAdd    pendingKind = "add"
	pendingRemove pendingKind = "remove"
)

// pendingAction is a moderation action awaiting a button press.
type pendingAction struct {
	Kind     pendingKind
	User     string
	Reason   string
	Duration string
	ActorID  string
	timer    *time.Timer
}

// pendingStore holds confirmations keyed by an opaque token. Each entry is
// resolved exactly once: confirmed, cancelled, or timed out.
type pendingStore struct {
	mu      sync.Mutex
	actions map[string]*pendingAction
	ttl     time.Duration
}

func newPendingStore(ttl time.Duration) *pendingStore {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &pendingStore{actions: map[string]*pendingAction{}, ttl: ttl}
}

// Put registers an action and returns its token. onExpire fires if nobody
// resolves the action within the ttl.
func (p *pendingStore) Put(action pendingAction, onExpire func(token string)) (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw)

	p.mu.Lock()
	defer p.mu.Unlock()

	stored := action
	stored.timer = time.AfterFunc(p.ttl, func() {
		if _, ok := p.take(token); ok && onExpire != nil {
			onExpire(token)
		}
	})
	p.actions[token] = &stored
	return token, nil
}

// Peek returns the action for a token without consuming it, so callers can
// check who is pressing the button before resolving.
func (p *pendingStore) Peek(token string) (pendingAction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stored, ok := p.actions[token]
	if !ok {
		return pendingAction{}, false
	}
	return *stored, true
}

// Take resolves a token, returning its action and stopping the expiry timer.
// A second Take of the same token misses.
func (p *pendingStore) Take(token string) (pendingAction, bool) {
	return p.take(token)
}

func (p *pendingStore) take(token string) (pendingAction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stored, ok := p.actions[token]
	if !ok {
		return pendingAction{}, false
	}
	delete(p.actions, token)
	stored.timer.Stop()
	return *stored, true
}

// Len reports how many confirmations are outstanding.
func (p *pendingStore) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.actions)
}
