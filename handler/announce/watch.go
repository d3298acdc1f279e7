package announce

import (
	"sync"
	"time"
)

// sessionState mirrors the workflow state machine: composing → sending →
// sent, with cancelled and expired as the other terminal states. A failed
// send drops back to composing.
type sessionState int

const (
	stateComposing sessionState = iota
	stateSending
	stateSent
	stateCancelled
	stateExpired
)

func (s sessionState) terminal() bool {
	return s == stateSent || s == stateCancelled || s == stateExpired
}

// watch is the in-process lifecycle of one session. The two TTL-bounded
// subscriptions and every interaction handler hold a reference to the same
// watch and converge on its finish transition, so whichever trigger fires
// first wins and the rest become no-ops.
type watch struct {
	announceID string
	guildID    string
	channelID  string
	ownerID    string

	msgSub  *subscription
	compSub *subscription

	mu    sync.Mutex
	state sessionState
}

// current returns the state at this instant. It may be stale by the time
// the caller acts on it; only finish and beginSend decide transitions.
func (w *watch) current() sessionState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// beginSend moves composing → sending. It returns false when the session is
// already terminal or another send is underway in this process.
func (w *watch) beginSend() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != stateComposing {
		return false
	}
	w.state = stateSending
	return true
}

// endSend leaves the sending state: forward to sent on success, back to
// composing on failure so the session stays resumable.
func (w *watch) endSend(success bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != stateSending {
		return
	}
	if success {
		w.state = stateSent
	} else {
		w.state = stateComposing
	}
}

// finish moves the session to a terminal state and stops both
// subscriptions. It returns false when the session is already terminal, so
// racing triggers (send success, cancel, timeout, external deletion)
// converge on a single transition. While a delivery is in flight only the
// delivery itself may finish the session: sending never transitions to
// cancelled or expired, and a failed send drops back to composing where
// those triggers apply again.
func (w *watch) finish(to sessionState) bool {
	w.mu.Lock()
	if w.state.terminal() || (w.state == stateSending && to != stateSent) {
		w.mu.Unlock()
		return false
	}
	w.state = to
	w.mu.Unlock()

	w.msgSub.Stop()
	w.compSub.Stop()
	return true
}

// subscription is one cancellable, TTL-bounded event listener. A session
// holds two — one for owner messages, one for component interactions — and
// both share the session TTL; either one reaching its bound finishes the
// whole session through the watch.
type subscription struct {
	mu      sync.Mutex
	stopped bool
	timer   *time.Timer
}

func newSubscription(ttl time.Duration, onExpire func()) *subscription {
	sub := &subscription{}
	sub.timer = time.AfterFunc(ttl, func() {
		sub.mu.Lock()
		fired := !sub.stopped
		sub.stopped = true
		sub.mu.Unlock()
		if fired {
			onExpire()
		}
	})
	return sub
}

// Stop cancels the subscription. Safe to call more than once, including
// concurrently with its own expiry.
func (s *subscription) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.timer.Stop()
}

// Active reports whether the subscription still accepts events.
func (s *subscription) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.stopped
}

// watchRegistry tracks the live watches of this process, keyed by the
// session channel id that every event stream is scoped to.
type watchRegistry struct {
	mu      sync.RWMutex
	watches map[string]*watch
}

func newWatchRegistry() *watchRegistry {
	return &watchRegistry{watches: make(map[string]*watch)}
}

func (r *watchRegistry) add(w *watch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watches[w.channelID] = w
}

func (r *watchRegistry) byChannel(channelID string) *watch {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.watches[channelID]
}

func (r *watchRegistry) remove(channelID string) *watch {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.watches[channelID]
	delete(r.watches, channelID)
	return w
}
