// Package events is a small typed pub-sub bus for cross-cutting auth
// notifications. It replaces the global string-keyed browser event bus the
// legacy front end used: listeners subscribe to typed names, emitters fire
// and let zero or more listeners react.
package events

import (
	"sync"
	"time"
)

// Name identifies an event type.
type Name string

const (
	LoginSuccess       Name = "auth.login_success"
	LoginFailure       Name = "auth.login_failure"
	Logout             Name = "auth.logout"
	TokenRefreshed     Name = "auth.token_refreshed"
	SessionExpired     Name = "auth.session_expired"
	AccountLocked      Name = "auth.account_locked"
	SuspiciousActivity Name = "auth.suspicious_activity"
	PinSetup           Name = "auth.pin_setup"
	PinSetupFailed     Name = "auth.pin_setup_failed"
	PinChanged         Name = "auth.pin_changed"
	PinChangeFailed    Name = "auth.pin_change_failed"
	PinDisabled        Name = "auth.pin_disabled"
	PinDisableFailed   Name = "auth.pin_disable_failed"
)

// Event carries one notification.
type Event struct {
	Name    Name
	At      time.Time
	Payload any
}

// Bus dispatches events to subscribed listeners. Dispatch is synchronous
// and in subscription order; a panicking listener is absorbed so it cannot
// break the emitting flow or the other listeners.
type Bus struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[Name]map[int]func(Event)
	catchAll  map[int]func(Event)
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[Name]map[int]func(Event)),
		catchAll:  make(map[int]func(Event)),
	}
}

// Subscribe registers fn for one event name and returns an unsubscribe
// function. Unsubscribing twice is harmless.
func (b *Bus) Subscribe(name Name, fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	if b.listeners[name] == nil {
		b.listeners[name] = make(map[int]func(Event))
	}
	b.listeners[name][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners[name], id)
	}
}

// SubscribeAll registers fn for every event. Used by audit logging.
func (b *Bus) SubscribeAll(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.catchAll[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.catchAll, id)
	}
}

// Emit delivers the event to all current subscribers.
func (b *Bus) Emit(name Name, payload any) {
	event := Event{Name: name, At: time.Now(), Payload: payload}

	b.mu.RLock()
	fns := make([]func(Event), 0, len(b.listeners[name])+len(b.catchAll))
	for _, fn := range b.listeners[name] {
		fns = append(fns, fn)
	}
	for _, fn := range b.catchAll {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		safeCall(fn, event)
	}
}

func safeCall(fn func(Event), event Event) {
	defer func() {
		_ = recover()
	}()
	fn(event)
}
