package identity

import (
	"sync"

	"github.com/google/uuid"
)

type EventType string

const (
	EventLoginSuccess        EventType = "login_success"
	EventLoginFailure        EventType = "login_failure"
	EventAcquireTokenSuccess EventType = "acquire_token_success"
	EventLogoutSuccess       EventType = "logout_success"
)

type Event struct {
	Type   EventType
	Result *AuthResult
	Err    error
}

// EventListener observes provider events. Listeners run synchronously on the
// goroutine that raised the event and must not block.
type EventListener interface {
	OnEvent(event Event)
}

// EventListenerFunc adapts a function to EventListener.
type EventListenerFunc func(Event)

func (f EventListenerFunc) OnEvent(event Event) {
	f(event)
}

// EventRegistry is a multi-subscriber observer list. Every Add creates a new
// subscription with its own id; a component that must observe once registers once.
// Listeners are notified in registration order.
type EventRegistry struct {
	mu        sync.RWMutex
	order     []string
	listeners map[string]EventListener
}

func (r *EventRegistry) Add(listener EventListener) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listeners == nil {
		r.listeners = make(map[string]EventListener)
	}
	id := uuid.New().String()
	r.listeners[id] = listener
	r.order = append(r.order, id)
	return id
}

func (r *EventRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listeners[id]; !ok {
		return
	}
	delete(r.listeners, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *EventRegistry) Emit(event Event) {
	r.mu.RLock()
	listeners := make([]EventListener, 0, len(r.order))
	for _, id := range r.order {
		listeners = append(listeners, r.listeners[id])
	}
	r.mu.RUnlock()

	for _, l := range listeners {
		l.OnEvent(event)
	}
}

func (r *EventRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
