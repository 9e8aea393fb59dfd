// Package authstate models the signed-in state of a visitor and delivers changes to subscribers.
package authstate

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/observability"
)

// User is the signed-in visitor as reported by the auth provider.
type User struct {
	UID         string
	Email       string
	DisplayName string
}

// State is either Guest or Authenticated.
type State interface {
	Name() string
	isState()
}

// Guest means no one is signed in.
type Guest struct{}

// Authenticated carries the signed-in user.
type Authenticated struct {
	User User
}

func (Guest) Name() string         { return "guest" }
func (Authenticated) Name() string { return "authenticated" }
func (Guest) isState()             {}
func (Authenticated) isState()     {}

// Listener receives every state change.
type Listener func(State)

// Stream is a push-based source of state changes.
type Stream interface {
	// Subscribe registers l and returns a function that removes it. If a state has already
	// been published, l is called with it immediately.
	Subscribe(l Listener) (cancel func())
}

// Broadcaster is a Stream that remembers the latest state.
type Broadcaster struct {
	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
	last      State
}

// NewBroadcaster returns a broadcaster with no state published yet.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[int]Listener)}
}

// Publish records s and notifies every subscriber.
func (b *Broadcaster) Publish(s State) {
	if s == nil {
		s = Guest{}
	}
	b.mu.Lock()
	b.last = s
	listeners := make([]Listener, 0, len(b.listeners))
	for id := 0; id < b.nextID; id++ {
		if l, ok := b.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	b.mu.Unlock()

	for _, l := range listeners {
		l(s)
	}
}

// Subscribe implements Stream.
func (b *Broadcaster) Subscribe(l Listener) func() {
	if l == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	last := b.last
	b.mu.Unlock()

	if last != nil {
		l(last)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// Current returns the latest published state, Guest if none was published.
func (b *Broadcaster) Current() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return Guest{}
	}
	return b.last
}

type contextKey struct{}

// WithStream attaches b to ctx.
func WithStream(ctx context.Context, b *Broadcaster) context.Context {
	return context.WithValue(ctx, contextKey{}, b)
}

// FromContext returns the request's broadcaster. Without one, a broadcaster that has
// published Guest is returned.
func FromContext(ctx context.Context) *Broadcaster {
	if ctx != nil {
		if b, ok := ctx.Value(contextKey{}).(*Broadcaster); ok && b != nil {
			return b
		}
	}
	b := NewBroadcaster()
	b.Publish(Guest{})
	return b
}

// Resolver turns a request into a state.
type Resolver interface {
	Resolve(r *http.Request) (State, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(r *http.Request) (State, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(r *http.Request) (State, error) {
	return f(r)
}

// GuestResolver treats every visitor as a guest.
var GuestResolver = ResolverFunc(func(*http.Request) (State, error) {
	return Guest{}, nil
})

// Middleware resolves the visitor's state and publishes it on a request-scoped broadcaster.
// Resolution failures are logged and the visitor is treated as a guest.
func Middleware(resolver Resolver) func(http.Handler) http.Handler {
	if resolver == nil {
		resolver = GuestResolver
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b := NewBroadcaster()
			state, err := resolver.Resolve(r)
			if err != nil {
				observability.FromContext(r.Context()).Warn("auth state resolution failed", zap.Error(err))
				state = Guest{}
			}
			b.Publish(state)
			next.ServeHTTP(w, r.WithContext(WithStream(r.Context(), b)))
		})
	}
}
