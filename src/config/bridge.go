package config

import (
	"sort"
	"sync"
)

// Binding ties a target field to a setting key read as Kind.
type Binding struct {
	Key  string
	Kind Kind
}

// Bindings maps a target's field name to its setting.
type Bindings map[string]Binding

// Target receives setting values. value is bool, uint, int, string or
// []string according to the binding's Kind. Targets must be comparable
// (usually a pointer).
type Target interface {
	Apply(field string, value any)
}

// GroupTarget is notified once after a batch of fields attached under a
// group key was applied, so dependent state can be rebuilt in one place.
type GroupTarget interface {
	Target
	ApplyGroup(group string)
}

// Bridge pushes settings into targets on the loop goroutine: the current
// values immediately on Attach, then every change.
type Bridge struct {
	store *Store
	post  func(func())

	mu   sync.Mutex
	subs map[Target][]*Subscription

	unsubscribe func()
}

// NewBridge starts listening to store. post delivers closures to the loop.
func NewBridge(store *Store, post func(func())) *Bridge {
	b := &Bridge{store: store, post: post, subs: map[Target][]*Subscription{}}
	b.unsubscribe = store.Subscribe(b.changed)
	return b
}

// Subscription is one Attach. Close releases it; no value is applied after
// Close returns on the loop goroutine.
type Subscription struct {
	bridge   *Bridge
	target   Target
	bindings Bindings
	group    string
	closed   bool // guarded by bridge.mu
}

// Attach binds target's fields and pushes their current values.
func (b *Bridge) Attach(bindings Bindings, target Target, group string) *Subscription {
	sub := &Subscription{bridge: b, target: target, bindings: bindings, group: group}
	b.mu.Lock()
	b.subs[target] = append(b.subs[target], sub)
	b.mu.Unlock()

	fields := make([]string, 0, len(bindings))
	for f := range bindings {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	b.post(func() { sub.apply(fields) })
	return sub
}

// Detach closes every subscription of target.
func (b *Bridge) Detach(target Target) {
	b.mu.Lock()
	subs := b.subs[target]
	delete(b.subs, target)
	for _, s := range subs {
		s.closed = true
	}
	b.mu.Unlock()
}

// Close detaches everything and stops listening to the store.
func (b *Bridge) Close() {
	b.unsubscribe()
	b.mu.Lock()
	for t, subs := range b.subs {
		for _, s := range subs {
			s.closed = true
		}
		delete(b.subs, t)
	}
	b.mu.Unlock()
}

func (b *Bridge) changed(key string) {
	b.mu.Lock()
	var hits []struct {
		sub    *Subscription
		fields []string
	}
	for _, subs := range b.subs {
		for _, s := range subs {
			var fields []string
			for f, bind := range s.bindings {
				if bind.Key == key {
					fields = append(fields, f)
				}
			}
			if len(fields) > 0 {
				sort.Strings(fields)
				hits = append(hits, struct {
					sub    *Subscription
					fields []string
				}{s, fields})
			}
		}
	}
	b.mu.Unlock()

	for _, h := range hits {
		h := h
		b.post(func() { h.sub.apply(h.fields) })
	}
}

// Close releases the subscription.
func (s *Subscription) Close() {
	b := s.bridge
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	subs := b.subs[s.target]
	for i, other := range subs {
		if other == s {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(b.subs, s.target)
	} else {
		b.subs[s.target] = subs
	}
}

func (s *Subscription) isClosed() bool {
	s.bridge.mu.Lock()
	defer s.bridge.mu.Unlock()
	return s.closed
}

func (s *Subscription) apply(fields []string) {
	if s.isClosed() {
		return
	}
	for _, f := range fields {
		bind := s.bindings[f]
		s.target.Apply(f, s.bridge.store.Value(bind.Key, bind.Kind))
	}
	if s.group == "" {
		return
	}
	if g, ok := s.target.(GroupTarget); ok {
		g.ApplyGroup(s.group)
	}
}
