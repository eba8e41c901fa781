package events

import (
	"sync"

	"go.uber.org/zap"

	"storefront/pkg/logger"
)

type Listener interface {
	Handle(Event)
}

type ListenerFunc func(Event)

func (f ListenerFunc) Handle(ev Event) { f(ev) }

type subscription struct {
	id       uint64
	listener Listener
}

// Bus delivers every published event synchronously to the listeners
// registered at that moment, in registration order. Nothing is buffered:
// events published with no listener are dropped.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
	log    *zap.Logger
}

func NewBus(log *zap.Logger) *Bus {
	return &Bus{log: logger.OrNop(log).With(zap.String("component", "events"))}
}

// Subscribe registers l and returns a func that removes it again.
func (b *Bus) Subscribe(l Listener) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, listener: l})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs...)
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(s, ev)
	}
}

func (b *Bus) deliver(s subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("listener panicked",
				zap.String("event", string(ev.Kind())),
				zap.Any("panic", r),
			)
		}
	}()
	s.listener.Handle(ev)
}
