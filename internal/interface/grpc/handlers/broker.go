package handlers

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

type listener[T any] struct {
	id string
	ch chan T
}

// broker fans out events to every subscribed listener.
type broker[T any] struct {
	lock      *sync.Mutex
	listeners []*listener[T]
}

func newBroker[T any]() *broker[T] {
	return &broker[T]{
		lock:      &sync.Mutex{},
		listeners: make([]*listener[T], 0),
	}
}

func (h *broker[T]) pushListener(l *listener[T]) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.listeners = append(h.listeners, l)
}

func (h *broker[T]) removeListener(id string) {
	h.lock.Lock()
	defer h.lock.Unlock()

	for i, listener := range h.listeners {
		if listener.id == id {
			h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
			return
		}
	}
}

func (h *broker[T]) numOfListeners() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.listeners)
}

// publish never blocks: a listener whose buffer is full misses the event.
func (h *broker[T]) publish(ev T) {
	h.lock.Lock()
	defer h.lock.Unlock()

	for _, l := range h.listeners {
		select {
		case l.ch <- ev:
		default:
			log.Warnf("listener %s is too slow, dropping event", l.id)
		}
	}
}
