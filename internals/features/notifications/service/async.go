package service

import (
	"context"
	"log"
	"sync"
	"time"
)

// Async hands events to a single background sender so request handlers never wait on email.
type Async struct {
	next  Notifier
	queue chan Event
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAsync(next Notifier, buffer int) *Async {
	if buffer <= 0 {
		buffer = 64
	}
	a := &Async{next: next, queue: make(chan Event, buffer), done: make(chan struct{})}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for ev := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := a.next.Notify(ctx, ev); err != nil {
			log.Printf("[WARN] notification %s to %s failed: %v", ev.Kind, ev.Email, err)
		}
		cancel()
	}
}

// Notify never blocks; a full queue or a closed notifier drops the event.
func (a *Async) Notify(_ context.Context, ev Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		log.Printf("[WARN] notifier closed, dropping %s for %s", ev.Kind, ev.Email)
		return nil
	}
	select {
	case a.queue <- ev:
	default:
		log.Printf("[WARN] notification queue full, dropping %s for %s", ev.Kind, ev.Email)
	}
	return nil
}

// Close drains the queue. It is safe to call more than once.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}
