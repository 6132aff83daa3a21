// Package eventbus routes named, typed events from I/O completion
// goroutines into the control logic. The registry is built once during
// assembly and sealed before the first dispatch, so lookups need no
// locking. Dispatch is synchronous on the delivering goroutine and
// contains handler faults: nothing a handler does can unwind the stack
// of the I/O callback that published the event.
package eventbus

import (
	"fmt"
	"sync/atomic"

	"icc.tech/parkgate/internal/log"
	"icc.tech/parkgate/internal/metrics"
)

// Bus maps event names to handlers. Exactly one handler per name.
type Bus struct {
	handlers map[string]Handler
	sealed   atomic.Bool

	dispatched int64
	unhandled  int64
	faults     int64
}

// Stats is a point-in-time snapshot of bus counters.
type Stats struct {
	Dispatched int64
	Unhandled  int64
	Faults     int64
}

func New() *Bus {
	return &Bus{handlers: make(map[string]Handler)}
}

// Subscribe registers the handler for name. It must be called before
// Seal; registration after sealing or a duplicate name is an error.
func (b *Bus) Subscribe(name string, handler Handler) error {
	if b.sealed.Load() {
		return fmt.Errorf("event bus is sealed, cannot subscribe %q", name)
	}
	if handler == nil {
		return fmt.Errorf("nil handler for event %q", name)
	}
	if _, exists := b.handlers[name]; exists {
		return fmt.Errorf("event %q already subscribed", name)
	}
	b.handlers[name] = handler
	return nil
}

// Seal freezes the registry. After Seal the handler map is read-only
// and Dispatch may be called from any goroutine.
func (b *Bus) Seal() {
	b.sealed.Store(true)
}

// Dispatch delivers one event to its handler. An unknown name is logged
// and dropped. A handler error or panic is contained here: the caller
// is usually an I/O completion callback whose stack must not unwind.
func (b *Bus) Dispatch(name string, payload Payload) {
	handler, ok := b.handlers[name]
	if !ok {
		atomic.AddInt64(&b.unhandled, 1)
		metrics.EventsUnhandledTotal.Inc()
		log.GetLogger().WithField("event", name).Warn("no handler for event, dropped")
		return
	}

	atomic.AddInt64(&b.dispatched, 1)
	metrics.EventsDispatchedTotal.WithLabelValues(name).Inc()
	b.invoke(name, handler, Event{Name: name, Payload: payload})
}

func (b *Bus) invoke(name string, handler Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&b.faults, 1)
			metrics.EventHandlerFaultsTotal.WithLabelValues(name, "panic").Inc()
			log.GetLogger().WithFields(map[string]interface{}{
				"event": name,
				"panic": fmt.Sprint(r),
			}).Error("event handler panicked, contained")
		}
	}()

	if err := handler(ev); err != nil {
		atomic.AddInt64(&b.faults, 1)
		metrics.EventHandlerFaultsTotal.WithLabelValues(name, "error").Inc()
		log.GetLogger().WithField("event", name).WithError(err).Error("event handler failed")
	}
}

// GetStats returns a snapshot of the bus counters.
func (b *Bus) GetStats() Stats {
	return Stats{
		Dispatched: atomic.LoadInt64(&b.dispatched),
		Unhandled:  atomic.LoadInt64(&b.unhandled),
		Faults:     atomic.LoadInt64(&b.faults),
	}
}
