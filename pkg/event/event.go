// Package event is the in-process dispatcher the import pipeline uses to
// announce batch lifecycle moments.
//
// Usage:
//
//	event.Listen(services.EventBatchFinished, func(payload interface{}) {
//	    s := payload.(services.Summary)
//	    logger.Info("batch finished", "batch_id", s.BatchID)
//	})
package event

import "sync"

// Handler receives an event payload.
type Handler func(payload interface{})

var (
	mu       sync.RWMutex
	handlers = map[string][]Handler{}
)

// Listen registers a handler for the named event.
func Listen(name string, handler Handler) {
	mu.Lock()
	defer mu.Unlock()
	handlers[name] = append(handlers[name], handler)
}

// Fire dispatches the event synchronously to every registered handler, in
// registration order. Handlers run on the caller's goroutine, so a batch
// worker firing an event sees its listeners complete before moving on.
func Fire(name string, payload interface{}) {
	mu.RLock()
	hs := make([]Handler, len(handlers[name]))
	copy(hs, handlers[name])
	mu.RUnlock()

	for _, h := range hs {
		h(payload)
	}
}

// Flush drops all listeners. Tests use it between cases.
func Flush() {
	mu.Lock()
	defer mu.Unlock()
	handlers = map[string][]Handler{}
}
