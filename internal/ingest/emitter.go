package ingest

import (
	"sync"

	"github.com/6529-Collections/salesnode/pkg/sales/models"
	"go.uber.org/zap"
)

type SaleHandler func(event models.SaleEvent)

// Emitter fans sale events out to registered handlers. The zero value is ready
// to use.
type Emitter struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[uint64]SaleHandler
}

// Subscribe registers h and returns a function that removes it again.
func (e *Emitter) Subscribe(h SaleHandler) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		e.handlers = make(map[uint64]SaleHandler)
	}
	id := e.nextID
	e.nextID++
	e.handlers[id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.handlers, id)
			e.mu.Unlock()
		})
	}
}

// Emit calls every handler synchronously. A panicking handler is logged and
// does not prevent delivery to the others.
func (e *Emitter) Emit(event models.SaleEvent) {
	e.mu.RLock()
	handlers := make([]SaleHandler, 0, len(e.handlers))
	for _, h := range e.handlers {
		handlers = append(handlers, h)
	}
	e.mu.RUnlock()

	for _, h := range handlers {
		e.deliver(h, event)
	}
}

func (e *Emitter) SubscriberCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers)
}

func (e *Emitter) deliver(h SaleHandler, event models.SaleEvent) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("Sale handler panicked", zap.Any("panic", r))
		}
	}()
	h(event)
}
