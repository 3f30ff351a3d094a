// Package eventbus - внутрипроцессная шина: события доставляются слушателям асинхронно.
package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Event interface {
	Name() string
}

type Listener func(ctx context.Context, event Event) error

const listenerTimeout = time.Minute

type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
	inflight  sync.WaitGroup
	logger    *zap.Logger
}

func New(logger *zap.Logger) *Bus {
	return &Bus{listeners: make(map[string][]Listener), logger: logger}
}

func (b *Bus) Subscribe(eventName string, listener Listener) {
	b.mu.Lock()
	b.listeners[eventName] = append(b.listeners[eventName], listener)
	b.mu.Unlock()
}

// Publish не ждёт слушателей. Контекст вызывающего не наследуется:
// слушатель получает собственный таймаут и переживает завершение запроса.
func (b *Bus) Publish(_ context.Context, event Event) {
	b.mu.RLock()
	listeners := append([]Listener(nil), b.listeners[event.Name()]...)
	b.mu.RUnlock()

	for _, l := range listeners {
		b.inflight.Add(1)
		go b.deliver(l, event)
	}
}

func (b *Bus) deliver(l Listener, event Event) {
	defer b.inflight.Done()
	ctx, cancel := context.WithTimeout(context.Background(), listenerTimeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("паника в слушателе: %v", r)
			}
		}()
		return l(ctx, event)
	}()
	if err != nil {
		b.logger.Error("Ошибка в обработчике события", zap.String("event", event.Name()), zap.Error(err))
	}
}

// Wait дожидается уже запущенных слушателей, используется при остановке.
func (b *Bus) Wait() {
	b.inflight.Wait()
}
