package serviceworker

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ExtendableEvent keeps an event open until every task registered with
// WaitUntil has finished.
type ExtendableEvent struct {
	ctx  context.Context
	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

func newExtendableEvent(ctx context.Context) *ExtendableEvent {
	return &ExtendableEvent{ctx: ctx}
}

// WaitUntil starts task and extends the event's lifetime until it returns.
func (e *ExtendableEvent) WaitUntil(task func(ctx context.Context) error) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				e.fail(fmt.Errorf("panic: %v", rec))
			}
		}()
		if err := task(e.ctx); err != nil {
			e.fail(err)
		}
	}()
}

func (e *ExtendableEvent) fail(err error) {
	e.mu.Lock()
	e.errs = append(e.errs, err)
	e.mu.Unlock()
}

func (e *ExtendableEvent) wait() error {
	e.wg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	return errors.Join(e.errs...)
}
