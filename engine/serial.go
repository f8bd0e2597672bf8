package engine

import (
	"context"
	"sync"

	"go.uber.org/multierr"
)

// Serial serializes RPC calls to an Engine.
// The engine connection is not assumed safe for concurrent use from the foreground and the controller.
type Serial struct {
	mu  sync.Mutex
	eng Engine
}

// NewSerial creates Serial.
// eng may be nil, indicating the engine is disconnected.
func NewSerial(eng Engine) *Serial {
	return &Serial{eng: eng}
}

// Do invokes fn while holding the engine lock.
// If the engine is disconnected, returns ErrDisconnected without invoking fn.
func (s *Serial) Do(fn func(eng Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eng == nil {
		return ErrDisconnected
	}
	return fn(s.eng)
}

// Swap replaces the Engine, and returns the previous one.
// It waits for any in-progress Do to complete.
func (s *Serial) Swap(eng Engine) (old Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, s.eng = s.eng, eng
	return old
}

// WithPaused invokes fn between PauseAll and ResumeAll.
// ResumeAll is invoked if PauseAll succeeds, even if fn fails or panics.
// If PauseAll fails, fn is not invoked.
func WithPaused(ctx context.Context, eng Engine, fn func() error) (e error) {
	if e = eng.PauseAll(ctx); e != nil {
		return e
	}
	defer func() {
		e = multierr.Append(e, eng.ResumeAll(ctx))
	}()
	return fn()
}
