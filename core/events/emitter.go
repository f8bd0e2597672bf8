// Package events provides a simple event emitter.
package events

import (
	"io"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/chuckpreslar/emission"
)

// Emitter is a simple event emitter.
// It wraps emission.Emitter so that every registration returns an io.Closer that cancels exactly that registration.
type Emitter struct {
	*emission.Emitter
	mu   sync.Mutex
	regs map[any][]*registration
}

// NewEmitter creates a simple event emitter.
func NewEmitter() *Emitter {
	return &Emitter{
		Emitter: emission.NewEmitter(),
		regs:    map[any][]*registration{},
	}
}

// On registers a callback when an event occurs.
func (emitter *Emitter) On(event, listener any) io.Closer {
	return emitter.add(event, listener, false)
}

// Once registers a callback that is invoked at most once.
func (emitter *Emitter) Once(event, listener any) io.Closer {
	return emitter.add(event, listener, true)
}

func (emitter *Emitter) add(event, listener any, once bool) io.Closer {
	fn := reflect.ValueOf(listener)
	r := &registration{emitter: emitter, event: event}
	r.wrapper = reflect.MakeFunc(fn.Type(), func(args []reflect.Value) []reflect.Value {
		if !r.live.Load() || (once && !r.fired.CompareAndSwap(false, true)) {
			return zeroResults(fn.Type())
		}
		if once {
			r.Close()
		}
		return fn.Call(args)
	}).Interface()
	r.live.Store(true)

	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	emitter.regs[event] = append(emitter.regs[event], r)
	emitter.Emitter.On(event, r.wrapper)
	return r
}

// remove cancels a registration.
// emission.Emitter.Off matches listeners by code pointer, which is shared by every wrapper,
// so the other registrations of the same event are added back.
func (emitter *Emitter) remove(r *registration) {
	emitter.mu.Lock()
	defer emitter.mu.Unlock()

	regs := emitter.regs[r.event]
	for i, reg := range regs {
		if reg != r {
			continue
		}
		regs = append(regs[:i:i], regs[i+1:]...)
		emitter.Emitter.Off(r.event, r.wrapper)
		for _, other := range regs {
			emitter.Emitter.On(r.event, other.wrapper)
		}
		break
	}

	if len(regs) == 0 {
		delete(emitter.regs, r.event)
	} else {
		emitter.regs[r.event] = regs
	}
}

type registration struct {
	emitter *Emitter
	event   any
	wrapper any
	live    atomic.Bool
	fired   atomic.Bool
}

func (r *registration) Close() error {
	if r.live.CompareAndSwap(true, false) {
		r.emitter.remove(r)
	}
	return nil
}

func zeroResults(typ reflect.Type) (results []reflect.Value) {
	for i := 0; i < typ.NumOut(); i++ {
		results = append(results, reflect.Zero(typ.Out(i)))
	}
	return results
}
