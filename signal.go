package main

import "sync"

// signal fires at most once; every waiter observes the same resolution. Used
// for one-shot events like window-closed and want-to-quit.
type signal struct {
	once sync.Once
	ch   chan struct{}
}

func newSignal() *signal {
	return &signal{ch: make(chan struct{})}
}

// newFiredSignal returns a signal that is already resolved.
func newFiredSignal() *signal {
	s := newSignal()
	s.fire()
	return s
}

func (s *signal) fire() {
	s.once.Do(func() { close(s.ch) })
}

func (s *signal) done() <-chan struct{} {
	return s.ch
}

func (s *signal) fired() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
