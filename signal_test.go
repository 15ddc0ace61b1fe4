package main

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalFiresOnce(t *testing.T) {
	s := newSignal()
	assert.False(t, s.fired())

	select {
	case <-s.done():
		t.Fatal("signal resolved before firing")
	default:
	}

	var wg sync.WaitGroup
	for range [8]struct{}{} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.fire()
		}()
	}
	wg.Wait()

	assert.True(t, s.fired())
	<-s.done()
}

func TestNewFiredSignal(t *testing.T) {
	s := newFiredSignal()
	assert.True(t, s.fired())
	<-s.done()
	s.fire()
}
