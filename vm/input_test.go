package vm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInput(t *testing.T) {
	assert := assert.New(t)

	in := NewInput()
	_, ok := in.Read()
	assert.False(ok)

	in.Insert("")
	assert.Equal(0, in.Len())

	in.Insert("ab")
	in.Insert("\n")
	assert.Equal(3, in.Len())

	select {
	case <-in.Ready():
	default:
		t.Fatal("insert did not signal")
	}

	for _, expected := range []byte("ab\n") {
		value, ok := in.Read()
		assert.True(ok)
		assert.Equal(expected, value)
	}
	_, ok = in.Read()
	assert.False(ok)

	in.Insert("xyz")
	in.Reset()
	assert.Equal(0, in.Len())
	select {
	case <-in.Ready():
		t.Fatal("reset left a signal")
	default:
	}
}

func TestInput_Producers(t *testing.T) {
	assert := assert.New(t)

	in := NewInput()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				in.Insert("x")
			}
		}()
	}

	count := 0
	reader := make(chan struct{})
	go func() {
		defer close(reader)
		for count < 800 {
			if _, ok := in.Read(); ok {
				count++
				continue
			}
			<-in.Ready()
		}
	}()

	wg.Wait()
	<-reader

	assert.Equal(800, count)
	assert.Equal(0, in.Len())
}

func TestBreakpoints(t *testing.T) {
	assert := assert.New(t)

	bp := &Breakpoints{}
	assert.False(bp.Has(5))
	assert.Empty(bp.List())

	bp.Add(9)
	bp.Add(5)
	bp.Add(5)
	assert.True(bp.Has(5))
	assert.Equal([]Word{5, 9}, bp.List())

	bp.Remove(9)
	bp.Remove(100)
	assert.Equal([]Word{5}, bp.List())
}

func TestControl(t *testing.T) {
	assert := assert.New(t)

	ctl := newControl()
	assert.False(ctl.IsStopped())
	assert.False(ctl.IsPaused())

	ctl.Pause()
	assert.True(ctl.IsPaused())
	ctl.Stop()
	assert.True(ctl.IsStopped())

	select {
	case <-ctl.Signal():
	default:
		t.Fatal("no signal")
	}

	ctl.Insert("hi")
	ctl.AddBreakpoint(3)
	ctl.reset()
	assert.False(ctl.IsStopped())
	assert.False(ctl.IsPaused())
	assert.Equal(0, ctl.Input.Len())
	assert.True(ctl.Breakpoints.Has(3))
}
