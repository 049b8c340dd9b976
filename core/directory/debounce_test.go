package directory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_lastCallWins(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var (
		mu  sync.Mutex
		ran []string
	)
	for _, term := range []string{"j", "ja", "jan"} {
		term := term
		d.Trigger(func(context.Context, func() bool) {
			mu.Lock()
			defer mu.Unlock()
			ran = append(ran, term)
		})
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ran) == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"jan"}, ran)
}

func TestDebouncer_supersededCallIsCancelled(t *testing.T) {
	d := NewDebouncer(time.Millisecond)

	started := make(chan struct{})
	done := make(chan bool, 1)
	d.Trigger(func(ctx context.Context, current func() bool) {
		close(started)
		<-ctx.Done()
		done <- current()
	})

	<-started
	d.Trigger(func(context.Context, func() bool) {})

	select {
	case stillCurrent := <-done:
		assert.False(t, stillCurrent)
	case <-time.After(time.Second):
		t.Fatal("superseded call was not cancelled")
	}
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)

	fired := make(chan struct{}, 1)
	d.Trigger(func(context.Context, func() bool) { fired <- struct{}{} })
	d.Stop()

	select {
	case <-fired:
		t.Fatal("stopped call fired")
	case <-time.After(50 * time.Millisecond):
	}
}
