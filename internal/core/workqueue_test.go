package core_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scc-go/sccd/internal/core"
)

func TestWorkQueueDispatchRunsExactlyOneItem(t *testing.T) {
	q := core.NewWorkQueue(8)
	var ran []string
	q.Post(func() { ran = append(ran, "a") })
	q.Post(func() { ran = append(ran, "b") })

	q.Dispatch()
	assert.Equal(t, []string{"a"}, ran)

	q.Dispatch()
	assert.Equal(t, []string{"a", "b"}, ran)
}

func TestWorkQueueReadyRearmsWhileItemsRemain(t *testing.T) {
	q := core.NewWorkQueue(8)
	q.Post(func() {})
	q.Post(func() {})

	select {
	case <-q.Ready():
	default:
		t.Fatal("expected Ready to fire after Post")
	}

	q.Dispatch() // one item left, Ready must be re-armed
	select {
	case <-q.Ready():
	default:
		t.Fatal("expected Ready to re-arm while items remain queued")
	}
}

func TestWorkQueuePostFromConcurrentGoroutinesIsSerializedByDispatch(t *testing.T) {
	q := core.NewWorkQueue(64)
	const n = 50

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			q.Post(func() {})
		}()
	}
	wg.Wait()

	count := 0
	for i := 0; i < n; i++ {
		<-q.Ready()
		q.Dispatch()
		count++
	}
	assert.Equal(t, n, count)
}

func TestPostAndWaitBlocksUntilMainloopRunsIt(t *testing.T) {
	q := core.NewWorkQueue(1)
	done := make(chan struct{})
	var result int

	go func() {
		q.PostAndWait(func() { result = 42 })
		close(done)
	}()

	<-q.Ready()
	q.Dispatch()

	<-done
	require.Equal(t, 42, result)
}
