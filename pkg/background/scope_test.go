package background

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func producer(ctx context.Context, id string, data chan<- int) {
	for i := 0; ; i++ {
		select {
		case data <- i:
		case <-ctx.Done():
			fmt.Println(id, "done")
			return
		}
	}
}

func ExampleScope() {
	data := make(chan int)

	scope := NewScope(context.Background())
	scope.Go(func(ctx context.Context) { producer(ctx, "*PRODUCER*", data) })

	<-data
	scope.Cancel()
	fmt.Println(scope.Wait(time.Second))

	// Output:
	// *PRODUCER* done
	// true
}

func ExampleScope_expiredOrActive() {
	scope1 := NewScope(context.Background())
	defer scope1.Cancel()
	scope2 := NewScope(context.Background())
	scope2.Cancel()
	fmt.Println(scope1.Expired(), scope2.Expired())

	// Output:
	// false true
}

func TestScope_parentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	scope := NewScope(parent)

	var stopped atomic.Int32
	for i := 0; i < 3; i++ {
		scope.Go(func(ctx context.Context) {
			<-ctx.Done()
			stopped.Add(1)
		})
	}

	assert.False(t, scope.Expired())
	cancel()
	assert.True(t, scope.Wait(time.Second))
	assert.True(t, scope.Expired())
	assert.EqualValues(t, 3, stopped.Load())
}

func TestScope_WaitTimeout(t *testing.T) {
	scope := NewScope(context.Background())
	release := make(chan struct{})
	scope.Go(func(context.Context) { <-release })

	assert.False(t, scope.Wait(20*time.Millisecond), "member is still running")

	close(release)
	assert.True(t, scope.Wait(0))
}
