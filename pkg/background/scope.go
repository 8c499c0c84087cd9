package background

import (
	"context"
	"sync"
	"time"
)

// Scope - abstract concurrency scope: a cancellable context shared by a group of goroutines
// and a wait group to join them.
type Scope struct {
	ctx       context.Context
	ctxCancel context.CancelFunc
	scope     sync.WaitGroup
}

// NewScope - concurrency scope builder. Scope is cancelled when parent is done.
func NewScope(parent context.Context) *Scope {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Scope{
		ctx:       ctx,
		ctxCancel: cancel,
	}
}

// Context - return background context
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Add - notifies scope to register processes/workers/layers.
// Based on sync.WaitGroup.
func (s *Scope) Add(delta int) {
	s.scope.Add(delta)
}

// Done - notifies scope when process/worker/layer is done.
// Based on sync.WaitGroup.
func (s *Scope) Done() {
	s.scope.Done()
}

// Go - runs f in background as a member of the scope.
// The caller must ensure Go is not racing with Wait on an empty scope.
func (s *Scope) Go(f func(ctx context.Context)) {
	s.scope.Add(1)
	go func() {
		defer s.scope.Done()
		f(s.ctx)
	}()
}

// Expired - true after Cancel or when parent context is done.
func (s *Scope) Expired() bool {
	return s.ctx.Err() != nil
}

// Cancel - cancels scope context without waiting for members.
func (s *Scope) Cancel() {
	s.ctxCancel()
}

// Wait - waits all members are done. Returns false if timeout has expired first.
// Zero or negative timeout means wait without limit.
func (s *Scope) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.scope.Wait()
		close(done)
	}()
	if timeout <= 0 {
		<-done
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
