package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	// WaitTimeout is the maximum time a client can wait for notifications
	WaitTimeout = 25 * time.Second

	// WaitChannelBuffer size for notification channels
	WaitChannelBuffer = 1
)

// WaitRegistry manages long-polling clients waiting for a game's move count
// to change
type WaitRegistry struct {
	mu       sync.RWMutex
	waiters  map[string][]*waitRequest // gameID → waiting clients
	shutdown chan struct{}
	wg       sync.WaitGroup
}

type waitRequest struct {
	moveCount int
	notify    chan struct{}
	done      chan struct{}
	once      sync.Once
	timer     *time.Timer
}

// fire wakes the client once and releases the watcher goroutine
func (r *waitRequest) fire() {
	r.once.Do(func() {
		r.timer.Stop()
		r.notify <- struct{}{}
		close(r.done)
	})
}

// NewWaitRegistry creates a new wait registry
func NewWaitRegistry() *WaitRegistry {
	return &WaitRegistry{
		waiters:  make(map[string][]*waitRequest),
		shutdown: make(chan struct{}),
	}
}

// RegisterWait returns a channel that receives once when the move count of
// gameID moves away from moveCount, the game is removed, WaitTimeout elapses
// or the registry shuts down.
func (w *WaitRegistry) RegisterWait(ctx context.Context, gameID string, moveCount int) <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()

	req := &waitRequest{
		moveCount: moveCount,
		notify:    make(chan struct{}, WaitChannelBuffer),
		done:      make(chan struct{}),
	}
	req.timer = time.AfterFunc(WaitTimeout, req.fire)

	w.waiters[gameID] = append(w.waiters[gameID], req)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		select {
		case <-ctx.Done():
		case <-req.done:
		case <-w.shutdown:
			req.fire()
		}
		w.removeWaiter(gameID, req)
	}()

	return req.notify
}

// NotifyGame wakes every waiter whose known move count is stale
func (w *WaitRegistry) NotifyGame(gameID string, currentMoveCount int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	kept := w.waiters[gameID][:0]
	for _, req := range w.waiters[gameID] {
		if req.moveCount != currentMoveCount {
			req.fire()
			continue
		}
		kept = append(kept, req)
	}
	if len(kept) == 0 {
		delete(w.waiters, gameID)
	} else {
		w.waiters[gameID] = kept
	}
}

// RemoveGame wakes and forgets all waiters of a deleted game
func (w *WaitRegistry) RemoveGame(gameID string) {
	w.mu.Lock()
	waitList := w.waiters[gameID]
	delete(w.waiters, gameID)
	w.mu.Unlock()

	for _, req := range waitList {
		req.fire()
	}
}

// Waiting reports how many clients wait on gameID
func (w *WaitRegistry) Waiting(gameID string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.waiters[gameID])
}

// Shutdown releases all waiters and waits for their goroutines
func (w *WaitRegistry) Shutdown(timeout time.Duration) error {
	close(w.shutdown)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("wait registry shutdown timed out after %s", timeout)
	}
}

func (w *WaitRegistry) removeWaiter(gameID string, req *waitRequest) {
	w.mu.Lock()
	defer w.mu.Unlock()

	req.timer.Stop()
	waitList := w.waiters[gameID]
	for i, waiter := range waitList {
		if waiter == req {
			w.waiters[gameID] = append(waitList[:i], waitList[i+1:]...)
			break
		}
	}
	if len(w.waiters[gameID]) == 0 {
		delete(w.waiters, gameID)
	}
}
