package pipeline

import "sync"

// cancelToken is the per-job cancellation flag checked at step entry
type cancelToken struct {
	once sync.Once
	ch   chan struct{}
}

func newCancelToken() *cancelToken {
	return &cancelToken{ch: make(chan struct{})}
}

func (t *cancelToken) Cancel() {
	t.once.Do(func() { close(t.ch) })
}

func (t *cancelToken) Done() <-chan struct{} {
	return t.ch
}

func (t *cancelToken) Cancelled() bool {
	select {
	case <-t.ch:
		return true
	default:
		return false
	}
}
