package backend

import (
	"context"
	"sync"
	"time"
)

// Status is the outcome of a completed request.
type Status int

const (
	// InProgress means the request has not completed yet.
	InProgress Status = iota
	Success
	Failure
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "in_progress"
	}
}

// Request is the handle of one asynchronous backend operation. Callers poll
// IsCompleted and read Status, Err and Result once it reports true.
type Request struct {
	mu        sync.Mutex
	completed bool
	status    Status
	err       error
	result    []Record
	done      chan struct{}
}

// NewRequest returns a pending request. Backends complete it exactly once
// with Complete.
func NewRequest() *Request {
	return &Request{done: make(chan struct{})}
}

// IsCompleted reports whether the backend has finished the request.
func (r *Request) IsCompleted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

// Status returns InProgress until the request completes.
func (r *Request) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Err is the backend's failure, nil on success.
func (r *Request) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Result holds the records produced by the request (listed or added packages).
func (r *Request) Result() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// Done is closed on completion, for callers that prefer to select.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Complete records the outcome. Calls after the first are ignored.
func (r *Request) Complete(result []Record, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completed {
		return
	}
	r.completed = true
	r.result = result
	r.err = err
	if err != nil {
		r.status = Failure
	} else {
		r.status = Success
	}
	close(r.done)
}

// Completed returns a request that has already finished, which is handy for
// backends that can answer synchronously.
func Completed(result []Record, err error) *Request {
	r := NewRequest()
	r.Complete(result, err)
	return r
}

// Wait polls req every interval until it completes or ctx is done. It never
// blocks on the backend itself.
func Wait(ctx context.Context, req *Request, interval time.Duration) error {
	if req.IsCompleted() {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if req.IsCompleted() {
				return nil
			}
		}
	}
}
