package mock

import (
	"context"
	"io"
	"net/http"
	"sync"

	healthbridge "github.com/vitalsync/health-bridge"
)

// Transport is a scriptable healthbridge.Transport for tests. Responses
// and errors are queued in order; once the queue is drained it serves a
// 200 with a static body. Every request (including its read body) is
// recorded for assertions.
type Transport struct {
	mu        sync.Mutex
	queue     []step
	requests  []*http.Request
	bodies    [][]byte
	sendCount int
}

type step struct {
	resp *healthbridge.Response
	err  error
}

func NewTransport() *Transport {
	return &Transport{}
}

// Queue appends a response to be served in order.
func (t *Transport) Queue(resp *healthbridge.Response) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queue = append(t.queue, step{resp: resp})
}

// QueueError appends a transport-level failure (no HTTP response).
func (t *Transport) QueueError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queue = append(t.queue, step{err: err})
}

// QueueStatus is shorthand for a response with just a status and body.
func (t *Transport) QueueStatus(status int, body string) {
	t.Queue(&healthbridge.Response{
		StatusCode: status,
		Headers:    map[string]string{},
		Body:       []byte(body),
	})
}

func (t *Transport) RoundTrip(ctx context.Context, req *http.Request) (*healthbridge.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests = append(t.requests, req)
	t.bodies = append(t.bodies, body)
	t.sendCount++

	if len(t.queue) > 0 {
		next := t.queue[0]
		t.queue = t.queue[1:]
		if next.err != nil {
			return nil, next.err
		}
		return next.resp, nil
	}

	return &healthbridge.Response{
		StatusCode: 200,
		Headers:    map[string]string{},
		Body:       []byte(`{"success":true}`),
	}, nil
}

// Sends reports how many requests reached the transport.
func (t *Transport) Sends() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sendCount
}

// Request returns the i-th recorded request, nil if out of range.
func (t *Transport) Request(i int) *http.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.requests) {
		return nil
	}
	return t.requests[i]
}

// Body returns the i-th recorded request body.
func (t *Transport) Body(i int) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.bodies) {
		return nil
	}
	return t.bodies[i]
}
