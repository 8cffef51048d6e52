package display

import "sync"

// RenderRequest is one pending unit of work for the compositor.
type RenderRequest struct {
	Text   string
	Cursor CursorPosition
	Full   bool // render must be a full redraw, not incremental
	Seq    uint64
}

// RenderQueue is a fixed-capacity circular buffer of render requests. The
// mutex guards against a secondary producer (a resize signal handler) pushing
// concurrently with the main loop; the queue never grows.
type RenderQueue struct {
	mu       sync.Mutex
	requests []RenderRequest
	head     int
	count    int
}

func NewRenderQueue(capacity int) (*RenderQueue, error) {
	if capacity <= 0 {
		return nil, ErrInvalidParam
	}
	return &RenderQueue{requests: make([]RenderRequest, capacity)}, nil
}

func (q *RenderQueue) Push(r RenderRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == len(q.requests) {
		return ErrQueueFull
	}
	q.requests[(q.head+q.count)%len(q.requests)] = r
	q.count++
	return nil
}

func (q *RenderQueue) Pop() (RenderRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return RenderRequest{}, false
	}
	r := q.requests[q.head]
	q.requests[q.head] = RenderRequest{}
	q.head = (q.head + 1) % len(q.requests)
	q.count--
	return r, true
}

func (q *RenderQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

func (q *RenderQueue) Cap() int { return len(q.requests) }
