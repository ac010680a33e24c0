package realtime

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

type ConnState int32

const (
	StateConnecting ConnState = iota
	StateAuthenticated
	StateSubscribed
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateSubscribed:
		return "subscribed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Conn is the transport-independent side of one live client connection.
// Outbound frames are queued on a bounded buffer drained by the transport.
type Conn struct {
	id      uuid.UUID
	userID  uuid.UUID
	managed map[uuid.UUID]struct{}

	state     atomic.Int32
	lagging   atomic.Bool
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewConn(bufferSize int) *Conn {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Conn{
		id:   uuid.New(),
		send: make(chan []byte, bufferSize),
		done: make(chan struct{}),
	}
}

func (c *Conn) ID() uuid.UUID       { return c.id }
func (c *Conn) UserID() uuid.UUID   { return c.userID }
func (c *Conn) State() ConnState    { return ConnState(c.state.Load()) }
func (c *Conn) Send() <-chan []byte { return c.send }

// Done is closed once the connection reaches the Closed state.
func (c *Conn) Done() <-chan struct{} { return c.done }

// IsManager reports whether the user manages at least one company.
func (c *Conn) IsManager() bool { return len(c.managed) > 0 }

func (c *Conn) Manages(companyID uuid.UUID) bool {
	_, ok := c.managed[companyID]
	return ok
}

// Authenticate binds the connection to a user. It only succeeds from Connecting.
func (c *Conn) Authenticate(userID uuid.UUID, managedCompanies []uuid.UUID) bool {
	if c.State() != StateConnecting {
		return false
	}
	c.userID = userID
	c.managed = make(map[uuid.UUID]struct{}, len(managedCompanies))
	for _, id := range managedCompanies {
		c.managed[id] = struct{}{}
	}
	return c.state.CompareAndSwap(int32(StateConnecting), int32(StateAuthenticated))
}

func (c *Conn) markSubscribed() bool {
	return c.state.CompareAndSwap(int32(StateAuthenticated), int32(StateSubscribed))
}

// Close moves the connection to Closed from any state. The send buffer is
// never closed so late deliveries cannot panic.
func (c *Conn) Close() {
	c.state.Store(int32(StateClosed))
	c.closeOnce.Do(func() { close(c.done) })
}

// TrySend queues a frame without waiting.
func (c *Conn) TrySend(payload []byte) bool {
	if c.State() == StateClosed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// enqueue waits for buffer space until ctx is done.
func (c *Conn) enqueue(ctx context.Context, payload []byte) bool {
	if c.TrySend(payload) {
		return true
	}
	if c.State() == StateClosed {
		return false
	}

	select {
	case c.send <- payload:
		return true
	case <-c.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Lagging reports whether the connection missed a delivery deadline and has
// not drained its buffer since.
func (c *Conn) Lagging() bool { return c.lagging.Load() }

func (c *Conn) setLagging(v bool) { c.lagging.Store(v) }
