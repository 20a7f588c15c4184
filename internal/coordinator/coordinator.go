// Package coordinator admits at most one resolve operation per session.
package coordinator

import (
	"sync"

	"github.com/yoockh/faqchat/internal/utils"
)

// Handle identifies an admitted operation. The zero Handle is never issued.
type Handle struct {
	seq uint64
}

func (h Handle) Valid() bool { return h.seq != 0 }

// Coordinator enforces single-flight resolve semantics: a new operation is
// rejected, not queued, while another one is outstanding.
type Coordinator struct {
	mu      sync.Mutex
	seq     uint64
	current uint64 // 0 when idle

	onChange func(busy bool)

	// Transitions take a ticket under mu; callbacks run in ticket order.
	tickets  uint64
	notifyMu sync.Mutex
	turn     *sync.Cond
	serving  uint64
}

func New() *Coordinator {
	c := &Coordinator{}
	c.turn = sync.NewCond(&c.notifyMu)
	return c
}

// OnChange registers fn to be called after every busy/idle transition. fn runs
// outside the state lock, so IsBusy never waits on it, but calls are
// serialised in transition order. fn must not call Begin, Complete or Cancel.
func (c *Coordinator) OnChange(fn func(busy bool)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Coordinator) Begin() (Handle, error) {
	c.mu.Lock()
	if c.current != 0 {
		c.mu.Unlock()
		return Handle{}, utils.E(utils.CodeConflict, "Coordinator.Begin", "a request is already in progress", utils.ErrAlreadyInFlight)
	}
	c.seq++
	c.current = c.seq
	h := Handle{seq: c.seq}
	c.notify(true)
	return h, nil
}

// Complete releases the operation identified by h. A handle that is not the
// one currently tracked (stale or already released) is rejected.
func (c *Coordinator) Complete(h Handle) error {
	return c.release(h, "Coordinator.Complete")
}

// Cancel releases h the same way Complete does; it exists so callers can tell
// an abandoned operation from a finished one in their own bookkeeping.
func (c *Coordinator) Cancel(h Handle) error {
	return c.release(h, "Coordinator.Cancel")
}

func (c *Coordinator) release(h Handle, op string) error {
	c.mu.Lock()
	if !h.Valid() || c.current != h.seq {
		c.mu.Unlock()
		return utils.E(utils.CodeConflict, op, "handle does not match the current operation", utils.ErrUnknownHandle)
	}
	c.current = 0
	c.notify(false)
	return nil
}

// notify must be called with mu held; it releases mu.
func (c *Coordinator) notify(busy bool) {
	ticket := c.tickets
	c.tickets++
	fn := c.onChange
	c.mu.Unlock()

	c.notifyMu.Lock()
	for c.serving != ticket {
		c.turn.Wait()
	}
	defer func() {
		c.serving++
		c.turn.Broadcast()
		c.notifyMu.Unlock()
	}()
	if fn != nil {
		fn(busy)
	}
}

func (c *Coordinator) IsBusy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != 0
}
