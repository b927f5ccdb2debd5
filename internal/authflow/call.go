package authflow

import (
	"context"
	"errors"
	"sync/atomic"
)

// Result is how an admitted call settled.
type Result int

const (
	ResultRejected  Result = iota // never admitted, see the returned error
	ResultSucceeded               // provider accepted; state advanced
	ResultFailed                  // provider failed; State().Error holds the message
	ResultDiscarded               // settled after Close or GoBack; only pending was released
)

func (r Result) String() string {
	switch r {
	case ResultSucceeded:
		return "succeeded"
	case ResultFailed:
		return "failed"
	case ResultDiscarded:
		return "discarded"
	default:
		return "rejected"
	}
}

// Call is a provider request admitted by the Controller. The pending flag is already set when
// the caller receives it and is cleared when Run returns, whatever the outcome. A Call that is
// never Run keeps the flag set until the Controller is closed.
type Call struct {
	ctrl    *Controller
	op      string
	epoch   uint64
	do      func(ctx context.Context) error
	apply   func() []func() // runs under the controller lock on success, returns hooks to fire
	started atomic.Bool
}

func (c *Controller) newCallLocked(op string, do func(ctx context.Context) error, apply func() []func()) *Call {
	c.logger.Debug("auth request start", "op", op, "view", c.step.view())
	k := &Call{
		ctrl:  c,
		op:    op,
		epoch: c.epoch,
		do:    do,
		apply: apply,
	}
	c.inflight = k
	return k
}

// Op names the provider operation, e.g. "send_otp".
func (k *Call) Op() string {
	return k.op
}

// Run performs the provider call exactly once. Subsequent calls return ResultDiscarded.
func (k *Call) Run(ctx context.Context) Result {
	if !k.started.CompareAndSwap(false, true) {
		return ResultDiscarded
	}

	c := k.ctrl
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, c.timeout, ErrRequestTimeout)
		defer cancel()
	}

	settled := false
	defer func() {
		if !settled {
			// provider panicked, still release the pending flag
			c.release(k)
		}
	}()

	err := k.do(ctx)
	if err != nil && errors.Is(context.Cause(ctx), ErrRequestTimeout) {
		err = ErrRequestTimeout
	}

	result := c.settle(k, err)
	settled = true
	return result
}

func (c *Controller) settle(k *Call, err error) Result {
	c.mu.Lock()
	c.releaseLocked(k)
	if k.epoch != c.epoch {
		c.mu.Unlock()
		c.logger.Debug("auth request result discarded", "op", k.op)
		return ResultDiscarded
	}

	if err != nil {
		perr := &ProviderError{Op: k.op, Err: err}
		c.errMsg = perr.Error()
		c.mu.Unlock()
		c.logger.Warn("auth request failed", "op", k.op, "error", err)
		return ResultFailed
	}

	hooks := k.apply()
	c.mu.Unlock()

	c.logger.Debug("auth request done", "op", k.op)
	c.fire(hooks...)
	return ResultSucceeded
}

func (c *Controller) release(k *Call) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked(k)
}

// releaseLocked clears pending if k still owns it. After Close a newer call may own it instead.
func (c *Controller) releaseLocked(k *Call) {
	if c.inflight == k {
		c.pending = false
		c.inflight = nil
	}
}
