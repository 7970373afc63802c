package authflow

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/halcyonlabs/authflow/state"
)

// ResendThrottle defines a public type used by authflow APIs.
//
// ResendThrottle enforces a cooldown between verification mails per account.
// The last-sent instant is persisted in the state store so a restart resumes
// an in-flight cooldown instead of resetting it.
type ResendThrottle struct {
	store  state.Store
	prefix string
	window time.Duration

	now func() time.Time
}

func newResendThrottle(store state.Store, prefix string, window time.Duration) *ResendThrottle {
	return &ResendThrottle{
		store:  store,
		prefix: prefix,
		window: window,
		now:    time.Now,
	}
}

func (t *ResendThrottle) key(email string) string {
	return t.prefix + ":" + email
}

func (t *ResendThrottle) lastSent(ctx context.Context, email string) (time.Time, bool) {
	data, err := t.store.Get(ctx, t.key(email))
	if err != nil {
		return time.Time{}, false
	}
	unix, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}

// CanSend reports whether the cooldown for email has elapsed. A store read
// failure answers true: a broken local store must not block verification
// mail entirely.
func (t *ResendThrottle) CanSend(ctx context.Context, email string) bool {
	last, ok := t.lastSent(ctx, email)
	if !ok {
		return true
	}
	return t.now().Sub(last) >= t.window
}

// RemainingSeconds returns the whole seconds left in the cooldown, rounded
// up, or 0 when sending is allowed.
func (t *ResendThrottle) RemainingSeconds(ctx context.Context, email string) int {
	last, ok := t.lastSent(ctx, email)
	if !ok {
		return 0
	}
	remaining := t.window - t.now().Sub(last)
	if remaining <= 0 {
		return 0
	}
	secs := int((remaining + time.Second - 1) / time.Second)
	return secs
}

// RecordSent marks a mail as sent now, starting a fresh cooldown.
func (t *ResendThrottle) RecordSent(ctx context.Context, email string) {
	unix := strconv.FormatInt(t.now().Unix(), 10)
	_ = t.store.Put(ctx, t.key(email), []byte(unix))
}

// Clear removes the cooldown for email.
func (t *ResendThrottle) Clear(ctx context.Context, email string) {
	_ = t.store.Delete(ctx, t.key(email))
}

// Countdown defines a public type used by authflow APIs.
//
// Countdown ticks once per second with the remaining cooldown so a resend
// button can display a live timer. Stop must be called when the screen goes
// away.
type Countdown struct {
	C <-chan int

	stop     chan struct{}
	stopOnce sync.Once
}

// Stop describes the stop operation and its observable behavior.
//
// Stop ends the countdown. Safe to call more than once.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// StartCountdown describes the startcountdown operation and its observable behavior.
//
// StartCountdown emits the remaining seconds for email once per second,
// finishing with a 0 before the channel closes.
func (t *ResendThrottle) StartCountdown(ctx context.Context, email string) *Countdown {
	ch := make(chan int, 1)
	c := &Countdown{C: ch, stop: make(chan struct{})}

	go func() {
		defer close(ch)

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			remaining := t.RemainingSeconds(ctx, email)
			select {
			case ch <- remaining:
			default:
			}
			if remaining == 0 {
				return
			}

			select {
			case <-ticker.C:
			case <-c.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return c
}
