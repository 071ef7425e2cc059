package forms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"
)

const defaultDebounce = 400 * time.Millisecond

// ErrValueTaken is the field error when the remote predicate reports the
// value as already in use.
var ErrValueTaken = errors.New("already in use")

// CheckFunc asks the server whether a value is taken.
type CheckFunc func(ctx context.Context, value string) (exists bool, err error)

// RemoteCheck attaches a debounced remote predicate to one field. Edits
// within the quiet period collapse into a single request; only the newest
// issued check may resolve into the field's error state; a transport failure
// fails closed. The empty value never reaches the server, the synchronous
// required rule owns that case.
type RemoteCheck struct {
	name     string
	check    CheckFunc
	debounce time.Duration

	mu           sync.Mutex
	timer        *time.Timer
	pendingValue string
	pending      bool
	seq          uint64
	firedSeq     uint64
	err          error
	waiters      []chan struct{}
}

func NewRemoteCheck(name string, debounce time.Duration, check CheckFunc) *RemoteCheck {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &RemoteCheck{name: name, debounce: debounce, check: check}
}

// Input registers an edit. The remote call is issued only after the quiet
// period passes with no further edits; every edit invalidates any check
// still in flight for an older value.
func (rc *RemoteCheck) Input(ctx context.Context, value string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.timer != nil {
		rc.timer.Stop()
		rc.timer = nil
	}
	rc.seq++

	if strings.TrimSpace(value) == "" {
		rc.err = nil
		rc.pending = false
		rc.settleLocked()
		return
	}

	rc.pending = true
	rc.pendingValue = value
	seq := rc.seq
	rc.timer = time.AfterFunc(rc.debounce, func() {
		rc.fire(ctx, seq, value)
	})
}

// Cancel drops any armed timer and invalidates in-flight checks, clearing the
// field's remote error. Used when the consumer goes away.
func (rc *RemoteCheck) Cancel() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.timer != nil {
		rc.timer.Stop()
		rc.timer = nil
	}
	rc.seq++
	rc.err = nil
	rc.pending = false
	rc.settleLocked()
}

func (rc *RemoteCheck) Pending() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.pending
}

// Err is the field's current remote validation error, nil when the last
// resolved check passed.
func (rc *RemoteCheck) Err() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.err
}

// Settle is the submission barrier: it flushes an armed debounce timer,
// waits for the outstanding check to resolve, and returns the field's
// error. Submission must call it instead of racing a pending token.
func (rc *RemoteCheck) Settle(ctx context.Context) error {
	rc.mu.Lock()
	if rc.timer != nil {
		rc.timer.Stop()
		rc.timer = nil
		seq, value := rc.seq, rc.pendingValue
		rc.mu.Unlock()
		rc.fire(ctx, seq, value)
		rc.mu.Lock()
	}
	for rc.pending {
		ch := make(chan struct{})
		rc.waiters = append(rc.waiters, ch)
		rc.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		rc.mu.Lock()
	}
	err := rc.err
	rc.mu.Unlock()
	return err
}

func (rc *RemoteCheck) fire(ctx context.Context, seq uint64, value string) {
	rc.mu.Lock()
	if seq != rc.seq || seq == rc.firedSeq {
		rc.mu.Unlock()
		return
	}
	rc.firedSeq = seq
	rc.mu.Unlock()

	exists, err := rc.check(ctx, value)

	rc.mu.Lock()
	defer rc.mu.Unlock()
	if seq != rc.seq {
		// superseded while in flight, a newer edit owns the field now
		return
	}
	switch {
	case err != nil:
		// fail closed: an unverifiable value must not pass
		logger.WithError(err).WithField("field", rc.name).Warn("remote check failed")
		rc.err = fmt.Errorf("could not verify %s: %w", rc.name, err)
	case exists:
		rc.err = fmt.Errorf("%s %w", rc.name, ErrValueTaken)
	default:
		rc.err = nil
	}
	rc.pending = false
	rc.settleLocked()
}

func (rc *RemoteCheck) settleLocked() {
	for _, ch := range rc.waiters {
		close(ch)
	}
	rc.waiters = nil
}
