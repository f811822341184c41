// Package notify delivers "new slot opened" notifications to a coach's approved clients.
//
// A Dispatcher receives one Message per slot-creation event carrying the whole
// recipient set and reports per-recipient outcomes as data. Delivery to each
// recipient is attempted independently and is bounded by a per-recipient timeout.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrTimeout is recorded for a recipient whose delivery did not finish in time.
var ErrTimeout = errors.New("delivery timed out")

// Summary is the human readable description of an opened slot.
type Summary struct {
	Date       string `json:"date"`
	Time       string `json:"time"`
	BookingURL string `json:"booking_url"`
}

// Message is a single slot-opened notification for a set of recipients.
type Message struct {
	CoachName  string
	Summary    Summary
	Recipients []string
}

// RecipientError describes a failed delivery.
type RecipientError struct {
	Recipient string `json:"recipient"`
	Err       error  `json:"-"`
}

func (e RecipientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Recipient, e.Err)
}

func (e RecipientError) Unwrap() error {
	return e.Err
}

// MarshalJSON reports the failure reason next to the recipient.
func (e RecipientError) MarshalJSON() ([]byte, error) {
	out := struct {
		Recipient string `json:"recipient"`
		Reason    string `json:"reason,omitempty"`
	}{Recipient: e.Recipient}
	if e.Err != nil {
		out.Reason = e.Err.Error()
	}
	return json.Marshal(out)
}

// Result is the aggregate outcome of one Notify call.
type Result struct {
	Sent   int              `json:"sent"`
	Failed int              `json:"failed"`
	Errors []RecipientError `json:"errors,omitempty"`
}

// Dispatcher delivers a Message to every recipient. It never fails as a whole:
// delivery problems are reported in the Result.
type Dispatcher interface {
	Notify(ctx context.Context, msg Message) Result
}

// SendFunc delivers to one recipient and should honour ctx.
type SendFunc func(ctx context.Context, recipient string) error

// FanOut calls send once per distinct recipient with at most concurrency calls
// in flight. Each call gets its own timeout; a call still running when the
// timeout fires is abandoned and counted as ErrTimeout, so FanOut returns in
// bounded time even if send ignores its context.
func FanOut(ctx context.Context, recipients []string, timeout time.Duration, concurrency int, send SendFunc) Result {
	unique := dedupe(recipients)
	if len(unique) == 0 {
		return Result{}
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	errs := make([]error, len(unique))

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, rcpt := range unique {
		g.Go(func() error {
			errs[i] = sendOne(ctx, rcpt, timeout, send)
			return nil
		})
	}
	_ = g.Wait()

	var res Result
	for i, err := range errs {
		if err == nil {
			res.Sent++
			continue
		}
		res.Failed++
		res.Errors = append(res.Errors, RecipientError{Recipient: unique[i], Err: err})
	}
	return res
}

func sendOne(ctx context.Context, recipient string, timeout time.Duration, send SendFunc) error {
	if timeout <= 0 {
		return send(ctx, recipient)
	}

	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- send(rctx, recipient)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return err
	case <-rctx.Done():
		if errors.Is(rctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return rctx.Err()
	}
}

func dedupe(recipients []string) []string {
	seen := make(map[string]struct{}, len(recipients))
	out := make([]string, 0, len(recipients))
	for _, r := range recipients {
		key := strings.ToLower(strings.TrimSpace(r))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, strings.TrimSpace(r))
	}
	return out
}
