package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFanOutDeliversToEveryRecipientIndependently(t *testing.T) {
	var mu sync.Mutex
	var delivered []string

	res := FanOut(context.Background(),
		[]string{"a@example.com", "broken@example.com", "c@example.com"},
		time.Second, 4,
		func(ctx context.Context, to string) error {
			if to == "broken@example.com" {
				return errors.New("mailbox unavailable")
			}
			mu.Lock()
			delivered = append(delivered, to)
			mu.Unlock()
			return nil
		})

	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "broken@example.com", res.Errors[0].Recipient)
	assert.ElementsMatch(t, []string{"a@example.com", "c@example.com"}, delivered)
}

func TestFanOutDeduplicatesRecipients(t *testing.T) {
	var calls atomic.Int32

	res := FanOut(context.Background(),
		[]string{"a@example.com", "A@example.com ", "", "b@example.com"},
		0, 2,
		func(ctx context.Context, to string) error {
			calls.Add(1)
			return nil
		})

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, res.Sent)
	assert.Zero(t, res.Failed)
}

func TestFanOutTimesOutStuckRecipient(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	res := FanOut(context.Background(),
		[]string{"slow@example.com", "fast@example.com"},
		50*time.Millisecond, 2,
		func(ctx context.Context, to string) error {
			if to == "slow@example.com" {
				<-release // ignores ctx on purpose
			}
			return nil
		})

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], ErrTimeout)
}

func TestFanOutEmpty(t *testing.T) {
	res := FanOut(context.Background(), nil, time.Second, 1, func(ctx context.Context, to string) error {
		t.Fatal("send must not be called")
		return nil
	})
	assert.Equal(t, Result{}, res)
}

func TestLogDispatcher(t *testing.T) {
	d := NewLogDispatcher(zap.NewNop())
	res := d.Notify(context.Background(), Message{
		CoachName:  "Coach Carter",
		Recipients: []string{"a@example.com", "b@example.com"},
	})
	assert.Equal(t, 2, res.Sent)
	assert.Zero(t, res.Failed)
}

func TestRenderEmail(t *testing.T) {
	email, err := RenderEmail(Message{
		CoachName: "Serena <Coach>",
		Summary: Summary{
			Date:       "Monday, October 19",
			Time:       "3:00 PM - 4:00 PM",
			BookingURL: "https://lessons.example.com/book/abc",
		},
	}, "jane@example.com")
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", email.To)
	assert.Equal(t, "New last-minute opening from Serena <Coach>!", email.Subject)
	assert.Contains(t, email.HTML, "Monday, October 19")
	assert.Contains(t, email.HTML, "3:00 PM - 4:00 PM")
	assert.Contains(t, email.HTML, `href="https://lessons.example.com/book/abc"`)
	assert.Contains(t, email.HTML, "Serena &lt;Coach&gt;")
}

type fakeSender struct {
	mu   sync.Mutex
	sent []Email
	fail map[string]error
}

func (f *fakeSender) Send(ctx context.Context, email Email) error {
	if err := f.fail[email.To]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, email)
	return nil
}

func TestEmailDispatcher(t *testing.T) {
	sender := &fakeSender{fail: map[string]error{"bad@example.com": errors.New("550 no such user")}}
	d := NewEmailDispatcher(sender, time.Second, 3, zap.NewNop())

	res := d.Notify(context.Background(), Message{
		CoachName:  "Coach",
		Summary:    Summary{BookingURL: "http://x/book/1"},
		Recipients: []string{"a@example.com", "bad@example.com", "b@example.com"},
	})

	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, res.Failed)
	assert.Len(t, sender.sent, 2)
	for _, e := range sender.sent {
		assert.Contains(t, e.HTML, "http://x/book/1")
	}
}

func TestResultJSONCarriesFailureReason(t *testing.T) {
	res := Result{
		Sent:   1,
		Failed: 1,
		Errors: []RecipientError{{Recipient: "a@example.com", Err: errors.New("mailbox full")}},
	}

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `{"recipient":"a@example.com","reason":"mailbox full"}`)

	raw, err = json.Marshal(RecipientError{Recipient: "b@example.com"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"recipient":"b@example.com"}`, string(raw))
}
