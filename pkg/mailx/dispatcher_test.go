package mailx_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abraxas-365/expomail/pkg/errx"
	"github.com/Abraxas-365/expomail/pkg/mailx"
	"github.com/Abraxas-365/expomail/pkg/mailx/mailxmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func directMsg() mailx.DirectMessage {
	return mailx.DirectMessage{To: "a@x.com", Subject: "S", HTML: "<p>B</p>"}
}

func TestSendEmail_Success(t *testing.T) {
	tr := &fakeTransport{}
	log := mailxmemory.NewDeliveryLog()
	d := newDispatcher(t, tr, mailx.WithDeliveryLog(log))

	res, err := d.SendEmail(context.Background(), directMsg())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "msg-1", res.MessageID)
	assert.False(t, res.Queued)
	assert.Equal(t, 0, d.QueueLength())

	sent := tr.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, `"Expo" <noreply@expo.test>`, sent[0].From)

	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, mailx.LogSent, entries[0].Status)
	assert.NotNil(t, entries[0].SentAt)
}

func TestSendEmail_ValidationIsNotQueued(t *testing.T) {
	tests := []struct {
		name string
		msg  mailx.DirectMessage
	}{
		{"missing recipient", mailx.DirectMessage{Subject: "S", HTML: "<p>B</p>"}},
		{"missing subject", mailx.DirectMessage{To: "a@x.com", HTML: "<p>B</p>"}},
		{"missing body", mailx.DirectMessage{To: "a@x.com", Subject: "S"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{}
			d := newDispatcher(t, tr)

			res, err := d.SendEmail(context.Background(), tt.msg)
			require.Error(t, err)
			assert.True(t, errx.IsCode(err, mailx.ErrValidation))
			assert.Equal(t, 400, errx.HTTPStatusOf(err))
			assert.False(t, res.Success)
			assert.False(t, res.Queued)
			assert.Equal(t, 0, d.QueueLength())
			assert.Equal(t, 0, tr.Calls())
		})
	}
}

func TestSendEmail_TransportFailureQueuesExactlyOnce(t *testing.T) {
	tr := &fakeTransport{sendFn: failFirst}
	log := mailxmemory.NewDeliveryLog()
	d := newDispatcher(t, tr, mailx.WithDeliveryLog(log))
	ctx := context.Background()

	res, err := d.SendEmail(ctx, directMsg())
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, mailx.ErrTransport))
	assert.False(t, res.Success)
	assert.True(t, res.Queued)
	assert.Contains(t, res.Error, "connection reset")

	require.Equal(t, 1, d.QueueLength())
	snap := d.QueueSnapshot()
	assert.Equal(t, 1, snap[0].Attempts)
	assert.Equal(t, "direct", snap[0].Kind)

	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, mailx.LogFailed, entries[0].Status)

	sweep, err := d.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, mailx.SweepResult{Success: true, Processed: 1, Failed: 0, Remaining: 0}, sweep)
	assert.Equal(t, 0, d.QueueLength())
}

func TestProcessQueue_FailureDoesNotDoubleQueue(t *testing.T) {
	tr := &fakeTransport{sendFn: alwaysFail}
	d := newDispatcher(t, tr)
	ctx := context.Background()

	_, err := d.SendEmail(ctx, directMsg())
	require.Error(t, err)
	require.Equal(t, 1, d.QueueLength())

	res, err := d.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, d.QueueLength())
	assert.Equal(t, 1, res.Remaining)
	assert.Equal(t, 2, d.QueueSnapshot()[0].Attempts)
}

func TestProcessQueue_BoundedRetry(t *testing.T) {
	tr := &fakeTransport{sendFn: alwaysFail}
	d := newDispatcher(t, tr)
	ctx := context.Background()

	q, err := d.QueueEmail(ctx, directMsg())
	require.NoError(t, err)
	require.True(t, q.Success)

	var attempts []int
	for i := 0; i < 2; i++ {
		res, err := d.ProcessQueue(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Failed)
		snap := d.QueueSnapshot()
		require.Len(t, snap, 1)
		attempts = append(attempts, snap[0].Attempts)
	}

	res, err := d.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, mailx.SweepResult{Success: true, Processed: 0, Failed: 1, Remaining: 0}, res)
	attempts = append(attempts, 3)

	assert.Equal(t, []int{1, 2, 3}, attempts)
	assert.Equal(t, 0, d.QueueLength())
	assert.Equal(t, 3, tr.Calls())

	res, err = d.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, mailx.SweepResult{Success: true}, res)
	assert.Equal(t, 3, tr.Calls())
}

func TestProcessQueue_AutoQueuedGetsThreeTotalAttempts(t *testing.T) {
	tr := &fakeTransport{sendFn: alwaysFail}
	d := newDispatcher(t, tr)
	ctx := context.Background()

	_, _ = d.SendEmail(ctx, directMsg())
	_, _ = d.ProcessQueue(ctx)
	res, err := d.ProcessQueue(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, d.QueueLength())
	assert.Equal(t, 3, tr.Calls())
}

func TestProcessQueue_ScheduledMessageIsDeferred(t *testing.T) {
	clock := newClock()
	tr := &fakeTransport{}
	d := newDispatcher(t, tr, mailx.WithClock(clock.Now))
	ctx := context.Background()

	later := clock.Now().Add(time.Hour)
	msg := directMsg()
	msg.SendAt = &later
	_, err := d.QueueEmail(ctx, msg)
	require.NoError(t, err)

	res, err := d.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, mailx.SweepResult{Success: true, Processed: 0, Failed: 0, Remaining: 1}, res)
	assert.Equal(t, 0, d.QueueSnapshot()[0].Attempts)
	assert.Equal(t, 0, tr.Calls())

	clock.Advance(time.Hour)
	res, err = d.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, mailx.SweepResult{Success: true, Processed: 1, Failed: 0, Remaining: 0}, res)
}

func TestQueueEmail_EndToEnd(t *testing.T) {
	d := newDispatcher(t, &fakeTransport{})
	ctx := context.Background()

	q, err := d.QueueEmail(ctx, mailx.DirectMessage{To: "a@x.com", Subject: "S", HTML: "<p>B</p>"})
	require.NoError(t, err)
	assert.True(t, q.Success)
	assert.Regexp(t, `^\d+-[0-9a-f]{8}$`, q.QueueID)

	res, err := d.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, mailx.SweepResult{Success: true, Processed: 1, Failed: 0, Remaining: 0}, res)
}

func TestQueueEmail_RejectsInvalid(t *testing.T) {
	d := newDispatcher(t, &fakeTransport{})

	_, err := d.QueueEmail(context.Background(), nil)
	assert.True(t, errx.IsCode(err, mailx.ErrValidation))

	_, err = d.QueueEmail(context.Background(), mailx.TemplateMessage{To: "a@x.com"})
	assert.True(t, errx.IsCode(err, mailx.ErrValidation))

	assert.Equal(t, 0, d.QueueLength())
}

func TestQueueEmail_TemplateMessageRenderedAtSweep(t *testing.T) {
	tr := &fakeTransport{}
	d := newDispatcher(t, tr)
	ctx := context.Background()

	_, err := d.QueueEmail(ctx, &mailx.TemplateMessage{
		To:         "b@x.com",
		TemplateID: "welcome",
		Data:       map[string]any{"name": "Ann"},
	})
	require.NoError(t, err)
	assert.Equal(t, "template", d.QueueSnapshot()[0].Kind)

	res, err := d.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)

	sent := tr.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "<h1>Welcome Ann</h1>", sent[0].HTML)
	assert.Equal(t, "Welcome", sent[0].Subject)
}

func TestProcessQueue_MissingTemplateIsDroppedWithoutRetry(t *testing.T) {
	tr := &fakeTransport{}
	d := newDispatcher(t, tr)
	ctx := context.Background()

	_, err := d.QueueEmail(ctx, mailx.TemplateMessage{To: "b@x.com", TemplateID: "gone"})
	require.NoError(t, err)

	res, err := d.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, mailx.SweepResult{Success: true, Failed: 1}, res)
	assert.Equal(t, 0, tr.Calls())
}

func TestSendTemplateEmail_NotFoundIsTerminal(t *testing.T) {
	tr := &fakeTransport{}
	d := newDispatcher(t, tr)

	before := d.QueueLength()
	res, err := d.SendTemplateEmail(context.Background(), mailx.TemplateMessage{
		To:         "a@x.com",
		TemplateID: "does-not-exist",
	})
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, mailx.ErrTemplateNotFound))
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.False(t, res.Queued)
	assert.Equal(t, 0, before)
	assert.Equal(t, 0, d.QueueLength())
	assert.Equal(t, 0, tr.Calls())
}

func TestSendTemplateEmail_Subject(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"derived from id", map[string]any{"brand_name": "Acme"}, "Stall Application"},
		{"explicit subject", map[string]any{"subject": "New application"}, "New application"},
		{"blank subject falls back", map[string]any{"subject": "  "}, "Stall Application"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{}
			d := newDispatcher(t, tr)

			res, err := d.SendTemplateEmail(context.Background(), mailx.TemplateMessage{
				To:         "org@x.com",
				TemplateID: "stall-application",
				Data:       tt.data,
			})
			require.NoError(t, err)
			assert.True(t, res.Success)
			assert.Equal(t, tt.want, tr.Sent()[0].Subject)
		})
	}
}

func TestSendTemplateEmail_TransportFailureQueuesRenderedMessage(t *testing.T) {
	tr := &fakeTransport{sendFn: alwaysFail}
	d := newDispatcher(t, tr)

	res, err := d.SendTemplateEmail(context.Background(), mailx.TemplateMessage{
		To:         "b@x.com",
		TemplateID: "welcome",
		Data:       map[string]any{"name": "Ann"},
	})
	require.Error(t, err)
	assert.True(t, res.Queued)

	snap := d.QueueSnapshot()
	require.Len(t, snap, 1)
	direct, ok := snap[0].Message.(mailx.DirectMessage)
	require.True(t, ok)
	assert.Equal(t, "<h1>Welcome Ann</h1>", direct.HTML)
}

type failingLog struct{}

func (failingLog) Insert(context.Context, mailx.LogEntry) (string, error) {
	return "", errors.New("db unreachable")
}

func (failingLog) UpdateStatus(context.Context, string, mailx.LogStatus, string) error {
	return errors.New("db unreachable")
}

func TestSendEmail_DeliveryLogFailureIsSwallowed(t *testing.T) {
	tr := &fakeTransport{}
	d := newDispatcher(t, tr, mailx.WithDeliveryLog(failingLog{}))

	res, err := d.SendEmail(context.Background(), directMsg())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, tr.Calls())
}

func TestProcessQueue_RejectsReentrantSweep(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	tr := &fakeTransport{sendFn: func(int, mailx.Envelope) error {
		started <- struct{}{}
		<-release
		return nil
	}}
	d := newDispatcher(t, tr)
	ctx := context.Background()

	_, err := d.QueueEmail(ctx, directMsg())
	require.NoError(t, err)

	done := make(chan mailx.SweepResult, 1)
	go func() {
		res, _ := d.ProcessQueue(ctx)
		done <- res
	}()
	<-started

	_, err = d.ProcessQueue(ctx)
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, mailx.ErrSweepInProgress))
	assert.Equal(t, 409, errx.HTTPStatusOf(err))

	close(release)
	res := <-done
	assert.Equal(t, 1, res.Processed)

	_, err = d.ProcessQueue(ctx)
	assert.NoError(t, err)
}

func TestProcessQueue_CancelledContextKeepsRemainder(t *testing.T) {
	d := newDispatcher(t, &fakeTransport{})
	for i := 0; i < 3; i++ {
		_, err := d.QueueEmail(context.Background(), directMsg())
		require.NoError(t, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := d.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 3, res.Remaining)
}

func TestVerifyConnection(t *testing.T) {
	assert.True(t, newDispatcher(t, &fakeTransport{}).VerifyConnection(context.Background()))
	assert.False(t, newDispatcher(t, &fakeTransport{verifyErr: errors.New("dial tcp: refused")}).VerifyConnection(context.Background()))
}

func TestDispatchersAreIndependent(t *testing.T) {
	a := newDispatcher(t, &fakeTransport{sendFn: alwaysFail})
	b := newDispatcher(t, &fakeTransport{sendFn: alwaysFail})

	_, _ = a.SendEmail(context.Background(), directMsg())
	assert.Equal(t, 1, a.QueueLength())
	assert.Equal(t, 0, b.QueueLength())
}
