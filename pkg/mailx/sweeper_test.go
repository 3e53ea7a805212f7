package mailx_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Abraxas-365/expomail/pkg/errx"
	"github.com/Abraxas-365/expomail/pkg/mailx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProcessor struct {
	calls atomic.Int32
}

func (p *countingProcessor) ProcessQueue(context.Context) (mailx.SweepResult, error) {
	p.calls.Add(1)
	return mailx.SweepResult{Success: true}, nil
}

func TestSweeper_SweepsUntilCancelled(t *testing.T) {
	p := &countingProcessor{}
	s := mailx.NewSweeper(p, mailx.WithSweepInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return p.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)
	assert.False(t, s.Running())
}

func TestSweeper_RefusesSecondStart(t *testing.T) {
	s := mailx.NewSweeper(&countingProcessor{}, mailx.WithSweepInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Start(ctx) }()
	require.Eventually(t, s.Running, time.Second, time.Millisecond)

	err := s.Start(ctx)
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, mailx.ErrSweeperRunning))
}

func TestSweeper_DrivesDispatcherQueue(t *testing.T) {
	d := newDispatcher(t, &fakeTransport{})
	_, err := d.QueueEmail(context.Background(), directMsg())
	require.NoError(t, err)

	s := mailx.NewSweeper(d, mailx.WithSweepInterval(5*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Start(ctx) }()

	require.Eventually(t, func() bool { return d.QueueLength() == 0 }, time.Second, 5*time.Millisecond)
}
