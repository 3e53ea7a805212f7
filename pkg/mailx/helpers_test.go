package mailx_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/expomail/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/expomail/pkg/mailx"
	"github.com/stretchr/testify/require"
)

// fakeTransport records envelopes. sendFn decides the outcome of the n-th
// call (1-based); nil means success.
type fakeTransport struct {
	mu        sync.Mutex
	sent      []mailx.Envelope
	calls     int
	sendFn    func(n int, env mailx.Envelope) error
	verifyErr error
}

func (f *fakeTransport) Send(_ context.Context, env mailx.Envelope) (string, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	fn := f.sendFn
	f.mu.Unlock()

	if fn != nil {
		if err := fn(n, env); err != nil {
			return "", err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, env)
	return fmt.Sprintf("msg-%d", n), nil
}

func (f *fakeTransport) Verify(context.Context) error { return f.verifyErr }

func (f *fakeTransport) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeTransport) Sent() []mailx.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]mailx.Envelope, len(f.sent))
	copy(out, f.sent)
	return out
}

func alwaysFail(int, mailx.Envelope) error { return errors.New("535 authentication failed") }

func failFirst(n int, _ mailx.Envelope) error {
	if n == 1 {
		return errors.New("connection reset")
	}
	return nil
}

// fixedClock is a settable clock for WithClock.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fixedClock {
	return &fixedClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// templateDir writes name -> html files into a temp dir.
func templateDir(t *testing.T, files map[string]string) *fsxlocal.LocalFileSystem {
	t.Helper()
	dir := t.TempDir()
	for name, html := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(html), 0o644))
	}
	fs, err := fsxlocal.NewLocalFileSystem(dir)
	require.NoError(t, err)
	return fs
}

func testConfig() mailx.Config {
	return mailx.Config{
		FromAddress:   "noreply@expo.test",
		FromName:      "Expo",
		PublicBaseURL: "https://expo.test",
	}
}

func newDispatcher(t *testing.T, transport mailx.Transport, opts ...mailx.Option) *mailx.Dispatcher {
	t.Helper()
	resolver := mailx.NewTemplateResolver(templateDir(t, map[string]string{
		"welcome.html":           "<h1>Welcome {{name}}</h1>",
		"stall-application.html": "<p>{{brand_name}} applied for {{exhibition_title}}</p>",
	}), nil)
	return mailx.New(testConfig(), transport, resolver, opts...)
}
