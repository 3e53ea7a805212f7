package mailxmemory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Abraxas-365/expomail/pkg/kernel"
	"github.com/Abraxas-365/expomail/pkg/mailx"
	"github.com/Abraxas-365/expomail/pkg/ptrx"
	"github.com/google/uuid"
)

// DeliveryLog keeps log entries in memory, newest last.
type DeliveryLog struct {
	mu      sync.RWMutex
	entries []mailx.LogEntry
	index   map[string]int
}

func NewDeliveryLog() *DeliveryLog {
	return &DeliveryLog{index: make(map[string]int)}
}

func (l *DeliveryLog) Insert(_ context.Context, entry mailx.LogEntry) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.ID = uuid.NewString()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = entry.CreatedAt
	}
	l.index[entry.ID] = len(l.entries)
	l.entries = append(l.entries, entry)
	return entry.ID, nil
}

func (l *DeliveryLog) UpdateStatus(_ context.Context, id string, status mailx.LogStatus, errMsg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[id]
	if !ok {
		return nil
	}
	now := time.Now()
	e := &l.entries[i]
	e.Status = status
	e.ErrorMessage = errMsg
	e.UpdatedAt = now
	if status == mailx.LogSent {
		e.SentAt = ptrx.Of(now)
	}
	return nil
}

// List returns entries newest first.
func (l *DeliveryLog) List(_ context.Context, q mailx.LogQuery) (kernel.Paginated[mailx.LogEntry], error) {
	opts := q.PaginationOptions.Normalize(50, 200)

	l.mu.RLock()
	defer l.mu.RUnlock()

	var matched []mailx.LogEntry
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		if q.Status != "" && e.Status != q.Status {
			continue
		}
		if q.Recipient != "" && !strings.EqualFold(e.Recipient, q.Recipient) {
			continue
		}
		matched = append(matched, e)
	}

	total := len(matched)
	start := min(opts.Offset(), total)
	end := min(start+opts.PageSize, total)
	return kernel.NewPaginated(matched[start:end], opts.Page, opts.PageSize, total), nil
}

func (l *DeliveryLog) Stats(context.Context) (mailx.LogStats, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var s mailx.LogStats
	for _, e := range l.entries {
		s.Total++
		switch e.Status {
		case mailx.LogPending:
			s.Pending++
		case mailx.LogSent:
			s.Sent++
		case mailx.LogFailed:
			s.Failed++
		}
	}
	return s, nil
}

// Entries returns a copy of all entries in insertion order.
func (l *DeliveryLog) Entries() []mailx.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]mailx.LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// OverrideStore keeps template overrides in memory, in insertion order.
type OverrideStore struct {
	mu        sync.RWMutex
	ids       []string
	templates map[string]mailx.RawTemplate
}

func NewOverrideStore() *OverrideStore {
	return &OverrideStore{templates: make(map[string]mailx.RawTemplate)}
}

// Put adds or replaces an override.
func (s *OverrideStore) Put(id, subject, html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[id]; !ok {
		s.ids = append(s.ids, id)
	}
	s.templates[id] = mailx.RawTemplate{ID: id, Subject: subject, HTML: html, Source: mailx.SourceOverride}
}

func (s *OverrideStore) Get(_ context.Context, id string) (*mailx.RawTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *OverrideStore) ListIDs(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out, nil
}
