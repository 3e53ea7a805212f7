package mailxredis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Abraxas-365/expomail/pkg/logx"
	"github.com/Abraxas-365/expomail/pkg/mailx"
	"github.com/redis/go-redis/v9"
)

// Cache is the subset of *redis.Client used here.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

const keyPrefix = "expomail:template:"

// cachedTemplate is the cached form. Missing records a confirmed absence
// so repeated lookups for unknown ids stay off the database.
type cachedTemplate struct {
	Subject string `json:"subject,omitempty"`
	HTML    string `json:"html,omitempty"`
	Missing bool   `json:"missing,omitempty"`
}

// OverrideStore is a read-through cache in front of another override store.
// Entries expire after ttl, which bounds how long an edited override stays
// stale. Redis failures degrade to direct reads.
type OverrideStore struct {
	next  mailx.OverrideStore
	cache Cache
	ttl   time.Duration
}

var _ mailx.OverrideStore = (*OverrideStore)(nil)

func NewOverrideStore(next mailx.OverrideStore, cache Cache, ttl time.Duration) *OverrideStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &OverrideStore{next: next, cache: cache, ttl: ttl}
}

func (s *OverrideStore) Get(ctx context.Context, id string) (*mailx.RawTemplate, error) {
	key := keyPrefix + id

	data, err := s.cache.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var c cachedTemplate
		if jsonErr := json.Unmarshal(data, &c); jsonErr == nil {
			if c.Missing {
				return nil, nil
			}
			return &mailx.RawTemplate{ID: id, Subject: c.Subject, HTML: c.HTML, Source: mailx.SourceOverride}, nil
		}
		logx.Warnf("mailxredis: discarding corrupt cache entry %s", key)
	case !errors.Is(err, redis.Nil):
		logx.WithError(err).Warnf("mailxredis: cache read for %s failed", key)
	}

	tmpl, err := s.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	c := cachedTemplate{Missing: tmpl == nil}
	if tmpl != nil {
		c.Subject, c.HTML = tmpl.Subject, tmpl.HTML
	}
	if payload, err := json.Marshal(c); err == nil {
		if err := s.cache.Set(ctx, key, payload, s.ttl).Err(); err != nil {
			logx.WithError(err).Warnf("mailxredis: cache write for %s failed", key)
		}
	}
	return tmpl, nil
}

// ListIDs is not cached.
func (s *OverrideStore) ListIDs(ctx context.Context) ([]string, error) {
	return s.next.ListIDs(ctx)
}
