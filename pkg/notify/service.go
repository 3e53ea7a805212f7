// Package notify turns marketplace events into template emails. Each
// notifier looks up the profiles it needs, builds a flat data map and hands
// it to the mailer under a fixed template id.
package notify

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/expomail/pkg/logx"
	"github.com/Abraxas-365/expomail/pkg/mailx"
	"github.com/Abraxas-365/expomail/pkg/profile"
)

const (
	DefaultFanoutDelay = 500 * time.Millisecond
	dateLayout         = "January 2, 2006"
)

// Template ids used by the notifiers.
const (
	TplStallApplication       = "stall-application"
	TplStallApplicationStatus = "stall-application-status"
	TplApplicationWaitlisted  = "application-waitlisted"
	TplApplicationRejected    = "application-rejected"
	TplPaymentReminder        = "payment-reminder"
	TplPaymentSubmitted       = "payment-submitted"
	TplContactResponse        = "contact-response"
	TplContactSubmission      = "contact-submission"
	TplWelcome                = "welcome"
	TplExhibitionReminder     = "exhibition-reminder"
)

// Mailer is the slice of the dispatcher the notifiers need.
type Mailer interface {
	SendTemplateEmail(ctx context.Context, msg mailx.TemplateMessage) (mailx.SendResult, error)
}

type Service struct {
	mailer  Mailer
	store   profile.Store
	baseURL string
	delay   time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

type Option func(*Service)

// WithBaseURL sets the public site address used to build links. Without it
// links are root-relative.
func WithBaseURL(u string) Option {
	return func(s *Service) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}

// WithFanoutDelay sets the pause between sends in multi-recipient notifiers.
func WithFanoutDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.delay = d
		}
	}
}

func New(mailer Mailer, store profile.Store, opts ...Option) *Service {
	s := &Service{
		mailer: mailer,
		store:  store,
		delay:  DefaultFanoutDelay,
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) link(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return s.baseURL + path
}

func (s *Service) send(ctx context.Context, to, templateID string, data map[string]any) (mailx.SendResult, error) {
	logx.WithFields(logx.Fields{
		"to":          to,
		"template_id": templateID,
	}).Debug("notify: sending")
	return s.mailer.SendTemplateEmail(ctx, mailx.TemplateMessage{
		To:         to,
		TemplateID: templateID,
		Data:       data,
	})
}

// lookupFailed logs a store error; the caller treats the record as missing.
func lookupFailed(entity, id string, err error) {
	logx.WithFields(logx.Fields{
		"entity": entity,
		"id":     id,
	}).WithError(err).Warn("notify: profile lookup failed")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
