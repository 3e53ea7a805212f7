package mailx

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Abraxas-365/expomail/pkg/errx"
	"github.com/Abraxas-365/expomail/pkg/logx"
	"github.com/Abraxas-365/expomail/pkg/metrics"
)

// Transport hands one envelope to a mail relay.
type Transport interface {
	Send(ctx context.Context, env Envelope) (string, error)
	Verify(ctx context.Context) error
}

// Dispatcher composes the template resolver, transport, delivery log and
// retry queue.
type Dispatcher struct {
	cfg       Config
	transport Transport
	resolver  *TemplateResolver
	log       DeliveryLog
	queue     *RetryQueue
	now       func() time.Time
	sweeping  atomic.Bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDeliveryLog sets the audit sink. The default discards entries.
func WithDeliveryLog(l DeliveryLog) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithQueue shares an existing queue instead of a private one.
func WithQueue(q *RetryQueue) Option {
	return func(d *Dispatcher) {
		if q != nil {
			d.queue = q
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// New builds a Dispatcher. cfg defaults are applied here.
func New(cfg Config, transport Transport, resolver *TemplateResolver, opts ...Option) *Dispatcher {
	if resolver == nil {
		resolver = NewTemplateResolver(nil, nil)
	}
	d := &Dispatcher{
		cfg:       cfg.WithDefaults(),
		transport: transport,
		resolver:  resolver,
		log:       nopDeliveryLog{},
		queue:     NewRetryQueue(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Config returns the effective configuration.
func (d *Dispatcher) Config() Config {
	return d.cfg
}

// SendEmail delivers msg now. A transport failure is reported to the
// caller and the message is also queued for retry.
func (d *Dispatcher) SendEmail(ctx context.Context, msg DirectMessage) (SendResult, error) {
	return d.send(ctx, msg, "")
}

// SendTemplateEmail renders the template and delivers it through the
// SendEmail path. A missing template is never queued.
func (d *Dispatcher) SendTemplateEmail(ctx context.Context, msg TemplateMessage) (SendResult, error) {
	direct, err := d.render(ctx, msg)
	if err != nil {
		metrics.IncEmailFailed("direct", failureReason(err))
		return SendResult{Success: false, Error: err.Error()}, err
	}
	return d.send(ctx, direct, msg.TemplateID)
}

func (d *Dispatcher) send(ctx context.Context, msg DirectMessage, templateID string) (SendResult, error) {
	msg = d.withSender(msg)
	if err := msg.Validate(); err != nil {
		metrics.IncEmailFailed("direct", "validation")
		return SendResult{Success: false, Error: err.Error()}, err
	}

	id, err := d.deliver(ctx, msg, templateID, "direct")
	if err == nil {
		return SendResult{Success: true, MessageID: id}, nil
	}

	now := d.now()
	d.push(QueuedMessage{
		ID:        NewQueueID(now),
		Message:   msg,
		Attempts:  1,
		CreatedAt: now,
	}, "auto")

	return SendResult{Success: false, Error: err.Error(), Queued: true}, err
}

// QueueEmail appends msg to the retry queue without attempting delivery.
func (d *Dispatcher) QueueEmail(ctx context.Context, msg Message) (QueueResult, error) {
	switch m := msg.(type) {
	case *DirectMessage:
		if m == nil {
			return QueueResult{}, validationError("message is required")
		}
		msg = *m
	case *TemplateMessage:
		if m == nil {
			return QueueResult{}, validationError("message is required")
		}
		msg = *m
	case nil:
		return QueueResult{}, validationError("message is required")
	}

	if err := msg.Validate(); err != nil {
		return QueueResult{}, err
	}

	now := d.now()
	qm := QueuedMessage{
		ID:        NewQueueID(now),
		Message:   msg,
		CreatedAt: now,
		SendAt:    msg.ScheduledAt(),
	}
	d.push(qm, "explicit")

	logx.WithFields(logx.Fields{
		"queue_id": qm.ID,
		"kind":     Kind(msg),
		"to":       msg.Recipient(),
	}).Debug("mailx: message queued")

	return QueueResult{Success: true, QueueID: qm.ID}, nil
}

// ProcessQueue runs one sweep over the due messages. A second caller
// while a sweep is running gets ErrSweepInProgress.
func (d *Dispatcher) ProcessQueue(ctx context.Context) (SweepResult, error) {
	if !d.sweeping.CompareAndSwap(false, true) {
		return SweepResult{}, mailxErrors.New(ErrSweepInProgress)
	}
	defer d.sweeping.Store(false)

	start := time.Now()
	due := d.queue.Drain(d.now())

	var res SweepResult
	for i, qm := range due {
		if ctx.Err() != nil {
			for _, rest := range due[i:] {
				d.queue.Push(rest)
			}
			break
		}

		err := d.attempt(ctx, qm.Message)
		if err == nil {
			res.Processed++
			continue
		}

		qm.Attempts++
		fields := logx.Fields{
			"queue_id": qm.ID,
			"to":       qm.Message.Recipient(),
			"attempts": qm.Attempts,
		}

		if retryable(err) && qm.Attempts < d.cfg.MaxAttempts {
			d.push(qm, "retry")
			logx.WithFields(fields).WithError(err).Warn("mailx: delivery failed, requeued")
			continue
		}

		res.Failed++
		metrics.IncQueueDropped()
		logx.WithFields(fields).WithError(err).Error("mailx: delivery failed, message dropped")
	}

	res.Success = true
	res.Remaining = d.queue.Len()
	metrics.SetQueueDepth(res.Remaining)
	metrics.ObserveSweepDuration(time.Since(start).Seconds())

	return res, nil
}

// attempt delivers a queued message without ever re-queueing it.
func (d *Dispatcher) attempt(ctx context.Context, msg Message) error {
	switch m := msg.(type) {
	case DirectMessage:
		m = d.withSender(m)
		if err := m.Validate(); err != nil {
			return err
		}
		_, err := d.deliver(ctx, m, "", "sweep")
		return err
	case TemplateMessage:
		direct, err := d.render(ctx, m)
		if err != nil {
			metrics.IncEmailFailed("sweep", failureReason(err))
			return err
		}
		direct = d.withSender(direct)
		if err := direct.Validate(); err != nil {
			return err
		}
		_, err = d.deliver(ctx, direct, m.TemplateID, "sweep")
		return err
	default:
		return validationError("unsupported message kind")
	}
}

// deliver logs, hands msg to the transport and records the outcome.
func (d *Dispatcher) deliver(ctx context.Context, msg DirectMessage, templateID, path string) (string, error) {
	logID := d.logInsert(ctx, LogEntry{
		Recipient:  msg.To,
		Subject:    msg.Subject,
		TemplateID: templateID,
		Status:     LogPending,
	})

	id, err := d.transport.Send(ctx, Envelope{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		if !errx.IsCode(err, ErrTransport) {
			err = NewTransportError(err)
		}
		d.logUpdate(ctx, logID, LogFailed, err.Error())
		metrics.IncEmailFailed(path, "transport")
		return "", err
	}

	d.logUpdate(ctx, logID, LogSent, "")
	metrics.IncEmailSent(path)
	logx.WithFields(logx.Fields{
		"to":         msg.To,
		"message_id": id,
		"path":       path,
	}).Info("mailx: email sent")

	return id, nil
}

func (d *Dispatcher) render(ctx context.Context, msg TemplateMessage) (DirectMessage, error) {
	if err := msg.Validate(); err != nil {
		return DirectMessage{}, err
	}

	tmpl, err := d.resolver.Resolve(ctx, msg.TemplateID)
	if err != nil {
		return DirectMessage{}, err
	}

	subject := strings.TrimSpace(stringify(msg.Data["subject"]))
	if subject == "" {
		subject = strings.TrimSpace(Render(tmpl.Subject, msg.Data))
	}
	if subject == "" {
		subject = TitleFromID(msg.TemplateID)
	}

	return DirectMessage{
		To:      msg.To,
		From:    msg.From,
		Subject: subject,
		HTML:    d.resolver.Render(tmpl, msg.Data),
		SendAt:  msg.SendAt,
	}, nil
}

func (d *Dispatcher) withSender(msg DirectMessage) DirectMessage {
	if strings.TrimSpace(msg.From) == "" {
		msg.From = d.cfg.Sender()
	}
	return msg
}

func (d *Dispatcher) push(qm QueuedMessage, origin string) {
	qm.Kind = Kind(qm.Message)
	d.queue.Push(qm)
	metrics.IncQueueEnqueued(origin)
	metrics.SetQueueDepth(d.queue.Len())
}

func (d *Dispatcher) logInsert(ctx context.Context, entry LogEntry) string {
	now := d.now()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	id, err := d.log.Insert(ctx, entry)
	if err != nil {
		logx.WithError(NewLogSinkError(err)).Warnf("mailx: delivery log insert for %s failed", entry.Recipient)
		return ""
	}
	return id
}

func (d *Dispatcher) logUpdate(ctx context.Context, id string, status LogStatus, errMsg string) {
	if id == "" {
		return
	}
	if err := d.log.UpdateStatus(ctx, id, status, errMsg); err != nil {
		logx.WithError(NewLogSinkError(err)).Warnf("mailx: delivery log update %s -> %s failed", id, status)
	}
}

// VerifyConnection performs the transport handshake. It never fails; the
// cause of a false result is logged.
func (d *Dispatcher) VerifyConnection(ctx context.Context) bool {
	if err := d.transport.Verify(ctx); err != nil {
		logx.WithError(err).Error("mailx: relay verification failed")
		return false
	}
	logx.Info("mailx: relay connection verified")
	return true
}

// AvailableTemplates lists template ids from both sources.
func (d *Dispatcher) AvailableTemplates(ctx context.Context) ([]string, error) {
	return d.resolver.ListAvailable(ctx)
}

// Template resolves a single raw template.
func (d *Dispatcher) Template(ctx context.Context, id string) (RawTemplate, error) {
	return d.resolver.Resolve(ctx, id)
}

// QueueLength returns the number of messages awaiting retry.
func (d *Dispatcher) QueueLength() int {
	return d.queue.Len()
}

// QueueSnapshot returns a copy of the queue.
func (d *Dispatcher) QueueSnapshot() []QueuedMessage {
	return d.queue.Snapshot()
}

func failureReason(err error) string {
	switch {
	case errx.IsCode(err, ErrValidation):
		return "validation"
	case errx.IsCode(err, ErrTemplateNotFound):
		return "template_not_found"
	default:
		return "transport"
	}
}
