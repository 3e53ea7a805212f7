package mailxsmtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/Abraxas-365/expomail/pkg/logx"
	"github.com/Abraxas-365/expomail/pkg/mailx"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
)

// Security selects how the connection to the relay is protected.
type Security string

const (
	SecurityStartTLS Security = "starttls"
	SecurityTLS      Security = "tls"
	SecurityNone     Security = "none"
)

// Config describes the relay.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	// Security defaults to implicit TLS on port 465 and STARTTLS elsewhere.
	Security Security
	DKIM     DKIMConfig
}

// client is the part of *smtp.Client used by Transport.
type client interface {
	Auth(a sasl.Client) error
	SendMail(from string, to []string, r io.Reader) error
	Quit() error
	Close() error
}

type dialFunc func(ctx context.Context) (client, error)

// Transport delivers mail through an authenticated SMTP relay. Each send
// opens its own connection.
type Transport struct {
	cfg    Config
	signer *Signer
	dial   dialFunc
	now    func() time.Time
}

var _ mailx.Transport = (*Transport)(nil)

// New builds a Transport. It fails only on a bad DKIM configuration.
func New(cfg Config) (*Transport, error) {
	if cfg.Security == "" {
		if cfg.Port == 465 {
			cfg.Security = SecurityTLS
		} else {
			cfg.Security = SecurityStartTLS
		}
	}

	signer, err := NewSigner(cfg.DKIM)
	if err != nil {
		return nil, err
	}

	t := &Transport{cfg: cfg, signer: signer, now: time.Now}
	t.dial = t.dialRelay
	return t, nil
}

func (t *Transport) addr() string {
	return net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
}

func (t *Transport) dialRelay(ctx context.Context) (client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tlsConfig := &tls.Config{ServerName: t.cfg.Host}

	switch t.cfg.Security {
	case SecurityTLS:
		return smtp.DialTLS(t.addr(), tlsConfig)
	case SecurityNone:
		return smtp.Dial(t.addr())
	default:
		return smtp.DialStartTLS(t.addr(), tlsConfig)
	}
}

// connect dials and authenticates.
func (t *Transport) connect(ctx context.Context) (client, error) {
	c, err := t.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", t.addr(), err)
	}
	if t.cfg.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", t.cfg.Username, t.cfg.Password)); err != nil {
			c.Close()
			return nil, fmt.Errorf("auth: %w", err)
		}
	}
	return c, nil
}

// Send implements mailx.Transport.
func (t *Transport) Send(ctx context.Context, env mailx.Envelope) (string, error) {
	from, err := mail.ParseAddress(env.From)
	if err != nil {
		return "", mailx.NewTransportError(fmt.Errorf("invalid sender %q: %w", env.From, err))
	}
	to, err := mail.ParseAddress(env.To)
	if err != nil {
		return "", mailx.NewTransportError(fmt.Errorf("invalid recipient %q: %w", env.To, err))
	}

	host := domainOf(from.Address)
	if host == "" {
		host = "localhost"
	}
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), host)
	msg, err := buildMessage(env, messageID, t.now())
	if err != nil {
		return "", mailx.NewTransportError(err)
	}
	if msg, err = t.signer.Sign(msg, from.Address); err != nil {
		return "", mailx.NewTransportError(err)
	}

	c, err := t.connect(ctx)
	if err != nil {
		return "", relayError(err)
	}
	defer c.Close()

	if err := c.SendMail(from.Address, []string{to.Address}, bytes.NewReader(msg)); err != nil {
		return "", relayError(err)
	}
	if err := c.Quit(); err != nil {
		logx.WithError(err).Debug("mailxsmtp: QUIT after successful send failed")
	}
	return messageID, nil
}

// Verify dials, authenticates and quits.
func (t *Transport) Verify(ctx context.Context) error {
	c, err := t.connect(ctx)
	if err != nil {
		return relayError(err)
	}
	defer c.Close()
	return c.Quit()
}

func relayError(err error) error {
	e := mailx.NewTransportError(err)
	var smtpErr *smtp.SMTPError
	if errors.As(err, &smtpErr) {
		e.WithDetail("smtp_code", smtpErr.Code)
	}
	return e
}

func domainOf(address string) string {
	address = strings.Trim(strings.TrimSpace(address), "<>")
	if i := strings.LastIndex(address, "@"); i >= 0 && i+1 < len(address) {
		return strings.ToLower(address[i+1:])
	}
	return ""
}
