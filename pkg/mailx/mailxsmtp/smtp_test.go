package mailxsmtp

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/expomail/pkg/errx"
	"github.com/Abraxas-365/expomail/pkg/mailx"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	authErr error
	sendErr error
	authed  bool
	from    string
	to      []string
	data    []byte
	quit    bool
	closed  bool
}

func (f *fakeClient) Auth(sasl.Client) error {
	f.authed = true
	return f.authErr
}

func (f *fakeClient) SendMail(from string, to []string, r io.Reader) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.from, f.to = from, to
	f.data, _ = io.ReadAll(r)
	return nil
}

func (f *fakeClient) Quit() error  { f.quit = true; return nil }
func (f *fakeClient) Close() error { f.closed = true; return nil }

func newTestTransport(t *testing.T, cfg Config, c *fakeClient) *Transport {
	t.Helper()
	tr, err := New(cfg)
	require.NoError(t, err)
	tr.dial = func(context.Context) (client, error) { return c, nil }
	tr.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	return tr
}

func envelope() mailx.Envelope {
	return mailx.Envelope{
		From:    `"Expo" <noreply@expo.test>`,
		To:      "brand@example.com",
		Subject: "Stall Application",
		HTML:    "<p>Hello <b>Acme</b></p>",
	}
}

func TestNew_DefaultsSecurityByPort(t *testing.T) {
	tr, err := New(Config{Host: "smtp.example.com", Port: 465})
	require.NoError(t, err)
	assert.Equal(t, SecurityTLS, tr.cfg.Security)

	tr, err = New(Config{Host: "smtp.example.com", Port: 587})
	require.NoError(t, err)
	assert.Equal(t, SecurityStartTLS, tr.cfg.Security)
}

func TestSend_WritesMultipartAlternative(t *testing.T) {
	c := &fakeClient{}
	tr := newTestTransport(t, Config{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p"}, c)

	id, err := tr.Send(context.Background(), envelope())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "<"))
	assert.True(t, strings.HasSuffix(id, "@expo.test>"))

	assert.True(t, c.authed)
	assert.True(t, c.quit)
	assert.True(t, c.closed)
	assert.Equal(t, "noreply@expo.test", c.from)
	assert.Equal(t, []string{"brand@example.com"}, c.to)

	msg, err := mail.ReadMessage(bytes.NewReader(c.data))
	require.NoError(t, err)
	assert.Equal(t, "Stall Application", msg.Header.Get("Subject"))
	assert.Equal(t, id, msg.Header.Get("Message-ID"))

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])
	var types, bodies []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		body, _ := io.ReadAll(part)
		types = append(types, part.Header.Get("Content-Type"))
		bodies = append(bodies, string(body))
	}
	assert.Equal(t, []string{"text/plain; charset=UTF-8", "text/html; charset=UTF-8"}, types)
	assert.Equal(t, "Hello Acme", bodies[0])
	assert.Equal(t, "<p>Hello <b>Acme</b></p>", bodies[1])
}

func TestSend_SkipsAuthWithoutCredentials(t *testing.T) {
	c := &fakeClient{}
	tr := newTestTransport(t, Config{Host: "localhost", Port: 25, Security: SecurityNone}, c)

	_, err := tr.Send(context.Background(), envelope())
	require.NoError(t, err)
	assert.False(t, c.authed)
}

func TestSend_RelayRejectionIsTransportError(t *testing.T) {
	c := &fakeClient{sendErr: &smtp.SMTPError{Code: 550, Message: "mailbox unavailable"}}
	tr := newTestTransport(t, Config{Host: "smtp.example.com", Port: 587}, c)

	_, err := tr.Send(context.Background(), envelope())
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, mailx.ErrTransport))
	assert.Contains(t, err.Error(), "mailbox unavailable")

	var e *errx.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, 550, e.Details["smtp_code"])
}

func TestVerify_AuthFailure(t *testing.T) {
	c := &fakeClient{authErr: errors.New("535 bad credentials")}
	tr := newTestTransport(t, Config{Host: "smtp.example.com", Port: 587, Username: "u", Password: "wrong"}, c)

	err := tr.Verify(context.Background())
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, mailx.ErrTransport))
	assert.True(t, c.closed)
}

func TestSend_SignsWithDKIM(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	c := &fakeClient{}
	tr := newTestTransport(t, Config{
		Host: "smtp.example.com",
		Port: 587,
		DKIM: DKIMConfig{Selector: "mail", PrivateKey: string(pemKey)},
	}, c)

	_, err = tr.Send(context.Background(), envelope())
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(c.data))
	require.NoError(t, err)
	sig := msg.Header.Get("DKIM-Signature")
	assert.Contains(t, sig, "d=expo.test")
	assert.Contains(t, sig, "s=mail")
}

func TestNewSigner(t *testing.T) {
	s, err := NewSigner(DKIMConfig{})
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = NewSigner(DKIMConfig{PrivateKey: "x"})
	require.Error(t, err)

	_, err = NewSigner(DKIMConfig{Selector: "mail", PrivateKey: "not a pem"})
	require.Error(t, err)
}

func TestSigner_PKCS8KeyAndFixedDomain(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	s, err := NewSigner(DKIMConfig{Selector: "s1", Domain: " Mail.Expo.Test ", PrivateKey: string(pemKey)})
	require.NoError(t, err)

	raw, err := buildMessage(envelope(), "<1@expo.test>", time.Now())
	require.NoError(t, err)

	signed, err := s.Sign(raw, "noreply@other.test")
	require.NoError(t, err)
	msg, err := mail.ReadMessage(bytes.NewReader(signed))
	require.NoError(t, err)
	assert.Contains(t, msg.Header.Get("DKIM-Signature"), "d=mail.expo.test")

	_, err = s.Sign(raw, "")
	require.NoError(t, err)
}

func TestSigner_NeedsSenderDomainWhenUnset(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	s, err := NewSigner(DKIMConfig{Selector: "s1", PrivateKey: string(pemKey)})
	require.NoError(t, err)

	_, err = s.Sign([]byte("Subject: x\r\n\r\nbody\r\n"), "no-domain")
	require.Error(t, err)

	var nilSigner *Signer
	out, err := nilSigner.Sign([]byte("as-is"), "a@b.test")
	require.NoError(t, err)
	assert.Equal(t, "as-is", string(out))
}
