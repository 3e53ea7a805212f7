package mailxconsole

import (
	"context"

	"github.com/Abraxas-365/expomail/pkg/logx"
	"github.com/Abraxas-365/expomail/pkg/mailx"
	"github.com/google/uuid"
)

// Transport prints emails via logx instead of sending them. Intended for
// development and testing.
type Transport struct{}

var _ mailx.Transport = (*Transport)(nil)

func New() *Transport {
	return &Transport{}
}

// Send logs the envelope and returns a generated message id.
func (t *Transport) Send(_ context.Context, env mailx.Envelope) (string, error) {
	id := "console-" + uuid.NewString()

	logx.WithFields(logx.Fields{
		"from":       env.From,
		"to":         env.To,
		"subject":    env.Subject,
		"message_id": id,
	}).Info("mailxconsole: email sent (dev mode)")

	logx.Debugf("mailxconsole: text body:\n%s", env.PlainText())
	if env.HTML != "" {
		logx.Debugf("mailxconsole: html body:\n%s", env.HTML)
	}
	return id, nil
}

// Verify always succeeds.
func (t *Transport) Verify(context.Context) error {
	return nil
}
