package mailxses

import (
	"context"

	"github.com/Abraxas-365/expomail/pkg/mailx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the subset of *ses.Client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	GetSendQuota(ctx context.Context, params *ses.GetSendQuotaInput, optFns ...func(*ses.Options)) (*ses.GetSendQuotaOutput, error)
}

// Transport implements mailx.Transport using AWS SES.
type Transport struct {
	client SESAPI
}

var _ mailx.Transport = (*Transport)(nil)

// New creates a new SES transport.
func New(client SESAPI) *Transport {
	return &Transport{client: client}
}

// Send sends a single email via SES.
func (t *Transport) Send(ctx context.Context, env mailx.Envelope) (string, error) {
	body := &types.Body{
		Text: &types.Content{
			Data:    aws.String(env.PlainText()),
			Charset: aws.String("UTF-8"),
		},
	}
	if env.HTML != "" {
		body.Html = &types.Content{
			Data:    aws.String(env.HTML),
			Charset: aws.String("UTF-8"),
		}
	}

	out, err := t.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(env.From),
		Destination: &types.Destination{ToAddresses: []string{env.To}},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(env.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: body,
		},
	})
	if err != nil {
		return "", mailx.NewTransportError(err).
			WithDetail("to", env.To).
			WithDetail("subject", env.Subject)
	}

	return aws.ToString(out.MessageId), nil
}

// Verify checks credentials and reachability with GetSendQuota.
func (t *Transport) Verify(ctx context.Context) error {
	if _, err := t.client.GetSendQuota(ctx, &ses.GetSendQuotaInput{}); err != nil {
		return mailx.NewTransportError(err)
	}
	return nil
}
