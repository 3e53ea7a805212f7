package mailxsmtp

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"time"

	"github.com/Abraxas-365/expomail/pkg/mailx"
)

// buildMessage renders env as a multipart/alternative message with a
// plain-text part followed by the HTML part.
func buildMessage(env mailx.Envelope, messageID string, date time.Time) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", env.From)
	fmt.Fprintf(&buf, "To: %s\r\n", env.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", env.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", date.Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "Message-ID: %s\r\n", messageID)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")

	writer := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", writer.Boundary())

	if err := writePart(writer, "text/plain; charset=UTF-8", env.PlainText()); err != nil {
		return nil, err
	}
	if env.HTML != "" {
		if err := writePart(writer, "text/html; charset=UTF-8", env.HTML); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return buf.Bytes(), nil
}

func writePart(w *multipart.Writer, contentType, body string) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Type", contentType)
	header.Set("Content-Transfer-Encoding", "quoted-printable")

	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create %s part: %w", contentType, err)
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(body)); err != nil {
		return fmt.Errorf("failed to encode %s part: %w", contentType, err)
	}
	return qp.Close()
}
