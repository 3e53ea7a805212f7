package mailx

import (
	"strings"
	"time"
)

// Message is either a DirectMessage or a TemplateMessage.
type Message interface {
	Recipient() string
	ScheduledAt() *time.Time
	Validate() error
	isMessage()
}

// DirectMessage carries a ready subject and body.
type DirectMessage struct {
	To      string     `json:"to"`
	From    string     `json:"from,omitempty"`
	Subject string     `json:"subject"`
	HTML    string     `json:"html,omitempty"`
	Text    string     `json:"text,omitempty"`
	SendAt  *time.Time `json:"send_at,omitempty"`
}

func (m DirectMessage) Recipient() string       { return m.To }
func (m DirectMessage) ScheduledAt() *time.Time { return m.SendAt }
func (DirectMessage) isMessage()                {}

// Validate requires a recipient, a subject and at least one body.
func (m DirectMessage) Validate() error {
	switch {
	case strings.TrimSpace(m.To) == "":
		return validationError("recipient is required").WithDetail("field", "to")
	case strings.TrimSpace(m.Subject) == "":
		return validationError("subject is required").WithDetail("field", "subject")
	case strings.TrimSpace(m.HTML) == "" && strings.TrimSpace(m.Text) == "":
		return validationError("html or text body is required").WithDetail("field", "html")
	}
	return nil
}

// TemplateMessage names a template and the data to render it with.
type TemplateMessage struct {
	To         string         `json:"to"`
	From       string         `json:"from,omitempty"`
	TemplateID string         `json:"template_id"`
	Data       map[string]any `json:"data,omitempty"`
	SendAt     *time.Time     `json:"send_at,omitempty"`
}

func (m TemplateMessage) Recipient() string       { return m.To }
func (m TemplateMessage) ScheduledAt() *time.Time { return m.SendAt }
func (TemplateMessage) isMessage()                {}

// Validate requires a recipient and a template id.
func (m TemplateMessage) Validate() error {
	switch {
	case strings.TrimSpace(m.To) == "":
		return validationError("recipient is required").WithDetail("field", "to")
	case strings.TrimSpace(m.TemplateID) == "":
		return validationError("template id is required").WithDetail("field", "template_id")
	}
	return nil
}

// Kind names the variant, for logs and API snapshots.
func Kind(m Message) string {
	switch m.(type) {
	case DirectMessage, *DirectMessage:
		return "direct"
	case TemplateMessage, *TemplateMessage:
		return "template"
	default:
		return "unknown"
	}
}

// QueuedMessage is a Message owned by the retry queue. Attempts counts
// delivery attempts already made.
type QueuedMessage struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Message   Message    `json:"message"`
	Attempts  int        `json:"attempts"`
	CreatedAt time.Time  `json:"created_at"`
	SendAt    *time.Time `json:"send_at,omitempty"`
}

// Due reports whether the message may be attempted at now.
func (q QueuedMessage) Due(now time.Time) bool {
	return q.SendAt == nil || !q.SendAt.After(now)
}

// Envelope is what a Transport puts on the wire.
type Envelope struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

// PlainText returns Text, or a tag-stripped rendition of HTML when Text is
// empty.
func (e Envelope) PlainText() string {
	if e.Text != "" {
		return e.Text
	}
	return TextFromHTML(e.HTML)
}

// SendResult is the outcome of SendEmail and SendTemplateEmail.
type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
	Queued    bool   `json:"queued,omitempty"`
}

// QueueResult is the outcome of QueueEmail.
type QueueResult struct {
	Success bool   `json:"success"`
	QueueID string `json:"queueId,omitempty"`
}

// SweepResult is the outcome of one ProcessQueue pass.
type SweepResult struct {
	Success   bool `json:"success"`
	Processed int  `json:"processed"`
	Failed    int  `json:"failed"`
	Remaining int  `json:"remaining"`
}
