package mailx

import (
	"context"
	"time"

	"github.com/Abraxas-365/expomail/pkg/kernel"
)

// LogStatus is a delivery log state.
type LogStatus string

const (
	LogPending LogStatus = "pending"
	LogSent    LogStatus = "sent"
	LogFailed  LogStatus = "failed"
)

// LogEntry is one delivery-log record.
type LogEntry struct {
	ID           string     `json:"id" db:"id"`
	Recipient    string     `json:"recipient" db:"recipient"`
	Subject      string     `json:"subject" db:"subject"`
	TemplateID   string     `json:"template_id,omitempty" db:"template_id"`
	Status       LogStatus  `json:"status" db:"status"`
	ErrorMessage string     `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	SentAt       *time.Time `json:"sent_at,omitempty" db:"sent_at"`
}

// DeliveryLog is the best-effort audit sink. The dispatcher never reads
// from it and swallows every error it returns.
type DeliveryLog interface {
	Insert(ctx context.Context, entry LogEntry) (string, error)
	UpdateStatus(ctx context.Context, id string, status LogStatus, errMsg string) error
}

// LogQuery filters DeliveryLogReader.List.
type LogQuery struct {
	Status    LogStatus
	Recipient string
	kernel.PaginationOptions
}

// LogStats summarises the delivery log.
type LogStats struct {
	Total   int `json:"total" db:"total"`
	Pending int `json:"pending" db:"pending"`
	Sent    int `json:"sent" db:"sent"`
	Failed  int `json:"failed" db:"failed"`
}

// DeliveryLogReader serves the administrative log views.
type DeliveryLogReader interface {
	List(ctx context.Context, q LogQuery) (kernel.Paginated[LogEntry], error)
	Stats(ctx context.Context) (LogStats, error)
}

type nopDeliveryLog struct{}

func (nopDeliveryLog) Insert(context.Context, LogEntry) (string, error) { return "", nil }
func (nopDeliveryLog) UpdateStatus(context.Context, string, LogStatus, string) error {
	return nil
}
