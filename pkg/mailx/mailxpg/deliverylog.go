package mailxpg

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/expomail/pkg/errx"
	"github.com/Abraxas-365/expomail/pkg/kernel"
	"github.com/Abraxas-365/expomail/pkg/mailx"
	"github.com/Abraxas-365/expomail/pkg/ptrx"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// DeliveryLog stores delivery records in the email_logs table.
type DeliveryLog struct {
	db *sqlx.DB
}

var (
	_ mailx.DeliveryLog       = (*DeliveryLog)(nil)
	_ mailx.DeliveryLogReader = (*DeliveryLog)(nil)
)

func NewDeliveryLog(db *sqlx.DB) *DeliveryLog {
	return &DeliveryLog{db: db}
}

type logRow struct {
	ID           string         `db:"id"`
	Recipient    string         `db:"recipient"`
	Subject      string         `db:"subject"`
	TemplateID   sql.NullString `db:"template_id"`
	Status       string         `db:"status"`
	ErrorMessage sql.NullString `db:"error_message"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	SentAt       sql.NullTime   `db:"sent_at"`
}

func toRow(e mailx.LogEntry) logRow {
	return logRow{
		ID:           e.ID,
		Recipient:    e.Recipient,
		Subject:      e.Subject,
		TemplateID:   nullString(e.TemplateID),
		Status:       string(e.Status),
		ErrorMessage: nullString(e.ErrorMessage),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func (r logRow) toDomain() mailx.LogEntry {
	e := mailx.LogEntry{
		ID:           r.ID,
		Recipient:    r.Recipient,
		Subject:      r.Subject,
		TemplateID:   r.TemplateID.String,
		Status:       mailx.LogStatus(r.Status),
		ErrorMessage: r.ErrorMessage.String,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.SentAt.Valid {
		e.SentAt = ptrx.Of(r.SentAt.Time)
	}
	return e
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (l *DeliveryLog) Insert(ctx context.Context, entry mailx.LogEntry) (string, error) {
	entry.ID = uuid.NewString()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = entry.CreatedAt
	}

	query := `
		INSERT INTO email_logs (
			id, recipient, subject, template_id, status, error_message, created_at, updated_at
		) VALUES (
			:id, :recipient, :subject, :template_id, :status, :error_message, :created_at, :updated_at
		)`

	if _, err := l.db.NamedExecContext(ctx, query, toRow(entry)); err != nil {
		return "", errx.Wrap(err, "failed to insert delivery log entry", errx.TypeInternal).
			WithDetail("recipient", entry.Recipient)
	}
	return entry.ID, nil
}

func (l *DeliveryLog) UpdateStatus(ctx context.Context, id string, status mailx.LogStatus, errMsg string) error {
	query := `
		UPDATE email_logs SET
			status = $2,
			error_message = $3,
			updated_at = NOW(),
			sent_at = CASE WHEN $2 = 'sent' THEN NOW() ELSE sent_at END
		WHERE id = $1`

	if _, err := l.db.ExecContext(ctx, query, id, string(status), nullString(errMsg)); err != nil {
		return errx.Wrap(err, "failed to update delivery log entry", errx.TypeInternal).
			WithDetail("log_id", id)
	}
	return nil
}

// List returns entries newest first.
func (l *DeliveryLog) List(ctx context.Context, q mailx.LogQuery) (kernel.Paginated[mailx.LogEntry], error) {
	opts := q.PaginationOptions.Normalize(50, 200)
	where, args := logFilter(q)

	var total int
	countQuery := "SELECT COUNT(*) FROM email_logs" + where
	if err := l.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return kernel.Paginated[mailx.LogEntry]{}, errx.Wrap(err, "failed to count delivery log entries", errx.TypeInternal)
	}

	listQuery := fmt.Sprintf(
		"SELECT * FROM email_logs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2,
	)
	var rows []logRow
	if err := l.db.SelectContext(ctx, &rows, listQuery, append(args, opts.PageSize, opts.Offset())...); err != nil {
		return kernel.Paginated[mailx.LogEntry]{}, errx.Wrap(err, "failed to list delivery log entries", errx.TypeInternal)
	}

	items := make([]mailx.LogEntry, len(rows))
	for i, r := range rows {
		items[i] = r.toDomain()
	}
	return kernel.NewPaginated(items, opts.Page, opts.PageSize, total), nil
}

func (l *DeliveryLog) Stats(ctx context.Context) (mailx.LogStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending,
			COUNT(*) FILTER (WHERE status = 'sent') AS sent,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed
		FROM email_logs`

	var s mailx.LogStats
	if err := l.db.GetContext(ctx, &s, query); err != nil {
		return mailx.LogStats{}, errx.Wrap(err, "failed to compute delivery log stats", errx.TypeInternal)
	}
	return s, nil
}

// logFilter builds the WHERE clause for q with positional arguments.
func logFilter(q mailx.LogQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.Status != "" {
		args = append(args, string(q.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if q.Recipient != "" {
		args = append(args, strings.ToLower(q.Recipient))
		conds = append(conds, fmt.Sprintf("LOWER(recipient) = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
