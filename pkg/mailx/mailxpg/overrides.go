package mailxpg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/expomail/pkg/errx"
	"github.com/Abraxas-365/expomail/pkg/mailx"
	"github.com/jmoiron/sqlx"
)

// OverrideStore reads template overrides from the email_templates table.
type OverrideStore struct {
	db *sqlx.DB
}

var _ mailx.OverrideStore = (*OverrideStore)(nil)

func NewOverrideStore(db *sqlx.DB) *OverrideStore {
	return &OverrideStore{db: db}
}

type templateRow struct {
	ID      string         `db:"id"`
	Subject sql.NullString `db:"subject"`
	HTML    string         `db:"html_content"`
}

func (s *OverrideStore) Get(ctx context.Context, id string) (*mailx.RawTemplate, error) {
	var row templateRow
	query := `SELECT id, subject, html_content FROM email_templates WHERE id = $1 AND is_active`
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errx.Wrap(err, "failed to load template override", errx.TypeInternal).
			WithDetail("template_id", id)
	}
	return &mailx.RawTemplate{
		ID:      row.ID,
		Subject: row.Subject.String,
		HTML:    row.HTML,
		Source:  mailx.SourceOverride,
	}, nil
}

// ListIDs returns active override ids in creation order.
func (s *OverrideStore) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	query := `SELECT id FROM email_templates WHERE is_active ORDER BY created_at, id`
	if err := s.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, errx.Wrap(err, "failed to list template overrides", errx.TypeInternal)
	}
	return ids, nil
}
