package profilepg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Abraxas-365/expomail/pkg/errx"
	"github.com/Abraxas-365/expomail/pkg/kernel"
	"github.com/Abraxas-365/expomail/pkg/profile"
	"github.com/jmoiron/sqlx"
)

// Store reads profiles from the marketplace database.
type Store struct {
	db *sqlx.DB
}

var _ profile.Store = (*Store)(nil)

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type partyRow struct {
	ID           string         `db:"id"`
	ContactEmail sql.NullString `db:"contact_email"`
	CompanyName  sql.NullString `db:"company_name"`
	ContactName  sql.NullString `db:"contact_name"`
	Phone        sql.NullString `db:"phone"`
}

type exhibitionRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Location    sql.NullString `db:"location"`
	StartDate   time.Time      `db:"start_date"`
	EndDate     time.Time      `db:"end_date"`
	OrganiserID string         `db:"organiser_id"`
}

func (r partyRow) toOrganizer() *profile.OrganizerProfile {
	return &profile.OrganizerProfile{
		ID:           kernel.NewOrganizerID(r.ID),
		ContactEmail: r.ContactEmail.String,
		CompanyName:  r.CompanyName.String,
		ContactName:  r.ContactName.String,
		Phone:        r.Phone.String,
	}
}

func (r partyRow) toBrand() *profile.BrandProfile {
	return &profile.BrandProfile{
		ID:           kernel.NewBrandID(r.ID),
		ContactEmail: r.ContactEmail.String,
		CompanyName:  r.CompanyName.String,
		ContactName:  r.ContactName.String,
		Phone:        r.Phone.String,
	}
}

func (r exhibitionRow) toDomain() *profile.Exhibition {
	return &profile.Exhibition{
		ID:          kernel.NewExhibitionID(r.ID),
		Title:       r.Title,
		Location:    r.Location.String,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		OrganizerID: kernel.NewOrganizerID(r.OrganiserID),
	}
}

func (s *Store) GetOrganizerProfile(ctx context.Context, id kernel.OrganizerID) (*profile.OrganizerProfile, error) {
	var row partyRow
	query := `
		SELECT id, contact_email, company_name, contact_name, phone
		FROM organiser_profiles WHERE id = $1`
	if err := s.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errx.Wrap(err, "failed to load organiser profile", errx.TypeInternal).
			WithDetail("organiser_id", id.String())
	}
	return row.toOrganizer(), nil
}

func (s *Store) GetBrandProfile(ctx context.Context, id kernel.BrandID) (*profile.BrandProfile, error) {
	var row partyRow
	query := `
		SELECT id, contact_email, company_name, contact_name, phone
		FROM brand_profiles WHERE id = $1`
	if err := s.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errx.Wrap(err, "failed to load brand profile", errx.TypeInternal).
			WithDetail("brand_id", id.String())
	}
	return row.toBrand(), nil
}

func (s *Store) GetManagerEmails(ctx context.Context) ([]string, error) {
	var emails []string
	query := `
		SELECT email FROM profiles
		WHERE role = 'manager' AND email IS NOT NULL AND email <> ''
		ORDER BY created_at`
	if err := s.db.SelectContext(ctx, &emails, query); err != nil {
		return nil, errx.Wrap(err, "failed to load manager emails", errx.TypeInternal)
	}
	return emails, nil
}

func (s *Store) GetExhibition(ctx context.Context, id kernel.ExhibitionID) (*profile.Exhibition, error) {
	var row exhibitionRow
	query := `
		SELECT id, title, location, start_date, end_date, organiser_id
		FROM exhibitions WHERE id = $1`
	if err := s.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errx.Wrap(err, "failed to load exhibition", errx.TypeInternal).
			WithDetail("exhibition_id", id.String())
	}
	return row.toDomain(), nil
}

func (s *Store) ListApprovedBrandEmails(ctx context.Context, id kernel.ExhibitionID) ([]profile.Recipient, error) {
	var out []profile.Recipient
	query := `
		SELECT bp.contact_email AS email, COALESCE(bp.company_name, '') AS name
		FROM stall_applications sa
		JOIN brand_profiles bp ON bp.id = sa.brand_id
		WHERE sa.exhibition_id = $1 AND sa.status = 'approved'
		  AND bp.contact_email IS NOT NULL AND bp.contact_email <> ''
		ORDER BY sa.created_at`
	if err := s.db.SelectContext(ctx, &out, query, id.String()); err != nil {
		return nil, errx.Wrap(err, "failed to list approved brands", errx.TypeInternal).
			WithDetail("exhibition_id", id.String())
	}
	return out, nil
}

func (s *Store) ListAttendeeEmails(ctx context.Context, id kernel.ExhibitionID) ([]profile.Recipient, error) {
	var out []profile.Recipient
	query := `
		SELECT email, COALESCE(name, '') AS name
		FROM exhibition_attendees
		WHERE exhibition_id = $1 AND email IS NOT NULL AND email <> ''
		ORDER BY created_at`
	if err := s.db.SelectContext(ctx, &out, query, id.String()); err != nil {
		return nil, errx.Wrap(err, "failed to list attendees", errx.TypeInternal).
			WithDetail("exhibition_id", id.String())
	}
	return out, nil
}

func (s *Store) ListUserRecipients(ctx context.Context) ([]profile.Recipient, error) {
	var out []profile.Recipient
	query := `
		SELECT email, COALESCE(full_name, '') AS name
		FROM profiles
		WHERE email IS NOT NULL AND email <> ''
		ORDER BY created_at`
	if err := s.db.SelectContext(ctx, &out, query); err != nil {
		return nil, errx.Wrap(err, "failed to list users", errx.TypeInternal)
	}
	return out, nil
}
