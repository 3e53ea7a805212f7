// Package profile is the read-only port to the marketplace's profile and
// exhibition records. Lookups for missing rows return (nil, nil).
package profile

import (
	"context"
	"time"

	"github.com/Abraxas-365/expomail/pkg/kernel"
)

type OrganizerProfile struct {
	ID           kernel.OrganizerID `json:"id"`
	ContactEmail string             `json:"contact_email"`
	CompanyName  string             `json:"company_name"`
	ContactName  string             `json:"contact_name,omitempty"`
	Phone        string             `json:"phone,omitempty"`
}

type BrandProfile struct {
	ID           kernel.BrandID `json:"id"`
	ContactEmail string         `json:"contact_email"`
	CompanyName  string         `json:"company_name"`
	ContactName  string         `json:"contact_name,omitempty"`
	Phone        string         `json:"phone,omitempty"`
}

type Exhibition struct {
	ID          kernel.ExhibitionID `json:"id"`
	Title       string              `json:"title"`
	Location    string              `json:"location,omitempty"`
	StartDate   time.Time           `json:"start_date"`
	EndDate     time.Time           `json:"end_date"`
	OrganizerID kernel.OrganizerID  `json:"organiser_id"`
}

// Recipient is an addressable person for fan-out mail.
type Recipient struct {
	Email string `json:"email" db:"email"`
	Name  string `json:"name,omitempty" db:"name"`
}

// Store reads profiles and exhibitions.
type Store interface {
	GetOrganizerProfile(ctx context.Context, id kernel.OrganizerID) (*OrganizerProfile, error)
	GetBrandProfile(ctx context.Context, id kernel.BrandID) (*BrandProfile, error)
	GetManagerEmails(ctx context.Context) ([]string, error)
	GetExhibition(ctx context.Context, id kernel.ExhibitionID) (*Exhibition, error)
	ListApprovedBrandEmails(ctx context.Context, id kernel.ExhibitionID) ([]Recipient, error)
	ListAttendeeEmails(ctx context.Context, id kernel.ExhibitionID) ([]Recipient, error)
	ListUserRecipients(ctx context.Context) ([]Recipient, error)
}
