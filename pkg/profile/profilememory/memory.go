package profilememory

import (
	"context"
	"sync"

	"github.com/Abraxas-365/expomail/pkg/kernel"
	"github.com/Abraxas-365/expomail/pkg/profile"
)

// Store is an in-memory profile.Store.
type Store struct {
	mu          sync.RWMutex
	organizers  map[kernel.OrganizerID]profile.OrganizerProfile
	brands      map[kernel.BrandID]profile.BrandProfile
	exhibitions map[kernel.ExhibitionID]profile.Exhibition
	approved    map[kernel.ExhibitionID][]kernel.BrandID
	attendees   map[kernel.ExhibitionID][]profile.Recipient
	managers    []string
	users       []profile.Recipient
}

var _ profile.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		organizers:  make(map[kernel.OrganizerID]profile.OrganizerProfile),
		brands:      make(map[kernel.BrandID]profile.BrandProfile),
		exhibitions: make(map[kernel.ExhibitionID]profile.Exhibition),
		approved:    make(map[kernel.ExhibitionID][]kernel.BrandID),
		attendees:   make(map[kernel.ExhibitionID][]profile.Recipient),
	}
}

func (s *Store) AddOrganizer(p profile.OrganizerProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.organizers[p.ID] = p
}

func (s *Store) AddBrand(p profile.BrandProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brands[p.ID] = p
}

func (s *Store) AddExhibition(e profile.Exhibition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exhibitions[e.ID] = e
}

// ApproveBrand records an approved stall application.
func (s *Store) ApproveBrand(exhibition kernel.ExhibitionID, brand kernel.BrandID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approved[exhibition] = append(s.approved[exhibition], brand)
}

func (s *Store) AddAttendee(exhibition kernel.ExhibitionID, r profile.Recipient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendees[exhibition] = append(s.attendees[exhibition], r)
}

func (s *Store) AddManager(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.managers = append(s.managers, email)
}

func (s *Store) AddUser(r profile.Recipient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, r)
}

func (s *Store) GetOrganizerProfile(_ context.Context, id kernel.OrganizerID) (*profile.OrganizerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.organizers[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) GetBrandProfile(_ context.Context, id kernel.BrandID) (*profile.BrandProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.brands[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) GetManagerEmails(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.managers...), nil
}

func (s *Store) GetExhibition(_ context.Context, id kernel.ExhibitionID) (*profile.Exhibition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.exhibitions[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *Store) ListApprovedBrandEmails(_ context.Context, id kernel.ExhibitionID) ([]profile.Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []profile.Recipient
	for _, b := range s.approved[id] {
		if p, ok := s.brands[b]; ok && p.ContactEmail != "" {
			out = append(out, profile.Recipient{Email: p.ContactEmail, Name: p.CompanyName})
		}
	}
	return out, nil
}

func (s *Store) ListAttendeeEmails(_ context.Context, id kernel.ExhibitionID) ([]profile.Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]profile.Recipient(nil), s.attendees[id]...), nil
}

func (s *Store) ListUserRecipients(context.Context) ([]profile.Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]profile.Recipient(nil), s.users...), nil
}
