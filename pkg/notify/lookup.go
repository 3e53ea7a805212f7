package notify

import (
	"context"

	"github.com/Abraxas-365/expomail/pkg/kernel"
	"github.com/Abraxas-365/expomail/pkg/profile"
)

func (s *Service) organizer(ctx context.Context, id kernel.OrganizerID) (*profile.OrganizerProfile, error) {
	p, err := s.store.GetOrganizerProfile(ctx, id)
	if err != nil {
		lookupFailed("organiser", id.String(), err)
		p = nil
	}
	if p == nil || p.ContactEmail == "" {
		return nil, profileNotFound("organiser", id.String())
	}
	return p, nil
}

func (s *Service) brand(ctx context.Context, id kernel.BrandID) (*profile.BrandProfile, error) {
	p, err := s.store.GetBrandProfile(ctx, id)
	if err != nil {
		lookupFailed("brand", id.String(), err)
		p = nil
	}
	if p == nil || p.ContactEmail == "" {
		return nil, profileNotFound("brand", id.String())
	}
	return p, nil
}

func (s *Service) exhibition(ctx context.Context, id kernel.ExhibitionID) (*profile.Exhibition, error) {
	e, err := s.store.GetExhibition(ctx, id)
	if err != nil {
		lookupFailed("exhibition", id.String(), err)
		e = nil
	}
	if e == nil {
		return nil, profileNotFound("exhibition", id.String())
	}
	return e, nil
}

// optionalExhibition fetches an exhibition when an id is given. A missing
// record is still an error.
func (s *Service) optionalExhibition(ctx context.Context, id kernel.ExhibitionID) (*profile.Exhibition, error) {
	if id.IsEmpty() {
		return nil, nil
	}
	return s.exhibition(ctx, id)
}

func exhibitionData(data map[string]any, e *profile.Exhibition) map[string]any {
	if e == nil {
		data["exhibition_title"] = ""
		data["exhibition_location"] = ""
		data["exhibition_dates"] = ""
		return data
	}
	data["exhibition_id"] = e.ID.String()
	data["exhibition_title"] = e.Title
	data["exhibition_location"] = e.Location
	data["exhibition_start"] = formatDate(e.StartDate)
	data["exhibition_end"] = formatDate(e.EndDate)
	data["exhibition_dates"] = dateRange(e)
	return data
}

func dateRange(e *profile.Exhibition) string {
	start, end := formatDate(e.StartDate), formatDate(e.EndDate)
	switch {
	case start == "":
		return end
	case end == "" || end == start:
		return start
	default:
		return start + " - " + end
	}
}
