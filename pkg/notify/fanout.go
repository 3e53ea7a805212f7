package notify

import (
	"context"
	"strings"

	"github.com/Abraxas-365/expomail/pkg/asyncx"
	"github.com/Abraxas-365/expomail/pkg/kernel"
	"github.com/Abraxas-365/expomail/pkg/logx"
	"github.com/Abraxas-365/expomail/pkg/profile"
)

// RecipientResult is the outcome of one send in a fan-out.
type RecipientResult struct {
	Email     string `json:"email"`
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// FanoutResult is always successful once the fan-out ran; individual
// failures are listed in Results.
type FanoutResult struct {
	Success bool              `json:"success"`
	Results []RecipientResult `json:"results"`
}

type target struct {
	email string
	data  map[string]any
}

// fanout sends sequentially with the configured delay between sends. A
// cancelled context marks the remaining recipients as failed.
func (s *Service) fanout(ctx context.Context, templateID string, targets []target) FanoutResult {
	res := FanoutResult{Success: true, Results: make([]RecipientResult, 0, len(targets))}
	for i, t := range targets {
		if i > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				for _, rest := range targets[i:] {
					res.Results = append(res.Results, RecipientResult{Email: rest.email, Error: err.Error()})
				}
				break
			}
		}

		r, err := s.send(ctx, t.email, templateID, t.data)
		rr := RecipientResult{Email: t.email, Success: r.Success, MessageID: r.MessageID, Error: r.Error}
		if err != nil && rr.Error == "" {
			rr.Error = err.Error()
		}
		res.Results = append(res.Results, rr)
	}

	failedCount := 0
	for _, r := range res.Results {
		if !r.Success {
			failedCount++
		}
	}
	logx.WithFields(logx.Fields{
		"template_id": templateID,
		"recipients":  len(targets),
		"failed":      failedCount,
	}).Info("notify: fan-out finished")
	return res
}

// ContactSubmission forwards a contact-form message to every manager.
type ContactSubmission struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject"`
	Message string `json:"message" validate:"required"`
}

func (s *Service) SendContactSubmissionEmail(ctx context.Context, in ContactSubmission) (FanoutResult, error) {
	managers, err := s.store.GetManagerEmails(ctx)
	if err != nil {
		lookupFailed("managers", "", err)
		managers = nil
	}
	if len(managers) == 0 {
		return FanoutResult{}, profileNotFound("managers", "")
	}

	data := map[string]any{
		"sender_name":  in.Name,
		"sender_email": in.Email,
		"topic":        in.Subject,
		"message":      in.Message,
		"subject":      "New contact submission from " + in.Name,
		"support_link": s.link("/manager/support"),
	}
	targets := make([]target, 0, len(managers))
	for _, m := range dedupe(recipients(managers)) {
		targets = append(targets, target{email: m.Email, data: data})
	}
	return s.fanout(ctx, TplContactSubmission, targets), nil
}

// ExhibitionReminder reminds everyone involved in an upcoming exhibition.
type ExhibitionReminder struct {
	ExhibitionID kernel.ExhibitionID `json:"exhibition_id" validate:"required"`
	Message      string              `json:"message"`
}

// SendExhibitionReminderEmails mails the organiser, every approved brand and
// every attendee. Only the exhibition itself is required; the organiser and
// the recipient lists are best-effort.
func (s *Service) SendExhibitionReminderEmails(ctx context.Context, in ExhibitionReminder) (FanoutResult, error) {
	ex, err := s.exhibition(ctx, in.ExhibitionID)
	if err != nil {
		return FanoutResult{}, err
	}

	var all []roleRecipient
	if org, err := s.organizer(ctx, ex.OrganizerID); err == nil {
		all = append(all, roleRecipient{
			Recipient: profile.Recipient{Email: org.ContactEmail, Name: firstNonEmpty(org.ContactName, org.CompanyName)},
			role:      "organiser",
		})
	} else {
		logx.WithField("exhibition_id", ex.ID.String()).Warn("notify: reminder without organiser")
	}

	brands, err := s.store.ListApprovedBrandEmails(ctx, ex.ID)
	if err != nil {
		lookupFailed("approved_brands", ex.ID.String(), err)
	}
	for _, b := range brands {
		all = append(all, roleRecipient{Recipient: b, role: "brand"})
	}

	attendees, err := s.store.ListAttendeeEmails(ctx, ex.ID)
	if err != nil {
		lookupFailed("attendees", ex.ID.String(), err)
	}
	for _, a := range attendees {
		all = append(all, roleRecipient{Recipient: a, role: "attendee"})
	}

	seen := make(map[string]struct{}, len(all))
	targets := make([]target, 0, len(all))
	for _, r := range all {
		key := strings.ToLower(strings.TrimSpace(r.Email))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		targets = append(targets, target{
			email: r.Email,
			data: exhibitionData(map[string]any{
				"name":            firstNonEmpty(r.Name, "there"),
				"role":            r.role,
				"message":         in.Message,
				"exhibition_link": s.link("/exhibitions/" + ex.ID.String()),
			}, ex),
		})
	}
	return s.fanout(ctx, TplExhibitionReminder, targets), nil
}

// SendWelcomeEmailsToAll welcomes every user in the background. The caller
// may await the future or drop it.
func (s *Service) SendWelcomeEmailsToAll(ctx context.Context) *asyncx.Future[FanoutResult] {
	return asyncx.Run(func() (FanoutResult, error) {
		users, err := s.store.ListUserRecipients(ctx)
		if err != nil {
			lookupFailed("users", "", err)
			users = nil
		}
		targets := make([]target, 0, len(users))
		for _, u := range dedupe(users) {
			targets = append(targets, target{email: u.Email, data: s.welcomeData(u.Name, "")})
		}
		return s.fanout(ctx, TplWelcome, targets), nil
	})
}

type roleRecipient struct {
	profile.Recipient
	role string
}

func recipients(emails []string) []profile.Recipient {
	out := make([]profile.Recipient, 0, len(emails))
	for _, e := range emails {
		out = append(out, profile.Recipient{Email: e})
	}
	return out
}

// dedupe drops blank and repeated addresses, keeping first occurrence order.
func dedupe(in []profile.Recipient) []profile.Recipient {
	seen := make(map[string]struct{}, len(in))
	out := make([]profile.Recipient, 0, len(in))
	for _, r := range in {
		key := strings.ToLower(strings.TrimSpace(r.Email))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
