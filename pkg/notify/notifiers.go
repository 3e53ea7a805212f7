package notify

import (
	"context"

	"github.com/Abraxas-365/expomail/pkg/kernel"
	"github.com/Abraxas-365/expomail/pkg/mailx"
)

// StallApplication announces a brand's stall application to the organiser.
type StallApplication struct {
	OrganizerID  kernel.OrganizerID  `json:"organiser_id" validate:"required"`
	BrandID      kernel.BrandID      `json:"brand_id" validate:"required"`
	ExhibitionID kernel.ExhibitionID `json:"exhibition_id"`
	StallName    string              `json:"stall_name"`
	Message      string              `json:"message"`
}

func (s *Service) SendStallApplicationEmail(ctx context.Context, in StallApplication) (mailx.SendResult, error) {
	org, err := s.organizer(ctx, in.OrganizerID)
	if err != nil {
		return failed(err)
	}
	brand, err := s.brand(ctx, in.BrandID)
	if err != nil {
		return failed(err)
	}
	ex, err := s.optionalExhibition(ctx, in.ExhibitionID)
	if err != nil {
		return failed(err)
	}

	data := exhibitionData(map[string]any{
		"organiser_name": firstNonEmpty(org.ContactName, org.CompanyName),
		"company_name":   org.CompanyName,
		"brand_name":     brand.CompanyName,
		"brand_contact":  brand.ContactName,
		"brand_email":    brand.ContactEmail,
		"stall_name":     in.StallName,
		"message":        in.Message,
		"dashboard_link": s.link("/organiser/applications"),
	}, ex)
	return s.send(ctx, org.ContactEmail, TplStallApplication, data)
}

// StallApplicationStatus tells a brand its application was decided.
type StallApplicationStatus struct {
	BrandID      kernel.BrandID      `json:"brand_id" validate:"required"`
	ExhibitionID kernel.ExhibitionID `json:"exhibition_id"`
	Status       string              `json:"status" validate:"required"`
	StallName    string              `json:"stall_name"`
	Notes        string              `json:"notes"`
}

func (s *Service) SendStallApplicationStatusEmail(ctx context.Context, in StallApplicationStatus) (mailx.SendResult, error) {
	brand, err := s.brand(ctx, in.BrandID)
	if err != nil {
		return failed(err)
	}
	ex, err := s.optionalExhibition(ctx, in.ExhibitionID)
	if err != nil {
		return failed(err)
	}

	data := exhibitionData(map[string]any{
		"brand_name":     brand.CompanyName,
		"contact_name":   firstNonEmpty(brand.ContactName, brand.CompanyName),
		"status":         in.Status,
		"stall_name":     in.StallName,
		"notes":          in.Notes,
		"dashboard_link": s.link("/brand/applications"),
	}, ex)
	return s.send(ctx, brand.ContactEmail, TplStallApplicationStatus, data)
}

// ApplicationDecision is the input for the waitlist and rejection notices.
type ApplicationDecision struct {
	BrandID      kernel.BrandID      `json:"brand_id" validate:"required"`
	ExhibitionID kernel.ExhibitionID `json:"exhibition_id"`
	StallName    string              `json:"stall_name"`
	Reason       string              `json:"reason"`
}

func (s *Service) SendApplicationWaitlistedEmail(ctx context.Context, in ApplicationDecision) (mailx.SendResult, error) {
	return s.decision(ctx, in, TplApplicationWaitlisted)
}

func (s *Service) SendApplicationRejectedEmail(ctx context.Context, in ApplicationDecision) (mailx.SendResult, error) {
	return s.decision(ctx, in, TplApplicationRejected)
}

func (s *Service) decision(ctx context.Context, in ApplicationDecision, templateID string) (mailx.SendResult, error) {
	brand, err := s.brand(ctx, in.BrandID)
	if err != nil {
		return failed(err)
	}
	ex, err := s.optionalExhibition(ctx, in.ExhibitionID)
	if err != nil {
		return failed(err)
	}

	data := exhibitionData(map[string]any{
		"brand_name":     brand.CompanyName,
		"contact_name":   firstNonEmpty(brand.ContactName, brand.CompanyName),
		"stall_name":     in.StallName,
		"reason":         in.Reason,
		"browse_link":    s.link("/exhibitions"),
		"dashboard_link": s.link("/brand/applications"),
	}, ex)
	return s.send(ctx, brand.ContactEmail, templateID, data)
}

// PaymentReminder asks a brand to pay for an approved stall.
type PaymentReminder struct {
	BrandID      kernel.BrandID      `json:"brand_id" validate:"required"`
	ExhibitionID kernel.ExhibitionID `json:"exhibition_id"`
	StallName    string              `json:"stall_name"`
	Amount       string              `json:"amount"`
	DueDate      string              `json:"due_date"`
}

func (s *Service) SendPaymentReminderEmail(ctx context.Context, in PaymentReminder) (mailx.SendResult, error) {
	brand, err := s.brand(ctx, in.BrandID)
	if err != nil {
		return failed(err)
	}
	ex, err := s.optionalExhibition(ctx, in.ExhibitionID)
	if err != nil {
		return failed(err)
	}

	data := exhibitionData(map[string]any{
		"brand_name":   brand.CompanyName,
		"contact_name": firstNonEmpty(brand.ContactName, brand.CompanyName),
		"stall_name":   in.StallName,
		"amount":       in.Amount,
		"due_date":     in.DueDate,
		"payment_link": s.link("/brand/payments"),
	}, ex)
	return s.send(ctx, brand.ContactEmail, TplPaymentReminder, data)
}

// PaymentSubmitted tells the organiser a brand uploaded a payment.
type PaymentSubmitted struct {
	OrganizerID  kernel.OrganizerID  `json:"organiser_id" validate:"required"`
	BrandID      kernel.BrandID      `json:"brand_id" validate:"required"`
	ExhibitionID kernel.ExhibitionID `json:"exhibition_id"`
	StallName    string              `json:"stall_name"`
	Amount       string              `json:"amount"`
	Reference    string              `json:"reference"`
}

func (s *Service) SendPaymentSubmittedEmail(ctx context.Context, in PaymentSubmitted) (mailx.SendResult, error) {
	org, err := s.organizer(ctx, in.OrganizerID)
	if err != nil {
		return failed(err)
	}
	brand, err := s.brand(ctx, in.BrandID)
	if err != nil {
		return failed(err)
	}
	ex, err := s.optionalExhibition(ctx, in.ExhibitionID)
	if err != nil {
		return failed(err)
	}

	data := exhibitionData(map[string]any{
		"organiser_name": firstNonEmpty(org.ContactName, org.CompanyName),
		"brand_name":     brand.CompanyName,
		"brand_email":    brand.ContactEmail,
		"stall_name":     in.StallName,
		"amount":         in.Amount,
		"reference":      in.Reference,
		"dashboard_link": s.link("/organiser/payments"),
	}, ex)
	return s.send(ctx, org.ContactEmail, TplPaymentSubmitted, data)
}

// ContactResponse answers a support enquiry.
type ContactResponse struct {
	Email           string `json:"email" validate:"required,email"`
	Name            string `json:"name"`
	Subject         string `json:"subject"`
	OriginalMessage string `json:"original_message"`
	Response        string `json:"response" validate:"required"`
}

func (s *Service) SendContactResponseEmail(ctx context.Context, in ContactResponse) (mailx.SendResult, error) {
	data := map[string]any{
		"name":             firstNonEmpty(in.Name, "there"),
		"original_subject": in.Subject,
		"original_message": in.OriginalMessage,
		"response":         in.Response,
		"contact_link":     s.link("/contact"),
	}
	if in.Subject != "" {
		data["subject"] = "Re: " + in.Subject
	}
	return s.send(ctx, in.Email, TplContactResponse, data)
}

// Welcome greets a new user.
type Welcome struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (s *Service) SendWelcomeEmail(ctx context.Context, in Welcome) (mailx.SendResult, error) {
	return s.send(ctx, in.Email, TplWelcome, s.welcomeData(in.Name, in.Role))
}

func (s *Service) welcomeData(name, role string) map[string]any {
	return map[string]any{
		"name":           firstNonEmpty(name, "there"),
		"role":           role,
		"login_link":     s.link("/login"),
		"dashboard_link": s.link("/dashboard"),
	}
}

func failed(err error) (mailx.SendResult, error) {
	return mailx.SendResult{Success: false, Error: err.Error()}, err
}
