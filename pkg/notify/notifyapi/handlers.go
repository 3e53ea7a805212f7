// Package notifyapi exposes the notifiers over HTTP.
package notifyapi

import (
	"context"

	"github.com/Abraxas-365/expomail/pkg/authx"
	"github.com/Abraxas-365/expomail/pkg/httpx"
	"github.com/Abraxas-365/expomail/pkg/logx"
	"github.com/Abraxas-365/expomail/pkg/mailx"
	"github.com/Abraxas-365/expomail/pkg/notify"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	svc *notify.Service
}

func NewHandlers(svc *notify.Service) *Handlers {
	return &Handlers{svc: svc}
}

// RegisterRoutes mounts the notifier routes on r. admin guards the bulk
// welcome route.
func (h *Handlers) RegisterRoutes(r fiber.Router, admin fiber.Handler) {
	r.Post("/stall-application", single(h.svc.SendStallApplicationEmail))
	r.Post("/stall-application-status", single(h.svc.SendStallApplicationStatusEmail))
	r.Post("/application-waitlisted", single(h.svc.SendApplicationWaitlistedEmail))
	r.Post("/application-rejected", single(h.svc.SendApplicationRejectedEmail))
	r.Post("/payment-reminder", single(h.svc.SendPaymentReminderEmail))
	r.Post("/payment-submitted", single(h.svc.SendPaymentSubmittedEmail))
	r.Post("/contact-response", single(h.svc.SendContactResponseEmail))
	r.Post("/contact-submission", fanout(h.svc.SendContactSubmissionEmail))
	r.Post("/welcome", single(h.svc.SendWelcomeEmail))
	r.Post("/exhibition-reminder", fanout(h.svc.SendExhibitionReminderEmails))
	r.Post("/welcome-all", admin, h.WelcomeAll)
}

// single adapts a one-recipient notifier. Delivery failures answer with the
// send result and the error's status.
func single[In any](fn func(context.Context, In) (mailx.SendResult, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in In
		if err := httpx.Bind(c, &in); err != nil {
			return err
		}
		res, err := fn(c.UserContext(), in)
		if err != nil {
			if res.Queued {
				return c.Status(fiber.StatusInternalServerError).JSON(res)
			}
			return err
		}
		return c.JSON(res)
	}
}

func fanout[In any](fn func(context.Context, In) (notify.FanoutResult, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in In
		if err := httpx.Bind(c, &in); err != nil {
			return err
		}
		res, err := fn(c.UserContext(), in)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// WelcomeAll starts the bulk welcome and answers before it finishes.
func (h *Handlers) WelcomeAll(c *fiber.Ctx) error {
	requestedBy := "anonymous"
	if caller, ok := authx.FromCtx(c); ok {
		requestedBy = caller.Subject
	}
	logx.WithField("requested_by", requestedBy).Info("notifyapi: welcome-all started")

	future := h.svc.SendWelcomeEmailsToAll(context.WithoutCancel(c.UserContext()))
	go func() {
		res, err := future.Await()
		if err != nil {
			logx.WithError(err).Error("notifyapi: welcome-all failed")
			return
		}
		logx.Infof("notifyapi: welcome-all finished for %d recipients", len(res.Results))
	}()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"message": "Welcome emails are being sent in the background",
	})
}
