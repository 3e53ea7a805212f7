// Package mailxapi exposes the dispatcher under /api/email.
package mailxapi

import (
	"context"
	"time"

	"github.com/Abraxas-365/expomail/pkg/asyncx"
	"github.com/Abraxas-365/expomail/pkg/httpx"
	"github.com/Abraxas-365/expomail/pkg/kernel"
	"github.com/Abraxas-365/expomail/pkg/mailx"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type Handlers struct {
	dispatcher *mailx.Dispatcher
	logs       mailx.DeliveryLogReader
}

// NewHandlers builds the handlers. logs may be nil, in which case the log
// routes answer 503.
func NewHandlers(d *mailx.Dispatcher, logs mailx.DeliveryLogReader) *Handlers {
	return &Handlers{dispatcher: d, logs: logs}
}

// RegisterRoutes mounts the core routes on r. admin guards the operational
// routes.
func (h *Handlers) RegisterRoutes(r fiber.Router, admin fiber.Handler) {
	r.Post("/send", h.Send)
	r.Post("/template", h.SendTemplate)
	r.Post("/queue", h.Queue)
	r.Get("/templates", h.ListTemplates)
	r.Get("/template/:id", h.GetTemplate)

	r.Post("/process-queue", admin, h.ProcessQueue)
	r.Post("/verify", admin, h.Verify)
	r.Get("/logs", admin, h.Logs)
	r.Get("/stats", admin, h.Stats)
	r.Get("/diagnose", admin, h.Diagnose)
}

type sendRequest struct {
	To      string `json:"to" validate:"required,email"`
	From    string `json:"from" validate:"omitempty"`
	Subject string `json:"subject" validate:"required"`
	HTML    string `json:"html" validate:"required_without=Text"`
	Text    string `json:"text"`
}

type templateRequest struct {
	To         string         `json:"to" validate:"required,email"`
	From       string         `json:"from"`
	TemplateID string         `json:"templateId" validate:"required"`
	Data       map[string]any `json:"data"`
}

// queueRequest is a direct message unless templateId is set.
type queueRequest struct {
	To         string         `json:"to" validate:"required,email"`
	From       string         `json:"from"`
	Subject    string         `json:"subject" validate:"required_without=TemplateID"`
	HTML       string         `json:"html"`
	Text       string         `json:"text"`
	TemplateID string         `json:"templateId"`
	Data       map[string]any `json:"data"`
	SendAt     *time.Time     `json:"sendAt"`
}

func (q queueRequest) message() mailx.Message {
	if q.TemplateID != "" {
		return mailx.TemplateMessage{To: q.To, From: q.From, TemplateID: q.TemplateID, Data: q.Data, SendAt: q.SendAt}
	}
	return mailx.DirectMessage{To: q.To, From: q.From, Subject: q.Subject, HTML: q.HTML, Text: q.Text, SendAt: q.SendAt}
}

func (h *Handlers) Send(c *fiber.Ctx) error {
	var req sendRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	res, err := h.dispatcher.SendEmail(c.UserContext(), mailx.DirectMessage{
		To:      req.To,
		From:    req.From,
		Subject: req.Subject,
		HTML:    req.HTML,
		Text:    req.Text,
	})
	return respond(c, res, err)
}

func (h *Handlers) SendTemplate(c *fiber.Ctx) error {
	var req templateRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	res, err := h.dispatcher.SendTemplateEmail(c.UserContext(), mailx.TemplateMessage{
		To:         req.To,
		From:       req.From,
		TemplateID: req.TemplateID,
		Data:       req.Data,
	})
	return respond(c, res, err)
}

// respond answers a queued delivery failure with the result body; other
// errors go to the error handler.
func respond(c *fiber.Ctx, res mailx.SendResult, err error) error {
	if err == nil {
		return c.JSON(res)
	}
	if res.Queued {
		return c.Status(fiber.StatusInternalServerError).JSON(res)
	}
	return err
}

func (h *Handlers) Queue(c *fiber.Ctx) error {
	var req queueRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	res, err := h.dispatcher.QueueEmail(c.UserContext(), req.message())
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *Handlers) ProcessQueue(c *fiber.Ctx) error {
	res, err := h.dispatcher.ProcessQueue(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *Handlers) ListTemplates(c *fiber.Ctx) error {
	ids, err := h.dispatcher.AvailableTemplates(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "templates": ids})
}

func (h *Handlers) GetTemplate(c *fiber.Ctx) error {
	tmpl, err := h.dispatcher.Template(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "template": tmpl})
}

func (h *Handlers) Verify(c *fiber.Ctx) error {
	ok := h.dispatcher.VerifyConnection(c.UserContext())
	msg := "Mail relay connection verified"
	if !ok {
		msg = "Mail relay connection failed"
	}
	return c.JSON(fiber.Map{"success": ok, "message": msg})
}

func (h *Handlers) Logs(c *fiber.Ctx) error {
	if h.logs == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Delivery log is not configured")
	}
	q := mailx.LogQuery{
		Status:    mailx.LogStatus(c.Query("status")),
		Recipient: c.Query("recipient"),
		PaginationOptions: kernel.PaginationOptions{
			Page:     c.QueryInt("page", 1),
			PageSize: c.QueryInt("page_size", defaultPageSize),
		}.Normalize(defaultPageSize, maxPageSize),
	}
	switch q.Status {
	case "", mailx.LogPending, mailx.LogSent, mailx.LogFailed:
	default:
		return fiber.NewError(fiber.StatusBadRequest, "status must be pending, sent or failed")
	}

	page, err := h.logs.List(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "logs": page})
}

func (h *Handlers) Stats(c *fiber.Ctx) error {
	resp := fiber.Map{
		"success":      true,
		"queue_length": h.dispatcher.QueueLength(),
	}
	if h.logs != nil {
		stats, err := h.logs.Stats(c.UserContext())
		if err != nil {
			return err
		}
		resp["stats"] = stats
	}
	return c.JSON(resp)
}

// Diagnose reports configuration presence, relay reachability, template
// count and queue depth. Checks run concurrently and never fail the request.
func (h *Handlers) Diagnose(c *fiber.Ctx) error {
	cfg := h.dispatcher.Config()

	checks := asyncx.AllSettled(c.UserContext(),
		func(ctx context.Context) (any, error) {
			return h.dispatcher.VerifyConnection(ctx), nil
		},
		func(ctx context.Context) (any, error) {
			return h.dispatcher.AvailableTemplates(ctx)
		},
	)

	templates := fiber.Map{"count": 0}
	if checks[1].OK() {
		ids, _ := checks[1].Value.([]string)
		templates["count"] = len(ids)
		templates["ids"] = ids
	} else {
		templates["error"] = checks[1].Err.Error()
	}

	return c.JSON(fiber.Map{
		"success": true,
		"config": fiber.Map{
			"relay_host":       cfg.RelayHost,
			"relay_port":       cfg.RelayPort,
			"relay_user_set":   cfg.RelayUser != "",
			"relay_secret_set": cfg.RelaySecret != "",
			"from":             cfg.Sender(),
			"template_dir":     cfg.TemplateDir,
			"public_base_url":  cfg.PublicBaseURL,
			"max_attempts":     cfg.MaxAttempts,
		},
		"connection": checks[0].Value,
		"templates":  templates,
		"queue": fiber.Map{
			"length":   h.dispatcher.QueueLength(),
			"messages": h.dispatcher.QueueSnapshot(),
		},
	})
}
