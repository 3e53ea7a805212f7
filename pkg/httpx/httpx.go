// Package httpx holds the request binding and error rendering shared by the
// fiber handlers. Every error body has the shape {success:false, error}.
package httpx

import (
	"errors"
	"reflect"
	"strings"

	"github.com/Abraxas-365/expomail/pkg/errx"
	"github.com/Abraxas-365/expomail/pkg/logx"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var httpErrors = errx.NewRegistry("HTTP")

var (
	ErrInvalidBody = httpErrors.Register("INVALID_BODY", errx.TypeValidation, 400, "Request body is not valid JSON")
	ErrValidation  = httpErrors.Register("VALIDATION", errx.TypeValidation, 400, "Request validation failed")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Bind parses the JSON body into dst and validates its struct tags.
func Bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return httpErrors.NewWithCause(ErrInvalidBody, err)
	}
	return Validate(dst)
}

// Validate checks dst's validator tags. Field failures are collected under
// the "fields" detail keyed by JSON name.
func Validate(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return httpErrors.NewWithCause(ErrValidation, err)
	}
	fields := map[string][]string{}
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], fe.Tag())
	}
	return httpErrors.New(ErrValidation).WithDetail("fields", fields)
}

// ErrorHandler is the fiber.Config ErrorHandler for the service.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	body := fiber.Map{"success": false}

	var fe *fiber.Error
	var xe *errx.Error
	switch {
	case errors.As(err, &fe):
		status = fe.Code
		body["error"] = fe.Message
	case errors.As(err, &xe):
		status = xe.HTTPStatus
		body["error"] = message(xe)
		body["code"] = xe.Code
		for k, v := range xe.Details {
			if k == "fields" {
				body["fields"] = v
				continue
			}
			details, _ := body["details"].(fiber.Map)
			if details == nil {
				details = fiber.Map{}
				body["details"] = details
			}
			details[k] = v
		}
	default:
		body["error"] = "Internal Server Error"
	}

	entry := logx.WithFields(logx.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"status":     status,
		"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
	}).WithError(err)
	if status >= fiber.StatusInternalServerError {
		entry.Error("httpx: request failed")
	} else {
		entry.Debug("httpx: request rejected")
	}

	return c.Status(status).JSON(body)
}

// message keeps the cause's text for validation failures, where it names
// the offending field.
func message(e *errx.Error) string {
	if e.Type == errx.TypeValidation && e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}
