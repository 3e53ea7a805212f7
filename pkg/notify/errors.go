package notify

import "github.com/Abraxas-365/expomail/pkg/errx"

var notifyErrors = errx.NewRegistry("NOTIFY")

var ErrProfileNotFound = notifyErrors.Register("PROFILE_NOT_FOUND", errx.TypeNotFound, 400, "Referenced profile not found")

func profileNotFound(entity, id string) *errx.Error {
	return notifyErrors.New(ErrProfileNotFound).
		WithDetail("entity", entity).
		WithDetail("id", id)
}
