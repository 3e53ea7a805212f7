package mailx

import "github.com/Abraxas-365/expomail/pkg/errx"

var mailxErrors = errx.NewRegistry("MAILX")

var (
	ErrValidation       = mailxErrors.Register("VALIDATION", errx.TypeValidation, 400, "Invalid email message")
	ErrTemplateNotFound = mailxErrors.Register("TEMPLATE_NOT_FOUND", errx.TypeNotFound, 400, "Email template not found")
	ErrTransport        = mailxErrors.Register("TRANSPORT", errx.TypeExternal, 502, "Mail relay rejected or unreachable")
	ErrLogSink          = mailxErrors.Register("LOG_SINK", errx.TypeExternal, 500, "Delivery log unavailable")
	ErrSweepInProgress  = mailxErrors.Register("SWEEP_IN_PROGRESS", errx.TypeConflict, 409, "Queue sweep already in progress")
	ErrSweeperRunning   = mailxErrors.Register("SWEEPER_RUNNING", errx.TypeConflict, 409, "Queue sweeper is already running")
)

// NewTransportError wraps a relay failure. Transports return it so the
// relay's own message reaches the caller.
func NewTransportError(cause error) *errx.Error {
	return mailxErrors.NewWithCause(ErrTransport, cause)
}

// NewLogSinkError wraps a delivery-log failure.
func NewLogSinkError(cause error) *errx.Error {
	return mailxErrors.NewWithCause(ErrLogSink, cause)
}

func validationError(reason string) *errx.Error {
	return mailxErrors.NewWithMessage(ErrValidation, reason)
}

// retryable reports whether a failed delivery may succeed on a later sweep.
func retryable(err error) bool {
	return !errx.IsCode(err, ErrValidation) && !errx.IsCode(err, ErrTemplateNotFound)
}
