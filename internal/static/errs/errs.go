package errs

import "errors"

var (
	InvalidParams      = errors.New("invalid problem parameters")
	TransportClosed    = errors.New("transport closed")
	UnexpectedTag      = errors.New("unexpected message")
	UnknownRank        = errors.New("unknown rank")
	Unauthorized       = errors.New("executor not authorized")
	RegistrationFailed = errors.New("executor registration failed")
	NotFound           = errors.New("not found")
)
