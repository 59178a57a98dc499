package service

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrAuth               = errors.New("not authenticated")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnprocessableInput = errors.New("unprocessable input")
	ErrUpstream           = errors.New("analysis service failed")
	ErrUpstreamFormat     = errors.New("analysis service returned an unexpected format")
	ErrUpstreamTimeout    = errors.New("analysis service is waking up, please retry")
	ErrMailDelivery       = errors.New("could not send email")
)

// Error carries a client-facing message alongside a sentinel kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func newErr(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}
