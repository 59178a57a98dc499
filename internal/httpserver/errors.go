package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/job_tracker/internal/service"
	"github.com/Skotchmaster/job_tracker/pkg/logging"
)

const internalMessage = "internal server error"

var kindStatus = []struct {
	kind error
	code int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrInvalidToken, http.StatusBadRequest},
	{service.ErrUnprocessableInput, http.StatusBadRequest},
	{service.ErrAuth, http.StatusUnauthorized},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
	{service.ErrUpstreamTimeout, http.StatusGatewayTimeout},
	{service.ErrUpstreamFormat, http.StatusBadGateway},
	{service.ErrUpstream, http.StatusBadGateway},
	{service.ErrMailDelivery, http.StatusInternalServerError},
}

// toHTTPError maps a service error to the status and message sent to the
// client. Anything unrecognised is a 500 with a generic message.
func toHTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	for _, ks := range kindStatus {
		if !errors.Is(err, ks.kind) {
			continue
		}
		msg := ks.kind.Error()
		var se *service.Error
		if errors.As(err, &se) && se.Msg != "" {
			msg = se.Msg
		}
		return echo.NewHTTPError(ks.code, msg).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, internalMessage).SetInternal(err)
}

// ErrorHandler renders every error as {"message": "..."}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he := toHTTPError(err)

	msg := internalMessage
	switch m := he.Message.(type) {
	case string:
		msg = m
	case error:
		msg = m.Error()
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(he.Code)
	} else {
		werr = c.JSON(he.Code, echo.Map{"message": msg})
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("error_response_failed", "error", werr)
	}
}

// fail logs a rejected request at the level its status deserves and returns
// the error for ErrorHandler to render.
func fail(c echo.Context, event string, err error) error {
	he := toHTTPError(err)
	l := logging.FromContext(c.Request().Context())
	if he.Code >= 500 {
		l.Error(event, "status", he.Code, "reason", he.Message, "error", err)
	} else {
		l.Warn(event, "status", he.Code, "reason", he.Message, "error", err)
	}
	return he
}
