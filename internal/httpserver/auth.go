package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/job_tracker/internal/jwtmiddleware"
	"github.com/Skotchmaster/job_tracker/internal/service"
	"github.com/Skotchmaster/job_tracker/internal/transport"
	jwthelp "github.com/Skotchmaster/job_tracker/pkg/jwt"
	"github.com/Skotchmaster/job_tracker/pkg/logging"
)

type AuthHTTP struct {
	Svc    *service.AuthService
	Cookie jwthelp.CookieConfig
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, "register_error", err)
	}

	res, err := h.Svc.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return fail(c, "register_failed", err)
	}

	c.SetCookie(h.Cookie.Create(jwthelp.RefreshCookieName, res.RefreshToken, res.RefreshExp))
	l.Info("register_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusCreated, transport.AuthResponse{User: res.User, Token: res.AccessToken})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, "login_error", err)
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(c, "login_failed", err)
	}

	c.SetCookie(h.Cookie.Create(jwthelp.RefreshCookieName, res.RefreshToken, res.RefreshExp))
	l.Info("login_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, transport.AuthResponse{User: res.User, Token: res.AccessToken})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := jwtmiddleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	user, err := h.Svc.CurrentUser(ctx, userID)
	if err != nil {
		return fail(c, "me_failed", err)
	}
	return c.JSON(http.StatusOK, transport.UserResponse{User: *user})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	token := ""
	if ck, err := c.Cookie(jwthelp.RefreshCookieName); err == nil {
		token = ck.Value
	}

	res, err := h.Svc.Refresh(ctx, token)
	if err != nil {
		c.SetCookie(h.Cookie.Delete(jwthelp.RefreshCookieName))
		return fail(c, "refresh_failed", err)
	}

	l.Info("refresh_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, transport.TokenResponse{Token: res.AccessToken})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	// the cookie is cleared even when revocation fails
	c.SetCookie(h.Cookie.Delete(jwthelp.RefreshCookieName))

	if ck, err := c.Cookie(jwthelp.RefreshCookieName); err == nil {
		if err := h.Svc.Logout(ctx, ck.Value); err != nil {
			return fail(c, "logout_failed", err)
		}
	}

	l.Info("successful_logout")
	return c.JSON(http.StatusOK, transport.OKResponse{OK: true})
}

func (h *AuthHTTP) ForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.ForgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, "forgot_password_error", err)
	}
	if err := h.Svc.ForgotPassword(ctx, req.Email); err != nil {
		return fail(c, "forgot_password_failed", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "password reset link sent"})
}

func (h *AuthHTTP) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_reset_password")

	var req transport.ResetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, "reset_password_error", err)
	}
	if err := h.Svc.ResetPassword(ctx, c.Param("token"), req.NewPassword); err != nil {
		return fail(c, "reset_password_failed", err)
	}

	l.Info("reset_password_successful")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "password has been reset"})
}

func (h *AuthHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := jwtmiddleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	var req transport.ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, "change_password_error", err)
	}
	if err := h.Svc.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		return fail(c, "change_password_failed", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "password updated"})
}

func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return &service.Error{Kind: service.ErrValidation, Msg: "invalid body"}
	}
	return c.Validate(dst)
}
