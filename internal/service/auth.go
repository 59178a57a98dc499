package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/job_tracker/internal/events"
	"github.com/Skotchmaster/job_tracker/internal/mail"
	"github.com/Skotchmaster/job_tracker/internal/models"
	"github.com/Skotchmaster/job_tracker/internal/repo"
	pkg_hash "github.com/Skotchmaster/job_tracker/pkg/hash"
	jwthelp "github.com/Skotchmaster/job_tracker/pkg/jwt"
	"github.com/Skotchmaster/job_tracker/pkg/logging"
	"github.com/Skotchmaster/job_tracker/pkg/tokens"
)

type AuthConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ResetTTL      time.Duration
	// ClientURL is the base of the reset link sent by mail.
	ClientURL string
}

type AuthService struct {
	Repo   *repo.GormRepo
	Cfg    AuthConfig
	Mail   mail.Sender
	Events events.Publisher
	Now    func() time.Time
}

type AuthResult struct {
	User         models.UserView
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, newErr(ErrValidation, "name, email and password are required")
	}
	if !validEmail(email) {
		return nil, newErr(ErrValidation, "invalid email address")
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	exists, err := s.Repo.EmailExists(ctx, email)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "email lookup failed", "error", err)
		return nil, err
	}
	if exists {
		l.Warn("register_failed", "status", 409, "reason", "email already registered")
		return nil, newErr(ErrConflict, "email already registered")
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{Name: name, Email: email, PasswordHash: pwHash}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, newErr(ErrConflict, "email already registered")
		}
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return nil, err
	}

	res, err := s.issueTokens(ctx, user)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, err
	}

	events.Emit(ctx, s.Events, l, events.TopicUsers, events.Event{
		Type:     "user_registered",
		UserID:   user.ID.String(),
		EntityID: user.ID.String(),
	})
	l.Info("user_registered", "user_id", user.ID)
	return res, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, newErr(ErrValidation, "email and password are required")
	}

	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, newErr(ErrAuth, "invalid credentials")
		}
		l.Error("login_error", "status", 500, "error", err)
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password", "user_id", user.ID)
		return nil, newErr(ErrAuth, "invalid credentials")
	}

	res, err := s.issueTokens(ctx, user)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, err
	}
	events.Emit(ctx, s.Events, l, events.TopicUsers, events.Event{Type: "user_logged_in", UserID: user.ID.String()})
	return res, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*models.UserView, error) {
	user, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, newErr(ErrAuth, "user no longer exists")
		}
		return nil, err
	}
	v := user.View()
	return &v, nil
}

// Refresh mints a new access token. The refresh token is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		return nil, newErr(ErrAuth, "missing refresh token")
	}
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.Cfg.RefreshSecret)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "invalid refresh token", "error", err)
		return nil, newErr(ErrAuth, "invalid refresh token")
	}

	usable, err := s.Repo.RefreshUsable(ctx, claims.ID, pkg_hash.Sha256Hex(refreshToken), s.now())
	if err != nil {
		l.Error("refresh_error", "status", 500, "error", err)
		return nil, err
	}
	if !usable {
		l.Warn("refresh_failed", "status", 401, "reason", "refresh token revoked or unknown")
		return nil, newErr(ErrAuth, "refresh token revoked or expired")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, newErr(ErrAuth, "invalid refresh token")
	}
	user, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, newErr(ErrAuth, "user no longer exists")
		}
		return nil, err
	}

	access, accessExp, err := s.signAccess(user.ID)
	if err != nil {
		l.Error("refresh_error", "status", 500, "reason", "cannot sign access token", "error", err)
		return nil, err
	}
	return &AuthResult{User: user.View(), AccessToken: access, AccessExp: accessExp}, nil
}

// Logout revokes the stored refresh record. Unknown or garbage tokens are
// ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.Cfg.RefreshSecret)
	if err != nil {
		return nil
	}
	if err := s.Repo.RevokeRefresh(ctx, claims.ID); err != nil {
		logging.FromContext(ctx).Error("logout_error", "svc", "auth.logout", "error", err)
		return err
	}
	return nil
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "auth.forgot_password")

	email = normalizeEmail(email)
	if email == "" {
		return newErr(ErrValidation, "email is required")
	}

	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Info("forgot_password_unknown_email", "status", 404)
			return newErr(ErrNotFound, "no account with that email")
		}
		return err
	}

	token, err := randomToken()
	if err != nil {
		return err
	}
	if err := s.Repo.SetResetToken(ctx, user.ID, pkg_hash.Sha256Hex(token), s.now().Add(s.Cfg.ResetTTL)); err != nil {
		l.Error("forgot_password_error", "status", 500, "reason", "cannot store token", "error", err)
		return err
	}

	link := strings.TrimRight(s.Cfg.ClientURL, "/") + "/reset-password/" + token
	if err := s.Mail.Send(ctx, mail.ResetPassword(user.Email, user.Name, link, s.Cfg.ResetTTL)); err != nil {
		l.Error("forgot_password_error", "status", 500, "reason", "mail delivery failed", "error", err)
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}
	l.Info("reset_link_sent", "user_id", user.ID)
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "auth.reset_password")

	if err := checkPassword(newPassword); err != nil {
		return err
	}
	if token == "" {
		return newErr(ErrInvalidToken, "invalid or expired token")
	}

	user, err := s.Repo.UserByResetToken(ctx, pkg_hash.Sha256Hex(token), s.now())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("reset_password_failed", "status", 400, "reason", "invalid or expired token")
			return newErr(ErrInvalidToken, "invalid or expired token")
		}
		return err
	}

	pwHash, err := pkg_hash.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Repo.ResetPassword(ctx, user.ID, pwHash); err != nil {
		l.Error("reset_password_error", "status", 500, "error", err)
		return err
	}
	l.Info("password_reset", "user_id", user.ID)
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	l := logging.FromContext(ctx).With("svc", "auth.change_password")

	if current == "" || next == "" {
		return newErr(ErrValidation, "current and new password are required")
	}
	if err := checkPassword(next); err != nil {
		return err
	}

	user, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return newErr(ErrAuth, "user no longer exists")
		}
		return err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, current) {
		l.Warn("change_password_failed", "status", 401, "reason", "wrong current password")
		return newErr(ErrAuth, "current password is incorrect")
	}

	pwHash, err := pkg_hash.HashPassword(next)
	if err != nil {
		return err
	}
	return s.Repo.UpdatePassword(ctx, user.ID, pwHash)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*AuthResult, error) {
	access, accessExp, err := s.signAccess(user.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	refreshExp := now.Add(s.Cfg.RefreshTTL)
	jti := jwthelp.NewJTI()
	refresh, err := tokens.SignRefresh(tokens.RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
		},
	}, s.Cfg.RefreshSecret)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.AddRefreshToken(ctx, &models.RefreshToken{
		UserID:    user.ID,
		JTI:       jti,
		TokenHash: pkg_hash.Sha256Hex(refresh),
		ExpiresAt: refreshExp,
	}); err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         user.View(),
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func (s *AuthService) signAccess(userID uuid.UUID) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.Cfg.AccessTTL)
	token, err := tokens.SignAccess(tokens.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}, s.Cfg.AccessSecret)
	return token, exp, err
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
