package transport

import (
	"github.com/Skotchmaster/job_tracker/internal/models"
)

type RegisterRequest struct {
	Name     string `json:"name"     validate:"max=100"`
	Email    string `json:"email"    validate:"max=254"`
	Password string `json:"password" validate:"max=72"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"max=72"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"max=72"`
}

type CreateJobRequest struct {
	Company     string   `json:"company"     validate:"max=200"`
	Role        string   `json:"role"        validate:"max=200"`
	Link        string   `json:"link"        validate:"max=2048"`
	Status      string   `json:"status"`
	AppliedAt   string   `json:"appliedAt"`
	InterviewAt string   `json:"interviewAt"`
	Tags        []string `json:"tags"        validate:"max=30,dive,max=50"`
	Notes       string   `json:"notes"       validate:"max=10000"`
}

// PatchJobRequest changes only the fields that are present.
type PatchJobRequest struct {
	Company     *string   `json:"company"     validate:"omitempty,max=200"`
	Role        *string   `json:"role"        validate:"omitempty,max=200"`
	Link        *string   `json:"link"        validate:"omitempty,max=2048"`
	Status      *string   `json:"status"`
	AppliedAt   *string   `json:"appliedAt"`
	InterviewAt *string   `json:"interviewAt"`
	Tags        *[]string `json:"tags"        validate:"omitempty,max=30,dive,max=50"`
	Notes       *string   `json:"notes"       validate:"omitempty,max=10000"`
}

type CompareRequest struct {
	JD         string `json:"jd"         validate:"max=20000"`
	ResumeText string `json:"resumeText" validate:"max=100000"`
}

type AuthResponse struct {
	User  models.UserView `json:"user"`
	Token string          `json:"token"`
}

type UserResponse struct {
	User models.UserView `json:"user"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type SearchResponse struct {
	Total   int64        `json:"total"`
	Page    int          `json:"page"`
	Size    int          `json:"size"`
	HasNext bool         `json:"hasNext"`
	Jobs    []models.Job `json:"jobs"`
}
