package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusApplied   Status = "Applied"
	StatusInterview Status = "Interview"
	StatusOffer     Status = "Offer"
	StatusRejected  Status = "Rejected"
	StatusAccepted  Status = "Accepted"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusApplied, StatusInterview, StatusOffer, StatusRejected, StatusAccepted}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

type User struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey"      json:"id"`
	Name                string     `gorm:"not null"                  json:"name"`
	Email               string     `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash        string     `gorm:"not null"                  json:"-"`
	ResetTokenHash      *string    `gorm:"index"                     json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserView is the only shape of a user that leaves the server.
type UserView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) View() UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"         json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	JTI       string    `gorm:"uniqueIndex;not null" json:"jti"`
	TokenHash string    `gorm:"not null"           json:"-"`
	ExpiresAt time.Time `gorm:"not null"           json:"expires_at"`
	Revoked   bool      `gorm:"default:false"      json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

type Job struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"        json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;index;not null"    json:"userId"`
	Company     string     `gorm:"not null"                    json:"company"`
	Role        string     `gorm:"not null"                    json:"role"`
	Link        string     `json:"link"`
	Status      Status     `gorm:"not null;default:Applied"    json:"status"`
	AppliedAt   string     `json:"appliedAt"`
	InterviewAt *time.Time `gorm:"index"                       json:"interviewAt"`
	Tags        []string   `gorm:"serializer:json"             json:"tags"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `gorm:"index"                       json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (j *Job) BeforeCreate(*gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Tags == nil {
		j.Tags = []string{}
	}
	return nil
}

type ResumeAnalysis struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`
	Summary         string    `json:"summary"`
	ExtractedSkills []string  `gorm:"serializer:json"          json:"extractedSkills"`
	MissingKeywords []string  `gorm:"serializer:json"          json:"missingKeywords"`
	Highlights      []string  `gorm:"serializer:json"          json:"highlights"`
	JDKeywords      []string  `gorm:"serializer:json"          json:"jdKeywords"`
	Score           float64   `json:"score"`
	RawText         string    `json:"-"`
	JobDescription  string    `json:"jobDescription,omitempty"`
	CreatedAt       time.Time `gorm:"index"                    json:"createdAt"`
}

func (a *ResumeAnalysis) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// All returns every model for AutoMigrate.
func All() []any {
	return []any{&User{}, &RefreshToken{}, &Job{}, &ResumeAnalysis{}}
}
