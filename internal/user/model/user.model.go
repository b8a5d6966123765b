package model

import (
	"time"

	"lawfort/internal/access"
)

const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"

	RequestPending  = "Pending"
	RequestApproved = "Approved"
	RequestDenied   = "Denied"
)

// Profile is the editable part of a user.
type Profile struct {
	FullName                  string `json:"full_name"`
	Phone                     string `json:"phone"`
	Bio                       string `json:"bio"`
	PracticeArea              string `json:"practice_area"`
	Organization              string `json:"organization"`
	LawSpecialization         string `json:"law_specialization"`
	Education                 string `json:"education"`
	BarExamStatus             string `json:"bar_exam_status"`
	LicenseNumber             string `json:"license_number"`
	Location                  string `json:"location"`
	YearsOfExperience         int    `json:"years_of_experience"`
	LinkedInProfile           string `json:"linkedin_profile"`
	AlumniOf                  string `json:"alumni_of"`
	ProfessionalOrganizations string `json:"professional_organizations"`
}

type User struct {
	ID        int64       `json:"user_id"`
	Email     string      `json:"email"`
	Role      access.Role `json:"role"`
	RoleID    int         `json:"role_id"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	Profile
}

// Credentials is what login needs from the users table.
type Credentials struct {
	ID           int64
	PasswordHash string
	Role         access.Role
	Status       string
}

type Session struct {
	ID        string      `json:"id"`
	UserID    int64       `json:"user_id"`
	Role      access.Role `json:"role"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Profile
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	SessionToken string      `json:"session_token"`
	UserID       int64       `json:"user_id"`
	UserRole     access.Role `json:"user_role"`
	IsAdmin      bool        `json:"is_admin"`
	ExpiresAt    time.Time   `json:"expires_at"`
}

type AccessRequest struct {
	ID           int64     `json:"request_id"`
	UserID       int64     `json:"user_id"`
	FullName     string    `json:"full_name"`
	PracticeArea string    `json:"practice_area"`
	RequestedAt  time.Time `json:"requested_at"`
	Status       string    `json:"status"`
}

type DecisionRequest struct {
	RequestID int64  `json:"request_id"`
	Action    string `json:"action"`
}
