package auth

import (
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Username) {
		errs.Add("username", "username is required")
	} else if validator.ExceedsLength(r.Username, 50) {
		errs.Add("username", "username must not exceed 50 characters")
	}

	if validator.IsEmpty(r.Password) {
		errs.Add("password", "password is required")
	} else if len(r.Password) > 72 {
		errs.Add("password", "password must not exceed 72 bytes")
	}

	return errs.Err()
}

// RegisterRequest creates a login for an existing employee.
type RegisterRequest struct {
	EmployeeID      int64  `json:"employee_id"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r *RegisterRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.EmployeeID <= 0 {
		errs.Add("employee_id", "employee_id is required")
	}

	if validator.IsEmpty(r.Username) {
		errs.Add("username", "username is required")
	} else if len(r.Username) < 3 || len(r.Username) > 50 {
		errs.Add("username", "username must be between 3 and 50 characters long")
	} else if !validator.IsValidUsername(r.Username) {
		errs.Add("username", "username may only contain letters, numbers, dots, underscores, and hyphens")
	}

	// bcrypt ignores everything past 72 bytes
	if validator.IsEmpty(r.Password) {
		errs.Add("password", "password is required")
	} else if len(r.Password) < 8 {
		errs.Add("password", "password must be at least 8 characters long")
	} else if len(r.Password) > 72 {
		errs.Add("password", "password must not exceed 72 bytes")
	}
	if validator.IsEmpty(r.ConfirmPassword) {
		errs.Add("confirm_password", "confirm_password is required")
	} else if r.ConfirmPassword != r.Password {
		errs.Add("confirm_password", "password and confirm_password do not match")
	}

	return errs.Err()
}

type TokenResponse struct {
	AccessToken          string `json:"access_token"`
	AccessTokenExpiresIn int64  `json:"access_token_expires_in"`
	TokenType            string `json:"token_type"`
}

type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// MeResponse describes the acting principal.
type MeResponse struct {
	UserID       int64               `json:"user_id"`
	EmployeeID   int64               `json:"employee_id"`
	Username     string              `json:"username"`
	FullName     string              `json:"full_name"`
	Role         access.Role         `json:"role"`
	Capabilities []access.Capability `json:"capabilities"`
}

type RegisterResponse struct {
	UserID     int64  `json:"user_id"`
	EmployeeID int64  `json:"employee_id"`
	Username   string `json:"username"`
}
