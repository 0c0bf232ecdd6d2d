package employee

import (
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateEmployeeRequest struct {
	FullName           string          `json:"full_name"`
	Subdivision        string          `json:"subdivision"`
	Position           string          `json:"position"`
	PeoplePartnerID    *int64          `json:"people_partner_id,omitempty"`
	OutOfOfficeBalance decimal.Decimal `json:"out_of_office_balance"`
	PhotoURL           *string         `json:"photo_url,omitempty"`
	Role               string          `json:"role"`
}

func (r *CreateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	validateName(&errs, "full_name", r.FullName, true)
	validateName(&errs, "subdivision", r.Subdivision, true)
	validateName(&errs, "position", r.Position, true)

	if r.OutOfOfficeBalance.IsNegative() {
		errs.Add("out_of_office_balance", "out_of_office_balance must not be negative")
	}
	if r.PhotoURL != nil && !validator.IsValidPhotoURL(*r.PhotoURL) {
		errs.Add("photo_url", "photo_url must be an http(s) URL or an absolute path")
	}
	if !access.Role(r.Role).Valid() {
		errs.Add("role", "role must be one of Employee, Project Manager, HR Manager, Administrator")
	}
	if r.PeoplePartnerID != nil && *r.PeoplePartnerID <= 0 {
		errs.Add("people_partner_id", "people_partner_id must be a positive id")
	}

	return errs.Err()
}

type UpdateEmployeeRequest struct {
	ID              int64   `json:"-"`
	FullName        *string `json:"full_name,omitempty"`
	Subdivision     *string `json:"subdivision,omitempty"`
	Position        *string `json:"position,omitempty"`
	PeoplePartnerID *int64  `json:"people_partner_id,omitempty"`
	PhotoURL        *string `json:"photo_url,omitempty"`
	Role            *string `json:"role,omitempty"`
}

func (r *UpdateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.FullName != nil {
		validateName(&errs, "full_name", *r.FullName, true)
	}
	if r.Subdivision != nil {
		validateName(&errs, "subdivision", *r.Subdivision, true)
	}
	if r.Position != nil {
		validateName(&errs, "position", *r.Position, true)
	}
	if r.PhotoURL != nil && !validator.IsValidPhotoURL(*r.PhotoURL) {
		errs.Add("photo_url", "photo_url must be an http(s) URL or an absolute path")
	}
	if r.Role != nil && !access.Role(*r.Role).Valid() {
		errs.Add("role", "role must be one of Employee, Project Manager, HR Manager, Administrator")
	}
	if r.PeoplePartnerID != nil && *r.PeoplePartnerID <= 0 {
		errs.Add("people_partner_id", "people_partner_id must be a positive id")
	}
	if r.FullName == nil && r.Subdivision == nil && r.Position == nil &&
		r.PeoplePartnerID == nil && r.PhotoURL == nil && r.Role == nil {
		errs.Add("body", "at least one field must be provided")
	}

	return errs.Err()
}

// AdjustBalanceRequest sets the balance to an absolute value.
type AdjustBalanceRequest struct {
	ID      int64           `json:"-"`
	Balance decimal.Decimal `json:"out_of_office_balance"`
}

func (r *AdjustBalanceRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Balance.IsNegative() {
		errs.Add("out_of_office_balance", "out_of_office_balance must not be negative")
	}
	return errs.Err()
}

type EmployeeFilter struct {
	Status      *string `json:"status,omitempty"`
	Role        *string `json:"role,omitempty"`
	Subdivision *string `json:"subdivision,omitempty"`
	Search      *string `json:"search,omitempty"`
	Page        int     `json:"page"`
	Limit       int     `json:"limit"`

	Visibility access.Visibility `json:"-"`
}

func (f *EmployeeFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Status != nil && !EmploymentStatus(*f.Status).Valid() {
		errs.Add("status", "status must be active or inactive")
	}
	if f.Role != nil && !access.Role(*f.Role).Valid() {
		errs.Add("role", "unknown role")
	}
	f.Page, f.Limit = validator.NormalizePage(f.Page, f.Limit)
	return errs.Err()
}

type EmployeeResponse struct {
	ID                 int64               `json:"id"`
	FullName           string              `json:"full_name"`
	Subdivision        string              `json:"subdivision"`
	Position           string              `json:"position"`
	Status             string              `json:"status"`
	PeoplePartnerID    *int64              `json:"people_partner_id,omitempty"`
	PeoplePartnerName  *string             `json:"people_partner_name,omitempty"`
	OutOfOfficeBalance decimal.Decimal     `json:"out_of_office_balance"`
	PhotoURL           *string             `json:"photo_url,omitempty"`
	Role               string              `json:"role"`
	Capabilities       []access.Capability `json:"capabilities"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func NewEmployeeResponse(e Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:                 e.ID,
		FullName:           e.FullName,
		Subdivision:        e.Subdivision,
		Position:           e.Position,
		Status:             string(e.Status),
		PeoplePartnerID:    e.PeoplePartnerID,
		PeoplePartnerName:  e.PeoplePartnerName,
		OutOfOfficeBalance: e.OutOfOfficeBalance,
		PhotoURL:           e.PhotoURL,
		Role:               string(e.Role),
		Capabilities:       access.CapabilitiesFor(e.Role),
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

type ListEmployeeResponse struct {
	Employees  []EmployeeResponse `json:"employees"`
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

func validateName(errs *validator.ValidationErrors, field, value string, required bool) {
	if required && validator.IsEmpty(value) {
		errs.Add(field, field+" is required")
		return
	}
	if validator.ExceedsLength(value, 255) {
		errs.Add(field, field+" must not exceed 255 characters")
	}
}
