package models

import (
	"time"

	"github.com/google/uuid"
)

// ValidationStatus is the lifecycle state of an address with respect to
// third-party validation. An address starts as "pending" and moves to one of
// the final states once a validation attempt completes.
type ValidationStatus string

const (
	StatusPending    ValidationStatus = "pending"
	StatusVerified   ValidationStatus = "verified"
	StatusUnverified ValidationStatus = "unverified"
	StatusWarning    ValidationStatus = "warning"
	StatusError      ValidationStatus = "error"
)

// IsFinal reports whether the status represents a completed validation attempt.
func (s ValidationStatus) IsFinal() bool {
	return s != StatusPending
}

// Address is a postal address under validation management.
type Address struct {
	ID                uuid.UUID          `json:"id" db:"id"`
	Name              *string            `json:"name" db:"name"`
	CompanyName       *string            `json:"company_name" db:"company_name"`
	Phone             *string            `json:"phone" db:"phone"`
	AddressLine1      string             `json:"address_line1" db:"address_line1"`
	AddressLine2      *string            `json:"address_line2" db:"address_line2"`
	AddressLine3      *string            `json:"address_line3" db:"address_line3"`
	CityLocality      string             `json:"city_locality" db:"city_locality"`
	StateProvince     string             `json:"state_province" db:"state_province"`
	PostalCode        string             `json:"postal_code" db:"postal_code"`
	CountryCode       string             `json:"country_code" db:"country_code"`
	ValidationStatus  ValidationStatus   `json:"validation_status" db:"validation_status"`
	ValidatedAt       *time.Time         `json:"validated_at" db:"validated_at"`
	CreatedAt         time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt         *time.Time         `json:"updated_at" db:"updated_at"`
	ValidationResults []ValidationResult `json:"validation_results"`
}

// ValidationResult is one immutable outcome of a validation attempt.
// Results are append-only history; they are never updated, and they are
// removed only by cascade when the owning address is deleted.
type ValidationResult struct {
	ID             uuid.UUID           `json:"id" db:"id"`
	AddressID      uuid.UUID           `json:"-" db:"address_id"`
	Status         ValidationStatus    `json:"status" db:"status"`
	MatchedAddress *MatchedAddress     `json:"matched_address" db:"matched_address"`
	Messages       []ValidationMessage `json:"messages" db:"messages"`
	CreatedAt      time.Time           `json:"created_at" db:"created_at"`
}

// MatchedAddress is the normalized address snapshot returned by a validation
// provider. Field names mirror the address record itself.
type MatchedAddress struct {
	Name          *string `json:"name"`
	CompanyName   *string `json:"company_name"`
	Phone         *string `json:"phone"`
	AddressLine1  string  `json:"address_line1"`
	AddressLine2  *string `json:"address_line2"`
	AddressLine3  *string `json:"address_line3"`
	CityLocality  string  `json:"city_locality"`
	StateProvince string  `json:"state_province"`
	PostalCode    string  `json:"postal_code"`
	CountryCode   string  `json:"country_code"`
}

// ValidationMessage is a structured note attached to a validation result.
type ValidationMessage struct {
	Code    string `json:"code"`
	Type    string `json:"type"` // "error" or "warning"
	Message string `json:"message"`
}

// AddressCreateRequest defines the shape of the request body for creating a new address.
type AddressCreateRequest struct {
	Name          *string `json:"name" validate:"omitempty,max=255"`
	CompanyName   *string `json:"company_name" validate:"omitempty,max=255"`
	Phone         *string `json:"phone" validate:"omitempty,max=50"`
	AddressLine1  string  `json:"address_line1" validate:"required,max=500"`
	AddressLine2  *string `json:"address_line2" validate:"omitempty,max=500"`
	AddressLine3  *string `json:"address_line3" validate:"omitempty,max=500"`
	CityLocality  string  `json:"city_locality" validate:"required,max=255"`
	StateProvince string  `json:"state_province" validate:"required,max=100"`
	PostalCode    string  `json:"postal_code" validate:"required,max=50"`
	CountryCode   string  `json:"country_code" validate:"required,len=2"` // ISO 3166-1 alpha-2
}

// AddressUpdateRequest defines the shape of the request body for a partial
// update. Every field is a pointer so that "absent" and "set to empty" can be
// told apart; only the fields that are present overwrite the stored record.
type AddressUpdateRequest struct {
	Name          *string `json:"name" validate:"omitempty,max=255"`
	CompanyName   *string `json:"company_name" validate:"omitempty,max=255"`
	Phone         *string `json:"phone" validate:"omitempty,max=50"`
	AddressLine1  *string `json:"address_line1" validate:"omitempty,max=500"`
	AddressLine2  *string `json:"address_line2" validate:"omitempty,max=500"`
	AddressLine3  *string `json:"address_line3" validate:"omitempty,max=500"`
	CityLocality  *string `json:"city_locality" validate:"omitempty,max=255"`
	StateProvince *string `json:"state_province" validate:"omitempty,max=100"`
	PostalCode    *string `json:"postal_code" validate:"omitempty,max=50"`
	CountryCode   *string `json:"country_code" validate:"omitempty,len=2"`
}

// AddressListResponse is the paginated list envelope.
type AddressListResponse struct {
	Items  []*Address `json:"items"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// MessageResponse is a simple acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the error body returned by the API.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}
