package shipengine

import (
	"context"
	"strings"
	"time"

	"address-validation-service/internal/models"
)

// ValidationResponse is the outcome of one provider call.
type ValidationResponse struct {
	Status         models.ValidationStatus
	MatchedAddress *models.MatchedAddress
	Messages       []models.ValidationMessage
}

// Client is the address validation capability. Implementations may call an
// external API (ShipEngine, USPS, SmartyStreets, ...) and can be slow, so they
// must only be invoked from the background worker, never from a request handler.
type Client interface {
	ValidateAddress(ctx context.Context, address *models.Address) (*ValidationResponse, error)
}

// StubClient is a deterministic, offline stand-in for the ShipEngine API.
// It applies fixed field checks and normalization rules and sleeps for a
// configurable delay to model the network round trip. The same input always
// produces the same response.
type StubClient struct {
	// Delay simulates the provider's round-trip time.
	Delay time.Duration
}

// NewStubClient returns a stub provider with the default simulated latency.
func NewStubClient() *StubClient {
	return &StubClient{Delay: 500 * time.Millisecond}
}

// ValidateAddress checks the address fields and returns a verdict with an
// optional normalized snapshot and messages.
func (c *StubClient) ValidateAddress(ctx context.Context, address *models.Address) (*ValidationResponse, error) {
	if c.Delay > 0 {
		select {
		case <-time.After(c.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	errs := validateFields(address)
	if len(errs) > 0 {
		return &ValidationResponse{
			Status:   models.StatusError,
			Messages: errs,
		}, nil
	}

	var warnings []models.ValidationMessage
	if strings.Contains(strings.ToUpper(address.AddressLine1), "PO BOX") {
		warnings = append(warnings, models.ValidationMessage{
			Code:    "po_box_detected",
			Type:    "warning",
			Message: "Address appears to be a PO Box",
		})
	}

	status := models.StatusVerified
	if len(warnings) > 0 {
		status = models.StatusWarning
	}

	return &ValidationResponse{
		Status: status,
		MatchedAddress: &models.MatchedAddress{
			Name:          address.Name,
			CompanyName:   address.CompanyName,
			Phone:         address.Phone,
			AddressLine1:  normalizeStreet(address.AddressLine1),
			AddressLine2:  address.AddressLine2,
			AddressLine3:  address.AddressLine3,
			CityLocality:  strings.ToUpper(address.CityLocality),
			StateProvince: strings.ToUpper(address.StateProvince),
			PostalCode:    normalizePostalCode(address.PostalCode, address.CountryCode),
			CountryCode:   strings.ToUpper(address.CountryCode),
		},
		Messages: warnings,
	}, nil
}

// validateFields accumulates every field error; the checks are independent and
// deliberately not short-circuited so a response reports all problems at once.
func validateFields(address *models.Address) []models.ValidationMessage {
	var errs []models.ValidationMessage

	if address.AddressLine1 == "" {
		errs = append(errs, models.ValidationMessage{
			Code:    "address_line1_required",
			Type:    "error",
			Message: "Address line 1 is required",
		})
	}

	if address.CityLocality == "" {
		errs = append(errs, models.ValidationMessage{
			Code:    "city_required",
			Type:    "error",
			Message: "City is required",
		})
	}

	if len(address.PostalCode) < 3 {
		errs = append(errs, models.ValidationMessage{
			Code:    "invalid_postal_code",
			Type:    "error",
			Message: "Invalid or missing postal code",
		})
	}

	if len(address.CountryCode) != 2 {
		errs = append(errs, models.ValidationMessage{
			Code:    "invalid_country_code",
			Type:    "error",
			Message: "Country code must be 2 characters (ISO 3166-1 alpha-2)",
		})
	}

	return errs
}

var streetReplacements = [][2]string{
	{" STREET", " ST"},
	{" AVENUE", " AVE"},
	{" BOULEVARD", " BLVD"},
	{" ROAD", " RD"},
	{" DRIVE", " DR"},
	{" LANE", " LN"},
	{" COURT", " CT"},
}

// normalizeStreet upper-cases the line and abbreviates common street suffixes.
func normalizeStreet(street string) string {
	result := strings.ToUpper(street)
	for _, r := range streetReplacements {
		result = strings.ReplaceAll(result, r[0], r[1])
	}
	return result
}

// normalizePostalCode trims and upper-cases the code. The US branch is an
// extension point for country-specific formatting; today it changes nothing
// beyond the strip and upper-case.
func normalizePostalCode(postalCode, countryCode string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(postalCode))
	if strings.ToUpper(countryCode) == "US" && len(cleaned) == 5 {
		return cleaned
	}
	return cleaned
}
