package shipengine

import (
	"context"
	"testing"

	"address-validation-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *StubClient {
	return &StubClient{Delay: 0}
}

func testAddress(mutate func(*models.Address)) *models.Address {
	name := "John Doe"
	company := "Acme Inc"
	phone := "+1-555-123-4567"
	suite := "Suite 100"
	addr := &models.Address{
		Name:          &name,
		CompanyName:   &company,
		Phone:         &phone,
		AddressLine1:  "123 Main Street",
		AddressLine2:  &suite,
		CityLocality:  "Austin",
		StateProvince: "TX",
		PostalCode:    "78701",
		CountryCode:   "US",
	}
	if mutate != nil {
		mutate(addr)
	}
	return addr
}

func messageCodes(messages []models.ValidationMessage) []string {
	codes := make([]string, 0, len(messages))
	for _, m := range messages {
		codes = append(codes, m.Code)
	}
	return codes
}

func TestValidateAddress_ValidReturnsVerified(t *testing.T) {
	client := newTestClient()

	result, err := client.ValidateAddress(context.Background(), testAddress(nil))
	require.NoError(t, err)

	assert.Equal(t, models.StatusVerified, result.Status)
	require.NotNil(t, result.MatchedAddress)
	assert.Empty(t, result.Messages)
}

func TestValidateAddress_NormalizesFields(t *testing.T) {
	client := newTestClient()

	result, err := client.ValidateAddress(context.Background(), testAddress(nil))
	require.NoError(t, err)

	require.NotNil(t, result.MatchedAddress)
	assert.Equal(t, "123 MAIN ST", result.MatchedAddress.AddressLine1)
	assert.Equal(t, "AUSTIN", result.MatchedAddress.CityLocality)
	assert.Equal(t, "TX", result.MatchedAddress.StateProvince)
	assert.Equal(t, "78701", result.MatchedAddress.PostalCode)
	assert.Equal(t, "US", result.MatchedAddress.CountryCode)
}

func TestValidateAddress_StreetSuffixAbbreviations(t *testing.T) {
	tests := []struct {
		name  string
		line1 string
		want  string
	}{
		{"street", "456 Oak Street", "456 OAK ST"},
		{"avenue", "789 Fifth Avenue", "789 FIFTH AVE"},
		{"boulevard", "10 Sunset Boulevard", "10 SUNSET BLVD"},
		{"road", "22 Mill Road", "22 MILL RD"},
		{"drive", "7 Lakeside Drive", "7 LAKESIDE DR"},
		{"lane", "3 Penny Lane", "3 PENNY LN"},
		{"court", "9 Kings Court", "9 KINGS CT"},
	}

	client := newTestClient()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := testAddress(func(a *models.Address) { a.AddressLine1 = tt.line1 })

			result, err := client.ValidateAddress(context.Background(), addr)
			require.NoError(t, err)

			require.NotNil(t, result.MatchedAddress)
			assert.Equal(t, tt.want, result.MatchedAddress.AddressLine1)
		})
	}
}

func TestValidateAddress_MissingLine1ReturnsError(t *testing.T) {
	client := newTestClient()
	addr := testAddress(func(a *models.Address) { a.AddressLine1 = "" })

	result, err := client.ValidateAddress(context.Background(), addr)
	require.NoError(t, err)

	assert.Equal(t, models.StatusError, result.Status)
	assert.Nil(t, result.MatchedAddress)
	assert.Contains(t, messageCodes(result.Messages), "address_line1_required")
}

func TestValidateAddress_InvalidPostalCodeReturnsError(t *testing.T) {
	client := newTestClient()
	addr := testAddress(func(a *models.Address) { a.PostalCode = "12" })

	result, err := client.ValidateAddress(context.Background(), addr)
	require.NoError(t, err)

	assert.Equal(t, models.StatusError, result.Status)
	assert.Contains(t, messageCodes(result.Messages), "invalid_postal_code")
}

func TestValidateAddress_FieldErrorsAccumulate(t *testing.T) {
	client := newTestClient()
	addr := testAddress(func(a *models.Address) {
		a.AddressLine1 = ""
		a.CityLocality = ""
		a.PostalCode = ""
		a.CountryCode = "X"
	})

	result, err := client.ValidateAddress(context.Background(), addr)
	require.NoError(t, err)

	assert.Equal(t, models.StatusError, result.Status)
	codes := messageCodes(result.Messages)
	assert.ElementsMatch(t, []string{
		"address_line1_required",
		"city_required",
		"invalid_postal_code",
		"invalid_country_code",
	}, codes)
	for _, m := range result.Messages {
		assert.Equal(t, "error", m.Type)
	}
}

func TestValidateAddress_POBoxReturnsWarning(t *testing.T) {
	client := newTestClient()
	addr := testAddress(func(a *models.Address) { a.AddressLine1 = "PO Box 123" })

	result, err := client.ValidateAddress(context.Background(), addr)
	require.NoError(t, err)

	assert.Equal(t, models.StatusWarning, result.Status)
	require.NotNil(t, result.MatchedAddress)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "po_box_detected", result.Messages[0].Code)
	assert.Equal(t, "warning", result.Messages[0].Type)
	assert.Equal(t, "Address appears to be a PO Box", result.Messages[0].Message)
}

func TestValidateAddress_PostalCodeTrimmedAndUppercased(t *testing.T) {
	client := newTestClient()
	addr := testAddress(func(a *models.Address) {
		a.PostalCode = " sw1a 1aa "
		a.CountryCode = "GB"
	})

	result, err := client.ValidateAddress(context.Background(), addr)
	require.NoError(t, err)

	require.NotNil(t, result.MatchedAddress)
	assert.Equal(t, "SW1A 1AA", result.MatchedAddress.PostalCode)
}

func TestValidateAddress_Deterministic(t *testing.T) {
	client := newTestClient()
	addr := testAddress(nil)

	first, err := client.ValidateAddress(context.Background(), addr)
	require.NoError(t, err)
	second, err := client.ValidateAddress(context.Background(), addr)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.MatchedAddress, second.MatchedAddress)
	assert.Equal(t, first.Messages, second.Messages)
}

func TestValidateAddress_CancelledContext(t *testing.T) {
	client := NewStubClient() // real delay, so cancellation wins

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ValidateAddress(ctx, testAddress(nil))
	assert.ErrorIs(t, err, context.Canceled)
}
