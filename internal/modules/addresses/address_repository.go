package address

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"address-validation-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for the address repository.
type RepositoryInterface interface {
	Create(ctx context.Context, addr *models.Address) (*models.Address, error)
	FindByID(ctx context.Context, addressID uuid.UUID) (*models.Address, error)
	FindByIDWithResults(ctx context.Context, addressID uuid.UUID) (*models.Address, error)
	ListWithResults(ctx context.Context, limit, offset int) ([]*models.Address, error)
	FindByStatus(ctx context.Context, status models.ValidationStatus, limit int) ([]*models.Address, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, addr *models.Address) error
	Delete(ctx context.Context, addressID uuid.UUID) error
	AddValidationResult(ctx context.Context, result *models.ValidationResult) (*models.ValidationResult, error)
}

// Repository implements the RepositoryInterface on a pgx connection pool.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new address repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const addressColumns = `id, name, company_name, phone, address_line1, address_line2, address_line3,
		city_locality, state_province, postal_code, country_code,
		validation_status, validated_at, created_at, updated_at`

// Create inserts a new address. The ID, timestamps and initial pending status
// are assigned by the database.
func (r *Repository) Create(ctx context.Context, addr *models.Address) (*models.Address, error) {
	query := `
		INSERT INTO addresses (name, company_name, phone, address_line1, address_line2, address_line3,
			city_locality, state_province, postal_code, country_code, validation_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + addressColumns

	row := r.db.QueryRow(ctx, query,
		addr.Name, addr.CompanyName, addr.Phone,
		addr.AddressLine1, addr.AddressLine2, addr.AddressLine3,
		addr.CityLocality, addr.StateProvince, addr.PostalCode, addr.CountryCode,
		models.StatusPending,
	)

	created, err := r.scanAddress(row)
	if err != nil {
		return nil, fmt.Errorf("repository.Create: %w", err)
	}
	return created, nil
}

// scanAddress scans a single address row.
func (r *Repository) scanAddress(row pgx.Row) (*models.Address, error) {
	var addr models.Address
	err := row.Scan(
		&addr.ID,
		&addr.Name,
		&addr.CompanyName,
		&addr.Phone,
		&addr.AddressLine1,
		&addr.AddressLine2,
		&addr.AddressLine3,
		&addr.CityLocality,
		&addr.StateProvince,
		&addr.PostalCode,
		&addr.CountryCode,
		&addr.ValidationStatus,
		&addr.ValidatedAt,
		&addr.CreatedAt,
		&addr.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan address: %w", err)
	}
	return &addr, nil
}

// FindByID retrieves an address without its validation history.
func (r *Repository) FindByID(ctx context.Context, addressID uuid.UUID) (*models.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1`

	addr, err := r.scanAddress(r.db.QueryRow(ctx, query, addressID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return addr, nil
}

// FindByIDWithResults retrieves an address together with its validation
// history, newest result first.
func (r *Repository) FindByIDWithResults(ctx context.Context, addressID uuid.UUID) (*models.Address, error) {
	addr, err := r.FindByID(ctx, addressID)
	if err != nil {
		return nil, err
	}

	results, err := r.resultsForAddresses(ctx, []uuid.UUID{addressID})
	if err != nil {
		return nil, fmt.Errorf("repository.FindByIDWithResults: %w", err)
	}
	addr.ValidationResults = results[addressID]
	if addr.ValidationResults == nil {
		addr.ValidationResults = []models.ValidationResult{}
	}
	return addr, nil
}

// ListWithResults retrieves a page of addresses, newest created first, each
// with its full validation history.
func (r *Repository) ListWithResults(ctx context.Context, limit, offset int) ([]*models.Address, error) {
	query := `
		SELECT ` + addressColumns + `
		FROM addresses
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("repository.ListWithResults.Query: %w", err)
	}
	defer rows.Close()

	var addrs []*models.Address
	var ids []uuid.UUID
	for rows.Next() {
		addr, err := r.scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListWithResults.Scan: %w", err)
		}
		addrs = append(addrs, addr)
		ids = append(ids, addr.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListWithResults.Rows: %w", err)
	}

	if len(ids) == 0 {
		return []*models.Address{}, nil
	}

	results, err := r.resultsForAddresses(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("repository.ListWithResults: %w", err)
	}
	for _, addr := range addrs {
		addr.ValidationResults = results[addr.ID]
		if addr.ValidationResults == nil {
			addr.ValidationResults = []models.ValidationResult{}
		}
	}

	return addrs, nil
}

// FindByStatus retrieves the newest addresses currently in the given
// validation status, without history. Useful for spotting addresses stuck in
// pending after a queue outage.
func (r *Repository) FindByStatus(ctx context.Context, status models.ValidationStatus, limit int) ([]*models.Address, error) {
	query := `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE validation_status = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("repository.FindByStatus.Query: %w", err)
	}
	defer rows.Close()

	var addrs []*models.Address
	for rows.Next() {
		addr, err := r.scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.FindByStatus.Scan: %w", err)
		}
		addrs = append(addrs, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.FindByStatus.Rows: %w", err)
	}
	return addrs, nil
}

// Count returns the total number of addresses, unaffected by pagination.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM addresses`).Scan(&total); err != nil {
		return 0, fmt.Errorf("repository.Count: %w", err)
	}
	return total, nil
}

// Update writes the address's content fields and validation state back to the
// row and refreshes updated_at.
func (r *Repository) Update(ctx context.Context, addr *models.Address) error {
	query := `
		UPDATE addresses
		SET name = $1, company_name = $2, phone = $3,
			address_line1 = $4, address_line2 = $5, address_line3 = $6,
			city_locality = $7, state_province = $8, postal_code = $9, country_code = $10,
			validation_status = $11, validated_at = $12, updated_at = NOW()
		WHERE id = $13`

	cmdTag, err := r.db.Exec(ctx, query,
		addr.Name, addr.CompanyName, addr.Phone,
		addr.AddressLine1, addr.AddressLine2, addr.AddressLine3,
		addr.CityLocality, addr.StateProvince, addr.PostalCode, addr.CountryCode,
		addr.ValidationStatus, addr.ValidatedAt,
		addr.ID,
	)
	if err != nil {
		return fmt.Errorf("repository.Update: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes the address; its validation results go with it via the
// ON DELETE CASCADE constraint.
func (r *Repository) Delete(ctx context.Context, addressID uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, addressID)
	if err != nil {
		return fmt.Errorf("repository.Delete: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AddValidationResult appends an immutable validation result row.
func (r *Repository) AddValidationResult(ctx context.Context, result *models.ValidationResult) (*models.ValidationResult, error) {
	matched, err := marshalNullable(result.MatchedAddress)
	if err != nil {
		return nil, fmt.Errorf("repository.AddValidationResult: encode matched_address: %w", err)
	}
	messages, err := marshalNullable(result.Messages)
	if err != nil {
		return nil, fmt.Errorf("repository.AddValidationResult: encode messages: %w", err)
	}

	query := `
		INSERT INTO validation_results (address_id, status, matched_address, messages)
		VALUES ($1, $2, $3, $4)
		RETURNING id, address_id, status, matched_address, messages, created_at`

	row := r.db.QueryRow(ctx, query, result.AddressID, result.Status, matched, messages)
	created, err := r.scanResult(row)
	if err != nil {
		return nil, fmt.Errorf("repository.AddValidationResult: %w", err)
	}
	return created, nil
}

// resultsForAddresses loads the validation history for a set of addresses in
// one query, newest first, keyed by owning address.
func (r *Repository) resultsForAddresses(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]models.ValidationResult, error) {
	query := `
		SELECT id, address_id, status, matched_address, messages, created_at
		FROM validation_results
		WHERE address_id = ANY($1)
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query validation_results: %w", err)
	}
	defer rows.Close()

	results := make(map[uuid.UUID][]models.ValidationResult)
	for rows.Next() {
		res, err := r.scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan validation_result: %w", err)
		}
		results[res.AddressID] = append(results[res.AddressID], *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read validation_results: %w", err)
	}
	return results, nil
}

// scanResult scans a validation result row, decoding the JSONB columns.
func (r *Repository) scanResult(row pgx.Row) (*models.ValidationResult, error) {
	var res models.ValidationResult
	var matched, messages []byte
	err := row.Scan(&res.ID, &res.AddressID, &res.Status, &matched, &messages, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan validation result: %w", err)
	}

	if len(matched) > 0 {
		if err := json.Unmarshal(matched, &res.MatchedAddress); err != nil {
			return nil, fmt.Errorf("decode matched_address: %w", err)
		}
	}
	if len(messages) > 0 {
		if err := json.Unmarshal(messages, &res.Messages); err != nil {
			return nil, fmt.Errorf("decode messages: %w", err)
		}
	}
	return &res, nil
}

// marshalNullable encodes v as JSON, mapping nil pointers and empty slices to
// SQL NULL so the stored columns match the provider's "no data" outcome.
func marshalNullable(v any) (any, error) {
	switch val := v.(type) {
	case *models.MatchedAddress:
		if val == nil {
			return nil, nil
		}
	case []models.ValidationMessage:
		if len(val) == 0 {
			return nil, nil
		}
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return payload, nil
}
