package address

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"address-validation-service/internal/models"
	"address-validation-service/internal/queue"

	"github.com/google/uuid"
)

// ServiceInterface defines the contract for the address lifecycle service.
type ServiceInterface interface {
	Create(ctx context.Context, req models.AddressCreateRequest) (*models.Address, error)
	Get(ctx context.Context, addressID uuid.UUID) (*models.Address, error)
	List(ctx context.Context, limit, offset int) ([]*models.Address, int, error)
	Update(ctx context.Context, addressID uuid.UUID, req models.AddressUpdateRequest) (*models.Address, error)
	Delete(ctx context.Context, addressID uuid.UUID) error
	RequestValidation(ctx context.Context, addressID uuid.UUID) (*models.Address, error)
	SaveValidationResult(ctx context.Context, addressID uuid.UUID, status models.ValidationStatus,
		matched *models.MatchedAddress, messages []models.ValidationMessage) (*models.ValidationResult, error)
}

// Service owns the pending/validated state machine. Every mutation funnels
// through the same reset-to-pending + enqueue path, so the invariant "changed
// content is unvalidated content" holds for each entry point.
type Service struct {
	repo     RepositoryInterface
	enqueuer queue.Enqueuer
	logger   *slog.Logger
}

// NewService creates a new address service.
func NewService(repo RepositoryInterface, enqueuer queue.Enqueuer, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		enqueuer: enqueuer,
		logger:   logger,
	}
}

// Create persists a new address in the pending state and schedules its first
// validation run. Required fields are checked for shape only; judging whether
// the address is real is the provider's job.
func (s *Service) Create(ctx context.Context, req models.AddressCreateRequest) (*models.Address, error) {
	if err := checkRequiredFields(req); err != nil {
		return nil, err
	}

	addr := &models.Address{
		Name:          req.Name,
		CompanyName:   req.CompanyName,
		Phone:         req.Phone,
		AddressLine1:  req.AddressLine1,
		AddressLine2:  req.AddressLine2,
		AddressLine3:  req.AddressLine3,
		CityLocality:  req.CityLocality,
		StateProvince: req.StateProvince,
		PostalCode:    req.PostalCode,
		CountryCode:   req.CountryCode,
	}

	created, err := s.repo.Create(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("service.Create: %w", err)
	}

	s.scheduleValidation(ctx, created.ID)

	return s.repo.FindByIDWithResults(ctx, created.ID)
}

// Get fetches an address with its full validation history.
func (s *Service) Get(ctx context.Context, addressID uuid.UUID) (*models.Address, error) {
	addr, err := s.repo.FindByIDWithResults(ctx, addressID)
	if err != nil {
		return nil, err
	}
	return addr, nil
}

// List returns a page of addresses (newest created first, each with history)
// and the total count across all pages. Bounds on limit/offset are enforced at
// the API edge.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.Address, int, error) {
	addrs, err := s.repo.ListWithResults(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("service.List: %w", err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("service.List: %w", err)
	}
	return addrs, total, nil
}

// Update applies the fields present in the partial request, resets the address
// to pending and schedules a revalidation run.
func (s *Service) Update(ctx context.Context, addressID uuid.UUID, req models.AddressUpdateRequest) (*models.Address, error) {
	addr, err := s.repo.FindByID(ctx, addressID)
	if err != nil {
		return nil, err
	}

	applyUpdate(addr, req)
	addr.ValidationStatus = models.StatusPending
	addr.ValidatedAt = nil

	if err := s.repo.Update(ctx, addr); err != nil {
		return nil, fmt.Errorf("service.Update: %w", err)
	}

	s.scheduleValidation(ctx, addr.ID)

	return s.repo.FindByIDWithResults(ctx, addr.ID)
}

// Delete removes the address and, by cascade, its validation history.
func (s *Service) Delete(ctx context.Context, addressID uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, addressID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, addressID); err != nil {
		return fmt.Errorf("service.Delete: %w", err)
	}
	return nil
}

// RequestValidation is an explicit re-validate: the same reset-to-pending and
// enqueue as an update with no field changes.
func (s *Service) RequestValidation(ctx context.Context, addressID uuid.UUID) (*models.Address, error) {
	addr, err := s.repo.FindByID(ctx, addressID)
	if err != nil {
		return nil, err
	}

	addr.ValidationStatus = models.StatusPending
	addr.ValidatedAt = nil
	if err := s.repo.Update(ctx, addr); err != nil {
		return nil, fmt.Errorf("service.RequestValidation: %w", err)
	}

	s.scheduleValidation(ctx, addr.ID)

	return s.repo.FindByIDWithResults(ctx, addr.ID)
}

// SaveValidationResult records a completed validation attempt: it appends an
// immutable result row and moves the address to the reported status. Called by
// the validation worker; returns ErrNotFound if the address was deleted after
// the job was scheduled, which the worker treats as terminal.
func (s *Service) SaveValidationResult(ctx context.Context, addressID uuid.UUID, status models.ValidationStatus,
	matched *models.MatchedAddress, messages []models.ValidationMessage) (*models.ValidationResult, error) {

	addr, err := s.repo.FindByID(ctx, addressID)
	if err != nil {
		return nil, err
	}

	result, err := s.repo.AddValidationResult(ctx, &models.ValidationResult{
		AddressID:      addressID,
		Status:         status,
		MatchedAddress: matched,
		Messages:       messages,
	})
	if err != nil {
		return nil, fmt.Errorf("service.SaveValidationResult: %w", err)
	}

	now := time.Now().UTC()
	addr.ValidationStatus = status
	addr.ValidatedAt = &now
	if err := s.repo.Update(ctx, addr); err != nil {
		return nil, fmt.Errorf("service.SaveValidationResult: %w", err)
	}

	return result, nil
}

// scheduleValidation enqueues an asynchronous validation job. A scheduling
// failure is logged and swallowed: a queue outage must not block CRUD, the
// address just stays pending until revalidated.
func (s *Service) scheduleValidation(ctx context.Context, addressID uuid.UUID) {
	if err := s.enqueuer.EnqueueValidation(ctx, addressID); err != nil {
		s.logger.Error("failed to enqueue validation job", "address_id", addressID, "error", err)
	}
}

// checkRequiredFields guards the service against callers that bypass the API
// edge. Length and presence checks only.
func checkRequiredFields(req models.AddressCreateRequest) error {
	switch {
	case req.AddressLine1 == "":
		return fmt.Errorf("%w: address_line1 is required", models.ErrValidation)
	case req.CityLocality == "":
		return fmt.Errorf("%w: city_locality is required", models.ErrValidation)
	case req.StateProvince == "":
		return fmt.Errorf("%w: state_province is required", models.ErrValidation)
	case req.PostalCode == "":
		return fmt.Errorf("%w: postal_code is required", models.ErrValidation)
	case len(req.CountryCode) != 2:
		return fmt.Errorf("%w: country_code must be 2 characters", models.ErrValidation)
	}
	return nil
}

// applyUpdate overwrites only the fields present in the request.
func applyUpdate(addr *models.Address, req models.AddressUpdateRequest) {
	if req.Name != nil {
		addr.Name = req.Name
	}
	if req.CompanyName != nil {
		addr.CompanyName = req.CompanyName
	}
	if req.Phone != nil {
		addr.Phone = req.Phone
	}
	if req.AddressLine1 != nil {
		addr.AddressLine1 = *req.AddressLine1
	}
	if req.AddressLine2 != nil {
		addr.AddressLine2 = req.AddressLine2
	}
	if req.AddressLine3 != nil {
		addr.AddressLine3 = req.AddressLine3
	}
	if req.CityLocality != nil {
		addr.CityLocality = *req.CityLocality
	}
	if req.StateProvince != nil {
		addr.StateProvince = *req.StateProvince
	}
	if req.PostalCode != nil {
		addr.PostalCode = *req.PostalCode
	}
	if req.CountryCode != nil {
		addr.CountryCode = *req.CountryCode
	}
}
