package address

import (
	"errors"
	"net/http"
	"strconv"

	"address-validation-service/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Handler handles HTTP requests for addresses.
type Handler struct {
	service  ServiceInterface
	validate *validator.Validate // For request body validation
}

// NewHandler creates a new address handler.
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

// Create handles POST /addresses.
func (h *Handler) Create(c echo.Context) error {
	var req models.AddressCreateRequest
	if err := c.Bind(&req); err != nil {
		return unprocessable(c, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return unprocessable(c, "Validation failed: "+err.Error())
	}

	addr, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return h.serviceError(c, err, "Failed to create address")
	}

	return c.JSON(http.StatusCreated, addr)
}

// List handles GET /addresses with limit/offset pagination.
func (h *Handler) List(c echo.Context) error {
	limit, offset, err := pageParams(c)
	if err != nil {
		return unprocessable(c, err.Error())
	}

	addrs, total, err := h.service.List(c.Request().Context(), limit, offset)
	if err != nil {
		return h.serviceError(c, err, "Failed to list addresses")
	}

	return c.JSON(http.StatusOK, models.AddressListResponse{
		Items:  addrs,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /addresses/:addressId.
func (h *Handler) Get(c echo.Context) error {
	addressID, err := uuid.Parse(c.Param("addressId"))
	if err != nil {
		return unprocessable(c, "Invalid address ID")
	}

	addr, err := h.service.Get(c.Request().Context(), addressID)
	if err != nil {
		return h.serviceError(c, err, "Failed to retrieve address")
	}

	return c.JSON(http.StatusOK, addr)
}

// Update handles PUT /addresses/:addressId with a partial body.
func (h *Handler) Update(c echo.Context) error {
	addressID, err := uuid.Parse(c.Param("addressId"))
	if err != nil {
		return unprocessable(c, "Invalid address ID")
	}

	var req models.AddressUpdateRequest
	if err := c.Bind(&req); err != nil {
		return unprocessable(c, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return unprocessable(c, "Validation failed: "+err.Error())
	}

	addr, err := h.service.Update(c.Request().Context(), addressID, req)
	if err != nil {
		return h.serviceError(c, err, "Failed to update address")
	}

	return c.JSON(http.StatusOK, addr)
}

// Delete handles DELETE /addresses/:addressId.
func (h *Handler) Delete(c echo.Context) error {
	addressID, err := uuid.Parse(c.Param("addressId"))
	if err != nil {
		return unprocessable(c, "Invalid address ID")
	}

	if err := h.service.Delete(c.Request().Context(), addressID); err != nil {
		return h.serviceError(c, err, "Failed to delete address")
	}

	return c.NoContent(http.StatusNoContent)
}

// RequestValidation handles POST /addresses/:addressId/validate.
func (h *Handler) RequestValidation(c echo.Context) error {
	addressID, err := uuid.Parse(c.Param("addressId"))
	if err != nil {
		return unprocessable(c, "Invalid address ID")
	}

	if _, err := h.service.RequestValidation(c.Request().Context(), addressID); err != nil {
		return h.serviceError(c, err, "Failed to request validation")
	}

	return c.JSON(http.StatusOK, models.MessageResponse{Message: "Validation task enqueued"})
}

// serviceError maps service failures onto the API error taxonomy.
func (h *Handler) serviceError(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Detail: err.Error(), Code: "NOT_FOUND"})
	case errors.Is(err, models.ErrValidation):
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: err.Error(), Code: "DOMAIN_ERROR"})
	default:
		c.Logger().Error("address handler: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: fallback, Code: "INTERNAL_ERROR"})
	}
}

func unprocessable(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Detail: detail, Code: "UNPROCESSABLE"})
}

// pageParams parses limit/offset, applying the defaults and rejecting
// out-of-range values at the edge so the service never re-validates them.
func pageParams(c echo.Context) (limit, offset int, err error) {
	limit = defaultLimit
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxLimit {
			return 0, 0, errors.New("limit must be an integer between 1 and 100")
		}
	}

	if raw := c.QueryParam("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, errors.New("offset must be a non-negative integer")
		}
	}

	return limit, offset, nil
}
