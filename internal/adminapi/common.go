package adminapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"github.com/talkincode/toughpos/internal/app"
	"github.com/talkincode/toughpos/internal/domain"
	"github.com/talkincode/toughpos/internal/webserver"
	"go.uber.org/zap"
)

// Response success envelope
type Response struct {
	Data interface{} `json:"data"`
}

// ErrorResponse failure envelope
type ErrorResponse = webserver.ErrorBody

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Data: data})
}

func created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{Data: data})
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return c.JSON(status, ErrorResponse{Error: code, Message: message, Details: details})
}

// GetAppContext returns the application injected by the server middleware
func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(webserver.AppContextKey).(app.AppContext)
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	id, err := cast.ToInt64E(c.Param(name))
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, errors.New("id must be positive")
	}
	return id, nil
}

// parseDateParam reads an optional date query parameter in the report location.
// Returns the zero time when the parameter is absent.
func parseDateParam(c echo.Context, name string, loc *time.Location) (time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseIn(raw, loc)
	if err != nil {
		return time.Time{}, domain.NewValidationError(name, "unrecognised date "+raw)
	}
	return t, nil
}

// handleServiceError maps the domain error taxonomy onto HTTP responses
func handleServiceError(c echo.Context, err error) error {
	var (
		ve   *domain.ValidationError
		nf   *domain.NotFoundError
		ise  *domain.InsufficientStockError
		se   *domain.StorageError
		verr validator.ValidationErrors
	)
	switch {
	case errors.As(err, &verr):
		return handleValidationError(c, verr)
	case errors.As(err, &ve):
		var details interface{}
		if ve.Field != "" {
			details = map[string]string{"field": ve.Field}
		}
		return fail(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", ve.Error(), details)
	case errors.As(err, &nf):
		return fail(c, http.StatusNotFound, strings.ToUpper(nf.Entity)+"_NOT_FOUND", nf.Error(), nil)
	case errors.As(err, &ise):
		return fail(c, http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK", ise.Error(), map[string]interface{}{
			"product_id": ise.ProductID,
			"available":  ise.Available,
			"requested":  ise.Requested,
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fail(c, http.StatusServiceUnavailable, "CANCELED", "Request canceled", nil)
	case errors.As(err, &se):
		zap.L().Error("storage failure", zap.String("op", se.Op), zap.String("path", se.Path), zap.Error(se.Err))
		return fail(c, http.StatusInternalServerError, "STORAGE_ERROR", "Data files could not be read or written", nil)
	default:
		zap.L().Error("unexpected error", zap.String("uri", c.Request().RequestURI), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}

func handleValidationError(c echo.Context, err error) error {
	var verr validator.ValidationErrors
	if !errors.As(err, &verr) {
		return fail(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	}
	fields := make(map[string]string, len(verr))
	for _, fe := range verr {
		fields[fe.Field()] = fe.Tag()
	}
	return fail(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request validation failed", fields)
}
