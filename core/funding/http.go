package funding

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/distributeproject/distribute-go/pkg/funding"
)

// ErrInvalidParameter is returned when a request carries an invalid parameter.
var ErrInvalidParameter = errors.New("invalid parameter")

// HTTPErrorResponse is the error payload of a failed REST API call.
type HTTPErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler()
	e.Use(middleware.Recover())
	if ParamsRestAPI.DebugRequestLoggerEnabled {
		e.Use(middleware.Logger())
	}

	return e
}

func errorHandler() func(error, echo.Context) {
	return func(err error, c echo.Context) {
		statusCode, message := httpErrorFromError(err)

		if c.Response().Committed {
			return
		}

		response := &HTTPErrorResponse{}
		response.Error.Code = http.StatusText(statusCode)
		response.Error.Message = message

		if jsonErr := c.JSON(statusCode, response); jsonErr != nil {
			CoreComponent.LogWarnf("failed to send error response: %s", jsonErr)
		}
	}
}

func httpErrorFromError(err error) (int, string) {
	var httpError *echo.HTTPError
	if errors.As(err, &httpError) {
		return httpError.Code, http.StatusText(httpError.Code)
	}

	switch {
	case errors.Is(err, funding.ErrUnknownProject):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, funding.ErrNotAuthorized):
		return http.StatusForbidden, err.Error()

	case errors.Is(err, ErrInvalidParameter),
		errors.Is(err, funding.ErrInvalidAccountID),
		errors.Is(err, funding.ErrInvalidProjectID),
		errors.Is(err, funding.ErrInvalidCostTarget),
		errors.Is(err, funding.ErrInvalidMetadataHash),
		errors.Is(err, funding.ErrExpiredDeadline),
		errors.Is(err, funding.ErrAmountTooLarge):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, funding.ErrInsufficientBalance),
		errors.Is(err, funding.ErrInsufficientPayment),
		errors.Is(err, funding.ErrInsufficientStake),
		errors.Is(err, funding.ErrNotAStaker),
		errors.Is(err, funding.ErrAlreadyRegistered),
		errors.Is(err, funding.ErrNotRegistered),
		errors.Is(err, funding.ErrAlreadyRefunded),
		errors.Is(err, funding.ErrInvalidState),
		errors.Is(err, funding.ErrInvalidTransition):
		return http.StatusConflict, err.Error()

	default:
		return http.StatusInternalServerError, err.Error()
	}
}
