package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
)

const msgInternal = "Er is een onverwachte fout opgetreden."

type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorHandler maps domain errors to status codes. Unknown errors become a
// generic 500 and are logged with their cause.
func ErrorHandler(log logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, message := classify(err)
		if status == http.StatusInternalServerError {
			log.Error("Request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"error", err)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, ErrorResponse{StatusCode: status, Message: message})
		}
		if writeErr != nil {
			log.Error("Failed to write error response", "error", writeErr)
		}
	}
}

func classify(err error) (int, string) {
	var (
		validation    *domain.ValidationError
		authorization *domain.AuthorizationError
		notFound      *domain.NotFoundError
		httpErr       *echo.HTTPError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Message
	case errors.As(err, &authorization):
		return http.StatusBadRequest, authorization.Message
	case errors.As(err, &notFound):
		return http.StatusNotFound, notFound.Message
	case errors.As(err, &httpErr):
		if httpErr.Code >= http.StatusInternalServerError {
			return httpErr.Code, msgInternal
		}
		return httpErr.Code, fmt.Sprint(httpErr.Message)
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Ongeldig id.")
	}
	return id, nil
}

func forbidden() error {
	return echo.NewHTTPError(http.StatusForbidden, "Je hebt geen toegang tot deze gegevens.")
}
