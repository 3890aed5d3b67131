package transport

import (
	"errors"
	"net/http"

	"backoffice/internal/middleware"
	"backoffice/internal/repository"
	"backoffice/internal/service"
	"backoffice/internal/spreadsheet"
	"backoffice/internal/staging"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// statusFor maps service, repository and staging errors to an HTTP status and
// the message shown to the client. Unknown errors are internal.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrSessionExpired):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrEmailNotVerified), errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrEmailNotFound), errors.Is(err, repository.ErrNotFound),
		errors.Is(err, staging.ErrNotStaged):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrEmailInUse), errors.Is(err, repository.ErrAlreadyExists),
		errors.Is(err, repository.ErrInUse), errors.Is(err, staging.ErrAlreadyStaged):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, repository.ErrInvalidReference),
		errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, staging.ErrUnknownField), errors.Is(err, staging.ErrUnknownMode),
		errors.Is(err, staging.ErrHasErrors), errors.Is(err, staging.ErrNoChanges),
		errors.Is(err, spreadsheet.ErrUnsupportedFormat), errors.Is(err, spreadsheet.ErrNoRows):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// respondWithServiceError answers err with its mapped status. Server errors are
// logged at error level under action; client errors only at debug.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, err error, action string) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(action+" failed", zap.Error(err))
	} else {
		logger.Debug(action+" rejected", zap.Int("status", status), zap.Error(err))
	}

	var cells spreadsheet.CellErrors
	if errors.As(err, &cells) {
		middleware.RespondWithErrorDetails(w, status, "spreadsheet has invalid cells", map[string]interface{}{
			"cells": cells,
		})
		return
	}
	middleware.RespondWithError(w, status, message)
}

// pathID parses the uuid route parameter name, answering 404 when it is malformed
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, name+" not found")
		return uuid.Nil, false
	}
	return id, true
}

func routeStoreID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, middleware.StoreIDParam))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid store id")
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the authenticated user id set by the auth middleware
func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// countResponse answers bulk operations
type countResponse struct {
	Count int `json:"count"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func optionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
