package utils

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ms-pos/internal/models"
)

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func ErrorResponse(message, error string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     error,
		Timestamp: time.Now(),
	}
}

func WriteJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteDomainError maps the typed business errors onto HTTP statuses.
// Business-rule violations are conflicts the caller can act on;
// anything unrecognized is treated as an infrastructure failure.
func WriteDomainError(w http.ResponseWriter, message string, err error) {
	var stockErr *models.InsufficientStockError
	var stateErr *models.InvalidStateTransitionError
	var ticketErr *models.TicketInProgressError
	var voidedErr *models.AlreadyVoidedError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, sql.ErrNoRows):
		status = http.StatusNotFound
	case errors.As(err, &stockErr),
		errors.As(err, &stateErr),
		errors.As(err, &ticketErr),
		errors.As(err, &voidedErr),
		errors.Is(err, models.ErrTableOccupied),
		errors.Is(err, models.ErrSessionHasDraftOrders),
		errors.Is(err, models.ErrDraftNotEmpty):
		status = http.StatusConflict
	}

	WriteJSON(w, status, ErrorResponse(message, err.Error()))
}
