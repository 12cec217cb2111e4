package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"markwave-backend/internal/model"
	"markwave-backend/internal/service"
	"markwave-backend/internal/util"
)

// Response is the uniform envelope for every endpoint. StatusCode always
// mirrors the HTTP status so clients reading only the body see the same
// outcome.
type Response struct {
	StatusCode    int             `json:"statuscode"`
	Status        string          `json:"status"`
	Message       string          `json:"message,omitempty"`
	User          *model.User     `json:"user,omitempty"`
	Users         []model.User    `json:"users,omitempty"`
	Product       *model.Product  `json:"product,omitempty"`
	Products      []model.Product `json:"products,omitempty"`
	Purchase      *model.Purchase `json:"purchase,omitempty"`
	OTP           string          `json:"otp,omitempty"`
	FieldsUpdated *int            `json:"fields_updated,omitempty"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, resp Response) {
	resp.StatusCode = statusCode
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		util.Error("Failed to encode JSON response", util.ErrorField(err))
	}
}

// respondWithError logs the underlying error and sends a clean envelope.
// Storage error detail stays in the log, never in the body.
func respondWithError(w http.ResponseWriter, statusCode int, err error, message string) {
	util.Warn("HTTP error response",
		util.ErrorField(err),
		util.Int("status_code", statusCode),
		util.String("message", message),
	)
	respondWithJSON(w, statusCode, Response{Status: statusError, Message: message})
}

// getStatusCode maps service errors onto HTTP statuses.
func getStatusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotReferral):
		return http.StatusConflict
	case errors.Is(err, service.ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage picks the caller-facing text for an error. Validation detail
// is safe to surface; anything unexpected gets a generic message.
func errorMessage(err error, generic string) string {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, service.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, service.ErrProductNotFound):
		return "Product not found"
	case errors.Is(err, service.ErrNotReferral):
		return "User did not register through a referral"
	case errors.Is(err, service.ErrTooManyRequests):
		return "Too many verification attempts, try again later"
	default:
		return generic
	}
}
