package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"markwave-backend/internal/model"
	"markwave-backend/internal/repository/graphdb"
	"markwave-backend/internal/service"
)

// UserHandler exposes registration, profile and verification endpoints.
type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Register handles POST /users/. Creating the same mobile twice returns the
// existing record with 200 instead of 201.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	user, created, err := h.userService.Register(r.Context(), req)
	if err != nil {
		code := getStatusCode(err)
		respondWithError(w, code, err, errorMessage(err, "Failed to register user"))
		return
	}

	if !created {
		respondWithJSON(w, http.StatusOK, Response{
			Status:  statusSuccess,
			Message: "User already exists",
			User:    user,
		})
		return
	}

	respondWithJSON(w, http.StatusCreated, Response{
		Status:  statusSuccess,
		Message: "User registered successfully",
		User:    user,
	})
}

// GetByMobile handles GET /users/{mobile}.
func (h *UserHandler) GetByMobile(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetByMobile(r.Context(), chi.URLParam(r, "mobile"))
	if err != nil {
		code := getStatusCode(err)
		respondWithError(w, code, err, errorMessage(err, "Failed to get user"))
		return
	}
	respondWithJSON(w, http.StatusOK, Response{Status: statusSuccess, User: user})
}

// GetByID handles GET /users/id/{id}.
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		code := getStatusCode(err)
		respondWithError(w, code, err, errorMessage(err, "Failed to get user"))
		return
	}
	respondWithJSON(w, http.StatusOK, Response{Status: statusSuccess, User: user})
}

// UpdateByMobile handles PUT /users/{mobile}.
func (h *UserHandler) UpdateByMobile(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, chi.URLParam(r, "mobile"), h.userService.UpdateByMobile)
}

// UpdateByID handles PUT /users/id/{id}.
func (h *UserHandler) UpdateByID(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, chi.URLParam(r, "id"), h.userService.UpdateByID)
}

func (h *UserHandler) update(
	w http.ResponseWriter,
	r *http.Request,
	key string,
	apply func(ctx context.Context, key string, req *graphdb.UserUpdate) (*model.User, int, error),
) {
	var req graphdb.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	user, fields, err := apply(r.Context(), key, &req)
	if err != nil {
		code := getStatusCode(err)
		respondWithError(w, code, err, errorMessage(err, "Failed to update user"))
		return
	}

	message := "User updated successfully"
	if fields == 0 {
		message = "No fields to update"
	}
	respondWithJSON(w, http.StatusOK, Response{
		Status:        statusSuccess,
		Message:       message,
		User:          user,
		FieldsUpdated: &fields,
	})
}

// ListReferrals handles GET /users/referrals, users still unverified.
func (h *UserHandler) ListReferrals(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.userService.ListReferrals)
}

// ListCustomers handles GET /users/customers, verified users.
func (h *UserHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.userService.ListCustomers)
}

func (h *UserHandler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context) ([]model.User, error)) {
	users, err := fetch(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err, "Failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	respondWithJSON(w, http.StatusOK, Response{Status: statusSuccess, Users: users})
}

// Verify handles POST /users/verify.
func (h *UserHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req service.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	result, err := h.userService.Verify(r.Context(), req)
	if err != nil {
		code := getStatusCode(err)
		respondWithError(w, code, err, errorMessage(err, "Failed to verify user"))
		return
	}

	if result.AlreadyVerified {
		respondWithJSON(w, http.StatusOK, Response{
			Status:  statusSuccess,
			Message: "User already verified",
			User:    result.User,
		})
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Status:  statusSuccess,
		Message: "User verified successfully",
		User:    result.User,
		OTP:     result.OTP,
	})
}
