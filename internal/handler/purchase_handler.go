package handler

import (
	"encoding/json"
	"net/http"

	"markwave-backend/internal/service"
)

// PurchaseHandler records purchases against existing users.
type PurchaseHandler struct {
	purchaseService *service.PurchaseService
}

func NewPurchaseHandler(purchaseService *service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

// Record handles POST /purchases/.
func (h *PurchaseHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req service.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	purchase, err := h.purchaseService.Record(r.Context(), req)
	if err != nil {
		code := getStatusCode(err)
		respondWithError(w, code, err, errorMessage(err, "Failed to record purchase"))
		return
	}

	respondWithJSON(w, http.StatusCreated, Response{
		Status:   statusSuccess,
		Message:  "Purchase recorded successfully",
		Purchase: purchase,
	})
}
