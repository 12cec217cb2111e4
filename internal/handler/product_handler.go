package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"markwave-backend/internal/model"
	"markwave-backend/internal/service"
)

// ProductHandler exposes the buffalo catalogue.
type ProductHandler struct {
	productService *service.ProductService
}

func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// List handles GET /products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.List(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err, "Failed to list products")
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	respondWithJSON(w, http.StatusOK, Response{Status: statusSuccess, Products: products})
}

// GetByID handles GET /products/{id}.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	product, err := h.productService.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		code := getStatusCode(err)
		respondWithError(w, code, err, errorMessage(err, "Failed to get product"))
		return
	}
	respondWithJSON(w, http.StatusOK, Response{Status: statusSuccess, Product: product})
}
