package service

import (
	"context"

	"markwave-backend/internal/model"
	"markwave-backend/internal/repository/graphdb"
	"markwave-backend/internal/util"
)

// ProductService serves the buffalo catalogue from the graph store.
type ProductService struct {
	productRepo *graphdb.ProductRepository
}

func NewProductService(productRepo *graphdb.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

func (s *ProductService) List(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.List(ctx)
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, util.SanitizeInput(id))
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}
