package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"markwave-backend/internal/events"
	"markwave-backend/internal/model"
	"markwave-backend/internal/repository/graphdb"
	"markwave-backend/internal/util"
)

// PurchaseService records purchases as relationships off existing users.
type PurchaseService struct {
	purchaseRepo *graphdb.PurchaseRepository
	publisher    events.Publisher
}

// PurchaseRequest is the inbound shape for recording a purchase.
type PurchaseRequest struct {
	Mobile  string `json:"mobile"`
	Item    string `json:"item"`
	Details string `json:"details"`
}

func NewPurchaseService(purchaseRepo *graphdb.PurchaseRepository, publisher events.Publisher) *PurchaseService {
	return &PurchaseService{purchaseRepo: purchaseRepo, publisher: publisher}
}

// Record attaches a purchase to the user identified by mobile. A purchase
// never exists without its buyer: a missing user is ErrUserNotFound, not a
// dangling relationship.
func (s *PurchaseService) Record(ctx context.Context, req PurchaseRequest) (*model.Purchase, error) {
	mobile := util.SanitizeInput(req.Mobile)
	item := util.SanitizeInput(req.Item)

	if !mobilePattern.MatchString(mobile) {
		return nil, fmt.Errorf("%w: mobile must be 10 to 15 digits", ErrInvalidInput)
	}
	if item == "" {
		return nil, fmt.Errorf("%w: item is required", ErrInvalidInput)
	}

	purchase := model.Purchase{
		ID:      uuid.NewString(),
		Mobile:  mobile,
		Item:    item,
		Details: util.SanitizeInput(req.Details),
	}

	created, err := s.purchaseRepo.Create(ctx, purchase)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, ErrUserNotFound
	}

	util.Info("purchase recorded",
		util.String("mobile", mobile),
		util.String("item", item))
	s.publisher.Publish(ctx, events.EventPurchaseRecorded, map[string]any{
		"mobile":      created.Mobile,
		"purchase_id": created.ID,
		"item":        created.Item,
	})

	return created, nil
}
