package graphdb

import (
	"context"
	"fmt"

	"markwave-backend/internal/graph"
	"markwave-backend/internal/model"
)

// PurchaseRepository appends purchase relationships. Purchases are
// write-once; nothing here mutates or deletes them.
type PurchaseRepository struct {
	client graph.Client
}

// NewPurchaseRepository instantiates a PurchaseRepository.
func NewPurchaseRepository(client graph.Client) *PurchaseRepository {
	return &PurchaseRepository{client: client}
}

// Create links a purchase node to the user with the given mobile number.
// Returns (nil, nil) when the user does not exist; the MATCH outcome is
// checked rather than assumed.
func (r *PurchaseRepository) Create(ctx context.Context, purchase model.Purchase) (*model.Purchase, error) {
	res, err := r.client.ExecuteWrite(ctx, createPurchaseCypher, map[string]any{
		"mobile":     purchase.Mobile,
		"purchaseId": purchase.ID,
		"item":       purchase.Item,
		"details":    purchase.Details,
	})
	if err != nil {
		return nil, fmt.Errorf("create purchase for %s: %w", purchase.Mobile, err)
	}
	if len(res.Records) == 0 {
		return nil, nil
	}

	stored := model.Purchase{
		ID:      toString(res.Records[0]["id"]),
		Mobile:  purchase.Mobile,
		Item:    purchase.Item,
		Details: purchase.Details,
	}
	return &stored, nil
}

const createPurchaseCypher = `
MATCH (u:User {mobile: $mobile})
CREATE (u)-[:PURCHASED {item: $item, details: $details}]->(p:Purchase {id: $purchaseId, created_at: datetime()})
RETURN p.id AS id
`
