package graphdb

import (
	"context"
	"fmt"

	"markwave-backend/internal/graph"
	"markwave-backend/internal/model"
)

// ProductRepository reads the buffalo catalogue. Writes happen only through
// the offline seeder's bulk upsert.
type ProductRepository struct {
	client graph.Client
}

// NewProductRepository instantiates a ProductRepository.
func NewProductRepository(client graph.Client) *ProductRepository {
	return &ProductRepository{client: client}
}

// List returns the full catalogue ordered by product id.
func (r *ProductRepository) List(ctx context.Context) ([]model.Product, error) {
	res, err := r.client.ExecuteRead(ctx, listProductsCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products := make([]model.Product, 0, len(res.Records))
	for _, record := range res.Records {
		props, ok := toPropsMap(record["product"])
		if !ok {
			continue
		}
		products = append(products, productFromProps(props))
	}
	return products, nil
}

// GetByID fetches a single product. Returns (nil, nil) when absent.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	res, err := r.client.ExecuteRead(ctx, getProductCypher, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("fetch product %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return nil, nil
	}
	props, ok := toPropsMap(res.Records[0]["product"])
	if !ok {
		return nil, fmt.Errorf("fetch product %s: unexpected record shape", id)
	}
	product := productFromProps(props)
	return &product, nil
}

// EnsureConstraint creates the uniqueness constraint on product ids.
func (r *ProductRepository) EnsureConstraint(ctx context.Context) error {
	if _, err := r.client.ExecuteWrite(ctx, productConstraintCypher, nil); err != nil {
		return fmt.Errorf("ensure product constraint: %w", err)
	}
	return nil
}

// UpsertBatch merges the supplied products on their ids and returns the
// number of nodes touched.
func (r *ProductRepository) UpsertBatch(ctx context.Context, products []model.Product) (int, error) {
	rows := make([]map[string]any, 0, len(products))
	for _, p := range products {
		rows = append(rows, map[string]any{
			"id":             p.ID,
			"breed":          p.Breed,
			"age":            p.Age,
			"milkYield":      p.MilkYield,
			"price":          p.Price,
			"inStock":        p.InStock,
			"insurance":      p.Insurance,
			"buffalo_images": p.Images,
			"description":    p.Description,
		})
	}

	res, err := r.client.ExecuteWrite(ctx, upsertProductsCypher, map[string]any{"products": rows})
	if err != nil {
		return 0, fmt.Errorf("upsert products: %w", err)
	}
	if len(res.Records) == 0 {
		return 0, nil
	}
	return toInt(res.Records[0]["upserted"]), nil
}

const listProductsCypher = `
MATCH (p:PRODUCT)
RETURN properties(p) AS product
ORDER BY p.id
`

const getProductCypher = `
MATCH (p:PRODUCT {id: $id})
RETURN properties(p) AS product
`

const productConstraintCypher = `
CREATE CONSTRAINT product_id_unique IF NOT EXISTS
FOR (p:PRODUCT)
REQUIRE p.id IS UNIQUE
`

const upsertProductsCypher = `
UNWIND $products AS product
MERGE (p:PRODUCT:BUFFALO {id: product.id})
SET p.breed = product.breed,
    p.age = product.age,
    p.milkYield = product.milkYield,
    p.price = product.price,
    p.inStock = product.inStock,
    p.insurance = product.insurance,
    p.buffalo_images = product.buffalo_images,
    p.description = product.description
RETURN count(p) AS upserted
`
