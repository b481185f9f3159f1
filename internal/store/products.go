package store

import (
	"context"

	"delivery-service/internal/models"
)

const productColumns = `id, name, description, price, category, image_url, available, created_at, updated_at`

// ListProducts retrieves the menu ordered by category and name
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products,
		"SELECT "+productColumns+" FROM products ORDER BY category, name")
	return products, err
}

// InsertProduct creates a product, filling in its timestamps
func (s *Store) InsertProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (id, name, description, price, category, image_url, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.Image, p.Available,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// UpdateProduct overwrites a product by ID
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET name = $1, description = $2, price = $3, category = $4,
			image_url = $5, available = $6, updated_at = NOW()
		WHERE id = $7`,
		p.Name, p.Description, p.Price, p.Category, p.Image, p.Available, p.ID)
	if err != nil {
		return err
	}
	return expectAffected(res, "product", p.ID)
}

// DeleteProduct removes a product by ID
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectAffected(res, "product", id)
}
