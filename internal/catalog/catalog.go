package catalog

import (
	"context"
	"fmt"

	"storefront-api/internal/database"
)

// Product is a catalog row as seen at order-intent time.
type Product struct {
	ID        string
	Name      string
	Price     int64
	Available bool
}

// Catalog supplies product existence and current pricing for snapshotting.
type Catalog interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]Product, error)
}

// PostgresCatalog reads products from the database.
type PostgresCatalog struct {
	db *database.DB
}

// New creates a catalog backed by the given database.
func New(db *database.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

// GetByIDs returns the requested products keyed by id. Missing ids are
// simply absent from the result; callers decide whether that is an error.
func (c *PostgresCatalog) GetByIDs(ctx context.Context, ids []string) (map[string]Product, error) {
	rows, err := c.db.Query(ctx, database.GetProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make(map[string]Product, len(ids))
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Available); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products[p.ID] = p
	}

	return products, rows.Err()
}
