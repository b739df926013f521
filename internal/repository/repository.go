package repository

import (
	"context"
	"errors"

	"github.com/iyhunko/product-manager/internal/model"
)

var (
	// ErrNotFound is returned when no row matches the requested product ID.
	ErrNotFound = errors.New("product not found")
)

// ProductRepository defines the persistence operations for products.
// Every method maps to exactly one SQL statement.
type ProductRepository interface {
	List(ctx context.Context, query Query) (result []*model.Product, err error)
	FindByID(ctx context.Context, id int64) (result *model.Product, err error)
	Create(ctx context.Context, product *model.Product) (result *model.Product, err error)
	Update(ctx context.Context, product *model.Product) (result *model.Product, err error)
	DeleteByID(ctx context.Context, id int64) error
}
