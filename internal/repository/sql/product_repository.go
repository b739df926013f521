package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/iyhunko/product-manager/internal/model"
	"github.com/iyhunko/product-manager/internal/repository"
)

const (
	productsTable    = "products"
	returningProduct = "RETURNING id, name, description, created_at"
)

var (
	psql           = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	productColumns = []string{"id", "name", "description", "created_at"}

	// likeEscaper makes user input match literally inside an (I)LIKE pattern.
	likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// ProductRepository implements repository.ProductRepository on top of PostgreSQL.
type ProductRepository struct {
	db dbExecutor
}

// NewProductRepository creates a new ProductRepository instance.
func NewProductRepository(db *sql.DB) repository.ProductRepository {
	return &ProductRepository{db: db}
}

// List retrieves products, newest first. A NameField value restricts the result
// to names containing it, ignoring case.
func (r *ProductRepository) List(ctx context.Context, query repository.Query) ([]*model.Product, error) {
	builder := psql.Select(productColumns...).From(productsTable)

	fields := make([]string, 0, len(query.Values))
	for field := range query.Values {
		fields = append(fields, string(field))
	}
	sort.Strings(fields)
	for _, field := range fields {
		value := query.Values[repository.QueryField(field)]
		if repository.QueryField(field) == repository.NameField {
			builder = builder.Where(squirrel.ILike{field: "%" + likeEscaper.Replace(value) + "%"})
			continue
		}
		builder = builder.Where(squirrel.Eq{field: value})
	}

	builder = builder.OrderBy("created_at DESC", "id DESC")

	stmtSQL, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select statement: %w", err)
	}

	stmt, err := r.db.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]*model.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}

// FindByID retrieves a single product by ID.
func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	stmtSQL, args, err := psql.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select statement: %w", err)
	}

	return r.queryOne(ctx, stmtSQL, args, "select")
}

// Create inserts a new product and returns it with the database assigned ID and creation time.
func (r *ProductRepository) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	stmtSQL, args, err := psql.Insert(productsTable).
		Columns("name", "description").
		Values(product.Name, product.Description).
		Suffix(returningProduct).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert statement: %w", err)
	}

	return r.queryOne(ctx, stmtSQL, args, "insert")
}

// Update overwrites name and description of the product matched by ID.
func (r *ProductRepository) Update(ctx context.Context, product *model.Product) (*model.Product, error) {
	stmtSQL, args, err := psql.Update(productsTable).
		Set("name", product.Name).
		Set("description", product.Description).
		Where(squirrel.Eq{"id": product.ID}).
		Suffix(returningProduct).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update statement: %w", err)
	}

	return r.queryOne(ctx, stmtSQL, args, "update")
}

// DeleteByID deletes a product by ID.
func (r *ProductRepository) DeleteByID(ctx context.Context, id int64) error {
	stmtSQL, args, err := psql.Delete(productsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete statement: %w", err)
	}

	stmt, err := r.db.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("failed to delete product %d: %w", id, repository.ErrNotFound)
	}

	return nil
}

// queryOne prepares a statement that yields at most one product row and scans it.
func (r *ProductRepository) queryOne(ctx context.Context, stmtSQL string, args []interface{}, kind string) (*model.Product, error) {
	stmt, err := r.db.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare %s statement: %w", kind, err)
	}
	defer stmt.Close()

	product, err := scanProduct(stmt.QueryRowContext(ctx, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to %s product: %w", kind, err)
	}

	return product, nil
}

func scanProduct(row rowScanner) (*model.Product, error) {
	var product model.Product
	if err := row.Scan(&product.ID, &product.Name, &product.Description, &product.CreatedAt); err != nil {
		return nil, err
	}
	return &product, nil
}
