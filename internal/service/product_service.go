package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iyhunko/product-manager/internal/metrics"
	"github.com/iyhunko/product-manager/internal/model"
	"github.com/iyhunko/product-manager/internal/repository"
)

var (
	// ErrInvalidInput marks every error caused by the caller's input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptySearchQuery is returned when a search is requested without a query.
	ErrEmptySearchQuery = fmt.Errorf("%w: search query is required", ErrInvalidInput)

	// ErrMissingFields is returned when name or description is empty after trimming.
	ErrMissingFields = fmt.Errorf("%w: name and description are required", ErrInvalidInput)
)

// EventPublisher delivers product change events to a message broker.
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, event model.ProductEvent) error
}

type ProductService struct {
	repo      repository.ProductRepository
	publisher EventPublisher
}

// NewProductService wires the service. publisher may be nil, in which case no events are sent.
func NewProductService(repo repository.ProductRepository, publisher EventPublisher) *ProductService {
	return &ProductService{
		repo:      repo,
		publisher: publisher,
	}
}

func (ps *ProductService) ListProducts(ctx context.Context) ([]*model.Product, error) {
	return ps.repo.List(ctx, *repository.NewQuery())
}

// SearchProducts returns products whose name contains q, ignoring case.
func (ps *ProductService) SearchProducts(ctx context.Context, q string) ([]*model.Product, error) {
	if q == "" {
		return nil, ErrEmptySearchQuery
	}

	products, err := ps.repo.List(ctx, *repository.NewQuery().With(repository.NameField, q))
	if err != nil {
		return nil, err
	}

	metrics.ProductSearches.Inc()

	return products, nil
}

func (ps *ProductService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return ps.repo.FindByID(ctx, id)
}

func (ps *ProductService) CreateProduct(ctx context.Context, name, description string) (*model.Product, error) {
	product, err := newProduct(0, name, description)
	if err != nil {
		return nil, err
	}

	created, err := ps.repo.Create(ctx, product)
	if err != nil {
		return nil, err
	}

	metrics.ProductsCreated.Inc()
	ps.publish(ctx, model.ProductActionCreated, created)

	return created, nil
}

// UpdateProduct replaces name and description of an existing product.
func (ps *ProductService) UpdateProduct(ctx context.Context, id int64, name, description string) (*model.Product, error) {
	product, err := newProduct(id, name, description)
	if err != nil {
		return nil, err
	}

	updated, err := ps.repo.Update(ctx, product)
	if err != nil {
		return nil, err
	}

	metrics.ProductsUpdated.Inc()
	ps.publish(ctx, model.ProductActionUpdated, updated)

	return updated, nil
}

func (ps *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	if err := ps.repo.DeleteByID(ctx, id); err != nil {
		return err
	}

	metrics.ProductsDeleted.Inc()
	ps.publish(ctx, model.ProductActionDeleted, &model.Product{ID: id})

	return nil
}

func newProduct(id int64, name, description string) (*model.Product, error) {
	product := &model.Product{
		ID:          id,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
	}
	if product.Name == "" || product.Description == "" {
		return nil, ErrMissingFields
	}
	return product, nil
}

// publish sends the change event. Failures are logged and never reach the caller.
func (ps *ProductService) publish(ctx context.Context, action model.ProductAction, product *model.Product) {
	if ps.publisher == nil {
		return
	}

	if err := ps.publisher.PublishProductEvent(ctx, model.NewProductEvent(action, product)); err != nil {
		slog.Error("Failed to publish product event", slog.Any("err", err), slog.String("action", string(action)), slog.Int64("product_id", product.ID))
	}
}
