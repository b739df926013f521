package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/iyhunko/product-manager/internal/model"
	"github.com/iyhunko/product-manager/internal/repository"
	"github.com/iyhunko/product-manager/internal/service"
)

const (
	msgSearchQueryRequired = "Search query is required"
	msgFieldsRequired      = "Name and description are required"
	msgInvalidBody         = "invalid request body"
	msgInvalidID           = "invalid product ID"
	msgNotFound            = "Product not found"
	msgDatabaseError       = "Database error"
)

// ProductService is the product use-case layer consumed by ProductController.
type ProductService interface {
	ListProducts(ctx context.Context) ([]*model.Product, error)
	SearchProducts(ctx context.Context, q string) ([]*model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	CreateProduct(ctx context.Context, name, description string) (*model.Product, error)
	UpdateProduct(ctx context.Context, id int64, name, description string) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// ProductController handles HTTP requests for product operations.
type ProductController struct {
	productService ProductService
}

// NewProductController creates a new ProductController with the given product service.
func NewProductController(productService ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// ProductRequest represents the request body for creating or updating a product.
type ProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// ProductResponse represents the response body for a product.
type ProductResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// ListProducts handles GET /products.
func (pc *ProductController) ListProducts(c *gin.Context) {
	products, err := pc.productService.ListProducts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": toProductResponses(products)})
}

// SearchProducts handles GET /products/search?q=.
func (pc *ProductController) SearchProducts(c *gin.Context) {
	products, err := pc.productService.SearchProducts(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": toProductResponses(products)})
}

// GetProduct handles GET /products/:id.
func (pc *ProductController) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	product, err := pc.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": toProductResponse(product)})
}

// CreateProduct handles the HTTP POST request for creating a new product.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	req, ok := bindProductRequest(c)
	if !ok {
		return
	}

	createdProduct, err := pc.productService.CreateProduct(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": toProductResponse(createdProduct)})
}

// UpdateProduct handles PUT /products/:id.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	req, ok := bindProductRequest(c)
	if !ok {
		return
	}

	updatedProduct, err := pc.productService.UpdateProduct(c.Request.Context(), id, req.Name, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": toProductResponse(updatedProduct)})
}

// DeleteProduct handles the HTTP DELETE request for deleting a product by ID.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := pc.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidID})
		return 0, false
	}
	return id, true
}

func bindProductRequest(c *gin.Context) (ProductRequest, bool) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgFieldsRequired})
			return req, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
		return req, false
	}
	return req, true
}

// writeError maps service and repository errors onto HTTP answers.
// Backend failures are logged and reported without detail.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmptySearchQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgSearchQueryRequired})
	case errors.Is(err, service.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgFieldsRequired})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
	default:
		slog.Error("Database error",
			slog.Any("err", err),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgDatabaseError})
	}
}

func toProductResponses(products []*model.Product) []ProductResponse {
	responses := make([]ProductResponse, 0, len(products))
	for _, product := range products {
		responses = append(responses, toProductResponse(product))
	}
	return responses
}

func toProductResponse(product *model.Product) ProductResponse {
	return ProductResponse{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		CreatedAt:   product.CreatedAt.Format(time.RFC3339),
	}
}
