package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/iyhunko/product-manager/internal/client"
)

// Notification and form messages shown to the user.
const (
	MsgLoadFailed   = "Failed to load products"
	MsgSearchFailed = "Failed to search products"
	MsgSaveFailed   = "Failed to save product"
	MsgDeleteFailed = "Failed to delete product"
	MsgCreated      = "Product created successfully!"
	MsgUpdated      = "Product updated successfully!"
	MsgDeleted      = "Product deleted successfully!"
	MsgNameRequired = "Product name is required"
	MsgNameTooShort = "Product name must be at least 2 characters"
)

// FieldName is the FormErrors key for the name field.
const FieldName = "name"

var (
	// ErrBusy is returned when an action is attempted while another one is in flight.
	ErrBusy = errors.New("another action is in progress")
	// ErrNoForm is returned by SubmitForm when no create or edit form is open.
	ErrNoForm = errors.New("no product form is open")
	// ErrNothingToDelete is returned by ConfirmDelete when no deletion was requested.
	ErrNothingToDelete = errors.New("no product selected for deletion")
	// ErrUnknownProduct is returned when an id does not match any listed product.
	ErrUnknownProduct = errors.New("product is not in the list")
	// ErrInvalidForm is returned by SubmitForm when local validation fails.
	ErrInvalidForm = errors.New("product form is invalid")
)

// ProductAPI is the subset of the HTTP client the application drives.
type ProductAPI interface {
	ListProducts(ctx context.Context) ([]client.Product, error)
	SearchProducts(ctx context.Context, q string) ([]client.Product, error)
	CreateProduct(ctx context.Context, input client.ProductInput) (*client.Product, error)
	UpdateProduct(ctx context.Context, id int64, input client.ProductInput) (*client.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// Form holds the values typed into the create/edit form.
type Form struct {
	Name        string `validate:"required,min=2"`
	Description string
}

// FormErrors maps form field names to their validation message.
type FormErrors map[string]string

// App runs user actions against the API and keeps Store in sync with the answers.
type App struct {
	api      ProductAPI
	store    *Store
	validate *validator.Validate
}

// Option configures an App.
type Option func(*App)

// WithIDGenerator sets the notification id generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(a *App) {
		a.store.Toasts = NewToastQueue(gen)
	}
}

func New(api ProductAPI, opts ...Option) *App {
	a := &App{
		api:      api,
		store:    &Store{Toasts: NewToastQueue(nil)},
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Store exposes the state for rendering.
func (a *App) Store() *Store {
	return a.store
}

// Mount loads the full product list.
func (a *App) Mount(ctx context.Context) error {
	a.store.Loading = true
	defer func() { a.store.Loading = false }()

	products, err := a.api.ListProducts(ctx)
	if err != nil {
		a.store.Toasts.Push(MsgLoadFailed, ToastError)
		return fmt.Errorf("failed to load products: %w", err)
	}
	a.store.Products = products
	return nil
}

// Search re-queries the list. Blank text restores the full list.
func (a *App) Search(ctx context.Context, text string) error {
	a.store.SearchQuery = text
	a.store.Loading = true
	defer func() { a.store.Loading = false }()

	var (
		products []client.Product
		err      error
	)
	if strings.TrimSpace(text) == "" {
		products, err = a.api.ListProducts(ctx)
	} else {
		products, err = a.api.SearchProducts(ctx, text)
	}
	if err != nil {
		a.store.Toasts.Push(MsgSearchFailed, ToastError)
		return fmt.Errorf("failed to search products: %w", err)
	}
	a.store.Products = products
	return nil
}

// OpenCreate shows an empty product form.
func (a *App) OpenCreate() {
	a.store.closeModal()
	a.store.Modal = ModalCreate
}

// OpenEdit shows the form prefilled with the listed product id.
func (a *App) OpenEdit(id int64) error {
	product, ok := a.store.Find(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownProduct, id)
	}
	a.store.closeModal()
	editing := *product
	a.store.Modal = ModalEdit
	a.store.Editing = &editing
	return nil
}

// RequestDelete asks for confirmation before deleting the listed product id.
func (a *App) RequestDelete(id int64) error {
	product, ok := a.store.Find(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownProduct, id)
	}
	a.store.closeModal()
	deleting := *product
	a.store.Modal = ModalDelete
	a.store.Deleting = &deleting
	return nil
}

// CancelModal closes whichever dialog is open.
func (a *App) CancelModal() {
	a.store.closeModal()
}

// ValidateForm trims the form and checks the name locally.
func (a *App) ValidateForm(form Form) (Form, FormErrors) {
	form.Name = strings.TrimSpace(form.Name)
	form.Description = strings.TrimSpace(form.Description)

	err := a.validate.Struct(form)
	if err == nil {
		return form, nil
	}

	errs := FormErrors{}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, fieldErr := range validationErrs {
			if fieldErr.Field() != "Name" {
				continue
			}
			switch fieldErr.Tag() {
			case "required":
				errs[FieldName] = MsgNameRequired
			case "min":
				errs[FieldName] = MsgNameTooShort
			}
		}
	}
	return form, errs
}

// SubmitForm creates or updates a product from the open form. Local validation
// failures are returned as FormErrors and no call is made. On API failure the
// form stays open and an error notification is queued.
func (a *App) SubmitForm(ctx context.Context, form Form) (FormErrors, error) {
	if a.store.Modal != ModalCreate && a.store.Modal != ModalEdit {
		return nil, ErrNoForm
	}
	if a.store.ActionLoading {
		return nil, ErrBusy
	}

	form, formErrs := a.ValidateForm(form)
	if len(formErrs) > 0 {
		return formErrs, ErrInvalidForm
	}

	a.store.ActionLoading = true
	defer func() { a.store.ActionLoading = false }()

	input := client.ProductInput{Name: form.Name, Description: form.Description}

	if a.store.Modal == ModalEdit {
		id := a.store.Editing.ID
		updated, err := a.api.UpdateProduct(ctx, id, input)
		if err != nil {
			a.store.Toasts.Push(client.ErrorMessage(err, MsgSaveFailed), ToastError)
			return nil, fmt.Errorf("failed to update product %d: %w", id, err)
		}
		for i := range a.store.Products {
			if a.store.Products[i].ID == id {
				a.store.Products[i] = *updated
			}
		}
		a.store.closeModal()
		a.store.Toasts.Push(MsgUpdated, ToastSuccess)
		return nil, nil
	}

	created, err := a.api.CreateProduct(ctx, input)
	if err != nil {
		a.store.Toasts.Push(client.ErrorMessage(err, MsgSaveFailed), ToastError)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	a.store.Products = append([]client.Product{*created}, a.store.Products...)
	a.store.closeModal()
	a.store.Toasts.Push(MsgCreated, ToastSuccess)
	return nil, nil
}

// ConfirmDelete deletes the product awaiting confirmation.
func (a *App) ConfirmDelete(ctx context.Context) error {
	if a.store.Modal != ModalDelete || a.store.Deleting == nil {
		return ErrNothingToDelete
	}
	if a.store.ActionLoading {
		return ErrBusy
	}

	a.store.ActionLoading = true
	defer func() { a.store.ActionLoading = false }()

	id := a.store.Deleting.ID
	if err := a.api.DeleteProduct(ctx, id); err != nil {
		a.store.Toasts.Push(client.ErrorMessage(err, MsgDeleteFailed), ToastError)
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}

	remaining := a.store.Products[:0]
	for _, product := range a.store.Products {
		if product.ID != id {
			remaining = append(remaining, product)
		}
	}
	a.store.Products = remaining
	a.store.closeModal()
	a.store.Toasts.Push(MsgDeleted, ToastSuccess)
	return nil
}

// DismissToast removes one notification.
func (a *App) DismissToast(id string) bool {
	return a.store.Toasts.Dismiss(id)
}
