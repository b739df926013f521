package app

import (
	"github.com/iyhunko/product-manager/internal/client"
)

// Modal is the dialog currently shown on top of the product list.
type Modal int

const (
	ModalNone Modal = iota
	ModalCreate
	ModalEdit
	ModalDelete
)

// EmptyState tells which placeholder to show when there are no products to list.
type EmptyState int

const (
	// EmptyStateNone means products are listed, or still loading.
	EmptyStateNone EmptyState = iota
	// EmptyStateNoProducts means the inventory is empty.
	EmptyStateNoProducts
	// EmptyStateNoResults means a search matched nothing.
	EmptyStateNoResults
)

// Store is the complete client state. Rendering reads it; only App mutates it.
type Store struct {
	Products      []client.Product
	Loading       bool
	ActionLoading bool
	Modal         Modal
	Editing       *client.Product
	Deleting      *client.Product
	SearchQuery   string
	Toasts        *ToastQueue
}

// EmptyState reports which placeholder applies to the current state.
func (s *Store) EmptyState() EmptyState {
	if s.Loading || len(s.Products) > 0 {
		return EmptyStateNone
	}
	if s.SearchQuery != "" {
		return EmptyStateNoResults
	}
	return EmptyStateNoProducts
}

// Find returns the listed product with the given id.
func (s *Store) Find(id int64) (*client.Product, bool) {
	for i := range s.Products {
		if s.Products[i].ID == id {
			return &s.Products[i], true
		}
	}
	return nil, false
}

func (s *Store) closeModal() {
	s.Modal = ModalNone
	s.Editing = nil
	s.Deleting = nil
}
