package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iyhunko/product-manager/internal/app"
	"github.com/iyhunko/product-manager/internal/client"
)

// DateLayout renders creation times as e.g. "Jan 2, 2024, 03:04 PM".
const DateLayout = "Jan 2, 2006, 03:04 PM"

const (
	Title            = "Product Manager"
	LoadingText      = "Loading products..."
	NoProductsTitle  = "No products yet"
	NoProductsText   = "Get started by adding your first product to the inventory."
	NoResultsTitle   = "No products found"
	CreateFormTitle  = "Add New Product"
	EditFormTitle    = "Update Product"
	DeleteTitle      = "Delete Product"
	addProductAction = "Add Product"
)

const rule = "----------------------------------------"

// FormatDate formats t in the local time zone.
func FormatDate(t time.Time) string {
	return t.Local().Format(DateLayout)
}

// NoResultsText is the hint shown when a search for query matched nothing.
func NoResultsText(query string) string {
	return fmt.Sprintf("No products match your search for %q. Try adjusting your search terms.", query)
}

// Render writes the whole screen for s: header, list or placeholder, open dialog and notifications.
func Render(w io.Writer, s *app.Store) error {
	p := &printer{w: w}

	p.line("%s  [%s]", Title, addProductAction)
	if s.SearchQuery != "" {
		p.line("Search: %s", s.SearchQuery)
	}
	p.line(rule)

	switch {
	case s.Loading:
		p.line(LoadingText)
	case s.EmptyState() == app.EmptyStateNoResults:
		p.line(NoResultsTitle)
		p.line(NoResultsText(s.SearchQuery))
	case s.EmptyState() == app.EmptyStateNoProducts:
		p.line(NoProductsTitle)
		p.line(NoProductsText)
	default:
		for i, product := range s.Products {
			if i > 0 {
				p.line("")
			}
			p.card(product)
		}
	}

	switch s.Modal {
	case app.ModalCreate, app.ModalEdit:
		p.line(rule)
		form := app.Form{}
		if s.Editing != nil {
			form = app.Form{Name: s.Editing.Name, Description: s.Editing.Description}
		}
		p.form(s, form, nil)
	case app.ModalDelete:
		p.line(rule)
		p.confirmation(s)
	}

	if s.Toasts != nil && s.Toasts.Len() > 0 {
		p.line(rule)
		for _, toast := range s.Toasts.Items() {
			p.toast(toast)
		}
	}

	return p.err
}

// RenderCard writes a single product.
func RenderCard(w io.Writer, product client.Product) error {
	p := &printer{w: w}
	p.card(product)
	return p.err
}

// RenderForm writes the open create or edit form with the given values and field errors.
func RenderForm(w io.Writer, s *app.Store, form app.Form, errs app.FormErrors) error {
	p := &printer{w: w}
	p.form(s, form, errs)
	return p.err
}

// RenderToast writes a single notification.
func RenderToast(w io.Writer, toast app.Toast) error {
	p := &printer{w: w}
	p.toast(toast)
	return p.err
}

// printer remembers the first write error so rendering code stays linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	if len(args) == 0 {
		_, p.err = io.WriteString(p.w, format+"\n")
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) card(product client.Product) {
	p.line("#%d %s", product.ID, product.Name)
	if product.Description != "" {
		for _, descLine := range strings.Split(product.Description, "\n") {
			p.line("    %s", descLine)
		}
	}
	p.line("    Created %s", FormatDate(product.CreatedAt))
}

func (p *printer) form(s *app.Store, form app.Form, errs app.FormErrors) {
	title := CreateFormTitle
	if s.Modal == app.ModalEdit {
		title = EditFormTitle
	}
	p.line(title)
	p.line("Product Name *: %s", form.Name)
	if msg, ok := errs[app.FieldName]; ok {
		p.line("  ! %s", msg)
	}
	p.line("Description: %s", form.Description)
	if s.ActionLoading {
		if s.Modal == app.ModalEdit {
			p.line("Updating...")
		} else {
			p.line("Creating...")
		}
	}
}

func (p *printer) confirmation(s *app.Store) {
	p.line(DeleteTitle)
	if s.Deleting != nil {
		p.line("Are you sure you want to delete %q? This action cannot be undone.", s.Deleting.Name)
	}
	if s.ActionLoading {
		p.line("Deleting...")
	}
}

func (p *printer) toast(toast app.Toast) {
	marker := "[ok]"
	if toast.Type == app.ToastError {
		marker = "[error]"
	}
	p.line("%s %s", marker, toast.Message)
}
