package client_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/iyhunko/product-manager/internal/client"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newServer(c *qt.C, handler http.HandlerFunc) *client.Client {
	srv := httptest.NewServer(handler)
	c.Cleanup(srv.Close)
	return client.New(srv.URL+"/api", client.WithLogger(quietLogger))
}

func TestListProducts(t *testing.T) {
	c := qt.New(t)

	api := newServer(c, func(w http.ResponseWriter, r *http.Request) {
		c.Check(r.Method, qt.Equals, http.MethodGet)
		c.Check(r.URL.Path, qt.Equals, "/api/products")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":[{"id":2,"name":"Lamp","description":"Desk lamp","created_at":"2024-01-02T15:04:05Z"}]}`)
	})

	products, err := api.ListProducts(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(products, qt.HasLen, 1)
	c.Assert(products[0], qt.DeepEquals, client.Product{
		ID:          2,
		Name:        "Lamp",
		Description: "Desk lamp",
		CreatedAt:   time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC),
	})
}

func TestSearchProductsEncodesQuery(t *testing.T) {
	c := qt.New(t)

	api := newServer(c, func(w http.ResponseWriter, r *http.Request) {
		c.Check(r.URL.Path, qt.Equals, "/api/products/search")
		c.Check(r.URL.Query().Get("q"), qt.Equals, "50% off & more")
		_, _ = io.WriteString(w, `{"data":[]}`)
	})

	products, err := api.SearchProducts(context.Background(), "50% off & more")
	c.Assert(err, qt.IsNil)
	c.Assert(products, qt.HasLen, 0)
}

func TestCreateProductSendsJSON(t *testing.T) {
	c := qt.New(t)

	api := newServer(c, func(w http.ResponseWriter, r *http.Request) {
		c.Check(r.Method, qt.Equals, http.MethodPost)
		c.Check(r.Header.Get("Content-Type"), qt.Equals, "application/json")

		var input client.ProductInput
		c.Check(json.NewDecoder(r.Body).Decode(&input), qt.IsNil)
		c.Check(input, qt.Equals, client.ProductInput{Name: "Widget", Description: "A widget"})

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"id":1,"name":"Widget","description":"A widget","created_at":"2024-01-02T15:04:05Z"}}`)
	})

	product, err := api.CreateProduct(context.Background(), client.ProductInput{Name: "Widget", Description: "A widget"})
	c.Assert(err, qt.IsNil)
	c.Assert(product.ID, qt.Equals, int64(1))
	c.Assert(product.Name, qt.Equals, "Widget")
}

func TestUpdateAndDeleteUseProductPath(t *testing.T) {
	c := qt.New(t)

	var seen []string
	api := newServer(c, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"id":7,"name":"Widget2","description":"Better"}}`)
	})

	product, err := api.UpdateProduct(context.Background(), 7, client.ProductInput{Name: "Widget2", Description: "Better"})
	c.Assert(err, qt.IsNil)
	c.Assert(product.Name, qt.Equals, "Widget2")

	c.Assert(api.DeleteProduct(context.Background(), 7), qt.IsNil)
	c.Assert(seen, qt.DeepEquals, []string{"PUT /api/products/7", "DELETE /api/products/7"})
}

func TestAPIErrorCarriesEnvelopeMessage(t *testing.T) {
	c := qt.New(t)

	api := newServer(c, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"Product not found"}`)
	})

	_, err := api.GetProduct(context.Background(), 99)
	c.Assert(err, qt.ErrorAs, new(*client.APIError))

	apiErr := err.(*client.APIError)
	c.Assert(apiErr.StatusCode, qt.Equals, http.StatusNotFound)
	c.Assert(apiErr.Message, qt.Equals, "Product not found")
	c.Assert(client.ErrorMessage(err, "fallback"), qt.Equals, "Product not found")
}

func TestErrorMessageFallback(t *testing.T) {
	c := qt.New(t)

	api := newServer(c, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})

	err := api.DeleteProduct(context.Background(), 1)
	c.Assert(err, qt.IsNotNil)
	c.Assert(client.ErrorMessage(err, "Failed to delete product"), qt.Equals, "Failed to delete product")
}

func TestTimeoutIsAGenericError(t *testing.T) {
	c := qt.New(t)

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	c.Cleanup(srv.Close)
	c.Cleanup(func() { close(release) })

	api := client.New(srv.URL, client.WithTimeout(50*time.Millisecond), client.WithLogger(quietLogger))

	_, err := api.ListProducts(context.Background())
	c.Assert(err, qt.IsNotNil)
	c.Assert(client.ErrorMessage(err, "Failed to load products"), qt.Equals, "Failed to load products")
}

func TestNewDefaults(t *testing.T) {
	c := qt.New(t)

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `{"data":[]}`)
	}))
	c.Cleanup(srv.Close)

	api := client.New(srv.URL+"/api/", client.WithLogger(quietLogger))
	_, err := api.ListProducts(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(gotPath, qt.Equals, "/api/products")
}
