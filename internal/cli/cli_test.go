package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/go-extras/go-kit/must"

	"github.com/iyhunko/product-manager/internal/app"
	"github.com/iyhunko/product-manager/internal/cli"
	"github.com/iyhunko/product-manager/internal/client"
)

var createdAt = must.Must(time.Parse(time.RFC3339, "2024-01-02T15:04:05Z"))

// fakeServer is an in-memory product API that records the calls it receives.
type fakeServer struct {
	mu       sync.Mutex
	products []client.Product
	nextID   int64
	calls    []string
	failAll  bool
}

func newFakeServer(c *qt.C, products ...client.Product) (*fakeServer, string) {
	f := &fakeServer{products: products, nextID: int64(len(products)) + 1}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", f.list)
	mux.HandleFunc("GET /api/products/search", f.search)
	mux.HandleFunc("GET /api/products/{id}", f.get)
	mux.HandleFunc("POST /api/products", f.create)
	mux.HandleFunc("PUT /api/products/{id}", f.update)
	mux.HandleFunc("DELETE /api/products/{id}", f.delete)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls = append(f.calls, r.Method+" "+r.URL.RequestURI())
		if f.failAll {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Database error"})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	c.Cleanup(srv.Close)

	return f, srv.URL + "/api"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeServer) list(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": f.products})
}

func (f *fakeServer) search(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	found := []client.Product{}
	for _, p := range f.products {
		if strings.Contains(strings.ToLower(p.Name), q) {
			found = append(found, p)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": found})
}

func (f *fakeServer) index(r *http.Request) int {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	for i, p := range f.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeServer) get(w http.ResponseWriter, r *http.Request) {
	i := f.index(r)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Product not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": f.products[i]})
}

func (f *fakeServer) create(w http.ResponseWriter, r *http.Request) {
	var input client.ProductInput
	_ = json.NewDecoder(r.Body).Decode(&input)
	if input.Name == "" || input.Description == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Name and description are required"})
		return
	}
	product := client.Product{ID: f.nextID, Name: input.Name, Description: input.Description, CreatedAt: createdAt}
	f.nextID++
	f.products = append([]client.Product{product}, f.products...)
	writeJSON(w, http.StatusCreated, map[string]any{"data": product})
}

func (f *fakeServer) update(w http.ResponseWriter, r *http.Request) {
	var input client.ProductInput
	_ = json.NewDecoder(r.Body).Decode(&input)
	i := f.index(r)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Product not found"})
		return
	}
	f.products[i].Name = input.Name
	f.products[i].Description = input.Description
	writeJSON(w, http.StatusOK, map[string]any{"data": f.products[i]})
}

func (f *fakeServer) delete(w http.ResponseWriter, r *http.Request) {
	i := f.index(r)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Product not found"})
		return
	}
	f.products = append(f.products[:i], f.products[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeServer) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}

func seeded(c *qt.C) (*fakeServer, string) {
	return newFakeServer(c,
		client.Product{ID: 2, Name: "Lamp", Description: "Desk lamp", CreatedAt: createdAt},
		client.Product{ID: 1, Name: "Widget", Description: "A widget", CreatedAt: createdAt},
	)
}

type result struct {
	stdout string
	stderr string
	err    error
}

func run(stdin string, args ...string) result {
	cmd := cli.NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestList(t *testing.T) {
	c := qt.New(t)

	c.Run("all products", func(c *qt.C) {
		_, url := seeded(c)

		res := run("", "list", "--api-url", url)

		c.Assert(res.err, qt.IsNil)
		c.Assert(res.stdout, qt.Contains, "#2 Lamp")
		c.Assert(res.stdout, qt.Contains, "#1 Widget")
	})

	c.Run("base url from the environment", func(c *qt.C) {
		f, url := seeded(c)
		c.Setenv(cli.APIURLEnv, url)

		res := run("", "list")

		c.Assert(res.err, qt.IsNil)
		c.Assert(f.recorded(), qt.DeepEquals, []string{"GET /api/products"})
	})

	c.Run("search", func(c *qt.C) {
		f, url := seeded(c)

		res := run("", "list", "--api-url", url, "--search", "wid")

		c.Assert(res.err, qt.IsNil)
		c.Assert(res.stdout, qt.Contains, "#1 Widget")
		c.Assert(res.stdout, qt.Not(qt.Contains), "Lamp")
		c.Assert(f.recorded(), qt.DeepEquals, []string{"GET /api/products/search?q=wid"})
	})

	c.Run("search without results", func(c *qt.C) {
		_, url := seeded(c)

		res := run("", "list", "--api-url", url, "--search", "zzz")

		c.Assert(res.err, qt.IsNil)
		c.Assert(res.stdout, qt.Contains, "No products found")
	})

	c.Run("failure prints the notification and fails", func(c *qt.C) {
		f, url := seeded(c)
		f.failAll = true

		res := run("", "list", "--api-url", url)

		c.Assert(res.err, qt.IsNotNil)
		c.Assert(res.stderr, qt.Contains, "[error] "+app.MsgLoadFailed)
	})

	c.Run("invalid timeout", func(c *qt.C) {
		_, url := seeded(c)

		res := run("", "list", "--api-url", url, "--timeout", "soon")

		c.Assert(res.err, qt.ErrorMatches, `invalid timeout "soon"`)
	})
}

func TestGet(t *testing.T) {
	c := qt.New(t)

	c.Run("found", func(c *qt.C) {
		_, url := seeded(c)

		res := run("", "get", "1", "--api-url", url)

		c.Assert(res.err, qt.IsNil)
		c.Assert(res.stdout, qt.Contains, "#1 Widget\n    A widget\n")
	})

	c.Run("not found", func(c *qt.C) {
		_, url := seeded(c)

		res := run("", "get", "99", "--api-url", url)

		c.Assert(res.err, qt.IsNotNil)
		c.Assert(res.stderr, qt.Contains, "[error] Product not found")
	})

	c.Run("invalid id", func(c *qt.C) {
		f, url := seeded(c)

		res := run("", "get", "abc", "--api-url", url)

		c.Assert(res.err, qt.ErrorMatches, `invalid product ID "abc"`)
		c.Assert(f.recorded(), qt.HasLen, 0)
	})
}

func TestCreate(t *testing.T) {
	c := qt.New(t)

	c.Run("created", func(c *qt.C) {
		f, url := seeded(c)

		res := run("", "create", "--api-url", url, "--name", " Gadget ", "--description", "A gadget")

		c.Assert(res.err, qt.IsNil)
		c.Assert(res.stdout, qt.Contains, "#3 Gadget\n    A gadget\n")
		c.Assert(res.stdout, qt.Contains, "[ok] "+app.MsgCreated)
		c.Assert(f.recorded(), qt.DeepEquals, []string{"POST /api/products"})
	})

	c.Run("short name is rejected locally", func(c *qt.C) {
		f, url := seeded(c)

		res := run("", "create", "--api-url", url, "--name", "x")

		c.Assert(res.err, qt.ErrorIs, app.ErrInvalidForm)
		c.Assert(res.stderr, qt.Contains, app.MsgNameTooShort)
		c.Assert(f.recorded(), qt.HasLen, 0)
	})

	c.Run("server message is shown", func(c *qt.C) {
		_, url := seeded(c)

		res := run("", "create", "--api-url", url, "--name", "Gadget")

		c.Assert(res.err, qt.IsNotNil)
		c.Assert(res.stderr, qt.Contains, "[error] Name and description are required")
	})
}

func TestUpdate(t *testing.T) {
	c := qt.New(t)

	c.Run("missing flags keep current values", func(c *qt.C) {
		f, url := seeded(c)

		res := run("", "update", "1", "--api-url", url, "--name", "Widget2")

		c.Assert(res.err, qt.IsNil)
		c.Assert(res.stdout, qt.Contains, "#1 Widget2\n    A widget\n")
		c.Assert(res.stdout, qt.Contains, "[ok] "+app.MsgUpdated)
		c.Assert(f.recorded(), qt.DeepEquals, []string{"GET /api/products", "PUT /api/products/1"})
	})

	c.Run("unknown product", func(c *qt.C) {
		_, url := seeded(c)

		res := run("", "update", "42", "--api-url", url, "--name", "Ghost")

		c.Assert(res.err, qt.ErrorIs, app.ErrUnknownProduct)
	})
}

func TestDelete(t *testing.T) {
	c := qt.New(t)

	c.Run("with --yes", func(c *qt.C) {
		f, url := seeded(c)

		res := run("", "delete", "1", "--yes", "--api-url", url)

		c.Assert(res.err, qt.IsNil)
		c.Assert(res.stdout, qt.Contains, "[ok] "+app.MsgDeleted)
		c.Assert(f.recorded(), qt.DeepEquals, []string{"GET /api/products", "DELETE /api/products/1"})
	})

	c.Run("confirmed on stdin", func(c *qt.C) {
		f, url := seeded(c)

		res := run("y\n", "delete", "2", "--api-url", url)

		c.Assert(res.err, qt.IsNil)
		c.Assert(res.stdout, qt.Contains, `delete "Lamp"?`)
		c.Assert(f.recorded(), qt.DeepEquals, []string{"GET /api/products", "DELETE /api/products/2"})
	})

	c.Run("declined", func(c *qt.C) {
		f, url := seeded(c)

		res := run("n\n", "delete", "2", "--api-url", url)

		c.Assert(res.err, qt.IsNil)
		c.Assert(res.stdout, qt.Contains, "Cancelled")
		c.Assert(f.recorded(), qt.DeepEquals, []string{"GET /api/products"})
	})
}

func TestShell(t *testing.T) {
	c := qt.New(t)

	c.Run("create, search and delete in one session", func(c *qt.C) {
		f, url := seeded(c)
		input := strings.Join([]string{
			"add",
			"Gadget",
			"A gadget",
			"search gad",
			"delete 3",
			"y",
			"list",
			"quit",
		}, "\n") + "\n"

		res := run(input, "shell", "--api-url", url)

		c.Assert(res.err, qt.IsNil)
		c.Assert(res.stdout, qt.Contains, "[ok] "+app.MsgCreated)
		c.Assert(res.stdout, qt.Contains, "Search: gad")
		c.Assert(res.stdout, qt.Contains, "[ok] "+app.MsgDeleted)
		c.Assert(f.recorded(), qt.DeepEquals, []string{
			"GET /api/products",
			"POST /api/products",
			"GET /api/products/search?q=gad",
			"DELETE /api/products/3",
			"GET /api/products",
		})
	})

	c.Run("invalid form is asked again", func(c *qt.C) {
		f, url := seeded(c)
		input := "add\nx\n\ny\nGadget\nA gadget\nquit\n"

		res := run(input, "shell", "--api-url", url)

		c.Assert(res.err, qt.IsNil)
		c.Assert(res.stdout, qt.Contains, app.MsgNameTooShort)
		c.Assert(res.stdout, qt.Contains, "[ok] "+app.MsgCreated)
		c.Assert(f.recorded(), qt.DeepEquals, []string{"GET /api/products", "POST /api/products"})
	})

	c.Run("failed calls keep the session alive", func(c *qt.C) {
		f, url := seeded(c)
		f.failAll = true

		res := run("list\nhelp\nbogus\n", "shell", "--api-url", url)

		c.Assert(res.err, qt.IsNil)
		c.Assert(res.stdout, qt.Contains, "[error] "+app.MsgLoadFailed)
		c.Assert(res.stdout, qt.Contains, "[error] "+app.MsgSearchFailed)
		c.Assert(res.stdout, qt.Contains, "search <text>")
		c.Assert(res.stdout, qt.Contains, `Unknown command "bogus"`)
	})
}

func TestConnectionFlags(t *testing.T) {
	c := qt.New(t)

	c.Run("each subcommand uses its own --api-url", func(c *qt.C) {
		first, firstURL := seeded(c)
		second, secondURL := seeded(c)

		res := run("", "list", "--api-url", firstURL)
		c.Assert(res.err, qt.IsNil)

		res = run("", "get", "1", "--api-url", secondURL)
		c.Assert(res.err, qt.IsNil)

		res = run("", "create", "--api-url", secondURL, "--name", "Gadget", "--description", "A gadget")
		c.Assert(res.err, qt.IsNil)

		c.Assert(first.recorded(), qt.DeepEquals, []string{"GET /api/products"})
		c.Assert(second.recorded(), qt.DeepEquals, []string{"GET /api/products/1", "POST /api/products"})
	})

	c.Run("flag before the subcommand", func(c *qt.C) {
		f, url := seeded(c)

		res := run("", "--api-url", url, "get", "2")

		c.Assert(res.err, qt.IsNil)
		c.Assert(res.stdout, qt.Contains, "#2 Lamp")
		c.Assert(f.recorded(), qt.DeepEquals, []string{"GET /api/products/2"})
	})

	c.Run("invalid timeout on another subcommand", func(c *qt.C) {
		f, url := seeded(c)

		res := run("", "delete", "1", "--yes", "--api-url", url, "--timeout", "0s")

		c.Assert(res.err, qt.ErrorMatches, `invalid timeout "0s"`)
		c.Assert(f.recorded(), qt.HasLen, 0)
	})

	c.Run("debug logs successful calls", func(c *qt.C) {
		_, url := seeded(c)

		res := run("", "get", "1", "--api-url", url, "--debug")

		c.Assert(res.err, qt.IsNil)
		c.Assert(res.stderr, qt.Contains, "Product API call succeeded")
	})

	c.Run("no debug logs by default", func(c *qt.C) {
		_, url := seeded(c)

		res := run("", "get", "1", "--api-url", url)

		c.Assert(res.err, qt.IsNil)
		c.Assert(res.stderr, qt.Not(qt.Contains), "Product API call succeeded")
	})
}
