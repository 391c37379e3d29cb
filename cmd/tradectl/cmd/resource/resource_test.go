package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/client"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/config"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/credstore"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/routing"
	"github.com/tradedesk/tradedesk/pkg/sdk"
)

type capturedRequest struct {
	method string
	path   string
	body   map[string]any
}

// newBackend answers the identity lookup and the products collection.
func newBackend(t *testing.T) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		req := capturedRequest{method: r.Method, path: r.URL.Path}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, &req.body))
		}
		if r.URL.Path != "/auth/users/me/" {
			captured = append(captured, req)
		}

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/auth/users/me/":
			_, _ = w.Write([]byte(`{"id":1,"username":"admin","is_staff":true}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/products/":
			_, _ = w.Write([]byte(`[{"id":1,"code":"P-1","name":"Bolt","manufacturer":2,"unit":"piece","shelf_life_days":365},{"id":2,"code":"P-2","name":"Nut","manufacturer":3,"unit":"kg","shelf_life_days":30}]`))
		case r.Method == http.MethodPost:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"non_field_errors":["Code already in use."]}`))
		case r.Method == http.MethodPut:
			_, _ = w.Write([]byte(`{"id":2,"code":"P-2","name":"Nut M8","manufacturer":3,"unit":"kg","shelf_life_days":30}`))
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func testContext(t *testing.T, serverURL string) context.Context {
	t.Helper()
	provider := client.NewProvider(client.Options{ServerURL: serverURL, HTTPTimeout: 5 * time.Second})
	provider.SetToken("tok")
	t.Cleanup(func() { _ = provider.Close() })

	return config.InjectConfig(context.Background(), &config.GlobalConfig{
		Config:         &config.Config{APIBaseURL: serverURL, NonInteractive: true},
		ClientProvider: provider,
	})
}

func productsCommand() view[sdk.Product] {
	return view[sdk.Product]{
		use:     "products",
		route:   "products",
		columns: []string{"id", "code", "name"},
		row: func(p sdk.Product) []string {
			return []string{id(p.ID), p.Code, p.Name}
		},
		resource: func(c *sdk.Client) sdk.Resource[sdk.Product] { return c.Products },
	}
}

func run(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	cmd := newCommand(productsCommand())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestList_Table(t *testing.T) {
	srv, _ := newBackend(t)

	out, err := run(t, testContext(t, srv.URL), "list")
	require.NoError(t, err)
	assert.Equal(t, "ID  CODE  NAME\n1   P-1   Bolt\n2   P-2   Nut\n", out)
}

func TestList_UnauthorizedClearsStoredToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the stored token still resolves the identity but is refused for data
		if r.URL.Path == "/auth/users/me/" && r.Header.Get("Authorization") == "Token stale" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":1,"username":"admin","is_staff":true}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "credentials.json")
	records, err := credstore.NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, records.Save(context.Background(), sdk.DefaultStorageKey, "stale"))

	provider := client.NewProvider(client.Options{
		ServerURL:   srv.URL,
		HTTPTimeout: 5 * time.Second,
		Store:       credstore.Options{Backend: credstore.BackendFile, DSN: path},
	})
	ctx := config.InjectConfig(context.Background(), &config.GlobalConfig{
		Config:         &config.Config{APIBaseURL: srv.URL, NonInteractive: true},
		ClientProvider: provider,
	})

	_, err = run(t, ctx, "list")
	require.Error(t, err)

	// the command returns before the 401 is handled; closing must not drop it
	require.NoError(t, provider.Close())
	_, ok, err := records.Load(context.Background(), sdk.DefaultStorageKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestList_JSONWithFilter(t *testing.T) {
	srv, _ := newBackend(t)

	out, err := run(t, testContext(t, srv.URL), "list", "--output", "json", "--filter", `unit == "kg"`)
	require.NoError(t, err)

	var products []sdk.Product
	require.NoError(t, json.Unmarshal([]byte(out), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Nut", products[0].Name)
}

func TestList_Where(t *testing.T) {
	srv, _ := newBackend(t)

	out, err := run(t, testContext(t, srv.URL), "list", "-w", "manufacturer=2")
	require.NoError(t, err)
	assert.Contains(t, out, "Bolt")
	assert.NotContains(t, out, "Nut")

	_, err = run(t, testContext(t, srv.URL), "list", "-w", "=2")
	assert.Error(t, err)
}

func TestList_RejectsUnknownFormat(t *testing.T) {
	srv, captured := newBackend(t)

	_, err := run(t, testContext(t, srv.URL), "list", "-o", "yaml")
	require.Error(t, err)
	assert.Empty(t, *captured)
}

func TestCreate_SurfacesServerMessage(t *testing.T) {
	srv, captured := newBackend(t)

	_, err := run(t, testContext(t, srv.URL), "create", "--data", `{"code":"P-1","name":"Bolt"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Code already in use.")

	require.Len(t, *captured, 1)
	assert.Equal(t, "Bolt", (*captured)[0].body["name"])
}

func TestUpdate_FromFile(t *testing.T) {
	srv, captured := newBackend(t)
	path := filepath.Join(t.TempDir(), "product.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"Nut M8"}`), 0o600))

	out, err := run(t, testContext(t, srv.URL), "update", "2", "--data", "@"+path)
	require.NoError(t, err)
	assert.Contains(t, out, "Nut M8")

	require.Len(t, *captured, 1)
	assert.Equal(t, http.MethodPut, (*captured)[0].method)
	assert.Equal(t, "/api/products/2/", (*captured)[0].path)
}

func TestDelete_RequiresConfirmationWhenNonInteractive(t *testing.T) {
	srv, captured := newBackend(t)
	ctx := testContext(t, srv.URL)

	_, err := run(t, ctx, "delete", "2")
	require.Error(t, err)
	assert.Empty(t, *captured)

	_, err = run(t, ctx, "delete", "2", "--yes")
	require.NoError(t, err)
	require.Len(t, *captured, 1)
	assert.Equal(t, capturedRequest{method: http.MethodDelete, path: "/api/products/2/"}, (*captured)[0])
}

func TestGet_InvalidID(t *testing.T) {
	srv, captured := newBackend(t)

	for _, arg := range []string{"abc", "0", "-4"} {
		_, err := run(t, testContext(t, srv.URL), "get", "--", arg)
		assert.Error(t, err, arg)
	}
	assert.Empty(t, *captured)
}

func TestReadPayload(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		data    string
		want    string
		wantErr bool
	}{
		{name: "inline", data: `{"a":1}`, want: `{"a":1}`},
		{name: "stdin", stdin: " {\"b\":2}\n", data: "-", want: `{"b":2}`},
		{name: "missing", data: "", wantErr: true},
		{name: "not json", data: "{oops", wantErr: true},
		{name: "array", data: `[1,2]`, wantErr: true},
		{name: "missing file", data: "@/does/not/exist.json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readPayload(strings.NewReader(tt.stdin), tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestCommandTrees(t *testing.T) {
	groups := map[string][]string{
		"manufacturers":    {"manufacturers"},
		"products":         {"products"},
		"broker-companies": {"broker-companies"},
		"brokers":          {"brokers"},
		"batches":          {"batches"},
		"batch-items":      {"batch-items"},
	}

	router, err := sdk.NewRouter(sdk.DefaultRoutes())
	require.NoError(t, err)

	for _, parent := range append(CatalogCmd.Commands(), TradingCmd.Commands()...) {
		_, known := groups[parent.Name()]
		require.True(t, known, parent.Name())

		names := make([]string, 0, 5)
		for _, sub := range parent.Commands() {
			names = append(names, sub.Name())
			route := sub.Annotations[routing.Annotation]
			assert.Equal(t, parent.Name(), route)
			_, ok := router.Lookup(route)
			assert.True(t, ok, route)
		}
		assert.ElementsMatch(t, []string{"list", "get", "create", "update", "delete"}, names)
	}
	assert.Len(t, CatalogCmd.Commands(), 4)
	assert.Len(t, TradingCmd.Commands(), 2)
}
