package nav

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/client"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/config"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/credstore"
	"github.com/tradedesk/tradedesk/pkg/sdk"
)

func TestAccess(t *testing.T) {
	assert.Equal(t, "admin", access(sdk.Route{RequiresAuth: true, RequiresAdmin: true}))
	assert.Equal(t, "authenticated", access(sdk.Route{RequiresAuth: true}))
	assert.Equal(t, "public", access(sdk.Route{Public: true}))
	assert.Equal(t, "any", access(sdk.Route{}))
}

func TestRoutes(t *testing.T) {
	var out bytes.Buffer
	routesCmd.SetOut(&out)
	t.Cleanup(func() { routesCmd.SetOut(nil) })

	require.NoError(t, routesCmd.RunE(routesCmd, nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 17)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, out.String(), "/catalog/products")
}

func TestOpen_AnonymousGoesToLogin(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	provider := client.NewProvider(client.Options{
		ServerURL:   srv.URL,
		HTTPTimeout: 5 * time.Second,
		Store:       credstore.Options{Backend: credstore.BackendFile, DSN: filepath.Join(t.TempDir(), "credentials.json")},
	})
	t.Cleanup(func() { _ = provider.Close() })
	ctx := config.InjectConfig(context.Background(), &config.GlobalConfig{
		Config:         &config.Config{APIBaseURL: srv.URL},
		ClientProvider: provider,
	})

	var out bytes.Buffer
	openCmd.SetOut(&out)
	openCmd.SetErr(io.Discard)
	openCmd.SetContext(ctx)
	t.Cleanup(func() { openCmd.SetOut(nil) })

	require.NoError(t, openCmd.RunE(openCmd, []string{"/reports/latest-trades"}))
	assert.Contains(t, out.String(), "report-latest-trades  login")
	assert.Contains(t, out.String(), "authentication required")
}
