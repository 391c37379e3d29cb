package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/credstore"
	"github.com/tradedesk/tradedesk/pkg/sdk"
)

// Options configures a Provider.
type Options struct {
	ServerURL   string
	HTTPTimeout time.Duration
	StorageKey  string
	Store       credstore.Options

	// HTTPClient overrides the client the Transport wraps (tests).
	HTTPClient *http.Client
	Logger     *log.Logger
	Observer   sdk.SessionObserver
	// OnNavigate is called for every settled guard navigation.
	OnNavigate func(sdk.Navigation)
}

// Provider lazily builds the transport, session, guard and SDK client for
// one tradectl invocation. Each is created at most once.
type Provider struct {
	opts  Options
	token string // ephemeral token that bypasses the credential store (for testing/CI)

	storeOnce sync.Once
	store     credstore.Store
	storeErr  error

	transportOnce sync.Once
	transport     *sdk.Transport
	transportErr  error

	sessionOnce sync.Once
	session     *sdk.Session
	guard       *sdk.Guard
	sessionErr  error

	sdkOnce   sync.Once
	sdkClient *sdk.Client
	sdkErr    error
}

// NewProvider constructs a Provider. Nothing is opened until first use.
func NewProvider(opts Options) *Provider {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.StorageKey == "" {
		opts.StorageKey = sdk.DefaultStorageKey
	}
	return &Provider{opts: opts}
}

// SetToken injects an ephemeral token. The session then runs on an
// in-memory store seeded with it and nothing is persisted.
func (p *Provider) SetToken(token string) {
	p.token = token
}

// ServerURL returns the configured API base URL.
func (p *Provider) ServerURL() string {
	return p.opts.ServerURL
}

// Store returns the Durable Record backend.
func (p *Provider) Store(ctx context.Context) (credstore.Store, error) {
	p.storeOnce.Do(func() {
		if p.token != "" {
			mem := sdk.NewMemoryStore()
			p.storeErr = mem.Save(ctx, p.opts.StorageKey, p.token)
			p.store = nopStore{mem}
			return
		}

		ctx, cancel := ensureTimeout(ctx, 5*time.Second)
		defer cancel()

		store, err := credstore.Open(ctx, p.opts.Store)
		if err != nil {
			p.storeErr = fmt.Errorf("failed to open credential store: %w", err)
			return
		}
		p.store = store
	})
	if p.storeErr != nil {
		return nil, p.storeErr
	}
	return p.store, nil
}

// Transport returns the shared Transport.
func (p *Provider) Transport() (*sdk.Transport, error) {
	p.transportOnce.Do(func() {
		httpClient := p.opts.HTTPClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: p.opts.HTTPTimeout}
		}
		p.transport, p.transportErr = sdk.NewTransport(p.opts.ServerURL,
			sdk.WithHTTPClient(httpClient),
			sdk.WithTransportLogger(p.opts.Logger),
		)
	})
	if p.transportErr != nil {
		return nil, p.transportErr
	}
	return p.transport, nil
}

// Session returns the session, seeded from the Durable Record. It is not
// initialised; the guard does that on the first navigation.
func (p *Provider) Session(ctx context.Context) (*sdk.Session, error) {
	p.sessionOnce.Do(func() {
		store, err := p.Store(ctx)
		if err != nil {
			p.sessionErr = err
			return
		}
		transport, err := p.Transport()
		if err != nil {
			p.sessionErr = err
			return
		}
		router, err := sdk.NewRouter(sdk.DefaultRoutes())
		if err != nil {
			p.sessionErr = err
			return
		}

		// the guard needs the session and the session navigates through the guard
		navigator := sdk.NavigatorFunc(func(ctx context.Context, routeName string) error {
			return p.guard.Push(ctx, routeName)
		})
		session, err := sdk.NewSession(ctx, transport,
			sdk.WithCredentialStore(store),
			sdk.WithStorageKey(p.opts.StorageKey),
			sdk.WithNavigator(navigator),
			sdk.WithLogger(p.opts.Logger),
			sdk.WithSessionObserver(p.opts.Observer),
		)
		if err != nil {
			p.sessionErr = err
			return
		}

		guard := sdk.NewGuard(session, router)
		if p.opts.OnNavigate != nil {
			guard.OnNavigate(p.opts.OnNavigate)
		}
		p.session = session
		p.guard = guard
	})
	if p.sessionErr != nil {
		return nil, p.sessionErr
	}
	return p.session, nil
}

// Guard returns the route guard bound to the session.
func (p *Provider) Guard(ctx context.Context) (*sdk.Guard, error) {
	if _, err := p.Session(ctx); err != nil {
		return nil, err
	}
	return p.guard, nil
}

// SDKClient returns the resource client sharing the session's transport.
func (p *Provider) SDKClient(ctx context.Context) (*sdk.Client, error) {
	p.sdkOnce.Do(func() {
		// make sure the 401 handler exists before any resource call
		session, err := p.Session(ctx)
		if err != nil {
			p.sdkErr = err
			return
		}
		if err := session.Init(ctx); err != nil {
			p.sdkErr = err
			return
		}
		p.sdkClient = sdk.NewClient(p.transport)
	})
	if p.sdkErr != nil {
		return nil, p.sdkErr
	}
	return p.sdkClient, nil
}

// Close stops the transport dispatcher and releases the store.
func (p *Provider) Close() error {
	var errs []error
	if p.transport != nil {
		p.transport.Close()
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close credential store: %w", err))
		}
	}
	return errors.Join(errs...)
}

type nopStore struct {
	sdk.CredentialStore
}

func (nopStore) Close() error { return nil }

func ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}

	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	return ctxWithTimeout, cancel
}
