package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	// AuthScheme is the token type written in the Authorization header.
	AuthScheme = "Token"

	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-ID"

	maxResponseBytes = 10 << 20
)

// UnauthorizedEvent describes a 401 response observed by the Transport.
type UnauthorizedEvent struct {
	Seq                uint64
	RequestID          string
	Method             string
	Path               string
	CredentialRevision uint64
	At                 time.Time
}

// UnauthorizedHandler receives 401 notifications. It runs on the Transport's
// dispatcher goroutine, never on the goroutine of the failing call.
type UnauthorizedHandler func(ctx context.Context, ev UnauthorizedEvent)

type unauthorizedDispatch struct {
	ev      UnauthorizedEvent
	handler UnauthorizedHandler
}

type credentialKey struct{}

type pinnedCredential struct {
	token    string
	revision uint64
}

// Transport is the single HTTP client used for every API call. It owns the
// credential sent with outgoing requests and the unauthorized handler.
type Transport struct {
	baseURL *url.URL
	client  *http.Client
	logger  *log.Logger

	mu         sync.RWMutex
	credential string
	revision   uint64
	handler    UnauthorizedHandler
	closing    bool

	seq       atomic.Uint64
	pending   sync.WaitGroup
	events    chan unauthorizedDispatch
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// TransportOptions configures Transport construction.
type TransportOptions struct {
	HTTPClient  *http.Client
	Logger      *log.Logger
	EventBuffer int
}

// TransportOption mutates TransportOptions.
type TransportOption func(*TransportOptions)

// WithHTTPClient sets the client whose RoundTripper is wrapped.
func WithHTTPClient(client *http.Client) TransportOption {
	return func(opts *TransportOptions) {
		opts.HTTPClient = client
	}
}

// WithTransportLogger sets the logger for dispatcher diagnostics.
func WithTransportLogger(logger *log.Logger) TransportOption {
	return func(opts *TransportOptions) {
		opts.Logger = logger
	}
}

// WithEventBuffer sets the capacity of the unauthorized event channel.
func WithEventBuffer(n int) TransportOption {
	return func(opts *TransportOptions) {
		opts.EventBuffer = n
	}
}

// NewTransport creates a Transport bound to baseURL. The base URL cannot be
// changed afterwards. Call Close to stop the event dispatcher.
func NewTransport(baseURL string, optFns ...TransportOption) (*Transport, error) {
	opts := TransportOptions{EventBuffer: 16}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.EventBuffer < 1 {
		opts.EventBuffer = 1
	}

	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	t := &Transport{
		baseURL: parsed,
		logger:  opts.Logger,
		events:  make(chan unauthorizedDispatch, opts.EventBuffer),
		done:    make(chan struct{}),
	}

	var base http.Client
	if opts.HTTPClient != nil {
		base = *opts.HTTPClient
	}
	next := base.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	base.Transport = &credentialRoundTripper{next: next, owner: t}
	t.client = &base

	t.wg.Add(1)
	go t.dispatch()

	return t, nil
}

// BaseURL returns the configured base URL.
func (t *Transport) BaseURL() string {
	return t.baseURL.String()
}

// HTTPClient returns the underlying client. Requests sent through it carry
// the credential but are not inspected for 401.
func (t *Transport) HTTPClient() *http.Client {
	return t.client
}

// SetCredential replaces the token used for future requests. An empty token
// clears it.
func (t *Transport) SetCredential(token string) {
	t.mu.Lock()
	t.credential = token
	t.revision++
	t.mu.Unlock()
}

// Credential returns the current token and its revision.
func (t *Transport) Credential() (string, uint64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.credential, t.revision
}

// SetUnauthorizedHandler replaces the 401 handler. Nil removes it.
func (t *Transport) SetUnauthorizedHandler(h UnauthorizedHandler) {
	t.mu.Lock()
	t.handler = h
	t.mu.Unlock()
}

// Close delivers every event already queued, then stops the dispatcher.
// A 401 observed after Close starts is not reported.
func (t *Transport) Close() {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closing = true
		t.mu.Unlock()

		t.pending.Wait()
		close(t.done)
	})
	t.wg.Wait()
}

// Do sends a JSON request to path (relative to the base URL) and decodes a
// 2xx body into out when out is non-nil.
func (t *Transport) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := t.resolve(path, query)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	token, revision := t.Credential()
	ctx = context.WithValue(ctx, credentialKey{}, pinnedCredential{token: token, revision: revision})

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := t.client.Do(req)
	if err != nil {
		return &TransportError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Method: method, URL: target, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			Status:    resp.StatusCode,
			Method:    method,
			Path:      path,
			RequestID: requestID,
			Body:      parseErrorBody(raw),
		}
		if resp.StatusCode == http.StatusUnauthorized {
			t.notifyUnauthorized(UnauthorizedEvent{
				RequestID:          requestID,
				Method:             method,
				Path:               path,
				CredentialRevision: revision,
				At:                 time.Now(),
			})
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (t *Transport) resolve(path string, query url.Values) string {
	ref := &url.URL{Path: strings.TrimPrefix(path, "/")}
	if len(query) > 0 {
		ref.RawQuery = query.Encode()
	}
	return t.baseURL.ResolveReference(ref).String()
}

// notifyUnauthorized queues the event for the handler registered right now.
// It never blocks the caller.
func (t *Transport) notifyUnauthorized(ev UnauthorizedEvent) {
	t.mu.RLock()
	handler := t.handler
	if handler == nil || t.closing {
		t.mu.RUnlock()
		return
	}
	// counted under the lock so Close never waits on a stale count
	t.pending.Add(1)
	t.mu.RUnlock()

	ev.Seq = t.seq.Add(1)
	item := unauthorizedDispatch{ev: ev, handler: handler}

	select {
	case t.events <- item:
	default:
		// buffer full; hand off without blocking the failing call
		go func() {
			t.events <- item
		}()
	}
}

func (t *Transport) dispatch() {
	defer t.wg.Done()
	for {
		select {
		case item := <-t.events:
			t.invoke(item)
			t.pending.Done()
		case <-t.done:
			return
		}
	}
}

func (t *Transport) invoke(item unauthorizedDispatch) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Printf("ERROR: unauthorized handler panicked for %s %s: %v", item.ev.Method, item.ev.Path, r)
		}
	}()
	item.handler(context.Background(), item.ev)
}

// credentialRoundTripper attaches the Authorization header. Requests issued
// by Transport.Do carry a pinned credential so the header and the revision
// reported in an UnauthorizedEvent always agree.
type credentialRoundTripper struct {
	next  http.RoundTripper
	owner *Transport
}

func (rt *credentialRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	token := ""
	if pinned, ok := req.Context().Value(credentialKey{}).(pinnedCredential); ok {
		token = pinned.token
	} else {
		token, _ = rt.owner.Credential()
	}
	if token == "" {
		return rt.next.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	(&oauth2.Token{AccessToken: token, TokenType: AuthScheme}).SetAuthHeader(clone)
	return rt.next.RoundTrip(clone)
}
