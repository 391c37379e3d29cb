package sdk_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tradedesk/tradedesk/pkg/sdk"
)

const testBaseURL = "http://backend.test/"

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// newTestTransport routes every request straight into handler.
func newTestTransport(t *testing.T, handler http.Handler) *sdk.Transport {
	t.Helper()
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		resp := recorder.Result()
		resp.Request = req
		return resp, nil
	})
	transport, err := sdk.NewTransport(testBaseURL, sdk.WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)
	t.Cleanup(transport.Close)
	return transport
}

type fakeUser struct {
	password string
	identity sdk.Identity
}

// fakeBackend mimics the token-auth endpoints of the back-office API.
type fakeBackend struct {
	mu        sync.Mutex
	nextID    int64
	issued    int
	users     map[string]*fakeUser
	tokens    map[string]string
	calls     map[string]int
	overrides map[string]http.HandlerFunc
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		users:     make(map[string]*fakeUser),
		tokens:    make(map[string]string),
		calls:     make(map[string]int),
		overrides: make(map[string]http.HandlerFunc),
	}
}

func (b *fakeBackend) addUser(username, password string, staff bool, brokerID *int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.users[username] = &fakeUser{
		password: password,
		identity: sdk.Identity{ID: b.nextID, Username: username, IsStaff: staff, BrokerID: brokerID},
	}
}

// issueToken creates a valid token without going through login.
func (b *fakeBackend) issueToken(username string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.issued++
	token := fmt.Sprintf("tok-%s-%d", username, b.issued)
	b.tokens[token] = username
	return token
}

func (b *fakeBackend) revokeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = make(map[string]string)
}

func (b *fakeBackend) override(key string, fn http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overrides[key] = fn
}

func (b *fakeBackend) count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[key]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *fakeBackend) authenticated(r *http.Request) (*fakeUser, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Token ")
	if !ok {
		return nil, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	username, ok := b.tokens[token]
	if !ok {
		return nil, false
	}
	return b.users[username], true
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	b.mu.Lock()
	b.calls[key]++
	override := b.overrides[key]
	b.mu.Unlock()

	if override != nil {
		override(w, r)
		return
	}

	switch key {
	case "POST /auth/token/login":
		var in sdk.LoginInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		b.mu.Lock()
		user, ok := b.users[in.Username]
		b.mu.Unlock()
		if !ok || user.password != in.Password {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"non_field_errors": []string{"Unable to log in with provided credentials."},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"auth_token": b.issueToken(in.Username)})

	case "POST /auth/users/":
		var in sdk.RegisterInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		b.mu.Lock()
		_, exists := b.users[in.Username]
		b.mu.Unlock()
		if exists {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"username": []string{"A user with that username already exists."},
			})
			return
		}
		b.addUser(in.Username, in.Password, false, nil)
		writeJSON(w, http.StatusCreated, map[string]any{"username": in.Username, "email": in.Email})

	case "POST /auth/token/logout":
		if _, ok := b.authenticated(r); !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token."})
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Token ")
		b.mu.Lock()
		delete(b.tokens, token)
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)

	case "GET /auth/users/me/":
		user, ok := b.authenticated(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token."})
			return
		}
		writeJSON(w, http.StatusOK, user.identity)

	default:
		if _, ok := b.authenticated(r); !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}
		writeJSON(w, http.StatusOK, []any{})
	}
}

// recordingNavigator remembers every pushed route.
type recordingNavigator struct {
	mu     sync.Mutex
	pushed []string
}

func (n *recordingNavigator) Push(_ context.Context, routeName string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushed = append(n.pushed, routeName)
	return nil
}

func (n *recordingNavigator) Pushed() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.pushed...)
}

func int64Ptr(v int64) *int64 {
	return &v
}
