package sdk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// State is the lifecycle phase of a Session.
type State int

const (
	// StateUnauthenticated: no token.
	StateUnauthenticated State = iota
	// StateAuthenticating: login or register in flight.
	StateAuthenticating
	// StateAuthenticated: token and identity present.
	StateAuthenticated
	// StateRecovering: token present, identity not resolved yet.
	StateRecovering
	// StateForcedLogout: cleared after a 401 until the next login.
	StateForcedLogout
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateRecovering:
		return "recovering"
	case StateForcedLogout:
		return "forced_logout"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Transition is reported to a SessionObserver on every state change.
type Transition struct {
	From   State
	To     State
	Reason string
	At     time.Time
}

// SessionObserver receives transitions. It is called without the session
// lock held and must not block for long.
type SessionObserver func(Transition)

// Navigator moves the user to a named route. The session uses it to send
// the user to the login view after an explicit logout.
type Navigator interface {
	Push(ctx context.Context, routeName string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, routeName string) error

func (f NavigatorFunc) Push(ctx context.Context, routeName string) error {
	return f(ctx, routeName)
}

// Snapshot is a consistent copy of the session fields.
type Snapshot struct {
	Token       string
	User        *Identity
	Initialized bool
	Loading     bool
	Error       string
	State       State
}

// SessionOptions configures Session construction.
type SessionOptions struct {
	Store      CredentialStore
	StorageKey string
	Navigator  Navigator
	Logger     *log.Logger
	Observer   SessionObserver
}

// SessionOption mutates SessionOptions.
type SessionOption func(*SessionOptions)

// WithCredentialStore sets the Durable Record backend.
func WithCredentialStore(store CredentialStore) SessionOption {
	return func(opts *SessionOptions) {
		opts.Store = store
	}
}

// WithStorageKey overrides DefaultStorageKey.
func WithStorageKey(key string) SessionOption {
	return func(opts *SessionOptions) {
		opts.StorageKey = key
	}
}

// WithNavigator sets the navigator used after an explicit logout.
func WithNavigator(nav Navigator) SessionOption {
	return func(opts *SessionOptions) {
		opts.Navigator = nav
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *log.Logger) SessionOption {
	return func(opts *SessionOptions) {
		opts.Logger = logger
	}
}

// WithSessionObserver registers a transition observer.
func WithSessionObserver(observer SessionObserver) SessionOption {
	return func(opts *SessionOptions) {
		opts.Observer = observer
	}
}

// Session is the authentication state of one running client. It is created
// once at startup and shared by the route guard and the commands.
type Session struct {
	transport  *Transport
	store      CredentialStore
	storageKey string
	navigator  Navigator
	logger     *log.Logger
	observer   SessionObserver

	initGroup singleflight.Group

	// persistMu orders Durable Record writes the same way the in-memory
	// generations advance. Lock order is persistMu, then mu.
	persistMu sync.Mutex

	mu          sync.Mutex
	token       string
	user        *Identity
	initialized bool
	loading     bool
	errMsg      string
	state       State
	generation  uint64
}

// NewSession builds a Session seeded from the Durable Record. The identity
// is not fetched until Init.
func NewSession(ctx context.Context, transport *Transport, optFns ...SessionOption) (*Session, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	opts := SessionOptions{StorageKey: DefaultStorageKey}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}

	token, _, err := opts.Store.Load(ctx, opts.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored token: %w", err)
	}

	s := &Session{
		transport:  transport,
		store:      opts.Store,
		storageKey: opts.StorageKey,
		navigator:  opts.Navigator,
		logger:     opts.Logger,
		observer:   opts.Observer,
		token:      token,
		state:      StateUnauthenticated,
	}
	if token != "" {
		s.state = StateRecovering
	}
	return s, nil
}

// Init runs once per Session. A seeded token is validated by fetching the
// identity; if that fails the session is cleared silently. The 401 handler
// is registered whether or not a token exists. Concurrent callers wait on
// the same in-flight initialisation. The only error returned is ctx's, when
// the caller stops waiting.
func (s *Session) Init(ctx context.Context) error {
	if s.Initialized() {
		return nil
	}

	// The shared work must outlive any single caller.
	work := context.WithoutCancel(ctx)
	ch := s.initGroup.DoChan("init", func() (any, error) {
		s.initialize(work)
		return nil, nil
	})

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) initialize(ctx context.Context) {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return
	}
	token, generation := s.token, s.generation
	from := s.state
	if token != "" {
		s.transport.SetCredential(token)
		if !s.loading {
			s.state = StateRecovering
		}
	}
	to := s.state
	s.mu.Unlock()

	if token != "" {
		s.notify(from, to, "init")
		_, err := s.FetchIdentity(ctx)
		if err != nil && !errors.Is(err, ErrSessionChanged) {
			// skipped when a login landed meanwhile
			cleared, clearErr := s.clearWhen(ctx, StateUnauthenticated, "init: identity fetch failed", func() bool {
				return s.generation == generation
			})
			if cleared {
				s.logger.Printf("WARNING: stored token rejected, clearing session: %v", err)
			}
			if clearErr != nil {
				s.logger.Printf("ERROR: %v", clearErr)
			}
		}
	}

	s.transport.SetUnauthorizedHandler(s.handleUnauthorized)

	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
}

// Login exchanges credentials for a token, persists it and fetches the
// identity. On failure Error holds a readable message and the original
// error is returned.
func (s *Session) Login(ctx context.Context, in LoginInput) error {
	s.begin("login")
	err := s.login(ctx, in)
	s.finish(err, "login")
	return err
}

// Register creates the account and then logs in with the same credentials.
func (s *Session) Register(ctx context.Context, in RegisterInput) error {
	s.begin("register")
	err := s.register(ctx, in)
	s.finish(err, "register")
	return err
}

func (s *Session) register(ctx context.Context, in RegisterInput) error {
	if err := in.Validate(); err != nil {
		return &ValidationError{Err: err}
	}
	if err := registerUser(ctx, s.transport, in); err != nil {
		return err
	}
	return s.login(ctx, LoginInput{Username: in.Username, Password: in.Password})
}

func (s *Session) login(ctx context.Context, in LoginInput) error {
	if err := in.Validate(); err != nil {
		return &ValidationError{Err: err}
	}

	token, err := requestToken(ctx, s.transport, in)
	if err != nil {
		return err
	}

	s.persistMu.Lock()
	s.mu.Lock()
	s.token = token
	s.user = nil
	s.generation++
	s.transport.SetCredential(token)
	s.mu.Unlock()
	err = s.store.Save(ctx, s.storageKey, token)
	s.persistMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}

	_, err = s.FetchIdentity(ctx)
	return err
}

// Logout clears the session. Unless silent, the remote token is revoked
// first (failures are logged and ignored) and the navigator is sent to the
// login route. Local state is always cleared; the returned error only
// reports a Durable Record that could not be removed.
func (s *Session) Logout(ctx context.Context, silent bool) error {
	if !silent && s.Token() != "" {
		if err := revokeToken(ctx, s.transport); err != nil {
			s.logger.Printf("WARNING: remote logout failed, continuing: %v", err)
		}
	}

	err := s.clear(ctx, StateUnauthenticated, "logout")

	if !silent && s.navigator != nil {
		if navErr := s.navigator.Push(ctx, RouteLogin); navErr != nil {
			s.logger.Printf("WARNING: navigation after logout failed: %v", navErr)
		}
	}
	return err
}

// FetchIdentity loads the identity for the current token. It returns
// nil, nil when no token is set.
func (s *Session) FetchIdentity(ctx context.Context) (*Identity, error) {
	s.mu.Lock()
	token, generation := s.token, s.generation
	s.mu.Unlock()
	if token == "" {
		return nil, nil
	}

	identity, err := fetchMe(ctx, s.transport)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.generation != generation {
		s.mu.Unlock()
		return nil, ErrSessionChanged
	}
	s.user = identity
	from := s.state
	if !s.loading {
		s.state = StateAuthenticated
	}
	to := s.state
	s.mu.Unlock()

	s.notify(from, to, "identity")
	return identity, nil
}

func (s *Session) handleUnauthorized(ctx context.Context, ev UnauthorizedEvent) {
	cleared, err := s.clearWhen(ctx, StateForcedLogout, "unauthorized", func() bool {
		// the session credential only changes under mu, so the revision
		// cannot move between this check and the clear
		_, current := s.transport.Credential()
		return current == ev.CredentialRevision && s.token != ""
	})
	if !cleared {
		// credential already replaced; this response belongs to an older session
		return
	}
	s.logger.Printf("WARNING: %s %s returned 401 (request %s), logged out", ev.Method, ev.Path, ev.RequestID)
	if err != nil {
		s.logger.Printf("ERROR: forced logout could not remove stored token: %v", err)
	}
}

// clear drops token and identity everywhere. Every step is idempotent.
func (s *Session) clear(ctx context.Context, next State, reason string) error {
	_, err := s.clearWhen(ctx, next, reason, nil)
	return err
}

// clearWhen clears the session if cond, evaluated with mu held, reports
// true. A nil cond always clears.
func (s *Session) clearWhen(ctx context.Context, next State, reason string, cond func() bool) (bool, error) {
	s.persistMu.Lock()
	s.mu.Lock()
	if cond != nil && !cond() {
		s.mu.Unlock()
		s.persistMu.Unlock()
		return false, nil
	}
	s.token = ""
	s.user = nil
	s.generation++
	from := s.state
	s.state = next
	s.transport.SetCredential("")
	s.mu.Unlock()

	err := s.store.Delete(ctx, s.storageKey)
	s.persistMu.Unlock()

	s.notify(from, next, reason)
	if err != nil {
		return true, fmt.Errorf("failed to remove stored token: %w", err)
	}
	return true, nil
}

func (s *Session) begin(reason string) {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	from := s.state
	s.state = StateAuthenticating
	s.mu.Unlock()

	s.notify(from, StateAuthenticating, reason)
}

func (s *Session) finish(err error, reason string) {
	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.errMsg = ErrorMessage(err)
	}
	from := s.state
	s.state = s.settledLocked()
	to := s.state
	s.mu.Unlock()

	if err != nil {
		reason += " failed"
	}
	s.notify(from, to, reason)
}

func (s *Session) settledLocked() State {
	switch {
	case s.token == "" && s.state == StateForcedLogout:
		return StateForcedLogout
	case s.token == "":
		return StateUnauthenticated
	case s.user != nil:
		return StateAuthenticated
	default:
		return StateRecovering
	}
}

func (s *Session) notify(from, to State, reason string) {
	if s.observer == nil || from == to {
		return
	}
	s.observer(Transition{From: from, To: to, Reason: reason, At: time.Now()})
}

// Snapshot returns a copy of every session field.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Token:       s.token,
		User:        s.user,
		Initialized: s.initialized,
		Loading:     s.loading,
		Error:       s.errMsg,
		State:       s.state,
	}
}

// Token returns the current token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns the current identity. The value is replaced, never mutated,
// so callers may keep the pointer.
func (s *Session) User() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Initialized reports whether Init has completed.
func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Loading reports whether a login or register is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Error returns the message of the last failed login or register.
func (s *Session) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsAdmin reports whether the identity carries the staff flag.
func (s *Session) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && s.user.IsStaff
}

// BrokerID returns the broker linked to the identity, if any.
func (s *Session) BrokerID() *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	return s.user.BrokerID
}
