// Package session is the single authority for "who is logged in" and the
// side effects that must stay synchronized with that fact: token
// persistence, cache invalidation and push registration.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sokoni-app/sokoni_mobile/internal/backend"
	"github.com/sokoni-app/sokoni_mobile/internal/cache"
	"github.com/sokoni-app/sokoni_mobile/internal/push"
	"github.com/sokoni-app/sokoni_mobile/internal/securestore"
)

// TokenKey is the fixed secure-store key holding the bearer token.
const TokenKey = "sokoni.auth.token"

// ErrOperationInFlight reports that a login-class operation was started
// while another was still running. Callers should wait, not retry blindly.
var ErrOperationInFlight = errors.New("session: operation already in flight")

// Snapshot is an immutable view of the session handed to observers.
type Snapshot struct {
	Token       string
	User        *backend.UserRecord
	PushToken   string
	Loading     bool
	Initialized bool
}

// Authenticated reports whether a valid login is active.
func (s Snapshot) Authenticated() bool { return s.Token != "" }

// Store holds the process-wide session. All mutation happens through the
// five session operations; reads go through Snapshot.
type Store struct {
	mu          sync.Mutex
	token       string
	user        *backend.UserRecord
	pushToken   string
	loading     bool
	initialized bool
	initStarted bool

	api     backend.API
	secrets securestore.Store
	queries cache.Invalidator
	pusher  push.Registrar
	logger  *slog.Logger

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewStore wires a session store to its collaborators.
func NewStore(api backend.API, secrets securestore.Store, queries cache.Invalidator, pusher push.Registrar, logger *slog.Logger) *Store {
	return &Store{
		api:     api,
		secrets: secrets,
		queries: queries,
		pusher:  pusher,
		logger:  logger,
		subs:    make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the current session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Token returns the current bearer credential, empty when unauthenticated.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Subscribe registers an observer called after every committed mutation.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Initialize hydrates the session from the secure store, exactly once per
// process. A stored token that the backend no longer accepts is deleted
// silently; token expiry at startup is normal, not an error. On every exit
// path the store ends initialized.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.initStarted {
		s.mu.Unlock()
		return
	}
	s.initStarted = true
	s.mu.Unlock()

	defer s.finishInit()

	token, err := s.secrets.GetItem(ctx, TokenKey)
	if err != nil {
		if !errors.Is(err, securestore.ErrNotFound) {
			s.logger.Warn("read stored token", "error", err)
		}
		return
	}
	if token == "" {
		return
	}

	s.commit(func() { s.token = token })

	user, err := s.api.GetProfile(ctx, token)
	if err != nil {
		s.logger.Info("stored token no longer valid", "error", err)
		if derr := s.secrets.DeleteItem(ctx, TokenKey); derr != nil {
			s.logger.Warn("delete stored token", "error", derr)
		}
		s.commit(func() { s.token = "" })
		return
	}

	s.commit(func() { s.user = &user })
	s.registerPush(ctx)
}

// Login exchanges credentials for a session.
func (s *Store) Login(ctx context.Context, email, password string) error {
	return s.authenticate(ctx, func() (backend.AuthResult, error) {
		return s.api.Login(ctx, email, password)
	})
}

// Register creates an account and opens its first session.
func (s *Store) Register(ctx context.Context, email, password, displayName string) error {
	return s.authenticate(ctx, func() (backend.AuthResult, error) {
		return s.api.Register(ctx, email, password, displayName)
	})
}

// GoogleAuth opens a session from a federated identity token.
func (s *Store) GoogleAuth(ctx context.Context, idToken string) error {
	return s.authenticate(ctx, func() (backend.AuthResult, error) {
		return s.api.GoogleAuth(ctx, idToken)
	})
}

// authenticate runs the shared post-success sequence. The order is fixed:
// persist token, set in-memory state, clear the query cache, then register
// push. The cache must never be cleared before the new token is in place,
// and push registration runs last because it is the least critical step.
func (s *Store) authenticate(ctx context.Context, call func() (backend.AuthResult, error)) error {
	if err := s.beginOp(); err != nil {
		return err
	}
	defer s.endOp()

	result, err := call()
	if err != nil {
		return err
	}

	if err := s.secrets.SetItem(ctx, TokenKey, result.Token); err != nil {
		return fmt.Errorf("session: persist token: %w", err)
	}

	s.commit(func() {
		user := result.User
		s.token = result.Token
		s.user = &user
	})

	if err := s.queries.ClearAll(ctx); err != nil {
		return fmt.Errorf("session: clear query cache: %w", err)
	}

	s.registerPush(ctx)
	return nil
}

// Logout tears the session down. It never fails from the caller's point of
// view: every step is best-effort except nulling the in-memory state, which
// cannot fail.
func (s *Store) Logout(ctx context.Context) {
	if err := s.beginOp(); err != nil {
		s.logger.Warn("logout skipped", "error", err)
		return
	}
	defer s.endOp()

	s.mu.Lock()
	pushToken := s.pushToken
	s.mu.Unlock()

	if pushToken != "" {
		if err := s.pusher.Unregister(ctx, pushToken); err != nil {
			s.logger.Warn("push unregistration failed", "error", err)
		}
	}

	if err := s.secrets.DeleteItem(ctx, TokenKey); err != nil {
		s.logger.Warn("delete stored token", "error", err)
	}

	if err := s.queries.ClearAll(ctx); err != nil {
		s.logger.Warn("clear query cache", "error", err)
	}

	s.commit(func() {
		s.token = ""
		s.user = nil
		s.pushToken = ""
	})
}

// RefreshUser re-fetches the profile and overwrites the local mirror.
// Failures are swallowed: the call is opportunistic and must never
// interrupt the flow that triggered it. The refreshed record is dropped if
// the session changed while the fetch was in flight.
func (s *Store) RefreshUser(ctx context.Context) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return
	}

	user, err := s.api.GetProfile(ctx, token)
	if err != nil {
		s.logger.Debug("refresh user failed", "error", err)
		return
	}

	s.commit(func() {
		if s.token == token {
			s.user = &user
		}
	})
}

// registerPush binds a push token to the active session. Best-effort: a
// denied permission must not block app usage.
func (s *Store) registerPush(ctx context.Context) {
	token, err := s.pusher.Register(ctx)
	if err != nil {
		s.logger.Warn("push registration failed", "error", err)
		return
	}
	if token == "" {
		return
	}
	s.commit(func() {
		if s.token != "" {
			s.pushToken = token
		}
	})
}

func (s *Store) beginOp() error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return ErrOperationInFlight
	}
	s.loading = true
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

func (s *Store) endOp() {
	s.commit(func() { s.loading = false })
}

func (s *Store) finishInit() {
	s.commit(func() { s.initialized = true })
}

// commit applies a mutation under the lock and notifies observers outside
// it.
func (s *Store) commit(mutate func()) {
	s.mu.Lock()
	mutate()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Token:       s.token,
		PushToken:   s.pushToken,
		Loading:     s.loading,
		Initialized: s.initialized,
	}
	if s.user != nil {
		user := *s.user
		snap.User = &user
	}
	return snap
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
