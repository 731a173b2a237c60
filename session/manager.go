// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nagarniti/nagarniti/lib/clock"
	"github.com/nagarniti/nagarniti/lib/secret"
	"github.com/nagarniti/nagarniti/wardapi"
)

// DefaultRequestTimeout bounds each server call the manager makes.
const DefaultRequestTimeout = 30 * time.Second

var (
	// ErrClosed is returned by operations on a closed Manager.
	ErrClosed = errors.New("session: manager is closed")

	// ErrNotAuthenticated is returned by CheckAuth when neither the
	// refresh cookie nor a cookie session is accepted.
	ErrNotAuthenticated = errors.New("session: not authenticated")

	// ErrSuperseded is returned by a refresh or CheckAuth whose result
	// was discarded because a sign-in or sign-out happened while it ran.
	ErrSuperseded = errors.New("session: superseded by a newer sign-in or sign-out")
)

// API is the part of the REST client the manager drives.
// *wardapi.Client satisfies it.
type API interface {
	Login(ctx context.Context, email string, password *secret.Buffer) (*wardapi.AuthResponse, error)
	Register(ctx context.Context, request wardapi.RegisterRequest) (*wardapi.AuthResponse, error)
	Refresh(ctx context.Context) (*wardapi.RefreshResponse, error)
	Me(ctx context.Context, token *secret.Buffer) (*wardapi.User, error)
	Logout(ctx context.Context, token *secret.Buffer) error
	Do(ctx context.Context, request wardapi.Request) ([]byte, error)
}

// Config configures a Manager.
type Config struct {
	// Client performs the server calls. Required.
	Client API
	// Snapshots persists user and flags. If nil, an empty
	// MemorySnapshots is used and nothing outlives the process.
	Snapshots SnapshotStore
	// Clock drives expiry and the refresh timer. If nil, clock.Real().
	Clock clock.Clock
	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger
	// RequestTimeout bounds each server call. If zero,
	// DefaultRequestTimeout.
	RequestTimeout time.Duration
}

// Manager owns one client session. All methods are safe for concurrent
// use.
type Manager struct {
	client         API
	snapshots      SnapshotStore
	clock          clock.Clock
	logger         *slog.Logger
	requestTimeout time.Duration

	refreshGroup singleflight.Group
	// refreshWaiters counts callers registered with the in-flight guard
	// and still waiting for its result. Nothing in the manager reads it;
	// tests use it to know every caller has joined a flight.
	refreshWaiters atomic.Int32

	// emitMu serializes snapshot writes and subscriber delivery, and is
	// always taken before mu.
	emitMu sync.Mutex

	mu              sync.Mutex
	state           State
	token           tokenHolder
	timer           *clock.Timer
	timerGeneration uint64
	// epoch changes whenever a sign-in installs a session or the
	// session is reset. Results of network calls that started in an
	// older epoch are dropped.
	epoch       uint64
	subscribers     map[int]chan State
	nextSubscriber  int
	closed          bool
}

// NewManager creates a Manager and rehydrates it from the snapshot
// store. The rehydrated session is provisional: IsInitialized is false
// and IsLoading is true until CheckAuth runs.
func NewManager(config Config) (*Manager, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("session: Config.Client is required")
	}

	snapshots := config.Snapshots
	if snapshots == nil {
		snapshots = NewMemorySnapshots(nil)
	}
	managerClock := config.Clock
	if managerClock == nil {
		managerClock = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	m := &Manager{
		client:         config.Client,
		snapshots:      snapshots,
		clock:          managerClock,
		logger:         logger,
		requestTimeout: timeout,
		subscribers:    make(map[int]chan State),
	}
	m.rehydrate()
	return m, nil
}

func (m *Manager) rehydrate() {
	snapshot, found, err := m.snapshots.Load()
	if err != nil {
		m.logger.Warn("session snapshot unreadable, starting empty", "error", err)
		snapshot, found = Snapshot{}, false
	}

	m.state = State{
		Status:        StatusUnauthenticated,
		IsInitialized: false,
		IsLoading:     true,
	}
	if !found {
		return
	}

	m.state.User = cloneUser(snapshot.User)
	m.state.IsAuthenticated = snapshot.IsAuthenticated
	m.state.TokenExpiresAt = snapshot.ExpiresAt()
	if snapshot.IsAuthenticated {
		m.state.Status = StatusAuthenticated
	}

	attributes := []any{"authenticated", snapshot.IsAuthenticated}
	if snapshot.User != nil {
		attributes = append(attributes, "user_id", snapshot.User.ID)
	}
	m.logger.Debug("session rehydrated", attributes...)
}

// State returns a copy of the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Subscribe returns a channel that receives the current state and then
// every change. Delivery is latest-wins: a slow reader sees the newest
// state, not every intermediate one. The returned function unsubscribes
// and closes the channel; it is safe to call more than once.
func (m *Manager) Subscribe() (<-chan State, func()) {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	channel := make(chan State, 1)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		close(channel)
		return channel, func() {}
	}
	id := m.nextSubscriber
	m.nextSubscriber++
	m.subscribers[id] = channel
	channel <- m.state.clone()
	m.mu.Unlock()

	var once sync.Once
	return channel, func() {
		once.Do(func() {
			m.emitMu.Lock()
			defer m.emitMu.Unlock()
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, ok := m.subscribers[id]; ok {
				delete(m.subscribers, id)
				close(channel)
			}
		})
	}
}

// ClearError dismisses the last error message.
func (m *Manager) ClearError() {
	m.mu.Lock()
	changed := m.state.Error != ""
	m.state.Error = ""
	m.mu.Unlock()
	if changed {
		m.emit()
	}
}

// Login signs in with email and password. On success the token is held,
// the snapshot saved and exactly one refresh timer armed. On failure
// the session is emptied and State().Error carries the message to show.
// The password Buffer is borrowed.
func (m *Manager) Login(ctx context.Context, email string, password *secret.Buffer) error {
	if err := m.beginAuthenticating(); err != nil {
		return err
	}

	requestContext, cancel := m.requestContext(ctx)
	response, err := m.client.Login(requestContext, email, password)
	cancel()
	if err != nil {
		m.rejectCredentials(err)
		return err
	}

	if err := m.establish(response.User, response.AccessToken, response.Lifetime()); err != nil {
		m.rejectCredentials(err)
		return err
	}
	return nil
}

// Register creates an account. When the server signs the new account in
// straight away the result is the same as Login; when it answers
// without a token (verification pending) the session is left signed
// out with no error.
func (m *Manager) Register(ctx context.Context, request wardapi.RegisterRequest) error {
	if err := m.beginAuthenticating(); err != nil {
		return err
	}

	requestContext, cancel := m.requestContext(ctx)
	response, err := m.client.Register(requestContext, request)
	cancel()
	if err != nil {
		m.rejectCredentials(err)
		return err
	}

	if response.AccessToken == "" {
		m.mu.Lock()
		m.resetLocked()
		m.state.IsLoading = false
		m.mu.Unlock()
		m.emit()
		m.logger.Info("registration accepted, sign-in pending verification", "email", request.Email)
		return nil
	}

	if err := m.establish(response.User, response.AccessToken, response.Lifetime()); err != nil {
		m.rejectCredentials(err)
		return err
	}
	return nil
}

// CheckAuth reconciles the session with the server. It first renews
// the token through the refresh cookie and fetches the user with it;
// failing that it asks for the user without a bearer, which succeeds
// only for a server-side cookie session; failing both the session is
// signed out. IsInitialized is true afterwards whatever the outcome.
// Returns nil when the session ends authenticated, and ErrSuperseded
// when a sign-in or sign-out overtook the check.
func (m *Manager) CheckAuth(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.state.IsLoading = true
	m.mu.Unlock()
	m.emit()

	started, refreshErr := m.refresh(ctx)
	if errors.Is(refreshErr, ErrSuperseded) || errors.Is(refreshErr, ErrClosed) {
		m.finishCheck()
		return refreshErr
	}
	if refreshErr == nil {
		user, err := m.fetchUser(ctx, true)
		if err == nil {
			return m.restore(started, user, "session restored")
		}
		refreshErr = err
	}

	// The bearer path failed; a cookie session needs no token or timer.
	m.mu.Lock()
	if m.epoch != started {
		m.mu.Unlock()
		m.finishCheck()
		return ErrSuperseded
	}
	m.cancelTimerLocked()
	m.token.clear()
	m.state.HasAccessToken = false
	m.state.TokenExpiresAt = time.Time{}
	m.mu.Unlock()

	user, legacyErr := m.fetchUser(ctx, false)
	if legacyErr == nil {
		return m.restore(started, user, "session restored without bearer")
	}

	m.mu.Lock()
	if m.epoch != started {
		m.mu.Unlock()
		m.finishCheck()
		return ErrSuperseded
	}
	m.resetLocked()
	m.finishCheckLocked()
	m.mu.Unlock()
	m.emit()
	m.logger.Debug("no session to restore", "refresh_error", refreshErr, "fallback_error", legacyErr)
	return fmt.Errorf("%w: %w", ErrNotAuthenticated, legacyErr)
}

// restore records the user CheckAuth found, unless the session changed
// since epoch started.
func (m *Manager) restore(started uint64, user *wardapi.User, message string) error {
	m.mu.Lock()
	if m.epoch != started {
		m.mu.Unlock()
		m.finishCheck()
		return ErrSuperseded
	}
	m.state.User = cloneUser(user)
	m.state.IsAuthenticated = true
	m.state.Status = StatusAuthenticated
	m.finishCheckLocked()
	m.mu.Unlock()
	m.emit()
	m.logger.Info(message, "user_id", user.ID, "role", user.Role)
	return nil
}

func (m *Manager) finishCheck() {
	m.mu.Lock()
	m.finishCheckLocked()
	m.mu.Unlock()
	m.emit()
}

func (m *Manager) finishCheckLocked() {
	m.state.IsInitialized = true
	m.state.IsLoading = false
}

// RefreshToken renews the access token through the refresh cookie. On
// success the timer is re-armed for the new lifetime. Any failure ends
// the session locally, exactly like a forced logout, and is returned.
// A refresh overtaken by a sign-in or sign-out changes nothing and
// returns ErrSuperseded. Concurrent callers share one request.
func (m *Manager) RefreshToken(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.mu.Unlock()
	_, err := m.refresh(ctx)
	return err
}

// refresh runs the refresh endpoint through the in-flight guard and
// applies the outcome once, in the flight's leader. It returns the
// epoch the outcome left the session in. The result is dropped with
// ErrSuperseded when the session was signed in or out while the request
// ran.
func (m *Manager) refresh(ctx context.Context) (uint64, error) {
	flight := m.refreshGroup.DoChan("refresh", func() (any, error) {
		m.mu.Lock()
		started := m.epoch
		if m.state.Status == StatusAuthenticated && m.state.IsAuthenticated {
			m.state.Status = StatusRefreshing
		}
		m.mu.Unlock()
		m.emit()

		requestContext, cancel := m.requestContext(ctx)
		response, err := m.client.Refresh(requestContext)
		cancel()
		if err == nil && response.Lifetime() <= 0 {
			err = fmt.Errorf("session: refresh issued a token with non-positive lifetime %ds", response.ExpiresIn)
		}

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return uint64(0), ErrClosed
		}
		if m.epoch != started {
			m.mu.Unlock()
			m.logger.Debug("dropping refresh result, session changed while it ran")
			return uint64(0), ErrSuperseded
		}
		if err == nil {
			err = m.token.set(response.AccessToken)
		}
		if err != nil {
			wasAuthenticated := m.state.IsAuthenticated
			m.resetLocked()
			ended := m.epoch
			m.mu.Unlock()
			m.emit()
			m.logSessionEnded(wasAuthenticated, err)
			return ended, err
		}

		m.state.HasAccessToken = true
		m.state.TokenExpiresAt = m.clock.Now().Add(response.Lifetime())
		// The cookie alone does not say who the user is; without one
		// known the session stays signed out until CheckAuth asks.
		if m.state.User != nil {
			m.state.IsAuthenticated = true
		}
		if m.state.IsAuthenticated {
			m.state.Status = StatusAuthenticated
		} else {
			m.state.Status = StatusUnauthenticated
		}
		m.scheduleLocked(response.Lifetime())
		current := m.epoch
		m.mu.Unlock()
		m.emit()
		return current, nil
	})
	m.refreshWaiters.Add(1)
	defer m.refreshWaiters.Add(-1)

	result := <-flight
	if result.Shared {
		m.logger.Debug("joined in-flight token refresh")
	}
	epoch, _ := result.Val.(uint64)
	return epoch, result.Err
}

// Logout ends the session. The timer is cancelled first, then the
// server is asked to invalidate the session with the current bearer.
// Local state and the snapshot are cleared whatever the server says;
// the server's error is returned for reporting only.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.epoch++
	m.cancelTimerLocked()
	token, copyErr := m.token.copy()
	m.mu.Unlock()

	var serverErr error
	if copyErr != nil {
		serverErr = copyErr
	} else {
		requestContext, cancel := m.requestContext(ctx)
		serverErr = m.client.Logout(requestContext, token)
		cancel()
	}
	if token != nil {
		token.Close()
	}

	m.mu.Lock()
	m.resetLocked()
	m.state.Error = ""
	m.state.IsLoading = false
	m.mu.Unlock()
	m.emit()

	if serverErr != nil {
		m.logger.Warn("server logout failed, local session cleared", "error", serverErr)
		return serverErr
	}
	m.logger.Info("logged out")
	return nil
}

// Do sends an authenticated request and decodes the JSON response into
// out when out is non-nil. The bearer is attached when one is held. A
// 401 on a request that carried a bearer triggers one refresh and one
// retry; when that refresh fails the session has ended and the original
// 401 is returned.
func (m *Manager) Do(ctx context.Context, method, path string, body, out any) error {
	responseBody, err := m.send(ctx, method, path, body)
	if err != nil {
		var retry *retryableError
		if !errors.As(err, &retry) {
			return err
		}
		if _, refreshErr := m.refresh(ctx); refreshErr != nil {
			return retry.cause
		}
		responseBody, err = m.send(ctx, method, path, body)
		if err != nil {
			var again *retryableError
			if errors.As(err, &again) {
				return again.cause
			}
			return err
		}
	}

	if out == nil || len(responseBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(responseBody, out); err != nil {
		return fmt.Errorf("session: decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// retryableError marks a 401 received while a bearer was attached.
type retryableError struct {
	cause error
}

func (e *retryableError) Error() string { return e.cause.Error() }
func (e *retryableError) Unwrap() error { return e.cause }

func (m *Manager) send(ctx context.Context, method, path string, body any) ([]byte, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	token, err := m.token.copy()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if token != nil {
		defer token.Close()
	}

	requestContext, cancel := m.requestContext(ctx)
	defer cancel()
	responseBody, err := m.client.Do(requestContext, wardapi.Request{
		Method: method,
		Path:   path,
		Token:  token,
		Body:   body,
	})
	if err != nil && token != nil && wardapi.IsUnauthorized(err) {
		return nil, &retryableError{cause: err}
	}
	return responseBody, err
}

// Close cancels the refresh timer, wipes the token and closes every
// subscription. The persisted snapshot is left alone so the next
// process can rehydrate from it. Idempotent.
func (m *Manager) Close() error {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.cancelTimerLocked()
	m.token.clear()
	m.state.HasAccessToken = false
	for id, channel := range m.subscribers {
		delete(m.subscribers, id)
		close(channel)
	}
	return nil
}

func (m *Manager) beginAuthenticating() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.state.Status = StatusAuthenticating
	m.state.IsLoading = true
	m.state.Error = ""
	m.mu.Unlock()
	m.emit()
	return nil
}

// establish installs a freshly issued token and its user.
func (m *Manager) establish(user *wardapi.User, accessToken string, lifetime time.Duration) error {
	if user == nil || accessToken == "" {
		return fmt.Errorf("session: server response lacks a user or access token")
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if err := m.token.set(accessToken); err != nil {
		m.mu.Unlock()
		return err
	}
	m.epoch++
	m.state.User = cloneUser(user)
	m.state.IsAuthenticated = true
	m.state.HasAccessToken = true
	m.state.TokenExpiresAt = m.clock.Now().Add(lifetime)
	m.state.Status = StatusAuthenticated
	m.state.IsLoading = false
	m.state.Error = ""
	m.scheduleLocked(lifetime)
	m.mu.Unlock()
	m.emit()

	m.logger.Info("session established", "user_id", user.ID, "role", user.Role, "expires_in", lifetime)
	return nil
}

// rejectCredentials empties the session after a failed login or
// registration and records the message to show.
func (m *Manager) rejectCredentials(err error) {
	m.mu.Lock()
	m.resetLocked()
	m.state.Error = wardapi.Message(err)
	m.state.IsLoading = false
	m.mu.Unlock()
	m.emit()
	m.logger.Info("credentials rejected", "error", err)
}

// logSessionEnded reports the forced logout after a refresh failure.
// No message is recorded in the state; callers redirect to sign-in on
// their own.
func (m *Manager) logSessionEnded(wasAuthenticated bool, err error) {
	if wasAuthenticated {
		m.logger.Warn("token refresh failed, session ended", "error", err)
	} else {
		m.logger.Debug("token refresh failed", "error", err)
	}
}

// resetLocked clears token, user, flags and timer and starts a new
// epoch. IsInitialized, IsLoading and Error are left to the caller.
func (m *Manager) resetLocked() {
	m.epoch++
	m.cancelTimerLocked()
	m.token.clear()
	m.state.User = nil
	m.state.IsAuthenticated = false
	m.state.HasAccessToken = false
	m.state.TokenExpiresAt = time.Time{}
	m.state.Status = StatusUnauthenticated
}

// scheduleLocked arms the single refresh timer for a token with the
// given lifetime, replacing any armed one.
func (m *Manager) scheduleLocked(lifetime time.Duration) {
	m.cancelTimerLocked()
	if m.closed {
		return
	}

	delay := RefreshDelay(lifetime)
	m.timerGeneration++
	generation := m.timerGeneration
	m.state.NextRefreshAt = m.clock.Now().Add(delay)
	m.timer = m.clock.AfterFunc(delay, func() { m.onTimer(generation) })

	m.logger.Debug("refresh scheduled", "delay", delay, "expires_in", lifetime)
}

// cancelTimerLocked disarms the refresh timer. Bumping the generation
// makes a callback that already started see itself as superseded.
func (m *Manager) cancelTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.timerGeneration++
	m.state.NextRefreshAt = time.Time{}
}

func (m *Manager) onTimer(generation uint64) {
	m.mu.Lock()
	if m.closed || generation != m.timerGeneration {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.state.NextRefreshAt = time.Time{}
	m.mu.Unlock()

	if _, err := m.refresh(context.Background()); err != nil {
		return
	}
	m.logger.Debug("scheduled refresh succeeded")
}

// emit persists the snapshot and delivers the state to subscribers.
// Each call reads the newest state under emitMu, so the last write and
// the last delivery always carry the latest state.
func (m *Manager) emit() {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	state := m.state.clone()
	snapshot := Snapshot{
		User:            cloneUser(m.state.User),
		IsAuthenticated: m.state.IsAuthenticated,
		TokenExpiresAt:  unixMilli(m.state.TokenExpiresAt),
	}
	channels := make([]chan State, 0, len(m.subscribers))
	for _, channel := range m.subscribers {
		channels = append(channels, channel)
	}
	m.mu.Unlock()

	var err error
	if snapshot.IsZero() {
		err = m.snapshots.Clear()
	} else {
		err = m.snapshots.Save(snapshot)
	}
	if err != nil {
		m.logger.Warn("persisting session snapshot failed", "error", err)
	}

	for _, channel := range channels {
		deliverLatest(channel, state)
	}
}

// deliverLatest replaces whatever is buffered in channel with state.
func deliverLatest(channel chan State, state State) {
	for {
		select {
		case channel <- state:
			return
		default:
		}
		select {
		case <-channel:
		default:
		}
	}
}

func (m *Manager) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.requestTimeout)
}

func (m *Manager) fetchUser(ctx context.Context, withBearer bool) (*wardapi.User, error) {
	var token *secret.Buffer
	if withBearer {
		m.mu.Lock()
		copied, err := m.token.copy()
		m.mu.Unlock()
		if err != nil {
			return nil, err
		}
		if copied == nil {
			return nil, fmt.Errorf("session: no access token after refresh")
		}
		token = copied
		defer token.Close()
	}

	requestContext, cancel := m.requestContext(ctx)
	defer cancel()
	return m.client.Me(requestContext, token)
}
