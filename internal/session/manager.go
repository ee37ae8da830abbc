// internal/session/manager.go
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/accord/internal/domain/models"
	"go.uber.org/zap"
)

// fetchTimeout bounds the background profile fetch that follows an
// authenticated notification. Login and Register use the caller's
// context instead.
const fetchTimeout = 10 * time.Second

// Manager coordinates session state between the credential gateway and
// the profile store. Create one per process with NewManager; it starts
// in StatusUnknown with Loading=true and settles once the gateway's
// bootstrap notification arrives.
//
// Manager is safe for concurrent use. Gateway notifications are applied
// strictly in delivery order by a single goroutine; profile fetches they
// trigger run in the background and are generation-stamped so a fetch
// that completes after the session has moved on is discarded.
type Manager struct {
	log      *zap.Logger
	gateway  Gateway
	profiles ProfileStore

	mu       sync.Mutex
	status   Status
	loading  bool
	user     *models.User
	gen      uint64 // bumped on every identity transition
	watchers []chan Snapshot

	unsubscribe func()
	fetches     sync.WaitGroup
	done        chan struct{}
	closeOnce   sync.Once
}

// NewManager subscribes to the gateway and starts processing session
// changes. Callers must Close the manager when done with it.
func NewManager(gw Gateway, profiles ProfileStore, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		log:      logger,
		gateway:  gw,
		profiles: profiles,
		status:   StatusUnknown,
		loading:  true,
		done:     make(chan struct{}),
	}
	ch, unsub := gw.Subscribe()
	m.unsubscribe = unsub
	go m.run(ch)
	return m
}

// Close cancels the gateway subscription and waits for in-flight profile
// fetches to finish. Safe to call more than once.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		close(m.done)
		m.fetches.Wait()
	})
}

// Snapshot returns a copy of the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Watch returns a channel that receives a Snapshot whenever session
// state changes, primed with the current state. Delivery is coalescing:
// a slow reader sees the latest state, not every intermediate one. The
// returned func cancels the watch.
func (m *Manager) Watch() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	m.mu.Lock()
	m.watchers = append(m.watchers, ch)
	ch <- m.snapshotLocked()
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, w := range m.watchers {
			if w == ch {
				m.watchers = append(m.watchers[:i], m.watchers[i+1:]...)
				return
			}
		}
	}
	return ch, cancel
}

// Login authenticates the identity for the given credentials and loads
// its profile. On gateway failure the error is returned as-is and the
// session state is left untouched apart from the loading flag. Calling
// Login while already authenticated replaces the held identity.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return ErrMissingCredentials
	}
	m.setLoading(true)

	ident, err := m.gateway.SignInWithPassword(ctx, email, password)
	if err != nil {
		m.setLoading(false)
		return err
	}

	// Prefer the full profile record, but an authenticated user with a
	// placeholder profile beats blocking access on a fetch failure.
	user := &models.User{ID: ident.ID, Email: ident.Email}
	switch full, perr := m.profiles.GetProfile(ctx, ident.ID); {
	case perr != nil:
		m.log.Warn("profile fetch after sign-in failed, keeping placeholder",
			zap.Error(perr),
			zap.String("user_id", ident.ID))
	case full != nil:
		user = full
	}

	m.mu.Lock()
	m.gen++
	m.user = user
	m.status = StatusAuthenticated
	m.loading = false
	m.notifyLocked()
	m.mu.Unlock()
	return nil
}

// Register mints a new identity and creates its profile and
// dashboard-stats records. If either record write fails the operation
// fails and the session's authentication state is unchanged; the minted
// identity is left without a profile (no rollback, matching the
// gateway's non-transactional record model).
func (m *Manager) Register(ctx context.Context, name, email, password string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return ErrMissingFields
	}
	m.setLoading(true)

	ident, err := m.gateway.SignUp(ctx, email, password)
	if err != nil {
		m.setLoading(false)
		return err
	}

	now := time.Now().UTC()
	created, err := m.profiles.InsertProfile(ctx, models.User{
		ID:        ident.ID,
		Name:      strings.TrimSpace(name),
		Email:     ident.Email,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		m.setLoading(false)
		return fmt.Errorf("create profile record: %w", err)
	}

	if err := m.profiles.InsertDashboardStats(ctx, models.DefaultStats(ident.ID)); err != nil {
		m.setLoading(false)
		return fmt.Errorf("create dashboard stats record: %w", err)
	}

	m.mu.Lock()
	m.gen++
	m.user = &created
	m.status = StatusAuthenticated
	m.loading = false
	m.notifyLocked()
	m.mu.Unlock()
	return nil
}

// Logout signs out at the gateway and clears the session. The session is
// unauthenticated once Logout returns even if the gateway call failed;
// the gateway error, if any, is still returned.
func (m *Manager) Logout(ctx context.Context) error {
	m.setLoading(true)
	err := m.gateway.SignOut(ctx)

	m.mu.Lock()
	m.gen++
	m.user = nil
	m.status = StatusUnauthenticated
	m.loading = false
	m.notifyLocked()
	m.mu.Unlock()
	return err
}

func (m *Manager) run(ch <-chan Change) {
	for {
		select {
		case <-m.done:
			return
		case c, ok := <-ch:
			if !ok {
				return
			}
			m.apply(c)
		}
	}
}

// apply processes one gateway notification. Re-delivery of the current
// identity is a no-op beyond a profile re-fetch.
func (m *Manager) apply(c Change) {
	m.mu.Lock()
	if c.Identity == nil {
		m.gen++
		m.user = nil
		m.status = StatusUnauthenticated
		m.loading = false
		m.notifyLocked()
		m.mu.Unlock()
		return
	}

	ident := *c.Identity
	same := m.status == StatusAuthenticated && m.user != nil && m.user.ID == ident.ID
	if !same {
		m.gen++
		m.user = &models.User{ID: ident.ID, Email: ident.Email}
		m.status = StatusAuthenticated
	}
	m.loading = false
	m.notifyLocked()
	gen := m.gen
	m.mu.Unlock()

	m.fetchProfile(ident.ID, gen)
}

// fetchProfile replaces the placeholder user with the stored profile
// record. It is fire-and-forget: failures keep the placeholder, and the
// result is dropped unless the session still holds the same identity
// and generation it was launched for.
func (m *Manager) fetchProfile(id string, gen uint64) {
	m.fetches.Add(1)
	go func() {
		defer m.fetches.Done()

		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		full, err := m.profiles.GetProfile(ctx, id)
		if err != nil {
			m.log.Warn("background profile fetch failed",
				zap.Error(err),
				zap.String("user_id", id))
			return
		}
		if full == nil {
			m.log.Debug("no profile record for identity", zap.String("user_id", id))
			return
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.gen != gen || m.status != StatusAuthenticated || m.user == nil || m.user.ID != full.ID {
			// Stale fetch: the session moved on while it was in flight.
			return
		}
		m.user = full
		m.notifyLocked()
	}()
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.notifyLocked()
	m.mu.Unlock()
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{Status: m.status, Loading: m.loading}
	if m.user != nil {
		u := *m.user
		u.Interests = append([]string(nil), m.user.Interests...)
		snap.User = &u
	}
	return snap
}

// notifyLocked pushes the current state to watchers, coalescing when a
// watcher has not drained the previous snapshot.
func (m *Manager) notifyLocked() {
	snap := m.snapshotLocked()
	for _, ch := range m.watchers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
