package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"youtrait/internal/changefeed"
	"youtrait/internal/domain"
	"youtrait/internal/events"
	"youtrait/internal/metrics"
	"youtrait/internal/realtime"
	"youtrait/internal/repository"
	"youtrait/internal/store"
)

// Session es el contexto de aplicación de un usuario: sus stores, su bus de
// eventos de interfaz y el adaptador que los alimenta.
type Session struct {
	UserID  string
	Stores  *store.Stores
	Bus     *events.Bus
	Adapter *realtime.Adapter

	refs  int
	ready chan struct{}
	err   error
}

// SessionRepos agrupa las lecturas que hace la carga inicial.
type SessionRepos struct {
	Users         repository.UserRepository
	Profiles      repository.ProfileRepository
	Traits        repository.TraitRepository
	Notifications repository.NotificationRepository
	Besties       repository.BestieRepository
}

// SessionRegistry crea un Session por usuario al primer Acquire y lo destruye
// cuando el último Release baja la cuenta a cero.
type SessionRegistry struct {
	logger *zap.Logger
	feed   changefeed.Feed
	writer realtime.Writer
	repos  SessionRepos

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionRegistry(logger *zap.Logger, feed changefeed.Feed, writer realtime.Writer, repos SessionRepos) *SessionRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRegistry{
		logger:   logger,
		feed:     feed,
		writer:   writer,
		repos:    repos,
		sessions: make(map[string]*Session),
	}
}

// Acquire devuelve la sesión del usuario, cargándola si no existe. Cada
// Acquire exitoso debe emparejarse con un Release.
func (r *SessionRegistry) Acquire(ctx context.Context, userID string) (*Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id required", ErrValidation)
	}

	r.mu.Lock()
	sess, ok := r.sessions[userID]
	if ok {
		sess.refs++
		r.mu.Unlock()
		select {
		case <-sess.ready:
		case <-ctx.Done():
			r.Release(userID)
			return nil, ctx.Err()
		}
		if sess.err != nil {
			r.Release(userID)
			return nil, sess.err
		}
		return sess, nil
	}

	bus := events.NewBus(r.logger)
	stores := store.New()
	sess = &Session{
		UserID:  userID,
		Stores:  stores,
		Bus:     bus,
		Adapter: realtime.NewAdapter(r.feed, stores, bus, r.writer, r.logger),
		refs:    1,
		ready:   make(chan struct{}),
	}
	r.sessions[userID] = sess
	r.mu.Unlock()

	sess.err = r.load(ctx, sess)
	close(sess.ready)
	if sess.err != nil {
		r.logger.Error("session load failed", zap.String("user_id", userID), zap.Error(sess.err))
		r.Release(userID)
		return nil, sess.err
	}
	metrics.ActiveSessions.Inc()
	return sess, nil
}

// Lookup devuelve una sesión ya cargada sin tomar referencia.
func (r *SessionRegistry) Lookup(userID string) (*Session, bool) {
	r.mu.Lock()
	sess, ok := r.sessions[userID]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	select {
	case <-sess.ready:
		return sess, sess.err == nil
	default:
		return nil, false
	}
}

func (r *SessionRegistry) Release(userID string) {
	r.mu.Lock()
	sess, ok := r.sessions[userID]
	if !ok {
		r.mu.Unlock()
		return
	}
	sess.refs--
	if sess.refs > 0 {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, userID)
	r.mu.Unlock()

	sess.Adapter.Disconnect()
	if sess.err == nil {
		metrics.ActiveSessions.Dec()
	}
	r.logger.Debug("session released", zap.String("user_id", userID))
}

// Len devuelve cuántas sesiones hay abiertas.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close desconecta todas las sesiones.
func (r *SessionRegistry) Close() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for id, sess := range r.sessions {
		sessions = append(sessions, sess)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, sess := range sessions {
		<-sess.ready
		sess.Adapter.Disconnect()
		if sess.err == nil {
			metrics.ActiveSessions.Dec()
		}
	}
}

func (r *SessionRegistry) load(ctx context.Context, sess *Session) error {
	s := sess.Stores
	s.Auth.SetLoading(true)
	defer s.Auth.SetLoading(false)

	user, err := r.repos.Users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: load user: %v", ErrBackend, err)
	}
	s.Auth.SetUser(&user)

	if profile, err := r.repos.Profiles.GetByID(ctx, sess.UserID); err == nil {
		s.Auth.SetProfile(&profile)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: load profile: %v", ErrBackend, err)
	}

	s.Traits.SetLoading(true)
	traits, err := r.repos.Traits.ListByTarget(ctx, sess.UserID)
	s.Traits.SetLoading(false)
	if err != nil {
		s.Traits.SetError("failed to load traits")
		return fmt.Errorf("%w: load traits: %v", ErrBackend, err)
	}
	s.Traits.SetTraits(traits)
	s.Approval.SetPendingEndorsements(pendingOnly(traits))

	given, err := r.repos.Traits.CountGivenBy(ctx, sess.UserID)
	if err != nil {
		return fmt.Errorf("%w: count given traits: %v", ErrBackend, err)
	}
	s.Stats.SetStats(domain.ComputeStats(traits, given))

	notifications, err := r.repos.Notifications.ListByUser(ctx, sess.UserID, defaultNotificationLimit)
	if err != nil {
		return fmt.Errorf("%w: load notifications: %v", ErrBackend, err)
	}
	s.Notifications.SetNotifications(notifications)

	if r.repos.Besties != nil {
		pending, err := r.repos.Besties.ListPendingFor(ctx, sess.UserID)
		if err != nil {
			return fmt.Errorf("%w: load bestie requests: %v", ErrBackend, err)
		}
		accepted, err := r.repos.Besties.ListAccepted(ctx, sess.UserID)
		if err != nil {
			return fmt.Errorf("%w: load besties: %v", ErrBackend, err)
		}
		s.Besties.SetPendingRequests(pending)
		s.Besties.SetBesties(accepted)
	}
	return nil
}

func pendingOnly(traits []domain.Trait) []domain.Trait {
	out := []domain.Trait{}
	for _, t := range traits {
		if t.Status == domain.TraitStatusPending {
			out = append(out, t)
		}
	}
	return out
}
