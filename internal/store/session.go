package store

import (
	"sync"

	"youtrait/internal/domain"
)

// AuthStore guarda el usuario autenticado y su perfil.
type AuthStore struct {
	listeners
	mu      sync.RWMutex
	user    *domain.User
	profile *domain.Profile
	loading bool
}

func NewAuthStore() *AuthStore {
	return &AuthStore{loading: true}
}

// User devuelve una copia del usuario o nil si no hay sesión.
func (s *AuthStore) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *AuthStore) Profile() *domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

func (s *AuthStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *AuthStore) SetUser(u *domain.User) {
	s.mu.Lock()
	if u == nil {
		s.user = nil
	} else {
		cp := *u
		s.user = &cp
	}
	s.mu.Unlock()
	s.notify()
}

func (s *AuthStore) SetProfile(p *domain.Profile) {
	s.mu.Lock()
	if p == nil {
		s.profile = nil
	} else {
		cp := *p
		s.profile = &cp
	}
	s.mu.Unlock()
	s.notify()
}

func (s *AuthStore) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
	s.notify()
}

func (s *AuthStore) Logout() {
	s.mu.Lock()
	s.user = nil
	s.profile = nil
	s.loading = false
	s.mu.Unlock()
	s.notify()
}

// UIStore es estado efímero de interfaz; nunca se persiste.
type UIStore struct {
	listeners
	mu           sync.RWMutex
	sidebarOpen  bool
	currentModal string
	theme        string
}

func NewUIStore() *UIStore {
	return &UIStore{theme: "dark"}
}

func (s *UIStore) SidebarOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sidebarOpen
}

func (s *UIStore) CurrentModal() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentModal
}

func (s *UIStore) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

func (s *UIStore) SetSidebarOpen(open bool) {
	s.set(func() { s.sidebarOpen = open })
}

func (s *UIStore) ToggleSidebar() {
	s.set(func() { s.sidebarOpen = !s.sidebarOpen })
}

func (s *UIStore) SetCurrentModal(modal string) {
	s.set(func() { s.currentModal = modal })
}

func (s *UIStore) CloseModal() {
	s.set(func() { s.currentModal = "" })
}

func (s *UIStore) SetTheme(theme string) {
	s.set(func() { s.theme = theme })
}

func (s *UIStore) set(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	s.notify()
}

const (
	StatTotalTraits    = "total_traits"
	StatApprovedTraits = "approved_traits"
	StatPendingTraits  = "pending_traits"
	StatTotalUpvotes   = "total_upvotes"
	StatTraitsGiven    = "traits_given"
)

// StatsStore guarda los contadores agregados del dashboard.
type StatsStore struct {
	listeners
	mu      sync.RWMutex
	stats   domain.Stats
	loading bool
}

func NewStatsStore() *StatsStore {
	return &StatsStore{}
}

func (s *StatsStore) Stats() domain.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *StatsStore) SetStats(stats domain.Stats) {
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
	s.notify()
}

func (s *StatsStore) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
	s.notify()
}

// UpdateStat cambia un contador por nombre; nombres desconocidos se ignoran.
func (s *StatsStore) UpdateStat(key string, value int) {
	s.mu.Lock()
	switch key {
	case StatTotalTraits:
		s.stats.TotalTraits = value
	case StatApprovedTraits:
		s.stats.ApprovedTraits = value
	case StatPendingTraits:
		s.stats.PendingTraits = value
	case StatTotalUpvotes:
		s.stats.TotalUpvotes = value
	case StatTraitsGiven:
		s.stats.TraitsGiven = value
	default:
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.notify()
}

// Stores agrupa el estado de una sesión. Cada contexto de aplicación crea el
// suyo; no hay instancias globales.
type Stores struct {
	Auth          *AuthStore
	Traits        *TraitsStore
	Notifications *NotificationsStore
	Approval      *ApprovalStore
	Besties       *BestiesStore
	UI            *UIStore
	Stats         *StatsStore
}

func New() *Stores {
	return &Stores{
		Auth:          NewAuthStore(),
		Traits:        NewTraitsStore(),
		Notifications: NewNotificationsStore(),
		Approval:      NewApprovalStore(),
		Besties:       NewBestiesStore(),
		UI:            NewUIStore(),
		Stats:         NewStatsStore(),
	}
}
