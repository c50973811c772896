package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"youtrait/internal/changefeed"
	"youtrait/internal/domain"
	"youtrait/internal/repository"
)

type mockUserRepo struct {
	mu           sync.Mutex
	usersByID    map[string]domain.User
	usersByEmail map[string]string
	err          error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usersByID[user.ID] = user
	if user.Email != "" {
		m.usersByEmail[user.Email] = user.ID
	}
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.User{}, m.err
	}
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	id, ok := m.usersByEmail[email]
	m.mu.Unlock()
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return m.GetByID(ctx, id)
}

type mockProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]domain.Profile
}

func newMockProfileRepo(profiles ...domain.Profile) *mockProfileRepo {
	m := &mockProfileRepo{profiles: make(map[string]domain.Profile)}
	for _, p := range profiles {
		m.profiles[p.ID] = p
	}
	return m
}

func (m *mockProfileRepo) Create(_ context.Context, profile domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.ID] = profile
	return nil
}

func (m *mockProfileRepo) GetByID(_ context.Context, id string) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return domain.Profile{}, repository.ErrNotFound
	}
	return p, nil
}

func (m *mockProfileRepo) GetByUsername(_ context.Context, username string) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Username == username {
			return p, nil
		}
	}
	return domain.Profile{}, repository.ErrNotFound
}

func (m *mockProfileRepo) Update(_ context.Context, profile domain.Profile) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[profile.ID]; !ok {
		return domain.Profile{}, repository.ErrNotFound
	}
	m.profiles[profile.ID] = profile
	return profile, nil
}

func (m *mockProfileRepo) UpdateAvatar(_ context.Context, id, avatarURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.AvatarURL = avatarURL
	m.profiles[id] = p
	return nil
}

type mockTraitRepo struct {
	mu     sync.Mutex
	traits map[string]domain.Trait
	order  []string
	err    error
}

func newMockTraitRepo(traits ...domain.Trait) *mockTraitRepo {
	m := &mockTraitRepo{traits: make(map[string]domain.Trait)}
	for _, t := range traits {
		m.traits[t.ID] = t
		m.order = append(m.order, t.ID)
	}
	return m
}

func (m *mockTraitRepo) Create(_ context.Context, trait domain.Trait) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.traits[trait.ID] = trait
	m.order = append(m.order, trait.ID)
	return nil
}

func (m *mockTraitRepo) GetByID(_ context.Context, id string) (domain.Trait, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.traits[id]
	if !ok {
		return domain.Trait{}, repository.ErrNotFound
	}
	return t, nil
}

func (m *mockTraitRepo) filter(keep func(domain.Trait) bool) ([]domain.Trait, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []domain.Trait{}
	for _, id := range m.order {
		if t := m.traits[id]; keep(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTraitRepo) ListByTarget(_ context.Context, target string) ([]domain.Trait, error) {
	return m.filter(func(t domain.Trait) bool { return t.TargetUserID == target })
}

func (m *mockTraitRepo) ListByTargetAndStatus(_ context.Context, target, status string) ([]domain.Trait, error) {
	return m.filter(func(t domain.Trait) bool { return t.TargetUserID == target && t.Status == status })
}

func (m *mockTraitRepo) ListGivenBy(_ context.Context, createdBy, status string) ([]domain.Trait, error) {
	return m.filter(func(t domain.Trait) bool { return t.CreatedByUserID == createdBy && t.Status == status })
}

func (m *mockTraitRepo) CountGivenBy(_ context.Context, createdBy string) (int, error) {
	list, err := m.filter(func(t domain.Trait) bool { return t.CreatedByUserID == createdBy })
	return len(list), err
}

func (m *mockTraitRepo) Transition(_ context.Context, id, target, status string, at time.Time) (domain.Trait, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Trait{}, m.err
	}
	t, ok := m.traits[id]
	if !ok || t.TargetUserID != target || t.Status != domain.TraitStatusPending {
		return domain.Trait{}, repository.ErrNotFound
	}
	t.Status = status
	if status == domain.TraitStatusApproved {
		t.ApprovedAt = &at
	}
	m.traits[id] = t
	return t, nil
}

func (m *mockTraitRepo) Upvote(_ context.Context, id string) (domain.Trait, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.traits[id]
	if !ok {
		return domain.Trait{}, repository.ErrNotFound
	}
	t.Upvotes++
	m.traits[id] = t
	return t, nil
}

type mockNotificationRepo struct {
	mu    sync.Mutex
	items []domain.Notification
	err   error
}

func (m *mockNotificationRepo) Create(_ context.Context, n domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.items = append(m.items, n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, limit int) ([]domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []domain.Notification{}
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.items {
		if n.ID == id && n.UserID == userID {
			m.items[i].Read = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.items {
		if m.items[i].UserID == userID && !m.items[i].Read {
			m.items[i].Read = true
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) forUser(userID string) []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Notification
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type mockBestieRepo struct {
	mu       sync.Mutex
	requests map[string]domain.BestieRequest
}

func newMockBestieRepo(reqs ...domain.BestieRequest) *mockBestieRepo {
	m := &mockBestieRepo{requests: make(map[string]domain.BestieRequest)}
	for _, r := range reqs {
		m.requests[r.ID] = r
	}
	return m
}

func (m *mockBestieRepo) Create(_ context.Context, req domain.BestieRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = req
	return nil
}

func (m *mockBestieRepo) Respond(_ context.Context, id, requestedID, status string, at time.Time) (domain.BestieRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.RequestedID != requestedID || r.Status != domain.BestieStatusPending {
		return domain.BestieRequest{}, repository.ErrNotFound
	}
	r.Status = status
	r.RespondedAt = &at
	m.requests[id] = r
	return r, nil
}

func (m *mockBestieRepo) ListPendingFor(_ context.Context, requestedID string) ([]domain.BestieRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.BestieRequest{}
	for _, r := range m.requests {
		if r.RequestedID == requestedID && r.Status == domain.BestieStatusPending {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockBestieRepo) ListAccepted(_ context.Context, userID string) ([]domain.BestieRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.BestieRequest{}
	for _, r := range m.requests {
		if r.Status == domain.BestieStatusAccepted && (r.RequestedID == userID || r.RequesterID == userID) {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockReactionRepo struct {
	mu        sync.Mutex
	reactions []domain.Reaction
	err       error
}

func (m *mockReactionRepo) Create(_ context.Context, reaction domain.Reaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.reactions = append(m.reactions, reaction)
	return nil
}

// recordingPublisher guarda los eventos emitidos.
type recordingPublisher struct {
	mu     sync.Mutex
	events []changefeed.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev changefeed.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) published() []changefeed.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]changefeed.Event(nil), p.events...)
}

type mockLimiter struct {
	allow bool
}

func (m *mockLimiter) Allow(_ string) bool {
	return m.allow
}

func decodeInto(raw []byte, dst any) error {
	return json.Unmarshal(raw, dst)
}
