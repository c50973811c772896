package store

import (
	"sync"

	"youtrait/internal/domain"
)

func traitID(t domain.Trait) string { return t.ID }

// TraitsStore mantiene los rasgos recibidos por el usuario de la sesión.
type TraitsStore struct {
	listeners
	mu      sync.RWMutex
	traits  []domain.Trait
	loading bool
	err     string
}

func NewTraitsStore() *TraitsStore {
	return &TraitsStore{traits: []domain.Trait{}}
}

// Traits devuelve una copia de la colección actual.
func (s *TraitsStore) Traits() []domain.Trait {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.traits)
}

// Get busca un rasgo por id.
func (s *TraitsStore) Get(id string) (domain.Trait, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.traits, id, traitID); i >= 0 {
		return s.traits[i], true
	}
	return domain.Trait{}, false
}

func (s *TraitsStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *TraitsStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *TraitsStore) SetTraits(traits []domain.Trait) {
	s.mu.Lock()
	s.traits = cloneSlice(traits)
	s.mu.Unlock()
	s.notify()
}

func (s *TraitsStore) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
	s.notify()
}

func (s *TraitsStore) SetError(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
	s.notify()
}

func (s *TraitsStore) Add(trait domain.Trait) {
	s.mu.Lock()
	s.traits = append(s.traits, trait)
	s.mu.Unlock()
	s.notify()
}

// Update mezcla patch en el rasgo con ese id. Un id ausente no hace nada:
// el evento puede llegar antes que la carga inicial.
func (s *TraitsStore) Update(id string, patch Patch) {
	s.mu.Lock()
	i := indexOf(s.traits, id, traitID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.traits[i] = mergePatch(s.traits[i], patch)
	s.mu.Unlock()
	s.notify()
}

func (s *TraitsStore) Remove(id string) {
	s.mu.Lock()
	s.traits = without(s.traits, id, traitID)
	s.mu.Unlock()
	s.notify()
}

// Upvote suma un voto localmente.
func (s *TraitsStore) Upvote(id string) {
	s.mu.Lock()
	i := indexOf(s.traits, id, traitID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.traits[i].Upvotes++
	s.mu.Unlock()
	s.notify()
}
