package store

import (
	"sync"

	"youtrait/internal/domain"
)

func bestieRequestID(r domain.BestieRequest) string { return r.ID }

// ApprovalStore es la bandeja de rasgos pendientes de aprobación.
type ApprovalStore struct {
	listeners
	mu      sync.RWMutex
	pending []domain.Trait
	loading bool
}

func NewApprovalStore() *ApprovalStore {
	return &ApprovalStore{pending: []domain.Trait{}}
}

func (s *ApprovalStore) PendingEndorsements() []domain.Trait {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.pending)
}

func (s *ApprovalStore) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
	s.notify()
}

func (s *ApprovalStore) SetPendingEndorsements(list []domain.Trait) {
	s.mu.Lock()
	s.pending = cloneSlice(list)
	s.mu.Unlock()
	s.notify()
}

func (s *ApprovalStore) AddEndorsement(t domain.Trait) {
	s.mu.Lock()
	s.pending = append([]domain.Trait{t}, s.pending...)
	s.mu.Unlock()
	s.notify()
}

func (s *ApprovalStore) RemoveEndorsement(id string) {
	s.mu.Lock()
	s.pending = without(s.pending, id, traitID)
	s.mu.Unlock()
	s.notify()
}

// UpdateEndorsementStatus saca el rasgo de la bandeja en cuanto deja de estar pendiente.
func (s *ApprovalStore) UpdateEndorsementStatus(id, status string) {
	if status == domain.TraitStatusPending {
		return
	}
	s.RemoveEndorsement(id)
}

// BestiesStore guarda besties aceptados y solicitudes entrantes pendientes.
type BestiesStore struct {
	listeners
	mu      sync.RWMutex
	besties []domain.BestieRequest
	pending []domain.BestieRequest
	loading bool
}

func NewBestiesStore() *BestiesStore {
	return &BestiesStore{besties: []domain.BestieRequest{}, pending: []domain.BestieRequest{}}
}

func (s *BestiesStore) Besties() []domain.BestieRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.besties)
}

func (s *BestiesStore) PendingRequests() []domain.BestieRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.pending)
}

func (s *BestiesStore) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
	s.notify()
}

func (s *BestiesStore) SetBesties(list []domain.BestieRequest) {
	s.mu.Lock()
	s.besties = cloneSlice(list)
	s.mu.Unlock()
	s.notify()
}

func (s *BestiesStore) SetPendingRequests(list []domain.BestieRequest) {
	s.mu.Lock()
	s.pending = cloneSlice(list)
	s.mu.Unlock()
	s.notify()
}

func (s *BestiesStore) AddBestie(b domain.BestieRequest) {
	s.mu.Lock()
	s.besties = append(s.besties, b)
	s.mu.Unlock()
	s.notify()
}

func (s *BestiesStore) RemoveBestie(id string) {
	s.mu.Lock()
	s.besties = without(s.besties, id, bestieRequestID)
	s.mu.Unlock()
	s.notify()
}

func (s *BestiesStore) AddPendingRequest(r domain.BestieRequest) {
	s.mu.Lock()
	s.pending = append([]domain.BestieRequest{r}, s.pending...)
	s.mu.Unlock()
	s.notify()
}

// UpdatePendingRequest mezcla patch en la solicitud. Si deja de estar pendiente
// sale de la bandeja, y si fue aceptada pasa a la lista de besties.
func (s *BestiesStore) UpdatePendingRequest(id string, patch Patch) {
	s.mu.Lock()
	i := indexOf(s.pending, id, bestieRequestID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	merged := mergePatch(s.pending[i], patch)
	if merged.Status == domain.BestieStatusPending {
		s.pending[i] = merged
	} else {
		s.pending = without(s.pending, id, bestieRequestID)
		if merged.Status == domain.BestieStatusAccepted && indexOf(s.besties, id, bestieRequestID) < 0 {
			s.besties = append(s.besties, merged)
		}
	}
	s.mu.Unlock()
	s.notify()
}

func (s *BestiesStore) RemovePendingRequest(id string) {
	s.mu.Lock()
	s.pending = without(s.pending, id, bestieRequestID)
	s.mu.Unlock()
	s.notify()
}
