package store

import (
	"sync"

	"youtrait/internal/domain"
)

func notificationID(n domain.Notification) string { return n.ID }

// NotificationsStore guarda las notificaciones más recientes primero.
// unreadCount se recalcula desde la colección en cada mutación, nunca se
// ajusta por incrementos.
type NotificationsStore struct {
	listeners
	mu            sync.RWMutex
	notifications []domain.Notification
	unreadCount   int
	loading       bool
}

func NewNotificationsStore() *NotificationsStore {
	return &NotificationsStore{notifications: []domain.Notification{}}
}

func (s *NotificationsStore) Notifications() []domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.notifications)
}

func (s *NotificationsStore) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unreadCount
}

func (s *NotificationsStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *NotificationsStore) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
	s.notify()
}

func (s *NotificationsStore) SetNotifications(list []domain.Notification) {
	s.mutate(func() { s.notifications = cloneSlice(list) })
}

// Add antepone la notificación.
func (s *NotificationsStore) Add(n domain.Notification) {
	s.mutate(func() {
		s.notifications = append([]domain.Notification{n}, s.notifications...)
	})
}

func (s *NotificationsStore) Update(id string, patch Patch) {
	s.mutateIf(func() bool {
		i := indexOf(s.notifications, id, notificationID)
		if i < 0 {
			return false
		}
		s.notifications[i] = mergePatch(s.notifications[i], patch)
		return true
	})
}

func (s *NotificationsStore) Remove(id string) {
	s.mutate(func() { s.notifications = without(s.notifications, id, notificationID) })
}

func (s *NotificationsStore) MarkAsRead(id string) {
	s.mutateIf(func() bool {
		i := indexOf(s.notifications, id, notificationID)
		if i < 0 {
			return false
		}
		s.notifications[i].Read = true
		return true
	})
}

func (s *NotificationsStore) MarkAllAsRead() {
	s.mutate(func() {
		for i := range s.notifications {
			s.notifications[i].Read = true
		}
	})
}

func (s *NotificationsStore) mutate(fn func()) {
	s.mutateIf(func() bool { fn(); return true })
}

func (s *NotificationsStore) mutateIf(fn func() bool) {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return
	}
	s.unreadCount = countUnread(s.notifications)
	s.mu.Unlock()
	s.notify()
}

func countUnread(list []domain.Notification) int {
	n := 0
	for _, item := range list {
		if !item.Read {
			n++
		}
	}
	return n
}
