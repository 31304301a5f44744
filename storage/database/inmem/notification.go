package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/masomo-lms/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) *notificationRepository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) CreateNotification(_ context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if n.ID == "" {
		n.ID = newID()
	}
	repo.db.table[n.ID] = &n
	return n, nil
}

func (repo *notificationRepository) QueryNotifications(_ context.Context, userID string, unreadOnly bool) ([]notification.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	notifs := make([]notification.Notification, 0)
	for _, n := range repo.db.table {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		notifs = append(notifs, *n)
	}
	sort.Slice(notifs, func(i, j int) bool {
		if c := compareTime(notifs[i].CreatedAt, notifs[j].CreatedAt); c != 0 {
			return c > 0
		}
		return notifs[i].ID < notifs[j].ID
	})
	return notifs, nil
}

func (repo *notificationRepository) CountUnread(_ context.Context, userID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	count := 0
	for _, n := range repo.db.table {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (repo *notificationRepository) MarkRead(_ context.Context, userID, id string) (notification.Notification, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	n, ok := repo.db.table[id]
	if !ok || n.UserID != userID {
		return notification.Notification{}, notification.ErrNotFound
	}
	n.IsRead = true
	return *n, nil
}

func (repo *notificationRepository) MarkAllRead(_ context.Context, userID string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	marked := 0
	for _, n := range repo.db.table {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			marked++
		}
	}
	return marked, nil
}
