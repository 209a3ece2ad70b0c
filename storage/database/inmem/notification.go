package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/ngoma/core/notification"
)

type notificationRepository struct {
	db *DB
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotifications(ctx context.Context, notifs ...notification.Notification) ([]notification.Notification, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for i := range notifs {
		if notifs[i].ID == "" {
			notifs[i].ID = uuid.New().String()
		}
		n := notifs[i]
		repo.db.notifications[n.ID] = &n
	}
	return notifs, nil
}

func (repo *notificationRepository) GetNotificationByID(ctx context.Context, id string) (notification.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if n, ok := repo.db.notifications[id]; ok {
		return *n, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *notificationRepository) FilterNotifications(ctx context.Context, filter notification.QueryFilter) ([]notification.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	notifs := make([]notification.Notification, 0)
	for _, n := range repo.db.notifications {
		if matchesNotificationFilter(*n, filter) {
			notifs = append(notifs, *n)
		}
	}
	sort.Slice(notifs, func(i, j int) bool { return notifs[i].CreatedAt.After(notifs[j].CreatedAt) })
	return notifs, nil
}

func matchesNotificationFilter(n notification.Notification, filter notification.QueryFilter) bool {
	if filter.UserID != "" && n.UserID != filter.UserID {
		return false
	}
	if filter.Type != "" && n.Type != filter.Type {
		return false
	}
	if filter.Unread != nil && n.Read == *filter.Unread {
		return false
	}
	return true
}

func (repo *notificationRepository) MarkNotificationsRead(ctx context.Context, userID string, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if len(ids) == 0 {
		for _, n := range repo.db.notifications {
			if n.UserID == userID {
				n.Read = true
			}
		}
		return nil
	}
	for _, id := range ids {
		if n, ok := repo.db.notifications[id]; ok && n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (repo *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int
	for _, n := range repo.db.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (repo *notificationRepository) DeleteNotificationsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.notifications, id)
	}
	return nil
}
