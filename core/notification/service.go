package notification

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound = errors.New("notification not found")
)

type (
	Repository interface {
		CreateNotifications(ctx context.Context, notifs ...Notification) ([]Notification, error)
		GetNotificationByID(ctx context.Context, id string) (Notification, error)
		FilterNotifications(ctx context.Context, filter QueryFilter) ([]Notification, error)
		MarkNotificationsRead(ctx context.Context, userID string, ids ...string) error
		CountUnread(ctx context.Context, userID string) (int, error)
		DeleteNotificationsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Create(ctx context.Context, nn NewNotification) (Notification, error)
		// FanOut creates one notification per user; a single write per user,
		// deliberately not transactional with its trigger (fire-and-forget).
		FanOut(ctx context.Context, b Broadcast, typ string) ([]Notification, error)
		GetByID(ctx context.Context, id string) (Notification, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Notification, error)
		MarkRead(ctx context.Context, userID string, ids ...string) error
		MarkAllRead(ctx context.Context, userID string) error
		UnreadCount(ctx context.Context, userID string) (int, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, nn NewNotification) (Notification, error) {
	notifs, err := svc.repo.CreateNotifications(ctx, Notification{
		UserID:    nn.UserID,
		Type:      nn.Type,
		Title:     nn.Title,
		Message:   nn.Message,
		Meta:      nn.Meta,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Notification{}, err
	}
	return notifs[0], nil
}

func (svc *service) FanOut(ctx context.Context, b Broadcast, typ string) ([]Notification, error) {
	now := time.Now().UTC()
	notifs := make([]Notification, 0, len(b.UserIDs))
	for _, uid := range b.UserIDs {
		notifs = append(notifs, Notification{
			UserID:    uid,
			Type:      typ,
			Title:     b.Title,
			Message:   b.Message,
			Meta:      b.Meta,
			CreatedAt: now,
		})
	}
	return svc.repo.CreateNotifications(ctx, notifs...)
}

func (svc *service) GetByID(ctx context.Context, id string) (Notification, error) {
	return svc.repo.GetNotificationByID(ctx, id)
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter) ([]Notification, error) {
	return svc.repo.FilterNotifications(ctx, filter)
}

func (svc *service) MarkRead(ctx context.Context, userID string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return svc.repo.MarkNotificationsRead(ctx, userID, ids...)
}

func (svc *service) MarkAllRead(ctx context.Context, userID string) error {
	return svc.repo.MarkNotificationsRead(ctx, userID)
}

func (svc *service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return svc.repo.CountUnread(ctx, userID)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteNotificationsByID(ctx, ids...)
}
