package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core/notification"
)

const notificationCols = `id, user_id, type, title, message, meta, read, created_at`

type notificationRow struct {
	ID        string            `db:"id"`
	UserID    string            `db:"user_id"`
	Type      string            `db:"type"`
	Title     string            `db:"title"`
	Message   string            `db:"message"`
	Meta      notification.Meta `db:"meta"`
	Read      bool              `db:"read"`
	CreatedAt time.Time         `db:"created_at"`
}

func (row notificationRow) toNotification() notification.Notification {
	return notification.Notification(row)
}

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *sqlx.DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotifications(ctx context.Context, notifs ...notification.Notification) ([]notification.Notification, error) {
	if len(notifs) == 0 {
		return nil, nil
	}

	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `INSERT INTO notification (` + notificationCols + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		for i := range notifs {
			if notifs[i].ID == "" {
				notifs[i].ID = uuid.New().String()
			}
			n := notifs[i]
			if _, err := tx.ExecContext(ctx, q, n.ID, n.UserID, n.Type, n.Title, n.Message, n.Meta, n.Read, n.CreatedAt); err != nil {
				return errors.Wrap(err, "creating notification")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notifs, nil
}

func (repo *notificationRepository) GetNotificationByID(ctx context.Context, id string) (notification.Notification, error) {
	var row notificationRow
	q := `SELECT ` + notificationCols + ` FROM notification WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return notification.Notification{}, notFound(err, notification.ErrNotFound, "getting notification")
	}
	return row.toNotification(), nil
}

func (repo *notificationRepository) FilterNotifications(ctx context.Context, filter notification.QueryFilter) ([]notification.Notification, error) {
	where := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.UserID != "" {
		where = append(where, fmt.Sprintf("user_id = %s", arg(filter.UserID)))
	}
	if filter.Type != "" {
		where = append(where, fmt.Sprintf("type = %s", arg(filter.Type)))
	}
	if filter.Unread != nil {
		where = append(where, fmt.Sprintf("read = NOT %s", arg(*filter.Unread)))
	}

	q := `SELECT ` + notificationCols + ` FROM notification`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC"

	var rows []notificationRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering notifications")
	}
	notifs := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		notifs = append(notifs, row.toNotification())
	}
	return notifs, nil
}

func (repo *notificationRepository) MarkNotificationsRead(ctx context.Context, userID string, ids ...string) error {
	q := `UPDATE notification SET read = TRUE WHERE user_id = $1`
	args := []interface{}{userID}
	if len(ids) > 0 {
		q += ` AND id = ANY($2)`
		args = append(args, pq.Array(ids))
	}
	_, err := repo.db.ExecContext(ctx, q, args...)
	return errors.Wrap(err, "marking notifications read")
}

func (repo *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	q := `SELECT COUNT(*) FROM notification WHERE user_id = $1 AND NOT read`
	if err := repo.db.GetContext(ctx, &count, q, userID); err != nil {
		return 0, errors.Wrap(err, "counting unread notifications")
	}
	return count, nil
}

func (repo *notificationRepository) DeleteNotificationsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM notification WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting notifications")
}
