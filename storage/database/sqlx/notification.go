package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-lms/core/notification"
)

const notificationColumns = `id, user_id, kind, message, link, is_read, created_at`

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sqlx.DB) *notificationRepository {
	return &notificationRepository{db: db}
}

type notificationRow struct {
	ID        string      `db:"id"`
	UserID    string      `db:"user_id"`
	Kind      string      `db:"kind"`
	Message   string      `db:"message"`
	Link      null.String `db:"link"`
	IsRead    bool        `db:"is_read"`
	CreatedAt time.Time   `db:"created_at"`
}

func (r notificationRow) toNotification() notification.Notification {
	return notification.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Kind:      r.Kind,
		Message:   r.Message,
		Link:      r.Link.String,
		IsRead:    r.IsRead,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO notification (`+notificationColumns+`)
		VALUES (:id, :user_id, :kind, :message, :link, :is_read, :created_at)`,
		notificationRow{
			ID:        n.ID,
			UserID:    n.UserID,
			Kind:      n.Kind,
			Message:   n.Message,
			Link:      null.NewString(n.Link, n.Link != ""),
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.UTC(),
		},
	)
	if err != nil {
		return notification.Notification{}, wrapErr(err, "inserting notification")
	}
	return n, nil
}

func (repo *notificationRepository) QueryNotifications(ctx context.Context, userID string, unreadOnly bool) ([]notification.Notification, error) {
	q := `SELECT ` + notificationColumns + ` FROM notification WHERE user_id::text = $1`
	if unreadOnly {
		q += " AND NOT is_read"
	}
	q += " ORDER BY created_at DESC, id ASC"

	var rows []notificationRow
	if err := repo.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, wrapErr(err, "querying notifications")
	}
	notifs := make([]notification.Notification, 0, len(rows))
	for _, r := range rows {
		notifs = append(notifs, r.toNotification())
	}
	return notifs, nil
}

func (repo *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notification WHERE user_id::text = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, wrapErr(err, "counting unread notifications")
	}
	return count, nil
}

func (repo *notificationRepository) MarkRead(ctx context.Context, userID, id string) (notification.Notification, error) {
	if _, err := uuid.Parse(id); err != nil {
		return notification.Notification{}, notification.ErrNotFound
	}
	var row notificationRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE notification SET is_read = TRUE WHERE id = $1 AND user_id::text = $2 RETURNING `+notificationColumns,
		id, userID,
	)
	if err != nil {
		return notification.Notification{}, trapNoRowsErr(err, notification.ErrNotFound, "marking notification read")
	}
	return row.toNotification(), nil
}

func (repo *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE notification SET is_read = TRUE WHERE user_id::text = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, wrapErr(err, "marking notifications read")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr(err, "marking notifications read")
	}
	return int(cnt), nil
}
