package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Notification struct {
	ID        string
	UserID    string
	Type      string
	Title     string
	Message   string
	Read      bool
	Data      map[string]interface{}
	CreatedAt time.Time
}

// NotificationRepository scopes every mutation by owner; the bool results
// report whether a row owned by userID was affected.
type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
	FindByUserID(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*Notification, error)
	CountByUserID(ctx context.Context, userID string) (total int, unread int, err error)
	MarkAsRead(ctx context.Context, id, userID string) (bool, error)
	MarkAllAsRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, id, userID string) (bool, error)
	DeleteOlderThan(ctx context.Context, olderThan time.Time, readOnly bool) (int, error)
}

type pgNotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &pgNotificationRepository{pool: pool}
}

func (r *pgNotificationRepository) Create(ctx context.Context, notification *Notification) error {
	dataJSON := []byte("{}")
	if notification.Data != nil {
		encoded, err := json.Marshal(notification.Data)
		if err != nil {
			return err
		}
		dataJSON = encoded
	}
	query := `
		INSERT INTO notifications (user_id, type, title, message, read, data)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		notification.UserID, notification.Type, notification.Title,
		notification.Message, notification.Read, dataJSON,
	).Scan(&notification.ID, &notification.CreatedAt)
}

func (r *pgNotificationRepository) FindByUserID(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	query := `
		SELECT id, user_id, type, title, message, read, data, created_at
		FROM notifications WHERE user_id = $1
	`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		n := &Notification{}
		var dataJSON []byte
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Read, &dataJSON, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(dataJSON) > 0 {
			_ = json.Unmarshal(dataJSON, &n.Data)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *pgNotificationRepository) CountByUserID(ctx context.Context, userID string) (total int, unread int, err error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE read = FALSE) AS unread
		FROM notifications WHERE user_id = $1
	`
	err = r.pool.QueryRow(ctx, query, userID).Scan(&total, &unread)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, nil
	}
	return
}

func (r *pgNotificationRepository) MarkAsRead(ctx context.Context, id, userID string) (bool, error) {
	notificationID, ok := parseUUID(id)
	if !ok {
		return false, nil
	}
	result, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, notificationID, userID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *pgNotificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`, userID)
	return err
}

func (r *pgNotificationRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	notificationID, ok := parseUUID(id)
	if !ok {
		return false, nil
	}
	result, err := r.pool.Exec(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, notificationID, userID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *pgNotificationRepository) DeleteOlderThan(ctx context.Context, olderThan time.Time, readOnly bool) (int, error) {
	query := `DELETE FROM notifications WHERE created_at < $1`
	if readOnly {
		query += ` AND read = TRUE`
	}
	result, err := r.pool.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}
