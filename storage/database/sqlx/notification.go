package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/padhaidunia/padhaidunia/core"
	"github.com/padhaidunia/padhaidunia/core/notification"
)

var notificationColumns = []string{
	"id", "user_id", "type", "title", "body", "link", "is_read", "source_user_id", "course_id", "created_at",
}

type notificationRow struct {
	ID           string      `db:"id"`
	UserID       string      `db:"user_id"`
	Type         string      `db:"type"`
	Title        string      `db:"title"`
	Body         string      `db:"body"`
	Link         string      `db:"link"`
	IsRead       bool        `db:"is_read"`
	SourceUserID null.String `db:"source_user_id"`
	CourseID     null.String `db:"course_id"`
	CreatedAt    time.Time   `db:"created_at"`
}

func (row notificationRow) notification() notification.Notification {
	return notification.Notification{
		ID:           row.ID,
		UserID:       row.UserID,
		Type:         row.Type,
		Title:        row.Title,
		Body:         row.Body,
		Link:         row.Link,
		IsRead:       row.IsRead,
		SourceUserID: row.SourceUserID.Ptr(),
		CourseID:     row.CourseID.Ptr(),
		CreatedAt:    row.CreatedAt.UTC(),
	}
}

type notificationRepository struct {
	baseRepository
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sqlx.DB) notification.Repository {
	return &notificationRepository{baseRepository{db: db}}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification, exec ...core.DBExecutor) (notification.Notification, error) {
	n.ID = uuid.New().String()
	n.CreatedAt = n.CreatedAt.UTC()

	query, args, err := psql.Insert("notifications").Columns(notificationColumns...).
		Values(
			n.ID, n.UserID, n.Type, n.Title, n.Body, n.Link, n.IsRead,
			null.StringFromPtr(n.SourceUserID), null.StringFromPtr(n.CourseID), n.CreatedAt,
		).
		ToSql()
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "building insert query")
	}
	if _, err = repo.getExec(exec).ExecContext(ctx, query, args...); err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo *notificationRepository) QueryNotifications(ctx context.Context, userID string, filter notification.QueryFilter, exec ...core.DBExecutor) ([]notification.Notification, error) {
	qs := psql.Select(notificationColumns...).From("notifications").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC")
	if filter.UnreadOnly {
		qs = qs.Where(sq.Eq{"is_read": false})
	}
	if filter.Type != "" {
		qs = qs.Where(sq.Eq{"type": filter.Type})
	}
	if filter.Limit > 0 {
		qs = qs.Limit(uint64(filter.Limit))
	}

	query, args, err := qs.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building notifications query")
	}
	var rows []notificationRow
	if err = sqlx.SelectContext(ctx, repo.getExec(exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}

	notifs := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		notifs = append(notifs, row.notification())
	}
	return notifs, nil
}

func (repo *notificationRepository) CountUnread(ctx context.Context, userID string, exec ...core.DBExecutor) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("notifications").
		Where(sq.Eq{"user_id": userID, "is_read": false}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building count query")
	}
	var cnt int
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &cnt, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting unread notifications")
	}
	return cnt, nil
}

func (repo *notificationRepository) MarkRead(ctx context.Context, filter notification.MarkFilter, exec ...core.DBExecutor) (int, error) {
	where := sq.And{sq.Eq{"user_id": filter.UserID}, sq.Eq{"is_read": false}}
	if len(filter.IDs) > 0 {
		ids := validUUIDs(filter.IDs)
		if len(ids) == 0 {
			return 0, nil
		}
		where = append(where, sq.Eq{"id": ids})
	}
	if filter.Type != "" {
		where = append(where, sq.Eq{"type": filter.Type})
	}
	if filter.SourceUserID != "" {
		where = append(where, sq.Eq{"source_user_id": filter.SourceUserID})
	}
	switch {
	case filter.DirectOnly:
		where = append(where, sq.Eq{"course_id": nil})
	case filter.CourseID != "":
		if !isUUID(filter.CourseID) {
			return 0, nil
		}
		where = append(where, sq.Eq{"course_id": filter.CourseID})
	}

	query, args, err := psql.Update("notifications").Set("is_read", true).Where(where).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building update query")
	}
	cnt, err := rowsAffected(repo.getExec(exec).ExecContext(ctx, query, args...))
	if err != nil {
		return 0, errors.Wrap(err, "marking notifications read")
	}
	return cnt, nil
}
