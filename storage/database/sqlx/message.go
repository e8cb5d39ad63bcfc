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
	"github.com/padhaidunia/padhaidunia/core/chat"
)

var messageDetailColumns = []string{
	"m.id", "m.sender_id", "m.receiver_id", "m.course_id", "m.content", "m.sent_at", "m.is_read", "m.read_at",
	"s.name AS sender_name", "s.image_url AS sender_image_url", "s.role AS sender_role",
	"r.name AS receiver_name", "r.image_url AS receiver_image_url", "r.role AS receiver_role",
	"c.title AS course_title",
}

type messageRow struct {
	ID               string      `db:"id"`
	SenderID         string      `db:"sender_id"`
	ReceiverID       string      `db:"receiver_id"`
	CourseID         null.String `db:"course_id"`
	Content          string      `db:"content"`
	SentAt           time.Time   `db:"sent_at"`
	IsRead           bool        `db:"is_read"`
	ReadAt           null.Time   `db:"read_at"`
	SenderName       string      `db:"sender_name"`
	SenderImageURL   null.String `db:"sender_image_url"`
	SenderRole       string      `db:"sender_role"`
	ReceiverName     string      `db:"receiver_name"`
	ReceiverImageURL null.String `db:"receiver_image_url"`
	ReceiverRole     string      `db:"receiver_role"`
	CourseTitle      null.String `db:"course_title"`
}

func (row messageRow) detail() chat.MessageDetail {
	md := chat.MessageDetail{
		Message: chat.Message{
			ID:         row.ID,
			SenderID:   row.SenderID,
			ReceiverID: row.ReceiverID,
			CourseID:   row.CourseID.Ptr(),
			Content:    row.Content,
			SentAt:     row.SentAt.UTC(),
			IsRead:     row.IsRead,
		},
		Sender: chat.Participant{
			ID: row.SenderID, Name: row.SenderName, ImageURL: row.SenderImageURL.String, Role: row.SenderRole,
		},
		Receiver: chat.Participant{
			ID: row.ReceiverID, Name: row.ReceiverName, ImageURL: row.ReceiverImageURL.String, Role: row.ReceiverRole,
		},
	}
	if row.ReadAt.Valid {
		readAt := row.ReadAt.Time.UTC()
		md.ReadAt = &readAt
	}
	if row.CourseID.Valid {
		md.Course = &chat.CourseRef{ID: row.CourseID.String, Title: row.CourseTitle.String}
	}
	return md
}

type messageRepository struct {
	baseRepository
}

var _ chat.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *sqlx.DB) chat.Repository {
	return &messageRepository{baseRepository{db: db}}
}

func (repo *messageRepository) CreateMessage(ctx context.Context, msg chat.Message, exec ...core.DBExecutor) (chat.Message, error) {
	msg.ID = uuid.New().String()
	msg.SentAt = msg.SentAt.UTC()

	query, args, err := psql.Insert("messages").
		Columns("id", "sender_id", "receiver_id", "course_id", "content", "sent_at", "is_read").
		Values(msg.ID, msg.SenderID, msg.ReceiverID, null.StringFromPtr(msg.CourseID), msg.Content, msg.SentAt, false).
		ToSql()
	if err != nil {
		return chat.Message{}, errors.Wrap(err, "building insert query")
	}
	if _, err = repo.getExec(exec).ExecContext(ctx, query, args...); err != nil {
		return chat.Message{}, errors.Wrap(err, "inserting message")
	}
	return msg, nil
}

func (repo *messageRepository) QueryMessages(ctx context.Context, filter *chat.QueryFilter, exec ...core.DBExecutor) ([]chat.MessageDetail, error) {
	if filter == nil {
		filter = new(chat.QueryFilter)
	}
	if filter.CourseID != "" && !isUUID(filter.CourseID) {
		return []chat.MessageDetail{}, nil
	}

	qs := psql.Select(messageDetailColumns...).
		From("messages m").
		Join("users s ON s.id = m.sender_id").
		Join("users r ON r.id = m.receiver_id").
		LeftJoin("courses c ON c.id = m.course_id")

	if id := filter.ParticipantID; id != "" {
		qs = qs.Where(sq.Or{sq.Eq{"m.sender_id": id}, sq.Eq{"m.receiver_id": id}})
	}
	if id := filter.InstituteAdminID; id != "" {
		qs = qs.Where(sq.Or{
			sq.Eq{"m.sender_id": id},
			sq.Eq{"m.receiver_id": id},
			sq.Expr("m.course_id IN (SELECT ic.id FROM courses ic JOIN institutes i ON i.id = ic.institute_id WHERE i.admin_id = ?)", id),
		})
	}
	if filter.CourseID != "" {
		qs = qs.Where(sq.Eq{"m.course_id": filter.CourseID})
	}
	if filter.DirectOnly {
		qs = qs.Where(sq.Eq{"m.course_id": nil})
	}
	if len(filter.InvolvingIDs) > 0 {
		qs = qs.Where(sq.Or{sq.Eq{"m.sender_id": filter.InvolvingIDs}, sq.Eq{"m.receiver_id": filter.InvolvingIDs}})
	}

	if filter.Ascending {
		qs = qs.OrderBy("m.sent_at ASC", "m.id ASC")
	} else {
		qs = qs.OrderBy("m.sent_at DESC", "m.id DESC")
	}
	if filter.Limit > 0 {
		qs = qs.Limit(uint64(filter.Limit))
	}

	query, args, err := qs.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building messages query")
	}
	var rows []messageRow
	if err = sqlx.SelectContext(ctx, repo.getExec(exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}

	msgs := make([]chat.MessageDetail, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.detail())
	}
	return msgs, nil
}

func (repo *messageRepository) MarkRead(ctx context.Context, filter chat.SeenFilter, readAt time.Time, exec ...core.DBExecutor) (int, error) {
	where := sq.And{
		sq.Eq{"sender_id": filter.SenderID},
		sq.Eq{"receiver_id": filter.ReceiverID},
		sq.Eq{"is_read": false},
	}
	if filter.CourseID == "" {
		where = append(where, sq.Eq{"course_id": nil})
	} else if isUUID(filter.CourseID) {
		where = append(where, sq.Eq{"course_id": filter.CourseID})
	} else {
		return 0, nil
	}

	query, args, err := psql.Update("messages").
		Set("is_read", true).
		Set("read_at", readAt.UTC()).
		Where(where).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building update query")
	}
	cnt, err := rowsAffected(repo.getExec(exec).ExecContext(ctx, query, args...))
	if err != nil {
		return 0, errors.Wrap(err, "marking messages read")
	}
	return cnt, nil
}
