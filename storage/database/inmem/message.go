package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/padhaidunia/padhaidunia/core"
	"github.com/padhaidunia/padhaidunia/core/chat"
)

type messageRepository struct {
	db *DB
}

var _ chat.Repository = (*messageRepository)(nil)

func NewMessageRepository(db *DB) chat.Repository {
	return &messageRepository{db: db}
}

func (repo *messageRepository) CreateMessage(_ context.Context, msg chat.Message, exec ...core.DBExecutor) (chat.Message, error) {
	defer repo.db.lockWrite(exec)()

	msg.ID = uuid.New().String()
	repo.db.messages = append(repo.db.messages, msg)
	return msg, nil
}

func (repo *messageRepository) QueryMessages(_ context.Context, filter *chat.QueryFilter, _ ...core.DBExecutor) ([]chat.MessageDetail, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter == nil {
		filter = new(chat.QueryFilter)
	}
	msgs := make([]chat.MessageDetail, 0)
	for _, msg := range repo.db.messages {
		if repo.match(msg, filter) {
			msgs = append(msgs, repo.detail(msg))
		}
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		if filter.Ascending {
			return msgs[i].SentAt.Before(msgs[j].SentAt)
		}
		return msgs[i].SentAt.After(msgs[j].SentAt)
	})
	if filter.Limit > 0 && len(msgs) > filter.Limit {
		msgs = msgs[:filter.Limit]
	}
	return msgs, nil
}

// match expects the read lock to be held.
func (repo *messageRepository) match(msg chat.Message, filter *chat.QueryFilter) bool {
	involves := func(id string) bool { return msg.SenderID == id || msg.ReceiverID == id }
	courseID := msg.CourseIDString()

	if filter.ParticipantID != "" && !involves(filter.ParticipantID) {
		return false
	}
	if filter.InstituteAdminID != "" && !involves(filter.InstituteAdminID) {
		crs, ok := repo.db.courses[courseID]
		if !ok || repo.db.institutes[crs.InstituteID].AdminID != filter.InstituteAdminID {
			return false
		}
	}
	if filter.CourseID != "" && courseID != filter.CourseID {
		return false
	}
	if filter.DirectOnly && courseID != "" {
		return false
	}
	if len(filter.InvolvingIDs) > 0 {
		var ok bool
		for _, id := range filter.InvolvingIDs {
			if involves(id) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// detail expects the read lock to be held.
func (repo *messageRepository) detail(msg chat.Message) chat.MessageDetail {
	md := chat.MessageDetail{
		Message:  msg,
		Sender:   repo.participant(msg.SenderID),
		Receiver: repo.participant(msg.ReceiverID),
	}
	if crs, ok := repo.db.courses[msg.CourseIDString()]; ok {
		md.Course = &chat.CourseRef{ID: crs.ID, Title: crs.Title}
	}
	return md
}

func (repo *messageRepository) participant(id string) chat.Participant {
	if usr, ok := repo.db.users[id]; ok {
		return chat.ParticipantOf(usr)
	}
	return chat.Participant{ID: id}
}

func (repo *messageRepository) MarkRead(_ context.Context, filter chat.SeenFilter, readAt time.Time, exec ...core.DBExecutor) (int, error) {
	defer repo.db.lockWrite(exec)()

	var cnt int
	for i, msg := range repo.db.messages {
		if msg.IsRead || msg.SenderID != filter.SenderID || msg.ReceiverID != filter.ReceiverID ||
			msg.CourseIDString() != filter.CourseID {
			continue
		}
		at := readAt
		repo.db.messages[i].IsRead = true
		repo.db.messages[i].ReadAt = &at
		cnt++
	}
	return cnt, nil
}
