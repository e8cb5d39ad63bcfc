package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/padhaidunia/padhaidunia/core"
	"github.com/padhaidunia/padhaidunia/core/notification"
)

type notificationRepository struct {
	db *DB
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(_ context.Context, n notification.Notification, exec ...core.DBExecutor) (notification.Notification, error) {
	defer repo.db.lockWrite(exec)()

	n.ID = uuid.New().String()
	repo.db.notifications = append(repo.db.notifications, n)
	return n, nil
}

func (repo *notificationRepository) QueryNotifications(_ context.Context, userID string, filter notification.QueryFilter, _ ...core.DBExecutor) ([]notification.Notification, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	notifs := make([]notification.Notification, 0)
	for _, n := range repo.db.notifications {
		if n.UserID != userID || (filter.UnreadOnly && n.IsRead) || (filter.Type != "" && n.Type != filter.Type) {
			continue
		}
		notifs = append(notifs, n)
	}
	sort.SliceStable(notifs, func(i, j int) bool { return notifs[i].CreatedAt.After(notifs[j].CreatedAt) })
	if filter.Limit > 0 && len(notifs) > filter.Limit {
		notifs = notifs[:filter.Limit]
	}
	return notifs, nil
}

func (repo *notificationRepository) CountUnread(_ context.Context, userID string, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var cnt int
	for _, n := range repo.db.notifications {
		if n.UserID == userID && !n.IsRead {
			cnt++
		}
	}
	return cnt, nil
}

func (repo *notificationRepository) MarkRead(_ context.Context, filter notification.MarkFilter, exec ...core.DBExecutor) (int, error) {
	defer repo.db.lockWrite(exec)()

	var cnt int
	for i, n := range repo.db.notifications {
		if n.IsRead || !matchMark(n, filter) {
			continue
		}
		repo.db.notifications[i].IsRead = true
		cnt++
	}
	return cnt, nil
}

func matchMark(n notification.Notification, filter notification.MarkFilter) bool {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}

	if n.UserID != filter.UserID {
		return false
	}
	if len(filter.IDs) > 0 && !core.StringsContain(filter.IDs, n.ID) {
		return false
	}
	if filter.Type != "" && n.Type != filter.Type {
		return false
	}
	if filter.SourceUserID != "" && deref(n.SourceUserID) != filter.SourceUserID {
		return false
	}
	if filter.DirectOnly {
		return n.CourseID == nil
	}
	if filter.CourseID != "" && deref(n.CourseID) != filter.CourseID {
		return false
	}
	return true
}
