package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/padhaidunia/padhaidunia/core"
)

var (
	// errors
	ErrNotFound      = errors.New("notification not found")
	ErrNothingToMark = errors.New("one of ids, type or all is required")
)

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification, exec ...core.DBExecutor) (Notification, error)
		// QueryNotifications lists the notifications of userID, newest first.
		QueryNotifications(ctx context.Context, userID string, filter QueryFilter, exec ...core.DBExecutor) ([]Notification, error)
		CountUnread(ctx context.Context, userID string, exec ...core.DBExecutor) (int, error)
		// MarkRead marks the unread notifications matching filter as read and returns how many changed.
		MarkRead(ctx context.Context, filter MarkFilter, exec ...core.DBExecutor) (int, error)
	}

	// Cache keeps the unread notification count of users.
	Cache interface {
		GetUnreadCount(ctx context.Context, userID string) (count int, found bool, err error)
		SetUnreadCount(ctx context.Context, userID string, count int) error
		InvalidateUnreadCount(ctx context.Context, userID string) error
	}

	Service interface {
		// Notify creates a notification; pass exec to make it part of a transaction.
		// The unread count cache is NOT invalidated: call InvalidateUnreadCount once the transaction is committed.
		Notify(ctx context.Context, nn NewNotification, exec ...core.DBExecutor) (Notification, error)
		List(ctx context.Context, userID string, filter QueryFilter) ([]Notification, error)
		UnreadCount(ctx context.Context, userID string) (int, error)
		MarkRead(ctx context.Context, userID string, mr MarkRead) (int, error)
		// MarkMessageNotificationsRead marks the unread message notifications of userID
		// coming from sourceUserID in courseID ("" for direct messages) as read.
		MarkMessageNotificationsRead(ctx context.Context, userID, sourceUserID, courseID string, exec ...core.DBExecutor) (int, error)
		InvalidateUnreadCount(ctx context.Context, userID string)
	}

	service struct {
		repo   Repository
		cache  Cache
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

// NewService returns a notification Service. cache may be nil.
func NewService(repo Repository, cache Cache, logger core.Logger) Service {
	if cache == nil {
		cache = nopCache{}
	}
	return &service{repo: repo, cache: cache, logger: logger}
}

func (svc *service) Notify(ctx context.Context, nn NewNotification, exec ...core.DBExecutor) (Notification, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(nn.UserID, "userID"),
		vala.StringNotEmpty(nn.Type, "type"),
		vala.StringNotEmpty(nn.Title, "title"),
	).Check(); err != nil {
		return Notification{}, core.NewArgumentError(err)
	}

	n := Notification{
		UserID:    nn.UserID,
		Type:      nn.Type,
		Title:     nn.Title,
		Body:      nn.Body,
		Link:      nn.Link,
		CreatedAt: time.Now().UTC(),
	}
	if nn.SourceUserID != "" {
		n.SourceUserID = &nn.SourceUserID
	}
	if nn.CourseID != "" {
		n.CourseID = &nn.CourseID
	}

	n, err := svc.repo.CreateNotification(ctx, n, exec...)
	if err != nil {
		return Notification{}, errors.Wrap(err, "creating notification")
	}
	return n, nil
}

func (svc *service) List(ctx context.Context, userID string, filter QueryFilter) ([]Notification, error) {
	filter.Clean()
	notifs, err := svc.repo.QueryNotifications(ctx, userID, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	return notifs, nil
}

func (svc *service) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, found, err := svc.cache.GetUnreadCount(ctx, userID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("reading unread count cache: %v", err), err)
	} else if found {
		return count, nil
	}

	if count, err = svc.repo.CountUnread(ctx, userID); err != nil {
		return 0, errors.Wrap(err, "counting unread notifications")
	}
	if err = svc.cache.SetUnreadCount(ctx, userID, count); err != nil {
		svc.logger.Warn(fmt.Sprintf("writing unread count cache: %v", err), err)
	}
	return count, nil
}

func (svc *service) MarkRead(ctx context.Context, userID string, mr MarkRead) (int, error) {
	filter := MarkFilter{UserID: userID}
	if !mr.All {
		filter.IDs = mr.IDs
		filter.Type = mr.Type
	}
	n, err := svc.repo.MarkRead(ctx, filter)
	if err != nil {
		return 0, errors.Wrap(err, "marking notifications read")
	}
	svc.InvalidateUnreadCount(ctx, userID)
	return n, nil
}

func (svc *service) MarkMessageNotificationsRead(ctx context.Context, userID, sourceUserID, courseID string, exec ...core.DBExecutor) (int, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(userID, "userID"),
		vala.StringNotEmpty(sourceUserID, "sourceUserID"),
	).Check(); err != nil {
		return 0, core.NewArgumentError(err)
	}

	n, err := svc.repo.MarkRead(ctx, MarkFilter{
		UserID:       userID,
		Type:         TypeMessage,
		SourceUserID: sourceUserID,
		CourseID:     courseID,
		DirectOnly:   courseID == "",
	}, exec...)
	if err != nil {
		return 0, errors.Wrap(err, "marking message notifications read")
	}
	return n, nil
}

func (svc *service) InvalidateUnreadCount(ctx context.Context, userID string) {
	if err := svc.cache.InvalidateUnreadCount(ctx, userID); err != nil {
		svc.logger.Warn(fmt.Sprintf("invalidating unread count cache: %v", err), err)
	}
}

type nopCache struct{}

func (nopCache) GetUnreadCount(context.Context, string) (int, bool, error) { return 0, false, nil }
func (nopCache) SetUnreadCount(context.Context, string, int) error         { return nil }
func (nopCache) InvalidateUnreadCount(context.Context, string) error       { return nil }
