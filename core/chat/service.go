package chat

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/padhaidunia/padhaidunia/core"
	"github.com/padhaidunia/padhaidunia/core/course"
	"github.com/padhaidunia/padhaidunia/core/notification"
	"github.com/padhaidunia/padhaidunia/core/user"
)

var (
	// errors
	ErrNotFound            = errors.New("message not found")
	ErrReceiverNotFound    = errors.New("receiver not found")
	ErrSenderNotFound      = errors.New("sender profile not found")
	ErrCourseNotFound      = errors.New("course not found")
	ErrOtherUserNotFound   = errors.New("user not found")
	ErrThreadRequired      = errors.New("one of courseId, otherUserId or conversationId is required")
	ErrSelfMessage         = errors.New("cannot send a message to yourself")
	ErrInvalidConversation = errors.New("invalid conversation id")
)

type (
	Repository interface {
		CreateMessage(ctx context.Context, msg Message, exec ...core.DBExecutor) (Message, error)
		// QueryMessages returns the messages matching filter with the display fields of their parties and course.
		QueryMessages(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]MessageDetail, error)
		// MarkRead marks the unread messages matching filter as read and returns how many changed.
		MarkRead(ctx context.Context, filter SeenFilter, readAt time.Time, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		// ListConversations folds the messages visible to viewer into conversations, most recent activity first.
		ListConversations(ctx context.Context, viewer user.Viewer, filter ThreadFilter) ([]Conversation, error)
		// ListMessages returns the messages of one conversation, oldest first.
		ListMessages(ctx context.Context, viewer user.Viewer, filter ThreadFilter) ([]MessageDetail, error)
		// Send stores the message and the receiver's notification in one transaction.
		Send(ctx context.Context, viewer user.Viewer, nm NewMessage) (MessageDetail, error)
		// MarkSeen marks the messages sent by req.SenderID to viewer in the requested scope as read,
		// along with the matching message notifications.
		MarkSeen(ctx context.Context, viewer user.Viewer, req SeenRequest) (int, error)
	}

	service struct {
		repo     Repository
		tx       core.Transactor
		usrSvc   user.Service
		crsSvc   course.Service
		notifSvc notification.Service
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	tx core.Transactor,
	usrSvc user.Service,
	crsSvc course.Service,
	notifSvc notification.Service,
) Service {
	return &service{
		repo:     repo,
		tx:       tx,
		usrSvc:   usrSvc,
		crsSvc:   crsSvc,
		notifSvc: notifSvc,
	}
}

// visibility returns the messages viewer is allowed to see:
// students and teachers their own, institutes the ones on their institutes' courses plus their own,
// admins everything.
func visibility(viewer user.Viewer) *QueryFilter {
	switch viewer.Role {
	case user.RoleAdmin:
		return &QueryFilter{}
	case user.RoleInstitute:
		return &QueryFilter{InstituteAdminID: viewer.ID}
	default:
		return &QueryFilter{ParticipantID: viewer.ID}
	}
}

func (svc *service) ListConversations(ctx context.Context, viewer user.Viewer, tf ThreadFilter) ([]Conversation, error) {
	if err := checkViewer(viewer); err != nil {
		return nil, err
	}
	tf.Clean()
	conversationsListed.WithLabelValues(viewer.Role).Inc()

	filter := visibility(viewer)
	filter.CourseID = tf.CourseID
	if tf.OtherUserID != "" {
		filter.InvolvingIDs = []string{tf.OtherUserID}
	}

	msgs, err := svc.repo.QueryMessages(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}
	convs := foldConversations(viewer, msgs)

	// staff can start a direct conversation with any other staff member
	if viewer.IsStaff() && tf.CourseID == "" {
		staff, err := svc.usrSvc.ListStaff(ctx, viewer.ID)
		if err != nil {
			return nil, errors.Wrap(err, "listing staff")
		}
		if tf.OtherUserID != "" {
			staff = filterUsers(staff, tf.OtherUserID)
		}
		if len(staff) > 0 {
			me, err := svc.participant(ctx, viewer)
			if err != nil {
				return nil, err
			}
			convs = append(convs, placeholders(me, staff, convs)...)
		}
	}

	sortConversations(convs)
	return convs, nil
}

func (svc *service) ListMessages(ctx context.Context, viewer user.Viewer, tf ThreadFilter) ([]MessageDetail, error) {
	if err := checkViewer(viewer); err != nil {
		return nil, err
	}
	tf.Clean()
	if tf.IsEmpty() {
		return nil, core.NewValidationError(ErrThreadRequired)
	}

	filter := visibility(viewer)
	filter.Ascending = true

	var target *ConversationKey
	switch {
	case tf.ConversationID != "":
		key, err := ParseKey(tf.ConversationID)
		if err != nil {
			return nil, core.NewValidationError(ErrInvalidConversation)
		}
		target = &key
	case tf.OtherUserID != "":
		other, err := svc.usrSvc.GetByID(ctx, tf.OtherUserID)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return nil, ErrOtherUserNotFound
			}
			return nil, errors.Wrap(err, "finding other user")
		}
		key := ViewerKeyFor(viewer, tf.CourseID, Participant{ID: viewer.ID, Role: viewer.Role}, ParticipantOf(other))
		target = &key
	}

	if target != nil {
		filter.CourseID = target.CourseID()
		filter.DirectOnly = target.Scope == DirectScope
		if target.Kind == KindCourseStudent {
			filter.InvolvingIDs = []string{target.StudentID}
		} else {
			filter.InvolvingIDs = []string{target.Pair[0]}
		}
	} else {
		filter.CourseID = tf.CourseID
	}

	msgs, err := svc.repo.QueryMessages(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}
	if target == nil {
		return msgs, nil
	}

	thread := make([]MessageDetail, 0, len(msgs))
	for _, msg := range msgs {
		if target.Matches(msg) {
			thread = append(thread, msg)
		}
	}
	return thread, nil
}

func (svc *service) Send(ctx context.Context, viewer user.Viewer, nm NewMessage) (MessageDetail, error) {
	if err := checkViewer(viewer); err != nil {
		return MessageDetail{}, err
	}
	if nm.ReceiverID == viewer.ID {
		return MessageDetail{}, core.NewValidationError(nil, core.FieldError{Field: "receiverId", Error: ErrSelfMessage.Error()})
	}

	sender, err := svc.usrSvc.GetByID(ctx, viewer.ID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return MessageDetail{}, ErrSenderNotFound
		}
		return MessageDetail{}, errors.Wrap(err, "finding sender")
	}
	receiver, err := svc.usrSvc.GetByID(ctx, nm.ReceiverID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return MessageDetail{}, ErrReceiverNotFound
		}
		return MessageDetail{}, errors.Wrap(err, "finding receiver")
	}

	var crsRef *CourseRef
	if nm.CourseID != "" {
		crs, err := svc.crsSvc.GetCourse(ctx, nm.CourseID)
		if err != nil {
			if errors.Cause(err) == course.ErrNotFound {
				return MessageDetail{}, ErrCourseNotFound
			}
			return MessageDetail{}, errors.Wrap(err, "finding course")
		}
		crsRef = &CourseRef{ID: crs.ID, Title: crs.Title}
	}

	msg := Message{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Content:    nm.Content,
		SentAt:     time.Now().UTC(),
	}
	if crsRef != nil {
		msg.CourseID = &crsRef.ID
	}

	err = svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if msg, err = svc.repo.CreateMessage(ctx, msg, exec); err != nil {
			return errors.Wrap(err, "creating message")
		}
		_, err = svc.notifSvc.Notify(ctx, notification.NewNotification{
			UserID:       receiver.ID,
			Type:         notification.TypeMessage,
			Title:        fmt.Sprintf("New message from %s", sender.Name),
			Body:         preview(msg.Content),
			Link:         messageLink(receiver, sender.ID, msg.CourseIDString()),
			SourceUserID: sender.ID,
			CourseID:     msg.CourseIDString(),
		}, exec)
		return errors.Wrap(err, "notifying receiver")
	})
	if err != nil {
		return MessageDetail{}, errors.Wrap(err, "sending message")
	}
	svc.notifSvc.InvalidateUnreadCount(ctx, receiver.ID)
	messagesSent.WithLabelValues(viewer.Role).Inc()

	return MessageDetail{
		Message:  msg,
		Sender:   ParticipantOf(sender),
		Receiver: ParticipantOf(receiver),
		Course:   crsRef,
	}, nil
}

func (svc *service) MarkSeen(ctx context.Context, viewer user.Viewer, req SeenRequest) (int, error) {
	if err := checkViewer(viewer); err != nil {
		return 0, err
	}
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(req.SenderID, "senderID"),
	).Check(); err != nil {
		return 0, core.NewArgumentError(err)
	}

	var n int
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		var err error
		n, err = svc.repo.MarkRead(ctx, SeenFilter{
			SenderID:   req.SenderID,
			ReceiverID: viewer.ID,
			CourseID:   req.CourseID,
		}, time.Now().UTC(), exec)
		if err != nil {
			return errors.Wrap(err, "marking messages read")
		}
		_, err = svc.notifSvc.MarkMessageNotificationsRead(ctx, viewer.ID, req.SenderID, req.CourseID, exec)
		return errors.Wrap(err, "marking message notifications read")
	})
	if err != nil {
		return 0, errors.Wrap(err, "marking seen")
	}
	svc.notifSvc.InvalidateUnreadCount(ctx, viewer.ID)
	messagesSeen.Add(float64(n))
	return n, nil
}

func (svc *service) participant(ctx context.Context, viewer user.Viewer) (Participant, error) {
	usr, err := svc.usrSvc.GetByID(ctx, viewer.ID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Participant{ID: viewer.ID, Role: viewer.Role}, nil
		}
		return Participant{}, errors.Wrap(err, "finding viewer")
	}
	return ParticipantOf(usr), nil
}

// messageLink returns where the receiver lands when opening the notification.
// Students have no message center: course messages send them to the course page.
func messageLink(receiver user.User, senderID, courseID string) string {
	if receiver.IsStudent() && courseID != "" {
		return "/student/courses/" + url.PathEscape(courseID)
	}
	q := make(url.Values)
	q.Set("otherUserId", senderID)
	if courseID != "" {
		q.Set("courseId", courseID)
	}
	return "/" + receiver.Role + "/messages?" + q.Encode()
}

func checkViewer(viewer user.Viewer) error {
	return core.NewArgumentError(vala.BeginValidation().Validate(
		vala.StringNotEmpty(viewer.ID, "viewer.ID"),
		vala.StringNotEmpty(viewer.Role, "viewer.Role"),
	).Check())
}

func filterUsers(users []user.User, id string) []user.User {
	for _, usr := range users {
		if usr.ID == id {
			return []user.User{usr}
		}
	}
	return nil
}
