package notification

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/padhaidunia/padhaidunia/core"
)

// Notification types
const (
	TypeMessage = "message"
)

var Types = []string{TypeMessage}

// Notification is immutable once created, except for its read flag.
type Notification struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Link         string    `json:"link"`
	IsRead       bool      `json:"isRead"`
	SourceUserID *string   `json:"sourceUserId"`
	CourseID     *string   `json:"courseId"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
}

// NewNotification contains information needed to notify a user.
// SourceUserID and CourseID are optional.
type NewNotification struct {
	UserID       string
	Type         string
	Title        string
	Body         string
	Link         string
	SourceUserID string
	CourseID     string
}

type QueryFilter struct {
	UnreadOnly bool   `query:"unread"`
	Type       string `query:"type"`
	Limit      int    `query:"limit"`
}

const (
	defaultLimit = 50
	maxLimit     = 200
)

func (qf *QueryFilter) Clean() {
	qf.Type = core.CleanString(qf.Type, true /* lower */)
	if qf.Limit <= 0 {
		qf.Limit = defaultLimit
	} else if qf.Limit > maxLimit {
		qf.Limit = maxLimit
	}
}

// MarkRead is the PATCH payload: mark the given IDs, all notifications of Type, or everything (All) as read.
type MarkRead struct {
	IDs  []string `json:"ids" validate:"omitempty,dive,required"`
	Type string   `json:"type" validate:"omitempty,oneof=message"`
	All  bool     `json:"all"`
}

func (mr *MarkRead) Validate(validate *validator.Validate) error {
	mr.Type = core.CleanString(mr.Type, true /* lower */)
	if err := validate.Struct(mr); err != nil {
		return err
	}
	if !mr.All && mr.Type == "" && len(mr.IDs) == 0 {
		return core.NewValidationError(ErrNothingToMark)
	}
	return nil
}

// MarkFilter is the storage level filter of MarkRead. Empty fields are ignored, except
// CourseID which is matched as NULL when DirectOnly is set.
type MarkFilter struct {
	UserID       string
	IDs          []string
	Type         string
	SourceUserID string
	CourseID     string
	DirectOnly   bool
}
