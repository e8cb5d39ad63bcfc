package chat

import (
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/padhaidunia/padhaidunia/core"
	"github.com/padhaidunia/padhaidunia/core/user"
)

// Message is immutable once sent, except for its read flag and timestamp.
type Message struct {
	ID         string     `json:"id"`
	SenderID   string     `json:"senderId"`
	ReceiverID string     `json:"receiverId"`
	CourseID   *string    `json:"courseId"`
	Content    string     `json:"content"`
	SentAt     time.Time  `json:"sentAt"` // UTC
	IsRead     bool       `json:"isRead"`
	ReadAt     *time.Time `json:"readAt"` // UTC
}

func (m Message) CourseIDString() string {
	if m.CourseID == nil {
		return ""
	}
	return *m.CourseID
}

// Participant holds the display fields of a message party.
type Participant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	Role     string `json:"role"`
}

func ParticipantOf(usr user.User) Participant {
	return Participant{ID: usr.ID, Name: usr.Name, ImageURL: usr.ImageURL, Role: usr.Role}
}

type CourseRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// MessageDetail is a Message with the display fields of its parties and course.
type MessageDetail struct {
	Message
	Sender   Participant `json:"sender"`
	Receiver Participant `json:"receiver"`
	Course   *CourseRef  `json:"course"`
}

// MessageSummary is the last message snapshot of a Conversation.
type MessageSummary struct {
	ID       string    `json:"id,omitempty"`
	Content  string    `json:"content"`
	SenderID string    `json:"senderId,omitempty"`
	SentAt   time.Time `json:"sentAt"`
	IsRead   bool      `json:"isRead"`
}

// Conversation is computed per request from the messages visible to the viewer; it is never stored.
type Conversation struct {
	ID           string         `json:"id"`
	Kind         KeyKind        `json:"kind"`
	Course       *CourseRef     `json:"course"`
	StudentID    string         `json:"studentId,omitempty"`
	OtherUser    Participant    `json:"otherUser"`
	Participants []Participant  `json:"participants"`
	LastMessage  MessageSummary `json:"lastMessage"`
	UnreadCount  int            `json:"unreadCount"`
	Placeholder  bool           `json:"isPlaceholder"`
}

// PlaceholderTime is the last activity of a conversation with no messages.
var PlaceholderTime = time.Unix(0, 0).UTC()

// NewMessage contains information needed to send a message.
type NewMessage struct {
	Content    string `json:"content" validate:"required,notblank"`
	ReceiverID string `json:"receiverId" validate:"required"`
	CourseID   string `json:"courseId"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.ReceiverID = core.CleanString(nm.ReceiverID)
	nm.CourseID = core.CleanString(nm.CourseID)
	return validate.Struct(nm)
}

// SeenRequest marks the messages of SenderID to the viewer as read, in a course or in DirectScope.
type SeenRequest struct {
	SenderID string `json:"senderId" validate:"required"`
	CourseID string `json:"courseId"`
}

func (sr *SeenRequest) Validate(validate *validator.Validate) error {
	sr.SenderID = core.CleanString(sr.SenderID)
	sr.CourseID = core.CleanString(sr.CourseID)
	return validate.Struct(sr)
}

// ThreadFilter selects conversations or a thread. All fields are optional for conversations,
// at least one is required for a thread. ConversationID (a Conversation.ID) takes precedence.
type ThreadFilter struct {
	CourseID       string `query:"courseId"`
	OtherUserID    string `query:"otherUserId"`
	ConversationID string `query:"conversationId"`
}

func (tf *ThreadFilter) Clean() {
	tf.CourseID = core.CleanString(tf.CourseID)
	tf.OtherUserID = core.CleanString(tf.OtherUserID)
	tf.ConversationID = core.CleanString(tf.ConversationID)
}

func (tf ThreadFilter) IsEmpty() bool {
	return tf.CourseID == "" && tf.OtherUserID == "" && tf.ConversationID == ""
}

// QueryFilter is the storage level message filter.
// Visibility fields are combined with AND.
type QueryFilter struct {
	// ParticipantID restricts to messages sent or received by this user.
	ParticipantID string
	// InstituteAdminID restricts to messages on courses of institutes administered by this user,
	// plus the messages this user sent or received.
	InstituteAdminID string
	// CourseID restricts to messages of this course.
	CourseID string
	// DirectOnly restricts to messages sent outside of any course.
	DirectOnly bool
	// InvolvingIDs restricts to messages sent or received by any of these users.
	InvolvingIDs []string
	// Ascending orders by sent_at ASC instead of DESC.
	Ascending bool
	Limit     int
}

// SeenFilter selects the unread messages to mark read.
type SeenFilter struct {
	SenderID   string
	ReceiverID string
	CourseID   string // "" means DirectScope
}

const notificationPreviewLen = 100

func preview(content string) string {
	if utf8.RuneCountInString(content) <= notificationPreviewLen {
		return content
	}
	runes := []rune(content)
	return string(runes[:notificationPreviewLen]) + "…"
}
