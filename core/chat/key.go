package chat

import (
	"net/url"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/padhaidunia/padhaidunia/core/user"
)

type KeyKind string

const (
	// KindCourseStudent buckets every message of a student within a scope, whoever the staff member is.
	KindCourseStudent KeyKind = "course-student"
	// KindDirect buckets the messages exchanged by a pair of users within a scope.
	KindDirect KeyKind = "direct"

	// DirectScope is the scope of messages sent outside of any course.
	DirectScope = "direct"
)

// ConversationKey identifies a conversation bucket.
// Exactly one of StudentID (KindCourseStudent) or Pair (KindDirect) is set.
type ConversationKey struct {
	Kind      KeyKind
	Scope     string // course ID or DirectScope
	StudentID string
	Pair      [2]string // sorted
}

// CourseStudentKey returns the key of the conversation anchored on studentID in the given course.
// An empty courseID means DirectScope.
func CourseStudentKey(courseID, studentID string) ConversationKey {
	return ConversationKey{Kind: KindCourseStudent, Scope: scopeOf(courseID), StudentID: studentID}
}

// PairKey returns the key of the conversation between a and b in the given course.
// It is the only constructor for direct keys: message folding and placeholder synthesis both go through it.
func PairKey(courseID, a, b string) ConversationKey {
	pair := [2]string{a, b}
	if pair[1] < pair[0] {
		pair[0], pair[1] = pair[1], pair[0]
	}
	return ConversationKey{Kind: KindDirect, Scope: scopeOf(courseID), Pair: pair}
}

// KeyFor derives the conversation key of a message exchanged between two parties.
// If exactly one party is a student the key is anchored on that student; otherwise it is the sorted pair.
func KeyFor(courseID string, sender, receiver Participant) ConversationKey {
	senderIsStudent := sender.Role == user.RoleStudent
	receiverIsStudent := receiver.Role == user.RoleStudent
	switch {
	case senderIsStudent && !receiverIsStudent:
		return CourseStudentKey(courseID, sender.ID)
	case receiverIsStudent && !senderIsStudent:
		return CourseStudentKey(courseID, receiver.ID)
	default:
		return PairKey(courseID, sender.ID, receiver.ID)
	}
}

// KeyOf derives the conversation key of msg.
func KeyOf(msg MessageDetail) ConversationKey {
	return KeyFor(msg.CourseIDString(), msg.Sender, msg.Receiver)
}

// ViewerKeyFor derives the key of a message as bucketed for viewer.
// A student party sees one conversation per counterparty; every other viewer gets KeyFor.
func ViewerKeyFor(viewer user.Viewer, courseID string, sender, receiver Participant) ConversationKey {
	if viewer.IsStudent() {
		switch viewer.ID {
		case sender.ID:
			return PairKey(courseID, viewer.ID, receiver.ID)
		case receiver.ID:
			return PairKey(courseID, viewer.ID, sender.ID)
		}
	}
	return KeyFor(courseID, sender, receiver)
}

// Matches reports whether msg belongs to the conversation named by k.
// A direct key holds every message exchanged by its pair in its scope.
func (k ConversationKey) Matches(msg MessageDetail) bool {
	if k.Kind == KindDirect {
		return k == PairKey(msg.CourseIDString(), msg.SenderID, msg.ReceiverID)
	}
	return k == KeyOf(msg)
}

// String returns the kind-prefixed representation of the key, e.g.
// "course-student:<courseId>:<studentId>" or "direct:direct:<userA>:<userB>".
// Segments are query-escaped so ids holding a colon still round-trip through ParseKey.
func (k ConversationKey) String() string {
	parts := []string{string(k.Kind), url.QueryEscape(k.Scope)}
	if k.Kind == KindCourseStudent {
		parts = append(parts, url.QueryEscape(k.StudentID))
	} else {
		parts = append(parts, url.QueryEscape(k.Pair[0]), url.QueryEscape(k.Pair[1]))
	}
	return strings.Join(parts, ":")
}

// CourseID returns the course of the key, or "" for DirectScope.
func (k ConversationKey) CourseID() string {
	if k.Scope == DirectScope {
		return ""
	}
	return k.Scope
}

// Involves reports whether userID is one of the parties named by the key.
func (k ConversationKey) Involves(userID string) bool {
	if k.Kind == KindCourseStudent {
		return k.StudentID == userID
	}
	return k.Pair[0] == userID || k.Pair[1] == userID
}

// ParseKey parses the String representation of a key.
func ParseKey(s string) (ConversationKey, error) {
	parts := strings.Split(s, ":")
	for i, part := range parts {
		unescaped, err := url.QueryUnescape(part)
		if err != nil {
			return ConversationKey{}, errors.Wrapf(ErrInvalidConversation, "parsing %q", s)
		}
		parts[i] = unescaped
	}
	switch {
	case len(parts) == 3 && parts[0] == string(KindCourseStudent) && parts[1] != "" && parts[2] != "":
		return ConversationKey{Kind: KindCourseStudent, Scope: parts[1], StudentID: parts[2]}, nil
	case len(parts) == 4 && parts[0] == string(KindDirect) && parts[1] != "" && parts[2] != "" && parts[3] != "":
		return PairKey(ConversationKey{Scope: parts[1]}.CourseID(), parts[2], parts[3]), nil
	default:
		return ConversationKey{}, errors.Wrapf(ErrInvalidConversation, "parsing %q", s)
	}
}

func scopeOf(courseID string) string {
	if courseID == "" {
		return DirectScope
	}
	return courseID
}

// sortConversations orders conversations by last activity, newest first.
// Placeholders carry the epoch as their timestamp so they always come last.
func sortConversations(convs []Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].LastMessage.SentAt.After(convs[j].LastMessage.SentAt)
	})
}
