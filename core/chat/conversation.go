package chat

import (
	"github.com/padhaidunia/padhaidunia/core/user"
)

// foldConversations groups msgs into conversation buckets as seen by viewer:
// students get one bucket per counterparty, staff one per student.
// msgs are expected newest first: the first message of a bucket sets its other party.
func foldConversations(viewer user.Viewer, msgs []MessageDetail) []Conversation {
	convs := make([]Conversation, 0)
	index := make(map[string]int)

	for _, msg := range msgs {
		key := ViewerKeyFor(viewer, msg.CourseIDString(), msg.Sender, msg.Receiver)
		id := key.String()

		i, ok := index[id]
		if !ok {
			convs = append(convs, Conversation{
				ID:           id,
				Kind:         key.Kind,
				Course:       msg.Course,
				StudentID:    key.StudentID,
				OtherUser:    otherParty(viewer, msg),
				Participants: make([]Participant, 0, 2),
				LastMessage:  summaryOf(msg.Message),
			})
			i = len(convs) - 1
			index[id] = i
		}

		conv := &convs[i]
		if msg.SentAt.After(conv.LastMessage.SentAt) {
			conv.LastMessage = summaryOf(msg.Message)
		}
		conv.addParticipant(msg.Sender)
		conv.addParticipant(msg.Receiver)
		if msg.ReceiverID == viewer.ID && !msg.IsRead {
			conv.UnreadCount++
		}
	}
	return convs
}

// placeholders returns an empty direct conversation between me and each staff member
// who has no direct conversation in convs yet.
func placeholders(me Participant, staff []user.User, convs []Conversation) []Conversation {
	existing := make(map[string]bool, len(convs))
	for _, conv := range convs {
		existing[conv.ID] = true
	}

	phs := make([]Conversation, 0, len(staff))
	for _, s := range staff {
		if s.ID == me.ID {
			continue
		}
		key := PairKey("", me.ID, s.ID)
		id := key.String()
		if existing[id] {
			continue
		}
		existing[id] = true

		other := ParticipantOf(s)
		phs = append(phs, Conversation{
			ID:           id,
			Kind:         key.Kind,
			OtherUser:    other,
			Participants: []Participant{me, other},
			LastMessage:  MessageSummary{SentAt: PlaceholderTime},
			Placeholder:  true,
		})
	}
	return phs
}

// otherParty returns the party of msg shown as the conversation counterpart.
// Viewers that only observe the message (admins, institutes) see the student, or the sender.
func otherParty(viewer user.Viewer, msg MessageDetail) Participant {
	switch {
	case msg.SenderID == viewer.ID:
		return msg.Receiver
	case msg.ReceiverID == viewer.ID:
		return msg.Sender
	case msg.Receiver.Role == user.RoleStudent && msg.Sender.Role != user.RoleStudent:
		return msg.Receiver
	default:
		return msg.Sender
	}
}

func summaryOf(msg Message) MessageSummary {
	return MessageSummary{
		ID:       msg.ID,
		Content:  msg.Content,
		SenderID: msg.SenderID,
		SentAt:   msg.SentAt,
		IsRead:   msg.IsRead,
	}
}

func (c *Conversation) addParticipant(p Participant) {
	for _, existing := range c.Participants {
		if existing.ID == p.ID {
			return
		}
	}
	c.Participants = append(c.Participants, p)
}
