package tests

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padhaidunia/padhaidunia/core/chat"
	"github.com/padhaidunia/padhaidunia/core/notification"
	"github.com/padhaidunia/padhaidunia/core/user"
	"github.com/padhaidunia/padhaidunia/tests"
)

func threadPath(base, courseID, otherUserID string) string {
	v := make(url.Values)
	if courseID != "" {
		v.Set("courseId", courseID)
	}
	if otherUserID != "" {
		v.Set("otherUserId", otherUserID)
	}
	if len(v) == 0 {
		return base
	}
	return base + "?" + v.Encode()
}

func sendMessage(t *testing.T, token string, nm chat.NewMessage) chat.MessageDetail {
	t.Helper()
	rec := do(http.MethodPost, "/api/chat/messages", token, marchallObj(t, nm))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var msg chat.MessageDetail
	unmarshal(t, rec, &msg)
	return msg
}

func listMessages(t *testing.T, token, courseID, otherUserID string) []chat.MessageDetail {
	t.Helper()
	rec := do(http.MethodGet, threadPath("/api/chat/messages", courseID, otherUserID), token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var msgs []chat.MessageDetail
	unmarshal(t, rec, &msgs)
	return msgs
}

func listConversations(t *testing.T, token, courseID, otherUserID string) []chat.Conversation {
	t.Helper()
	rec := do(http.MethodGet, threadPath("/api/chat/conversations", courseID, otherUserID), token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var convs []chat.Conversation
	unmarshal(t, rec, &convs)
	return convs
}

func Test_chatApi_authRequired(t *testing.T) {
	resetDB()

	tests := []httpTest{
		{name: "conversations", path: "/api/chat/conversations"},
		{name: "messages", path: "/api/chat/messages?courseId=c1"},
		{name: "send", method: http.MethodPost, path: "/api/chat/messages", body: []byte(`{"content":"hi","receiverId":"x"}`)},
		{name: "seen", method: http.MethodPost, path: "/api/chat/seen", body: []byte(`{"senderId":"x"}`)},
		{name: "notifications", path: "/api/notifications"},
		{name: "mark notifications", method: http.MethodPatch, path: "/api/notifications", body: []byte(`{"all":true}`)},
	}
	for _, tt := range tests {
		tt.wantCode = http.StatusUnauthorized
		tt.wantData = marchallObj(t, errMissingToken)
		invalid := tt
		invalid.name += " (invalid token)"
		invalid.token = "not.a.jwt"
		invalid.wantData = marchallObj(t, errInvalidToken)
		runHTTPTests(t, []httpTest{tt, invalid})
	}

	// nothing was written
	msgs, err := msgRepo.QueryMessages(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func Test_chatApi_send(t *testing.T) {
	s := seedSchool(t)
	studentToken := getToken(t, s.student)
	teacherToken := getToken(t, s.teacher)

	t.Run("course message", func(t *testing.T) {
		msg := sendMessage(t, studentToken, chat.NewMessage{Content: "Is homework due today?", ReceiverID: s.teacher.ID, CourseID: s.c1.ID})
		assert.NotEmpty(t, msg.ID)
		assert.Equal(t, "Is homework due today?", msg.Content)
		assert.Equal(t, s.student.ID, msg.SenderID)
		assert.Equal(t, s.teacher.ID, msg.ReceiverID)
		require.NotNil(t, msg.CourseID)
		assert.Equal(t, s.c1.ID, *msg.CourseID)
		assert.False(t, msg.IsRead)
		assert.Equal(t, s.student.Name, msg.Sender.Name)
		assert.Equal(t, user.RoleTeacher, msg.Receiver.Role)
		require.NotNil(t, msg.Course)
		assert.Equal(t, s.c1.Title, msg.Course.Title)

		// the receiver is notified in the same go
		var notifs []notification.Notification
		rec := do(http.MethodGet, "/api/notifications", teacherToken)
		require.Equal(t, http.StatusOK, rec.Code)
		unmarshal(t, rec, &notifs)
		require.Len(t, notifs, 1)
		assert.Equal(t, notification.TypeMessage, notifs[0].Type)
		assert.Equal(t, "New message from "+s.student.Name, notifs[0].Title)
		assert.Equal(t, msg.Content, notifs[0].Body)
		assert.Equal(t, "/teacher/messages?courseId="+s.c1.ID+"&otherUserId="+s.student.ID, notifs[0].Link)
		assert.False(t, notifs[0].IsRead)
	})

	t.Run("students land on the course page", func(t *testing.T) {
		sendMessage(t, teacherToken, chat.NewMessage{Content: "Yes, by 5pm", ReceiverID: s.student.ID, CourseID: s.c1.ID})

		var notifs []notification.Notification
		rec := do(http.MethodGet, "/api/notifications", studentToken)
		unmarshal(t, rec, &notifs)
		require.Len(t, notifs, 1)
		assert.Equal(t, "/student/courses/"+s.c1.ID, notifs[0].Link)
	})

	t.Run("direct message", func(t *testing.T) {
		msg := sendMessage(t, getToken(t, s.instAdmin), chat.NewMessage{Content: "Staff meeting at 4", ReceiverID: s.teacher.ID})
		assert.Nil(t, msg.CourseID)
		assert.Nil(t, msg.Course)
	})

	tests := []httpTest{
		{
			name: "content required", method: http.MethodPost, path: "/api/chat/messages", token: studentToken,
			body:     marchallObj(t, chat.NewMessage{ReceiverID: s.teacher.ID}),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"content":"this field is required"}`),
		},
		{
			name: "receiver required", method: http.MethodPost, path: "/api/chat/messages", token: studentToken,
			body:     marchallObj(t, chat.NewMessage{Content: "hello"}),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"receiverId":"this field is required"}`),
		},
		{
			name: "no messages to self", method: http.MethodPost, path: "/api/chat/messages", token: studentToken,
			body:     marchallObj(t, chat.NewMessage{Content: "hello", ReceiverID: s.student.ID}),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"receiverId":"cannot send a message to yourself"}`),
		},
		{
			name: "unknown receiver", method: http.MethodPost, path: "/api/chat/messages", token: studentToken,
			body:     marchallObj(t, chat.NewMessage{Content: "hello", ReceiverID: "user_unknown"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "receiver not found"}),
		},
		{
			name: "unknown course", method: http.MethodPost, path: "/api/chat/messages", token: studentToken,
			body:     marchallObj(t, chat.NewMessage{Content: "hello", ReceiverID: s.teacher.ID, CourseID: "9b2b7a4e-4c2d-4d0e-8a9f-1f1f1f1f1f1f"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "course not found"}),
		},
		{
			name: "unknown sender", method: http.MethodPost, path: "/api/chat/messages",
			token:    getToken(t, user.User{ID: "user_ghost", Role: user.RoleStudent}),
			body:     marchallObj(t, chat.NewMessage{Content: "hello", ReceiverID: s.teacher.ID}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "sender profile not found"}),
		},
	}
	runHTTPTests(t, tests)
}

func Test_chatApi_sendTwiceThenList(t *testing.T) {
	s := seedSchool(t)
	studentToken := getToken(t, s.student)

	first := sendMessage(t, studentToken, chat.NewMessage{Content: "ping", ReceiverID: s.teacher.ID, CourseID: s.c1.ID})
	second := sendMessage(t, studentToken, chat.NewMessage{Content: "ping", ReceiverID: s.teacher.ID, CourseID: s.c1.ID})
	assert.NotEqual(t, first.ID, second.ID, "identical sends are not merged")

	for name, token := range map[string]string{
		"sender":   studentToken,
		"receiver": getToken(t, s.teacher),
	} {
		t.Run(name, func(t *testing.T) {
			other := s.teacher.ID
			if token != studentToken {
				other = s.student.ID
			}
			msgs := listMessages(t, token, s.c1.ID, other)
			require.Len(t, msgs, 2)
			assert.Equal(t, first.ID, msgs[0].ID)
			assert.Equal(t, second.ID, msgs[1].ID)
			assert.False(t, msgs[1].SentAt.Before(msgs[0].SentAt), "oldest first")
		})
	}

	// a message outside of the course is another thread
	sendMessage(t, studentToken, chat.NewMessage{Content: "pong", ReceiverID: s.teacher.ID})
	assert.Len(t, listMessages(t, studentToken, s.c1.ID, s.teacher.ID), 2)
	assert.Len(t, listMessages(t, studentToken, "", s.teacher.ID), 1)
}

func Test_chatApi_listMessages(t *testing.T) {
	s := seedSchool(t)
	now := time.Now()

	m1 := testutil.CreateMessage(t, msgRepo, s.teacher.ID, s.student.ID, s.c1.ID, "Welcome to Algebra", now.Add(-50*time.Minute))
	m2 := testutil.CreateMessage(t, msgRepo, s.student.ID, s.teacher.ID, s.c1.ID, "Thank you ma'am", now.Add(-40*time.Minute))
	m3 := testutil.CreateMessage(t, msgRepo, s.teacher2.ID, s.student.ID, s.c1.ID, "I will cover the next class", now.Add(-30*time.Minute))
	testutil.CreateMessage(t, msgRepo, s.teacher.ID, s.student2.ID, s.c1.ID, "Please submit", now.Add(-20*time.Minute))
	testutil.CreateMessage(t, msgRepo, s.teacher.ID, s.student.ID, s.c2.ID, "Other course", now.Add(-10*time.Minute))

	ids := func(msgs []chat.MessageDetail) []string {
		res := make([]string, 0, len(msgs))
		for _, msg := range msgs {
			res = append(res, msg.ID)
		}
		return res
	}

	t.Run("student only sees the thread with the requested user", func(t *testing.T) {
		studentToken := getToken(t, s.student)
		assert.Equal(t, []string{m1.ID, m2.ID}, ids(listMessages(t, studentToken, s.c1.ID, s.teacher.ID)))
		assert.Equal(t, []string{m3.ID}, ids(listMessages(t, studentToken, s.c1.ID, s.teacher2.ID)))
	})
	t.Run("student by conversation id", func(t *testing.T) {
		path := "/api/chat/messages?conversationId=" + url.QueryEscape(chat.PairKey(s.c1.ID, s.student.ID, s.teacher2.ID).String())
		rec := do(http.MethodGet, path, getToken(t, s.student))
		require.Equal(t, http.StatusOK, rec.Code)
		var msgs []chat.MessageDetail
		unmarshal(t, rec, &msgs)
		assert.Equal(t, []string{m3.ID}, ids(msgs))
	})
	t.Run("teacher only sees their own messages", func(t *testing.T) {
		msgs := listMessages(t, getToken(t, s.teacher), s.c1.ID, s.student.ID)
		assert.Equal(t, []string{m1.ID, m2.ID}, ids(msgs))
	})
	t.Run("institute sees the whole thread", func(t *testing.T) {
		msgs := listMessages(t, getToken(t, s.instAdmin), s.c1.ID, s.student.ID)
		assert.Equal(t, []string{m1.ID, m2.ID, m3.ID}, ids(msgs))
	})
	t.Run("other institute sees nothing", func(t *testing.T) {
		assert.Empty(t, listMessages(t, getToken(t, s.otherInstAdmin), s.c1.ID, s.student.ID))
	})
	t.Run("admin by conversation id", func(t *testing.T) {
		path := "/api/chat/messages?conversationId=" + url.QueryEscape(chat.CourseStudentKey(s.c1.ID, s.student.ID).String())
		rec := do(http.MethodGet, path, getToken(t, s.admin))
		require.Equal(t, http.StatusOK, rec.Code)
		var msgs []chat.MessageDetail
		unmarshal(t, rec, &msgs)
		assert.Equal(t, []string{m1.ID, m2.ID, m3.ID}, ids(msgs))
	})
	t.Run("course only", func(t *testing.T) {
		assert.Len(t, listMessages(t, getToken(t, s.teacher), s.c1.ID, ""), 3)
	})

	adminToken := getToken(t, s.admin)
	tests := []httpTest{
		{
			name: "a thread is required", path: "/api/chat/messages", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: chat.ErrThreadRequired.Error()}),
		},
		{
			name: "invalid conversation id", path: "/api/chat/messages?conversationId=lol", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: chat.ErrInvalidConversation.Error()}),
		},
		{
			name: "unknown other user", path: threadPath("/api/chat/messages", "", "user_unknown"), token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "user not found"}),
		},
		{name: "empty thread", path: threadPath("/api/chat/messages", s.c3.ID, ""), token: adminToken, wantData: marchallList(t)},
	}
	runHTTPTests(t, tests)
}

func Test_chatApi_listConversations(t *testing.T) {
	s := seedSchool(t)
	now := time.Now()

	testutil.CreateMessage(t, msgRepo, s.teacher.ID, s.student.ID, s.c1.ID, "Welcome", now.Add(-50*time.Minute))
	testutil.CreateMessage(t, msgRepo, s.student.ID, s.teacher.ID, s.c1.ID, "Thanks", now.Add(-40*time.Minute))
	m3 := testutil.CreateMessage(t, msgRepo, s.teacher2.ID, s.student.ID, s.c1.ID, "Substituting today", now.Add(-30*time.Minute))
	m4 := testutil.CreateMessage(t, msgRepo, s.instAdmin.ID, s.teacher.ID, "", "Staff meeting at 4", now.Add(-20*time.Minute))
	m5 := testutil.CreateMessage(t, msgRepo, s.teacher.ID, s.student2.ID, s.c2.ID, "See me after class", now.Add(-10*time.Minute))

	c1Student := chat.CourseStudentKey(s.c1.ID, s.student.ID).String()
	c2Student2 := chat.CourseStudentKey(s.c2.ID, s.student2.ID).String()
	staffPair := chat.PairKey("", s.instAdmin.ID, s.teacher.ID).String()

	checkOrder := func(t *testing.T, convs []chat.Conversation) {
		t.Helper()
		for i := 1; i < len(convs); i++ {
			assert.False(t, convs[i].LastMessage.SentAt.After(convs[i-1].LastMessage.SentAt), "newest first")
			if convs[i-1].Placeholder {
				assert.True(t, convs[i].Placeholder, "placeholders come last")
			}
		}
	}
	convIDs := func(convs []chat.Conversation) []string {
		res := make([]string, 0, len(convs))
		for _, c := range convs {
			if !c.Placeholder {
				res = append(res, c.ID)
			}
		}
		return res
	}
	placeholderUsers := func(convs []chat.Conversation) []string {
		res := make([]string, 0)
		for _, c := range convs {
			if c.Placeholder {
				assert.True(t, c.LastMessage.SentAt.Equal(chat.PlaceholderTime))
				res = append(res, c.OtherUser.ID)
			}
		}
		return res
	}

	t.Run("student gets one conversation per teacher", func(t *testing.T) {
		convs := listConversations(t, getToken(t, s.student), "", "")
		checkOrder(t, convs)
		require.Len(t, convs, 2)

		withTeacher2 := convs[0]
		assert.Equal(t, chat.PairKey(s.c1.ID, s.student.ID, s.teacher2.ID).String(), withTeacher2.ID)
		assert.Equal(t, chat.KindDirect, withTeacher2.Kind)
		assert.Equal(t, m3.ID, withTeacher2.LastMessage.ID)
		assert.Equal(t, s.teacher2.ID, withTeacher2.OtherUser.ID)
		assert.Equal(t, 1, withTeacher2.UnreadCount)
		assert.Len(t, withTeacher2.Participants, 2)

		withTeacher := convs[1]
		assert.Equal(t, chat.PairKey(s.c1.ID, s.student.ID, s.teacher.ID).String(), withTeacher.ID)
		assert.Equal(t, s.teacher.ID, withTeacher.OtherUser.ID)
		assert.Equal(t, "Thanks", withTeacher.LastMessage.Content)
		assert.Equal(t, 1, withTeacher.UnreadCount)
		assert.Len(t, withTeacher.Participants, 2)
	})

	t.Run("teacher", func(t *testing.T) {
		convs := listConversations(t, getToken(t, s.teacher), "", "")
		checkOrder(t, convs)
		assert.Equal(t, []string{c2Student2, staffPair, c1Student}, convIDs(convs))
		assert.ElementsMatch(t, []string{s.admin.ID, s.otherInstAdmin.ID, s.teacher2.ID}, placeholderUsers(convs))
		assert.Equal(t, s.instAdmin.ID, convs[1].OtherUser.ID)
		assert.Equal(t, 1, convs[1].UnreadCount)
		assert.Equal(t, 1, convs[2].UnreadCount)
	})

	t.Run("institute", func(t *testing.T) {
		convs := listConversations(t, getToken(t, s.instAdmin), "", "")
		checkOrder(t, convs)
		assert.Equal(t, []string{c2Student2, staffPair, c1Student}, convIDs(convs))
		assert.ElementsMatch(t, []string{s.admin.ID, s.otherInstAdmin.ID, s.teacher2.ID}, placeholderUsers(convs))
	})

	t.Run("admin", func(t *testing.T) {
		convs := listConversations(t, getToken(t, s.admin), "", "")
		checkOrder(t, convs)
		assert.Equal(t, []string{c2Student2, staffPair, c1Student}, convIDs(convs))
		assert.ElementsMatch(t, []string{s.instAdmin.ID, s.otherInstAdmin.ID, s.teacher.ID, s.teacher2.ID}, placeholderUsers(convs))
		assert.Equal(t, m5.ID, convs[0].LastMessage.ID)
		assert.Equal(t, s.student2.ID, convs[0].OtherUser.ID)
		assert.Equal(t, m4.ID, convs[1].LastMessage.ID)
		// the student bucket holds both teachers
		assert.Equal(t, s.student.ID, convs[2].OtherUser.ID)
		assert.Len(t, convs[2].Participants, 3)
		for _, c := range convs {
			assert.Zero(t, c.UnreadCount)
		}
	})

	t.Run("other institute only gets placeholders", func(t *testing.T) {
		convs := listConversations(t, getToken(t, s.otherInstAdmin), "", "")
		assert.Empty(t, convIDs(convs))
		assert.ElementsMatch(t, []string{s.admin.ID, s.instAdmin.ID, s.teacher.ID, s.teacher2.ID}, placeholderUsers(convs))
	})

	t.Run("course filter", func(t *testing.T) {
		convs := listConversations(t, getToken(t, s.teacher), s.c1.ID, "")
		require.Len(t, convs, 1)
		assert.Equal(t, c1Student, convs[0].ID)
		assert.False(t, convs[0].Placeholder)
	})

	t.Run("other user filter", func(t *testing.T) {
		convs := listConversations(t, getToken(t, s.teacher), "", s.instAdmin.ID)
		require.Len(t, convs, 1)
		assert.Equal(t, staffPair, convs[0].ID)

		convs = listConversations(t, getToken(t, s.teacher), "", s.admin.ID)
		require.Len(t, convs, 1)
		assert.True(t, convs[0].Placeholder)
		assert.Equal(t, chat.PairKey("", s.teacher.ID, s.admin.ID).String(), convs[0].ID)
	})

	t.Run("placeholder matches the conversation once a message is sent", func(t *testing.T) {
		teacherToken := getToken(t, s.teacher)
		sendMessage(t, teacherToken, chat.NewMessage{Content: "Hello admin", ReceiverID: s.admin.ID})

		convs := listConversations(t, teacherToken, "", s.admin.ID)
		require.Len(t, convs, 1)
		assert.False(t, convs[0].Placeholder)
		assert.Equal(t, chat.PairKey("", s.teacher.ID, s.admin.ID).String(), convs[0].ID)
	})
}

func Test_chatApi_markSeen(t *testing.T) {
	s := seedSchool(t)
	teacherToken := getToken(t, s.teacher)
	studentToken := getToken(t, s.student)

	sendMessage(t, teacherToken, chat.NewMessage{Content: "c1 #1", ReceiverID: s.student.ID, CourseID: s.c1.ID})
	sendMessage(t, teacherToken, chat.NewMessage{Content: "c1 #2", ReceiverID: s.student.ID, CourseID: s.c1.ID})
	sendMessage(t, teacherToken, chat.NewMessage{Content: "c2 #1", ReceiverID: s.student.ID, CourseID: s.c2.ID})
	sendMessage(t, teacherToken, chat.NewMessage{Content: "direct", ReceiverID: s.student.ID})
	sendMessage(t, getToken(t, s.teacher2), chat.NewMessage{Content: "from teacher2", ReceiverID: s.student.ID, CourseID: s.c1.ID})

	unreadCount := func(t *testing.T) int {
		t.Helper()
		rec := do(http.MethodGet, "/api/notifications/unread-count", studentToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var res struct{ Count int }
		unmarshal(t, rec, &res)
		return res.Count
	}
	require.Equal(t, 5, unreadCount(t))

	runHTTPTests(t, []httpTest{
		{
			name: "sender required", method: http.MethodPost, path: "/api/chat/seen", token: studentToken, body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"senderId":"this field is required"}`),
		},
		{
			name: "seen", method: http.MethodPost, path: "/api/chat/seen", token: studentToken,
			body:     marchallObj(t, chat.SeenRequest{SenderID: s.teacher.ID, CourseID: s.c1.ID}),
			wantData: []byte(`{"success":true}`),
		},
	})

	readState := func(msgs []chat.MessageDetail) map[string]bool {
		res := make(map[string]bool, len(msgs))
		for _, msg := range msgs {
			res[msg.Content] = msg.IsRead
		}
		return res
	}
	assert.Equal(t, map[string]bool{"c1 #1": true, "c1 #2": true}, readState(listMessages(t, studentToken, s.c1.ID, s.teacher.ID)))
	assert.Equal(t, map[string]bool{"from teacher2": false}, readState(listMessages(t, studentToken, s.c1.ID, s.teacher2.ID)))

	// the opened conversation is read, the one with the other teacher is not
	unreadByID := make(map[string]int)
	for _, conv := range listConversations(t, studentToken, s.c1.ID, "") {
		unreadByID[conv.OtherUser.ID] = conv.UnreadCount
	}
	assert.Equal(t, map[string]int{s.teacher.ID: 0, s.teacher2.ID: 1}, unreadByID)
	assert.Equal(t, map[string]bool{"c2 #1": false}, readState(listMessages(t, studentToken, s.c2.ID, s.teacher.ID)))
	assert.Equal(t, map[string]bool{"direct": false}, readState(listMessages(t, studentToken, "", s.teacher.ID)))

	// only the notifications of the seen thread are cleared
	assert.Equal(t, 3, unreadCount(t))

	// seen twice is a no-op
	rec := do(http.MethodPost, "/api/chat/seen", studentToken, marchallObj(t, chat.SeenRequest{SenderID: s.teacher.ID, CourseID: s.c1.ID}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, unreadCount(t))

	// direct scope
	do(http.MethodPost, "/api/chat/seen", studentToken, marchallObj(t, chat.SeenRequest{SenderID: s.teacher.ID}))
	assert.Equal(t, map[string]bool{"direct": true}, readState(listMessages(t, studentToken, "", s.teacher.ID)))
	assert.Equal(t, map[string]bool{"c2 #1": false}, readState(listMessages(t, studentToken, s.c2.ID, s.teacher.ID)))
	assert.Equal(t, 2, unreadCount(t))
}

func Test_chatApi_rateLimit(t *testing.T) {
	s := seedSchool(t)
	limited := newServer(newSendLimiter(2))
	token := getToken(t, s.student)

	body := marchallObj(t, chat.NewMessage{Content: "spam", ReceiverID: s.teacher.ID, CourseID: s.c1.ID})
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req, rec := newAuthRequest(http.MethodPost, "/api/chat/messages", token, body)
		limited.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)

	// other users are not affected, reads are not limited
	req, rec := newAuthRequest(http.MethodPost, "/api/chat/messages", getToken(t, s.student2), body)
	limited.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	req, rec = newAuthRequest(http.MethodGet, "/api/chat/conversations", token)
	limited.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
