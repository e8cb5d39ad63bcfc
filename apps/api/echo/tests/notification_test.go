package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padhaidunia/padhaidunia/core/chat"
	"github.com/padhaidunia/padhaidunia/core/notification"
)

func listNotifications(t *testing.T, token, query string) []notification.Notification {
	t.Helper()
	rec := do(http.MethodGet, "/api/notifications"+query, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var notifs []notification.Notification
	unmarshal(t, rec, &notifs)
	return notifs
}

func Test_notificationApi(t *testing.T) {
	s := seedSchool(t)
	studentToken := getToken(t, s.student)
	teacherToken := getToken(t, s.teacher)

	assert.Empty(t, listNotifications(t, studentToken, ""))
	rec := do(http.MethodGet, "/api/notifications/unread-count", studentToken)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"count":0}`)}, rec)

	for _, content := range []string{"one", "two", "three"} {
		sendMessage(t, teacherToken, chat.NewMessage{Content: content, ReceiverID: s.student.ID, CourseID: s.c1.ID})
	}
	sendMessage(t, studentToken, chat.NewMessage{Content: "for the teacher", ReceiverID: s.teacher.ID})

	// cached count is refreshed on send
	rec = do(http.MethodGet, "/api/notifications/unread-count", studentToken)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"count":3}`)}, rec)

	notifs := listNotifications(t, studentToken, "")
	require.Len(t, notifs, 3)
	assert.Equal(t, "three", notifs[0].Body, "newest first")
	for _, n := range notifs {
		assert.Equal(t, s.student.ID, n.UserID)
		require.NotNil(t, n.SourceUserID)
		assert.Equal(t, s.teacher.ID, *n.SourceUserID)
	}
	assert.Len(t, listNotifications(t, studentToken, "?limit=2"), 2)
	assert.Len(t, listNotifications(t, studentToken, "?type=message"), 3)

	runHTTPTests(t, []httpTest{
		{
			name: "nothing to mark", method: http.MethodPatch, path: "/api/notifications", token: studentToken, body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: notification.ErrNothingToMark.Error()}),
		},
		{
			name: "unknown type", method: http.MethodPatch, path: "/api/notifications", token: studentToken, body: []byte(`{"type":"lol"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "others' notifications are left alone", method: http.MethodPatch, path: "/api/notifications", token: teacherToken,
			body: marchallObj(t, notification.MarkRead{IDs: []string{notifs[0].ID}}), wantData: []byte(`{"success":true,"updated":0}`),
		},
		{
			name: "by id", method: http.MethodPatch, path: "/api/notifications", token: studentToken,
			body: marchallObj(t, notification.MarkRead{IDs: []string{notifs[0].ID}}), wantData: []byte(`{"success":true,"updated":1}`),
		},
	})

	unread := listNotifications(t, studentToken, "?unread=true")
	require.Len(t, unread, 2)
	for _, n := range unread {
		assert.NotEqual(t, notifs[0].ID, n.ID)
	}

	rec = do(http.MethodPatch, "/api/notifications", studentToken, []byte(`{"all":true}`))
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"success":true,"updated":2}`)}, rec)
	assert.Empty(t, listNotifications(t, studentToken, "?unread=true"))
	rec = do(http.MethodGet, "/api/notifications/unread-count", studentToken)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"count":0}`)}, rec)

	// the teacher's notification is untouched
	rec = do(http.MethodGet, "/api/notifications/unread-count", teacherToken)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"count":1}`)}, rec)
	rec = do(http.MethodPatch, "/api/notifications", teacherToken, []byte(`{"type":"message"}`))
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"success":true,"updated":1}`)}, rec)
}
