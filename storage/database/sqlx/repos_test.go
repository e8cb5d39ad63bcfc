package sqlxrepos

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padhaidunia/padhaidunia/core"
	"github.com/padhaidunia/padhaidunia/core/chat"
	"github.com/padhaidunia/padhaidunia/core/course"
	"github.com/padhaidunia/padhaidunia/core/notification"
	"github.com/padhaidunia/padhaidunia/core/user"
	"github.com/padhaidunia/padhaidunia/storage/database"
)

// openTestDB connects to TEST_DATABASE_URL, migrates it and empties every table.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db, "up"))
	_, err = db.Exec(`TRUNCATE "notifications", "messages", "courses", "institutes", "users" CASCADE`)
	require.NoError(t, err)
	return db
}

func TestUserRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	usr, err := repo.CreateUser(ctx, user.User{
		ID: "user_2abc", Name: "Asha", Username: "asha", Email: "asha@example.com", Role: user.RoleStudent,
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.True(t, usr.Active())

	_, err = repo.CreateUser(ctx, user.User{ID: "user_2abc", Name: "Dup", Role: user.RoleStudent, CreatedAt: now, UpdatedAt: now})
	assert.Equal(t, user.ErrUserExists, err)

	// users without username or email do not collide
	_, err = repo.CreateUser(ctx, user.User{Name: "Rao", Role: user.RoleTeacher, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	_, err = repo.CreateUser(ctx, user.User{Name: "Das", Role: user.RoleTeacher, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	assert.Equal(t, user.ErrUsernameExists, repo.CheckUniqueness(ctx, "asha", "", nil))
	assert.Equal(t, user.ErrEmailExists, repo.CheckUniqueness(ctx, "other", "asha@example.com", nil))
	assert.NoError(t, repo.CheckUniqueness(ctx, "asha", "asha@example.com", []user.User{usr}))

	got, err := repo.GetUser(ctx, user.GetFilter{Email: "asha@example.com"})
	require.NoError(t, err)
	assert.Equal(t, usr, got)

	_, err = repo.GetUser(ctx, user.GetFilter{ID: "nope"})
	assert.Equal(t, user.ErrNotFound, err)

	staff, err := repo.QueryUsers(ctx, &user.QueryFilter{Roles: []string{user.RoleTeacher}}, []core.DBOrdering{{Field: "name", Ascending: true}})
	require.NoError(t, err)
	require.Len(t, staff, 2)
	assert.Equal(t, "Das", staff[0].Name)

	found, err := repo.QueryUsers(ctx, &user.QueryFilter{Search: "ASH"}, nil)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	usr.Name = "Asha K"
	usr.SetActive(false)
	usr, err = repo.UpdateUser(ctx, usr)
	require.NoError(t, err)
	got, err = repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.Equal(t, "Asha K", got.Name)
	assert.False(t, got.Active())

	cnt, err := repo.DeleteUsersByID(ctx, []string{usr.ID, "nope"})
	require.NoError(t, err)
	assert.Equal(t, 1, cnt)
}

func TestChatRepositories(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	courses := NewCourseRepository(db)
	messages := NewMessageRepository(db)
	notifs := NewNotificationRepository(db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	for _, u := range []user.User{
		{ID: "ins", Name: "Sunrise", Role: user.RoleInstitute},
		{ID: "tea", Name: "Rao", Role: user.RoleTeacher},
		{ID: "stu", Name: "Asha", Role: user.RoleStudent},
	} {
		u.CreatedAt, u.UpdatedAt = now, now
		_, err := users.CreateUser(ctx, u)
		require.NoError(t, err)
	}

	inst, err := courses.CreateInstitute(ctx, course.Institute{Name: "Sunrise", AdminID: "ins", CreatedAt: now})
	require.NoError(t, err)
	crs, err := courses.CreateCourse(ctx, course.Course{
		Title: "Maths", Code: "M101", InstituteID: inst.ID, TeacherID: "tea", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, course.ErrCodeExists, courses.CheckCodeUniqueness(ctx, "m101"))

	instCourses, err := courses.QueryCourses(ctx, &course.QueryFilter{AdminID: "ins"})
	require.NoError(t, err)
	require.Len(t, instCourses, 1)
	assert.Equal(t, crs.ID, instCourses[0].ID)

	tx := database.NewTransactor(db)
	err = tx.InTx(ctx, func(exec core.DBExecutor) error {
		msg, err := messages.CreateMessage(ctx, chat.Message{
			SenderID: "tea", ReceiverID: "stu", CourseID: &crs.ID, Content: "homework", SentAt: now,
		}, exec)
		if err != nil {
			return err
		}
		_, err = notifs.CreateNotification(ctx, notification.Notification{
			UserID: msg.ReceiverID, Type: notification.TypeMessage, Title: "New message from Rao",
			SourceUserID: &msg.SenderID, CourseID: msg.CourseID, CreatedAt: now,
		}, exec)
		return err
	})
	require.NoError(t, err)

	_, err = messages.CreateMessage(ctx, chat.Message{SenderID: "tea", ReceiverID: "ins", Content: "hello", SentAt: now.Add(time.Second)})
	require.NoError(t, err)

	visible, err := messages.QueryMessages(ctx, &chat.QueryFilter{InstituteAdminID: "ins"})
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Nil(t, visible[0].Course)
	require.NotNil(t, visible[1].Course)
	assert.Equal(t, "Maths", visible[1].Course.Title)
	assert.Equal(t, user.RoleStudent, visible[1].Receiver.Role)

	direct, err := messages.QueryMessages(ctx, &chat.QueryFilter{ParticipantID: "tea", DirectOnly: true})
	require.NoError(t, err)
	assert.Len(t, direct, 1)

	n, err := messages.MarkRead(ctx, chat.SeenFilter{SenderID: "tea", ReceiverID: "stu", CourseID: crs.ID}, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = notifs.MarkRead(ctx, notification.MarkFilter{
		UserID: "stu", Type: notification.TypeMessage, SourceUserID: "tea", CourseID: crs.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cnt, err := notifs.CountUnread(ctx, "stu")
	require.NoError(t, err)
	assert.Equal(t, 0, cnt)
}
