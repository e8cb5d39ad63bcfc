package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/padhaidunia/padhaidunia/core/chat"
	"github.com/padhaidunia/padhaidunia/core/course"
	"github.com/padhaidunia/padhaidunia/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateInstitute(t *testing.T, repo course.Repository, name, adminID string) course.Institute {
	t.Helper()
	inst, err := repo.CreateInstitute(context.Background(), course.Institute{
		Name:      name,
		AdminID:   adminID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateInstitute() failed: %v", err)
	}
	return inst
}

func CreateCourse(t *testing.T, repo course.Repository, title, code, instituteID, teacherID string) course.Course {
	t.Helper()
	now := time.Now().UTC()
	crs, err := repo.CreateCourse(context.Background(), course.Course{
		Title:       title,
		Code:        code,
		InstituteID: instituteID,
		TeacherID:   teacherID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

// CreateMessage stores a message sent at sentAt, bypassing notifications.
func CreateMessage(t *testing.T, repo chat.Repository, from, to, courseID, content string, sentAt time.Time) chat.Message {
	t.Helper()
	msg := chat.Message{
		SenderID:   from,
		ReceiverID: to,
		Content:    content,
		SentAt:     sentAt.UTC(),
	}
	if courseID != "" {
		msg.CourseID = &courseID
	}
	msg, err := repo.CreateMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("CreateMessage() failed: %v", err)
	}
	return msg
}
