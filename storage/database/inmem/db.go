package inmemdb

import (
	"context"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/padhaidunia/padhaidunia/core"
	"github.com/padhaidunia/padhaidunia/core/chat"
	"github.com/padhaidunia/padhaidunia/core/course"
	"github.com/padhaidunia/padhaidunia/core/notification"
	"github.com/padhaidunia/padhaidunia/core/user"
)

// DB is an in-memory store implementing every repository. Repositories ignore the exec argument.
type DB struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users         map[string]user.User
	institutes    map[string]course.Institute
	courses       map[string]course.Course
	messages      []chat.Message // insertion order
	notifications []notification.Notification
}

var _ core.Transactor = (*DB)(nil)

func Open() *DB {
	db := new(DB)
	db.Reset()
	return db
}

// Reset drops all the data.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users = make(map[string]user.User)
	db.institutes = make(map[string]course.Institute)
	db.courses = make(map[string]course.Course)
	db.messages = nil
	db.notifications = nil
}

type snapshot struct {
	users         map[string]user.User
	institutes    map[string]course.Institute
	courses       map[string]course.Course
	messages      []chat.Message
	notifications []notification.Notification
}

func (db *DB) snapshot() snapshot {
	db.mu.RLock()
	defer db.mu.RUnlock()

	s := snapshot{
		users:         make(map[string]user.User, len(db.users)),
		institutes:    make(map[string]course.Institute, len(db.institutes)),
		courses:       make(map[string]course.Course, len(db.courses)),
		messages:      append([]chat.Message(nil), db.messages...),
		notifications: append([]notification.Notification(nil), db.notifications...),
	}
	for k, v := range db.users {
		s.users[k] = v
	}
	for k, v := range db.institutes {
		s.institutes[k] = v
	}
	for k, v := range db.courses {
		s.courses[k] = v
	}
	return s
}

func (db *DB) restore(s snapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users = s.users
	db.institutes = s.institutes
	db.courses = s.courses
	db.messages = s.messages
	db.notifications = s.notifications
}

// txExecutor is handed to the repositories called inside InTx. It never runs queries:
// it only tells them that txMu is already held.
type txExecutor struct {
	sqlx.ExtContext
}

func inTx(exec []core.DBExecutor) bool {
	if len(exec) == 0 {
		return false
	}
	_, ok := exec[0].(txExecutor)
	return ok
}

// lockWrite locks db for a write and returns the unlock function.
// Writes outside of a transaction wait for the running one, so a rollback never drops them.
func (db *DB) lockWrite(exec []core.DBExecutor) func() {
	tx := inTx(exec)
	if !tx {
		db.txMu.Lock()
	}
	db.mu.Lock()
	return func() {
		db.mu.Unlock()
		if !tx {
			db.txMu.Unlock()
		}
	}
}

// InTx serializes transactions and restores the previous state if fn fails.
// Repositories must be given the exec passed to fn.
func (db *DB) InTx(_ context.Context, fn func(exec core.DBExecutor) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	s := db.snapshot()
	if err := fn(txExecutor{}); err != nil {
		db.restore(s)
		return err
	}
	return nil
}
