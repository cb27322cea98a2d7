// Package storage provides the state management for users and tasks.
package storage

import (
	"context"

	"github.com/taskdeckapp/taskdeck/internal/storage/db"
)

const (
	// ErrNotFound is returned when a user or task cannot be found.
	ErrNotFound Error = "not found"
	// ErrAlreadyExists is returned if a user with the same email already
	// exists.
	ErrAlreadyExists Error = "already exists"
	// ErrInvalidEmail is returned when an email address fails validation.
	ErrInvalidEmail Error = "email must be a plausible address up to 254 characters"
	// ErrInternal is returned for any other type of error.
	ErrInternal Error = "internal error"
)

// Error is an error type returned by the storage implementation.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// Users are the methods on a storage implementation that are responsible for
// accessing and modifying registered accounts.
type Users interface {
	// GetUser returns a single user with the specified ID. An [ErrNotFound]
	// is returned if the user ID does not exist.
	GetUser(ctx context.Context, userID uint64) (db.User, error)
	// GetUserByEmail returns a single user with the specified email. The
	// comparison is exact. An [ErrNotFound] is returned if no user has the
	// given email.
	GetUserByEmail(ctx context.Context, email string) (db.User, error)
	// CreateUser creates the user, assigning an ID if one is not set, and
	// returns the stored row. An [ErrAlreadyExists] error is returned if the
	// email is already in use.
	CreateUser(ctx context.Context, user db.User) (db.User, error)
	// FirstUser returns the earliest-created user, the distinguished
	// bootstrap identity. An [ErrNotFound] is returned if no users exist.
	FirstUser(ctx context.Context) (db.User, error)
	// ListUsers returns the users in a list, paginated by the given email
	// (if provided) up to the given limit of records.
	ListUsers(ctx context.Context, afterEmail string, limit int32) ([]db.User, error)
	// DeleteUser removes a user and all their tasks. Note that this is a
	// hard delete; data is not recoverable.
	DeleteUser(ctx context.Context, userID uint64) error
}

// Tasks are the methods on a storage implementation that are responsible for
// accessing and modifying task list entries.
type Tasks interface {
	// ListTasks returns the tasks owned by the given user in insertion
	// order.
	ListTasks(ctx context.Context, ownerID uint64) ([]db.Task, error)
	// ListOrphanTasks returns the tasks with no owner in insertion order.
	ListOrphanTasks(ctx context.Context) ([]db.Task, error)
	// CreateTask creates the task, assigning an ID if one is not set, and
	// returns the stored row. An unset OwnerID stores the task as an orphan.
	CreateTask(ctx context.Context, task db.Task) (db.Task, error)
	// ClaimOrphanTasks assigns every orphan task to the given user as a
	// single durable update and reports how many tasks were claimed. It is
	// idempotent; a second consecutive call claims nothing.
	ClaimOrphanTasks(ctx context.Context, ownerID uint64) (int64, error)
}

// Store is the combination interface for [Users] and [Tasks].
type Store interface {
	Users
	Tasks
	// Close releases any resources held by the store. An error is returned
	// if the store cannot be cleanly closed.
	Close() error
}
