package db

import (
	"context"
	"database/sql"
)

// User is a registered account row.
type User struct {
	ID           uint64
	Email        string
	PasswordHash []byte
	Name         string
}

// Task is a single task list entry. OwnerID is invalid for orphan tasks
// created while no user was authenticated.
type Task struct {
	ID      uint64
	Text    string
	OwnerID sql.Null[uint64]
}

// DBTX is the subset of [sql.DB] / [sql.Tx] the query layer needs.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries wraps a database handle with the application's query set.
type Queries struct {
	db DBTX
}

// New creates a query set bound to the given handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const createUser = `
INSERT INTO users (id, email, password_hash, name)
VALUES (?, ?, ?, ?)
`

// CreateUser inserts a new user row. The caller assigns the ID.
func (q *Queries) CreateUser(ctx context.Context, user User) error {
	_, err := q.db.ExecContext(ctx, createUser,
		user.ID, user.Email, user.PasswordHash, user.Name)
	return err
}

const getUser = `
SELECT id, email, password_hash, name FROM users WHERE id = ?
`

// GetUser returns the user with the given ID, or [sql.ErrNoRows].
func (q *Queries) GetUser(ctx context.Context, id uint64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUser, id)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name)
	return u, err
}

const getUserByEmail = `
SELECT id, email, password_hash, name FROM users WHERE email = ?
`

// GetUserByEmail returns the user with the given email, or [sql.ErrNoRows].
// The comparison is exact.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name)
	return u, err
}

const firstUser = `
SELECT id, email, password_hash, name FROM users ORDER BY id LIMIT 1
`

// FirstUser returns the earliest-created user, or [sql.ErrNoRows] if no
// users exist. IDs are time-ordered, so the minimum ID is the first account.
func (q *Queries) FirstUser(ctx context.Context) (User, error) {
	row := q.db.QueryRowContext(ctx, firstUser)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name)
	return u, err
}

const listUsers = `
SELECT id, email, password_hash, name FROM users
WHERE email > ? ORDER BY email LIMIT ?
`

// ListUsers returns users ordered by email, after the given email, up to
// limit rows.
func (q *Queries) ListUsers(ctx context.Context, afterEmail string, limit int64) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers, afterEmail, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const deleteUser = `
DELETE FROM users WHERE id = ?
`

const deleteUserTasks = `
DELETE FROM tasks WHERE owner_id = ?
`

// DeleteUser removes a user row.
func (q *Queries) DeleteUser(ctx context.Context, id uint64) error {
	_, err := q.db.ExecContext(ctx, deleteUser, id)
	return err
}

// DeleteUserTasks removes all tasks owned by the given user.
func (q *Queries) DeleteUserTasks(ctx context.Context, ownerID uint64) error {
	_, err := q.db.ExecContext(ctx, deleteUserTasks, ownerID)
	return err
}

const createTask = `
INSERT INTO tasks (id, text, owner_id) VALUES (?, ?, ?)
`

// CreateTask inserts a new task row. The caller assigns the ID.
func (q *Queries) CreateTask(ctx context.Context, task Task) error {
	_, err := q.db.ExecContext(ctx, createTask, task.ID, task.Text, task.OwnerID)
	return err
}

const listTasksByOwner = `
SELECT id, text, owner_id FROM tasks WHERE owner_id = ? ORDER BY id
`

// ListTasksByOwner returns the tasks owned by the given user in insertion
// order.
func (q *Queries) ListTasksByOwner(ctx context.Context, ownerID uint64) ([]Task, error) {
	return q.listTasks(ctx, listTasksByOwner, ownerID)
}

const listOrphanTasks = `
SELECT id, text, owner_id FROM tasks WHERE owner_id IS NULL ORDER BY id
`

// ListOrphanTasks returns the unclaimed tasks in insertion order.
func (q *Queries) ListOrphanTasks(ctx context.Context) ([]Task, error) {
	return q.listTasks(ctx, listOrphanTasks)
}

func (q *Queries) listTasks(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Text, &t.OwnerID); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

const claimOrphanTasks = `
UPDATE tasks SET owner_id = ? WHERE owner_id IS NULL
`

// ClaimOrphanTasks assigns every unclaimed task to the given user in one
// statement and reports how many rows changed.
func (q *Queries) ClaimOrphanTasks(ctx context.Context, ownerID uint64) (int64, error) {
	res, err := q.db.ExecContext(ctx, claimOrphanTasks, ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
