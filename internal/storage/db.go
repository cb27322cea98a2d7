package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"math/rand/v2"
	"regexp"

	"github.com/influxdata/influxdb/pkg/snowflake"
	"modernc.org/sqlite"

	"github.com/taskdeckapp/taskdeck/internal/config"
	"github.com/taskdeckapp/taskdeck/internal/storage/db"
)

// Email validation constraints. The address check is deliberately loose;
// exact-match lookup is the real identity test.
const maxEmailLen = 254

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

// validateEmail validates that an email is a plausible address.
func validateEmail(email string) bool {
	return len(email) <= maxEmailLen && emailRegex.MatchString(email)
}

// SQLite extended result codes for unique constraint violations.
const (
	sqliteConstraintUnique     = 2067
	sqliteConstraintPrimaryKey = 1555
)

// isUniqueViolation reports whether err is a sqlite unique-constraint
// failure, the enforcement point for duplicate emails under concurrent
// registration.
func isUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	code := liteErr.Code()
	return code == sqliteConstraintUnique || code == sqliteConstraintPrimaryKey
}

// DB is a [Store] backed by a SQLite database.
type DB struct {
	ids     *snowflake.Generator
	db      *sql.DB
	queries *db.Queries
}

// NewDB initializes a DB with the given config and logger.
func NewDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*DB, error) {
	handle, err := db.Open(ctx, logger, cfg.DBFilepath)
	if err != nil {
		return nil, err
	}
	return &DB{
		ids:     snowflake.New(rand.IntN(1023)), //nolint:gosec,mnd // this isn't for crypto
		db:      handle,
		queries: db.New(handle),
	}, nil
}

// Close satisfies the [Store] interface.
func (d *DB) Close() error {
	return d.db.Close()
}

// GetUser satisfies the [Users] interface.
func (d *DB) GetUser(ctx context.Context, userID uint64) (db.User, error) {
	user, err := d.queries.GetUser(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return user, ErrNotFound
	}
	return user, err
}

// GetUserByEmail satisfies the [Users] interface.
func (d *DB) GetUserByEmail(ctx context.Context, email string) (db.User, error) {
	user, err := d.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return user, ErrNotFound
	}
	return user, err
}

// CreateUser satisfies the [Users] interface.
func (d *DB) CreateUser(ctx context.Context, user db.User) (db.User, error) {
	if !validateEmail(user.Email) {
		return user, ErrInvalidEmail
	}
	if user.ID == 0 {
		user.ID = d.ids.Next()
	}
	switch err := d.queries.CreateUser(ctx, user); {
	case isUniqueViolation(err):
		return user, ErrAlreadyExists
	default:
		return user, err
	}
}

// FirstUser satisfies the [Users] interface.
func (d *DB) FirstUser(ctx context.Context) (db.User, error) {
	user, err := d.queries.FirstUser(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return user, ErrNotFound
	}
	return user, err
}

// ListUsers satisfies the [Users] interface.
func (d *DB) ListUsers(ctx context.Context, afterEmail string, limit int32) ([]db.User, error) {
	return d.queries.ListUsers(ctx, afterEmail, int64(limit))
}

// DeleteUser satisfies the [Users] interface. The user's tasks go with them
// in the same transaction.
func (d *DB) DeleteUser(ctx context.Context, userID uint64) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	queries := db.New(tx)
	if err = queries.DeleteUserTasks(ctx, userID); err != nil {
		return err
	}
	if err = queries.DeleteUser(ctx, userID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListTasks satisfies the [Tasks] interface.
func (d *DB) ListTasks(ctx context.Context, ownerID uint64) ([]db.Task, error) {
	return d.queries.ListTasksByOwner(ctx, ownerID)
}

// ListOrphanTasks satisfies the [Tasks] interface.
func (d *DB) ListOrphanTasks(ctx context.Context) ([]db.Task, error) {
	return d.queries.ListOrphanTasks(ctx)
}

// CreateTask satisfies the [Tasks] interface.
func (d *DB) CreateTask(ctx context.Context, task db.Task) (db.Task, error) {
	if task.ID == 0 {
		task.ID = d.ids.Next()
	}
	return task, d.queries.CreateTask(ctx, task)
}

// ClaimOrphanTasks satisfies the [Tasks] interface.
func (d *DB) ClaimOrphanTasks(ctx context.Context, ownerID uint64) (int64, error) {
	return d.queries.ClaimOrphanTasks(ctx, ownerID)
}

var _ Store = (*DB)(nil)
