// Package devseed populates a development database with fake users and
// tasks so the app has something to show without manual data entry.
package devseed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/taskdeckapp/taskdeck/internal/sec"
	"github.com/taskdeckapp/taskdeck/internal/storage"
	"github.com/taskdeckapp/taskdeck/internal/storage/db"
)

// Password is the password every seeded user gets.
const Password = "password"

// Seeding size constants.
const (
	numUsers      = 3
	minUserTasks  = 2
	maxExtraTasks = 4 // 2-6 tasks per user
	numOrphans    = 3
)

// Seed returns a random seed for [Populate].
func Seed() uint64 { return rand.Uint64() } //nolint:gosec // this isn't for crypto

// Populate fills the store with fake users (all with [Password]), their
// tasks, and a pool of orphan tasks. It is skipped entirely when any user
// already exists, so restarting a dev server does not pile up data.
func Populate(ctx context.Context, store storage.Store, seed uint64) error {
	if _, err := store.FirstUser(ctx); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	faker := gofakeit.New(seed)

	// one shared hash; hashing is the slow part
	hash, err := sec.HashPassword(Password)
	if err != nil {
		return err
	}

	for range numUsers {
		user, err := store.CreateUser(ctx, db.User{
			Email:        faker.Email(),
			PasswordHash: hash,
			Name:         faker.FirstName(),
		})
		if err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		numTasks := minUserTasks + faker.IntN(maxExtraTasks+1)
		for range numTasks {
			_, err = store.CreateTask(ctx, db.Task{
				Text:    taskText(faker),
				OwnerID: sql.Null[uint64]{V: user.ID, Valid: true},
			})
			if err != nil {
				return fmt.Errorf("failed to seed task: %w", err)
			}
		}
	}

	for range numOrphans {
		if _, err := store.CreateTask(ctx, db.Task{Text: taskText(faker)}); err != nil {
			return fmt.Errorf("failed to seed orphan task: %w", err)
		}
	}
	return nil
}

func taskText(faker *gofakeit.Faker) string {
	patterns := []func(*gofakeit.Faker) string{
		func(f *gofakeit.Faker) string { return fmt.Sprintf("%s the %s", f.Verb(), f.Noun()) },
		func(f *gofakeit.Faker) string { return fmt.Sprintf("buy %s", f.Fruit()) },
		func(f *gofakeit.Faker) string { return fmt.Sprintf("email %s", f.FirstName()) },
		func(f *gofakeit.Faker) string { return fmt.Sprintf("fix the %s", f.Noun()) },
	}
	return patterns[faker.IntN(len(patterns))](faker)
}
