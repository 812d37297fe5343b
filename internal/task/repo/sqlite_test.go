package repo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-taskbite/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/task/entity"
	userentity "github.com/ovaphlow/pitchfork/service-taskbite/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-taskbite/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-taskbite/pkg/database"
)

func openSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "taskbite.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.DriverSQLite, nil))
	return db
}

func TestSQLiteRoundTrip(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	users, notes, todos := userrepo.NewUserRepo(db), NewNoteRepo(db), NewTodoRepo(db)
	now := time.Now().UTC().Truncate(time.Second)

	alice := &userentity.User{ID: "u1", Username: "alice", Email: "alice@x.com", Name: "Alice A",
		PasswordHash: "hash", EmailVerified: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, users.Create(ctx, alice))

	got, err := users.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.True(t, got.EmailVerified)
	assert.True(t, got.CreatedAt.Equal(now), "created_at %v", got.CreatedAt)

	dup := *alice
	dup.ID, dup.Username = "u2", "alice2"
	err = users.Create(ctx, &dup)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "Email already exists", apperr.Message(err))

	require.NoError(t, notes.Create(ctx, &entity.Note{ID: "n1", Content: "first", CreatedAt: now, UserID: "u1"}))
	require.NoError(t, notes.Create(ctx, &entity.Note{ID: "n2", Content: "second", CreatedAt: now.Add(time.Minute), UserID: "u1"}))
	listed, err := notes.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "n2", listed[0].ID)

	due := now.Add(48 * time.Hour)
	require.NoError(t, todos.Create(ctx, &entity.Todo{ID: "t1", Task: "ship", Priority: entity.PriorityHigh, DueDate: due, CreatedAt: now, UserID: "u1"}))
	todo, err := todos.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, entity.PriorityHigh, todo.Priority)
	assert.True(t, todo.DueDate.Equal(due), "due_date %v", todo.DueDate)

	// the owner is gone but its token may still be valid
	err = notes.Create(ctx, &entity.Note{ID: "n3", Content: "orphan", CreatedAt: now, UserID: "ghost"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	err = todos.Create(ctx, &entity.Todo{ID: "t2", Task: "orphan", Priority: entity.PriorityLow, DueDate: due, CreatedAt: now, UserID: "ghost"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, users.Delete(ctx, "u1"))
	listed, err = notes.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, listed)
	_, err = todos.Get(ctx, "t1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, users.Delete(ctx, "u1"), apperr.ErrNotFound)
}
