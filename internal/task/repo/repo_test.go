package repo

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-taskbite/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/task/entity"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return sqlx.NewDb(raw, "postgres"), mock
}

func TestNoteRepoGet(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewNoteRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, content, created_at, user_id FROM notes WHERE id=$1`)).
		WithArgs("n1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "created_at", "user_id"}).AddRow("n1", "hello", now, "u1"))

	n, err := r.Get(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, &entity.Note{ID: "n1", Content: "hello", CreatedAt: now, UserID: "u1"}, n)

	mock.ExpectQuery(`SELECT .* FROM notes`).WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err = r.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepoCreateAndDelete(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewNoteRepo(db)
	n := &entity.Note{ID: "n1", Content: "hello", CreatedAt: time.Now().UTC(), UserID: "u1"}

	mock.ExpectExec(`INSERT INTO notes`).
		WithArgs(n.ID, n.Content, n.CreatedAt, n.UserID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.Create(context.Background(), n))

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM notes WHERE id=$1`)).WithArgs("n1").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, r.Delete(context.Background(), "n1"), apperr.ErrNotFound)

	mock.ExpectExec(`UPDATE notes`).WillReturnError(assert.AnError)
	err := r.Update(context.Background(), n)
	assert.ErrorIs(t, err, apperr.ErrDependency)
	assert.Equal(t, "internal server error", apperr.Message(err))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTodoRepoListByUser(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewTodoRepo(db)
	due := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM todos WHERE user_id=$1 ORDER BY due_date ASC`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "task", "priority", "due_date", "created_at", "user_id"}).
			AddRow("t1", "ship", "high", due, due, "u1").
			AddRow("t2", "test", "low", due.Add(time.Hour), due, "u1"))

	todos, err := r.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, entity.PriorityHigh, todos[0].Priority)
	assert.Equal(t, "t2", todos[1].ID)

	mock.ExpectQuery(`FROM todos WHERE user_id`).WithArgs("u2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "task", "priority", "due_date", "created_at", "user_id"}))
	empty, err := r.ListByUser(context.Background(), "u2")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTodoRepoUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewTodoRepo(db)
	todo := &entity.Todo{ID: "t1", Task: "ship", Priority: entity.PriorityLow, DueDate: time.Now().UTC()}

	mock.ExpectExec(`UPDATE todos SET task=\$1, priority=\$2, due_date=\$3 WHERE id=\$4`).
		WithArgs(todo.Task, todo.Priority, todo.DueDate, todo.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.Update(context.Background(), todo))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateForDeletedOwner(t *testing.T) {
	db, mock := newMockDB(t)
	notes, todos := NewNoteRepo(db), NewTodoRepo(db)
	now := time.Now().UTC()
	fk := &pq.Error{Code: "23503", Constraint: "notes_user_id_fkey"}

	mock.ExpectExec(`INSERT INTO notes`).WillReturnError(fk)
	err := notes.Create(context.Background(), &entity.Note{ID: "n1", Content: "x", CreatedAt: now, UserID: "gone"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "User not found", apperr.Message(err))

	mock.ExpectExec(`INSERT INTO todos`).WillReturnError(fk)
	err = todos.Create(context.Background(), &entity.Todo{ID: "t1", Task: "x", Priority: entity.PriorityLow, DueDate: now, CreatedAt: now, UserID: "gone"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	mock.ExpectExec(`INSERT INTO todos`).WillReturnError(&pq.Error{Code: "08006"})
	err = todos.Create(context.Background(), &entity.Todo{ID: "t2", Task: "x", Priority: entity.PriorityLow, DueDate: now, CreatedAt: now, UserID: "u1"})
	assert.ErrorIs(t, err, apperr.ErrDependency)

	require.NoError(t, mock.ExpectationsWereMet())
}
