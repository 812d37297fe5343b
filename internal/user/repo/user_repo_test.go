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
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/user/entity"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return sqlx.NewDb(raw, "postgres"), mock
}

var userCols = []string{"id", "username", "email", "name", "password_hash", "email_verified", "created_at", "updated_at"}

func TestGetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewUserRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email=$1`)).
		WithArgs("alice@x.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u1", "alice", "alice@x.com", "Alice", "hash", true, now, now))

	u, err := r.GetByEmail(context.Background(), "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.True(t, u.EmailVerified)
	assert.Equal(t, "hash", u.PasswordHash)

	mock.ExpectQuery(`FROM users WHERE id`).WithArgs("nope").WillReturnError(sql.ErrNoRows)
	_, err = r.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	mock.ExpectQuery(`FROM users WHERE username`).WithArgs("bob").WillReturnError(assert.AnError)
	_, err = r.GetByUsername(context.Background(), "bob")
	assert.ErrorIs(t, err, apperr.ErrDependency)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTranslatesUniqueViolation(t *testing.T) {
	cases := map[string]string{
		"users_username_key": "Username already exists",
		"users_email_key":    "Email already exists",
		"users_pkey":         "User already exists",
	}
	for constraint, msg := range cases {
		t.Run(constraint, func(t *testing.T) {
			db, mock := newMockDB(t)
			r := NewUserRepo(db)
			mock.ExpectExec(`INSERT INTO users`).
				WillReturnError(&pq.Error{Code: "23505", Constraint: constraint})

			err := r.Create(context.Background(), &entity.User{ID: "u1"})
			require.ErrorIs(t, err, apperr.ErrConflict)
			assert.Equal(t, msg, apperr.Message(err))
		})
	}
}

func TestCreate(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewUserRepo(db)
	now := time.Now().UTC()
	u := &entity.User{ID: "u1", Username: "alice", Email: "alice@x.com", Name: "Alice", PasswordHash: "h", CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("u1", "alice", "alice@x.com", "Alice", "h", false, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.Create(context.Background(), u))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissingUser(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewUserRepo(db)
	mock.ExpectExec(`UPDATE users SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.Update(context.Background(), &entity.User{ID: "ghost"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRemovesOwnedRecordsInTx(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM notes WHERE user_id=$1`)).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM todos WHERE user_id=$1`)).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id=$1`)).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, r.Delete(context.Background(), "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingUserRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM notes`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM todos`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM users`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := r.Delete(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
