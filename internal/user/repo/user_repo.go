package repo

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-taskbite/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-taskbite/pkg/database"
)

const userColumns = `id, username, email, name, password_hash, email_verified, created_at, updated_at`

// UserRepo provides data access for the users table using sqlx.
// The unique constraints on username and email are authoritative; violations
// come back as conflict errors.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) getBy(ctx context.Context, column, value string) (*entity.User, error) {
	q := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + column + `=?`)
	var u entity.User
	if err := r.db.GetContext(ctx, &u, q, value); err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.New(apperr.ErrNotFound, "User not found")
		}
		return nil, apperr.Dependency("load user", err)
	}
	return &u, nil
}

// GetByEmail returns the user with the given (already normalized) email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getBy(ctx, "id", id)
}

// Create inserts u. Timestamps must already be set by the caller.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	q := `INSERT INTO users (` + userColumns + `)
		VALUES (:id, :username, :email, :name, :password_hash, :email_verified, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, u); err != nil {
		return translate(err, "create user")
	}
	return nil
}

// Update overwrites the mutable columns of u.
func (r *UserRepo) Update(ctx context.Context, u *entity.User) error {
	q := `UPDATE users SET username=:username, email=:email, name=:name, password_hash=:password_hash,
		email_verified=:email_verified, updated_at=:updated_at WHERE id=:id`
	res, err := r.db.NamedExecContext(ctx, q, u)
	if err != nil {
		return translate(err, "update user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.New(apperr.ErrNotFound, "User not found")
	}
	return nil
}

// Delete removes the user together with every note and todo it owns in one
// transaction. The foreign keys cascade as well; the explicit deletes keep
// the invariant on stores where foreign keys are not enforced.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	return database.WithTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM notes WHERE user_id=?`), id); err != nil {
			return apperr.Dependency("delete notes", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM todos WHERE user_id=?`), id); err != nil {
			return apperr.Dependency("delete todos", err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM users WHERE id=?`), id)
		if err != nil {
			return apperr.Dependency("delete user", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperr.New(apperr.ErrNotFound, "User not found")
		}
		return nil
	})
}

func translate(err error, op string) error {
	detail, ok := database.UniqueViolation(err)
	if !ok {
		return apperr.Dependency(op, err)
	}
	switch {
	case strings.Contains(detail, "username"):
		return apperr.Wrap(apperr.ErrConflict, "Username already exists", err)
	case strings.Contains(detail, "email"):
		return apperr.Wrap(apperr.ErrConflict, "Email already exists", err)
	default:
		return apperr.Wrap(apperr.ErrConflict, "User already exists", err)
	}
}
