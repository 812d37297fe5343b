package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-taskbite/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/task/entity"
	"github.com/ovaphlow/pitchfork/service-taskbite/pkg/database"
)

const todoColumns = `id, task, priority, due_date, created_at, user_id`

// TodoRepo provides data access for the todos table.
type TodoRepo struct {
	db *sqlx.DB
}

func NewTodoRepo(db *sqlx.DB) *TodoRepo { return &TodoRepo{db: db} }

func (r *TodoRepo) Create(ctx context.Context, t *entity.Todo) error {
	const q = `INSERT INTO todos (` + todoColumns + `) VALUES (:id, :task, :priority, :due_date, :created_at, :user_id)`
	if _, err := r.db.NamedExecContext(ctx, q, t); err != nil {
		if database.ForeignKeyViolation(err) {
			return apperr.New(apperr.ErrNotFound, "User not found")
		}
		return apperr.Dependency("create todo", err)
	}
	return nil
}

func (r *TodoRepo) Get(ctx context.Context, id string) (*entity.Todo, error) {
	q := r.db.Rebind(`SELECT ` + todoColumns + ` FROM todos WHERE id=?`)
	var t entity.Todo
	if err := r.db.GetContext(ctx, &t, q, id); err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.New(apperr.ErrNotFound, "To-do not found")
		}
		return nil, apperr.Dependency("load todo", err)
	}
	return &t, nil
}

// ListByUser returns the user's todos ordered by due date.
func (r *TodoRepo) ListByUser(ctx context.Context, userID string) ([]entity.Todo, error) {
	q := r.db.Rebind(`SELECT ` + todoColumns + ` FROM todos WHERE user_id=? ORDER BY due_date ASC, id ASC`)
	todos := []entity.Todo{}
	if err := r.db.SelectContext(ctx, &todos, q, userID); err != nil {
		return nil, apperr.Dependency("list todos", err)
	}
	return todos, nil
}

func (r *TodoRepo) Update(ctx context.Context, t *entity.Todo) error {
	const q = `UPDATE todos SET task=:task, priority=:priority, due_date=:due_date WHERE id=:id`
	res, err := r.db.NamedExecContext(ctx, q, t)
	if err != nil {
		return apperr.Dependency("update todo", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return apperr.New(apperr.ErrNotFound, "To-do not found")
	}
	return nil
}

func (r *TodoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM todos WHERE id=?`), id)
	if err != nil {
		return apperr.Dependency("delete todo", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return apperr.New(apperr.ErrNotFound, "To-do not found")
	}
	return nil
}
