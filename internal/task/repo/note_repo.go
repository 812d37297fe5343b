package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-taskbite/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/task/entity"
	"github.com/ovaphlow/pitchfork/service-taskbite/pkg/database"
)

// NoteRepo provides data access for the notes table.
type NoteRepo struct {
	db *sqlx.DB
}

func NewNoteRepo(db *sqlx.DB) *NoteRepo { return &NoteRepo{db: db} }

func (r *NoteRepo) Create(ctx context.Context, n *entity.Note) error {
	const q = `INSERT INTO notes (id, content, created_at, user_id) VALUES (:id, :content, :created_at, :user_id)`
	if _, err := r.db.NamedExecContext(ctx, q, n); err != nil {
		if database.ForeignKeyViolation(err) {
			return apperr.New(apperr.ErrNotFound, "User not found")
		}
		return apperr.Dependency("create note", err)
	}
	return nil
}

func (r *NoteRepo) Get(ctx context.Context, id string) (*entity.Note, error) {
	q := r.db.Rebind(`SELECT id, content, created_at, user_id FROM notes WHERE id=?`)
	var n entity.Note
	if err := r.db.GetContext(ctx, &n, q, id); err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.New(apperr.ErrNotFound, "Note not found")
		}
		return nil, apperr.Dependency("load note", err)
	}
	return &n, nil
}

// ListByUser returns the user's notes, newest first.
func (r *NoteRepo) ListByUser(ctx context.Context, userID string) ([]entity.Note, error) {
	q := r.db.Rebind(`SELECT id, content, created_at, user_id FROM notes WHERE user_id=? ORDER BY created_at DESC, id DESC`)
	notes := []entity.Note{}
	if err := r.db.SelectContext(ctx, &notes, q, userID); err != nil {
		return nil, apperr.Dependency("list notes", err)
	}
	return notes, nil
}

func (r *NoteRepo) Update(ctx context.Context, n *entity.Note) error {
	const q = `UPDATE notes SET content=:content WHERE id=:id`
	res, err := r.db.NamedExecContext(ctx, q, n)
	if err != nil {
		return apperr.Dependency("update note", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return apperr.New(apperr.ErrNotFound, "Note not found")
	}
	return nil
}

func (r *NoteRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM notes WHERE id=?`), id)
	if err != nil {
		return apperr.Dependency("delete note", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return apperr.New(apperr.ErrNotFound, "Note not found")
	}
	return nil
}
