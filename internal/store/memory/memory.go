// Package memory is an in-process store keyed by id. It enforces the same
// uniqueness and cascade rules as the SQL schema and backs tests and the
// "memory" database driver.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ovaphlow/pitchfork/service-taskbite/internal/apperr"
	taskentity "github.com/ovaphlow/pitchfork/service-taskbite/internal/task/entity"
	userentity "github.com/ovaphlow/pitchfork/service-taskbite/internal/user/entity"
)

type Store struct {
	mu    sync.RWMutex
	users map[string]userentity.User
	notes map[string]taskentity.Note
	todos map[string]taskentity.Todo
}

func New() *Store {
	return &Store{
		users: make(map[string]userentity.User),
		notes: make(map[string]taskentity.Note),
		todos: make(map[string]taskentity.Todo),
	}
}

func (s *Store) Users() *Users { return &Users{s: s} }
func (s *Store) Notes() *Notes { return &Notes{s: s} }
func (s *Store) Todos() *Todos { return &Todos{s: s} }

// Users implements the credential store.
type Users struct{ s *Store }

func userNotFound() error { return apperr.New(apperr.ErrNotFound, "User not found") }

// conflict must be called with the lock held.
func (u *Users) conflict(candidate *userentity.User) error {
	for id, existing := range u.s.users {
		if id == candidate.ID {
			continue
		}
		if existing.Username == candidate.Username {
			return apperr.New(apperr.ErrConflict, "Username already exists")
		}
		if existing.Email == candidate.Email {
			return apperr.New(apperr.ErrConflict, "Email already exists")
		}
	}
	return nil
}

func (u *Users) find(match func(userentity.User) bool) (*userentity.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	for _, row := range u.s.users {
		if match(row) {
			out := row
			return &out, nil
		}
	}
	return nil, userNotFound()
}

func (u *Users) GetByEmail(_ context.Context, email string) (*userentity.User, error) {
	return u.find(func(row userentity.User) bool { return row.Email == email })
}

func (u *Users) GetByUsername(_ context.Context, username string) (*userentity.User, error) {
	return u.find(func(row userentity.User) bool { return row.Username == username })
}

func (u *Users) GetByID(_ context.Context, id string) (*userentity.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	row, ok := u.s.users[id]
	if !ok {
		return nil, userNotFound()
	}
	return &row, nil
}

func (u *Users) Create(_ context.Context, user *userentity.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if _, ok := u.s.users[user.ID]; ok {
		return apperr.New(apperr.ErrConflict, "User already exists")
	}
	if err := u.conflict(user); err != nil {
		return err
	}
	u.s.users[user.ID] = *user
	return nil
}

func (u *Users) Update(_ context.Context, user *userentity.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if _, ok := u.s.users[user.ID]; !ok {
		return userNotFound()
	}
	if err := u.conflict(user); err != nil {
		return err
	}
	u.s.users[user.ID] = *user
	return nil
}

// Delete removes the user and everything it owns.
func (u *Users) Delete(_ context.Context, id string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if _, ok := u.s.users[id]; !ok {
		return userNotFound()
	}
	for nid, n := range u.s.notes {
		if n.UserID == id {
			delete(u.s.notes, nid)
		}
	}
	for tid, t := range u.s.todos {
		if t.UserID == id {
			delete(u.s.todos, tid)
		}
	}
	delete(u.s.users, id)
	return nil
}

// Notes implements the note store.
type Notes struct{ s *Store }

func noteNotFound() error { return apperr.New(apperr.ErrNotFound, "Note not found") }

func (n *Notes) Create(_ context.Context, note *taskentity.Note) error {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	if _, ok := n.s.users[note.UserID]; !ok {
		return userNotFound()
	}
	if _, ok := n.s.notes[note.ID]; ok {
		return apperr.New(apperr.ErrConflict, "Note already exists")
	}
	n.s.notes[note.ID] = *note
	return nil
}

func (n *Notes) Get(_ context.Context, id string) (*taskentity.Note, error) {
	n.s.mu.RLock()
	defer n.s.mu.RUnlock()
	row, ok := n.s.notes[id]
	if !ok {
		return nil, noteNotFound()
	}
	return &row, nil
}

// ListByUser returns the user's notes, newest first.
func (n *Notes) ListByUser(_ context.Context, userID string) ([]taskentity.Note, error) {
	n.s.mu.RLock()
	defer n.s.mu.RUnlock()
	out := []taskentity.Note{}
	for _, row := range n.s.notes {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (n *Notes) Update(_ context.Context, note *taskentity.Note) error {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	row, ok := n.s.notes[note.ID]
	if !ok {
		return noteNotFound()
	}
	row.Content = note.Content
	n.s.notes[note.ID] = row
	return nil
}

func (n *Notes) Delete(_ context.Context, id string) error {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	if _, ok := n.s.notes[id]; !ok {
		return noteNotFound()
	}
	delete(n.s.notes, id)
	return nil
}

// Todos implements the todo store.
type Todos struct{ s *Store }

func todoNotFound() error { return apperr.New(apperr.ErrNotFound, "To-do not found") }

func (t *Todos) Create(_ context.Context, todo *taskentity.Todo) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.users[todo.UserID]; !ok {
		return userNotFound()
	}
	if _, ok := t.s.todos[todo.ID]; ok {
		return apperr.New(apperr.ErrConflict, "To-do already exists")
	}
	t.s.todos[todo.ID] = *todo
	return nil
}

func (t *Todos) Get(_ context.Context, id string) (*taskentity.Todo, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	row, ok := t.s.todos[id]
	if !ok {
		return nil, todoNotFound()
	}
	return &row, nil
}

// ListByUser returns the user's todos ordered by due date.
func (t *Todos) ListByUser(_ context.Context, userID string) ([]taskentity.Todo, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	out := []taskentity.Todo{}
	for _, row := range t.s.todos {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *Todos) Update(_ context.Context, todo *taskentity.Todo) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	row, ok := t.s.todos[todo.ID]
	if !ok {
		return todoNotFound()
	}
	row.Task = todo.Task
	row.Priority = todo.Priority
	row.DueDate = todo.DueDate
	t.s.todos[todo.ID] = row
	return nil
}

func (t *Todos) Delete(_ context.Context, id string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.todos[id]; !ok {
		return todoNotFound()
	}
	delete(t.s.todos, id)
	return nil
}
