// Package task manages notes and todos. Every read, update and delete passes
// through the ownership guard: the record must exist and belong to the acting user.
package task

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-taskbite/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/task/entity"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/validator"
)

const (
	maxNoteContent = 200
	maxTodoTask    = 100
	dateLayout     = "2006-01-02"
)

type NoteStore interface {
	Create(ctx context.Context, n *entity.Note) error
	Get(ctx context.Context, id string) (*entity.Note, error)
	ListByUser(ctx context.Context, userID string) ([]entity.Note, error)
	Update(ctx context.Context, n *entity.Note) error
	Delete(ctx context.Context, id string) error
}

type TodoStore interface {
	Create(ctx context.Context, t *entity.Todo) error
	Get(ctx context.Context, id string) (*entity.Todo, error)
	ListByUser(ctx context.Context, userID string) ([]entity.Todo, error)
	Update(ctx context.Context, t *entity.Todo) error
	Delete(ctx context.Context, id string) error
}

// IDSource hands out record ids.
type IDSource interface {
	NewID() string
}

type Service struct {
	notes  NoteStore
	todos  TodoStore
	ids    IDSource
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewService(notes NoteStore, todos TodoStore, ids IDSource, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{notes: notes, todos: todos, ids: ids, logger: logger, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func unauthorized() error {
	return apperr.New(apperr.ErrAuthorization, "Unauthorized")
}

// parseDue accepts RFC 3339, a local ISO timestamp or a plain date.
func parseDue(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", dateLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperr.Invalid("Invalid due date", map[string]string{"due_date": "must be an RFC 3339 timestamp or YYYY-MM-DD"})
}

func parsePriority(raw string) (entity.Priority, error) {
	p := entity.Priority(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", apperr.Invalid("Invalid priority value", map[string]string{"priority": "must be one of high, medium, low"})
	}
	return p, nil
}

type NoteInput struct {
	Content string `json:"content"`
}

func validateNote(in *NoteInput) error {
	in.Content = strings.TrimSpace(in.Content)
	v := validator.New()
	v.Required(in.Content, "content")
	v.MaxLength(in.Content, maxNoteContent, "content")
	return v.Err("Invalid note")
}

func (s *Service) CreateNote(ctx context.Context, userID string, in NoteInput) (*entity.Note, error) {
	if userID == "" {
		return nil, unauthorized()
	}
	if err := validateNote(&in); err != nil {
		return nil, err
	}
	n := &entity.Note{ID: s.ids.NewID(), Content: in.Content, CreatedAt: s.now().UTC(), UserID: userID}
	if err := s.notes.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// GetNote is the ownership guard for notes.
func (s *Service) GetNote(ctx context.Context, userID, id string) (*entity.Note, error) {
	if userID == "" {
		return nil, unauthorized()
	}
	n, err := s.notes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		s.logger.Warnw("note access denied", "note_id", id, "user_id", userID)
		return nil, unauthorized()
	}
	return n, nil
}

func (s *Service) ListNotes(ctx context.Context, userID string) ([]entity.Note, error) {
	if userID == "" {
		return nil, unauthorized()
	}
	return s.notes.ListByUser(ctx, userID)
}

func (s *Service) UpdateNote(ctx context.Context, userID, id string, in NoteInput) (*entity.Note, error) {
	n, err := s.GetNote(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := validateNote(&in); err != nil {
		return nil, err
	}
	n.Content = in.Content
	if err := s.notes.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) DeleteNote(ctx context.Context, userID, id string) error {
	if _, err := s.GetNote(ctx, userID, id); err != nil {
		return err
	}
	return s.notes.Delete(ctx, id)
}

type TodoInput struct {
	Task     string `json:"task"`
	Priority string `json:"priority"`
	DueDate  string `json:"due_date"`
}

func (s *Service) CreateTodo(ctx context.Context, userID string, in TodoInput) (*entity.Todo, error) {
	if userID == "" {
		return nil, unauthorized()
	}
	in.Task = strings.TrimSpace(in.Task)
	v := validator.New()
	v.Required(in.Task, "task")
	v.MaxLength(in.Task, maxTodoTask, "task")
	v.Required(in.Priority, "priority")
	v.Required(in.DueDate, "due_date")
	if err := v.Err("Missing required fields"); err != nil {
		return nil, err
	}
	p, err := parsePriority(in.Priority)
	if err != nil {
		return nil, err
	}
	due, err := parseDue(in.DueDate)
	if err != nil {
		return nil, err
	}
	t := &entity.Todo{ID: s.ids.NewID(), Task: in.Task, Priority: p, DueDate: due, CreatedAt: s.now().UTC(), UserID: userID}
	if err := s.todos.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetTodo is the ownership guard for todos.
func (s *Service) GetTodo(ctx context.Context, userID, id string) (*entity.Todo, error) {
	if userID == "" {
		return nil, unauthorized()
	}
	t, err := s.todos.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		s.logger.Warnw("todo access denied", "todo_id", id, "user_id", userID)
		return nil, unauthorized()
	}
	return t, nil
}

func (s *Service) ListTodos(ctx context.Context, userID string) ([]entity.Todo, error) {
	if userID == "" {
		return nil, unauthorized()
	}
	return s.todos.ListByUser(ctx, userID)
}

// TodoPatch holds the optional fields of a todo update; nil means unchanged.
type TodoPatch struct {
	Task     *string `json:"task"`
	Priority *string `json:"priority"`
	DueDate  *string `json:"due_date"`
}

func (s *Service) UpdateTodo(ctx context.Context, userID, id string, in TodoPatch) (*entity.Todo, error) {
	t, err := s.GetTodo(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if in.Task != nil {
		task := strings.TrimSpace(*in.Task)
		v := validator.New()
		v.Required(task, "task")
		v.MaxLength(task, maxTodoTask, "task")
		if err := v.Err("Invalid to-do"); err != nil {
			return nil, err
		}
		t.Task = task
	}
	if in.Priority != nil {
		p, err := parsePriority(*in.Priority)
		if err != nil {
			return nil, err
		}
		t.Priority = p
	}
	if in.DueDate != nil {
		due, err := parseDue(*in.DueDate)
		if err != nil {
			return nil, err
		}
		t.DueDate = due
	}
	if err := s.todos.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) DeleteTodo(ctx context.Context, userID, id string) error {
	if _, err := s.GetTodo(ctx, userID, id); err != nil {
		return err
	}
	return s.todos.Delete(ctx, id)
}

// Day groups note contents and todo tasks under one calendar date.
type Day struct {
	Notes []string `json:"notes"`
	Todos []string `json:"todos"`
}

// Dashboard groups notes by creation date and todos by due date, keyed YYYY-MM-DD.
func (s *Service) Dashboard(ctx context.Context, userID string) (map[string]*Day, error) {
	notes, err := s.ListNotes(ctx, userID)
	if err != nil {
		return nil, err
	}
	todos, err := s.ListTodos(ctx, userID)
	if err != nil {
		return nil, err
	}
	days := make(map[string]*Day)
	day := func(t time.Time) *Day {
		key := t.UTC().Format(dateLayout)
		d, ok := days[key]
		if !ok {
			d = &Day{Notes: []string{}, Todos: []string{}}
			days[key] = d
		}
		return d
	}
	for _, n := range notes {
		d := day(n.CreatedAt)
		d.Notes = append(d.Notes, n.Content)
	}
	for _, t := range todos {
		d := day(t.DueDate)
		d.Todos = append(d.Todos, t.Task)
	}
	return days, nil
}

const (
	EventNote = "note"
	EventTodo = "todo"
)

// Event is one entry of the calendar feed.
type Event struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
	Type  string `json:"type"`
}

// Events lists notes and todos as single-day calendar entries ordered by date.
func (s *Service) Events(ctx context.Context, userID string) ([]Event, error) {
	notes, err := s.ListNotes(ctx, userID)
	if err != nil {
		return nil, err
	}
	todos, err := s.ListTodos(ctx, userID)
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(notes)+len(todos))
	for _, n := range notes {
		d := n.CreatedAt.UTC().Format(dateLayout)
		events = append(events, Event{ID: n.ID, Title: n.Content, Start: d, End: d, Type: EventNote})
	}
	for _, t := range todos {
		d := t.DueDate.UTC().Format(dateLayout)
		events = append(events, Event{ID: t.ID, Title: t.Task, Start: d, End: d, Type: EventTodo})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Start < events[j].Start })
	return events, nil
}

type EventInput struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	DueDate  string `json:"due_date"`
	Priority string `json:"priority"`
}

// AddEvent creates a note or a todo from a calendar entry. Todos default to medium priority.
func (s *Service) AddEvent(ctx context.Context, userID string, in EventInput) (*Event, error) {
	switch strings.ToLower(strings.TrimSpace(in.Type)) {
	case EventNote:
		n, err := s.CreateNote(ctx, userID, NoteInput{Content: in.Content})
		if err != nil {
			return nil, err
		}
		d := n.CreatedAt.Format(dateLayout)
		return &Event{ID: n.ID, Title: n.Content, Start: d, End: d, Type: EventNote}, nil
	case EventTodo:
		priority := in.Priority
		if strings.TrimSpace(priority) == "" {
			priority = string(entity.PriorityMedium)
		}
		t, err := s.CreateTodo(ctx, userID, TodoInput{Task: in.Content, Priority: priority, DueDate: in.DueDate})
		if err != nil {
			return nil, err
		}
		d := t.DueDate.Format(dateLayout)
		return &Event{ID: t.ID, Title: t.Task, Start: d, End: d, Type: EventTodo}, nil
	default:
		return nil, apperr.Invalid("Invalid event type", map[string]string{"type": "must be note or todo"})
	}
}
