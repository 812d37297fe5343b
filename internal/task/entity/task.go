package entity

import "time"

// Priority of a todo; only the three constants are valid.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Note represents a row in the `notes` table.
type Note struct {
	ID        string    `db:"id" json:"id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UserID    string    `db:"user_id" json:"user_id"`
}

// Todo represents a row in the `todos` table.
type Todo struct {
	ID        string    `db:"id" json:"id"`
	Task      string    `db:"task" json:"task"`
	Priority  Priority  `db:"priority" json:"priority"`
	DueDate   time.Time `db:"due_date" json:"due_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UserID    string    `db:"user_id" json:"user_id"`
}
