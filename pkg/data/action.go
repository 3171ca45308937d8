package data

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mchmarny/riskpulse/pkg/table"
)

var (
	// ErrNotFound is returned when an action does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidAction is returned for actions without a subject or text.
	ErrInvalidAction = errors.New("action requires subject and action text")

	actionColumns = []string{"id", "subject_id", "action", "note", "created_at"}
)

// Action is an intervention recorded against a subject.
type Action struct {
	ID        uuid.UUID `json:"id" yaml:"id"`
	SubjectID string    `json:"subject_id" yaml:"subjectID"`
	Action    string    `json:"action" yaml:"action"`
	Note      string    `json:"note,omitempty" yaml:"note,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"createdAt"`
}

// NewAction creates an action stamped with a new id and the current time.
func NewAction(subjectID, action, note string) (*Action, error) {
	a := &Action{
		ID:        uuid.New(),
		SubjectID: strings.TrimSpace(subjectID),
		Action:    strings.TrimSpace(action),
		Note:      strings.TrimSpace(note),
		CreatedAt: time.Now().UTC(),
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Action) validate() error {
	if a == nil || a.SubjectID == "" || a.Action == "" {
		return ErrInvalidAction
	}
	return nil
}

// Store persists the intervention action log.
type Store interface {
	// AddAction saves a.
	AddAction(ctx context.Context, a *Action) error
	// GetAction returns the action with id or ErrNotFound.
	GetAction(ctx context.Context, id uuid.UUID) (*Action, error)
	// ListActions returns actions oldest first; an empty subject lists all.
	ListActions(ctx context.Context, subjectID string) ([]*Action, error)
	// Close releases the underlying connection.
	Close() error
}

// ExportCSV writes actions as a CSV table.
func ExportCSV(w io.Writer, actions []*Action) error {
	t := &table.Table{Columns: actionColumns}
	for _, a := range actions {
		t.Rows = append(t.Rows, []string{
			a.ID.String(), a.SubjectID, a.Action, a.Note, a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return table.Write(w, t)
}
