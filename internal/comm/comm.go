package comm

import (
	"time"

	"github.com/google/uuid"
)

// Subjects events are published on.
const (
	SubjectGateScan    = "gate.scan"
	SubjectCardCreated = "cards.created"
	SubjectTodoCreated = "todos.created"
	SubjectTodoUpdated = "todos.updated"
	SubjectTodoDeleted = "todos.deleted"
)

type Event struct {
	ID     string      `json:"id"`
	Type   string      `json:"type"` // one of the Subject constants
	Source string      `json:"source,omitempty"`
	Time   time.Time   `json:"time"`
	Data   interface{} `json:"data"`
}

func NewEvent(subject string, data interface{}) Event {
	return Event{
		ID:   uuid.New().String(),
		Type: subject,
		Time: time.Now().UTC(),
		Data: data,
	}
}

type Notifier interface {
	Notify(ev Event)
}

// Notifiers fans an event out to every non-nil notifier.
type Notifiers []Notifier

func (ns Notifiers) Notify(ev Event) {
	for _, n := range ns {
		if n != nil {
			n.Notify(ev)
		}
	}
}

type Discard struct{}

func (Discard) Notify(Event) {}

type TodoDeleted struct {
	ID int64 `json:"id"`
}
