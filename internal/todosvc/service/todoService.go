package service

import (
	"context"
	"strings"

	"github.com/avvvet/gate-services/internal/comm"
	"github.com/avvvet/gate-services/internal/todosvc/models"
	"github.com/avvvet/gate-services/internal/todosvc/store"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type TodoService struct {
	store  *store.TodoStore
	notify comm.Notifier
}

func NewTodoService(store *store.TodoStore, notify comm.Notifier) *TodoService {
	if notify == nil {
		notify = comm.Discard{}
	}
	return &TodoService{store: store, notify: notify}
}

func (s *TodoService) List(ctx context.Context) ([]*models.Todo, error) {
	return s.store.List(ctx)
}

func (s *TodoService) Get(ctx context.Context, id int64) (*models.Todo, error) {
	return s.store.Get(ctx, id)
}

func (s *TodoService) Create(ctx context.Context, title *string) (*models.Todo, error) {
	if title == nil || strings.TrimSpace(*title) == "" {
		return nil, &ValidationError{Field: "title", Message: "title is required"}
	}

	td, err := s.store.Create(ctx, *title)
	if err != nil {
		return nil, err
	}
	s.notify.Notify(comm.NewEvent(comm.SubjectTodoCreated, td))
	return td, nil
}

// Update merges patch into the stored todo. Fields left nil keep their value.
func (s *TodoService) Update(ctx context.Context, id int64, patch models.TodoPatch) (*models.Todo, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, &ValidationError{Field: "title", Message: "title must not be empty"}
	}
	if patch.Done != nil && *patch.Done != 0 && *patch.Done != 1 {
		return nil, &ValidationError{Field: "done", Message: "done must be 0 or 1"}
	}

	td, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.notify.Notify(comm.NewEvent(comm.SubjectTodoUpdated, td))
	return td, nil
}

func (s *TodoService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.notify.Notify(comm.NewEvent(comm.SubjectTodoDeleted, comm.TodoDeleted{ID: id}))
	return nil
}
