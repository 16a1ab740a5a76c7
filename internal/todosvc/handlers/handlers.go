package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/avvvet/gate-services/internal/server"
	"github.com/avvvet/gate-services/internal/todosvc/models"
	"github.com/avvvet/gate-services/internal/todosvc/service"
	"github.com/avvvet/gate-services/internal/todosvc/store"
	"github.com/go-chi/chi"
)

type Handler struct {
	todos *service.TodoService
}

func NewHandler(todos *service.TodoService) *Handler {
	return &Handler{todos: todos}
}

type createRequest struct {
	Title *string `json:"title"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	todos, err := h.todos.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	server.JSON(w, http.StatusOK, todos)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.fail(w, r, store.ErrNotFound)
		return
	}

	td, err := h.todos.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	server.JSON(w, http.StatusOK, td)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	td, err := h.todos.Create(r.Context(), req.Title)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	server.JSON(w, http.StatusCreated, td)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.fail(w, r, store.ErrNotFound)
		return
	}

	var patch models.TodoPatch
	if err := server.DecodeJSON(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}

	td, err := h.todos.Update(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	server.JSON(w, http.StatusOK, td)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.fail(w, r, store.ErrNotFound)
		return
	}

	if err := h.todos.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	server.JSON(w, http.StatusNoContent, nil)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		server.Error(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, server.ErrBadBody):
		server.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		server.Error(w, http.StatusNotFound, "Not found")
	default:
		server.Internal(w, r, err)
	}
}

// idParam reports false for ids that cannot name a row.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
