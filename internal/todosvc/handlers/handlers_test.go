package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/avvvet/gate-services/internal/server"
	"github.com/avvvet/gate-services/internal/storage"
	"github.com/avvvet/gate-services/internal/todosvc/models"
	"github.com/avvvet/gate-services/internal/todosvc/service"
	"github.com/avvvet/gate-services/internal/todosvc/store"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, *storage.DB) {
	t.Helper()

	dir := t.TempDir()
	db, err := storage.ResolveWritableDatabase(context.Background(),
		filepath.Join(dir, "todos.sqlite3"), filepath.Join(dir, "data", "todos.sqlite3"), storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = storage.Initialize(context.Background(), db.DB, store.Schema("seed"))
	require.NoError(t, err)

	h := NewHandler(service.NewTodoService(store.NewTodoStore(db.DB), nil))
	r := server.NewRouter(server.Options{})
	h.SetRoutes(r)
	return r, db
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func countTodos(t *testing.T, db *storage.DB) int {
	t.Helper()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM todos`).Scan(&n))
	return n
}

func TestTodoLifecycle(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/todos", `{"title":"buy milk"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)
	require.Equal(t, "buy milk", created.Title)
	require.Equal(t, 0, created.Done)

	path := fmt.Sprintf("/todos/%d", created.ID)

	rec = do(t, r, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, fmt.Sprintf(`{"id":%d,"title":"buy milk","done":0}`, created.ID), rec.Body.String())

	rec = do(t, r, http.MethodPatch, path, `{"done":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, fmt.Sprintf(`{"id":%d,"title":"buy milk","done":1}`, created.ID), rec.Body.String())

	rec = do(t, r, http.MethodDelete, path, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Body.String())

	rec = do(t, r, http.MethodGet, path, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())

	rec = do(t, r, http.MethodDelete, path, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPatch, path, `{"done":1}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateWithoutTitleIsRejected(t *testing.T) {
	t.Parallel()
	r, db := newTestRouter(t)
	before := countTodos(t, db)

	for _, body := range []string{`{}`, "", `{"title":""}`, `{"title":null}`} {
		rec := do(t, r, http.MethodPost, "/todos", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		require.JSONEq(t, `{"error":"title is required"}`, rec.Body.String())
	}

	require.Equal(t, before, countTodos(t, db))
}

func TestListIsNewestFirst(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t)

	for _, title := range []string{"one", "two"} {
		rec := do(t, r, http.MethodPost, "/todos", fmt.Sprintf(`{"title":%q}`, title))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(t, r, http.MethodGet, "/todos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var todos []models.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todos))
	require.Len(t, todos, 3)
	require.Equal(t, "two", todos[0].Title)
	require.Equal(t, "one", todos[1].Title)
	require.Equal(t, "seed", todos[2].Title)
}

func TestBadInput(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/todos/abc", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPatch, "/todos/1", `{"done":5}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"done must be 0 or 1"}`, rec.Body.String())

	rec = do(t, r, http.MethodPatch, "/todos/1", `{"title":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPatch, "/todos/1", `{"done":true}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"done must be an integer"}`, rec.Body.String())

	rec = do(t, r, http.MethodPost, "/todos", `{"title":5}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"title must be a string"}`, rec.Body.String())

	rec = do(t, r, http.MethodPost, "/todos", `{"title":"a"}{"title":"b"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPost, "/todos", `"just a string"`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoreFailureIsGenericInternalError(t *testing.T) {
	t.Parallel()
	r, db := newTestRouter(t)
	require.NoError(t, db.Close())

	for _, req := range []struct{ method, path, body string }{
		{http.MethodGet, "/todos", ""},
		{http.MethodGet, "/todos/1", ""},
		{http.MethodPost, "/todos", `{"title":"x"}`},
		{http.MethodPatch, "/todos/1", `{"done":1}`},
		{http.MethodDelete, "/todos/1", ""},
	} {
		rec := do(t, r, req.method, req.path, req.body)
		require.Equal(t, http.StatusInternalServerError, rec.Code, req.path)
		require.JSONEq(t, `{"error":"Internal error"}`, rec.Body.String(), req.path)
		require.NotContains(t, rec.Body.String(), "sql")
	}
}
