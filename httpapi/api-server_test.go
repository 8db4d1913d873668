package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/radhika-singh-10/todo-local-store/kvstore"
	"github.com/radhika-singh-10/todo-local-store/localstore"
	"github.com/radhika-singh-10/todo-local-store/todos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*ApiServer, *kvstore.MemoryStore) {
	t.Helper()
	backend := kvstore.NewMemoryStore()
	kv := kvstore.NewKeyValueStore(backend)
	store, err := todos.NewStore(kv)
	require.NoError(t, err)
	return &ApiServer{Todos: store, KvStore: kv}, backend
}

func do(t *testing.T, as *ApiServer, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	as.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestApi_List(t *testing.T) {
	as, _ := newTestServer(t)

	rec := do(t, as, "GET", "/todos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, todos.DefaultTodos(), decodeBody[[]todos.Todo](t, rec))
}

func TestApi_AddPatchDelete(t *testing.T) {
	as, _ := newTestServer(t)

	rec := do(t, as, "POST", "/todos", `{"name": "New"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, todos.Todo{ID: 3, Name: "New"}, decodeBody[todos.Todo](t, rec))

	rec = do(t, as, "PATCH", "/todos/3", `{"name": "Newer", "completed": true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, todos.Todo{ID: 3, Name: "Newer", Completed: true}, decodeBody[todos.Todo](t, rec))

	rec = do(t, as, "DELETE", "/todos/1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, []todos.Todo{
		{ID: 2, Name: "Do something else!"},
		{ID: 3, Name: "Newer", Completed: true},
	}, as.Todos.List())
}

func TestApi_Replace(t *testing.T) {
	as, backend := newTestServer(t)

	rec := do(t, as, "PUT", "/todos", `[{"id": 5, "name": "Only", "completed": false}]`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	raw, ok, err := backend.Get(todos.StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id": 5, "name": "Only", "completed": false}]`, raw)
}

func TestApi_ClearCompletedAndCheckAll(t *testing.T) {
	as, _ := newTestServer(t)

	rec := do(t, as, "POST", "/todos/clear-completed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int{"removed": 1}, decodeBody[map[string]int](t, rec))

	rec = do(t, as, "POST", "/todos/check-all", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, as.Todos.List()[0].Completed)

	rec = do(t, as, "POST", "/todos/check-all?completed=false", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, as.Todos.List()[0].Completed)

	rec = do(t, as, "POST", "/todos/check-all?completed=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApi_Errors(t *testing.T) {
	as, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"bad json", "POST", "/todos", `{`, http.StatusBadRequest},
		{"empty name", "POST", "/todos", `{"name": " "}`, http.StatusBadRequest},
		{"unknown id", "PATCH", "/todos/42", `{"completed": true}`, http.StatusNotFound},
		{"empty patch", "PATCH", "/todos/1", `{}`, http.StatusBadRequest},
		{"delete unknown", "DELETE", "/todos/42", "", http.StatusNotFound},
		{"non numeric id", "DELETE", "/todos/abc", "", http.StatusNotFound},
		{"bad list", "PUT", "/todos", `{"id": 1}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, as, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	assert.Equal(t, todos.DefaultTodos(), as.Todos.List())
}

func TestWriteError_StatusCodes(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{todos.ErrTodoNotFound, http.StatusNotFound},
		{todos.ErrEmptyName, http.StatusBadRequest},
		{todos.ErrInvalidName, http.StatusBadRequest},
		{&kvstore.StorageUnavailableError{Op: "set", Err: errors.New("disk full")}, http.StatusServiceUnavailable},
		{&localstore.SerializationError{Key: "k", Err: errors.New("bad value")}, http.StatusInternalServerError},
		{errors.New("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeError(rec, tt.err)
		assert.Equal(t, tt.want, rec.Code, tt.err.Error())
	}
}

type flakyStore struct {
	mock.Mock
	*kvstore.MemoryStore
}

func (f *flakyStore) Set(key, value string) error {
	if err := f.Called(key, value).Error(0); err != nil {
		return err
	}
	return f.MemoryStore.Set(key, value)
}

func TestApi_StorageUnavailable(t *testing.T) {
	backend := &flakyStore{MemoryStore: kvstore.NewMemoryStore()}
	backend.On("Set", todos.StorageKey, mock.AnythingOfType("string")).Return(nil).Once()
	backend.On("Set", todos.StorageKey, mock.AnythingOfType("string")).Return(errors.New("disk full"))

	kv := kvstore.NewKeyValueStore(backend)
	store, err := todos.NewStore(kv)
	require.NoError(t, err)
	as := &ApiServer{Todos: store, KvStore: kv}

	rec := do(t, as, "POST", "/todos", `{"name": "Lost"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, todos.DefaultTodos(), store.List())
}

func TestApi_Dump(t *testing.T) {
	as, backend := newTestServer(t)
	require.NoError(t, backend.Set("theme", `"dark"`))

	rec := do(t, as, "GET", "/storage", "")
	require.Equal(t, http.StatusOK, rec.Code)

	dump := decodeBody[map[string]string](t, rec)
	assert.Equal(t, `"dark"`, dump["theme"])
	assert.Contains(t, dump, todos.StorageKey)
}

func TestApi_Watch(t *testing.T) {
	as, _ := newTestServer(t)
	srv := httptest.NewServer(as.Router())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/todos/watch", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)

	require.True(t, lines.Scan())
	var first []todos.Todo
	require.NoError(t, json.Unmarshal(lines.Bytes(), &first))
	assert.Equal(t, todos.DefaultTodos(), first)

	_, err = as.Todos.Add("Streamed")
	require.NoError(t, err)

	require.True(t, lines.Scan())
	var second []todos.Todo
	require.NoError(t, json.Unmarshal(lines.Bytes(), &second))
	assert.Equal(t, append(todos.DefaultTodos(), todos.Todo{ID: 3, Name: "Streamed"}), second)
}

func TestStripHTTPPrefix(t *testing.T) {
	assert.Equal(t, "localhost:8080", stripHTTPPrefix("http://localhost:8080"))
	assert.Equal(t, "0.0.0.0:7000", stripHTTPPrefix("http://0.0.0.0:7000/"))
	assert.Equal(t, ":9000", stripHTTPPrefix(":9000"))
}
