package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/radhika-singh-10/todo-local-store/kvstore"
	"github.com/radhika-singh-10/todo-local-store/localstore"
	"github.com/radhika-singh-10/todo-local-store/logger"
	"github.com/radhika-singh-10/todo-local-store/todos"
)

// watchBuffer is how many snapshots a slow watcher may lag behind before
// older ones are dropped.
const watchBuffer = 8

type ApiServer struct {
	Todos   *todos.Store
	KvStore *kvstore.KeyValueStore
}

type createTodoRequest struct {
	Name string `json:"name"`
}

type patchTodoRequest struct {
	Name      *string `json:"name"`
	Completed *bool   `json:"completed"`
}

func stripHTTPPrefix(url string) string {
	return strings.TrimSuffix(strings.TrimPrefix(url, "http://"), "/")
}

func (as *ApiServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/todos", as.handleList).Methods("GET")
	r.HandleFunc("/todos", as.handleReplace).Methods("PUT")
	r.HandleFunc("/todos", as.handleAdd).Methods("POST")
	r.HandleFunc("/todos/watch", as.handleWatch).Methods("GET")
	r.HandleFunc("/todos/clear-completed", as.handleClearCompleted).Methods("POST")
	r.HandleFunc("/todos/check-all", as.handleCheckAll).Methods("POST")
	r.HandleFunc("/todos/{id:[0-9]+}", as.handlePatch).Methods("PATCH")
	r.HandleFunc("/todos/{id:[0-9]+}", as.handleDelete).Methods("DELETE")
	r.HandleFunc("/storage", as.handleDump).Methods("GET")
	return r
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (as *ApiServer) ListenAndServe(ctx context.Context, clientListenURL string) error {
	clientAddr := stripHTTPPrefix(clientListenURL)
	server := &http.Server{
		Addr:              clientAddr,
		Handler:           as.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Log.Printf("Starting client HTTP server on %s", clientAddr)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Log.Info("Shutting down client HTTP server")
		return server.Shutdown(shutdownCtx)
	}
}

func (as *ApiServer) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, as.Todos.List())
}

func (as *ApiServer) handleReplace(w http.ResponseWriter, r *http.Request) {
	var list []todos.Todo
	if err := json.NewDecoder(r.Body).Decode(&list); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := as.Todos.Replace(list); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (as *ApiServer) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	todo, err := as.Todos.Add(req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, todo)
}

func (as *ApiServer) handlePatch(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}

	var req patchTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == nil && req.Completed == nil {
		http.Error(w, "Nothing to update", http.StatusBadRequest)
		return
	}

	var (
		todo todos.Todo
		err  error
	)
	if req.Name != nil {
		if todo, err = as.Todos.Rename(id, *req.Name); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Completed != nil {
		if todo, err = as.Todos.SetCompleted(id, *req.Completed); err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, todo)
}

func (as *ApiServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}

	if err := as.Todos.Remove(id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (as *ApiServer) handleClearCompleted(w http.ResponseWriter, r *http.Request) {
	removed, err := as.Todos.ClearCompleted()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (as *ApiServer) handleCheckAll(w http.ResponseWriter, r *http.Request) {
	completed := true
	if raw := r.URL.Query().Get("completed"); raw != "" {
		var err error
		completed, err = strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "Invalid completed flag", http.StatusBadRequest)
			return
		}
	}

	if err := as.Todos.CheckAll(completed); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleWatch streams the list as newline-delimited JSON: the current list
// first, then one line per change.
func (as *ApiServer) handleWatch(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	updates := make(chan []todos.Todo, watchBuffer)
	unsubscribe := as.Todos.Subscribe(func(list []todos.Todo) {
		for {
			select {
			case updates <- list:
				return
			default:
			}
			// full: drop the oldest snapshot
			select {
			case <-updates:
			default:
			}
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			logger.Log.Debug("Watcher disconnected")
			return
		case list := <-updates:
			if err := enc.Encode(list); err != nil {
				logger.Log.WithError(err).Debug("Failed to write to watcher")
				return
			}
			flusher.Flush()
		}
	}
}

func (as *ApiServer) handleDump(w http.ResponseWriter, r *http.Request) {
	data, err := as.KvStore.Dump()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func todoID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid todo ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Warn("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	var (
		encodeErr   *localstore.SerializationError
		unavailable *kvstore.StorageUnavailableError
	)
	switch {
	case errors.Is(err, todos.ErrTodoNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, todos.ErrEmptyName), errors.Is(err, todos.ErrInvalidName):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &unavailable):
		logger.Log.WithError(err).Error("Storage unavailable")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.As(err, &encodeErr):
		logger.Log.WithError(err).Error("Failed to encode todo list")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
