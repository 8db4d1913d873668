package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/radhika-singh-10/todo-local-store/config"
	"github.com/radhika-singh-10/todo-local-store/httpapi"
	"github.com/radhika-singh-10/todo-local-store/kvstore"
	"github.com/radhika-singh-10/todo-local-store/logger"
	"github.com/radhika-singh-10/todo-local-store/todos"
	"github.com/sirupsen/logrus"
)

func openBackend(cfg *config.AppConfig) (kvstore.PersistentStore, error) {
	switch cfg.Backend {
	case config.BackendSqlite:
		db, err := kvstore.OpenSqlite(cfg.DatabaseUri, cfg.LogDBQueries)
		if err != nil {
			return nil, err
		}
		logger.Log.Infof("Using sqlite storage at %s", cfg.DatabaseUri)
		return kvstore.NewGormStore(db), nil
	case config.BackendMemory:
		logger.Log.Warn("Using in-memory storage, nothing will survive a restart")
		return kvstore.NewMemoryStore(), nil
	default:
		logger.Log.Infof("Using json storage at %s", cfg.StoreFile)
		return kvstore.NewJsonStore(cfg.StoreFile), nil
	}
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if err := os.MkdirAll(cfg.Workdir, 0755); err != nil {
		logger.Log.Fatalf("Failed to create work dir: %v", err)
	}
	if cfg.LogToFile {
		if err := logger.AddFileLogger(cfg.Workdir); err != nil {
			logger.Log.Fatalf("Failed to open log file: %v", err)
		}
	}

	backend, err := openBackend(cfg)
	if err != nil {
		logger.Log.Fatalf("Failed to open storage: %v", err)
	}
	kvStore := kvstore.NewKeyValueStore(backend)

	if cfg.Reset {
		if err := kvStore.Delete(todos.StorageKey); err != nil {
			logger.Log.Fatalf("Failed to reset todo list: %v", err)
		}
		logger.Log.Info("Dropped persisted todo list")
	}

	todoStore, err := todos.NewStore(kvStore)
	if err != nil {
		logger.Log.Fatalf("Failed to load todo list: %v", err)
	}

	unsubscribe := todoStore.Subscribe(func(list []todos.Todo) {
		done := 0
		for _, t := range list {
			if t.Completed {
				done++
			}
		}
		logger.Log.WithFields(logrus.Fields{"total": len(list), "completed": done}).Info("Todo list changed")
	})
	defer unsubscribe()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiServer := httpapi.ApiServer{Todos: todoStore, KvStore: kvStore}
	if err := apiServer.ListenAndServe(ctx, cfg.ListenURL); err != nil {
		logger.Log.Errorf("ListenAndServe(): %v", err)
	}
}
