// Package localstore binds an observable value to one key of a persistent
// key-value store.
//
// A slot is hydrated from storage when it is created: an existing entry
// wins over the initial value passed by the caller, and a missing entry is
// seeded with it. From then on every Set is written to storage before
// listeners see the new value.
//
// Update does not write to storage. Values changed through Update live in
// memory only until the next Set.
package localstore

import (
	"encoding/json"
	"errors"

	"github.com/radhika-singh-10/todo-local-store/kvstore"
	"github.com/radhika-singh-10/todo-local-store/logger"
	"github.com/radhika-singh-10/todo-local-store/observable"
)

type LocalStore[T any] struct {
	key      string
	kv       *kvstore.KeyValueStore
	writable *observable.Writable[T]
}

// New hydrates the slot stored under key, seeding it with initial when
// storage has no entry yet.
func New[T any](kv *kvstore.KeyValueStore, key string, initial T) (*LocalStore[T], error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	saved, ok, err := kv.Get(key)
	if err != nil {
		return nil, err
	}

	if !ok {
		saved, err = encode(key, initial)
		if err != nil {
			return nil, err
		}
		if err := kv.Set(key, saved); err != nil {
			return nil, err
		}
		logger.Log.WithField("key", key).Info("Seeded local store with initial value")
	} else {
		logger.Log.WithField("key", key).Info("Hydrated local store from storage")
	}

	value, err := decode[T](key, saved)
	if err != nil {
		return nil, err
	}

	return &LocalStore[T]{
		key:      key,
		kv:       kv,
		writable: observable.NewWritable(value),
	}, nil
}

func (ls *LocalStore[T]) Key() string {
	return ls.key
}

func (ls *LocalStore[T]) Get() T {
	return ls.writable.Get()
}

func (ls *LocalStore[T]) Subscribe(listener func(T)) observable.Unsubscriber {
	return ls.writable.Subscribe(listener)
}

// Set persists value and then hands it to subscribers. Nothing changes
// when encoding or the storage write fails. Concurrent calls are
// serialized, so storage and memory always end on the same value.
//
// Memory is seeded from the encoded form, not from value itself, so it
// holds exactly what a later hydration would produce (for instance invalid
// UTF-8 in strings comes back as U+FFFD).
func (ls *LocalStore[T]) Set(value T) error {
	encoded, err := encode(ls.key, value)
	if err != nil {
		return err
	}
	stored, err := decode[T](ls.key, encoded)
	if err != nil {
		return &SerializationError{Key: ls.key, Err: errors.Unwrap(err)}
	}
	return ls.writable.Commit(stored, func(T) error {
		return ls.kv.Set(ls.key, encoded)
	})
}

// Update changes the in-memory value only; storage keeps the last Set.
// TODO: decide whether Update should persist like Set, and drop this
// divergence once that is settled.
func (ls *LocalStore[T]) Update(fn func(T) T) {
	ls.writable.Update(fn)
}

func encode[T any](key string, value T) (string, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", &SerializationError{Key: key, Err: err}
	}
	return string(data), nil
}

func decode[T any](key, saved string) (T, error) {
	var value T
	if err := json.Unmarshal([]byte(saved), &value); err != nil {
		var zero T
		return zero, &DeserializationError{Key: key, Err: err}
	}
	return value, nil
}
