package localstore

import (
	"errors"
	"fmt"
)

var ErrEmptyKey = errors.New("localstore: key must not be empty")

// SerializationError means a value could not be encoded for storage.
type SerializationError struct {
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("localstore: cannot encode value for %q: %v", e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// DeserializationError means the entry persisted under Key is not valid
// encoded data.
type DeserializationError struct {
	Key string
	Err error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("localstore: cannot decode persisted entry %q: %v", e.Key, e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}
