package kvstore

import "fmt"

// StorageUnavailableError wraps any failure of the underlying medium
// (disk full, file not writable, database closed).
type StorageUnavailableError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageUnavailableError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage unavailable: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage unavailable: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error {
	return e.Err
}
