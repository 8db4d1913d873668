package kvstore

// PersistentStore is the storage medium behind a slot: string keys mapped
// to string values, surviving process restarts.
type PersistentStore interface {
	// Get reports ok=false when key has no entry.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
	Dump() (map[string]string, error)
}
