package kvstore

import "sync"

// MemoryStore keeps entries for the lifetime of the process only.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (ms *MemoryStore) Get(key string) (string, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	value, ok := ms.data[key]
	return value, ok, nil
}

func (ms *MemoryStore) Set(key, value string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.data[key] = value
	return nil
}

func (ms *MemoryStore) Delete(key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.data, key)
	return nil
}

func (ms *MemoryStore) Dump() (map[string]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	out := make(map[string]string, len(ms.data))
	for k, v := range ms.data {
		out[k] = v
	}
	return out, nil
}
