package kvstore

import (
	"github.com/radhika-singh-10/todo-local-store/logger"
	"github.com/sirupsen/logrus"
)

// KeyValueStore is the access point slots use to reach the medium. Backend
// failures come back as *StorageUnavailableError.
type KeyValueStore struct {
	PersistentStore PersistentStore
}

func NewKeyValueStore(store PersistentStore) *KeyValueStore {
	return &KeyValueStore{store}
}

func (kv *KeyValueStore) Set(key, value string) error {
	err := kv.PersistentStore.Set(key, value)
	if err != nil {
		logger.Log.WithError(err).WithField("key", key).Errorln("Unable to write key")
		return &StorageUnavailableError{Op: "set", Key: key, Err: err}
	}
	logger.Log.WithFields(logrus.Fields{"key": key, "bytes": len(value)}).Debug("Wrote key")
	return nil
}

func (kv *KeyValueStore) Get(key string) (string, bool, error) {
	value, ok, err := kv.PersistentStore.Get(key)
	if err != nil {
		logger.Log.WithError(err).WithField("key", key).Errorln("Unable to read key")
		return "", false, &StorageUnavailableError{Op: "get", Key: key, Err: err}
	}
	logger.Log.WithFields(logrus.Fields{"key": key, "found": ok}).Debug("Read key")
	return value, ok, nil
}

func (kv *KeyValueStore) Delete(key string) error {
	err := kv.PersistentStore.Delete(key)
	if err != nil {
		logger.Log.WithError(err).WithField("key", key).Errorln("Unable to delete key")
		return &StorageUnavailableError{Op: "delete", Key: key, Err: err}
	}
	logger.Log.WithField("key", key).Debug("Deleted key")
	return nil
}

func (kv *KeyValueStore) Dump() (map[string]string, error) {
	data, err := kv.PersistentStore.Dump()
	if err != nil {
		return nil, &StorageUnavailableError{Op: "dump", Err: err}
	}
	return data, nil
}
