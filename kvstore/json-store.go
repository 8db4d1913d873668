package kvstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/radhika-singh-10/todo-local-store/logger"
)

// JsonStore keeps the whole namespace in a single indented JSON object file.
type JsonStore struct {
	filePath string
	mu       sync.Mutex
}

func handleFileClose(storeFile *os.File) {
	err := storeFile.Close()
	if err != nil {
		logger.Log.Errorln("Error closing file:", err)
	}
}

func NewJsonStore(filePath string) *JsonStore {
	return &JsonStore{filePath: filePath}
}

func (js *JsonStore) Set(key, value string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	data, err := js.load()
	if err != nil {
		return err
	}

	data[key] = value

	return writeData(data, js.filePath)
}

func (js *JsonStore) Get(key string) (string, bool, error) {
	js.mu.Lock()
	defer js.mu.Unlock()

	data, err := js.load()
	if err != nil {
		return "", false, err
	}

	value, ok := data[key]
	return value, ok, nil
}

func (js *JsonStore) Delete(key string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	data, err := js.load()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}

	delete(data, key)

	return writeData(data, js.filePath)
}

func (js *JsonStore) Dump() (map[string]string, error) {
	js.mu.Lock()
	defer js.mu.Unlock()
	return js.load()
}

// load treats a missing file as an empty namespace.
func (js *JsonStore) load() (map[string]string, error) {
	storeFile, err := os.Open(js.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer handleFileClose(storeFile)

	return readData(storeFile)
}

// writeData replaces the file through a rename so a failed write keeps the
// previous content.
func writeData(data map[string]string, filePath string) error {
	output, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		logger.Log.Errorln("Error marshalling JSON:", err)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(filePath), filepath.Base(filePath)+".*.tmp")
	if err != nil {
		logger.Log.Errorln("Error creating temp file:", err)
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(output); err != nil {
		handleFileClose(tmp)
		logger.Log.Errorln("Error writing file:", err)
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), filePath); err != nil {
		logger.Log.Errorln("Error replacing file:", err)
		return err
	}
	return nil
}

func readData(storeFile io.Reader) (map[string]string, error) {
	byteValue, err := io.ReadAll(storeFile)
	if err != nil {
		return nil, err
	}
	if len(byteValue) == 0 {
		byteValue = []byte("{}")
	}
	var data map[string]string
	err = json.Unmarshal(byteValue, &data)
	if err != nil {
		return nil, fmt.Errorf("corrupt store file: %w", err)
	}
	if data == nil {
		data = map[string]string{}
	}
	return data, nil
}
