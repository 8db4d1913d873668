package todos

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/radhika-singh-10/todo-local-store/kvstore"
	"github.com/radhika-singh-10/todo-local-store/localstore"
	"github.com/radhika-singh-10/todo-local-store/observable"
)

// StorageKey is where the list lives in the storage namespace.
const StorageKey = "mdn-svelte-todo"

var (
	ErrTodoNotFound = errors.New("todo not found")
	ErrEmptyName    = errors.New("todo name must not be empty")
	ErrInvalidName  = errors.New("todo name must be valid UTF-8")
)

type Todo struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// DefaultTodos is the list a fresh storage namespace starts with.
func DefaultTodos() []Todo {
	return []Todo{
		{ID: 1, Name: "Do something!", Completed: true},
		{ID: 2, Name: "Do something else!", Completed: false},
	}
}

// Store is the persisted to-do list. Every helper builds a new list and
// writes it through Set, so edits survive a restart.
type Store struct {
	slot *localstore.LocalStore[[]Todo]

	// serializes read-modify-write helpers
	mu sync.Mutex
}

func NewStore(kv *kvstore.KeyValueStore) (*Store, error) {
	slot, err := localstore.New(kv, StorageKey, DefaultTodos())
	if err != nil {
		return nil, err
	}
	return &Store{slot: slot}, nil
}

// List returns a copy of the current list.
func (s *Store) List() []Todo {
	return slices.Clone(s.slot.Get())
}

// Subscribe hands each listener its own copy of the list.
func (s *Store) Subscribe(listener func([]Todo)) observable.Unsubscriber {
	return s.slot.Subscribe(func(list []Todo) {
		listener(slices.Clone(list))
	})
}

// Replace stores todos as the whole list.
func (s *Store) Replace(todos []Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range todos {
		if !utf8.ValidString(t.Name) {
			return ErrInvalidName
		}
	}
	if todos == nil {
		todos = []Todo{}
	}
	return s.slot.Set(slices.Clone(todos))
}

func (s *Store) Add(name string) (Todo, error) {
	name, err := cleanName(name)
	if err != nil {
		return Todo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.slot.Get()
	todo := Todo{ID: nextID(current), Name: name}
	next := append(slices.Clone(current), todo)
	if err := s.slot.Set(next); err != nil {
		return Todo{}, err
	}
	return todo, nil
}

func (s *Store) Toggle(id int) (Todo, error) {
	return s.edit(id, func(t *Todo) {
		t.Completed = !t.Completed
	})
}

func (s *Store) SetCompleted(id int, completed bool) (Todo, error) {
	return s.edit(id, func(t *Todo) {
		t.Completed = completed
	})
}

func (s *Store) Rename(id int, name string) (Todo, error) {
	name, err := cleanName(name)
	if err != nil {
		return Todo{}, err
	}
	return s.edit(id, func(t *Todo) {
		t.Name = name
	})
}

func (s *Store) Remove(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.slot.Get()
	i := indexOf(current, id)
	if i < 0 {
		return ErrTodoNotFound
	}
	return s.slot.Set(slices.Delete(slices.Clone(current), i, i+1))
}

// ClearCompleted drops every completed todo and reports how many went.
func (s *Store) ClearCompleted() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.slot.Get()
	next := slices.DeleteFunc(slices.Clone(current), func(t Todo) bool { return t.Completed })
	removed := len(current) - len(next)
	if removed == 0 {
		return 0, nil
	}
	if err := s.slot.Set(next); err != nil {
		return 0, err
	}
	return removed, nil
}

// CheckAll marks every todo completed (or not).
func (s *Store) CheckAll(completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.slot.Get())
	for i := range next {
		next[i].Completed = completed
	}
	return s.slot.Set(next)
}

func (s *Store) edit(id int, fn func(*Todo)) (Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.slot.Get())
	i := indexOf(next, id)
	if i < 0 {
		return Todo{}, ErrTodoNotFound
	}
	fn(&next[i])
	if err := s.slot.Set(next); err != nil {
		return Todo{}, err
	}
	return next[i], nil
}

func cleanName(name string) (string, error) {
	if !utf8.ValidString(name) {
		return "", ErrInvalidName
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

func indexOf(todos []Todo, id int) int {
	return slices.IndexFunc(todos, func(t Todo) bool { return t.ID == id })
}

func nextID(todos []Todo) int {
	highest := 0
	for _, t := range todos {
		if t.ID > highest {
			highest = t.ID
		}
	}
	return highest + 1
}
