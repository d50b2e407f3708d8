// Package storefakes provides an in-memory tokenstore.Store for tests.
package storefakes

import (
	"sync"

	interrors "github.com/jrsteele09/go-taskmaster/internal/errors"
	"github.com/jrsteele09/go-taskmaster/tokenstore"
)

// FakeStore is a map-backed Store. Error fields, when set, are returned by the
// corresponding method so failure paths can be exercised.
type FakeStore struct {
	mu     sync.Mutex
	values map[tokenstore.Kind]string

	GetErr   error
	SetErr   error
	ClearErr error

	SetCalls   int
	ClearCalls int
}

var _ tokenstore.Store = (*FakeStore)(nil)

func NewFakeStore() *FakeStore {
	return &FakeStore{values: make(map[tokenstore.Kind]string)}
}

func (f *FakeStore) Get(kind tokenstore.Kind) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return "", f.GetErr
	}
	value, ok := f.values[kind]
	if !ok {
		return "", interrors.ErrKeyNotFound
	}
	return value, nil
}

func (f *FakeStore) Set(kind tokenstore.Kind, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SetCalls++
	if f.SetErr != nil {
		return f.SetErr
	}
	f.values[kind] = value
	return nil
}

func (f *FakeStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ClearCalls++
	if f.ClearErr != nil {
		return f.ClearErr
	}
	f.values = make(map[tokenstore.Kind]string)
	return nil
}

func (f *FakeStore) Close() error { return nil }

// Len reports how many kinds currently hold a value.
func (f *FakeStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.values)
}
