package resource

import (
	"github.com/pkg/errors"

	"forward-engine/core"
)

// Store is a Pool with a unique name index.
type Store[T any] struct {
	pool  *Pool[T]
	names map[string]Handle[T]
	byH   map[Handle[T]]string
}

func NewStore[T any](kind string, capacity int) *Store[T] {
	return &Store[T]{
		pool:  NewPool[T](kind, capacity),
		names: make(map[string]Handle[T]),
		byH:   make(map[Handle[T]]string),
	}
}

func (s *Store[T]) Add(name string, v *T) (Handle[T], error) {
	if name == "" {
		return Handle[T]{}, errors.Errorf("%s: empty name", s.pool.kind)
	}
	if _, ok := s.names[name]; ok {
		return Handle[T]{}, errors.Errorf("%s %q already exists", s.pool.kind, name)
	}
	h, err := s.pool.Insert(v)
	if err != nil {
		return Handle[T]{}, err
	}
	s.names[name] = h
	s.byH[h] = name
	return h, nil
}

func (s *Store[T]) Get(h Handle[T]) (*T, error) { return s.pool.Get(h) }

func (s *Store[T]) Lookup(name string) (Handle[T], error) {
	h, ok := s.names[name]
	if !ok {
		return Handle[T]{}, core.NotFound(s.pool.kind, name)
	}
	return h, nil
}

// Find resolves name straight to the value.
func (s *Store[T]) Find(name string) (*T, error) {
	h, err := s.Lookup(name)
	if err != nil {
		return nil, err
	}
	return s.pool.Get(h)
}

func (s *Store[T]) Name(h Handle[T]) string { return s.byH[h] }

func (s *Store[T]) Remove(h Handle[T]) (*T, error) {
	v, err := s.pool.Remove(h)
	if err != nil {
		return nil, err
	}
	delete(s.names, s.byH[h])
	delete(s.byH, h)
	return v, nil
}

func (s *Store[T]) Len() int { return s.pool.Len() }

func (s *Store[T]) Each(fn func(Handle[T], *T)) { s.pool.Each(fn) }
