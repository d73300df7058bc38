// Package resource owns engine resources (meshes, textures, materials,
// prefabs, lights) in generation-checked slot maps. Holders keep Handles,
// never pointers, so a reference that outlives its resource resolves to
// ErrStaleHandle instead of reading freed memory.
package resource

import (
	"fmt"

	"github.com/pkg/errors"

	"forward-engine/core"
)

var (
	// ErrStaleHandle is returned when a handle's slot was freed or reused.
	ErrStaleHandle = errors.New("stale resource handle")

	// ErrPoolExhausted is returned when a bounded pool has no free slot.
	ErrPoolExhausted = errors.Wrap(core.ErrMemory, "pool exhausted")
)

// Handle addresses a T in a Pool. The zero Handle is nil.
type Handle[T any] struct {
	index      uint32
	generation uint32
}

func (h Handle[T]) IsNil() bool { return h.generation == 0 }

func (h Handle[T]) String() string {
	if h.IsNil() {
		return "nil"
	}
	return fmt.Sprintf("%d#%d", h.index, h.generation)
}

type slot[T any] struct {
	value      *T
	generation uint32
}

// Pool is a slot map. Freed slots are reused with a bumped generation.
type Pool[T any] struct {
	kind     string
	slots    []slot[T]
	free     []uint32
	capacity int
	live     int
}

// NewPool creates a pool; capacity <= 0 means unbounded.
func NewPool[T any](kind string, capacity int) *Pool[T] {
	return &Pool[T]{kind: kind, capacity: capacity}
}

func (p *Pool[T]) Insert(v *T) (Handle[T], error) {
	if v == nil {
		return Handle[T]{}, errors.Errorf("%s: insert nil", p.kind)
	}
	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		s := &p.slots[idx]
		s.value = v
		p.live++
		return Handle[T]{index: idx, generation: s.generation}, nil
	}
	if p.capacity > 0 && len(p.slots) >= p.capacity {
		return Handle[T]{}, errors.Wrapf(ErrPoolExhausted, "%s (capacity %d)", p.kind, p.capacity)
	}
	p.slots = append(p.slots, slot[T]{value: v, generation: 1})
	p.live++
	return Handle[T]{index: uint32(len(p.slots) - 1), generation: 1}, nil
}

func (p *Pool[T]) Get(h Handle[T]) (*T, error) {
	if h.IsNil() {
		return nil, errors.Wrapf(ErrStaleHandle, "%s: nil handle", p.kind)
	}
	if int(h.index) >= len(p.slots) {
		return nil, errors.Wrapf(ErrStaleHandle, "%s %s", p.kind, h)
	}
	s := p.slots[h.index]
	if s.generation != h.generation || s.value == nil {
		return nil, errors.Wrapf(ErrStaleHandle, "%s %s", p.kind, h)
	}
	return s.value, nil
}

// Contains reports whether h still resolves.
func (p *Pool[T]) Contains(h Handle[T]) bool {
	_, err := p.Get(h)
	return err == nil
}

// Remove frees h's slot and returns the value it held.
func (p *Pool[T]) Remove(h Handle[T]) (*T, error) {
	v, err := p.Get(h)
	if err != nil {
		return nil, err
	}
	s := &p.slots[h.index]
	s.value = nil
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	p.free = append(p.free, h.index)
	p.live--
	return v, nil
}

func (p *Pool[T]) Len() int { return p.live }

// Each visits live entries in slot order.
func (p *Pool[T]) Each(fn func(Handle[T], *T)) {
	for i, s := range p.slots {
		if s.value != nil {
			fn(Handle[T]{index: uint32(i), generation: s.generation}, s.value)
		}
	}
}
