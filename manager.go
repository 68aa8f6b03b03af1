package lum

import (
	"math"

	"github.com/pkg/errors"
)

// Item is the dense-array storage for one managed value.
type Item[T any] struct {
	Value T
	uid   Uid
}

// Uid returns the identifier currently naming the item.
func (it *Item[T]) Uid() Uid {
	return it.uid
}

const noKey = math.MaxUint32

// entry is one key of the index table. An occupied entry points at the
// dense slot holding its item; a free entry links to the next free key.
type entry struct {
	slot       uint32 // occupied only
	next       uint32 // free only
	generation uint32
	occupied   bool
}

func (e *entry) occupy(slot uint32) {
	e.occupied = true
	e.slot = slot
	e.next = noKey
}

func (e *entry) vacate(next uint32) {
	e.occupied = false
	e.slot = 0
	e.next = next
}

// Manager is a generational slot map: it hands out Uids for pooled values
// of T stored contiguously, with O(1) create, fetch and remove. Not
// goroutine-safe; see SafeManager.
type Manager[T any] struct {
	items     *Buffer[Item[T]]
	index     *Buffer[entry]
	serial    uint8
	firstFree uint32
}

// NewManager returns an empty manager whose storage comes from h.
func NewManager[T any](h Handle) *Manager[T] {
	return &Manager[T]{
		items:     NewBuffer[Item[T]](h, 0),
		index:     NewBuffer[entry](h, 0),
		serial:    nextSerial(),
		firstFree: noKey,
	}
}

// Create establishes a new item and returns its Uid together with zeroed
// storage for the caller to construct the value in. The pointer is valid
// until the next Create or removal.
func (m *Manager[T]) Create() (Uid, *T) {
	key := m.firstFree
	if key == noKey {
		n := m.index.Len()
		if n >= MaxKeys {
			fail(errors.Wrapf(ErrKeySpaceExhausted, "%d keys in use or retired", n))
		}
		key = uint32(n)
		m.index.Set(n, entry{next: noKey})
	}

	e := m.index.At(int(key))
	m.firstFree = e.next
	slot := m.items.Len()
	e.occupy(uint32(slot))

	it := m.items.At(slot)
	it.uid = makeUid(key, e.generation, m.serial)
	return it.uid, &it.Value
}

// Fetch returns the value named by uid, or false if uid is stale, forged or
// belongs to another manager.
func (m *Manager[T]) Fetch(uid Uid) (*T, bool) {
	if it := m.lookup(uid); it != nil {
		return &it.Value, true
	}
	return nil, false
}

// Destroy tears down the value named by uid and removes it. Destroying a
// uid that is not live is a contract violation.
func (m *Manager[T]) Destroy(uid Uid) {
	it := m.mustLookup(uid)
	destroyOne(&it.Value)
	m.removeItem(it)
}

// Remove removes the item named by uid without tearing it down and returns
// its value. Removing a uid that is not live is a contract violation.
func (m *Manager[T]) Remove(uid Uid) T {
	it := m.mustLookup(uid)
	v := it.Value
	m.removeItem(it)
	return v
}

// Len returns the number of live items.
func (m *Manager[T]) Len() int {
	return m.items.Len()
}

// ForEach calls fn for every live item in storage order. fn must not
// create or remove items.
func (m *Manager[T]) ForEach(fn func(Uid, *T)) {
	m.items.ForEach(0, m.items.Len(), func(it *Item[T]) {
		fn(it.uid, &it.Value)
	})
}

// Release destroys every live value and frees the manager's storage.
func (m *Manager[T]) Release() {
	m.items.ForEach(0, m.items.Len(), func(it *Item[T]) {
		destroyOne(&it.Value)
	})
	m.items.Release()
	m.index.Release()
	m.firstFree = noKey
}

func (m *Manager[T]) lookup(uid Uid) *Item[T] {
	key := int(uid.Key())
	if key >= m.index.Len() {
		return nil
	}
	e := m.index.At(key)
	if !e.occupied {
		return nil
	}
	it := m.items.At(int(e.slot))
	if it.uid != uid {
		return nil
	}
	return it
}

func (m *Manager[T]) mustLookup(uid Uid) *Item[T] {
	it := m.lookup(uid)
	if it == nil {
		fail(errors.Wrapf(ErrStaleUid, "%v", uid))
	}
	return it
}

// removeItem moves the last dense item into the freed slot, shrinks the dense
// array and recycles the key under the next generation. A key whose
// generation is exhausted is retired instead of recycled.
func (m *Manager[T]) removeItem(it *Item[T]) {
	key := it.uid.Key()
	e := m.index.At(int(key))
	slot := e.slot

	if last := m.items.Len() - 1; int(slot) != last {
		moved := m.items.At(last)
		*it = *moved
		m.index.At(int(it.uid.Key())).slot = slot
	}
	m.items.Remove(1)

	if e.generation == math.MaxUint32 {
		e.vacate(noKey)
		return
	}
	e.generation++
	e.vacate(m.firstFree)
	m.firstFree = key
}
