package state

import "sort"

// Entity is a record mirrored from the backend, keyed by its identifier.
type Entity interface {
	Key() int64
}

// Table is a keyed collection of entities. Insertion order is not kept;
// Values returns records ordered by key. The zero value is ready to use.
// Table is not safe for concurrent use; Store guards it.
type Table[T Entity] struct {
	items map[int64]T
}

// Upsert inserts or replaces v at its key and reports whether it was new.
func (t *Table[T]) Upsert(v T) bool {
	if t.items == nil {
		t.items = make(map[int64]T)
	}
	_, existed := t.items[v.Key()]
	t.items[v.Key()] = v
	return !existed
}

// Remove deletes the record at id. Removing an absent id is a no-op.
func (t *Table[T]) Remove(id int64) bool {
	if _, ok := t.items[id]; !ok {
		return false
	}
	delete(t.items, id)
	return true
}

// Replace discards every record and inserts vs.
func (t *Table[T]) Replace(vs []T) {
	t.items = make(map[int64]T, len(vs))
	for _, v := range vs {
		t.items[v.Key()] = v
	}
}

// Clear discards every record.
func (t *Table[T]) Clear() {
	t.items = nil
}

// Len returns the number of records.
func (t *Table[T]) Len() int {
	return len(t.items)
}

// Get returns the record at id.
func (t *Table[T]) Get(id int64) (T, bool) {
	v, ok := t.items[id]
	return v, ok
}

// Values returns a copy of every record ordered by key.
func (t *Table[T]) Values() []T {
	if len(t.items) == 0 {
		return nil
	}
	out := make([]T, 0, len(t.items))
	for _, v := range t.items {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}
