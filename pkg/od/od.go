package od

import "sort"

// ObjectDictionary is an in-memory, sorted-by-index Adapter implementation.
// Adapted from the teacher's pkg/od/object_dictionary.go, which keeps a
// plain map; a sorted index slice is added here to serve
// GetNextNearestObject, which the teacher's OD has no equivalent for
// (spec.md §6.1 needs it for ObjectEnum/ObjectInfo index-range walks).
type ObjectDictionary struct {
	entries map[uint16]*Entry
	sorted  []uint16 // kept sorted ascending; rebuilt lazily on the first GetNextNearestObject after a mutation
	dirty   bool
}

// NewObjectDictionary returns an empty dictionary ready for AddEntry calls.
func NewObjectDictionary() *ObjectDictionary {
	return &ObjectDictionary{entries: make(map[uint16]*Entry)}
}

// AddEntry inserts or replaces the object at e.Index().
func (d *ObjectDictionary) AddEntry(e *Entry) {
	if _, exists := d.entries[e.index]; !exists {
		d.dirty = true
	}
	d.entries[e.index] = e
}

// AddVariable is a convenience wrapper building and inserting a VAR entry.
func (d *ObjectDictionary) AddVariable(index uint16, v *Variable) *Entry {
	e := NewVarEntry(index, v)
	d.AddEntry(e)
	return e
}

// AddList is a convenience wrapper building and inserting an ARRAY/RECORD
// entry.
func (d *ObjectDictionary) AddList(index uint16, l *VariableList) *Entry {
	e := NewListEntry(index, l)
	d.AddEntry(e)
	return e
}

func (d *ObjectDictionary) rebuild() {
	d.sorted = make([]uint16, 0, len(d.entries))
	for idx := range d.entries {
		d.sorted = append(d.sorted, idx)
	}
	sort.Slice(d.sorted, func(i, j int) bool { return d.sorted[i] < d.sorted[j] })
	d.dirty = false
}

// GetObject implements Adapter.
func (d *ObjectDictionary) GetObject(index uint16) (ObjectHandle, bool) {
	e, ok := d.entries[index]
	if !ok {
		return nil, false
	}
	return e, true
}

// GetNextNearestObject implements Adapter: it returns the entry at the
// smallest index >= index, or ok==false if none exists.
func (d *ObjectDictionary) GetNextNearestObject(index uint16) (ObjectHandle, bool) {
	if d.dirty || d.sorted == nil {
		d.rebuild()
	}
	i := sort.Search(len(d.sorted), func(i int) bool { return d.sorted[i] >= index })
	if i == len(d.sorted) {
		return nil, false
	}
	return d.entries[d.sorted[i]], true
}

// Len reports the number of objects currently registered.
func (d *ObjectDictionary) Len() int {
	return len(d.entries)
}
