package exif

import "github.com/hashicorp/go-multierror"

// Entry is one named tag in a Map.
type Entry struct {
	Name  string
	ID    TagID
	IFD   Directory
	Value Value
}

// Map is an insertion-ordered set of uniquely named entries, with the GPS
// directory nested separately. A Map is filled once by Decode (or by an
// extractor adding text metadata) and then only read.
type Map struct {
	entries []Entry
	index   map[string]int

	// GPS holds the GPS sub-IFD, or nil when the data has none.
	GPS *Map

	skipped *multierror.Error
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{index: make(map[string]int)}
}

// Add appends e unless an entry with the same name exists. It reports
// whether e was added.
func (m *Map) Add(e Entry) bool {
	if _, ok := m.index[e.Name]; ok {
		return false
	}
	m.index[e.Name] = len(m.entries)
	m.entries = append(m.entries, e)
	return true
}

// Get returns the value stored under name.
func (m *Map) Get(name string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	i, ok := m.index[name]
	if !ok {
		return Value{}, false
	}
	return m.entries[i].Value, true
}

// Has reports whether name is present.
func (m *Map) Has(name string) bool {
	_, ok := m.Get(name)
	return ok
}

// Lookup finds a tag by number among the primary image's directories
// (IFD0, Exif, Interop), or in a GPS Map's own entries.
func (m *Map) Lookup(id TagID) (Entry, bool) {
	if m == nil {
		return Entry{}, false
	}
	for _, e := range m.entries {
		if e.ID == id && e.IFD != DirIFD1 && e.IFD != DirNone {
			return e, true
		}
	}
	return Entry{}, false
}

// TagValue returns the value of the tag found by Lookup.
func (m *Map) TagValue(id TagID) (Value, bool) {
	e, ok := m.Lookup(id)
	return e.Value, ok
}

// HasTag reports whether Lookup finds id.
func (m *Map) HasTag(id TagID) bool {
	_, ok := m.Lookup(id)
	return ok
}

// GPSDir returns the GPS directory, or nil. Unlike the GPS field it is safe
// to call on a nil Map.
func (m *Map) GPSDir() *Map {
	if m == nil {
		return nil
	}
	return m.GPS
}

// Entries returns a copy of the entries in insertion order.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}
	return append([]Entry(nil), m.entries...)
}

// Len returns the number of top-level entries, not counting GPS.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Empty reports whether neither the map nor its GPS directory hold anything.
func (m *Map) Empty() bool {
	if m == nil {
		return true
	}
	return m.Len() == 0 && m.GPS.Len() == 0
}

// Skipped returns the tag-level problems met while decoding, or nil. The
// error is a *multierror.Error listing every skipped tag.
func (m *Map) Skipped() error {
	if m == nil {
		return nil
	}
	return m.skipped.ErrorOrNil()
}
