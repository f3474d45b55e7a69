package manifest

import "sort"

// RemoteFilename is the fixed, well-known name the manifest is published
// under at the remote endpoint, so a later fetch can find it unambiguously.
const RemoteFilename = ".confsync.manifest"

// Entry maps a normalized relative path to its content digest
type Entry struct {
	// Path is POSIX-style, relative to the synchronized root
	Path string `json:"path"`
	// Digest is the 64-hex-char SHA-256 of the file contents
	Digest string `json:"digest"`
}

// Manifest is an immutable, path-sorted set of entries describing a tree
// at build time. Semantically it is a map from path to digest; the order
// only makes serialization and diffing deterministic.
type Manifest struct {
	entries []Entry
	index   map[string]string
}

// New builds a manifest from entries, sorting by path. Duplicate paths
// keep the first occurrence.
func New(entries []Entry) *Manifest {
	index := make(map[string]string, len(entries))
	unique := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if _, ok := index[e.Path]; ok {
			continue
		}
		index[e.Path] = e.Digest
		unique = append(unique, e)
	}

	sort.Slice(unique, func(i, j int) bool {
		return unique[i].Path < unique[j].Path
	})

	return &Manifest{entries: unique, index: index}
}

// Entries returns the entries in path order. Callers must not modify
// the returned slice.
func (m *Manifest) Entries() []Entry {
	return m.entries
}

// Len returns the number of entries
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Digest returns the stored digest for a relative path
func (m *Manifest) Digest(path string) (string, bool) {
	d, ok := m.index[path]
	return d, ok
}

// Equal reports whether both manifests hold the same path/digest pairs
func (m *Manifest) Equal(other *Manifest) bool {
	if other == nil || len(m.entries) != len(other.entries) {
		return false
	}
	for i, e := range m.entries {
		if other.entries[i] != e {
			return false
		}
	}
	return true
}
