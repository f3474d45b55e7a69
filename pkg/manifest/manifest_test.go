package manifest

import (
	"testing"
)

func TestNewSortsEntries(t *testing.T) {
	m := New([]Entry{
		{Path: "zz/last.conf", Digest: "aaa"},
		{Path: "app.conf", Digest: "bbb"},
		{Path: "nested/mid.conf", Digest: "ccc"},
	})

	want := []string{"app.conf", "nested/mid.conf", "zz/last.conf"}
	entries := m.Entries()
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, path := range want {
		if entries[i].Path != path {
			t.Errorf("entry %d: got %s, want %s", i, entries[i].Path, path)
		}
	}
}

func TestNewDropsDuplicatePaths(t *testing.T) {
	m := New([]Entry{
		{Path: "app.conf", Digest: "first"},
		{Path: "app.conf", Digest: "second"},
	})

	if m.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", m.Len())
	}
	digest, ok := m.Digest("app.conf")
	if !ok {
		t.Fatal("expected app.conf to be present")
	}
	if digest != "first" {
		t.Errorf("expected first occurrence to win, got %s", digest)
	}
}

func TestDigestLookup(t *testing.T) {
	m := New([]Entry{{Path: "a.txt", Digest: "abc"}})

	if digest, ok := m.Digest("a.txt"); !ok || digest != "abc" {
		t.Errorf("Digest(a.txt) = %q, %v; want abc, true", digest, ok)
	}
	if _, ok := m.Digest("missing.txt"); ok {
		t.Error("expected missing.txt to be absent")
	}
}

func TestEqual(t *testing.T) {
	base := []Entry{
		{Path: "a.txt", Digest: "111"},
		{Path: "b.txt", Digest: "222"},
	}

	tests := []struct {
		name  string
		other *Manifest
		want  bool
	}{
		{"identical", New([]Entry{{Path: "b.txt", Digest: "222"}, {Path: "a.txt", Digest: "111"}}), true},
		{"different digest", New([]Entry{{Path: "a.txt", Digest: "111"}, {Path: "b.txt", Digest: "999"}}), false},
		{"different paths", New([]Entry{{Path: "a.txt", Digest: "111"}, {Path: "c.txt", Digest: "222"}}), false},
		{"fewer entries", New([]Entry{{Path: "a.txt", Digest: "111"}}), false},
		{"nil", nil, false},
	}

	m := New(base)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Equal(tt.other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEmptyManifest(t *testing.T) {
	m := New(nil)
	if m.Len() != 0 {
		t.Errorf("expected empty manifest, got %d entries", m.Len())
	}
	if !m.Equal(New([]Entry{})) {
		t.Error("two empty manifests should be equal")
	}
}
