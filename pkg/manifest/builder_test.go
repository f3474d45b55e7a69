package manifest

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// sha256 of "hello"
const helloDigest = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

// writeTree creates files under root from a map of relative path to content
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}
}

func buildTree(t *testing.T, root string, excludes []string) *Manifest {
	t.Helper()
	m, err := NewBuilder(excludes, nil).Build(context.Background(), root)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return m
}

func TestBuildScenario(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":   "hello",
		"b/c.txt": "world",
	})

	m := buildTree(t, root, nil)

	if m.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", m.Len())
	}

	entries := m.Entries()
	if entries[0].Path != "a.txt" || entries[1].Path != "b/c.txt" {
		t.Errorf("unexpected paths: %s, %s", entries[0].Path, entries[1].Path)
	}
	if entries[0].Digest != helloDigest {
		t.Errorf("a.txt digest = %s, want %s", entries[0].Digest, helloDigest)
	}
	if len(entries[1].Digest) != 64 {
		t.Errorf("digest should be 64 hex chars, got %d", len(entries[1].Digest))
	}
}

func TestBuildDeterminism(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"z.conf":       "zzz",
		"a.conf":       "aaa",
		"sub/m.conf":   "mmm",
		"sub/deep/x":   "xxx",
		"other/y.conf": "yyy",
	})

	first := buildTree(t, root, nil)
	second := buildTree(t, root, nil)

	if !first.Equal(second) {
		t.Error("two builds over an unchanged tree must be identical")
	}
}

func TestBuildExcludes(t *testing.T) {
	tests := []struct {
		name     string
		excludes []string
		want     []string
	}{
		{
			name:     "no excludes",
			excludes: nil,
			want:     []string{".git/config", "app.conf", "cache/app.tmp", "cache/data.bin", "notes.tmp"},
		},
		{
			name:     "bare glob matches base names at any depth",
			excludes: []string{"*.tmp"},
			want:     []string{".git/config", "app.conf", "cache/data.bin"},
		},
		{
			name:     "directory pattern prunes subtree",
			excludes: []string{".git/", "cache/"},
			want:     []string{"app.conf", "notes.tmp"},
		},
		{
			name:     "path pattern",
			excludes: []string{"cache/*.tmp"},
			want:     []string{".git/config", "app.conf", "cache/data.bin", "notes.tmp"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeTree(t, root, map[string]string{
				"app.conf":       "a",
				"notes.tmp":      "n",
				"cache/app.tmp":  "c",
				"cache/data.bin": "d",
				".git/config":    "g",
			})

			m := buildTree(t, root, tt.excludes)

			var got []string
			for _, e := range m.Entries() {
				got = append(got, e.Path)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("got paths %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("entry %d: got %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuildMissingRoot(t *testing.T) {
	_, err := NewBuilder(nil, nil).Build(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestBuildRootIsFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "file.txt")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewBuilder(nil, nil).Build(context.Background(), path); err == nil {
		t.Fatal("expected error when root is a regular file")
	}
}

func TestBuildSkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}

	root := t.TempDir()
	writeTree(t, root, map[string]string{"real.conf": "data"})
	if err := os.Symlink(filepath.Join(root, "real.conf"), filepath.Join(root, "link.conf")); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	m := buildTree(t, root, nil)

	if m.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", m.Len())
	}
	if m.Entries()[0].Path != "real.conf" {
		t.Errorf("unexpected entry: %s", m.Entries()[0].Path)
	}
}

func TestBuildEmptyTree(t *testing.T) {
	m := buildTree(t, t.TempDir(), nil)
	if m.Len() != 0 {
		t.Errorf("expected empty manifest, got %d entries", m.Len())
	}
}

func TestBuildProgressCallback(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a": "1", "b": "2", "c": "3"})

	b := NewBuilder(nil, nil)
	var calls int
	var lastDone, lastTotal int
	b.SetProgressCallback(func(done, total int) {
		calls++
		lastDone, lastTotal = done, total
	})

	if _, err := b.Build(context.Background(), root); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if calls != 3 {
		t.Errorf("expected 3 progress calls, got %d", calls)
	}
	if lastDone != 3 || lastTotal != 3 {
		t.Errorf("final progress = %d/%d, want 3/3", lastDone, lastTotal)
	}
}

func TestBuildProgressCountsSkippedFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a": "1", "b": "2", "c": "3"})

	b := NewBuilder(nil, nil)
	var calls int
	var lastDone, lastTotal int
	b.SetProgressCallback(func(done, total int) {
		calls++
		lastDone, lastTotal = done, total
		// Make the next file vanish so its hash fails and it is skipped
		if done == 1 {
			if err := os.Remove(filepath.Join(root, "b")); err != nil {
				t.Fatalf("failed to remove file: %v", err)
			}
		}
	})

	m, err := b.Build(context.Background(), root)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if m.Len() != 2 {
		t.Errorf("expected 2 entries after one skip, got %d", m.Len())
	}
	if calls != 3 {
		t.Errorf("expected 3 progress calls, got %d", calls)
	}
	if lastDone != 3 || lastTotal != 3 {
		t.Errorf("final progress = %d/%d, want 3/3", lastDone, lastTotal)
	}
}

func TestBuildCancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a": "1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewBuilder(nil, nil).Build(ctx, root); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
