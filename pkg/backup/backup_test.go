package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

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

// readArchive extracts a snapshot into a map of entry name to content.
// Directory entries map to an empty string.
func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open snapshot: %v", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		t.Fatalf("snapshot is not gzip: %v", err)
	}
	defer gz.Close()

	contents := make(map[string]string)
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read tar: %v", err)
		}
		if header.Typeflag == tar.TypeDir {
			contents[header.Name] = ""
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			t.Fatalf("failed to read tar entry: %v", err)
		}
		contents[header.Name] = string(data)
	}
	return contents
}

func TestCreateSnapshot(t *testing.T) {
	source := t.TempDir()
	backupDir := filepath.Join(t.TempDir(), "backups")
	writeTree(t, source, map[string]string{
		"app.conf":     "server: alpha",
		"conf.d/a.cfg": "alpha",
	})

	r := NewRotator(source, backupDir, nil)
	path, err := r.Create(context.Background())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	base := filepath.Base(path)
	if !strings.HasPrefix(base, snapshotPrefix) || !strings.HasSuffix(base, snapshotSuffix) {
		t.Errorf("unexpected snapshot name: %s", base)
	}

	contents := readArchive(t, path)
	if contents["app.conf"] != "server: alpha" {
		t.Errorf("app.conf content = %q", contents["app.conf"])
	}
	if contents["conf.d/a.cfg"] != "alpha" {
		t.Errorf("conf.d/a.cfg content = %q", contents["conf.d/a.cfg"])
	}
	if _, ok := contents["conf.d/"]; !ok {
		t.Error("directory entry conf.d/ missing from archive")
	}
}

func TestCreateMissingSource(t *testing.T) {
	r := NewRotator(filepath.Join(t.TempDir(), "nope"), t.TempDir(), nil)
	if _, err := r.Create(context.Background()); err == nil {
		t.Fatal("expected error for missing source directory")
	}
}

func TestCreateSkipsSymlinks(t *testing.T) {
	source := t.TempDir()
	writeTree(t, source, map[string]string{"real.conf": "data"})
	if err := os.Symlink(filepath.Join(source, "real.conf"), filepath.Join(source, "link.conf")); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	r := NewRotator(source, t.TempDir(), nil)
	path, err := r.Create(context.Background())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	contents := readArchive(t, path)
	if _, ok := contents["link.conf"]; ok {
		t.Error("symlink should not be archived")
	}
	if _, ok := contents["real.conf"]; !ok {
		t.Error("regular file missing from archive")
	}
}

// seedSnapshots places named snapshot files in dir, oldest first
func seedSnapshots(t *testing.T, dir string, stamps ...string) []string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	var paths []string
	for _, stamp := range stamps {
		path := filepath.Join(dir, snapshotPrefix+stamp+snapshotSuffix)
		if err := os.WriteFile(path, []byte("snapshot"), 0644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}
	return paths
}

func TestPrune(t *testing.T) {
	backupDir := t.TempDir()
	paths := seedSnapshots(t, backupDir,
		"20260101-120000",
		"20260102-120000",
		"20260103-120000",
		"20260104-120000",
	)

	r := NewRotator(t.TempDir(), backupDir, nil)
	removed, err := r.Prune(2)
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	remaining, err := r.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected 2 snapshots left, got %d", len(remaining))
	}
	if remaining[0] != paths[3] || remaining[1] != paths[2] {
		t.Errorf("wrong snapshots kept: %v", remaining)
	}
}

func TestPruneUnderLimit(t *testing.T) {
	backupDir := t.TempDir()
	seedSnapshots(t, backupDir, "20260101-120000")

	r := NewRotator(t.TempDir(), backupDir, nil)
	removed, err := r.Prune(5)
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
}

func TestPruneKeepsAtLeastOne(t *testing.T) {
	backupDir := t.TempDir()
	seedSnapshots(t, backupDir, "20260101-120000", "20260102-120000")

	r := NewRotator(t.TempDir(), backupDir, nil)
	if _, err := r.Prune(0); err != nil {
		t.Fatalf("prune failed: %v", err)
	}

	remaining, err := r.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 {
		t.Errorf("keep=0 must still retain one snapshot, got %d", len(remaining))
	}
}

func TestLatest(t *testing.T) {
	backupDir := t.TempDir()
	paths := seedSnapshots(t, backupDir, "20260101-120000", "20260103-090000", "20260102-235959")

	r := NewRotator(t.TempDir(), backupDir, nil)
	latest, err := r.Latest()
	if err != nil {
		t.Fatalf("latest failed: %v", err)
	}
	if latest != paths[1] {
		t.Errorf("latest = %s, want %s", latest, paths[1])
	}
}

func TestLatestEmpty(t *testing.T) {
	r := NewRotator(t.TempDir(), filepath.Join(t.TempDir(), "absent"), nil)
	latest, err := r.Latest()
	if err != nil {
		t.Fatalf("latest failed: %v", err)
	}
	if latest != "" {
		t.Errorf("expected empty path for no snapshots, got %s", latest)
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	backupDir := t.TempDir()
	seedSnapshots(t, backupDir, "20260101-120000")
	if err := os.WriteFile(filepath.Join(backupDir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(backupDir, "other.tar.gz"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRotator(t.TempDir(), backupDir, nil)
	snapshots, err := r.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshots) != 1 {
		t.Errorf("expected 1 snapshot, got %d: %v", len(snapshots), snapshots)
	}
}
