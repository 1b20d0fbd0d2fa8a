package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLocalExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "artifact.yaml")
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	local := &Local{}
	if !local.Exists(path) {
		t.Error("Exists = false for existing file")
	}
	if local.Exists(filepath.Join(dir, "missing.yaml")) {
		t.Error("Exists = true for missing file")
	}
	if local.Exists(dir) {
		t.Error("Exists = true for a directory")
	}
}

func TestLocalCopy(t *testing.T) {
	for _, verified := range []bool{false, true} {
		name := "plain"
		if verified {
			name = "verified"
		}
		t.Run(name, func(t *testing.T) {
			srcDir := t.TempDir()
			src := filepath.Join(srcDir, "artifact.yaml")
			if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}

			destDir := filepath.Join(t.TempDir(), "run")
			local := &Local{Verified: verified}
			dest, err := local.Copy(src, destDir)
			if err != nil {
				t.Fatalf("Copy: %v", err)
			}
			if filepath.Base(dest) != "artifact.yaml" {
				t.Errorf("copy renamed the artifact: %s", dest)
			}
			data, err := os.ReadFile(dest)
			if err != nil {
				t.Fatalf("read copy: %v", err)
			}
			if string(data) != "payload" {
				t.Errorf("copied content = %q", data)
			}
		})
	}
}

func TestLocalCopyMissingSource(t *testing.T) {
	local := &Local{Verified: true}
	if _, err := local.Copy(filepath.Join(t.TempDir(), "absent.yaml"), t.TempDir()); err == nil {
		t.Fatal("expected error for missing source")
	}
}
