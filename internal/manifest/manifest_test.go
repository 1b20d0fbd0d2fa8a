package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store := NewStore(dir, "satkit_manifest.yaml", ".satkit_manifest.lock", nil)
	if err := store.Load(); err != nil {
		t.Fatalf("Load on fresh directory: %v", err)
	}
	return store
}

func testEntry() Entry {
	return Entry{
		SourceID:    "aaa_probe",
		Kind:        "pd",
		Fingerprint: "fp1:abcdef",
		Location:    "/data/day1/derived/pd_abcdef.npz",
		GeneratedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

func TestLookupMissIsNotAnError(t *testing.T) {
	store := newTestStore(t)
	if _, found := store.Lookup("nobody", "pd", "fp1:none"); found {
		t.Fatal("lookup of unrecorded key reported found")
	}
}

func TestRecordAndLookup(t *testing.T) {
	store := newTestStore(t)
	entry := testEntry()
	if err := store.Record(entry, false); err != nil {
		t.Fatalf("Record: %v", err)
	}

	found, ok := store.Lookup(entry.SourceID, entry.Kind, entry.Fingerprint)
	if !ok {
		t.Fatal("recorded entry not found")
	}
	if found.Location != entry.Location {
		t.Errorf("Location: got %q, want %q", found.Location, entry.Location)
	}
}

func TestRecordIdempotentOnSameLocation(t *testing.T) {
	store := newTestStore(t)
	entry := testEntry()
	if err := store.Record(entry, false); err != nil {
		t.Fatalf("first Record: %v", err)
	}
	if err := store.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	before, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("stat manifest: %v", err)
	}

	if err := store.Record(entry, false); err != nil {
		t.Fatalf("second Record with same location: %v", err)
	}
	if err := store.Persist(); err != nil {
		t.Fatalf("Persist after idempotent record: %v", err)
	}

	after, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("stat manifest: %v", err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("idempotent record still rewrote the manifest file")
	}
}

func TestRecordConflictingLocation(t *testing.T) {
	store := newTestStore(t)
	entry := testEntry()
	if err := store.Record(entry, false); err != nil {
		t.Fatalf("Record: %v", err)
	}

	moved := entry
	moved.Location = "/data/elsewhere/pd.npz"
	err := store.Record(moved, false)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Existing != entry.Location {
		t.Errorf("conflict existing: got %q", conflict.Existing)
	}

	if err := store.Record(moved, true); err != nil {
		t.Fatalf("Record with overwrite: %v", err)
	}
	found, _ := store.Lookup(entry.SourceID, entry.Kind, entry.Fingerprint)
	if found.Location != moved.Location {
		t.Errorf("overwrite did not take effect: %q", found.Location)
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, "satkit_manifest.yaml", ".satkit_manifest.lock", nil)
	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	entries := []Entry{
		testEntry(),
		{SourceID: "audio_rig", Kind: "intensity", Fingerprint: "fp1:123", Location: "/data/day1/derived/intensity.npz"},
	}
	for _, entry := range entries {
		if err := store.Record(entry, false); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := store.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	fresh := NewStore(dir, "satkit_manifest.yaml", ".satkit_manifest.lock", nil)
	if err := fresh.Load(); err != nil {
		t.Fatalf("Load on fresh store: %v", err)
	}
	if got := len(fresh.Entries()); got != len(entries) {
		t.Fatalf("entry count after round trip: got %d, want %d", got, len(entries))
	}
	for _, entry := range entries {
		found, ok := fresh.Lookup(entry.SourceID, entry.Kind, entry.Fingerprint)
		if !ok {
			t.Errorf("entry %s/%s missing after round trip", entry.SourceID, entry.Kind)
			continue
		}
		if found.Location != entry.Location {
			t.Errorf("location after round trip: got %q, want %q", found.Location, entry.Location)
		}
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	store := NewStore(t.TempDir(), "satkit_manifest.yaml", ".satkit_manifest.lock", nil)
	if err := store.Load(); err != nil {
		t.Fatalf("Load of missing file must not fail: %v", err)
	}
	if len(store.Entries()) != 0 {
		t.Error("missing file should load as empty manifest")
	}
}

func TestLoadCorruptFileIsParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "satkit_manifest.yaml")
	if err := os.WriteFile(path, []byte("entries: [not: closed\n"), 0o644); err != nil {
		t.Fatalf("write corrupt manifest: %v", err)
	}

	store := NewStore(dir, "satkit_manifest.yaml", ".satkit_manifest.lock", nil)
	err := store.Load()
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError for corrupt manifest, got %v", err)
	}
}

func TestPersistLeavesNoTempFile(t *testing.T) {
	store := newTestStore(t)
	if err := store.Record(testEntry(), false); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if _, err := os.Stat(store.Path() + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Error("temporary manifest file left behind")
	}
}

func TestRemoveDropsEntry(t *testing.T) {
	store := newTestStore(t)
	entry := testEntry()
	if err := store.Record(entry, false); err != nil {
		t.Fatalf("Record: %v", err)
	}
	store.Remove(entry.SourceID, entry.Kind, entry.Fingerprint)
	if _, found := store.Lookup(entry.SourceID, entry.Kind, entry.Fingerprint); found {
		t.Error("removed entry still present")
	}
}

func TestLockUnlock(t *testing.T) {
	store := newTestStore(t)
	if err := store.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := store.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}
