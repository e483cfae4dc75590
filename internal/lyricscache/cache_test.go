package lyricscache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/slowverb/slowverb/internal/lrclib"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), Options{BucketSeconds: 5})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return store
}

func testEntry() *Entry {
	return &Entry{
		Artist:            "artist",
		Title:             "song",
		ScaleFactor:       1.2,
		ReferenceDuration: 200,
		LiveDuration:      240,
		Lines: []lrclib.Line{
			{TimeSeconds: 12, Text: "a"},
			{TimeSeconds: 24, Text: "b"},
		},
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	store := openTestStore(t)
	sig := store.Signature("Artist", "Song", 240)

	if err := store.Put(sig, testEntry()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(sig)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ScaleFactor != 1.2 || len(got.Lines) != 2 || got.Lines[1].Text != "b" {
		t.Errorf("entry mismatch: %+v", got)
	}
	if got.ResolvedAt == 0 || got.ExpiresAt <= got.ResolvedAt {
		t.Errorf("timestamps not stamped: %+v", got)
	}
}

func TestGetSurvivesProcessRestart(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sig := store.Signature("Artist", "Song", 240)
	if err := store.Put(sig, testEntry()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// fresh store, empty memory layer: must read from disk
	reopened, err := Open(dir, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Get(sig)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.ScaleFactor != 1.2 {
		t.Errorf("ScaleFactor = %v", got.ScaleFactor)
	}
}

func TestBucketIsolation(t *testing.T) {
	store := openTestStore(t)

	// same edit replayed with jittered duration readings shares an entry
	a := store.Signature("artist", "song", 200.0)
	b := store.Signature("artist", "song", 201.0)
	if a.Key() != b.Key() {
		t.Errorf("200.0s and 201.0s landed in different buckets: %v vs %v", a.Bucket, b.Bucket)
	}

	// a genuinely different edit must not collide
	c := store.Signature("artist", "song", 206.0)
	if a.Key() == c.Key() {
		t.Errorf("200.0s and 206.0s collided in bucket %v", a.Bucket)
	}
	d := store.Signature("artist", "song", 260.0)
	if a.Key() == d.Key() {
		t.Error("distinct edits (200s vs 260s) collided")
	}
}

func TestSignatureNormalizesCase(t *testing.T) {
	a := NewSignature("Artist", "Song", 200, 5)
	b := NewSignature("  artist ", "SONG", 200, 5)
	if a.Key() != b.Key() {
		t.Error("case/whitespace variants produced different keys")
	}
}

func TestCorruptEntryIsAMiss(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	sig := store.Signature("artist", "song", 200)
	path := filepath.Join(dir, sig.Key()+".bin")
	if err := os.WriteFile(path, []byte("not gob data"), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	if _, err := store.Get(sig); !errors.Is(err, ErrMiss) {
		t.Fatalf("corrupt entry: want ErrMiss, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry file was not removed")
	}

	// next Put must overwrite cleanly
	if err := store.Put(sig, testEntry()); err != nil {
		t.Fatalf("Put after corrupt: %v", err)
	}
	if _, err := store.Get(sig); err != nil {
		t.Fatalf("Get after overwrite: %v", err)
	}
}

func TestMissOnUnknownSignature(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Get(store.Signature("nobody", "nothing", 100)); !errors.Is(err, ErrMiss) {
		t.Fatalf("want ErrMiss, got %v", err)
	}
}

func TestDeleteAndClear(t *testing.T) {
	store := openTestStore(t)

	sigA := store.Signature("a", "x", 100)
	sigB := store.Signature("b", "y", 150)
	if err := store.Put(sigA, testEntry()); err != nil {
		t.Fatal(err)
	}
	if err := store.Put(sigB, testEntry()); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(sigA); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(sigA); !errors.Is(err, ErrMiss) {
		t.Error("deleted entry still readable")
	}
	if _, err := store.Get(sigB); err != nil {
		t.Error("unrelated entry was deleted")
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	count, _, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if count != 0 {
		t.Errorf("after Clear count = %d", count)
	}
}

func TestPruneRemovesExpired(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, Options{TTL: time.Hour})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	fresh := store.Signature("a", "fresh", 100)
	if err := store.Put(fresh, testEntry()); err != nil {
		t.Fatal(err)
	}

	// write an already-expired entry directly
	expired := store.Signature("a", "expired", 100)
	e := testEntry()
	e.Version = entryVersion
	e.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	if err := writeEntry(filepath.Join(dir, expired.Key()+".bin"), e); err != nil {
		t.Fatal(err)
	}

	pruned, err := store.Prune()
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}

	entries, err := store.ListAll()
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "song" {
		t.Errorf("surviving entries: %+v", entries)
	}
}
