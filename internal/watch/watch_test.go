package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTicksOnModification(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.conf")
	if err := os.WriteFile(path, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := New(path, 20*time.Millisecond)
	defer w.Stop()

	// Ensure the mtime actually advances on filesystems with coarse
	// timestamp resolution.
	time.Sleep(10 * time.Millisecond)
	if err := os.WriteFile(path, []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a tick after the file was modified")
	}
}

func TestNoTickWithoutModification(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.conf")
	if err := os.WriteFile(path, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := New(path, 10*time.Millisecond)
	defer w.Stop()

	select {
	case <-w.Ticks:
		t.Fatal("did not expect a tick without a modification")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestObservationEquality(t *testing.T) {
	now := time.Now()
	a := observation{ok: true, modTime: now}
	b := observation{ok: true, modTime: now}
	if !a.equal(b) {
		t.Fatal("two successful observations with the same mod time must be equal")
	}

	c := observation{ok: false, errKind: "not-exist", errCode: ""}
	d := observation{ok: false, errKind: "not-exist", errCode: ""}
	if !c.equal(d) {
		t.Fatal("two failures of the same kind and code must be equal")
	}

	if a.equal(c) {
		t.Fatal("success and failure must never compare equal")
	}

	e := observation{ok: false, errKind: "permission", errCode: ""}
	if c.equal(e) {
		t.Fatal("failures of different kinds must not be equal")
	}
}

func TestTicksOnAppearanceAfterMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.conf")

	w := New(path, 10*time.Millisecond)
	defer w.Stop()

	if err := os.WriteFile(path, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a tick once the previously missing file appears")
	}
}
