package vm

import (
	"errors"
	"path/filepath"
	"testing"
)

// ---------------------------------------------------------------------------
// Snapshot store tests
// ---------------------------------------------------------------------------

func TestSnapshotStoreSaveLoad(t *testing.T) {
	store, err := NewSnapshotStore(":memory:")
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}
	defer store.Close()

	machine := NewVM()
	machine.DefineClass("Persisted", nil)
	snap := machine.TakeSnapshot()

	if err := store.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(machine.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.VMID != machine.ID {
		t.Errorf("VMID = %q, want %q", got.VMID, machine.ID)
	}

	found := false
	for _, c := range got.Classes {
		if c.Name == "Persisted" {
			found = true
		}
	}
	if !found {
		t.Error("loaded snapshot should contain the Persisted class")
	}
}

func TestSnapshotStoreOverwrite(t *testing.T) {
	store, err := NewSnapshotStore(":memory:")
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}
	defer store.Close()

	machine := NewVM()
	if err := store.Save(machine.TakeSnapshot()); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	machine.DefineClass("Added", nil)
	if err := store.Save(machine.TakeSnapshot()); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	ids, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("List = %d entries after overwrite, want 1", len(ids))
	}

	got, err := store.Load(machine.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	found := false
	for _, c := range got.Classes {
		if c.Name == "Added" {
			found = true
		}
	}
	if !found {
		t.Error("overwritten snapshot should be the latest one")
	}
}

func TestSnapshotStoreMissing(t *testing.T) {
	store, err := NewSnapshotStore(":memory:")
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}
	defer store.Close()

	if _, err := store.Load("no-such-vm"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("Load missing = %v, want ErrSnapshotNotFound", err)
	}
}

func TestSnapshotStoreOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")

	machine := NewVM()
	store, err := NewSnapshotStore(path)
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}
	if err := store.Save(machine.TakeSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	store.Close()

	// Reopen and read back.
	store, err = NewSnapshotStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	if _, err := store.Load(machine.ID); err != nil {
		t.Errorf("Load after reopen: %v", err)
	}
}
