package core

import "testing"

func TestTrackReadsOwnWrites(t *testing.T) {
	store := NewInMemorySubstateStore([32]byte{1})
	track := NewTrack(store, [32]byte{1})

	if err := track.Write([]byte("k"), []byte("v1")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	sub, ok, err := track.Read([]byte("k"))
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	if string(sub.Value) != "v1" {
		t.Fatalf("got %q, want v1", sub.Value)
	}

	if _, _, err := store.Read([]byte("k")); err != nil {
		t.Fatalf("store.Read: %v", err)
	}
	if _, found, _ := store.Read([]byte("k")); found {
		t.Fatal("uncommitted track write should not be visible on the underlying store")
	}
}

func TestTrackCommitAppliesToStore(t *testing.T) {
	store := NewInMemorySubstateStore([32]byte{2})
	track := NewTrack(store, [32]byte{2})

	_ = track.Write([]byte("a"), []byte("1"))
	_ = track.WriteChild([]byte("a"), []byte{0xaa}, []byte("child"))

	if err := track.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	sub, ok, err := store.Read([]byte("a"))
	if err != nil || !ok {
		t.Fatalf("store.Read after commit: ok=%v err=%v", ok, err)
	}
	if string(sub.Value) != "1" {
		t.Fatalf("got %q, want 1", sub.Value)
	}

	childSub, ok, err := store.ReadChild([]byte("a"), []byte{0xaa})
	if err != nil || !ok {
		t.Fatalf("store.ReadChild after commit: ok=%v err=%v", ok, err)
	}
	if string(childSub.Value) != "child" {
		t.Fatalf("got %q, want child", childSub.Value)
	}
}

func TestTrackAbortDiscardsBuffer(t *testing.T) {
	store := NewInMemorySubstateStore([32]byte{3})
	track := NewTrack(store, [32]byte{3})

	_ = track.Write([]byte("a"), []byte("1"))
	track.Abort()

	if err := track.Commit(); err != nil {
		t.Fatalf("Commit after Abort (should be a no-op commit): %v", err)
	}
	if _, found, _ := store.Read([]byte("a")); found {
		t.Fatal("aborted write must never reach the underlying store")
	}
}

func TestTrackPhysicalIdsStrictlyIncreasing(t *testing.T) {
	store := NewInMemorySubstateStore([32]byte{4})
	track := NewTrack(store, [32]byte{4})
	_ = track.Write([]byte("a"), []byte("1"))
	_ = track.Write([]byte("b"), []byte("2"))
	if err := track.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	subA, _, _ := store.Read([]byte("a"))
	subB, _, _ := store.Read([]byte("b"))
	if subB.PhysicalId.Sequence <= subA.PhysicalId.Sequence {
		t.Fatalf("physical ids not strictly increasing: a=%d b=%d", subA.PhysicalId.Sequence, subB.PhysicalId.Sequence)
	}
}
