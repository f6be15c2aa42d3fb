package registry

import (
	"sync"
	"testing"

	"go.uber.org/zap"
)

type fakeEntity struct {
	id   uint32
	name string
}

func (f *fakeEntity) EntityID() uint32   { return f.id }
func (f *fakeEntity) EntityName() string { return f.name }

func TestInsertIdempotent(t *testing.T) {
	r := New[*fakeEntity](nil)
	a := &fakeEntity{id: 1, name: "alpha"}
	got1 := r.Insert(a)
	got2 := r.Insert(&fakeEntity{id: 1, name: "alpha"})
	if got1 != got2 {
		t.Errorf("second insert of an equal-name entity should return the first's pointer")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestLookupByNameAndID(t *testing.T) {
	r := New[*fakeEntity](nil)
	a := r.Insert(&fakeEntity{id: 5, name: "beta"})

	byName, ok := r.Lookup("beta")
	if !ok || byName != a {
		t.Errorf("Lookup by name failed")
	}
	byID, ok := r.LookupByID(5)
	if !ok || byID != a {
		t.Errorf("LookupByID failed")
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Errorf("Lookup of a missing name should report not found")
	}
}

func TestZeroIDOnlyFindableByName(t *testing.T) {
	r := New[*fakeEntity](nil)
	r.Insert(&fakeEntity{id: 0, name: "anonymous"})
	if _, ok := r.LookupByID(0); ok {
		t.Errorf("id 0 should never be resolvable via LookupByID")
	}
	if _, ok := r.Lookup("anonymous"); !ok {
		t.Errorf("id-0 entity should still be findable by name")
	}
}

func TestIDCollisionAcrossNamesAborts(t *testing.T) {
	r := New[*fakeEntity](nil)
	r.Insert(&fakeEntity{id: 9, name: "first"})

	var aborted bool
	r.SetAbort(func(msg string, fields ...zap.Field) {
		aborted = true
	})
	r.Insert(&fakeEntity{id: 9, name: "second"})
	if !aborted {
		t.Errorf("inserting a different name under an existing id should invoke the abort hook")
	}
}

func TestIterateDeterministicOrder(t *testing.T) {
	r := New[*fakeEntity](nil)
	names := []string{"a", "b", "c", "d"}
	for i, n := range names {
		r.Insert(&fakeEntity{id: uint32(i + 1), name: n})
	}
	var seen []string
	r.Iterate(func(e *fakeEntity) bool {
		seen = append(seen, e.name)
		return true
	})
	for i, n := range names {
		if seen[i] != n {
			t.Fatalf("iterate order = %v, want %v", seen, names)
		}
	}
}

func TestIterateEarlyStop(t *testing.T) {
	r := New[*fakeEntity](nil)
	for i := 0; i < 10; i++ {
		r.Insert(&fakeEntity{id: uint32(i + 1), name: string(rune('a' + i))})
	}
	count := 0
	r.Iterate(func(e *fakeEntity) bool {
		count++
		return count < 3
	})
	if count != 3 {
		t.Errorf("Iterate should stop as soon as fn returns false, got count=%d", count)
	}
}

func TestConcurrentInsertLookup(t *testing.T) {
	r := New[*fakeEntity](nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Insert(&fakeEntity{id: uint32(i + 1), name: string(rune('a' + i%26))})
		}(i)
	}
	wg.Wait()
	if r.Len() == 0 {
		t.Errorf("expected entities to be registered after concurrent inserts")
	}
}

func TestMustLookupPanicsWhenMissing(t *testing.T) {
	r := New[*fakeEntity](nil)
	defer func() {
		if recover() == nil {
			t.Errorf("MustLookup should panic when the entity is missing")
		}
	}()
	r.MustLookup("nope")
}
