package store

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

// testItem is a simple struct used throughout store tests.
type testItem struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// ---------------------------------------------------------------------------
// Store[T] – basic CRUD
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	s := New[testItem]()
	if s == nil {
		t.Fatal("expected non-nil store")
	}
	if s.Count() != 0 {
		t.Errorf("expected empty store, got count %d", s.Count())
	}
}

func TestKey(t *testing.T) {
	if got := Key("topp", "states_shapefile", "states"); got != "topp/states_shapefile/states" {
		t.Errorf("expected topp/states_shapefile/states, got %s", got)
	}
	if got := Key("", "point"); got != "/point" {
		t.Errorf("expected /point, got %s", got)
	}
}

func TestSetAndGet(t *testing.T) {
	s := New[testItem]()
	s.Set("topp", testItem{Name: "topp", Value: 1})

	got, ok := s.Get("topp")
	if !ok {
		t.Fatal("expected item to be found")
	}
	if got.Name != "topp" || got.Value != 1 {
		t.Errorf("unexpected item: %+v", got)
	}
	if !s.Has("topp") {
		t.Error("expected Has to report the key")
	}
}

func TestGetMissing(t *testing.T) {
	s := New[testItem]()
	if _, ok := s.Get("nonexistent"); ok {
		t.Error("expected ok=false for missing item")
	}
	if s.Has("nonexistent") {
		t.Error("expected Has=false for missing item")
	}
}

func TestSetOverwriteKeepsOrder(t *testing.T) {
	s := New[testItem]()
	s.Set("a", testItem{Name: "first", Value: 1})
	s.Set("b", testItem{Name: "other", Value: 9})
	s.Set("a", testItem{Name: "second", Value: 2})

	got, _ := s.Get("a")
	if got.Name != "second" {
		t.Errorf("expected overwritten item, got %+v", got)
	}
	keys := s.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("expected [a b], got %v", keys)
	}
}

func TestUpdate(t *testing.T) {
	s := New[testItem]()
	s.Set("a", testItem{Name: "a", Value: 1})

	ok := s.Update("a", func(it testItem) testItem {
		it.Value++
		return it
	})
	if !ok {
		t.Fatal("expected update to succeed")
	}
	got, _ := s.Get("a")
	if got.Value != 2 {
		t.Errorf("expected value 2, got %d", got.Value)
	}

	if s.Update("missing", func(it testItem) testItem { return it }) {
		t.Error("expected update of missing key to fail")
	}
}

func TestDelete(t *testing.T) {
	s := New[testItem]()
	s.Set("a", testItem{Name: "a"})
	s.Set("b", testItem{Name: "b"})

	if !s.Delete("a") {
		t.Error("expected Delete to return true")
	}
	if s.Delete("a") {
		t.Error("expected second Delete to return false")
	}
	keys := s.Keys()
	if len(keys) != 1 || keys[0] != "b" {
		t.Errorf("expected [b], got %v", keys)
	}
}

func TestDeleteFunc(t *testing.T) {
	s := New[testItem]()
	s.Set(Key("topp", "states"), testItem{Name: "states"})
	s.Set(Key("topp", "roads"), testItem{Name: "roads"})
	s.Set(Key("sf", "roads"), testItem{Name: "roads"})

	n := s.DeleteFunc(func(key string, _ testItem) bool {
		return strings.HasPrefix(key, "topp/")
	})
	if n != 2 {
		t.Errorf("expected 2 deletions, got %d", n)
	}
	keys := s.Keys()
	if len(keys) != 1 || keys[0] != "sf/roads" {
		t.Errorf("expected [sf/roads], got %v", keys)
	}
}

// ---------------------------------------------------------------------------
// Listing and filtering
// ---------------------------------------------------------------------------

func TestListInsertionOrder(t *testing.T) {
	s := New[testItem]()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		s.Set(name, testItem{Name: name})
	}

	items := s.List()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Name != "zeta" || items[1].Name != "alpha" || items[2].Name != "mid" {
		t.Errorf("unexpected order: %+v", items)
	}
}

func TestKeysReturnsCopy(t *testing.T) {
	s := New[testItem]()
	s.Set("a", testItem{})
	keys := s.Keys()
	keys[0] = "mutated"
	if s.Keys()[0] != "a" {
		t.Error("Keys should return a copy")
	}
}

func TestFilterAndAny(t *testing.T) {
	s := New[testItem]()
	s.Set("a", testItem{Name: "a", Value: 1})
	s.Set("b", testItem{Name: "b", Value: 2})
	s.Set("c", testItem{Name: "c", Value: 3})

	odd := s.Filter(func(_ string, it testItem) bool { return it.Value%2 == 1 })
	if len(odd) != 2 || odd[0].Name != "a" || odd[1].Name != "c" {
		t.Errorf("unexpected filter result: %+v", odd)
	}
	if !s.Any(func(k string, _ testItem) bool { return k == "b" }) {
		t.Error("expected Any to find b")
	}
	if s.Any(func(_ string, it testItem) bool { return it.Value > 10 }) {
		t.Error("expected Any to find nothing")
	}
}

// ---------------------------------------------------------------------------
// Snapshot
// ---------------------------------------------------------------------------

func TestSnapshotRoundTripKeepsOrder(t *testing.T) {
	s := New[testItem]()
	s.Set("z", testItem{Name: "z"})
	s.Set("a", testItem{Name: "a"})

	other := New[testItem]()
	other.Set("stale", testItem{})
	other.LoadSnapshot(s.Snapshot())

	keys := other.Keys()
	if len(keys) != 2 || keys[0] != "z" || keys[1] != "a" {
		t.Errorf("expected [z a], got %v", keys)
	}
	if other.Has("stale") {
		t.Error("expected LoadSnapshot to replace existing items")
	}
}

func TestReset(t *testing.T) {
	s := New[testItem]()
	s.Set("a", testItem{})
	s.Reset()
	if s.Count() != 0 || len(s.Keys()) != 0 {
		t.Errorf("expected empty store after reset, got %d", s.Count())
	}
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

func TestConcurrentAccess(t *testing.T) {
	s := New[testItem]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i)
			s.Set(key, testItem{Value: i})
			s.Get(key)
			s.List()
		}(i)
	}
	wg.Wait()
	if s.Count() != 50 {
		t.Errorf("expected 50 items, got %d", s.Count())
	}
}
