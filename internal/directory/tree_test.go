package directory

import (
	"math/rand/v2"
	"sort"
	"testing"
)

func requireValid[V any](t *testing.T, tree *Tree[int, V]) {
	t.Helper()
	if err := tree.Verify(); err != nil {
		t.Fatal(err)
	}
}

func TestInsertFindAndAscend(t *testing.T) {
	tree := New[int, int]()
	for _, k := range []int{50, 20, 80, 10, 30, 70, 90, 25, 27, 26} {
		tree.Insert(k, k*10)
		requireValid(t, tree)
	}
	if tree.Len() != 10 {
		t.Fatalf("Len = %d, want 10", tree.Len())
	}

	h := tree.Find(27)
	if h == nil || h.Key() != 27 || h.Value() != 270 {
		t.Fatalf("Find(27) = %+v", h)
	}
	if tree.Find(28) != nil {
		t.Fatal("Find(28) returned a handle for an absent key")
	}

	var keys []int
	for _, e := range tree.Entries() {
		keys = append(keys, e.Key)
	}
	if !sort.IntsAreSorted(keys) || len(keys) != 10 {
		t.Fatalf("Entries keys = %v, want 10 ascending keys", keys)
	}
}

func TestInsertExistingKeyReplacesValue(t *testing.T) {
	tree := New[int, string]()
	first := tree.Insert(1, "a")
	second := tree.Insert(1, "b")
	if first != second {
		t.Fatal("re-inserting a key returned a different handle")
	}
	if tree.Len() != 1 || tree.Find(1).Value() != "b" {
		t.Fatalf("Len = %d, value %q; want 1, %q", tree.Len(), tree.Find(1).Value(), "b")
	}
}

func TestDeleteKeepsOtherHandlesValid(t *testing.T) {
	tree := New[int, int]()
	handles := map[int]*Handle[int, int]{}
	for k := 1; k <= 64; k++ {
		handles[k] = tree.Insert(k, -k)
	}
	// Deleting an interior node with two children moves its successor;
	// the successor's handle must keep working afterwards.
	for k := 1; k <= 64; k += 2 {
		tree.Delete(handles[k])
		requireValid(t, tree)
	}
	for k := 2; k <= 64; k += 2 {
		if got := tree.Find(k); got != handles[k] {
			t.Fatalf("Find(%d) returned a different handle after deletes", k)
		}
		tree.Delete(handles[k])
		requireValid(t, tree)
	}
	if tree.Len() != 0 || tree.Min() != nil {
		t.Fatalf("tree not empty: Len = %d", tree.Len())
	}
}

func TestDeleteStaleOrForeignHandleIsIgnored(t *testing.T) {
	a := New[int, int]()
	b := New[int, int]()
	h := a.Insert(1, 1)
	b.Insert(1, 1)

	b.Delete(h)
	if b.Len() != 1 {
		t.Fatal("deleting a foreign handle changed the tree")
	}
	a.Delete(h)
	a.Delete(h)
	if a.Len() != 0 {
		t.Fatalf("Len = %d after double delete, want 0", a.Len())
	}
	a.Delete(nil)

	c := New[int, int]()
	old := c.Insert(5, 5)
	c.Clear()
	c.Insert(5, 6)
	c.Delete(old)
	if c.Len() != 1 {
		t.Fatal("handle from before Clear deleted a new entry")
	}
}

func TestAscendRange(t *testing.T) {
	tree := New[int, int]()
	for k := 0; k < 100; k += 5 {
		tree.Insert(k, k)
	}
	tests := []struct {
		lo, hi int
		want   []int
	}{
		{lo: 12, hi: 31, want: []int{15, 20, 25, 30}},
		{lo: 15, hi: 15, want: []int{15}},
		{lo: -10, hi: 4, want: []int{0}},
		{lo: 96, hi: 200, want: nil},
		{lo: 40, hi: 30, want: nil},
	}
	for _, tt := range tests {
		var got []int
		tree.AscendRange(tt.lo, tt.hi, func(k, _ int) bool {
			got = append(got, k)
			return true
		})
		if len(got) != len(tt.want) {
			t.Fatalf("AscendRange(%d, %d) = %v, want %v", tt.lo, tt.hi, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("AscendRange(%d, %d) = %v, want %v", tt.lo, tt.hi, got, tt.want)
			}
		}
	}

	calls := 0
	tree.AscendRange(0, 100, func(int, int) bool {
		calls++
		return calls < 3
	})
	if calls != 3 {
		t.Fatalf("early stop: fn called %d times, want 3", calls)
	}
}

func TestEntriesIsSnapshot(t *testing.T) {
	tree := New[int, int]()
	tree.Insert(2, 20)
	tree.Insert(1, 10)
	snap := tree.Entries()
	tree.Delete(tree.Find(1))
	tree.Insert(3, 30)
	if len(snap) != 2 || snap[0].Key != 1 || snap[1].Key != 2 {
		t.Fatalf("snapshot changed: %+v", snap)
	}
	again := tree.Entries()
	if len(again) != 2 || again[0].Key != 2 || again[1].Key != 3 {
		t.Fatalf("Entries = %+v", again)
	}
}

func TestRandomOperationsMatchMap(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	tree := New[int, int]()
	model := map[int]int{}

	for step := 0; step < 4000; step++ {
		k := rng.IntN(300)
		if rng.IntN(3) == 0 {
			_, exists := model[k]
			h := tree.Find(k)
			if (h != nil) != exists {
				t.Fatalf("step %d: Find(%d) presence mismatch", step, k)
			}
			tree.Delete(h)
			delete(model, k)
		} else {
			v := rng.Int()
			tree.Insert(k, v)
			model[k] = v
		}
		if tree.Len() != len(model) {
			t.Fatalf("step %d: Len = %d, model %d", step, tree.Len(), len(model))
		}
		if step%50 == 0 {
			requireValid(t, tree)
		}
	}
	requireValid(t, tree)

	want := make([]int, 0, len(model))
	for k := range model {
		want = append(want, k)
	}
	sort.Ints(want)
	got := tree.Entries()
	for i, e := range got {
		if e.Key != want[i] || e.Value != model[e.Key] {
			t.Fatalf("entry %d = %+v, want key %d value %d", i, e, want[i], model[want[i]])
		}
	}
}
