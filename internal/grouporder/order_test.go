package grouporder

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAddIfAbsent(t *testing.T) {
	o := New()

	for _, label := range []string{"И-25-1", "П-24", "", "И-25-1", "Б-23"} {
		o.AddIfAbsent(label)
	}

	want := []string{"И-25-1", "П-24", "Б-23"}
	if diff := cmp.Diff(want, o.Snapshot()); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(3, o.Len()); diff != "" {
		t.Errorf("len mismatch (-want +got):\n%s", diff)
	}
}

func TestPositionsAreStable(t *testing.T) {
	o := New()
	o.AddIfAbsent("A")
	o.AddIfAbsent("B")
	before := o.Snapshot()

	// a later pass that sees the groups in another order only appends new ones
	for _, label := range []string{"C", "B", "A"} {
		o.AddIfAbsent(label)
	}

	got := o.Snapshot()
	if diff := cmp.Diff(before, got[:len(before)]); diff != "" {
		t.Errorf("prefix changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, got); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	o := New()
	o.AddIfAbsent("A")
	snap := o.Snapshot()
	snap[0] = "mutated"

	if diff := cmp.Diff([]string{"A"}, o.Snapshot()); diff != "" {
		t.Errorf("snapshot aliased internal state (-want +got):\n%s", diff)
	}
}

func TestConcurrentAdds(t *testing.T) {
	o := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, label := range []string{"A", "B", "C", "D"} {
				o.AddIfAbsent(label)
			}
		}()
	}
	wg.Wait()

	if diff := cmp.Diff(4, o.Len()); diff != "" {
		t.Errorf("len mismatch (-want +got):\n%s", diff)
	}
}
