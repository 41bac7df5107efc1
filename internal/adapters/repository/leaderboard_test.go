package repository

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"testing"
)

func TestBoard_Ordering(t *testing.T) {
	b := newBoard()
	for _, s := range []struct {
		id    string
		score float64
	}{
		{"emp-1", 85.0},
		{"emp-2", 95.0},
		{"emp-3", 75.0},
		{"emp-4", 100.0},
		{"emp-5", 80.0},
	} {
		b.upsert(s.id, s.score)
	}

	got := b.top(10)
	want := []string{"emp-4", "emp-2", "emp-1", "emp-5", "emp-3"}
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].id != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got[i].id)
		}
		if got[i].rank != i+1 {
			t.Errorf("position %d: expected rank %d, got %d", i, i+1, got[i].rank)
		}
	}
}

func TestBoard_TiesBreakBySubjectID(t *testing.T) {
	b := newBoard()
	b.upsert("emp-c", 80)
	b.upsert("emp-a", 80)
	b.upsert("emp-b", 90)
	b.upsert("emp-d", 70)

	got := b.top(4)
	ids := []string{got[0].id, got[1].id, got[2].id, got[3].id}
	want := []string{"emp-b", "emp-a", "emp-c", "emp-d"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
	// Competition ranking: 1, 2, 2, 4.
	ranks := []int{got[0].rank, got[1].rank, got[2].rank, got[3].rank}
	if ranks[0] != 1 || ranks[1] != 2 || ranks[2] != 2 || ranks[3] != 4 {
		t.Errorf("unexpected ranks %v", ranks)
	}

	for i, id := range want {
		r, _, ok := b.rank(id)
		if !ok || r != ranks[i] {
			t.Errorf("rank(%s) = %d, %v; want %d", id, r, ok, ranks[i])
		}
	}
}

func TestBoard_UpsertReplaces(t *testing.T) {
	b := newBoard()
	b.upsert("emp-1", 90)
	b.upsert("emp-2", 80)

	// A recomputation can lower a score.
	b.upsert("emp-1", 70)
	if b.count() != 2 {
		t.Fatalf("expected 2 subjects, got %d", b.count())
	}
	r, score, _ := b.rank("emp-1")
	if r != 2 || score != 70 {
		t.Errorf("expected rank 2 at 70, got %d at %v", r, score)
	}

	b.remove("emp-2")
	b.remove("missing")
	if b.count() != 1 {
		t.Fatalf("expected 1 subject, got %d", b.count())
	}
	if _, _, ok := b.rank("emp-2"); ok {
		t.Error("removed subject still ranked")
	}
}

func TestBoard_Limit(t *testing.T) {
	b := newBoard()
	for i := 0; i < 20; i++ {
		b.upsert(fmt.Sprintf("emp-%02d", i), float64(i))
	}
	if got := b.top(3); len(got) != 3 || got[0].id != "emp-19" {
		t.Fatalf("unexpected top 3: %+v", got)
	}
	if got := b.top(50); len(got) != 20 {
		t.Fatalf("expected all 20 rows, got %d", len(got))
	}
}

func TestBoard_MatchesSort(t *testing.T) {
	b := newBoard()
	type row struct {
		id    string
		score float64
	}
	latest := map[string]float64{}
	for i := 0; i < 2000; i++ {
		id := fmt.Sprintf("emp-%03d", rand.IntN(300))
		score := float64(rand.IntN(1001)) / 10
		b.upsert(id, score)
		latest[id] = score
	}

	want := make([]row, 0, len(latest))
	for id, s := range latest {
		want = append(want, row{id, s})
	}
	sort.Slice(want, func(i, j int) bool {
		if want[i].score != want[j].score {
			return want[i].score > want[j].score
		}
		return want[i].id < want[j].id
	})

	got := b.top(len(want))
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].id != want[i].id || got[i].score != want[i].score {
			t.Fatalf("position %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestFixedPoint(t *testing.T) {
	for _, v := range []float64{0, 59.9, 60, 84.9, 85, 100, 92.5} {
		if got := toFloat(toFixedPoint(v)); got != v {
			t.Errorf("round trip %v gave %v", v, got)
		}
	}
}
