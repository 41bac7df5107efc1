package repository

import (
	"math"
	"math/rand/v2"
)

// Treap-based per-period ranking of subjects.
//
// Ordering: performance DESC, then subjectID ASC (deterministic). "less"
// means ranks earlier, so an in-order traversal yields the dashboard from
// best to worst.

// scoreScale converts percentages to fixed point so equal displayed values
// compare equal.
const scoreScale = 1_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	return scoreFP(math.Round(x * scoreScale))
}

func toFloat(x scoreFP) float64 { return float64(x) / scoreScale }

type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) ranks before (bScore, bID).
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score scoreFP) *node {
	if n == nil {
		return &node{id: id, score: score, prio: rand.Uint64(), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// countBefore returns how many nodes rank strictly before (score, id).
func countBefore(n *node, score scoreFP, id string) int {
	c := 0
	for n != nil {
		if less(n.score, n.id, score, id) {
			c += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return c
}

func collectTopN(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// board ranks the subjects of one period.
type board struct {
	root *node
	byID map[string]scoreFP
}

func newBoard() *board { return &board{byID: make(map[string]scoreFP)} }

// upsert sets a subject's ranking score, replacing any previous one.
// Results are recomputed, not improved, so a lower score also sticks.
func (b *board) upsert(id string, score float64) {
	ns := toFixedPoint(score)
	if old, ok := b.byID[id]; ok {
		if old == ns {
			return
		}
		b.root = deleteNode(b.root, id, old)
	}
	b.byID[id] = ns
	b.root = insert(b.root, id, ns)
}

func (b *board) remove(id string) {
	if old, ok := b.byID[id]; ok {
		b.root = deleteNode(b.root, id, old)
		delete(b.byID, id)
	}
}

// rank returns the competition rank (1224) of a subject: one plus the
// number of subjects with a strictly higher score.
func (b *board) rank(id string) (int, float64, bool) {
	s, ok := b.byID[id]
	if !ok {
		return 0, 0, false
	}
	return 1 + countBefore(b.root, s, ""), toFloat(s), true
}

// top returns up to n (subjectID, score, rank) rows in rank order.
func (b *board) top(n int) []rankedRow {
	nodes := make([]*node, 0, min(n, len(b.byID)))
	collectTopN(b.root, n, &nodes)
	out := make([]rankedRow, len(nodes))
	for i, nd := range nodes {
		r := i + 1
		if i > 0 && nd.score == nodes[i-1].score {
			r = out[i-1].rank
		}
		out[i] = rankedRow{id: nd.id, score: toFloat(nd.score), rank: r}
	}
	return out
}

func (b *board) count() int { return len(b.byID) }

type rankedRow struct {
	id    string
	score float64
	rank  int
}
