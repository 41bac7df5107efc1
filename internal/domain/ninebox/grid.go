package ninebox

import "sort"

// Member is a subject placed in a grid cell.
type Member struct {
	SubjectID   string  `json:"subject_id"`
	Performance float64 `json:"performance"`
	Potential   float64 `json:"potential"`
}

// Slot is one populated grid position.
type Slot struct {
	Cell    Cell     `json:"cell"`
	Members []Member `json:"members"`
}

// Grid aggregates classified subjects. Subjects without a cell are kept
// apart in Excluded rather than defaulted into a boundary cell.
type Grid struct {
	slots    map[Key][]Member
	excluded []string
}

// NewGrid returns an empty grid.
func NewGrid() *Grid {
	return &Grid{slots: make(map[Key][]Member)}
}

// Add places a subject. A nil key records the subject as excluded and
// returns false.
func (g *Grid) Add(subjectID string, performance float64, potential *float64, key *Key) bool {
	if key == nil || potential == nil {
		g.excluded = append(g.excluded, subjectID)
		return false
	}
	g.slots[*key] = append(g.slots[*key], Member{
		SubjectID:   subjectID,
		Performance: performance,
		Potential:   *potential,
	})
	return true
}

// Slots returns all nine positions in Cells() order, members sorted by
// subject id.
func (g *Grid) Slots() []Slot {
	cells := Cells()
	out := make([]Slot, 0, len(cells))
	for _, c := range cells {
		members := append([]Member(nil), g.slots[c.Key]...)
		sort.Slice(members, func(i, j int) bool { return members[i].SubjectID < members[j].SubjectID })
		out = append(out, Slot{Cell: c, Members: members})
	}
	return out
}

// Count returns the number of classified subjects in k.
func (g *Grid) Count(k Key) int { return len(g.slots[k]) }

// Total returns the number of classified subjects.
func (g *Grid) Total() int {
	n := 0
	for _, m := range g.slots {
		n += len(m)
	}
	return n
}

// Excluded returns the sorted ids of subjects left out for lack of a cell.
func (g *Grid) Excluded() []string {
	out := append([]string(nil), g.excluded...)
	sort.Strings(out)
	return out
}
