package ninebox

import "fmt"

// Level ranks strategic importance and retention priority.
type Level int

// Levels in ascending order.
const (
	LevelLow Level = iota
	LevelMedium
	LevelHigh
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	case LevelCritical:
		return "critical"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// MarshalText renders the level name.
func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText parses a level name.
func (l *Level) UnmarshalText(b []byte) error {
	for c := LevelLow; c <= LevelCritical; c++ {
		if c.String() == string(b) {
			*l = c
			return nil
		}
	}
	return fmt.Errorf("unknown level %q", b)
}

// Cell is the static reference data attached to a grid position.
type Cell struct {
	Key                 Key      `json:"key"`
	Label               string   `json:"label"`
	Description         string   `json:"description"`
	StrategicImportance Level    `json:"strategic_importance"`
	RetentionPriority   Level    `json:"retention_priority"`
	RecommendedActions  []string `json:"recommended_actions"`
	CareerPath          string   `json:"career_path"`
}

// Outranks reports whether c should win a tie against o: higher strategic
// importance first, then higher retention priority.
func (c Cell) Outranks(o Cell) bool {
	if c.StrategicImportance != o.StrategicImportance {
		return c.StrategicImportance > o.StrategicImportance
	}
	return c.RetentionPriority > o.RetentionPriority
}

// table is indexed by [performance][potential]. Never mutated.
var table = [3][3]Cell{ //nolint:gochecknoglobals // static reference data
	Low: {
		Low: {
			Label:               "Underperformer",
			Description:         "Below expectations on results and on growth signals.",
			StrategicImportance: LevelLow,
			RetentionPriority:   LevelLow,
			RecommendedActions: []string{
				"Agree a performance improvement plan with dated milestones",
				"Review role fit and workload",
				"Increase supervisor check-in frequency",
			},
			CareerPath: "Role realignment or structured exit",
		},
		Mid: {
			Label:               "Inconsistent Player",
			Description:         "Shows capacity to grow but is not delivering yet.",
			StrategicImportance: LevelLow,
			RetentionPriority:   LevelMedium,
			RecommendedActions: []string{
				"Clarify expectations and success criteria",
				"Pair with an experienced colleague",
				"Target one or two competency gaps with training",
			},
			CareerPath: "Stabilise in current role before lateral moves",
		},
		High: {
			Label:               "Rough Diamond",
			Description:         "High potential held back by current results.",
			StrategicImportance: LevelMedium,
			RetentionPriority:   LevelMedium,
			RecommendedActions: []string{
				"Diagnose blockers to performance",
				"Assign a mentor",
				"Consider a move to a role that suits the profile better",
			},
			CareerPath: "Development track after performance recovers",
		},
	},
	Mid: {
		Low: {
			Label:               "Effective Contributor",
			Description:         "Meets expectations with limited appetite or room for growth.",
			StrategicImportance: LevelLow,
			RetentionPriority:   LevelMedium,
			RecommendedActions: []string{
				"Recognise steady contribution",
				"Keep skills current in the present role",
			},
			CareerPath: "Specialist in current role",
		},
		Mid: {
			Label:               "Core Player",
			Description:         "Solid results and moderate growth potential; the backbone of the unit.",
			StrategicImportance: LevelMedium,
			RetentionPriority:   LevelMedium,
			RecommendedActions: []string{
				"Offer stretch goals in the current role",
				"Provide targeted training for the next level",
			},
			CareerPath: "Gradual progression within the department",
		},
		High: {
			Label:               "High Potential",
			Description:         "Strong growth signals with good current results.",
			StrategicImportance: LevelHigh,
			RetentionPriority:   LevelHigh,
			RecommendedActions: []string{
				"Give visible stretch assignments",
				"Enrol in the leadership development programme",
				"Set a 12 month growth plan with the supervisor",
			},
			CareerPath: "Promotion candidate within one to two cycles",
		},
	},
	High: {
		Low: {
			Label:               "Trusted Professional",
			Description:         "Excellent results in the current scope with limited mobility.",
			StrategicImportance: LevelMedium,
			RetentionPriority:   LevelHigh,
			RecommendedActions: []string{
				"Recognise and reward expertise",
				"Use as trainer or subject-matter reference",
			},
			CareerPath: "Senior specialist track",
		},
		Mid: {
			Label:               "High Performer",
			Description:         "Exceeds expectations with room to grow further.",
			StrategicImportance: LevelHigh,
			RetentionPriority:   LevelCritical,
			RecommendedActions: []string{
				"Broaden responsibilities",
				"Expose to cross-department projects",
				"Discuss career aspirations explicitly",
			},
			CareerPath: "Progression to coordination roles",
		},
		High: {
			Label:               "Star",
			Description:         "Top results and top potential; key to succession.",
			StrategicImportance: LevelCritical,
			RetentionPriority:   LevelCritical,
			RecommendedActions: []string{
				"Include in the succession plan",
				"Assign strategic projects",
				"Review compensation and recognition",
				"Mentor other employees",
			},
			CareerPath: "Leadership and management positions",
		},
	},
}

// Lookup returns the metadata for k. The returned value is a copy; the
// action list must not be modified.
func Lookup(k Key) Cell {
	c := table[clampTier(k.Performance)][clampTier(k.Potential)]
	c.Key = Key{Performance: clampTier(k.Performance), Potential: clampTier(k.Potential)}
	return c
}

// Cells returns all nine cells ordered by performance then potential,
// both descending (Star first).
func Cells() []Cell {
	out := make([]Cell, 0, len(table)*len(table))
	for p := High; p >= Low; p-- {
		for q := High; q >= Low; q-- {
			out = append(out, Lookup(Key{Performance: p, Potential: q}))
		}
	}
	return out
}

func clampTier(t Tier) Tier {
	switch {
	case t < Low:
		return Low
	case t > High:
		return High
	default:
		return t
	}
}
