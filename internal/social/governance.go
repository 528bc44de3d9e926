package social

import (
	"encoding/json"
	"fmt"

	"github.com/talgya/regime-world/internal/rules"
)

// GovernanceType is the displayed classification of a regime.
type GovernanceType uint8

const (
	Democratic    GovernanceType = iota // D
	Authoritarian                       // A
	Tribal                              // T
	Anarchic                            // N

	NumGovernanceTypes = 4
)

var govCodes = [NumGovernanceTypes]string{"D", "A", "T", "N"}
var govNames = [NumGovernanceTypes]string{"Democratic", "Authoritarian", "Tribal", "Anarchic"}

// String returns the single-letter code.
func (g GovernanceType) String() string {
	if int(g) >= NumGovernanceTypes {
		return fmt.Sprintf("GovernanceType(%d)", uint8(g))
	}
	return govCodes[g]
}

// Name returns the long name.
func (g GovernanceType) Name() string {
	if int(g) >= NumGovernanceTypes {
		return g.String()
	}
	return govNames[g]
}

// ParseGovernanceType maps a code back to its type.
func ParseGovernanceType(code string) (GovernanceType, error) {
	for i, c := range govCodes {
		if c == code {
			return GovernanceType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown governance type %q", code)
}

func (g GovernanceType) MarshalText() ([]byte, error) {
	if int(g) >= NumGovernanceTypes {
		return nil, fmt.Errorf("invalid governance type %d", uint8(g))
	}
	return []byte(govCodes[g]), nil
}

func (g *GovernanceType) UnmarshalText(b []byte) error {
	parsed, err := ParseGovernanceType(string(b))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// TypeFromCI assigns the creation-time type from the generation CI bands.
func TypeFromCI(ci float64, b rules.TypeBands) GovernanceType {
	switch {
	case ci < b.Anarchic:
		return Anarchic
	case ci < b.Democratic:
		return Democratic
	case ci < b.Authoritarian:
		return Authoritarian
	default:
		return Tribal
	}
}

// Bucket picks this turn's candidate type from the Order and Inclusion scores.
// Bands are checked in fixed precedence; the first match wins and a miss
// reinforces the current type.
func Bucket(o, i float64, current GovernanceType, c rules.Classifier) GovernanceType {
	switch {
	case o >= c.HighO && i >= c.HighI:
		return Democratic
	case o >= c.HighO && i < c.HighI:
		return Authoritarian
	case o < c.TribalO && i < c.TribalI:
		return Tribal
	case o < c.AnarchyO && i < c.AnarchyI:
		return Anarchic
	default:
		return current
	}
}

// TypeMemory holds one hysteresis counter per governance type, each in [0, cap].
type TypeMemory [NumGovernanceTypes]int

// Vote increments the bucket's counter (capped) and decrements the rest (floored at 0).
func (m *TypeMemory) Vote(bucket GovernanceType, cap int) {
	for g := range m {
		if GovernanceType(g) == bucket {
			m[g] = min(cap, m[g]+1)
		} else {
			m[g] = min(cap, max(0, m[g]-1))
		}
	}
}

// Leader returns the type with the highest counter. Ties go to the earlier type.
func (m TypeMemory) Leader() GovernanceType {
	best := 0
	for g := 1; g < NumGovernanceTypes; g++ {
		if m[g] > m[best] {
			best = g
		}
	}
	return GovernanceType(best)
}

// Advance records one vote and returns the displayed type: the leader if its
// counter has reached that type's minimum, otherwise current.
func (m *TypeMemory) Advance(bucket, current GovernanceType, c rules.Classifier) GovernanceType {
	m.Vote(bucket, c.MemoryCap)
	win := m.Leader()
	if m[win] >= c.Need.Need(int(win)) {
		return win
	}
	return current
}

func (m TypeMemory) MarshalJSON() ([]byte, error) {
	out := make(map[string]int, NumGovernanceTypes)
	for g, n := range m {
		out[govCodes[g]] = n
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes counters keyed by type code, pinning each into
// [0, rules.MaxMemoryCap].
func (m *TypeMemory) UnmarshalJSON(b []byte) error {
	var in map[string]int
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*m = TypeMemory{}
	for code, n := range in {
		g, err := ParseGovernanceType(code)
		if err != nil {
			return err
		}
		m[g] = max(0, min(rules.MaxMemoryCap, n))
	}
	return nil
}
