package training

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// MuscleGroup is one of the fixed muscle groups that fatigue is tracked for.
type MuscleGroup string

const (
	MuscleGroupChest      MuscleGroup = "chest"
	MuscleGroupBack       MuscleGroup = "back"
	MuscleGroupShoulders  MuscleGroup = "shoulders"
	MuscleGroupBiceps     MuscleGroup = "biceps"
	MuscleGroupTriceps    MuscleGroup = "triceps"
	MuscleGroupQuadriceps MuscleGroup = "quadriceps"
	MuscleGroupHamstrings MuscleGroup = "hamstrings"
	MuscleGroupGlutes     MuscleGroup = "glutes"
	MuscleGroupCalves     MuscleGroup = "calves"
	MuscleGroupCore       MuscleGroup = "core"
)

// MuscleGroups lists every muscle group in a stable order.
func MuscleGroups() []MuscleGroup {
	return []MuscleGroup{
		MuscleGroupChest,
		MuscleGroupBack,
		MuscleGroupShoulders,
		MuscleGroupBiceps,
		MuscleGroupTriceps,
		MuscleGroupQuadriceps,
		MuscleGroupHamstrings,
		MuscleGroupGlutes,
		MuscleGroupCalves,
		MuscleGroupCore,
	}
}

// ParseMuscleGroup returns ErrUnknownMuscleGroup for anything outside the fixed set.
func ParseMuscleGroup(s string) (MuscleGroup, error) {
	for _, g := range MuscleGroups() {
		if string(g) == s {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMuscleGroup, s)
}

// MuscleGroupFatigue holds an optional 0–100 value per muscle group. A nil field means nothing has been recorded for
// the group, which is different from a recorded zero.
type MuscleGroupFatigue struct {
	Chest      *float64 `json:"chest,omitempty"`
	Back       *float64 `json:"back,omitempty"`
	Shoulders  *float64 `json:"shoulders,omitempty"`
	Biceps     *float64 `json:"biceps,omitempty"`
	Triceps    *float64 `json:"triceps,omitempty"`
	Quadriceps *float64 `json:"quadriceps,omitempty"`
	Hamstrings *float64 `json:"hamstrings,omitempty"`
	Glutes     *float64 `json:"glutes,omitempty"`
	Calves     *float64 `json:"calves,omitempty"`
	Core       *float64 `json:"core,omitempty"`
}

func (m *MuscleGroupFatigue) field(g MuscleGroup) **float64 {
	switch g {
	case MuscleGroupChest:
		return &m.Chest
	case MuscleGroupBack:
		return &m.Back
	case MuscleGroupShoulders:
		return &m.Shoulders
	case MuscleGroupBiceps:
		return &m.Biceps
	case MuscleGroupTriceps:
		return &m.Triceps
	case MuscleGroupQuadriceps:
		return &m.Quadriceps
	case MuscleGroupHamstrings:
		return &m.Hamstrings
	case MuscleGroupGlutes:
		return &m.Glutes
	case MuscleGroupCalves:
		return &m.Calves
	case MuscleGroupCore:
		return &m.Core
	}
	return nil
}

// Get returns the recorded value for g and whether one exists.
func (m MuscleGroupFatigue) Get(g MuscleGroup) (float64, bool) {
	f := m.field(g)
	if f == nil || *f == nil {
		return 0, false
	}
	return **f, true
}

// Set records v for g. Unknown groups are ignored.
func (m *MuscleGroupFatigue) Set(g MuscleGroup, v float64) {
	if f := m.field(g); f != nil {
		*f = &v
	}
}

// Each calls fn for every recorded group in MuscleGroups order.
func (m MuscleGroupFatigue) Each(fn func(MuscleGroup, float64)) {
	for _, g := range MuscleGroups() {
		if v, ok := m.Get(g); ok {
			fn(g, v)
		}
	}
}

// Len returns the number of recorded groups.
func (m MuscleGroupFatigue) Len() int {
	n := 0
	m.Each(func(MuscleGroup, float64) { n++ })
	return n
}

// UnmarshalJSON rejects keys that are not muscle groups.
func (m *MuscleGroupFatigue) UnmarshalJSON(data []byte) error {
	type plain MuscleGroupFatigue
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var p plain
	if err := dec.Decode(&p); err != nil {
		if strings.HasPrefix(err.Error(), "json: unknown field") {
			return fmt.Errorf("%w: %w", ErrUnknownMuscleGroup, err)
		}
		return fmt.Errorf("decode muscle group fatigue: %w", err)
	}
	*m = MuscleGroupFatigue(p)
	return nil
}
