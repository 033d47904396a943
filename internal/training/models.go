package training

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoFatigueRecord is returned when a user has no fatigue snapshot to update.
	ErrNoFatigueRecord = errors.New("no fatigue record")
	// ErrConcurrentUpdate is returned when the fatigue snapshot changed between read and write.
	ErrConcurrentUpdate = errors.New("concurrent fatigue update")
	// ErrInvalidArgument is returned for arguments outside their valid range.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnknownMuscleGroup is returned for muscle group names outside the fixed set.
	ErrUnknownMuscleGroup = errors.New("unknown muscle group")
)

// UserFatigue is the latest fatigue snapshot of a user. Every workout overwrites it.
type UserFatigue struct {
	UserID string `json:"user_id"`
	// CurrentFatigue is the whole-body fatigue between 0 and 100.
	CurrentFatigue     float64            `json:"current_fatigue"`
	MuscleGroupFatigue MuscleGroupFatigue `json:"muscle_group_fatigue"`
	LastUpdated        time.Time          `json:"last_updated"`
	// Version increments on every write and guards against lost updates.
	Version int64 `json:"version"`
}

// Techniques flags the advanced training techniques used in a set.
type Techniques struct {
	DropSet       bool `json:"drop_set,omitempty"`
	RestPause     bool `json:"rest_pause,omitempty"`
	MechanicalSet bool `json:"mechanical_set,omitempty"`
	Partials      bool `json:"partials,omitempty"`
	GiantSet      bool `json:"giant_set,omitempty"`
	MyoReps       bool `json:"myo_reps,omitempty"`
	PreFatigue    bool `json:"pre_fatigue,omitempty"`
	PostFatigue   bool `json:"post_fatigue,omitempty"`
	Isometric     bool `json:"isometric,omitempty"`
}

// Count returns the number of techniques used.
func (t Techniques) Count() int {
	n := 0
	for _, used := range []bool{
		t.DropSet, t.RestPause, t.MechanicalSet, t.Partials, t.GiantSet,
		t.MyoReps, t.PreFatigue, t.PostFatigue, t.Isometric,
	} {
		if used {
			n++
		}
	}
	return n
}

// CompletedSet is a single logged set. Weight, reps and RIR are optional because users don't always record them.
type CompletedSet struct {
	ExerciseID string `json:"exercise_id"`
	// AlternativeExerciseID is set when the user swapped the planned exercise for a substitute.
	AlternativeExerciseID string     `json:"alternative_exercise_id,omitempty"`
	WeightKg              *float64   `json:"weight_kg,omitempty"`
	Reps                  *int       `json:"reps,omitempty"`
	RIR                   *int       `json:"rir,omitempty"`
	Techniques            Techniques `json:"techniques"`
}

// WorkoutLog is an append-only record of a finished workout.
type WorkoutLog struct {
	ID            string
	UserID        string
	Date          time.Time
	CompletedSets []CompletedSet
	Duration      time.Duration
	// MuscleGroupFatigue is the fatigue contribution of the workout per group on a 0–10 scale.
	MuscleGroupFatigue MuscleGroupFatigue
}

// ExerciseHistoryEntry is a fully recorded set flattened from recent workout logs.
type ExerciseHistoryEntry struct {
	ExerciseID string
	Date       time.Time
	WeightKg   float64
	Reps       int
	RIR        int
}

// Equipment is the equipment an exercise is performed with.
type Equipment string

const (
	EquipmentBarbell    Equipment = "barbell"
	EquipmentDumbbell   Equipment = "dumbbell"
	EquipmentMachine    Equipment = "machine"
	EquipmentCable      Equipment = "cable"
	EquipmentBodyweight Equipment = "bodyweight"
)

func (e Equipment) valid() bool {
	switch e {
	case EquipmentBarbell, EquipmentDumbbell, EquipmentMachine, EquipmentCable, EquipmentBodyweight:
		return true
	}
	return false
}

// ExerciseProfile describes an exercise in the catalog.
type ExerciseProfile struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Compound           bool        `json:"compound"`
	Equipment          Equipment   `json:"equipment"`
	PrimaryMuscleGroup MuscleGroup `json:"primary_muscle_group"`
}

// Alternative is a substitute exercise with the RIR to aim for when performing it.
type Alternative struct {
	Exercise       ExerciseProfile `json:"exercise"`
	RecommendedRIR int             `json:"recommended_rir"`
}

// Source tells how a weight recommendation was produced.
type Source string

const (
	SourceHistory     Source = "history"
	SourceStaticTable Source = "static_table"
)

// Recommendation is a suggested working weight.
type Recommendation struct {
	WeightKg float64 `json:"weight_kg"`
	Source   Source  `json:"source"`
}
