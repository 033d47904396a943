package training_test

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/loadcoach/internal/ptr"
	"github.com/myrjola/loadcoach/internal/training"
)

func TestFatigueModifier(t *testing.T) {
	t.Parallel()
	tests := []struct {
		fatigue float64
		want    float64
	}{
		{fatigue: -10, want: 1.05},
		{fatigue: 0, want: 1.05},
		{fatigue: 25, want: 1.025},
		{fatigue: 50, want: 1.0},
		{fatigue: 75, want: 0.9},
		{fatigue: 100, want: 0.8},
		{fatigue: 250, want: 0.8},
	}
	for _, tt := range tests {
		if got := training.FatigueModifier(tt.fatigue); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("FatigueModifier(%v) = %v, want %v", tt.fatigue, got, tt.want)
		}
	}
}

func TestFatigueModifier_boundedAndContinuous(t *testing.T) {
	t.Parallel()
	previous := training.FatigueModifier(0)
	for f := 0.0; f <= 100; f += 0.5 {
		got := training.FatigueModifier(f)
		if got < 0.8 || got > 1.05 {
			t.Fatalf("FatigueModifier(%v) = %v out of bounds", f, got)
		}
		if got > previous {
			t.Fatalf("FatigueModifier(%v) = %v increased from %v", f, got, previous)
		}
		previous = got
	}
	below, above := training.FatigueModifier(50-1e-9), training.FatigueModifier(50+1e-9)
	if math.Abs(below-above) > 1e-6 {
		t.Errorf("discontinuity at 50: %v vs %v", below, above)
	}
}

func TestWorkoutIntensity(t *testing.T) {
	t.Parallel()
	sets := func(n int, techniques training.Techniques) []training.CompletedSet {
		s := make([]training.CompletedSet, n)
		for i := range s {
			s[i] = training.CompletedSet{ExerciseID: "squat", Techniques: techniques} //nolint:exhaustruct // sparse.
		}
		return s
	}
	tests := []struct {
		name string
		log  training.WorkoutLog
		want float64
	}{
		{
			name: "empty",
			log:  training.WorkoutLog{}, //nolint:exhaustruct // empty workout.
			want: 0,
		},
		{
			name: "ten sets for 45 minutes",
			log:  training.WorkoutLog{CompletedSets: sets(10, training.Techniques{}), Duration: 45 * time.Minute}, //nolint:exhaustruct,lll // sparse.
			want: 20 + 10,
		},
		{
			name: "everything saturated",
			log: training.WorkoutLog{ //nolint:exhaustruct // sparse.
				CompletedSets: sets(30, training.Techniques{DropSet: true}), //nolint:exhaustruct // one technique.
				Duration:      3 * time.Hour,
			},
			want: 100,
		},
		{
			name: "techniques counted per flag",
			log: training.WorkoutLog{ //nolint:exhaustruct // sparse.
				CompletedSets: sets(1, training.Techniques{DropSet: true, MyoReps: true}), //nolint:exhaustruct // two.
			},
			want: 2 + 16,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := training.WorkoutIntensity(tt.log); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("WorkoutIntensity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecoveryDays(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if got := training.RecoveryDays(now.Add(-36*time.Hour), now); got != 1.5 {
		t.Errorf("RecoveryDays(36h ago) = %v, want 1.5", got)
	}
	if got := training.RecoveryDays(now.Add(48*time.Hour), now); got != 0 {
		t.Errorf("RecoveryDays(future) = %v, want 0", got)
	}
}

func TestApplyWorkout(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	// Ten sets, one technique and 45 minutes is an intensity of exactly 20 + 8 + 10.
	tenSets := make([]training.CompletedSet, 10)
	tenSets[0].Techniques.RestPause = true

	tests := []struct {
		name  string
		prior training.UserFatigue
		log   training.WorkoutLog
		want  training.UserFatigue
	}{
		{
			name: "fresh workout saturates at 100",
			prior: training.UserFatigue{ //nolint:exhaustruct // sparse.
				UserID: "u", CurrentFatigue: 65, Version: 3,
			},
			log: training.WorkoutLog{ //nolint:exhaustruct // sparse.
				Date:          now,
				CompletedSets: make([]training.CompletedSet, 20),
				Duration:      45 * time.Minute,
			},
			want: training.UserFatigue{ //nolint:exhaustruct // sparse.
				UserID: "u", CurrentFatigue: 100, LastUpdated: now, Version: 3,
			},
		},
		{
			name: "recovery decays prior before adding load",
			prior: training.UserFatigue{ //nolint:exhaustruct // sparse.
				UserID:         "u",
				CurrentFatigue: 50,
				MuscleGroupFatigue: training.MuscleGroupFatigue{ //nolint:exhaustruct // sparse.
					Chest:  ptr.Ref(60.0),
					Calves: ptr.Ref(30.0),
				},
			},
			log: training.WorkoutLog{ //nolint:exhaustruct // sparse.
				Date:          now.Add(-48 * time.Hour),
				CompletedSets: tenSets,
				Duration:      45 * time.Minute,
				MuscleGroupFatigue: training.MuscleGroupFatigue{ //nolint:exhaustruct // sparse.
					Chest:   ptr.Ref(2.0),
					Triceps: ptr.Ref(1.5),
				},
			},
			want: training.UserFatigue{ //nolint:exhaustruct // sparse.
				UserID:         "u",
				CurrentFatigue: 50 - 20 + 38,
				MuscleGroupFatigue: training.MuscleGroupFatigue{ //nolint:exhaustruct // sparse.
					Chest:   ptr.Ref(60.0 - 30 + 20),
					Triceps: ptr.Ref(15.0),
					Calves:  ptr.Ref(30.0),
				},
				LastUpdated: now,
			},
		},
		{
			name: "long recovery floors at zero",
			prior: training.UserFatigue{ //nolint:exhaustruct // sparse.
				UserID:             "u",
				CurrentFatigue:     40,
				MuscleGroupFatigue: training.MuscleGroupFatigue{Back: ptr.Ref(40.0)}, //nolint:exhaustruct // sparse.
			},
			log: training.WorkoutLog{ //nolint:exhaustruct // sparse.
				Date:               now.AddDate(0, 0, -30),
				MuscleGroupFatigue: training.MuscleGroupFatigue{Back: ptr.Ref(0.0)}, //nolint:exhaustruct // sparse.
			},
			want: training.UserFatigue{ //nolint:exhaustruct // sparse.
				UserID:             "u",
				CurrentFatigue:     0,
				MuscleGroupFatigue: training.MuscleGroupFatigue{Back: ptr.Ref(0.0)}, //nolint:exhaustruct // sparse.
				LastUpdated:        now,
			},
		},
		{
			name: "contribution is clamped",
			prior: training.UserFatigue{ //nolint:exhaustruct // sparse.
				UserID: "u",
			},
			log: training.WorkoutLog{ //nolint:exhaustruct // sparse.
				Date:               now,
				MuscleGroupFatigue: training.MuscleGroupFatigue{Glutes: ptr.Ref(14.0)}, //nolint:exhaustruct // sparse.
			},
			want: training.UserFatigue{ //nolint:exhaustruct // sparse.
				UserID:             "u",
				MuscleGroupFatigue: training.MuscleGroupFatigue{Glutes: ptr.Ref(100.0)}, //nolint:exhaustruct // sparse.
				LastUpdated:        now,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := training.ApplyWorkout(tt.prior, tt.log, now)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ApplyWorkout() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyWorkout_doesNotMutatePrior(t *testing.T) {
	t.Parallel()
	now := time.Now()
	prior := training.UserFatigue{ //nolint:exhaustruct // sparse.
		MuscleGroupFatigue: training.MuscleGroupFatigue{Chest: ptr.Ref(10.0)}, //nolint:exhaustruct // sparse.
	}
	log := training.WorkoutLog{ //nolint:exhaustruct // sparse.
		Date:               now,
		MuscleGroupFatigue: training.MuscleGroupFatigue{Chest: ptr.Ref(5.0)}, //nolint:exhaustruct // sparse.
	}
	_ = training.ApplyWorkout(prior, log, now)
	if got, _ := prior.MuscleGroupFatigue.Get(training.MuscleGroupChest); got != 10 {
		t.Errorf("prior chest fatigue changed to %v", got)
	}
}

func TestFallbackFatigue(t *testing.T) {
	t.Parallel()
	f := training.FallbackFatigue("u", time.Now())
	if f.CurrentFatigue != 65 {
		t.Errorf("CurrentFatigue = %v, want 65", f.CurrentFatigue)
	}
	if got := f.MuscleGroupFatigue.Len(); got != len(training.MuscleGroups()) {
		t.Errorf("got %d muscle groups, want all %d", got, len(training.MuscleGroups()))
	}
	if got, _ := f.MuscleGroupFatigue.Get(training.MuscleGroupQuadriceps); got != 75 {
		t.Errorf("quadriceps = %v, want 75", got)
	}
}
