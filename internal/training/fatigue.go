package training

import (
	"math"
	"time"
)

const (
	minFatigue = 0
	maxFatigue = 100

	globalRecoveryPerDay = 10
	groupRecoveryPerDay  = 15
	// contributionScale converts a 0–10 workout contribution into fatigue points.
	contributionScale = 10

	fallbackGlobalFatigue = 65
)

// fallbackGroupFatigue is served when a user's snapshot can't be read.
var fallbackGroupFatigue = map[MuscleGroup]float64{ //nolint:gochecknoglobals // constant lookup table.
	MuscleGroupChest:      70,
	MuscleGroupBack:       60,
	MuscleGroupShoulders:  55,
	MuscleGroupBiceps:     50,
	MuscleGroupTriceps:    50,
	MuscleGroupQuadriceps: 75,
	MuscleGroupHamstrings: 65,
	MuscleGroupGlutes:     60,
	MuscleGroupCalves:     40,
	MuscleGroupCore:       45,
}

func clampFatigue(v float64) float64 {
	return math.Min(maxFatigue, math.Max(minFatigue, v))
}

// FallbackFatigue returns the snapshot used when the stored one is missing or unreadable.
func FallbackFatigue(userID string, now time.Time) UserFatigue {
	var groups MuscleGroupFatigue
	for _, g := range MuscleGroups() {
		groups.Set(g, fallbackGroupFatigue[g])
	}
	return UserFatigue{
		UserID:             userID,
		CurrentFatigue:     fallbackGlobalFatigue,
		MuscleGroupFatigue: groups,
		LastUpdated:        now,
		Version:            0,
	}
}

// FatigueModifier scales a recommended weight by the user's fatigue. Fresh users get 5 % more, a fatigue of 50 is
// neutral and a fully fatigued user gets 20 % less. Both halves are linear and the input is clamped to 0–100.
func FatigueModifier(fatigue float64) float64 {
	fatigue = clampFatigue(fatigue)
	if fatigue <= 50 {
		return 1.05 - 0.05*fatigue/50
	}
	return 1.0 - 0.2*(fatigue-50)/50
}

// WorkoutIntensity scores a workout between 0 and 100. Sets contribute up to 40 points at 20 sets, advanced techniques
// up to 40 points at 5 uses and duration up to 20 points at 90 minutes.
func WorkoutIntensity(log WorkoutLog) float64 {
	techniques := 0
	for _, set := range log.CompletedSets {
		techniques += set.Techniques.Count()
	}
	sets := math.Min(float64(len(log.CompletedSets))/20, 1)
	tech := math.Min(float64(techniques)/5, 1)
	duration := math.Min(math.Max(log.Duration.Minutes(), 0)/90, 1)
	return 40*sets + 40*tech + 20*duration
}

// RecoveryDays returns the fractional days between the workout and now. Future workouts recover nothing.
func RecoveryDays(workoutDate, now time.Time) float64 {
	return math.Max(0, now.Sub(workoutDate).Hours()/24)
}

// ApplyWorkout computes the snapshot that results from logging a workout on top of prior.
//
// The prior fatigue first decays by the time elapsed since the workout date and then the workout's own load is added.
// Muscle groups the workout doesn't touch keep their prior values. The version is left for the repository to bump.
func ApplyWorkout(prior UserFatigue, log WorkoutLog, now time.Time) UserFatigue {
	recovery := RecoveryDays(log.Date, now)

	next := prior
	next.LastUpdated = now
	next.CurrentFatigue = clampFatigue(
		math.Max(0, prior.CurrentFatigue-recovery*globalRecoveryPerDay) + WorkoutIntensity(log))

	groups := prior.MuscleGroupFatigue
	log.MuscleGroupFatigue.Each(func(g MuscleGroup, contribution float64) {
		load := contribution * contributionScale
		if previous, ok := prior.MuscleGroupFatigue.Get(g); ok {
			groups.Set(g, clampFatigue(math.Max(0, previous-recovery*groupRecoveryPerDay)+load))
			return
		}
		groups.Set(g, clampFatigue(load))
	})
	next.MuscleGroupFatigue = groups
	return next
}

// clampSnapshot keeps every scalar of f within 0–100.
func clampSnapshot(f UserFatigue) UserFatigue {
	f.CurrentFatigue = clampFatigue(f.CurrentFatigue)
	var groups MuscleGroupFatigue
	f.MuscleGroupFatigue.Each(func(g MuscleGroup, v float64) {
		groups.Set(g, clampFatigue(v))
	})
	f.MuscleGroupFatigue = groups
	return f
}
