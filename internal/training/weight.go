package training

import "math"

const (
	// weightIncrementKg is the smallest plate step a recommendation is rounded to.
	weightIncrementKg    = 2.5
	defaultBaseWeightKg  = 20
	staticBaseReps       = 8
	staticAdjustmentStep = 0.025
	// minHistoryEntries is the number of recorded sets needed before history is trusted over the static table.
	minHistoryEntries = 2
	historyLogLimit   = 10
)

// staticBaseWeights are working weights in kg for 8 reps at 0 RIR for an average trained lifter.
var staticBaseWeights = map[string]float64{ //nolint:gochecknoglobals // constant lookup table.
	"bench-press":          80,
	"squat":                100,
	"deadlift":             120,
	"overhead-press":       50,
	"barbell-row":          70,
	"incline-bench-press":  65,
	"dumbbell-bench-press": 30,
	"dumbbell-row":         30,
	"lat-pulldown":         60,
	"leg-press":            150,
	"lunges":               40,
	"romanian-deadlift":    90,
	"leg-curl":             40,
	"leg-extension":        50,
	"bicep-curl":           15,
	"tricep-extension":     20,
	"lateral-raise":        10,
	"calf-raise":           60,
	"hip-thrust":           100,
	"front-squat":          80,
	"cable-fly":            20,
	"face-pull":            25,
}

// StaticTableWeight looks up the base weight for the exercise and adjusts it linearly for the target reps and RIR.
// Unknown exercises use 20 kg. The result is not rounded.
func StaticTableWeight(exerciseID string, targetReps, targetRIR int) float64 {
	base, ok := staticBaseWeights[exerciseID]
	if !ok {
		base = defaultBaseWeightKg
	}
	repsFactor := 1 - staticAdjustmentStep*float64(targetReps-staticBaseReps)
	rirFactor := 1 + staticAdjustmentStep*float64(targetRIR)
	return math.Max(0, base*repsFactor*rirFactor)
}

// EstimateOneRepMax uses the Epley formula.
func EstimateOneRepMax(weightKg float64, reps int) float64 {
	return weightKg * (1 + float64(reps)/30)
}

// WeightForTarget inverts the Epley formula, treating reps in reserve as reps the lifter could still do.
func WeightForTarget(oneRepMax float64, targetReps, targetRIR int) float64 {
	return oneRepMax / (1 + float64(targetReps+targetRIR)/30)
}

// RoundToIncrement rounds to the nearest 2.5 kg.
func RoundToIncrement(weightKg float64) float64 {
	return math.Round(weightKg/weightIncrementKg) * weightIncrementKg
}

// ExerciseHistory flattens the sets of logs that match exerciseID, either directly or as the substitute performed,
// into history entries. Sets missing weight, reps or RIR are skipped. logs must be ordered newest first and the entries
// keep that order with sets in logged order.
func ExerciseHistory(logs []WorkoutLog, exerciseID string) []ExerciseHistoryEntry {
	var entries []ExerciseHistoryEntry
	for _, log := range logs {
		for _, set := range log.CompletedSets {
			if set.ExerciseID != exerciseID && set.AlternativeExerciseID != exerciseID {
				continue
			}
			if set.WeightKg == nil || set.Reps == nil || set.RIR == nil {
				continue
			}
			entries = append(entries, ExerciseHistoryEntry{
				ExerciseID: exerciseID,
				Date:       log.Date,
				WeightKg:   *set.WeightKg,
				Reps:       *set.Reps,
				RIR:        *set.RIR,
			})
		}
	}
	return entries
}

// IdealWeight recommends a working weight from the exercise history and the user's current fatigue.
//
// With fewer than two recorded sets the static table is used without any fatigue adjustment. Otherwise the most recent
// set is extrapolated to a one-rep max, solved back for the target and scaled by FatigueModifier.
func IdealWeight(exerciseID string, history []ExerciseHistoryEntry, fatigue float64, targetReps, targetRIR int) Recommendation {
	if len(history) < minHistoryEntries {
		return Recommendation{
			WeightKg: RoundToIncrement(StaticTableWeight(exerciseID, targetReps, targetRIR)),
			Source:   SourceStaticTable,
		}
	}
	latest := history[0]
	target := WeightForTarget(EstimateOneRepMax(latest.WeightKg, latest.Reps), targetReps, targetRIR)
	return Recommendation{
		WeightKg: RoundToIncrement(math.Max(0, target*FatigueModifier(fatigue))),
		Source:   SourceHistory,
	}
}

func validateTarget(userID, exerciseID string, targetReps, targetRIR int) bool {
	return userID != "" && exerciseID != "" && targetReps >= 1 && targetRIR >= 0
}
