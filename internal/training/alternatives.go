package training

const maxRecommendedRIR = 4

// RecommendedRIR adjusts the target RIR for a substitute exercise. Compound and barbell movements load more muscle
// and are harder to take close to failure safely, so swapping into them lowers the RIR by one each and swapping out of
// them raises it. The result stays within 0–4.
func RecommendedRIR(target, substitute ExerciseProfile, targetRIR int) int {
	rir := targetRIR
	switch {
	case substitute.Compound && !target.Compound:
		rir--
	case !substitute.Compound && target.Compound:
		rir++
	}

	targetBarbell := target.Equipment == EquipmentBarbell
	substituteBarbell := substitute.Equipment == EquipmentBarbell
	switch {
	case substituteBarbell && !targetBarbell:
		rir--
	case !substituteBarbell && targetBarbell:
		rir++
	}

	return min(max(rir, 0), maxRecommendedRIR)
}

// alternativesFor pairs every catalog exercise that trains the same primary muscle group as target with its
// recommended RIR. The target itself is excluded.
func alternativesFor(target ExerciseProfile, catalog []ExerciseProfile, targetRIR int) []Alternative {
	alternatives := make([]Alternative, 0, len(catalog))
	for _, candidate := range catalog {
		if candidate.ID == target.ID || candidate.PrimaryMuscleGroup != target.PrimaryMuscleGroup {
			continue
		}
		alternatives = append(alternatives, Alternative{
			Exercise:       candidate,
			RecommendedRIR: RecommendedRIR(target, candidate, targetRIR),
		})
	}
	return alternatives
}
