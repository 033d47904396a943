package training

import (
	"fmt"
	"math"
)

// Sex selects the BMR equation.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// ActivityLevel describes how active the user is outside of training.
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

// Goal is the body composition goal of the user.
type Goal string

const (
	GoalLose     Goal = "lose"
	GoalMaintain Goal = "maintain"
	GoalGain     Goal = "gain"
)

//nolint:gochecknoglobals // constant lookup tables.
var (
	activityMultipliers = map[ActivityLevel]float64{
		ActivitySedentary:  1.2,
		ActivityLight:      1.375,
		ActivityModerate:   1.55,
		ActivityActive:     1.725,
		ActivityVeryActive: 1.9,
	}
	goalCalorieAdjustments = map[Goal]float64{
		GoalLose:     -500,
		GoalMaintain: 0,
		GoalGain:     300,
	}
	proteinPerKg = map[Goal]float64{
		GoalLose:     2.2,
		GoalMaintain: 1.8,
		GoalGain:     2.0,
	}
)

const (
	fatCalorieShare = 0.25
	kcalPerGramFat  = 9
	kcalPerGramCarb = 4
	kcalPerGramProt = 4
)

// Profile is the input to CalculateNutritionPlan.
type Profile struct {
	Sex           Sex           `json:"sex"`
	WeightKg      float64       `json:"weight_kg"`
	HeightCm      float64       `json:"height_cm"`
	Age           int           `json:"age"`
	ActivityLevel ActivityLevel `json:"activity_level"`
	Goal          Goal          `json:"goal"`
}

// NutritionPlan is a daily calorie and macronutrient target.
type NutritionPlan struct {
	BMR      int `json:"bmr"`
	Calories int `json:"calories"`
	ProteinG int `json:"protein_g"`
	FatG     int `json:"fat_g"`
	CarbsG   int `json:"carbs_g"`
}

// BasalMetabolicRate uses the revised Harris-Benedict equation.
func BasalMetabolicRate(p Profile) float64 {
	age := float64(p.Age)
	if p.Sex == SexFemale {
		return 447.593 + 9.247*p.WeightKg + 3.098*p.HeightCm - 4.330*age
	}
	return 88.362 + 13.397*p.WeightKg + 4.799*p.HeightCm - 5.677*age
}

// CalculateNutritionPlan derives daily targets from the profile. Protein is set per kg of body weight, fat covers a
// quarter of the calories and carbohydrates the rest.
func CalculateNutritionPlan(p Profile) (NutritionPlan, error) {
	multiplier, ok := activityMultipliers[p.ActivityLevel]
	if !ok {
		return NutritionPlan{}, fmt.Errorf("%w: activity level %q", ErrInvalidArgument, p.ActivityLevel)
	}
	adjustment, ok := goalCalorieAdjustments[p.Goal]
	if !ok {
		return NutritionPlan{}, fmt.Errorf("%w: goal %q", ErrInvalidArgument, p.Goal)
	}
	if p.Sex != SexMale && p.Sex != SexFemale {
		return NutritionPlan{}, fmt.Errorf("%w: sex %q", ErrInvalidArgument, p.Sex)
	}
	if p.WeightKg <= 0 || p.HeightCm <= 0 || p.Age <= 0 {
		return NutritionPlan{}, fmt.Errorf("%w: weight, height and age must be positive", ErrInvalidArgument)
	}

	bmr := BasalMetabolicRate(p)
	calories := math.Max(0, bmr*multiplier+adjustment)
	protein := p.WeightKg * proteinPerKg[p.Goal]
	fat := calories * fatCalorieShare / kcalPerGramFat
	carbs := math.Max(0, (calories-protein*kcalPerGramProt-fat*kcalPerGramFat)/kcalPerGramCarb)

	return NutritionPlan{
		BMR:      int(math.Round(bmr)),
		Calories: int(math.Round(calories)),
		ProteinG: int(math.Round(protein)),
		FatG:     int(math.Round(fat)),
		CarbsG:   int(math.Round(carbs)),
	}, nil
}
