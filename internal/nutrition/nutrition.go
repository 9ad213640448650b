// Package nutrition holds the pure calculations behind the dashboards: ages,
// body metrics, calorie estimates and meal aggregations. Nothing here touches
// the database, so every function is tested with plain values.
package nutrition

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/macromates/nutribuddy/internal/model"
)

// Round2 rounds v to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Age returns the completed years between dob and today.
func Age(dob, today model.Date) int {
	years := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		years--
	}
	return years
}

// DOBBounds converts an inclusive age range into date-of-birth bounds.
//
//	age >= min  ⇔  dob <= today - min years
//	age <= max  ⇔  dob >  today - (max+1) years
//
// A nil age leaves the matching bound nil.
func DOBBounds(today model.Date, minAge, maxAge *int) (bornOnOrBefore, bornAfter *model.Date) {
	if minAge != nil {
		d := yearsBefore(today, *minAge)
		bornOnOrBefore = &d
	}
	if maxAge != nil {
		d := yearsBefore(today, *maxAge+1)
		bornAfter = &d
	}
	return bornOnOrBefore, bornAfter
}

// yearsBefore steps back n calendar years. Feb 29 lands on Feb 28 when the
// target year has no leap day, which matches how Age counts birthdays.
func yearsBefore(d model.Date, n int) model.Date {
	y, m, dd := d.Date()
	t := time.Date(y-n, m, dd, 0, 0, 0, 0, time.UTC)
	if t.Month() != m {
		t = time.Date(y-n, m+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return model.NewDate(t)
}

// BMI is weight / height², with height given in centimetres. It returns 0
// when the height is not positive.
func BMI(weightKg, heightCm float64) float64 {
	if heightCm <= 0 {
		return 0
	}
	m := heightCm / 100
	return Round2(weightKg / (m * m))
}

// ActivityFactor maps an activity level to its TDEE multiplier. Unknown
// levels fall back to a light-activity factor.
func ActivityFactor(level string) float64 {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "low":
		return 1.2
	case "moderate":
		return 1.55
	case "high":
		return 1.9
	default:
		return 1.4
	}
}

// MaintenanceCalories estimates daily energy needs with the Mifflin-St Jeor
// equation (male constant) times the activity factor, rounded to whole kcal.
func MaintenanceCalories(age int, weightKg, heightCm float64, activityLevel string) float64 {
	bmr := 10*weightKg + 6.25*heightCm - 5*float64(age) + 5
	return math.Round(bmr * ActivityFactor(activityLevel))
}

const (
	// BaselineDailyCalories is the intake assumed to keep weight constant.
	BaselineDailyCalories = 3000
	// CaloriesPerKg is the energy content of one kilogram of body weight.
	CaloriesPerKg = 7700
)

// EstimatedWeightChange is the summed daily surplus over the baseline,
// converted to kilograms and rounded to 2 decimals.
func EstimatedWeightChange(totalCalories float64, loggedDays int64) float64 {
	surplus := totalCalories - BaselineDailyCalories*float64(loggedDays)
	return Round2(surplus / CaloriesPerKg)
}

// PlanDurationDays is the number of days from start to end, so a plan that
// starts and ends on the same day lasts 0 days.
func PlanDurationDays(start, end model.Date) int {
	return int(math.Round(end.Sub(start.Time).Hours() / 24))
}

// FormatReminderTime renders a stored "HH:MM" as "hh:mm AM".
func FormatReminderTime(hhmm string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return "", fmt.Errorf("parsing reminder time %q: %w", hhmm, err)
	}
	return t.Format("03:04 PM"), nil
}

// Macro identifies one of the four tracked macronutrients.
type Macro string

const (
	Calories Macro = "calories"
	Protein  Macro = "protein"
	Carbs    Macro = "carbs"
	Fats     Macro = "fats"
)

// Macros lists the tracked macronutrients in display order.
var Macros = []Macro{Calories, Protein, Carbs, Fats}

var macroAliases = map[string]Macro{
	"calories":      Calories,
	"calorie":       Calories,
	"energy":        Calories,
	"kcal":          Calories,
	"protein":       Protein,
	"proteins":      Protein,
	"carbs":         Carbs,
	"carb":          Carbs,
	"carbohydrate":  Carbs,
	"carbohydrates": Carbs,
	"fat":           Fats,
	"fats":          Fats,
}

// MacroOf classifies a nutrient by name, case-insensitively.
func MacroOf(name string) (Macro, bool) {
	m, ok := macroAliases[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// CalorieNames lists the nutrient names that count as calories.
func CalorieNames() []string {
	names := lo.Filter(lo.Keys(macroAliases), func(n string, _ int) bool { return macroAliases[n] == Calories })
	sort.Strings(names)
	return names
}

// GroupByCategory groups per-day nutrient totals by category, keeping the
// order of totals within each group.
func GroupByCategory(totals []model.NutrientTotal) map[string][]model.NutrientTotal {
	if len(totals) == 0 {
		return map[string][]model.NutrientTotal{}
	}
	return lo.GroupBy(totals, func(t model.NutrientTotal) string { return t.Category })
}

// DailyTotals sums calories, protein, carbs and fats per logged day, newest
// day first, keeping at most limit days (0 keeps all).
func DailyTotals(meals []model.MealLog, limit int) []model.DailyNutrition {
	byDay := lo.GroupBy(meals, func(m model.MealLog) model.Date { return m.LoggedAt.Day() })

	days := make([]model.DailyNutrition, 0, len(byDay))
	for day, dayMeals := range byDay {
		d := model.DailyNutrition{Date: day, Meals: len(dayMeals)}
		for _, m := range dayMeals {
			for _, n := range m.Nutrients {
				macro, ok := MacroOf(n.Name)
				if !ok {
					continue
				}
				switch macro {
				case Calories:
					d.Calories += n.Quantity
				case Protein:
					d.Protein += n.Quantity
				case Carbs:
					d.Carbs += n.Quantity
				case Fats:
					d.Fats += n.Quantity
				}
			}
		}
		days = append(days, d)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Date.After(days[j].Date.Time) })
	if limit > 0 && len(days) > limit {
		days = days[:limit]
	}
	return days
}

// DailyCalories is DailyTotals reduced to calories, oldest day first so it
// charts left to right.
func DailyCalories(meals []model.MealLog) []model.DailyCalories {
	days := DailyTotals(meals, 0)
	out := make([]model.DailyCalories, len(days))
	for i, d := range days {
		out[len(days)-1-i] = model.DailyCalories{Date: d.Date, Calories: Round2(d.Calories)}
	}
	return out
}

// MacroTotals sums each macronutrient over meals. Macros that were never
// logged are omitted. The unit is taken from the first matching nutrient.
func MacroTotals(meals []model.MealLog) []model.MacroTotal {
	totals := map[Macro]*model.MacroTotal{}
	for _, m := range meals {
		for _, n := range m.Nutrients {
			macro, ok := MacroOf(n.Name)
			if !ok {
				continue
			}
			t, seen := totals[macro]
			if !seen {
				t = &model.MacroTotal{NutrientName: string(macro), Unit: n.Unit}
				totals[macro] = t
			}
			t.Amount += n.Quantity
		}
	}

	out := make([]model.MacroTotal, 0, len(totals))
	for _, macro := range Macros {
		if t, ok := totals[macro]; ok {
			t.Amount = Round2(t.Amount)
			out = append(out, *t)
		}
	}
	return out
}

// Deficiencies compares the average daily intake of each target nutrient
// with its recommended amount. The average is taken over the days that have
// at least one meal; a target nutrient missing from every meal averages 0.
// Only nutrients below their target are returned, largest gap first. With no
// logged days there is nothing to compare and the result is empty.
func Deficiencies(targets []model.NutrientTarget, meals []model.MealLog) []model.Deficiency {
	days := lo.Uniq(lo.Map(meals, func(m model.MealLog, _ int) model.Date { return m.LoggedAt.Day() }))
	if len(days) == 0 {
		return []model.Deficiency{}
	}

	intake := map[string]float64{}
	for _, m := range meals {
		for _, n := range m.Nutrients {
			intake[strings.ToLower(strings.TrimSpace(n.Name))] += n.Quantity
		}
	}

	out := make([]model.Deficiency, 0)
	for _, t := range targets {
		avg := intake[strings.ToLower(t.Name)] / float64(len(days))
		gap := t.RecommendedAmount - avg
		if gap <= 0 {
			continue
		}
		out = append(out, model.Deficiency{
			NutrientName:      t.Name,
			RecommendedAmount: t.RecommendedAmount,
			AverageIntake:     Round2(avg),
			Deficiency:        Round2(gap),
			Unit:              t.Unit,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Deficiency > out[j].Deficiency })
	return out
}
