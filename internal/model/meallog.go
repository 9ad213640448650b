package model

// MealLog is one eating occasion of a client. Its nutrients are owned by it
// and always replaced as a whole.
type MealLog struct {
	ID        int64      `json:"id"`
	LoggedAt  DateTime   `json:"datetime"`
	Notes     string     `json:"notes"`
	ClientID  int64      `json:"client_id"`
	Nutrients []Nutrient `json:"nutrients"`
}

type Nutrient struct {
	ID        int64   `json:"id"`
	MealLogID int64   `json:"-"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit"`
}

// NutrientTotal is the sum of one (category, name, unit) over several meals.
type NutrientTotal struct {
	Category string  `json:"-"`
	Name     string  `json:"name"`
	Total    float64 `json:"total"`
	Unit     string  `json:"unit"`
}

type DailySummary struct {
	ClientID         int64                      `json:"client_id"`
	Date             Date                       `json:"date"`
	MealsCount       int                        `json:"meals_count"`
	NutrientsSummary map[string][]NutrientTotal `json:"nutrients_summary"`
	Message          string                     `json:"message,omitempty"`
}
