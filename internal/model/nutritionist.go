package model

type ClientActivity struct {
	ClientID     int64     `json:"client_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	TotalMeals   int64     `json:"total_meals"`
	LastMealDate *DateTime `json:"last_meal_date"`
}

type NutritionistDashboard struct {
	TotalClients     int64            `json:"total_clients"`
	RecentActivities []ClientActivity `json:"recent_activities"`
}

type ClientOverview struct {
	ClientID    int64   `json:"client_id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Archived    bool    `json:"archived"`
	TotalMeals  int64   `json:"total_meals"`
	AvgCalories float64 `json:"avg_calories"`
}

// DailyNutrition holds macro totals of every meal logged on one day.
type DailyNutrition struct {
	Date     Date    `json:"meal_date"`
	Meals    int     `json:"meals"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

type ClientDetail struct {
	Client            Client           `json:"client"`
	RecentMeals       []MealLog        `json:"recent_meals"`
	NutritionalTrends []DailyNutrition `json:"nutritional_trends"`
}

type NutrientTarget struct {
	Name              string  `json:"nutrient_name"`
	RecommendedAmount float64 `json:"recommended_amount"`
	Unit              string  `json:"unit"`
}

type Deficiency struct {
	NutrientName      string  `json:"nutrient_name"`
	RecommendedAmount float64 `json:"recommended_amount"`
	AverageIntake     float64 `json:"average_intake"`
	Deficiency        float64 `json:"deficiency"`
	Unit              string  `json:"unit"`
}

type ClientProgress struct {
	Measurements []ProgressReport `json:"measurements"`
	Deficiencies []Deficiency     `json:"deficiencies"`
}

type MacroTotal struct {
	NutrientName string  `json:"nutrient_name"`
	Amount       float64 `json:"amount"`
	Unit         string  `json:"unit"`
}

type DailyCalories struct {
	Date     Date    `json:"date"`
	Calories float64 `json:"calories"`
}

type ClientNutrition struct {
	Macronutrients []MacroTotal    `json:"macronutrients"`
	Calories       []DailyCalories `json:"calories"`
	RecentMeals    []MealLog       `json:"recent_meals"`
}
