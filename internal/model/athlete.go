package model

type Athlete struct {
	ID            int64   `json:"athlete_id"`
	Name          string  `json:"name"`
	Age           int     `json:"age"`
	WeightKg      float64 `json:"weight_kg"`
	HeightCm      float64 `json:"height_cm"`
	ActivityLevel string  `json:"activity_level"`
}

type AthleteBMI struct {
	AthleteID     int64   `json:"athlete_id"`
	Name          string  `json:"name"`
	CalculatedBMI float64 `json:"calculated_bmi"`
}

type AthleteMaintenance struct {
	AthleteID           int64   `json:"athlete_id"`
	Name                string  `json:"name"`
	MaintenanceCalories float64 `json:"maintenance_calories"`
}

// PlanIntakeTotals aggregates an athlete's logged calories inside one
// workout plan window.
type PlanIntakeTotals struct {
	AthleteID     int64
	Name          string
	Goal          string
	StartDate     Date
	EndDate       Date
	LoggedDays    int64
	TotalCalories float64
}

type WeightChangeEstimate struct {
	AthleteID         int64   `json:"athlete_id"`
	Name              string  `json:"name"`
	Goal              string  `json:"goal"`
	DurationDays      int     `json:"duration_days"`
	EstimatedKgChange float64 `json:"estimated_kg_change"`
}

type DailyMacros struct {
	AthleteID     int64   `json:"athlete_id"`
	LogDate       Date    `json:"log_date"`
	DayOfWeek     string  `json:"day_of_week"`
	TotalCalories float64 `json:"total_calories"`
	TotalProtein  float64 `json:"total_protein"`
	TotalCarbs    float64 `json:"total_carbs"`
	TotalFats     float64 `json:"total_fats"`
}

type PlanIntake struct {
	Name      string  `json:"name"`
	Goal      string  `json:"goal"`
	StartDate Date    `json:"start_date"`
	EndDate   Date    `json:"end_date"`
	LogDate   Date    `json:"log_date"`
	MealType  string  `json:"meal_type"`
	Calories  float64 `json:"calories"`
}

// Reminder is an athlete notification. RemindAt is stored as 24h "HH:MM";
// ReminderTime is its 12h rendering.
type Reminder struct {
	AthleteID    int64  `json:"athlete_id"`
	ReminderType string `json:"reminder_type"`
	RemindAt     string `json:"-"`
	ReminderTime string `json:"reminder_time"`
	Message      string `json:"message"`
}
