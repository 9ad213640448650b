package model

import "time"

// Client is a person being coached. Clients with dependent rows are archived
// rather than deleted.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	DOB       *Date     `json:"dob"`
	Email     string    `json:"email"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"-"`
}

// ClientSearchResult is a client with its age computed at query time.
// Age is null when the client has no date of birth.
type ClientSearchResult struct {
	Client
	Age *int `json:"age"`
}

type ClientStats struct {
	TotalClients    int64              `json:"total_clients"`
	NewClients      int64              `json:"new_clients"`
	ExistingClients int64              `json:"existing_clients"`
	TrendData       []ClientTrendPoint `json:"trend_data"`
}

type ClientTrendPoint struct {
	Date            Date  `json:"date"`
	ExistingClients int64 `json:"existing_clients"`
	NewClients      int64 `json:"new_clients"`
}

// NutritionPlan is a dependent of Client.
type NutritionPlan struct {
	ID            int64   `json:"id"`
	ClientID      int64   `json:"client_id"`
	Title         string  `json:"title"`
	DailyCalories float64 `json:"daily_calories"`
	StartDate     Date    `json:"start_date"`
	EndDate       *Date   `json:"end_date"`
}

// ProgressReport is a body measurement taken for a client. It is a
// dependent of Client.
type ProgressReport struct {
	ID         int64    `json:"id"`
	ClientID   int64    `json:"client_id"`
	ReportDate Date     `json:"date"`
	WeightKg   float64  `json:"weight"`
	BodyFatPct *float64 `json:"body_fat_percentage"`
	Notes      string   `json:"notes"`
}
