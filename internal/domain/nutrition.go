package domain

import "time"

// NutritionEntry is a client's daily intake record; one row per (client, day).
type NutritionEntry struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Calories  int       `json:"calories"`
	ProteinG  int       `json:"protein_g"`
	CarbsG    int       `json:"carbs_g"`
	FatG      int       `json:"fat_g"`
	WaterMl   int       `json:"water_ml,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NutritionSummary aggregates a week of entries.
type NutritionSummary struct {
	ClientID    string  `json:"client_id"`
	WeekStart   string  `json:"week_start"`
	Days        int     `json:"days"`
	AvgCalories float64 `json:"avg_calories"`
	AvgProteinG float64 `json:"avg_protein_g"`
	AvgCarbsG   float64 `json:"avg_carbs_g"`
	AvgFatG     float64 `json:"avg_fat_g"`
	TotalWater  int     `json:"total_water_ml"`
}
