// internal/models/meal.go
package models

import (
	"time"
)

// MealType is one of the four daily meal slots.
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
)

// MealTypeAll selects every meal slot in queries.
const MealTypeAll = "all"

var mealTypeLabels = map[MealType]string{
	Breakfast: "아침",
	Lunch:     "점심",
	Dinner:    "저녁",
	Snack:     "간식",
}

func (t MealType) Valid() bool {
	_, ok := mealTypeLabels[t]
	return ok
}

// Label returns the localized display name.
func (t MealType) Label() string {
	if l, ok := mealTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// InferMealType picks a meal slot from the local hour of day.
func InferMealType(hour int) MealType {
	switch {
	case hour >= 5 && hour < 10:
		return Breakfast
	case hour >= 10 && hour < 15:
		return Lunch
	case hour >= 15 && hour < 21:
		return Dinner
	default:
		return Snack
	}
}

type Meal struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Date          string     `json:"date"`
	MealType      MealType   `json:"meal_type"`
	TotalCalories int        `json:"total_calories"`
	Items         []MealItem `json:"items"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// MealItem holds the macros for one food entry. Calories and macros are
// already multiplied by Quantity.
type MealItem struct {
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein_g"`
	Carbs    float64 `json:"carbs_g"`
	Fat      float64 `json:"fat_g"`
}

// Food is a food as described by the model, before quantity is applied.
type Food struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Item scales the food by its quantity and rounds the result the way meal
// records are stored: whole kcal, 0.1g macros.
func (f Food) Item() MealItem {
	q := f.Quantity
	if q <= 0 {
		q = 1
	}
	return MealItem{
		Name:     f.Name,
		Quantity: q,
		Calories: int(roundTo(f.Calories*q, 1)),
		Protein:  roundTo(f.Protein*q, 10),
		Carbs:    roundTo(f.Carbs*q, 10),
		Fat:      roundTo(f.Fat*q, 10),
	}
}

func roundTo(v, scale float64) float64 {
	if v < 0 {
		return -roundTo(-v, scale)
	}
	return float64(int64(v*scale+0.5)) / scale
}
