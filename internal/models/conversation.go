package models

import (
	"math"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTypeDiet is the chat_type of meal-coaching conversations.
const ChatTypeDiet = "diet"

type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	ChatType  string    `json:"chat_type"`
	CreatedAt time.Time `json:"created_at"`
}

type Profile struct {
	UserID          string   `json:"user_id"`
	TargetCalories  int      `json:"target_calories"`
	CurrentWeightKg *float64 `json:"current_weight_kg,omitempty"`
	GoalWeightKg    *float64 `json:"goal_weight_kg,omitempty"`
	Persona         string   `json:"persona,omitempty"`
}

// DefaultTargetCalories applies when a user has no profile.
const DefaultTargetCalories = 2000

type DayCalories struct {
	Date     string `json:"date"`
	Calories int    `json:"calories"`
}

// NutritionSnapshot is the user's nutritional state on a given local day.
type NutritionSnapshot struct {
	Date              string         `json:"date"`
	ConsumedCalories  int            `json:"consumed_calories"`
	TargetCalories    int            `json:"target_calories"`
	TodayFoods        []string       `json:"today_foods"`
	TodayMeals        []string       `json:"today_meals"` // "아침:계란" style labels
	MealsToday        int            `json:"meals_today"`
	StreakDays        int            `json:"streak_days"`
	WeeklyAvgCalories int            `json:"weekly_avg_calories"`
	RecentDaily       []DayCalories  `json:"recent_daily"`
	CurrentWeightKg   *float64       `json:"current_weight_kg,omitempty"`
	GoalWeightKg      *float64       `json:"goal_weight_kg,omitempty"`
	RecentWeights     []WeightRecord `json:"recent_weights,omitempty"` // oldest first
	WeightTrend       WeightTrend    `json:"weight_trend"`
}

// Remaining is target minus consumed, never negative.
func (n *NutritionSnapshot) Remaining() int {
	if r := n.TargetCalories - n.ConsumedCalories; r > 0 {
		return r
	}
	return 0
}

// WeeklyDelta is the weekly average minus the target; positive means over.
func (n *NutritionSnapshot) WeeklyDelta() int {
	return n.WeeklyAvgCalories - n.TargetCalories
}

// Percent is the rounded consumed/target percentage, 0 without a target.
func (n *NutritionSnapshot) Percent() int {
	if n.TargetCalories <= 0 {
		return 0
	}
	return int(float64(n.ConsumedCalories)*100/float64(n.TargetCalories) + 0.5)
}

// WeightRecord is one weigh-in; a user has at most one per date.
type WeightRecord struct {
	Date     string  `json:"date"`
	WeightKg float64 `json:"weight_kg"`
}

type WeightTrend string

const (
	WeightTrendUnknown WeightTrend = "unknown"
	WeightTrendUp      WeightTrend = "up"
	WeightTrendDown    WeightTrend = "down"
	WeightTrendStable  WeightTrend = "stable"
)

// WeightTrendThresholdKg is the smallest first-to-last change counted as a
// trend.
const WeightTrendThresholdKg = 0.3

// TrendOf compares the first and last of records, which must be ordered by
// date. Fewer than two records give WeightTrendUnknown.
func TrendOf(records []WeightRecord) WeightTrend {
	if len(records) < 2 {
		return WeightTrendUnknown
	}
	diff := WeightChange(records)
	switch {
	case diff >= WeightTrendThresholdKg:
		return WeightTrendUp
	case diff <= -WeightTrendThresholdKg:
		return WeightTrendDown
	default:
		return WeightTrendStable
	}
}

// WeightChange is last minus first of records, rounded to 0.1kg.
func WeightChange(records []WeightRecord) float64 {
	if len(records) < 2 {
		return 0
	}
	diff := records[len(records)-1].WeightKg - records[0].WeightKg
	return math.Round(diff*10) / 10
}

// Label is the Korean phrase used in prompts.
func (t WeightTrend) Label() string {
	switch t {
	case WeightTrendUp:
		return "증가 추세"
	case WeightTrendDown:
		return "감소 추세"
	case WeightTrendStable:
		return "유지 중"
	default:
		return "기록 부족"
	}
}
