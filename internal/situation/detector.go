// Package situation derives coaching situations from a user's nutritional
// and temporal state.
package situation

import (
	"strings"

	"diet-coach/internal/lexicon"
)

type Situation string

const (
	LateNight    Situation = "late_night"
	Overeating   Situation = "overeating"
	Healthy      Situation = "healthy"
	Junk         Situation = "junk"
	GoalAchieved Situation = "goal_achieved"
	UnderEating  Situation = "under_eating"
	Streak       Situation = "streak"
	FirstMeal    Situation = "first_meal"
	Default      Situation = "default"
)

// Context is everything the detector looks at.
type Context struct {
	Hour             int // local hour, 0-23
	ConsumedCalories int
	TargetCalories   int
	Foods            []string // food names just logged
	StreakDays       int
	FirstMealToday   bool
}

// Rule is one row of the detection cascade. Match returns the label it
// produced, or "" when it does not apply.
type Rule struct {
	Name  string
	Match func(c *Context) Situation
}

type Detector struct {
	primary []Rule
	all     []Rule
}

func NewDetector(lex *lexicon.SituationLexicon) *Detector {
	milestones := make(map[int]bool, len(lex.StreakMilestones))
	for _, m := range lex.StreakMilestones {
		milestones[m] = true
	}
	healthy := lowerAll(lex.Healthy)
	junk := lowerAll(lex.Junk)

	streak := Rule{Name: "streak", Match: func(c *Context) Situation {
		if milestones[c.StreakDays] {
			return Streak
		}
		return ""
	}}
	first := Rule{Name: "first_meal", Match: func(c *Context) Situation {
		if c.FirstMealToday {
			return FirstMeal
		}
		return ""
	}}
	late := Rule{Name: "late_night", Match: func(c *Context) Situation {
		if IsLateNight(c.Hour) {
			return LateNight
		}
		return ""
	}}
	ratio := Rule{Name: "calorie_ratio", Match: ratioSituation}
	food := Rule{Name: "food_category", Match: func(c *Context) Situation {
		return foodSituation(c.Foods, healthy, junk)
	}}

	return &Detector{
		primary: []Rule{streak, first, late, ratio, food},
		all:     []Rule{late, ratio, food},
	}
}

// Detect returns the primary situation: the first rule in the cascade that
// matches, or Default.
func (d *Detector) Detect(c Context) Situation {
	for _, r := range d.primary {
		if s := r.Match(&c); s != "" {
			return s
		}
	}
	return Default
}

// DetectAll evaluates the late-night, calorie-ratio and food rules
// independently and returns every label produced, in cascade order. The
// result is never empty.
func (d *Detector) DetectAll(c Context) []Situation {
	var out []Situation
	for _, r := range d.all {
		if s := r.Match(&c); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []Situation{Default}
	}
	return out
}

// IsLateNight covers [21,24) and [0,5).
func IsLateNight(hour int) bool {
	return hour >= 21 || hour < 5
}

func ratioSituation(c *Context) Situation {
	if c.TargetCalories <= 0 {
		return ""
	}
	r := float64(c.ConsumedCalories) / float64(c.TargetCalories)
	switch {
	case r >= 1.2:
		return Overeating
	case r >= 0.9 && r <= 1.1:
		return GoalAchieved
	case r < 0.5 && c.Hour >= 18:
		return UnderEating
	}
	return ""
}

func foodSituation(foods, healthy, junk []string) Situation {
	var sawHealthy bool
	for _, f := range foods {
		name := strings.ToLower(f)
		if matchAny(name, junk) {
			return Junk
		}
		if matchAny(name, healthy) {
			sawHealthy = true
		}
	}
	if sawHealthy {
		return Healthy
	}
	return ""
}

func matchAny(name string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(name, k) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
