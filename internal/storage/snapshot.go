package storage

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"diet-coach/internal/models"
)

const (
	dateLayout = "2006-01-02"
	// MaxStreakDays bounds how far back a streak is counted.
	MaxStreakDays = 100
	weekDays      = 7
)

// NutritionSnapshot gathers the user's state for the local day today
// (YYYY-MM-DD): calories against target, today's foods, the tracking streak
// the last week's daily totals and the last week's weigh-ins.
func (s *Store) NutritionSnapshot(ctx context.Context, userID, today string) (*models.NutritionSnapshot, error) {
	day, err := parseDate(today)
	if err != nil {
		return nil, err
	}

	snap := &models.NutritionSnapshot{Date: today, TargetCalories: models.DefaultTargetCalories}
	profile, err := s.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, models.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		if profile.TargetCalories > 0 {
			snap.TargetCalories = profile.TargetCalories
		}
		snap.CurrentWeightKg = profile.CurrentWeightKg
		snap.GoalWeightKg = profile.GoalWeightKg
	}

	meals, err := s.ListMeals(ctx, userID, today, models.MealTypeAll)
	if err != nil {
		return nil, err
	}
	snap.MealsToday = len(meals)
	snap.TodayFoods = []string{}
	snap.TodayMeals = []string{}
	for _, m := range meals {
		snap.ConsumedCalories += m.TotalCalories
		names := make([]string, len(m.Items))
		for i, it := range m.Items {
			names[i] = it.Name
		}
		snap.TodayFoods = append(snap.TodayFoods, names...)
		snap.TodayMeals = append(snap.TodayMeals, m.MealType.Label()+": "+strings.Join(names, ", "))
	}

	daily, err := s.dailyCalories(ctx, userID, day.AddDate(0, 0, -MaxStreakDays).Format(dateLayout), today)
	if err != nil {
		return nil, err
	}
	snap.StreakDays = streak(daily, day)

	weekStart := day.AddDate(0, 0, -(weekDays - 1)).Format(dateLayout)
	total := 0
	for _, d := range sortedDates(daily) {
		if d < weekStart {
			continue
		}
		snap.RecentDaily = append(snap.RecentDaily, models.DayCalories{Date: d, Calories: daily[d]})
		total += daily[d]
	}
	if n := len(snap.RecentDaily); n > 0 {
		snap.WeeklyAvgCalories = int(float64(total)/float64(n) + 0.5)
	}

	weights, err := s.RecentWeights(ctx, userID, weekStart, today)
	if err != nil {
		return nil, err
	}
	snap.WeightTrend = models.TrendOf(weights)
	if len(weights) > 0 {
		snap.RecentWeights = weights
		latest := weights[len(weights)-1].WeightKg
		snap.CurrentWeightKg = &latest
	}
	return snap, nil
}

func parseDate(date string) (time.Time, error) {
	d, err := time.Parse(dateLayout, date)
	return d, errors.Wrapf(err, "invalid date %q", date)
}

// dailyCalories sums meal totals per date in [from, to].
func (s *Store) dailyCalories(ctx context.Context, userID, from, to string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT meal_date, total_calories FROM meals
		WHERE user_id = ? AND meal_date >= ? AND meal_date <= ?`), userID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query daily calories")
	}
	defer rows.Close()

	daily := make(map[string]int)
	for rows.Next() {
		var date string
		var cal int
		if err := rows.Scan(&date, &cal); err != nil {
			return nil, errors.Wrap(err, "failed to scan daily calories")
		}
		daily[date] += cal
	}
	return daily, errors.Wrap(rows.Err(), "failed to iterate daily calories")
}

// streak counts consecutive tracked days ending yesterday. Today never
// counts, so logging today's first meal does not move the streak.
func streak(daily map[string]int, today time.Time) int {
	d := today.AddDate(0, 0, -1)
	n := 0
	for n < MaxStreakDays {
		if _, ok := daily[d.Format(dateLayout)]; !ok {
			break
		}
		n++
		d = d.AddDate(0, 0, -1)
	}
	return n
}

func sortedDates(daily map[string]int) []string {
	dates := make([]string, 0, len(daily))
	for d := range daily {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
