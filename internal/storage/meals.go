package storage

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"diet-coach/internal/models"
)

var mealOrder = map[models.MealType]int{
	models.Breakfast: 0,
	models.Lunch:     1,
	models.Dinner:    2,
	models.Snack:     3,
}

// AddMealItems appends items to the user's meal for date and mealType,
// creating the meal if needed. Items whose name already exists in the meal
// (case-insensitive) are skipped. It returns the items actually added.
func (s *Store) AddMealItems(ctx context.Context, userID, date string, mealType models.MealType, items []models.MealItem) ([]models.MealItem, error) {
	if len(items) == 0 {
		return nil, nil
	}
	var added []models.MealItem
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ts := s.nextTimestamp()
		mealID, err := s.findMealID(ctx, tx, userID, date, mealType)
		switch {
		case errors.Is(err, ErrMealNotFound):
			mealID = uuid.NewString()
			_, err = tx.ExecContext(ctx, s.rebind(`
				INSERT INTO meals (id, user_id, meal_date, meal_type, total_calories, created_ts, updated_ts)
				VALUES (?, ?, ?, ?, 0, ?, ?)`),
				mealID, userID, date, string(mealType), ts, ts)
			if err != nil {
				return errors.Wrap(err, "failed to insert meal")
			}
		case err != nil:
			return err
		}

		existing, err := s.loadItems(ctx, tx, mealID)
		if err != nil {
			return err
		}
		seen := make(map[string]bool, len(existing)+len(items))
		for _, it := range existing {
			seen[strings.ToLower(it.Name)] = true
		}

		added = nil
		delta := 0
		for _, it := range items {
			key := strings.ToLower(it.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			it.ID = uuid.NewString()
			_, err := tx.ExecContext(ctx, s.rebind(`
				INSERT INTO meal_items (id, meal_id, seq, name, quantity, calories, protein, carbs, fat)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
				it.ID, mealID, s.nextTimestamp(), it.Name, it.Quantity, it.Calories, it.Protein, it.Carbs, it.Fat)
			if err != nil {
				return errors.Wrap(err, "failed to insert meal item")
			}
			delta += it.Calories
			added = append(added, it)
		}
		return s.adjustTotal(ctx, tx, mealID, delta)
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// ListMeals returns the user's meals on date ordered breakfast to snack.
// mealType "all" or "" selects every slot.
func (s *Store) ListMeals(ctx context.Context, userID, date, mealType string) ([]*models.Meal, error) {
	query := `
		SELECT id, user_id, meal_date, meal_type, total_calories, created_ts, updated_ts
		FROM meals
		WHERE user_id = ? AND meal_date = ?`
	args := []any{userID, date}
	if mealType != "" && mealType != models.MealTypeAll {
		query += " AND meal_type = ?"
		args = append(args, mealType)
	}
	query += " ORDER BY created_ts"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query meals")
	}
	var meals []*models.Meal
	for rows.Next() {
		meal := &models.Meal{}
		var mt string
		var created, updated int64
		if err := rows.Scan(&meal.ID, &meal.UserID, &meal.Date, &mt, &meal.TotalCalories, &created, &updated); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "failed to scan meal")
		}
		meal.MealType = models.MealType(mt)
		meal.CreatedAt = time.Unix(0, created)
		meal.UpdatedAt = time.Unix(0, updated)
		meals = append(meals, meal)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate meals")
	}

	for _, meal := range meals {
		if meal.Items, err = s.loadItems(ctx, s.db, meal.ID); err != nil {
			return nil, errors.Wrapf(err, "failed to load items for meal %s", meal.ID)
		}
	}
	sort.SliceStable(meals, func(i, j int) bool {
		return mealOrder[meals[i].MealType] < mealOrder[meals[j].MealType]
	})
	return meals, nil
}

// DeleteMeal removes a whole meal and its items.
func (s *Store) DeleteMeal(ctx context.Context, userID, date string, mealType models.MealType) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		mealID, err := s.findMealID(ctx, tx, userID, date, mealType)
		if err != nil {
			return err
		}
		return s.deleteMealByID(ctx, tx, mealID)
	})
}

// DeleteMealItem removes the first item whose name contains foodName
// (case-insensitive). The meal goes with its last item.
func (s *Store) DeleteMealItem(ctx context.Context, userID, date string, mealType models.MealType, foodName string) (*models.MealItem, error) {
	var removed *models.MealItem
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		mealID, err := s.findMealID(ctx, tx, userID, date, mealType)
		if err != nil {
			return err
		}
		items, err := s.loadItems(ctx, tx, mealID)
		if err != nil {
			return err
		}
		idx := matchItem(items, foodName)
		if idx < 0 {
			return ErrFoodNotFound
		}
		removed = &items[idx]
		if len(items) == 1 {
			return s.deleteMealByID(ctx, tx, mealID)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM meal_items WHERE id = ?`), removed.ID); err != nil {
			return errors.Wrap(err, "failed to delete meal item")
		}
		return s.adjustTotal(ctx, tx, mealID, -removed.Calories)
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// ReplaceMealItem swaps the first item whose name contains oldName for item
// and shifts the meal total by the calorie difference. It returns the
// replaced item.
func (s *Store) ReplaceMealItem(ctx context.Context, userID, date string, mealType models.MealType, oldName string, item models.MealItem) (*models.MealItem, error) {
	var replaced *models.MealItem
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		mealID, err := s.findMealID(ctx, tx, userID, date, mealType)
		if err != nil {
			return err
		}
		items, err := s.loadItems(ctx, tx, mealID)
		if err != nil {
			return err
		}
		idx := matchItem(items, oldName)
		if idx < 0 {
			return ErrFoodNotFound
		}
		replaced = &items[idx]
		_, err = tx.ExecContext(ctx, s.rebind(`
			UPDATE meal_items SET name = ?, quantity = ?, calories = ?, protein = ?, carbs = ?, fat = ?
			WHERE id = ?`),
			item.Name, item.Quantity, item.Calories, item.Protein, item.Carbs, item.Fat, replaced.ID)
		if err != nil {
			return errors.Wrap(err, "failed to update meal item")
		}
		return s.adjustTotal(ctx, tx, mealID, item.Calories-replaced.Calories)
	})
	if err != nil {
		return nil, err
	}
	return replaced, nil
}

func (s *Store) findMealID(ctx context.Context, q querier, userID, date string, mealType models.MealType) (string, error) {
	var id string
	err := q.QueryRowContext(ctx, s.rebind(`
		SELECT id FROM meals WHERE user_id = ? AND meal_date = ? AND meal_type = ?
		ORDER BY created_ts LIMIT 1`),
		userID, date, string(mealType)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrMealNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to find meal")
	}
	return id, nil
}

func (s *Store) loadItems(ctx context.Context, q querier, mealID string) ([]models.MealItem, error) {
	rows, err := q.QueryContext(ctx, s.rebind(`
		SELECT id, name, quantity, calories, protein, carbs, fat
		FROM meal_items
		WHERE meal_id = ?
		ORDER BY seq`), mealID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query meal items")
	}
	defer rows.Close()

	var items []models.MealItem
	for rows.Next() {
		var it models.MealItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Quantity, &it.Calories, &it.Protein, &it.Carbs, &it.Fat); err != nil {
			return nil, errors.Wrap(err, "failed to scan meal item")
		}
		items = append(items, it)
	}
	return items, errors.Wrap(rows.Err(), "failed to iterate meal items")
}

func (s *Store) adjustTotal(ctx context.Context, tx *sql.Tx, mealID string, delta int) error {
	_, err := tx.ExecContext(ctx, s.rebind(`
		UPDATE meals SET total_calories = total_calories + ?, updated_ts = ? WHERE id = ?`),
		delta, s.nextTimestamp(), mealID)
	return errors.Wrap(err, "failed to update meal total")
}

func (s *Store) deleteMealByID(ctx context.Context, tx *sql.Tx, mealID string) error {
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM meal_items WHERE meal_id = ?`), mealID); err != nil {
		return errors.Wrap(err, "failed to delete meal items")
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM meals WHERE id = ?`), mealID); err != nil {
		return errors.Wrap(err, "failed to delete meal")
	}
	return nil
}

// matchItem returns the index of the first item whose name contains name,
// ignoring case, or -1.
func matchItem(items []models.MealItem, name string) int {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return -1
	}
	for i, it := range items {
		if strings.Contains(strings.ToLower(it.Name), needle) {
			return i
		}
	}
	return -1
}
