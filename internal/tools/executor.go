package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"diet-coach/internal/models"
)

// MealRepository is the slice of the data store the executor needs.
type MealRepository interface {
	AddMealItems(ctx context.Context, userID, date string, mealType models.MealType, items []models.MealItem) ([]models.MealItem, error)
	ListMeals(ctx context.Context, userID, date, mealType string) ([]*models.Meal, error)
	DeleteMeal(ctx context.Context, userID, date string, mealType models.MealType) error
	DeleteMealItem(ctx context.Context, userID, date string, mealType models.MealType, foodName string) (*models.MealItem, error)
	ReplaceMealItem(ctx context.Context, userID, date string, mealType models.MealType, oldName string, item models.MealItem) (*models.MealItem, error)
}

// Result is what a command did. Success=false with a nil error means the
// command ran but found nothing to act on.
type Result struct {
	Tool    string            `json:"tool"`
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Added   []models.MealItem `json:"added,omitempty"`
	Meals   []*models.Meal    `json:"meals,omitempty"`
}

type Executor struct {
	repo MealRepository
}

func NewExecutor(repo MealRepository) *Executor {
	return &Executor{repo: repo}
}

// Execute runs cmd for userID. A returned error means the store failed and
// nothing should be reported as done.
func (e *Executor) Execute(ctx context.Context, userID string, cmd Command) (*Result, error) {
	switch c := cmd.(type) {
	case *LogMealCommand:
		return e.logMeal(ctx, userID, c)
	case *QueryMealsCommand:
		return e.getMeals(ctx, userID, c)
	case *DeleteMealCommand:
		return e.deleteMeal(ctx, userID, c)
	case *UpdateMealCommand:
		return e.updateMeal(ctx, userID, c)
	}
	return nil, errors.Errorf("unsupported command %T", cmd)
}

func (e *Executor) logMeal(ctx context.Context, userID string, c *LogMealCommand) (*Result, error) {
	items := make([]models.MealItem, 0, len(c.Foods))
	for _, f := range c.Foods {
		items = append(items, f.Item())
	}
	added, err := e.repo.AddMealItems(ctx, userID, c.Date, c.MealType, items)
	if err != nil {
		return nil, errors.Wrap(err, "failed to log meal")
	}
	res := &Result{Tool: LogMeal, Success: true, Added: added}
	if len(added) == 0 {
		res.Message = fmt.Sprintf("%s은(는) 이미 기록되어 있어요!", itemNames(items))
		return res, nil
	}
	res.Message = fmt.Sprintf("%s (%dkcal) 기록 완료", itemNames(added), sumCalories(added))
	return res, nil
}

func (e *Executor) getMeals(ctx context.Context, userID string, c *QueryMealsCommand) (*Result, error) {
	meals, err := e.repo.ListMeals(ctx, userID, c.Date, c.MealType)
	if err != nil {
		return nil, errors.Wrap(err, "failed to retrieve meals")
	}
	res := &Result{Tool: GetMeals, Success: true, Meals: meals}
	if len(meals) == 0 {
		res.Message = fmt.Sprintf("%s 식단 기록이 없습니다.", c.Date)
		return res, nil
	}
	res.Message = SummarizeMeals(c.Date, meals)
	return res, nil
}

func (e *Executor) deleteMeal(ctx context.Context, userID string, c *DeleteMealCommand) (*Result, error) {
	res := &Result{Tool: DeleteMeal}
	if c.FoodName != nil {
		item, err := e.repo.DeleteMealItem(ctx, userID, c.Date, c.MealType, *c.FoodName)
		switch {
		case errors.Is(err, models.ErrMealNotFound):
			res.Message = fmt.Sprintf("%s %s 기록이 없습니다.", c.Date, c.MealType.Label())
			return res, nil
		case errors.Is(err, models.ErrFoodNotFound):
			res.Message = fmt.Sprintf("%q을(를) 찾을 수 없습니다.", *c.FoodName)
			return res, nil
		case err != nil:
			return nil, errors.Wrap(err, "failed to delete food")
		}
		res.Success = true
		res.Message = fmt.Sprintf("%q 삭제 완료", item.Name)
		return res, nil
	}

	err := e.repo.DeleteMeal(ctx, userID, c.Date, c.MealType)
	switch {
	case errors.Is(err, models.ErrMealNotFound):
		res.Message = fmt.Sprintf("%s %s 기록이 없습니다.", c.Date, c.MealType.Label())
		return res, nil
	case err != nil:
		return nil, errors.Wrap(err, "failed to delete meal")
	}
	res.Success = true
	res.Message = fmt.Sprintf("%s 전체 삭제 완료", c.MealType.Label())
	return res, nil
}

func (e *Executor) updateMeal(ctx context.Context, userID string, c *UpdateMealCommand) (*Result, error) {
	res := &Result{Tool: UpdateMeal}
	old, err := e.repo.ReplaceMealItem(ctx, userID, c.Date, c.MealType, c.OldFoodName, c.NewFood.Item())
	switch {
	case errors.Is(err, models.ErrMealNotFound):
		res.Message = fmt.Sprintf("%s %s 기록이 없습니다.", c.Date, c.MealType.Label())
		return res, nil
	case errors.Is(err, models.ErrFoodNotFound):
		res.Message = fmt.Sprintf("%q을(를) 찾을 수 없습니다.", c.OldFoodName)
		return res, nil
	case err != nil:
		return nil, errors.Wrap(err, "failed to update meal")
	}
	res.Success = true
	res.Message = fmt.Sprintf("%q → %q 수정 완료", old.Name, c.NewFood.Name)
	return res, nil
}

// SummarizeMeals renders one line per meal plus the day's total.
func SummarizeMeals(date string, meals []*models.Meal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s 식단:\n", date)
	total := 0
	for _, m := range meals {
		fmt.Fprintf(&b, "%s: %s (%dkcal)\n", m.MealType.Label(), itemNames(m.Items), m.TotalCalories)
		total += m.TotalCalories
	}
	fmt.Fprintf(&b, "총 %dkcal", total)
	return b.String()
}

func itemNames(items []models.MealItem) string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return strings.Join(names, ", ")
}

func sumCalories(items []models.MealItem) int {
	total := 0
	for _, it := range items {
		total += it.Calories
	}
	return total
}
