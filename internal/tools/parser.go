package tools

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"diet-coach/internal/models"
)

// DateLayout is the only accepted date format.
const DateLayout = "2006-01-02"

var (
	// ErrUnparseable marks every rejected invocation.
	ErrUnparseable = errors.New("unparseable tool invocation")
	// ErrUnknownTool is returned for names outside the tool table. It wraps
	// ErrUnparseable so callers can treat both the same way.
	ErrUnknownTool = errors.Wrap(ErrUnparseable, "unknown tool")
)

func reject(format string, args ...any) error {
	return errors.Wrapf(ErrUnparseable, format, args...)
}

// Parse validates a raw invocation into a Command. It never panics; any
// problem with the payload yields an error wrapping ErrUnparseable and a nil
// Command. today must be the caller's local date in DateLayout and is used
// for every omitted date.
func Parse(inv Invocation, today string) (Command, error) {
	raw := strings.TrimSpace(string(inv.Arguments))
	if raw == "" {
		raw = "{}"
	}
	if !gjson.Valid(raw) {
		return nil, reject("%s: arguments are not valid JSON", inv.Name)
	}
	args := gjson.Parse(raw)
	if !args.IsObject() {
		return nil, reject("%s: arguments must be an object", inv.Name)
	}

	switch inv.Name {
	case LogMeal:
		return parseLogMeal(args, today)
	case DeleteMeal:
		return parseDeleteMeal(args, today)
	case UpdateMeal:
		return parseUpdateMeal(args, today)
	case GetMeals:
		return parseGetMeals(args, today)
	}
	return nil, errors.Wrapf(ErrUnknownTool, "%q", inv.Name)
}

func parseLogMeal(args gjson.Result, today string) (Command, error) {
	mealType, err := requireMealType(args)
	if err != nil {
		return nil, err
	}
	date, err := optionalDate(args, today)
	if err != nil {
		return nil, err
	}
	foods := args.Get("foods")
	if !foods.IsArray() {
		return nil, reject("log_meal: foods must be a list")
	}
	items := foods.Array()
	if len(items) == 0 {
		return nil, reject("log_meal: foods is empty")
	}
	cmd := &LogMealCommand{Date: date, MealType: mealType, Foods: make([]models.Food, 0, len(items))}
	for i, item := range items {
		food, err := parseFood(item, true)
		if err != nil {
			return nil, reject("log_meal: foods[%d]: %v", i, err)
		}
		cmd.Foods = append(cmd.Foods, food)
	}
	return cmd, nil
}

func parseDeleteMeal(args gjson.Result, today string) (Command, error) {
	mealType, err := requireMealType(args)
	if err != nil {
		return nil, err
	}
	date, err := optionalDate(args, today)
	if err != nil {
		return nil, err
	}
	cmd := &DeleteMealCommand{Date: date, MealType: mealType}
	name, ok, err := optionalString(args, "food_name")
	if err != nil {
		return nil, err
	}
	if ok && name != "" {
		cmd.FoodName = &name
	}
	return cmd, nil
}

func parseUpdateMeal(args gjson.Result, today string) (Command, error) {
	mealType, err := requireMealType(args)
	if err != nil {
		return nil, err
	}
	date, err := optionalDate(args, today)
	if err != nil {
		return nil, err
	}
	old, ok, err := optionalString(args, "old_food_name")
	if err != nil {
		return nil, err
	}
	if !ok || old == "" {
		return nil, reject("update_meal: old_food_name is required")
	}
	nf := args.Get("new_food")
	if !nf.IsObject() {
		return nil, reject("update_meal: new_food must be an object")
	}
	food, err := parseFood(nf, false)
	if err != nil {
		return nil, reject("update_meal: new_food: %v", err)
	}
	return &UpdateMealCommand{Date: date, MealType: mealType, OldFoodName: old, NewFood: food}, nil
}

func parseGetMeals(args gjson.Result, today string) (Command, error) {
	date, err := optionalDate(args, today)
	if err != nil {
		return nil, err
	}
	cmd := &QueryMealsCommand{Date: date, MealType: models.MealTypeAll}
	mt, ok, err := optionalString(args, "meal_type")
	if err != nil {
		return nil, err
	}
	if ok && mt != "" {
		if mt != models.MealTypeAll && !models.MealType(mt).Valid() {
			return nil, reject("get_meals: unknown meal_type %q", mt)
		}
		cmd.MealType = mt
	}
	return cmd, nil
}

// parseFood reads a food object. Quantity only applies to logged foods;
// missing macros default to zero.
func parseFood(obj gjson.Result, withQuantity bool) (models.Food, error) {
	if !obj.IsObject() {
		return models.Food{}, errors.New("food must be an object")
	}
	name, ok, err := optionalString(obj, "name")
	if err != nil {
		return models.Food{}, err
	}
	if !ok || name == "" {
		return models.Food{}, errors.New("name is required")
	}
	food := models.Food{Name: name, Quantity: 1}
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"calories", &food.Calories},
		{"protein", &food.Protein},
		{"carbs", &food.Carbs},
		{"fat", &food.Fat},
	} {
		v, err := optionalNumber(obj, f.key)
		if err != nil {
			return models.Food{}, err
		}
		if v < 0 {
			return models.Food{}, errors.Errorf("%s must not be negative", f.key)
		}
		*f.dst = v
	}
	if withQuantity {
		q := obj.Get("quantity")
		if q.Exists() && q.Type != gjson.Null {
			if q.Type != gjson.Number {
				return models.Food{}, errors.New("quantity must be a number")
			}
			if q.Num <= 0 {
				return models.Food{}, errors.New("quantity must be positive")
			}
			food.Quantity = q.Num
		}
	}
	return food, nil
}

func requireMealType(args gjson.Result) (models.MealType, error) {
	s, ok, err := optionalString(args, "meal_type")
	if err != nil {
		return "", err
	}
	if !ok || s == "" {
		return "", reject("meal_type is required")
	}
	mt := models.MealType(s)
	if !mt.Valid() {
		return "", reject("unknown meal_type %q", s)
	}
	return mt, nil
}

// optionalDate returns today when the date is absent, null or empty.
func optionalDate(args gjson.Result, today string) (string, error) {
	s, ok, err := optionalString(args, "date")
	if err != nil {
		return "", err
	}
	if !ok || s == "" {
		return today, nil
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", reject("date %q is not YYYY-MM-DD", s)
	}
	return s, nil
}

// optionalString returns the trimmed string at key. A present non-string
// value is an error; null counts as absent.
func optionalString(obj gjson.Result, key string) (string, bool, error) {
	v := obj.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return "", false, nil
	}
	if v.Type != gjson.String {
		return "", false, reject("%s must be a string", key)
	}
	return strings.TrimSpace(v.Str), true, nil
}

func optionalNumber(obj gjson.Result, key string) (float64, error) {
	v := obj.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return 0, nil
	}
	if v.Type != gjson.Number {
		return 0, errors.Errorf("%s must be a number", key)
	}
	return v.Num, nil
}
