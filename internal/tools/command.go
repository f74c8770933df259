package tools

import (
	"encoding/json"

	"diet-coach/internal/models"
)

// Invocation is a tool call exactly as the model produced it. Nothing about
// it is trusted.
type Invocation struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Command is a validated tool invocation. Exactly one of the *Command types
// below implements it per tool.
type Command interface {
	Tool() string
	CommandDate() string
}

type LogMealCommand struct {
	Date     string
	MealType models.MealType
	Foods    []models.Food
}

type DeleteMealCommand struct {
	Date     string
	MealType models.MealType
	FoodName *string // nil deletes the whole meal
}

type UpdateMealCommand struct {
	Date        string
	MealType    models.MealType
	OldFoodName string
	NewFood     models.Food
}

type QueryMealsCommand struct {
	Date     string
	MealType string // a models.MealType or models.MealTypeAll
}

func (LogMealCommand) Tool() string    { return LogMeal }
func (DeleteMealCommand) Tool() string { return DeleteMeal }
func (UpdateMealCommand) Tool() string { return UpdateMeal }
func (QueryMealsCommand) Tool() string { return GetMeals }

func (c LogMealCommand) CommandDate() string    { return c.Date }
func (c DeleteMealCommand) CommandDate() string { return c.Date }
func (c UpdateMealCommand) CommandDate() string { return c.Date }
func (c QueryMealsCommand) CommandDate() string { return c.Date }

// Mutates reports whether executing cmd writes to the store.
func Mutates(cmd Command) bool {
	_, query := cmd.(*QueryMealsCommand)
	return !query
}
