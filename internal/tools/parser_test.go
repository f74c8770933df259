package tools

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diet-coach/internal/models"
)

const today = "2026-10-16"

func inv(name, args string) Invocation {
	return Invocation{Name: name, Arguments: json.RawMessage(args)}
}

func TestParse_LogMealDefaults(t *testing.T) {
	cmd, err := Parse(inv(LogMeal, `{
		"meal_type": "breakfast",
		"foods": [{"name": "계란 2개", "calories": 140, "protein": 12, "carbs": 1, "fat": 10}]
	}`), today)
	require.NoError(t, err)

	want := &LogMealCommand{
		Date:     today,
		MealType: models.Breakfast,
		Foods: []models.Food{
			{Name: "계란 2개", Quantity: 1, Calories: 140, Protein: 12, Carbs: 1, Fat: 10},
		},
	}
	if diff := cmp.Diff(want, cmd); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_LogMealMissingMacrosDefaultToZero(t *testing.T) {
	cmd, err := Parse(inv(LogMeal, `{"meal_type":"snack","date":"2026-10-15","foods":[{"name":"사과","quantity":2}]}`), today)
	require.NoError(t, err)

	log := cmd.(*LogMealCommand)
	assert.Equal(t, "2026-10-15", log.Date)
	assert.Equal(t, []models.Food{{Name: "사과", Quantity: 2}}, log.Foods)
}

func TestParse_Idempotent(t *testing.T) {
	payloads := []Invocation{
		inv(LogMeal, `{"meal_type":"lunch","foods":[{"name":"치킨","calories":450},{"name":"콜라"}]}`),
		inv(DeleteMeal, `{"meal_type":"dinner","food_name":"피자"}`),
		inv(UpdateMeal, `{"meal_type":"lunch","old_food_name":"피자","new_food":{"name":"샐러드","calories":200}}`),
		inv(GetMeals, `{}`),
	}
	for _, p := range payloads {
		first, err := Parse(p, today)
		require.NoError(t, err, p.Name)
		second, err := Parse(p, today)
		require.NoError(t, err, p.Name)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("%s: parses differ (-first +second):\n%s", p.Name, diff)
		}
	}
}

func TestParse_DateDefaultsToToday(t *testing.T) {
	payloads := []Invocation{
		inv(LogMeal, `{"meal_type":"lunch","foods":[{"name":"밥"}]}`),
		inv(DeleteMeal, `{"meal_type":"lunch"}`),
		inv(UpdateMeal, `{"meal_type":"lunch","old_food_name":"a","new_food":{"name":"b"}}`),
		inv(GetMeals, `{"meal_type":"all"}`),
		inv(GetMeals, `{"date":""}`),
		inv(GetMeals, `{"date":null}`),
	}
	for _, p := range payloads {
		cmd, err := Parse(p, today)
		require.NoError(t, err, string(p.Arguments))
		assert.Equal(t, today, cmd.CommandDate(), string(p.Arguments))
	}
}

func TestParse_DeleteMeal(t *testing.T) {
	cmd, err := Parse(inv(DeleteMeal, `{"meal_type":"breakfast"}`), today)
	require.NoError(t, err)
	assert.Nil(t, cmd.(*DeleteMealCommand).FoodName)

	cmd, err = Parse(inv(DeleteMeal, `{"meal_type":"breakfast","food_name":" 토스트 "}`), today)
	require.NoError(t, err)
	require.NotNil(t, cmd.(*DeleteMealCommand).FoodName)
	assert.Equal(t, "토스트", *cmd.(*DeleteMealCommand).FoodName)
}

func TestParse_UpdateMeal(t *testing.T) {
	cmd, err := Parse(inv(UpdateMeal, `{"date":"2026-10-14","meal_type":"lunch","old_food_name":"피자","new_food":{"name":"샐러드","calories":200,"protein":5}}`), today)
	require.NoError(t, err)
	want := &UpdateMealCommand{
		Date:        "2026-10-14",
		MealType:    models.Lunch,
		OldFoodName: "피자",
		NewFood:     models.Food{Name: "샐러드", Quantity: 1, Calories: 200, Protein: 5},
	}
	assert.Equal(t, want, cmd)
}

func TestParse_GetMealsDefaults(t *testing.T) {
	cmd, err := Parse(Invocation{Name: GetMeals}, today)
	require.NoError(t, err)
	assert.Equal(t, &QueryMealsCommand{Date: today, MealType: models.MealTypeAll}, cmd)

	cmd, err = Parse(inv(GetMeals, `{"meal_type":"dinner","date":"2026-10-01"}`), today)
	require.NoError(t, err)
	assert.Equal(t, &QueryMealsCommand{Date: "2026-10-01", MealType: "dinner"}, cmd)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		inv  Invocation
	}{
		{"log missing meal_type", inv(LogMeal, `{"foods":[{"name":"밥"}]}`)},
		{"log empty foods", inv(LogMeal, `{"meal_type":"lunch","foods":[]}`)},
		{"log missing foods", inv(LogMeal, `{"meal_type":"lunch"}`)},
		{"log foods not list", inv(LogMeal, `{"meal_type":"lunch","foods":"밥"}`)},
		{"log food without name", inv(LogMeal, `{"meal_type":"lunch","foods":[{"calories":100}]}`)},
		{"log blank food name", inv(LogMeal, `{"meal_type":"lunch","foods":[{"name":"  "}]}`)},
		{"log string calories", inv(LogMeal, `{"meal_type":"lunch","foods":[{"name":"밥","calories":"300"}]}`)},
		{"log zero quantity", inv(LogMeal, `{"meal_type":"lunch","foods":[{"name":"밥","quantity":0}]}`)},
		{"log negative fat", inv(LogMeal, `{"meal_type":"lunch","foods":[{"name":"밥","fat":-1}]}`)},
		{"unknown meal type", inv(LogMeal, `{"meal_type":"brunch","foods":[{"name":"밥"}]}`)},
		{"bad date", inv(LogMeal, `{"meal_type":"lunch","date":"10/16/2026","foods":[{"name":"밥"}]}`)},
		{"relative date", inv(DeleteMeal, `{"meal_type":"lunch","date":"yesterday"}`)},
		{"delete missing meal_type", inv(DeleteMeal, `{"food_name":"피자"}`)},
		{"delete numeric food name", inv(DeleteMeal, `{"meal_type":"lunch","food_name":3}`)},
		{"update missing new_food", inv(UpdateMeal, `{"meal_type":"lunch","old_food_name":"피자"}`)},
		{"update missing old name", inv(UpdateMeal, `{"meal_type":"lunch","new_food":{"name":"샐러드"}}`)},
		{"update new_food without name", inv(UpdateMeal, `{"meal_type":"lunch","old_food_name":"피자","new_food":{"calories":1}}`)},
		{"update new_food not object", inv(UpdateMeal, `{"meal_type":"lunch","old_food_name":"피자","new_food":"샐러드"}`)},
		{"get bad meal type", inv(GetMeals, `{"meal_type":"supper"}`)},
		{"not json", inv(GetMeals, `{meal_type:`)},
		{"array payload", inv(GetMeals, `[]`)},
		{"null payload", inv(LogMeal, `null`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Parse(tt.inv, today)
			assert.Nil(t, cmd)
			assert.True(t, errors.Is(err, ErrUnparseable), "err = %v", err)
		})
	}
}

func TestParse_UnknownTool(t *testing.T) {
	cmd, err := Parse(inv("drop_tables", `{}`), today)
	assert.Nil(t, cmd)
	assert.ErrorIs(t, err, ErrUnknownTool)
	assert.ErrorIs(t, err, ErrUnparseable)
}

func TestParse_RejectionKeepsDetail(t *testing.T) {
	_, err := Parse(inv(LogMeal, `{"meal_type":"lunch","foods":[]}`), today)
	require.Error(t, err)
	assert.Equal(t, ErrUnparseable, errors.Cause(err))
	assert.Contains(t, err.Error(), "log_meal: foods is empty")

	_, err = Parse(inv("drop_tables", `{}`), today)
	assert.Equal(t, ErrUnparseable, errors.Cause(err))
	assert.Contains(t, err.Error(), `"drop_tables"`)
}

func TestMutates(t *testing.T) {
	assert.True(t, Mutates(&LogMealCommand{}))
	assert.True(t, Mutates(&DeleteMealCommand{}))
	assert.True(t, Mutates(&UpdateMealCommand{}))
	assert.False(t, Mutates(&QueryMealsCommand{}))
}
