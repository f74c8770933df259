package tools

import (
	"diet-coach/internal/intent"
)

// Tool names exposed to the model.
const (
	LogMeal    = "log_meal"
	GetMeals   = "get_meals"
	DeleteMeal = "delete_meal"
	UpdateMeal = "update_meal"
)

// Schema is a provider-neutral function definition. Parameters is a JSON
// schema object.
type Schema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

type CapabilitySet []Schema

// Names lists the tool names in order.
func (c CapabilitySet) Names() []string {
	names := make([]string, len(c))
	for i, s := range c {
		names[i] = s.Name
	}
	return names
}

var mealTypeEnum = []string{"breakfast", "lunch", "dinner", "snack"}

// buildSchema mirrors the OpenAI function "parameters" object layout.
func buildSchema(name, description string, properties map[string]any, required []string) Schema {
	return Schema{
		Name:        name,
		Description: description,
		Parameters: map[string]any{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}

func macroProperties() map[string]any {
	return map[string]any{
		"calories": map[string]any{"type": "number", "description": "총 칼로리 (kcal)"},
		"protein":  map[string]any{"type": "number", "description": "단백질 (g)"},
		"carbs":    map[string]any{"type": "number", "description": "탄수화물 (g)"},
		"fat":      map[string]any{"type": "number", "description": "지방 (g)"},
	}
}

func dateProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": `YYYY-MM-DD 형식. 미지정시 오늘 날짜 사용. "어제"는 오늘-1일로 계산.`,
	}
}

var (
	LogMealSchema = func() Schema {
		food := macroProperties()
		food["name"] = map[string]any{"type": "string", "description": "음식 이름과 양"}
		food["quantity"] = map[string]any{"type": "number", "description": "인분 수 (기본값 1)"}
		return buildSchema(LogMeal,
			"사용자가 먹은 음식을 기록합니다. \"~먹었어\", \"~섭취했어\" 등 음식 섭취 언급 시 호출하세요.\n"+
				"칼로리 추정: 밥300, 국/찌개100-200, 치킨1/4마리450, 라면500",
			map[string]any{
				"meal_type": map[string]any{
					"type":        "string",
					"enum":        mealTypeEnum,
					"description": "식사 종류 (시간 기준: 아침5-10시, 점심10-15시, 저녁15-21시, 그 외 간식)",
				},
				"foods": map[string]any{
					"type":        "array",
					"description": "먹은 음식들",
					"items": map[string]any{
						"type":       "object",
						"properties": food,
						"required":   []string{"name", "calories", "protein", "carbs", "fat"},
					},
				},
				"date": dateProperty(),
			},
			[]string{"meal_type", "foods"})
	}()

	GetMealsSchema = buildSchema(GetMeals,
		"사용자의 식단 기록을 조회합니다. \"오늘 뭐 먹었지?\", \"어제 식단 알려줘\" 등 식단 조회 요청 시 호출하세요.",
		map[string]any{
			"date": dateProperty(),
			"meal_type": map[string]any{
				"type":        "string",
				"enum":        append(append([]string(nil), mealTypeEnum...), "all"),
				"description": `조회할 식사 종류. 기본값은 "all".`,
			},
		},
		[]string{})

	DeleteMealSchema = buildSchema(DeleteMeal,
		"사용자의 식단 기록을 삭제합니다.\n"+
			"- \"점심 피자 지워줘\" → meal_type: \"lunch\", food_name: \"피자\"\n"+
			"- \"아침 취소해줘\" → meal_type: \"breakfast\" (전체 삭제)",
		map[string]any{
			"date": dateProperty(),
			"meal_type": map[string]any{
				"type":        "string",
				"enum":        mealTypeEnum,
				"description": "삭제할 식사 종류.",
			},
			"food_name": map[string]any{
				"type":        "string",
				"description": "삭제할 특정 음식 이름. 미지정시 해당 끼니 전체 삭제.",
			},
		},
		[]string{"meal_type"})

	UpdateMealSchema = func() Schema {
		food := macroProperties()
		food["name"] = map[string]any{"type": "string"}
		return buildSchema(UpdateMeal,
			"사용자의 식단 기록을 수정합니다.\n"+
				"- \"A 대신 B 먹었어\" → old_food_name: \"A\", new_food.name: \"B\"\n"+
				"- \"A 말고 B였어\" → old_food_name: \"A\", new_food.name: \"B\"",
			map[string]any{
				"date": dateProperty(),
				"meal_type": map[string]any{
					"type":        "string",
					"enum":        mealTypeEnum,
					"description": `수정할 식사 종류. "점심"=lunch, "아침"=breakfast, "저녁"=dinner`,
				},
				"old_food_name": map[string]any{
					"type":        "string",
					"description": `수정 대상 기존 음식 이름. "A 대신 B"에서 A에 해당.`,
				},
				"new_food": map[string]any{
					"type":        "object",
					"description": `새로운 음식 정보. "A 대신 B"에서 B에 해당. 영양정보 추정 필수.`,
					"properties":  food,
					"required":    []string{"name"},
				},
			},
			[]string{"meal_type", "old_food_name", "new_food"})
	}()
)

var capabilities = map[intent.Intent]CapabilitySet{
	intent.MealLogging: {LogMealSchema},
	intent.MealQuery:   {GetMealsSchema},
	intent.MealModify:  {DeleteMealSchema, UpdateMealSchema},
	intent.CasualChat:  {},
}

// ForIntent returns the tools the model may call for an intent. The result
// is a fresh slice; unknown intents get no tools.
func ForIntent(i intent.Intent) CapabilitySet {
	set := capabilities[i]
	out := make(CapabilitySet, len(set))
	copy(out, set)
	return out
}

// All returns every tool schema, in a stable order.
func All() CapabilitySet {
	return CapabilitySet{LogMealSchema, GetMealsSchema, DeleteMealSchema, UpdateMealSchema}
}
