// Package prompt assembles the model request for a turn: persona system
// message, the intent's mission, a situational context block and a bounded
// history window.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"diet-coach/internal/intent"
	"diet-coach/internal/llm"
	"diet-coach/internal/models"
	"diet-coach/internal/situation"
	"diet-coach/internal/tools"
)

const (
	// HistoryWindow is how many recent messages are replayed to the model.
	HistoryWindow = 10

	ChatMaxTokens = 150
	ToolMaxTokens = 500

	dateLayout = "2006-01-02"
)

var missions = map[intent.Intent]string{
	intent.MealLogging: `사용자가 먹은 음식을 log_meal 함수로 기록해.
- 콤마(,)나 "이랑/하고/랑"으로 구분된 경우에만 여러 음식으로 나눠. "달걀 샐러드"는 1개야.
- 칼로리와 탄단지(g)는 1인분 기준으로 추정해. 참고: 밥300, 치킨450, 라면500, 샐러드200, 피자280.
- meal_type이 불분명하면 현재 시각으로 판단해.`,
	intent.MealQuery: `식단 질문에는 반드시 get_meals 함수를 호출해서 실제 기록을 확인해.
너는 기록을 기억하지 못해. 함수 없이 "모른다"고 답하면 안 돼.`,
	intent.MealModify: `사용자의 식단 기록을 고쳐.
- "A 대신 B", "A 말고 B" → update_meal
- "삭제", "지워", "취소" → delete_meal`,
	intent.CasualChat: `친근한 대화 상대이자 응원단이야. 1-2문장으로 짧게 답하고, 함수는 호출하지 마.`,
}

var situationHints = map[situation.Situation]string{
	situation.LateNight:    "늦은 시간이야. 야식은 가볍게, 내일 아침을 챙기라고 말해.",
	situation.Overeating:   "목표를 20% 이상 넘겼어. 비난 없이 내일 조절을 권해.",
	situation.Healthy:      "건강한 선택이야. 구체적으로 칭찬해.",
	situation.Junk:         "정크푸드가 있어. 가볍게 짚고 다음 끼니 균형을 권해.",
	situation.GoalAchieved: "목표 칼로리에 딱 맞췄어. 크게 칭찬해.",
	situation.UnderEating:  "저녁인데 목표의 절반도 못 먹었어. 제대로 된 한 끼를 권해.",
	situation.Streak:       "연속 기록 달성! 꾸준함을 축하해.",
	situation.FirstMeal:    "오늘 첫 기록이야. 좋은 시작이라고 응원해.",
	situation.Default:      "상황에 맞게 자연스럽게 반응해.",
}

// Input is everything the assembler reads for one turn.
type Input struct {
	Persona    Persona
	Intent     intent.Intent
	Tools      tools.CapabilitySet
	Snapshot   *models.NutritionSnapshot
	Situation  situation.Situation
	Situations []situation.Situation
	// History is oldest first and already ends with the current user message.
	History []*models.ChatMessage
	Now     time.Time
}

// Build returns the model request for in.
func Build(in *Input) *llm.Request {
	var b strings.Builder
	b.WriteString(in.Persona.Prompt)
	b.WriteString("\n\n[임무]\n")
	b.WriteString(missions[in.Intent])
	b.WriteString("\n\n")
	b.WriteString(ContextString(in.Snapshot, in.Situation, in.Situations, in.Now))

	req := &llm.Request{
		System:      b.String(),
		Messages:    Window(in.History, HistoryWindow),
		Tools:       in.Tools,
		Temperature: in.Persona.Temperature,
		MaxTokens:   ToolMaxTokens,
	}
	if len(in.Tools) == 0 {
		req.MaxTokens = ChatMaxTokens
	}
	return req
}

// FollowUp derives the text-only request that turns a tool result and the
// refreshed numbers into the final reply.
func FollowUp(base *llm.Request, result string, snap *models.NutritionSnapshot, primary situation.Situation, all []situation.Situation, now time.Time) *llm.Request {
	var b strings.Builder
	b.WriteString(base.System)
	b.WriteString("\n\n[실행 결과]\n")
	b.WriteString(result)
	b.WriteString("\n\n[갱신된 ")
	b.WriteString(strings.TrimPrefix(ContextString(snap, primary, all, now), "["))
	b.WriteString("\n\n위 결과와 갱신된 수치를 바탕으로 캐릭터 말투로 2-3문장 답해. 함수는 호출하지 마.")
	return &llm.Request{
		System:      b.String(),
		Messages:    base.Messages,
		Temperature: base.Temperature,
		MaxTokens:   ToolMaxTokens,
	}
}

// TextOnly strips the tools from base so the model has to answer in text.
func TextOnly(base *llm.Request) *llm.Request {
	return &llm.Request{
		System:      base.System + "\n\n함수 호출 없이 텍스트로만 답해.",
		Messages:    base.Messages,
		Temperature: base.Temperature,
		MaxTokens:   ChatMaxTokens,
	}
}

// Window converts the last n messages of history into model messages.
func Window(history []*models.ChatMessage, n int) []llm.Message {
	if len(history) > n {
		history = history[len(history)-n:]
	}
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// ContextString renders the situational block of the system prompt. Dates
// for "today" and "yesterday" are spelled out so the model never has to
// resolve relative dates itself.
func ContextString(snap *models.NutritionSnapshot, primary situation.Situation, all []situation.Situation, now time.Time) string {
	if snap == nil {
		snap = &models.NutritionSnapshot{Date: now.Format(dateLayout), TargetCalories: models.DefaultTargetCalories}
	}
	var b strings.Builder
	b.WriteString("[현재 상황]\n")
	fmt.Fprintf(&b, "- 오늘: %s (어제: %s)\n", snap.Date, yesterday(snap.Date, now))
	fmt.Fprintf(&b, "- 현재 시각: %02d시 (%s 시간대)\n", now.Hour(), models.InferMealType(now.Hour()).Label())
	fmt.Fprintf(&b, "- 섭취: %dkcal / 목표: %dkcal (%d%%) | 남은 여유: %dkcal\n",
		snap.ConsumedCalories, snap.TargetCalories, snap.Percent(), snap.Remaining())
	if len(snap.TodayMeals) > 0 {
		fmt.Fprintf(&b, "- 오늘 식단: %s\n", strings.Join(snap.TodayMeals, " / "))
	} else {
		b.WriteString("- 오늘 식단: 아직 기록 없음\n")
	}
	fmt.Fprintf(&b, "- 연속 기록: %d일째\n", snap.StreakDays)
	if snap.WeeklyAvgCalories > 0 {
		fmt.Fprintf(&b, "- 주간 평균: %dkcal/일 (%s)\n", snap.WeeklyAvgCalories, weeklyDelta(snap.WeeklyDelta()))
	}
	if snap.CurrentWeightKg != nil && snap.GoalWeightKg != nil {
		fmt.Fprintf(&b, "- 체중: %.1fkg → 목표 %.1fkg\n", *snap.CurrentWeightKg, *snap.GoalWeightKg)
	}
	if w := snap.RecentWeights; len(w) >= 2 {
		fmt.Fprintf(&b, "- 최근 체중 변화: %.1fkg → %.1fkg (%+.1fkg, %s)\n",
			w[0].WeightKg, w[len(w)-1].WeightKg, models.WeightChange(w), snap.WeightTrend.Label())
	}
	if primary == "" {
		primary = situation.Default
	}
	fmt.Fprintf(&b, "- 상황: %s", primary)
	if also := others(primary, all); len(also) > 0 {
		fmt.Fprintf(&b, " (함께: %s)", strings.Join(also, ", "))
	}
	fmt.Fprintf(&b, "\n- 코칭 포인트: %s", situationHints[primary])
	return b.String()
}

func weeklyDelta(d int) string {
	switch {
	case d > 0:
		return fmt.Sprintf("목표 대비 +%dkcal 초과", d)
	case d < 0:
		return fmt.Sprintf("목표 대비 %dkcal 여유", -d)
	default:
		return "목표와 같음"
	}
}

func others(primary situation.Situation, all []situation.Situation) []string {
	var out []string
	for _, s := range all {
		if s != primary && s != situation.Default {
			out = append(out, string(s))
		}
	}
	return out
}

func yesterday(date string, now time.Time) string {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		d = now
	}
	return d.AddDate(0, 0, -1).Format(dateLayout)
}

// ResultSummary is the deterministic reply used when the follow-up model
// call fails: the tool's own message plus the refreshed totals.
func ResultSummary(res *tools.Result, snap *models.NutritionSnapshot) string {
	if snap == nil {
		return res.Message
	}
	return fmt.Sprintf("%s\n오늘 섭취: %dkcal / 목표 %dkcal (%d%%)",
		res.Message, snap.ConsumedCalories, snap.TargetCalories, snap.Percent())
}
