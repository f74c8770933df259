package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"diet-coach/internal/intent"
	"diet-coach/internal/llm"
	"diet-coach/internal/models"
	"diet-coach/internal/prompt"
	"diet-coach/internal/situation"
	"diet-coach/internal/storage"
	"diet-coach/internal/tools"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	user  = "user-1"
	today = "2026-10-16"
)

var breakfastTime = time.Date(2026, 10, 16, 8, 30, 0, 0, time.UTC)

const eggArgs = `{"meal_type":"breakfast","foods":[{"name":"계란 2개","calories":140,"protein":12,"carbs":1,"fat":10}]}`

// script answers model calls in order and records every request.
type script struct {
	steps    []func(req *llm.Request) (*llm.Response, error)
	requests []*llm.Request
}

func (s *script) Complete(_ context.Context, req *llm.Request) (*llm.Response, error) {
	s.requests = append(s.requests, req)
	i := len(s.requests) - 1
	if i >= len(s.steps) {
		return nil, errors.New("unexpected model call")
	}
	return s.steps[i](req)
}

func text(t string) func(*llm.Request) (*llm.Response, error) {
	return func(*llm.Request) (*llm.Response, error) { return &llm.Response{Text: t}, nil }
}

func toolCall(name, args string, extra ...llm.ToolCall) func(*llm.Request) (*llm.Response, error) {
	return func(*llm.Request) (*llm.Response, error) {
		calls := append([]llm.ToolCall{{ID: "call_1", Name: name, Arguments: json.RawMessage(args)}}, extra...)
		return &llm.Response{ToolCalls: calls}, nil
	}
}

func fail(*llm.Request) (*llm.Response, error) {
	return nil, errors.New("upstream timeout")
}

type harness struct {
	svc   *Service
	store *storage.Store
	model *script
}

func newHarness(t *testing.T, steps ...func(*llm.Request) (*llm.Response, error)) *harness {
	t.Helper()
	store, err := storage.Open(context.Background(), storage.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	model := &script{steps: steps}
	svc := NewService(store, store, tools.NewExecutor(store), model, nil,
		WithClock(func() time.Time { return breakfastTime }),
		WithLocation(time.UTC),
		WithProfiles(store),
	)
	return &harness{svc: svc, store: store, model: model}
}

func (h *harness) meals(t *testing.T) []*models.Meal {
	t.Helper()
	meals, err := h.store.ListMeals(context.Background(), user, today, models.MealTypeAll)
	require.NoError(t, err)
	return meals
}

func (h *harness) history(t *testing.T) []*models.ChatMessage {
	t.Helper()
	msgs, err := h.svc.History(context.Background(), user, 0)
	require.NoError(t, err)
	return msgs
}

func TestHandleMessage_LogsBreakfast(t *testing.T) {
	h := newHarness(t,
		toolCall(tools.LogMeal, eggArgs),
		func(req *llm.Request) (*llm.Response, error) {
			assert.Empty(t, req.Tools)
			assert.Contains(t, req.System, "계란 2개 (140kcal) 기록 완료")
			assert.Contains(t, req.System, "섭취: 140kcal")
			return &llm.Response{Text: "좋은 시작! 계란 2개로 오늘 140kcal 채웠어."}, nil
		},
	)

	resp, err := h.svc.HandleMessage(context.Background(), &Request{UserID: user, Content: "아침에 계란 2개 먹었어"})
	require.NoError(t, err)

	assert.Equal(t, intent.MealLogging, resp.Intent)
	assert.Equal(t, CommandExecuted, resp.Outcome)
	assert.Equal(t, situation.FirstMeal, resp.Situation)
	assert.Contains(t, resp.Message, "140kcal")
	assert.Equal(t, []State{Received, Classified, ToolsSelected, PromptAssembled, ModelInvoked, CommandExecuted, Persisted, Responded}, resp.Trace)

	require.Len(t, h.model.requests, 2)
	assert.Equal(t, []string{tools.LogMeal}, h.model.requests[0].Tools.Names())

	meals := h.meals(t)
	require.Len(t, meals, 1)
	assert.Equal(t, today, meals[0].Date)
	assert.Equal(t, models.Breakfast, meals[0].MealType)
	assert.Equal(t, 140, meals[0].TotalCalories)
	require.Len(t, meals[0].Items, 1)
	assert.Equal(t, 1.0, meals[0].Items[0].Quantity)

	require.NotNil(t, resp.Action)
	assert.True(t, resp.Action.Success)

	msgs := h.history(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, resp.Message, msgs[1].Content)
}

func TestHandleMessage_StreakAroundFirstMeal(t *testing.T) {
	tests := []struct {
		name string
		days []string
		want situation.Situation
	}{
		{"two tracked days stay first meal", []string{"2026-10-14", "2026-10-15"}, situation.FirstMeal},
		{"three tracked days hit the milestone", []string{"2026-10-13", "2026-10-14", "2026-10-15"}, situation.Streak},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, toolCall(tools.LogMeal, eggArgs), text("좋아!"))
			for _, d := range tt.days {
				_, err := h.store.AddMealItems(context.Background(), user, d, models.Lunch,
					[]models.MealItem{models.Food{Name: "비빔밥", Calories: 600}.Item()})
				require.NoError(t, err)
			}

			resp, err := h.svc.HandleMessage(context.Background(), &Request{UserID: user, Content: "아침에 계란 2개 먹었어"})
			require.NoError(t, err)
			assert.Equal(t, CommandExecuted, resp.Outcome)
			assert.Equal(t, tt.want, resp.Situation)
			assert.Contains(t, h.model.requests[1].System, fmt.Sprintf("연속 기록: %d일째", len(tt.days)))
		})
	}
}

func TestHandleMessage_ModelFailure(t *testing.T) {
	h := newHarness(t, fail)

	resp, err := h.svc.HandleMessage(context.Background(), &Request{UserID: user, Content: "아침에 계란 2개 먹었어"})
	require.NoError(t, err)
	assert.Equal(t, DefaultMessages.Apology, resp.Message)
	assert.Equal(t, Failed, resp.Outcome)
	assert.Empty(t, h.meals(t))

	msgs := h.history(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, "아침에 계란 2개 먹었어", msgs[0].Content)
	assert.Equal(t, DefaultMessages.Apology, msgs[1].Content)
}

func TestHandleMessage_FollowUpFailureUsesSummary(t *testing.T) {
	h := newHarness(t, toolCall(tools.LogMeal, eggArgs), fail)

	resp, err := h.svc.HandleMessage(context.Background(), &Request{UserID: user, Content: "아침에 계란 2개 먹었어"})
	require.NoError(t, err)
	assert.Equal(t, CommandExecuted, resp.Outcome)
	assert.Equal(t, "계란 2개 (140kcal) 기록 완료\n오늘 섭취: 140kcal / 목표 2000kcal (7%)", resp.Message)
}

func TestHandleMessage_RejectedToolCall(t *testing.T) {
	bad := `{"meal_type":"brunch","foods":[{"name":"계란"}]}`

	t.Run("model text is used", func(t *testing.T) {
		h := newHarness(t, func(*llm.Request) (*llm.Response, error) {
			return &llm.Response{
				Text:      "계란 기록할게!",
				ToolCalls: []llm.ToolCall{{Name: tools.LogMeal, Arguments: json.RawMessage(bad)}},
			}, nil
		})
		resp, err := h.svc.HandleMessage(context.Background(), &Request{UserID: user, Content: "계란 먹었어"})
		require.NoError(t, err)
		assert.Equal(t, NoCommand, resp.Outcome)
		assert.Equal(t, "계란 기록할게!", resp.Message)
		assert.Empty(t, h.meals(t))
		assert.Len(t, h.model.requests, 1)
	})

	t.Run("text-only retry", func(t *testing.T) {
		h := newHarness(t, toolCall(tools.LogMeal, bad), func(req *llm.Request) (*llm.Response, error) {
			assert.Empty(t, req.Tools)
			return &llm.Response{Text: "언제 먹었는지 알려줄래?"}, nil
		})
		resp, err := h.svc.HandleMessage(context.Background(), &Request{UserID: user, Content: "계란 먹었어"})
		require.NoError(t, err)
		assert.Equal(t, "언제 먹었는지 알려줄래?", resp.Message)
		assert.Empty(t, h.meals(t))
	})

	t.Run("retry fails", func(t *testing.T) {
		h := newHarness(t, toolCall(tools.LogMeal, `not json`), fail)
		resp, err := h.svc.HandleMessage(context.Background(), &Request{UserID: user, Content: "계란 먹었어"})
		require.NoError(t, err)
		assert.Equal(t, DefaultMessages.Apology, resp.Message)
		assert.Equal(t, NoCommand, resp.Outcome)
	})
}

func TestHandleMessage_ToolNotOfferedIsIgnored(t *testing.T) {
	h := newHarness(t, toolCall(tools.LogMeal, eggArgs), text("배고프면 물 한 잔 먼저!"))

	resp, err := h.svc.HandleMessage(context.Background(), &Request{UserID: user, Content: "배고파"})
	require.NoError(t, err)
	assert.Equal(t, intent.CasualChat, resp.Intent)
	assert.Equal(t, NoCommand, resp.Outcome)
	assert.Empty(t, h.meals(t))
	assert.Empty(t, h.model.requests[0].Tools)
}

type failingExecutor struct{ calls int }

func (f *failingExecutor) Execute(context.Context, string, tools.Command) (*tools.Result, error) {
	f.calls++
	return nil, errors.New("database is locked")
}

func TestHandleMessage_StoreFailure(t *testing.T) {
	h := newHarness(t, toolCall(tools.LogMeal, eggArgs))
	exec := &failingExecutor{}
	h.svc.executor = exec

	resp, err := h.svc.HandleMessage(context.Background(), &Request{UserID: user, Content: "아침에 계란 2개 먹었어"})
	require.NoError(t, err)
	assert.Equal(t, 1, exec.calls)
	assert.Equal(t, Failed, resp.Outcome)
	assert.Equal(t, DefaultMessages.Failure, resp.Message)
	assert.Nil(t, resp.Action)
	assert.Len(t, h.model.requests, 1, "no follow-up after a failed command")
}

func TestHandleMessage_OnlyFirstToolCallHonored(t *testing.T) {
	second := llm.ToolCall{ID: "call_2", Name: tools.LogMeal, Arguments: json.RawMessage(`{"meal_type":"lunch","foods":[{"name":"라면","calories":500}]}`)}
	h := newHarness(t, toolCall(tools.LogMeal, eggArgs, second), text("기록 끝!"))

	_, err := h.svc.HandleMessage(context.Background(), &Request{UserID: user, Content: "계란 2개랑 라면 먹었어"})
	require.NoError(t, err)

	meals := h.meals(t)
	require.Len(t, meals, 1)
	assert.Equal(t, models.Breakfast, meals[0].MealType)
}

func TestHandleMessage_QueryAndCasual(t *testing.T) {
	h := newHarness(t,
		toolCall(tools.GetMeals, `{}`),
		func(req *llm.Request) (*llm.Response, error) {
			assert.Contains(t, req.System, today+" 식단 기록이 없습니다.")
			return &llm.Response{Text: "아직 기록이 없어! 뭐 먹었는지 알려줘."}, nil
		},
		func(req *llm.Request) (*llm.Response, error) {
			assert.Empty(t, req.Tools)
			assert.Equal(t, prompt.ChatMaxTokens, req.MaxTokens)
			assert.Equal(t, 0.3, req.Temperature)
			return &llm.Response{Text: "그래도 힘내."}, nil
		},
	)

	resp, err := h.svc.HandleMessage(context.Background(), &Request{UserID: user, Content: "오늘 뭐 먹었지?"})
	require.NoError(t, err)
	assert.Equal(t, intent.MealQuery, resp.Intent)
	assert.Equal(t, CommandExecuted, resp.Outcome)

	resp, err = h.svc.HandleMessage(context.Background(), &Request{UserID: user, Content: "배고파", Persona: prompt.Cold})
	require.NoError(t, err)
	assert.Equal(t, intent.CasualChat, resp.Intent)
	assert.Equal(t, "그래도 힘내.", resp.Message)

	casual := h.model.requests[2]
	require.Len(t, casual.Messages, 3)
	assert.Equal(t, "배고파", casual.Messages[2].Content)
}

func TestHandleMessage_PersonaFromProfile(t *testing.T) {
	h := newHarness(t, text("음."))
	require.NoError(t, h.store.UpsertProfile(context.Background(), &models.Profile{UserID: user, Persona: prompt.Strict}))

	_, err := h.svc.HandleMessage(context.Background(), &Request{UserID: user, Content: "안녕"})
	require.NoError(t, err)
	assert.Equal(t, 0.5, h.model.requests[0].Temperature)
}

type brokenConversation struct{ *storage.Store }

func (brokenConversation) AppendMessage(context.Context, *models.ChatMessage) error {
	return errors.New("read-only database")
}

func TestHandleMessage_UserMessageNotPersisted(t *testing.T) {
	h := newHarness(t)
	h.svc.store = brokenConversation{h.store}

	resp, err := h.svc.HandleMessage(context.Background(), &Request{UserID: user, Content: "안녕"})
	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Empty(t, h.model.requests)
}

func TestHandleMessage_InvalidRequest(t *testing.T) {
	h := newHarness(t)
	for _, req := range []*Request{nil, {Content: "안녕"}, {UserID: user, Content: "  "}} {
		_, err := h.svc.HandleMessage(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	}
}

func TestHistoryAndClear(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for i := 0; i < 60; i++ {
		require.NoError(t, h.store.AppendMessage(ctx, &models.ChatMessage{UserID: user, Role: models.RoleUser, Content: "x"}))
	}

	msgs, err := h.svc.History(ctx, user, 500)
	require.NoError(t, err)
	assert.Len(t, msgs, MaxHistory)

	msgs, err = h.svc.History(ctx, user, 5)
	require.NoError(t, err)
	assert.Len(t, msgs, 5)

	_, err = h.svc.History(ctx, "", 5)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	n, err := h.svc.ClearHistory(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(60), n)

	msgs, err = h.svc.History(ctx, user, 5)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.NotNil(t, msgs)
}
