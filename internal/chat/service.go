// Package chat runs one coaching turn end to end: persist the user message,
// classify, assemble the prompt, call the model, execute at most one meal
// command and persist the reply.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"diet-coach/internal/intent"
	"diet-coach/internal/lexicon"
	"diet-coach/internal/llm"
	"diet-coach/internal/models"
	"diet-coach/internal/prompt"
	"diet-coach/internal/situation"
	"diet-coach/internal/tools"
)

const (
	// MaxHistory caps History listings.
	MaxHistory = 50
	dateLayout = "2006-01-02"
)

var ErrInvalidRequest = errors.New("invalid chat request")

// ConversationStore persists chat turns.
type ConversationStore interface {
	AppendMessage(ctx context.Context, msg *models.ChatMessage) error
	RecentMessages(ctx context.Context, userID string, limit int) ([]*models.ChatMessage, error)
	ClearMessages(ctx context.Context, userID string) (int64, error)
}

// NutritionReader reads the user's current nutritional state.
type NutritionReader interface {
	NutritionSnapshot(ctx context.Context, userID, today string) (*models.NutritionSnapshot, error)
}

// ProfileReader supplies the user's saved persona.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

type CommandExecutor interface {
	Execute(ctx context.Context, userID string, cmd tools.Command) (*tools.Result, error)
}

// Messages are the fixed replies used when a turn cannot complete.
type Messages struct {
	// Apology replaces the reply when the model cannot be reached.
	Apology string
	// Failure is used when a parsed command could not be stored.
	Failure string
}

var DefaultMessages = Messages{
	Apology: "죄송해요, 지금은 응답을 생성할 수 없습니다. 잠시 후 다시 시도해 주세요.",
	Failure: "앗, 기록을 저장하지 못했어요. 아무것도 변경되지 않았으니 다시 한 번 말해 주세요.",
}

type Request struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
	Persona string `json:"persona,omitempty"`
}

type Response struct {
	Message    string                `json:"message"`
	Intent     intent.Intent         `json:"intent"`
	Situation  situation.Situation   `json:"situation"`
	Situations []situation.Situation `json:"situations"`
	Action     *tools.Result         `json:"action_result,omitempty"`
	Outcome    State                 `json:"outcome"`
	Trace      []State               `json:"trace"`
}

func (r *Response) enter(s State) {
	r.Trace = append(r.Trace, s)
}

type Service struct {
	store     ConversationStore
	nutrition NutritionReader
	executor  CommandExecutor
	model     llm.Client

	classifier *intent.Classifier
	detector   *situation.Detector

	profiles       ProfileReader
	logger         *zap.Logger
	clock          func() time.Time
	location       *time.Location
	defaultPersona string
	messages       Messages
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithLocation sets the zone that decides the user's "today" and hour.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.location = loc }
}

func WithProfiles(p ProfileReader) Option {
	return func(s *Service) { s.profiles = p }
}

func WithDefaultPersona(id string) Option {
	return func(s *Service) { s.defaultPersona = id }
}

func WithMessages(m Messages) Option {
	return func(s *Service) { s.messages = m }
}

func NewService(store ConversationStore, nutrition NutritionReader, executor CommandExecutor, model llm.Client, lex *lexicon.Lexicon, opts ...Option) *Service {
	if lex == nil {
		lex = lexicon.Default()
	}
	s := &Service{
		store:          store,
		nutrition:      nutrition,
		executor:       executor,
		model:          model,
		classifier:     intent.NewClassifier(&lex.Intent),
		detector:       situation.NewDetector(&lex.Situation),
		logger:         zap.NewNop(),
		clock:          time.Now,
		location:       time.Local,
		defaultPersona: prompt.Bright,
		messages:       DefaultMessages,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleMessage runs one turn. Model and store failures after the user
// message is saved are answered with a fixed reply, not an error; an error
// is returned only when the turn could not be recorded.
func (s *Service) HandleMessage(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "user_id and content are required")
	}
	logger := s.logger.With(zap.String("user_id", req.UserID))
	resp := &Response{}
	resp.enter(Received)

	userMsg := &models.ChatMessage{UserID: req.UserID, Role: models.RoleUser, Content: req.Content}
	if err := s.store.AppendMessage(ctx, userMsg); err != nil {
		return nil, errors.Wrap(err, "failed to persist user message")
	}

	now := s.clock().In(s.location)
	today := now.Format(dateLayout)

	resp.Intent = s.classifier.Classify(req.Content)
	resp.enter(Classified)
	capabilities := tools.ForIntent(resp.Intent)
	resp.enter(ToolsSelected)

	snap, err := s.nutrition.NutritionSnapshot(ctx, req.UserID, today)
	if err != nil {
		logger.Error("Failed to read nutrition snapshot", zap.Error(err))
		return s.finish(ctx, req.UserID, resp, Failed, s.messages.Apology)
	}
	history, err := s.store.RecentMessages(ctx, req.UserID, prompt.HistoryWindow)
	if err != nil {
		logger.Warn("Failed to read history, continuing with current message only", zap.Error(err))
		history = []*models.ChatMessage{userMsg}
	}

	sctx := situationContext(snap, now, snap.TodayFoods, false)
	resp.Situation, resp.Situations = s.detector.Detect(sctx), s.detector.DetectAll(sctx)
	base := prompt.Build(&prompt.Input{
		Persona:    s.persona(ctx, req),
		Intent:     resp.Intent,
		Tools:      capabilities,
		Snapshot:   snap,
		Situation:  resp.Situation,
		Situations: resp.Situations,
		History:    history,
		Now:        now,
	})
	resp.enter(PromptAssembled)

	out, err := s.model.Complete(ctx, base)
	resp.enter(ModelInvoked)
	if err != nil {
		logger.Warn("Model call failed", zap.String("intent", string(resp.Intent)), zap.Error(err))
		return s.finish(ctx, req.UserID, resp, Failed, s.messages.Apology)
	}

	if len(out.ToolCalls) == 0 {
		return s.finish(ctx, req.UserID, resp, NoCommand, s.orApology(out.Text))
	}
	call := out.ToolCalls[0]
	if len(out.ToolCalls) > 1 {
		ignored := make([]string, 0, len(out.ToolCalls)-1)
		for _, c := range out.ToolCalls[1:] {
			ignored = append(ignored, c.Name)
		}
		logger.Warn("Ignoring extra tool calls", zap.String("honored", call.Name), zap.Strings("ignored", ignored))
	}

	cmd, err := s.parse(call, capabilities, today)
	if err != nil {
		logger.Warn("Rejected tool call", zap.String("tool", call.Name), zap.Error(err))
		return s.finish(ctx, req.UserID, resp, NoCommand, s.degrade(ctx, logger, out.Text, base))
	}

	res, err := s.executor.Execute(ctx, req.UserID, cmd)
	if err != nil {
		logger.Error("Command failed", zap.String("tool", cmd.Tool()), zap.Error(err))
		return s.finish(ctx, req.UserID, resp, Failed, s.messages.Failure)
	}
	resp.Action = res
	logger.Info("Command executed",
		zap.String("tool", res.Tool),
		zap.Bool("success", res.Success),
		zap.String("date", cmd.CommandDate()))

	message := s.followUp(ctx, logger, req.UserID, resp, base, cmd, res, snap, now)
	return s.finish(ctx, req.UserID, resp, CommandExecuted, message)
}

// parse validates call and refuses tools that were not offered this turn.
func (s *Service) parse(call llm.ToolCall, offered tools.CapabilitySet, today string) (tools.Command, error) {
	allowed := false
	for _, name := range offered.Names() {
		if name == call.Name {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, errors.Wrapf(tools.ErrUnparseable, "tool %q was not offered", call.Name)
	}
	return tools.Parse(call.Invocation(), today)
}

// degrade produces a plain reply after a rejected tool call: the model's own
// text if it sent any, else a tool-free retry, else the apology.
func (s *Service) degrade(ctx context.Context, logger *zap.Logger, text string, base *llm.Request) string {
	if strings.TrimSpace(text) != "" {
		return text
	}
	out, err := s.model.Complete(ctx, prompt.TextOnly(base))
	if err != nil {
		logger.Warn("Text-only retry failed", zap.Error(err))
		return s.messages.Apology
	}
	return s.orApology(out.Text)
}

// followUp re-reads the user's state after a command and asks the model to
// phrase the result. The deterministic summary stands in when the model
// cannot.
func (s *Service) followUp(ctx context.Context, logger *zap.Logger, userID string, resp *Response, base *llm.Request, cmd tools.Command, res *tools.Result, before *models.NutritionSnapshot, now time.Time) string {
	fresh, err := s.nutrition.NutritionSnapshot(ctx, userID, before.Date)
	if err != nil {
		logger.Warn("Failed to refresh nutrition snapshot", zap.Error(err))
		return res.Message
	}

	foods := fresh.TodayFoods
	firstMeal := false
	switch c := cmd.(type) {
	case *tools.LogMealCommand:
		if len(res.Added) > 0 {
			foods = make([]string, len(res.Added))
			for i, it := range res.Added {
				foods[i] = it.Name
			}
			firstMeal = c.Date == before.Date && before.MealsToday == 0
		}
	case *tools.UpdateMealCommand:
		if res.Success {
			foods = []string{c.NewFood.Name}
		}
	}
	sctx := situationContext(fresh, now, foods, firstMeal)
	resp.Situation, resp.Situations = s.detector.Detect(sctx), s.detector.DetectAll(sctx)

	out, err := s.model.Complete(ctx, prompt.FollowUp(base, res.Message, fresh, resp.Situation, resp.Situations, now))
	if err != nil || strings.TrimSpace(out.Text) == "" {
		if err == nil {
			err = llm.ErrEmptyResponse
		}
		logger.Warn("Follow-up reply failed, using result summary", zap.Error(err))
		return prompt.ResultSummary(res, fresh)
	}
	return out.Text
}

func (s *Service) finish(ctx context.Context, userID string, resp *Response, outcome State, message string) (*Response, error) {
	resp.Outcome = outcome
	resp.enter(outcome)
	resp.Message = message
	if resp.Situation == "" {
		resp.Situation = situation.Default
		resp.Situations = []situation.Situation{situation.Default}
	}

	reply := &models.ChatMessage{UserID: userID, Role: models.RoleAssistant, Content: message}
	if err := s.store.AppendMessage(ctx, reply); err != nil {
		return nil, errors.Wrap(err, "failed to persist assistant message")
	}
	resp.enter(Persisted)
	resp.enter(Responded)
	return resp, nil
}

func (s *Service) persona(ctx context.Context, req *Request) prompt.Persona {
	if _, ok := prompt.Lookup(req.Persona); ok || s.profiles == nil {
		return prompt.Resolve(req.Persona, s.defaultPersona)
	}
	p, err := s.profiles.GetProfile(ctx, req.UserID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Warn("Failed to read profile", zap.String("user_id", req.UserID), zap.Error(err))
		}
		return prompt.Resolve("", s.defaultPersona)
	}
	return prompt.Resolve(p.Persona, s.defaultPersona)
}

func (s *Service) orApology(text string) string {
	if strings.TrimSpace(text) == "" {
		return s.messages.Apology
	}
	return text
}

// History returns up to limit recent messages, oldest first. limit is
// clamped to (0, MaxHistory].
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*models.ChatMessage, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "user_id is required")
	}
	if limit <= 0 || limit > MaxHistory {
		limit = MaxHistory
	}
	msgs, err := s.store.RecentMessages(ctx, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load history")
	}
	if msgs == nil {
		msgs = []*models.ChatMessage{}
	}
	return msgs, nil
}

// ClearHistory deletes the user's conversation and returns how many
// messages were removed.
func (s *Service) ClearHistory(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, errors.Wrap(ErrInvalidRequest, "user_id is required")
	}
	n, err := s.store.ClearMessages(ctx, userID)
	return n, errors.Wrap(err, "failed to clear history")
}

func situationContext(snap *models.NutritionSnapshot, now time.Time, foods []string, firstMeal bool) situation.Context {
	return situation.Context{
		Hour:             now.Hour(),
		ConsumedCalories: snap.ConsumedCalories,
		TargetCalories:   snap.TargetCalories,
		Foods:            foods,
		StreakDays:       snap.StreakDays,
		FirstMealToday:   firstMeal,
	}
}
