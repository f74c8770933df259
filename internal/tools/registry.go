package tools

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	lctools "github.com/tmc/langchaingo/tools"
)

// mealTool adapts one schema to the langchaingo tool interface for a single
// user. Input is the raw JSON argument object.
type mealTool struct {
	schema Schema
	exec   *Executor
	userID string
	today  string
}

var _ lctools.Tool = (*mealTool)(nil)

func (t *mealTool) Name() string        { return t.schema.Name }
func (t *mealTool) Description() string { return t.schema.Description }

// Call parses and executes input. Payloads that fail validation return an
// error wrapping ErrUnparseable and touch nothing.
func (t *mealTool) Call(ctx context.Context, input string) (string, error) {
	cmd, err := Parse(Invocation{Name: t.schema.Name, Arguments: json.RawMessage(input)}, t.today)
	if err != nil {
		return "", err
	}
	res, err := t.exec.Execute(ctx, t.userID, cmd)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(res)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal result")
	}
	return string(out), nil
}

// Registry builds the per-user tool registry keyed by tool name.
func Registry(exec *Executor, userID, today string) map[string]lctools.Tool {
	reg := make(map[string]lctools.Tool)
	for _, s := range All() {
		reg[s.Name] = &mealTool{schema: s, exec: exec, userID: userID, today: today}
	}
	return reg
}
